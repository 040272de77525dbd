package storage

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"miniflux_bot/internal/model"
)

func newTestStore(t *testing.T) *SQLite {
	t.Helper()
	store, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedChannel(t *testing.T, store *SQLite, channel string, feedID int64) *model.TrackedChannel {
	t.Helper()
	ch := &model.TrackedChannel{
		Channel: channel,
		FeedID:  feedID,
		Title:   channel,
		Status:  model.ChannelActive,
	}
	if err := store.CreateChannel(context.Background(), ch); err != nil {
		t.Fatalf("seed channel: %v", err)
	}
	return ch
}

func TestCreateChannel(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ch := seedChannel(t, store, "news_ch", 7)
	if ch.ID == 0 {
		t.Fatal("expected ID to be populated")
	}
	if ch.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be populated")
	}

	t.Run("duplicate channel rejected", func(t *testing.T) {
		dup := &model.TrackedChannel{Channel: "news_ch", FeedID: 8, Status: model.ChannelActive}
		if err := store.CreateChannel(ctx, dup); err == nil {
			t.Fatal("expected unique constraint error, got nil")
		}
	})
}

func TestGetChannel(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seeded := seedChannel(t, store, "news_ch", 7)

	got, err := store.GetChannel(ctx, seeded.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(seeded, got); diff != "" {
		t.Errorf("channel mismatch (-want +got):\n%s", diff)
	}

	if _, err := store.GetChannel(ctx, 999); err == nil {
		t.Fatal("expected error for missing channel")
	}
}

func TestGetChannelByName(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seeded := seedChannel(t, store, "News_Ch", 7)

	got, err := store.GetChannelByName(ctx, "news_ch")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(seeded.ID, got.ID); diff != "" {
		t.Errorf("id mismatch (-want +got):\n%s", diff)
	}
}

func TestListChannels(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := seedChannel(t, store, "a_ch", 1)
	seedChannel(t, store, "b_ch", 2)
	a.Status = model.ChannelInactive
	if err := store.UpdateChannel(ctx, a); err != nil {
		t.Fatalf("update: %v", err)
	}

	active, err := store.ListChannels(ctx, model.ChannelActive)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(1, len(active)); diff != "" {
		t.Errorf("active count (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("b_ch", active[0].Channel); diff != "" {
		t.Errorf("channel (-want +got):\n%s", diff)
	}

	inactive, err := store.ListChannels(ctx, model.ChannelInactive)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(1, len(inactive)); diff != "" {
		t.Errorf("inactive count (-want +got):\n%s", diff)
	}
}

func TestUpdateChannel(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	ch := seedChannel(t, store, "news_ch", 7)

	ch.FeedID = 42
	ch.Title = "Renamed"
	if err := store.UpdateChannel(ctx, ch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.GetChannel(ctx, ch.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(int64(42), got.FeedID); diff != "" {
		t.Errorf("feed id (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("Renamed", got.Title); diff != "" {
		t.Errorf("title (-want +got):\n%s", diff)
	}

	t.Run("missing channel", func(t *testing.T) {
		missing := &model.TrackedChannel{ID: 999, Channel: "x", Status: model.ChannelActive}
		if err := store.UpdateChannel(ctx, missing); err == nil {
			t.Fatal("expected error for missing channel")
		}
	})
}

func TestDeleteChannel(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	ch := seedChannel(t, store, "doomed", 7)

	if err := store.DeleteChannel(ctx, ch.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.GetChannel(ctx, ch.ID); err == nil {
		t.Fatal("expected error after delete")
	}
}
