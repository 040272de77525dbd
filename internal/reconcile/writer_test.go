package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"miniflux_bot/internal/miniflux"
	"miniflux_bot/internal/model"
)

type fakeStore struct {
	updateErr error
	getErr    error
	storedURL string
	updated   []string
}

func (f *fakeStore) UpdateFeed(_ context.Context, _ int64, feedURL string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = append(f.updated, feedURL)
	if f.storedURL == "" {
		f.storedURL = feedURL
	}
	return nil
}

func (f *fakeStore) GetFeed(_ context.Context, id int64) (*model.Subscription, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &model.Subscription{ID: id, FeedURL: f.storedURL}, nil
}

func TestApply(t *testing.T) {
	ctx := context.Background()

	t.Run("verified write returns stored url", func(t *testing.T) {
		store := &fakeStore{}
		got, err := NewWriter(store).Apply(ctx, 7, "https://b.example.com/rss/ch/t?exclude_text=spam")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff("https://b.example.com/rss/ch/t?exclude_text=spam", got); diff != "" {
			t.Errorf("url (-want +got):\n%s", diff)
		}
	})

	t.Run("normalized url surfaces as mismatch", func(t *testing.T) {
		store := &fakeStore{storedURL: "https://b.example.com/rss/ch/t"}
		_, err := NewWriter(store).Apply(ctx, 7, "https://b.example.com/rss/ch/t?exclude_text=spam")

		var mismatch *MismatchError
		if !errors.As(err, &mismatch) {
			t.Fatalf("expected *MismatchError, got %v", err)
		}
		if diff := cmp.Diff("https://b.example.com/rss/ch/t?exclude_text=spam", mismatch.Expected); diff != "" {
			t.Errorf("expected url (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff("https://b.example.com/rss/ch/t", mismatch.Actual); diff != "" {
			t.Errorf("actual url (-want +got):\n%s", diff)
		}
	})

	t.Run("api error passes through typed", func(t *testing.T) {
		store := &fakeStore{updateErr: &miniflux.APIError{StatusCode: 400, Message: "bad url"}}
		_, err := NewWriter(store).Apply(ctx, 7, "https://x.example.com")

		var apiErr *miniflux.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *miniflux.APIError, got %v", err)
		}
		if diff := cmp.Diff(400, apiErr.StatusCode); diff != "" {
			t.Errorf("status (-want +got):\n%s", diff)
		}
		if len(store.updated) != 0 {
			t.Errorf("no update should be recorded, got %v", store.updated)
		}
	})

	t.Run("read-back failure is an error not a success", func(t *testing.T) {
		store := &fakeStore{getErr: &miniflux.APIError{StatusCode: 404, Message: "not found"}}
		_, err := NewWriter(store).Apply(ctx, 7, "https://x.example.com")
		if err == nil {
			t.Fatal("expected error, got nil")
		}
	})

	t.Run("single attempt per call", func(t *testing.T) {
		store := &fakeStore{storedURL: "https://wrong.example.com"}
		_, _ = NewWriter(store).Apply(ctx, 7, "https://x.example.com")
		if diff := cmp.Diff(1, len(store.updated)); diff != "" {
			t.Errorf("update count (-want +got):\n%s", diff)
		}
	})
}
