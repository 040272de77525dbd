package miniflux

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/h2non/gock"

	"miniflux_bot/internal/model"
)

const testBase = "https://reader.example.com"

func newTestClient() *Client {
	hc := &http.Client{Transport: gock.NewTransport()}
	return NewClient(testBase, WithAPIKey("secret"), WithHTTPClient(hc))
}

func TestListCategories(t *testing.T) {
	defer gock.Off()

	gock.New(testBase).
		Get("/v1/categories").
		MatchHeader("X-Auth-Token", "secret").
		Reply(200).
		JSON([]map[string]any{
			{"id": 1, "title": "News"},
			{"id": 2, "title": "Tech"},
		})

	got, err := newTestClient().ListCategories(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []model.Category{{ID: 1, Title: "News"}, {ID: 2, Title: "Tech"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
}

func TestListFeeds(t *testing.T) {
	defer gock.Off()

	gock.New(testBase).
		Get("/v1/feeds").
		Reply(200).
		JSON([]map[string]any{
			{
				"id":       7,
				"feed_url": "https://bridge.example.com/rss/news_ch/token",
				"title":    "News Channel",
				"category": map[string]any{"id": 1, "title": "News"},
			},
		})

	got, err := newTestClient().ListFeeds(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []model.Subscription{{
		ID:       7,
		FeedURL:  "https://bridge.example.com/rss/news_ch/token",
		Title:    "News Channel",
		Category: model.Category{ID: 1, Title: "News"},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("feeds mismatch (-want +got):\n%s", diff)
	}
}

func TestGetFeed(t *testing.T) {
	defer gock.Off()

	gock.New(testBase).
		Get("/v1/feeds/7").
		Reply(200).
		JSON(map[string]any{"id": 7, "feed_url": "https://f.example.com/rss", "title": "F"})

	got, err := newTestClient().GetFeed(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff("https://f.example.com/rss", got.FeedURL); diff != "" {
		t.Errorf("feed url mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateFeed(t *testing.T) {
	defer gock.Off()

	gock.New(testBase).
		Post("/v1/feeds").
		JSON(map[string]any{"feed_url": "https://f.example.com/rss", "category_id": 3}).
		Reply(201).
		JSON(map[string]any{"feed_id": 42})

	id, err := newTestClient().CreateFeed(context.Background(), "https://f.example.com/rss", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(int64(42), id); diff != "" {
		t.Errorf("feed id mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateFeed(t *testing.T) {
	defer gock.Off()

	gock.New(testBase).
		Put("/v1/feeds/7").
		JSON(map[string]any{"feed_url": "https://f.example.com/rss?exclude_flags=fwd"}).
		Reply(201).
		JSON(map[string]any{"id": 7})

	err := newTestClient().UpdateFeed(context.Background(), 7, "https://f.example.com/rss?exclude_flags=fwd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDeleteFeed(t *testing.T) {
	defer gock.Off()

	gock.New(testBase).
		Delete("/v1/feeds/7").
		Reply(204)

	if err := newTestClient().DeleteFeed(context.Background(), 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAPIErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       map[string]any
		wantMsg    string
		wantClient bool
		wantServer bool
	}{
		{
			name:       "bad request with error_message",
			status:     400,
			body:       map[string]any{"error_message": "invalid feed URL"},
			wantMsg:    "invalid feed URL",
			wantClient: true,
		},
		{
			name:       "server error",
			status:     502,
			body:       map[string]any{"error_message": "upstream failure"},
			wantMsg:    "upstream failure",
			wantServer: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer gock.Off()

			gock.New(testBase).
				Get("/v1/feeds").
				Reply(tt.status).
				JSON(tt.body)

			_, err := newTestClient().ListFeeds(context.Background())
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %v", err)
			}
			if diff := cmp.Diff(tt.status, apiErr.StatusCode); diff != "" {
				t.Errorf("status (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantMsg, apiErr.Message); diff != "" {
				t.Errorf("message (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantClient, apiErr.IsClientError()); diff != "" {
				t.Errorf("IsClientError (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantServer, apiErr.IsServerError()); diff != "" {
				t.Errorf("IsServerError (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBasicAuth(t *testing.T) {
	defer gock.Off()

	gock.New(testBase).
		Get("/v1/categories").
		MatchHeader("Authorization", "Basic YWRtaW46cGFzcw==").
		Reply(200).
		JSON([]map[string]any{})

	hc := &http.Client{Transport: gock.NewTransport()}
	client := NewClient(testBase, WithBasicAuth("admin", "pass"), WithHTTPClient(hc))
	if _, err := client.ListCategories(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
