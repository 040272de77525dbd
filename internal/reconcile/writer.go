// Package reconcile applies subscription URL updates and verifies the
// remote store actually kept them. Miniflux has been observed to accept
// a write and silently normalize the URL; an unverified "accepted" would
// corrupt the configuration encoded in the query string.
package reconcile

import (
	"context"
	"fmt"

	"miniflux_bot/internal/model"
)

// FeedStore is the slice of the Miniflux client the writer needs.
type FeedStore interface {
	UpdateFeed(ctx context.Context, id int64, feedURL string) error
	GetFeed(ctx context.Context, id int64) (*model.Subscription, error)
}

// MismatchError reports a write that was accepted but not reflected on
// read-back. Both URLs are carried so the operator gets an actionable
// diagnostic instead of a false success.
type MismatchError struct {
	Expected string
	Actual   string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("feed URL not applied as written: expected %q, stored %q", e.Expected, e.Actual)
}

// Writer applies and verifies feed URL updates.
type Writer struct {
	feeds FeedStore
}

// NewWriter creates a Writer on top of the given feed store.
func NewWriter(feeds FeedStore) *Writer {
	return &Writer{feeds: feeds}
}

// Apply rewrites the feed's URL and reads it back, comparing byte for
// byte. On success the stored URL is returned. There is exactly one
// attempt per call: retrying a write endpoint risks duplicate side
// effects, and the operator can simply repeat the command.
func (w *Writer) Apply(ctx context.Context, feedID int64, newURL string) (string, error) {
	if err := w.feeds.UpdateFeed(ctx, feedID, newURL); err != nil {
		return "", fmt.Errorf("update feed %d: %w", feedID, err)
	}

	stored, err := w.feeds.GetFeed(ctx, feedID)
	if err != nil {
		return "", fmt.Errorf("read back feed %d: %w", feedID, err)
	}
	if stored.FeedURL != newURL {
		return "", &MismatchError{Expected: newURL, Actual: stored.FeedURL}
	}
	return stored.FeedURL, nil
}
