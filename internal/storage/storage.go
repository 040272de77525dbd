// Package storage defines the persistence interface and its implementations.
//
// This is local bookkeeping of subscribed channels only. The bot's live
// path reads everything from Miniflux; this store exists for offline
// auditing and is maintained by the migrate tool.
package storage

import (
	"context"

	"miniflux_bot/internal/model"
)

// Storage is the interface for all persistence operations.
type Storage interface {
	CreateChannel(ctx context.Context, ch *model.TrackedChannel) error
	GetChannel(ctx context.Context, id int64) (*model.TrackedChannel, error)
	GetChannelByName(ctx context.Context, channel string) (*model.TrackedChannel, error)
	ListChannels(ctx context.Context, status model.ChannelStatus) ([]model.TrackedChannel, error)
	UpdateChannel(ctx context.Context, ch *model.TrackedChannel) error
	DeleteChannel(ctx context.Context, id int64) error

	Close() error
}
