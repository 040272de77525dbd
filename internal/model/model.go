// Package model defines the domain types used across the application.
package model

import "time"

// Category is a Miniflux feed category.
type Category struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Subscription is a single tracked feed in Miniflux, identified by an
// opaque id and exactly one URL. The bot never mutates the id; it only
// rewrites the URL.
type Subscription struct {
	ID       int64    `json:"id"`
	FeedURL  string   `json:"feed_url"`
	Title    string   `json:"title"`
	Category Category `json:"category"`
}

// FeedLink is a candidate feed discovered on an HTML page via
// <link rel="alternate"> references.
type FeedLink struct {
	Title string
	Href  string
}

// ChannelStatus is the lifecycle state of a tracked channel in the
// local bookkeeping database.
type ChannelStatus string

// Supported channel statuses.
const (
	ChannelActive   ChannelStatus = "active"
	ChannelInactive ChannelStatus = "inactive"
	ChannelPending  ChannelStatus = "pending"
)

// TrackedChannel is a bookkeeping record of a Telegram channel the
// operator has subscribed to at some point. It lives in the local
// sqlite store, not in Miniflux.
type TrackedChannel struct {
	ID        int64
	Channel   string
	FeedID    int64
	Title     string
	Status    ChannelStatus
	CreatedAt time.Time
}
