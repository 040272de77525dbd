// Package resolver correlates Telegram channel identities with Miniflux
// subscriptions by decoding each subscription URL.
package resolver

import (
	"strings"

	"github.com/samber/lo"

	"miniflux_bot/internal/feedconf"
	"miniflux_bot/internal/model"
)

// Resolver finds subscriptions by their decoded channel identity.
type Resolver struct {
	codec *feedconf.Codec
}

// New creates a Resolver using the given codec.
func New(codec *feedconf.Codec) *Resolver {
	return &Resolver{codec: codec}
}

// FindByChannelName returns the first subscription whose URL decodes to
// the given channel name, compared case-insensitively, or nil when none
// matches. A linear scan is fine here: subscription counts are small and
// Miniflux offers no server-side lookup by decoded identity.
func (r *Resolver) FindByChannelName(subs []model.Subscription, name string) *model.Subscription {
	sub, ok := lo.Find(subs, func(s model.Subscription) bool {
		channel := r.codec.Decode(s.FeedURL).ChannelName
		return channel != "" && strings.EqualFold(channel, name)
	})
	if !ok {
		return nil
	}
	return &sub
}

// HasFeedURL reports whether any subscription stores exactly this URL.
// Used for direct RSS/Atom subscriptions, which have no channel identity.
func HasFeedURL(subs []model.Subscription, feedURL string) bool {
	return lo.SomeBy(subs, func(s model.Subscription) bool {
		return s.FeedURL == feedURL
	})
}
