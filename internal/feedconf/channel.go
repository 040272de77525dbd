package feedconf

import (
	"net/url"
	"strings"
)

// ChannelPlaceholder is the token in a bridge URL template that is
// replaced with the channel identity.
const ChannelPlaceholder = "{channel}"

// BridgeExtractor returns an ExtractFunc for the given RSS-Bridge URL
// template. The template either contains the {channel} placeholder or is
// a base URL the channel identity is appended to as a path segment.
func BridgeExtractor(template string) ExtractFunc {
	return func(feedURL string) string {
		if template == "" {
			return ""
		}

		prefix, _, hasPlaceholder := strings.Cut(template, ChannelPlaceholder)
		if !strings.HasPrefix(feedURL, prefix) {
			return ""
		}

		rest := strings.TrimPrefix(feedURL, prefix)
		if !hasPlaceholder {
			rest = strings.TrimPrefix(rest, "/")
		}
		if i := strings.IndexAny(rest, "/?"); i >= 0 {
			rest = rest[:i]
		}
		if rest == "" {
			return ""
		}
		if decoded, err := url.PathUnescape(rest); err == nil {
			return decoded
		}
		return rest
	}
}

// SubscribeURL builds the bridge feed URL for a channel: the placeholder
// is replaced verbatim when the template has one, otherwise the identity
// is appended as a path segment.
func SubscribeURL(template, channel string) string {
	if strings.Contains(template, ChannelPlaceholder) {
		return strings.ReplaceAll(template, ChannelPlaceholder, channel)
	}
	return strings.TrimSuffix(template, "/") + "/" + channel
}
