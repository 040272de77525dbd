// Package feedconf implements the codec between a subscription's filter
// configuration and the query string of its feed URL. Miniflux stores one
// opaque URL per feed, so the query string is the only place this
// configuration can live.
package feedconf

import (
	"net/url"
	"strconv"
	"strings"
)

// Query parameters understood by the RSS bridge.
const (
	paramExcludeFlags = "exclude_flags"
	paramExcludeText  = "exclude_text"
	paramMergeSeconds = "merge_seconds"
)

// Config is the decoded filter/merge configuration of one subscription.
// A zero field means the corresponding parameter is absent from the URL:
// nil ExcludeFlags, empty ExcludeText, and MergeSeconds <= 0 all encode
// to nothing.
type Config struct {
	BaseURL      string
	ChannelName  string
	ExcludeFlags []string
	ExcludeText  string
	MergeSeconds int
}

// ExtractFunc extracts the channel identity from a feed URL. It returns
// an empty string when the URL does not belong to a known bridge.
type ExtractFunc func(feedURL string) string

// Codec decodes feed URLs into Configs. The channel-identity rule is
// injected so the codec stays independent of the bridge template.
type Codec struct {
	extract ExtractFunc
}

// New creates a Codec with the given channel extractor. A nil extractor
// leaves ChannelName empty on every decode.
func New(extract ExtractFunc) *Codec {
	if extract == nil {
		extract = func(string) string { return "" }
	}
	return &Codec{extract: extract}
}

// Decode splits a feed URL into its base URL and filter configuration.
// It never fails: malformed parameters degrade to their zero value, since
// the URL ultimately comes from a remote store the bot does not control.
func (c *Codec) Decode(feedURL string) Config {
	withoutFragment, _, _ := strings.Cut(feedURL, "#")
	base, query, _ := strings.Cut(withoutFragment, "?")

	params := parseQuery(query)

	cfg := Config{
		BaseURL:     base,
		ChannelName: c.extract(feedURL),
	}

	if raw, ok := params[paramExcludeFlags]; ok && raw != "" {
		cfg.ExcludeFlags = strings.Split(raw, ",")
	}
	cfg.ExcludeText = params[paramExcludeText]
	if raw, ok := params[paramMergeSeconds]; ok {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			cfg.MergeSeconds = n
		}
	}
	return cfg
}

// Encode builds a feed URL from a base URL and filter configuration.
// Parameters are appended in a fixed order (flags, text, merge) so that
// identical inputs always produce byte-identical URLs; the reconcile step
// relies on that. Commas joining flags are left unencoded because the
// bridge expects its list syntax verbatim. Empty or disabled values are
// omitted entirely: absence is the wire signal for "no filter".
func Encode(baseURL string, flags []string, excludeText string, mergeSeconds int) string {
	var params []string
	if len(flags) > 0 {
		escaped := make([]string, len(flags))
		for i, f := range flags {
			escaped[i] = url.QueryEscape(f)
		}
		params = append(params, paramExcludeFlags+"="+strings.Join(escaped, ","))
	}
	if excludeText != "" {
		params = append(params, paramExcludeText+"="+url.QueryEscape(excludeText))
	}
	if mergeSeconds > 0 {
		params = append(params, paramMergeSeconds+"="+strconv.Itoa(mergeSeconds))
	}

	if len(params) == 0 {
		return baseURL
	}
	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}
	return baseURL + sep + strings.Join(params, "&")
}

// Encoded re-encodes the configuration onto its own base URL.
func (cfg Config) Encoded() string {
	return Encode(cfg.BaseURL, cfg.ExcludeFlags, cfg.ExcludeText, cfg.MergeSeconds)
}

// parseQuery parses a raw query string, keeping blank values and taking
// the first occurrence of duplicate keys. Unlike url.ParseQuery it never
// returns an error: pairs that fail to unescape are kept verbatim.
func parseQuery(query string) map[string]string {
	params := make(map[string]string)
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		if decoded, err := url.QueryUnescape(key); err == nil {
			key = decoded
		}
		if decoded, err := url.QueryUnescape(value); err == nil {
			value = decoded
		}
		if _, seen := params[key]; !seen {
			params[key] = value
		}
	}
	return params
}
