// Package discover probes URLs sent by the operator: is this a feed, or
// an HTML page advertising feeds via <link rel="alternate">?
package discover

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"miniflux_bot/internal/model"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Some servers refuse requests without a browser-looking user agent.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/96.0.4664.110 Safari/537.36"

var feedContentTypes = []string{
	"application/rss+xml",
	"application/atom+xml",
	"application/xml",
	"text/xml",
	"rss",
	"atom",
}

// Result is the outcome of probing a URL. Exactly one of DirectURL and
// Links is set when something was found; both empty means the URL is
// neither a feed nor a page with feed links.
type Result struct {
	DirectURL string
	Links     []model.FeedLink
}

// Prober classifies URLs by probing them over HTTP.
type Prober struct {
	client  HTTPClient
	timeout time.Duration
}

// New creates a Prober with the given HTTP client.
func New(client HTTPClient) *Prober {
	return &Prober{
		client:  client,
		timeout: 15 * time.Second,
	}
}

// Probe checks whether rawURL is a direct feed or an HTML page with feed
// links. A HEAD request is tried first; if it confirms a feed, no body is
// fetched at all. HEAD failures fall through to GET, since plenty of
// servers reject HEAD outright.
func (p *Prober) Probe(ctx context.Context, rawURL string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if ct, err := p.head(ctx, rawURL); err == nil && isFeedContentType(ct) {
		return Result{DirectURL: rawURL}, nil
	}

	contentType, body, err := p.get(ctx, rawURL)
	if err != nil {
		return Result{}, err
	}

	if isFeedContentType(contentType) {
		return Result{DirectURL: rawURL}, nil
	}
	if strings.Contains(contentType, "text/html") {
		return Result{Links: extractFeedLinks(body, rawURL)}, nil
	}

	// Ambiguous content type: some feeds are served as text/plain or
	// with no Content-Type at all. Let the parser decide.
	if _, err := gofeed.NewParser().ParseString(string(body)); err == nil {
		return Result{DirectURL: rawURL}, nil
	}
	return Result{}, nil
}

func (p *Prober) head(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("head %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("head %s: unexpected status %d", rawURL, resp.StatusCode)
	}
	return normalizeContentType(resp.Header.Get("Content-Type")), nil
}

func (p *Prober) get(ctx context.Context, rawURL string) (string, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("get %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("get %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return "", nil, fmt.Errorf("read body: %w", err)
	}
	return normalizeContentType(resp.Header.Get("Content-Type")), body, nil
}

func isFeedContentType(contentType string) bool {
	for _, ft := range feedContentTypes {
		if strings.Contains(contentType, ft) {
			return true
		}
	}
	return false
}

// normalizeContentType lowercases and strips parameters like charset.
func normalizeContentType(ct string) string {
	ct, _, _ = strings.Cut(ct, ";")
	return strings.ToLower(strings.TrimSpace(ct))
}

// extractFeedLinks scans an HTML document for rel=alternate feed
// references, resolving relative hrefs against the page URL.
func extractFeedLinks(body []byte, pageURL string) []model.FeedLink {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	base, baseErr := url.Parse(pageURL)

	var links []model.FeedLink
	doc.Find(`link[rel="alternate"]`).Each(func(_ int, s *goquery.Selection) {
		linkType := strings.ToLower(s.AttrOr("type", ""))
		if !strings.Contains(linkType, "application/rss+xml") &&
			!strings.Contains(linkType, "application/atom+xml") {
			return
		}

		href := s.AttrOr("href", "")
		if href == "" {
			return
		}
		if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
			if baseErr != nil {
				return
			}
			ref, err := url.Parse(href)
			if err != nil {
				return
			}
			href = base.ResolveReference(ref).String()
		}

		title := strings.TrimSpace(s.AttrOr("title", ""))
		if title == "" {
			title = "RSS/Atom Feed"
		}
		links = append(links, model.FeedLink{Title: title, Href: href})
	})
	return links
}
