// Package miniflux is a minimal client for the Miniflux v1 REST API,
// covering only the endpoints the bot needs: categories and feed CRUD.
package miniflux

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"miniflux_bot/internal/model"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// APIError is a non-2xx response from the Miniflux API. The status code
// and raw message are kept so the operator sees the upstream diagnostic
// verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("miniflux: status %d", e.StatusCode)
	}
	return fmt.Sprintf("miniflux: status %d: %s", e.StatusCode, e.Message)
}

// IsClientError reports whether the failure was a 4xx response.
func (e *APIError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// IsServerError reports whether the failure was a 5xx response.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}

// Client talks to one Miniflux instance. Authentication is either an API
// key (preferred) or basic auth.
type Client struct {
	baseURL  string
	apiKey   string
	username string
	password string
	http     HTTPClient
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc HTTPClient) Option {
	return func(c *Client) { c.http = hc }
}

// WithAPIKey authenticates requests with the X-Auth-Token header.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithBasicAuth authenticates requests with username and password.
func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// NewClient creates a Client for the Miniflux instance at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured instance URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListCategories returns all categories of the authenticated user.
func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := c.do(ctx, http.MethodGet, "/v1/categories", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// ListFeeds returns all subscriptions of the authenticated user.
func (c *Client) ListFeeds(ctx context.Context) ([]model.Subscription, error) {
	var feeds []model.Subscription
	if err := c.do(ctx, http.MethodGet, "/v1/feeds", nil, &feeds); err != nil {
		return nil, err
	}
	return feeds, nil
}

// GetFeed returns a single subscription by its id.
func (c *Client) GetFeed(ctx context.Context, id int64) (*model.Subscription, error) {
	var feed model.Subscription
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/feeds/%d", id), nil, &feed); err != nil {
		return nil, err
	}
	return &feed, nil
}

// CreateFeed subscribes to feedURL in the given category and returns the
// new feed id.
func (c *Client) CreateFeed(ctx context.Context, feedURL string, categoryID int64) (int64, error) {
	body := struct {
		FeedURL    string `json:"feed_url"`
		CategoryID int64  `json:"category_id"`
	}{feedURL, categoryID}

	var created struct {
		FeedID int64 `json:"feed_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/feeds", body, &created); err != nil {
		return 0, err
	}
	return created.FeedID, nil
}

// UpdateFeed rewrites the URL of an existing subscription. Miniflux may
// accept the write and still normalize the URL; callers that care must
// read the feed back and compare.
func (c *Client) UpdateFeed(ctx context.Context, id int64, feedURL string) error {
	body := struct {
		FeedURL string `json:"feed_url"`
	}{feedURL}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/v1/feeds/%d", id), body, nil)
}

// DeleteFeed removes a subscription.
func (c *Client) DeleteFeed(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/v1/feeds/%d", id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-Auth-Token", c.apiKey)
	} else if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage extracts Miniflux's error_message field, falling back to
// the raw body.
func errorMessage(raw []byte) string {
	var parsed struct {
		ErrorMessage string `json:"error_message"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.ErrorMessage != "" {
		return parsed.ErrorMessage
	}
	return strings.TrimSpace(string(raw))
}
