package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// DefaultBaseURL is the root of the FPL statistics API. It is a process
// lifetime constant, not configuration.
const DefaultBaseURL = "https://fantasy.premierleague.com/api"

// DefaultTimeout bounds a full fetch, connection through body read.
const DefaultTimeout = 10 * time.Second

// browserHeaders spoof a desktop browser session. The upstream rejects
// requests that fail its origin check, so every fetch carries this set.
var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":          "application/json, text/plain, */*",
	"Accept-Language": "en-US,en;q=0.9",
	"Referer":         "https://fantasy.premierleague.com/",
	"Origin":          "https://fantasy.premierleague.com",
	"Connection":      "keep-alive",
}

// Fetcher is the interface handlers depend on for upstream access.
type Fetcher interface {
	Fetch(ctx context.Context, path string) (json.RawMessage, error)
}

// Client fetches JSON documents from the FPL API. Each Fetch is one
// outbound request; no retries, no caching at this layer.
type Client struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

var _ Fetcher = (*Client)(nil)

// Option configures optional client behavior.
type Option func(*Client)

// WithBaseURL overrides the upstream base URL (used by tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithTimeout overrides the per-fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a client against the FPL API with the default timeout.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	c.client = &http.Client{Timeout: c.timeout}
	return c
}

// Fetch performs a GET against baseURL+path with the spoofed browser
// header set, reads the full body, and returns it as opaque JSON.
// The three failure kinds (timeout, network/status, malformed body) are
// each reported as a single descriptive error; callers never retry.
func (c *Client) Fetch(ctx context.Context, path string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", path, err)
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("upstream request to %s timed out after %s", path, c.timeout)
		}
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("upstream request to %s timed out after %s", path, c.timeout)
		}
		return nil, fmt.Errorf("read body of %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: upstream returned status %d", path, resp.StatusCode)
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("parse response of %s: body is not valid JSON", path)
	}
	return json.RawMessage(body), nil
}

// isTimeout reports whether err came from the client timeout or a
// deadline on the request context.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
