// Package scraper fetches timetable pages over HTTP.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultUserAgent identifies the pipeline to the university's server.
const DefaultUserAgent = "ubborarservice-timetable-pipeline/1.0"

// Page is one fetched document.
type Page struct {
	Body         []byte
	LastModified *time.Time // nil when the header is absent or unparseable
}

// Fetcher is the transport the pipeline depends on. Tests substitute
// fakes; production uses Client.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

// Client fetches pages with a per-request timeout.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a scraper client. A zero timeout falls back to 30s.
func NewClient(timeout time.Duration, userAgent string) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
	}
}

// Fetch downloads one URL. Non-2xx responses are errors; the
// Last-Modified header is parsed when present.
func (c *Client) Fetch(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status code %d when fetching %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", url, err)
	}

	page := &Page{Body: body}
	if raw := resp.Header.Get("Last-Modified"); raw != "" {
		if parsed, err := http.ParseTime(raw); err == nil {
			utc := parsed.UTC()
			page.LastModified = &utc
		}
	}
	return page, nil
}
