// Package crawler turns a URL into cleaned HTML suitable for feeding to a
// language model. Fetched pages are sanitized down to their visible text
// and link structure: scripts, styles and images are dropped, every
// attribute except href is stripped, elements without visible text are
// removed and link targets are resolved to absolute URLs.
package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// Client fetches pages over HTTP and cleans them.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// New creates a crawler client with a 30 second request timeout.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchCleanHTML loads the page at pageURL and returns its cleaned HTML.
// The URL must be absolute; a page that cannot be loaded is reported as an
// error, which callers may hand back to the model instead of aborting.
func (c *Client) FetchCleanHTML(ctx context.Context, pageURL string) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil || !parsed.IsAbs() {
		return "", fmt.Errorf("failed to load page %s: not an absolute URL", pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to load page %s: %w", pageURL, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to load page %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to load page %s: status %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to load page %s: %w", pageURL, err)
	}

	// Redirects may have moved us; resolve relative links against the
	// final URL, not the requested one.
	base := parsed
	if resp.Request != nil && resp.Request.URL != nil {
		base = resp.Request.URL
	}

	return CleanHTML(string(body), base)
}
