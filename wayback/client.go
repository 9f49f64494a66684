// Package wayback submits URLs to the Internet Archive's Save Page Now endpoint.
package wayback

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"arkive/archiver"
)

// DefaultEndpoint is the public Wayback Machine.
const DefaultEndpoint = "https://web.archive.org"

// Client calls GET {endpoint}/save/{url}.
type Client struct {
	endpoint   *url.URL
	httpClient *http.Client
}

var _ archiver.Provider = (*Client)(nil)

// NewClient returns a client for endpoint. A zero timeout leaves calls bounded
// only by the request context.
func NewClient(endpoint string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid wayback endpoint '%s': %w", endpoint, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid wayback endpoint '%s': must be absolute", endpoint)
	}
	return &Client{
		endpoint:   u,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Save asks the Wayback Machine to capture target and returns the URL of the
// archived copy. A 429 response yields archiver.ErrRateLimited.
func (c *Client) Save(ctx context.Context, target, clientIdentity string) (string, error) {
	saveURL := c.endpoint.String() + "/save/" + target
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, saveURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build save request for '%s': %w", target, err)
	}
	if clientIdentity != "" {
		req.Header.Set("User-Agent", clientIdentity)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to save URL '%s': %w", target, err)
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("failed to save URL '%s': %w", target, archiver.ErrRateLimited)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("failed to save URL '%s': status code %d", target, resp.StatusCode)
	}

	archiveURL, ok := c.archiveURL(resp)
	if !ok {
		return "", fmt.Errorf("failed to save URL '%s': no archive location in response", target)
	}
	return archiveURL, nil
}

// archiveURL finds the archived copy in Content-Location, Location or the
// final redirect target, in that order.
func (c *Client) archiveURL(resp *http.Response) (string, bool) {
	for _, h := range []string{"Content-Location", "Location"} {
		if v := resp.Header.Get(h); v != "" {
			if u, ok := c.resolve(v); ok {
				return u, true
			}
		}
	}
	if resp.Request != nil && resp.Request.URL != nil && strings.HasPrefix(resp.Request.URL.Path, "/web/") {
		return resp.Request.URL.String(), true
	}
	return "", false
}

// resolve turns an absolute or host-relative location into an archive URL.
// Locations outside /web/ are not archived copies.
func (c *Client) resolve(location string) (string, bool) {
	if strings.HasPrefix(location, "/web/") {
		return c.endpoint.Scheme + "://" + c.endpoint.Host + location, true
	}
	u, err := url.Parse(location)
	if err != nil || !u.IsAbs() || !strings.HasPrefix(u.Path, "/web/") {
		return "", false
	}
	return location, true
}
