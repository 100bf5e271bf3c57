// Package plex triggers library scans on a Plex Media Server.
package plex

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultTimeout = 10 * time.Second

// Client refreshes a single Plex library section. A zero-value base URL
// disables the client; Configured reports that state so callers can skip
// refresh attempts entirely.
type Client struct {
	baseURL string
	token   string
	section string
	http    *http.Client
}

func NewClient(baseURL, token, section string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		section: section,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// Configured reports whether a server address was provided.
func (c *Client) Configured() bool { return c.baseURL != "" }

// RefreshLibrary asks Plex to rescan the configured section. Plex answers
// 200 with an empty body when the scan is queued.
func (c *Client) RefreshLibrary(ctx context.Context) error {
	if !c.Configured() {
		return nil
	}

	endpoint := fmt.Sprintf("%s/library/sections/%s/refresh", c.baseURL, url.PathEscape(c.section))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("building refresh request: %w", err)
	}
	q := req.URL.Query()
	q.Set("X-Plex-Token", c.token)
	req.URL.RawQuery = q.Encode()

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("refreshing Plex library: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Plex refresh returned status %d", resp.StatusCode)
	}

	log.Debug().Str("section", c.section).Msg("Plex library refresh queued")
	return nil
}
