// Package corebackend is the HTTP client for the core analytics
// backend that holds the actual KPI, event, task and promotion data.
package corebackend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Client calls the core backend. All failures are soft: the NLP
// pipeline answers without backend data rather than surfacing a 5xx.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Fetchable reports whether the routed endpoint points at the core
// backend. Sentinel paths like /chitchat and /unknown are not fetched.
func Fetchable(endpoint string) bool {
	return strings.HasPrefix(endpoint, "/api/")
}

// Fetch GETs the endpoint and decodes the JSON payload. Non-object
// payloads are wrapped under "value" so callers always see a map.
func (c *Client) Fetch(ctx context.Context, endpoint string) (map[string]any, error) {
	if !Fetchable(endpoint) {
		return nil, errors.Errorf("not a core backend endpoint: %s", endpoint)
	}

	url := c.baseURL + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build core backend request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "core backend fetch failed: %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, errors.Errorf("core backend returned %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read core backend response")
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.Wrapf(err, "core backend response was not JSON: %s", url)
	}

	if m, ok := payload.(map[string]any); ok {
		return m, nil
	}
	return map[string]any{"value": payload}, nil
}
