// Package googlemaps implements the place-search and geocoding ports
// against the Google Maps Platform web services.
package googlemaps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mapleads/api/internal/pkg/metrics"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api"

// Client calls the Google Maps web services. It implements both the
// PlaceProvider and Geocoder ports.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL. Tests point this at a local server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient creates a Client for the given API key.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// getJSON issues one GET against the named endpoint, appends the API key,
// and decodes the response body into out. endpoint is also the metrics label.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	start := time.Now()

	params.Set("key", c.apiKey)
	u := fmt.Sprintf("%s/%s/json?%s", c.baseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ProviderCalls.WithLabelValues(endpoint, "transport_error").Inc()
		return fmt.Errorf("GET %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	metrics.ProviderCallDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		metrics.ProviderCalls.WithLabelValues(endpoint, fmt.Sprintf("http_%d", resp.StatusCode)).Inc()
		return fmt.Errorf("GET %s: HTTP %d", endpoint, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.ProviderCalls.WithLabelValues(endpoint, "decode_error").Inc()
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}
