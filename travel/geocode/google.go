// Package geocode resolves free-form locations to coordinates using the
// Google Geocoding API.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sweetpotato0/tripflow/pkg/logging"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleClient geocodes through the Google Geocoding API. It satisfies the
// amadeus.Geocoder interface.
type GoogleClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

// Option configures a GoogleClient
type Option func(*GoogleClient)

// WithHTTPClient overrides the HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(g *GoogleClient) {
		if c != nil {
			g.httpClient = c
		}
	}
}

// WithBaseURL overrides the API endpoint, mainly for tests
func WithBaseURL(u string) Option {
	return func(g *GoogleClient) {
		if u != "" {
			g.baseURL = u
		}
	}
}

// NewGoogleClient creates a geocoding client
func NewGoogleClient(apiKey string, opts ...Option) *GoogleClient {
	g := &GoogleClient{
		httpClient: &http.Client{Timeout: 90 * time.Second},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		logger:     logging.WithComponent("geocode"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Geocode resolves a location to coordinates rounded to four decimal
// places. ZERO_RESULTS is reported via ok=false, not an error.
func (g *GoogleClient) Geocode(ctx context.Context, location string) (float64, float64, bool, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return 0, 0, false, fmt.Errorf("location cannot be empty")
	}
	if g.apiKey == "" {
		return 0, 0, false, fmt.Errorf("geocoding API key not configured")
	}

	query := url.Values{}
	query.Set("address", location)
	query.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return 0, 0, false, fmt.Errorf("failed to build geocode request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return 0, 0, false, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, false, fmt.Errorf("geocode request failed: HTTP %d", resp.StatusCode)
	}

	var payload struct {
		Status  string `json:"status"`
		Results []struct {
			Geometry struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, 0, false, fmt.Errorf("failed to parse geocode response: %w", err)
	}

	switch payload.Status {
	case "OK":
	case "ZERO_RESULTS":
		return 0, 0, false, nil
	default:
		return 0, 0, false, fmt.Errorf("geocoding API error: %s", payload.Status)
	}
	if len(payload.Results) == 0 {
		return 0, 0, false, nil
	}

	loc := payload.Results[0].Geometry.Location
	lat := round4(loc.Lat)
	lon := round4(loc.Lng)
	g.logger.Info("geocoded location", "location", location, "lat", lat, "lon", lon)
	return lat, lon, true, nil
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
