// Package amadeus implements nearest-airport lookup against the Amadeus
// reference-data API.
package amadeus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sweetpotato0/tripflow/pkg/logging"
)

const (
	defaultBaseURL  = "https://test.api.amadeus.com"
	tokenPath       = "/v1/security/oauth2/token"
	airportsPath    = "/v1/reference-data/locations/airports"
	defaultRadiusKM = 500

	// tokens are refreshed slightly before the advertised expiry
	expirySkew = 10 * time.Second
)

// Geocoder resolves a free-form location to coordinates. A zero result is
// reported via ok=false, not an error.
type Geocoder interface {
	Geocode(ctx context.Context, location string) (lat, lon float64, ok bool, err error)
}

// Airport is one nearby-airport record.
type Airport struct {
	Name     string  `json:"name"`
	IATACode string  `json:"iataCode"`
	SubType  string  `json:"subType,omitempty"`
	City     string  `json:"cityName,omitempty"`
	Country  string  `json:"countryName,omitempty"`
	Distance float64 `json:"distanceKm,omitempty"`
}

// Client looks up airports near a location.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	clientID     string
	clientSecret string
	radiusKM     int
	geocoder     Geocoder
	token        *TokenCache
	logger       *slog.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithBaseURL overrides the API host, mainly for tests
func WithBaseURL(u string) ClientOption {
	return func(cl *Client) {
		if u != "" {
			cl.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithRadius overrides the search radius in kilometres
func WithRadius(km int) ClientOption {
	return func(cl *Client) {
		if km > 0 {
			cl.radiusKM = km
		}
	}
}

// NewClient creates an airport lookup client. The geocoder is injected so
// the coordinate source stays swappable.
func NewClient(clientID, clientSecret string, geocoder Geocoder, opts ...ClientOption) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: 90 * time.Second},
		baseURL:      defaultBaseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		radiusKM:     defaultRadiusKM,
		geocoder:     geocoder,
		token:        NewTokenCache(),
		logger:       logging.WithComponent("amadeus"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NearestAirports resolves the location to coordinates and returns the
// airports within the configured radius. Zero results yield an empty slice,
// never an error.
func (c *Client) NearestAirports(ctx context.Context, location string) ([]Airport, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, fmt.Errorf("location cannot be empty")
	}

	lat, lon, ok, err := c.geocoder.Geocode(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to geocode %q: %w", location, err)
	}
	if !ok {
		c.logger.Info("no geolocation found", "location", location)
		return nil, nil
	}

	token, err := c.token.Get(ctx, c.fetchToken)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain access token: %w", err)
	}

	query := url.Values{}
	query.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	query.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	query.Set("radius", strconv.Itoa(c.radiusKM))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+airportsPath+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build airport request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("airport lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read airport response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("airport lookup failed: HTTP %d", resp.StatusCode)
	}

	var payload struct {
		Data []struct {
			Name     string `json:"name"`
			IATACode string `json:"iataCode"`
			SubType  string `json:"subType"`
			Address  struct {
				CityName    string `json:"cityName"`
				CountryName string `json:"countryName"`
			} `json:"address"`
			Distance struct {
				Value float64 `json:"value"`
			} `json:"distance"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse airport response: %w", err)
	}

	airports := make([]Airport, 0, len(payload.Data))
	for _, d := range payload.Data {
		airports = append(airports, Airport{
			Name:     d.Name,
			IATACode: d.IATACode,
			SubType:  d.SubType,
			City:     d.Address.CityName,
			Country:  d.Address.CountryName,
			Distance: d.Distance.Value,
		})
	}

	c.logger.Info("found nearby airports", "location", location, "count", len(airports))
	return airports, nil
}

// fetchToken requests a fresh OAuth2 client-credentials token.
func (c *Client) fetchToken(ctx context.Context) (string, time.Time, error) {
	if c.clientID == "" || c.clientSecret == "" {
		return "", time.Time{}, fmt.Errorf("amadeus credentials not configured")
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", time.Time{}, fmt.Errorf("token request failed: HTTP %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to parse token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", time.Time{}, fmt.Errorf("token response carried no access token")
	}

	expiry := time.Now().Add(time.Duration(payload.ExpiresIn)*time.Second - expirySkew)
	return payload.AccessToken, expiry, nil
}
