// Package serpapi implements a Google-Flights-engine search client.
package serpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sweetpotato0/tripflow/pkg/logging"
)

const defaultBaseURL = "https://serpapi.com/search.json"

// Search types understood by the google_flights engine.
const (
	TypeRoundTrip = 1
	TypeOneWay    = 2
)

// SearchRequest carries the parameters for one flight lookup. ReturnDate
// present means a round trip; DepartureToken and BookingToken are opaque
// pass-throughs from a previous response, used for return-flight and
// booking-option lookups.
type SearchRequest struct {
	DepartureID    string
	ArrivalID      string
	OutboundDate   string
	Adults         int
	Children       int
	ReturnDate     string
	DepartureToken string
	BookingToken   string
}

// Client talks to the flight search engine.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	hl         string
	gl         string
	currency   string
	deepSearch bool
	logger     *slog.Logger
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

// WithBaseURL overrides the search endpoint, mainly for tests
func WithBaseURL(u string) ClientOption {
	return func(cl *Client) {
		if u != "" {
			cl.baseURL = u
		}
	}
}

// WithLocale overrides language, country and currency defaults
func WithLocale(hl, gl, currency string) ClientOption {
	return func(cl *Client) {
		cl.hl = hl
		cl.gl = gl
		cl.currency = currency
	}
}

// WithDeepSearch toggles the engine's deep search mode
func WithDeepSearch(enabled bool) ClientOption {
	return func(cl *Client) {
		cl.deepSearch = enabled
	}
}

// NewClient creates a flight search client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 90 * time.Second},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		hl:         "en",
		gl:         "in",
		currency:   "INR",
		deepSearch: true,
		logger:     logging.WithComponent("serpapi"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchOutbound looks up outbound flights for the given request.
func (c *Client) SearchOutbound(ctx context.Context, req SearchRequest) (map[string]any, error) {
	return c.fetch(ctx, req)
}

// SearchReturns looks up return flights; req must carry the DepartureToken
// from the outbound response.
func (c *Client) SearchReturns(ctx context.Context, req SearchRequest) (map[string]any, error) {
	if req.DepartureToken == "" {
		return nil, fmt.Errorf("departure token is required for return flights")
	}
	return c.fetch(ctx, req)
}

// BookingOptions looks up booking options for a selected flight; req must
// carry the BookingToken from a search response.
func (c *Client) BookingOptions(ctx context.Context, req SearchRequest) (map[string]any, error) {
	if req.BookingToken == "" {
		return nil, fmt.Errorf("booking token is required for booking options")
	}
	return c.fetch(ctx, req)
}

func (c *Client) fetch(ctx context.Context, req SearchRequest) (map[string]any, error) {
	query := url.Values{}
	query.Set("api_key", c.apiKey)
	query.Set("engine", "google_flights")
	query.Set("hl", c.hl)
	query.Set("gl", c.gl)
	query.Set("currency", c.currency)
	query.Set("deep_search", strconv.FormatBool(c.deepSearch))

	query.Set("departure_id", req.DepartureID)
	query.Set("arrival_id", req.ArrivalID)
	query.Set("outbound_date", req.OutboundDate)
	query.Set("adults", strconv.Itoa(req.Adults))
	query.Set("children", strconv.Itoa(req.Children))

	// The trip type is decided here, from the request shape, so callers
	// never have to know the engine's numeric encoding.
	if req.ReturnDate != "" {
		query.Set("return_date", req.ReturnDate)
		query.Set("type", strconv.Itoa(TypeRoundTrip))
	} else {
		query.Set("type", strconv.Itoa(TypeOneWay))
	}

	// Tokens arrive percent-encoded from the previous response payload
	// and must be decoded before resubmission.
	if req.DepartureToken != "" {
		query.Set("departure_token", unquote(req.DepartureToken))
	}
	if req.BookingToken != "" {
		query.Set("booking_token", unquote(req.BookingToken))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}

	c.logger.Info("searching flights",
		"departure_id", req.DepartureID,
		"arrival_id", req.ArrivalID,
		"outbound_date", req.OutboundDate,
		"round_trip", req.ReturnDate != "")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("flight search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("flight search failed: %s", upstreamError(resp.StatusCode, body))
	}

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	return MergeFlightFields(data), nil
}

// MergeFlightFields folds the engine's best_flights and other_flights lists
// into a single canonical "flights" list.
func MergeFlightFields(data map[string]any) map[string]any {
	best, _ := data["best_flights"].([]any)
	other, _ := data["other_flights"].([]any)

	if len(best) > 0 || len(other) > 0 {
		merged := make([]any, 0, len(best)+len(other))
		merged = append(merged, best...)
		merged = append(merged, other...)
		data["flights"] = merged
	}

	delete(data, "best_flights")
	delete(data, "other_flights")
	return data
}

// upstreamError prefers the engine's own error text over a bare status code.
func upstreamError(status int, body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return fmt.Sprintf("HTTP %d", status)
}

func unquote(token string) string {
	decoded, err := url.QueryUnescape(token)
	if err != nil {
		return token
	}
	return decoded
}
