// Package travel provides the travel-domain tools, validation and
// flight-result extraction plugged into the conversation agent.
package travel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/sweetpotato0/tripflow/tool"
	"github.com/sweetpotato0/tripflow/travel/serpapi"
)

// SearchFlightsToolName is the catalog name of the flight search tool.
const SearchFlightsToolName = "search_flights"

// FlightSearcher performs the remote flight lookup. Implemented by
// serpapi.Client.
type FlightSearcher interface {
	SearchOutbound(ctx context.Context, req serpapi.SearchRequest) (map[string]any, error)
}

// NewSearchFlightsTool builds the flight search tool. Arguments are
// validated locally before the searcher is consulted.
func NewSearchFlightsTool(searcher FlightSearcher) *tool.Tool {
	return &tool.Tool{
		Name:        SearchFlightsToolName,
		Description: "Find flights between two airports using the Google Flights engine. Requires IATA airport codes; use lookup_airport first if only city names are known.",
		Parameters: []tool.Parameter{
			{Name: "departure_id", Type: "string", Description: "Departure airport code (IATA)", Required: true},
			{Name: "arrival_id", Type: "string", Description: "Arrival airport code (IATA)", Required: true},
			{Name: "outbound_date", Type: "string", Description: "Outbound date in YYYY-MM-DD format", Required: true},
			{Name: "adults", Type: "number", Description: "Number of adults", Default: 1},
			{Name: "children", Type: "number", Description: "Number of children", Default: 0},
			{Name: "return_date", Type: "string", Description: "Return date in YYYY-MM-DD format, omit for one-way"},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			query, err := ParseFlightQuery(args, time.Now())
			if err != nil {
				return "", err
			}

			data, err := searcher.SearchOutbound(ctx, serpapi.SearchRequest{
				DepartureID:  query.DepartureID,
				ArrivalID:    query.ArrivalID,
				OutboundDate: query.OutboundDate,
				Adults:       query.Adults,
				Children:     query.Children,
				ReturnDate:   query.ReturnDate,
			})
			if err != nil {
				var netErr *url.Error
				if errors.As(err, &netErr) {
					return "", tool.Errorf(tool.KindNetwork, "flight search failed: %v", netErr)
				}
				return "", fmt.Errorf("flight search failed: %w", err)
			}

			payload, err := json.Marshal(data)
			if err != nil {
				return "", fmt.Errorf("failed to encode flight results: %w", err)
			}
			return string(payload), nil
		},
	}
}
