package travel

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sweetpotato0/tripflow/tool"
	"github.com/sweetpotato0/tripflow/travel/amadeus"
)

// LookupAirportToolName is the catalog name of the airport lookup tool.
const LookupAirportToolName = "lookup_airport"

// AirportFinder resolves a location to nearby airports. Implemented by
// amadeus.Client.
type AirportFinder interface {
	NearestAirports(ctx context.Context, location string) ([]amadeus.Airport, error)
}

// NewLookupAirportTool builds the airport lookup tool. Zero results are
// valid data for the model, never an error.
func NewLookupAirportTool(finder AirportFinder) *tool.Tool {
	return &tool.Tool{
		Name:        LookupAirportToolName,
		Description: "Find the nearest airports with their IATA codes for a given city or address. Use this to resolve airport codes before searching flights.",
		Parameters: []tool.Parameter{
			{Name: "location", Type: "string", Description: "City or address to find nearby airports for, e.g. \"New York, NY\"", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			location, _ := args["location"].(string)
			location = strings.TrimSpace(location)
			if location == "" {
				return "", tool.Errorf(tool.KindInvalidInput, "location cannot be empty")
			}

			airports, err := finder.NearestAirports(ctx, location)
			if err != nil {
				return "", fmt.Errorf("airport lookup failed: %w", err)
			}

			if len(airports) == 0 {
				payload, _ := json.Marshal(map[string]any{
					"status": 404,
					"response": map[string]any{
						"title": fmt.Sprintf("NO AIRPORTS FOUND NEAR %s", strings.ToUpper(location)),
					},
				})
				return string(payload), nil
			}

			payload, err := json.Marshal(airports)
			if err != nil {
				return "", fmt.Errorf("failed to encode airports: %w", err)
			}
			return string(payload), nil
		},
	}
}
