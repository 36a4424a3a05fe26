package travel

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sweetpotato0/tripflow/tool"
)

const dateLayout = "2006-01-02"

// FlightQuery is a validated flight search request.
type FlightQuery struct {
	DepartureID  string
	ArrivalID    string
	OutboundDate string
	Adults       int
	Children     int
	ReturnDate   string
}

// ParseFlightQuery validates raw tool arguments into a FlightQuery. All
// checks run locally, before any remote call: date violations yield a
// tool.Error of kind invalid_date and malformed fields one of kind
// invalid_input, so the model gets structured data to react to.
func ParseFlightQuery(args map[string]any, today time.Time) (*FlightQuery, error) {
	q := &FlightQuery{Adults: 1}

	var err error
	if q.DepartureID, err = requireString(args, "departure_id"); err != nil {
		return nil, err
	}
	if q.ArrivalID, err = requireString(args, "arrival_id"); err != nil {
		return nil, err
	}
	if q.OutboundDate, err = requireString(args, "outbound_date"); err != nil {
		return nil, err
	}

	if raw, ok := args["adults"]; ok {
		if q.Adults, err = coerceCount("adults", raw); err != nil {
			return nil, err
		}
	}
	if raw, ok := args["children"]; ok {
		if q.Children, err = coerceCount("children", raw); err != nil {
			return nil, err
		}
	}
	if q.Adults < 1 {
		return nil, tool.Errorf(tool.KindInvalidInput, "at least one adult is required")
	}
	if q.Children < 0 {
		return nil, tool.Errorf(tool.KindInvalidInput, "children cannot be negative")
	}

	if raw, ok := args["return_date"]; ok && raw != nil {
		s, ok := raw.(string)
		if !ok {
			return nil, tool.Errorf(tool.KindInvalidInput, "return_date must be a string in YYYY-MM-DD format")
		}
		q.ReturnDate = strings.TrimSpace(s)
	}

	if err := validateDates(q, today); err != nil {
		return nil, err
	}
	return q, nil
}

// validateDates enforces outbound_date >= today and, when present,
// return_date > outbound_date.
func validateDates(q *FlightQuery, today time.Time) error {
	outbound, err := time.Parse(dateLayout, q.OutboundDate)
	if err != nil {
		return tool.Errorf(tool.KindInvalidDate, "invalid outbound_date format, expected YYYY-MM-DD")
	}

	// Take the calendar day in today's own location; truncating the
	// instant would shift early-morning callers in positive-offset zones
	// onto the previous day.
	todayDate := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if outbound.Before(todayDate) {
		return tool.Errorf(tool.KindInvalidDate,
			"outbound date (%s) cannot be in the past, please select today or a future date", q.OutboundDate)
	}

	if q.ReturnDate != "" {
		returnD, err := time.Parse(dateLayout, q.ReturnDate)
		if err != nil {
			return tool.Errorf(tool.KindInvalidDate, "invalid return_date format, expected YYYY-MM-DD")
		}
		if !returnD.After(outbound) {
			return tool.Errorf(tool.KindInvalidDate, "return date must be greater than outbound date")
		}
	}
	return nil
}

// coerceCount accepts whole numbers in any of the shapes a model emits:
// 2, 2.0 and "2" pass; 2.5 and "2.5" are rejected.
func coerceCount(field string, raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, tool.Errorf(tool.KindInvalidInput, "%s must be a whole number, not a decimal", field)
		}
		return int(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || f != math.Trunc(f) {
			return 0, tool.Errorf(tool.KindInvalidInput, "%s must be a whole number, got %q", field, v)
		}
		return int(f), nil
	default:
		return 0, tool.Errorf(tool.KindInvalidInput, "%s must be a whole number, got %T", field, raw)
	}
}

func requireString(args map[string]any, field string) (string, error) {
	raw, ok := args[field]
	if !ok {
		return "", tool.Errorf(tool.KindInvalidInput, "missing required parameter: %s", field)
	}
	s, ok := raw.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", tool.Errorf(tool.KindInvalidInput, "%s must be a non-empty string", field)
	}
	return strings.TrimSpace(s), nil
}
