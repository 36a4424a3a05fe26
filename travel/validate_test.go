package travel

import (
	"errors"
	"testing"
	"time"

	"github.com/sweetpotato0/tripflow/tool"
)

var today = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

func baseArgs() map[string]any {
	return map[string]any{
		"departure_id":  "DEL",
		"arrival_id":    "BOM",
		"outbound_date": "2099-01-10",
	}
}

func kindOf(t *testing.T, err error) string {
	t.Helper()
	var te *tool.Error
	if !errors.As(err, &te) {
		t.Fatalf("Expected a structured tool error, got %v", err)
	}
	return te.Kind
}

func TestParseFlightQueryDefaults(t *testing.T) {
	q, err := ParseFlightQuery(baseArgs(), today)
	if err != nil {
		t.Fatalf("ParseFlightQuery: %v", err)
	}
	if q.Adults != 1 || q.Children != 0 {
		t.Errorf("Expected defaults adults=1 children=0, got %d/%d", q.Adults, q.Children)
	}
	if q.DepartureID != "DEL" || q.ArrivalID != "BOM" {
		t.Errorf("Airport codes mangled: %+v", q)
	}
}

func TestParseFlightQueryPassengerCoercion(t *testing.T) {
	cases := []struct {
		name    string
		value   any
		want    int
		wantErr bool
	}{
		{"int", 2, 2, false},
		{"whole float", float64(2), 2, false},
		{"whole string", "2", 2, false},
		{"decimal float", 2.5, 0, true},
		{"decimal string", "2.5", 0, true},
		{"garbage string", "two", 0, true},
		{"bool", true, 0, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			args := baseArgs()
			args["adults"] = tc.value
			q, err := ParseFlightQuery(args, today)

			if tc.wantErr {
				if err == nil {
					t.Fatalf("Expected rejection for %v", tc.value)
				}
				if kind := kindOf(t, err); kind != tool.KindInvalidInput {
					t.Errorf("Expected invalid_input, got %s", kind)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected %v to be accepted: %v", tc.value, err)
			}
			if q.Adults != tc.want {
				t.Errorf("Expected adults=%d, got %d", tc.want, q.Adults)
			}
		})
	}
}

func TestParseFlightQueryPastOutboundDate(t *testing.T) {
	args := baseArgs()
	args["outbound_date"] = today.AddDate(0, 0, -1).Format("2006-01-02")

	_, err := ParseFlightQuery(args, today)
	if err == nil {
		t.Fatal("Expected rejection for a past outbound date")
	}
	if kind := kindOf(t, err); kind != tool.KindInvalidDate {
		t.Errorf("Expected invalid_date, got %s", kind)
	}
}

func TestParseFlightQueryPastOutboundDateEarlyMorningOffset(t *testing.T) {
	// 02:00 IST is still the previous day in UTC; yesterday's local date
	// must be rejected regardless.
	ist := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2026, 8, 28, 2, 0, 0, 0, ist)

	args := baseArgs()
	args["outbound_date"] = "2026-08-27"

	_, err := ParseFlightQuery(args, now)
	if err == nil {
		t.Fatal("Expected rejection for yesterday's outbound date at early morning local time")
	}
	if kind := kindOf(t, err); kind != tool.KindInvalidDate {
		t.Errorf("Expected invalid_date, got %s", kind)
	}

	args["outbound_date"] = "2026-08-28"
	if _, err := ParseFlightQuery(args, now); err != nil {
		t.Errorf("The current local date must stay valid: %v", err)
	}
}

func TestParseFlightQueryOutboundToday(t *testing.T) {
	args := baseArgs()
	args["outbound_date"] = today.Format("2006-01-02")
	if _, err := ParseFlightQuery(args, today); err != nil {
		t.Errorf("Today must be a valid outbound date: %v", err)
	}
}

func TestParseFlightQueryReturnDateOrdering(t *testing.T) {
	for _, returnDate := range []string{"2099-01-10", "2099-01-05"} {
		args := baseArgs()
		args["return_date"] = returnDate
		_, err := ParseFlightQuery(args, today)
		if err == nil {
			t.Fatalf("Expected rejection for return_date %s <= outbound", returnDate)
		}
		if kind := kindOf(t, err); kind != tool.KindInvalidDate {
			t.Errorf("Expected invalid_date, got %s", kind)
		}
	}

	args := baseArgs()
	args["return_date"] = "2099-01-20"
	q, err := ParseFlightQuery(args, today)
	if err != nil {
		t.Fatalf("Valid round trip rejected: %v", err)
	}
	if q.ReturnDate != "2099-01-20" {
		t.Errorf("return_date mangled: %q", q.ReturnDate)
	}
}

func TestParseFlightQueryMalformedDates(t *testing.T) {
	for _, bad := range []string{"10-01-2099", "2099/01/10", "tomorrow"} {
		args := baseArgs()
		args["outbound_date"] = bad
		_, err := ParseFlightQuery(args, today)
		if err == nil {
			t.Errorf("Expected rejection for outbound_date %q", bad)
			continue
		}
		if kind := kindOf(t, err); kind != tool.KindInvalidDate {
			t.Errorf("%q: expected invalid_date, got %s", bad, kind)
		}
	}
}

func TestParseFlightQueryMissingFields(t *testing.T) {
	for _, field := range []string{"departure_id", "arrival_id", "outbound_date"} {
		args := baseArgs()
		delete(args, field)
		_, err := ParseFlightQuery(args, today)
		if err == nil {
			t.Errorf("Expected rejection when %s is missing", field)
			continue
		}
		if kind := kindOf(t, err); kind != tool.KindInvalidInput {
			t.Errorf("%s: expected invalid_input, got %s", field, kind)
		}
	}
}

func TestParseFlightQueryZeroAdults(t *testing.T) {
	args := baseArgs()
	args["adults"] = 0
	if _, err := ParseFlightQuery(args, today); err == nil {
		t.Error("Expected rejection for zero adults")
	}
}
