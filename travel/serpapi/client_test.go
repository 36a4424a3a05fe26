package serpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-key", WithBaseURL(srv.URL), WithHTTPClient(srv.Client())), srv
}

func TestSearchOutboundOneWay(t *testing.T) {
	var got url.Values
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		json.NewEncoder(w).Encode(map[string]any{
			"best_flights":  []any{map[string]any{"price": 450}},
			"other_flights": []any{map[string]any{"price": 500}},
		})
	})

	data, err := client.SearchOutbound(context.Background(), SearchRequest{
		DepartureID:  "DEL",
		ArrivalID:    "BOM",
		OutboundDate: "2099-01-10",
		Adults:       2,
	})
	if err != nil {
		t.Fatalf("SearchOutbound: %v", err)
	}

	if got.Get("engine") != "google_flights" {
		t.Errorf("engine: got %q", got.Get("engine"))
	}
	if got.Get("type") != "2" {
		t.Errorf("One-way search must send type=2, got %q", got.Get("type"))
	}
	if got.Get("return_date") != "" {
		t.Error("One-way search must not send a return_date")
	}
	for key, want := range map[string]string{
		"hl": "en", "gl": "in", "currency": "INR", "deep_search": "true",
		"departure_id": "DEL", "arrival_id": "BOM", "adults": "2", "children": "0",
	} {
		if got.Get(key) != want {
			t.Errorf("%s: expected %q, got %q", key, want, got.Get(key))
		}
	}

	flights, ok := data["flights"].([]any)
	if !ok || len(flights) != 2 {
		t.Fatalf("Expected merged flights list of 2, got %v", data["flights"])
	}
	if _, exists := data["best_flights"]; exists {
		t.Error("best_flights must be removed after merging")
	}
}

func TestSearchOutboundRoundTrip(t *testing.T) {
	var got url.Values
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.Write([]byte(`{}`))
	})

	_, err := client.SearchOutbound(context.Background(), SearchRequest{
		DepartureID:  "DEL",
		ArrivalID:    "BOM",
		OutboundDate: "2099-01-10",
		ReturnDate:   "2099-01-20",
		Adults:       1,
	})
	if err != nil {
		t.Fatalf("SearchOutbound: %v", err)
	}
	if got.Get("type") != "1" {
		t.Errorf("Round trip must send type=1, got %q", got.Get("type"))
	}
	if got.Get("return_date") != "2099-01-20" {
		t.Errorf("return_date: got %q", got.Get("return_date"))
	}
}

func TestTokensAreDecodedBeforeResubmission(t *testing.T) {
	var got url.Values
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.Write([]byte(`{}`))
	})

	_, err := client.SearchReturns(context.Background(), SearchRequest{
		DepartureID:    "DEL",
		ArrivalID:      "BOM",
		OutboundDate:   "2099-01-10",
		ReturnDate:     "2099-01-20",
		Adults:         1,
		DepartureToken: "abc%3D%3D",
	})
	if err != nil {
		t.Fatalf("SearchReturns: %v", err)
	}
	if got.Get("departure_token") != "abc==" {
		t.Errorf("Token should be URL-decoded once, got %q", got.Get("departure_token"))
	}
}

func TestSearchReturnsRequiresToken(t *testing.T) {
	client := NewClient("k")
	if _, err := client.SearchReturns(context.Background(), SearchRequest{}); err == nil {
		t.Error("Expected error without departure token")
	}
	if _, err := client.BookingOptions(context.Background(), SearchRequest{}); err == nil {
		t.Error("Expected error without booking token")
	}
}

func TestUpstreamErrorSurfacesEngineMessage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Invalid departure_id"}`))
	})

	_, err := client.SearchOutbound(context.Background(), SearchRequest{
		DepartureID:  "XXX",
		ArrivalID:    "BOM",
		OutboundDate: "2099-01-10",
		Adults:       1,
	})
	if err == nil {
		t.Fatal("Expected error from upstream failure")
	}
	if want := "Invalid departure_id"; !strings.Contains(err.Error(), want) {
		t.Errorf("Expected engine message %q in error, got %v", want, err)
	}
}

func TestMergeFlightFieldsEmpty(t *testing.T) {
	data := MergeFlightFields(map[string]any{"search_metadata": map[string]any{}})
	if _, exists := data["flights"]; exists {
		t.Error("Empty search must not grow a flights key")
	}
}
