package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("address"); got != "New Delhi" {
			t.Errorf("address: got %q", got)
		}
		w.Write([]byte(`{"status":"OK","results":[
			{"geometry":{"location":{"lat":28.61394123,"lng":77.20902456}}}
		]}`))
	}))
	defer srv.Close()

	g := NewGoogleClient("key", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	lat, lon, ok, err := g.Geocode(context.Background(), "New Delhi")
	if err != nil || !ok {
		t.Fatalf("Geocode: ok=%v err=%v", ok, err)
	}
	if lat != 28.6139 || lon != 77.209 {
		t.Errorf("Coordinates should be rounded to 4 places, got %v/%v", lat, lon)
	}
}

func TestGeocodeZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	}))
	defer srv.Close()

	g := NewGoogleClient("key", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	_, _, ok, err := g.Geocode(context.Background(), "Atlantis")
	if err != nil {
		t.Fatalf("ZERO_RESULTS must not be an error: %v", err)
	}
	if ok {
		t.Error("Expected ok=false for zero results")
	}
}

func TestGeocodeAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"REQUEST_DENIED","results":[]}`))
	}))
	defer srv.Close()

	g := NewGoogleClient("key", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	if _, _, _, err := g.Geocode(context.Background(), "Paris"); err == nil {
		t.Error("Expected error for REQUEST_DENIED status")
	}
}

func TestGeocodeEmptyLocation(t *testing.T) {
	g := NewGoogleClient("key")
	if _, _, _, err := g.Geocode(context.Background(), ""); err == nil {
		t.Error("Expected error for empty location")
	}
}
