package ipapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iftarsharebd/iftarmap/internal/geo"
)

func TestLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/json/103.4.145.2" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("fields") == "" {
			t.Error("expected fields query parameter")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","lat":23.7104,"lon":90.4074}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	p, err := c.Lookup(context.Background(), "103.4.145.2")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if p.Latitude != 23.7104 || p.Longitude != 90.4074 {
		t.Errorf("unexpected point %+v", p)
	}
}

func TestLocatorMapsFailuresToDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"fail","message":"private range"}`))
	}))
	defer srv.Close()

	loc := Locator{Client: NewClient(srv.URL), IP: "10.0.0.1"}
	_, err := loc.Locate(context.Background())
	if !errors.Is(err, geo.ErrLocationDenied) {
		t.Fatalf("expected ErrLocationDenied, got %v", err)
	}

	if _, err := (Locator{}).Locate(context.Background()); !errors.Is(err, geo.ErrLocationDenied) {
		t.Errorf("nil client: expected ErrLocationDenied, got %v", err)
	}
}
