package esi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(url string) *Client {
	c := NewClient()
	c.BaseURL = url
	c.retryWait = time.Millisecond
	return c
}

func TestGetJSON_RetriesTransientFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"name": "Jita"})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	var out struct {
		Name string `json:"name"`
	}
	if err := c.GetJSON(srv.URL+"/thing", &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if out.Name != "Jita" {
		t.Errorf("decoded %q, want Jita", out.Name)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestGetJSON_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	var out interface{}
	if err := c.GetJSON(srv.URL+"/thing", &out); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != 5 {
		t.Errorf("expected 5 attempts, got %d", calls)
	}
}

func TestGetJSON_NotFoundIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	var out interface{}
	err := c.GetJSON(srv.URL+"/thing", &out)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if calls != 1 {
		t.Errorf("404 must not be retried, got %d attempts", calls)
	}
}

func TestFetchRegionOrders_PaginatesAndDeduplicates(t *testing.T) {
	var fetches int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fetches, 1)
		w.Header().Set("X-Pages", "2")
		w.Header().Set("Etag", `"abc"`)
		w.Header().Set("Expires", time.Now().Add(5*time.Minute).UTC().Format(time.RFC1123))
		switch r.URL.Query().Get("page") {
		case "1":
			json.NewEncoder(w).Encode([]MarketOrder{
				{OrderID: 1, TypeID: 34, Price: 10, VolumeRemain: 5},
				{OrderID: 2, TypeID: 34, Price: 11, VolumeRemain: 5},
			})
		case "2":
			// Order 2 appears again on page 2; it must be kept once.
			json.NewEncoder(w).Encode([]MarketOrder{
				{OrderID: 2, TypeID: 34, Price: 11, VolumeRemain: 5},
				{OrderID: 3, TypeID: 34, Price: 12, VolumeRemain: 5},
			})
		default:
			http.Error(w, "bad page", http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	orders, err := c.FetchRegionOrders(10000002, "sell")
	if err != nil {
		t.Fatalf("FetchRegionOrders: %v", err)
	}
	if len(orders) != 3 {
		t.Fatalf("expected 3 unique orders, got %d", len(orders))
	}

	// Within the Expires window a second call is served from cache.
	before := atomic.LoadInt32(&fetches)
	if _, err := c.FetchRegionOrders(10000002, "sell"); err != nil {
		t.Fatalf("cached FetchRegionOrders: %v", err)
	}
	if atomic.LoadInt32(&fetches) != before {
		t.Errorf("expected cache hit, but server saw %d more requests", atomic.LoadInt32(&fetches)-before)
	}
}

func TestFetchRegionOrders_RejectsBadOrderType(t *testing.T) {
	c := testClient("http://unused")
	if _, err := c.FetchRegionOrders(1, "short"); err == nil {
		t.Error("expected error for invalid order type")
	}
}

func TestStation_RejectsStructureIDs(t *testing.T) {
	c := testClient("http://unused")
	_, err := c.Station(1021000000000000) // citadel-range ID, needs auth
	if !errors.Is(err, ErrUnresolvableLocation) {
		t.Errorf("expected ErrUnresolvableLocation, got %v", err)
	}
}

func TestRouteJumps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("flag") != "secure" {
			t.Errorf("flag = %q, want secure", r.URL.Query().Get("flag"))
		}
		json.NewEncoder(w).Encode([]int32{100, 101, 102, 103})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	jumps, err := c.RouteJumps(100, 103, true)
	if err != nil {
		t.Fatalf("RouteJumps: %v", err)
	}
	if jumps != 3 {
		t.Errorf("jumps = %d, want 3", jumps)
	}

	if jumps, err := c.RouteJumps(100, 100, false); err != nil || jumps != 0 {
		t.Errorf("same-system route = %d, %v, want 0", jumps, err)
	}
}

func TestRouteJumps_UnknownRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	if _, err := c.RouteJumps(100, 999, false); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown route, got %v", err)
	}
}

func TestFetchRegions_EmpireFilter(t *testing.T) {
	regions := map[int32]string{
		10000002: "The Forge",
		10000023: "Pure Blind", // null-sec, excluded
		11000001: "A821-A",     // Jove, excluded
		12000001: "A-R00001",   // wormhole "000" name, excluded
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id int32
		if n, _ := fmt.Sscanf(r.URL.Path, "/universe/regions/%d/", &id); n == 1 {
			json.NewEncoder(w).Encode(map[string]string{"name": regions[id]})
			return
		}
		ids := make([]int32, 0, len(regions))
		for id := range regions {
			ids = append(ids, id)
		}
		json.NewEncoder(w).Encode(ids)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	got, err := c.FetchRegions(RegionsEmpire)
	if err != nil {
		t.Fatalf("FetchRegions: %v", err)
	}
	if len(got) != 1 || got[10000002] != "The Forge" {
		t.Errorf("empire regions = %v, want only The Forge", got)
	}

	all, err := c.FetchRegions(RegionsAll)
	if err != nil {
		t.Fatalf("FetchRegions all: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("all regions = %d, want 4", len(all))
	}
}
