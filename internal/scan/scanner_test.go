package scan

import (
	"fmt"
	"path/filepath"
	"testing"

	"evetrade/internal/db"
	"evetrade/internal/engine"
	"evetrade/internal/esi"
)

type fakeSource struct {
	regions map[int32]string
	orders  map[int32][]esi.MarketOrder
}

func (f *fakeSource) FetchRegions(filter esi.RegionFilter) (map[int32]string, error) {
	return f.regions, nil
}

func (f *fakeSource) FetchRegionOrders(regionID int32, orderType string) ([]esi.MarketOrder, error) {
	return f.orders[regionID], nil
}

type fakeResolver map[int64]int32

func (f fakeResolver) SystemForLocation(locationID int64) (int32, error) {
	systemID, ok := f[locationID]
	if !ok {
		return 0, fmt.Errorf("%w: %d", esi.ErrUnresolvableLocation, locationID)
	}
	return systemID, nil
}

type fixedVolumes float64

func (f fixedVolumes) ItemVolume(typeID int32) (float64, error) { return float64(f), nil }

type fixedJumps int

func (f fixedJumps) Jumps(from, to int32, safeOnly bool) (int, error) { return int(f), nil }

func newTestScanner(t *testing.T, src *fakeSource, resolver fakeResolver) *Scanner {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "scan.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return &Scanner{
		DB:       d,
		Source:   src,
		Resolver: resolver,
		Volumes:  fixedVolumes(1),
		Jumps:    fixedJumps(2),
	}
}

func TestFetchSnapshot_BuildsValidatedSnapshot(t *testing.T) {
	src := &fakeSource{
		regions: map[int32]string{1: "The Forge"},
		orders: map[int32][]esi.MarketOrder{
			1: {
				{OrderID: 1, TypeID: 34, Price: 10, VolumeRemain: 100, LocationID: 60000001, SystemID: 100},
				{OrderID: 2, TypeID: 34, Price: 15, VolumeRemain: 50, LocationID: 60000002, SystemID: 200, IsBuyOrder: true},
				// No system ID: resolved via the location lookup.
				{OrderID: 3, TypeID: 34, Price: 9, VolumeRemain: 10, LocationID: 60000003},
				// Unresolvable location: dropped.
				{OrderID: 4, TypeID: 34, Price: 9, VolumeRemain: 10, LocationID: 1021000000000000},
				// Malformed: dropped.
				{OrderID: 5, TypeID: 34, Price: -1, VolumeRemain: 10, LocationID: 60000001, SystemID: 100},
				{OrderID: 6, TypeID: 34, Price: 9, VolumeRemain: 0, LocationID: 60000001, SystemID: 100},
				// Contraband: dropped when IgnoreContraband is set.
				{OrderID: 7, TypeID: 3713, Price: 9, VolumeRemain: 10, LocationID: 60000001, SystemID: 100},
			},
		},
	}
	s := newTestScanner(t, src, fakeResolver{60000003: 300})

	n, err := s.FetchSnapshot(FetchOptions{IgnoreContraband: true})
	if err != nil {
		t.Fatalf("FetchSnapshot: %v", err)
	}
	if n != 3 {
		t.Fatalf("stored %d orders, want 3", n)
	}

	orders, err := s.DB.LoadSnapshot()
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if err := engine.ValidateSnapshot(orders); err != nil {
		t.Errorf("stored snapshot fails validation: %v", err)
	}
	for _, o := range orders {
		if o.OrderID == 3 && o.SystemID != 300 {
			t.Errorf("order 3 system = %d, want resolved 300", o.SystemID)
		}
	}
}

func TestRun_EndToEnd(t *testing.T) {
	src := &fakeSource{
		regions: map[int32]string{1: "The Forge"},
		orders: map[int32][]esi.MarketOrder{
			1: {
				{OrderID: 1, TypeID: 34, Price: 10, VolumeRemain: 150, LocationID: 60000001, SystemID: 100},
				{OrderID: 2, TypeID: 34, Price: 12, VolumeRemain: 50, LocationID: 60000001, SystemID: 100},
				{OrderID: 3, TypeID: 34, Price: 15, VolumeRemain: 100, LocationID: 60000002, SystemID: 200, IsBuyOrder: true},
				{OrderID: 4, TypeID: 34, Price: 11, VolumeRemain: 80, LocationID: 60000002, SystemID: 200, IsBuyOrder: true},
			},
		},
	}
	s := newTestScanner(t, src, fakeResolver{})

	if _, err := s.FetchSnapshot(FetchOptions{}); err != nil {
		t.Fatalf("FetchSnapshot: %v", err)
	}

	trips, err := s.Run(engine.Params{MaxVolume: 1000})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(trips) != 1 {
		t.Fatalf("expected 1 trip, got %d", len(trips))
	}
	trip := trips[0]
	if trip.StartSystem != 100 || trip.EndSystem != 200 {
		t.Errorf("trip route = %d->%d, want 100->200", trip.StartSystem, trip.EndSystem)
	}
	if len(trip.Trades) != 2 {
		t.Errorf("trip trades = %d, want 2", len(trip.Trades))
	}
	if got := trip.Profit(); got != 550 {
		t.Errorf("trip profit = %v, want 550", got)
	}
	if trip.Jumps != 2 {
		t.Errorf("trip jumps = %d, want 2", trip.Jumps)
	}
}

func TestRun_EmptySnapshotIsNotAnError(t *testing.T) {
	s := newTestScanner(t, &fakeSource{regions: map[int32]string{}}, fakeResolver{})
	trips, err := s.Run(engine.Params{MaxVolume: 1000})
	if err != nil {
		t.Fatalf("Run on empty snapshot: %v", err)
	}
	if len(trips) != 0 {
		t.Errorf("expected no trips, got %d", len(trips))
	}
}
