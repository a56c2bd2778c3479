package engine

import (
	"errors"
	"fmt"
	"testing"
)

type fakeVolumes map[int32]float64

func (f fakeVolumes) ItemVolume(typeID int32) (float64, error) {
	v, ok := f[typeID]
	if !ok {
		return 0, fmt.Errorf("unknown item %d", typeID)
	}
	return v, nil
}

type fakeJumps struct {
	dist  map[[2]int32]int
	err   error
	calls int
}

func (f *fakeJumps) Jumps(from, to int32, safeOnly bool) (int, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.dist[[2]int32{from, to}], nil
}

func tradeBetween(id int64, typeID int32, sellSys, buySys int32, sellPrice, buyPrice float64, qty int64) Trade {
	return Trade{
		Sell:     Order{OrderID: id, TypeID: typeID, Side: SideSell, Price: sellPrice, Quantity: qty, SystemID: sellSys},
		Buy:      Order{OrderID: id + 1000, TypeID: typeID, Side: SideBuy, Price: buyPrice, Quantity: qty, SystemID: buySys},
		TypeID:   typeID,
		Quantity: qty,
	}
}

func TestFindTrips_PartialFillReducesQuantity(t *testing.T) {
	// Trade volume 200 m³ (20 units @ 10 m³), capacity 50 m³ -> 5 units.
	tr := tradeBetween(1, 34, 100, 200, 10, 20, 20)
	jumps := &fakeJumps{dist: map[[2]int32]int{{100, 200}: 4}}

	trips, err := FindTrips([]Trade{tr}, Params{MaxVolume: 50}, fakeVolumes{34: 10}, jumps)
	if err != nil {
		t.Fatalf("FindTrips: %v", err)
	}
	if len(trips) != 1 || len(trips[0].Trades) != 1 {
		t.Fatalf("expected 1 trip with 1 trade, got %+v", trips)
	}
	got := trips[0].Trades[0]
	if got.Quantity != 5 {
		t.Errorf("reduced quantity = %d, want 5", got.Quantity)
	}
	if trips[0].Volume != 50 {
		t.Errorf("trip volume = %v, want 50 (capacity exactly consumed)", trips[0].Volume)
	}
	// The caller's trade must keep its original quantity.
	if tr.Quantity != 20 {
		t.Errorf("input trade mutated: quantity %d", tr.Quantity)
	}
}

func TestFindTrips_UnfittableTradeIsSkippedNotFatal(t *testing.T) {
	// Remaining capacity 5 m³, unit volume 10 m³: reduced quantity floors to
	// 0, the trade is skipped, and the walk continues to a smaller item.
	big := tradeBetween(1, 34, 100, 200, 10, 30, 20)   // density 2.0/m³, cannot fit at all
	small := tradeBetween(2, 35, 100, 200, 10, 11, 4)  // density 1.0/m³, fits
	jumps := &fakeJumps{dist: map[[2]int32]int{{100, 200}: 1}}

	trips, err := FindTrips([]Trade{big, small}, Params{MaxVolume: 5}, fakeVolumes{34: 10, 35: 1}, jumps)
	if err != nil {
		t.Fatalf("FindTrips: %v", err)
	}
	if len(trips) != 1 {
		t.Fatalf("expected 1 trip, got %d", len(trips))
	}
	if len(trips[0].Trades) != 1 || trips[0].Trades[0].TypeID != 35 {
		t.Fatalf("expected only the small trade packed, got %+v", trips[0].Trades)
	}
	if trips[0].Volume != 4 {
		t.Errorf("trip volume = %v, want 4", trips[0].Volume)
	}
}

func TestFindTrips_PacksByProfitDensity(t *testing.T) {
	// Dense trade (10 ISK/m³) must be packed before the fat one (1 ISK/m³)
	// even though the fat one has higher total profit.
	dense := tradeBetween(1, 34, 100, 200, 10, 20, 50)  // vol 50, profit 500
	fat := tradeBetween(2, 35, 100, 200, 10, 20, 100)   // vol 1000, profit 1000
	jumps := &fakeJumps{dist: map[[2]int32]int{{100, 200}: 1}}

	trips, err := FindTrips([]Trade{fat, dense}, Params{MaxVolume: 100}, fakeVolumes{34: 1, 35: 10}, jumps)
	if err != nil {
		t.Fatalf("FindTrips: %v", err)
	}
	if len(trips) != 1 {
		t.Fatalf("expected 1 trip, got %d", len(trips))
	}
	trades := trips[0].Trades
	if len(trades) != 2 || trades[0].TypeID != 34 {
		t.Fatalf("expected dense trade first, got %+v", trades)
	}
	// Fat trade partially fills the remaining 50 m³: 5 units.
	if trades[1].TypeID != 35 || trades[1].Quantity != 5 {
		t.Errorf("expected fat trade reduced to 5 units, got %+v", trades[1])
	}
	if trips[0].Volume > 100 {
		t.Errorf("capacity overfilled: %v m³", trips[0].Volume)
	}
}

func TestFindTrips_TradeFloorSkipsWithoutConsumingCapacity(t *testing.T) {
	cheap := tradeBetween(1, 34, 100, 200, 10, 11, 1)  // profit 1, below floor
	good := tradeBetween(2, 34, 100, 200, 10, 20, 10)  // profit 100
	jumps := &fakeJumps{dist: map[[2]int32]int{{100, 200}: 1}}

	trips, err := FindTrips([]Trade{cheap, good}, Params{MaxVolume: 100, MinProfitPerTrade: 50}, fakeVolumes{34: 1}, jumps)
	if err != nil {
		t.Fatalf("FindTrips: %v", err)
	}
	if len(trips) != 1 || len(trips[0].Trades) != 1 {
		t.Fatalf("expected 1 trip with 1 trade, got %+v", trips)
	}
	if trips[0].Trades[0].Profit() != 100 {
		t.Errorf("wrong trade selected: %+v", trips[0].Trades[0])
	}
}

func TestFindTrips_TradeFloorScreensBeforeReduction(t *testing.T) {
	// The floor applies to the candidate's full quantity. A trade worth 200
	// ISK at full size stays packed even though the capacity cut brings its
	// remainder (5 units, 50 ISK) below the 100 ISK floor.
	tr := tradeBetween(1, 34, 100, 200, 10, 20, 20) // profit 200 at 10 m³/unit
	jumps := &fakeJumps{dist: map[[2]int32]int{{100, 200}: 1}}

	trips, err := FindTrips([]Trade{tr}, Params{MaxVolume: 50, MinProfitPerTrade: 100}, fakeVolumes{34: 10}, jumps)
	if err != nil {
		t.Fatalf("FindTrips: %v", err)
	}
	if len(trips) != 1 || len(trips[0].Trades) != 1 {
		t.Fatalf("expected the reduced trade to survive the floor, got %+v", trips)
	}
	got := trips[0].Trades[0]
	if got.Quantity != 5 || got.Profit() != 50 {
		t.Errorf("reduced trade = qty %d profit %v, want qty 5 profit 50", got.Quantity, got.Profit())
	}
}

func TestFindTrips_TripProfitFloor(t *testing.T) {
	tr := tradeBetween(1, 34, 100, 200, 10, 20, 10) // profit 100
	jumps := &fakeJumps{dist: map[[2]int32]int{{100, 200}: 1}}

	trips, err := FindTrips([]Trade{tr}, Params{MaxVolume: 100, MinProfitPerTrip: 101}, fakeVolumes{34: 1}, jumps)
	if err != nil {
		t.Fatalf("FindTrips: %v", err)
	}
	if len(trips) != 0 {
		t.Errorf("trip below profit floor must be discarded, got %+v", trips)
	}
	// The trip was rejected before the jump lookup; no route resolution
	// should have happened.
	if jumps.calls != 0 {
		t.Errorf("jump lookup called %d times for a rejected trip", jumps.calls)
	}
}

func TestFindTrips_ProfitPerJumpFloor(t *testing.T) {
	tr := tradeBetween(1, 34, 100, 200, 10, 20, 10) // profit 100
	jumps := &fakeJumps{dist: map[[2]int32]int{{100, 200}: 10}}

	trips, err := FindTrips([]Trade{tr}, Params{MaxVolume: 100, MinProfitPerJump: 20}, fakeVolumes{34: 1}, jumps)
	if err != nil {
		t.Fatalf("FindTrips: %v", err)
	}
	// 100 ISK over 10 jumps = 10/jump < 20.
	if len(trips) != 0 {
		t.Errorf("trip below profit-per-jump floor must be discarded, got %+v", trips)
	}
}

func TestFindTrips_SameSystemTripProfitPerJump(t *testing.T) {
	tr := tradeBetween(1, 34, 100, 100, 10, 20, 10)
	jumps := &fakeJumps{}

	trips, err := FindTrips([]Trade{tr}, Params{MaxVolume: 100}, fakeVolumes{34: 1}, jumps)
	if err != nil {
		t.Fatalf("FindTrips: %v", err)
	}
	if len(trips) != 1 {
		t.Fatalf("expected 1 trip, got %d", len(trips))
	}
	trip := trips[0]
	if trip.ProfitPerJump() != trip.Profit() {
		t.Errorf("same-system trip: profitPerJump = %v, profit = %v, want equal", trip.ProfitPerJump(), trip.Profit())
	}
	if jumps.calls != 0 {
		t.Errorf("jump lookup must not be consulted for same-system trips")
	}
}

func TestFindTrips_JumpLookupFailurePropagates(t *testing.T) {
	tr := tradeBetween(1, 34, 100, 200, 10, 20, 10)
	routeErr := errors.New("route unknown")
	jumps := &fakeJumps{err: routeErr}

	_, err := FindTrips([]Trade{tr}, Params{MaxVolume: 100}, fakeVolumes{34: 1}, jumps)
	if !errors.Is(err, routeErr) {
		t.Fatalf("expected route error to propagate, got %v", err)
	}
}

func TestFindTrips_VolumeLookupFailurePropagates(t *testing.T) {
	tr := tradeBetween(1, 99, 100, 200, 10, 20, 10)
	_, err := FindTrips([]Trade{tr}, Params{MaxVolume: 100}, fakeVolumes{}, &fakeJumps{})
	if err == nil {
		t.Fatal("expected volume lookup failure to propagate")
	}
}

func TestFindTrips_RoutesSortedDeterministically(t *testing.T) {
	trades := []Trade{
		tradeBetween(1, 34, 300, 400, 10, 20, 1),
		tradeBetween(2, 34, 100, 200, 10, 20, 1),
		tradeBetween(3, 34, 100, 150, 10, 20, 1),
	}
	jumps := &fakeJumps{dist: map[[2]int32]int{{100, 150}: 1, {100, 200}: 1, {300, 400}: 1}}

	trips, err := FindTrips(trades, Params{MaxVolume: 100}, fakeVolumes{34: 1}, jumps)
	if err != nil {
		t.Fatalf("FindTrips: %v", err)
	}
	if len(trips) != 3 {
		t.Fatalf("expected 3 trips, got %d", len(trips))
	}
	want := [][2]int32{{100, 150}, {100, 200}, {300, 400}}
	for i, trip := range trips {
		if trip.StartSystem != want[i][0] || trip.EndSystem != want[i][1] {
			t.Errorf("trip %d = %d->%d, want %d->%d", i, trip.StartSystem, trip.EndSystem, want[i][0], want[i][1])
		}
	}
}

func TestTrip_AddTradeMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic when adding a trade from another route")
		}
	}()
	trip := Trip{StartSystem: 100, EndSystem: 200}
	trip.AddTrade(tradeBetween(1, 34, 100, 300, 10, 20, 1), 1)
}
