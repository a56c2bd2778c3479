package engine

import (
	"fmt"
	"math"
	"sort"
)

// VolumeLookup resolves an item's packaged volume in m³. Implementations are
// expected to memoize; the assembler calls it once per candidate trade.
type VolumeLookup interface {
	ItemVolume(typeID int32) (float64, error)
}

// JumpLookup resolves the travel distance in jumps between two systems,
// optionally restricted to safe (high-sec) routes. A route that cannot be
// resolved is an error, never a default distance.
type JumpLookup interface {
	Jumps(from, to int32, safeOnly bool) (int, error)
}

// Params are the trip-assembly thresholds.
type Params struct {
	MaxVolume         float64 // cargo capacity in m³
	MinProfitPerTrip  float64
	MinProfitPerTrade float64
	MinProfitPerJump  float64
	SafeRoutesOnly    bool
}

// Trip is a bundle of trades hauled from StartSystem to EndSystem under one
// cargo capacity. Built incrementally by FindTrips, then immutable.
type Trip struct {
	StartSystem int32
	EndSystem   int32
	Trades      []Trade
	Jumps       int     // travel distance, 0 for same-system trips
	Volume      float64 // accumulated cargo volume in m³
}

// AddTrade appends a trade to the trip. A trade whose systems do not match
// the trip's pair is a programming error, not a runtime condition, and
// panics.
func (t *Trip) AddTrade(trade Trade, unitVolume float64) {
	if trade.Sell.SystemID != t.StartSystem || trade.Buy.SystemID != t.EndSystem {
		panic(fmt.Sprintf("trade %d->%d does not belong to trip %d->%d",
			trade.Sell.SystemID, trade.Buy.SystemID, t.StartSystem, t.EndSystem))
	}
	t.Trades = append(t.Trades, trade)
	t.Volume += trade.TotalVolume(unitVolume)
}

type routeKey struct {
	start, end int32
}

// FindTrips groups trades by (start system, end system) and greedily packs
// each route's cargo hold with the densest-profit trades first, then filters
// the resulting trips by the profitability floors in params.
//
// A failed volume or jump lookup aborts the run and is returned to the
// caller; it is never coerced to a zero or infinite distance. Routes are
// processed in sorted order so output is reproducible.
func FindTrips(trades []Trade, params Params, volumes VolumeLookup, jumps JumpLookup) ([]Trip, error) {
	byRoute := make(map[routeKey][]Trade)
	for _, tr := range trades {
		key := routeKey{tr.Sell.SystemID, tr.Buy.SystemID}
		byRoute[key] = append(byRoute[key], tr)
	}

	routes := make([]routeKey, 0, len(byRoute))
	for key := range byRoute {
		routes = append(routes, key)
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].start != routes[j].start {
			return routes[i].start < routes[j].start
		}
		return routes[i].end < routes[j].end
	})

	var trips []Trip
	for _, route := range routes {
		trip, ok, err := packRoute(route, byRoute[route], params, volumes, jumps)
		if err != nil {
			return nil, fmt.Errorf("route %d->%d: %w", route.start, route.end, err)
		}
		if ok {
			trips = append(trips, trip)
		}
	}
	return trips, nil
}

// packRoute assembles and filters a single route's trip. Returns ok=false
// when the trip does not clear the profitability floors (or ends up empty).
func packRoute(route routeKey, candidates []Trade, params Params, volumes VolumeLookup, jumps JumpLookup) (Trip, bool, error) {
	// Work on copies: partial fills reduce quantities, and the matcher's
	// output must stay intact for the caller.
	candidates = append([]Trade(nil), candidates...)

	unitVol := make(map[int32]float64)
	for _, tr := range candidates {
		if _, ok := unitVol[tr.TypeID]; ok {
			continue
		}
		v, err := volumes.ItemVolume(tr.TypeID)
		if err != nil {
			return Trip{}, false, fmt.Errorf("item %d volume: %w", tr.TypeID, err)
		}
		unitVol[tr.TypeID] = v
	}

	// Densest profit first; stable sort keeps matcher order for equal
	// densities.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].ProfitPerVolume(unitVol[candidates[i].TypeID]) >
			candidates[j].ProfitPerVolume(unitVol[candidates[j].TypeID])
	})

	trip := Trip{StartSystem: route.start, EndSystem: route.end}
	remaining := params.MaxVolume
	for _, tr := range candidates {
		if remaining <= 0 {
			break
		}
		if tr.Profit() < params.MinProfitPerTrade {
			continue
		}

		vol := unitVol[tr.TypeID]
		if tr.TotalVolume(vol) > remaining {
			reduced := int64(math.Floor(remaining / vol))
			if reduced <= 0 {
				continue
			}
			tr.Quantity = reduced
		}

		trip.AddTrade(tr, vol)
		remaining -= tr.TotalVolume(vol)
	}

	if len(trip.Trades) == 0 {
		return Trip{}, false, nil
	}
	if trip.Profit() < params.MinProfitPerTrip {
		return Trip{}, false, nil
	}

	// Same-system trips have zero travel cost; the jump lookup is only
	// consulted when the trip actually moves.
	if route.start != route.end {
		j, err := jumps.Jumps(route.start, route.end, params.SafeRoutesOnly)
		if err != nil {
			return Trip{}, false, fmt.Errorf("jumps: %w", err)
		}
		trip.Jumps = j
	}
	if trip.ProfitPerJump() < params.MinProfitPerJump {
		return Trip{}, false, nil
	}
	return trip, true, nil
}
