// Package scan orchestrates the arbitrage pipeline: pull an order snapshot
// from the market API into SQLite, then match it into trades and assemble
// trips. The engine itself never fetches; this package owns all I/O
// sequencing around it.
package scan

import (
	"fmt"
	"sort"
	"sync"

	"evetrade/internal/db"
	"evetrade/internal/engine"
	"evetrade/internal/esi"
	"evetrade/internal/logger"
)

// Items CONCORD considers contraband somewhere in empire space. Hauling
// these gets cargo confiscated at gate checks, so they are dropped from the
// snapshot by default.
var contrabandTypes = map[int32]bool{
	3713: true, 3721: true, 3727: true, 3729: true,
	9844: true, 11855: true, 12478: true, 17796: true,
}

// OrderSource is the market API surface the scanner pulls from (implemented
// by *esi.Client).
type OrderSource interface {
	FetchRegions(filter esi.RegionFilter) (map[int32]string, error)
	FetchRegionOrders(regionID int32, orderType string) ([]esi.MarketOrder, error)
}

// SystemResolver resolves an order's location to its solar system
// (implemented by *lookup.Systems).
type SystemResolver interface {
	SystemForLocation(locationID int64) (int32, error)
}

// FetchOptions controls snapshot acquisition.
type FetchOptions struct {
	Regions          esi.RegionFilter
	IgnoreContraband bool
}

// Scanner runs the pipeline over a snapshot store and the external lookups.
type Scanner struct {
	DB       *db.DB
	Source   OrderSource
	Resolver SystemResolver
	Volumes  engine.VolumeLookup
	Jumps    engine.JumpLookup
}

// FetchSnapshot downloads the current order books for all regions passing
// the filter, resolves each order's system, and replaces the stored
// snapshot. Orders whose system cannot be resolved (player structures) are
// dropped, as are malformed orders; both exclusions happen here so the
// engine always sees a valid snapshot. Returns the stored order count.
func (s *Scanner) FetchSnapshot(opts FetchOptions) (int, error) {
	if opts.Regions == "" {
		opts.Regions = esi.RegionsEmpire
	}
	regions, err := s.Source.FetchRegions(opts.Regions)
	if err != nil {
		return 0, fmt.Errorf("enumerate regions: %w", err)
	}
	logger.Info("FETCH", fmt.Sprintf("Pulling orders from %d regions", len(regions)))

	regionIDs := make([]int32, 0, len(regions))
	for id := range regions {
		regionIDs = append(regionIDs, id)
	}
	sort.Slice(regionIDs, func(i, j int) bool { return regionIDs[i] < regionIDs[j] })

	perRegion := make([][]esi.MarketOrder, len(regionIDs))
	errs := make([]error, len(regionIDs))
	var wg sync.WaitGroup
	for i, regionID := range regionIDs {
		wg.Add(1)
		go func(i int, regionID int32) {
			defer wg.Done()
			orders, err := s.Source.FetchRegionOrders(regionID, "all")
			if err != nil {
				errs[i] = fmt.Errorf("region %d (%s): %w", regionID, regions[regionID], err)
				return
			}
			perRegion[i] = orders
		}(i, regionID)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return 0, err
		}
	}

	var snapshot []engine.Order
	dropped := 0
	for _, orders := range perRegion {
		for _, o := range orders {
			if opts.IgnoreContraband && contrabandTypes[o.TypeID] {
				continue
			}
			if o.Price < 0 || o.VolumeRemain <= 0 {
				dropped++
				continue
			}
			systemID := o.SystemID
			if systemID == 0 {
				systemID, err = s.Resolver.SystemForLocation(o.LocationID)
				if err != nil {
					dropped++
					continue
				}
			}
			side := engine.SideSell
			if o.IsBuyOrder {
				side = engine.SideBuy
			}
			snapshot = append(snapshot, engine.Order{
				OrderID:    o.OrderID,
				TypeID:     o.TypeID,
				Side:       side,
				Price:      o.Price,
				Quantity:   o.VolumeRemain,
				LocationID: o.LocationID,
				SystemID:   systemID,
			})
		}
	}
	if dropped > 0 {
		logger.Warn("FETCH", fmt.Sprintf("Dropped %d malformed or unresolvable orders", dropped))
	}

	if err := s.DB.ReplaceSnapshot(snapshot); err != nil {
		return 0, fmt.Errorf("store snapshot: %w", err)
	}
	logger.Success("FETCH", fmt.Sprintf("Stored %d orders", len(snapshot)))
	return len(snapshot), nil
}

// Run loads the stored snapshot, matches it into trades, and assembles trips
// under the given thresholds.
func (s *Scanner) Run(params engine.Params) ([]engine.Trip, error) {
	orders, err := s.DB.LoadSnapshot()
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if err := engine.ValidateSnapshot(orders); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	logger.Info("SCAN", fmt.Sprintf("Matching %d orders", len(orders)))

	trades := engine.FindTrades(orders)
	logger.Info("SCAN", fmt.Sprintf("Found %d trades", len(trades)))

	trips, err := engine.FindTrips(trades, params, s.Volumes, s.Jumps)
	if err != nil {
		return nil, err
	}
	logger.Success("SCAN", fmt.Sprintf("Assembled %d trips", len(trips)))
	return trips, nil
}
