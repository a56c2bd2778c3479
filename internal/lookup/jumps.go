package lookup

import (
	"fmt"
	"sync"

	"evetrade/internal/db"
	"evetrade/internal/graph"

	"golang.org/x/sync/singleflight"
)

// RouteSource is the remote route planner (implemented by *esi.Client).
type RouteSource interface {
	RouteJumps(origin, dest int32, safeOnly bool) (int, error)
}

type jumpKey struct {
	lo, hi   int32
	safeOnly bool
}

// Jumps resolves travel distances between systems. When a stargate universe
// has been loaded it answers locally via Dijkstra; otherwise it asks the
// remote route planner. Either way results are memoized in SQLite, keyed on
// the unordered system pair since jump distance is symmetric.
type Jumps struct {
	db    *db.DB
	route RouteSource

	mu       sync.RWMutex
	universe *graph.Universe
	cache    map[jumpKey]int
	group    singleflight.Group
}

// NewJumps creates a Jumps provider over the given cache DB and remote route
// planner.
func NewJumps(d *db.DB, route RouteSource) *Jumps {
	return &Jumps{db: d, route: route, cache: make(map[jumpKey]int)}
}

// SetUniverse installs a locally loaded stargate graph, preferred over the
// remote planner from then on.
func (j *Jumps) SetUniverse(u *graph.Universe) {
	j.mu.Lock()
	j.universe = u
	j.mu.Unlock()
}

// Jumps returns the travel distance between two systems. A route that cannot
// be resolved is an error; it is never defaulted.
func (j *Jumps) Jumps(from, to int32, safeOnly bool) (int, error) {
	if from == to {
		return 0, nil
	}
	key := jumpKey{from, to, safeOnly}
	if key.lo > key.hi {
		key.lo, key.hi = key.hi, key.lo
	}

	j.mu.RLock()
	jumps, ok := j.cache[key]
	j.mu.RUnlock()
	if ok {
		return jumps, nil
	}

	sfKey := fmt.Sprintf("%d:%d:%t", key.lo, key.hi, key.safeOnly)
	result, err, _ := j.group.Do(sfKey, func() (interface{}, error) {
		if jumps, ok := j.db.GetJumps(key.lo, key.hi, safeOnly); ok {
			return jumps, nil
		}

		j.mu.RLock()
		universe := j.universe
		j.mu.RUnlock()

		var jumps int
		var err error
		if universe != nil {
			jumps, err = universe.JumpCount(from, to, safeOnly)
		} else {
			jumps, err = j.route.RouteJumps(from, to, safeOnly)
		}
		if err != nil {
			return 0, err
		}

		if err := j.db.SetJumps(key.lo, key.hi, safeOnly, jumps); err != nil {
			return 0, fmt.Errorf("cache jumps %d-%d: %w", key.lo, key.hi, err)
		}
		return jumps, nil
	})
	if err != nil {
		return 0, err
	}

	jumps = result.(int)
	j.mu.Lock()
	j.cache[key] = jumps
	j.mu.Unlock()
	return jumps, nil
}
