package graph

import (
	"encoding/json"
	"fmt"
	"os"
)

// HighsecThreshold is the security status at and above which a system counts
// as safe for route planning.
const HighsecThreshold = 0.45

// Universe is the stargate adjacency of known space, with per-system security
// status for safe-route restriction.
type Universe struct {
	adj      map[int32][]int32
	security map[int32]float64
}

// NewUniverse creates an empty Universe.
func NewUniverse() *Universe {
	return &Universe{
		adj:      make(map[int32][]int32),
		security: make(map[int32]float64),
	}
}

// AddGate records a one-directional stargate. Call twice for the usual
// bidirectional pair, or use the loader which does so.
func (u *Universe) AddGate(from, to int32) {
	u.adj[from] = append(u.adj[from], to)
}

// SetSecurity records a system's security status (-1.0 to 1.0).
func (u *Universe) SetSecurity(systemID int32, security float64) {
	u.security[systemID] = security
}

// Safe reports whether a system clears the high-sec threshold.
func (u *Universe) Safe(systemID int32) bool {
	return u.security[systemID] >= HighsecThreshold
}

// SystemCount returns the number of systems with at least one gate.
func (u *Universe) SystemCount() int {
	return len(u.adj)
}

// universeFile is the on-disk JSON shape produced by the export tooling:
// gate pairs plus a systemID -> security map.
type universeFile struct {
	Gates    [][2]int32        `json:"gates"`
	Security map[int32]float64 `json:"security"`
}

// LoadFile reads a stargate map from a JSON file. Each gate pair is applied
// in both directions.
func LoadFile(path string) (*Universe, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read universe file: %w", err)
	}
	var f universeFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse universe file: %w", err)
	}

	u := NewUniverse()
	for _, gate := range f.Gates {
		u.AddGate(gate[0], gate[1])
		u.AddGate(gate[1], gate[0])
	}
	for systemID, sec := range f.Security {
		u.SetSecurity(systemID, sec)
	}
	return u, nil
}
