package lookup

import (
	"fmt"
	"strconv"
	"sync"

	"evetrade/internal/db"
	"evetrade/internal/esi"

	"golang.org/x/sync/singleflight"
)

// StationSource resolves an NPC station (implemented by *esi.Client).
type StationSource interface {
	Station(locationID int64) (esi.Station, error)
}

// SystemSource fetches solar-system details (implemented by *esi.Client).
type SystemSource interface {
	System(systemID int32) (esi.System, error)
}

// Systems resolves order locations to solar systems and system IDs to names.
// Used once per order at snapshot construction and for report rendering.
type Systems struct {
	db       *db.DB
	stations StationSource
	systems  SystemSource

	mu        sync.RWMutex
	locations map[int64]int32
	names     map[int32]string
	group     singleflight.Group
}

// NewSystems creates a Systems provider over the given cache DB and remote
// sources.
func NewSystems(d *db.DB, stations StationSource, systems SystemSource) *Systems {
	return &Systems{
		db:        d,
		stations:  stations,
		systems:   systems,
		locations: make(map[int64]int32),
		names:     make(map[int32]string),
	}
}

// SystemForLocation resolves the solar system an order's location sits in.
// Unresolvable locations (player structures) return
// esi.ErrUnresolvableLocation; the snapshot builder drops those orders.
func (s *Systems) SystemForLocation(locationID int64) (int32, error) {
	s.mu.RLock()
	systemID, ok := s.locations[locationID]
	s.mu.RUnlock()
	if ok {
		return systemID, nil
	}

	result, err, _ := s.group.Do("loc:"+strconv.FormatInt(locationID, 10), func() (interface{}, error) {
		if systemID, ok := s.db.GetLocation(locationID); ok {
			return systemID, nil
		}
		st, err := s.stations.Station(locationID)
		if err != nil {
			return int32(0), err
		}
		if err := s.db.SetLocation(locationID, st.SystemID, st.Name); err != nil {
			return int32(0), fmt.Errorf("cache location %d: %w", locationID, err)
		}
		return st.SystemID, nil
	})
	if err != nil {
		return 0, err
	}

	systemID = result.(int32)
	s.mu.Lock()
	s.locations[locationID] = systemID
	s.mu.Unlock()
	return systemID, nil
}

// SystemName returns a system's display name, falling back to "System N".
// Reporting only; never fails a scan.
func (s *Systems) SystemName(systemID int32) string {
	s.mu.RLock()
	name, ok := s.names[systemID]
	s.mu.RUnlock()
	if ok {
		return name
	}

	result, err, _ := s.group.Do("sys:"+strconv.Itoa(int(systemID)), func() (interface{}, error) {
		if info, ok := s.db.GetSystem(systemID); ok {
			return info.Name, nil
		}
		sys, err := s.systems.System(systemID)
		if err != nil {
			return "", err
		}
		if err := s.db.SetSystem(systemID, db.SystemInfo{Name: sys.Name, Security: sys.Security}); err != nil {
			return "", fmt.Errorf("cache system %d: %w", systemID, err)
		}
		return sys.Name, nil
	})
	if err != nil {
		return fmt.Sprintf("System %d", systemID)
	}

	name = result.(string)
	s.mu.Lock()
	s.names[systemID] = name
	s.mu.Unlock()
	return name
}
