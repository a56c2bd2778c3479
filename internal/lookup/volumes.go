// Package lookup provides the memoizing resolvers the engine consumes:
// item volumes, location systems, and jump distances. Each is layered as
// in-memory map -> SQLite cache -> remote, with singleflight collapsing
// concurrent misses for the same key.
package lookup

import (
	"fmt"
	"strconv"
	"sync"

	"evetrade/internal/db"
	"evetrade/internal/esi"

	"golang.org/x/sync/singleflight"
)

// ItemSource is the remote side of item resolution (implemented by
// *esi.Client).
type ItemSource interface {
	ItemType(typeID int32) (esi.ItemType, error)
}

// Volumes resolves item unit volumes. Safe for concurrent use; the engine
// calls ItemVolume once per candidate trade, so hits must be cheap.
type Volumes struct {
	db  *db.DB
	src ItemSource

	mu    sync.RWMutex
	cache map[int32]db.ItemInfo
	group singleflight.Group
}

// NewVolumes creates a Volumes provider over the given cache DB and remote
// source.
func NewVolumes(d *db.DB, src ItemSource) *Volumes {
	return &Volumes{db: d, src: src, cache: make(map[int32]db.ItemInfo)}
}

// ItemVolume returns the packaged volume of one unit, in m³.
func (v *Volumes) ItemVolume(typeID int32) (float64, error) {
	info, err := v.item(typeID)
	if err != nil {
		return 0, err
	}
	return info.Volume, nil
}

// ItemName returns the item's display name, falling back to "Type N" when
// the item cannot be resolved. Reporting only; never fails a scan.
func (v *Volumes) ItemName(typeID int32) string {
	info, err := v.item(typeID)
	if err != nil || info.Name == "" {
		return fmt.Sprintf("Type %d", typeID)
	}
	return info.Name
}

func (v *Volumes) item(typeID int32) (db.ItemInfo, error) {
	v.mu.RLock()
	info, ok := v.cache[typeID]
	v.mu.RUnlock()
	if ok {
		return info, nil
	}

	result, err, _ := v.group.Do(strconv.Itoa(int(typeID)), func() (interface{}, error) {
		if info, ok := v.db.GetItem(typeID); ok {
			return info, nil
		}
		it, err := v.src.ItemType(typeID)
		if err != nil {
			return db.ItemInfo{}, err
		}
		info := db.ItemInfo{Name: it.Name, Volume: it.UnitVolume()}
		if info.Volume <= 0 {
			return db.ItemInfo{}, fmt.Errorf("item %d has no volume", typeID)
		}
		if err := v.db.SetItem(typeID, info); err != nil {
			return db.ItemInfo{}, fmt.Errorf("cache item %d: %w", typeID, err)
		}
		return info, nil
	})
	if err != nil {
		return db.ItemInfo{}, err
	}

	info = result.(db.ItemInfo)
	v.mu.Lock()
	v.cache[typeID] = info
	v.mu.Unlock()
	return info, nil
}
