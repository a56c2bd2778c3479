package esi

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// orderCache holds per-region order books together with the HTTP caching
// metadata ESI provides. Expired entries keep their ETag so the next fetch
// can be a cheap conditional request: a 304 revalidates the cached book
// without re-downloading it.
type orderCache struct {
	mu      sync.RWMutex
	entries map[orderCacheKey]*orderCacheEntry
	group   singleflight.Group
}

type orderCacheKey struct {
	regionID  int32
	orderType string
}

type orderCacheEntry struct {
	orders  []MarketOrder
	etag    string
	expires time.Time
}

// fetchResult is what a page-fetch function reports back to the cache.
type fetchResult struct {
	orders      []MarketOrder
	etag        string
	expires     time.Time
	notModified bool // conditional request got a 304
}

type fetchFunc func(regionID int32, orderType, etag string) (fetchResult, error)

func newOrderCache() *orderCache {
	return &orderCache{entries: make(map[orderCacheKey]*orderCacheEntry)}
}

// fetch returns the cached order book when fresh, revalidates it when
// expired-but-tagged, and downloads it otherwise. Concurrent callers for the
// same key share one in-flight fetch.
func (oc *orderCache) fetch(regionID int32, orderType string, do fetchFunc) ([]MarketOrder, error) {
	key := orderCacheKey{regionID, orderType}

	oc.mu.RLock()
	entry, ok := oc.entries[key]
	if ok && time.Now().Before(entry.expires) {
		orders := entry.orders
		oc.mu.RUnlock()
		return orders, nil
	}
	etag := ""
	if ok {
		etag = entry.etag
	}
	oc.mu.RUnlock()

	sfKey := fmt.Sprintf("%d:%s", regionID, orderType)
	v, err, _ := oc.group.Do(sfKey, func() (interface{}, error) {
		result, err := do(regionID, orderType, etag)
		if err != nil {
			return nil, err
		}

		oc.mu.Lock()
		defer oc.mu.Unlock()
		if result.notModified {
			if e, ok := oc.entries[key]; ok {
				e.expires = result.expires
				return e.orders, nil
			}
			// Entry vanished between the conditional request and now; treat
			// as a miss and let the caller retry unconditionally.
			return nil, fmt.Errorf("order cache: 304 without cached entry for region %d", regionID)
		}
		oc.entries[key] = &orderCacheEntry{
			orders:  result.orders,
			etag:    result.etag,
			expires: result.expires,
		}
		return result.orders, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]MarketOrder), nil
}
