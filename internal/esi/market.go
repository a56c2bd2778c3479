package esi

import (
	"fmt"
	"strconv"
	"sync"
)

// MarketOrder mirrors the ESI market order response.
type MarketOrder struct {
	OrderID      int64   `json:"order_id"`
	TypeID       int32   `json:"type_id"`
	LocationID   int64   `json:"location_id"`
	SystemID     int32   `json:"system_id"`
	Price        float64 `json:"price"`
	VolumeRemain int64   `json:"volume_remain"`
	IsBuyOrder   bool    `json:"is_buy_order"`
}

// FetchRegionOrders fetches all resting orders of one side ("sell", "buy" or
// "all") for a region, going through the ETag/Expires cache. Repeated calls
// within the ESI refresh window return without network I/O, and concurrent
// calls for the same region coalesce into one fetch.
func (c *Client) FetchRegionOrders(regionID int32, orderType string) ([]MarketOrder, error) {
	if orderType != "sell" && orderType != "buy" && orderType != "all" {
		return nil, fmt.Errorf("order type must be sell, buy or all, got %q", orderType)
	}
	return c.orderCache.fetch(regionID, orderType, c.fetchRegionOrderPages)
}

// fetchRegionOrderPages downloads every page of a region's order book. Page 1
// carries the page count (X-Pages) and the caching headers; remaining pages
// are fetched concurrently. Orders duplicated across page boundaries are
// dropped, keeping the earlier appearance.
func (c *Client) fetchRegionOrderPages(regionID int32, orderType, etag string) (fetchResult, error) {
	base := fmt.Sprintf("%s/markets/%d/orders/?datasource=tranquility&order_type=%s",
		c.BaseURL, regionID, orderType)

	var page1 []MarketOrder
	header, err := c.getJSON(base+"&page=1", etag, &page1)
	if err == errNotModified {
		return fetchResult{notModified: true, expires: parseExpires(header)}, nil
	}
	if err != nil {
		return fetchResult{}, err
	}

	result := fetchResult{
		etag:    header.Get("Etag"),
		expires: parseExpires(header),
	}

	totalPages := 1
	if p := header.Get("X-Pages"); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			totalPages = n
		}
	}

	pages := make([][]MarketOrder, totalPages)
	pages[0] = page1
	if totalPages > 1 {
		var wg sync.WaitGroup
		errs := make([]error, totalPages)
		for p := 2; p <= totalPages; p++ {
			wg.Add(1)
			go func(p int) {
				defer wg.Done()
				var orders []MarketOrder
				if _, err := c.getJSON(fmt.Sprintf("%s&page=%d", base, p), "", &orders); err != nil {
					errs[p-1] = err
					return
				}
				pages[p-1] = orders
			}(p)
		}
		wg.Wait()
		for _, err := range errs {
			if err != nil {
				return fetchResult{}, fmt.Errorf("region %d page fetch: %w", regionID, err)
			}
		}
	}

	seen := make(map[int64]bool)
	for _, page := range pages {
		for _, o := range page {
			if seen[o.OrderID] {
				continue
			}
			seen[o.OrderID] = true
			result.orders = append(result.orders, o)
		}
	}
	return result, nil
}
