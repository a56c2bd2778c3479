package engine

import (
	"sort"
	"sync"
)

// Trade is one matched pairing of a sell order against a buy order. Both
// orders are held by value, so a Trade stays valid however the snapshot it
// came from is used afterwards. Quantity may be reduced by the trip assembler
// when a trade only partially fits the remaining cargo capacity; the assembler
// works on its own copies, so trades returned by FindTrades are never mutated.
type Trade struct {
	Sell     Order
	Buy      Order
	TypeID   int32
	Quantity int64
}

// FindTrades runs a greedy double auction per item over the full snapshot and
// returns every trade with a strictly positive price spread.
//
// Items share no state, so they are matched concurrently. Results are merged
// in ascending type-ID order, which makes the output deterministic for a
// given snapshot regardless of goroutine scheduling.
func FindTrades(orders []Order) []Trade {
	byItem := make(map[int32][]int)
	for i, o := range orders {
		byItem[o.TypeID] = append(byItem[o.TypeID], i)
	}

	itemIDs := make([]int32, 0, len(byItem))
	for id := range byItem {
		itemIDs = append(itemIDs, id)
	}
	sort.Slice(itemIDs, func(i, j int) bool { return itemIDs[i] < itemIDs[j] })

	perItem := make([][]Trade, len(itemIDs))
	var wg sync.WaitGroup
	for slot, typeID := range itemIDs {
		wg.Add(1)
		go func(slot int, idx []int) {
			defer wg.Done()
			perItem[slot] = matchItem(orders, idx)
		}(slot, byItem[typeID])
	}
	wg.Wait()

	var all []Trade
	for _, trades := range perItem {
		all = append(all, trades...)
	}
	return all
}

// matchItem matches all orders of a single item. idx holds the snapshot
// indices of that item's orders.
func matchItem(orders []Order, idx []int) []Trade {
	sellBySystem := make(map[int32][]Order)
	buyBySystem := make(map[int32][]Order)
	for _, i := range idx {
		o := orders[i]
		switch o.Side {
		case SideSell:
			sellBySystem[o.SystemID] = append(sellBySystem[o.SystemID], o)
		case SideBuy:
			buyBySystem[o.SystemID] = append(buyBySystem[o.SystemID], o)
		}
	}
	if len(sellBySystem) == 0 || len(buyBySystem) == 0 {
		return nil
	}

	sellSystems := sortedSystems(sellBySystem)
	buySystems := sortedSystems(buyBySystem)

	// Cheapest sell / most generous buy per system, computed once and reused
	// across all pairs so the expensive fill loop only runs where a profitable
	// spread can exist at all.
	minSell := make(map[int32]float64, len(sellSystems))
	maxBuy := make(map[int32]float64, len(buySystems))
	for _, sys := range sellSystems {
		minSell[sys] = minPrice(sellBySystem[sys])
	}
	for _, sys := range buySystems {
		maxBuy[sys] = maxPrice(buyBySystem[sys])
	}

	var trades []Trade
	for _, sellSys := range sellSystems {
		for _, buySys := range buySystems {
			if minSell[sellSys] >= maxBuy[buySys] {
				continue
			}
			trades = append(trades, fillOrders(sellBySystem[sellSys], buyBySystem[buySys])...)
		}
	}
	return trades
}

// fillOrders clears one (sellSystem, buySystem) pair: sells ascending by
// price, buys descending, buy outer / sell inner, matching min(remaining)
// units at each crossing. Remaining quantities live in a local tracker keyed
// by order ID, so nothing leaks back into the snapshot and the same orders
// can participate in other pairs with their full quantity.
func fillOrders(sells, buys []Order) []Trade {
	sells = append([]Order(nil), sells...)
	buys = append([]Order(nil), buys...)

	// Price priority; order ID breaks ties so a snapshot always clears the
	// same way.
	sort.Slice(sells, func(i, j int) bool {
		if sells[i].Price != sells[j].Price {
			return sells[i].Price < sells[j].Price
		}
		return sells[i].OrderID < sells[j].OrderID
	})
	sort.Slice(buys, func(i, j int) bool {
		if buys[i].Price != buys[j].Price {
			return buys[i].Price > buys[j].Price
		}
		return buys[i].OrderID < buys[j].OrderID
	})

	remaining := make(map[int64]int64, len(sells)+len(buys))
	for _, o := range sells {
		remaining[o.OrderID] = o.Quantity
	}
	for _, o := range buys {
		remaining[o.OrderID] = o.Quantity
	}

	var trades []Trade
	for _, buy := range buys {
		for _, sell := range sells {
			if remaining[buy.OrderID] <= 0 {
				break
			}
			// Sells only get more expensive from here; no later sell can
			// cross this buy.
			if sell.Price >= buy.Price {
				break
			}
			if remaining[sell.OrderID] <= 0 {
				continue
			}

			qty := remaining[sell.OrderID]
			if remaining[buy.OrderID] < qty {
				qty = remaining[buy.OrderID]
			}

			trades = append(trades, Trade{
				Sell:     sell,
				Buy:      buy,
				TypeID:   sell.TypeID,
				Quantity: qty,
			})
			remaining[sell.OrderID] -= qty
			remaining[buy.OrderID] -= qty
		}
	}
	return trades
}

func sortedSystems(m map[int32][]Order) []int32 {
	systems := make([]int32, 0, len(m))
	for sys := range m {
		systems = append(systems, sys)
	}
	sort.Slice(systems, func(i, j int) bool { return systems[i] < systems[j] })
	return systems
}

func minPrice(orders []Order) float64 {
	min := orders[0].Price
	for _, o := range orders[1:] {
		if o.Price < min {
			min = o.Price
		}
	}
	return min
}

func maxPrice(orders []Order) float64 {
	max := orders[0].Price
	for _, o := range orders[1:] {
		if o.Price > max {
			max = o.Price
		}
	}
	return max
}
