package engine

import "math"

// round2 rounds to 2 decimal places. All ISK-per-unit and per-jump ratios are
// rounded at the point of computation, not at display time, so threshold
// comparisons see exactly the value that is later reported.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ProfitPerUnit is the price spread per unit, in ISK.
func (t Trade) ProfitPerUnit() float64 {
	return round2(t.Buy.Price - t.Sell.Price)
}

// Profit is the total ISK gained by executing the trade at its quantity.
func (t Trade) Profit() float64 {
	return t.ProfitPerUnit() * float64(t.Quantity)
}

// ProfitPerVolume is profit density: ISK per m³ of cargo, given the item's
// packaged unit volume.
func (t Trade) ProfitPerVolume(unitVolume float64) float64 {
	return round2(t.ProfitPerUnit() / unitVolume)
}

// TotalVolume is the cargo space the trade occupies, in m³.
func (t Trade) TotalVolume(unitVolume float64) float64 {
	return unitVolume * float64(t.Quantity)
}

// Profit is the sum of the trip's trade profits, in ISK.
func (t *Trip) Profit() float64 {
	sum := 0.0
	for _, tr := range t.Trades {
		sum += tr.Profit()
	}
	return round2(sum)
}

// ProfitPerJump divides the trip profit by its travel distance. A trip that
// starts and ends in the same system has zero travel cost, so its profit per
// jump is simply its profit.
func (t *Trip) ProfitPerJump() float64 {
	if t.Jumps <= 0 {
		return t.Profit()
	}
	return round2(t.Profit() / float64(t.Jumps))
}
