package engine

import "fmt"

// OrderSide distinguishes resting sell offers from buy bids.
type OrderSide int

const (
	SideSell OrderSide = iota
	SideBuy
)

// String returns the wire name of the side ("sell" or "buy").
func (s OrderSide) String() string {
	switch s {
	case SideSell:
		return "sell"
	case SideBuy:
		return "buy"
	default:
		return fmt.Sprintf("OrderSide(%d)", int(s))
	}
}

// ParseOrderSide converts a stored side name back to an OrderSide.
func ParseOrderSide(s string) (OrderSide, error) {
	switch s {
	case "sell":
		return SideSell, nil
	case "buy":
		return SideBuy, nil
	default:
		return 0, fmt.Errorf("unknown order side %q", s)
	}
}

// Order is one resting market order with its location already resolved to a
// solar system. Orders are immutable once constructed; the matcher tracks
// remaining quantities out of band and never writes back into a snapshot.
type Order struct {
	OrderID    int64
	TypeID     int32
	Side       OrderSide
	Price      float64 // ISK per unit
	Quantity   int64   // units remaining on the resting order
	LocationID int64
	SystemID   int32
}

// ValidateSnapshot rejects malformed orders before matching: negative prices,
// non-positive quantities, and unresolved systems. The matcher assumes a
// validated snapshot and does not re-check.
func ValidateSnapshot(orders []Order) error {
	for _, o := range orders {
		if o.Price < 0 {
			return fmt.Errorf("order %d: negative price %v", o.OrderID, o.Price)
		}
		if o.Quantity <= 0 {
			return fmt.Errorf("order %d: non-positive quantity %d", o.OrderID, o.Quantity)
		}
		if o.SystemID == 0 {
			return fmt.Errorf("order %d: unresolved system (location %d)", o.OrderID, o.LocationID)
		}
	}
	return nil
}
