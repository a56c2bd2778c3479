package db

import (
	"fmt"

	"evetrade/internal/engine"
)

// ReplaceSnapshot atomically swaps the stored order snapshot for a new one.
func (d *DB) ReplaceSnapshot(orders []engine.Order) error {
	tx, err := d.sql.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM orders"); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO orders (order_id, type_id, side, price, quantity, location_id, system_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range orders {
		if _, err := stmt.Exec(o.OrderID, o.TypeID, o.Side.String(), o.Price, o.Quantity, o.LocationID, o.SystemID); err != nil {
			return fmt.Errorf("insert order %d: %w", o.OrderID, err)
		}
	}
	return tx.Commit()
}

// LoadSnapshot reads the stored order snapshot, ordered by order ID.
func (d *DB) LoadSnapshot() ([]engine.Order, error) {
	rows, err := d.sql.Query(`
		SELECT order_id, type_id, side, price, quantity, location_id, system_id
		FROM orders ORDER BY order_id`)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	defer rows.Close()

	var orders []engine.Order
	for rows.Next() {
		var o engine.Order
		var side string
		if err := rows.Scan(&o.OrderID, &o.TypeID, &side, &o.Price, &o.Quantity, &o.LocationID, &o.SystemID); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Side, err = engine.ParseOrderSide(side)
		if err != nil {
			return nil, fmt.Errorf("order %d: %w", o.OrderID, err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// SnapshotSize returns the number of stored orders.
func (d *DB) SnapshotSize() (int, error) {
	var n int
	err := d.sql.QueryRow("SELECT COUNT(*) FROM orders").Scan(&n)
	return n, err
}
