package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the local SQLite database holding the order snapshot and the
// lookup caches (locations, systems, jumps, items).
type DB struct {
	sql *sql.DB
}

// Open opens (or creates) the database at path and runs migrations.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	d := &DB{sql: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate() error {
	version := 0
	d.sql.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS orders (
				order_id    INTEGER PRIMARY KEY,
				type_id     INTEGER NOT NULL,
				side        TEXT    NOT NULL,
				price       REAL    NOT NULL,
				quantity    INTEGER NOT NULL,
				location_id INTEGER NOT NULL,
				system_id   INTEGER NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_orders_type ON orders(type_id);

			CREATE TABLE IF NOT EXISTS locations (
				location_id INTEGER PRIMARY KEY,
				system_id   INTEGER NOT NULL,
				name        TEXT    NOT NULL
			);

			CREATE TABLE IF NOT EXISTS systems (
				system_id INTEGER PRIMARY KEY,
				name      TEXT NOT NULL,
				security  REAL NOT NULL
			);

			CREATE TABLE IF NOT EXISTS jumps (
				system1   INTEGER NOT NULL,
				system2   INTEGER NOT NULL,
				safe_only INTEGER NOT NULL,
				jumps     INTEGER NOT NULL,
				PRIMARY KEY (system1, system2, safe_only)
			);

			CREATE TABLE IF NOT EXISTS items (
				type_id INTEGER PRIMARY KEY,
				name    TEXT NOT NULL,
				volume  REAL NOT NULL
			);

			INSERT OR IGNORE INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}
	return nil
}
