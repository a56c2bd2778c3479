package db

// Persistent lookup caches. These back the memoizing providers in
// internal/lookup: a miss here falls through to ESI, and the resolved value
// is written back so later runs never repeat the request.

// GetLocation returns the cached system for a location, if known.
func (d *DB) GetLocation(locationID int64) (systemID int32, ok bool) {
	err := d.sql.QueryRow("SELECT system_id FROM locations WHERE location_id = ?", locationID).Scan(&systemID)
	return systemID, err == nil
}

// SetLocation caches a location's system and name.
func (d *DB) SetLocation(locationID int64, systemID int32, name string) error {
	_, err := d.sql.Exec("INSERT OR REPLACE INTO locations (location_id, system_id, name) VALUES (?, ?, ?)",
		locationID, systemID, name)
	return err
}

// SystemInfo is a cached solar system row.
type SystemInfo struct {
	Name     string
	Security float64
}

// GetSystem returns cached system info, if known.
func (d *DB) GetSystem(systemID int32) (SystemInfo, bool) {
	var info SystemInfo
	err := d.sql.QueryRow("SELECT name, security FROM systems WHERE system_id = ?", systemID).
		Scan(&info.Name, &info.Security)
	return info, err == nil
}

// SetSystem caches a system's name and security status.
func (d *DB) SetSystem(systemID int32, info SystemInfo) error {
	_, err := d.sql.Exec("INSERT OR REPLACE INTO systems (system_id, name, security) VALUES (?, ?, ?)",
		systemID, info.Name, info.Security)
	return err
}

// GetJumps returns a cached jump distance, if known. The key is symmetric;
// callers normalize (system1 <= system2).
func (d *DB) GetJumps(system1, system2 int32, safeOnly bool) (int, bool) {
	var jumps int
	err := d.sql.QueryRow("SELECT jumps FROM jumps WHERE system1 = ? AND system2 = ? AND safe_only = ?",
		system1, system2, safeOnly).Scan(&jumps)
	return jumps, err == nil
}

// SetJumps caches a jump distance.
func (d *DB) SetJumps(system1, system2 int32, safeOnly bool, jumps int) error {
	_, err := d.sql.Exec("INSERT OR REPLACE INTO jumps (system1, system2, safe_only, jumps) VALUES (?, ?, ?, ?)",
		system1, system2, safeOnly, jumps)
	return err
}

// ItemInfo is a cached item row.
type ItemInfo struct {
	Name   string
	Volume float64 // packaged volume in m³
}

// GetItem returns cached item info, if known.
func (d *DB) GetItem(typeID int32) (ItemInfo, bool) {
	var info ItemInfo
	err := d.sql.QueryRow("SELECT name, volume FROM items WHERE type_id = ?", typeID).
		Scan(&info.Name, &info.Volume)
	return info, err == nil
}

// SetItem caches an item's name and volume.
func (d *DB) SetItem(typeID int32, info ItemInfo) error {
	_, err := d.sql.Exec("INSERT OR REPLACE INTO items (type_id, name, volume) VALUES (?, ?, ?)",
		typeID, info.Name, info.Volume)
	return err
}
