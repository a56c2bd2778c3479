// Package config holds the evetrade settings file: engine thresholds plus
// fetch and serve options, persisted as flat JSON next to the database.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"evetrade/internal/engine"
	"evetrade/internal/esi"
)

// Config is the on-disk application configuration.
type Config struct {
	// Engine thresholds.
	MaxVolume         float64 `json:"max_volume"`           // cargo capacity in m³
	MinProfitPerTrip  float64 `json:"min_profit_per_trip"`  // ISK
	MinProfitPerTrade float64 `json:"min_profit_per_trade"` // ISK
	MinProfitPerJump  float64 `json:"min_profit_per_jump"`  // ISK
	SafeRoutesOnly    bool    `json:"safe_routes_only"`

	// Snapshot fetch options.
	Regions          string `json:"regions"` // all | empire | null
	IgnoreContraband bool   `json:"ignore_contraband"`

	// Paths and serving.
	DBPath       string `json:"db_path"`
	UniversePath string `json:"universe_path"` // optional stargate map for offline jump counts
	Port         int    `json:"port"`
}

// Default returns a Config with the standard hauler parameters: a freighter-
// sized hold and floors that weed out trips not worth undocking for.
func Default() *Config {
	return &Config{
		MaxVolume:         60000,
		MinProfitPerTrip:  20e6,
		MinProfitPerTrade: 900e3,
		MinProfitPerJump:  900e3,
		SafeRoutesOnly:    false,
		Regions:           string(esi.RegionsEmpire),
		IgnoreContraband:  true,
		DBPath:            "evetrade.db",
		UniversePath:      "",
		Port:              13370,
	}
}

// Load reads the config file at path. A missing file yields defaults; a
// present but unreadable file is an error.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config back as indented JSON.
func (c *Config) Save(path string) error {
	raw, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(raw, '\n'), 0644)
}

func (c *Config) validate() error {
	if c.MaxVolume <= 0 {
		return fmt.Errorf("max_volume must be positive, got %v", c.MaxVolume)
	}
	switch esi.RegionFilter(c.Regions) {
	case esi.RegionsAll, esi.RegionsEmpire, esi.RegionsNull:
	default:
		return fmt.Errorf("regions must be all, empire or null, got %q", c.Regions)
	}
	return nil
}

// EngineParams converts the config to the assembler's threshold set.
func (c *Config) EngineParams() engine.Params {
	return engine.Params{
		MaxVolume:         c.MaxVolume,
		MinProfitPerTrip:  c.MinProfitPerTrip,
		MinProfitPerTrade: c.MinProfitPerTrade,
		MinProfitPerJump:  c.MinProfitPerJump,
		SafeRoutesOnly:    c.SafeRoutesOnly,
	}
}

// RegionFilter converts the configured region set name.
func (c *Config) RegionFilter() esi.RegionFilter {
	return esi.RegionFilter(c.Regions)
}
