package esi

import (
	"errors"
	"fmt"
)

// ErrUnresolvableLocation marks locations whose system cannot be resolved,
// e.g. player structures that need authenticated access. Orders at such
// locations are dropped from the snapshot before matching.
var ErrUnresolvableLocation = errors.New("esi: location cannot be resolved to a system")

// NPC station ID range. Anything outside it (citadels and other player
// structures) is unresolvable without auth.
const (
	stationIDMin = 60000000
	stationIDMax = 64000000
)

// Station is the subset of the station response the snapshot needs.
type Station struct {
	SystemID int32  `json:"system_id"`
	Name     string `json:"name"`
}

// Station resolves an NPC station to its solar system.
func (c *Client) Station(locationID int64) (Station, error) {
	if locationID < stationIDMin || locationID >= stationIDMax {
		return Station{}, fmt.Errorf("%w: %d", ErrUnresolvableLocation, locationID)
	}
	var st Station
	url := fmt.Sprintf("%s/universe/stations/%d/?datasource=tranquility", c.BaseURL, locationID)
	if err := c.GetJSON(url, &st); err != nil {
		return Station{}, fmt.Errorf("station %d: %w", locationID, err)
	}
	return st, nil
}

// System is the subset of the solar-system response the caches need.
type System struct {
	Name     string  `json:"name"`
	Security float64 `json:"security_status"`
}

// System fetches a solar system's name and security status.
func (c *Client) System(systemID int32) (System, error) {
	var sys System
	url := fmt.Sprintf("%s/universe/systems/%d/?datasource=tranquility", c.BaseURL, systemID)
	if err := c.GetJSON(url, &sys); err != nil {
		return System{}, fmt.Errorf("system %d: %w", systemID, err)
	}
	return sys, nil
}

// ItemType is the subset of the type response the caches need.
type ItemType struct {
	Name           string  `json:"name"`
	Volume         float64 `json:"volume"`
	PackagedVolume float64 `json:"packaged_volume"`
}

// UnitVolume is the volume one unit occupies in a cargo hold: the packaged
// volume when ESI provides one, the assembled volume otherwise.
func (t ItemType) UnitVolume() float64 {
	if t.PackagedVolume > 0 {
		return t.PackagedVolume
	}
	return t.Volume
}

// ItemType fetches an item type's name and volume.
func (c *Client) ItemType(typeID int32) (ItemType, error) {
	var it ItemType
	url := fmt.Sprintf("%s/universe/types/%d/?datasource=tranquility", c.BaseURL, typeID)
	if err := c.GetJSON(url, &it); err != nil {
		return ItemType{}, fmt.Errorf("type %d: %w", typeID, err)
	}
	return it, nil
}

// RouteJumps returns the jump distance between two systems using the ESI
// route planner. With safeOnly set the route sticks to high-sec ("secure"
// flag); otherwise the shortest route is used. An unknown route (ESI 404)
// surfaces as ErrNotFound.
func (c *Client) RouteJumps(origin, dest int32, safeOnly bool) (int, error) {
	if origin == dest {
		return 0, nil
	}
	flag := "shortest"
	if safeOnly {
		flag = "secure"
	}
	var systems []int32
	url := fmt.Sprintf("%s/route/%d/%d/?datasource=tranquility&flag=%s", c.BaseURL, origin, dest, flag)
	if err := c.GetJSON(url, &systems); err != nil {
		return 0, fmt.Errorf("route %d->%d: %w", origin, dest, err)
	}
	if len(systems) == 0 {
		return 0, fmt.Errorf("route %d->%d: %w", origin, dest, ErrNotFound)
	}
	return len(systems) - 1, nil
}
