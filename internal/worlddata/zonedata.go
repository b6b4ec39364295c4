// Package worlddata holds the static, read-only zone-level collaborators
// the estimator and bid generator consult: the zone system bijection and
// per-zone LandUse / FloatData tables. No file or CSV parsing lives here —
// loader concerns are out of scope for the core — callers hand in
// already-parsed slices at startup, the same shape as the teacher's
// prebuilt in-memory static dataset.
package worlddata

import "housingmarket/internal/worldstate"

// ZoneTables is the static per-zone data the estimator and bidder read
// during a monthly clear. It is built once at startup and never mutated
// afterward, so concurrent reads from parallel buyer/seller tasks need no
// locking.
type ZoneTables struct {
	Zones *worldstate.ZoneSystem

	landUse      map[int]worldstate.LandUse
	distSubway   map[int]worldstate.FloatData
	distRegional map[int]worldstate.FloatData
}

// NewZoneTables builds a ZoneTables from a zone system plus per-zone data
// keyed by internal zone index. Any zone absent from a map simply reads
// back as its zero value (LandUse{} or FloatData(0)), matching the spec's
// "missing land-use defaults to zeros" rule.
func NewZoneTables(zones *worldstate.ZoneSystem, landUse map[int]worldstate.LandUse, distSubway, distRegional map[int]worldstate.FloatData) *ZoneTables {
	return &ZoneTables{
		Zones:        zones,
		landUse:      landUse,
		distSubway:   distSubway,
		distRegional: distRegional,
	}
}

// LandUse returns the land-use shares for a zone, or the zero value if the
// zone has no recorded data.
func (z *ZoneTables) LandUse(zone int) worldstate.LandUse {
	return z.landUse[zone]
}

// HasLandUse reports whether zone has any recorded land-use data.
func (z *ZoneTables) HasLandUse(zone int) bool {
	_, ok := z.landUse[zone]
	return ok
}

// DistSubway returns the subway-distance attribute for a zone, or 0 if
// absent.
func (z *ZoneTables) DistSubway(zone int) float64 {
	return float64(z.distSubway[zone])
}

// DistRegional returns the regional-distance attribute for a zone, or 0 if
// absent.
func (z *ZoneTables) DistRegional(zone int) float64 {
	return float64(z.distRegional[zone])
}
