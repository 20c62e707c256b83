package core

import (
	"sort"
	"time"
)

// DeviceIdentity is the anonymous, process-stable identifier of the local device.
type DeviceIdentity string

// Coordinate is a WGS84 position in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location is the last known position of one participant.
// Identifier is the reconciliation key; coordinates are payload.
type Location struct {
	Identifier string     `json:"id"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
}

// Coordinate returns the position part of the location.
func (l Location) Coordinate() Coordinate {
	return Coordinate{Latitude: l.Latitude, Longitude: l.Longitude}
}

// LocationSet maps identifier to location. A published set is never mutated;
// every fetch produces a new one.
type LocationSet map[string]Location

// NewLocationSet builds a set from entries. When the same identifier occurs
// more than once the last entry wins.
func NewLocationSet(entries ...Location) LocationSet {
	set := make(LocationSet, len(entries))
	for _, e := range entries {
		set[e.Identifier] = e
	}
	return set
}

// Identifiers returns the keys of the set in ascending order.
func (s LocationSet) Identifiers() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns a shallow copy that can be modified without touching s.
func (s LocationSet) Clone() LocationSet {
	out := make(LocationSet, len(s))
	for id, loc := range s {
		out[id] = loc
	}
	return out
}

// Report is the payload sent to the location service on every tick.
// Position is nil when the device has no location fix.
type Report struct {
	Device   DeviceIdentity
	Position *Coordinate
}
