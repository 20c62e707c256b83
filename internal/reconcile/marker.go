package reconcile

import "github.com/groupride/convoy/pkg/core"

// Marker is a displayed annotation for one participant. A marker is bound to
// its Identifier for life; only Location changes between passes.
type Marker struct {
	Identifier string
	Location   core.Location
}

// Coordinate returns the marker position.
func (m *Marker) Coordinate() core.Coordinate {
	return m.Location.Coordinate()
}

// Surface displays markers. It is called from the UI loop only.
type Surface interface {
	AddMarkers(markers []*Marker)
	RemoveMarkers(markers []*Marker)
}

// Refresher is implemented by surfaces that need to be told about markers
// whose location changed in place.
type Refresher interface {
	RefreshMarkers(markers []*Marker)
}

// Delta is the outcome of one reconciliation pass. Each list is ordered by
// identifier.
type Delta struct {
	Added   []*Marker
	Updated []*Marker
	Removed []*Marker
}

// Empty reports whether the pass changed nothing structurally.
func (d Delta) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}
