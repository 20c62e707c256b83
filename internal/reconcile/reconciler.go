// Package reconcile keeps the displayed markers in step with the latest
// LocationSet while preserving marker identity.
package reconcile

import (
	"errors"
	"sort"

	"github.com/groupride/convoy/pkg/core"
)

// Reconciler owns the displayed markers. It is not safe for concurrent use;
// run it on the UI loop.
type Reconciler struct {
	surface   Surface
	refresher Refresher
	markers   map[string]*Marker
	metrics   *metrics
}

// New creates a reconciler with no displayed markers.
func New(surface Surface) (*Reconciler, error) {
	if surface == nil {
		return nil, errors.New("reconcile: surface is required")
	}
	m, err := newMetrics()
	if err != nil {
		return nil, err
	}
	r := &Reconciler{
		surface: surface,
		markers: make(map[string]*Marker),
		metrics: m,
	}
	r.refresher, _ = surface.(Refresher)
	return r, nil
}

// Reconcile applies set to the surface. Markers whose identifier is still
// present keep their object and get the new location; the rest are removed,
// and markers are created only for identifiers not yet displayed.
func (r *Reconciler) Reconcile(set core.LocationSet) Delta {
	remaining := set.Clone()
	var delta Delta

	for _, id := range r.displayedIDs() {
		m := r.markers[id]
		loc, ok := remaining[id]
		if !ok {
			delta.Removed = append(delta.Removed, m)
			continue
		}
		m.Location = loc
		delta.Updated = append(delta.Updated, m)
		delete(remaining, id)
	}

	for _, id := range remaining.Identifiers() {
		delta.Added = append(delta.Added, &Marker{Identifier: id, Location: remaining[id]})
	}

	for _, m := range delta.Removed {
		delete(r.markers, m.Identifier)
	}
	for _, m := range delta.Added {
		r.markers[m.Identifier] = m
	}

	if len(delta.Added) > 0 {
		r.surface.AddMarkers(delta.Added)
	}
	if len(delta.Removed) > 0 {
		r.surface.RemoveMarkers(delta.Removed)
	}
	if r.refresher != nil && len(delta.Updated) > 0 {
		r.refresher.RefreshMarkers(delta.Updated)
	}

	r.metrics.record(delta, len(r.markers))
	return delta
}

// Marker returns the displayed marker for id.
func (r *Reconciler) Marker(id string) (*Marker, bool) {
	m, ok := r.markers[id]
	return m, ok
}

// Markers returns the displayed markers ordered by identifier.
func (r *Reconciler) Markers() []*Marker {
	out := make([]*Marker, 0, len(r.markers))
	for _, id := range r.displayedIDs() {
		out = append(out, r.markers[id])
	}
	return out
}

// Len returns the number of displayed markers.
func (r *Reconciler) Len() int {
	return len(r.markers)
}

func (r *Reconciler) displayedIDs() []string {
	ids := make([]string, 0, len(r.markers))
	for id := range r.markers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
