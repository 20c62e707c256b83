// Package mapview is the headless map surface: it holds the displayed
// markers, serves them over HTTP and streams changes to WebSocket clients.
package mapview

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/groupride/convoy/internal/geo"
	"github.com/groupride/convoy/internal/reconcile"
	"github.com/groupride/convoy/pkg/core"
	"github.com/groupride/convoy/pkg/streaming"
)

// Tiles holds the map tile URL templates for both themes.
type Tiles struct {
	Day   string
	Night string
}

// Surface implements reconcile.Surface, reconcile.Refresher and
// visibility.Applier. All methods must run on the UI loop.
type Surface struct {
	markers    map[string]*reconcile.Marker
	visibility core.Visibility
	tiles      Tiles
	hub        *Hub
	log        zerolog.Logger
}

// NewSurface creates an empty surface. hub may be nil.
func NewSurface(tiles Tiles, hub *Hub, logger zerolog.Logger) *Surface {
	return &Surface{
		markers: make(map[string]*reconcile.Marker),
		tiles:   tiles,
		hub:     hub,
		log:     logger.With().Str("component", "mapview").Logger(),
	}
}

// AddMarkers shows markers and announces them to clients.
func (s *Surface) AddMarkers(markers []*reconcile.Marker) {
	for _, m := range markers {
		s.markers[m.Identifier] = m
	}
	s.broadcast(streaming.TypeMarkersAdded, streaming.MarkersPayload{Markers: markerPayloads(markers)})
}

// RemoveMarkers drops markers and announces their identifiers.
func (s *Surface) RemoveMarkers(markers []*reconcile.Marker) {
	ids := make([]string, 0, len(markers))
	for _, m := range markers {
		delete(s.markers, m.Identifier)
		ids = append(ids, m.Identifier)
	}
	s.broadcast(streaming.TypeMarkersRemoved, streaming.RemovedPayload{IDs: ids})
}

// RefreshMarkers publishes markers that moved in place.
func (s *Surface) RefreshMarkers(markers []*reconcile.Marker) {
	s.broadcast(streaming.TypeMarkersUpdated, streaming.MarkersPayload{Markers: markerPayloads(markers)})
}

// SetVisibility applies v and broadcasts it when it changed.
func (s *Surface) SetVisibility(v core.Visibility) {
	if v == s.visibility {
		return
	}
	s.visibility = v
	s.log.Info().
		Bool("overlayHidden", v.OverlayHidden).
		Bool("nightTiles", v.UseNightTiles).
		Msg("visibility changed")
	s.broadcast(streaming.TypeVisibility, s.visibilityPayload())
}

// Snapshot returns the current markers ordered by identifier and the
// current visibility.
func (s *Surface) Snapshot() streaming.SnapshotPayload {
	ids := make([]string, 0, len(s.markers))
	for id := range s.markers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	markers := make([]*reconcile.Marker, 0, len(ids))
	for _, id := range ids {
		markers = append(markers, s.markers[id])
	}
	return streaming.SnapshotPayload{
		Markers:    markerPayloads(markers),
		Visibility: s.visibilityPayload(),
	}
}

func (s *Surface) visibilityPayload() streaming.VisibilityPayload {
	url := s.tiles.Day
	if s.visibility.UseNightTiles {
		url = s.tiles.Night
	}
	return streaming.VisibilityPayload{
		OverlayHidden: s.visibility.OverlayHidden,
		UseNightTiles: s.visibility.UseNightTiles,
		TileURL:       url,
	}
}

func (s *Surface) broadcast(msgType string, payload any) {
	if s.hub == nil {
		return
	}
	env, err := streaming.NewEnvelope(msgType, payload)
	if err != nil {
		s.log.Error().Err(err).Str("type", msgType).Msg("failed to build envelope")
		return
	}
	s.hub.Broadcast(env)
}

func markerPayloads(markers []*reconcile.Marker) []streaming.MarkerPayload {
	out := make([]streaming.MarkerPayload, 0, len(markers))
	for _, m := range markers {
		x, y := geo.To3857(m.Coordinate())
		out = append(out, streaming.MarkerPayload{
			ID:        m.Identifier,
			Latitude:  m.Location.Latitude,
			Longitude: m.Location.Longitude,
			X:         x,
			Y:         y,
			Timestamp: m.Location.Timestamp,
		})
	}
	return out
}
