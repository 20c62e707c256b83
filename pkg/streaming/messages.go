package streaming

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message type constants matching the live feed protocol.
const (
	TypeSnapshot       = "snapshot"
	TypeMarkersAdded   = "markers_added"
	TypeMarkersUpdated = "markers_updated"
	TypeMarkersRemoved = "markers_removed"
	TypeVisibility     = "visibility"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewEnvelope marshals payload into an envelope of the given type.
func NewEnvelope(msgType string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	return Envelope{Type: msgType, Payload: raw}, nil
}

// MarkerPayload describes one displayed marker. X and Y are Web Mercator
// (EPSG:3857) meters.
type MarkerPayload struct {
	ID        string     `json:"id"`
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	X         float64    `json:"x"`
	Y         float64    `json:"y"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// MarkersPayload carries markers_added and markers_updated.
type MarkersPayload struct {
	Markers []MarkerPayload `json:"markers"`
}

// RemovedPayload carries markers_removed.
type RemovedPayload struct {
	IDs []string `json:"ids"`
}

// VisibilityPayload carries the gate output and the tile source it selects.
type VisibilityPayload struct {
	OverlayHidden bool   `json:"overlayHidden"`
	UseNightTiles bool   `json:"useNightTiles"`
	TileURL       string `json:"tileUrl"`
}

// SnapshotPayload is sent once to every new subscriber.
type SnapshotPayload struct {
	Markers    []MarkerPayload   `json:"markers"`
	Visibility VisibilityPayload `json:"visibility"`
}
