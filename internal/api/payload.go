package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/groupride/convoy/pkg/core"
)

// reportPayload is the wire form of core.Report. Coordinates are omitted
// when the device has no fix.
type reportPayload struct {
	Device    string   `json:"device"`
	Longitude *float64 `json:"longitude,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
}

type locationEntry struct {
	ID        string     `json:"id" validate:"required"`
	Latitude  *float64   `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64   `json:"longitude" validate:"required,gte=-180,lte=180"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

type syncResponse struct {
	Locations []locationEntry `json:"locations" validate:"required,dive"`
}

var validate = validator.New()

func encodeReport(r core.Report) ([]byte, error) {
	p := reportPayload{Device: string(r.Device)}
	if r.Position != nil {
		lon, lat := r.Position.Longitude, r.Position.Latitude
		p.Longitude = &lon
		p.Latitude = &lat
	}
	return json.Marshal(p)
}

// decodeLocations parses and validates a sync reply. Any structural or
// range violation yields ErrMalformedResponse.
func decodeLocations(body []byte) (core.LocationSet, error) {
	var resp syncResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := validate.Struct(resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	entries := make([]core.Location, 0, len(resp.Locations))
	for _, e := range resp.Locations {
		loc := core.Location{
			Identifier: e.ID,
			Latitude:   *e.Latitude,
			Longitude:  *e.Longitude,
		}
		if e.Timestamp != nil {
			ts := e.Timestamp.UTC()
			loc.Timestamp = &ts
		}
		entries = append(entries, loc)
	}
	return core.NewLocationSet(entries...), nil
}
