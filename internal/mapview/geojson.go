package mapview

import (
	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/groupride/convoy/internal/geo"
	"github.com/groupride/convoy/pkg/core"
	"github.com/groupride/convoy/pkg/streaming"
)

// featureCollection renders markers as GeoJSON points in WGS84 with their
// Web Mercator position as properties.
func featureCollection(markers []streaming.MarkerPayload) geom.GeoJSONFeatureCollection {
	fc := make(geom.GeoJSONFeatureCollection, 0, len(markers))
	for _, m := range markers {
		props := map[string]interface{}{
			"id": m.ID,
			"x":  m.X,
			"y":  m.Y,
		}
		if m.Timestamp != nil {
			props["timestamp"] = m.Timestamp
		}
		fc = append(fc, geom.GeoJSONFeature{
			ID:         m.ID,
			Geometry:   geo.Point(core.Coordinate{Latitude: m.Latitude, Longitude: m.Longitude}).AsGeometry(),
			Properties: props,
		})
	}
	return fc
}

// trailFeature renders a participant trail as a GeoJSON line feature.
func trailFeature(id string, points []core.Coordinate) (geom.GeoJSONFeature, error) {
	ls, err := geo.Trail(points)
	if err != nil {
		return geom.GeoJSONFeature{}, err
	}
	return geom.GeoJSONFeature{
		ID:         id,
		Geometry:   ls.AsGeometry(),
		Properties: map[string]interface{}{"id": id, "points": ls.Coordinates().Length()},
	}, nil
}
