package geo

import (
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/groupride/convoy/pkg/core"
)

// Trail builds a WGS84 line string from a participant's successive positions.
// Consecutive duplicates are collapsed.
func Trail(points []core.Coordinate) (geom.LineString, error) {
	flatCoords := make([]float64, 0, len(points)*2)
	var prev *core.Coordinate
	for i := range points {
		p := points[i]
		if err := Validate(p); err != nil {
			return geom.LineString{}, fmt.Errorf("point %d: %w", i, err)
		}
		if prev != nil && *prev == p {
			continue
		}
		flatCoords = append(flatCoords, p.Longitude, p.Latitude)
		prev = &points[i]
	}

	if len(flatCoords) < 4 {
		return geom.LineString{}, fmt.Errorf("trail must have at least 2 distinct points, got %d", len(flatCoords)/2)
	}

	seq := geom.NewSequence(flatCoords, geom.DimXY)
	return geom.NewLineString(seq), nil
}
