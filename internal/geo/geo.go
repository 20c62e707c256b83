package geo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"

	"github.com/groupride/convoy/pkg/core"
)

// GEO POINTS
// Positions travel as WGS84 (EPSG:4326) longitude/latitude. Web map clients
// and the SQL ride log use Web Mercator (EPSG:3857).

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// Validate checks that c lies within WGS84 bounds.
func Validate(c core.Coordinate) error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidCoordinates, c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidCoordinates, c.Longitude)
	}
	return nil
}

// ParsePosition parses a "long,lat" string. Extra components such as an
// elevation are ignored.
func ParsePosition(coords string) (core.Coordinate, error) {
	coordsSplit := strings.Split(coords, ",")
	if len(coordsSplit) < 2 {
		return core.Coordinate{}, ErrInvalidCoordinates
	}
	long, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[0]), 64)
	if err != nil {
		return core.Coordinate{}, ErrInvalidCoordinates
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[1]), 64)
	if err != nil {
		return core.Coordinate{}, ErrInvalidCoordinates
	}
	c := core.Coordinate{Latitude: lat, Longitude: long}
	if err := Validate(c); err != nil {
		return core.Coordinate{}, err
	}
	return c, nil
}

var to3857 = wgs84.EPSG().Transform(4326, 3857)

// To3857 projects a WGS84 coordinate to Web Mercator x/y in meters.
func To3857(c core.Coordinate) (x, y float64) {
	x, y, _ = to3857(c.Longitude, c.Latitude, 0)
	return x, y
}

// Point returns c as a WGS84 point (X = longitude, Y = latitude).
func Point(c core.Coordinate) geom.Point {
	return geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: c.Longitude, Y: c.Latitude},
		Type: geom.DimXY,
	})
}

// Point3857 returns c projected to a Web Mercator point.
func Point3857(c core.Coordinate) geom.Point {
	x, y := To3857(c)
	return geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: x, Y: y},
		Type: geom.DimXY,
	})
}
