// Package geo turns a course into simplefeatures geometry for recordings
// and computes its 3D lengths.
package geo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/airrace/racecore/pkg/core"
)

var (
	// ErrInvalidCoordinates is returned when a coordinate string cannot be parsed
	ErrInvalidCoordinates = errors.New("invalid coordinates provided")
	// ErrTooFewPoints is returned when a course line would have fewer than two points
	ErrTooFewPoints = errors.New("course line needs at least 2 points")
	// ErrNotLineString is returned when WKT does not describe a LINESTRING
	ErrNotLineString = errors.New("geometry is not a linestring")
)

// Point converts a position into an XYZ point.
func Point(p core.Position3D) geom.Point {
	return geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: p.X, Y: p.Y},
		Z:    p.Z,
		Type: geom.DimXYZ,
	})
}

// PositionFromString parses "x,y" or "x,y,z" into a position.
func PositionFromString(coords string) (core.Position3D, error) {
	parts := strings.Split(coords, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return core.Position3D{}, ErrInvalidCoordinates
	}
	var vals [3]float64
	for i, s := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return core.Position3D{}, fmt.Errorf("%w: %q", ErrInvalidCoordinates, s)
		}
		vals[i] = v
	}
	return core.Position3D{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}
