package geo

import (
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/airrace/racecore/pkg/core"
)

// CourseLine builds an XYZ LineString through the checkpoints in order.
func CourseLine(cps []core.Position3D) (geom.LineString, error) {
	if len(cps) < 2 {
		return geom.LineString{}, ErrTooFewPoints
	}
	flat := make([]float64, 0, len(cps)*3)
	for _, p := range cps {
		flat = append(flat, p.X, p.Y, p.Z)
	}
	return geom.NewLineString(geom.NewSequence(flat, geom.DimXYZ)), nil
}

// CourseWKT renders the course as WKT, e.g. "LINESTRING Z (0 0 0,10 0 5)".
func CourseWKT(cps []core.Position3D) (string, error) {
	ls, err := CourseLine(cps)
	if err != nil {
		return "", err
	}
	return ls.AsText(), nil
}

// ParseCourseWKT reads checkpoints back from a LINESTRING. A 2D line
// yields zero altitudes.
func ParseCourseWKT(wkt string) ([]core.Position3D, error) {
	g, err := geom.UnmarshalWKT(wkt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse course WKT: %w", err)
	}
	ls, ok := g.AsLineString()
	if !ok {
		return nil, ErrNotLineString
	}
	seq := ls.Coordinates()
	out := make([]core.Position3D, seq.Length())
	for i := 0; i < seq.Length(); i++ {
		c := seq.Get(i)
		out[i] = core.Position3D{X: c.X, Y: c.Y, Z: c.Z}
	}
	return out, nil
}

// SegmentLengths returns the 3D length of each leg; entry i is the leg
// from checkpoint i to checkpoint i+1.
func SegmentLengths(cps []core.Position3D) []float64 {
	if len(cps) < 2 {
		return nil
	}
	out := make([]float64, len(cps)-1)
	for i := range out {
		out[i] = cps[i].Distance(cps[i+1])
	}
	return out
}

// CourseLength is the 3D length of the whole course.
func CourseLength(cps []core.Position3D) float64 {
	var total float64
	for _, l := range SegmentLengths(cps) {
		total += l
	}
	return total
}
