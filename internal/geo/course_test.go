package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airrace/racecore/pkg/core"
)

var testCourse = []core.Position3D{
	{X: 0, Y: 0, Z: 0},
	{X: 3, Y: 4, Z: 0},
	{X: 3, Y: 4, Z: 12},
}

func TestCourseLine(t *testing.T) {
	ls, err := CourseLine(testCourse)
	require.NoError(t, err)

	seq := ls.Coordinates()
	require.Equal(t, 3, seq.Length())
	assert.Equal(t, 12.0, seq.Get(2).Z)
	assert.Equal(t, 3.0, seq.Get(1).X)
}

func TestCourseLine_TooFewPoints(t *testing.T) {
	_, err := CourseLine(testCourse[:1])
	assert.ErrorIs(t, err, ErrTooFewPoints)

	_, err = CourseWKT(nil)
	assert.ErrorIs(t, err, ErrTooFewPoints)
}

func TestCourseWKT_RoundTrip(t *testing.T) {
	wkt, err := CourseWKT(testCourse)
	require.NoError(t, err)
	assert.Contains(t, wkt, "LINESTRING Z")

	back, err := ParseCourseWKT(wkt)
	require.NoError(t, err)
	assert.Equal(t, testCourse, back)
}

func TestParseCourseWKT_Errors(t *testing.T) {
	_, err := ParseCourseWKT("not wkt")
	assert.Error(t, err)

	_, err = ParseCourseWKT("POINT (1 2)")
	assert.ErrorIs(t, err, ErrNotLineString)
}

func TestParseCourseWKT_2D(t *testing.T) {
	back, err := ParseCourseWKT("LINESTRING (0 0,10 0)")
	require.NoError(t, err)
	assert.Equal(t, []core.Position3D{{}, {X: 10}}, back)
}

func TestSegmentLengths(t *testing.T) {
	assert.Equal(t, []float64{5, 12}, SegmentLengths(testCourse))
	assert.Nil(t, SegmentLengths(testCourse[:1]))
	assert.Equal(t, 17.0, CourseLength(testCourse))
	assert.Zero(t, CourseLength(nil))
}
