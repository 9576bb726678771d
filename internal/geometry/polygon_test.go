package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(x, y, size float64) *SimplePolygon {
	return MustSimplePolygon([]Point{
		{X: x, Y: y}, {X: x + size, Y: y}, {X: x + size, Y: y + size}, {X: x, Y: y + size},
	})
}

func lShape() *SimplePolygon {
	return MustSimplePolygon([]Point{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 4}, {X: 4, Y: 4}, {X: 4, Y: 10}, {X: 0, Y: 10},
	})
}

func TestNewSimplePolygon_ClockwiseIsReversed(t *testing.T) {
	sp, err := NewSimplePolygon([]Point{{X: 0, Y: 0}, {X: 0, Y: 2}, {X: 2, Y: 2}, {X: 2, Y: 0}})
	require.NoError(t, err)
	assert.InDelta(t, 4.0, sp.Area(), 1e-12)
	assert.Greater(t, signedArea(sp.Points()), 0.0)
}

func TestNewSimplePolygon_DropsClosingAndRepeatedPoints(t *testing.T) {
	sp, err := NewSimplePolygon([]Point{
		{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2}, {X: 0, Y: 0},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, sp.NumPoints())
}

func TestNewSimplePolygon_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		points []Point
		err    error
	}{
		{"too few points", []Point{{X: 0, Y: 0}, {X: 1, Y: 1}}, ErrDegeneratePolygon},
		{"collinear", []Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}}, ErrDegeneratePolygon},
		{"nan", []Point{{X: 0, Y: 0}, {X: math.NaN(), Y: 0}, {X: 1, Y: 1}}, ErrDegeneratePolygon},
		{"bowtie", []Point{{X: 0, Y: 0}, {X: 4, Y: 4}, {X: 4, Y: 0}, {X: 0, Y: 2}}, ErrSelfIntersecting},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSimplePolygon(tt.points)
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestSimplePolygon_DerivedProperties(t *testing.T) {
	sp := lShape()
	assert.InDelta(t, 64.0, sp.Area(), 1e-9)
	assert.Equal(t, AARectangle{XMin: 0, YMin: 0, XMax: 10, YMax: 10}, sp.BBox())
	assert.InDelta(t, math.Hypot(10, 10), sp.Diameter(), 1e-9)
}

func TestSimplePolygon_Classify(t *testing.T) {
	sp := square(0, 0, 10)
	assert.Equal(t, Inside, sp.Classify(Point{X: 5, Y: 5}))
	assert.Equal(t, Boundary, sp.Classify(Point{X: 10, Y: 3}))
	assert.Equal(t, Boundary, sp.Classify(Point{X: 0, Y: 0}))
	assert.Equal(t, Outside, sp.Classify(Point{X: 10.5, Y: 3}))
	assert.Equal(t, Outside, lShape().Classify(Point{X: 7, Y: 7}))
}

func TestSimplePolygon_POI(t *testing.T) {
	poi := square(0, 0, 10).POI()
	assert.InDelta(t, 5.0, poi.Center.X, 0.01)
	assert.InDelta(t, 5.0, poi.Center.Y, 0.01)
	assert.InDelta(t, 5.0, poi.Radius, 0.01)
}

func TestSimplePolygon_Transform(t *testing.T) {
	sp := square(0, 0, 2)
	moved := sp.Transform(NewTransformation(math.Pi/2, 5, 0))

	assert.InDelta(t, sp.Area(), moved.Area(), 1e-12)
	bb := moved.BBox()
	assert.InDelta(t, 3.0, bb.XMin, 1e-9)
	assert.InDelta(t, 5.0, bb.XMax, 1e-9)
	assert.InDelta(t, 0.0, bb.YMin, 1e-9)
	assert.InDelta(t, 2.0, bb.YMax, 1e-9)
	// original untouched
	assert.Equal(t, Point{X: 0, Y: 0}, sp.Points()[0])
}

func TestSimplePolygon_TransformIntoReusesBuffer(t *testing.T) {
	sp := square(0, 0, 2)
	buf := sp.Transform(Identity())
	first := &buf.Points()[0]

	sp.TransformInto(buf, Translation(1, 1))

	assert.Same(t, first, &buf.Points()[0])
	assert.Equal(t, AARectangle{XMin: 1, YMin: 1, XMax: 3, YMax: 3}, buf.BBox())
}

func TestSimplePolygon_JSONRoundTrip(t *testing.T) {
	sp := lShape()
	data, err := sp.MarshalJSON()
	require.NoError(t, err)

	var back SimplePolygon
	require.NoError(t, back.UnmarshalJSON(data))
	assert.Equal(t, sp.Points(), back.Points())
	assert.InDelta(t, sp.Area(), back.Area(), 1e-12)
}
