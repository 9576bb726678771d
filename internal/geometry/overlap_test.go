package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInteriorsOverlap_SharedEdgeDoesNotCollide(t *testing.T) {
	a := square(0, 0, 2)
	b := square(2, 0, 2)
	assert.False(t, InteriorsOverlap(a, b))
	assert.False(t, InteriorsOverlap(b, a))
}

func TestInteriorsOverlap_PartialOverlapCollides(t *testing.T) {
	a := square(0, 0, 2)
	b := square(1, 0, 2)
	assert.True(t, InteriorsOverlap(a, b))
	assert.True(t, InteriorsOverlap(b, a))
}

func TestInteriorsOverlap_Cases(t *testing.T) {
	tests := []struct {
		name string
		a, b *SimplePolygon
		want bool
	}{
		{"corner touch", square(0, 0, 2), square(2, 2, 2), false},
		{"disjoint", square(0, 0, 2), square(5, 5, 2), false},
		{"identical", square(0, 0, 2), square(0, 0, 2), true},
		{"contained", square(0, 0, 10), square(3, 3, 2), true},
		{"container", square(3, 3, 2), square(0, 0, 10), true},
		{"in the notch of an L", lShape(), square(4, 4, 6), false},
		{"reaching into the L", lShape(), square(3, 3, 6), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InteriorsOverlap(tt.a, tt.b))
			assert.Equal(t, tt.want, InteriorsOverlap(tt.b, tt.a))
		})
	}
}

func TestInteriorsOverlap_NaNFailsSafe(t *testing.T) {
	a := square(0, 0, 2)
	broken := a.Transform(Transformation{}.Inverse())
	assert.True(t, InteriorsOverlap(broken, square(50, 50, 1)))
	assert.True(t, EscapesFrom(broken, square(-100, -100, 200)))
}

func TestEscapesFrom(t *testing.T) {
	container := square(0, 0, 10)
	assert.False(t, EscapesFrom(square(0, 0, 2), container), "touching from inside")
	assert.False(t, EscapesFrom(square(4, 4, 2), container))
	assert.False(t, EscapesFrom(square(0, 0, 10), container), "identical")
	assert.True(t, EscapesFrom(square(9, 4, 2), container))
	assert.True(t, EscapesFrom(square(20, 20, 2), container))
	assert.True(t, EscapesFrom(square(5, 5, 2), lShape()))
}

func TestCircleOverlapsInterior(t *testing.T) {
	sq := square(0, 0, 10)
	assert.True(t, CircleOverlapsInterior(Circle{Center: Point{X: 5, Y: 5}, Radius: 1}, sq))
	assert.True(t, CircleOverlapsInterior(Circle{Center: Point{X: 11, Y: 5}, Radius: 2}, sq))
	assert.False(t, CircleOverlapsInterior(Circle{Center: Point{X: 12, Y: 5}, Radius: 2}, sq), "tangent")
	assert.False(t, CircleOverlapsInterior(Circle{Center: Point{X: 20, Y: 20}, Radius: 2}, sq))
}

func TestCircleEscapes(t *testing.T) {
	sq := square(0, 0, 10)
	assert.False(t, CircleEscapes(Circle{Center: Point{X: 5, Y: 5}, Radius: 1}, sq))
	assert.False(t, CircleEscapes(Circle{Center: Point{X: 9, Y: 5}, Radius: 1}, sq), "tangent inside")
	assert.True(t, CircleEscapes(Circle{Center: Point{X: 9.5, Y: 5}, Radius: 1}, sq))
	assert.True(t, CircleEscapes(Circle{Center: Point{X: 7, Y: 7}, Radius: 1}, lShape()))
}

func TestSegmentTests(t *testing.T) {
	sq := square(0, 0, 10)
	assert.True(t, SegmentOverlapsInterior(Edge{Start: Point{X: -1, Y: 5}, End: Point{X: 11, Y: 5}}, sq))
	assert.False(t, SegmentOverlapsInterior(Edge{Start: Point{X: 0, Y: 0}, End: Point{X: 10, Y: 0}}, sq), "along the boundary")
	assert.False(t, SegmentOverlapsInterior(Edge{Start: Point{X: 11, Y: 0}, End: Point{X: 11, Y: 10}}, sq))

	assert.False(t, SegmentEscapes(Edge{Start: Point{X: 1, Y: 1}, End: Point{X: 9, Y: 9}}, sq))
	assert.True(t, SegmentEscapes(Edge{Start: Point{X: 5, Y: 5}, End: Point{X: 15, Y: 5}}, sq))
	assert.True(t, SegmentEscapes(Edge{Start: Point{X: 2, Y: 7}, End: Point{X: 8, Y: 7}}, lShape()))
}

func TestRectOverlapsInterior(t *testing.T) {
	sq := square(0, 0, 10)
	assert.True(t, RectOverlapsInterior(AARectangle{XMin: 5, YMin: 5, XMax: 15, YMax: 15}, sq))
	assert.True(t, RectOverlapsInterior(AARectangle{XMin: 2, YMin: 2, XMax: 3, YMax: 3}, sq))
	assert.True(t, RectOverlapsInterior(AARectangle{XMin: -5, YMin: 4, XMax: 15, YMax: 6}, sq))
	assert.False(t, RectOverlapsInterior(AARectangle{XMin: 10, YMin: 0, XMax: 20, YMax: 10}, sq))
	assert.False(t, RectOverlapsInterior(AARectangle{XMin: 6, YMin: 6, XMax: 9, YMax: 9}, lShape()))
}

func TestRectEscapes(t *testing.T) {
	sq := square(0, 0, 10)
	assert.False(t, RectEscapes(AARectangle{XMin: 0, YMin: 0, XMax: 5, YMax: 5}, sq))
	assert.True(t, RectEscapes(AARectangle{XMin: 5, YMin: 5, XMax: 15, YMax: 15}, sq))
	assert.True(t, RectEscapes(AARectangle{XMin: 2, YMin: 2, XMax: 6, YMax: 6}, lShape()))
	assert.False(t, RectEscapes(AARectangle{XMin: 0, YMin: 0, XMax: 4, YMax: 10}, lShape()))
}
