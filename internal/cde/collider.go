package cde

import "github.com/piwi3910/SlabNest/internal/geometry"

// collider is a query shape the quadtree can test against its nodes and
// hazards.
type collider interface {
	bbox() geometry.AARectangle
	// overlapsBox reports whether the query's interior enters the open box.
	overlapsBox(box geometry.AARectangle) bool
	// hits is the exact test against the forbidden side of h.
	hits(h *Hazard) bool
	finite() bool
}

type polygonCollider struct{ shape *geometry.SimplePolygon }

func (c polygonCollider) bbox() geometry.AARectangle { return c.shape.BBox() }
func (c polygonCollider) finite() bool               { return c.shape.IsFinite() }

func (c polygonCollider) overlapsBox(box geometry.AARectangle) bool {
	return geometry.RectOverlapsInterior(box, c.shape)
}

func (c polygonCollider) hits(h *Hazard) bool {
	if h.Position() == Exterior {
		return geometry.EscapesFrom(c.shape, h.Shape)
	}
	return geometry.InteriorsOverlap(c.shape, h.Shape)
}

type circleCollider struct{ circle geometry.Circle }

func (c circleCollider) bbox() geometry.AARectangle { return c.circle.BBox() }
func (c circleCollider) finite() bool               { return c.circle.IsFinite() }

func (c circleCollider) overlapsBox(box geometry.AARectangle) bool {
	return c.circle.OverlapsRect(box)
}

func (c circleCollider) hits(h *Hazard) bool {
	if h.Position() == Exterior {
		return geometry.CircleEscapes(c.circle, h.Shape)
	}
	return geometry.CircleOverlapsInterior(c.circle, h.Shape)
}

type edgeCollider struct{ edge geometry.Edge }

func (c edgeCollider) bbox() geometry.AARectangle { return c.edge.BBox() }

func (c edgeCollider) finite() bool {
	return c.edge.Start.IsFinite() && c.edge.End.IsFinite()
}

// overlapsBox reports whether a piece of the segment longer than the
// tolerance runs through the open box.
func (c edgeCollider) overlapsBox(box geometry.AARectangle) bool {
	inner := box.Inflate(-geometry.Tolerance)
	clipped, ok := c.edge.ClipTo(inner)
	if !ok || clipped.Length() <= geometry.Tolerance {
		return false
	}
	m := clipped.Midpoint()
	return m.X > inner.XMin && m.X < inner.XMax && m.Y > inner.YMin && m.Y < inner.YMax
}

func (c edgeCollider) hits(h *Hazard) bool {
	if h.Position() == Exterior {
		return geometry.SegmentEscapes(c.edge, h.Shape)
	}
	return geometry.SegmentOverlapsInterior(c.edge, h.Shape)
}
