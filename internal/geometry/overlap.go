package geometry

// InteriorsOverlap reports whether the interiors of a and b share area.
// Boundaries that touch or coincide with opposite orientation do not count.
// Any non-finite coordinate counts as an overlap.
func InteriorsOverlap(a, b *SimplePolygon) bool {
	return overlaps(a, b, false)
}

// EscapesFrom reports whether part of shape's interior lies outside
// container. A shape touching the container boundary from inside does not
// escape. Any non-finite coordinate counts as an escape.
func EscapesFrom(shape, container *SimplePolygon) bool {
	return overlaps(shape, container, true)
}

// overlaps tests a against b, or against the complement of b when
// complement is set.
//
// Every edge of a is split wherever b's boundary crosses or touches it, so
// each piece lies entirely inside b, entirely outside b or along b's boundary,
// and its midpoint decides which. The same is done for b's edges against a.
func overlaps(a, b *SimplePolygon, complement bool) bool {
	if !a.IsFinite() || !b.IsFinite() {
		return true
	}
	if !a.bbox.Overlaps(b.bbox) {
		return complement
	}
	if complement && !b.bbox.ContainsRect(a.bbox) {
		return true
	}

	bEdges := b.Edges()
	aEdges := a.Edges()

	for _, ea := range aEdges {
		near := edgesNear(ea, bEdges)
		params := ea.splitParams(near)
		for k := 1; k < len(params); k++ {
			m := ea.At((params[k-1] + params[k]) / 2)
			switch b.Classify(m) {
			case Inside:
				if !complement {
					return true
				}
			case Outside:
				if complement {
					return true
				}
			case Boundary:
				sameDir := alongBoundary(ea, m, near)
				if sameDir != complement {
					return true
				}
			}
		}
	}

	for _, eb := range bEdges {
		near := edgesNear(eb, aEdges)
		if len(near) == 0 {
			if a.Classify(eb.Midpoint()) == Inside {
				return true
			}
			continue
		}
		params := eb.splitParams(near)
		for k := 1; k < len(params); k++ {
			m := eb.At((params[k-1] + params[k]) / 2)
			if a.Classify(m) == Inside {
				return true
			}
		}
	}
	return false
}

// edgesNear returns the edges of others whose bounding box comes within
// Tolerance of e's bounding box.
func edgesNear(e Edge, others []Edge) []Edge {
	box := e.BBox().Inflate(Tolerance)
	var out []Edge
	for _, o := range others {
		if box.Intersects(o.BBox()) {
			out = append(out, o)
		}
	}
	return out
}

// alongBoundary reports whether the edge e, at its point m lying on the
// boundary formed by others, runs in the same direction as that boundary.
func alongBoundary(e Edge, m Point, others []Edge) bool {
	var nearest Edge
	best := -1.0
	for _, o := range others {
		d := o.DistanceTo(m)
		if best < 0 || d < best {
			best = d
			nearest = o
		}
	}
	if best < 0 {
		return false
	}
	de := e.End.Sub(e.Start)
	do := nearest.End.Sub(nearest.Start)
	return de.Dot(do) > 0
}

// CircleOverlapsInterior reports whether the disk c shares area with the
// interior of poly by more than Tolerance.
func CircleOverlapsInterior(c Circle, poly *SimplePolygon) bool {
	if !c.IsFinite() || !poly.IsFinite() {
		return true
	}
	if !c.BBox().Overlaps(poly.bbox) {
		return false
	}
	if poly.DistanceToBoundary(c.Center) < c.Radius-Tolerance {
		return true
	}
	return poly.Classify(c.Center) == Inside
}

// CircleEscapes reports whether part of the disk c lies outside container by
// more than Tolerance.
func CircleEscapes(c Circle, container *SimplePolygon) bool {
	if !c.IsFinite() || !container.IsFinite() {
		return true
	}
	if !container.bbox.ContainsRect(c.BBox()) {
		return true
	}
	if container.DistanceToBoundary(c.Center) < c.Radius-Tolerance {
		return true
	}
	return container.Classify(c.Center) == Outside
}

// SegmentOverlapsInterior reports whether part of e lies strictly inside poly.
func SegmentOverlapsInterior(e Edge, poly *SimplePolygon) bool {
	return segmentTest(e, poly, Inside)
}

// SegmentEscapes reports whether part of e lies strictly outside container.
func SegmentEscapes(e Edge, container *SimplePolygon) bool {
	return segmentTest(e, container, Outside)
}

func segmentTest(e Edge, poly *SimplePolygon, want PointPosition) bool {
	if !e.Start.IsFinite() || !e.End.IsFinite() || !poly.IsFinite() {
		return true
	}
	if !e.BBox().Inflate(Tolerance).Intersects(poly.bbox) {
		return want == Outside
	}
	params := e.splitParams(edgesNear(e, poly.Edges()))
	for k := 1; k < len(params); k++ {
		m := e.At((params[k-1] + params[k]) / 2)
		if poly.Classify(m) == want {
			return true
		}
	}
	return false
}

// RectOverlapsInterior reports whether the open rectangle r shares area with
// the interior of poly.
func RectOverlapsInterior(r AARectangle, poly *SimplePolygon) bool {
	if !r.IsFinite() || !poly.IsFinite() {
		return true
	}
	if !r.Overlaps(poly.bbox) {
		return false
	}
	inner := r.Inflate(-Tolerance)
	for _, p := range poly.points {
		if p.X > inner.XMin && p.X < inner.XMax && p.Y > inner.YMin && p.Y < inner.YMax {
			return true
		}
	}
	for i := range poly.points {
		e := poly.Edge(i)
		if t0, t1, ok := inner.clipSegment(e.Start, e.End); ok && (t1-t0)*e.Length() > Tolerance {
			m := e.At((t0 + t1) / 2)
			// an edge running along the inner box border does not enter it
			if m.X > inner.XMin && m.X < inner.XMax && m.Y > inner.YMin && m.Y < inner.YMax {
				return true
			}
		}
	}
	return poly.Classify(inner.Center()) == Inside
}

// RectEscapes reports whether part of the open rectangle r lies outside
// container.
func RectEscapes(r AARectangle, container *SimplePolygon) bool {
	if !r.IsFinite() || !container.IsFinite() {
		return true
	}
	if !container.bbox.ContainsRect(r) {
		return true
	}
	inner := r.Inflate(-Tolerance)
	for i := range container.points {
		e := container.Edge(i)
		if t0, t1, ok := inner.clipSegment(e.Start, e.End); ok && (t1-t0)*e.Length() > Tolerance {
			m := e.At((t0 + t1) / 2)
			if m.X > inner.XMin && m.X < inner.XMax && m.Y > inner.YMin && m.Y < inner.YMax {
				return true
			}
		}
	}
	return container.Classify(inner.Center()) == Outside
}
