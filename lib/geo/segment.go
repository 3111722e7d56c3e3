package geo

import "math"

// Orientation returns the signed area of the triangle abc: positive when c is
// left of ab, negative when right, near zero when collinear.
func Orientation(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func onSegment(a, b, c Point, eps float64) bool {
	return math.Min(a.X, b.X)-eps <= c.X && c.X <= math.Max(a.X, b.X)+eps &&
		math.Min(a.Y, b.Y)-eps <= c.Y && c.Y <= math.Max(a.Y, b.Y)+eps
}

// SegmentsIntersect reports whether segments ab and cd intersect, including
// touching and endpoint contact. Fully collinear segments are not counted as
// intersecting; CollinearOverlapLength measures those.
func SegmentsIntersect(a, b, c, d Point) bool {
	o1 := Orientation(a, b, c)
	o2 := Orientation(a, b, d)
	o3 := Orientation(c, d, a)
	o4 := Orientation(c, d, b)

	if math.Abs(o1) < Epsilon && math.Abs(o2) < Epsilon && math.Abs(o3) < Epsilon && math.Abs(o4) < Epsilon {
		return false
	}
	if o1*o2 < 0 && o3*o4 < 0 {
		return true
	}
	if math.Abs(o1) < Epsilon && onSegment(a, b, c, Epsilon) {
		return true
	}
	if math.Abs(o2) < Epsilon && onSegment(a, b, d, Epsilon) {
		return true
	}
	if math.Abs(o3) < Epsilon && onSegment(c, d, a, Epsilon) {
		return true
	}
	if math.Abs(o4) < Epsilon && onSegment(c, d, b, Epsilon) {
		return true
	}
	return false
}

// CollinearOverlapLength returns the length of the projection of cd onto ab
// where the two segments lie on the same line, 0 otherwise.
func CollinearOverlapLength(a, b, c, d Point) float64 {
	if math.Abs(Orientation(a, b, c)) > Epsilon || math.Abs(Orientation(a, b, d)) > Epsilon {
		return 0
	}
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy
	if lenSq < Epsilon {
		return 0
	}
	proj := func(p Point) float64 {
		return ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	}
	t1 := proj(c)
	t2 := proj(d)
	tmin := math.Min(t1, t2)
	tmax := math.Max(t1, t2)
	overlap := math.Max(0, math.Min(1, tmax)-math.Max(0, tmin))
	return overlap * math.Sqrt(lenSq)
}

// SegmentIntersectsBox tests the segment against all four box edges and both
// endpoint containments.
func SegmentIntersectsBox(a, b Point, box Box) bool {
	br := box.BottomRight()
	minX := math.Min(a.X, b.X)
	maxX := math.Max(a.X, b.X)
	minY := math.Min(a.Y, b.Y)
	maxY := math.Max(a.Y, b.Y)
	if maxX < box.TopLeft.X-Epsilon || minX > br.X+Epsilon ||
		maxY < box.TopLeft.Y-Epsilon || minY > br.Y+Epsilon {
		return false
	}
	inside := func(p Point) bool {
		return box.TopLeft.X-Epsilon <= p.X && p.X <= br.X+Epsilon &&
			box.TopLeft.Y-Epsilon <= p.Y && p.Y <= br.Y+Epsilon
	}
	if inside(a) || inside(b) {
		return true
	}
	corners := box.Corners()
	for i := range corners {
		c := corners[i]
		d := corners[(i+1)%4]
		if SegmentsIntersect(a, b, c, d) {
			return true
		}
	}
	return false
}

// PointSegmentDistance returns the distance from p to the closest point of
// segment ab.
func PointSegmentDistance(p, a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy
	if lenSq <= 1e-9 {
		return p.DistanceTo(a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = Clamp(t, 0, 1)
	return math.Hypot(p.X-(a.X+dx*t), p.Y-(a.Y+dy*t))
}

// PointPolylineDistance returns +Inf for an empty polyline.
func PointPolylineDistance(p Point, poly []Point) float64 {
	if len(poly) == 0 {
		return math.Inf(1)
	}
	if len(poly) == 1 {
		return p.DistanceTo(poly[0])
	}
	best := math.Inf(1)
	for i := 0; i < len(poly)-1; i++ {
		best = math.Min(best, PointSegmentDistance(p, poly[i], poly[i+1]))
	}
	return best
}

func PointBoxDistance(p Point, box Box) float64 {
	br := box.BottomRight()
	dx := math.Max(math.Max(box.TopLeft.X-p.X, 0), p.X-br.X)
	dy := math.Max(math.Max(box.TopLeft.Y-p.Y, 0), p.Y-br.Y)
	return math.Hypot(dx, dy)
}

// SegmentBoxGap returns the distance between segment ab and the box, exactly
// 0 when they intersect.
func SegmentBoxGap(a, b Point, box Box) float64 {
	if SegmentIntersectsBox(a, b, box) {
		return 0
	}
	best := math.Inf(1)
	for _, corner := range box.Corners() {
		best = math.Min(best, PointSegmentDistance(corner, a, b))
	}
	best = math.Min(best, PointBoxDistance(a, box))
	best = math.Min(best, PointBoxDistance(b, box))
	return best
}

// PolylineBoxGap returns +Inf for a degenerate polyline.
func PolylineBoxGap(poly []Point, box Box) float64 {
	if len(poly) < 2 {
		return math.Inf(1)
	}
	best := math.Inf(1)
	for i := 0; i < len(poly)-1; i++ {
		best = math.Min(best, SegmentBoxGap(poly[i], poly[i+1], box))
		if best <= 1e-9 {
			return 0
		}
	}
	return best
}
