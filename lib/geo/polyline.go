package geo

import "math"

func PolylineLength(poly []Point) float64 {
	total := 0.0
	for i := 0; i < len(poly)-1; i++ {
		total += poly[i].DistanceTo(poly[i+1])
	}
	return total
}

// BendCount counts interior vertices where the polyline changes direction.
// Zero-length segments on either side of a vertex are skipped.
func BendCount(poly []Point) int {
	if len(poly) < 3 {
		return 0
	}
	bends := 0
	for i := 1; i < len(poly)-1; i++ {
		a, b, c := poly[i-1], poly[i], poly[i+1]
		v1x, v1y := b.X-a.X, b.Y-a.Y
		v2x, v2y := c.X-b.X, c.Y-b.Y
		if math.Abs(v1x) < Epsilon && math.Abs(v1y) < Epsilon {
			continue
		}
		if math.Abs(v2x) < Epsilon && math.Abs(v2y) < Epsilon {
			continue
		}
		if math.Abs(v1x*v2y-v1y*v2x) > Epsilon {
			bends++
		}
	}
	return bends
}

// SegmentAngle returns the acute angle in degrees between the directions of
// segments ab and cd, in [0, 90]. Degenerate segments yield 90 so they never
// look like shallow crossings.
func SegmentAngle(a, b, c, d Point) float64 {
	v1x, v1y := b.X-a.X, b.Y-a.Y
	v2x, v2y := d.X-c.X, d.Y-c.Y
	l1 := math.Hypot(v1x, v1y)
	l2 := math.Hypot(v2x, v2y)
	if l1 < Epsilon || l2 < Epsilon {
		return 90
	}
	cos := math.Abs(v1x*v2x+v1y*v2y) / (l1 * l2)
	cos = Clamp(cos, 0, 1)
	return math.Acos(cos) * 180 / math.Pi
}
