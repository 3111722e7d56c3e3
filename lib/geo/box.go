package geo

import (
	"fmt"
	"math"
)

// Box is an axis-aligned rectangle anchored at its top-left corner.
type Box struct {
	TopLeft Point   `json:"topLeft"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

func NewBox(tl Point, width, height float64) Box {
	return Box{TopLeft: tl, Width: width, Height: height}
}

func (b Box) BottomRight() Point {
	return Point{X: b.TopLeft.X + b.Width, Y: b.TopLeft.Y + b.Height}
}

func (b Box) Center() Point {
	return Point{X: b.TopLeft.X + b.Width/2, Y: b.TopLeft.Y + b.Height/2}
}

func (b Box) Area() float64 {
	return b.Width * b.Height
}

func (b Box) Corners() [4]Point {
	tl := b.TopLeft
	return [4]Point{
		tl,
		{X: tl.X + b.Width, Y: tl.Y},
		{X: tl.X + b.Width, Y: tl.Y + b.Height},
		{X: tl.X, Y: tl.Y + b.Height},
	}
}

// Expanded pads the box outward on all four sides.
func (b Box) Expanded(pad float64) Box {
	return Box{
		TopLeft: Point{X: b.TopLeft.X - pad, Y: b.TopLeft.Y - pad},
		Width:   b.Width + pad*2,
		Height:  b.Height + pad*2,
	}
}

func (b Box) Contains(p Point) bool {
	br := b.BottomRight()
	return p.X >= b.TopLeft.X && p.X <= br.X && p.Y >= b.TopLeft.Y && p.Y <= br.Y
}

// ContainsBox reports whether inner sits inside b with at least margin of
// clearance on every side. Identical boxes are not contained, so exact
// duplicates still register as overlap.
func (b Box) ContainsBox(inner Box, margin float64) bool {
	obr := b.BottomRight()
	ibr := inner.BottomRight()
	return inner.TopLeft.X-b.TopLeft.X >= margin &&
		inner.TopLeft.Y-b.TopLeft.Y >= margin &&
		obr.X-ibr.X >= margin &&
		obr.Y-ibr.Y >= margin
}

// OverlapArea returns the area of the intersection of two boxes, 0 when they
// are disjoint or touch only along an edge.
func (b Box) OverlapArea(o Box) float64 {
	bbr := b.BottomRight()
	obr := o.BottomRight()
	ix1 := math.Max(b.TopLeft.X, o.TopLeft.X)
	iy1 := math.Max(b.TopLeft.Y, o.TopLeft.Y)
	ix2 := math.Min(bbr.X, obr.X)
	iy2 := math.Min(bbr.Y, obr.Y)
	if ix2 <= ix1 || iy2 <= iy1 {
		return 0
	}
	return (ix2 - ix1) * (iy2 - iy1)
}

func (b Box) Union(o Box) Box {
	bbr := b.BottomRight()
	obr := o.BottomRight()
	x1 := math.Min(b.TopLeft.X, o.TopLeft.X)
	y1 := math.Min(b.TopLeft.Y, o.TopLeft.Y)
	x2 := math.Max(bbr.X, obr.X)
	y2 := math.Max(bbr.Y, obr.Y)
	return Box{TopLeft: Point{X: x1, Y: y1}, Width: x2 - x1, Height: y2 - y1}
}

// UnionPoint grows the box just enough to cover p.
func (b Box) UnionPoint(p Point) Box {
	return b.Union(Box{TopLeft: p})
}

// Gap returns the distance between the closest points of two boxes, 0 when
// they overlap or touch.
func (b Box) Gap(o Box) float64 {
	bbr := b.BottomRight()
	obr := o.BottomRight()
	dx := math.Max(0, math.Max(b.TopLeft.X-obr.X, o.TopLeft.X-bbr.X))
	dy := math.Max(0, math.Max(b.TopLeft.Y-obr.Y, o.TopLeft.Y-bbr.Y))
	return math.Hypot(dx, dy)
}

func (b Box) ToString() string {
	return fmt.Sprintf("{TopLeft: %s, Width: %.0f, Height: %.0f}", b.TopLeft.ToString(), b.Width, b.Height)
}

// BoundingBox returns the tightest box covering all points. ok is false when
// points is empty.
func BoundingBox(points []Point) (box Box, ok bool) {
	if len(points) == 0 {
		return Box{}, false
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Box{TopLeft: Point{X: minX, Y: minY}, Width: maxX - minX, Height: maxY - minY}, true
}
