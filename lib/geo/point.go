package geo

import (
	"fmt"
	"math"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func NewPoint(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) DistanceTo(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

func (p Point) Equals(q Point) bool {
	return p.X == q.X && p.Y == q.Y
}

// NearlyEquals reports whether both coordinates are within e.
func (p Point) NearlyEquals(q Point, e float64) bool {
	return math.Abs(p.X-q.X) <= e && math.Abs(p.Y-q.Y) <= e
}

func (p Point) ToString() string {
	return fmt.Sprintf("(%v, %v)", p.X, p.Y)
}
