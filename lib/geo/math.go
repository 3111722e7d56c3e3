package geo

import "math"

// Epsilon below which orientation tests treat points as collinear.
const Epsilon = 1e-6

func Sign(v float64) int {
	if v < 0 {
		return -1
	}
	if v > 0 {
		return 1
	}
	return 0
}

// PrecisionCompare compares a and b and considers them equal if the
// difference is less than e.
func PrecisionCompare(a, b, e float64) int {
	if math.Abs(a-b) < e {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
