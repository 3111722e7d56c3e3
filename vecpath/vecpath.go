// Package vecpath flattens SVG path data into polylines.
//
// The interpreter understands the standard command set (M/L/H/V/C/S/Q/T/A/Z,
// uppercase absolute and lowercase relative, each followed by repeatable
// argument groups). Curves are sampled at a fixed number of parameter steps;
// arcs are approximated by their endpoint only.
package vecpath

import (
	"math"
	"regexp"
	"strconv"

	"github.com/layoutqa/layoutqa/lib/geo"
)

// BezierSteps is how many parameter steps each cubic or quadratic segment is
// sampled at.
const BezierSteps = 8

// dedupeEpsilon collapses consecutive points closer than this on both axes.
const dedupeEpsilon = 1e-4

var tokenRE = regexp.MustCompile(`[AaCcHhLlMmQqSsTtVvZz]|[-+]?(?:\d*\.\d+|\d+)(?:[eE][-+]?\d+)?`)

type point struct {
	x, y float64
}

func cubicAt(p0, p1, p2, p3 point, t float64) point {
	it := 1 - t
	return point{
		x: it*it*it*p0.x + 3*it*it*t*p1.x + 3*it*t*t*p2.x + t*t*t*p3.x,
		y: it*it*it*p0.y + 3*it*it*t*p1.y + 3*it*t*t*p2.y + t*t*t*p3.y,
	}
}

func quadAt(p0, p1, p2 point, t float64) point {
	it := 1 - t
	return point{
		x: it*it*p0.x + 2*it*t*p1.x + t*t*p2.x,
		y: it*it*p0.y + 2*it*t*p1.y + t*t*p2.y,
	}
}

type interp struct {
	tokens []string
	idx    int

	points []point

	cur      point
	start    point
	prevCtrl *point
	prevCmd  byte
}

func (in *interp) add(p point) {
	if len(in.points) > 0 {
		last := in.points[len(in.points)-1]
		if math.Abs(last.x-p.x) <= dedupeEpsilon && math.Abs(last.y-p.y) <= dedupeEpsilon {
			return
		}
	}
	in.points = append(in.points, p)
}

func (in *interp) hasArgs(arity int) bool {
	if in.idx+arity > len(in.tokens) {
		return false
	}
	return !isCommand(in.tokens[in.idx])
}

func (in *interp) read() float64 {
	v, _ := strconv.ParseFloat(in.tokens[in.idx], 64)
	in.idx++
	return v
}

func isCommand(tok string) bool {
	if len(tok) != 1 {
		return false
	}
	c := tok[0]
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func (in *interp) sampleCubic(p1, p2, end point) {
	p0 := in.cur
	for step := 1; step <= BezierSteps; step++ {
		t := float64(step) / BezierSteps
		in.add(cubicAt(p0, p1, p2, end, t))
	}
	in.cur = end
}

func (in *interp) sampleQuad(p1, end point) {
	p0 := in.cur
	for step := 1; step <= BezierSteps; step++ {
		t := float64(step) / BezierSteps
		in.add(quadAt(p0, p1, end, t))
	}
	in.cur = end
}

// reflectedCtrl reflects the previous control point through the current
// position when the previous command was same-family, otherwise the current
// position serves as the implied control point.
func (in *interp) reflectedCtrl(family ...byte) point {
	for _, f := range family {
		if in.prevCmd == f && in.prevCtrl != nil {
			return point{x: 2*in.cur.x - in.prevCtrl.x, y: 2*in.cur.y - in.prevCtrl.y}
		}
	}
	return in.cur
}

// Flatten parses path data and returns the sampled polyline. Malformed or
// unknown tokens are skipped; the result may be empty but is never nil-unsafe
// to range over.
func Flatten(d string) []geo.Point {
	in := &interp{tokens: tokenRE.FindAllString(d, -1)}
	var cmd byte

	for in.idx < len(in.tokens) {
		idxBefore := in.idx
		if isCommand(in.tokens[in.idx]) {
			cmd = in.tokens[in.idx][0]
			in.idx++
		}
		rel := cmd >= 'a'

		switch cmd {
		case 'M', 'm':
			first := true
			for in.hasArgs(2) {
				x, y := in.read(), in.read()
				if rel {
					x += in.cur.x
					y += in.cur.y
				}
				in.cur = point{x, y}
				if first {
					in.start = in.cur
					first = false
				}
				in.add(in.cur)
			}
			in.prevCtrl = nil
			in.prevCmd = 'M'
		case 'L', 'l':
			for in.hasArgs(2) {
				x, y := in.read(), in.read()
				if rel {
					x += in.cur.x
					y += in.cur.y
				}
				in.cur = point{x, y}
				in.add(in.cur)
			}
			in.prevCtrl = nil
			in.prevCmd = 'L'
		case 'H', 'h':
			for in.hasArgs(1) {
				x := in.read()
				if rel {
					x += in.cur.x
				}
				in.cur.x = x
				in.add(in.cur)
			}
			in.prevCtrl = nil
			in.prevCmd = 'H'
		case 'V', 'v':
			for in.hasArgs(1) {
				y := in.read()
				if rel {
					y += in.cur.y
				}
				in.cur.y = y
				in.add(in.cur)
			}
			in.prevCtrl = nil
			in.prevCmd = 'V'
		case 'C', 'c':
			for in.hasArgs(6) {
				x1, y1 := in.read(), in.read()
				x2, y2 := in.read(), in.read()
				x, y := in.read(), in.read()
				if rel {
					x1 += in.cur.x
					y1 += in.cur.y
					x2 += in.cur.x
					y2 += in.cur.y
					x += in.cur.x
					y += in.cur.y
				}
				in.sampleCubic(point{x1, y1}, point{x2, y2}, point{x, y})
				in.prevCtrl = &point{x2, y2}
			}
			in.prevCmd = 'C'
		case 'S', 's':
			for in.hasArgs(4) {
				x2, y2 := in.read(), in.read()
				x, y := in.read(), in.read()
				if rel {
					x2 += in.cur.x
					y2 += in.cur.y
					x += in.cur.x
					y += in.cur.y
				}
				p1 := in.reflectedCtrl('C', 'S')
				in.sampleCubic(p1, point{x2, y2}, point{x, y})
				in.prevCtrl = &point{x2, y2}
				in.prevCmd = 'S'
			}
			in.prevCmd = 'S'
		case 'Q', 'q':
			for in.hasArgs(4) {
				x1, y1 := in.read(), in.read()
				x, y := in.read(), in.read()
				if rel {
					x1 += in.cur.x
					y1 += in.cur.y
					x += in.cur.x
					y += in.cur.y
				}
				in.sampleQuad(point{x1, y1}, point{x, y})
				in.prevCtrl = &point{x1, y1}
			}
			in.prevCmd = 'Q'
		case 'T', 't':
			for in.hasArgs(2) {
				x, y := in.read(), in.read()
				if rel {
					x += in.cur.x
					y += in.cur.y
				}
				p1 := in.reflectedCtrl('Q', 'T')
				in.sampleQuad(p1, point{x, y})
				in.prevCtrl = &point{p1.x, p1.y}
				in.prevCmd = 'T'
			}
			in.prevCmd = 'T'
		case 'A', 'a':
			for in.hasArgs(7) {
				in.read() // rx
				in.read() // ry
				in.read() // x-axis rotation
				in.read() // large-arc flag
				in.read() // sweep flag
				x, y := in.read(), in.read()
				if rel {
					x += in.cur.x
					y += in.cur.y
				}
				// Endpoint-only approximation; the arc's curvature is not
				// sampled.
				in.cur = point{x, y}
				in.add(in.cur)
			}
			in.prevCtrl = nil
			in.prevCmd = 'A'
		case 'Z', 'z':
			in.cur = in.start
			in.add(in.cur)
			in.prevCtrl = nil
			in.prevCmd = 'Z'
		default:
			in.idx++
		}
		// Dangling arguments that no command can consume are skipped so the
		// interpreter always makes progress.
		if in.idx == idxBefore {
			in.idx++
		}
	}

	out := make([]geo.Point, len(in.points))
	for i, p := range in.points {
		out[i] = geo.Point{X: p.x, Y: p.y}
	}
	return out
}
