package vecpath

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/layoutqa/layoutqa/lib/geo"
)

func TestFlattenLines(t *testing.T) {
	assert.Equal(t, []geo.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}, Flatten("M0,0 L10,0"))

	// repeated argument groups without a repeated command letter
	assert.Equal(t,
		[]geo.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}},
		Flatten("M0 0 L10 0 10 10"),
	)

	// relative moves
	assert.Equal(t,
		[]geo.Point{{X: 5, Y: 5}, {X: 15, Y: 5}, {X: 15, Y: 15}},
		Flatten("m5,5 l10,0 v10"),
	)

	// H and V
	assert.Equal(t,
		[]geo.Point{{X: 0, Y: 0}, {X: 20, Y: 0}, {X: 20, Y: 7}},
		Flatten("M0,0 H20 V7"),
	)
}

func TestFlattenDedupes(t *testing.T) {
	// consecutive coincident points collapse
	assert.Equal(t, []geo.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}, Flatten("M0,0 L0,0 L10,0 L10,0"))
}

func TestFlattenClose(t *testing.T) {
	got := Flatten("M0,0 L10,0 L10,10 Z")
	assert.Equal(t, geo.Point{X: 0, Y: 0}, got[len(got)-1])
}

func TestFlattenCubic(t *testing.T) {
	got := Flatten("M0,0 C0,10 10,10 10,0")
	// start plus one point per sample step
	assert.Len(t, got, 1+BezierSteps)
	assert.Equal(t, geo.Point{X: 0, Y: 0}, got[0])
	assert.Equal(t, geo.Point{X: 10, Y: 0}, got[len(got)-1])
	// midpoint of this symmetric curve sits at (5, 7.5)
	mid := got[BezierSteps/2]
	assert.InDelta(t, 5.0, mid.X, 1e-9)
	assert.InDelta(t, 7.5, mid.Y, 1e-9)
}

func TestFlattenQuad(t *testing.T) {
	got := Flatten("M0,0 Q5,10 10,0")
	assert.Len(t, got, 1+BezierSteps)
	mid := got[BezierSteps/2]
	assert.InDelta(t, 5.0, mid.X, 1e-9)
	assert.InDelta(t, 5.0, mid.Y, 1e-9)
}

func TestFlattenSmoothReflection(t *testing.T) {
	// S after C reflects the previous control point, so the join is smooth:
	// the sample right after the join continues in the same direction.
	got := Flatten("M0,0 C0,10 10,10 10,0 S20,-10 20,0")
	assert.Equal(t, geo.Point{X: 20, Y: 0}, got[len(got)-1])
	assert.Len(t, got, 1+2*BezierSteps)

	// S without a prior curve uses the current point as control, which for a
	// straightish configuration keeps the polyline near the chord.
	got = Flatten("M0,0 S10,0 10,0")
	assert.Equal(t, geo.Point{X: 10, Y: 0}, got[len(got)-1])
}

func TestFlattenArcEndpointOnly(t *testing.T) {
	// arcs contribute their endpoint, nothing else
	assert.Equal(t, []geo.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}, Flatten("M0,0 A5,5 0 0 1 10,0"))
}

func TestFlattenMalformed(t *testing.T) {
	assert.Empty(t, Flatten(""))
	assert.Empty(t, Flatten("garbage"))
	// trailing incomplete argument group is dropped
	assert.Equal(t, []geo.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}, Flatten("M0,0 L10,0 L5"))
}
