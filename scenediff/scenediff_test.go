package scenediff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layoutqa/layoutqa/lib/geo"
	"github.com/layoutqa/layoutqa/scene"
	"github.com/layoutqa/layoutqa/scenediff"
	"github.com/layoutqa/layoutqa/svgscene"
)

func nativeScene() *scene.Scene {
	return &scene.Scene{
		Nodes: map[string]*scene.Node{
			"alpha": {ID: "alpha", Box: geo.NewBox(geo.NewPoint(0, 0), 40, 20)},
			"beta":  {ID: "beta", Box: geo.NewBox(geo.NewPoint(100, 0), 40, 20)},
		},
	}
}

func renderedExtract() *svgscene.Extract {
	return &svgscene.Extract{
		Nodes: map[string]*scene.Node{
			"alpha": {ID: "alpha", Box: geo.NewBox(geo.NewPoint(10, 5), 40, 20)},
			"beta":  {ID: "beta", Box: geo.NewBox(geo.NewPoint(110, 5), 40, 20)},
		},
		NodeTexts: map[string][]string{},
	}
}

func TestDiff_UniformShift(t *testing.T) {
	t.Parallel()

	rep := scenediff.Diff(nativeScene(), renderedExtract())
	require.Len(t, rep.Deltas, 2)
	assert.Empty(t, rep.Missing)

	assert.InDelta(t, 10.0, rep.Summary.MeanAbsDX, 1e-9)
	assert.InDelta(t, 5.0, rep.Summary.MeanAbsDY, 1e-9)
	assert.Greater(t, rep.Summary.MeanDistance, 0.0)

	// a pure translation vanishes once aligned
	assert.InDelta(t, 0.0, rep.Aligned.MeanDistance, 1e-9)
	assert.InDelta(t, 0.0, rep.Aligned.MaxDistance, 1e-9)
	assert.Equal(t, 2, rep.Aligned.Count)
}

func TestDiff_Missing(t *testing.T) {
	t.Parallel()

	native := nativeScene()
	native.Nodes["gamma"] = &scene.Node{ID: "gamma", Box: geo.NewBox(geo.NewPoint(0, 100), 40, 20)}
	rep := scenediff.Diff(native, renderedExtract())
	assert.Equal(t, []string{"gamma"}, rep.Missing)
	assert.Equal(t, 2, rep.Summary.Count)
}

func TestDiff_TextFallback(t *testing.T) {
	t.Parallel()

	rendered := &svgscene.Extract{
		Nodes: map[string]*scene.Node{
			"n1": {ID: "n1", Box: geo.NewBox(geo.NewPoint(0, 0), 40, 20)},
		},
		NodeTexts: map[string][]string{
			"n1": {"alpha"},
		},
	}
	native := &scene.Scene{
		Nodes: map[string]*scene.Node{
			"alpha": {ID: "alpha", Box: geo.NewBox(geo.NewPoint(0, 0), 40, 20)},
		},
	}
	rep := scenediff.Diff(native, rendered)
	assert.Empty(t, rep.Missing)
	require.Len(t, rep.Deltas, 1)
	assert.Equal(t, 0.0, rep.Deltas[0].Distance)
}

func TestDiff_SortedByDistance(t *testing.T) {
	t.Parallel()

	rendered := renderedExtract()
	// beta drifts much further than alpha
	rendered.Nodes["beta"].Box = geo.NewBox(geo.NewPoint(200, 80), 40, 20)
	rep := scenediff.Diff(nativeScene(), rendered)
	require.Len(t, rep.Deltas, 2)
	assert.Equal(t, "beta", rep.Deltas[0].ID)
	assert.Equal(t, rep.Summary.MaxDistance, rep.Deltas[0].Distance)
}

func TestDiff_Empty(t *testing.T) {
	t.Parallel()

	rep := scenediff.Diff(&scene.Scene{Nodes: map[string]*scene.Node{}}, &svgscene.Extract{
		Nodes: map[string]*scene.Node{},
	})
	assert.Equal(t, 0, rep.Summary.Count)
	assert.Equal(t, 0.0, rep.Summary.MaxDistance)
}
