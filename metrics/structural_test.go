package metrics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layoutqa/layoutqa/lib/geo"
	"github.com/layoutqa/layoutqa/metrics"
	"github.com/layoutqa/layoutqa/scene"
)

func box(x, y, w, h float64) geo.Box {
	return geo.NewBox(geo.NewPoint(x, y), w, h)
}

func twoNodeScene() *scene.Scene {
	return &scene.Scene{
		Width:  300,
		Height: 200,
		Kind:   scene.KindFlowchart,
		Nodes: map[string]*scene.Node{
			"a": {ID: "a", Box: box(10, 80, 40, 40)},
			"b": {ID: "b", Box: box(250, 80, 40, 40)},
		},
		Edges: []*scene.Edge{
			{
				From:   "a",
				To:     "b",
				Points: []geo.Point{{X: 50, Y: 100}, {X: 250, Y: 100}},
			},
		},
	}
}

func TestCompute_Deterministic(t *testing.T) {
	t.Parallel()

	s := twoNodeScene()
	first := metrics.Compute(s)
	second := metrics.Compute(s)
	assert.Equal(t, first, second)
}

func TestCompute_Counts(t *testing.T) {
	t.Parallel()

	rec := metrics.Compute(twoNodeScene())
	assert.Equal(t, 2.0, rec["node_count"])
	assert.Equal(t, 1.0, rec["edge_count"])
	assert.Equal(t, 60000.0, rec["layout_area"])
	assert.Equal(t, 200.0, rec["total_edge_length"])
	assert.Equal(t, 100.0, rec["edge_length_per_node"])
	assert.Equal(t, 0.0, rec["edge_bends"])
	assert.Equal(t, 0.0, rec["edge_crossings"])
}

func TestCompute_Crossings(t *testing.T) {
	t.Parallel()

	s := &scene.Scene{
		Width: 100, Height: 100,
		Nodes: map[string]*scene.Node{},
		Edges: []*scene.Edge{
			{Points: []geo.Point{{X: 0, Y: 0}, {X: 100, Y: 100}}},
			{Points: []geo.Point{{X: 0, Y: 100}, {X: 100, Y: 0}}},
		},
	}
	rec := metrics.Compute(s)
	assert.Equal(t, 1.0, rec["edge_crossings"])
	// perpendicular crossing, no angle penalty
	assert.Equal(t, 0.0, rec["crossing_angle_penalty"])

	// shallow crossing accrues penalty
	s.Edges[1].Points = []geo.Point{{X: 0, Y: 10}, {X: 100, Y: 90}}
	rec = metrics.Compute(s)
	assert.Equal(t, 1.0, rec["edge_crossings"])
	assert.Greater(t, rec["crossing_angle_penalty"], 0.0)
}

func TestCompute_SharedEndpointNotACrossing(t *testing.T) {
	t.Parallel()

	s := &scene.Scene{
		Width: 100, Height: 100,
		Nodes: map[string]*scene.Node{},
		Edges: []*scene.Edge{
			{Points: []geo.Point{{X: 50, Y: 50}, {X: 0, Y: 0}}},
			{Points: []geo.Point{{X: 50, Y: 50}, {X: 100, Y: 0}}},
		},
	}
	rec := metrics.Compute(s)
	assert.Equal(t, 0.0, rec["edge_crossings"])
}

func TestCompute_EdgeNodeCrossings(t *testing.T) {
	t.Parallel()

	s := twoNodeScene()
	// an obstacle square sitting on the edge's route
	s.Nodes["c"] = &scene.Node{ID: "c", Box: box(130, 80, 40, 40)}
	rec := metrics.Compute(s)
	assert.Equal(t, 1.0, rec["edge_node_crossings"])

	// endpoint nodes never count
	assert.Equal(t, "a", s.Edges[0].From)
}

func TestCompute_NearMiss(t *testing.T) {
	t.Parallel()

	s := twoNodeScene()
	// just below the route, within the near-miss pad but not crossing
	s.Nodes["c"] = &scene.Node{ID: "c", Box: box(130, 102, 40, 40)}
	rec := metrics.Compute(s)
	assert.Equal(t, 0.0, rec["edge_node_crossings"])
	assert.Equal(t, 1.0, rec["edge_node_near_miss_count"])
}

func TestCompute_Detour(t *testing.T) {
	t.Parallel()

	s := twoNodeScene()
	rec := metrics.Compute(s)
	assert.InDelta(t, 1.0, rec["avg_edge_detour_ratio"], 1e-9)
	assert.Equal(t, 0.0, rec["edge_detour_penalty"])

	// a route twice the straight distance
	s.Edges[0].Points = []geo.Point{
		{X: 50, Y: 100}, {X: 50, Y: 200}, {X: 250, Y: 200}, {X: 250, Y: 100},
	}
	rec = metrics.Compute(s)
	assert.InDelta(t, 2.0, rec["avg_edge_detour_ratio"], 1e-9)
	assert.InDelta(t, 0.7, rec["edge_detour_penalty"], 1e-9)
	assert.Equal(t, 2.0, rec["edge_bends"])
}

func TestCompute_PortCongestion(t *testing.T) {
	t.Parallel()

	s := twoNodeScene()
	// second and third edges leaving a's right side at the same port region
	s.Edges = append(s.Edges,
		&scene.Edge{From: "a", To: "b", Points: []geo.Point{{X: 50, Y: 90}, {X: 250, Y: 90}}},
		&scene.Edge{From: "a", To: "b", Points: []geo.Point{{X: 50, Y: 110}, {X: 250, Y: 110}}},
	)
	rec := metrics.Compute(s)
	// 3 endpoints on a's right side and 3 on b's left side
	assert.Equal(t, 4.0, rec["port_congestion"])
}

func TestCompute_EdgeOverlap(t *testing.T) {
	t.Parallel()

	s := &scene.Scene{
		Width: 100, Height: 100,
		Nodes: map[string]*scene.Node{},
		Edges: []*scene.Edge{
			{Points: []geo.Point{{X: 0, Y: 50}, {X: 60, Y: 50}}},
			{Points: []geo.Point{{X: 40, Y: 50}, {X: 100, Y: 50}}},
		},
	}
	rec := metrics.Compute(s)
	assert.InDelta(t, 20.0, rec["edge_overlap_length"], 1e-9)

	// collinear runs fanning out of one port are a shared junction, not overlap
	s.Edges = []*scene.Edge{
		{Points: []geo.Point{{X: 0, Y: 50}, {X: 60, Y: 50}}},
		{Points: []geo.Point{{X: 0, Y: 50}, {X: 100, Y: 50}}},
	}
	rec = metrics.Compute(s)
	assert.Equal(t, 0.0, rec["edge_overlap_length"])
}

func TestCompute_NodeOverlap(t *testing.T) {
	t.Parallel()

	s := &scene.Scene{
		Width: 100, Height: 100,
		Nodes: map[string]*scene.Node{
			"a": {ID: "a", Box: box(0, 0, 10, 10)},
			"b": {ID: "b", Box: box(5, 5, 10, 10)},
		},
	}
	rec := metrics.Compute(s)
	assert.Equal(t, 1.0, rec["node_overlap_count"])
	assert.InDelta(t, 25.0, rec["node_overlap_area"], 1e-9)

	// exact duplicates still register
	s.Nodes["b"].Box = box(0, 0, 10, 10)
	rec = metrics.Compute(s)
	assert.Equal(t, 1.0, rec["node_overlap_count"])
	assert.InDelta(t, 100.0, rec["node_overlap_area"], 1e-9)
}

func TestCompute_TreemapNestingExcepted(t *testing.T) {
	t.Parallel()

	s := &scene.Scene{
		Width: 100, Height: 100,
		Kind: scene.KindTreemap,
		Nodes: map[string]*scene.Node{
			"outer": {ID: "outer", Box: box(0, 0, 100, 100)},
			"inner": {ID: "inner", Box: box(10, 10, 30, 30)},
		},
	}
	rec := metrics.Compute(s)
	assert.Equal(t, 0.0, rec["node_overlap_count"])
}

func TestCompute_SpaceUsage(t *testing.T) {
	t.Parallel()

	s := &scene.Scene{
		Width: 100, Height: 100,
		Nodes: map[string]*scene.Node{
			"a": {ID: "a", Box: box(0, 0, 50, 100)},
		},
	}
	rec := metrics.Compute(s)
	assert.InDelta(t, 0.5, rec["content_fill_ratio"], 1e-9)
	assert.InDelta(t, 0.5, rec["wasted_space_ratio"], 1e-9)
	assert.InDelta(t, 0.1, rec["space_efficiency_penalty"], 1e-9)
	// content hugs the left: horizontal margins are 0 vs 50
	assert.InDelta(t, 0.25, rec["margin_imbalance_ratio"], 1e-9)
	assert.Equal(t, 0.0, rec["content_overflow_ratio"])
	assert.InDelta(t, 2.0, rec["content_aspect_elongation"], 1e-9)
}

func TestCompute_Overflow(t *testing.T) {
	t.Parallel()

	s := &scene.Scene{
		Width: 100, Height: 100,
		Nodes: map[string]*scene.Node{
			"a": {ID: "a", Box: box(50, 0, 100, 100)},
		},
	}
	rec := metrics.Compute(s)
	assert.InDelta(t, 0.5, rec["content_overflow_ratio"], 1e-9)
}

func TestCompute_Components(t *testing.T) {
	t.Parallel()

	s := &scene.Scene{
		Width: 400, Height: 100,
		Nodes: map[string]*scene.Node{
			"a": {ID: "a", Box: box(0, 0, 20, 20)},
			"b": {ID: "b", Box: box(40, 0, 20, 20)},
			"c": {ID: "c", Box: box(300, 0, 20, 20)},
		},
		Edges: []*scene.Edge{
			{From: "a", To: "b", Points: []geo.Point{{X: 20, Y: 10}, {X: 40, Y: 10}}},
		},
	}
	rec := metrics.Compute(s)
	assert.Equal(t, 2.0, rec["component_count"])
	assert.Equal(t, 1.0, rec["disconnected_components"])
	// component bboxes cover 1600 of the 6400-area content bbox
	assert.InDelta(t, 0.75, rec["component_gap_ratio"], 1e-9)
	assert.Greater(t, rec["component_balance_penalty"], 0.0)

	// even split has no balance penalty
	s.Nodes["d"] = &scene.Node{ID: "d", Box: box(340, 0, 20, 20)}
	s.Edges = append(s.Edges, &scene.Edge{
		From: "c", To: "d", Points: []geo.Point{{X: 320, Y: 10}, {X: 340, Y: 10}},
	})
	rec = metrics.Compute(s)
	assert.Equal(t, 2.0, rec["component_count"])
	assert.InDelta(t, 0.0, rec["component_balance_penalty"], 1e-9)
}

func TestCompute_AngularResolution(t *testing.T) {
	t.Parallel()

	hub := map[string]*scene.Node{
		"h": {ID: "h", Box: box(95, 95, 10, 10)},
		"a": {ID: "a", Box: box(190, 95, 10, 10)},
		"b": {ID: "b", Box: box(190, 115, 10, 10)},
	}
	s := &scene.Scene{
		Width: 210, Height: 210,
		Nodes: hub,
		Edges: []*scene.Edge{
			{From: "h", To: "a", Points: []geo.Point{{X: 105, Y: 100}, {X: 190, Y: 100}}},
			{From: "h", To: "b", Points: []geo.Point{{X: 105, Y: 100}, {X: 190, Y: 120}}},
		},
	}
	rec := metrics.Compute(s)
	// the two edges leave h about 13 degrees apart
	assert.Equal(t, 1.0, rec["angular_resolution_node_count"])
	assert.Greater(t, rec["angular_resolution_penalty"], 0.0)
}

func TestCompute_Spacing(t *testing.T) {
	t.Parallel()

	s := &scene.Scene{
		Width: 200, Height: 100,
		Nodes: map[string]*scene.Node{
			"a": {ID: "a", Box: box(0, 0, 40, 40)},
			"b": {ID: "b", Box: box(42, 0, 40, 40)},
		},
	}
	rec := metrics.Compute(s)
	// target clamps to 24; a 2px gap violates it
	assert.Equal(t, 1.0, rec["node_spacing_violation_count"])
	assert.InDelta(t, (24.0-2.0)/24.0, rec["node_spacing_violation_severity"], 1e-9)
}

func TestCompute_Anchors(t *testing.T) {
	t.Parallel()

	anchorOn := geo.NewPoint(100, 100)
	anchorOff := geo.NewPoint(100, 120)
	s := twoNodeScene()
	s.Edges[0].Labels = []scene.EdgeLabel{
		{Text: "ok", Anchor: &anchorOn},
		{Text: "drifted", Anchor: &anchorOff},
	}
	rec := metrics.Compute(s)
	assert.Equal(t, 2.0, rec["layout_anchor_label_count"])
	assert.InDelta(t, 10.0, rec["layout_anchor_alignment_mean"], 1e-9)
	assert.InDelta(t, 20.0, rec["layout_anchor_alignment_max"], 1e-9)
	assert.Equal(t, 1.0, rec["layout_anchor_miss_count"])
	assert.InDelta(t, 0.5, rec["layout_anchor_miss_ratio"], 1e-9)
}

func TestCompute_NoAnchorsNoKeys(t *testing.T) {
	t.Parallel()

	rec := metrics.Compute(twoNodeScene())
	_, ok := rec["layout_anchor_label_count"]
	require.False(t, ok)
}

func TestCompute_EmptyScene(t *testing.T) {
	t.Parallel()

	rec := metrics.Compute(&scene.Scene{Nodes: map[string]*scene.Node{}})
	assert.Equal(t, 0.0, rec["node_count"])
	assert.Equal(t, 0.0, rec["edge_length_per_node"])
	assert.Equal(t, 0.0, rec["component_count"])
	assert.Equal(t, 0.0, rec["margin_imbalance_ratio"])
}
