package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layoutqa/layoutqa/lib/geo"
)

func TestFromNative(t *testing.T) {
	data := []byte(`{
		"width": 400, "height": 300, "kind": "Flowchart",
		"nodes": [
			{"id": "a", "x": 10, "y": 20, "width": 80, "height": 40},
			{"id": "b", "x": 200, "y": 20, "width": 80, "height": 40},
			{"id": "ghost", "x": 0, "y": 0, "width": 10, "height": 10, "hidden": true},
			{"id": "anchor", "x": 0, "y": 0, "width": 0, "height": 0, "anchor_subgraph": "s1"}
		],
		"edges": [
			{"points": [[90, 40], [200, 40]], "from": "a", "to": "b",
			 "label": "go", "label_anchor": [145, 40]}
		],
		"subgraphs": [
			{"label": "s1", "x": 0, "y": 0, "width": 300, "height": 100}
		]
	}`)

	s, err := FromNative(data)
	require.NoError(t, err)

	assert.Equal(t, KindFlowchart, s.Kind)
	assert.Equal(t, 400.0, s.Width)

	// hidden and anchor placeholder nodes are dropped
	assert.Len(t, s.Nodes, 2)
	assert.Contains(t, s.Nodes, "a")
	assert.NotContains(t, s.Nodes, "ghost")
	assert.NotContains(t, s.Nodes, "anchor")

	require.Len(t, s.Edges, 1)
	e := s.Edges[0]
	assert.Equal(t, "a", e.From)
	assert.Equal(t, []geo.Point{{X: 90, Y: 40}, {X: 200, Y: 40}}, e.Points)
	require.Len(t, e.Labels, 1)
	assert.Equal(t, "go", e.Labels[0].Text)
	require.NotNil(t, e.Labels[0].Anchor)
	assert.Equal(t, geo.NewPoint(145, 40), *e.Labels[0].Anchor)

	require.Len(t, s.Clusters, 1)
	assert.Equal(t, "s1", s.Clusters[0].ID)
}

func TestFromNativeRejectsDuplicateIDs(t *testing.T) {
	data := []byte(`{"nodes": [
		{"id": "a", "x": 0, "y": 0, "width": 10, "height": 10},
		{"id": "a", "x": 5, "y": 5, "width": 10, "height": 10}
	]}`)
	_, err := FromNative(data)
	assert.Error(t, err)
}

func TestFromNativeSkipsMalformedPoints(t *testing.T) {
	data := []byte(`{"edges": [{"points": [[0, 0], [5], [10, 10]]}]}`)
	s, err := FromNative(data)
	require.NoError(t, err)
	require.Len(t, s.Edges, 1)
	assert.Equal(t, []geo.Point{{X: 0, Y: 0}, {X: 10, Y: 10}}, s.Edges[0].Points)
}

func TestInferOwner(t *testing.T) {
	s := &Scene{
		Nodes: map[string]*Node{
			"big":   {ID: "big", Box: geo.NewBox(geo.NewPoint(0, 0), 100, 100)},
			"small": {ID: "small", Box: geo.NewBox(geo.NewPoint(10, 10), 20, 20)},
		},
	}
	// the smallest containing node wins
	assert.Equal(t, "small", s.InferOwner(geo.NewPoint(15, 15)))
	assert.Equal(t, "big", s.InferOwner(geo.NewPoint(80, 80)))
	assert.Equal(t, "", s.InferOwner(geo.NewPoint(500, 500)))
}

func TestInferOwnerTieBreaksOnID(t *testing.T) {
	s := &Scene{
		Nodes: map[string]*Node{
			"b": {ID: "b", Box: geo.NewBox(geo.NewPoint(0, 0), 40, 40)},
			"a": {ID: "a", Box: geo.NewBox(geo.NewPoint(20, 0), 40, 40)},
			"c": {ID: "c", Box: geo.NewBox(geo.NewPoint(10, 0), 40, 40)},
		},
	}
	// equal areas, all contain the point: the lowest id wins every time
	for i := 0; i < 20; i++ {
		assert.Equal(t, "a", s.InferOwner(geo.NewPoint(30, 20)))
	}
}
