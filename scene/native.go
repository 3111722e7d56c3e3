package scene

import (
	"encoding/json"
	"fmt"

	"oss.terrastruct.com/util-go/xdefer"

	"github.com/layoutqa/layoutqa/lib/geo"
)

// nativeRecord is the wire form of a layout engine's structured dump. Fields
// are trusted literally; only malformed geometry is skipped.
type nativeRecord struct {
	Width  float64      `json:"width"`
	Height float64      `json:"height"`
	Kind   string       `json:"kind"`
	Nodes  []nativeNode `json:"nodes"`
	Edges  []nativeEdge `json:"edges"`
	Subs   []nativeSub  `json:"subgraphs"`
}

type nativeNode struct {
	ID             string  `json:"id"`
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	Width          float64 `json:"width"`
	Height         float64 `json:"height"`
	Hidden         bool    `json:"hidden"`
	AnchorSubgraph any     `json:"anchor_subgraph"`
}

type nativeEdge struct {
	Points [][]float64 `json:"points"`
	From   string      `json:"from"`
	To     string      `json:"to"`

	Label            *string   `json:"label"`
	LabelAnchor      []float64 `json:"label_anchor"`
	StartLabel       *string   `json:"start_label"`
	StartLabelAnchor []float64 `json:"start_label_anchor"`
	EndLabel         *string   `json:"end_label"`
	EndLabelAnchor   []float64 `json:"end_label_anchor"`
}

type nativeSub struct {
	Label  string  `json:"label"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func anchorPoint(coords []float64) *geo.Point {
	if len(coords) < 2 {
		return nil
	}
	p := geo.NewPoint(coords[0], coords[1])
	return &p
}

// FromNative builds a Scene from a native layout record. Hidden nodes and
// subgraph anchor placeholders are dropped here so they never reach a metric.
func FromNative(data []byte) (_ *Scene, err error) {
	defer xdefer.Errorf(&err, "failed to read native layout record")

	var rec nativeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}

	s := &Scene{
		Width:  rec.Width,
		Height: rec.Height,
		Kind:   ParseKind(rec.Kind),
		Nodes:  make(map[string]*Node, len(rec.Nodes)),
	}

	for _, n := range rec.Nodes {
		if n.Hidden || n.AnchorSubgraph != nil {
			continue
		}
		if n.ID == "" {
			continue
		}
		if _, ok := s.Nodes[n.ID]; ok {
			return nil, fmt.Errorf("duplicate node id %q", n.ID)
		}
		if n.Width < 0 || n.Height < 0 {
			return nil, fmt.Errorf("node %q has negative size", n.ID)
		}
		s.Nodes[n.ID] = &Node{
			ID:  n.ID,
			Box: geo.NewBox(geo.NewPoint(n.X, n.Y), n.Width, n.Height),
		}
	}

	for _, e := range rec.Edges {
		edge := &Edge{From: e.From, To: e.To}
		for _, pt := range e.Points {
			if len(pt) < 2 {
				continue
			}
			edge.Points = append(edge.Points, geo.NewPoint(pt[0], pt[1]))
		}
		for _, l := range []struct {
			text   *string
			anchor []float64
		}{
			{e.Label, e.LabelAnchor},
			{e.StartLabel, e.StartLabelAnchor},
			{e.EndLabel, e.EndLabelAnchor},
		} {
			if l.text == nil {
				continue
			}
			edge.Labels = append(edge.Labels, EdgeLabel{Text: *l.text, Anchor: anchorPoint(l.anchor)})
		}
		s.Edges = append(s.Edges, edge)
	}

	for _, sub := range rec.Subs {
		s.Clusters = append(s.Clusters, &Cluster{
			ID:  sub.Label,
			Box: geo.NewBox(geo.NewPoint(sub.X, sub.Y), sub.Width, sub.Height),
		})
	}

	return s, nil
}
