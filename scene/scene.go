// Package scene holds the normalized node/edge/label graph that all quality
// metrics are computed over. A Scene is produced either from a native layout
// record (see native.go) or from a rendered vector image (package svgscene),
// and is treated as immutable once constructed.
package scene

import (
	"math"
	"strings"

	"github.com/layoutqa/layoutqa/lib/geo"
)

type Kind string

const (
	KindUnknown   Kind = ""
	KindFlowchart Kind = "flowchart"
	KindSequence  Kind = "sequence"
	KindClass     Kind = "class"
	KindState     Kind = "state"
	KindER        Kind = "er"
	KindTreemap   Kind = "treemap"
)

// ParseKind normalizes a kind tag. Unrecognized tags map to KindUnknown
// rather than erroring; the kind only gates heuristics, never correctness.
func ParseKind(s string) Kind {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindFlowchart, KindSequence, KindClass, KindState, KindER, KindTreemap:
		return Kind(strings.ToLower(strings.TrimSpace(s)))
	}
	return KindUnknown
}

type Node struct {
	ID  string
	Box geo.Box
}

// EdgeLabel is a text attached to an edge along with the point the layout
// engine anchored it at. Anchor is nil when the producer did not report one.
type EdgeLabel struct {
	Text   string
	Anchor *geo.Point
}

// Edge is an ordered polyline. From and To are node ids when endpoint
// identity is known and empty when it could not be resolved; resolution
// failures stay explicit rather than being guessed.
type Edge struct {
	Points []geo.Point
	From   string
	To     string
	Labels []EdgeLabel
}

// Endpoints reports whether id is one of the edge's resolved endpoints.
func (e *Edge) Endpoints(id string) bool {
	return id != "" && (e.From == id || e.To == id)
}

// Label is a text bounding box. Owner is the id of the smallest node whose
// rect contains the label's center, or empty when no node does.
type Label struct {
	Box   geo.Box
	Class string
	Text  string
	Owner string
}

// Cluster is a container rectangle. Containment inside a cluster is
// legitimate nesting and is excepted from overlap metrics.
type Cluster struct {
	ID  string
	Box geo.Box
}

type Scene struct {
	Width  float64
	Height float64
	Kind   Kind

	Nodes    map[string]*Node
	Edges    []*Edge
	Labels   []*Label
	Clusters []*Cluster
}

func (s *Scene) Canvas() geo.Box {
	return geo.NewBox(geo.NewPoint(0, 0), math.Max(0, s.Width), math.Max(0, s.Height))
}

// InferOwner returns the id of the smallest-area node whose rect contains p,
// or empty when none does. Zero-sized nodes never own labels. Area ties break
// on the lower id so repeated extraction stays stable.
func (s *Scene) InferOwner(p geo.Point) string {
	bestID := ""
	bestArea := math.Inf(1)
	for id, n := range s.Nodes {
		if n.Box.Width <= 0 || n.Box.Height <= 0 {
			continue
		}
		if !n.Box.Contains(p) {
			continue
		}
		area := n.Box.Area()
		if area < bestArea || (area == bestArea && (bestID == "" || id < bestID)) {
			bestArea = area
			bestID = id
		}
	}
	return bestID
}

// ResolveOwners fills Label.Owner for every label.
func (s *Scene) ResolveOwners() {
	for _, l := range s.Labels {
		l.Owner = s.InferOwner(l.Box.Center())
	}
}
