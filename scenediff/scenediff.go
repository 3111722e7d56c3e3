// Package scenediff reconciles a producer's layout record with what a
// renderer actually drew. Nodes are matched by id, falling back to rendered
// text when the renderer rewrote its ids, and the per-node center deltas are
// summarized both raw and with the mean translation removed, so a pure
// coordinate-origin shift does not read as misplacement.
package scenediff

import (
	"math"
	"sort"

	"github.com/layoutqa/layoutqa/scene"
	"github.com/layoutqa/layoutqa/svgscene"
)

// Delta is one matched node's center displacement, native minus rendered.
type Delta struct {
	ID       string  `json:"id"`
	DX       float64 `json:"dx"`
	DY       float64 `json:"dy"`
	Distance float64 `json:"distance"`
}

type Summary struct {
	Count        int     `json:"count"`
	MeanAbsDX    float64 `json:"mean_abs_dx"`
	MeanAbsDY    float64 `json:"mean_abs_dy"`
	MeanDistance float64 `json:"mean_distance"`
	MaxDistance  float64 `json:"max_distance"`
}

type Report struct {
	Summary Summary  `json:"summary"`
	Aligned Summary  `json:"aligned_summary"`
	Deltas  []Delta  `json:"deltas"`
	Missing []string `json:"missing_nodes"`
}

// Diff matches every native node to a rendered one and measures the drift.
// Native nodes the renderer never drew are reported as missing, not errors.
func Diff(native *scene.Scene, rendered *svgscene.Extract) *Report {
	rep := &Report{}

	ids := make([]string, 0, len(native.Nodes))
	for id := range native.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		rid, ok := resolve(id, rendered)
		if !ok {
			rep.Missing = append(rep.Missing, id)
			continue
		}
		nc := native.Nodes[id].Box.Center()
		rc := rendered.Nodes[rid].Box.Center()
		dx := nc.X - rc.X
		dy := nc.Y - rc.Y
		rep.Deltas = append(rep.Deltas, Delta{
			ID:       id,
			DX:       dx,
			DY:       dy,
			Distance: math.Hypot(dx, dy),
		})
	}

	sort.SliceStable(rep.Deltas, func(i, j int) bool {
		return rep.Deltas[i].Distance > rep.Deltas[j].Distance
	})
	rep.Summary = summarize(rep.Deltas)
	rep.Aligned = summarize(align(rep.Deltas))
	return rep
}

// resolve finds id among the rendered nodes, trying the raw id, its slug
// normalization, and finally a text match against the rendered labels.
func resolve(id string, rendered *svgscene.Extract) (string, bool) {
	if _, ok := rendered.Nodes[id]; ok {
		return id, true
	}
	if norm := svgscene.NormalizeID(id); norm != id {
		if _, ok := rendered.Nodes[norm]; ok {
			return norm, true
		}
	}
	if rid, ok := svgscene.MatchByText([]string{id}, rendered.NodeTexts); ok {
		if _, present := rendered.Nodes[rid]; present {
			return rid, true
		}
	}
	return "", false
}

// align removes the mean translation from the deltas.
func align(deltas []Delta) []Delta {
	if len(deltas) == 0 {
		return nil
	}
	meanDX, meanDY := 0.0, 0.0
	for _, d := range deltas {
		meanDX += d.DX
		meanDY += d.DY
	}
	meanDX /= float64(len(deltas))
	meanDY /= float64(len(deltas))

	out := make([]Delta, len(deltas))
	for i, d := range deltas {
		dx := d.DX - meanDX
		dy := d.DY - meanDY
		out[i] = Delta{ID: d.ID, DX: dx, DY: dy, Distance: math.Hypot(dx, dy)}
	}
	return out
}

func summarize(deltas []Delta) Summary {
	s := Summary{Count: len(deltas)}
	if len(deltas) == 0 {
		return s
	}
	for _, d := range deltas {
		s.MeanAbsDX += math.Abs(d.DX)
		s.MeanAbsDY += math.Abs(d.DY)
		s.MeanDistance += d.Distance
		if d.Distance > s.MaxDistance {
			s.MaxDistance = d.Distance
		}
	}
	n := float64(len(deltas))
	s.MeanAbsDX /= n
	s.MeanAbsDY /= n
	s.MeanDistance /= n
	return s
}
