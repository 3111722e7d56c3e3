package metrics

import (
	"math"
	"sort"

	"github.com/layoutqa/layoutqa/lib/geo"
	"github.com/layoutqa/layoutqa/scene"
)

const (
	// labelOverlapNoiseFloor ignores sliver intersections between estimated
	// text boxes; only overlaps above this area count.
	labelOverlapNoiseFloor = 10.0

	outOfBoundsTolerance = 1e-3

	// pathTouchEps is the gap under which a label is considered to sit on its
	// edge path.
	pathTouchEps = 0.5

	// clearanceTarget and clearanceSigma shape the Gaussian scoring of the
	// label-to-path gap: best at 2px of air, falling off on both sides.
	clearanceTarget = 2.0
	clearanceSigma  = 2.0

	inBandMin = 1.0
	inBandMax = 6.0
)

// LabelParams tunes edge-label candidate selection when the renderer emits no
// explicit edge-label rects. AllowFallback admits unowned text boxes as
// candidates; it should be set only when the diagram source actually labels
// its edges, otherwise free-floating titles would masquerade as misplaced
// edge labels. ExpectedEdgeLabels bounds the fallback candidate set for
// sequence diagrams, where the message count is knowable from the source;
// when zero, the drawable edge count bounds it instead.
type LabelParams struct {
	AllowFallback      bool
	ExpectedEdgeLabels int
}

type cutoffs struct {
	dist, gap, bad, pathBad float64
}

// candidateCutoffs scales the selection thresholds with the label height.
// Sequence diagrams get looser bounds: their labels legitimately float above
// the message line instead of hugging it.
func candidateCutoffs(kind scene.Kind, h float64) cutoffs {
	if kind == scene.KindSequence {
		return cutoffs{
			dist:    math.Max(28, h*2.6),
			gap:     math.Max(20, h*1.8),
			bad:     math.Max(20, h*3.4),
			pathBad: math.Max(16, h*2.0),
		}
	}
	return cutoffs{
		dist:    math.Max(16, h*1.5),
		gap:     math.Max(12, h*1.25),
		bad:     math.Max(10, h*1.75),
		pathBad: math.Max(8, h*0.9),
	}
}

type labelCandidate struct {
	box  geo.Box
	dist float64
	gap  float64
	cut  cutoffs
}

// p95 returns the 95th percentile by nearest-rank over a sorted copy.
func p95(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	idx := int(math.Round(float64(len(sorted)-1) * 0.95))
	return sorted[idx]
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// ComputeLabels derives the label quality record of a rendered scene.
// detected carries the edge-label backdrop rects the renderer emitted, when
// it emits any.
func ComputeLabels(s *scene.Scene, detected []geo.Box, p LabelParams) Record {
	rec := Record{}

	labels := make([]*scene.Label, 0, len(s.Labels))
	for _, l := range s.Labels {
		if l.Box.Width > 0 && l.Box.Height > 0 {
			labels = append(labels, l)
		}
	}
	rec["label_count"] = float64(len(labels))

	totalArea := 0.0
	for _, l := range labels {
		totalArea += l.Box.Area()
	}
	rec["label_total_area"] = totalArea

	computeLabelOverlap(rec, labels)
	computeLabelEdgeOverlap(rec, s, labels)
	computeOutOfBounds(rec, s, labels)

	cands := selectEdgeLabelCandidates(s, labels, detected, p)
	rec["edge_label_detected_count"] = float64(len(cands))
	rec["edge_label_alignment_count"] = float64(len(cands))
	rec["edge_label_path_gap_count"] = float64(len(cands))
	if len(cands) == 0 {
		rec["edge_label_alignment_bad_count"] = 0
		rec["edge_label_path_gap_bad_count"] = 0
		return rec
	}

	var dists, gaps []float64
	alignBad, pathBad, touches, inBand := 0, 0, 0, 0
	clearanceSum := 0.0
	for _, c := range cands {
		dists = append(dists, c.dist)
		gaps = append(gaps, c.gap)
		if c.dist > c.cut.bad {
			alignBad++
		}
		if c.gap > c.cut.pathBad {
			pathBad++
		}
		if c.gap <= pathTouchEps {
			touches++
		} else {
			z := (c.gap - clearanceTarget) / clearanceSigma
			clearanceSum += math.Exp(-0.5 * z * z)
		}
		if c.gap >= inBandMin && c.gap <= inBandMax {
			inBand++
		}
	}
	n := float64(len(cands))

	rec["edge_label_alignment_mean"] = mean(dists)
	rec["edge_label_alignment_p95"] = p95(dists)
	rec["edge_label_alignment_bad_count"] = float64(alignBad)
	rec["edge_label_alignment_bad_ratio"] = float64(alignBad) / n

	rec["edge_label_path_gap_mean"] = mean(gaps)
	rec["edge_label_path_gap_p95"] = p95(gaps)
	rec["edge_label_path_gap_bad_count"] = float64(pathBad)
	rec["edge_label_path_gap_bad_ratio"] = float64(pathBad) / n

	rec["edge_label_path_touch_count"] = float64(touches)
	rec["edge_label_path_touch_ratio"] = float64(touches) / n
	rec["edge_label_path_non_touch_ratio"] = 1 - float64(touches)/n
	rec["edge_label_path_in_band_ratio"] = float64(inBand) / n
	rec["edge_label_path_clearance_score_mean"] = clearanceSum / n

	return rec
}

func computeLabelOverlap(rec Record, labels []*scene.Label) {
	count := 0
	area := 0.0
	for i := range labels {
		for j := i + 1; j < len(labels); j++ {
			ov := labels[i].Box.OverlapArea(labels[j].Box)
			if ov > labelOverlapNoiseFloor {
				count++
				area += ov
			}
		}
	}
	rec["label_overlap_count"] = float64(count)
	rec["label_overlap_area"] = area
}

func computeLabelEdgeOverlap(rec Record, s *scene.Scene, labels []*scene.Label) {
	pairs := 0
	hitLabels := 0
	for _, l := range labels {
		hit := false
		for _, e := range s.Edges {
			// a node's own label legitimately sits on its attached edges
			if l.Owner != "" && (e.From == l.Owner || e.To == l.Owner) {
				continue
			}
			crossed := false
			for i := 0; i+1 < len(e.Points); i++ {
				if geo.SegmentIntersectsBox(e.Points[i], e.Points[i+1], l.Box) {
					crossed = true
					break
				}
			}
			if crossed {
				pairs++
				hit = true
			}
		}
		if hit {
			hitLabels++
		}
	}
	rec["label_edge_overlap_count"] = float64(hitLabels)
	rec["label_edge_overlap_pairs"] = float64(pairs)
}

func computeOutOfBounds(rec Record, s *scene.Scene, labels []*scene.Label) {
	canvas := s.Canvas()
	count := 0
	area := 0.0
	for _, l := range labels {
		clipped := l.Box.Area() - l.Box.OverlapArea(canvas)
		if clipped > outOfBoundsTolerance {
			count++
			area += clipped
		}
	}
	rec["label_out_of_bounds_count"] = float64(count)
	rec["label_out_of_bounds_area"] = area
	if len(labels) > 0 {
		rec["label_out_of_bounds_ratio"] = float64(count) / float64(len(labels))
	} else {
		rec["label_out_of_bounds_ratio"] = 0
	}
}

// selectEdgeLabelCandidates picks the boxes that plausibly label an edge.
// Explicit edge-label rects from the renderer are trusted as-is; only when
// there are none do unowned text boxes stand in, filtered by the
// center-distance and box-gap cutoffs and, for sequence diagrams, bounded to
// the expected message count.
func selectEdgeLabelCandidates(s *scene.Scene, labels []*scene.Label, detected []geo.Box, p LabelParams) []labelCandidate {
	boxes := detected
	fallback := false
	if len(boxes) == 0 {
		if !p.AllowFallback {
			return nil
		}
		fallback = true
		for _, l := range labels {
			if l.Owner == "" {
				boxes = append(boxes, l.Box)
			}
		}
	}

	var cands []labelCandidate
	for _, box := range boxes {
		bestGap := math.Inf(1)
		bestDist := math.Inf(1)
		for _, e := range s.Edges {
			if len(e.Points) < 2 {
				continue
			}
			bestGap = math.Min(bestGap, geo.PolylineBoxGap(e.Points, box))
			bestDist = math.Min(bestDist, geo.PointPolylineDistance(box.Center(), e.Points))
		}
		if math.IsInf(bestGap, 1) || math.IsInf(bestDist, 1) {
			continue
		}
		cut := candidateCutoffs(s.Kind, box.Height)
		if fallback && bestDist > cut.dist && bestGap > cut.gap {
			continue
		}
		cands = append(cands, labelCandidate{box: box, dist: bestDist, gap: bestGap, cut: cut})
	}

	// sequence renderings mix actor text into the same style family; keep
	// only the closest plausible labels, bounded by the stated message count
	// or, absent one, the drawable edge count
	if fallback && s.Kind == scene.KindSequence && len(cands) > 0 {
		target := p.ExpectedEdgeLabels
		if target <= 0 {
			target = 0
			for _, e := range s.Edges {
				if len(e.Points) >= 2 {
					target++
				}
			}
		}
		if target > 0 && len(cands) > target {
			sort.Slice(cands, func(i, j int) bool {
				if cands[i].gap != cands[j].gap {
					return cands[i].gap < cands[j].gap
				}
				return cands[i].dist < cands[j].dist
			})
			cands = cands[:target]
		}
	}
	return cands
}
