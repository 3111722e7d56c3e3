// Package weights turns metric records into scalar scores. Two models are
// provided: a fixed hand-tuned table for the headline score, and a
// data-driven profile derived from a corpus of records for priority ranking.
package weights

import (
	"github.com/layoutqa/layoutqa/metrics"
)

// Static is the headline score table. Weights reflect how much each defect
// hurts readability, per unit.
var Static = map[string]float64{
	"edge_crossings":      5,
	"edge_node_crossings": 6,
	"total_edge_length":   2,
	"edge_bends":          2,
	"port_congestion":     2,
	"edge_overlap_length": 1,
	"layout_area":         1,
}

// Manual is the fallback priority table used when a corpus is too small or
// too uniform for a derived profile to be trustworthy.
var Manual = map[string]float64{
	"edge_crossings":           8,
	"edge_node_crossings":      10,
	"node_overlap_count":       12,
	"edge_bends":               1.5,
	"port_congestion":          2.5,
	"edge_overlap_length":      1,
	"edge_detour_penalty":      35,
	"space_efficiency_penalty": 260,
	"margin_imbalance_ratio":   130,
	"edge_length_per_node":     0.4,
}

// Score is the weighted sum of the static table over rec. Metrics absent
// from rec contribute zero.
func Score(rec metrics.Record) float64 {
	total := 0.0
	for key, w := range Static {
		total += w * rec[key]
	}
	return total
}

// Attach stores the static score into rec under "score".
func Attach(rec metrics.Record) {
	rec["score"] = Score(rec)
}

// DefaultPriorityMetrics is the metric set the derived profile ranks over.
// The headline score's raw inputs are deliberately left out where a
// normalized penalty form of the same signal exists.
var DefaultPriorityMetrics = []string{
	"edge_crossings",
	"edge_node_crossings",
	"node_overlap_count",
	"edge_bends",
	"crossing_angle_penalty",
	"angular_resolution_penalty",
	"port_congestion",
	"edge_overlap_length",
	"edge_node_near_miss_count",
	"node_spacing_violation_severity",
	"edge_detour_penalty",
	"wasted_space_ratio",
	"space_efficiency_penalty",
	"margin_imbalance_ratio",
	"component_gap_ratio",
	"component_balance_penalty",
	"content_center_offset_ratio",
	"content_aspect_elongation",
	"content_overflow_ratio",
	"edge_length_per_node",
	"label_overlap_count",
	"label_overlap_area",
	"label_edge_overlap_count",
	"label_edge_overlap_pairs",
	"label_out_of_bounds_count",
	"label_out_of_bounds_area",
	"label_out_of_bounds_ratio",
}
