// Package gate checks a metric run against a recorded baseline. Strict
// metrics may never regress at all; relative metrics get a tolerance band so
// routine float jitter does not fail a run. Every violation is enumerated so
// a failing run reports the full damage, not just the first hit.
package gate

import (
	"fmt"

	"github.com/layoutqa/layoutqa/metrics"
)

type Kind string

const (
	// KindStrict marks a zero-tolerance metric that exceeded its baseline.
	KindStrict Kind = "strict"
	// KindRelative marks a soft metric that exceeded its tolerance band.
	KindRelative Kind = "relative"
	// KindMissing marks a baseline fixture absent from the current run.
	KindMissing Kind = "missing"
	// KindError marks a fixture that errored in the current run.
	KindError Kind = "error"
)

// StrictMetrics are defect counters: any increase over the baseline fails.
var StrictMetrics = map[string]bool{
	"edge_crossings":            true,
	"edge_node_crossings":       true,
	"node_overlap_count":        true,
	"label_overlap_count":       true,
	"label_out_of_bounds_count": true,
}

// RelativeMetrics are continuous costs gated with a tolerance band.
var RelativeMetrics = map[string]bool{
	"total_edge_length":   true,
	"edge_bends":          true,
	"port_congestion":     true,
	"edge_overlap_length": true,
	"layout_area":         true,
	"node_overlap_area":   true,
	"score":               true,
}

type Violation struct {
	Fixture  string  `json:"fixture"`
	Metric   string  `json:"metric,omitempty"`
	Kind     Kind    `json:"kind"`
	Baseline float64 `json:"baseline,omitempty"`
	Current  float64 `json:"current,omitempty"`
	Limit    float64 `json:"limit,omitempty"`
	Message  string  `json:"message,omitempty"`
}

func (v Violation) String() string {
	switch v.Kind {
	case KindMissing:
		return fmt.Sprintf("%s: missing from current run", v.Fixture)
	case KindError:
		return fmt.Sprintf("%s: %s", v.Fixture, v.Message)
	case KindStrict:
		return fmt.Sprintf("%s: %s %g -> %g (must not increase)",
			v.Fixture, v.Metric, v.Baseline, v.Current)
	default:
		return fmt.Sprintf("%s: %s %g -> %g (limit %.2f)",
			v.Fixture, v.Metric, v.Baseline, v.Current, v.Limit)
	}
}

// Policy carries the gate tolerances. The zero value gates with no slack;
// use Default for the standard band.
type Policy struct {
	RelTol float64
	AbsTol float64
}

func Default() Policy {
	return Policy{RelTol: 0.10, AbsTol: 1.0}
}

// Limit is the highest current value the policy accepts for a relative
// metric with the given baseline. Both tolerances apply; the looser wins, so
// near-zero baselines are governed by the absolute band.
func (p Policy) Limit(base float64) float64 {
	limit := base * (1 + p.RelTol)
	if alt := base + p.AbsTol; alt > limit {
		limit = alt
	}
	return limit
}

// Report is the outcome of one gate run.
type Report struct {
	Checked    int         `json:"checked"`
	Violations []Violation `json:"violations"`
}

func (r *Report) Passed() bool {
	return len(r.Violations) == 0
}

// Check gates current against baseline, fixture by fixture. Fixtures present
// only in current are ignored: the baseline defines the contract. Fixtures
// that errored when the baseline was recorded have nothing to hold the
// current run to and pass vacuously.
func (p Policy) Check(baseline, current metrics.Results) *Report {
	rep := &Report{}
	for _, fixture := range baseline.Fixtures() {
		base := baseline[fixture]
		rep.Checked++

		cur, ok := current[fixture]
		if !ok {
			rep.Violations = append(rep.Violations, Violation{
				Fixture: fixture,
				Kind:    KindMissing,
			})
			continue
		}
		if cur.Failed() {
			rep.Violations = append(rep.Violations, Violation{
				Fixture: fixture,
				Kind:    KindError,
				Message: cur.Err,
			})
			continue
		}
		if base.Failed() {
			continue
		}

		for _, metric := range base.Metrics.Keys() {
			baseVal := base.Metrics[metric]
			curVal, ok := cur.Metrics[metric]
			if !ok {
				continue
			}
			switch {
			case StrictMetrics[metric]:
				if curVal > baseVal {
					rep.Violations = append(rep.Violations, Violation{
						Fixture:  fixture,
						Metric:   metric,
						Kind:     KindStrict,
						Baseline: baseVal,
						Current:  curVal,
						Limit:    baseVal,
					})
				}
			case RelativeMetrics[metric]:
				if limit := p.Limit(baseVal); curVal > limit {
					rep.Violations = append(rep.Violations, Violation{
						Fixture:  fixture,
						Metric:   metric,
						Kind:     KindRelative,
						Baseline: baseVal,
						Current:  curVal,
						Limit:    limit,
					})
				}
			}
		}
	}
	return rep
}
