// Package compare pits two metric runs against each other, fixture by
// fixture. It answers three questions: per core metric, who wins where; does
// the left run dominate the right outright; and when it does not, how much
// weighted regression debt it carries and which metrics carry it.
package compare

import (
	"sort"

	"github.com/layoutqa/layoutqa/metrics"
	"github.com/layoutqa/layoutqa/weights"
)

// eps separates real deltas from float jitter.
const eps = 1e-9

// topContributorLimit bounds the debt breakdown to the metrics that matter.
const topContributorLimit = 6

// CoreMetrics are the headline comparison metrics.
var CoreMetrics = []string{
	"score",
	"edge_crossings",
	"svg_edge_crossings",
	"arrow_path_intersections",
	"label_overlap_count",
	"label_out_of_bounds_count",
}

// DominanceMetrics is the set a fixture must be non-worse on, across the
// board, to count as dominated. svg_edge_crossings is left out: it double
// counts arrow_path_intersections on renderers that emit both.
var DominanceMetrics = []string{
	"score",
	"edge_crossings",
	"arrow_path_intersections",
	"label_overlap_count",
	"label_out_of_bounds_count",
}

// Regression is the largest left-worse delta seen for one metric.
type Regression struct {
	Fixture string  `json:"fixture"`
	Delta   float64 `json:"delta"`
	Left    float64 `json:"left"`
	Right   float64 `json:"right"`
}

// MetricCounts tallies one metric over the common fixtures, from the left
// run's point of view: lower is better.
type MetricCounts struct {
	Better          int         `json:"better"`
	Equal           int         `json:"equal"`
	Worse           int         `json:"worse"`
	WorstRegression *Regression `json:"worst_regression,omitempty"`
}

// CoreDominance summarizes outright wins over DominanceMetrics. Fixtures
// missing any of the metrics on either side are not comparable.
type CoreDominance struct {
	Metrics        []string `json:"metrics"`
	Comparable     int      `json:"comparable"`
	NonWorse       int      `json:"non_worse"`
	StrictlyBetter int      `json:"strictly_better"`
}

// Contributor is one metric's share of the weighted regression debt.
type Contributor struct {
	Metric string  `json:"metric"`
	Debt   float64 `json:"debt"`
	Better int     `json:"better"`
	Equal  int     `json:"equal"`
	Worse  int     `json:"worse"`
}

// FixtureDebt names the fixture carrying the most weighted debt.
type FixtureDebt struct {
	Fixture string  `json:"fixture"`
	Debt    float64 `json:"debt"`
}

// WeightedDominance weighs regressions by the static score table, so one
// extra crossing outweighs a few pixels of edge length.
type WeightedDominance struct {
	WeightedMetrics int                `json:"weighted_metrics"`
	Comparable      int                `json:"comparable"`
	NonWorse        int                `json:"non_worse"`
	StrictlyBetter  int                `json:"strictly_better"`
	TotalDebt       float64            `json:"total_debt"`
	DebtByMetric    map[string]float64 `json:"debt_by_metric"`
	TopContributors []Contributor      `json:"top_contributors"`
	WorstFixture    *FixtureDebt       `json:"worst_fixture,omitempty"`
}

// Report is a full left-vs-right comparison. Nil sub-reports mean there was
// nothing to compare.
type Report struct {
	CommonFixtures int                     `json:"common_scored_fixtures"`
	Metrics        map[string]MetricCounts `json:"metrics"`
	Core           *CoreDominance          `json:"core_dominance,omitempty"`
	Weighted       *WeightedDominance      `json:"weighted_dominance,omitempty"`
}

// Common lists the fixtures scored on both sides, sorted. Errored fixtures
// and fixtures without a score are not comparable.
func Common(left, right metrics.Results) []string {
	var common []string
	for name, l := range left {
		r, ok := right[name]
		if !ok || l.Failed() || r.Failed() {
			continue
		}
		if _, ok := l.Metrics["score"]; !ok {
			continue
		}
		if _, ok := r.Metrics["score"]; !ok {
			continue
		}
		common = append(common, name)
	}
	sort.Strings(common)
	return common
}

func countMetric(left, right metrics.Results, common []string, metric string) MetricCounts {
	var mc MetricCounts
	for _, name := range common {
		lval, lok := left[name].Metrics[metric]
		rval, rok := right[name].Metrics[metric]
		if !lok || !rok {
			continue
		}
		delta := lval - rval
		switch {
		case delta < -eps:
			mc.Better++
		case delta > eps:
			mc.Worse++
			if mc.WorstRegression == nil || delta > mc.WorstRegression.Delta {
				mc.WorstRegression = &Regression{
					Fixture: name,
					Delta:   delta,
					Left:    lval,
					Right:   rval,
				}
			}
		default:
			mc.Equal++
		}
	}
	return mc
}

// Run compares the left run against the right.
func Run(left, right metrics.Results) *Report {
	common := Common(left, right)
	rep := &Report{
		CommonFixtures: len(common),
		Metrics:        map[string]MetricCounts{},
	}
	if len(common) == 0 {
		return rep
	}

	for _, metric := range CoreMetrics {
		rep.Metrics[metric] = countMetric(left, right, common, metric)
	}
	rep.Core = coreDominance(left, right, common)
	rep.Weighted = weightedDominance(left, right, common)
	return rep
}

func coreDominance(left, right metrics.Results, common []string) *CoreDominance {
	cd := &CoreDominance{Metrics: DominanceMetrics}
	for _, name := range common {
		type pair struct{ l, r float64 }
		var pairs []pair
		for _, metric := range DominanceMetrics {
			lval, lok := left[name].Metrics[metric]
			rval, rok := right[name].Metrics[metric]
			if lok && rok {
				pairs = append(pairs, pair{lval, rval})
			}
		}
		if len(pairs) != len(DominanceMetrics) {
			continue
		}
		cd.Comparable++
		nonWorse := true
		strict := false
		for _, p := range pairs {
			if p.l > p.r+eps {
				nonWorse = false
				break
			}
			if p.l < p.r-eps {
				strict = true
			}
		}
		if nonWorse {
			cd.NonWorse++
			if strict {
				cd.StrictlyBetter++
			}
		}
	}
	return cd
}

func weightedDominance(left, right metrics.Results, common []string) *WeightedDominance {
	weightKeys := make([]string, 0, len(weights.Static))
	for metric := range weights.Static {
		weightKeys = append(weightKeys, metric)
	}
	sort.Strings(weightKeys)

	wd := &WeightedDominance{
		WeightedMetrics: len(weightKeys),
		DebtByMetric:    map[string]float64{},
	}
	for _, metric := range weightKeys {
		wd.DebtByMetric[metric] = 0
	}

	var worst FixtureDebt
	for _, name := range common {
		fixtureDebt := 0.0
		hasMetric := false
		fixtureWorse := false
		fixtureBetter := false
		for _, metric := range weightKeys {
			lval, lok := left[name].Metrics[metric]
			rval, rok := right[name].Metrics[metric]
			if !lok || !rok {
				continue
			}
			hasMetric = true
			delta := lval - rval
			if delta > eps {
				fixtureWorse = true
				debt := delta * weights.Static[metric]
				fixtureDebt += debt
				wd.DebtByMetric[metric] += debt
			} else if delta < -eps {
				fixtureBetter = true
			}
		}
		if !hasMetric {
			continue
		}
		wd.Comparable++
		if !fixtureWorse {
			wd.NonWorse++
			if fixtureBetter {
				wd.StrictlyBetter++
			}
		}
		if fixtureDebt > worst.Debt {
			worst = FixtureDebt{Fixture: name, Debt: fixtureDebt}
		}
	}
	if wd.Comparable == 0 {
		return nil
	}

	for _, debt := range wd.DebtByMetric {
		wd.TotalDebt += debt
	}

	var ranked []string
	for _, metric := range weightKeys {
		if wd.DebtByMetric[metric] > 0 {
			ranked = append(ranked, metric)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return wd.DebtByMetric[ranked[i]] > wd.DebtByMetric[ranked[j]]
	})
	if len(ranked) > topContributorLimit {
		ranked = ranked[:topContributorLimit]
	}
	for _, metric := range ranked {
		mc := countMetric(left, right, common, metric)
		wd.TopContributors = append(wd.TopContributors, Contributor{
			Metric: metric,
			Debt:   wd.DebtByMetric[metric],
			Better: mc.Better,
			Equal:  mc.Equal,
			Worse:  mc.Worse,
		})
	}
	if worst.Debt > 0 {
		wd.WorstFixture = &worst
	}
	return wd
}
