package compare_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layoutqa/layoutqa/compare"
	"github.com/layoutqa/layoutqa/metrics"
)

func scoredRecord(score, crossings float64) metrics.Result {
	return metrics.Result{Metrics: metrics.Record{
		"score":                     score,
		"edge_crossings":            crossings,
		"arrow_path_intersections":  0,
		"label_overlap_count":       0,
		"label_out_of_bounds_count": 0,
	}}
}

func TestCommon(t *testing.T) {
	t.Parallel()

	left := metrics.Results{
		"a": scoredRecord(10, 0),
		"b": {Err: "boom"},
		"c": scoredRecord(5, 1),
		"d": {Metrics: metrics.Record{"edge_crossings": 1}}, // unscored
	}
	right := metrics.Results{
		"a": scoredRecord(12, 1),
		"b": scoredRecord(1, 0),
		"c": scoredRecord(5, 1),
	}
	assert.Equal(t, []string{"a", "c"}, compare.Common(left, right))
}

func TestRun_MetricCounts(t *testing.T) {
	t.Parallel()

	left := metrics.Results{
		"a": scoredRecord(10, 0),
		"b": scoredRecord(20, 3),
		"c": scoredRecord(5, 1),
	}
	right := metrics.Results{
		"a": scoredRecord(12, 0),
		"b": scoredRecord(8, 1),
		"c": scoredRecord(5, 1),
	}
	rep := compare.Run(left, right)
	assert.Equal(t, 3, rep.CommonFixtures)

	score := rep.Metrics["score"]
	assert.Equal(t, 1, score.Better)
	assert.Equal(t, 1, score.Equal)
	assert.Equal(t, 1, score.Worse)
	require.NotNil(t, score.WorstRegression)
	assert.Equal(t, "b", score.WorstRegression.Fixture)
	assert.InDelta(t, 12.0, score.WorstRegression.Delta, 1e-9)

	crossings := rep.Metrics["edge_crossings"]
	assert.Equal(t, 1, crossings.Worse)
	require.NotNil(t, crossings.WorstRegression)
	assert.Equal(t, 2.0, crossings.WorstRegression.Delta)
}

func TestRun_CoreDominance(t *testing.T) {
	t.Parallel()

	left := metrics.Results{
		"a": scoredRecord(10, 0), // strictly better on score
		"b": scoredRecord(20, 1), // equal
		"c": scoredRecord(9, 2),  // worse on crossings
	}
	right := metrics.Results{
		"a": scoredRecord(12, 0),
		"b": scoredRecord(20, 1),
		"c": scoredRecord(9, 1),
	}
	rep := compare.Run(left, right)
	require.NotNil(t, rep.Core)
	assert.Equal(t, 3, rep.Core.Comparable)
	assert.Equal(t, 2, rep.Core.NonWorse)
	assert.Equal(t, 1, rep.Core.StrictlyBetter)
}

func TestRun_IncompleteFixtureNotComparable(t *testing.T) {
	t.Parallel()

	left := metrics.Results{
		"a": {Metrics: metrics.Record{"score": 1, "edge_crossings": 0}},
	}
	right := metrics.Results{
		"a": {Metrics: metrics.Record{"score": 1, "edge_crossings": 0}},
	}
	rep := compare.Run(left, right)
	require.NotNil(t, rep.Core)
	assert.Equal(t, 0, rep.Core.Comparable)
}

func TestRun_WeightedDominance(t *testing.T) {
	t.Parallel()

	mk := func(crossings, length float64) metrics.Result {
		r := scoredRecord(0, crossings)
		r.Metrics["total_edge_length"] = length
		return r
	}
	left := metrics.Results{
		"a": mk(2, 100), // +1 crossing, +10 length
		"b": mk(0, 50),  // better on length
	}
	right := metrics.Results{
		"a": mk(1, 90),
		"b": mk(0, 60),
	}
	rep := compare.Run(left, right)
	wd := rep.Weighted
	require.NotNil(t, wd)

	assert.Equal(t, 2, wd.Comparable)
	assert.Equal(t, 1, wd.NonWorse)
	assert.Equal(t, 1, wd.StrictlyBetter)

	// 1 crossing * 5 + 10 length * 2
	assert.InDelta(t, 25.0, wd.TotalDebt, 1e-9)
	assert.InDelta(t, 20.0, wd.DebtByMetric["total_edge_length"], 1e-9)
	assert.InDelta(t, 5.0, wd.DebtByMetric["edge_crossings"], 1e-9)

	require.NotEmpty(t, wd.TopContributors)
	assert.Equal(t, "total_edge_length", wd.TopContributors[0].Metric)

	require.NotNil(t, wd.WorstFixture)
	assert.Equal(t, "a", wd.WorstFixture.Fixture)
	assert.InDelta(t, 25.0, wd.WorstFixture.Debt, 1e-9)
}

func TestRun_NoCommonFixtures(t *testing.T) {
	t.Parallel()

	rep := compare.Run(metrics.Results{"a": scoredRecord(1, 0)}, metrics.Results{})
	assert.Equal(t, 0, rep.CommonFixtures)
	assert.Nil(t, rep.Core)
	assert.Nil(t, rep.Weighted)
}

func TestRun_JitterIsEqual(t *testing.T) {
	t.Parallel()

	left := metrics.Results{"a": scoredRecord(10, 0)}
	right := metrics.Results{"a": scoredRecord(10+1e-12, 0)}
	rep := compare.Run(left, right)
	assert.Equal(t, 1, rep.Metrics["score"].Equal)
}
