package weights

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/layoutqa/layoutqa/metrics"
)

// spanEps is the min/max span under which a metric is constant across the
// corpus and carries no ranking information.
const spanEps = 1e-9

const minLayoutMS = 0.1

type Mode string

const (
	// ModeCritic weighs metrics by contrast: high variance and low
	// correlation to the other metrics earns a higher weight.
	ModeCritic Mode = "critic"
	// ModeManual uses the hand-tuned Manual table over the active metrics.
	ModeManual Mode = "manual"
)

// Span is a metric's observed range across the corpus.
type Span struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Profile is a derived weight model. Metrics lists the active keys, in the
// order they were requested; Weights sums to 1 over them.
type Profile struct {
	Mode          Mode               `json:"mode"`
	Metrics       []string           `json:"metrics"`
	Weights       map[string]float64 `json:"weights"`
	Normalization map[string]Span    `json:"normalization"`
	RawImportance map[string]float64 `json:"raw_importance"`
}

func safeNum(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func popStdDev(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	return math.Sqrt(stat.MomentAbout(2, vals, stat.Mean(vals, nil), nil))
}

func popCorrelation(a, b []float64) float64 {
	if len(a) != len(b) || len(a) < 2 {
		return 0
	}
	if popStdDev(a) < spanEps || popStdDev(b) < spanEps {
		return 0
	}
	return stat.Correlation(a, b, nil)
}

// Derive builds a weight profile from a corpus of metric records. Metrics
// missing from a record read as zero; metrics with no spread across the
// corpus are recorded in Normalization but excluded from the model.
func Derive(rows []metrics.Record, keys []string, mode Mode) *Profile {
	p := &Profile{
		Mode:          mode,
		Metrics:       []string{},
		Weights:       map[string]float64{},
		Normalization: map[string]Span{},
		RawImportance: map[string]float64{},
	}
	if len(rows) == 0 {
		return p
	}

	normalized := map[string][]float64{}
	for _, key := range keys {
		vals := make([]float64, len(rows))
		for i, row := range rows {
			vals[i] = safeNum(row[key])
		}
		lo, hi := vals[0], vals[0]
		for _, v := range vals[1:] {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		p.Normalization[key] = Span{Min: lo, Max: hi}
		if hi-lo < spanEps {
			continue
		}
		nvals := make([]float64, len(vals))
		for i, v := range vals {
			nvals[i] = (v - lo) / (hi - lo)
		}
		normalized[key] = nvals
		p.Metrics = append(p.Metrics, key)
	}
	if len(p.Metrics) == 0 {
		return p
	}

	raw := map[string]float64{}
	if mode == ModeManual {
		for _, key := range p.Metrics {
			w, ok := Manual[key]
			if !ok {
				w = 1
			}
			raw[key] = w
		}
	} else {
		for _, key := range p.Metrics {
			vals := normalized[key]
			contrast := 0.0
			for _, other := range p.Metrics {
				if other == key {
					continue
				}
				contrast += 1 - math.Abs(popCorrelation(vals, normalized[other]))
			}
			raw[key] = popStdDev(vals) * math.Max(contrast, 1e-6)
		}
	}
	p.RawImportance = raw

	total := 0.0
	for _, v := range raw {
		total += v
	}
	if total <= 1e-12 {
		eq := 1.0 / float64(len(p.Metrics))
		for _, key := range p.Metrics {
			p.Weights[key] = eq
		}
	} else {
		for key, v := range raw {
			p.Weights[key] = v / total
		}
	}
	return p
}

// Priority is a fixture's pain breakdown under a profile.
type Priority struct {
	PainScore       float64            `json:"pain_score"`
	PainPerLayoutMS float64            `json:"pain_per_layout_ms"`
	HardViolations  int                `json:"hard_violations"`
	Components      map[string]float64 `json:"components"`
}

// hardViolationMetrics are the indicator metrics whose mere presence marks a
// fixture as broken rather than merely ugly.
var hardViolationMetrics = []string{
	"edge_crossings",
	"edge_node_crossings",
	"node_overlap_count",
	"label_overlap_count",
}

// Score normalizes rec against the profile's observed spans, clamps to
// [0, 1] and sums the weighted terms. layoutMS is floored so fast fixtures
// do not produce unbounded pain-per-millisecond figures.
func (p *Profile) Score(rec metrics.Record, layoutMS float64) Priority {
	contrib := make(map[string]float64, len(p.Metrics))
	score := 0.0
	for _, key := range p.Metrics {
		span := p.Normalization[key]
		nv := 0.0
		if span.Max-span.Min >= spanEps {
			nv = clamp01((safeNum(rec[key]) - span.Min) / (span.Max - span.Min))
		}
		term := p.Weights[key] * nv
		contrib[key] = term
		score += term
	}

	hard := 0
	for _, key := range hardViolationMetrics {
		if safeNum(rec[key]) > 0 {
			hard++
		}
	}
	return Priority{
		PainScore:       score,
		PainPerLayoutMS: score / math.Max(safeNum(layoutMS), minLayoutMS),
		HardViolations:  hard,
		Components:      contrib,
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
