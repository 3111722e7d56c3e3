package qacli

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"

	"cdr.dev/slog"

	"oss.terrastruct.com/util-go/xdefer"
	"oss.terrastruct.com/util-go/xmain"

	"github.com/layoutqa/layoutqa/lib/log"
	"github.com/layoutqa/layoutqa/metrics"
	"github.com/layoutqa/layoutqa/weights"
)

type rankedFixture struct {
	Fixture  string           `json:"fixture"`
	Priority weights.Priority `json:"priority"`
}

type weightsReport struct {
	Profile *weights.Profile `json:"profile"`
	Ranking []rankedFixture  `json:"ranking"`
	Errored []string         `json:"errored_fixtures,omitempty"`
}

func weightsCmd(ctx context.Context, ms *xmain.State, out, mode string, top int) (err error) {
	defer xdefer.Errorf(&err, "failed to derive weight profile")

	if len(ms.Opts.Flags.Args()) != 2 {
		return xmain.UsageErrorf("weights expects exactly one results file")
	}
	var m weights.Mode
	switch weights.Mode(mode) {
	case weights.ModeCritic, weights.ModeManual:
		m = weights.Mode(mode)
	default:
		return xmain.UsageErrorf("invalid --mode %q: want critic or manual", mode)
	}

	raw, err := readInput(ms, ms.Opts.Flags.Arg(1))
	if err != nil {
		return err
	}
	results, err := metrics.ReadResults(bytes.NewReader(raw))
	if err != nil {
		return err
	}

	rep := &weightsReport{}
	var fixtures []string
	var rows []metrics.Record
	for _, name := range results.Fixtures() {
		res := results[name]
		if res.Failed() {
			rep.Errored = append(rep.Errored, name)
			continue
		}
		fixtures = append(fixtures, name)
		rows = append(rows, res.Metrics)
	}

	rep.Profile = weights.Derive(rows, weights.DefaultPriorityMetrics, m)
	log.Info(ctx, "derived weight profile",
		slog.F("mode", m),
		slog.F("active_metrics", len(rep.Profile.Metrics)),
		slog.F("fixtures", len(rows)))

	for i, name := range fixtures {
		rec := rows[i]
		rep.Ranking = append(rep.Ranking, rankedFixture{
			Fixture:  name,
			Priority: rep.Profile.Score(rec, rec["layout_ms"]),
		})
	}
	sort.SliceStable(rep.Ranking, func(i, j int) bool {
		return rep.Ranking[i].Priority.PainScore > rep.Ranking[j].Priority.PainScore
	})
	if top > 0 && len(rep.Ranking) > top {
		rep.Ranking = rep.Ranking[:top]
	}
	for i, r := range rep.Ranking {
		ms.Log.Info.Printf("%2d. %s pain=%.3f pain/ms=%.3f hard=%d",
			i+1, r.Fixture, r.Priority.PainScore, r.Priority.PainPerLayoutMS, r.Priority.HardViolations)
	}

	enc, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return writeOutput(ms, out, append(enc, '\n'))
}
