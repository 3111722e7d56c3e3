package qacli

import (
	"bytes"
	"context"
	"encoding/json"

	"cdr.dev/slog"

	"oss.terrastruct.com/util-go/xdefer"
	"oss.terrastruct.com/util-go/xmain"

	"github.com/layoutqa/layoutqa/compare"
	"github.com/layoutqa/layoutqa/lib/log"
	"github.com/layoutqa/layoutqa/metrics"
)

func compareCmd(ctx context.Context, ms *xmain.State, out string) (err error) {
	defer xdefer.Errorf(&err, "failed to compare metrics")

	if len(ms.Opts.Flags.Args()) != 3 {
		return xmain.UsageErrorf("compare expects a left and a right results file")
	}

	read := func(path string) (metrics.Results, error) {
		raw, err := readInput(ms, path)
		if err != nil {
			return nil, err
		}
		return metrics.ReadResults(bytes.NewReader(raw))
	}
	left, err := read(ms.Opts.Flags.Arg(1))
	if err != nil {
		return err
	}
	right, err := read(ms.Opts.Flags.Arg(2))
	if err != nil {
		return err
	}

	rep := compare.Run(left, right)
	log.Info(ctx, "compared runs", slog.F("common_fixtures", rep.CommonFixtures))
	if rep.Core != nil {
		ms.Log.Info.Printf("core dominance: non-worse %d/%d, strictly better %d/%d",
			rep.Core.NonWorse, rep.Core.Comparable,
			rep.Core.StrictlyBetter, rep.Core.Comparable)
	}
	if rep.Weighted != nil {
		ms.Log.Info.Printf("weighted regression debt: %.2f", rep.Weighted.TotalDebt)
	}

	enc, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return writeOutput(ms, out, append(enc, '\n'))
}
