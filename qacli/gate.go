package qacli

import (
	"bytes"
	"context"
	"errors"

	"cdr.dev/slog"
	"go.uber.org/multierr"

	"oss.terrastruct.com/util-go/xdefer"
	"oss.terrastruct.com/util-go/xmain"

	"github.com/layoutqa/layoutqa/gate"
	"github.com/layoutqa/layoutqa/lib/log"
	"github.com/layoutqa/layoutqa/metrics"
)

type gateOpts struct {
	baseline      string
	relTol        float64
	absTol        float64
	writeBaseline bool
}

func gateCmd(ctx context.Context, ms *xmain.State, opts gateOpts) (err error) {
	defer xdefer.Errorf(&err, "failed to gate metrics")

	if len(ms.Opts.Flags.Args()) != 2 {
		return xmain.UsageErrorf("gate expects exactly one current results file")
	}
	if opts.baseline == "" {
		return xmain.UsageErrorf("gate requires --baseline")
	}

	raw, err := readInput(ms, ms.Opts.Flags.Arg(1))
	if err != nil {
		return err
	}
	current, err := metrics.ReadResults(bytes.NewReader(raw))
	if err != nil {
		return err
	}

	if opts.writeBaseline {
		var buf bytes.Buffer
		if err := metrics.WriteResults(&buf, current); err != nil {
			return err
		}
		if err := ms.WritePath(ms.AbsPath(opts.baseline), buf.Bytes()); err != nil {
			return err
		}
		ms.Log.Success.Printf("wrote baseline %s (%d fixtures)", opts.baseline, len(current))
		return nil
	}

	raw, err = readInput(ms, opts.baseline)
	if err != nil {
		return err
	}
	baseline, err := metrics.ReadResults(bytes.NewReader(raw))
	if err != nil {
		return err
	}

	policy := gate.Policy{RelTol: opts.relTol, AbsTol: opts.absTol}
	rep := policy.Check(baseline, current)
	log.Debug(ctx, "gate run",
		slog.F("checked", rep.Checked),
		slog.F("violations", len(rep.Violations)))

	if rep.Passed() {
		ms.Log.Success.Printf("quality gate passed: %d fixtures checked", rep.Checked)
		return nil
	}
	var verr error
	for _, v := range rep.Violations {
		verr = multierr.Append(verr, errors.New(v.String()))
	}
	return verr
}
