package qacli

import (
	"bytes"
	"context"
	"encoding/json"

	"cdr.dev/slog"

	"oss.terrastruct.com/util-go/xdefer"
	"oss.terrastruct.com/util-go/xmain"

	"github.com/layoutqa/layoutqa/lib/log"
	"github.com/layoutqa/layoutqa/metrics"
	"github.com/layoutqa/layoutqa/scene"
	"github.com/layoutqa/layoutqa/sourcetext"
	"github.com/layoutqa/layoutqa/svgscene"
	"github.com/layoutqa/layoutqa/weights"
)

type scoreOpts struct {
	out    string
	svg    string
	source string
	kind   string
}

func scoreCmd(ctx context.Context, ms *xmain.State, opts scoreOpts) (err error) {
	defer xdefer.Errorf(&err, "failed to score layout")

	if len(ms.Opts.Flags.Args()) != 2 {
		return xmain.UsageErrorf("score expects exactly one layout file")
	}
	layoutPath := ms.Opts.Flags.Arg(1)

	input, err := readInput(ms, layoutPath)
	if err != nil {
		return err
	}
	native, err := scene.FromNative(input)
	if err != nil {
		return err
	}

	var source string
	if opts.source != "" {
		raw, err := readInput(ms, opts.source)
		if err != nil {
			return err
		}
		source = string(raw)
	}

	kind := scene.ParseKind(opts.kind)
	if kind == scene.KindUnknown && source != "" {
		kind = sourcetext.DetectKind(source)
	}
	native.Kind = kind

	rec := metrics.Compute(native)

	if opts.svg != "" {
		raw, err := readInput(ms, opts.svg)
		if err != nil {
			return err
		}
		ex, err := svgscene.Read(bytes.NewReader(raw))
		if err != nil {
			return err
		}
		log.Debug(ctx, "extracted rendered scene",
			slog.F("nodes", len(ex.Nodes)),
			slog.F("edge_paths", len(ex.EdgePaths)),
			slog.F("skipped", ex.Skipped))

		rendered := ex.Scene(kind)
		params := metrics.LabelParams{AllowFallback: true}
		if source != "" {
			params.AllowFallback = sourcetext.HasEdgeLabels(source, kind)
			params.ExpectedEdgeLabels = sourcetext.ExpectedMessageLabels(source)
		}
		rec.Merge(metrics.ComputeLabels(rendered, ex.EdgeLabelBoxes, params))
		rec.Merge(metrics.ComputeEdgePaths(ex.EdgePaths))
	}

	weights.Attach(rec)
	log.Info(ctx, "scored layout", slog.F("metrics", len(rec)), slog.F("score", rec["score"]))

	out, err := json.MarshalIndent(metrics.Result{Metrics: rec}, "", "  ")
	if err != nil {
		return err
	}
	return writeOutput(ms, opts.out, append(out, '\n'))
}
