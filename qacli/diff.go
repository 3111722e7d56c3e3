package qacli

import (
	"bytes"
	"context"
	"encoding/json"

	"cdr.dev/slog"

	"oss.terrastruct.com/util-go/xdefer"
	"oss.terrastruct.com/util-go/xmain"

	"github.com/layoutqa/layoutqa/lib/log"
	"github.com/layoutqa/layoutqa/scene"
	"github.com/layoutqa/layoutqa/scenediff"
	"github.com/layoutqa/layoutqa/svgscene"
)

func diffCmd(ctx context.Context, ms *xmain.State, out string) (err error) {
	defer xdefer.Errorf(&err, "failed to diff layout against rendering")

	var layoutPath, svgPath string
	switch len(ms.Opts.Flags.Args()) {
	case 2:
		layoutPath = ms.Opts.Flags.Arg(1)
		svgPath = ms.Opts.Flags.Lookup("svg").Value.String()
	case 3:
		layoutPath = ms.Opts.Flags.Arg(1)
		svgPath = ms.Opts.Flags.Arg(2)
	default:
		return xmain.UsageErrorf("diff expects a layout file and a rendered SVG")
	}
	if svgPath == "" {
		return xmain.UsageErrorf("diff requires --svg or a second argument")
	}

	raw, err := readInput(ms, layoutPath)
	if err != nil {
		return err
	}
	native, err := scene.FromNative(raw)
	if err != nil {
		return err
	}

	raw, err = readInput(ms, svgPath)
	if err != nil {
		return err
	}
	ex, err := svgscene.Read(bytes.NewReader(raw))
	if err != nil {
		return err
	}

	rep := scenediff.Diff(native, ex)
	log.Info(ctx, "diffed scenes",
		slog.F("matched", rep.Summary.Count),
		slog.F("missing", len(rep.Missing)),
		slog.F("mean_distance", rep.Summary.MeanDistance))

	enc, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return writeOutput(ms, out, append(enc, '\n'))
}
