// Package qacli implements the layoutqa command line interface.
package qacli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"cdr.dev/slog"
	"github.com/spf13/pflag"

	"oss.terrastruct.com/util-go/xmain"

	"github.com/layoutqa/layoutqa/lib/log"
	"github.com/layoutqa/layoutqa/lib/version"
)

func Run(ctx context.Context, ms *xmain.State) (err error) {
	ctx = log.WithDefault(ctx)

	debugFlag, err := ms.Opts.Bool("DEBUG", "debug", "d", false, "print debug logs.")
	if err != nil {
		return err
	}
	outFlag := ms.Opts.String("", "out", "o", "-", "output path. Use - for stdout.")

	svgFlag := ms.Opts.String("", "svg", "", "", "rendered SVG to extract label and path metrics from (score, diff)")
	sourceFlag := ms.Opts.String("", "source", "", "", "diagram source text, used to infer the kind and expected edge labels (score)")
	kindFlag := ms.Opts.String("", "kind", "k", "", "diagram kind override: flowchart, sequence, class, state, er, treemap")

	baselineFlag := ms.Opts.String("", "baseline", "b", "", "baseline results JSON (gate)")
	relTolFlag := ms.Opts.String("", "rel-tol", "", "0.10", "relative tolerance for soft metrics (gate)")
	absTolFlag := ms.Opts.String("", "abs-tol", "", "1.0", "absolute tolerance for soft metrics (gate)")
	writeBaselineFlag, err := ms.Opts.Bool("", "write-baseline", "", false, "write the baseline file instead of gating")
	if err != nil {
		return err
	}

	modeFlag := ms.Opts.String("", "mode", "m", "critic", "weight model mode: critic or manual (weights)")
	topFlag, err := ms.Opts.Int64("", "top", "n", 10, "number of fixtures in the priority ranking (weights)")
	if err != nil {
		return err
	}

	err = ms.Opts.Flags.Parse(ms.Opts.Args)
	if !errors.Is(err, pflag.ErrHelp) && err != nil {
		return xmain.UsageErrorf("failed to parse flags: %v", err)
	}
	if errors.Is(err, pflag.ErrHelp) {
		help(ms)
		return nil
	}

	if *debugFlag {
		ctx = log.Leveled(ctx, slog.LevelDebug)
	}

	relTol, err := strconv.ParseFloat(*relTolFlag, 64)
	if err != nil {
		return xmain.UsageErrorf("invalid --rel-tol: %v", err)
	}
	absTol, err := strconv.ParseFloat(*absTolFlag, 64)
	if err != nil {
		return xmain.UsageErrorf("invalid --abs-tol: %v", err)
	}

	if len(ms.Opts.Flags.Args()) == 0 {
		help(ms)
		return nil
	}

	switch ms.Opts.Flags.Arg(0) {
	case "score":
		return scoreCmd(ctx, ms, scoreOpts{
			out:    *outFlag,
			svg:    *svgFlag,
			source: *sourceFlag,
			kind:   *kindFlag,
		})
	case "gate":
		return gateCmd(ctx, ms, gateOpts{
			baseline:      *baselineFlag,
			relTol:        relTol,
			absTol:        absTol,
			writeBaseline: *writeBaselineFlag,
		})
	case "compare":
		return compareCmd(ctx, ms, *outFlag)
	case "weights":
		return weightsCmd(ctx, ms, *outFlag, *modeFlag, int(*topFlag))
	case "diff":
		return diffCmd(ctx, ms, *outFlag)
	case "version":
		if len(ms.Opts.Flags.Args()) > 1 {
			return xmain.UsageErrorf("version subcommand accepts no arguments")
		}
		fmt.Println(version.Version)
		return nil
	default:
		return xmain.UsageErrorf("unknown command %q, run with --help for usage", ms.Opts.Flags.Arg(0))
	}
}

func help(ms *xmain.State) {
	fmt.Fprintf(ms.Stdout, `Usage:
  %[1]s score <layout.json> [--svg rendered.svg] [--source diagram.mmd] [--kind kind] [-o out.json]
    Compute quality metrics for one laid-out diagram.

  %[1]s gate <current.json> --baseline <baseline.json> [--rel-tol 0.10] [--abs-tol 1.0] [--write-baseline]
    Check a metrics run against a recorded baseline.

  %[1]s compare <left.json> <right.json> [-o report.json]
    Compare two metrics runs fixture by fixture.

  %[1]s weights <results.json> [--mode critic|manual] [--top 10] [-o profile.json]
    Derive a weight profile and rank fixtures by quality pain.

  %[1]s diff <layout.json> --svg <rendered.svg> [-o report.json]
    Measure node drift between a layout record and its rendering.

  %[1]s version
    Print version.
`, ms.Name)
}

// readInput reads a path, treating - as stdin.
func readInput(ms *xmain.State, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(ms.Stdin)
	}
	return ms.ReadPath(ms.AbsPath(path))
}

// writeOutput writes to a path, treating - as stdout.
func writeOutput(ms *xmain.State, path string, data []byte) error {
	if path == "-" {
		_, err := ms.Stdout.Write(data)
		return err
	}
	return ms.WritePath(ms.AbsPath(path), data)
}
