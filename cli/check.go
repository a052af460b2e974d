package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/KushNee/zhang/ledger"
	"github.com/KushNee/zhang/loader"
	"github.com/KushNee/zhang/telemetry"
)

type CheckCmd struct {
	File string `help:"Ledger file to check." arg:"" type:"existingfile"`
}

func (cmd *CheckCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx := context.Background()

	var collector telemetry.Collector
	if globals.Telemetry {
		collector = telemetry.NewTimingCollector()
		runCtx = telemetry.WithCollector(runCtx, collector)
		defer func() {
			_, _ = fmt.Fprintln(ctx.Stderr)
			collector.Report(ctx.Stderr)
		}()
	}

	snapshot, err := evaluate(runCtx, cmd.File)
	if err != nil {
		printError(ctx.Stderr, err.Error())
		return &ExitError{Code: ExitIO, Message: err.Error()}
	}

	if snapshot.HasErrors() {
		for _, diag := range snapshot.Diagnostics {
			printError(ctx.Stderr, fmt.Sprintf("[%s] %s", diag.Kind(), diag.Error()))
		}
		_, _ = fmt.Fprintln(ctx.Stderr)
		message := fmt.Sprintf("%d diagnostic(s) found", len(snapshot.Diagnostics))
		printError(ctx.Stderr, message)
		return &ExitError{Code: ExitDiagnostics, Message: message}
	}

	printSuccess(ctx.Stdout, fmt.Sprintf("Check passed: %s", pathStyle.Render(filepath.Base(cmd.File))))
	return nil
}

// evaluate runs the loader and evaluator once and returns the snapshot.
// I/O failures come back as errors; everything else lands in diagnostics.
func evaluate(ctx context.Context, file string) (*ledger.Snapshot, error) {
	result, err := loader.New().Load(ctx, file)
	if err != nil {
		var ioErr *loader.IoError
		if errors.As(err, &ioErr) {
			return nil, ioErr
		}
		return nil, err
	}

	l := ledger.New()
	l.AddErrors(result.Errs...)
	l.Process(ctx, result.AST)
	return l.Snapshot(), nil
}
