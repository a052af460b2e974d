package cli

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/KushNee/zhang/exporter"
	"github.com/KushNee/zhang/telemetry"
)

type ExportCmd struct {
	File string `help:"Ledger file to export." arg:"" type:"existingfile"`
}

func (cmd *ExportCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx := context.Background()

	if globals.Telemetry {
		collector := telemetry.NewTimingCollector()
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

	_, _ = fmt.Fprint(ctx.Stdout, exporter.Stream(snapshot.Directives))

	if snapshot.HasErrors() {
		for _, diag := range snapshot.Diagnostics {
			printError(ctx.Stderr, fmt.Sprintf("[%s] %s", diag.Kind(), diag.Error()))
		}
		return &ExitError{
			Code:    ExitDiagnostics,
			Message: fmt.Sprintf("%d diagnostic(s) found", len(snapshot.Diagnostics)),
		}
	}

	return nil
}
