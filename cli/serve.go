package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/KushNee/zhang/controller"
	"github.com/KushNee/zhang/mutation"
	"github.com/KushNee/zhang/telemetry"
	"github.com/KushNee/zhang/web"
)

type ServeCmd struct {
	File    string `help:"Ledger file to serve." arg:""`
	Port    int    `help:"Port to listen on." default:"8000"`
	Addr    string `help:"Host address to bind." default:"127.0.0.1"`
	NoWatch bool   `help:"Disable the filesystem watcher." name:"no-watch"`
	Routing string `help:"File routing for appended directives." enum:"single,monthly" default:"single"`
	Create  bool   `help:"Automatically create the file if it doesn't exist (no confirmation prompt)." short:"c"`
}

func (cmd *ServeCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx := context.Background()

	if globals.Telemetry {
		collector := telemetry.NewTimingCollector()
		runCtx = telemetry.WithCollector(runCtx, collector)
		defer func() {
			_, _ = fmt.Fprintln(ctx.Stderr)
			collector.Report(ctx.Stderr)
		}()
	}

	ledgerFile, err := filepath.Abs(cmd.File)
	if err != nil {
		return &ExitError{Code: ExitIO, Message: fmt.Sprintf("failed to resolve absolute path: %v", err)}
	}

	if err := cmd.ensureFile(ctx, ledgerFile); err != nil {
		return err
	}

	var opts []controller.Option
	if cmd.NoWatch {
		opts = append(opts, controller.WithoutWatch())
	}

	ctl := controller.New(ledgerFile, opts...)
	if err := ctl.Start(runCtx); err != nil {
		printError(ctx.Stderr, err.Error())
		return &ExitError{Code: ExitIO, Message: err.Error()}
	}
	defer func() { _ = ctl.Close() }()

	var mutationOpts []mutation.Option
	if cmd.Routing == "monthly" {
		mutationOpts = append(mutationOpts, mutation.WithMonthlyRouting())
	}

	server := web.New(ctl, mutation.New(ledgerFile, mutationOpts...))
	server.Host = cmd.Addr
	server.Port = cmd.Port
	server.WatchEnabled = !cmd.NoWatch
	server.AuthToken = os.Getenv("ZHANG_AUTH_TOKEN")

	version := Version
	if version == "" {
		version = "dev"
	}

	printInfof(ctx.Stdout, "Starting zhang %s on %s:%d", version, cmd.Addr, cmd.Port)
	printInfof(ctx.Stdout, "Serving ledger: %s", pathStyle.Render(ledgerFile))
	if snapshot := ctl.Snapshot(); snapshot.HasErrors() {
		printInfof(ctx.Stdout, "Ledger loaded with %d diagnostic(s)", len(snapshot.Diagnostics))
	}
	if server.AuthToken != "" {
		printInfof(ctx.Stdout, "Mutation endpoints require a bearer token")
	}

	if err := server.Start(runCtx); err != nil {
		printError(ctx.Stderr, err.Error())
		return &ExitError{Code: ExitIO, Message: err.Error()}
	}

	return nil
}

// ensureFile creates the ledger file when missing, prompting unless --create
// was given.
func (cmd *ServeCmd) ensureFile(ctx *kong.Context, ledgerFile string) error {
	_, err := os.Stat(ledgerFile)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return &ExitError{Code: ExitIO, Message: fmt.Sprintf("failed to access file: %v", err)}
	}

	shouldCreate := cmd.Create
	if !shouldCreate {
		confirmed, err := promptYesNo(fmt.Sprintf("File %q does not exist. Create it?", ledgerFile))
		if err != nil {
			return &ExitError{Code: ExitIO, Message: fmt.Sprintf("failed to read confirmation: %v", err)}
		}
		shouldCreate = confirmed
	}

	if !shouldCreate {
		return &ExitError{Code: ExitIO, Message: fmt.Sprintf("file does not exist: %s", ledgerFile)}
	}

	if err := os.MkdirAll(filepath.Dir(ledgerFile), 0o755); err != nil {
		return &ExitError{Code: ExitIO, Message: fmt.Sprintf("failed to create parent directory: %v", err)}
	}
	if err := os.WriteFile(ledgerFile, []byte(""), 0o600); err != nil {
		return &ExitError{Code: ExitIO, Message: fmt.Sprintf("failed to create file: %v", err)}
	}

	printInfof(ctx.Stdout, "Created empty ledger file: %s", pathStyle.Render(ledgerFile))
	return nil
}
