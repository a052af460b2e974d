package cli

// Globals defines global flags available to all commands.
type Globals struct {
	Telemetry bool `help:"Show timing telemetry for operations."`
}

// Commands is the kong command tree.
type Commands struct {
	Globals

	Serve  ServeCmd  `cmd:"" help:"Run the controller and the read/write HTTP interface."`
	Export ExportCmd `cmd:"" help:"Dump the evaluated ledger as a normalized directive stream."`
	Check  CheckCmd  `cmd:"" help:"Parse and evaluate a ledger, reporting diagnostics."`
}
