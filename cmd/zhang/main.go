package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/KushNee/zhang/cli"
)

func main() {
	// A .env beside the working directory may carry ZHANG_LOG and
	// ZHANG_AUTH_TOKEN; absence is fine.
	_ = godotenv.Load()
	configureLogging()

	commands := &cli.Commands{}

	parser, err := kong.New(commands,
		kong.Name("zhang"),
		kong.Description("A plain-text double-entry accounting engine."),
		kong.UsageOnError(),
	)
	if err != nil {
		log.Fatal(err)
	}

	ctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "zhang: %v\n", err)
		os.Exit(cli.ExitUsage)
	}

	if err := ctx.Run(&commands.Globals); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}

// configureLogging applies the ZHANG_LOG level to the standard logger.
// The engine logs at warn level by default; "error" silences it and
// "debug" adds timestamps with microseconds.
func configureLogging() {
	switch os.Getenv("ZHANG_LOG") {
	case "error":
		log.SetOutput(io.Discard)
	case "debug":
		log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	}
}
