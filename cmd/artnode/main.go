// Command artnode runs (or talks to) an Art-Net 4 node. Grounded on
// go-coffee's gocoffee-cli/main.go (signal-cancelable context, zap
// logger init wrapped by internal/logging, cobra root command) and
// lacylights-go's optional .env load via godotenv.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gopatchy/artnode/internal/logging"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// No .env file is the common case outside development; the node
		// runs fine from plain environment variables or flags.
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root := newRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string
	var logLevel string
	var logFormat string

	root := &cobra.Command{
		Use:           "artnode",
		Short:         "Art-Net 4 node: run, probe, and control a lighting-control endpoint",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console, json)")

	env := &cliEnv{configPath: &configPath, logLevel: &logLevel, logFormat: &logFormat}

	root.AddCommand(
		newStartNodeCommand(env),
		newStopNodeCommand(),
		newSendDMXCommand(),
		newSendRdmCommand(),
		newSendSyncCommand(),
		newSendDiagnosticCommand(),
		newStateCommand(),
		newEnqueueCommandCommand(),
	)
	return root
}

// cliEnv threads the persistent flags into subcommands without a package
// global, the way gocoffee-cli threads its *config.Config through
// NewRootCommand's constructor arguments.
type cliEnv struct {
	configPath *string
	logLevel   *string
	logFormat  *string
}

func (e *cliEnv) logger() *logging.Logger {
	return logging.New(*e.logLevel, *e.logFormat)
}
