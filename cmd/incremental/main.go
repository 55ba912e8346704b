package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/incremental/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		errors.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var opts globalOptions

	cmd := &cobra.Command{
		Use:   "incremental",
		Short: "Run and inspect the incremental state runtime",
		Long: `incremental drives a small node tree through the state runtime.

It shows how buffered writes, update passes and deferred callbacks
turn into recomputed scopes and reordered children, and can serve the
live state over HTTP or export a journal of every pass.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configDir, "config", "c", ".", "Directory containing incremental.json or incremental.yaml")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&opts.trace, "trace", false, "Export spans to stderr")

	cmd.AddCommand(
		demoCmd(&opts),
		inspectCmd(&opts),
		exportCmd(&opts),
		versionCmd(),
	)
	return cmd
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
