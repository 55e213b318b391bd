package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"timesheets/internal/core"
)

// Exit codes
const (
	exitOK = iota
	exitFailure
	exitConfiguration
)

type rootOptions struct {
	envFile  string
	logLevel string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "timesheets",
		Short: "Generate project timesheets from declared time",
		Long: `timesheets reads the "Import temps déclarés" sheet, aggregates the declared
days of the configured project per person and month, fills one copy of the
"Template" sheet per person and year and exports each copy as PDF into a
folder named after the project acronym.

Every run deletes and recreates the timesheets it produces.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Path to a .env file (default: ./.env when present)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug|info|warn|error), overrides LOG_LEVEL")

	root.AddCommand(newGenerateCmd(opts), newHistoryCmd(opts))
	return root
}

// execute runs the command line and maps the outcome to an exit code.
// Unusable run parameters print the operator alert instead of the error.
func execute(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return exitOK
	}
	var cfgErr *core.ConfigError
	if errors.As(err, &cfgErr) {
		fmt.Fprintln(stderr, cfgErr.UserMessage())
		return exitConfiguration
	}
	fmt.Fprintln(stderr, "Error:", err)
	return exitFailure
}
