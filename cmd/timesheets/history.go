package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"timesheets/internal/cli"
	"timesheets/internal/config"
	"timesheets/internal/core"
)

type historyOptions struct {
	*rootOptions
	dbPath string
	limit  int
	run    string
}

func newHistoryCmd(root *rootOptions) *cobra.Command {
	opts := &historyOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past generation runs from the run journal",
		Long: `Lists the latest generation runs with the number of timesheets each one
exported or deleted. With --run, lists the timesheets of a single run.

Examples:
  timesheets history
  timesheets history --limit 5
  timesheets history --run 1b4e28ba-2fa1-11d2-883f-0016d3cca427`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "Journal database path, overrides SQLITE_DB_PATH")
	cmd.Flags().IntVar(&opts.limit, "limit", 20, "Number of runs to list")
	cmd.Flags().StringVar(&opts.run, "run", "", "Show the timesheets of this run")
	return cmd
}

func runHistory(cmd *cobra.Command, opts *historyOptions) error {
	if err := cli.LoadEnvFile(opts.envFile); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	logger := cli.SetupLogger(logLevel(opts.rootOptions), cmd.ErrOrStderr())

	dbPath := opts.dbPath
	if dbPath == "" {
		dbPath = config.Load().SQLiteDBPath
	}
	journal, err := cli.InitJournal(logger, dbPath)
	if err != nil {
		return err
	}
	if journal == nil {
		return errors.New("run journal is disabled: set SQLITE_DB_PATH or --db")
	}
	defer journal.Close()

	ctx := cmd.Context()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	if opts.run != "" {
		events, err := journal.Timesheets(ctx, opts.run)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "SHEET\tACTION\tDAYS\tFILE")
		for _, ev := range events {
			if ev.Action == core.ActionExported {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ev.SheetName, ev.Action, ev.TotalDays, ev.FileURL)
			} else {
				fmt.Fprintf(w, "%s\t%s\t\t\n", ev.SheetName, ev.Action)
			}
		}
		return nil
	}

	runs, err := journal.RecentRuns(ctx, opts.limit)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "RUN\tPROJECT\tSTARTED\tSTATUS\tEXPORTED\tDELETED\tERROR")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			r.ID, r.Project, r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Status, r.Exported, r.Pruned, r.Error)
	}
	return nil
}
