package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"timesheets/internal/backend"
	"timesheets/internal/cli"
	"timesheets/internal/config"
	"timesheets/internal/core"
	"timesheets/internal/log"
	"timesheets/internal/services"
)

type generateOptions struct {
	*rootOptions
	backend string
	dataDir string
}

func newGenerateCmd(root *rootOptions) *cobra.Command {
	opts := &generateOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Create, replace or delete every timesheet of the project",
		Long: `Reads the run parameters from the "Accueil" sheet, then for every year with
declared time and every person of the project, replaces the "<person> <year>"
sheet and its PDF export. Persons without time in a year lose that year's
sheet and PDF.

Examples:
  timesheets generate                               # Google workbook from .env
  timesheets generate --backend memory --data-dir ./data/workbook`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.backend, "backend", "", "Data backend (sheets|memory), overrides DATA_BACKEND")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "", "CSV workbook directory for the memory backend, overrides DATA_DIR")
	return cmd
}

func runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	if err := cli.LoadEnvFile(opts.envFile); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	logger := cli.SetupLogger(logLevel(opts.rootOptions), cmd.ErrOrStderr())

	cfg, err := cli.LoadAndValidateConfig(logger, func(c *config.Config) {
		if opts.backend != "" {
			c.DataBackend = opts.backend
		}
		if opts.dataDir != "" {
			c.DataDir = opts.dataDir
		}
	})
	if err != nil {
		return err
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger.Named(log.ComponentBackend)).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Warn("Cleanup failed", log.FieldError, err)
		}
	}()

	genOpts := []services.Option{services.WithLogger(logger.Named(log.ComponentGenerator))}
	if res.Journal != nil {
		genOpts = append(genOpts, services.WithJournal(res.Journal))
	}
	if res.Notifier != nil {
		genOpts = append(genOpts, services.WithNotifier(res.Notifier))
	}
	gen, err := services.NewGenerator(res.Workspace, genOpts...)
	if err != nil {
		return err
	}

	summary, err := gen.Run(ctx)
	if err != nil {
		return err
	}
	printSummary(cmd, summary)
	return nil
}

func printSummary(cmd *cobra.Command, s services.Summary) {
	out := cmd.OutOrStdout()
	if !s.HasYears {
		fmt.Fprintf(out, "Project %s: no declared time, nothing generated (%d rows of other projects)\n", s.Project, s.Ignored)
		return
	}
	fmt.Fprintf(out, "Project %s, %d-%d: %d exported, %d deleted\n",
		s.Project, s.Years.First, s.Years.Last,
		s.Count(core.ActionExported), s.Count(core.ActionPruned))
	fmt.Fprintf(out, "Folder: %s\n", s.Folder.URL)
	for _, ev := range s.Events {
		if ev.Action == core.ActionExported {
			fmt.Fprintf(out, "  %-30s %6s days  %s\n", ev.SheetName, ev.TotalDays, ev.FileURL)
		} else {
			fmt.Fprintf(out, "  %-30s deleted\n", ev.SheetName)
		}
	}
}

func logLevel(opts *rootOptions) string {
	if opts.logLevel != "" {
		return opts.logLevel
	}
	return os.Getenv("LOG_LEVEL")
}
