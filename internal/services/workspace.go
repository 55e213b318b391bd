// Package services runs the timesheet generation: it reads the run
// parameters and the declared time, then creates, replaces or prunes one
// timesheet per person and year and exports each one as PDF.
package services

import (
	"context"
	"errors"
	"time"

	"timesheets/internal/core"
	"timesheets/internal/sheets"
)

// Default sheet names of the workbook.
const (
	DefaultParamsSheet   = "Accueil"
	DefaultImportSheet   = "Import temps déclarés"
	DefaultTemplateSheet = "Template"
)

// SheetNames locates the fixed sheets of the workbook.
type SheetNames struct {
	Params   string
	Import   string
	Template string
}

func DefaultSheetNames() SheetNames {
	return SheetNames{
		Params:   DefaultParamsSheet,
		Import:   DefaultImportSheet,
		Template: DefaultTemplateSheet,
	}
}

// Workspace is everything one run needs to reach the outside world. It is
// built once at the entry point and handed to the generator.
type Workspace struct {
	Book           sheets.Workbook
	Exporter       sheets.Exporter
	Folders        sheets.FolderStore
	Sheets         SheetNames
	ParentFolderID string
}

func (w Workspace) validate() error {
	var errs []error
	if w.Book == nil {
		errs = append(errs, errors.New("workbook is required"))
	}
	if w.Exporter == nil {
		errs = append(errs, errors.New("exporter is required"))
	}
	if w.Folders == nil {
		errs = append(errs, errors.New("folder store is required"))
	}
	if w.Sheets.Params == "" || w.Sheets.Import == "" || w.Sheets.Template == "" {
		errs = append(errs, errors.New("sheet names are required"))
	}
	return errors.Join(errs...)
}

// Journal keeps a history of runs. Failures to record are logged, never
// fatal.
type Journal interface {
	StartRun(ctx context.Context, runID, project string, at time.Time) error
	RecordTimesheet(ctx context.Context, ev core.TimesheetEvent) error
	FinishRun(ctx context.Context, runID string, at time.Time, runErr error) error
}

// Notifier announces exported and pruned timesheets.
type Notifier interface {
	PublishTimesheetEvent(ctx context.Context, ev core.TimesheetEvent) error
}
