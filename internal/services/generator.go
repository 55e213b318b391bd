package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"timesheets/internal/core"
	"timesheets/internal/ledger"
	"timesheets/internal/log"
	"timesheets/internal/report"
	"timesheets/internal/sheets"
)

// Generator drives one run: parameters, ledger, then one timesheet per
// year and person. It is not safe for concurrent runs on the same
// workbook.
type Generator struct {
	ws        Workspace
	lifecycle *Lifecycle
	journal   Journal
	notifier  Notifier
	logger    *log.Logger
	now       func() time.Time
	newRunID  func() string
}

type Option func(*Generator)

func WithJournal(j Journal) Option { return func(g *Generator) { g.journal = j } }

func WithNotifier(n Notifier) Option { return func(g *Generator) { g.notifier = n } }

func WithLogger(l *log.Logger) Option { return func(g *Generator) { g.logger = l } }

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option { return func(g *Generator) { g.now = now } }

// WithRunID fixes the run identifier, for tests.
func WithRunID(id string) Option { return func(g *Generator) { g.newRunID = func() string { return id } } }

func NewGenerator(ws Workspace, opts ...Option) (*Generator, error) {
	if err := ws.validate(); err != nil {
		return nil, fmt.Errorf("workspace: %w", err)
	}
	g := &Generator{
		ws:       ws,
		now:      time.Now,
		newRunID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = log.FromDefault(log.ComponentGenerator)
	}
	g.lifecycle = NewLifecycle(ws, g.logger)
	return g, nil
}

// Summary describes what a run did.
type Summary struct {
	RunID    string
	Project  string
	Matched  int // rows of the project
	Ignored  int // rows of other projects
	Years    ledger.YearRange
	HasYears bool
	Folder   sheets.Folder
	Events   []core.TimesheetEvent
}

// Count returns how many timesheets received action a.
func (s Summary) Count(a core.Action) int {
	n := 0
	for _, ev := range s.Events {
		if ev.Action == a {
			n++
		}
	}
	return n
}

// Run generates every timesheet of the configured project. Parameter
// problems surface as *core.ConfigError and malformed rows as
// core.ErrInvalidRow, both before anything is written. Any later failure
// aborts the run; timesheets already produced are kept.
func (g *Generator) Run(ctx context.Context) (summary Summary, err error) {
	summary.RunID = g.newRunID()
	logger := g.logger.With(log.FieldRunID, summary.RunID)
	started := g.now()

	params, err := g.loadParameters(ctx)
	if err != nil {
		return summary, err
	}
	summary.Project = params.Acronym
	logger = logger.With(log.FieldProject, params.Acronym)

	g.startRun(ctx, logger, summary.RunID, params.Acronym, started)
	defer func() { g.finishRun(ctx, logger, summary.RunID, err) }()

	l, err := g.loadLedger(ctx, params.Acronym)
	if err != nil {
		return summary, err
	}
	summary.Matched, summary.Ignored = l.Matched(), l.Ignored()
	logger.InfoContext(ctx, "Aggregated declared time", "ledger", l.String())

	years, ok := l.Years()
	if !ok {
		logger.WarnContext(ctx, "No declared time for project, nothing to generate", log.FieldRows, l.Ignored())
		return summary, nil
	}
	summary.Years, summary.HasYears = years, true

	folder, err := g.lifecycle.ResolveFolder(ctx, params.Acronym)
	if err != nil {
		return summary, err
	}
	summary.Folder = folder

	persons := l.Persons()
	for _, year := range years.Years() {
		for _, person := range persons {
			ev, done, err := g.generate(ctx, folder, person, year, params)
			if err != nil {
				return summary, err
			}
			if !done {
				continue
			}
			ev.RunID = summary.RunID
			summary.Events = append(summary.Events, ev)
			g.record(ctx, logger, ev)
		}
	}

	logger.InfoContext(ctx, "Run completed",
		"exported", summary.Count(core.ActionExported),
		"pruned", summary.Count(core.ActionPruned),
		log.FieldDuration, g.now().Sub(started).Milliseconds())
	return summary, nil
}

// generate handles one (person, year). done is false when there was
// nothing to create and nothing to delete.
func (g *Generator) generate(ctx context.Context, folder sheets.Folder, person ledger.PersonLedger, year int, params core.RunParameters) (core.TimesheetEvent, bool, error) {
	name := report.Name(person.Name, year)
	var rep *report.Report
	if r, ok := report.Assemble(person, year, params); ok {
		rep = &r
	}

	res, err := g.lifecycle.MaterializeOrDelete(ctx, folder, name, rep)
	if err != nil {
		return core.TimesheetEvent{}, false, fmt.Errorf("timesheet %q: %w", name, err)
	}

	ev := core.TimesheetEvent{
		Project:   params.Acronym,
		Person:    person.Name,
		Year:      year,
		SheetName: name,
		At:        g.now(),
	}
	switch {
	case res.File != nil:
		ev.Action = core.ActionExported
		ev.TotalDays = rep.TotalDays().StringFixed(1)
		ev.FileID, ev.FileName, ev.FileURL = res.File.ID, res.File.Name, res.File.URL
	case res.Pruned():
		ev.Action = core.ActionPruned
	default:
		return core.TimesheetEvent{}, false, nil
	}
	return ev, true, nil
}

func (g *Generator) loadParameters(ctx context.Context) (core.RunParameters, error) {
	rows, err := g.ws.Book.ReadTable(ctx, g.ws.Sheets.Params)
	if err != nil {
		if errors.Is(err, sheets.ErrSheetNotFound) {
			return core.RunParameters{}, &core.ConfigError{Problems: []string{fmt.Sprintf("sheet %q not found", g.ws.Sheets.Params)}}
		}
		return core.RunParameters{}, fmt.Errorf("read parameters: %w", err)
	}
	return core.NewParameterSet(rows).Run()
}

func (g *Generator) loadLedger(ctx context.Context, project string) (*ledger.Ledger, error) {
	rows, err := g.ws.Book.ReadTable(ctx, g.ws.Sheets.Import)
	if err != nil {
		return nil, fmt.Errorf("read declared time: %w", err)
	}
	var header []any
	if len(rows) > 0 {
		header, rows = rows[0], rows[1:]
	}
	headers := core.NewHeaders(header)
	if err := ledger.ImportSchema.Check(headers); err != nil {
		return nil, fmt.Errorf("sheet %q: %w", g.ws.Sheets.Import, err)
	}
	// data starts on the second sheet row
	return ledger.Build(headers, rows, project, 2)
}

func (g *Generator) startRun(ctx context.Context, logger *log.Logger, runID, project string, at time.Time) {
	if g.journal == nil {
		return
	}
	if err := g.journal.StartRun(ctx, runID, project, at); err != nil {
		logger.WarnContext(ctx, "Failed to record run start", log.FieldError, err)
	}
}

func (g *Generator) finishRun(ctx context.Context, logger *log.Logger, runID string, runErr error) {
	if g.journal == nil {
		return
	}
	if err := g.journal.FinishRun(context.WithoutCancel(ctx), runID, g.now(), runErr); err != nil {
		logger.WarnContext(ctx, "Failed to record run end", log.FieldError, err)
	}
}

func (g *Generator) record(ctx context.Context, logger *log.Logger, ev core.TimesheetEvent) {
	if g.journal != nil {
		if err := g.journal.RecordTimesheet(ctx, ev); err != nil {
			logger.WarnContext(ctx, "Failed to record timesheet", log.FieldSheet, ev.SheetName, log.FieldError, err)
		}
	}
	if g.notifier != nil {
		if err := g.notifier.PublishTimesheetEvent(ctx, ev); err != nil {
			logger.WarnContext(ctx, "Failed to publish timesheet event", log.FieldSheet, ev.SheetName, log.FieldError, err)
		}
	}
}
