package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timesheets/internal/core"
	"timesheets/internal/export"
	"timesheets/internal/sheets"
	"timesheets/internal/sheets/local"
	"timesheets/internal/sheets/memory"
)

var importHeader = []any{"Projet", "Collaborateur", "Mois", "Temps (jours)", "Work package"}

func accueil(acronym string) [][]any {
	return [][]any{
		{"Année", "2023"},
		{"Nom du superviseur", "Claire Martin"},
		{"Date à indiquer dans la feuille de temps", "31/12/2023"},
		{"Project acronym", acronym},
		{"Project number", "101000"},
		{"Call identifier", "HORIZON-CL5"},
		{"Participant Name", "Labo"},
	}
}

// echoRenderer stands in for Gotenberg: the "PDF" is the rendered HTML.
type echoRenderer struct{}

func (echoRenderer) RenderHTML(_ context.Context, html string) ([]byte, error) {
	return []byte(html), nil
}

type failingExporter struct {
	sheets.Exporter
	failOn string
}

func (f failingExporter) ExportPDF(ctx context.Context, sh sheets.Sheet) ([]byte, error) {
	if sh.Name == f.failOn {
		return nil, errors.New("export quota exceeded")
	}
	return f.Exporter.ExportPDF(ctx, sh)
}

type fakeJournal struct {
	started  []string
	events   []core.TimesheetEvent
	finished []error
}

func (j *fakeJournal) StartRun(_ context.Context, runID, project string, _ time.Time) error {
	j.started = append(j.started, runID+"/"+project)
	return nil
}

func (j *fakeJournal) RecordTimesheet(_ context.Context, ev core.TimesheetEvent) error {
	j.events = append(j.events, ev)
	return nil
}

func (j *fakeJournal) FinishRun(_ context.Context, _ string, _ time.Time, runErr error) error {
	j.finished = append(j.finished, runErr)
	return nil
}

type brokenNotifier struct{ calls int }

func (n *brokenNotifier) PublishTimesheetEvent(context.Context, core.TimesheetEvent) error {
	n.calls++
	return errors.New("broker down")
}

type fixture struct {
	store *memory.Store
	root  string
	ws    Workspace
}

func newFixture(t *testing.T, acronym string, rows ...[]any) *fixture {
	t.Helper()
	store := memory.New()
	store.Put(DefaultParamsSheet, accueil(acronym))
	store.Put(DefaultImportSheet, append([][]any{importHeader}, rows...))
	store.Put(DefaultTemplateSheet, [][]any{{"Feuille de temps"}})

	exp, err := export.NewSheetExporter(store, echoRenderer{})
	require.NoError(t, err)

	root := t.TempDir()
	return &fixture{
		store: store,
		root:  root,
		ws: Workspace{
			Book:           store,
			Exporter:       exp,
			Folders:        local.New(root),
			Sheets:         DefaultSheetNames(),
			ParentFolderID: "parent",
		},
	}
}

func (f *fixture) run(t *testing.T, opts ...Option) (Summary, error) {
	t.Helper()
	g, err := NewGenerator(f.ws, append([]Option{WithRunID("run-1")}, opts...)...)
	require.NoError(t, err)
	return g.Run(context.Background())
}

func (f *fixture) cell(t *testing.T, sheet string, row, col int) any {
	t.Helper()
	grid, err := f.store.ReadTable(context.Background(), sheet)
	require.NoError(t, err)
	require.Greater(t, len(grid), row)
	require.Greater(t, len(grid[row]), col)
	return grid[row][col]
}

func (f *fixture) pdfPath(acronym, sheet string) string {
	return filepath.Join(f.root, "parent", acronym, sheet+".pdf")
}

func TestRun_ScenarioA(t *testing.T) {
	f := newFixture(t, "ACME",
		[]any{"ACME", "Alice", "15/01/2023", 2.0, "WP1 - ACME"},
		[]any{"ACME", "Alice", "20/01/2023", 1.25, "WP2 - ACME"},
		[]any{"OTHER", "Bob", "15/01/2023", 5.0, "WP9"},
	)

	summary, err := f.run(t)
	require.NoError(t, err)

	assert.Equal(t, "run-1", summary.RunID)
	assert.Equal(t, 2, summary.Matched)
	assert.Equal(t, 1, summary.Ignored)
	require.True(t, summary.HasYears)
	assert.Equal(t, 2023, summary.Years.First)
	assert.Equal(t, 2023, summary.Years.Last)

	require.True(t, f.store.Has("Alice 2023"))
	assert.False(t, f.store.Has("Bob 2023"), "rows of other projects never produce a timesheet")

	assert.Equal(t, 3.3, f.cell(t, "Alice 2023", 10, 1))        // B11
	assert.Equal(t, "WP1\nWP2", f.cell(t, "Alice 2023", 10, 2)) // C11
	assert.Equal(t, 0.0, f.cell(t, "Alice 2023", 11, 1))        // B12
	assert.Equal(t, "Alice", f.cell(t, "Alice 2023", 6, 2))     // C7
	assert.Equal(t, 2023, f.cell(t, "Alice 2023", 2, 8))        // I3
	assert.Equal(t, "Feuille de temps", f.cell(t, "Alice 2023", 0, 0))

	tpl, err := f.store.ReadTable(context.Background(), DefaultTemplateSheet)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"Feuille de temps"}}, tpl, "template must stay untouched")

	require.Len(t, summary.Events, 1)
	ev := summary.Events[0]
	assert.Equal(t, core.ActionExported, ev.Action)
	assert.Equal(t, "run-1", ev.RunID)
	assert.Equal(t, "3.3", ev.TotalDays)
	assert.Equal(t, "Alice 2023.pdf", ev.FileName)

	pdf, err := os.ReadFile(f.pdfPath("ACME", "Alice 2023"))
	require.NoError(t, err)
	assert.Contains(t, string(pdf), "<title>Alice 2023</title>")
}

func TestRun_IsIdempotent(t *testing.T) {
	f := newFixture(t, "ACME",
		[]any{"ACME", "Alice", "15/01/2023", 2.0, "WP1 - ACME"},
		[]any{"ACME", "Bob", "01/03/2024", 0.5, "WP2"},
	)
	ctx := context.Background()

	_, err := f.run(t)
	require.NoError(t, err)
	names := f.store.Names()
	first, err := f.store.ReadTable(ctx, "Bob 2024")
	require.NoError(t, err)
	firstPDF, err := os.ReadFile(f.pdfPath("ACME", "Bob 2024"))
	require.NoError(t, err)

	_, err = f.run(t)
	require.NoError(t, err)
	second, err := f.store.ReadTable(ctx, "Bob 2024")
	require.NoError(t, err)
	secondPDF, err := os.ReadFile(f.pdfPath("ACME", "Bob 2024"))
	require.NoError(t, err)

	assert.ElementsMatch(t, names, f.store.Names())
	assert.Equal(t, first, second)
	assert.Equal(t, firstPDF, secondPDF)

	entries, err := os.ReadDir(filepath.Join(f.root, "parent", "ACME"))
	require.NoError(t, err)
	assert.Len(t, entries, 2, "exports are replaced, never duplicated")
}

func TestRun_PrunesYearsWithoutData(t *testing.T) {
	f := newFixture(t, "ACME",
		[]any{"ACME", "Alice", "15/01/2023", 1.0, "WP1"},
		[]any{"ACME", "Bob", "15/06/2024", 2.0, "WP1"},
	)
	f.store.Put("Bob 2023", [][]any{{"stale"}})

	summary, err := f.run(t)
	require.NoError(t, err)

	assert.False(t, f.store.Has("Bob 2023"))
	assert.False(t, f.store.Has("Alice 2024"))
	assert.True(t, f.store.Has("Alice 2023"))
	assert.True(t, f.store.Has("Bob 2024"))

	assert.Equal(t, 2, summary.Count(core.ActionExported))
	assert.Equal(t, 1, summary.Count(core.ActionPruned))

	// years ascending, persons in first-seen order
	var order []string
	for _, ev := range summary.Events {
		order = append(order, ev.SheetName+":"+string(ev.Action))
	}
	assert.Equal(t, []string{"Alice 2023:exported", "Bob 2023:pruned", "Bob 2024:exported"}, order)
}

func TestRun_ScenarioB_NoMatchingRows(t *testing.T) {
	f := newFixture(t, "ACME",
		[]any{"OTHER", "Alice", "15/01/2023", 1.0, "WP1"},
	)

	summary, err := f.run(t)
	require.NoError(t, err)

	assert.False(t, summary.HasYears)
	assert.Empty(t, summary.Events)
	assert.ElementsMatch(t, []string{DefaultParamsSheet, DefaultImportSheet, DefaultTemplateSheet}, f.store.Names())
	_, err = os.Stat(filepath.Join(f.root, "parent", "ACME"))
	assert.True(t, os.IsNotExist(err), "no folder is created when there is nothing to export")
}

func TestRun_ScenarioC_OutOfRangeArtifactsUntouched(t *testing.T) {
	f := newFixture(t, "ACME",
		[]any{"ACME", "Bob", "15/01/2023", 1.0, "WP1"},
	)
	f.store.Put("Bob 2024", [][]any{{"from a previous run"}})

	summary, err := f.run(t)
	require.NoError(t, err)

	assert.Equal(t, 2023, summary.Years.Last)
	assert.Equal(t, "from a previous run", f.cell(t, "Bob 2024", 0, 0))
	assert.True(t, f.store.Has("Bob 2023"))
}

func TestRun_ConfigurationErrorTouchesNothing(t *testing.T) {
	f := newFixture(t, "ACME",
		[]any{"ACME", "Alice", "15/01/2023", 1.0, "WP1"},
	)
	f.store.Put(DefaultParamsSheet, [][]any{
		{"Année", ""},
		{"Date à indiquer dans la feuille de temps", "  "},
		{"Project acronym", "ACME"},
	})
	j := &fakeJournal{}

	_, err := f.run(t, WithJournal(j))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrConfiguration)
	var cfgErr *core.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, core.AlertMessage, cfgErr.UserMessage())

	assert.False(t, f.store.Has("Alice 2023"))
	assert.Empty(t, j.started)
	_, statErr := os.Stat(filepath.Join(f.root, "parent"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_MissingParameterSheet(t *testing.T) {
	f := newFixture(t, "ACME")
	_, err := f.store.DeleteSheet(context.Background(), DefaultParamsSheet)
	require.NoError(t, err)

	_, err = f.run(t)
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestRun_InvalidRowAbortsBeforeWriting(t *testing.T) {
	f := newFixture(t, "ACME",
		[]any{"ACME", "Alice", "15/01/2023", 1.0, "WP1"},
		[]any{"ACME", "Bob", "pas une date", 1.0, "WP1"},
	)
	j := &fakeJournal{}

	_, err := f.run(t, WithJournal(j))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidRow)
	var rowErr *core.RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 3, rowErr.Row)

	assert.False(t, f.store.Has("Alice 2023"))
	require.Len(t, j.finished, 1)
	assert.ErrorIs(t, j.finished[0], core.ErrInvalidRow)
}

func TestRun_MissingColumn(t *testing.T) {
	f := newFixture(t, "ACME")
	f.store.Put(DefaultImportSheet, [][]any{{"Projet", "Collaborateur", "Mois", "Temps (jours)"}})

	_, err := f.run(t)
	assert.ErrorIs(t, err, core.ErrColumnMissing)
}

func TestRun_ExportFailureKeepsEarlierTimesheets(t *testing.T) {
	f := newFixture(t, "ACME",
		[]any{"ACME", "Alice", "15/01/2023", 1.0, "WP1"},
		[]any{"ACME", "Bob", "15/01/2023", 1.0, "WP1"},
	)
	f.ws.Exporter = failingExporter{Exporter: f.ws.Exporter, failOn: "Bob 2023"}

	summary, err := f.run(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `timesheet "Bob 2023"`)
	assert.Contains(t, err.Error(), "export quota exceeded")

	require.Len(t, summary.Events, 1)
	assert.True(t, f.store.Has("Alice 2023"))
	_, statErr := os.Stat(f.pdfPath("ACME", "Alice 2023"))
	assert.NoError(t, statErr)
}

func TestRun_JournalAndNotifier(t *testing.T) {
	f := newFixture(t, "ACME",
		[]any{"ACME", "Alice", "15/01/2023", 1.0, "WP1"},
	)
	j := &fakeJournal{}
	n := &brokenNotifier{}
	clock := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)

	_, err := f.run(t, WithJournal(j), WithNotifier(n), WithClock(func() time.Time { return clock }))
	require.NoError(t, err, "notification failures are not fatal")

	assert.Equal(t, []string{"run-1/ACME"}, j.started)
	require.Len(t, j.events, 1)
	assert.Equal(t, clock, j.events[0].At)
	assert.Equal(t, []error{nil}, j.finished)
	assert.Equal(t, 1, n.calls)
}

func TestNewGenerator_RequiresCollaborators(t *testing.T) {
	_, err := NewGenerator(Workspace{Sheets: DefaultSheetNames()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workbook is required")
	assert.Contains(t, err.Error(), "exporter is required")
}
