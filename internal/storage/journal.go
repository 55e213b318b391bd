// Package storage keeps a SQLite journal of generation runs and of the
// timesheets each run exported or pruned.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"timesheets/internal/core"
)

// Run statuses
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

var ErrRunNotFound = errors.New("run not found")

// RunRecord is one journaled run with its outcome counts.
type RunRecord struct {
	ID         string
	Project    string
	StartedAt  time.Time
	FinishedAt time.Time // zero while running
	Status     string
	Error      string
	Exported   int
	Pruned     int
}

type Journal struct {
	db *sql.DB
}

func NewJournal(dbPath string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// StartRun implements services.Journal.
func (j *Journal) StartRun(ctx context.Context, runID, project string, at time.Time) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (id, project, started_at, status) VALUES (?, ?, ?, ?)`,
		runID, project, formatTime(at), StatusRunning)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	slog.DebugContext(ctx, "Run journaled", "run_id", runID, "project", project)
	return nil
}

// RecordTimesheet implements services.Journal.
func (j *Journal) RecordTimesheet(ctx context.Context, ev core.TimesheetEvent) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO timesheets
			(run_id, person, year, sheet_name, action, total_days, file_id, file_name, file_url, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.RunID, ev.Person, ev.Year, ev.SheetName, string(ev.Action), ev.TotalDays,
		ev.FileID, ev.FileName, ev.FileURL, formatTime(ev.At))
	if err != nil {
		return fmt.Errorf("insert timesheet %s: %w", ev.SheetName, err)
	}
	return nil
}

// FinishRun implements services.Journal. A nil runErr marks the run as
// succeeded.
func (j *Journal) FinishRun(ctx context.Context, runID string, at time.Time, runErr error) error {
	status, msg := StatusSucceeded, ""
	if runErr != nil {
		status, msg = StatusFailed, runErr.Error()
	}
	res, err := j.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, error = ? WHERE id = ?`,
		formatTime(at), status, msg, runID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// RecentRuns returns the latest runs, newest first.
func (j *Journal) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT r.id, r.project, r.started_at, COALESCE(r.finished_at, ''), r.status, r.error,
			(SELECT COUNT(*) FROM timesheets t WHERE t.run_id = r.id AND t.action = 'exported'),
			(SELECT COUNT(*) FROM timesheets t WHERE t.run_id = r.id AND t.action = 'pruned')
		FROM runs r
		ORDER BY r.started_at DESC, r.rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var (
			r                 RunRecord
			started, finished string
		)
		if err := rows.Scan(&r.ID, &r.Project, &started, &finished, &r.Status, &r.Error, &r.Exported, &r.Pruned); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		if r.FinishedAt, err = parseTime(finished); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Timesheets lists what one run did, in the order it happened.
func (j *Journal) Timesheets(ctx context.Context, runID string) ([]core.TimesheetEvent, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT t.person, t.year, t.sheet_name, t.action, t.total_days,
			t.file_id, t.file_name, t.file_url, t.recorded_at, r.project
		FROM timesheets t JOIN runs r ON r.id = t.run_id
		WHERE t.run_id = ?
		ORDER BY t.id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query timesheets: %w", err)
	}
	defer rows.Close()

	var out []core.TimesheetEvent
	for rows.Next() {
		ev := core.TimesheetEvent{RunID: runID}
		var action, at string
		if err := rows.Scan(&ev.Person, &ev.Year, &ev.SheetName, &action, &ev.TotalDays,
			&ev.FileID, &ev.FileName, &ev.FileURL, &at, &ev.Project); err != nil {
			return nil, fmt.Errorf("scan timesheet: %w", err)
		}
		ev.Action = core.Action(action)
		if ev.At, err = parseTime(at); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}
