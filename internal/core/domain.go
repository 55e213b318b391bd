package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AlertMessage is shown to the operator when the run parameters are unusable.
const AlertMessage = "Veuillez vérifier les paramètres dans l'onglet Accueil !"

var (
	ErrConfiguration = errors.New("configuration error")
	ErrInvalidRow    = errors.New("invalid row")
	ErrColumnMissing = errors.New("column missing")
	ErrNotADate      = errors.New("cell is not a date")
	ErrNotANumber    = errors.New("cell is not a number")
	ErrNegativeDays  = errors.New("declared days cannot be negative")
)

type (
	// MonthKey identifies a declared month. January 2023 and January 2024
	// are different keys.
	MonthKey struct {
		Year  int
		Month time.Month
	}

	// ConfigError reports every unusable run parameter at once.
	ConfigError struct {
		Problems []string
	}

	// RowError locates a data row that cannot be aggregated.
	RowError struct {
		Row    int // 1-based row number in the source sheet
		Column string
		Err    error
	}

	// TimesheetEvent records what a run did to one (person, year)
	// timesheet. File fields are empty for pruned timesheets.
	TimesheetEvent struct {
		RunID     string
		Project   string
		Person    string
		Year      int
		SheetName string
		Action    Action
		TotalDays string
		FileID    string
		FileName  string
		FileURL   string
		At        time.Time
	}
)

// Action is what a run did to a timesheet.
type Action string

const (
	ActionExported Action = "exported"
	ActionPruned   Action = "pruned"
)

// MonthOf truncates t to its year and month.
func MonthOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

func (e *ConfigError) Error() string {
	if len(e.Problems) == 0 {
		return ErrConfiguration.Error()
	}
	return fmt.Sprintf("%s: %s", ErrConfiguration, strings.Join(e.Problems, "; "))
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

// UserMessage returns the single alert surfaced to the operator.
func (e *ConfigError) UserMessage() string { return AlertMessage }

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: column %q: %v", e.Row, e.Column, e.Err)
}

// Unwrap exposes both ErrInvalidRow and the underlying cause to errors.Is.
func (e *RowError) Unwrap() []error { return []error{ErrInvalidRow, e.Err} }
