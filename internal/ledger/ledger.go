// Package ledger aggregates declared-time rows into per-person monthly
// totals.
//
// A Ledger is built in one pass by Build and never changes afterwards.
package ledger

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"timesheets/internal/core"
)

// Columns of the import sheet.
const (
	ColumnProject     = "Projet"
	ColumnPerson      = "Collaborateur"
	ColumnMonth       = "Mois"
	ColumnDays        = "Temps (jours)"
	ColumnWorkPackage = "Work package"
)

// ImportSchema lists the columns the import sheet must provide.
var ImportSchema = core.Schema{
	{Name: ColumnProject, Kind: core.KindText},
	{Name: ColumnPerson, Kind: core.KindText},
	{Name: ColumnMonth, Kind: core.KindDate},
	{Name: ColumnDays, Kind: core.KindNumber},
	{Name: ColumnWorkPackage, Kind: core.KindText},
}

type (
	// MonthEntry is the time one person declared for one month.
	MonthEntry struct {
		// Days is the exact, unrounded sum of the declared days.
		Days decimal.Decimal
		// WorkPackages holds each distinct label once, in first-seen order.
		WorkPackages []string
	}

	// PersonLedger holds the months of one collaborator.
	PersonLedger struct {
		Name   string
		months map[core.MonthKey]MonthEntry
	}

	// YearRange is an inclusive span of calendar years.
	YearRange struct {
		First int
		Last  int
	}

	// Ledger is the aggregated view of the filtered rows.
	Ledger struct {
		project  string
		persons  []PersonLedger
		index    map[string]int
		years    YearRange
		hasYears bool
		matched  int
		ignored  int
	}
)

// HasWorkPackage reports whether label was declared that month.
func (e MonthEntry) HasWorkPackage(label string) bool {
	return slices.Contains(e.WorkPackages, label)
}

func (e MonthEntry) clone() MonthEntry {
	e.WorkPackages = slices.Clone(e.WorkPackages)
	return e
}

// Month returns the entry for a year and month.
func (p PersonLedger) Month(year int, month time.Month) (MonthEntry, bool) {
	e, ok := p.months[core.MonthKey{Year: year, Month: month}]
	return e.clone(), ok
}

// Months returns a copy of every month entry of the person.
func (p PersonLedger) Months() map[core.MonthKey]MonthEntry {
	out := make(map[core.MonthKey]MonthEntry, len(p.months))
	for k, v := range p.months {
		out[k] = v.clone()
	}
	return out
}

// HasYear reports whether the person declared time in year.
func (p PersonLedger) HasYear(year int) bool {
	for k := range p.months {
		if k.Year == year {
			return true
		}
	}
	return false
}

// Years lists the years of the range in ascending order.
func (r YearRange) Years() []int {
	if r.Last < r.First {
		return nil
	}
	out := make([]int, 0, r.Last-r.First+1)
	for y := r.First; y <= r.Last; y++ {
		out = append(out, y)
	}
	return out
}

// Contains reports whether year falls inside the range.
func (r YearRange) Contains(year int) bool {
	return year >= r.First && year <= r.Last
}

// Project returns the acronym the ledger was filtered on.
func (l *Ledger) Project() string { return l.project }

// Persons returns the collaborators in first-seen order.
func (l *Ledger) Persons() []PersonLedger {
	return slices.Clone(l.persons)
}

// Person looks a collaborator up by name.
func (l *Ledger) Person(name string) (PersonLedger, bool) {
	i, ok := l.index[name]
	if !ok {
		return PersonLedger{}, false
	}
	return l.persons[i], true
}

// Months returns the month entries of a collaborator, nil when unknown.
func (l *Ledger) Months(name string) map[core.MonthKey]MonthEntry {
	p, ok := l.Person(name)
	if !ok {
		return nil
	}
	return p.Months()
}

// Years returns the span of declared years. ok is false when no row
// matched the project.
func (l *Ledger) Years() (YearRange, bool) {
	return l.years, l.hasYears
}

// Matched is the number of rows that belonged to the project.
func (l *Ledger) Matched() int { return l.matched }

// Ignored is the number of rows filtered out.
func (l *Ledger) Ignored() int { return l.ignored }

// StripProjectSuffix removes the first " - <project>" from a work package
// label.
func StripProjectSuffix(label, project string) string {
	return strings.Replace(label, " - "+project, "", 1)
}
