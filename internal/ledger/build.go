package ledger

import (
	"errors"
	"fmt"
	"strings"

	"timesheets/internal/core"
)

var errEmptyPerson = errors.New("collaborator name is empty")

// builder accumulates rows. It is private to Build so that no caller can
// observe a partially built ledger.
type builder struct {
	project string
	order   []string
	months  map[string]map[core.MonthKey]*MonthEntry
	years   YearRange
	seeded  bool
	matched int
	ignored int
}

// Build folds the data rows of the import sheet into a Ledger, keeping
// only rows whose project equals project. rowOffset is the sheet row
// number of rows[0] and is only used in error messages.
//
// Any malformed row aborts the build and no ledger is returned.
func Build(headers core.Headers, rows [][]any, project string, rowOffset int) (*Ledger, error) {
	project = strings.TrimSpace(project)
	b := &builder{
		project: project,
		months:  make(map[string]map[core.MonthKey]*MonthEntry),
	}
	for i, row := range rows {
		if err := b.ingest(headers, row, rowOffset+i); err != nil {
			return nil, err
		}
	}
	return b.freeze(), nil
}

func (b *builder) ingest(h core.Headers, row []any, rowNum int) error {
	projectCell, _ := h.Value(row, ColumnProject)
	if core.CellString(projectCell) != b.project {
		b.ignored++
		return nil
	}

	nameCell, _ := h.Value(row, ColumnPerson)
	name := core.CellString(nameCell)
	if name == "" {
		return &core.RowError{Row: rowNum, Column: ColumnPerson, Err: errEmptyPerson}
	}

	declared, err := h.DateValue(row, ColumnMonth)
	if err != nil {
		return &core.RowError{Row: rowNum, Column: ColumnMonth, Err: err}
	}

	daysCell, _ := h.Value(row, ColumnDays)
	days, err := core.ParseDays(daysCell)
	if err != nil {
		return &core.RowError{Row: rowNum, Column: ColumnDays, Err: err}
	}

	wpCell, _ := h.Value(row, ColumnWorkPackage)
	label := strings.TrimSpace(StripProjectSuffix(core.CellString(wpCell), b.project))

	key := core.MonthOf(declared)
	b.trackYear(key.Year)

	person, ok := b.months[name]
	if !ok {
		person = make(map[core.MonthKey]*MonthEntry)
		b.months[name] = person
		b.order = append(b.order, name)
	}
	entry, ok := person[key]
	if !ok {
		entry = &MonthEntry{}
		person[key] = entry
	}
	entry.Days = entry.Days.Add(days)
	if label != "" && !entry.HasWorkPackage(label) {
		entry.WorkPackages = append(entry.WorkPackages, label)
	}
	b.matched++
	return nil
}

func (b *builder) trackYear(year int) {
	if !b.seeded {
		b.years = YearRange{First: year, Last: year}
		b.seeded = true
		return
	}
	if year < b.years.First {
		b.years.First = year
	}
	if year > b.years.Last {
		b.years.Last = year
	}
}

func (b *builder) freeze() *Ledger {
	l := &Ledger{
		project:  b.project,
		persons:  make([]PersonLedger, 0, len(b.order)),
		index:    make(map[string]int, len(b.order)),
		years:    b.years,
		hasYears: b.seeded,
		matched:  b.matched,
		ignored:  b.ignored,
	}
	for _, name := range b.order {
		months := make(map[core.MonthKey]MonthEntry, len(b.months[name]))
		for k, acc := range b.months[name] {
			months[k] = acc.clone()
		}
		l.index[name] = len(l.persons)
		l.persons = append(l.persons, PersonLedger{Name: name, months: months})
	}
	return l
}

// String summarises the ledger for logs.
func (l *Ledger) String() string {
	if !l.hasYears {
		return fmt.Sprintf("project=%s persons=0 matched=0 ignored=%d", l.project, l.ignored)
	}
	return fmt.Sprintf("project=%s persons=%d years=%d-%d matched=%d ignored=%d",
		l.project, len(l.persons), l.years.First, l.years.Last, l.matched, l.ignored)
}
