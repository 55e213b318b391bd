package core

import (
	"fmt"
	"strings"
	"time"
)

// Kind is the type a column is expected to hold.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "text"
	}
}

type (
	// Headers resolves column names against a header row parsed once.
	Headers struct {
		names []string
		index map[string]int
	}

	// Column declares a required column and the kind it must hold.
	Column struct {
		Name string
		Kind Kind
	}

	// Schema is the set of columns a table must carry.
	Schema []Column
)

// NewHeaders indexes a header row. When a name repeats, the first
// occurrence wins. Matching ignores case and surrounding spaces.
func NewHeaders(row []any) Headers {
	h := Headers{names: make([]string, len(row)), index: make(map[string]int, len(row))}
	for i, v := range row {
		name := CellString(v)
		h.names[i] = name
		key := normalizeHeader(name)
		if _, ok := h.index[key]; !ok && key != "" {
			h.index[key] = i
		}
	}
	return h
}

// Names returns the header labels in column order.
func (h Headers) Names() []string {
	return append([]string(nil), h.names...)
}

// Index returns the position of a column, or -1.
func (h Headers) Index(name string) int {
	if i, ok := h.index[normalizeHeader(name)]; ok {
		return i
	}
	return -1
}

// Value returns the raw cell for a column. ok is false only when the
// column is unknown; a short row yields (nil, true).
func (h Headers) Value(row []any, column string) (any, bool) {
	i := h.Index(column)
	if i < 0 {
		return nil, false
	}
	if i >= len(row) {
		return nil, true
	}
	return row[i], true
}

// DateValue returns the cell for a column as a date. An unknown column
// yields ErrColumnMissing; a present cell that is not a date yields
// ErrNotADate.
func (h Headers) DateValue(row []any, column string) (time.Time, error) {
	v, ok := h.Value(row, column)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrColumnMissing, column)
	}
	return ParseDate(v)
}

// Check verifies that every column of the schema is present.
func (s Schema) Check(h Headers) error {
	var missing []string
	for _, c := range s {
		if h.Index(c.Name) < 0 {
			missing = append(missing, fmt.Sprintf("%q (%s)", c.Name, c.Kind))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s; got headers=%v", ErrColumnMissing, strings.Join(missing, ", "), h.names)
	}
	return nil
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
