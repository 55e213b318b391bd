// Package core provides the domain types shared by every stage of the
// timesheet pipeline together with the cell conversions they rely on.
//
// Cells arrive as untyped values: adapters hand over string, float64, bool,
// time.Time or nil, depending on what the backing store knows about the cell.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayouts are tried in order when a date cell arrives as text.
var DateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"2006-01-02",
	"2006-01",
	"01/2006",
	time.RFC3339,
}

// CellString renders a cell as trimmed text. Empty cells give "".
func CellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		return FormatDate(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// IsBlank reports whether a cell holds nothing but whitespace.
func IsBlank(v any) bool {
	return CellString(v) == ""
}

// ParseDate converts a cell to a time. Numbers are never dates: a
// numeric cell reaching here was not formatted as a date in the source.
func ParseDate(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return time.Time{}, ErrNotADate
		}
		return t, nil
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range DateLayouts {
			if d, err := time.Parse(layout, s); err == nil {
				return d, nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: %q", ErrNotADate, s)
	default:
		return time.Time{}, fmt.Errorf("%w: %v", ErrNotADate, v)
	}
}

// FormatDate renders a date as dd/mm/yyyy.
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// ParseDays converts a declared-time cell to an exact decimal. An empty
// cell counts as zero days. Both "1.5" and "1,5" are accepted.
func ParseDays(v any) (decimal.Decimal, error) {
	var d decimal.Decimal
	switch t := v.(type) {
	case nil:
		return decimal.Zero, nil
	case float64:
		d = decimal.NewFromFloat(t)
	case int:
		d = decimal.NewFromInt(int64(t))
	case int64:
		d = decimal.NewFromInt(t)
	case decimal.Decimal:
		d = t
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return decimal.Zero, nil
		}
		parsed, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %q", ErrNotANumber, s)
		}
		d = parsed
	default:
		return decimal.Zero, fmt.Errorf("%w: %v", ErrNotANumber, v)
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegativeDays
	}
	return d, nil
}

// RoundDays rounds half away from zero to one decimal place.
func RoundDays(d decimal.Decimal) decimal.Decimal {
	return d.Round(1)
}
