package memory

import (
	"fmt"
	"strconv"
	"strings"
)

// A1 is a zero-based rectangular reference.
type A1 struct {
	Row, Col         int
	LastRow, LastCol int
}

func (a A1) Rows() int { return a.LastRow - a.Row + 1 }
func (a A1) Cols() int { return a.LastCol - a.Col + 1 }

// ParseA1 parses "C7" or "B11:C22". Sheet prefixes are not accepted.
func ParseA1(ref string) (A1, error) {
	first, last, found := strings.Cut(strings.TrimSpace(ref), ":")
	r1, c1, err := parseCell(first)
	if err != nil {
		return A1{}, fmt.Errorf("parse A1 %q: %w", ref, err)
	}
	if !found {
		return A1{Row: r1, Col: c1, LastRow: r1, LastCol: c1}, nil
	}
	r2, c2, err := parseCell(last)
	if err != nil {
		return A1{}, fmt.Errorf("parse A1 %q: %w", ref, err)
	}
	if r2 < r1 || c2 < c1 {
		return A1{}, fmt.Errorf("parse A1 %q: inverted range", ref)
	}
	return A1{Row: r1, Col: c1, LastRow: r2, LastCol: c2}, nil
}

func parseCell(s string) (row, col int, err error) {
	s = strings.ToUpper(strings.ReplaceAll(s, "$", ""))
	i := 0
	for i < len(s) && s[i] >= 'A' && s[i] <= 'Z' {
		col = col*26 + int(s[i]-'A'+1)
		i++
	}
	if i == 0 || i == len(s) {
		return 0, 0, fmt.Errorf("invalid cell %q", s)
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil || n < 1 {
		return 0, 0, fmt.Errorf("invalid cell %q", s)
	}
	return n - 1, col - 1, nil
}
