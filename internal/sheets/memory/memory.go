package memory

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"timesheets/internal/sheets"
)

// Store is an in-process workbook. Cells keep whatever Go value was
// written, so dates can be seeded as time.Time.
type Store struct {
	mu     sync.Mutex
	order  []string
	tabs   map[string]*tab
	nextID int64
}

type tab struct {
	id    int64
	cells [][]any
}

var _ sheets.Workbook = (*Store)(nil)

func New() *Store {
	return &Store{tabs: map[string]*tab{}}
}

// NewFromFiles seeds one sheet per "<name>.csv" file found in base. CSV
// cells are kept as strings; date and number parsing happens downstream.
func NewFromFiles(base string) (*Store, error) {
	s := New()
	paths, err := filepath.Glob(filepath.Join(base, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("list seed files: %w", err)
	}
	slices.Sort(paths)
	for _, p := range paths {
		rows, err := readCSV(p)
		if err != nil {
			return nil, err
		}
		s.Put(strings.TrimSuffix(filepath.Base(p), ".csv"), rows)
	}
	return s, nil
}

// Put replaces the content of a sheet, creating it when needed.
func (s *Store) Put(name string, rows [][]any) sheets.Sheet {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tabs[name]
	if !ok {
		t = &tab{id: s.nextID}
		s.nextID++
		s.tabs[name] = t
		s.order = append(s.order, name)
	}
	t.cells = cloneGrid(rows)
	return sheets.Sheet{ID: t.id, Name: name}
}

// Names lists the sheets in creation order.
func (s *Store) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.order)
}

// Has reports whether a sheet exists.
func (s *Store) Has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tabs[name]
	return ok
}

// ReadTable implements sheets.TableReader.
func (s *Store) ReadTable(_ context.Context, name string) ([][]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tabs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", sheets.ErrSheetNotFound, name)
	}
	return cloneGrid(t.cells), nil
}

// DeleteSheet implements sheets.SheetManager.
func (s *Store) DeleteSheet(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tabs[name]; !ok {
		return false, nil
	}
	delete(s.tabs, name)
	s.order = slices.DeleteFunc(s.order, func(n string) bool { return n == name })
	return true, nil
}

// DuplicateSheet implements sheets.SheetManager.
func (s *Store) DuplicateSheet(_ context.Context, source, name string) (sheets.Sheet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.tabs[source]
	if !ok {
		return sheets.Sheet{}, fmt.Errorf("%w: %q", sheets.ErrSheetNotFound, source)
	}
	if _, exists := s.tabs[name]; exists {
		return sheets.Sheet{}, fmt.Errorf("sheet %q already exists", name)
	}
	t := &tab{id: s.nextID, cells: cloneGrid(src.cells)}
	s.nextID++
	s.tabs[name] = t
	s.order = append(s.order, name)
	return sheets.Sheet{ID: t.id, Name: name}, nil
}

// WriteRanges implements sheets.SheetManager.
func (s *Store) WriteRanges(_ context.Context, name string, ranges []sheets.Range) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tabs[name]
	if !ok {
		return fmt.Errorf("%w: %q", sheets.ErrSheetNotFound, name)
	}
	for _, rg := range ranges {
		ref, err := ParseA1(rg.A1)
		if err != nil {
			return err
		}
		if len(rg.Values) > ref.Rows() {
			return fmt.Errorf("range %s: %d rows do not fit", rg.A1, len(rg.Values))
		}
		for r, row := range rg.Values {
			if len(row) > ref.Cols() {
				return fmt.Errorf("range %s: %d columns do not fit", rg.A1, len(row))
			}
			for c, v := range row {
				t.set(ref.Row+r, ref.Col+c, v)
			}
		}
	}
	return nil
}

func (t *tab) set(row, col int, v any) {
	for len(t.cells) <= row {
		t.cells = append(t.cells, nil)
	}
	for len(t.cells[row]) <= col {
		t.cells[row] = append(t.cells[row], nil)
	}
	t.cells[row][col] = v
}

func readCSV(path string) ([][]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	out := make([][]any, len(records))
	for i, rec := range records {
		row := make([]any, len(rec))
		for j, v := range rec {
			row[j] = v
		}
		out[i] = row
	}
	return out, nil
}

func cloneGrid(in [][]any) [][]any {
	out := make([][]any, len(in))
	for i, row := range in {
		out[i] = slices.Clone(row)
	}
	return out
}
