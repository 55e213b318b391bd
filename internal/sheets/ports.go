package sheets

import (
	"context"
	"errors"
)

var (
	ErrSheetNotFound  = errors.New("sheet not found")
	ErrFolderNotFound = errors.New("folder not found")
)

type (
	// Sheet identifies one tab of the workbook.
	Sheet struct {
		ID   int64
		Name string
	}

	// Range is a block of values written at an A1 reference of a sheet.
	Range struct {
		A1     string
		Values [][]any
	}

	// Folder is a container of exported files.
	Folder struct {
		ID   string
		Name string
		URL  string
	}

	// File is an exported file stored in a Folder.
	File struct {
		ID   string
		Name string
		URL  string
		Size int
	}
)

// Ports for outbound adapters.
type (
	// TableReader returns the used area of a sheet, header row included.
	TableReader interface {
		ReadTable(ctx context.Context, sheetName string) ([][]any, error)
	}

	// SheetManager creates, fills and removes timesheet tabs.
	SheetManager interface {
		// DeleteSheet removes the named sheet. It reports false when no
		// such sheet existed.
		DeleteSheet(ctx context.Context, name string) (bool, error)
		// DuplicateSheet copies source into a new sheet called name.
		DuplicateSheet(ctx context.Context, source, name string) (Sheet, error)
		// WriteRanges writes values into sheet; strings starting with "="
		// are entered as formulas.
		WriteRanges(ctx context.Context, sheet string, ranges []Range) error
	}

	// Workbook is the tabular store holding input rows and timesheets.
	Workbook interface {
		TableReader
		SheetManager
	}

	// Exporter renders a sheet as a PDF document.
	Exporter interface {
		ExportPDF(ctx context.Context, sheet Sheet) ([]byte, error)
	}

	// FolderStore holds exported files.
	FolderStore interface {
		// ResolveFolder finds the sub-folder called name inside parentID,
		// creating it when missing.
		ResolveFolder(ctx context.Context, parentID, name string) (Folder, error)
		// TrashFiles removes every file called name from folder and
		// returns how many were removed.
		TrashFiles(ctx context.Context, folder Folder, name string) (int, error)
		// CreateFile stores content as a new file in folder.
		CreateFile(ctx context.Context, folder Folder, name, mimeType string, content []byte) (File, error)
	}
)
