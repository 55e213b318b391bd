package services

import (
	"context"
	"fmt"

	"timesheets/internal/log"
	"timesheets/internal/report"
	"timesheets/internal/sheets"
)

const pdfMimeType = "application/pdf"

// Lifecycle applies the replace-or-prune policy: timesheets and exported
// files are derived state, always destroyed before being rebuilt.
type Lifecycle struct {
	book     sheets.Workbook
	exporter sheets.Exporter
	folders  sheets.FolderStore
	template string
	parentID string
	logger   *log.Logger
}

// Materialized is the result of MaterializeOrDelete.
type Materialized struct {
	Name     string
	Replaced bool // a sheet with the same name existed and was deleted
	Sheet    sheets.Sheet
	File     *sheets.File // nil when the timesheet was pruned
}

// Pruned reports whether an existing timesheet was removed without a
// replacement.
func (m Materialized) Pruned() bool { return m.Replaced && m.File == nil }

func NewLifecycle(ws Workspace, logger *log.Logger) *Lifecycle {
	return &Lifecycle{
		book:     ws.Book,
		exporter: ws.Exporter,
		folders:  ws.Folders,
		template: ws.Sheets.Template,
		parentID: ws.ParentFolderID,
		logger:   logger,
	}
}

// ResolveFolder finds or creates the folder of a project acronym.
func (l *Lifecycle) ResolveFolder(ctx context.Context, acronym string) (sheets.Folder, error) {
	f, err := l.folders.ResolveFolder(ctx, l.parentID, acronym)
	if err != nil {
		return sheets.Folder{}, fmt.Errorf("resolve folder %s: %w", acronym, err)
	}
	return f, nil
}

// MaterializeOrDelete deletes the sheet called name, then, when rep is
// not nil, rebuilds it from the template and exports it into folder.
func (l *Lifecycle) MaterializeOrDelete(ctx context.Context, folder sheets.Folder, name string, rep *report.Report) (Materialized, error) {
	res := Materialized{Name: name}

	deleted, err := l.book.DeleteSheet(ctx, name)
	if err != nil {
		return res, fmt.Errorf("delete %s: %w", name, err)
	}
	res.Replaced = deleted
	if rep == nil {
		if deleted {
			l.logger.InfoContext(ctx, "Pruned timesheet", log.FieldSheet, name)
		}
		return res, nil
	}

	sheet, err := l.book.DuplicateSheet(ctx, l.template, name)
	if err != nil {
		return res, err
	}
	res.Sheet = sheet
	if err := l.book.WriteRanges(ctx, name, rep.Ranges()); err != nil {
		return res, err
	}

	file, err := l.ExportFile(ctx, sheet, folder)
	if err != nil {
		return res, err
	}
	res.File = &file
	return res, nil
}

// ExportFile replaces the PDF of sheet in folder.
func (l *Lifecycle) ExportFile(ctx context.Context, sheet sheets.Sheet, folder sheets.Folder) (sheets.File, error) {
	name := report.FileName(sheet.Name)
	trashed, err := l.folders.TrashFiles(ctx, folder, name)
	if err != nil {
		return sheets.File{}, err
	}
	if trashed > 0 {
		l.logger.DebugContext(ctx, "Trashed previous export", log.FieldFile, name, "count", trashed)
	}

	pdf, err := l.exporter.ExportPDF(ctx, sheet)
	if err != nil {
		return sheets.File{}, err
	}
	file, err := l.folders.CreateFile(ctx, folder, name, pdfMimeType, pdf)
	if err != nil {
		return sheets.File{}, err
	}
	l.logger.InfoContext(ctx, "Exported timesheet", log.FieldFile, file.Name, log.FieldURL, file.URL)
	return file, nil
}
