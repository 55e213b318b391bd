package export

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"timesheets/internal/core"
	"timesheets/internal/sheets"
)

//go:embed templates/sheet.html
var templateFS embed.FS

// HTMLRenderer turns an HTML document into PDF bytes.
type HTMLRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// SheetExporter implements sheets.Exporter by rendering the sheet's cells
// as an HTML table.
type SheetExporter struct {
	reader    sheets.TableReader
	renderer  HTMLRenderer
	templates *template.Template
}

var _ sheets.Exporter = (*SheetExporter)(nil)

func NewSheetExporter(reader sheets.TableReader, renderer HTMLRenderer) (*SheetExporter, error) {
	funcMap := template.FuncMap{
		"cell": core.CellString,
	}
	tpl, err := template.New("sheet.html").Funcs(funcMap).ParseFS(templateFS, "templates/sheet.html")
	if err != nil {
		return nil, fmt.Errorf("parse sheet template: %w", err)
	}
	return &SheetExporter{reader: reader, renderer: renderer, templates: tpl}, nil
}

type sheetView struct {
	Title string
	Rows  [][]any
}

// RenderSheet returns the HTML document for one sheet.
func (e *SheetExporter) RenderSheet(ctx context.Context, sheet sheets.Sheet) (string, error) {
	rows, err := e.reader.ReadTable(ctx, sheet.Name)
	if err != nil {
		return "", err
	}
	buf := &bytes.Buffer{}
	if err := e.templates.ExecuteTemplate(buf, "sheet.html", sheetView{Title: sheet.Name, Rows: rows}); err != nil {
		return "", fmt.Errorf("render %s: %w", sheet.Name, err)
	}
	return buf.String(), nil
}

// ExportPDF implements sheets.Exporter.
func (e *SheetExporter) ExportPDF(ctx context.Context, sheet sheets.Sheet) ([]byte, error) {
	html, err := e.RenderSheet(ctx, sheet)
	if err != nil {
		return nil, err
	}
	pdf, err := e.renderer.RenderHTML(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", sheet.Name, err)
	}
	return pdf, nil
}
