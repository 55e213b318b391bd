package google

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	ports "timesheets/internal/sheets"
)

// exportQuery renders one sheet as a portrait A4 page, fitted to width,
// without titles, page numbers, gridlines or frozen rows.
func exportQuery(sheetID int64) url.Values {
	q := url.Values{}
	q.Set("format", "pdf")
	q.Set("portrait", "true")
	q.Set("size", "A4")
	q.Set("fitw", "true")
	q.Set("sheetnames", "false")
	q.Set("printtitle", "false")
	q.Set("pagenumbers", "false")
	q.Set("gridlines", "false")
	q.Set("fzr", "false")
	q.Set("gid", strconv.FormatInt(sheetID, 10))
	return q
}

func (c *Client) exportURL(sheetID int64) string {
	return c.exportBase + url.PathEscape(c.spreadsheetID) + "/export?" + exportQuery(sheetID).Encode()
}

// ExportPDF implements ports.Exporter through the authenticated export
// endpoint. Written cell values must be flushed before calling it.
func (c *Client) ExportPDF(ctx context.Context, sheet ports.Sheet) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.exportURL(sheet.ID), nil)
	if err != nil {
		return nil, fmt.Errorf("build export request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", sheet.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("export %s: status %d: %s", sheet.Name, resp.StatusCode, snippet)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read export %s: %w", sheet.Name, err)
	}
	return data, nil
}
