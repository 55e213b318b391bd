package google

import (
	"math"
	"strings"
	"time"

	gsheet "google.golang.org/api/sheets/v4"
)

// serialEpoch is day zero of spreadsheet serial dates.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// gridValues flattens grid data into rows of Go values. Trailing empty
// cells are kept as nil so column positions stay stable.
func gridValues(data []*gsheet.GridData) [][]any {
	var out [][]any
	for _, g := range data {
		if g == nil {
			continue
		}
		for _, rd := range g.RowData {
			if rd == nil {
				out = append(out, nil)
				continue
			}
			row := make([]any, len(rd.Values))
			for i, cell := range rd.Values {
				row[i] = cellValue(cell)
			}
			out = append(out, row)
		}
	}
	return out
}

func cellValue(c *gsheet.CellData) any {
	if c == nil || c.EffectiveValue == nil {
		return nil
	}
	v := c.EffectiveValue
	switch {
	case v.StringValue != nil:
		return *v.StringValue
	case v.NumberValue != nil:
		if isDateFormat(c.EffectiveFormat) {
			return serialToTime(*v.NumberValue)
		}
		return *v.NumberValue
	case v.BoolValue != nil:
		return *v.BoolValue
	default:
		// formula errors (#N/A, #REF!) read as empty cells
		return nil
	}
}

func isDateFormat(f *gsheet.CellFormat) bool {
	if f == nil || f.NumberFormat == nil {
		return false
	}
	switch f.NumberFormat.Type {
	case "DATE", "DATE_TIME":
		return true
	default:
		return false
	}
}

// serialToTime converts a spreadsheet serial date (days since
// 1899-12-30, fraction = time of day) to UTC.
func serialToTime(serial float64) time.Time {
	days := math.Floor(serial)
	secs := math.Round((serial - days) * 86400)
	return serialEpoch.AddDate(0, 0, int(days)).Add(time.Duration(secs) * time.Second)
}

// quoteSheet quotes a sheet name for use in A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// quoteQuery escapes a literal for a Drive search query.
func quoteQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}
