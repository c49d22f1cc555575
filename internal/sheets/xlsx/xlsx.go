// Package xlsx reads transaction records from Excel workbooks.
package xlsx

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"fincalc/internal/core"
	ports "fincalc/internal/sheets"
)

var _ ports.RecordReader = (*Reader)(nil)

type Reader struct {
	path  string
	sheet string
}

// New returns a reader for one sheet of the workbook at path. An empty sheet
// selects the first one.
func New(path, sheet string) *Reader {
	return &Reader{path: path, sheet: sheet}
}

// ParseSource splits "book.xlsx#Sheet" into path and sheet.
func ParseSource(src string) (path, sheet string) {
	if i := strings.LastIndex(src, "#"); i >= 0 {
		return src[:i], src[i+1:]
	}
	return src, ""
}

func (r *Reader) ReadRecords(ctx context.Context) ([]core.TransactionRecord, error) {
	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()
	return Parse(ctx, f, r.sheet)
}

// Parse reads the sheet's first row as the header. Cells are read raw, so
// date-formatted cells in the date column arrive as serial numbers and are
// converted to dates.
func Parse(ctx context.Context, f *excelize.File, sheet string) ([]core.TransactionRecord, error) {
	if sheet == "" {
		sheet = f.GetSheetName(0)
		if sheet == "" {
			return nil, fmt.Errorf("workbook has no sheets")
		}
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q not found", sheet)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, ports.ErrNoHeader
	}

	header := rows[0]
	dateCol, hasDate := ports.ParseHeader(header)[ports.FieldDate]

	values := make([][]core.Value, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cells := make([]core.Value, len(row))
		for i, s := range row {
			if hasDate && i == dateCol {
				cells[i] = dateCell(s)
				continue
			}
			cells[i] = ports.StringCell(s)
		}
		values = append(values, cells)
	}
	return ports.Records(header, values), nil
}

func dateCell(raw string) core.Value {
	serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return ports.StringCell(raw)
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return ports.StringCell(raw)
	}
	return core.TimeValue(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))
}
