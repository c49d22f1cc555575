// Package csvfile reads transaction records from CSV files with a header row.
package csvfile

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"fincalc/internal/core"
	ports "fincalc/internal/sheets"
)

var _ ports.RecordReader = (*Reader)(nil)

type Reader struct {
	path  string
	comma rune
}

// New returns a reader for the CSV file at path. comma of 0 means ','.
func New(path string, comma rune) *Reader {
	if comma == 0 {
		comma = ','
	}
	return &Reader{path: path, comma: comma}
}

func (r *Reader) ReadRecords(ctx context.Context) ([]core.TransactionRecord, error) {
	file, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()
	return Parse(ctx, file, r.comma)
}

// Parse reads CSV text whose first row is the header.
func Parse(ctx context.Context, in io.Reader, comma rune) ([]core.TransactionRecord, error) {
	reader := csv.NewReader(bufio.NewReader(in))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ports.ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	var rows [][]core.Value
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		cells := make([]core.Value, len(row))
		for i, s := range row {
			cells[i] = ports.StringCell(s)
		}
		rows = append(rows, cells)
	}
	return ports.Records(header, rows), nil
}
