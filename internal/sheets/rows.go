package sheets

import (
	"errors"
	"math"
	"strings"
	"time"

	"fincalc/internal/core"
)

// ErrNoHeader is returned for a table without a header row.
var ErrNoHeader = errors.New("missing header row")

// Record fields a column can map to.
const (
	FieldDate    = "date"
	FieldAmount  = "amount"
	FieldAccount = "account"
	FieldType    = "type"
)

var columnAliases = map[string]string{
	"date":         FieldDate,
	"voucher date": FieldDate,
	"posting date": FieldDate,
	"amount":       FieldAmount,
	"account":      FieldAccount,
	"customer":     FieldAccount,
	"party":        FieldAccount,
	"ledger":       FieldAccount,
	"type":         FieldType,
}

// FieldFor maps a header cell to a record field. Matching ignores case and
// surrounding space.
func FieldFor(header string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header, "\ufeff")))
	field, ok := columnAliases[key]
	return field, ok
}

// Columns maps record fields to column indexes. The first matching column
// wins.
type Columns map[string]int

// ParseHeader maps the cells of a header row.
func ParseHeader(header []string) Columns {
	cols := Columns{}
	for i, h := range header {
		field, ok := FieldFor(h)
		if !ok {
			continue
		}
		if _, dup := cols[field]; !dup {
			cols[field] = i
		}
	}
	return cols
}

// Has reports whether field has a column.
func (c Columns) Has(field string) bool {
	_, ok := c[field]
	return ok
}

// Record builds one record from a row of cells. Mapped columns beyond the
// end of the row are null. Unmapped fields stay missing.
func (c Columns) Record(row []core.Value) core.TransactionRecord {
	get := func(field string) core.Value {
		i, ok := c[field]
		if !ok {
			return core.Value{}
		}
		if i >= len(row) {
			return core.NullValue()
		}
		return row[i]
	}
	return core.TransactionRecord{
		Date:    get(FieldDate),
		Amount:  get(FieldAmount),
		Account: get(FieldAccount),
		Type:    get(FieldType),
	}
}

// Records maps every non-blank row after the header.
func Records(header []string, rows [][]core.Value) []core.TransactionRecord {
	cols := ParseHeader(header)
	out := make([]core.TransactionRecord, 0, len(rows))
	for _, row := range rows {
		if blank(row) {
			continue
		}
		out = append(out, cols.Record(row))
	}
	return out
}

func blank(row []core.Value) bool {
	for _, v := range row {
		if v.Kind() != core.KindNull && v.Kind() != core.KindMissing {
			return false
		}
	}
	return true
}

// StringCell converts a text cell. Empty text is null.
func StringCell(s string) core.Value {
	if strings.TrimSpace(s) == "" {
		return core.NullValue()
	}
	return core.StringValue(s)
}

// Cell converts a decoded cell of any supported Go type.
func Cell(v any) core.Value {
	switch x := v.(type) {
	case nil:
		return core.NullValue()
	case string:
		return StringCell(x)
	case float64:
		return core.NumberValue(x)
	case float32:
		return core.NumberValue(float64(x))
	case int:
		return core.NumberValue(float64(x))
	case int64:
		return core.NumberValue(float64(x))
	case bool:
		return core.BoolValue(x)
	case time.Time:
		return core.TimeValue(x)
	default:
		return core.NullValue()
	}
}

// spreadsheetEpoch is day zero of spreadsheet serial dates.
var spreadsheetEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// SerialDate converts a spreadsheet serial day number to a calendar date.
// The fractional time of day is dropped.
func SerialDate(serial float64) (time.Time, bool) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) || serial < 1 || serial > 2958465 {
		return time.Time{}, false
	}
	return spreadsheetEpoch.AddDate(0, 0, int(math.Floor(serial))), true
}
