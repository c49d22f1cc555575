package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// RecordType tags a record as revenue or expense.
type RecordType string

const (
	Revenue RecordType = "revenue"
	Expense RecordType = "expense"
)

// TransactionRecord is one voucher line as submitted by a caller.
type TransactionRecord struct {
	Date    Value `json:"date,omitzero"`
	Amount  Value `json:"amount,omitzero"`
	Account Value `json:"account,omitzero"`
	Type    Value `json:"type,omitzero"`
}

// Tag returns the record's type when it is one of the known tags.
func (r TransactionRecord) Tag() RecordType {
	s, ok := r.Type.Str()
	if !ok {
		return ""
	}
	switch t := RecordType(strings.ToLower(strings.TrimSpace(s))); t {
	case Revenue, Expense:
		return t
	default:
		return ""
	}
}

// ErrMissingField is returned when a non-empty record list lacks a field the
// computation cannot do without.
var ErrMissingField = errors.New("missing field")

const (
	fieldDate    = "date"
	fieldAmount  = "amount"
	fieldAccount = "account"
)

// hasField reports whether at least one record carries the named field.
// A field counts as present even when its value is null.
func hasField(records []TransactionRecord, field string) bool {
	for _, r := range records {
		var v Value
		switch field {
		case fieldDate:
			v = r.Date
		case fieldAmount:
			v = r.Amount
		case fieldAccount:
			v = r.Account
		}
		if v.Present() {
			return true
		}
	}
	return false
}

// requireFields checks a non-empty list for the fields the aggregators read.
func requireFields(records []TransactionRecord, list string, fields ...string) error {
	if len(records) == 0 {
		return nil
	}
	for _, f := range fields {
		if !hasField(records, f) {
			return fmt.Errorf("%w %q in %s", ErrMissingField, f, list)
		}
	}
	return nil
}

// Diagnostics counts the local substitutions made while reading records.
// They never affect results.
type Diagnostics struct {
	CoercedAmounts int // amounts that were not numeric and counted as 0
	Undated        int // records without a parseable date
}

func (d Diagnostics) add(o Diagnostics) Diagnostics {
	return Diagnostics{
		CoercedAmounts: d.CoercedAmounts + o.CoercedAmounts,
		Undated:        d.Undated + o.Undated,
	}
}

// entry is a record with its amount coerced and its date parsed once.
type entry struct {
	record TransactionRecord
	amount float64
	date   time.Time
	dated  bool
}

func prepare(records []TransactionRecord) ([]entry, Diagnostics) {
	var diag Diagnostics
	entries := make([]entry, len(records))
	for i, r := range records {
		amount, ok := r.Amount.Numeric()
		if !ok {
			diag.CoercedAmounts++
		}
		date, dated := ParseDate(r.Date)
		if !dated {
			diag.Undated++
		}
		entries[i] = entry{record: r, amount: amount, date: date, dated: dated}
	}
	return entries, diag
}

func sumAmounts(entries []entry) float64 {
	var total float64
	for _, e := range entries {
		total += e.amount
	}
	return total
}
