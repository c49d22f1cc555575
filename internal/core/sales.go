package core

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// MaxCustomers caps the customer breakdown.
const MaxCustomers = 10

const (
	DateRangeNoData  = "No data"
	DateRangeNoDates = "No dates"
)

// SalesSummary is the result of ComputeSales.
type SalesSummary struct {
	TotalAmount       float64           `json:"total_amount"`
	VoucherCount      int               `json:"voucher_count"`
	MonthlyBreakdown  SalesBreakdown    `json:"monthly_breakdown"`
	CustomerBreakdown CustomerBreakdown `json:"customer_breakdown"`
	DateRange         string            `json:"date_range"`

	Diagnostics Diagnostics `json:"-"`
}

// SalesBucket aggregates the vouchers of one period.
type SalesBucket struct {
	Amount float64 `json:"amount"`
	Count  int     `json:"count"`
}

// MonthlySales is one row of the monthly sales breakdown.
type MonthlySales struct {
	Period Period
	SalesBucket
}

// SalesBreakdown is ordered by period ascending and encodes as a JSON object
// keyed by "YYYY-MM".
type SalesBreakdown []MonthlySales

func (b SalesBreakdown) MarshalJSON() ([]byte, error) {
	members := make([]member, len(b))
	for i, m := range b {
		members[i] = member{key: m.Period.String(), value: m.SalesBucket}
	}
	return marshalObject(members)
}

func (b *SalesBreakdown) UnmarshalJSON(data []byte) error {
	out := SalesBreakdown{}
	err := unmarshalObject(data, func(key string, raw json.RawMessage) error {
		p, err := ParsePeriod(key)
		if err != nil {
			return err
		}
		var bucket SalesBucket
		if err := json.Unmarshal(raw, &bucket); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		out = append(out, MonthlySales{Period: p, SalesBucket: bucket})
		return nil
	})
	if err != nil {
		return err
	}
	*b = out
	return nil
}

// CustomerAmount is one row of the customer breakdown.
type CustomerAmount struct {
	Account string
	Amount  float64
}

// CustomerBreakdown is ordered by amount descending and encodes as a JSON
// object keyed by account.
type CustomerBreakdown []CustomerAmount

func (b CustomerBreakdown) MarshalJSON() ([]byte, error) {
	members := make([]member, len(b))
	for i, c := range b {
		members[i] = member{key: c.Account, value: c.Amount}
	}
	return marshalObject(members)
}

func (b *CustomerBreakdown) UnmarshalJSON(data []byte) error {
	out := CustomerBreakdown{}
	err := unmarshalObject(data, func(key string, raw json.RawMessage) error {
		var amount float64
		if err := json.Unmarshal(raw, &amount); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		out = append(out, CustomerAmount{Account: key, Amount: amount})
		return nil
	})
	if err != nil {
		return err
	}
	*b = out
	return nil
}

// EmptySalesSummary is returned for an empty record list.
func EmptySalesSummary() SalesSummary {
	return SalesSummary{
		MonthlyBreakdown:  SalesBreakdown{},
		CustomerBreakdown: CustomerBreakdown{},
		DateRange:         DateRangeNoData,
	}
}

// ComputeSales totals records after applying the date context. Totals and
// the voucher count cover every surviving record; the monthly breakdown and
// the date range only cover those with a parseable date.
func ComputeSales(records []TransactionRecord, dc *DateContext) (SalesSummary, error) {
	if len(records) == 0 {
		return EmptySalesSummary(), nil
	}
	if err := requireFields(records, "sales_data", fieldAmount, fieldDate); err != nil {
		return SalesSummary{}, err
	}

	entries, diag := prepare(records)
	entries = dc.apply(entries)

	summary := SalesSummary{
		TotalAmount:       sumAmounts(entries),
		VoucherCount:      len(entries),
		MonthlyBreakdown:  monthlySales(entries),
		CustomerBreakdown: CustomerBreakdown{},
		DateRange:         dateRange(entries),
		Diagnostics:       diag,
	}
	if hasField(records, fieldAccount) {
		summary.CustomerBreakdown = topCustomers(entries, MaxCustomers)
	}
	return summary, nil
}

func monthlySales(entries []entry) SalesBreakdown {
	buckets := make(map[Period]*SalesBucket)
	for _, e := range entries {
		if !e.dated {
			continue
		}
		p := PeriodOf(e.date)
		b, ok := buckets[p]
		if !ok {
			b = &SalesBucket{}
			buckets[p] = b
		}
		b.Amount += e.amount
		b.Count++
	}

	out := make(SalesBreakdown, 0, len(buckets))
	for p, b := range buckets {
		out = append(out, MonthlySales{Period: p, SalesBucket: *b})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period.Before(out[j].Period) })
	return out
}

// topCustomers sums amounts per account. Records without an account are
// left out. Ties are ordered by account.
func topCustomers(entries []entry, limit int) CustomerBreakdown {
	totals := make(map[string]float64)
	for _, e := range entries {
		key, ok := e.record.Account.Text()
		if !ok {
			continue
		}
		totals[key] += e.amount
	}

	out := make(CustomerBreakdown, 0, len(totals))
	for account, amount := range totals {
		out = append(out, CustomerAmount{Account: account, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Account < out[j].Account
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func dateRange(entries []entry) string {
	var lo, hi time.Time
	found := false
	for _, e := range entries {
		if !e.dated {
			continue
		}
		if !found || e.date.Before(lo) {
			lo = e.date
		}
		if !found || e.date.After(hi) {
			hi = e.date
		}
		found = true
	}
	if !found {
		return DateRangeNoDates
	}
	return FormatDate(lo) + " to " + FormatDate(hi)
}
