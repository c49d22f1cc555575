package core

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ProfitSummary is the result of ComputeProfit.
type ProfitSummary struct {
	TotalRevenue     float64         `json:"total_revenue"`
	TotalExpenses    float64         `json:"total_expenses"`
	NetProfit        float64         `json:"net_profit"`
	MonthlyBreakdown ProfitBreakdown `json:"monthly_breakdown"`
	RevenueEntries   int             `json:"revenue_entries"`
	ExpenseEntries   int             `json:"expense_entries"`

	Diagnostics Diagnostics `json:"-"`
}

// ProfitBucket holds one period's revenue, expense and their difference.
type ProfitBucket struct {
	Revenue float64 `json:"revenue"`
	Expense float64 `json:"expense"`
	Profit  float64 `json:"profit"`
}

// MonthlyProfit is one row of the monthly profit breakdown.
type MonthlyProfit struct {
	Period Period
	ProfitBucket
}

// ProfitBreakdown is ordered by period ascending and encodes as a JSON object
// keyed by "YYYY-MM".
type ProfitBreakdown []MonthlyProfit

func (b ProfitBreakdown) MarshalJSON() ([]byte, error) {
	members := make([]member, len(b))
	for i, m := range b {
		members[i] = member{key: m.Period.String(), value: m.ProfitBucket}
	}
	return marshalObject(members)
}

func (b *ProfitBreakdown) UnmarshalJSON(data []byte) error {
	out := ProfitBreakdown{}
	err := unmarshalObject(data, func(key string, raw json.RawMessage) error {
		p, err := ParsePeriod(key)
		if err != nil {
			return err
		}
		var bucket ProfitBucket
		if err := json.Unmarshal(raw, &bucket); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		out = append(out, MonthlyProfit{Period: p, ProfitBucket: bucket})
		return nil
	})
	if err != nil {
		return err
	}
	*b = out
	return nil
}

// ComputeProfit filters revenue and expense independently with the same
// date context, then totals them. Entry counts and totals cover every
// surviving record; the monthly breakdown only covers dated ones.
func ComputeProfit(revenue, expense []TransactionRecord, dc *DateContext) (ProfitSummary, error) {
	if err := requireFields(revenue, "revenue_data", fieldAmount, fieldDate); err != nil {
		return ProfitSummary{}, err
	}
	if err := requireFields(expense, "expense_data", fieldAmount, fieldDate); err != nil {
		return ProfitSummary{}, err
	}

	revEntries, revDiag := prepare(revenue)
	expEntries, expDiag := prepare(expense)
	revEntries = dc.apply(revEntries)
	expEntries = dc.apply(expEntries)

	totalRevenue := sumAmounts(revEntries)
	totalExpenses := sumAmounts(expEntries)

	return ProfitSummary{
		TotalRevenue:     totalRevenue,
		TotalExpenses:    totalExpenses,
		NetProfit:        totalRevenue - totalExpenses,
		MonthlyBreakdown: monthlyProfit(revEntries, expEntries),
		RevenueEntries:   len(revEntries),
		ExpenseEntries:   len(expEntries),
		Diagnostics:      revDiag.add(expDiag),
	}, nil
}

type taggedEntry struct {
	entry
	tag RecordType
}

// monthlyProfit merges both sides tagged by type and groups the dated ones
// by (period, type). A period missing one side counts it as 0.
func monthlyProfit(revenue, expense []entry) ProfitBreakdown {
	combined := make([]taggedEntry, 0, len(revenue)+len(expense))
	for _, e := range revenue {
		combined = append(combined, taggedEntry{entry: e, tag: Revenue})
	}
	for _, e := range expense {
		combined = append(combined, taggedEntry{entry: e, tag: Expense})
	}

	buckets := make(map[Period]*ProfitBucket)
	for _, e := range combined {
		if !e.dated {
			continue
		}
		p := PeriodOf(e.date)
		b, ok := buckets[p]
		if !ok {
			b = &ProfitBucket{}
			buckets[p] = b
		}
		switch e.tag {
		case Revenue:
			b.Revenue += e.amount
		case Expense:
			b.Expense += e.amount
		}
	}

	out := make(ProfitBreakdown, 0, len(buckets))
	for p, b := range buckets {
		b.Profit = b.Revenue - b.Expense
		out = append(out, MonthlyProfit{Period: p, ProfitBucket: *b})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period.Before(out[j].Period) })
	return out
}
