package core

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestComputeSalesEmpty(t *testing.T) {
	got, err := ComputeSales(nil, nil)
	if err != nil {
		t.Fatalf("ComputeSales error = %v", err)
	}
	want := `{"total_amount":0,"voucher_count":0,"monthly_breakdown":{},"customer_breakdown":{},"date_range":"No data"}`
	if s := mustJSON(t, got); s != want {
		t.Errorf("JSON = %s, want %s", s, want)
	}
}

func TestComputeSales(t *testing.T) {
	records := mustRecords(t, scenarioSales)

	tests := []struct {
		name string
		dc   *DateContext
		want SalesSummary
	}{
		{
			name: "no context",
			want: SalesSummary{
				TotalAmount:  350,
				VoucherCount: 3,
				MonthlyBreakdown: SalesBreakdown{
					{Period: Period{2023, time.January}, SalesBucket: SalesBucket{Amount: 300, Count: 2}},
					{Period: Period{2023, time.February}, SalesBucket: SalesBucket{Amount: 50, Count: 1}},
				},
				CustomerBreakdown: CustomerBreakdown{{"B", 200}, {"A", 150}},
				DateRange:         "01-Jan-23 to 01-Feb-23",
			},
		},
		{
			name: "january only",
			dc:   &DateContext{IsDateSpecific: true, Months: []Value{StringValue("jan")}},
			want: SalesSummary{
				TotalAmount:  300,
				VoucherCount: 2,
				MonthlyBreakdown: SalesBreakdown{
					{Period: Period{2023, time.January}, SalesBucket: SalesBucket{Amount: 300, Count: 2}},
				},
				CustomerBreakdown: CustomerBreakdown{{"B", 200}, {"A", 100}},
				DateRange:         "01-Jan-23 to 15-Jan-23",
			},
		},
		{
			name: "year filter excludes everything",
			dc:   &DateContext{IsDateSpecific: true, Years: []Value{StringValue("24")}},
			want: SalesSummary{
				MonthlyBreakdown:  SalesBreakdown{},
				CustomerBreakdown: CustomerBreakdown{},
				DateRange:         DateRangeNoDates,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeSales(records, tt.dc)
			if err != nil {
				t.Fatalf("ComputeSales error = %v", err)
			}
			got.Diagnostics = Diagnostics{}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ComputeSales =\n%+v\nwant\n%+v", got, tt.want)
			}
		})
	}
}

func TestComputeSalesJSON(t *testing.T) {
	got, err := ComputeSales(mustRecords(t, scenarioSales), nil)
	if err != nil {
		t.Fatalf("ComputeSales error = %v", err)
	}
	want := `{"total_amount":350,"voucher_count":3,` +
		`"monthly_breakdown":{"2023-01":{"amount":300,"count":2},"2023-02":{"amount":50,"count":1}},` +
		`"customer_breakdown":{"B":200,"A":150},` +
		`"date_range":"01-Jan-23 to 01-Feb-23"}`
	if s := mustJSON(t, got); s != want {
		t.Errorf("JSON =\n%s\nwant\n%s", s, want)
	}
}

func TestComputeSalesCoercesAmounts(t *testing.T) {
	records := mustRecords(t, `[
		{"date":"01-Jan-23","amount":"abc","account":"A"},
		{"date":"02-Jan-23","amount":null,"account":"A"},
		{"date":"03-Jan-23","amount":" 25 ","account":"B"}
	]`)
	got, err := ComputeSales(records, nil)
	if err != nil {
		t.Fatalf("ComputeSales error = %v", err)
	}
	if got.TotalAmount != 25 || got.VoucherCount != 3 {
		t.Errorf("total/count = %v/%d, want 25/3", got.TotalAmount, got.VoucherCount)
	}
	if got.Diagnostics.CoercedAmounts != 2 {
		t.Errorf("CoercedAmounts = %d, want 2", got.Diagnostics.CoercedAmounts)
	}
	want := CustomerBreakdown{{"B", 25}, {"A", 0}}
	if !reflect.DeepEqual(got.CustomerBreakdown, want) {
		t.Errorf("CustomerBreakdown = %v, want %v", got.CustomerBreakdown, want)
	}
}

func TestComputeSalesUndatedRecords(t *testing.T) {
	records := mustRecords(t, `[
		{"date":"2023-01-15","amount":10,"account":"A"},
		{"date":"01-Jan-23","amount":5,"account":"B"}
	]`)

	got, err := ComputeSales(records, nil)
	if err != nil {
		t.Fatalf("ComputeSales error = %v", err)
	}
	if got.TotalAmount != 15 || got.VoucherCount != 2 {
		t.Errorf("total/count = %v/%d, want 15/2", got.TotalAmount, got.VoucherCount)
	}
	wantMonthly := SalesBreakdown{{Period: Period{2023, time.January}, SalesBucket: SalesBucket{Amount: 5, Count: 1}}}
	if !reflect.DeepEqual(got.MonthlyBreakdown, wantMonthly) {
		t.Errorf("MonthlyBreakdown = %v, want %v", got.MonthlyBreakdown, wantMonthly)
	}
	if got.DateRange != "01-Jan-23 to 01-Jan-23" {
		t.Errorf("DateRange = %q", got.DateRange)
	}
	if got.Diagnostics.Undated != 1 {
		t.Errorf("Undated = %d, want 1", got.Diagnostics.Undated)
	}

	filtered, err := ComputeSales(records, &DateContext{IsDateSpecific: true})
	if err != nil {
		t.Fatalf("ComputeSales error = %v", err)
	}
	if filtered.TotalAmount != 5 || filtered.VoucherCount != 1 {
		t.Errorf("filtered total/count = %v/%d, want 5/1", filtered.TotalAmount, filtered.VoucherCount)
	}
}

func TestComputeSalesNoDates(t *testing.T) {
	records := mustRecords(t, `[{"date":"garbage","amount":7}]`)
	got, err := ComputeSales(records, nil)
	if err != nil {
		t.Fatalf("ComputeSales error = %v", err)
	}
	if got.DateRange != DateRangeNoDates || len(got.MonthlyBreakdown) != 0 || got.TotalAmount != 7 {
		t.Errorf("unexpected summary %+v", got)
	}
}

func TestComputeSalesTopCustomers(t *testing.T) {
	var b strings.Builder
	b.WriteString("[")
	for i := 1; i <= 12; i++ {
		if i > 1 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"date":"01-Mar-23","amount":%d,"account":"C%02d"}`, i, i)
	}
	b.WriteString(`,{"date":"01-Mar-23","amount":12,"account":"C00"}]`)

	got, err := ComputeSales(mustRecords(t, b.String()), nil)
	if err != nil {
		t.Fatalf("ComputeSales error = %v", err)
	}
	if len(got.CustomerBreakdown) != MaxCustomers {
		t.Fatalf("len(CustomerBreakdown) = %d, want %d", len(got.CustomerBreakdown), MaxCustomers)
	}
	if first := got.CustomerBreakdown[0]; first.Account != "C00" || first.Amount != 12 {
		t.Errorf("first = %+v, want C00 with ties ordered by account", first)
	}
	if second := got.CustomerBreakdown[1]; second.Account != "C12" {
		t.Errorf("second = %+v, want C12", second)
	}
	if last := got.CustomerBreakdown[MaxCustomers-1]; last.Amount != 4 {
		t.Errorf("last = %+v, want amount 4", last)
	}
	for i := 1; i < len(got.CustomerBreakdown); i++ {
		if got.CustomerBreakdown[i].Amount > got.CustomerBreakdown[i-1].Amount {
			t.Fatalf("breakdown not descending at %d: %v", i, got.CustomerBreakdown)
		}
	}
}

func TestComputeSalesAccounts(t *testing.T) {
	t.Run("no account column", func(t *testing.T) {
		got, err := ComputeSales(mustRecords(t, `[{"date":"01-Jan-23","amount":1}]`), nil)
		if err != nil {
			t.Fatalf("ComputeSales error = %v", err)
		}
		if len(got.CustomerBreakdown) != 0 || got.CustomerBreakdown == nil {
			t.Errorf("CustomerBreakdown = %#v, want empty", got.CustomerBreakdown)
		}
	})

	t.Run("null accounts are left out", func(t *testing.T) {
		got, err := ComputeSales(mustRecords(t, `[
			{"date":"01-Jan-23","amount":10,"account":"A"},
			{"date":"01-Jan-23","amount":5,"account":null},
			{"date":"01-Jan-23","amount":3}
		]`), nil)
		if err != nil {
			t.Fatalf("ComputeSales error = %v", err)
		}
		want := CustomerBreakdown{{"A", 10}}
		if !reflect.DeepEqual(got.CustomerBreakdown, want) {
			t.Errorf("CustomerBreakdown = %v, want %v", got.CustomerBreakdown, want)
		}
		if got.TotalAmount != 18 {
			t.Errorf("TotalAmount = %v, want 18", got.TotalAmount)
		}
	})

	t.Run("numeric accounts become keys", func(t *testing.T) {
		got, err := ComputeSales(mustRecords(t, `[{"date":"01-Jan-23","amount":10,"account":42}]`), nil)
		if err != nil {
			t.Fatalf("ComputeSales error = %v", err)
		}
		if s := mustJSON(t, got.CustomerBreakdown); s != `{"42":10}` {
			t.Errorf("CustomerBreakdown JSON = %s", s)
		}
	})
}

func TestComputeSalesMissingFields(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"no amount", `[{"date":"01-Jan-23","account":"A"}]`},
		{"no date", `[{"amount":1,"account":"A"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeSales(mustRecords(t, tt.data), nil)
			if !errors.Is(err, ErrMissingField) {
				t.Errorf("error = %v, want ErrMissingField", err)
			}
		})
	}
}

func TestComputeSalesConservation(t *testing.T) {
	records := mustRecords(t, `[
		{"date":"01-Jan-23","amount":"12.5","account":"A"},
		{"date":"03-Feb-23","amount":7.25,"account":"B"},
		{"date":"unknown","amount":100,"account":"C"},
		{"date":"09-Mar-24","amount":-3,"account":"A"},
		{"date":"10-Mar-24","amount":"x","account":"D"}
	]`)

	var want float64
	for _, r := range records {
		want += r.Amount.Float()
	}

	got, err := ComputeSales(records, nil)
	if err != nil {
		t.Fatalf("ComputeSales error = %v", err)
	}
	if got.TotalAmount != want {
		t.Errorf("TotalAmount = %v, want %v", got.TotalAmount, want)
	}
	if got.VoucherCount != len(records) {
		t.Errorf("VoucherCount = %d, want %d", got.VoucherCount, len(records))
	}

	again, _ := ComputeSales(records, nil)
	if !reflect.DeepEqual(got, again) {
		t.Error("ComputeSales is not deterministic")
	}

	var monthly float64
	count := 0
	for _, m := range got.MonthlyBreakdown {
		monthly += m.Amount
		count += m.Count
	}
	if count != len(records)-1 {
		t.Errorf("monthly count = %d, want %d", count, len(records)-1)
	}
	if monthly != want-100 {
		t.Errorf("monthly sum = %v, want %v", monthly, want-100)
	}
}
