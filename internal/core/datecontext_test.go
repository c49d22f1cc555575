package core

import (
	"reflect"
	"testing"
)

func TestDateContextFilter(t *testing.T) {
	records := mustRecords(t, `[
		{"date":"01-Jan-23","amount":1},
		{"date":"15-Jan-24","amount":2},
		{"date":"01-Feb-23","amount":3},
		{"date":"2023-01-15","amount":4},
		{"amount":5,"date":null}
	]`)

	amounts := func(rs []TransactionRecord) []float64 {
		out := []float64{}
		for _, r := range rs {
			out = append(out, r.Amount.Float())
		}
		return out
	}

	tests := []struct {
		name string
		dc   *DateContext
		want []float64
	}{
		{"nil context", nil, []float64{1, 2, 3, 4, 5}},
		{"not date specific", &DateContext{Months: []Value{StringValue("jan")}}, []float64{1, 2, 3, 4, 5}},
		{"specific without selectors drops undated", &DateContext{IsDateSpecific: true}, []float64{1, 2, 3}},
		{"month by name", &DateContext{IsDateSpecific: true, Months: []Value{StringValue("January")}}, []float64{1, 2}},
		{"month by number", &DateContext{IsDateSpecific: true, Months: []Value{NumberValue(2)}}, []float64{3}},
		{"unknown month is no filter", &DateContext{IsDateSpecific: true, Months: []Value{StringValue("xyz")}}, []float64{1, 2, 3}},
		{"two digit year", &DateContext{IsDateSpecific: true, Years: []Value{StringValue("23")}}, []float64{1, 3}},
		{"full year string", &DateContext{IsDateSpecific: true, Years: []Value{StringValue("2024")}}, []float64{2}},
		{"numeric year", &DateContext{IsDateSpecific: true, Years: []Value{NumberValue(2023)}}, []float64{1, 3}},
		{"month and year", &DateContext{
			IsDateSpecific: true,
			Months:         []Value{StringValue("jan")},
			Years:          []Value{StringValue("23")},
		}, []float64{1}},
		{"no match", &DateContext{IsDateSpecific: true, Years: []Value{StringValue("22")}}, []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := amounts(tt.dc.Filter(records))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Filter = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMonthSet(t *testing.T) {
	got := MonthSet([]Value{
		StringValue("January"),
		StringValue("FEB"),
		StringValue("sept"),
		StringValue("x"),
		NumberValue(13),
		NumberValue(1.5),
		BoolValue(true),
		NullValue(),
	})
	want := map[int]struct{}{1: {}, 2: {}, 9: {}, 13: {}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MonthSet = %v, want %v", got, want)
	}
}

func TestYearSet(t *testing.T) {
	got := YearSet([]Value{
		StringValue("23"),
		StringValue("2024"),
		NumberValue(2025),
		StringValue("abc"),
		NumberValue(2026.5),
		NumberValue(2027.0),
		NullValue(),
	})
	want := map[int]struct{}{2023: {}, 2024: {}, 2025: {}, 2027: {}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("YearSet = %v, want %v", got, want)
	}
}

func TestDateContextFilterIdempotent(t *testing.T) {
	records := mustRecords(t, scenarioSales)
	dc := &DateContext{IsDateSpecific: true, Months: []Value{StringValue("jan")}}
	once := dc.Filter(records)
	twice := dc.Filter(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("filtering twice changed the result: %v vs %v", once, twice)
	}
}
