package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"fincalc/internal/core"
	"fincalc/internal/log"
)

func TestCalculator_Sales(t *testing.T) {
	calc := NewCalculator(log.Discard())

	req, err := DecodeSalesRequest([]byte(`{
		"sales_data": [
			{"date":"01-Jan-23","amount":"100","account":"A"},
			{"date":"15-Jan-23","amount":200,"account":"B"},
			{"date":"01-Feb-23","amount":50,"account":"A"}
		],
		"date_context": {"isDateSpecific": true, "months": ["jan"]}
	}`))
	if err != nil {
		t.Fatalf("DecodeSalesRequest() error = %v", err)
	}

	summary, err := calc.Sales(context.Background(), req)
	if err != nil {
		t.Fatalf("Sales() error = %v", err)
	}
	if summary.TotalAmount != 300 || summary.VoucherCount != 2 {
		t.Errorf("total/count = %v/%d, want 300/2", summary.TotalAmount, summary.VoucherCount)
	}
}

func TestCalculator_SalesEmpty(t *testing.T) {
	calc := NewCalculator(nil)

	for _, body := range []string{`{}`, `{"sales_data": null}`, `{"sales_data": []}`} {
		req, err := DecodeSalesRequest([]byte(body))
		if err != nil {
			t.Fatalf("DecodeSalesRequest(%s) error = %v", body, err)
		}
		summary, err := calc.Sales(context.Background(), req)
		if err != nil {
			t.Fatalf("Sales(%s) error = %v", body, err)
		}
		if summary.DateRange != core.DateRangeNoData {
			t.Errorf("Sales(%s) DateRange = %q, want %q", body, summary.DateRange, core.DateRangeNoData)
		}
	}
}

func TestCalculator_Profit(t *testing.T) {
	calc := NewCalculator(log.Discard())

	req, err := DecodeProfitRequest([]byte(`{
		"revenue_data": [{"date":"01-Jan-23","amount":500}],
		"expense_data": [{"date":"05-Jan-23","amount":200}]
	}`))
	if err != nil {
		t.Fatalf("DecodeProfitRequest() error = %v", err)
	}

	summary, err := calc.Profit(context.Background(), req)
	if err != nil {
		t.Fatalf("Profit() error = %v", err)
	}
	if summary.TotalRevenue != 500 || summary.TotalExpenses != 200 || summary.NetProfit != 300 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.RevenueEntries != 1 || summary.ExpenseEntries != 1 {
		t.Errorf("entries = %d/%d, want 1/1", summary.RevenueEntries, summary.ExpenseEntries)
	}
}

func TestCalculator_FaultsAreWrapped(t *testing.T) {
	var buf bytes.Buffer
	calc := NewCalculator(log.New(log.Config{Format: log.FormatJSON, Output: &buf}))

	_, err := calc.Sales(context.Background(), SalesRequest{
		SalesData: []core.TransactionRecord{{Amount: core.NumberValue(1)}},
	})
	if !errors.Is(err, ErrComputation) {
		t.Fatalf("error = %v, want ErrComputation", err)
	}
	if !errors.Is(err, core.ErrMissingField) {
		t.Errorf("error = %v, want it to wrap ErrMissingField", err)
	}
	if !strings.Contains(buf.String(), log.ErrorTypeInternal) {
		t.Errorf("fault was not logged: %s", buf.String())
	}
}

func TestCalculator_GuardRecoversPanic(t *testing.T) {
	var buf bytes.Buffer
	calc := NewCalculator(log.New(log.Config{Level: slog.LevelDebug, Format: log.FormatJSON, Output: &buf}))

	err := func() (err error) {
		defer calc.guard(context.Background(), log.OpSales, &err)
		panic("index out of range")
	}()

	if !errors.Is(err, ErrComputation) {
		t.Fatalf("error = %v, want ErrComputation", err)
	}
	if !strings.Contains(err.Error(), "index out of range") {
		t.Errorf("error = %v, want panic value in message", err)
	}
	if !strings.Contains(buf.String(), "stack") {
		t.Errorf("stack was not logged: %s", buf.String())
	}
}

func TestCalculator_Health(t *testing.T) {
	got := NewCalculator(nil).Health()
	b, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	want := `{"status":"healthy","service":"fincalc","engine_version":"` + core.Version + `"}`
	if string(b) != want {
		t.Errorf("Health() = %s, want %s", b, want)
	}
}

func TestDecodeRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"object", `{"sales_data":[]}`, false},
		{"unknown keys are ignored", `{"sales_data":[],"extra":1}`, false},
		{"empty body", ``, true},
		{"null body", `null`, true},
		{"array body", `[]`, true},
		{"malformed", `{"sales_data":[`, true},
		{"records must be objects", `{"sales_data":[1,2]}`, true},
		{"list must be a list", `{"sales_data":"x"}`, true},
		{"boolean date flag", `{"sales_data":[],"date_context":{"isDateSpecific":true}}`, false},
		{"string date flag", `{"sales_data":[],"date_context":{"isDateSpecific":"true"}}`, true},
		{"numeric date flag", `{"sales_data":[],"date_context":{"isDateSpecific":1}}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSalesRequest([]byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeSalesRequest() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrComputation) {
				t.Errorf("error = %v, want ErrComputation", err)
			}
		})
	}

	if _, err := DecodeProfitRequest([]byte(`{"revenue_data":{}}`)); err == nil {
		t.Error("DecodeProfitRequest should reject an object where a list is expected")
	}
}
