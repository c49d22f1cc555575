package core

import (
	"encoding/json"
	"testing"
)

func mustRecords(t *testing.T, data string) []TransactionRecord {
	t.Helper()
	var out []TransactionRecord
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		t.Fatalf("decode records: %v", err)
	}
	return out
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

const scenarioSales = `[
	{"date":"01-Jan-23","amount":"100","account":"A"},
	{"date":"15-Jan-23","amount":200,"account":"B"},
	{"date":"01-Feb-23","amount":50,"account":"A"}
]`
