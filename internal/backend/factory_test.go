package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"fincalc/internal/config"
	"fincalc/internal/sheets/csvfile"
	"fincalc/internal/sheets/memory"
	"fincalc/internal/sheets/xlsx"
)

func TestParseSource(t *testing.T) {
	tests := []struct {
		src      string
		typ      BackendType
		location string
		selector string
		wantErr  bool
	}{
		{"data/sales.csv", CSVBackend, "data/sales.csv", "", false},
		{"data/sales.TSV", CSVBackend, "data/sales.TSV", "", false},
		{"book.xlsx", XLSXBackend, "book.xlsx", "", false},
		{"book.xlsx#Q1 Sales", XLSXBackend, "book.xlsx", "Q1 Sales", false},
		{"seed.json", MemoryBackend, "seed.json", "", false},
		{"seed.yml", MemoryBackend, "seed.yml", "", false},
		{"sheets:abc/Revenue!A:D", SheetsBackend, "abc", "Revenue!A:D", false},
		{"sheets:", "", "", "", true},
		{"report.pdf", "", "", "", true},
		{"  ", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			cfg, err := ParseSource(tt.src)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSource() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if cfg.Type != tt.typ || cfg.Location != tt.location || cfg.Selector != tt.selector {
				t.Errorf("ParseSource() = %+v", cfg)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"csv", Config{Type: CSVBackend, Location: "a.csv"}, false},
		{"invalid type", Config{Type: "sqlite", Location: "x"}, true},
		{"missing location", Config{Type: XLSXBackend}, true},
		{"sheets without credentials", Config{Type: SheetsBackend, Location: "id"}, true},
		{"sheets with credentials", Config{Type: SheetsBackend, Location: "id", GoogleServiceAccountJSON: "{}"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackend(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "sales.csv")
	jsonPath := filepath.Join(dir, "sales.json")
	if err := os.WriteFile(csvPath, []byte("date,amount\n01-Jan-23,10\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(jsonPath, []byte(`[{"date":"01-Jan-23","amount":10}]`), 0o644); err != nil {
		t.Fatal(err)
	}

	factory := NewFactory(nil)
	ctx := context.Background()

	res, err := Open(ctx, factory, csvPath, nil)
	if err != nil {
		t.Fatalf("Open(csv) error = %v", err)
	}
	if _, ok := res.Reader.(*csvfile.Reader); !ok {
		t.Errorf("csv reader type = %T", res.Reader)
	}
	records, err := res.Reader.ReadRecords(ctx)
	if err != nil || len(records) != 1 {
		t.Errorf("ReadRecords() = %v, %v", records, err)
	}

	res, err = Open(ctx, factory, jsonPath, &config.Config{})
	if err != nil {
		t.Fatalf("Open(json) error = %v", err)
	}
	if _, ok := res.Reader.(*memory.Store); !ok {
		t.Errorf("json reader type = %T", res.Reader)
	}

	res, err = Open(ctx, factory, filepath.Join(dir, "book.xlsx#Sheet1"), nil)
	if err != nil {
		t.Fatalf("Open(xlsx) error = %v", err)
	}
	if _, ok := res.Reader.(*xlsx.Reader); !ok {
		t.Errorf("xlsx reader type = %T", res.Reader)
	}

	if _, err := Open(ctx, factory, filepath.Join(dir, "missing.json"), nil); err == nil {
		t.Error("expected error for missing seed file")
	}
	if _, err := Open(ctx, factory, "sheets:abc", &config.Config{}); err == nil {
		t.Error("expected error for sheets without credentials")
	}
}
