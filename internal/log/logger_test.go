package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoggerJSONComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Format: FormatJSON, Output: &buf}).WithComponent(ComponentEngine)

	logger.Info("hello", FieldOperation, OpSales)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if entry[FieldComponent] != ComponentEngine {
		t.Errorf("component = %v, want %s", entry[FieldComponent], ComponentEngine)
	}
	if entry[FieldOperation] != OpSales {
		t.Errorf("operation = %v, want %s", entry[FieldOperation], OpSales)
	}
	if strings.Count(buf.String(), `"component"`) != 1 {
		t.Errorf("component logged more than once: %s", buf.String())
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Output: &buf})

	logger.Info("quiet")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level, got %s", buf.String())
	}
	logger.Warn("loud")
	if !strings.Contains(buf.String(), "loud") {
		t.Errorf("warn should be written, got %s", buf.String())
	}
}

func TestMiddlewareAndFromContext(t *testing.T) {
	logger := Discard().WithComponent(ComponentHTTP)

	var got *Logger
	handler := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if got != logger {
		t.Error("FromContext did not return the logger installed by Middleware")
	}
	if FromContext(context.Background()).Component() != "unknown" {
		t.Error("FromContext without a logger should fall back to the default")
	}
}

func TestStructuredLoggerLogError(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: FormatJSON, Output: &buf}))

	sl.LogError(context.Background(), "calculation failed", errors.New("boom"), ComponentEngine, OpProfit, nil)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry[FieldError] != "boom" || entry[FieldOperation] != OpProfit || entry[FieldComponent] != ComponentEngine {
		t.Errorf("unexpected entry %v", entry)
	}
}
