package backend

import (
	"context"

	"fincalc/internal/sheets"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the record reader and optional cleanup function
type BackendResult struct {
	Reader  sheets.RecordReader
	Cleanup CleanupFunc
}

// Factory creates record readers based on configuration
type Factory interface {
	// CreateBackend creates a reader for the source described by config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Path of a local file, or the spreadsheet ID for sheets sources.
	Location string
	// Sheet name for xlsx, A1 range for sheets.
	Selector string

	// Google Sheets specific
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

// BackendType represents the type of backend
type BackendType string

const (
	CSVBackend    BackendType = "csv"
	XLSXBackend   BackendType = "xlsx"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case CSVBackend, XLSXBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
