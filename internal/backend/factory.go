package backend

import (
	"context"
	"fmt"
	"strings"

	"fincalc/internal/log"
	"fincalc/internal/sheets/csvfile"
	gsheet "fincalc/internal/sheets/google"
	"fincalc/internal/sheets/memory"
	"fincalc/internal/sheets/xlsx"

	goption "google.golang.org/api/option"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger     *log.Logger
	sheetsOpts []goption.ClientOption
}

// NewFactory creates a new backend factory. sheetsOpts are passed to the
// Google Sheets service after the credentials.
func NewFactory(logger *log.Logger, sheetsOpts ...goption.ClientOption) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger:     logger.WithComponent(log.ComponentBackend),
		sheetsOpts: sheetsOpts,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case CSVBackend:
		f.logger.DebugContext(ctx, "Initialized CSV backend", log.FieldSource, config.Location)
		return &BackendResult{Reader: csvfile.New(config.Location, csvComma(config.Location))}, nil
	case XLSXBackend:
		f.logger.DebugContext(ctx, "Initialized XLSX backend", log.FieldSource, config.Location, "sheet", config.Selector)
		return &BackendResult{Reader: xlsx.New(config.Location, config.Selector)}, nil
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	svc, err := gsheet.NewService(ctx, gsheet.Credentials{
		JSON: config.GoogleServiceAccountJSON,
		File: config.GoogleServiceAccountFile,
	}, f.sheetsOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized Google Sheets backend",
		"spreadsheet_id", config.Location,
		"range", config.Selector)

	return &BackendResult{Reader: gsheet.New(svc, config.Location, config.Selector, f.logger)}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := memory.NewFromFile(config.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}

	f.logger.DebugContext(ctx, "Initialized memory backend",
		log.FieldSource, config.Location,
		log.FieldRecords, store.Len())

	return &BackendResult{Reader: store}, nil
}

func csvComma(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
