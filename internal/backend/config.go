package backend

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"fincalc/internal/config"
	gsheet "fincalc/internal/sheets/google"
	"fincalc/internal/sheets/xlsx"
)

// ParseSource turns a source description into a backend config:
// "path.csv", "path.xlsx[#Sheet]", "path.json", "path.yaml",
// "sheets:<spreadsheetID>[/<A1 range>]".
func ParseSource(src string) (Config, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return Config{}, fmt.Errorf("empty source")
	}

	if strings.HasPrefix(src, gsheet.SourcePrefix) {
		id, rng, err := gsheet.ParseSource(src)
		if err != nil {
			return Config{}, err
		}
		return Config{Type: SheetsBackend, Location: id, Selector: rng}, nil
	}

	path, sheet := src, ""
	if strings.Contains(strings.ToLower(src), ".xlsx#") {
		path, sheet = xlsx.ParseSource(src)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv":
		return Config{Type: CSVBackend, Location: path}, nil
	case ".xlsx", ".xlsm":
		return Config{Type: XLSXBackend, Location: path, Selector: sheet}, nil
	case ".json", ".yaml", ".yml":
		return Config{Type: MemoryBackend, Location: path}, nil
	default:
		return Config{}, fmt.Errorf("unsupported source %q: want .csv, .xlsx, .json, .yaml or sheets:<id>", src)
	}
}

// WithAppConfig copies the Google credentials from the application config.
func (c Config) WithAppConfig(appConfig *config.Config) Config {
	if appConfig != nil {
		c.GoogleServiceAccountJSON = appConfig.GoogleServiceAccountJSON
		c.GoogleServiceAccountFile = appConfig.GoogleServiceAccountFile
	}
	return c
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Location == "" {
		return fmt.Errorf("%s backend requires a location", c.Type)
	}

	if c.Type == SheetsBackend {
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			return fmt.Errorf("either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets backend")
		}
	}
	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{CSVBackend, XLSXBackend, SheetsBackend, MemoryBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}

// Open parses src and creates its reader with the credentials of appConfig.
func Open(ctx context.Context, factory Factory, src string, appConfig *config.Config) (*BackendResult, error) {
	cfg, err := ParseSource(src)
	if err != nil {
		return nil, err
	}
	return factory.CreateBackend(ctx, cfg.WithAppConfig(appConfig))
}
