package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fincalc/internal/core"
	"fincalc/internal/log"
	ports "fincalc/internal/sheets"
)

// SourcePrefix marks a Google Sheets source description.
const SourcePrefix = "sheets:"

// DefaultRange is read when a source names no range: the first sheet.
const DefaultRange = "A:Z"

var ErrMissingCredentials = errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")

// Ensure interface conformance
var _ ports.RecordReader = (*Reader)(nil)

// Credentials selects a service account. JSON wins over File.
type Credentials struct {
	JSON string
	File string
}

type Reader struct {
	svc           *gsheet.Service
	spreadsheetID string
	rng           string
	logger        *log.Logger
}

// New returns a reader for rng of the spreadsheet. An empty rng reads
// DefaultRange.
func New(svc *gsheet.Service, spreadsheetID, rng string, logger *log.Logger) *Reader {
	if rng == "" {
		rng = DefaultRange
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Reader{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		rng:           rng,
		logger:        logger.WithComponent(log.ComponentSheets),
	}
}

// ParseSource splits "sheets:<spreadsheetID>[/<A1 range>]".
func ParseSource(src string) (spreadsheetID, rng string, err error) {
	rest, ok := strings.CutPrefix(src, SourcePrefix)
	if !ok {
		return "", "", fmt.Errorf("not a sheets source: %q", src)
	}
	spreadsheetID, rng, _ = strings.Cut(rest, "/")
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return "", "", fmt.Errorf("missing spreadsheet ID in %q", src)
	}
	return spreadsheetID, strings.TrimSpace(rng), nil
}

// NewService initializes a read-only Sheets Service using Service Account
// credentials. Extra options are appended after the credentials.
func NewService(ctx context.Context, creds Credentials, opts ...goption.ClientOption) (*gsheet.Service, error) {
	var credentialsJSON []byte
	var err error

	switch {
	case strings.TrimSpace(creds.JSON) != "":
		credentialsJSON = []byte(creds.JSON)
	case strings.TrimSpace(creds.File) != "":
		credentialsJSON, err = os.ReadFile(creds.File)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, ErrMissingCredentials
	}

	all := append([]goption.ClientOption{
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope),
	}, opts...)

	service, err := gsheet.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ReadRecords fetches the range unformatted, so numbers stay numbers and
// dates arrive as serial day numbers.
func (r *Reader) ReadRecords(ctx context.Context) ([]core.TransactionRecord, error) {
	if r.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}

	resp, err := r.svc.Spreadsheets.Values.Get(r.spreadsheetID, r.rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("SERIAL_NUMBER").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", r.rng, err)
	}

	records, err := recordsFromValues(resp.Values)
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", r.rng, err)
	}

	r.logger.DebugContext(ctx, "Read records from spreadsheet",
		"spreadsheet_id", r.spreadsheetID,
		"range", r.rng,
		log.FieldRecords, len(records))
	return records, nil
}

// recordsFromValues converts a values matrix (as returned by the Sheets API)
// into records. Numbers in the date column are serial dates.
func recordsFromValues(values [][]interface{}) ([]core.TransactionRecord, error) {
	if len(values) == 0 {
		return nil, ports.ErrNoHeader
	}

	header := toStrings(values[0])
	dateCol, hasDate := ports.ParseHeader(header)[ports.FieldDate]

	rows := make([][]core.Value, 0, len(values)-1)
	for _, raw := range values[1:] {
		cells := make([]core.Value, len(raw))
		for i, v := range raw {
			if serial, ok := v.(float64); ok && hasDate && i == dateCol {
				if t, ok := ports.SerialDate(serial); ok {
					cells[i] = core.TimeValue(t)
					continue
				}
			}
			cells[i] = ports.Cell(v)
		}
		rows = append(rows, cells)
	}
	return ports.Records(header, rows), nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = fmt.Sprint(v)
	}
	return out
}
