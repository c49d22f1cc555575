package sheets

import (
	"context"

	"fincalc/internal/core"
)

// RecordReader loads transaction records from a tabular source.
type RecordReader interface {
	ReadRecords(ctx context.Context) ([]core.TransactionRecord, error)
}
