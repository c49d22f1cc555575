package memory

import (
	"context"
	"fmt"
	"os"
	"sync"

	"fincalc/internal/codec"
	"fincalc/internal/core"
	ports "fincalc/internal/sheets"
)

var _ ports.RecordReader = (*Store)(nil)

// Store holds records in memory. It serves fixtures and seed files.
type Store struct {
	mu    sync.Mutex
	items []core.TransactionRecord
}

func New(records ...core.TransactionRecord) *Store {
	return &Store{items: append([]core.TransactionRecord(nil), records...)}
}

// NewFromFile seeds a store from a JSON or YAML list of records.
func NewFromFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var records []core.TransactionRecord
	if err := codec.Decode(path, data, &records); err != nil {
		return nil, err
	}
	return New(records...), nil
}

// ReadRecords returns a copy of the stored records.
func (s *Store) ReadRecords(_ context.Context) ([]core.TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.TransactionRecord(nil), s.items...), nil
}

// Len reports how many records are stored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
