// Package storage persists circular records keyed by their stable
// source document reference, with last-write-wins upsert semantics.
package storage

import (
	"context"
	"sort"
	"sync"

	"rbitracker/types"
)

// Filter narrows a Query. Zero value matches everything.
type Filter struct {
	// CircularDate matches records for one listing date when set.
	CircularDate string
}

// RecordStore is the persistence contract for stored circulars.
// Upserts with the same key fully replace the prior record; failures
// are per-record and never block sibling records in a run.
type RecordStore interface {
	Upsert(ctx context.Context, record *types.StoredCircular) error
	Get(ctx context.Context, ref string) (*types.StoredCircular, error)
	Query(ctx context.Context, filter Filter) ([]types.StoredCircular, error)
}

// MemoryStore is an in-memory RecordStore for tests and for running
// without a database. Safe for concurrent use; writes to the same key
// serialize, last write wins.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]types.StoredCircular
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]types.StoredCircular)}
}

func (s *MemoryStore) Upsert(_ context.Context, record *types.StoredCircular) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.SourceDocumentRef] = *record
	return nil
}

func (s *MemoryStore) Get(_ context.Context, ref string) (*types.StoredCircular, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[ref]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (s *MemoryStore) Query(_ context.Context, filter Filter) ([]types.StoredCircular, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.StoredCircular
	for _, record := range s.records {
		if filter.CircularDate != "" && record.CircularDate != filter.CircularDate {
			continue
		}
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SourceDocumentRef < out[j].SourceDocumentRef
	})
	return out, nil
}
