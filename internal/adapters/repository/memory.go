package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/model"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/pkg/metrics"
)

// MemoryStore is an in-memory Store for tests and ephemeral runs.
// Records live in a slice in insertion order with an id index on the
// side. Every record crossing the boundary is cloned, so committed
// state cannot be mutated through a caller's reference.
type MemoryStore struct {
	mu      sync.RWMutex
	records []model.EvaluationRecord
	byID    map[string]int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID: make(map[string]int),
	}
}

// Append commits a record or rejects a duplicate id.
func (s *MemoryStore) Append(ctx context.Context, rec model.EvaluationRecord) error {
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[rec.ID]; exists {
		metrics.RecordErrorByComponent("repository", "duplicate_id")
		return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
	}

	s.records = append(s.records, rec.Clone())
	s.byID[rec.ID] = len(s.records) - 1

	metrics.RecordStoreAppendLatency(float64(time.Since(start).Milliseconds()))
	metrics.UpdateStoreRecordsTotal(len(s.records))
	return nil
}

// Get returns the record with the given id, or ErrNotFound.
func (s *MemoryStore) Get(ctx context.Context, id string) (model.EvaluationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.EvaluationRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.records[idx].Clone(), nil
}

// List returns records in insertion order, optionally restricted to one
// problem-statement cohort.
func (s *MemoryStore) List(ctx context.Context, problemStatementID string) ([]model.EvaluationRecord, error) {
	start := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.EvaluationRecord, 0, len(s.records))
	for _, rec := range s.records {
		if problemStatementID != "" && rec.ProblemStatementID != problemStatementID {
			continue
		}
		out = append(out, rec.Clone())
	}

	metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	return out, nil
}

// Count returns the number of committed records.
func (s *MemoryStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
