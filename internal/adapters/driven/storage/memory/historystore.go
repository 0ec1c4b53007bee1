package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/sessync/internal/core/domain"
	"github.com/custodia-labs/sessync/internal/core/ports/driven"
)

// Ensure HistoryStore implements the interface.
var _ driven.HistoryStore = (*HistoryStore)(nil)

// HistoryStore keeps outcomes in insertion order.
type HistoryStore struct {
	mu       sync.RWMutex
	outcomes []domain.OutcomeRecord
}

// NewHistoryStore creates an empty history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{}
}

// RecordOutcome appends an outcome.
func (s *HistoryStore) RecordOutcome(_ context.Context, o *domain.OutcomeRecord) error {
	if o == nil {
		return domain.ErrInvalidInput
	}
	rec := *o
	rec.Missing = append([]string(nil), o.Missing...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = append(s.outcomes, rec)
	return nil
}

// ListOutcomes returns up to limit outcomes, most recent first.
// A non-positive limit returns everything.
func (s *HistoryStore) ListOutcomes(_ context.Context, limit int) ([]domain.OutcomeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.outcomes)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.OutcomeRecord, 0, n)
	for i := len(s.outcomes) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.outcomes[i])
	}
	return out, nil
}

// PruneHistory keeps the most recent keep outcomes.
func (s *HistoryStore) PruneHistory(_ context.Context, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if keep < 0 {
		keep = 0
	}
	if len(s.outcomes) > keep {
		s.outcomes = append([]domain.OutcomeRecord(nil), s.outcomes[len(s.outcomes)-keep:]...)
	}
	return nil
}

// ClearHistory removes every outcome.
func (s *HistoryStore) ClearHistory(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = nil
	return nil
}
