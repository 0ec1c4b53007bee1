package driven

import (
	"context"

	"github.com/custodia-labs/sessync/internal/core/domain"
)

// HistoryStore keeps a bounded log of terminal outcomes for diagnostics.
type HistoryStore interface {
	// RecordOutcome appends a terminal outcome.
	RecordOutcome(ctx context.Context, outcome *domain.OutcomeRecord) error

	// ListOutcomes returns recent outcomes, most recent first.
	ListOutcomes(ctx context.Context, limit int) ([]domain.OutcomeRecord, error)

	// PruneHistory removes all but the most recent 'keep' outcomes.
	PruneHistory(ctx context.Context, keep int) error

	// ClearHistory removes every outcome.
	ClearHistory(ctx context.Context) error
}
