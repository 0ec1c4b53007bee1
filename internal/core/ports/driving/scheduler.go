package driving

import (
	"context"

	"github.com/custodia-labs/sessync/internal/core/domain"
)

// Scheduler runs the sync loop that serialises all attempts.
type Scheduler interface {
	// Run processes scheduling requests until the context is cancelled.
	// Blocks; returns nil on cancellation.
	Run(ctx context.Context) error

	// Schedule queues an attempt through the debounce window.
	Schedule(trigger domain.Trigger, detail string)

	// RequestNow bypasses the debounce window and waits for the first
	// attempt of the chain to finish (or be skipped).
	RequestNow(ctx context.Context, trigger domain.Trigger, detail string) (*domain.AttemptReport, error)

	// Snapshot returns a copy of the scheduler state.
	Snapshot(ctx context.Context) (domain.SchedulerState, error)
}
