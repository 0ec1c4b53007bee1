package driving

import (
	"context"

	"github.com/custodia-labs/sessync/internal/core/domain"
)

// AgentService is the command surface exposed to callers.
// Every command answers with a domain.CommandResult envelope; the error return
// is reserved for failures of the surface itself (e.g. cancelled context).
type AgentService interface {
	// SyncNow runs an attempt immediately, bypassing the debounce window.
	SyncNow(ctx context.Context, trigger domain.Trigger) (*domain.CommandResult, error)

	// GetCredentials returns the relevant credentials of the configured domain.
	GetCredentials(ctx context.Context) (*domain.CommandResult, error)

	// TestConnection runs the connectivity probe and persists its result.
	TestConnection(ctx context.Context) (*domain.CommandResult, error)

	// ClearAll removes every credential in scope and clears persisted state.
	ClearAll(ctx context.Context) (*domain.CommandResult, error)

	// RemoveCredential removes a single credential by name.
	RemoveCredential(ctx context.Context, name string) (*domain.CommandResult, error)

	// Status returns the persisted outcome together with live scheduler state.
	Status(ctx context.Context) (*domain.AgentStatus, error)

	// History returns recent terminal outcomes, most recent first.
	History(ctx context.Context, limit int) ([]domain.OutcomeRecord, error)
}
