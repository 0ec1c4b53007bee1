package driven

import (
	"context"

	"github.com/custodia-labs/sessync/internal/core/domain"
)

// CredentialSource reads session credentials from the host environment.
type CredentialSource interface {
	// Collect returns every credential in the domain scope, including
	// leading-dot variants. Returned records are copies.
	Collect(ctx context.Context, domainScope string) ([]domain.CredentialRecord, error)

	// Remove deletes a single credential by name.
	// Returns domain.ErrNotFound if no such credential exists.
	Remove(ctx context.Context, domainScope, name string) error

	// RemoveAll deletes every credential in the domain scope and returns how
	// many were removed.
	RemoveAll(ctx context.Context, domainScope string) (int, error)
}
