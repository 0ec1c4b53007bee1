package driven

import (
	"context"

	"github.com/custodia-labs/sessync/internal/core/domain"
)

// LivenessSource enumerates the client surfaces that are currently open.
type LivenessSource interface {
	ListActiveSurfaces(ctx context.Context) ([]domain.Surface, error)
}
