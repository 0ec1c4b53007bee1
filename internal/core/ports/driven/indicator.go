package driven

import (
	"context"

	"github.com/custodia-labs/sessync/internal/core/domain"
)

// Indicator is the external presence indicator (badge, icon, tooltip).
type Indicator interface {
	// Show replaces icon and label in one update.
	Show(ctx context.Context, state domain.IndicatorState) error
}
