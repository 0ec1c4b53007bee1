// Package indicator provides presence indicator adapters.
package indicator

import (
	"context"
	"sync"

	"github.com/custodia-labs/sessync/internal/core/domain"
	"github.com/custodia-labs/sessync/internal/core/ports/driven"
	"github.com/custodia-labs/sessync/internal/logger"
)

// Ensure Log implements the interface.
var _ driven.Indicator = (*Log)(nil)

// Log writes indicator changes to the log and remembers the last state.
type Log struct {
	mu      sync.Mutex
	current domain.IndicatorState
}

// NewLog creates a logging indicator.
func NewLog() *Log {
	return &Log{}
}

// Show logs state when it differs from the previous one.
func (l *Log) Show(_ context.Context, state domain.IndicatorState) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if state == l.current {
		return nil
	}
	l.current = state
	logger.Info("indicator: [%s] %s", state.Icon, state.Label)
	return nil
}

// Current returns the last shown state.
func (l *Log) Current() domain.IndicatorState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}
