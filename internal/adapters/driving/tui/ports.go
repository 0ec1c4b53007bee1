// Package tui provides an interactive terminal dashboard for sessync.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/sessync/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the TUI.
type Ports struct {
	// Agent runs commands and reports status.
	Agent driving.AgentService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Agent == nil {
		return ErrMissingAgentService
	}
	return nil
}
