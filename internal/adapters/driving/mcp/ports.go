package mcp

import (
	"github.com/custodia-labs/sessync/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the MCP server.
type Ports struct {
	// Agent is the command surface.
	Agent driving.AgentService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Agent == nil {
		return ErrMissingAgentService
	}
	return nil
}
