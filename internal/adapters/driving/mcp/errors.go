// Package mcp provides an MCP (Model Context Protocol) server adapter for sessync.
// It lets AI assistants trigger syncs and inspect the agent's state.
package mcp

import "errors"

// ErrMissingAgentService is returned when the agent service is not provided.
var ErrMissingAgentService = errors.New("mcp: agent service is required")
