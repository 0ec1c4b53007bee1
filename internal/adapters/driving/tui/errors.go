package tui

import "errors"

// ErrMissingAgentService is returned when the agent service is not provided.
var ErrMissingAgentService = errors.New("tui: agent service is required")
