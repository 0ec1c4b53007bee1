// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"github.com/custodia-labs/sessync/internal/core/domain"
)

// Action identifies a command started from the dashboard.
type Action string

// Dashboard actions.
const (
	ActionSync Action = "sync"
	ActionTest Action = "test"
)

// StatusLoaded carries a fresh agent status.
type StatusLoaded struct {
	Status *domain.AgentStatus
	Err    error
}

// CommandCompleted carries the result of a dashboard action.
type CommandCompleted struct {
	Action Action
	Result *domain.CommandResult
	Err    error
}

// RefreshTick triggers a periodic status reload.
type RefreshTick struct{}
