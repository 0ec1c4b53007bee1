package domain

// CommandResult is the envelope returned by every command on the agent surface.
type CommandResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Error   string         `json:"error,omitempty"`
	Metrics map[string]any `json:"metrics,omitempty"`

	// Credentials is set by GetCredentials.
	Credentials []CredentialView `json:"credentials,omitempty"`

	// Diagnostic is set by TestConnection.
	Diagnostic *DiagnosticResult `json:"diagnostic,omitempty"`
}

// CredentialView is a credential as shown to a user.
type CredentialView struct {
	CredentialRecord
	Required bool `json:"required"`
}

// AgentStatus is the combined view of persisted and in-memory state.
type AgentStatus struct {
	Outcome    *OutcomeRecord    `json:"outcome,omitempty"`
	LastClear  *ClearRecord      `json:"last_clear,omitempty"`
	Connection *ConnectionRecord `json:"connection,omitempty"`
	Scheduler  SchedulerState    `json:"scheduler"`
	Indicator  IndicatorState    `json:"indicator"`
}
