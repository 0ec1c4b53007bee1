package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sessync/internal/core/domain"
)

// EmptyInput is the input schema for tools without arguments.
type EmptyInput struct{}

// CommandOutput mirrors the agent's command envelope.
type CommandOutput struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Error   string         `json:"error,omitempty"`
	Metrics map[string]any `json:"metrics,omitempty"`
}

// CredentialsOutput is the output schema for get_credentials.
type CredentialsOutput struct {
	CommandOutput
	Credentials []CredentialOutput `json:"credentials"`
}

// CredentialOutput describes a credential without its value.
type CredentialOutput struct {
	Name        string `json:"name"`
	Domain      string `json:"domain"`
	Required    bool   `json:"required"`
	Session     bool   `json:"session"`
	ExpiresAt   string `json:"expires_at,omitempty"`
	ValueLength int    `json:"value_length"`
}

// ConnectionOutput is the output schema for test_connection.
type ConnectionOutput struct {
	CommandOutput
	Method          string   `json:"method,omitempty"`
	SessionActive   bool     `json:"session_active"`
	Troubleshooting []string `json:"troubleshooting,omitempty"`
}

// StatusOutput is the output schema for get_status.
type StatusOutput struct {
	Presence       string `json:"presence"`
	Indicator      string `json:"indicator"`
	LastStatus     string `json:"last_status,omitempty"`
	LastMessage    string `json:"last_message,omitempty"`
	LastSync       string `json:"last_sync,omitempty"`
	LastTrigger    string `json:"last_trigger,omitempty"`
	RetryCount     int    `json:"retry_count"`
	SyncInProgress bool   `json:"sync_in_progress"`
	PendingRetries int    `json:"pending_retries"`
	BatchPending   bool   `json:"batch_pending"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "sync_now",
		Description: "Transfer the session cookies to the backend now, bypassing the debounce window",
	}, s.handleSyncNow)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_credentials",
		Description: "List the session cookies of the configured domain (values are not returned)",
	}, s.handleGetCredentials)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "test_connection",
		Description: "Check that the backend is reachable and report whether its session is active",
	}, s.handleTestConnection)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "clear_all",
		Description: "Remove every session cookie of the configured domain and reset the stored sync status",
	}, s.handleClearAll)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_status",
		Description: "Show the last sync outcome, companion presence and scheduler state",
	}, s.handleGetStatus)
}

func (s *Server) handleSyncNow(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, CommandOutput, error) {
	result, err := s.ports.Agent.SyncNow(ctx, domain.TriggerManualAPI)
	if err != nil {
		return nil, CommandOutput{}, err
	}
	return nil, commandOutput(result), nil
}

func (s *Server) handleGetCredentials(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, CredentialsOutput, error) {
	result, err := s.ports.Agent.GetCredentials(ctx)
	if err != nil {
		return nil, CredentialsOutput{}, err
	}

	out := CredentialsOutput{
		CommandOutput: commandOutput(result),
		Credentials:   make([]CredentialOutput, len(result.Credentials)),
	}
	for i, c := range result.Credentials {
		out.Credentials[i] = CredentialOutput{
			Name:        c.Name,
			Domain:      c.Domain,
			Required:    c.Required,
			Session:     c.Session,
			ValueLength: len(c.Value),
		}
		if c.ExpiresAt != nil {
			out.Credentials[i].ExpiresAt = c.ExpiresAt.UTC().Format(time.RFC3339)
		}
	}
	return nil, out, nil
}

func (s *Server) handleTestConnection(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, ConnectionOutput, error) {
	result, err := s.ports.Agent.TestConnection(ctx)
	if err != nil {
		return nil, ConnectionOutput{}, err
	}

	out := ConnectionOutput{CommandOutput: commandOutput(result)}
	if d := result.Diagnostic; d != nil {
		out.Method = d.Method
		out.SessionActive = d.SessionActive
		out.Troubleshooting = d.Troubleshooting
	}
	return nil, out, nil
}

func (s *Server) handleClearAll(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, CommandOutput, error) {
	result, err := s.ports.Agent.ClearAll(ctx)
	if err != nil {
		return nil, CommandOutput{}, err
	}
	return nil, commandOutput(result), nil
}

func (s *Server) handleGetStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	status, err := s.ports.Agent.Status(ctx)
	if err != nil {
		return nil, StatusOutput{}, err
	}

	out := StatusOutput{
		Presence:       string(status.Scheduler.Presence),
		Indicator:      status.Indicator.Label,
		SyncInProgress: status.Scheduler.SyncInProgress,
		PendingRetries: status.Scheduler.PendingRetries,
		BatchPending:   status.Scheduler.BatchPending,
	}
	if o := status.Outcome; o != nil {
		out.LastStatus = string(o.Status)
		out.LastMessage = o.Message
		out.LastSync = o.Timestamp.Format(time.RFC3339)
		out.LastTrigger = o.Trigger.String()
		out.RetryCount = o.RetryCount
	}
	return nil, out, nil
}

func commandOutput(r *domain.CommandResult) CommandOutput {
	return CommandOutput{
		Success: r.Success,
		Message: r.Message,
		Error:   r.Error,
		Metrics: r.Metrics,
	}
}
