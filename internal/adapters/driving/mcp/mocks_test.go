package mcp

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/sessync/internal/core/domain"
)

type mockAgentService struct {
	mu          sync.Mutex
	syncTrigger domain.Trigger
	historySize int

	result  *domain.CommandResult
	status  *domain.AgentStatus
	history []domain.OutcomeRecord
	err     error
}

func (m *mockAgentService) respond() (*domain.CommandResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &domain.CommandResult{Success: true, Message: "ok"}, nil
}

func (m *mockAgentService) SyncNow(_ context.Context, trigger domain.Trigger) (*domain.CommandResult, error) {
	m.mu.Lock()
	m.syncTrigger = trigger
	m.mu.Unlock()
	return m.respond()
}

func (m *mockAgentService) GetCredentials(context.Context) (*domain.CommandResult, error) {
	return m.respond()
}

func (m *mockAgentService) TestConnection(context.Context) (*domain.CommandResult, error) {
	return m.respond()
}

func (m *mockAgentService) ClearAll(context.Context) (*domain.CommandResult, error) {
	return m.respond()
}

func (m *mockAgentService) RemoveCredential(context.Context, string) (*domain.CommandResult, error) {
	return m.respond()
}

func (m *mockAgentService) Status(context.Context) (*domain.AgentStatus, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.status != nil {
		return m.status, nil
	}
	return &domain.AgentStatus{Indicator: domain.IndicatorFor(domain.PresenceAbsent)}, nil
}

func (m *mockAgentService) History(_ context.Context, limit int) ([]domain.OutcomeRecord, error) {
	m.mu.Lock()
	m.historySize = limit
	m.mu.Unlock()
	return m.history, m.err
}

func newTestServer(agent *mockAgentService) *Server {
	s, err := NewServer(&Ports{Agent: agent}, "test")
	if err != nil {
		panic(err)
	}
	return s
}

func fixedTime() time.Time {
	return time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
}
