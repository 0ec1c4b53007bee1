package tui

import (
	"context"
	"sync"

	"github.com/custodia-labs/sessync/internal/core/domain"
)

type mockAgentService struct {
	mu       sync.Mutex
	triggers []domain.Trigger
	tests    int

	result *domain.CommandResult
	status *domain.AgentStatus
	err    error
}

func (m *mockAgentService) SyncNow(_ context.Context, trigger domain.Trigger) (*domain.CommandResult, error) {
	m.mu.Lock()
	m.triggers = append(m.triggers, trigger)
	m.mu.Unlock()
	return m.result, m.err
}

func (m *mockAgentService) GetCredentials(context.Context) (*domain.CommandResult, error) {
	return m.result, m.err
}

func (m *mockAgentService) TestConnection(context.Context) (*domain.CommandResult, error) {
	m.mu.Lock()
	m.tests++
	m.mu.Unlock()
	return m.result, m.err
}

func (m *mockAgentService) ClearAll(context.Context) (*domain.CommandResult, error) {
	return m.result, m.err
}

func (m *mockAgentService) RemoveCredential(context.Context, string) (*domain.CommandResult, error) {
	return m.result, m.err
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

func (m *mockAgentService) History(context.Context, int) ([]domain.OutcomeRecord, error) {
	return nil, m.err
}
