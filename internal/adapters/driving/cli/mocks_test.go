package cli

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/sessync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sessync/internal/core/domain"
	"github.com/custodia-labs/sessync/internal/core/ports/driving"
)

var _ driving.AgentService = (*mockAgent)(nil)

type mockAgent struct {
	mu sync.Mutex

	syncResult   *domain.CommandResult
	listResult   *domain.CommandResult
	testResult   *domain.CommandResult
	clearResult  *domain.CommandResult
	removeResult *domain.CommandResult
	statuses     []*domain.AgentStatus
	history      []domain.OutcomeRecord
	err          error

	triggers     []domain.Trigger
	removed      []string
	historyLimit int
	statusCalls  int
}

func (m *mockAgent) SyncNow(_ context.Context, trigger domain.Trigger) (*domain.CommandResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.triggers = append(m.triggers, trigger)
	return m.syncResult, m.err
}

func (m *mockAgent) GetCredentials(context.Context) (*domain.CommandResult, error) {
	return m.listResult, m.err
}

func (m *mockAgent) TestConnection(context.Context) (*domain.CommandResult, error) {
	return m.testResult, m.err
}

func (m *mockAgent) ClearAll(context.Context) (*domain.CommandResult, error) {
	return m.clearResult, m.err
}

func (m *mockAgent) RemoveCredential(_ context.Context, name string) (*domain.CommandResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, name)
	return m.removeResult, m.err
}

// Status returns statuses in order, repeating the last one.
func (m *mockAgent) Status(context.Context) (*domain.AgentStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.statusCalls++
	if len(m.statuses) == 0 {
		return &domain.AgentStatus{}, nil
	}
	st := m.statuses[0]
	if len(m.statuses) > 1 {
		m.statuses = m.statuses[1:]
	}
	return st, nil
}

func (m *mockAgent) History(_ context.Context, limit int) ([]domain.OutcomeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.historyLimit = limit
	return m.history, m.err
}

type mockRuntime struct {
	agent    *mockAgent
	settings domain.Settings
	started  int
	stopped  int
	served   int
	closed   int
}

func (r *mockRuntime) Agent() driving.AgentService { return r.agent }

func (r *mockRuntime) Start(context.Context) func() {
	r.started++
	return func() { r.stopped++ }
}

func (r *mockRuntime) Serve(context.Context) error {
	r.served++
	return nil
}

func (r *mockRuntime) Close() error {
	r.closed++
	return nil
}

// setupRuntime installs a memory config store and a factory returning rt.
func setupRuntime(t *testing.T, agent *mockAgent) *mockRuntime {
	t.Helper()
	rt := &mockRuntime{agent: agent}

	oldStore, oldFactory := configStore, newRuntime
	configStore = memory.NewConfigStore(nil)
	newRuntime = func(s domain.Settings) (Runtime, error) {
		rt.settings = s
		return rt, nil
	}
	t.Cleanup(func() {
		configStore, newRuntime = oldStore, oldFactory
	})
	return rt
}

// execute runs the root command with args and returns its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}
