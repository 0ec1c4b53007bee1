package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sessync/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sessync/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sessync/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sessync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sessync/internal/adapters/driving/tui/views/dashboard"
	"github.com/custodia-labs/sessync/internal/core/domain"
)

// DefaultRefreshInterval is how often the dashboard reloads the status.
const DefaultRefreshInterval = 2 * time.Second

// App is the dashboard following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	keymap *keymap.KeyMap

	dashboard *dashboard.View
	statusBar *status.Bar

	// running is the action in flight, empty when idle.
	running messages.Action

	refresh time.Duration
	ready   bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates the dashboard with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:     ports,
		ctx:       context.Background(),
		keymap:    km,
		dashboard: dashboard.NewView(s),
		statusBar: status.NewBar(s, km),
		refresh:   DefaultRefreshInterval,
	}, nil
}

// WithContext sets the context used for agent calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// WithRefreshInterval overrides the status reload interval.
func (a *App) WithRefreshInterval(d time.Duration) *App {
	if d > 0 {
		a.refresh = d
	}
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("sessync"),
		a.loadStatus(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.ready = true
		a.dashboard.SetWidth(msg.Width)
		a.statusBar.SetWidth(msg.Width)
		return a, nil

	case tea.KeyMsg:
		return a, a.handleKey(msg)

	case messages.StatusLoaded:
		a.dashboard.SetStatus(msg.Status, msg.Err)
		return a, a.scheduleRefresh()

	case messages.RefreshTick:
		return a, a.loadStatus()

	case messages.CommandCompleted:
		a.running = ""
		a.statusBar.Finish(summarise(msg), msg.Err != nil || msg.Result == nil || !msg.Result.Success)
		return a, a.loadStatus()
	}

	var cmd tea.Cmd
	a.statusBar, cmd = a.statusBar.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, a.keymap.Quit):
		return tea.Quit
	case key.Matches(msg, a.keymap.Help):
		a.statusBar.ToggleHelp()
		return nil
	case key.Matches(msg, a.keymap.Refresh):
		return a.loadStatus()
	case key.Matches(msg, a.keymap.Sync):
		return a.start(messages.ActionSync, "Syncing...")
	case key.Matches(msg, a.keymap.Test):
		return a.start(messages.ActionTest, "Testing connection...")
	}
	return nil
}

// start runs one action at a time.
func (a *App) start(action messages.Action, label string) tea.Cmd {
	if a.running != "" {
		return nil
	}
	a.running = action
	return tea.Batch(a.statusBar.Start(label), a.runAction(action))
}

func (a *App) runAction(action messages.Action) tea.Cmd {
	agent := a.ports.Agent
	ctx := a.ctx
	return func() tea.Msg {
		var (
			result *domain.CommandResult
			err    error
		)
		switch action {
		case messages.ActionSync:
			result, err = agent.SyncNow(ctx, domain.TriggerManualPopup)
		case messages.ActionTest:
			result, err = agent.TestConnection(ctx)
		}
		return messages.CommandCompleted{Action: action, Result: result, Err: err}
	}
}

func (a *App) loadStatus() tea.Cmd {
	agent := a.ports.Agent
	ctx := a.ctx
	return func() tea.Msg {
		st, err := agent.Status(ctx)
		return messages.StatusLoaded{Status: st, Err: err}
	}
}

func (a *App) scheduleRefresh() tea.Cmd {
	return tea.Tick(a.refresh, func(time.Time) tea.Msg {
		return messages.RefreshTick{}
	})
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	return lipgloss.JoinVertical(lipgloss.Left, a.dashboard.View(), "", a.statusBar.View())
}

// Run starts the dashboard.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// Running returns the action in flight.
func (a *App) Running() messages.Action {
	return a.running
}

// Dashboard returns the dashboard view.
func (a *App) Dashboard() *dashboard.View {
	return a.dashboard
}

// StatusBar returns the status bar.
func (a *App) StatusBar() *status.Bar {
	return a.statusBar
}

func summarise(msg messages.CommandCompleted) string {
	if msg.Err != nil {
		return fmt.Sprintf("%s failed: %v", msg.Action, msg.Err)
	}
	if msg.Result == nil {
		return fmt.Sprintf("%s returned no result", msg.Action)
	}
	if msg.Result.Success {
		return msg.Result.Message
	}
	if msg.Result.Error != "" {
		return msg.Result.Error
	}
	return msg.Result.Message
}
