// Package status provides the status bar component for the TUI.
package status

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sessync/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sessync/internal/adapters/driving/tui/styles"
)

// State is what the status bar is currently showing.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateDone    State = "done"
	StateError   State = "error"
)

// Bar displays the last command message and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	help    help.Model
	spinner spinner.Model
	state   State
	message string
	width   int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Bar{
		styles:  s,
		keymap:  km,
		help:    help.New(),
		spinner: sp,
		state:   StateIdle,
		width:   80,
	}
}

// Update advances the spinner while a command is running.
func (b *Bar) Update(msg tea.Msg) (*Bar, tea.Cmd) {
	if b.state != StateRunning {
		return b, nil
	}
	var cmd tea.Cmd
	b.spinner, cmd = b.spinner.Update(msg)
	return b, cmd
}

// Start marks a command as running and returns the spinner tick.
func (b *Bar) Start(message string) tea.Cmd {
	b.state = StateRunning
	b.message = message
	return b.spinner.Tick
}

// Finish records the outcome of the running command.
func (b *Bar) Finish(message string, failed bool) {
	b.state = StateDone
	if failed {
		b.state = StateError
	}
	b.message = message
}

// ToggleHelp switches between short and full help.
func (b *Bar) ToggleHelp() {
	b.help.ShowAll = !b.help.ShowAll
}

// View renders the status bar.
func (b *Bar) View() string {
	left := b.renderLeft()
	right := b.help.View(b.keymap)

	if b.help.ShowAll {
		return b.styles.StatusBar.Render(left) + "\n" + b.styles.StatusBar.Render(right)
	}

	padding := b.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}
	return b.styles.StatusBar.Render(left + strings.Repeat(" ", padding) + right)
}

func (b *Bar) renderLeft() string {
	switch b.state {
	case StateRunning:
		return b.spinner.View() + " " + b.styles.Muted.Render(b.message)
	case StateError:
		return b.styles.Error.Render(b.message)
	case StateDone:
		return b.styles.Success.Render(b.message)
	default:
		return b.styles.Muted.Render("Ready")
	}
}

// State returns the current state.
func (b *Bar) State() State {
	return b.state
}

// Message returns the current message.
func (b *Bar) Message() string {
	return b.message
}

// SetWidth sets the status bar width.
func (b *Bar) SetWidth(width int) {
	b.width = width
	b.help.Width = width
}
