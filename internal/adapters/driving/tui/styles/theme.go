// Package styles provides colours and styling for the TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sessync/internal/core/domain"
)

// Theme defines the colour palette of the dashboard.
type Theme struct {
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Border  lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Accent:  lipgloss.Color("#06B6D4"),
		Text:    lipgloss.Color("#CDD6F4"),
		Muted:   lipgloss.Color("#6C7086"),
		Success: lipgloss.Color("#A6E3A1"),
		Warning: lipgloss.Color("#F9E2AF"),
		Error:   lipgloss.Color("#F38BA8"),
		Border:  lipgloss.Color("#45475A"),
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	theme *Theme

	Title   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style

	// Panel frames a dashboard section.
	Panel lipgloss.Style

	// StatusBar is the bottom line.
	StatusBar lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme:   theme,
		Title:   lipgloss.NewStyle().Bold(true).Foreground(theme.Accent),
		Label:   lipgloss.NewStyle().Foreground(theme.Muted).Width(18),
		Value:   lipgloss.NewStyle().Foreground(theme.Text),
		Muted:   lipgloss.NewStyle().Foreground(theme.Muted),
		Success: lipgloss.NewStyle().Foreground(theme.Success),
		Warning: lipgloss.NewStyle().Foreground(theme.Warning),
		Error:   lipgloss.NewStyle().Foreground(theme.Error),
		Panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),
		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 1),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// Outcome returns the style for an outcome status.
func (s *Styles) Outcome(status domain.OutcomeStatus) lipgloss.Style {
	switch status {
	case domain.OutcomeSuccess:
		return s.Success
	case domain.OutcomeError:
		return s.Error
	case domain.OutcomeTabNotOpen, domain.OutcomeNoCredentials, domain.OutcomeInsufficientCredentials:
		return s.Warning
	default:
		return s.Muted
	}
}

// Presence returns the style for a presence state.
func (s *Styles) Presence(p domain.PresenceState) lipgloss.Style {
	if p == domain.PresencePresent {
		return s.Success
	}
	return s.Warning
}
