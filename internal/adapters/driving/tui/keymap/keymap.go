// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the dashboard.
type KeyMap struct {
	// Sync requests an immediate sync.
	Sync key.Binding

	// Test runs the connectivity probe.
	Test key.Binding

	// Refresh reloads the status.
	Refresh key.Binding

	// Help toggles the full help.
	Help key.Binding

	// Quit exits the dashboard.
	Quit key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Sync: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sync now"),
		),
		Test: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "test connection"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Sync, k.Test, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Sync, k.Test, k.Refresh},
		{k.Help, k.Quit},
	}
}
