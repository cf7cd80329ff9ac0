// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	// Quit exits the application.
	Quit key.Binding

	// Help toggles the help view.
	Help key.Binding

	// Back returns to the dashboard.
	Back key.Binding

	// Sync starts a full sync pass.
	Sync key.Binding

	// Conflicts opens the pending conflict list.
	Conflicts key.Binding

	// Refresh reloads the current view.
	Refresh key.Binding

	Up   key.Binding
	Down key.Binding

	// KeepLocal, KeepRemote and Merge answer the selected conflict.
	KeepLocal  key.Binding
	KeepRemote key.Binding
	Merge      key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Sync: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sync"),
		),
		Conflicts: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "conflicts"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "refresh"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		KeepLocal: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "keep local"),
		),
		KeepRemote: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "keep remote"),
		),
		Merge: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "merge"),
		),
	}
}

// ShortHelp returns the bindings shown on the dashboard status bar.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Sync, k.Conflicts, k.Help, k.Quit}
}

// ConflictHelp returns the bindings shown while browsing conflicts.
func (k *KeyMap) ConflictHelp() []key.Binding {
	return []key.Binding{k.KeepLocal, k.KeepRemote, k.Merge, k.Back}
}

// FullHelp returns the full list of keybindings for the help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Sync, k.Conflicts, k.Refresh},
		{k.Up, k.Down, k.Back},
		{k.KeepLocal, k.KeepRemote, k.Merge},
		{k.Help, k.Quit},
	}
}

// Matches checks if a key string matches a binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}
