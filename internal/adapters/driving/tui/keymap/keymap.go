// Package keymap defines keybindings for the review view.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the review view keybindings.
type KeyMap struct {
	// Stop ends the review after the fact in progress.
	Stop key.Binding

	// Recent shows or hides the list of recent facts.
	Recent key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Stop: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "stop after current fact"),
		),
		Recent: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "toggle recent"),
		),
	}
}

// ShortHelp returns the bindings shown in the footer.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Stop, k.Recent}
}
