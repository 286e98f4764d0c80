package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the session screen's key bindings
type keyMap struct {
	Connect key.Binding
	Hello   key.Binding
	Finish  key.Binding
	Left    key.Binding
	Right   key.Binding
	Press   key.Binding
	Up      key.Binding
	Down    key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Connect, k.Hello, k.Finish, k.Left, k.Right, k.Press, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Connect, k.Hello, k.Finish},
		{k.Left, k.Right, k.Press},
		{k.Up, k.Down, k.Quit},
	}
}

func newKeyMap() keyMap {
	return keyMap{
		Connect: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "connect"),
		),
		Hello: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "say hello"),
		),
		Finish: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "finish"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "shift+tab"),
			key.WithHelp("←", "prev"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "tab"),
			key.WithHelp("→", "next"),
		),
		Press: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "press"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// updateEnabled greys out the bindings whose action is gated off.
func (k *keyMap) updateEnabled(allowed func(button) bool) {
	k.Connect.SetEnabled(allowed(buttonConnect))
	k.Hello.SetEnabled(allowed(buttonHello))
	k.Finish.SetEnabled(allowed(buttonFinish))
}
