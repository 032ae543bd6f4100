package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Select   key.Binding
	Wildcard key.Binding
	Skip     key.Binding
	Same     key.Binding
	Random   key.Binding
	Quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Wildcard, k.Skip, k.Same, k.Random, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Select, k.Wildcard, k.Skip},
		{k.Same, k.Random, k.Quit},
	}
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
	Right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
	Select:   key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "guess")),
	Wildcard: key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "wildcard")),
	Skip:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "skip")),
	Same:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "same card")),
	Random:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "random card")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
}
