package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	Select      key.Binding
	SelectAll   key.Binding
	SelectType  key.Binding
	ClearSelect key.Binding
	Clean       key.Binding
	CleanMode   key.Binding
	SafeMode    key.Binding
	Scan        key.Binding
	Stop        key.Binding
	Sort        key.Binding
	TypeFilter  key.Binding
	Confirm     key.Binding
	Cancel      key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Select: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "toggle select"),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "select all"),
		),
		SelectType: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "select type"),
		),
		ClearSelect: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear selection"),
		),
		Clean: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "clean"),
		),
		CleanMode: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "delete/trash"),
		),
		SafeMode: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "safe mode"),
		),
		Scan: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "scan"),
		),
		Stop: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "cancel scan"),
		),
		Sort: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "order"),
		),
		TypeFilter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "filter type"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("n/esc", "cancel"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (keys KeyMap) bindings() []key.Binding {
	return []key.Binding{
		keys.Up,
		keys.Down,
		keys.Select,
		keys.SelectAll,
		keys.SelectType,
		keys.ClearSelect,
		keys.Clean,
		keys.CleanMode,
		keys.SafeMode,
		keys.Scan,
		keys.Stop,
		keys.Sort,
		keys.TypeFilter,
		keys.Confirm,
		keys.Cancel,
		keys.Help,
		keys.Quit,
	}
}
