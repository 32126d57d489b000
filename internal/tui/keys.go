package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	// task actions
	New, Delete, Status key.Binding
	// workload actions
	Policy, Export key.Binding
	// view switching
	Tab1, Tab2, Tab3, Tab4, Tab key.Binding
	// navigation
	Help, Enter, Back, Up, Down, Left, Right, Quit key.Binding
}

// bind builds a binding whose help label is its first key unless label is set.
func bind(desc, label string, keys ...string) key.Binding {
	if label == "" {
		label = keys[0]
	}
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(label, desc))
}

var keys = keyMap{
	New:    bind("new", "", "n"),
	Delete: bind("delete", "", "d"),
	Status: bind("next status", "", "s"),

	Policy: bind("policy", "", "p"),
	Export: bind("export", "", "e"),

	Tab1: bind("overview", "", "1"),
	Tab2: bind("tasks", "", "2"),
	Tab3: bind("workload", "", "3"),
	Tab4: bind("settings", "", "4"),
	Tab:  bind("next view", "", "tab"),

	Help:  bind("help", "", "?"),
	Enter: bind("select", "", "enter"),
	Back:  bind("back", "", "esc"),
	Up:    bind("up", "↑/k", "up", "k"),
	Down:  bind("down", "↓/j", "down", "j"),
	Left:  bind("earlier", "←/h", "left", "h"),
	Right: bind("later", "→/l", "right", "l"),
	Quit:  bind("quit", "q", "q", "ctrl+c"),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.New, k.Status, k.Policy, k.Export, k.Tab, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.New, k.Delete, k.Status, k.Enter},
		{k.Policy, k.Left, k.Right, k.Export},
		{k.Tab1, k.Tab2, k.Tab3, k.Tab4, k.Tab},
		{k.Up, k.Down, k.Back, k.Help, k.Quit},
	}
}
