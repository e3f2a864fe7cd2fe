package tui

import "github.com/charmbracelet/bubbles/key"

type listKeys struct {
	Up      key.Binding
	Down    key.Binding
	Open    key.Binding
	Compose key.Binding
	Delete  key.Binding
	Reload  key.Binding
	Quit    key.Binding
}

func (k listKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Compose, k.Delete, k.Reload, k.Quit}
}

func (k listKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, k.ShortHelp()}
}

type editorKeys struct {
	Submit     key.Binding
	Visibility key.Binding
	Cancel     key.Binding
}

func (k editorKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Visibility, k.Cancel}
}

func (k editorKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func defaultListKeys() listKeys {
	return listKeys{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Open:    key.NewBinding(key.WithKeys("enter", "e"), key.WithHelp("enter", "edit")),
		Compose: key.NewBinding(key.WithKeys("a", "n"), key.WithHelp("a", "new memo")),
		Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Reload:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func defaultEditorKeys() editorKeys {
	return editorKeys{
		Submit:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Visibility: key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "visibility")),
		Cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

// Section is one screen's key bindings.
type Section struct {
	Screen   string
	Bindings []key.Binding
}

// Legend lists every binding of the list and editor screens.
func Legend() []Section {
	l, e := defaultListKeys(), defaultEditorKeys()
	return []Section{
		{Screen: "List", Bindings: []key.Binding{l.Up, l.Down, l.Open, l.Compose, l.Delete, l.Reload, l.Quit}},
		{Screen: "Editor", Bindings: []key.Binding{e.Submit, e.Visibility, e.Cancel}},
	}
}
