package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Edit    key.Binding
	Sort    key.Binding
	SortDir key.Binding
	Filter  key.Binding
	Mode    key.Binding
	Save    key.Binding
	Quit    key.Binding
	Commit  key.Binding
	Cancel  key.Binding
	NextFld key.Binding
	PrevFld key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Edit:    key.NewBinding(key.WithKeys("enter", "e"), key.WithHelp("enter", "edit")),
		Sort:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		SortDir: key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "reverse")),
		Filter:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Mode:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "match mode")),
		Save:    key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "save")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Commit:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "ok")),
		Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		NextFld: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		PrevFld: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev field")),
	}
}

func (k keyMap) browseHelp() []key.Binding {
	return []key.Binding{k.Edit, k.Sort, k.SortDir, k.Filter, k.Mode, k.Save, k.Quit}
}

func (k keyMap) editHelp() []key.Binding {
	return []key.Binding{k.Commit, k.Cancel, k.NextFld, k.PrevFld}
}
