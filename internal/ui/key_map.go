package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the bindings of every view; [keyMap.forView] picks the ones shown in the help line.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	filter  key.Binding
	convert key.Binding
	back    key.Binding
	yes     key.Binding
	no      key.Binding
	cancel  key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		filter:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		convert: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "convert")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		yes:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "start")),
		no:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "back")),
		cancel:  key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "stop")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// forView lists the bindings active in v.
func (k keyMap) forView(v ViewState, hasTracks bool) []key.Binding {
	switch v {
	case TrackListView:
		if !hasTracks {
			return []key.Binding{k.quit}
		}
		return []key.Binding{k.convert, k.up, k.down, k.filter, k.quit}
	case ConfirmView:
		return []key.Binding{k.yes, k.no}
	case ConvertView:
		return []key.Binding{k.cancel}
	default:
		return []key.Binding{k.quit}
	}
}
