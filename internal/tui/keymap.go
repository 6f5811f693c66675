package tui

import "charm.land/bubbles/v2/key"

// keyMap represents key map data used by this package.
type keyMap struct {
	quit        key.Binding
	focusUp     key.Binding
	focusDown   key.Binding
	clearFocus  key.Binding
	submit      key.Binding
	toggleFold  key.Binding
	collapseAll key.Binding
	showFeed    key.Binding
	yankTask    key.Binding
	toggleHelp  key.Binding
}

// KeyOverrides rebinds the non-navigation keys. Empty fields keep defaults.
type KeyOverrides struct {
	ToggleFold  string
	CollapseAll string
	ShowFeed    string
	YankTask    string
	Help        string
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:        key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		focusUp:     key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "focus up")),
		focusDown:   key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "focus down")),
		clearFocus:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back to input")),
		submit:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "run / save")),
		toggleFold:  key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "fold subtasks")),
		collapseAll: key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "collapse all")),
		showFeed:    key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("ctrl+g", "genius feed")),
		yankTask:    key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "yank task")),
		toggleHelp:  key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "help")),
	}
}

// applyOverrides rebinds configurable keys, leaving blank overrides alone.
func (k keyMap) applyOverrides(o KeyOverrides) keyMap {
	if o.ToggleFold != "" {
		k.toggleFold = key.NewBinding(key.WithKeys(o.ToggleFold), key.WithHelp(o.ToggleFold, "fold subtasks"))
	}
	if o.CollapseAll != "" {
		k.collapseAll = key.NewBinding(key.WithKeys(o.CollapseAll), key.WithHelp(o.CollapseAll, "collapse all"))
	}
	if o.ShowFeed != "" {
		k.showFeed = key.NewBinding(key.WithKeys(o.ShowFeed), key.WithHelp(o.ShowFeed, "genius feed"))
	}
	if o.YankTask != "" {
		k.yankTask = key.NewBinding(key.WithKeys(o.YankTask), key.WithHelp(o.YankTask, "yank task"))
	}
	if o.Help != "" {
		k.toggleHelp = key.NewBinding(key.WithKeys(o.Help), key.WithHelp(o.Help, "help"))
	}
	return k
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.submit, k.focusUp, k.focusDown, k.toggleFold, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.submit, k.focusUp, k.focusDown, k.clearFocus},
		{k.toggleFold, k.collapseAll, k.yankTask},
		{k.showFeed, k.toggleHelp, k.quit},
	}
}
