package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/bborn/grocer/internal/config"
)

// KeyMap defines key bindings.
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	PrevPage    key.Binding
	NextPage    key.Binding
	Enter       key.Binding
	Back        key.Binding
	New         key.Binding
	Edit        key.Binding
	Delete      key.Binding
	Search      key.Binding
	Refresh     key.Binding
	Ingredients key.Binding
	Dishes      key.Binding
	Account     key.Binding
	AddRow      key.Binding
	RemoveRow   key.Binding
	Submit      key.Binding
	Logout      key.Binding
	Help        key.Binding
	Quit        key.Binding
}

// ShortHelp returns key bindings to show in the mini help.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.PrevPage, k.NextPage, k.Enter, k.New, k.Search, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PrevPage, k.NextPage},
		{k.Enter, k.New, k.Edit, k.Delete},
		{k.Search, k.Refresh, k.Back},
		{k.Ingredients, k.Dishes, k.Account},
		{k.AddRow, k.RemoveRow, k.Submit},
		{k.Logout, k.Help, k.Quit},
	}
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "prev page"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next page"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "view"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Ingredients: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "ingredients"),
		),
		Dishes: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "dishes"),
		),
		Account: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "account"),
		),
		AddRow: key.NewBinding(
			key.WithKeys("ctrl+a"),
			key.WithHelp("ctrl+a", "add row"),
		),
		RemoveRow: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "remove row"),
		),
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "log out"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// ApplyKeybindingsConfig overrides bindings from cfg. Entries that are nil or
// have no keys keep the existing binding.
func ApplyKeybindingsConfig(km KeyMap, cfg *config.KeybindingsConfig) KeyMap {
	if cfg == nil {
		return km
	}
	pairs := []struct {
		b *key.Binding
		c *config.KeybindingConfig
	}{
		{&km.Up, cfg.Up},
		{&km.Down, cfg.Down},
		{&km.PrevPage, cfg.PrevPage},
		{&km.NextPage, cfg.NextPage},
		{&km.Enter, cfg.Enter},
		{&km.Back, cfg.Back},
		{&km.New, cfg.New},
		{&km.Edit, cfg.Edit},
		{&km.Delete, cfg.Delete},
		{&km.Search, cfg.Search},
		{&km.Refresh, cfg.Refresh},
		{&km.Ingredients, cfg.Ingredients},
		{&km.Dishes, cfg.Dishes},
		{&km.Account, cfg.Account},
		{&km.AddRow, cfg.AddRow},
		{&km.RemoveRow, cfg.RemoveRow},
		{&km.Submit, cfg.Submit},
		{&km.Logout, cfg.Logout},
		{&km.Help, cfg.Help},
		{&km.Quit, cfg.Quit},
	}
	for _, p := range pairs {
		*p.b = applyBinding(*p.b, p.c)
	}
	return km
}

func applyBinding(b key.Binding, c *config.KeybindingConfig) key.Binding {
	if c == nil || len(c.Keys) == 0 {
		return b
	}
	help := c.Help
	if help == "" {
		help = b.Help().Desc
	}
	return key.NewBinding(
		key.WithKeys(c.Keys...),
		key.WithHelp(c.Keys[0], help),
	)
}
