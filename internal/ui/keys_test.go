package ui

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bborn/grocer/internal/config"
)

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "ctrl+a":
		return tea.KeyMsg{Type: tea.KeyCtrlA}
	case "ctrl+x":
		return tea.KeyMsg{Type: tea.KeyCtrlX}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(s string) []tea.KeyMsg {
	msgs := make([]tea.KeyMsg, 0, len(s))
	for _, r := range s {
		msgs = append(msgs, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return msgs
}

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()
	tests := []struct {
		name    string
		binding key.Binding
		press   string
	}{
		{"up", km.Up, "k"},
		{"down", km.Down, "j"},
		{"new", km.New, "n"},
		{"edit", km.Edit, "e"},
		{"delete", km.Delete, "d"},
		{"search", km.Search, "/"},
		{"ingredients tab", km.Ingredients, "1"},
		{"dishes tab", km.Dishes, "2"},
		{"account tab", km.Account, "3"},
		{"add row", km.AddRow, "ctrl+a"},
		{"remove row", km.RemoveRow, "ctrl+x"},
		{"submit", km.Submit, "ctrl+s"},
		{"quit", km.Quit, "ctrl+c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !key.Matches(keyPress(tt.press), tt.binding) {
				t.Errorf("%q should trigger %s", tt.press, tt.name)
			}
		})
	}
}

func TestApplyKeybindingsConfig(t *testing.T) {
	cfg := &config.KeybindingsConfig{
		New:    &config.KeybindingConfig{Keys: []string{"a", "+"}, Help: "add"},
		Delete: &config.KeybindingConfig{Keys: []string{"x"}},
		Edit:   &config.KeybindingConfig{},
	}
	km := ApplyKeybindingsConfig(DefaultKeyMap(), cfg)

	if !key.Matches(keyPress("a"), km.New) || !key.Matches(keyPress("+"), km.New) {
		t.Error("New should be rebound to a and +")
	}
	if key.Matches(keyPress("n"), km.New) {
		t.Error("n should no longer trigger New")
	}
	if km.New.Help().Key != "a" || km.New.Help().Desc != "add" {
		t.Errorf("New help = %+v", km.New.Help())
	}

	if !key.Matches(keyPress("x"), km.Delete) {
		t.Error("Delete should be rebound to x")
	}
	if km.Delete.Help().Desc != DefaultKeyMap().Delete.Help().Desc {
		t.Errorf("empty help should keep the old description, got %q", km.Delete.Help().Desc)
	}

	if !key.Matches(keyPress("e"), km.Edit) {
		t.Error("an entry without keys should keep the binding")
	}
	if !key.Matches(keyPress("/"), km.Search) {
		t.Error("unconfigured bindings should be untouched")
	}
}

func TestApplyKeybindingsConfigNil(t *testing.T) {
	km := ApplyKeybindingsConfig(DefaultKeyMap(), nil)
	if !key.Matches(keyPress("n"), km.New) {
		t.Error("nil config should keep defaults")
	}
}

func TestHelpListsBindings(t *testing.T) {
	km := DefaultKeyMap()
	if len(km.ShortHelp()) == 0 {
		t.Error("ShortHelp is empty")
	}
	if len(km.FullHelp()) == 0 {
		t.Error("FullHelp is empty")
	}
}
