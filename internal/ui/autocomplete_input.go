package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/google/uuid"

	"github.com/bborn/grocer/internal/autocomplete"
)

// blurElapsedMsg closes a dropdown once its input has been blurred for the
// blur delay. seq ties it to one particular blur.
type blurElapsedMsg struct {
	id  string
	seq int
}

// AutocompleteInput is a text input with a dropdown of options driven by
// autocomplete.State.
type AutocompleteInput struct {
	id        string
	input     textinput.Model
	state     autocomplete.State
	blurDelay time.Duration
	blurSeq   int
	focused   bool

	maxVisible int
	width      int
	winStart   int // first visible row in the last rendered window
	winEnd     int
}

// NewAutocompleteInput creates an input over options with an initial value.
func NewAutocompleteInput(options []autocomplete.Option, value, placeholder string) *AutocompleteInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = ""
	ti.SetValue(value)

	return &AutocompleteInput{
		id:         uuid.NewString(),
		input:      ti,
		state:      autocomplete.New(options, value),
		blurDelay:  autocomplete.BlurDelay,
		maxVisible: 5,
		width:      40,
	}
}

// SetBlurDelay overrides how long the dropdown lingers after blur.
func (a *AutocompleteInput) SetBlurDelay(d time.Duration) {
	if d > 0 {
		a.blurDelay = d
	}
}

// SetWidth sets the render width of the input and dropdown.
func (a *AutocompleteInput) SetWidth(w int) {
	a.width = w
	a.input.Width = w
}

// Value returns the current text.
func (a *AutocompleteInput) Value() string { return a.state.Input() }

// State exposes the underlying selection state.
func (a *AutocompleteInput) State() autocomplete.State { return a.state }

// Focused reports whether the input has focus.
func (a *AutocompleteInput) Focused() bool { return a.focused }

// SetValue replaces the text from outside, e.g. when a form is reset.
func (a *AutocompleteInput) SetValue(v string) {
	a.state = a.state.SetValue(v)
	a.input.SetValue(v)
	a.input.CursorEnd()
}

// SetOptions replaces the candidates, keeping the typed text.
func (a *AutocompleteInput) SetOptions(opts []autocomplete.Option) {
	a.state = a.state.SetOptions(opts)
}

// Focus opens the dropdown and starts accepting keys.
func (a *AutocompleteInput) Focus() tea.Cmd {
	a.focused = true
	a.blurSeq++ // cancel a pending close
	a.state = a.state.Focus()
	return a.input.Focus()
}

// Blur stops accepting keys and closes the dropdown after the blur delay.
func (a *AutocompleteInput) Blur() tea.Cmd {
	a.focused = false
	a.input.Blur()
	a.blurSeq++
	msg := blurElapsedMsg{id: a.id, seq: a.blurSeq}
	return tea.Tick(a.blurDelay, func(time.Time) tea.Msg { return msg })
}

// Update handles keys while focused and the delayed blur. It returns the
// event the state machine emitted, if any.
func (a *AutocompleteInput) Update(msg tea.Msg) (tea.Cmd, autocomplete.Event) {
	switch msg := msg.(type) {
	case blurElapsedMsg:
		if msg.id == a.id && msg.seq == a.blurSeq && !a.focused {
			a.state = a.state.Blur()
		}
		return nil, autocomplete.Event{}

	case tea.KeyMsg:
		if !a.focused {
			return nil, autocomplete.Event{}
		}
		key := autocomplete.ParseKey(msg.String())
		if a.handlesKey(key) {
			var ev autocomplete.Event
			a.state, ev = a.state.Key(key)
			if ev.Kind == autocomplete.EventSelected {
				a.input.SetValue(a.state.Input())
				a.input.CursorEnd()
			}
			return nil, ev
		}
		if key == autocomplete.KeyOther {
			a.state, _ = a.state.Key(key)
		}

		before := a.input.Value()
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		if a.input.Value() == before {
			return cmd, autocomplete.Event{}
		}
		var ev autocomplete.Event
		a.state, ev = a.state.TextChanged(a.input.Value())
		return cmd, ev
	}
	return nil, autocomplete.Event{}
}

// handlesKey reports whether key belongs to the state machine alone. Up and
// Down always navigate; Right and Enter only commit when a row is
// highlighted, otherwise they go to the text input.
func (a *AutocompleteInput) handlesKey(key autocomplete.Key) bool {
	switch key {
	case autocomplete.KeyUp, autocomplete.KeyDown:
		return true
	case autocomplete.KeyRight, autocomplete.KeyEnter:
		_, highlighted := a.state.Highlighted()
		return highlighted
	}
	return false
}

// Click focuses the input from a mouse press on its text line.
func (a *AutocompleteInput) Click() tea.Cmd {
	cmd := a.Focus()
	a.state = a.state.Click()
	return cmd
}

// Hover highlights the dropdown row under the pointer.
func (a *AutocompleteInput) Hover(row int) {
	a.state = a.state.Hover(row)
}

// ClickRow commits the dropdown row under the pointer.
func (a *AutocompleteInput) ClickRow(row int) autocomplete.Event {
	var ev autocomplete.Event
	a.state, ev = a.state.ClickRow(row)
	if ev.Kind == autocomplete.EventSelected {
		a.input.SetValue(a.state.Input())
		a.input.CursorEnd()
	}
	return ev
}

// RowAtLine maps a line of the rendered dropdown (0 is its top border) to
// an index into the visible options.
func (a *AutocompleteInput) RowAtLine(line int) (int, bool) {
	if !a.state.ShowDropdown() {
		return 0, false
	}
	l := line - 1
	if a.winStart > 0 {
		l--
	}
	idx := a.winStart + l
	if l < 0 || idx >= a.winEnd {
		return 0, false
	}
	return idx, true
}

// window returns the range of visible rows to render, keeping the
// highlighted row in view.
func (a *AutocompleteInput) window() (int, int) {
	n := len(a.state.Visible())
	if n <= a.maxVisible {
		return 0, n
	}
	sel, ok := a.state.Highlighted()
	if !ok {
		sel = 0
	}
	start := sel - a.maxVisible/2
	if start < 0 {
		start = 0
	}
	end := start + a.maxVisible
	if end > n {
		end = n
		start = end - a.maxVisible
	}
	return start, end
}

// View renders the input line.
func (a *AutocompleteInput) View() string {
	return a.input.View()
}

// DropdownView renders the option list, or "" when it is hidden.
func (a *AutocompleteInput) DropdownView() string {
	if !a.state.ShowDropdown() {
		a.winStart, a.winEnd = 0, 0
		return ""
	}
	visible := a.state.Visible()
	start, end := a.window()
	a.winStart, a.winEnd = start, end
	sel, highlighted := a.state.Highlighted()

	more := lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)
	var lines []string
	if start > 0 {
		lines = append(lines, more.Render(fmt.Sprintf("  ... %d more", start)))
	}
	for i := start; i < end; i++ {
		lines = append(lines, a.renderOption(visible[i], highlighted && i == sel))
	}
	if remaining := len(visible) - end; remaining > 0 {
		lines = append(lines, more.Render(fmt.Sprintf("  ... %d more", remaining)))
	}

	w := a.width
	if w > 60 {
		w = 60
	}
	if w < 30 {
		w = 30
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(0, 1).
		Width(w).
		Render(strings.Join(lines, "\n"))
}

func (a *AutocompleteInput) renderOption(opt autocomplete.Option, selected bool) string {
	var line strings.Builder
	label := lipgloss.NewStyle().Foreground(ColorText)
	if selected {
		line.WriteString(lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true).Render("> "))
		label = label.Bold(true).Foreground(ColorPrimary)
	} else {
		line.WriteString("  ")
	}
	line.WriteString(label.Render(opt.Label))
	if opt.Description != "" {
		desc := opt.Description
		if limit := a.width - lipgloss.Width(opt.Label) - 6; limit > 3 {
			desc = ansi.Truncate(desc, limit, "...")
		}
		line.WriteString(" ")
		line.WriteString(Dim.Render(desc))
	}
	return line.String()
}
