// Package autocomplete implements the selection state machine behind the
// typeahead input used by the planner forms.
//
// A State is an immutable value. Every interaction (typing, focus, blur,
// navigation keys, hover, click) is a method that returns the next State and,
// where the owner needs to hear about it, an Event. Rendering lives in the ui
// package; nothing here does I/O.
package autocomplete

import (
	"strings"
	"time"
)

// BlurDelay is how long a blur waits before closing the dropdown, so that a
// click on a row registers first.
const BlurDelay = 250 * time.Millisecond

// Option is one selectable candidate.
type Option struct {
	ID          string
	Label       string
	Description string
}

// FromStrings turns a plain list of labels into options whose ID is the label.
func FromStrings(values []string) []Option {
	opts := make([]Option, len(values))
	for i, v := range values {
		opts[i] = Option{ID: v, Label: v}
	}
	return opts
}

// Key is a navigation key understood by the state machine.
type Key int

const (
	KeyOther Key = iota
	KeyUp
	KeyDown
	KeyRight
	KeyEnter
)

// ParseKey maps a bubbletea key string to a Key.
func ParseKey(s string) Key {
	switch s {
	case "up":
		return KeyUp
	case "down":
		return KeyDown
	case "right":
		return KeyRight
	case "enter":
		return KeyEnter
	default:
		return KeyOther
	}
}

// EventKind says what an Event carries.
type EventKind int

const (
	EventNone EventKind = iota
	EventChanged
	EventSelected
)

// Event is emitted to the owner of the widget.
type Event struct {
	Kind EventKind
	Text string // EventChanged: the new raw input
	ID   string // EventSelected: the committed option's ID
}

var noEvent = Event{}

// State is the widget state. The zero value is a closed, empty widget.
type State struct {
	options   []Option
	input     string
	visible   []Option
	highlight int // -1 when nothing is highlighted
	open      bool
}

// New returns a closed State over options with value as its text.
func New(options []Option, value string) State {
	return State{
		options:   options,
		input:     value,
		visible:   options,
		highlight: -1,
	}
}

// Input returns the current text.
func (s State) Input() string { return s.input }

// Options returns the full candidate set.
func (s State) Options() []Option { return s.options }

// Visible returns the options matching the current filter.
func (s State) Visible() []Option { return s.visible }

// IsOpen reports whether the dropdown should be rendered.
func (s State) IsOpen() bool { return s.open }

// Highlighted returns the highlighted index, if any.
func (s State) Highlighted() (int, bool) {
	if s.highlight < 0 || s.highlight >= len(s.visible) {
		return 0, false
	}
	return s.highlight, true
}

// ShowDropdown reports whether there is something to show.
func (s State) ShowDropdown() bool { return s.open && len(s.visible) > 0 }

// Filter returns the options whose label contains text, case-insensitively,
// in their original order. An empty text matches everything.
func Filter(options []Option, text string) []Option {
	if text == "" {
		return options
	}
	needle := strings.ToLower(text)
	matched := make([]Option, 0, len(options))
	for _, o := range options {
		if strings.Contains(strings.ToLower(o.Label), needle) {
			matched = append(matched, o)
		}
	}
	return matched
}

// TextChanged applies a keystroke-level edit of the text.
func (s State) TextChanged(text string) (State, Event) {
	s.input = text
	s.visible = Filter(s.options, text)
	s.open = true
	s.highlight = -1
	return s, Event{Kind: EventChanged, Text: text}
}

// Focus opens the dropdown without touching the filter.
func (s State) Focus() State {
	s.open = true
	return s
}

// Click behaves like Focus.
func (s State) Click() State { return s.Focus() }

// Blur closes the dropdown and resets the filter. Callers apply it BlurDelay
// after focus is lost.
func (s State) Blur() State {
	s.visible = s.options
	s.highlight = -1
	s.open = false
	return s
}

// Key applies a navigation key.
func (s State) Key(k Key) (State, Event) {
	if k != KeyRight && k != KeyEnter {
		s.open = true
	}
	n := len(s.visible)
	if n == 0 {
		return s, noEvent
	}

	switch k {
	case KeyUp:
		if s.highlight <= 0 || s.highlight >= n {
			s.highlight = n - 1
		} else {
			s.highlight--
		}
	case KeyDown:
		if s.highlight < 0 || s.highlight >= n-1 {
			s.highlight = 0
		} else {
			s.highlight++
		}
	case KeyRight, KeyEnter:
		if i, ok := s.Highlighted(); ok {
			return s.commit(i)
		}
	}
	return s, noEvent
}

// Hover highlights the visible row at i.
func (s State) Hover(i int) State {
	if i < 0 || i >= len(s.visible) {
		return s
	}
	s.highlight = i
	return s
}

// ClickRow commits the visible row at i.
func (s State) ClickRow(i int) (State, Event) {
	if i < 0 || i >= len(s.visible) {
		return s, noEvent
	}
	return s.commit(i)
}

func (s State) commit(i int) (State, Event) {
	selected := s.visible[i]
	s.input = selected.Label
	s.visible = s.options
	s.highlight = -1
	s.open = false
	return s, Event{Kind: EventSelected, ID: selected.ID}
}

// SetOptions replaces the candidate set. The current text is reapplied as a
// filter and the highlight is always dropped, since it may point at a row
// that no longer means the same thing.
func (s State) SetOptions(options []Option) State {
	s.options = options
	s.visible = Filter(options, s.input)
	s.highlight = -1
	return s
}

// SetValue resets the widget after the parent changed its value.
func (s State) SetValue(value string) State {
	s.input = value
	s.visible = s.options
	s.highlight = -1
	s.open = false
	return s
}
