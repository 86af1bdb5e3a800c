package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bborn/grocer/internal/planner"
)

// Form styles are built on each render so theme changes apply.
func labelStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary).Width(14)
}

func selectedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Background(ColorPrimary).Foreground(lipgloss.Color("0"))
}

var (
	optionStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	formDimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// formBoxTop is the number of lines between the top of a form box and its
// first content line (border plus padding).
const formBoxTop = 2

func fieldCursor(focused bool) string {
	if focused {
		return lipgloss.NewStyle().Foreground(ColorPrimary).Render(IconCursor())
	}
	return " "
}

func fieldErrorLine(errs planner.FieldErrors, field, indent string) string {
	msg, ok := errs[field]
	if !ok {
		return ""
	}
	return indent + FieldError.Render(msg) + "\n"
}

// selector is an inline choice between fixed options. idx is -1 until the
// user picks something.
type selector struct {
	options []string
	idx     int
}

func newSelector(options []string, value string) selector {
	s := selector{options: options, idx: -1}
	for i, o := range options {
		if o == value {
			s.idx = i
		}
	}
	return s
}

func (s selector) value() string {
	if s.idx < 0 || s.idx >= len(s.options) {
		return ""
	}
	return s.options[s.idx]
}

func (s *selector) next() {
	s.idx = (s.idx + 1) % len(s.options)
}

func (s *selector) prev() {
	if s.idx <= 0 {
		s.idx = len(s.options) - 1
		return
	}
	s.idx--
}

// update moves the choice with left/right (or h/l). It reports whether the
// key was used.
func (s *selector) update(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "right", "l", " ":
		s.next()
		return true
	case "left", "h":
		s.prev()
		return true
	}
	return false
}

func (s selector) view(focused bool) string {
	parts := make([]string, len(s.options))
	for i, opt := range s.options {
		switch {
		case i == s.idx && focused:
			parts[i] = selectedStyle().Render(" " + opt + " ")
		case i == s.idx:
			parts[i] = optionStyle.Bold(true).Render(opt)
		default:
			parts[i] = formDimStyle.Render(opt)
		}
	}
	return strings.Join(parts, "  ")
}

// formFrame wraps form content the same way for every form, with the
// discard prompt and help line at the bottom.
func formFrame(content string, confirming bool, help string, width, height int) string {
	var b strings.Builder
	b.WriteString(content)
	if confirming {
		confirmStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorWarning)
		b.WriteString("\n  " + confirmStyle.Render("Discard changes? (y/n)") + "\n")
	}
	b.WriteString("\n  " + formDimStyle.Render(help))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(1, 2).
		Width(max(width-4, 40))
	if height > 2 {
		box = box.Height(height - 2)
	}
	return box.Render(b.String())
}

// discardPrompt handles y/n while the discard prompt is showing.
// It returns cancelled=true when the user confirmed.
func discardPrompt(msg tea.KeyMsg) (cancelled, dismissed bool) {
	switch msg.String() {
	case "y", "Y", "enter":
		return true, false
	case "n", "N", "esc":
		return false, true
	}
	return false, false
}

// countLines returns how many lines s occupies once written.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n")
}
