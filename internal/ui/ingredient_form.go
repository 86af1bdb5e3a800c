package ui

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bborn/grocer/internal/api"
	"github.com/bborn/grocer/internal/autocomplete"
	"github.com/bborn/grocer/internal/planner"
)

// ingredientSavedMsg reports the result of a create or update.
type ingredientSavedMsg struct {
	created bool
	err     error
}

// prepRow is one preparation in the ingredient form.
type prepRow struct {
	id       string // server id of an existing preparation
	category *AutocompleteInput
	amount   textinput.Model
	unit     selector
}

// Slots within a preparation row.
const (
	prepCategory = iota
	prepAmount
	prepUnit
	prepSlots
)

// IngredientFormModel creates or edits an ingredient.
type IngredientFormModel struct {
	client    *api.Client
	keys      KeyMap
	blurDelay time.Duration

	ingredientID string // empty for a new ingredient
	initial      planner.IngredientInput

	name    textinput.Model
	rows    []prepRow
	focused int // 0 is name; then prepSlots per row

	errs       planner.FieldErrors
	saving     bool
	confirming bool

	// Set when the form is finished; the app closes it.
	cancelled bool
	saved     bool

	width  int
	height int

	dropdownLines map[int]int // row -> content line of its category dropdown
}

// NewIngredientFormModel creates the form. A nil ingredient opens a blank form.
func NewIngredientFormModel(client *api.Client, keys KeyMap, ing *planner.Ingredient, blurDelay time.Duration, width, height int) *IngredientFormModel {
	name := textinput.New()
	name.Placeholder = "e.g. Chickpeas"
	name.Prompt = ""
	name.CharLimit = 100

	m := &IngredientFormModel{
		client:    client,
		keys:      keys,
		blurDelay: blurDelay,
		name:      name,
		width:     width,
		height:    height,
	}
	if ing != nil {
		m.ingredientID = ing.ID
		m.initial = ing.Input()
		m.name.SetValue(ing.Name)
		for _, p := range ing.Preparations {
			m.rows = append(m.rows, m.newRow(p))
		}
	}
	m.initial = normalizeIngredient(m.initial)
	m.name.Focus()
	return m
}

func (m *IngredientFormModel) newRow(p planner.Preparation) prepRow {
	cat := NewAutocompleteInput(autocomplete.FromStrings(planner.PreparationCategories), p.Category, "Type")
	cat.SetBlurDelay(m.blurDelay)
	cat.SetWidth(20)

	amount := textinput.New()
	amount.Placeholder = "0"
	amount.Prompt = ""
	amount.CharLimit = 4
	amount.Width = 6
	if p.TimeAmount > 0 {
		amount.SetValue(strconv.Itoa(p.TimeAmount))
	}

	return prepRow{id: p.ID, category: cat, amount: amount, unit: newSelector(planner.TimeUnits, p.TimeUnits)}
}

// IsEdit reports whether the form edits an existing ingredient.
func (m *IngredientFormModel) IsEdit() bool { return m.ingredientID != "" }

// Done reports whether the app should close the form.
func (m *IngredientFormModel) Done() bool { return m.cancelled || m.saved }

// SetSize updates the form dimensions.
func (m *IngredientFormModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.name.Width = max(width-30, 20)
}

// Input builds the request body from the fields.
func (m *IngredientFormModel) Input() planner.IngredientInput {
	in := planner.IngredientInput{Name: strings.TrimSpace(m.name.Value())}
	for _, r := range m.rows {
		amount, _ := strconv.Atoi(strings.TrimSpace(r.amount.Value()))
		in.Preparations = append(in.Preparations, planner.Preparation{
			ID:         r.id,
			Category:   r.category.Value(),
			TimeAmount: amount,
			TimeUnits:  r.unit.value(),
		})
	}
	return normalizeIngredient(in)
}

func normalizeIngredient(in planner.IngredientInput) planner.IngredientInput {
	if in.Preparations == nil {
		in.Preparations = []planner.Preparation{}
	}
	return in
}

// Dirty reports whether the fields differ from what the form opened with.
func (m *IngredientFormModel) Dirty() bool {
	return !reflect.DeepEqual(m.Input(), m.initial)
}

func (m *IngredientFormModel) slotCount() int { return 1 + len(m.rows)*prepSlots }

// rowSlot splits a focus index into a row and a slot within it. Row is -1 for
// the name field.
func (m *IngredientFormModel) rowSlot(focus int) (int, int) {
	if focus == 0 {
		return -1, 0
	}
	return (focus - 1) / prepSlots, (focus - 1) % prepSlots
}

func (m *IngredientFormModel) setFocus(focus int) tea.Cmd {
	var cmds []tea.Cmd
	if r, s := m.rowSlot(m.focused); r < 0 {
		m.name.Blur()
	} else if r < len(m.rows) {
		switch s {
		case prepCategory:
			cmds = append(cmds, m.rows[r].category.Blur())
		case prepAmount:
			m.rows[r].amount.Blur()
		}
	}

	n := m.slotCount()
	m.focused = ((focus % n) + n) % n

	r, s := m.rowSlot(m.focused)
	switch {
	case r < 0:
		cmds = append(cmds, m.name.Focus())
	case s == prepCategory:
		cmds = append(cmds, m.rows[r].category.Focus())
	case s == prepAmount:
		cmds = append(cmds, m.rows[r].amount.Focus())
	}
	return tea.Batch(cmds...)
}

func (m *IngredientFormModel) addRow() tea.Cmd {
	m.rows = append(m.rows, m.newRow(planner.Preparation{}))
	return m.setFocus(1 + (len(m.rows)-1)*prepSlots)
}

func (m *IngredientFormModel) removeRow() tea.Cmd {
	r, _ := m.rowSlot(m.focused)
	if r < 0 || r >= len(m.rows) {
		return nil
	}
	m.rows = append(m.rows[:r:r], m.rows[r+1:]...)
	m.focused = 0
	next := 0
	if len(m.rows) > 0 {
		next = 1 + min(r, len(m.rows)-1)*prepSlots
	}
	m.name.Blur()
	return m.setFocus(next)
}

func (m *IngredientFormModel) submit() tea.Cmd {
	in := m.Input()
	if err := planner.ValidateIngredient(in); err != nil {
		m.errs = planner.Fields(err)
		return nil
	}
	m.errs = nil
	m.saving = true

	client, id := m.client, m.ingredientID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if id == "" {
			return ingredientSavedMsg{created: true, err: client.CreateIngredient(ctx, in)}
		}
		return ingredientSavedMsg{err: client.UpdateIngredient(ctx, id, in)}
	}
}

// Update handles messages.
func (m *IngredientFormModel) Update(msg tea.Msg) (*IngredientFormModel, tea.Cmd) {
	switch msg := msg.(type) {
	case ingredientSavedMsg:
		m.saving = false
		if msg.err == nil {
			m.saved = true
		}
		return m, nil

	case blurElapsedMsg:
		for _, r := range m.rows {
			r.category.Update(msg)
		}
		return m, nil

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case tea.KeyMsg:
		if m.confirming {
			cancelled, dismissed := discardPrompt(msg)
			m.cancelled = cancelled
			if dismissed {
				m.confirming = false
			}
			return m, nil
		}
		if m.saving {
			return m, nil
		}

		r, s := m.rowSlot(m.focused)
		switch {
		case msg.String() == "esc":
			if m.Dirty() {
				m.confirming = true
				return m, nil
			}
			m.cancelled = true
			return m, nil
		case key.Matches(msg, m.keys.Submit):
			return m, m.submit()
		case key.Matches(msg, m.keys.AddRow):
			return m, m.addRow()
		case key.Matches(msg, m.keys.RemoveRow):
			return m, m.removeRow()
		case msg.String() == "tab":
			return m, m.setFocus(m.focused + 1)
		case msg.String() == "shift+tab":
			return m, m.setFocus(m.focused - 1)
		}

		var cmd tea.Cmd
		switch {
		case r < 0:
			m.name, cmd = m.name.Update(msg)
		case s == prepCategory:
			cmd, _ = m.rows[r].category.Update(msg)
		case s == prepAmount:
			m.rows[r].amount, cmd = m.rows[r].amount.Update(msg)
		case s == prepUnit:
			m.rows[r].unit.update(msg)
		}
		return m, cmd
	}
	return m, nil
}

// handleMouse routes pointer events to the dropdown under them. y is
// relative to the top of the form box.
func (m *IngredientFormModel) handleMouse(msg tea.MouseMsg) tea.Cmd {
	for r, top := range m.dropdownLines {
		if r >= len(m.rows) {
			continue
		}
		row, ok := m.rows[r].category.RowAtLine(msg.Y - formBoxTop - top)
		if !ok {
			continue
		}
		switch {
		case msg.Action == tea.MouseActionMotion:
			m.rows[r].category.Hover(row)
		case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
			m.rows[r].category.ClickRow(row)
		}
		return nil
	}
	return nil
}

// View renders the form.
func (m *IngredientFormModel) View() string {
	var b strings.Builder
	m.dropdownLines = map[int]int{}

	header := "New Ingredient"
	if m.IsEdit() {
		header = "Edit Ingredient"
	}
	b.WriteString(Title.Render(header) + "\n\n")

	b.WriteString(fieldCursor(m.focused == 0) + " " + labelStyle().Render("Name") + m.name.View() + "\n")
	b.WriteString(fieldErrorLine(m.errs, "name", strings.Repeat(" ", 16)))
	b.WriteString("\n")

	b.WriteString("  " + labelStyle().Render("Preparations"))
	if len(m.rows) == 0 {
		b.WriteString(formDimStyle.Render("none, " + m.keys.AddRow.Help().Key + " to add"))
	}
	b.WriteString("\n")

	for i, row := range m.rows {
		r, s := m.rowSlot(m.focused)
		focusedRow := r == i
		prefix := fmt.Sprintf("%2d.", i+1)

		b.WriteString(fieldCursor(focusedRow && s == prepCategory) + " " + formDimStyle.Render(prefix) + " ")
		b.WriteString(labelStyle().Width(8).Render("Type") + row.category.View() + "\n")
		if dd := row.category.DropdownView(); dd != "" {
			m.dropdownLines[i] = countLines(b.String())
			for _, line := range strings.Split(dd, "\n") {
				b.WriteString(strings.Repeat(" ", 14) + line + "\n")
			}
		}
		b.WriteString(fieldErrorLine(m.errs, fmt.Sprintf("preparations.%d.category", i), strings.Repeat(" ", 14)))

		b.WriteString(fieldCursor(focusedRow && s == prepAmount) + "     ")
		b.WriteString(labelStyle().Width(8).Render("Time") + row.amount.View() + "\n")
		b.WriteString(fieldErrorLine(m.errs, fmt.Sprintf("preparations.%d.timeAmount", i), strings.Repeat(" ", 14)))

		b.WriteString(fieldCursor(focusedRow && s == prepUnit) + "     ")
		b.WriteString(labelStyle().Width(8).Render("Unit") + row.unit.view(focusedRow && s == prepUnit) + "\n")
		b.WriteString(fieldErrorLine(m.errs, fmt.Sprintf("preparations.%d.timeUnits", i), strings.Repeat(" ", 14)))
		b.WriteString("\n")
	}

	if m.saving {
		b.WriteString("\n  " + Dim.Render("Saving..."))
	}

	help := fmt.Sprintf("tab navigate • ←→ select • %s add • %s remove • %s save • esc cancel",
		m.keys.AddRow.Help().Key, m.keys.RemoveRow.Help().Key, m.keys.Submit.Help().Key)
	return formFrame(b.String(), m.confirming, help, m.width, m.height)
}
