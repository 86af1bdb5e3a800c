package ui

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/bborn/grocer/internal/api"
	"github.com/bborn/grocer/internal/autocomplete"
	"github.com/bborn/grocer/internal/debounce"
	"github.com/bborn/grocer/internal/planner"
	"github.com/bborn/grocer/internal/refresh"
)

// dishSavedMsg reports the result of a create or update.
type dishSavedMsg struct {
	created bool
	err     error
}

// dishRefreshedMsg carries a finished refresh. uids are the rows it was
// started for, so a result for a different row layout is ignored.
type dishRefreshedMsg struct {
	uids      []string
	commit    refresh.Commit
	committed bool
}

// dishRow is one ingredient line of the dish form.
type dishRow struct {
	uid        string
	ingredient *AutocompleteInput
	selectedID string
	selected   string // label of the selected ingredient
	query      refresh.QueryRow
	amount     textinput.Model
	unit       selector
}

func (r dishRow) debounceKey() string { return "dish-row:" + r.uid }

// Fixed slots before the ingredient rows, and slots within a row.
const (
	dishName = iota
	dishRecipe
	dishPrivate
	dishFixedSlots
)

const (
	rowIngredient = iota
	rowAmount
	rowUnit
	rowSlots
)

// DishFormModel creates or edits a dish.
type DishFormModel struct {
	client    *api.Client
	keys      KeyMap
	debounce  *debounce.Tracker
	refresher *refresh.Refresher
	logger    *log.Logger
	blurDelay time.Duration

	dishID  string
	initial planner.DishInput

	name      textinput.Model
	recipe    textarea.Model
	isPrivate bool
	rows      []dishRow
	focused   int

	errs       planner.FieldErrors
	lookupErr  error
	notice     string
	saving     bool
	confirming bool

	cancelled bool
	saved     bool

	width  int
	height int

	dropdownLines map[int]int
}

// NewDishFormModel creates the form. A nil dish opens a blank form.
func NewDishFormModel(client *api.Client, keys KeyMap, tracker *debounce.Tracker, d *planner.Dish, blurDelay time.Duration, width, height int) *DishFormModel {
	name := textinput.New()
	name.Placeholder = "e.g. Chana masala"
	name.Prompt = ""
	name.CharLimit = 100

	recipe := textarea.New()
	recipe.Placeholder = "Recipe (markdown)"
	recipe.ShowLineNumbers = false
	recipe.SetHeight(5)
	recipe.CharLimit = 10000

	m := &DishFormModel{
		client:    client,
		keys:      keys,
		debounce:  tracker,
		logger:    GetLogger(),
		blurDelay: blurDelay,
		name:      name,
		recipe:    recipe,
		width:     width,
		height:    height,
	}

	var seed [][]autocomplete.Option
	if d != nil {
		m.dishID = d.ID
		m.initial = d.Input()
		m.name.SetValue(d.Name)
		m.recipe.SetValue(d.Recipe)
		m.isPrivate = d.IsPrivate
		for _, di := range d.Ingredients {
			opts := api.IngredientOptions([]planner.Ingredient{di.Ingredient})
			seed = append(seed, opts)
			m.rows = append(m.rows, m.newRow(di.Ingredient.ID, di.Ingredient.Name, di.Amount, di.MeasurementUnit, opts))
		}
	}
	m.initial = normalizeDish(m.initial)
	m.refresher = refresh.New(client.IngredientLookup(),
		refresh.WithLogger(m.logger),
		refresh.WithResults(seed),
		refresh.WithOnCommit(func(c refresh.Commit) {
			m.logger.Debug("ingredient options committed", "generation", c.Generation, "rows", len(c.Results))
		}),
	)
	m.SetSize(width, height)
	m.name.Focus()
	return m
}

func (m *DishFormModel) newRow(id, label string, amount int, unit string, opts []autocomplete.Option) dishRow {
	ac := NewAutocompleteInput(opts, label, "Search ingredients")
	ac.SetBlurDelay(m.blurDelay)
	ac.SetWidth(30)

	amt := textinput.New()
	amt.Placeholder = "0"
	amt.Prompt = ""
	amt.CharLimit = 5
	amt.Width = 6
	if amount > 0 {
		amt.SetValue(strconv.Itoa(amount))
	}

	return dishRow{
		uid:        uuid.NewString(),
		ingredient: ac,
		selectedID: id,
		selected:   label,
		query:      refresh.NewRow(label),
		amount:     amt,
		unit:       newSelector(planner.MeasurementUnits, unit),
	}
}

// Init fetches options for every row.
func (m *DishFormModel) Init() tea.Cmd {
	if len(m.rows) == 0 {
		return nil
	}
	return m.refreshCmd()
}

// IsEdit reports whether the form edits an existing dish.
func (m *DishFormModel) IsEdit() bool { return m.dishID != "" }

// Done reports whether the app should close the form.
func (m *DishFormModel) Done() bool { return m.cancelled || m.saved }

// SetSize updates the form dimensions.
func (m *DishFormModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.name.Width = max(width-30, 20)
	m.recipe.SetWidth(max(width-30, 20))
}

// Input builds the request body from the fields.
func (m *DishFormModel) Input() planner.DishInput {
	in := planner.DishInput{
		Name:      strings.TrimSpace(m.name.Value()),
		Recipe:    m.recipe.Value(),
		IsPrivate: m.isPrivate,
	}
	for _, r := range m.rows {
		amount, _ := strconv.Atoi(strings.TrimSpace(r.amount.Value()))
		in.Ingredients = append(in.Ingredients, planner.DishIngredientInput{
			Ingredient:      planner.IngredientRef{ID: r.selectedID, Name: r.selected},
			Amount:          amount,
			MeasurementUnit: r.unit.value(),
		})
	}
	return normalizeDish(in)
}

func normalizeDish(in planner.DishInput) planner.DishInput {
	if in.Ingredients == nil {
		in.Ingredients = []planner.DishIngredientInput{}
	}
	return in
}

// Dirty reports whether the fields differ from what the form opened with.
func (m *DishFormModel) Dirty() bool {
	return !reflect.DeepEqual(m.Input(), m.initial)
}

func (m *DishFormModel) queryRows() ([]string, []refresh.QueryRow) {
	uids := make([]string, len(m.rows))
	rows := make([]refresh.QueryRow, len(m.rows))
	for i, r := range m.rows {
		uids[i] = r.uid
		rows[i] = r.query
	}
	return uids, rows
}

// refreshCmd looks up options for every row. Only the newest refresh is
// applied.
func (m *DishFormModel) refreshCmd() tea.Cmd {
	uids, rows := m.queryRows()
	r := m.refresher
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		commit, ok := r.Refresh(ctx, rows)
		return dishRefreshedMsg{uids: uids, commit: commit, committed: ok}
	}
}

func (m *DishFormModel) applyRefresh(msg dishRefreshedMsg) {
	if !msg.committed || msg.commit.Generation != m.refresher.Generation() {
		return
	}
	uids, _ := m.queryRows()
	if !slices.Equal(uids, msg.uids) {
		return
	}
	m.lookupErr = msg.commit.Err
	for i := range m.rows {
		m.rows[i].ingredient.SetOptions(m.refresher.Row(i))
	}
}

func (m *DishFormModel) rowIndex(uid string) int {
	for i, r := range m.rows {
		if r.uid == uid {
			return i
		}
	}
	return -1
}

func (m *DishFormModel) slotCount() int { return dishFixedSlots + len(m.rows)*rowSlots }

// rowSlot splits a focus index into a row and a slot within it. Row is -1 for
// the fixed fields, in which case slot is the fixed field.
func (m *DishFormModel) rowSlot(focus int) (int, int) {
	if focus < dishFixedSlots {
		return -1, focus
	}
	return (focus - dishFixedSlots) / rowSlots, (focus - dishFixedSlots) % rowSlots
}

func (m *DishFormModel) setFocus(focus int) tea.Cmd {
	var cmds []tea.Cmd
	r, s := m.rowSlot(m.focused)
	switch {
	case r < 0 && s == dishName:
		m.name.Blur()
	case r < 0 && s == dishRecipe:
		m.recipe.Blur()
	case r >= 0 && r < len(m.rows) && s == rowIngredient:
		cmds = append(cmds, m.rows[r].ingredient.Blur())
	case r >= 0 && r < len(m.rows) && s == rowAmount:
		m.rows[r].amount.Blur()
	}

	n := m.slotCount()
	m.focused = ((focus % n) + n) % n

	r, s = m.rowSlot(m.focused)
	switch {
	case r < 0 && s == dishName:
		cmds = append(cmds, m.name.Focus())
	case r < 0 && s == dishRecipe:
		cmds = append(cmds, m.recipe.Focus())
	case r >= 0 && s == rowIngredient:
		cmds = append(cmds, m.rows[r].ingredient.Focus())
	case r >= 0 && s == rowAmount:
		cmds = append(cmds, m.rows[r].amount.Focus())
	}
	return tea.Batch(cmds...)
}

func (m *DishFormModel) addRow() tea.Cmd {
	if len(m.rows) >= planner.MaxDishIngredients {
		m.notice = fmt.Sprintf("A dish can have at most %d ingredients", planner.MaxDishIngredients)
		return nil
	}
	m.rows = append(m.rows, m.newRow("", "", 0, "", nil))
	m.refresher.Append()
	focus := m.setFocus(dishFixedSlots + (len(m.rows)-1)*rowSlots)
	return tea.Batch(focus, m.refreshCmd())
}

func (m *DishFormModel) removeRow() tea.Cmd {
	r, _ := m.rowSlot(m.focused)
	if r < 0 || r >= len(m.rows) {
		return nil
	}
	m.debounce.Cancel(m.rows[r].debounceKey())
	m.rows = append(m.rows[:r:r], m.rows[r+1:]...)
	m.refresher.Remove(r)

	next := dishPrivate
	if len(m.rows) > 0 {
		next = dishFixedSlots + min(r, len(m.rows)-1)*rowSlots
	}
	m.focused = dishPrivate
	return tea.Batch(m.setFocus(next), m.refreshCmd())
}

func (m *DishFormModel) submit() tea.Cmd {
	if !m.Dirty() {
		m.notice = "No changes to save"
		return nil
	}
	in := m.Input()
	if err := planner.ValidateDish(in); err != nil {
		m.errs = planner.Fields(err)
		return nil
	}
	m.errs = nil
	m.notice = ""
	m.saving = true

	client, id := m.client, m.dishID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if id == "" {
			return dishSavedMsg{created: true, err: client.CreateDish(ctx, in)}
		}
		return dishSavedMsg{err: client.UpdateDish(ctx, id, in)}
	}
}

// handleRowEvent reacts to the ingredient autocomplete of row i.
func (m *DishFormModel) handleRowEvent(i int, ev autocomplete.Event) tea.Cmd {
	row := &m.rows[i]
	switch ev.Kind {
	case autocomplete.EventChanged:
		if ev.Text != row.selected {
			row.selectedID = ""
			row.selected = ""
		}
		return m.debounce.Schedule(row.debounceKey(), strings.TrimSpace(ev.Text))
	case autocomplete.EventSelected:
		m.debounce.Cancel(row.debounceKey())
		row.selectedID = ev.ID
		row.selected = row.ingredient.Value()
	}
	return nil
}

// Update handles messages.
func (m *DishFormModel) Update(msg tea.Msg) (*DishFormModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dishSavedMsg:
		m.saving = false
		if msg.err == nil {
			m.saved = true
		}
		return m, nil

	case dishRefreshedMsg:
		m.applyRefresh(msg)
		return m, nil

	case debounce.SettledMsg:
		if !m.debounce.Settled(msg) {
			return m, nil
		}
		for i, r := range m.rows {
			if r.debounceKey() == msg.Key {
				m.rows[i].query = r.query.WithQuery(msg.Value)
				return m, m.refreshCmd()
			}
		}
		return m, nil

	case blurElapsedMsg:
		for _, r := range m.rows {
			r.ingredient.Update(msg)
		}
		return m, nil

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil

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
		m.notice = ""

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
		r, s := m.rowSlot(m.focused)
		switch {
		case r < 0 && s == dishName:
			m.name, cmd = m.name.Update(msg)
		case r < 0 && s == dishRecipe:
			m.recipe, cmd = m.recipe.Update(msg)
		case r < 0 && s == dishPrivate:
			switch msg.String() {
			case " ", "enter", "left", "right", "h", "l":
				m.isPrivate = !m.isPrivate
			}
		case s == rowIngredient:
			var ev autocomplete.Event
			cmd, ev = m.rows[r].ingredient.Update(msg)
			cmd = tea.Batch(cmd, m.handleRowEvent(r, ev))
		case s == rowAmount:
			m.rows[r].amount, cmd = m.rows[r].amount.Update(msg)
		case s == rowUnit:
			m.rows[r].unit.update(msg)
		}
		return m, cmd
	}
	return m, nil
}

func (m *DishFormModel) handleMouse(msg tea.MouseMsg) {
	for r, top := range m.dropdownLines {
		if r >= len(m.rows) {
			continue
		}
		row, ok := m.rows[r].ingredient.RowAtLine(msg.Y - formBoxTop - top)
		if !ok {
			continue
		}
		switch {
		case msg.Action == tea.MouseActionMotion:
			m.rows[r].ingredient.Hover(row)
		case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
			m.handleRowEvent(r, m.rows[r].ingredient.ClickRow(row))
		}
		return
	}
}

// View renders the form.
func (m *DishFormModel) View() string {
	var b strings.Builder
	m.dropdownLines = map[int]int{}
	indent := strings.Repeat(" ", 16)

	header := "New Dish"
	if m.IsEdit() {
		header = "Edit Dish"
	}
	b.WriteString(Title.Render(header) + "\n\n")

	r, s := m.rowSlot(m.focused)

	b.WriteString(fieldCursor(r < 0 && s == dishName) + " " + labelStyle().Render("Name") + m.name.View() + "\n")
	b.WriteString(fieldErrorLine(m.errs, "name", indent))
	b.WriteString("\n")

	b.WriteString(fieldCursor(r < 0 && s == dishRecipe) + " " + labelStyle().Render("Recipe") + "\n")
	for _, line := range strings.Split(m.recipe.View(), "\n") {
		b.WriteString("   " + line + "\n")
	}
	b.WriteString("\n")

	private := newSelector([]string{"public", "private"}, "public")
	if m.isPrivate {
		private.idx = 1
	}
	b.WriteString(fieldCursor(r < 0 && s == dishPrivate) + " " + labelStyle().Render("Visibility") + private.view(r < 0 && s == dishPrivate) + "\n\n")

	b.WriteString("  " + labelStyle().Render("Ingredients"))
	if len(m.rows) == 0 {
		b.WriteString(formDimStyle.Render("none, " + m.keys.AddRow.Help().Key + " to add"))
	}
	b.WriteString("\n")
	b.WriteString(fieldErrorLine(m.errs, "ingredients", indent))
	if m.lookupErr != nil {
		b.WriteString("  " + Warning.Render(IconWarning()+" some ingredient searches failed") + "\n")
	}

	for i, row := range m.rows {
		focusedRow := r == i
		b.WriteString(fieldCursor(focusedRow && s == rowIngredient) + " " + formDimStyle.Render(fmt.Sprintf("%2d.", i+1)) + " ")
		b.WriteString(labelStyle().Width(10).Render("Ingredient") + row.ingredient.View() + "\n")
		if dd := row.ingredient.DropdownView(); dd != "" {
			m.dropdownLines[i] = countLines(b.String())
			for _, line := range strings.Split(dd, "\n") {
				b.WriteString(strings.Repeat(" ", 16) + line + "\n")
			}
		}
		b.WriteString(fieldErrorLine(m.errs, fmt.Sprintf("ingredients.%d.ingredient", i), indent))

		b.WriteString(fieldCursor(focusedRow && s == rowAmount) + "     ")
		b.WriteString(labelStyle().Width(10).Render("Amount") + row.amount.View() + "\n")
		b.WriteString(fieldErrorLine(m.errs, fmt.Sprintf("ingredients.%d.amount", i), indent))

		b.WriteString(fieldCursor(focusedRow && s == rowUnit) + "     ")
		b.WriteString(labelStyle().Width(10).Render("Unit") + row.unit.view(focusedRow && s == rowUnit) + "\n")
		b.WriteString(fieldErrorLine(m.errs, fmt.Sprintf("ingredients.%d.measurement_unit", i), indent))
		b.WriteString("\n")
	}

	switch {
	case m.saving:
		b.WriteString("\n  " + Dim.Render("Saving..."))
	case m.notice != "":
		b.WriteString("\n  " + Warning.Render(m.notice))
	}

	help := fmt.Sprintf("tab navigate • ←→ select • %s add • %s remove • %s save • esc cancel",
		m.keys.AddRow.Help().Key, m.keys.RemoveRow.Help().Key, m.keys.Submit.Help().Key)
	return formFrame(b.String(), m.confirming, help, m.width, m.height)
}
