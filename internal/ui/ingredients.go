package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bborn/grocer/internal/api"
	"github.com/bborn/grocer/internal/debounce"
	"github.com/bborn/grocer/internal/planner"
)

// requestTimeout bounds every API call made from the UI.
const requestTimeout = 15 * time.Second

type ingredientsLoadedMsg struct {
	seq   int
	items []planner.Ingredient
	count int
	err   error
}

// openIngredientFormMsg asks the app to open the ingredient form. A nil
// ingredient means a new one.
type openIngredientFormMsg struct {
	ingredient *planner.Ingredient
}

// confirmDeleteMsg asks the app to confirm deleting an ingredient.
type confirmDeleteMsg struct {
	id   string
	name string
}

// IngredientsModel is the ingredient list screen.
type IngredientsModel struct {
	client *api.Client
	keys   KeyMap
	list   listChrome
	items  []planner.Ingredient
}

// NewIngredientsModel creates the ingredient list screen.
func NewIngredientsModel(client *api.Client, keys KeyMap, tracker *debounce.Tracker, pageSize int) *IngredientsModel {
	columns := []table.Column{
		{Title: "Name", Width: 24},
		{Title: "Updated By", Width: 18},
		{Title: "Preparations", Width: 40},
	}
	return &IngredientsModel{
		client: client,
		keys:   keys,
		list:   newListChrome("ingredients", columns, keys, tracker, pageSize),
	}
}

// Init loads the first page.
func (m *IngredientsModel) Init() tea.Cmd {
	return m.Reload()
}

// Reload fetches the current page with the current query.
func (m *IngredientsModel) Reload() tea.Cmd {
	seq, spin := m.list.beginLoad()
	client, q := m.client, api.ListQuery{Page: m.list.page, Query: m.list.query}
	fetch := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		page, err := client.ListIngredients(ctx, q)
		if err != nil {
			return ingredientsLoadedMsg{seq: seq, err: err}
		}
		return ingredientsLoadedMsg{seq: seq, items: page.Data, count: page.Count}
	}
	return tea.Batch(spin, fetch)
}

// SetSize updates the screen dimensions.
func (m *IngredientsModel) SetSize(width, height int) {
	m.list.setSize(width, height)
}

// Searching reports whether the search box has focus, so the app should not
// treat letters as shortcuts.
func (m *IngredientsModel) Searching() bool { return m.list.searching }

// Selected returns the ingredient under the cursor.
func (m *IngredientsModel) Selected() *planner.Ingredient {
	i := m.list.cursor()
	if i < 0 || i >= len(m.items) {
		return nil
	}
	ing := m.items[i]
	return &ing
}

// Update handles messages.
func (m *IngredientsModel) Update(msg tea.Msg) (*IngredientsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case ingredientsLoadedMsg:
		current, reload := m.list.finishLoad(msg.seq, msg.count, msg.err)
		if !current {
			return m, nil
		}
		if reload {
			return m, m.Reload()
		}
		if msg.err == nil {
			m.items = msg.items
			m.list.setRows(ingredientRows(msg.items))
		}
		return m, nil

	case tea.KeyMsg:
		if !m.list.searching {
			switch {
			case key.Matches(msg, m.keys.New):
				return m, func() tea.Msg { return openIngredientFormMsg{} }
			case key.Matches(msg, m.keys.Edit), key.Matches(msg, m.keys.Enter):
				if ing := m.Selected(); ing != nil {
					return m, func() tea.Msg { return openIngredientFormMsg{ingredient: ing} }
				}
				return m, nil
			case key.Matches(msg, m.keys.Delete):
				if ing := m.Selected(); ing != nil {
					return m, func() tea.Msg { return confirmDeleteMsg{id: ing.ID, name: ing.Name} }
				}
				return m, nil
			}
		}
	}

	cmd, reload, _ := m.list.update(msg)
	if reload {
		return m, tea.Batch(cmd, m.Reload())
	}
	return m, cmd
}

// View renders the screen.
func (m *IngredientsModel) View() string {
	return m.list.view("Ingredients")
}

func ingredientRows(items []planner.Ingredient) []table.Row {
	rows := make([]table.Row, len(items))
	for i, ing := range items {
		rows[i] = table.Row{ing.Name, ing.UpdatedBy.Name, planner.PreparationSummary(ing.Preparations)}
	}
	return rows
}
