package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/bborn/grocer/internal/api"
	"github.com/bborn/grocer/internal/debounce"
	"github.com/bborn/grocer/internal/planner"
)

type dishesLoadedMsg struct {
	seq   int
	items []planner.Dish
	count int
	err   error
}

// openDishFormMsg asks the app to open the dish form. A nil dish means a new
// one.
type openDishFormMsg struct {
	dish *planner.Dish
}

// DishesModel is the dish list screen. Enter toggles a detail pane with the
// selected dish's ingredients and rendered recipe.
type DishesModel struct {
	client     *api.Client
	keys       KeyMap
	list       listChrome
	items      []planner.Dish
	showDetail bool
}

// NewDishesModel creates the dish list screen.
func NewDishesModel(client *api.Client, keys KeyMap, tracker *debounce.Tracker, pageSize int) *DishesModel {
	columns := []table.Column{
		{Title: "Name", Width: 28},
		{Title: "Updated By", Width: 18},
		{Title: "Ingredients", Width: 12},
		{Title: "Recipe", Width: 8},
		{Title: "", Width: 3},
	}
	return &DishesModel{
		client: client,
		keys:   keys,
		list:   newListChrome("dishes", columns, keys, tracker, pageSize),
	}
}

// Init loads the first page.
func (m *DishesModel) Init() tea.Cmd {
	return m.Reload()
}

// Reload fetches the current page with the current query.
func (m *DishesModel) Reload() tea.Cmd {
	seq, spin := m.list.beginLoad()
	client, q := m.client, api.ListQuery{Page: m.list.page, Query: m.list.query}
	fetch := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		page, err := client.ListDishes(ctx, q)
		if err != nil {
			return dishesLoadedMsg{seq: seq, err: err}
		}
		return dishesLoadedMsg{seq: seq, items: page.Data, count: page.Count}
	}
	return tea.Batch(spin, fetch)
}

// SetSize updates the screen dimensions.
func (m *DishesModel) SetSize(width, height int) {
	m.list.setSize(width, height)
}

// Searching reports whether the search box has focus.
func (m *DishesModel) Searching() bool { return m.list.searching }

// Selected returns the dish under the cursor.
func (m *DishesModel) Selected() *planner.Dish {
	i := m.list.cursor()
	if i < 0 || i >= len(m.items) {
		return nil
	}
	d := m.items[i]
	return &d
}

// Update handles messages.
func (m *DishesModel) Update(msg tea.Msg) (*DishesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dishesLoadedMsg:
		current, reload := m.list.finishLoad(msg.seq, msg.count, msg.err)
		if !current {
			return m, nil
		}
		if reload {
			return m, m.Reload()
		}
		if msg.err == nil {
			m.items = msg.items
			m.list.setRows(dishRows(msg.items))
		}
		return m, nil

	case tea.KeyMsg:
		if !m.list.searching {
			switch {
			case key.Matches(msg, m.keys.New):
				return m, func() tea.Msg { return openDishFormMsg{} }
			case key.Matches(msg, m.keys.Edit):
				if d := m.Selected(); d != nil {
					return m, func() tea.Msg { return openDishFormMsg{dish: d} }
				}
				return m, nil
			case key.Matches(msg, m.keys.Enter):
				if m.Selected() != nil {
					m.showDetail = !m.showDetail
				}
				return m, nil
			case key.Matches(msg, m.keys.Back):
				if m.showDetail {
					m.showDetail = false
					return m, nil
				}
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
func (m *DishesModel) View() string {
	listView := m.list.view("Dishes")
	d := m.Selected()
	if !m.showDetail || d == nil {
		return listView
	}
	return lipgloss.JoinVertical(lipgloss.Left, listView, m.renderDetail(d))
}

func (m *DishesModel) renderDetail(d *planner.Dish) string {
	var b strings.Builder
	title := Title.Render(d.Name)
	if d.IsPrivate {
		title += " " + Dim.Render(IconLock()+" private")
	}
	b.WriteString(title + "\n")
	updated := ""
	if d.UpdatedBy.Name != "" {
		updated = "Updated by " + d.UpdatedBy.Name
	}
	if ago := FormatAgo(d.UpdatedAt); ago != "" {
		if updated == "" {
			updated = "Updated"
		}
		updated += " " + ago
	}
	if updated != "" {
		b.WriteString(Dim.Render(updated) + "\n")
	}
	b.WriteString("\n")

	if len(d.Ingredients) == 0 {
		b.WriteString(Dim.Render("No ingredients") + "\n")
	}
	for _, di := range d.Ingredients {
		line := fmt.Sprintf("• %d %s %s", di.Amount, di.MeasurementUnit, di.Ingredient.Name)
		if s := planner.PreparationSummary(di.Ingredient.Preparations); s != "" {
			line += Dim.Render("  " + s)
		}
		b.WriteString(line + "\n")
	}

	if strings.TrimSpace(d.Recipe) != "" {
		b.WriteString("\n")
		rendered, err := glamour.Render(d.Recipe, "dark")
		if err != nil {
			b.WriteString(d.Recipe)
		} else {
			b.WriteString(strings.TrimSpace(rendered))
		}
		b.WriteString("\n")
	}

	return Box.Width(max(m.list.width-6, 20)).Render(b.String())
}

func dishRows(items []planner.Dish) []table.Row {
	rows := make([]table.Row, len(items))
	for i, d := range items {
		private := ""
		if d.IsPrivate {
			private = IconLock()
		}
		rows[i] = table.Row{
			d.Name,
			d.UpdatedBy.Name,
			YesNo(len(d.Ingredients) > 0),
			YesNo(strings.TrimSpace(d.Recipe) != ""),
			private,
		}
	}
	return rows
}
