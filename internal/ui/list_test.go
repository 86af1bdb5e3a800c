package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bborn/grocer/internal/debounce"
	"github.com/bborn/grocer/internal/planner"
)

func newTestChrome() listChrome {
	cols := []table.Column{{Title: "Name", Width: 20}}
	c := newListChrome("ingredients", cols, DefaultKeyMap(), debounce.NewTracker(time.Millisecond), 10)
	c.setSize(100, 30)
	return c
}

func TestListChromeFinishLoad(t *testing.T) {
	c := newTestChrome()
	first, _ := c.beginLoad()
	second, _ := c.beginLoad()

	if current, _ := c.finishLoad(first, 5, nil); current {
		t.Error("a superseded fetch should be dropped")
	}
	if !c.loading {
		t.Error("still waiting for the newest fetch")
	}
	current, reload := c.finishLoad(second, 25, nil)
	if !current || reload {
		t.Fatalf("current=%v reload=%v", current, reload)
	}
	if c.loading || c.count != 25 {
		t.Errorf("loading=%v count=%d", c.loading, c.count)
	}
}

func TestListChromeClampsPastLastPage(t *testing.T) {
	c := newTestChrome()
	c.page = 4
	seq, _ := c.beginLoad()
	_, reload := c.finishLoad(seq, 21, nil)
	if !reload || c.page != 3 {
		t.Errorf("reload=%v page=%d, want page 3", reload, c.page)
	}

	// an empty result stays on page one without refetching
	c.page = 2
	seq, _ = c.beginLoad()
	if _, reload := c.finishLoad(seq, 0, nil); reload {
		t.Error("nothing to clamp to when there are no rows")
	}
}

func TestListChromeErrorView(t *testing.T) {
	c := newTestChrome()
	seq, _ := c.beginLoad()
	c.finishLoad(seq, 0, errors.New("connection refused"))
	view := c.view("Ingredients")
	if !strings.Contains(view, "connection refused") || !strings.Contains(view, "to retry") {
		t.Errorf("view:\n%s", view)
	}
}

func TestListChromeEmptyViews(t *testing.T) {
	c := newTestChrome()
	seq, _ := c.beginLoad()
	c.finishLoad(seq, 0, nil)
	if !strings.Contains(c.view("Ingredients"), "No ingredients yet") {
		t.Error("empty list should invite adding one")
	}
	c.query = "zzz"
	if !strings.Contains(c.view("Ingredients"), `No ingredients match "zzz"`) {
		t.Error("empty search should name the query")
	}
}

func TestListChromeSearchDebounced(t *testing.T) {
	c := newTestChrome()
	if _, _, handled := c.update(keyPress("/")); !handled || !c.searching {
		t.Fatal("/ should focus search")
	}
	var last tea.Cmd
	for _, k := range typeText("ric") {
		cmd, reload, _ := c.update(k)
		if reload {
			t.Fatal("typing should not fetch directly")
		}
		last = cmd
	}
	if last == nil {
		t.Fatal("typing should schedule a search")
	}

	settled := c.debounce.Schedule(c.name, "ric")().(debounce.SettledMsg)
	if _, reload, _ := c.update(settled); !reload {
		t.Fatal("a settled query should fetch")
	}
	if c.query != "ric" || c.page != 1 {
		t.Errorf("query=%q page=%d", c.query, c.page)
	}

	// the same query again is a no-op
	settled = c.debounce.Schedule(c.name, "ric")().(debounce.SettledMsg)
	if _, reload, _ := c.update(settled); reload {
		t.Error("unchanged query should not fetch")
	}

	c.update(keyPress("esc"))
	if c.searching {
		t.Error("esc should leave search")
	}
}

func TestListChromeSettledForOtherList(t *testing.T) {
	c := newTestChrome()
	_, reload, handled := c.update(debounce.SettledMsg{Key: "dishes", Seq: 1, Value: "x"})
	if reload || handled {
		t.Error("another list's search should pass through")
	}
}

func TestListChromePaging(t *testing.T) {
	c := newTestChrome()
	seq, _ := c.beginLoad()
	c.finishLoad(seq, 15, nil)

	if _, reload, _ := c.update(keyPress("left")); reload {
		t.Error("no page before the first")
	}
	if _, reload, _ := c.update(keyPress("right")); !reload || c.page != 2 {
		t.Errorf("reload=%v page=%d", reload, c.page)
	}
	if _, reload, _ := c.update(keyPress("right")); reload {
		t.Error("no page after the last")
	}
	if _, reload, _ := c.update(keyPress("r")); !reload {
		t.Error("r should refetch")
	}
}

func loadedIngredients(t *testing.T, names ...string) *IngredientsModel {
	t.Helper()
	f := newFakeAPI(t)
	f.ingredients = sampleIngredients(names...)
	m := NewIngredientsModel(f.client(), DefaultKeyMap(), debounce.NewTracker(time.Millisecond), 10)
	m.SetSize(100, 30)
	for _, msg := range runCmd(m.Init()) {
		m, _ = m.Update(msg)
	}
	return m
}

func TestIngredientsKeys(t *testing.T) {
	m := loadedIngredients(t, "Rice", "Lentils")

	_, cmd := m.Update(keyPress("n"))
	if msg, ok := cmd().(openIngredientFormMsg); !ok || msg.ingredient != nil {
		t.Errorf("n = %#v", msg)
	}

	m.Update(keyPress("down"))
	_, cmd = m.Update(keyPress("e"))
	if msg, ok := cmd().(openIngredientFormMsg); !ok || msg.ingredient.Name != "Lentils" {
		t.Errorf("e = %#v", msg)
	}

	_, cmd = m.Update(keyPress("d"))
	if msg, ok := cmd().(confirmDeleteMsg); !ok || msg.id != "ing-2" {
		t.Errorf("d = %#v", msg)
	}
}

func TestIngredientsEmptyHasNoSelection(t *testing.T) {
	m := loadedIngredients(t)
	if m.Selected() != nil {
		t.Error("nothing to select")
	}
	if _, cmd := m.Update(keyPress("d")); cmd != nil {
		t.Error("delete with no rows should do nothing")
	}
}

func TestIngredientsStaleLoadIgnored(t *testing.T) {
	m := loadedIngredients(t, "Rice")
	m.Reload()
	m.Update(ingredientsLoadedMsg{seq: 1, items: sampleIngredients("Old"), count: 1})
	if m.items[0].Name != "Rice" {
		t.Errorf("stale page applied: %+v", m.items)
	}
}

func TestDishesDetailToggle(t *testing.T) {
	f := newFakeAPI(t)
	f.dishes = []planner.Dish{{
		ID:     "dish-1",
		Name:   "Dal",
		Recipe: "Simmer the lentils.",
		Ingredients: []planner.DishIngredient{
			{Ingredient: planner.Ingredient{Name: "Lentils"}, Amount: 1, MeasurementUnit: "cup"},
		},
		UpdatedBy: planner.Author{Name: "Ada"},
	}}
	m := NewDishesModel(f.client(), DefaultKeyMap(), debounce.NewTracker(time.Millisecond), 10)
	m.SetSize(100, 40)
	for _, msg := range runCmd(m.Init()) {
		m, _ = m.Update(msg)
	}

	m.Update(keyPress("enter"))
	if !m.showDetail {
		t.Fatal("enter should open the detail pane")
	}
	view := m.View()
	for _, want := range []string{"1 cup Lentils", "Updated by Ada", "Simmer"} {
		if !strings.Contains(view, want) {
			t.Errorf("detail missing %q", want)
		}
	}

	m.Update(keyPress("esc"))
	if m.showDetail {
		t.Error("esc should close the detail pane")
	}
}
