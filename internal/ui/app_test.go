package ui

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/bborn/grocer/internal/api"
	"github.com/bborn/grocer/internal/config"
	"github.com/bborn/grocer/internal/planner"
	"github.com/bborn/grocer/internal/session"
)

var testUser = planner.User{ID: "u1", FName: "Ada", LName: "Lovelace", Email: "ada@example.com"}

func newTestApp(t *testing.T, loggedIn bool) (*AppModel, *fakeAPI, *session.Store) {
	t.Helper()
	f := newFakeAPI(t)
	f.ingredients = sampleIngredients("Rice", "Lentils")

	store, err := session.Open(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if loggedIn {
		if err := store.Save(testUser, "jwt-token"); err != nil {
			t.Fatalf("save session: %v", err)
		}
	}

	m := NewAppModel(Options{Client: f.client(), Store: store, Config: config.Default()})
	t.Cleanup(m.Close)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, f, store
}

// feed delivers every message cmd produces.
func feed(m *AppModel, cmd tea.Cmd) {
	for _, msg := range runCmd(cmd) {
		m.Update(msg)
	}
}

func toastMessages(m *AppModel) []string {
	var out []string
	for _, t := range m.toasts.Items() {
		out = append(out, t.Message)
	}
	return out
}

func hasToast(m *AppModel, want string) bool {
	for _, msg := range toastMessages(m) {
		if strings.Contains(msg, want) {
			return true
		}
	}
	return false
}

func TestAppInitializingBeforeSize(t *testing.T) {
	m := NewAppModel(Options{})
	if got := m.View(); got != "Initializing..." {
		t.Errorf("View() = %q", got)
	}
}

func TestAppStartsAtLogin(t *testing.T) {
	m, _, _ := newTestApp(t, false)
	m.Init()
	if m.currentView != ViewLogin || m.login == nil {
		t.Fatalf("view = %v, want login", m.currentView)
	}
	if m.user != nil {
		t.Error("no user expected before login")
	}
}

func TestAppResumesSession(t *testing.T) {
	m, _, _ := newTestApp(t, true)
	feed(m, m.Init())

	if m.currentView != ViewIngredients {
		t.Fatalf("view = %v, want ingredients", m.currentView)
	}
	if m.user == nil || m.user.ID != "u1" {
		t.Fatalf("user = %+v", m.user)
	}
	if len(m.ingredients.items) != 2 {
		t.Errorf("ingredients loaded = %d", len(m.ingredients.items))
	}
	view := m.View()
	for _, want := range []string{"grocer", "Ingredients", "Rice", "Ada Lovelace"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestAppTabSwitching(t *testing.T) {
	m, _, _ := newTestApp(t, true)
	feed(m, m.Init())

	steps := []struct {
		press string
		want  View
	}{
		{"2", ViewDishes},
		{"3", ViewAccount},
		{"1", ViewIngredients},
	}
	for _, s := range steps {
		m.Update(keyPress(s.press))
		if m.currentView != s.want {
			t.Errorf("after %q view = %v, want %v", s.press, m.currentView, s.want)
		}
	}

	// digits go to the search box while it has focus
	m.Update(keyPress("/"))
	m.Update(keyPress("2"))
	if m.currentView != ViewIngredients {
		t.Errorf("typing in search switched view to %v", m.currentView)
	}
	if got := m.ingredients.list.search.Value(); got != "2" {
		t.Errorf("search = %q", got)
	}
}

func TestAppRemembersTab(t *testing.T) {
	m, _, store := newTestApp(t, true)
	feed(m, m.Init())
	m.Update(keyPress("2"))

	if got, _ := store.GetSetting(lastTabSetting); got != "dishes" {
		t.Errorf("saved tab = %q", got)
	}
	m.Update(logoutMsg{})
	m.Update(loggedInMsg{res: &api.AuthResponse{JWT: "again", User: testUser}})
	if m.currentView != ViewDishes {
		t.Errorf("view = %v, want the last tab", m.currentView)
	}
}

func TestAppExpiresSessionOnUnauthorized(t *testing.T) {
	m, f, store := newTestApp(t, true)
	f.unauthorized = true
	feed(m, m.Init())

	if m.currentView != ViewLogin {
		t.Fatalf("view = %v, want login", m.currentView)
	}
	if store.IsLoggedIn() {
		t.Error("session should be cleared")
	}
	if !hasToast(m, "Your session has expired") {
		t.Errorf("toasts = %v", toastMessages(m))
	}
}

func TestAppUnauthorizedIgnoredWhenLoggedOut(t *testing.T) {
	m, _, _ := newTestApp(t, false)
	m.Init()
	m.Update(ingredientsLoadedMsg{err: &api.Error{Status: 401}})
	if len(m.toasts.Items()) != 0 {
		t.Errorf("toasts = %v", toastMessages(m))
	}
}

func TestAppLoginAndLogout(t *testing.T) {
	m, _, store := newTestApp(t, false)
	m.Init()

	m.Update(loggedInMsg{res: &api.AuthResponse{JWT: "fresh", User: testUser}})
	if m.currentView != ViewIngredients {
		t.Fatalf("view = %v after login", m.currentView)
	}
	if store.Token() != "fresh" {
		t.Errorf("token = %q", store.Token())
	}
	if !hasToast(m, "Welcome, Ada Lovelace") {
		t.Errorf("toasts = %v", toastMessages(m))
	}

	m.Update(logoutMsg{})
	if m.currentView != ViewLogin || store.IsLoggedIn() {
		t.Errorf("view = %v loggedIn = %v after logout", m.currentView, store.IsLoggedIn())
	}
}

func TestAppDeleteConfirmCancel(t *testing.T) {
	m, f, _ := newTestApp(t, true)
	feed(m, m.Init())

	_, cmd := m.Update(keyPress("d"))
	feed(m, cmd)
	if m.currentView != ViewDeleteConfirm {
		t.Fatalf("view = %v, want delete confirm", m.currentView)
	}
	if m.pendingDelete == nil || m.pendingDelete.id != "ing-1" {
		t.Fatalf("pending = %+v", m.pendingDelete)
	}
	if !strings.Contains(m.View(), "Delete ingredient?") {
		t.Error("modal should be rendered")
	}

	m.Update(keyPress("esc"))
	if m.currentView != ViewIngredients || m.pendingDelete != nil {
		t.Errorf("esc should close the modal, view = %v", m.currentView)
	}
	for _, c := range f.Calls() {
		if strings.HasPrefix(c, "DELETE") {
			t.Errorf("unexpected %s", c)
		}
	}
}

func TestAppDeleteConfirmed(t *testing.T) {
	m, f, _ := newTestApp(t, true)
	feed(m, m.Init())
	m.Update(confirmDeleteMsg{id: "ing-2", name: "Lentils"})

	m.deleteConfirmValue = true
	m.deleteConfirm.State = huh.StateCompleted
	_, cmd := m.Update(struct{}{})
	if m.currentView != ViewIngredients {
		t.Fatalf("view = %v after confirming", m.currentView)
	}
	feed(m, cmd)

	if !hasToast(m, "Ingredient deleted successfully") {
		t.Errorf("toasts = %v", toastMessages(m))
	}
	if len(f.ingredients) != 1 || f.ingredients[0].Name != "Rice" {
		t.Errorf("server ingredients = %+v", f.ingredients)
	}
}

func TestAppDeleteFailed(t *testing.T) {
	m, _, _ := newTestApp(t, true)
	feed(m, m.Init())
	m.Update(ingredientDeletedMsg{err: errors.New("boom")})
	if !hasToast(m, "Failed to delete ingredient") {
		t.Errorf("toasts = %v", toastMessages(m))
	}
}

func TestAppFormsOpenAndClose(t *testing.T) {
	m, f, _ := newTestApp(t, true)
	feed(m, m.Init())

	m.Update(keyPress("2"))
	m.Update(openDishFormMsg{})
	if m.currentView != ViewDishForm || m.dishForm == nil {
		t.Fatalf("view = %v, want dish form", m.currentView)
	}
	if !strings.Contains(m.View(), "New Dish") {
		t.Error("dish form should render")
	}
	m.Update(keyPress("esc"))
	if m.currentView != ViewDishes || m.dishForm != nil {
		t.Errorf("esc on a clean form should return to dishes, view = %v", m.currentView)
	}

	rice := f.ingredients[0]
	m.Update(openIngredientFormMsg{ingredient: &rice})
	if m.currentView != ViewIngredientForm || !m.ingredientForm.IsEdit() {
		t.Fatalf("view = %v, want ingredient edit form", m.currentView)
	}
}

func TestAppSavedToasts(t *testing.T) {
	m, _, _ := newTestApp(t, true)
	feed(m, m.Init())

	m.Update(openIngredientFormMsg{})
	m.Update(ingredientSavedMsg{created: true})
	if m.currentView != ViewIngredients || m.ingredientForm != nil {
		t.Errorf("view = %v after save", m.currentView)
	}
	if !hasToast(m, "Ingredient created successfully") {
		t.Errorf("toasts = %v", toastMessages(m))
	}

	m.Update(openDishFormMsg{})
	m.Update(dishSavedMsg{err: errors.New("boom")})
	if m.currentView != ViewDishForm {
		t.Errorf("a failed save should keep the form open, view = %v", m.currentView)
	}
	if !hasToast(m, "Failed to update dish") {
		t.Errorf("toasts = %v", toastMessages(m))
	}
}

func TestAppConfigReload(t *testing.T) {
	m, _, _ := newTestApp(t, true)
	feed(m, m.Init())

	m.Update(configReloadedMsg{reload: config.Reload{Err: errors.New("bad yaml")}})
	if !hasToast(m, "Config not reloaded: bad yaml") {
		t.Errorf("toasts = %v", toastMessages(m))
	}

	cfg := config.Default()
	cfg.Keybindings = &config.KeybindingsConfig{
		Dishes: &config.KeybindingConfig{Keys: []string{"D"}},
	}
	m.Update(configReloadedMsg{reload: config.Reload{Config: cfg}})
	if !hasToast(m, "Config reloaded") {
		t.Errorf("toasts = %v", toastMessages(m))
	}
	m.Update(keyPress("D"))
	if m.currentView != ViewDishes {
		t.Errorf("rebound key should switch tabs, view = %v", m.currentView)
	}
}
