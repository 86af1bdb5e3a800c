package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/bborn/grocer/internal/api"
	"github.com/bborn/grocer/internal/auth"
	"github.com/bborn/grocer/internal/config"
	"github.com/bborn/grocer/internal/debounce"
	"github.com/bborn/grocer/internal/planner"
	"github.com/bborn/grocer/internal/session"
)

// View represents the current view.
type View int

const (
	ViewLogin View = iota
	ViewIngredients
	ViewDishes
	ViewAccount
	ViewIngredientForm
	ViewDishForm
	ViewDeleteConfirm
)

// Messages from the watchers.
type (
	sessionChangedMsg struct{}
	configReloadedMsg struct{ reload config.Reload }
)

type ingredientDeletedMsg struct {
	err error
}

// Options configures an AppModel.
type Options struct {
	Client *api.Client
	Store  *session.Store
	Config *config.Config
	Google *auth.DeviceFlow // nil disables Google sign-in
	Logger *log.Logger

	// Watch enables the session and config file watchers.
	Watch bool
}

// AppModel is the main application model.
type AppModel struct {
	client *api.Client
	store  *session.Store
	cfg    *config.Config
	google *auth.DeviceFlow
	logger *log.Logger

	keys     KeyMap
	help     help.Model
	debounce *debounce.Tracker

	currentView  View
	previousView View
	user         *planner.User

	login          *LoginModel
	ingredients    *IngredientsModel
	dishes         *DishesModel
	account        *AccountModel
	ingredientForm *IngredientFormModel
	dishForm       *DishFormModel

	// Delete confirmation state
	deleteConfirm      *huh.Form
	deleteConfirmValue bool
	pendingDelete      *confirmDeleteMsg

	toasts Toasts

	watch     bool
	ctx       context.Context
	cancel    context.CancelFunc
	sessionCh <-chan struct{}
	configCh  <-chan config.Reload

	width   int
	height  int
	formTop int // lines above the form box in the last render
}

// NewAppModel creates a new application model.
func NewAppModel(opts Options) *AppModel {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = GetLogger()
	}
	if err := SetTheme(cfg.Theme); err != nil {
		logger.Warn("theme not applied", "theme", cfg.Theme, "error", err)
	}

	h := help.New()
	h.ShowAll = false

	ctx, cancel := context.WithCancel(context.Background())
	return &AppModel{
		client:   opts.Client,
		store:    opts.Store,
		cfg:      cfg,
		google:   opts.Google,
		logger:   logger,
		keys:     ApplyKeybindingsConfig(DefaultKeyMap(), cfg.Keybindings),
		help:     h,
		debounce: debounce.NewTracker(cfg.Debounce),
		watch:    opts.Watch,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Init initializes the model.
func (m *AppModel) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.watch {
		cmds = append(cmds, m.startWatchers()...)
	}

	sess, err := m.store.Current()
	if err != nil {
		if !errors.Is(err, session.ErrNotLoggedIn) {
			m.logger.Error("load session", "error", err)
		}
		cmds = append(cmds, m.showLogin())
		return tea.Batch(cmds...)
	}
	cmds = append(cmds, m.enter(sess.User))
	return tea.Batch(cmds...)
}

// Close stops the watchers. Safe to call more than once.
func (m *AppModel) Close() {
	m.cancel()
}

func (m *AppModel) startWatchers() []tea.Cmd {
	var cmds []tea.Cmd
	if ch, err := m.store.Watch(m.ctx); err != nil {
		m.logger.Warn("session watcher not started", "error", err)
	} else {
		m.sessionCh = ch
		cmds = append(cmds, m.waitForSessionChange())
	}
	if path := m.cfg.Path(); path != "" {
		if ch, err := config.Watch(m.ctx, path); err != nil {
			m.logger.Warn("config watcher not started", "path", path, "error", err)
		} else {
			m.configCh = ch
			cmds = append(cmds, m.waitForConfigReload())
		}
	}
	return cmds
}

func (m *AppModel) waitForSessionChange() tea.Cmd {
	ch := m.sessionCh
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return sessionChangedMsg{}
	}
}

func (m *AppModel) waitForConfigReload() tea.Cmd {
	ch := m.configCh
	return func() tea.Msg {
		r, ok := <-ch
		if !ok {
			return nil
		}
		return configReloadedMsg{reload: r}
	}
}

func (m *AppModel) showLogin() tea.Cmd {
	m.user = nil
	m.ingredientForm = nil
	m.dishForm = nil
	m.deleteConfirm = nil
	m.login = NewLoginModel(m.client, m.google, m.width, m.height)
	m.currentView = ViewLogin
	return m.login.Init()
}

// enter switches to the signed-in screens.
func (m *AppModel) enter(user planner.User) tea.Cmd {
	m.user = &user
	m.login = nil
	m.ingredients = NewIngredientsModel(m.client, m.keys, m.debounce, m.cfg.PageSize)
	m.dishes = NewDishesModel(m.client, m.keys, m.debounce, m.cfg.PageSize)
	m.account = NewAccountModel(m.client, m.keys, user)
	m.resize()
	m.currentView = m.lastTab()
	return tea.Batch(m.ingredients.Init(), m.dishes.Init())
}

// lastTabSetting remembers the tab that was open when grocer last ran.
const lastTabSetting = "last_tab"

var tabNames = map[View]string{
	ViewIngredients: "ingredients",
	ViewDishes:      "dishes",
	ViewAccount:     "account",
}

func (m *AppModel) switchTab(v View) {
	m.currentView = v
	if err := m.store.SetSetting(lastTabSetting, tabNames[v]); err != nil {
		m.logger.Warn("remember tab", "error", err)
	}
}

func (m *AppModel) lastTab() View {
	name, err := m.store.GetSetting(lastTabSetting)
	if err != nil {
		m.logger.Warn("restore tab", "error", err)
		return ViewIngredients
	}
	for v, n := range tabNames {
		if n == name {
			return v
		}
	}
	return ViewIngredients
}

func (m *AppModel) contentHeight() int {
	return max(m.height-4, 0)
}

func (m *AppModel) resize() {
	m.help.Width = m.width
	if m.login != nil {
		m.login.SetSize(m.width, m.height)
	}
	if m.ingredients != nil {
		m.ingredients.SetSize(m.width, m.contentHeight())
	}
	if m.dishes != nil {
		m.dishes.SetSize(m.width, m.contentHeight())
	}
	if m.account != nil {
		m.account.SetSize(m.width, m.contentHeight())
	}
	if m.ingredientForm != nil {
		m.ingredientForm.SetSize(m.width, m.height)
	}
	if m.dishForm != nil {
		m.dishForm.SetSize(m.width, m.height)
	}
}

// applyConfig re-applies a reloaded config to the running UI.
func (m *AppModel) applyConfig(cfg *config.Config) {
	m.cfg = cfg
	if err := SetTheme(cfg.Theme); err != nil {
		m.logger.Warn("theme not applied", "theme", cfg.Theme, "error", err)
	}
	SetLogLevel(cfg.LogLevel)
	m.keys = ApplyKeybindingsConfig(DefaultKeyMap(), cfg.Keybindings)
	if m.ingredients != nil {
		m.ingredients.keys = m.keys
		m.ingredients.list.keys = m.keys
	}
	if m.dishes != nil {
		m.dishes.keys = m.keys
		m.dishes.list.keys = m.keys
	}
	if m.account != nil {
		m.account.keys = m.keys
	}
}

// isUnauthorized reports whether msg is an API result rejected for an
// expired or missing token.
func isUnauthorized(msg tea.Msg) bool {
	var err error
	switch msg := msg.(type) {
	case ingredientsLoadedMsg:
		err = msg.err
	case dishesLoadedMsg:
		err = msg.err
	case ingredientSavedMsg:
		err = msg.err
	case dishSavedMsg:
		err = msg.err
	case ingredientDeletedMsg:
		err = msg.err
	}
	return errors.Is(err, api.ErrUnauthorized)
}

func (m *AppModel) expireSession() tea.Cmd {
	if err := m.store.Clear(); err != nil {
		m.logger.Error("clear session", "error", err)
	}
	cmd := m.showLogin()
	return tea.Batch(cmd, m.toasts.Error("Your session has expired, please log in again"))
}

// Update handles messages.
func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.toasts.Update(msg) {
		return m, nil
	}
	if isUnauthorized(msg) && m.user != nil {
		return m, m.expireSession()
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.Close()
			return m, tea.Quit
		}

	case sessionChangedMsg:
		return m, tea.Batch(m.reconcileSession(), m.waitForSessionChange())

	case configReloadedMsg:
		cmds := []tea.Cmd{m.waitForConfigReload()}
		if msg.reload.Err != nil {
			m.logger.Warn("config reload failed", "error", msg.reload.Err)
			cmds = append(cmds, m.toasts.Error("Config not reloaded: "+msg.reload.Err.Error()))
		} else {
			m.applyConfig(msg.reload.Config)
			_, cmd := m.toasts.Add("Config reloaded", ToastInfo, true, 0)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case loggedInMsg:
		if err := m.store.Save(msg.res.User, msg.res.JWT); err != nil {
			m.logger.Error("save session", "error", err)
			return m, m.toasts.Error("Could not save session: " + err.Error())
		}
		m.logger.Info("logged in", "user", msg.res.User.ID)
		return m, tea.Batch(m.enter(msg.res.User), m.toasts.Success("Welcome, "+displayName(msg.res.User)))

	case logoutMsg:
		if err := m.store.Clear(); err != nil {
			m.logger.Error("clear session", "error", err)
			return m, m.toasts.Error("Could not log out: " + err.Error())
		}
		return m, tea.Batch(m.showLogin(), m.toasts.Success("Logged out"))

	case openIngredientFormMsg:
		m.previousView = m.currentView
		m.ingredientForm = NewIngredientFormModel(m.client, m.keys, msg.ingredient, m.cfg.BlurDelay, m.width, m.height)
		m.currentView = ViewIngredientForm
		return m, nil

	case openDishFormMsg:
		m.previousView = m.currentView
		m.dishForm = NewDishFormModel(m.client, m.keys, m.debounce, msg.dish, m.cfg.BlurDelay, m.width, m.height)
		m.currentView = ViewDishForm
		return m, m.dishForm.Init()

	case confirmDeleteMsg:
		return m.showDeleteConfirm(msg)

	case ingredientSavedMsg:
		return m.handleIngredientSaved(msg)

	case dishSavedMsg:
		return m.handleDishSaved(msg)

	case ingredientDeletedMsg:
		if msg.err != nil {
			m.logger.Warn("delete ingredient", "error", msg.err)
			return m, m.toasts.Error("Failed to delete ingredient")
		}
		return m, tea.Batch(m.toasts.Success("Ingredient deleted successfully"), m.ingredients.Reload())
	}

	switch m.currentView {
	case ViewLogin:
		if m.login != nil {
			var cmd tea.Cmd
			m.login, cmd = m.login.Update(msg)
			return m, cmd
		}
	case ViewIngredientForm:
		return m.updateIngredientForm(msg)
	case ViewDishForm:
		return m.updateDishForm(msg)
	case ViewDeleteConfirm:
		return m.updateDeleteConfirm(msg)
	}
	return m.updateMain(msg)
}

// updateMain routes messages on the tabbed screens. Data messages go to
// every screen so a background load still lands.
func (m *AppModel) updateMain(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.user == nil {
		return m, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if !m.typing() {
			switch {
			case key.Matches(keyMsg, m.keys.Ingredients):
				m.switchTab(ViewIngredients)
				return m, nil
			case key.Matches(keyMsg, m.keys.Dishes):
				m.switchTab(ViewDishes)
				return m, nil
			case key.Matches(keyMsg, m.keys.Account):
				m.switchTab(ViewAccount)
				return m, nil
			case key.Matches(keyMsg, m.keys.Help):
				m.help.ShowAll = !m.help.ShowAll
				return m, nil
			}
		}

		var cmd tea.Cmd
		switch m.currentView {
		case ViewIngredients:
			m.ingredients, cmd = m.ingredients.Update(msg)
		case ViewDishes:
			m.dishes, cmd = m.dishes.Update(msg)
		case ViewAccount:
			m.account, cmd = m.account.Update(msg)
		}
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.ingredients, cmd = m.ingredients.Update(msg)
	cmds = append(cmds, cmd)
	m.dishes, cmd = m.dishes.Update(msg)
	cmds = append(cmds, cmd)
	m.account, cmd = m.account.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// typing reports whether a text field on the current screen has focus.
func (m *AppModel) typing() bool {
	switch m.currentView {
	case ViewIngredients:
		return m.ingredients.Searching()
	case ViewDishes:
		return m.dishes.Searching()
	case ViewAccount:
		return m.account.Editing()
	}
	return false
}

// reconcileSession follows a login or logout made by another process.
func (m *AppModel) reconcileSession() tea.Cmd {
	sess, err := m.store.Current()
	switch {
	case err != nil && m.user != nil:
		m.logger.Info("session ended elsewhere")
		return tea.Batch(m.showLogin(), m.toasts.Error("You were logged out"))
	case err == nil && m.user == nil:
		m.logger.Info("session started elsewhere", "user", sess.User.ID)
		return m.enter(sess.User)
	case err == nil && m.user != nil && sess.User.ID != m.user.ID:
		return m.enter(sess.User)
	}
	return nil
}

func (m *AppModel) routeMouse(msg tea.Msg) tea.Msg {
	if mm, ok := msg.(tea.MouseMsg); ok {
		mm.Y -= m.formTop
		return mm
	}
	return msg
}

func (m *AppModel) updateIngredientForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.ingredientForm, cmd = m.ingredientForm.Update(m.routeMouse(msg))
	if m.ingredientForm.cancelled {
		m.ingredientForm = nil
		m.currentView = m.previousView
	}
	return m, cmd
}

func (m *AppModel) updateDishForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.dishForm, cmd = m.dishForm.Update(m.routeMouse(msg))
	if m.dishForm.cancelled {
		m.dishForm = nil
		m.currentView = m.previousView
	}
	return m, cmd
}

func (m *AppModel) handleIngredientSaved(msg ingredientSavedMsg) (tea.Model, tea.Cmd) {
	verb := "update"
	if msg.created {
		verb = "create"
	}
	if m.ingredientForm != nil {
		m.ingredientForm, _ = m.ingredientForm.Update(msg)
	}
	if msg.err != nil {
		m.logger.Warn(verb+" ingredient", "error", msg.err)
		return m, m.toasts.Error(fmt.Sprintf("Failed to %s ingredient", verb))
	}
	m.ingredientForm = nil
	m.currentView = ViewIngredients
	return m, tea.Batch(
		m.toasts.Success(fmt.Sprintf("Ingredient %sd successfully", verb)),
		m.ingredients.Reload(),
	)
}

func (m *AppModel) handleDishSaved(msg dishSavedMsg) (tea.Model, tea.Cmd) {
	verb := "update"
	if msg.created {
		verb = "create"
	}
	if m.dishForm != nil {
		m.dishForm, _ = m.dishForm.Update(msg)
	}
	if msg.err != nil {
		m.logger.Warn(verb+" dish", "error", msg.err)
		return m, m.toasts.Error(fmt.Sprintf("Failed to %s dish", verb))
	}
	m.dishForm = nil
	m.currentView = ViewDishes
	return m, tea.Batch(
		m.toasts.Success(fmt.Sprintf("Dish %sd successfully", verb)),
		m.dishes.Reload(),
	)
}

func (m *AppModel) showDeleteConfirm(target confirmDeleteMsg) (tea.Model, tea.Cmd) {
	m.pendingDelete = &target
	m.deleteConfirmValue = false
	modalWidth := min(50, m.width-8)
	m.deleteConfirm = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Key("delete").
				Title("Delete ingredient?").
				Description(target.name).
				Affirmative("Delete").
				Negative("Cancel").
				Value(&m.deleteConfirmValue),
		),
	).WithTheme(FormTheme()).
		WithWidth(modalWidth - 6).
		WithShowHelp(true)
	m.previousView = m.currentView
	m.currentView = ViewDeleteConfirm
	return m, m.deleteConfirm.Init()
}

func (m *AppModel) closeDeleteConfirm() {
	m.deleteConfirm = nil
	m.pendingDelete = nil
	m.currentView = m.previousView
}

func (m *AppModel) updateDeleteConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		m.closeDeleteConfirm()
		return m, nil
	}

	form, cmd := m.deleteConfirm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.deleteConfirm = f
	}

	if m.deleteConfirm.State == huh.StateCompleted {
		target := m.pendingDelete
		confirmed := m.deleteConfirmValue
		m.closeDeleteConfirm()
		if target == nil || !confirmed {
			return m, nil
		}
		client, id := m.client, target.id
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			return ingredientDeletedMsg{err: client.DeleteIngredient(ctx, id)}
		}
	}
	return m, cmd
}

// View renders the current view.
func (m *AppModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	toasts := m.toasts.View(m.width)

	switch m.currentView {
	case ViewLogin:
		if m.login == nil {
			return ""
		}
		if toasts == "" {
			return m.login.View()
		}
		return lipgloss.JoinVertical(lipgloss.Left, toasts, m.login.View())
	case ViewIngredientForm, ViewDishForm:
		m.formTop = 0
		var form string
		if m.ingredientForm != nil {
			form = m.ingredientForm.View()
		} else if m.dishForm != nil {
			form = m.dishForm.View()
		}
		if toasts == "" {
			return form
		}
		m.formTop = lipgloss.Height(toasts)
		return lipgloss.JoinVertical(lipgloss.Left, toasts, form)
	case ViewDeleteConfirm:
		return m.viewDeleteConfirm()
	}

	var body string
	switch m.currentView {
	case ViewIngredients:
		body = m.ingredients.View()
	case ViewDishes:
		body = m.dishes.View()
	case ViewAccount:
		body = m.account.View()
	}

	parts := []string{m.viewTabs()}
	if toasts != "" {
		parts = append(parts, toasts)
	}
	parts = append(parts, body, HelpBar.Render(m.help.View(m.keys)))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *AppModel) viewTabs() string {
	tabs := []struct {
		view  View
		label string
		key   key.Binding
	}{
		{ViewIngredients, "Ingredients", m.keys.Ingredients},
		{ViewDishes, "Dishes", m.keys.Dishes},
		{ViewAccount, "Account", m.keys.Account},
	}
	var rendered []string
	for _, t := range tabs {
		label := t.key.Help().Key + " " + t.label
		if t.view == m.currentView {
			rendered = append(rendered, ActiveTab.Render(label))
		} else {
			rendered = append(rendered, Tab.Render(label))
		}
	}
	left := Title.Render("grocer") + "  " + strings.Join(rendered, " ")
	right := ""
	if m.user != nil {
		right = Dim.Render(displayName(*m.user))
	}
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-1, 1)
	return left + strings.Repeat(" ", gap) + right + "\n"
}

func (m *AppModel) viewDeleteConfirm() string {
	if m.deleteConfirm == nil {
		return ""
	}

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorError).
		MarginBottom(1).
		Render(IconWarning() + " Confirm Delete")

	modalWidth := min(50, m.width-8)
	modalBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorError).
		Padding(1, 2).
		Width(modalWidth)

	modalContent := modalBox.Render(lipgloss.JoinVertical(lipgloss.Center, header, m.deleteConfirm.View()))

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(modalContent)
}

func displayName(u planner.User) string {
	if u.Name != "" {
		return u.Name
	}
	if name := strings.TrimSpace(u.FName + " " + u.LName); name != "" {
		return name
	}
	return u.Email
}
