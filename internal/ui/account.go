package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/bborn/grocer/internal/api"
	"github.com/bborn/grocer/internal/planner"
)

// passwordChangedMsg carries the API's confirmation message.
type passwordChangedMsg struct {
	message string
	err     error
}

// logoutMsg asks the app to clear the session.
type logoutMsg struct{}

// AccountModel shows the signed-in user and lets them change their password
// or log out.
type AccountModel struct {
	client *api.Client
	keys   KeyMap
	user   planner.User

	form    *huh.Form
	change  planner.PasswordChange
	busy    bool
	err     string
	message string

	width  int
	height int
}

// NewAccountModel creates the account screen.
func NewAccountModel(client *api.Client, keys KeyMap, user planner.User) *AccountModel {
	return &AccountModel{client: client, keys: keys, user: user}
}

// SetSize updates the screen dimensions.
func (m *AccountModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Editing reports whether the change password form is open.
func (m *AccountModel) Editing() bool { return m.form != nil }

func passwordValidator(p *planner.PasswordChange, field string, set func(*planner.PasswordChange, string)) func(string) error {
	return fieldValidator(field, func(value string) error {
		cp := *p
		set(&cp, value)
		return cp.Validate()
	})
}

func (m *AccountModel) openForm() tea.Cmd {
	m.err = ""
	m.message = ""
	p := &m.change
	m.form = huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Current Password").EchoMode(huh.EchoModePassword).Value(&p.CurrentPassword).
			Validate(passwordValidator(p, "currentPassword", func(p *planner.PasswordChange, v string) { p.CurrentPassword = v })),
		huh.NewInput().Title("New Password").EchoMode(huh.EchoModePassword).Value(&p.NewPassword).
			Validate(passwordValidator(p, "newPassword", func(p *planner.PasswordChange, v string) { p.NewPassword = v })),
		huh.NewInput().Title("Confirm Password").EchoMode(huh.EchoModePassword).Value(&p.ConfirmPassword).
			Validate(passwordValidator(p, "confirmPassword", func(p *planner.PasswordChange, v string) { p.ConfirmPassword = v })),
	).Title("Change password")).
		WithTheme(FormTheme()).
		WithWidth(min(max(m.width-10, 40), 70)).
		WithShowHelp(true)
	return m.form.Init()
}

func (m *AccountModel) closeForm() {
	m.form = nil
	m.change = planner.PasswordChange{}
}

// Update handles messages.
func (m *AccountModel) Update(msg tea.Msg) (*AccountModel, tea.Cmd) {
	switch msg := msg.(type) {
	case passwordChangedMsg:
		m.busy = false
		if msg.err != nil {
			m.err = api.ErrorMessage(msg.err)
			return m, m.openForm()
		}
		m.closeForm()
		m.message = msg.message
		return m, nil

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		if m.form == nil {
			switch {
			case key.Matches(msg, m.keys.Edit):
				if m.user.CanChangePassword() {
					return m, m.openForm()
				}
			case key.Matches(msg, m.keys.Logout):
				return m, func() tea.Msg { return logoutMsg{} }
			}
			return m, nil
		}
	}

	if m.form == nil {
		return m, nil
	}
	model, cmd := m.form.Update(msg)
	if f, ok := model.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		m.busy = true
		client, p := m.client, m.change
		return m, tea.Batch(cmd, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			message, err := client.ChangePassword(ctx, p)
			return passwordChangedMsg{message: message, err: err}
		})
	case huh.StateAborted:
		m.closeForm()
		return m, nil
	}
	return m, cmd
}

// View renders the screen.
func (m *AccountModel) View() string {
	var b strings.Builder
	b.WriteString(Header.Render("Account") + "\n\n")

	row := func(label, value string) {
		if value == "" {
			value = Dim.Render("-")
		}
		b.WriteString("  " + labelStyle().Render(label) + value + "\n")
	}
	row("Name", m.user.Name)
	row("Email", m.user.Email)
	signIn := "email and password"
	if !m.user.CanChangePassword() {
		signIn = "Google"
	}
	row("Signs in with", signIn)
	b.WriteString("\n")

	switch {
	case m.busy:
		b.WriteString("  " + Dim.Render("Changing password...") + "\n")
	case m.form != nil:
		b.WriteString(m.form.View() + "\n")
	default:
		var hints []string
		if m.user.CanChangePassword() {
			hints = append(hints, m.keys.Edit.Help().Key+" change password")
		}
		hints = append(hints, m.keys.Logout.Help().Key+" log out")
		b.WriteString("  " + Dim.Render(strings.Join(hints, " • ")) + "\n")
	}

	if m.message != "" {
		b.WriteString("\n  " + Success.Render(IconCheck()+" "+m.message) + "\n")
	}
	if m.err != "" {
		b.WriteString("\n  " + Error.Render(IconCross()+" "+m.err) + "\n")
	}
	return b.String()
}
