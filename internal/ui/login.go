package ui

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/oauth2"

	"github.com/bborn/grocer/internal/api"
	"github.com/bborn/grocer/internal/auth"
	"github.com/bborn/grocer/internal/planner"
)

// loggedInMsg is sent once the API has issued a session.
type loggedInMsg struct {
	res *api.AuthResponse
}

// authFailedMsg carries a failed login, signup or Google sign-in.
type authFailedMsg struct {
	err error
}

// deviceCodeMsg carries the code the user must enter at Google.
type deviceCodeMsg struct {
	da  *oauth2.DeviceAuthResponse
	err error
}

type authMode int

const (
	modeLogin authMode = iota
	modeSignup
	modeGoogle
)

// LoginModel is shown until the user is signed in. It offers email login,
// signup, and Google sign-in through the device flow.
type LoginModel struct {
	client *api.Client
	google *auth.DeviceFlow // nil when Google is not configured

	mode   authMode
	form   *huh.Form
	creds  planner.Credentials
	signup planner.Signup

	busy         bool
	err          string
	device       *oauth2.DeviceAuthResponse
	googleCtx    context.Context
	googleCancel context.CancelFunc

	width  int
	height int
}

// NewLoginModel creates the login screen. google may be nil.
func NewLoginModel(client *api.Client, google *auth.DeviceFlow, width, height int) *LoginModel {
	m := &LoginModel{client: client, google: google, width: width, height: height}
	m.buildForm()
	return m
}

// fieldValidator runs a whole-form validation with value in place and
// reports the message for one field, so huh can show it inline.
func fieldValidator(field string, validate func(value string) error) func(string) error {
	return func(value string) error {
		if msg, ok := planner.Fields(validate(value))[field]; ok {
			return errors.New(msg)
		}
		return nil
	}
}

func signupValidator(s *planner.Signup, field string, set func(*planner.Signup, string)) func(string) error {
	return fieldValidator(field, func(value string) error {
		cp := *s
		set(&cp, value)
		return cp.Validate()
	})
}

func credentialsValidator(c *planner.Credentials, field string, set func(*planner.Credentials, string)) func(string) error {
	return fieldValidator(field, func(value string) error {
		cp := *c
		set(&cp, value)
		return cp.Validate()
	})
}

func (m *LoginModel) buildForm() {
	var group *huh.Group
	switch m.mode {
	case modeSignup:
		s := &m.signup
		group = huh.NewGroup(
			huh.NewInput().Title("First Name").Value(&s.FirstName).
				Validate(signupValidator(s, "firstName", func(s *planner.Signup, v string) { s.FirstName = v })),
			huh.NewInput().Title("Last Name").Value(&s.LastName).
				Validate(signupValidator(s, "lastName", func(s *planner.Signup, v string) { s.LastName = v })),
			huh.NewInput().Title("Email").Value(&s.Email).
				Validate(signupValidator(s, "email", func(s *planner.Signup, v string) { s.Email = v })),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&s.Password).
				Validate(signupValidator(s, "password", func(s *planner.Signup, v string) { s.Password = v })),
			huh.NewInput().Title("Confirm Password").EchoMode(huh.EchoModePassword).Value(&s.ConfirmPassword).
				Validate(signupValidator(s, "confirmPassword", func(s *planner.Signup, v string) { s.ConfirmPassword = v })),
		).Title("Create an account")
	default:
		c := &m.creds
		group = huh.NewGroup(
			huh.NewInput().Title("Email").Value(&c.Email).
				Validate(credentialsValidator(c, "email", func(c *planner.Credentials, v string) { c.Email = v })),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&c.Password).
				Validate(credentialsValidator(c, "password", func(c *planner.Credentials, v string) { c.Password = v })),
		).Title("Log in")
	}

	m.form = huh.NewForm(group).
		WithTheme(FormTheme()).
		WithWidth(min(max(m.width-10, 40), 70)).
		WithShowHelp(true)
}

// Init initializes the form.
func (m *LoginModel) Init() tea.Cmd {
	return m.form.Init()
}

// SetSize updates the screen dimensions.
func (m *LoginModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.form != nil {
		m.form = m.form.WithWidth(min(max(width-10, 40), 70))
	}
}

func (m *LoginModel) switchMode(mode authMode) tea.Cmd {
	m.mode = mode
	m.err = ""
	m.buildForm()
	return m.form.Init()
}

func (m *LoginModel) submit() tea.Cmd {
	m.busy = true
	m.err = ""
	client := m.client
	switch m.mode {
	case modeSignup:
		s := m.signup
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			res, err := client.Signup(ctx, s)
			if err != nil {
				return authFailedMsg{err: err}
			}
			return loggedInMsg{res: res}
		}
	default:
		c := m.creds
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			res, err := client.Login(ctx, c)
			if err != nil {
				return authFailedMsg{err: err}
			}
			return loggedInMsg{res: res}
		}
	}
}

func (m *LoginModel) startGoogle() tea.Cmd {
	if m.google == nil {
		m.err = auth.ErrNotConfigured.Error()
		return nil
	}
	m.mode = modeGoogle
	m.busy = true
	m.err = ""
	m.device = nil

	ctx, cancel := context.WithCancel(context.Background())
	m.googleCtx, m.googleCancel = ctx, cancel
	flow := m.google
	return func() tea.Msg {
		da, err := flow.Start(ctx)
		return deviceCodeMsg{da: da, err: err}
	}
}

func (m *LoginModel) cancelGoogle() tea.Cmd {
	if m.googleCancel != nil {
		m.googleCancel()
		m.googleCancel = nil
	}
	m.busy = false
	m.device = nil
	return m.switchMode(modeLogin)
}

// Update handles messages.
func (m *LoginModel) Update(msg tea.Msg) (*LoginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case deviceCodeMsg:
		if m.mode != modeGoogle {
			return m, nil
		}
		if msg.err != nil {
			m.busy = false
			m.err = api.ErrorMessage(msg.err)
			return m, nil
		}
		m.device = msg.da
		flow, da, ctx := m.google, msg.da, m.googleCtx
		return m, func() tea.Msg {
			res, err := flow.Wait(ctx, da)
			if err != nil {
				return authFailedMsg{err: err}
			}
			return loggedInMsg{res: res}
		}

	case authFailedMsg:
		m.busy = false
		if errors.Is(msg.err, context.Canceled) {
			return m, nil
		}
		m.err = api.ErrorMessage(msg.err)
		if m.mode == modeGoogle {
			m.device = nil
			return m, nil
		}
		// A completed huh form cannot be resumed; rebuild it with the values kept.
		m.buildForm()
		return m, m.form.Init()

	case loggedInMsg:
		m.busy = false
		return m, nil

	case tea.KeyMsg:
		if m.mode == modeGoogle {
			switch msg.String() {
			case "esc":
				return m, m.cancelGoogle()
			case "r":
				if !m.busy {
					return m, m.startGoogle()
				}
			}
			return m, nil
		}
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "ctrl+g":
			return m, m.startGoogle()
		case "ctrl+t":
			if m.mode == modeLogin {
				return m, m.switchMode(modeSignup)
			}
			return m, m.switchMode(modeLogin)
		}
	}

	if m.mode == modeGoogle || m.busy {
		return m, nil
	}

	model, cmd := m.form.Update(msg)
	if f, ok := model.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		return m, tea.Batch(cmd, m.submit())
	case huh.StateAborted:
		// esc on the form starts over
		return m, m.switchMode(m.mode)
	}
	return m, cmd
}

// View renders the screen.
func (m *LoginModel) View() string {
	var b strings.Builder
	b.WriteString(Title.Render("grocer") + "  " + Dim.Render("grocery planner") + "\n\n")

	switch {
	case m.mode == modeGoogle && m.device != nil:
		b.WriteString("Sign in with Google\n\n")
		b.WriteString("Visit " + Subtitle.Render(m.device.VerificationURI) + "\n")
		b.WriteString("and enter the code " + Title.Render(m.device.UserCode) + "\n\n")
		b.WriteString(Dim.Render("Waiting for approval... esc to cancel"))
	case m.mode == modeGoogle && m.busy:
		b.WriteString(Dim.Render("Contacting Google..."))
	case m.mode == modeGoogle:
		b.WriteString(Dim.Render("r to retry • esc to go back"))
	case m.busy:
		b.WriteString(Dim.Render("Signing in..."))
	default:
		b.WriteString(m.form.View())
		b.WriteString("\n")
		toggle := "ctrl+t create an account"
		if m.mode == modeSignup {
			toggle = "ctrl+t back to log in"
		}
		hints := []string{toggle}
		if m.google != nil {
			hints = append(hints, "ctrl+g sign in with Google")
		}
		b.WriteString(Dim.Render(strings.Join(hints, " • ")))
	}

	if m.err != "" {
		b.WriteString("\n\n" + Error.Render(IconCross()+" "+m.err))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(1, 3).
		Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
