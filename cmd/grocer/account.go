package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bborn/grocer/internal/api"
	"github.com/bborn/grocer/internal/planner"
)

const requestTimeout = 15 * time.Second

// prompter reads answers from stdin, hiding passwords when stdin is a
// terminal.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
}

func newPrompter() *prompter {
	return &prompter{in: bufio.NewReader(os.Stdin), out: os.Stderr, fd: int(os.Stdin.Fd())}
}

func (p *prompter) line(label, current string) (string, error) {
	if current != "" {
		return current, nil
	}
	fmt.Fprint(p.out, boldStyle.Render(label+": "))
	s, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || s == "") {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(s), nil
}

func (p *prompter) password(label string) (string, error) {
	if !term.IsTerminal(p.fd) {
		return p.line(label, "")
	}
	fmt.Fprint(p.out, boldStyle.Render(label+": "))
	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return string(b), nil
}

// validationError lists field errors one per line, in field order.
func validationError(err error) error {
	fields := planner.Fields(err)
	if len(fields) == 0 {
		return err
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = fields[k]
	}
	return fmt.Errorf("%s", strings.Join(lines, "\n       "))
}

func saveLogin(e *env, res *api.AuthResponse) error {
	if err := e.store.Save(res.User, res.JWT); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	fmt.Println(successStyle.Render("Logged in as " + userLabel(res.User)))
	return nil
}

func userLabel(u planner.User) string {
	name := u.Name
	if name == "" {
		name = strings.TrimSpace(u.FName + " " + u.LName)
	}
	if name == "" {
		return u.Email
	}
	return fmt.Sprintf("%s <%s>", name, u.Email)
}

func newLoginCmd(flags *globalFlags, logger *log.Logger) *cobra.Command {
	var email string
	var google bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password, or with Google",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(flags, logger)
			if err != nil {
				return err
			}
			defer e.Close()

			if google {
				return loginGoogle(cmd.Context(), e)
			}

			p := newPrompter()
			creds := planner.Credentials{}
			if creds.Email, err = p.line("Email", email); err != nil {
				return err
			}
			if creds.Password, err = p.password("Password"); err != nil {
				return err
			}
			if err := creds.Validate(); err != nil {
				return validationError(err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			res, err := e.client.Login(ctx, creds)
			if err != nil {
				return e.apiError(err)
			}
			return saveLogin(e, res)
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().BoolVar(&google, "google", false, "Sign in with Google")
	return cmd
}

func loginGoogle(ctx context.Context, e *env) error {
	flow := e.googleFlow()
	if flow == nil {
		return fmt.Errorf("google sign-in is not configured (set google_client_id and google_client_secret)")
	}
	da, err := flow.Start(ctx)
	if err != nil {
		return err
	}
	fmt.Println("Visit " + boldStyle.Render(da.VerificationURI))
	fmt.Println("and enter the code " + boldStyle.Render(da.UserCode))
	fmt.Println(dimStyle.Render("Waiting for approval..."))

	res, err := flow.Wait(ctx, da)
	if err != nil {
		return e.apiError(err)
	}
	return saveLogin(e, res)
}

func newSignupCmd(flags *globalFlags, logger *log.Logger) *cobra.Command {
	var s planner.Signup
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(flags, logger)
			if err != nil {
				return err
			}
			defer e.Close()

			p := newPrompter()
			if s.FirstName, err = p.line("First name", s.FirstName); err != nil {
				return err
			}
			if s.LastName, err = p.line("Last name", s.LastName); err != nil {
				return err
			}
			if s.Email, err = p.line("Email", s.Email); err != nil {
				return err
			}
			if s.Password, err = p.password("Password"); err != nil {
				return err
			}
			if s.ConfirmPassword, err = p.password("Confirm password"); err != nil {
				return err
			}
			if err := s.Validate(); err != nil {
				return validationError(err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			res, err := e.client.Signup(ctx, s)
			if err != nil {
				return e.apiError(err)
			}
			return saveLogin(e, res)
		},
	}
	cmd.Flags().StringVar(&s.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&s.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVarP(&s.Email, "email", "e", "", "Account email")
	return cmd
}

func newLogoutCmd(flags *globalFlags, logger *log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(flags, logger)
			if err != nil {
				return err
			}
			defer e.Close()

			if !e.store.IsLoggedIn() {
				fmt.Println(dimStyle.Render("Not logged in"))
				return nil
			}
			if err := e.store.Clear(); err != nil {
				return err
			}
			fmt.Println(successStyle.Render("Logged out"))
			return nil
		},
	}
}

func newWhoamiCmd(flags *globalFlags, logger *log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(flags, logger)
			if err != nil {
				return err
			}
			defer e.Close()

			sess, err := e.requireLogin()
			if err != nil {
				return err
			}
			signIn := "email and password"
			if !sess.User.CanChangePassword() {
				signIn = "Google"
			}
			fmt.Println(boldStyle.Render(userLabel(sess.User)))
			fmt.Println(dimStyle.Render("Signs in with " + signIn + " at " + e.client.BaseURL()))
			fmt.Println(dimStyle.Render("Logged in " + sess.SavedAt.Local().Format("2006-01-02 15:04")))
			return nil
		},
	}
}

func newChangePasswordCmd(flags *globalFlags, logger *log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "change-password",
		Short: "Change the account password",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(flags, logger)
			if err != nil {
				return err
			}
			defer e.Close()

			sess, err := e.requireLogin()
			if err != nil {
				return err
			}
			if !sess.User.CanChangePassword() {
				return fmt.Errorf("this account signs in with Google and has no password")
			}

			p := newPrompter()
			var pc planner.PasswordChange
			if pc.CurrentPassword, err = p.password("Current password"); err != nil {
				return err
			}
			if pc.NewPassword, err = p.password("New password"); err != nil {
				return err
			}
			if pc.ConfirmPassword, err = p.password("Confirm password"); err != nil {
				return err
			}
			if err := pc.Validate(); err != nil {
				return validationError(err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			msg, err := e.client.ChangePassword(ctx, pc)
			if err != nil {
				return e.apiError(err)
			}
			if msg == "" {
				msg = "Password changed"
			}
			fmt.Println(successStyle.Render(msg))
			return nil
		},
	}
}
