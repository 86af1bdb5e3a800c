// grocer is the terminal client for the grocery planner.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/bborn/grocer/internal/api"
	"github.com/bborn/grocer/internal/auth"
	"github.com/bborn/grocer/internal/config"
	"github.com/bborn/grocer/internal/server"
	"github.com/bborn/grocer/internal/session"
	"github.com/bborn/grocer/internal/ui"
)

var (
	version = "dev"

	// Styles for CLI output
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	boldStyle    = lipgloss.NewStyle().Bold(true)
)

// globalFlags override the config file and environment.
type globalFlags struct {
	configPath string
	apiURL     string
	logLevel   string
}

// env is what every command that talks to the API needs.
type env struct {
	cfg    *config.Config
	store  *session.Store
	client *api.Client
	logger *log.Logger
}

func (e *env) Close() {
	if e.store != nil {
		e.store.Close()
	}
}

func loadConfig(flags *globalFlags) (*config.Config, error) {
	path := flags.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.LoadFromPath(path)
	if err != nil {
		return nil, err
	}
	if flags.apiURL != "" {
		cfg.APIURL = flags.apiURL
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	return cfg, nil
}

// openEnv loads the config and session store and builds an API client that
// authenticates with the stored token.
func openEnv(flags *globalFlags, logger *log.Logger) (*env, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	store, err := session.Open(session.DefaultPath())
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	client := api.New(cfg.APIURL, api.WithToken(store.Token), api.WithLogger(logger))
	return &env{cfg: cfg, store: store, client: client, logger: logger}, nil
}

// googleFlow returns the device flow, or nil when no Google client is set up.
func (e *env) googleFlow() *auth.DeviceFlow {
	if !e.cfg.GoogleConfigured() {
		return nil
	}
	flow, err := auth.NewDeviceFlow(auth.GoogleConfig(e.cfg.GoogleClientID, e.cfg.GoogleClientSecret), e.client)
	if err != nil {
		e.logger.Warn("google sign-in disabled", "error", err)
		return nil
	}
	return flow
}

// apiError turns an API failure into the error the user sees. An expired
// session is cleared so the next run starts at login.
func (e *env) apiError(err error) error {
	if errors.Is(err, api.ErrUnauthorized) {
		if clearErr := e.store.Clear(); clearErr != nil {
			e.logger.Warn("clear session", "error", clearErr)
		}
		return errors.New("session expired, run `grocer login`")
	}
	return errors.New(api.ErrorMessage(err))
}

// requireLogin fails unless a session is stored.
func (e *env) requireLogin() (*session.Session, error) {
	sess, err := e.store.Current()
	if errors.Is(err, session.ErrNotLoggedIn) {
		return nil, errors.New("not logged in, run `grocer login`")
	}
	return sess, err
}

func main() {
	flags := &globalFlags{}
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "grocer"})

	rootCmd := &cobra.Command{
		Use:           "grocer",
		Short:         "Grocery planner",
		Long:          "A terminal UI for planning dishes and the ingredients they need.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(flags)
		},
	}
	rootCmd.SetVersionTemplate(`{{.Version}}
`)

	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Config file (default: ~/.config/grocer/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flags.apiURL, "api-url", "", "Grocery API base URL")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newLoginCmd(flags, logger),
		newSignupCmd(flags, logger),
		newLogoutCmd(flags, logger),
		newWhoamiCmd(flags, logger),
		newChangePasswordCmd(flags, logger),
		newIngredientsCmd(flags, logger),
		newDishesCmd(flags, logger),
		newServeCmd(flags, logger),
		newConfigCmd(flags),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func runTUI(flags *globalFlags) error {
	logger := ui.GetLogger()
	defer ui.CloseLogger()

	e, err := openEnv(flags, logger)
	if err != nil {
		return err
	}
	defer e.Close()
	ui.SetLogLevel(e.cfg.LogLevel)
	logger.Info("starting", "version", version, "api", e.client.BaseURL())

	model := ui.NewAppModel(ui.Options{
		Client: e.client,
		Store:  e.store,
		Config: e.cfg,
		Google: e.googleFlow(),
		Logger: logger,
		Watch:  true,
	})
	defer model.Close()

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run TUI: %w", err)
	}
	return nil
}

func newServeCmd(flags *globalFlags, logger *log.Logger) *cobra.Command {
	var addr, httpAddr, hostKey, authorizedKeys string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the TUI over SSH",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
				logger.SetLevel(lvl)
			}

			srv, err := server.New(server.Config{
				Addr:               addr,
				HostKeyPath:        hostKey,
				AuthorizedKeysPath: authorizedKeys,
				App:                cfg,
				Logger:             logger.WithPrefix("ssh"),
			})
			if err != nil {
				return err
			}

			var httpSrv *server.HTTPServer
			if httpAddr != "" {
				httpSrv = server.NewHTTPServer(httpAddr, srv)
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			errCh := make(chan error, 2)
			go func() {
				errCh <- srv.Start()
			}()
			if httpSrv != nil {
				go func() {
					errCh <- httpSrv.Start()
				}()
			}

			fmt.Printf("\n  SSH:   ssh -p %s localhost\n", portOf(addr))
			if httpSrv != nil {
				fmt.Printf("  HTTP:  http://localhost%s/health\n", httpAddr)
			}
			fmt.Println()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server: %w", err)
				}
			case sig := <-sigCh:
				logger.Info("Received signal, shutting down", "signal", sig)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("ssh shutdown", "error", err)
			}
			if httpSrv != nil {
				if err := httpSrv.Shutdown(ctx); err != nil {
					logger.Warn("http shutdown", "error", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":2222", "SSH listen address")
	cmd.Flags().StringVar(&httpAddr, "http", "", "Health endpoint address (disabled when empty)")
	cmd.Flags().StringVar(&hostKey, "host-key", server.DefaultHostKeyPath(), "SSH host key path")
	cmd.Flags().StringVar(&authorizedKeys, "authorized-keys", "", "Only accept keys listed in this authorized_keys file")
	return cmd
}

// portOf returns the port part of a listen address.
func portOf(addr string) string {
	if _, port, err := net.SplitHostPort(addr); err == nil {
		return port
	}
	return addr
}

func newConfigCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the config file",
	}

	pathOf := func() string {
		if flags.configPath != "" {
			return flags.configPath
		}
		return config.DefaultPath()
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Println(pathOf())
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig(flags)
				if err != nil {
					return err
				}
				out, err := cfg.YAML()
				if err != nil {
					return err
				}
				fmt.Println(dimStyle.Render("# " + pathOf()))
				fmt.Print(out)
				return nil
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write a starter config file",
			RunE: func(cmd *cobra.Command, args []string) error {
				path := pathOf()
				if err := config.WriteDefault(path); err != nil {
					return err
				}
				fmt.Println(successStyle.Render("Wrote " + path))
				return nil
			},
		},
	)
	return cmd
}
