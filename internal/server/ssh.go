// Package server serves the grocer TUI over SSH using Wish.
package server

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	gossh "golang.org/x/crypto/ssh"

	"github.com/bborn/grocer/internal/api"
	"github.com/bborn/grocer/internal/auth"
	"github.com/bborn/grocer/internal/config"
	"github.com/bborn/grocer/internal/session"
	"github.com/bborn/grocer/internal/ui"
)

// Server is the SSH server.
type Server struct {
	cfg        Config
	srv        *ssh.Server
	logger     *log.Logger
	authorized map[string]bool // by fingerprint; nil accepts any key
	active     atomic.Int64
}

// Config holds server configuration.
type Config struct {
	Addr               string // e.g. ":2222"
	HostKeyPath        string // e.g. "~/.ssh/grocer_ed25519"
	AuthorizedKeysPath string // optional allow-list
	SessionDir         string // one session database per client key
	App                *config.Config
	Logger             *log.Logger
}

// DefaultHostKeyPath returns ~/.ssh/grocer_ed25519.
func DefaultHostKeyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".ssh", "grocer_ed25519")
	}
	return filepath.Join(home, ".ssh", "grocer_ed25519")
}

// New creates a new SSH server.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		cfg.App = config.Default()
	}
	if cfg.SessionDir == "" {
		cfg.SessionDir = filepath.Join(filepath.Dir(session.DefaultPath()), "ssh")
	}
	s := &Server{
		cfg:    cfg,
		logger: cfg.Logger,
	}
	if s.logger == nil {
		s.logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "ssh"})
	}

	if cfg.AuthorizedKeysPath != "" {
		keys, err := LoadAuthorizedKeys(cfg.AuthorizedKeysPath)
		if err != nil {
			return nil, err
		}
		s.authorized = keys
		s.logger.Info("restricting clients to authorized keys", "path", cfg.AuthorizedKeysPath, "keys", len(keys))
	}

	if err := os.MkdirAll(filepath.Dir(cfg.HostKeyPath), 0700); err != nil {
		return nil, fmt.Errorf("create host key dir: %w", err)
	}

	srv, err := wish.NewServer(
		wish.WithAddress(cfg.Addr),
		wish.WithHostKeyPath(cfg.HostKeyPath),
		wish.WithMiddleware(
			bubbletea.Middleware(s.teaHandler),
			activeterm.Middleware(),
			s.countMiddleware,
			logging.Middleware(),
		),
		wish.WithPublicKeyAuth(s.allowKey),
		wish.WithPasswordAuth(func(ctx ssh.Context, password string) bool {
			return false
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create server: %w", err)
	}

	s.srv = srv
	return s, nil
}

// LoadAuthorizedKeys reads an authorized_keys file and returns the
// fingerprints it lists.
func LoadAuthorizedKeys(path string) (map[string]bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read authorized keys: %w", err)
	}
	return ParseAuthorizedKeys(data)
}

// ParseAuthorizedKeys parses authorized_keys content. Blank lines and
// comments are skipped.
func ParseAuthorizedKeys(data []byte) (map[string]bool, error) {
	keys := map[string]bool{}
	for i, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		key, _, _, _, err := gossh.ParseAuthorizedKey(line)
		if err != nil {
			return nil, fmt.Errorf("parse authorized keys line %d: %w", i+1, err)
		}
		keys[gossh.FingerprintSHA256(key)] = true
	}
	return keys, nil
}

func (s *Server) allowKey(ctx ssh.Context, key ssh.PublicKey) bool {
	fp := gossh.FingerprintSHA256(key)
	if s.authorized != nil && !s.authorized[fp] {
		s.logger.Warn("rejected key", "user", ctx.User(), "fingerprint", fp)
		return false
	}
	s.logger.Debug("accepted key", "user", ctx.User(), "fingerprint", fp)
	return true
}

func (s *Server) countMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		s.active.Add(1)
		defer s.active.Add(-1)
		next(sess)
	}
}

// ActiveSessions returns the number of connected clients.
func (s *Server) ActiveSessions() int64 {
	return s.active.Load()
}

// Start starts the SSH server.
func (s *Server) Start() error {
	s.logger.Info("SSH server starting", "addr", s.cfg.Addr)
	return s.srv.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("SSH server shutting down")
	return s.srv.Shutdown(ctx)
}

// sessionPath returns the session database for a client key.
func (s *Server) sessionPath(fingerprint string) string {
	name := strings.NewReplacer(":", "-", "/", "_", "+", "-").Replace(fingerprint)
	return filepath.Join(s.cfg.SessionDir, name+".db")
}

// teaHandler returns the Bubble Tea program for each SSH session. Each
// client key gets its own login, kept across connections.
func (s *Server) teaHandler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	fp := "anonymous"
	if key := sess.PublicKey(); key != nil {
		fp = gossh.FingerprintSHA256(key)
	}
	logger := s.logger.With("user", sess.User(), "fingerprint", fp)

	store, err := session.Open(s.sessionPath(fp))
	if err != nil {
		logger.Error("open session store", "error", err)
		wish.Fatalln(sess, "grocer: could not open your session")
		return nil, nil
	}
	go func() {
		<-sess.Context().Done()
		store.Close()
	}()

	client := api.New(s.cfg.App.APIURL, api.WithToken(store.Token), api.WithLogger(logger))

	var google *auth.DeviceFlow
	if s.cfg.App.GoogleConfigured() {
		flow, err := auth.NewDeviceFlow(auth.GoogleConfig(s.cfg.App.GoogleClientID, s.cfg.App.GoogleClientSecret), client)
		if err != nil {
			logger.Warn("google sign-in disabled", "error", err)
		} else {
			google = flow
		}
	}

	logger.Info("session started")
	model := ui.NewAppModel(ui.Options{
		Client: client,
		Store:  store,
		Config: s.cfg.App,
		Google: google,
		Logger: logger,
	})

	return model, []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	}
}
