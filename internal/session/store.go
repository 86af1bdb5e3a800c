// Package session keeps the signed-in user and API token on disk so that the
// TUI, the CLI and later runs share one login.
package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bborn/grocer/internal/planner"
	_ "modernc.org/sqlite"
)

// ErrNotLoggedIn is returned by operations that need a stored session.
var ErrNotLoggedIn = errors.New("not logged in")

// Session is the stored login.
type Session struct {
	User    planner.User
	JWT     string
	SavedAt time.Time
}

// Store is the SQLite-backed session store.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the store at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// CLI and TUI may hold the database at the same time.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS session (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			jwt TEXT NOT NULL,
			user TEXT NOT NULL,
			saved_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// DefaultPath returns the default database path.
func DefaultPath() string {
	if p := os.Getenv("GROCER_DB_PATH"); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "grocer", "grocer.db")
}

// Path returns the database file.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores a login, replacing any previous one.
func (s *Store) Save(user planner.User, jwt string) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO session (id, jwt, user, saved_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET jwt = excluded.jwt, user = excluded.user, saved_at = excluded.saved_at
	`, jwt, string(raw), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load returns the stored login, or nil when signed out.
func (s *Store) Load() (*Session, error) {
	var (
		jwt, rawUser string
		savedAt      time.Time
	)
	err := s.db.QueryRow("SELECT jwt, user, saved_at FROM session WHERE id = 1").Scan(&jwt, &rawUser, &savedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	sess := &Session{JWT: jwt, SavedAt: savedAt}
	if err := json.Unmarshal([]byte(rawUser), &sess.User); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return sess, nil
}

// Clear removes the stored login.
func (s *Store) Clear() error {
	if _, err := s.db.Exec("DELETE FROM session"); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Current returns the stored login or ErrNotLoggedIn.
func (s *Store) Current() (*Session, error) {
	sess, err := s.Load()
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.JWT == "" || sess.User.ID == "" {
		return nil, ErrNotLoggedIn
	}
	return sess, nil
}

// IsLoggedIn reports whether both a user and a token are stored.
func (s *Store) IsLoggedIn() bool {
	_, err := s.Current()
	return err == nil
}

// Token returns the stored token, or "" when signed out. It has the shape of
// an API token source.
func (s *Store) Token() string {
	sess, err := s.Load()
	if err != nil || sess == nil {
		return ""
	}
	return sess.JWT
}

// GetSetting returns a setting value, or "" if unset.
func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting: %w", err)
	}
	return value, nil
}

// SetSetting sets a setting value.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	return nil
}
