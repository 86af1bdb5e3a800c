// Package config provides grocer's configuration: a YAML file under
// ~/.config/grocer, overridden by GROCER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultAPIURL    = "http://localhost:3000"
	DefaultPageSize  = 10
	DefaultDebounce  = 750 * time.Millisecond
	DefaultBlurDelay = 250 * time.Millisecond
	DefaultTheme     = "default"
	DefaultLogLevel  = "info"
)

// Config holds application configuration.
type Config struct {
	APIURL             string             `yaml:"api_url"`
	PageSize           int                `yaml:"page_size"`
	Debounce           time.Duration      `yaml:"debounce"`
	BlurDelay          time.Duration      `yaml:"blur_delay"`
	Theme              string             `yaml:"theme"`
	LogLevel           string             `yaml:"log_level"`
	GoogleClientID     string             `yaml:"google_client_id,omitempty"`
	GoogleClientSecret string             `yaml:"google_client_secret,omitempty"`
	Keybindings        *KeybindingsConfig `yaml:"keybindings,omitempty"`

	path string
}

// env holds the environment overrides. Unset variables leave the file value
// alone, so nothing here has a default.
type env struct {
	APIURL             string        `env:"GROCER_API_URL"`
	PageSize           int           `env:"GROCER_PAGE_SIZE"`
	Debounce           time.Duration `env:"GROCER_DEBOUNCE"`
	Theme              string        `env:"GROCER_THEME"`
	LogLevel           string        `env:"GROCER_LOG_LEVEL"`
	GoogleClientID     string        `env:"GROCER_GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `env:"GROCER_GOOGLE_CLIENT_SECRET"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		APIURL:    DefaultAPIURL,
		PageSize:  DefaultPageSize,
		Debounce:  DefaultDebounce,
		BlurDelay: DefaultBlurDelay,
		Theme:     DefaultTheme,
		LogLevel:  DefaultLogLevel,
	}
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	if p := os.Getenv("GROCER_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "grocer", "config.yaml")
}

// Load reads the default config file and applies the environment.
func Load() (*Config, error) {
	return LoadFromPath(DefaultPath())
}

// LoadFromPath reads the config file at path and applies the environment.
// A missing file is not an error; defaults are used.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	cfg.path = path

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var e env
	if err := envdecode.Decode(&e); err != nil {
		if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
			return nil
		}
		return fmt.Errorf("environment: %w", err)
	}
	if e.APIURL != "" {
		c.APIURL = e.APIURL
	}
	if e.PageSize > 0 {
		c.PageSize = e.PageSize
	}
	if e.Debounce > 0 {
		c.Debounce = e.Debounce
	}
	if e.Theme != "" {
		c.Theme = e.Theme
	}
	if e.LogLevel != "" {
		c.LogLevel = e.LogLevel
	}
	if e.GoogleClientID != "" {
		c.GoogleClientID = e.GoogleClientID
	}
	if e.GoogleClientSecret != "" {
		c.GoogleClientSecret = e.GoogleClientSecret
	}
	return nil
}

func (c *Config) normalize() {
	d := Default()
	if c.APIURL == "" {
		c.APIURL = d.APIURL
	}
	if c.PageSize <= 0 {
		c.PageSize = d.PageSize
	}
	if c.Debounce <= 0 {
		c.Debounce = d.Debounce
	}
	if c.BlurDelay <= 0 {
		c.BlurDelay = d.BlurDelay
	}
	if c.Theme == "" {
		c.Theme = d.Theme
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

// Path returns the file the config was loaded from.
func (c *Config) Path() string {
	return c.path
}

// GoogleConfigured reports whether Google sign-in can be offered.
func (c *Config) GoogleConfigured() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// YAML renders the effective configuration. Secrets are masked.
func (c *Config) YAML() (string, error) {
	shown := *c
	if shown.GoogleClientSecret != "" {
		shown.GoogleClientSecret = "********"
	}
	out, err := yaml.Marshal(&shown)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(out), nil
}

// WriteDefault writes a commented starter file to path unless one exists.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, []byte(GenerateDefaultYAML()), 0600)
}
