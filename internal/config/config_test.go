package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadFromPath_NonExistent(t *testing.T) {
	cfg, err := LoadFromPath("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("Expected no error for nonexistent file, got: %v", err)
	}
	if cfg.APIURL != DefaultAPIURL || cfg.PageSize != DefaultPageSize || cfg.Debounce != DefaultDebounce {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
	if cfg.Keybindings != nil {
		t.Error("Expected no keybindings")
	}
}

func TestLoadFromPath_EmptyPath(t *testing.T) {
	cfg, err := LoadFromPath("")
	if err != nil {
		t.Fatalf("Expected no error for empty path, got: %v", err)
	}
	if cfg.BlurDelay != DefaultBlurDelay {
		t.Errorf("BlurDelay = %v, want %v", cfg.BlurDelay, DefaultBlurDelay)
	}
}

func TestLoadFromPath_Values(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
api_url: "https://grocery.example.com"
page_size: 25
debounce: 300ms
blur_delay: 1s
theme: nord
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.APIURL != "https://grocery.example.com" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.PageSize != 25 {
		t.Errorf("PageSize = %d", cfg.PageSize)
	}
	if cfg.Debounce != 300*time.Millisecond {
		t.Errorf("Debounce = %v", cfg.Debounce)
	}
	if cfg.BlurDelay != time.Second {
		t.Errorf("BlurDelay = %v", cfg.BlurDelay)
	}
	if cfg.Theme != "nord" {
		t.Errorf("Theme = %q", cfg.Theme)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %q, want default", cfg.LogLevel)
	}
	if cfg.Path() != path {
		t.Errorf("Path() = %q", cfg.Path())
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api_url: http://file\npage_size: 5\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GROCER_API_URL", "http://env")
	t.Setenv("GROCER_DEBOUNCE", "2s")
	t.Setenv("GROCER_GOOGLE_CLIENT_ID", "cid")
	t.Setenv("GROCER_GOOGLE_CLIENT_SECRET", "secret")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.APIURL != "http://env" {
		t.Errorf("APIURL = %q, want env value", cfg.APIURL)
	}
	if cfg.PageSize != 5 {
		t.Errorf("PageSize = %d, want file value", cfg.PageSize)
	}
	if cfg.Debounce != 2*time.Second {
		t.Errorf("Debounce = %v", cfg.Debounce)
	}
	if !cfg.GoogleConfigured() {
		t.Error("expected Google to be configured from env")
	}

	out, err := cfg.YAML()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "secret") {
		t.Errorf("YAML leaks the client secret:\n%s", out)
	}
}

func TestInvalidEnvironment(t *testing.T) {
	t.Setenv("GROCER_PAGE_SIZE", "lots")
	if _, err := LoadFromPath(""); err == nil {
		t.Error("expected error for non-numeric GROCER_PAGE_SIZE")
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grocer", "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}
	if err := WriteDefault(path); err == nil {
		t.Error("expected error when the file already exists")
	}
	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("starter file does not load: %v", err)
	}
	if cfg.Debounce != DefaultDebounce {
		t.Errorf("Debounce = %v", cfg.Debounce)
	}
}

func TestWatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("theme: default\n"), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reloads, err := Watch(ctx, path)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := os.WriteFile(path, []byte("theme: nord\n"), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(3 * time.Second)
	for {
		select {
		case r := <-reloads:
			if r.Err == nil && r.Config.Theme == "nord" {
				return
			}
		case <-deadline:
			t.Fatal("no reload with the new theme")
		}
	}
}
