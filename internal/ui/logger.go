package ui

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
)

// The TUI owns stdout, so UI logs go to ~/.local/share/grocer/grocer.log.
var (
	uiLogger   *log.Logger
	logFile    *os.File
	loggerOnce sync.Once
)

// GetLogger returns the singleton UI logger instance.
// Call CloseLogger() when the application exits.
func GetLogger() *log.Logger {
	loggerOnce.Do(func() {
		var w io.Writer = io.Discard
		path := LogPath()
		if err := os.MkdirAll(filepath.Dir(path), 0755); err == nil {
			if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
				logFile = f
				w = f
			}
		}
		uiLogger = log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "2006-01-02 15:04:05.000",
			Prefix:          "ui",
		})
	})
	return uiLogger
}

// SetLogLevel parses a level name ("debug", "info", ...) and applies it.
func SetLogLevel(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		GetLogger().Warn("unknown log level", "level", level)
		return
	}
	GetLogger().SetLevel(lvl)
}

// LogPath returns the path to the log file.
func LogPath() string {
	if p := os.Getenv("GROCER_LOG_PATH"); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "grocer", "grocer.log")
}

// CloseLogger closes the log file.
func CloseLogger() {
	if logFile != nil {
		logFile.Close()
	}
}
