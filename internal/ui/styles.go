// Package ui provides the terminal user interface.
package ui

import (
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// unicodeSupported caches whether the terminal supports Unicode.
// Initialized once on first call to SupportsUnicode().
var (
	unicodeSupported     bool
	unicodeSupportedOnce sync.Once
)

// SupportsUnicode returns true if the terminal likely supports Unicode characters.
// It checks LANG, LC_ALL, and LC_CTYPE environment variables for UTF-8 indicators.
func SupportsUnicode() bool {
	unicodeSupportedOnce.Do(func() {
		for _, envVar := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
			val := strings.ToLower(os.Getenv(envVar))
			if strings.Contains(val, "utf-8") || strings.Contains(val, "utf8") {
				unicodeSupported = true
				return
			}
		}
		unicodeSupported = false
	})
	return unicodeSupported
}

// Icon constants - Unicode and ASCII versions
const (
	IconCheckUnicode   = "✓"
	IconCrossUnicode   = "✗"
	IconInfoUnicode    = "ℹ"
	IconWarningUnicode = "⚠"
	IconCursorUnicode  = "▸"
	IconLockUnicode    = "🔒"

	IconCheckASCII   = "*"
	IconCrossASCII   = "x"
	IconInfoASCII    = "i"
	IconWarningASCII = "!"
	IconCursorASCII  = ">"
	IconLockASCII    = "P"
)

// Icon returns the appropriate icon based on terminal Unicode support.
func Icon(unicodeIcon, asciiIcon string) string {
	if SupportsUnicode() {
		return unicodeIcon
	}
	return asciiIcon
}

// IconCheck returns the success/yes icon.
func IconCheck() string { return Icon(IconCheckUnicode, IconCheckASCII) }

// IconCross returns the failure/no icon.
func IconCross() string { return Icon(IconCrossUnicode, IconCrossASCII) }

// IconInfo returns the info icon.
func IconInfo() string { return Icon(IconInfoUnicode, IconInfoASCII) }

// IconWarning returns the warning icon.
func IconWarning() string { return Icon(IconWarningUnicode, IconWarningASCII) }

// IconCursor returns the focused-field marker.
func IconCursor() string { return Icon(IconCursorUnicode, IconCursorASCII) }

// IconLock marks private dishes.
func IconLock() string { return Icon(IconLockUnicode, IconLockASCII) }

// Colors - these are updated by refreshStyles() when theme changes
var (
	ColorPrimary   = lipgloss.Color("#61AFEF")
	ColorSecondary = lipgloss.Color("#56B6C2")
	ColorSuccess   = lipgloss.Color("#98C379")
	ColorWarning   = lipgloss.Color("#E5C07B")
	ColorError     = lipgloss.Color("#E06C75")
	ColorMuted     = lipgloss.Color("#5C6370")
	ColorSurface   = lipgloss.Color("#3E4451")
	ColorText      = lipgloss.Color("#ABB2BF")
)

// Base styles - these are updated by refreshStyles() when theme changes
var (
	Bold     = lipgloss.NewStyle().Bold(true)
	Dim      = lipgloss.NewStyle().Foreground(ColorMuted)
	Title    = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	Subtitle = lipgloss.NewStyle().Foreground(ColorSecondary)
	Success  = lipgloss.NewStyle().Foreground(ColorSuccess)
	Warning  = lipgloss.NewStyle().Foreground(ColorWarning)
	Error    = lipgloss.NewStyle().Foreground(ColorError)

	Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorMuted).
		Padding(0, 1)

	FocusedBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 1)

	HelpBar = lipgloss.NewStyle().
		Foreground(ColorMuted).
		Padding(1, 0)

	Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary).
		Padding(0, 1)

	// Navigation tabs
	Tab = lipgloss.NewStyle().
		Foreground(ColorMuted).
		Padding(0, 1)

	ActiveTab = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(ColorPrimary).
			Bold(true).
			Padding(0, 1)

	FieldError = lipgloss.NewStyle().
			Foreground(ColorError).
			Italic(true)
)

// ToastStyle returns the style for a toast of the given type.
func ToastStyle(t ToastType) lipgloss.Style {
	color := ColorSecondary
	switch t {
	case ToastSuccess:
		color = ColorSuccess
	case ToastError:
		color = ColorError
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Foreground(color).
		Padding(0, 1)
}

// ToastIcon returns the icon for a toast type.
func ToastIcon(t ToastType) string {
	switch t {
	case ToastSuccess:
		return IconCheck()
	case ToastError:
		return IconCross()
	default:
		return IconInfo()
	}
}

// YesNo renders a boolean as a colored icon, used for the "available?" columns.
func YesNo(v bool) string {
	if v {
		return IconCheck()
	}
	return IconCross()
}
