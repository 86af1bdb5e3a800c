package ui

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Theme defines all colors used in the UI.
type Theme struct {
	Name string `yaml:"name"`

	// Core colors
	Primary   string `yaml:"primary"`   // Selections, active tab, focused borders
	Secondary string `yaml:"secondary"` // Descriptions, info toasts
	Muted     string `yaml:"muted"`     // Dimmed text, borders

	// Semantic colors
	Success string `yaml:"success"`
	Warning string `yaml:"warning"`
	Error   string `yaml:"error"` // Field errors, delete confirmations

	Surface string `yaml:"surface"` // Highlighted table row background
	Text    string `yaml:"text"`
}

// BuiltinThemes contains all built-in themes.
var BuiltinThemes = map[string]Theme{
	"onedark":    OneDarkTheme,
	"default":    DefaultTheme,
	"nord":       NordTheme,
	"gruvbox":    GruvboxTheme,
	"catppuccin": CatppuccinTheme,
}

// OneDarkTheme is inspired by Atom's One Dark theme.
var OneDarkTheme = Theme{
	Name:      "onedark",
	Primary:   "#61AFEF", // Soft blue
	Secondary: "#56B6C2", // Cyan
	Muted:     "#5C6370", // Comment gray
	Success:   "#98C379",
	Warning:   "#E5C07B",
	Error:     "#E06C75",
	Surface:   "#3E4451",
	Text:      "#ABB2BF",
}

// DefaultTheme is the purple-heavy house theme.
var DefaultTheme = Theme{
	Name:      "default",
	Primary:   "#7C3AED", // Purple
	Secondary: "#06B6D4", // Cyan
	Muted:     "#6B7280", // Gray
	Success:   "#10B981",
	Warning:   "#F59E0B",
	Error:     "#EF4444",
	Surface:   "#333333",
	Text:      "#FFFFFF",
}

// NordTheme is inspired by the Nord color palette.
var NordTheme = Theme{
	Name:      "nord",
	Primary:   "#88C0D0", // Nord8
	Secondary: "#81A1C1", // Nord9
	Muted:     "#4C566A", // Nord3
	Success:   "#A3BE8C", // Nord14
	Warning:   "#EBCB8B", // Nord13
	Error:     "#BF616A", // Nord11
	Surface:   "#3B4252", // Nord1
	Text:      "#ECEFF4", // Nord6
}

// GruvboxTheme is inspired by the Gruvbox color scheme.
var GruvboxTheme = Theme{
	Name:      "gruvbox",
	Primary:   "#83A598", // Aqua
	Secondary: "#B8BB26", // Green
	Muted:     "#665C54",
	Success:   "#B8BB26",
	Warning:   "#FABD2F",
	Error:     "#FB4934",
	Surface:   "#3C3836",
	Text:      "#EBDBB2",
}

// CatppuccinTheme is inspired by Catppuccin Mocha.
var CatppuccinTheme = Theme{
	Name:      "catppuccin",
	Primary:   "#CBA6F7", // Mauve
	Secondary: "#89DCEB", // Sky
	Muted:     "#6C7086", // Overlay0
	Success:   "#A6E3A1",
	Warning:   "#F9E2AF",
	Error:     "#F38BA8",
	Surface:   "#313244", // Surface0
	Text:      "#CDD6F4",
}

// currentTheme is the active theme (defaults to OneDark).
var currentTheme = OneDarkTheme

// CurrentTheme returns the current theme.
func CurrentTheme() Theme {
	return currentTheme
}

// SetTheme sets the current theme by name.
func SetTheme(name string) error {
	theme, ok := BuiltinThemes[name]
	if !ok {
		return fmt.Errorf("unknown theme: %s", name)
	}
	currentTheme = theme
	refreshStyles()
	return nil
}

// ListThemes returns the names of all built-in themes, sorted.
func ListThemes() []string {
	names := make([]string, 0, len(BuiltinThemes))
	for name := range BuiltinThemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FormTheme returns the huh theme used by login, signup and confirm dialogs.
func FormTheme() *huh.Theme {
	switch currentTheme.Name {
	case "catppuccin":
		return huh.ThemeCatppuccin()
	case "default":
		return huh.ThemeCharm()
	case "nord", "gruvbox":
		return huh.ThemeBase16()
	default:
		return huh.ThemeDracula()
	}
}

// refreshStyles updates all lipgloss styles after a theme change.
func refreshStyles() {
	t := currentTheme

	ColorPrimary = lipgloss.Color(t.Primary)
	ColorSecondary = lipgloss.Color(t.Secondary)
	ColorSuccess = lipgloss.Color(t.Success)
	ColorWarning = lipgloss.Color(t.Warning)
	ColorError = lipgloss.Color(t.Error)
	ColorMuted = lipgloss.Color(t.Muted)
	ColorSurface = lipgloss.Color(t.Surface)
	ColorText = lipgloss.Color(t.Text)

	Dim = lipgloss.NewStyle().Foreground(ColorMuted)
	Title = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	Subtitle = lipgloss.NewStyle().Foreground(ColorSecondary)
	Success = lipgloss.NewStyle().Foreground(ColorSuccess)
	Warning = lipgloss.NewStyle().Foreground(ColorWarning)
	Error = lipgloss.NewStyle().Foreground(ColorError)

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
}
