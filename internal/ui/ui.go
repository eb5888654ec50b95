// Package ui renders firewatch terminal output: status lines, record
// tables, and report sections.
//
// Styling degrades in steps. A forced theme always applies; the auto
// theme picks dark or light from the terminal background and falls all
// the way back to plain text when stdout is not a terminal or the
// terminal cannot do color.
package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Theme names accepted in configuration.
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
	ThemePlain = "plain"
)

// Styles is the resolved style set for one output stream.
type Styles struct {
	Title   lipgloss.Style
	Header  lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Muted   lipgloss.Style
	Accent  lipgloss.Style

	plain bool
}

// NewStyles resolves a theme name into a style set.
func NewStyles(theme string) *Styles {
	switch theme {
	case ThemeDark:
		return darkStyles()
	case ThemeLight:
		return lightStyles()
	case ThemePlain:
		return plainStyles()
	}

	if !IsTerminal(os.Stdout) || termenv.ColorProfile() == termenv.Ascii {
		return plainStyles()
	}
	if termenv.HasDarkBackground() {
		return darkStyles()
	}
	return lightStyles()
}

func darkStyles() *Styles {
	return &Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81")),
		Header:  lipgloss.NewStyle().Bold(true),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Muted:   lipgloss.NewStyle().Faint(true),
		Accent:  lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
	}
}

func lightStyles() *Styles {
	return &Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("25")),
		Header:  lipgloss.NewStyle().Bold(true),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("28")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("124")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("130")),
		Muted:   lipgloss.NewStyle().Faint(true),
		Accent:  lipgloss.NewStyle().Foreground(lipgloss.Color("26")),
	}
}

func plainStyles() *Styles {
	return &Styles{
		Title:   lipgloss.NewStyle(),
		Header:  lipgloss.NewStyle(),
		Success: lipgloss.NewStyle(),
		Error:   lipgloss.NewStyle(),
		Warning: lipgloss.NewStyle(),
		Muted:   lipgloss.NewStyle(),
		Accent:  lipgloss.NewStyle(),
		plain:   true,
	}
}

// Plain reports whether all styling is disabled.
func (s *Styles) Plain() bool {
	return s.plain
}

// StatusLine renders a sync status for the terminal. The state values
// match the store states.
func (s *Styles) StatusLine(state, message string) string {
	switch state {
	case "syncing":
		return s.Warning.Render("… " + orDefault(message, "Syncing"))
	case "success":
		return s.Success.Render("✓ " + orDefault(message, "Synced"))
	case "error":
		return s.Error.Render("✗ " + orDefault(message, "Sync failed"))
	default:
		return s.Muted.Render("· " + orDefault(message, "Idle"))
	}
}

// Section renders a titled block for reports and status output.
func (s *Styles) Section(title, body string) string {
	var b strings.Builder
	b.WriteString(s.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		b.WriteString("\n")
	}
	return b.String()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Width returns the terminal width of f, or fallback when f is not a
// terminal.
func Width(f *os.File, fallback int) int {
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}
