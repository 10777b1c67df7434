// Package ui implements the terminal interface: a sidebar listing past
// sessions and a chat panel where prompts are typed and generated images are
// acted on.
package ui

import (
	"charm.land/lipgloss/v2"

	"github.com/comigor/atelier-go/internal/config"
)

// Theme is a color palette for the whole interface. Two are built in, and
// the active one is persisted through the config so it survives restarts.
type Theme struct {
	Name string

	Primary   string
	Bg        string
	Text      string
	TextMuted string
	Border    string

	User    string
	Bot     string
	Error   string
	Success string
	Warning string
}

var builtinThemes = map[string]Theme{
	config.ThemeDark: {
		Name:      "Dark",
		Primary:   "#7C3AED",
		Bg:        "#1F2937",
		Text:      "#F9FAFB",
		TextMuted: "#9CA3AF",
		Border:    "#374151",
		User:      "#A78BFA",
		Bot:       "#22D3EE",
		Error:     "#EF4444",
		Success:   "#10B981",
		Warning:   "#F59E0B",
	},
	config.ThemeLight: {
		Name:      "Light",
		Primary:   "#6D28D9",
		Bg:        "#F9FAFB",
		Text:      "#111827",
		TextMuted: "#6B7280",
		Border:    "#D1D5DB",
		User:      "#5B21B6",
		Bot:       "#0E7490",
		Error:     "#B91C1C",
		Success:   "#047857",
		Warning:   "#B45309",
	},
}

// ThemeFor resolves a config theme name, falling back to dark for anything
// unknown.
func ThemeFor(name string) Theme {
	if t, ok := builtinThemes[name]; ok {
		return t
	}
	return builtinThemes[config.ThemeDark]
}

// nextTheme cycles dark -> light -> dark.
func nextTheme(name string) string {
	if name == config.ThemeDark {
		return config.ThemeLight
	}
	return config.ThemeDark
}

// Styles holds every lipgloss style the interface renders with, derived from
// one theme.
type Styles struct {
	Panel        lipgloss.Style
	PanelFocused lipgloss.Style

	Title     lipgloss.Style
	Footer    lipgloss.Style
	FooterKey lipgloss.Style

	SidebarItem     lipgloss.Style
	SidebarSelected lipgloss.Style

	UserLabel lipgloss.Style
	BotLabel  lipgloss.Style
	Muted     lipgloss.Style
	ErrorText lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style

	ImageCard         lipgloss.Style
	ImageCardSelected lipgloss.Style
}

// NewStyles builds the style set for a theme.
func NewStyles(t Theme) Styles {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(t.Border))

	return Styles{
		Panel: border,
		PanelFocused: border.
			BorderForeground(lipgloss.Color(t.Primary)),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.Text)).
			Background(lipgloss.Color(t.Primary)).
			Padding(0, 1),
		Footer: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.TextMuted)).
			Padding(0, 1),
		FooterKey: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.Primary)),

		SidebarItem: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Text)).
			Padding(0, 1),
		SidebarSelected: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.Text)).
			Background(lipgloss.Color(t.Primary)).
			Padding(0, 1),

		UserLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.User)),
		BotLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.Bot)),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.TextMuted)),
		ErrorText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Error)),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Success)),
		Warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)),

		ImageCard: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color(t.Border)).
			Padding(0, 1),
		ImageCardSelected: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color(t.Primary)).
			Padding(0, 1),
	}
}
