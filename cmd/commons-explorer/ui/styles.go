// Package ui holds the color themes and lipgloss styles shared by the
// Commons Explorer terminal interface.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Status colors, shared by both themes.
var (
	colorWarn  = lipgloss.Color("#edab00")
	colorError = lipgloss.Color("#d73333")
)

// Theme is one named palette. The slots map onto the style groups built
// in NewStyles.
type Theme struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Secondary  lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Card       lipgloss.Color
	IsDark     bool
}

// LightTheme is a Wikimedia-flavored palette for light terminals.
func LightTheme() Theme {
	return Theme{
		Background: lipgloss.Color("#f8f9fa"),
		Foreground: lipgloss.Color("#202122"),
		Primary:    lipgloss.Color("#2a4b8d"), // deep blue
		Accent:     lipgloss.Color("#36c"),    // link blue
		Secondary:  lipgloss.Color("#eaecf0"),
		Muted:      lipgloss.Color("#72777d"),
		Border:     lipgloss.Color("#c8ccd1"),
		Card:       lipgloss.Color("#ffffff"),
	}
}

// DarkTheme is the default palette.
func DarkTheme() Theme {
	return Theme{
		Background: lipgloss.Color("#101418"),
		Foreground: lipgloss.Color("#eaecf0"),
		Primary:    lipgloss.Color("#88a3e2"), // blue, lifted for contrast
		Accent:     lipgloss.Color("#6b9ae8"),
		Secondary:  lipgloss.Color("#1c2733"),
		Muted:      lipgloss.Color("#72777d"),
		Border:     lipgloss.Color("#2c3845"),
		Card:       lipgloss.Color("#18222e"),
		IsDark:     true,
	}
}

// ThemeByName maps a config theme name to a Theme, defaulting to dark.
func ThemeByName(name string) Theme {
	if name == "light" {
		return LightTheme()
	}
	return DarkTheme()
}

// Styles bundles every lipgloss style the views use, derived from one
// Theme so the whole screen switches palette together.
type Styles struct {
	Theme Theme

	// Chrome
	Header    lipgloss.Style
	StatusBar lipgloss.Style

	// Search bar
	SearchBox lipgloss.Style

	// Result list
	ResultCursor lipgloss.Style
	ResultTitle  lipgloss.Style
	ResultMeta   lipgloss.Style
	EndOfResults lipgloss.Style
	NoResults    lipgloss.Style

	// Viewer overlay
	ViewerFrame lipgloss.Style
	ViewerTitle lipgloss.Style
	ViewerMeta  lipgloss.Style
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style
	Placeholder lipgloss.Style

	// Status text
	Error   lipgloss.Style
	Warning lipgloss.Style

	// Odds and ends
	Spinner lipgloss.Style
	Divider lipgloss.Style
}

// NewStyles builds the full style set for one theme.
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Header: lipgloss.NewStyle().
			Bold(true).
			Background(theme.Primary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2),

		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 1),

		SearchBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		ResultCursor: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Background).
			Background(theme.Accent).
			Padding(0, 1),

		ResultTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary),

		ResultMeta: lipgloss.NewStyle().
			Foreground(theme.Muted),

		EndOfResults: lipgloss.NewStyle().
			Italic(true).
			Foreground(theme.Muted).
			Padding(0, 1),

		NoResults: lipgloss.NewStyle().
			Italic(true).
			Foreground(theme.Muted).
			Padding(1, 2),

		ViewerFrame: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Accent).
			Padding(1, 2),

		ViewerTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary),

		ViewerMeta: lipgloss.NewStyle().
			Foreground(theme.Muted),

		TabActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(theme.Accent).
			Padding(0, 2),

		TabInactive: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Background(theme.Secondary).
			Padding(0, 2),

		Placeholder: lipgloss.NewStyle().
			Italic(true).
			Foreground(theme.Muted),

		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorError),

		Warning: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWarn),

		Spinner: lipgloss.NewStyle().
			Foreground(theme.Accent),

		Divider: lipgloss.NewStyle().
			Foreground(theme.Border),
	}
}

// DefaultStyles returns the dark-theme style set.
func DefaultStyles() Styles {
	return NewStyles(DarkTheme())
}

// RenderDivider draws a horizontal rule of the given width.
func (s Styles) RenderDivider(width int) string {
	if width <= 0 {
		return ""
	}
	return s.Divider.Render(strings.Repeat("─", width))
}
