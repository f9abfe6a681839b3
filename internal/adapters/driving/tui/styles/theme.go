// Package styles provides colour themes and styling for the chat TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/partsearch/internal/core/domain"
)

// Theme defines the colour palette of the chat TUI.
type Theme struct {
	// Accent highlights titles and the user's turns.
	Accent lipgloss.Color

	// Info colours engine answers and subtitles.
	Info lipgloss.Color

	// Text is the default text colour.
	Text lipgloss.Color

	// Dim is for secondary text such as explanations.
	Dim lipgloss.Color

	// InStock, LowStock and OutOfStock colour availability.
	InStock    lipgloss.Color
	LowStock   lipgloss.Color
	OutOfStock lipgloss.Color

	// Border is the border colour.
	Border lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Accent:     lipgloss.Color("#F97316"), // Orange
		Info:       lipgloss.Color("#38BDF8"), // Sky
		Text:       lipgloss.Color("#E5E7EB"), // Light gray
		Dim:        lipgloss.Color("#6B7280"), // Medium gray
		InStock:    lipgloss.Color("#4ADE80"), // Green
		LowStock:   lipgloss.Color("#FACC15"), // Yellow
		OutOfStock: lipgloss.Color("#F87171"), // Red
		Border:     lipgloss.Color("#374151"), // Border gray
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	theme *Theme

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Error    lipgloss.Style

	// User and Engine prefix the two sides of the transcript.
	User   lipgloss.Style
	Engine lipgloss.Style

	// Cost renders prices, Savings renders price differences.
	Cost    lipgloss.Style
	Savings lipgloss.Style

	InputField lipgloss.Style
	StatusBar  lipgloss.Style
	Help       lipgloss.Style
	Border     lipgloss.Style

	inStock    lipgloss.Style
	lowStock   lipgloss.Style
	outOfStock lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme: theme,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Accent),

		Subtitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Info),

		Normal: lipgloss.NewStyle().
			Foreground(theme.Text),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Dim),

		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Text).
			Background(theme.Border),

		Error: lipgloss.NewStyle().
			Foreground(theme.OutOfStock),

		User: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Accent),

		Engine: lipgloss.NewStyle().
			Foreground(theme.Info),

		Cost: lipgloss.NewStyle().
			Foreground(theme.Text).
			Bold(true),

		Savings: lipgloss.NewStyle().
			Foreground(theme.InStock),

		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Dim).
			Background(lipgloss.Color("#111827")).
			Padding(0, 1),

		Help: lipgloss.NewStyle().
			Foreground(theme.Dim),

		Border: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border),

		inStock:    lipgloss.NewStyle().Foreground(theme.InStock),
		lowStock:   lipgloss.NewStyle().Foreground(theme.LowStock),
		outOfStock: lipgloss.NewStyle().Foreground(theme.OutOfStock),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// Availability returns the style for a stock bucket.
func (s *Styles) Availability(level domain.AvailabilityLevel) lipgloss.Style {
	switch level {
	case domain.AvailabilityHigh, domain.AvailabilityMedium:
		return s.inStock
	case domain.AvailabilityLow:
		return s.lowStock
	default:
		return s.outOfStock
	}
}
