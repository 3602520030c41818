// Package shared holds the styles, messages and small renderers used by the
// batch progress screen.
package shared

import (
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/joe/batchcopy/internal/stats"
)

const (
	// DefaultPadding is the horizontal padding inside boxes.
	DefaultPadding = 2
	// ProgressBarWidth is the width of the overall progress bar.
	ProgressBarWidth = 40
	// MaxProgressBarWidth caps the bar on wide terminals.
	MaxProgressBarWidth = 100
	// TickIntervalMs is the screen refresh interval in milliseconds.
	TickIntervalMs = 100
	// ActivityLogSize is how many activity lines are kept.
	ActivityLogSize = 8
	// ErrorLimit is how many failed files the screen lists.
	ErrorLimit = 5

	// KeyCtrlC stops the batch.
	KeyCtrlC = "ctrl+c"
	// KeyPause toggles pause.
	KeyPause = "p"
	// KeyQuit leaves the finished screen.
	KeyQuit = "q"
)

//nolint:gochecknoglobals // Set once from the environment at start-up
var colorsDisabled = os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb"

// ColorsDisabled reports whether styled output is turned off.
func ColorsDisabled() bool { return colorsDisabled }

func AccentColor() lipgloss.Color    { return lipgloss.Color(accentColorCode) }
func DimColor() lipgloss.Color       { return lipgloss.Color(dimColorCode) }
func ErrorColor() lipgloss.Color     { return lipgloss.Color(errorColorCode) }
func HighlightColor() lipgloss.Color { return lipgloss.Color(highlightColorCode) }
func PrimaryColor() lipgloss.Color   { return lipgloss.Color(primaryColorCode) }
func SuccessColor() lipgloss.Color   { return lipgloss.Color(successColorCode) }
func WarningColor() lipgloss.Color   { return lipgloss.Color(warningColorCode) }

// BoxStyle returns the style for boxes with padding
func BoxStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(AccentColor()).
		Padding(0, DefaultPadding)
}

// TitleStyle returns the style for titles
func TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor()).
		MarginBottom(1)
}

// LabelStyle returns the style for labels
func LabelStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(HighlightColor()).
		Bold(true)
}

// DimStyle returns the style for dimmed text
func DimStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(DimColor())
}

// ErrorStyle returns the style for error messages
func ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ErrorColor()).Bold(true)
}

// SuccessStyle returns the style for success messages
func SuccessStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(SuccessColor()).Bold(true)
}

// WarningStyle returns the style for warning messages
func WarningStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(WarningColor()).Bold(true)
}

// ClassStyle colors an item by how the batch classified it.
func ClassStyle(class stats.Class) lipgloss.Style {
	switch class {
	case stats.ClassNewFile, stats.ClassNewer, stats.ClassOlder, stats.ClassChanged, stats.ClassNewDir:
		return lipgloss.NewStyle().Foreground(SuccessColor())
	case stats.ClassExtraFile, stats.ClassExtraDir, stats.ClassMismatch:
		return lipgloss.NewStyle().Foreground(WarningColor())
	case stats.ClassFailed:
		return lipgloss.NewStyle().Foreground(ErrorColor())
	default:
		return DimStyle()
	}
}

// StatusStyle colors the final exit status.
func StatusStyle(status stats.ExitStatus) lipgloss.Style {
	switch {
	case status.Has(stats.SomeFailed), status.Has(stats.SeriousError):
		return ErrorStyle()
	case status.Has(stats.Cancelled), status.Has(stats.MismatchDetected), status.Has(stats.ExtraDetected):
		return WarningStyle()
	default:
		return SuccessStyle()
	}
}

// Render applies style unless colors are disabled.
func Render(style lipgloss.Style, text string) string {
	if colorsDisabled {
		return text
	}

	return style.Render(text)
}

const (
	accentColorCode    = "62"  // Blue
	dimColorCode       = "240" // Dark gray
	errorColorCode     = "196" // Red
	highlightColorCode = "86"  // Cyan
	primaryColorCode   = "205" // Pink/purple
	successColorCode   = "42"  // Green
	warningColorCode   = "226"
)
