package shared

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
)

// NewProgressModel creates a progress bar of the given width. The caller
// renders the percentage itself.
func NewProgressModel(width int) progress.Model {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = width
	bar.ShowPercentage = false

	if !colorsDisabled {
		bar.EmptyColor = dimColorCode
		bar.FullColor = accentColorCode
	}

	return bar
}

// RenderASCIIProgress draws "[=====>    ] 50%" for terminals without color.
// percent is clamped to [0, 1].
func RenderASCIIProgress(percent float64, width int) string {
	percent = min(max(percent, 0), 1)
	filled := int(percent * float64(width))

	var bar strings.Builder

	bar.WriteString("[")

	switch {
	case filled >= width:
		bar.WriteString(strings.Repeat("=", width))
	case percent > 0:
		// Leave room for the arrow head.
		equals := max(0, filled-1)
		if filled >= 3 {
			equals = filled - 2
		}

		bar.WriteString(strings.Repeat("=", equals))
		bar.WriteString(">")
		bar.WriteString(strings.Repeat(" ", width-equals-1))
	default:
		bar.WriteString(strings.Repeat(" ", width))
	}

	bar.WriteString("]")

	return fmt.Sprintf("%s %d%%", bar.String(), int(percent*100)) //nolint:mnd // percentage
}

// RenderProgress draws the styled bar, or the ASCII one when colors are off.
func RenderProgress(model progress.Model, percent float64) string {
	if colorsDisabled {
		return RenderASCIIProgress(percent, model.Width)
	}

	return model.ViewAs(percent) + fmt.Sprintf(" %d%%", int(min(max(percent, 0), 1)*100)) //nolint:mnd // percentage
}
