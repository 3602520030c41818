package shared

import (
	"fmt"
	"strings"

	"github.com/joe/batchcopy/internal/batch"
	"github.com/joe/batchcopy/internal/stats"
	"github.com/joe/batchcopy/pkg/errors"
)

// RenderErrorList lists final item failures with their suggestions, up to
// limit entries. maxWidth > 0 truncates paths and messages.
func RenderErrorList(failures []batch.ItemError, limit, maxWidth int) string {
	if len(failures) == 0 {
		return ""
	}

	var builder strings.Builder

	for i, failure := range failures {
		if limit > 0 && i >= limit {
			fmt.Fprintf(&builder, "  ... and %d more (see log)\n", len(failures)-limit)
			break
		}

		fmt.Fprintf(&builder, "  %s %s\n",
			Render(ErrorStyle(), "✗"),
			Render(ClassStyle(stats.ClassFailed), TruncatePath(failure.Source, maxWidth)))

		msg := failure.Err.Error()
		if maxWidth > 3 && len(msg) > maxWidth {
			msg = msg[:maxWidth-3] + "..."
		}

		fmt.Fprintf(&builder, "    %s\n", msg)

		if suggestions := errors.FormatSuggestions(failure.Err); suggestions != "" {
			builder.WriteString("    ")
			builder.WriteString(strings.ReplaceAll(suggestions, "\n", "\n    "))
			builder.WriteString("\n")
		}
	}

	return builder.String()
}
