// Package logging builds the diagnostic zerolog logger and prints finished
// run logs to a plain console.
package logging

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/joe/batchcopy/internal/stats"
)

// New returns a console logger writing to w. Verbose lowers the level to debug.
func New(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	writer := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05", NoColor: color.NoColor}

	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

// WithLogger attaches logger to ctx so zerolog.Ctx finds it downstream.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return logger.WithContext(ctx)
}

// PrintResults writes the run log to w, coloring error lines and the status row.
func PrintResults(w io.Writer, results *stats.Results) error {
	errLine := color.New(color.FgRed)
	statusLine := color.New(color.Bold, statusColor(results.Status))

	for _, line := range results.Log {
		var err error

		switch {
		case strings.Contains(line, " ERROR "):
			_, err = errLine.Fprintln(w, line)
		case strings.HasPrefix(strings.TrimSpace(line), "Status :"):
			_, err = statusLine.Fprintln(w, line)
		default:
			_, err = fmt.Fprintln(w, line)
		}

		if err != nil {
			return fmt.Errorf("failed to print results: %w", err)
		}
	}

	return nil
}

func statusColor(status stats.ExitStatus) color.Attribute {
	switch {
	case status.Has(stats.SomeFailed), status.Has(stats.SeriousError):
		return color.FgRed
	case status.Has(stats.Cancelled), status.Has(stats.MismatchDetected):
		return color.FgYellow
	default:
		return color.FgGreen
	}
}
