package shared

import (
	"fmt"
	"time"
)

// FormatBytes formats bytes into human-readable format (e.g., "1.5 MB")
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatDuration formats duration into human-readable format (e.g., "2m 30s")
func FormatDuration(duration time.Duration) string {
	duration = duration.Round(time.Second)
	hours := duration / time.Hour
	duration %= time.Hour
	minutes := duration / time.Minute
	duration %= time.Minute
	seconds := duration / time.Second

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// FormatRate formats transfer rate into human-readable format (e.g., "5.2 MB/s")
func FormatRate(bytesPerSec float64) string {
	if bytesPerSec < 1024 { //nolint:mnd // one KiB
		return fmt.Sprintf("%.0f B/s", bytesPerSec)
	}

	return FormatBytes(int64(bytesPerSec)) + "/s"
}

// TruncatePath shortens path to width by eliding its middle.
func TruncatePath(path string, width int) string {
	const ellipsis = "..."

	runes := []rune(path)
	if width <= 0 || len(runes) <= width {
		return path
	}

	if width <= len(ellipsis) {
		return string(runes[len(runes)-width:])
	}

	keep := width - len(ellipsis)
	head := keep / 2 //nolint:mnd // split evenly
	tail := keep - head

	return string(runes[:head]) + ellipsis + string(runes[len(runes)-tail:])
}
