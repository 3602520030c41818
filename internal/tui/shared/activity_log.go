package shared

import "strings"

// ActivityLog keeps the most recent lines of activity, oldest first.
type ActivityLog struct {
	size    int
	entries []string
}

// NewActivityLog keeps at most size entries. size <= 0 keeps everything.
func NewActivityLog(size int) *ActivityLog {
	return &ActivityLog{size: size}
}

// Add appends an entry, dropping the oldest when full.
func (l *ActivityLog) Add(entry string) {
	l.entries = append(l.entries, entry)

	if l.size > 0 && len(l.entries) > l.size {
		l.entries = l.entries[len(l.entries)-l.size:]
	}
}

// Entries returns the kept entries, oldest first.
func (l *ActivityLog) Entries() []string {
	return l.entries
}

// RenderActivityLog renders entries under an optional title. If
// maxEntries > 0, only the most recent maxEntries are shown.
func RenderActivityLog(title string, entries []string, maxEntries int) string {
	var builder strings.Builder

	if trimmed := strings.TrimSpace(title); trimmed != "" {
		builder.WriteString(Render(LabelStyle(), trimmed))
		builder.WriteString("\n")
	}

	if maxEntries > 0 && maxEntries < len(entries) {
		entries = entries[len(entries)-maxEntries:]
	}

	for i, entry := range entries {
		if i > 0 {
			builder.WriteString("\n")
		}

		builder.WriteString("  ")
		builder.WriteString(entry)
	}

	return builder.String()
}
