package shared

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/batchcopy/internal/stats"
)

// RunFinishedMsg is sent when Start returns.
type RunFinishedMsg struct {
	Results *stats.Results
	Err     error
}

// TickMsg refreshes the elapsed time while a run is active.
type TickMsg time.Time

// TickCmd schedules the next TickMsg.
func TickCmd() tea.Cmd {
	return tea.Tick(TickIntervalMs*time.Millisecond, func(now time.Time) tea.Msg {
		return TickMsg(now)
	})
}
