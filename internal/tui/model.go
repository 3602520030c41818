// Package tui renders a running batch in the terminal and lets the user
// pause or stop it.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/batchcopy/internal/batch"
	"github.com/joe/batchcopy/internal/copier"
	"github.com/joe/batchcopy/internal/stats"
	"github.com/joe/batchcopy/internal/tui/shared"
)

// Controller is the part of the orchestrator the screen drives.
type Controller interface {
	Start(ctx context.Context) (*stats.Results, error)
	Stop()
	Pause()
	Resume()
	IsPaused() bool
}

// Model is the bubble tea model for one batch run.
type Model struct {
	ctx        context.Context //nolint:containedctx // Start needs the caller's context from inside a tea.Cmd
	controller Controller
	bridge     *shared.EventBridge
	title      string

	spinner spinner.Model
	bar     progress.Model
	width   int

	snapshot    stats.Snapshot
	queuedFiles int64
	queuedBytes int64
	inFlight    map[string]copier.Progress
	activity    *shared.ActivityLog
	failures    []batch.ItemError
	warnings    []string
	retries     int

	paused   bool
	stopping bool
	done     bool
	started  time.Time
	now      time.Time

	results *stats.Results
	err     error
}

// NewModel builds the screen. Events must reach bridge, typically by
// passing it to batch.WithEmitter.
func NewModel(ctx context.Context, controller Controller, bridge *shared.EventBridge, title string) Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = shared.LabelStyle()

	now := time.Now()

	return Model{
		ctx:        ctx,
		controller: controller,
		bridge:     bridge,
		title:      title,
		spinner:    spin,
		bar:        shared.NewProgressModel(shared.ProgressBarWidth),
		inFlight:   make(map[string]copier.Progress),
		activity:   shared.NewActivityLog(shared.ActivityLogSize),
		started:    now,
		now:        now,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.startCmd(), m.bridge.ListenCmd(), m.spinner.Tick, shared.TickCmd())
}

func (m Model) startCmd() tea.Cmd {
	return func() tea.Msg {
		results, err := m.controller.Start(m.ctx)
		return shared.RunFinishedMsg{Results: results, Err: err}
	}
}

// Results returns the run's outcome once it has finished.
func (m Model) Results() (*stats.Results, error) {
	return m.results, m.err
}

// Done reports whether the run has finished.
func (m Model) Done() bool {
	return m.done
}

// Percent is the share of queued bytes copied so far, in [0, 1].
func (m Model) Percent() float64 {
	if m.queuedBytes == 0 {
		if m.queuedFiles == 0 {
			return 0
		}

		return float64(m.snapshot.Files.Copied+m.snapshot.Files.Failed) / float64(m.queuedFiles)
	}

	copied := m.snapshot.Bytes.Copied
	for _, p := range m.inFlight {
		copied += p.BytesCopied
	}

	return min(float64(copied)/float64(m.queuedBytes), 1)
}
