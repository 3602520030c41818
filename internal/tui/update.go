package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/batchcopy/internal/batch"
	"github.com/joe/batchcopy/internal/copier"
	"github.com/joe/batchcopy/internal/stats"
	"github.com/joe/batchcopy/internal/tui/shared"
)

const barMargin = 20

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(max(msg.Width-barMargin, shared.ProgressBarWidth/2), shared.MaxProgressBarWidth) //nolint:mnd // half width floor

		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case shared.TickMsg:
		m.now = time.Time(msg)
		if m.done {
			return m, nil
		}

		return m, shared.TickCmd()

	case shared.BatchEventMsg:
		m.handleEvent(msg.Event)
		return m, m.bridge.ListenCmd()

	case shared.RunFinishedMsg:
		m.done = true
		m.results = msg.Results
		m.err = msg.Err

		if msg.Results != nil {
			m.snapshot = stats.Snapshot{Dirs: msg.Results.Dirs, Files: msg.Results.Files, Bytes: msg.Results.Bytes}
		}

		return m, tea.Quit
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case shared.KeyCtrlC:
		if m.done {
			return m, tea.Quit
		}

		if !m.stopping {
			m.stopping = true
			m.activity.Add(shared.Render(shared.WarningStyle(), "Stopping..."))
			m.controller.Stop()
		}

	case shared.KeyPause:
		if m.done || m.stopping {
			return m, nil
		}

		if m.controller.IsPaused() {
			m.controller.Resume()
			m.activity.Add("Resumed")
		} else {
			m.controller.Pause()
			m.activity.Add("Paused: running copies finish, nothing new starts")
		}

		m.paused = m.controller.IsPaused()

	case shared.KeyQuit:
		if m.done {
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m *Model) handleEvent(event batch.Event) {
	switch e := event.(type) {
	case batch.ProgressEstimatorCreated:
		m.snapshot = stats.Snapshot{}
		m.queuedFiles, m.queuedBytes = 0, 0
		m.inFlight = make(map[string]copier.Progress)

	case batch.ItemProcessed:
		if e.Item.Kind == stats.FileItem && e.WillCopy {
			m.queuedFiles++
			m.queuedBytes += e.Item.Size
		}

		if e.Item.Kind != stats.SystemMessage {
			m.activity.Add(shared.Render(shared.ClassStyle(e.Item.Class), fmt.Sprintf("%-12s", e.Item.Class)) +
				" " + shared.TruncatePath(e.Item.Name, m.pathWidth()))
		}

	case batch.CopyProgressChanged:
		if e.Progress.Percent >= 100 { //nolint:mnd // complete
			delete(m.inFlight, e.Progress.Source)
		} else {
			m.inFlight[e.Progress.Source] = e.Progress
		}

	case batch.ItemError:
		delete(m.inFlight, e.Source)

		if e.Final {
			m.failures = append(m.failures, e)
		} else {
			m.retries++
			m.activity.Add(shared.Render(shared.WarningStyle(),
				fmt.Sprintf("retry after attempt %d: %s", e.Attempt, shared.TruncatePath(e.Source, m.pathWidth()))))
		}

	case batch.CommandError:
		m.warnings = append(m.warnings, e.Err.Error())

	case batch.StatisticsUpdated:
		m.snapshot = e.Snapshot

	case batch.CommandCompleted:
		m.results = e.Results
	}
}

func (m Model) pathWidth() int {
	if m.width == 0 {
		return 0
	}

	return max(m.width-barMargin, barMargin)
}
