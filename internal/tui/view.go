package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/joe/batchcopy/internal/stats"
	"github.com/joe/batchcopy/internal/tui/shared"
)

// View implements tea.Model
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(shared.Render(shared.TitleStyle(), m.title))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n\n")
	b.WriteString(shared.RenderProgress(m.bar, m.Percent()))
	b.WriteString("\n")
	b.WriteString(m.countsLine())
	b.WriteString("\n")

	if inFlight := m.inFlightLines(); inFlight != "" {
		b.WriteString("\n")
		b.WriteString(inFlight)
	}

	if entries := m.activity.Entries(); len(entries) > 0 {
		b.WriteString("\n")
		b.WriteString(shared.RenderActivityLog("Activity", entries, shared.ActivityLogSize))
		b.WriteString("\n")
	}

	for _, warning := range m.warnings {
		b.WriteString("\n")
		b.WriteString(shared.Render(shared.WarningStyle(), "! "+warning))
	}

	if len(m.failures) > 0 {
		b.WriteString("\n")
		b.WriteString(shared.Render(shared.LabelStyle(), fmt.Sprintf("Failed (%d)", len(m.failures))))
		b.WriteString("\n")
		b.WriteString(shared.RenderErrorList(m.failures, shared.ErrorLimit, m.pathWidth()))
	}

	b.WriteString("\n")
	b.WriteString(m.footer())
	b.WriteString("\n")

	return b.String()
}

func (m Model) statusLine() string {
	switch {
	case m.done && m.err != nil:
		return shared.Render(shared.ErrorStyle(), "Error: "+m.err.Error())
	case m.done && m.results != nil:
		return shared.Render(shared.StatusStyle(m.results.Status), "Finished: "+m.results.Status.String()) +
			shared.Render(shared.DimStyle(), "  in "+shared.FormatDuration(m.results.Elapsed()))
	case m.done:
		return "Finished"
	case m.stopping:
		return m.spinner.View() + " " + shared.Render(shared.WarningStyle(), "Stopping...")
	case m.paused:
		return shared.Render(shared.WarningStyle(), "Paused")
	default:
		return m.spinner.View() + " Copying" +
			shared.Render(shared.DimStyle(), "  "+shared.FormatDuration(m.now.Sub(m.started)))
	}
}

func (m Model) countsLine() string {
	files := m.snapshot.Files
	bytes := m.snapshot.Bytes

	line := fmt.Sprintf("Files: %d / %d copied   %s / %s   skipped %d   failed %d",
		files.Copied, m.queuedFiles,
		shared.FormatBytes(bytes.Copied), shared.FormatBytes(m.queuedBytes),
		files.Skipped, files.Failed)

	if files.Mismatch > 0 {
		line += fmt.Sprintf("   mismatch %d", files.Mismatch)
	}

	if files.Extras > 0 {
		line += fmt.Sprintf("   extras %d", files.Extras)
	}

	if m.retries > 0 {
		line += fmt.Sprintf("   retries %d", m.retries)
	}

	if m.done && m.results != nil && m.results.Speed.BytesPerSecond > 0 {
		line += "   " + shared.FormatRate(m.results.Speed.BytesPerSecond)
	}

	return line
}

func (m Model) inFlightLines() string {
	if len(m.inFlight) == 0 {
		return ""
	}

	sources := make([]string, 0, len(m.inFlight))
	for source := range m.inFlight {
		sources = append(sources, source)
	}

	sort.Strings(sources)

	var b strings.Builder

	for _, source := range sources {
		p := m.inFlight[source]
		fmt.Fprintf(&b, "  %s %5.1f%%  %s\n",
			shared.Render(shared.ClassStyle(stats.ClassNewFile), "→"),
			p.Percent,
			shared.TruncatePath(source, m.pathWidth()))
	}

	return b.String()
}

func (m Model) footer() string {
	if m.done {
		return shared.Render(shared.DimStyle(), "q quit")
	}

	pause := "p pause"
	if m.paused {
		pause = "p resume"
	}

	return shared.Render(shared.DimStyle(), pause+" • ctrl+c stop")
}
