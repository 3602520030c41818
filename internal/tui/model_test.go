//nolint:varnamelen // Test files use idiomatic short variable names (m, ok, etc.)
package tui_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/batchcopy/internal/batch"
	"github.com/joe/batchcopy/internal/copier"
	"github.com/joe/batchcopy/internal/stats"
	"github.com/joe/batchcopy/internal/tui"
	"github.com/joe/batchcopy/internal/tui/shared"
)

var errDenied = errors.New("permission denied")

type fakeController struct {
	mu      sync.Mutex
	paused  bool
	stopped int
	results *stats.Results
}

func (f *fakeController) Start(context.Context) (*stats.Results, error) {
	return f.results, nil
}

func (f *fakeController) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped++
}

func (f *fakeController) Pause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = true
}

func (f *fakeController) Resume() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = false
}

func (f *fakeController) IsPaused() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.paused
}

func newModel(t *testing.T, controller *fakeController) tui.Model {
	t.Helper()

	bridge := shared.NewEventBridge()
	t.Cleanup(bridge.Close)

	return tui.NewModel(context.Background(), controller, bridge, "/src -> /dst")
}

func send(t *testing.T, m tui.Model, msgs ...tea.Msg) (tui.Model, tea.Cmd) {
	t.Helper()

	var cmd tea.Cmd

	for _, msg := range msgs {
		var next tea.Model

		next, cmd = m.Update(msg)

		var ok bool

		m, ok = next.(tui.Model)
		if !ok {
			t.Fatalf("unexpected model type %T", next)
		}
	}

	return m, cmd
}

func event(e batch.Event) shared.BatchEventMsg {
	return shared.BatchEventMsg{Event: e}
}

func TestModel_InitStartsTheRun(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	results := &stats.Results{Status: stats.FilesCopied}
	m := newModel(t, &fakeController{results: results})

	g.Expect(m.Init()).NotTo(BeNil())

	m, cmd := send(t, m, shared.RunFinishedMsg{Results: results})
	g.Expect(cmd).NotTo(BeNil())
	g.Expect(cmd()).To(Equal(tea.Quit()))
	g.Expect(m.Done()).To(BeTrue())

	got, err := m.Results()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(got).To(BeIdenticalTo(results))
	g.Expect(m.View()).To(ContainSubstring("Finished: FilesCopied"))
}

func TestModel_TracksProgressFromEvents(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	m := newModel(t, &fakeController{})

	m, cmd := send(t, m,
		event(batch.ProgressEstimatorCreated{}),
		event(batch.ItemProcessed{Item: stats.NewFileItem(stats.ClassNewFile, "/src/a", 100), WillCopy: true}),
		event(batch.ItemProcessed{Item: stats.NewFileItem(stats.ClassNewFile, "/src/b", 100), WillCopy: true}),
		event(batch.ItemProcessed{Item: stats.NewFileItem(stats.ClassSame, "/src/c", 50), WillCopy: false}),
		event(batch.CopyProgressChanged{Progress: copier.Progress{Source: "/src/a", BytesCopied: 50, TotalBytes: 100, Percent: 50}}),
	)
	g.Expect(cmd).NotTo(BeNil(), "each event re-arms the listener")
	g.Expect(m.Percent()).To(BeNumerically("~", 0.25))
	g.Expect(m.View()).To(ContainSubstring("/src/a"))

	m, _ = send(t, m,
		event(batch.CopyProgressChanged{Progress: copier.Progress{Source: "/src/a", BytesCopied: 100, TotalBytes: 100, Percent: 100}}),
		event(batch.StatisticsUpdated{Snapshot: stats.Snapshot{
			Files: stats.Statistic{Kind: stats.Files, Copied: 1, Skipped: 2},
			Bytes: stats.Statistic{Kind: stats.Bytes, Copied: 100, Skipped: 150},
		}}),
	)
	g.Expect(m.Percent()).To(BeNumerically("~", 0.5))
	g.Expect(m.View()).To(ContainSubstring("Files: 1 / 2 copied"))
}

func TestModel_PercentWithOnlyEmptyFiles(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	m := newModel(t, &fakeController{})
	g.Expect(m.Percent()).To(BeZero())

	m, _ = send(t, m,
		event(batch.ItemProcessed{Item: stats.NewFileItem(stats.ClassNewFile, "/src/a", 0), WillCopy: true}),
		event(batch.StatisticsUpdated{Snapshot: stats.Snapshot{Files: stats.Statistic{Copied: 1}}}),
	)
	g.Expect(m.Percent()).To(BeNumerically("==", 1))
}

func TestModel_ErrorsAndRetries(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	m := newModel(t, &fakeController{})

	m, _ = send(t, m,
		event(batch.ItemError{Source: "/src/a", Attempt: 1, Err: errDenied}),
		event(batch.ItemError{Source: "/src/a", Attempt: 2, Final: true, Err: errDenied}),
		event(batch.CommandError{Err: errors.New("log file unusable")}),
	)

	view := m.View()
	g.Expect(view).To(ContainSubstring("retries 1"))
	g.Expect(view).To(ContainSubstring("Failed (1)"))
	g.Expect(view).To(ContainSubstring("permission denied"))
	g.Expect(view).To(ContainSubstring("log file unusable"))
}

func TestModel_PauseKeyTogglesController(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	controller := &fakeController{}
	m := newModel(t, controller)

	pause := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")}

	m, _ = send(t, m, pause)
	g.Expect(controller.IsPaused()).To(BeTrue())
	g.Expect(m.View()).To(ContainSubstring("Paused"))
	g.Expect(m.View()).To(ContainSubstring("p resume"))

	m, _ = send(t, m, pause)
	g.Expect(controller.IsPaused()).To(BeFalse())
	g.Expect(m.View()).To(ContainSubstring("p pause"))
}

func TestModel_CtrlCStopsOnce(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	controller := &fakeController{}
	m := newModel(t, controller)

	ctrlC := tea.KeyMsg{Type: tea.KeyCtrlC}

	m, cmd := send(t, m, ctrlC, ctrlC)
	g.Expect(cmd).To(BeNil(), "the screen waits for the run to settle")
	g.Expect(controller.stopped).To(Equal(1))
	g.Expect(m.View()).To(ContainSubstring("Stopping"))

	// Pausing is ignored once stopping.
	_, _ = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	g.Expect(controller.IsPaused()).To(BeFalse())
}

func TestModel_FinishedWithError(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	m := newModel(t, &fakeController{})

	m, _ = send(t, m, shared.RunFinishedMsg{Err: batch.ErrInvalidState})

	_, err := m.Results()
	g.Expect(err).To(MatchError(batch.ErrInvalidState))
	g.Expect(m.View()).To(ContainSubstring("Error:"))

	_, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	g.Expect(cmd).NotTo(BeNil())
}

func TestModel_WindowSizeResizesBar(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	m := newModel(t, &fakeController{})
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 60, Height: 20})

	g.Expect(m.View()).To(ContainSubstring("ctrl+c stop"))
}
