package tui

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/batchcopy/internal/stats"
	"github.com/joe/batchcopy/internal/tui/shared"
)

// Run shows the screen until the batch finishes and returns its results.
// bridge is closed before Run returns.
func Run(ctx context.Context, controller Controller, bridge *shared.EventBridge, title string, out io.Writer) (*stats.Results, error) {
	defer bridge.Close()

	program := tea.NewProgram(NewModel(ctx, controller, bridge, title), tea.WithOutput(out), tea.WithContext(ctx))

	final, err := program.Run()
	if err != nil {
		// The program is gone but the batch may still be running.
		controller.Stop()
		return nil, fmt.Errorf("progress display failed: %w", err)
	}

	model, ok := final.(Model)
	if !ok {
		return nil, fmt.Errorf("unexpected model type %T", final)
	}

	return model.Results()
}
