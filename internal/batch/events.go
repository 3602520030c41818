package batch

import (
	"github.com/joe/batchcopy/internal/copier"
	"github.com/joe/batchcopy/internal/stats"
)

// Event is the interface implemented by all orchestrator events.
type Event interface {
	isEvent()
}

// EventEmitter receives orchestrator events. Emit is called from the
// scheduling goroutine and from copy goroutines, so it must be safe for
// concurrent use and must not block.
type EventEmitter interface {
	Emit(event Event)
}

// EmitterFunc adapts a function to EventEmitter.
type EmitterFunc func(Event)

// Emit calls f.
func (f EmitterFunc) Emit(event Event) { f(event) }

// ProgressEstimatorCreated is emitted at the start of every run with the
// estimator that will count it.
type ProgressEstimatorCreated struct {
	Estimator *stats.ProgressEstimator
}

func (ProgressEstimatorCreated) isEvent() {}

// ItemProcessed is emitted once per file or directory after it has been
// classified.
type ItemProcessed struct {
	Item stats.ProcessedItemInfo
	// WillCopy is set when the file was selected for copying.
	WillCopy bool
}

func (ItemProcessed) isEvent() {}

// CopyProgressChanged relays a copier's progress report.
type CopyProgressChanged struct {
	Progress copier.Progress
}

func (CopyProgressChanged) isEvent() {}

// ItemError is emitted once per failed attempt.
type ItemError struct {
	Source      string
	Destination string
	// Attempt counts from 1.
	Attempt int
	// Final is set when no retry follows.
	Final bool
	Err   error
}

func (ItemError) isEvent() {}

// CommandError reports a problem with the run itself, e.g. an unusable log
// file. The run continues.
type CommandError struct {
	Err error
}

func (CommandError) isEvent() {}

// StatisticsUpdated is emitted after every publish of the estimator.
type StatisticsUpdated struct {
	Snapshot stats.Snapshot
}

func (StatisticsUpdated) isEvent() {}

// CommandCompleted is emitted once when a run has settled.
type CommandCompleted struct {
	Results *stats.Results
}

func (CommandCompleted) isEvent() {}
