package batch

import (
	"time"

	"github.com/joe/batchcopy/internal/clock"
	"github.com/joe/batchcopy/internal/config"
	"github.com/joe/batchcopy/pkg/fileops"
)

// DispatchInterval is how often the scheduler re-checks for a free slot or
// the end of a pause.
const DispatchInterval = 100 * time.Millisecond

// Selector decides whether a pair may be copied. A false verdict records the
// file as excluded by name.
type Selector interface {
	ShouldCopy(pair *fileops.FilePair) bool
}

// LogSink persists the run log.
type LogSink interface {
	AppendToLogs(lines ...string) error
	DeleteLogFiles() error
	EnsureLogDirectoriesCreated() error
}

// Options are the option objects a run is configured with.
type Options struct {
	Copy      config.CopyOptions
	Selection config.SelectionOptions
	Retry     config.RetryOptions
	Logging   config.LoggingOptions
	Job       config.JobOptions
}

// OptionsFromConfig collects the option objects of a parsed config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Copy:      cfg.CopyOptions(),
		Selection: cfg.SelectionOptions(),
		Retry:     cfg.RetryOptions(),
		Logging:   cfg.LoggingOptions(),
		Job:       cfg.JobOptions(),
	}
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithSelector filters pairs before their dates are compared.
func WithSelector(selector Selector) Option {
	return func(o *Orchestrator) { o.selector = selector }
}

// WithLogSink persists the log of every run.
func WithLogSink(sink LogSink) Option {
	return func(o *Orchestrator) { o.sink = sink }
}

// WithEmitter receives the orchestrator's events.
func WithEmitter(emitter EventEmitter) Option {
	return func(o *Orchestrator) { o.emitter = emitter }
}

// WithClock replaces the wall clock, e.g. for tests.
func WithClock(provider clock.TimeProvider) Option {
	return func(o *Orchestrator) { o.clock = provider }
}

// WithFileOps sets the filesystems used to classify directories and to
// purge extra files. It should match the ones the factory copies with.
func WithFileOps(ops *fileops.FileOps) Option {
	return func(o *Orchestrator) { o.ops = ops }
}

// WithPublishInterval overrides how often statistics are published.
func WithPublishInterval(d time.Duration) Option {
	return func(o *Orchestrator) { o.publishInterval = d }
}
