// Package batch runs a list of copiers with bounded concurrency, retries,
// pause and cancellation, and turns their outcomes into run statistics.
package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/joe/batchcopy/internal/clock"
	"github.com/joe/batchcopy/internal/config"
	"github.com/joe/batchcopy/internal/copier"
	"github.com/joe/batchcopy/internal/stats"
	pkgerrors "github.com/joe/batchcopy/pkg/errors"
	"github.com/joe/batchcopy/pkg/fileops"
)

// Exported variables.
var (
	ErrInvalidState = copier.ErrInvalidState
	ErrNoFactory    = errors.New("no copier factory configured")
)

// Orchestrator copies a list of file pairs. Entries are classified and
// dispatched in list order; copies complete in any order.
type Orchestrator struct {
	factory         copier.Factory
	opts            Options
	selector        Selector
	sink            LogSink
	emitter         EventEmitter
	clock           clock.TimeProvider
	ops             *fileops.FileOps
	publishInterval time.Duration
	enricher        pkgerrors.Enricher

	mu        sync.Mutex
	copiers   []copier.Copier
	active    map[copier.Copier]struct{}
	running   bool
	stopped   bool
	disposed  bool
	cancel    context.CancelFunc
	estimator *stats.ProgressEstimator

	paused    atomic.Bool
	cancelled atomic.Bool
}

// run is the state of one Start call.
type run struct {
	estimator *stats.ProgressEstimator
	builder   *stats.ResultsBuilder
	logger    *zerolog.Logger
	group     errgroup.Group
	lastDir   string
}

// New creates an orchestrator that builds copiers with factory.
func New(factory copier.Factory, opts Options, options ...Option) *Orchestrator {
	o := &Orchestrator{
		factory: factory,
		opts:    opts,
		clock:   clock.Real(),
		active:  make(map[copier.Copier]struct{}),
		enricher: pkgerrors.NewEnricher(
			pkgerrors.Rule{Target: copier.ErrOperationCancelled, Category: pkgerrors.CategoryCancelled},
			pkgerrors.Rule{Target: copier.ErrAlreadyExists, Category: pkgerrors.CategoryExists},
			pkgerrors.Rule{Target: copier.ErrFileNotFound, Category: pkgerrors.CategoryPath},
			pkgerrors.Rule{Target: copier.ErrPathInvalid, Category: pkgerrors.CategoryPath},
		),
	}

	for _, apply := range options {
		apply(o)
	}

	if o.ops == nil {
		o.ops = fileops.NewRealFileOps()
	}

	return o
}

// Add creates a copier for every pair and appends them to the list.
func (o *Orchestrator) Add(pairs ...*fileops.FilePair) error {
	if o.factory == nil {
		return ErrNoFactory
	}

	created := make([]copier.Copier, 0, len(pairs))

	for i, pair := range pairs {
		c, err := o.factory.CreateFromPair(pair)
		if err != nil {
			return fmt.Errorf("failed to add pair %d: %w", i, err)
		}

		created = append(created, c)
	}

	return o.AddCopiers(created...)
}

// AddCopiers appends ready-made copiers to the list.
func (o *Orchestrator) AddCopiers(copiers ...copier.Copier) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.checkIdleLocked(); err != nil {
		return err
	}

	o.copiers = append(o.copiers, copiers...)

	return nil
}

// Copiers returns the list of copiers.
func (o *Orchestrator) Copiers() []copier.Copier {
	o.mu.Lock()
	defer o.mu.Unlock()

	return slices.Clone(o.copiers)
}

// CommandOptions renders the effective options as mirroring-tool switches.
func (o *Orchestrator) CommandOptions() string {
	return config.JoinSwitches(
		o.opts.Copy.Serialize(),
		o.opts.Selection.Serialize(),
		o.opts.Retry.Serialize(),
		o.opts.Logging.Serialize(),
	)
}

// ProgressEstimator returns the estimator of the current or last run, or nil
// before the first Start.
func (o *Orchestrator) ProgressEstimator() *stats.ProgressEstimator {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.estimator
}

// Start runs the list and blocks until every dispatched copy has settled.
// Item failures never abort the run; they are counted and logged.
func (o *Orchestrator) Start(ctx context.Context) (*stats.Results, error) {
	runCtx, copiers, err := o.begin(ctx)
	if err != nil {
		return nil, err
	}

	defer o.end()

	r := o.newRun(runCtx, copiers)

	o.schedule(runCtx, r, copiers)

	// Copy goroutines report through the run, never through the group.
	_ = r.group.Wait()

	cancelled := o.cancelled.Load() || runCtx.Err() != nil
	if cancelled {
		o.cancelled.Store(true)
		r.builder.LogItem(stats.NewMessage("*** Run cancelled ***"))
	}

	results := r.builder.Finish(cancelled)

	r.logger.Info().
		Str("status", results.Status.String()).
		Int64("copied", results.Files.Copied).
		Int64("failed", results.Files.Failed).
		Msg("run completed")

	o.emit(CommandCompleted{Results: results})

	return results, nil
}

// Stop cancels every running copy, then the run. A stopped orchestrator
// cannot be started again.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	o.stopped = true
	cancel := o.cancel

	active := make([]copier.Copier, 0, len(o.active))
	for c := range o.active {
		active = append(active, c)
	}
	o.mu.Unlock()

	o.cancelled.Store(true)

	for _, c := range active {
		c.Cancel()
	}

	if cancel != nil {
		cancel()
	}
}

// Pause halts new dispatch. Copies already running continue.
func (o *Orchestrator) Pause() { o.paused.Store(true) }

// Resume lets dispatch continue after Pause.
func (o *Orchestrator) Resume() { o.paused.Store(false) }

// IsPaused reports whether dispatch is paused.
func (o *Orchestrator) IsPaused() bool { return o.paused.Load() }

// IsCancelled reports whether the current or last run was cancelled.
func (o *Orchestrator) IsCancelled() bool { return o.cancelled.Load() }

// IsRunning reports whether Start is in progress.
func (o *Orchestrator) IsRunning() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.running
}

// Close disposes of the orchestrator, stopping a run in progress.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	o.disposed = true
	running := o.running
	o.mu.Unlock()

	if running {
		o.Stop()
	}

	return nil
}

func (o *Orchestrator) checkIdleLocked() error {
	switch {
	case o.disposed:
		return fmt.Errorf("%w: orchestrator is closed", ErrInvalidState)
	case o.running:
		return fmt.Errorf("%w: a run is in progress", ErrInvalidState)
	default:
		return nil
	}
}

func (o *Orchestrator) begin(ctx context.Context) (context.Context, []copier.Copier, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.checkIdleLocked(); err != nil {
		return nil, nil, err
	}

	if o.stopped {
		return nil, nil, fmt.Errorf("%w: orchestrator was stopped", ErrInvalidState)
	}

	if o.factory == nil {
		return nil, nil, ErrNoFactory
	}

	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.running = true
	o.cancelled.Store(false)

	return runCtx, slices.Clone(o.copiers), nil
}

func (o *Orchestrator) end() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}

	o.running = false
}

func (o *Orchestrator) newRun(ctx context.Context, copiers []copier.Copier) *run {
	logger := zerolog.Ctx(ctx)

	estimator := stats.NewProgressEstimator(stats.EstimatorOptions{
		ListOnly: o.opts.Copy.ListOnly,
		Interval: o.publishInterval,
		Clock:    o.clock,
		OnUpdate: func(snap stats.Snapshot) { o.emit(StatisticsUpdated{Snapshot: snap}) },
	})

	o.mu.Lock()
	o.estimator = estimator
	o.mu.Unlock()

	o.emit(ProgressEstimatorCreated{Estimator: estimator})

	builder := stats.NewResultsBuilder(stats.BuilderOptions{
		Job:        o.jobInfo(copiers),
		NoFileList: o.opts.Logging.NoFileList,
		Sink:       o.prepareSink(logger),
		Clock:      o.clock,
		Logger:     logger,
		Estimator:  estimator,
	})
	builder.WriteHeader()

	r := &run{estimator: estimator, builder: builder, logger: logger}
	r.group.SetLimit(max(o.opts.Copy.MaxConcurrency, 1))

	return r
}

// prepareSink readies the log files. A sink that cannot be prepared is
// reported and left out of the run.
func (o *Orchestrator) prepareSink(logger *zerolog.Logger) stats.LineAppender {
	if o.sink == nil {
		return nil
	}

	if err := o.sink.EnsureLogDirectoriesCreated(); err != nil {
		logger.Warn().Err(err).Msg("log directories unavailable, continuing without log file")
		o.emit(CommandError{Err: err})

		return nil
	}

	if !o.opts.Logging.Append {
		if err := o.sink.DeleteLogFiles(); err != nil {
			logger.Warn().Err(err).Msg("could not delete old log files")
			o.emit(CommandError{Err: err})
		}
	}

	return o.sink
}

func (o *Orchestrator) schedule(ctx context.Context, r *run, copiers []copier.Copier) {
	for _, c := range copiers {
		if !o.waitWhilePaused(ctx) {
			return
		}

		o.process(ctx, r, c)
	}
}

func (o *Orchestrator) waitWhilePaused(ctx context.Context) bool {
	for o.paused.Load() {
		select {
		case <-ctx.Done():
			return false
		case <-o.clock.After(DispatchInterval):
		}
	}

	return ctx.Err() == nil
}

func (o *Orchestrator) process(ctx context.Context, r *run, c copier.Copier) {
	pair := c.Pair()
	pair.Tolerance = o.opts.Selection.TimeTolerance

	if err := c.RefreshMetadata(); err != nil {
		item := stats.NewFileItem(stats.ClassFailed, pair.Source, 0)
		o.record(r, item, false)
		o.reportFailure(r, c, "Scanning", 1, true, err)

		return
	}

	o.announceDir(r, pair)

	if !pair.SourceMeta.Exists && !pair.DestMeta.Exists {
		o.record(r, stats.NewFileItem(stats.ClassFailed, pair.Source, 0), false)
		o.reportFailure(r, c, o.verb(), 1, true, fmt.Errorf("%w: %s", copier.ErrFileNotFound, pair.Source))

		return
	}

	class, willCopy := o.classify(pair, c.Flags())
	item := stats.NewFileItem(class, pair.Source, pair.Size()).WithDestination(pair.Destination)
	o.record(r, item, willCopy)

	switch {
	case class == stats.ClassExtraFile:
		o.purge(r, c)
	case willCopy && !o.opts.Copy.ListOnly:
		o.dispatch(ctx, r, c, item)
	}
}

func (o *Orchestrator) record(r *run, item stats.ProcessedItemInfo, willCopy bool) {
	r.estimator.AddFile(item, willCopy)
	r.builder.LogItem(item)
	o.emit(ItemProcessed{Item: item, WillCopy: willCopy})
}

// classify picks the log class of a refreshed pair and whether it is copied.
// Pre-set disposition flags take precedence over selection and dates.
func (o *Orchestrator) classify(pair *fileops.FilePair, flags fileops.DispositionFlags) (stats.Class, bool) {
	switch {
	case pair.IsExtra():
		return stats.ClassExtraFile, false
	case pair.IsMismatch():
		return stats.ClassMismatch, false
	case flags.Set && !flags.ShouldCopy:
		return stats.ClassExcluded, false
	case flags.Set:
		return dateClass(pair), true
	case o.selector != nil && !o.selector.ShouldCopy(pair):
		return stats.ClassExcluded, false
	}

	sel := o.opts.Selection
	class := dateClass(pair)

	switch class {
	case stats.ClassNewer:
		if sel.ExcludeNewer {
			return stats.ClassNewerExcluded, false
		}
	case stats.ClassOlder:
		if sel.ExcludeOlder {
			return stats.ClassOlderExcluded, false
		}
	case stats.ClassSame:
		return class, sel.IncludeSame
	}

	return class, true
}

func dateClass(pair *fileops.FilePair) stats.Class {
	switch {
	case !pair.DestMeta.Exists:
		return stats.ClassNewFile
	case pair.IsSourceNewer():
		return stats.ClassNewer
	case pair.IsDestinationNewer():
		return stats.ClassOlder
	case pair.IsChanged():
		return stats.ClassChanged
	default:
		return stats.ClassSame
	}
}

// announceDir counts the destination directory when the list moves into a
// new one.
func (o *Orchestrator) announceDir(r *run, pair *fileops.FilePair) {
	dir := filepath.Dir(pair.Destination)
	if dir == r.lastDir {
		return
	}

	r.lastDir = dir

	item := stats.NewDirItem(o.dirClass(pair, dir), dir)
	if r.estimator.AddDir(item) {
		r.builder.LogItem(item)
		o.emit(ItemProcessed{Item: item})
	}
}

func (o *Orchestrator) dirClass(pair *fileops.FilePair, dir string) stats.Class {
	dest, err := fileops.StatMeta(o.ops.DestFS, dir)
	if err != nil || !dest.Exists {
		return stats.ClassNewDir
	}

	src, err := fileops.StatMeta(o.ops.SourceFS, filepath.Dir(pair.Source))
	if err == nil && !src.Exists {
		return stats.ClassExtraDir
	}

	return stats.ClassExistingDir
}

func (o *Orchestrator) purge(r *run, c copier.Copier) {
	if o.opts.Copy.ListOnly || !(o.opts.Copy.Purge || c.Flags().ShouldPurge) {
		return
	}

	if err := o.ops.DestFS.Remove(c.Destination()); err != nil {
		o.reportFailure(r, c, "Deleting", 1, true, err)
		return
	}

	r.logger.Debug().Str("destination", c.Destination()).Msg("purged extra file")
}

// dispatch starts the copy once a slot is free, polling every
// DispatchInterval. It gives up when the run is cancelled.
func (o *Orchestrator) dispatch(ctx context.Context, r *run, c copier.Copier, item stats.ProcessedItemInfo) {
	job := func() error {
		o.transfer(ctx, r, c, item)
		return nil
	}

	for !r.group.TryGo(job) {
		select {
		case <-ctx.Done():
			return
		case <-o.clock.After(DispatchInterval):
		}
	}
}

// transfer copies one item, retrying failed attempts. Cancellation abandons
// pending retries.
func (o *Orchestrator) transfer(ctx context.Context, r *run, c copier.Copier, item stats.ProcessedItemInfo) {
	o.track(c, true)
	defer o.track(c, false)

	c.SetProgressHandler(func(p copier.Progress) { o.emit(CopyProgressChanged{Progress: p}) })

	verb := o.verb()
	retries := max(o.opts.Retry.Count, 0)

	for attempt := 1; ; attempt++ {
		r.estimator.SetCopyStarted(item.Key())
		began := o.clock.Now()

		err := o.copyOnce(ctx, c)
		if err == nil {
			r.builder.AddSpeed(item.Size, o.clock.Now().Sub(began))
			r.estimator.AddFileCopied(item.Key())

			return
		}

		if ctx.Err() != nil || errors.Is(err, copier.ErrOperationCancelled) {
			r.logger.Debug().Str("source", c.Source()).Msg("copy cancelled")
			return
		}

		final := attempt > retries
		o.reportFailure(r, c, verb, attempt, final, err)

		if final {
			r.estimator.AddFileFailed(item.Key())
			return
		}

		r.builder.LogMessage("Waiting %s... Retrying...", o.opts.Retry.Wait)

		select {
		case <-ctx.Done():
			return
		case <-o.clock.After(o.opts.Retry.Wait):
		}
	}
}

func (o *Orchestrator) verb() string {
	if o.opts.Copy.Move {
		return "Moving"
	}

	return "Copying"
}

// copyOnce overwrites because the pair was already judged worth copying.
func (o *Orchestrator) copyOnce(ctx context.Context, c copier.Copier) error {
	var err error

	if o.opts.Copy.Move {
		_, err = c.Move(ctx, true)
	} else {
		_, err = c.Copy(ctx, true)
	}

	return err
}

func (o *Orchestrator) track(c copier.Copier, running bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if running {
		o.active[c] = struct{}{}
	} else {
		delete(o.active, c)
	}
}

func (o *Orchestrator) reportFailure(r *run, c copier.Copier, verb string, attempt int, final bool, err error) {
	enriched := o.enricher.Enrich(err, c.Source())

	entry := stats.ErrorEntry{
		Time:    o.clock.Now(),
		Verb:    verb,
		Path:    c.Source(),
		Message: err.Error(),
	}

	var actionable pkgerrors.ActionableError
	if errors.As(enriched, &actionable) {
		entry.Code = actionable.Code()
		entry.Category = string(actionable.Category())
	}

	r.builder.LogError(entry)

	if final && attempt > 1 {
		r.builder.LogMessage("ERROR: RETRY LIMIT EXCEEDED.")
	}

	r.logger.Warn().
		Err(err).
		Str("source", c.Source()).
		Int("attempt", attempt).
		Bool("final", final).
		Msg("item failed")

	o.emit(ItemError{
		Source:      c.Source(),
		Destination: c.Destination(),
		Attempt:     attempt,
		Final:       final,
		Err:         enriched,
	})
}

func (o *Orchestrator) emit(event Event) {
	if o.emitter != nil {
		o.emitter.Emit(event)
	}
}

func (o *Orchestrator) jobInfo(copiers []copier.Copier) stats.JobInfo {
	sources := make([]string, 0, len(copiers))
	destinations := make([]string, 0, len(copiers))

	for _, c := range copiers {
		sources = append(sources, c.Source())
		destinations = append(destinations, c.Destination())
	}

	return stats.JobInfo{
		Name:        o.opts.Job.Name,
		Source:      commonDir(sources),
		Destination: commonDir(destinations),
		Pairs:       len(copiers),
		Options:     o.CommandOptions(),
	}
}

// commonDir returns the deepest directory containing every path.
func commonDir(paths []string) string {
	if len(paths) == 0 {
		return ""
	}

	dir := filepath.Dir(paths[0])

	for _, p := range paths[1:] {
		for !within(dir, p) {
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}

			dir = parent
		}
	}

	return dir
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)

	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
