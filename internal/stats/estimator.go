package stats

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/joe/batchcopy/internal/clock"
)

// DefaultPublishInterval is how often staged counts are published.
const DefaultPublishInterval = 150 * time.Millisecond

// Snapshot is one published view of all three counters.
type Snapshot struct {
	Dirs  Statistic
	Files Statistic
	Bytes Statistic
}

// EstimatorOptions configures a ProgressEstimator.
type EstimatorOptions struct {
	// ListOnly resolves files that would be copied as Copied at once.
	ListOnly bool
	// Interval between publishes. Zero means DefaultPublishInterval.
	Interval time.Duration
	Clock    clock.TimeProvider
	// OnUpdate is called from the publish loop after every publish that
	// changed the counters. It must not call Finalize.
	OnUpdate func(Snapshot)
}

type pendingFile struct {
	item    ProcessedItemInfo
	started bool
}

// ProgressEstimator turns item outcomes into running statistics.
//
// Producers only touch the staging counters: files and bytes under one lock,
// directories under another. A background loop swaps the staged counts out
// and merges them into the public counters, which nothing else writes.
type ProgressEstimator struct {
	listOnly bool
	interval time.Duration
	clock    clock.TimeProvider
	onUpdate func(Snapshot)

	fileMu      sync.Mutex
	stagedFiles Statistic
	stagedBytes Statistic
	pending     map[string]*pendingFile

	dirMu      sync.Mutex
	stagedDirs Statistic
	currentDir string

	publicMu sync.RWMutex
	public   Snapshot

	nextWake     atomic.Int64
	wake         chan struct{}
	stop         chan struct{}
	done         chan struct{}
	finalized    atomic.Bool
	finalizeOnce sync.Once
}

// NewProgressEstimator creates an estimator and starts its publish loop.
func NewProgressEstimator(opts EstimatorOptions) *ProgressEstimator {
	if opts.Interval <= 0 {
		opts.Interval = DefaultPublishInterval
	}

	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}

	e := &ProgressEstimator{
		listOnly:    opts.ListOnly,
		interval:    opts.Interval,
		clock:       opts.Clock,
		onUpdate:    opts.OnUpdate,
		stagedFiles: NewStatistic(Files),
		stagedBytes: NewStatistic(Bytes),
		stagedDirs:  NewStatistic(Directories),
		pending:     make(map[string]*pendingFile),
		public: Snapshot{
			Dirs:  NewStatistic(Directories),
			Files: NewStatistic(Files),
			Bytes: NewStatistic(Bytes),
		},
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	e.scheduleWake()

	go e.loop(e.clock.NewTicker(e.interval))

	return e
}

// AddFile records a file's disposition. Files that will not be copied are
// counted by class at once. Files that will be copied resolve as Copied at
// once when empty or in list-only mode; otherwise they are provisionally
// Skipped until SetCopyStarted and AddFileCopied arrive with its Key.
func (e *ProgressEstimator) AddFile(item ProcessedItemInfo, willCopy bool) {
	if e.finalized.Load() {
		return
	}

	e.fileMu.Lock()

	key := item.Key()

	// A re-announced file replaces its earlier provisional entry.
	if prev, ok := e.pending[key]; ok {
		e.stageFile(prev.item, func(s *Statistic, n int64) { s.Skipped -= n })
		delete(e.pending, key)
	}

	switch {
	case !willCopy:
		e.stageFile(item, routeByClass(item.Class))
	case item.Size == 0 || e.listOnly:
		e.stageFile(item, func(s *Statistic, n int64) { s.Copied += n })
	default:
		e.stageFile(item, func(s *Statistic, n int64) { s.Skipped += n })
		e.pending[key] = &pendingFile{item: item}
	}

	e.fileMu.Unlock()
	e.poke()
}

// SetCopyStarted marks a pending file as being copied. It reports false when
// no file with key is pending.
func (e *ProgressEstimator) SetCopyStarted(key string) bool {
	e.fileMu.Lock()
	defer e.fileMu.Unlock()

	p, ok := e.pending[key]
	if ok {
		p.started = true
	}

	return ok
}

// AddFileCopied resolves a pending file. It becomes Copied only if its copy
// was started; otherwise it stays Skipped.
func (e *ProgressEstimator) AddFileCopied(key string) {
	e.resolve(key, func(s *Statistic, n int64) {
		s.Skipped -= n
		s.Copied += n
	})
}

// AddFileFailed resolves a pending file as Failed.
func (e *ProgressEstimator) AddFileFailed(key string) {
	e.fileMu.Lock()

	p, ok := e.pending[key]
	if ok {
		delete(e.pending, key)
		e.stageFile(p.item, func(s *Statistic, n int64) {
			s.Skipped -= n
			s.Failed += n
		})
	}

	e.fileMu.Unlock()

	if ok {
		e.poke()
	}
}

func (e *ProgressEstimator) resolve(key string, promote func(*Statistic, int64)) {
	e.fileMu.Lock()

	p, ok := e.pending[key]
	if ok {
		delete(e.pending, key)

		if p.started {
			e.stageFile(p.item, promote)
		}
	}

	e.fileMu.Unlock()

	if ok {
		e.poke()
	}
}

// AddDir records a directory. Announcing the current directory again is
// ignored; AddDir reports whether the directory was counted.
func (e *ProgressEstimator) AddDir(item ProcessedItemInfo) bool {
	if e.finalized.Load() {
		return false
	}

	e.dirMu.Lock()

	if item.Name == e.currentDir {
		e.dirMu.Unlock()
		return false
	}

	e.currentDir = item.Name

	switch item.Class {
	case ClassNewDir:
		e.stagedDirs.Copied++
	case ClassExtraDir:
		e.stagedDirs.Extras++
	default:
		e.stagedDirs.Skipped++
	}

	e.dirMu.Unlock()
	e.poke()

	return true
}

// Pending returns the number of files waiting for their copy to finish.
func (e *ProgressEstimator) Pending() int {
	e.fileMu.Lock()
	defer e.fileMu.Unlock()

	return len(e.pending)
}

// Snapshot returns the last published counters.
func (e *ProgressEstimator) Snapshot() Snapshot {
	e.publicMu.RLock()
	defer e.publicMu.RUnlock()

	return e.public
}

// FilesStatistic returns the published file counters.
func (e *ProgressEstimator) FilesStatistic() Statistic { return e.Snapshot().Files }

// DirectoriesStatistic returns the published directory counters.
func (e *ProgressEstimator) DirectoriesStatistic() Statistic { return e.Snapshot().Dirs }

// BytesStatistic returns the published byte counters.
func (e *ProgressEstimator) BytesStatistic() Statistic { return e.Snapshot().Bytes }

// Finalize stops the publish loop, resolves files still pending (Failed if
// their copy had started, Skipped otherwise) and publishes one last time.
// Later calls return the same snapshot.
func (e *ProgressEstimator) Finalize() Snapshot {
	e.finalizeOnce.Do(func() {
		e.finalized.Store(true)
		close(e.stop)
		<-e.done

		e.fileMu.Lock()
		for key, p := range e.pending {
			if p.started {
				e.stageFile(p.item, func(s *Statistic, n int64) {
					s.Skipped -= n
					s.Failed += n
				})
			}

			delete(e.pending, key)
		}
		e.fileMu.Unlock()

		e.publish()
	})

	return e.Snapshot()
}

// stageFile applies change to the staged file count (by one) and byte count
// (by the item size). Callers hold fileMu.
func (e *ProgressEstimator) stageFile(item ProcessedItemInfo, change func(*Statistic, int64)) {
	change(&e.stagedFiles, 1)
	change(&e.stagedBytes, item.Size)
}

func routeByClass(class Class) func(*Statistic, int64) {
	switch class {
	case ClassExtraFile:
		return func(s *Statistic, n int64) { s.Extras += n }
	case ClassMismatch:
		return func(s *Statistic, n int64) { s.Mismatch += n }
	case ClassFailed:
		return func(s *Statistic, n int64) { s.Failed += n }
	default:
		return func(s *Statistic, n int64) { s.Skipped += n }
	}
}

// poke wakes the loop early when its scheduled wake is already overdue.
func (e *ProgressEstimator) poke() {
	if e.clock.Now().UnixNano() < e.nextWake.Load() {
		return
	}

	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *ProgressEstimator) scheduleWake() {
	e.nextWake.Store(e.clock.Now().Add(e.interval).UnixNano())
}

func (e *ProgressEstimator) loop(ticker clock.Ticker) {
	defer close(e.done)
	defer ticker.Stop()

	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C():
		case <-e.wake:
		}

		e.publish()
	}
}

// publish swaps the staging counters out and merges them into the public
// ones. Only the loop, and Finalize once the loop has exited, call it.
func (e *ProgressEstimator) publish() {
	e.fileMu.Lock()
	files := e.stagedFiles.swap()
	byteCounts := e.stagedBytes.swap()
	e.fileMu.Unlock()

	e.dirMu.Lock()
	dirs := e.stagedDirs.swap()
	e.dirMu.Unlock()

	e.scheduleWake()

	if files.IsZero() && byteCounts.IsZero() && dirs.IsZero() {
		return
	}

	e.publicMu.Lock()
	e.public.Files.Merge(files)
	e.public.Bytes.Merge(byteCounts)
	e.public.Dirs.Merge(dirs)
	snapshot := e.public
	e.publicMu.Unlock()

	if e.onUpdate != nil {
		e.onUpdate(snapshot)
	}
}
