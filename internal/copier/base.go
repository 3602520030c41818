package copier

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joe/batchcopy/internal/clock"
	"github.com/joe/batchcopy/pkg/fileops"
	"github.com/joe/batchcopy/pkg/filesystem"
)

// Exported constants.
const (
	// PauseInterval is how often a paused copy checks whether to go on.
	PauseInterval = 75 * time.Millisecond
	// ProgressInterval is how often streamed copies report progress.
	ProgressInterval = 100 * time.Millisecond
)

// base holds the state machine, pause flag, cancellation and progress
// reporting shared by both backends.
type base struct {
	pair  *fileops.FilePair
	flags fileops.DispositionFlags
	clock clock.TimeProvider

	mu      sync.Mutex
	state   State
	cancel  context.CancelFunc
	handler ProgressHandler

	paused   atomic.Bool
	progress atomic.Uint64
}

func (b *base) init(pair *fileops.FilePair, provider clock.TimeProvider) {
	if provider == nil {
		provider = clock.Real()
	}

	b.pair = pair
	b.flags = pair.Flags
	b.clock = provider
}

func (b *base) Source() string                  { return b.pair.Source }
func (b *base) Destination() string             { return b.pair.Destination }
func (b *base) Pair() *fileops.FilePair         { return b.pair }
func (b *base) Flags() fileops.DispositionFlags { return b.flags }
func (b *base) IsPaused() bool                  { return b.paused.Load() }
func (b *base) Progress() float64               { return math.Float64frombits(b.progress.Load()) }

func (b *base) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state
}

func (b *base) IsCopying() bool {
	state := b.State()

	return state == Copying || state == Paused
}

func (b *base) SetProgressHandler(handler ProgressHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handler = handler
}

// Pause asks a running copy to pause. It has no effect when idle.
func (b *base) Pause() {
	if b.IsCopying() {
		b.paused.Store(true)
	}
}

// Resume clears the pause flag.
func (b *base) Resume() {
	b.paused.Store(false)
}

// Cancel stops the running operation, if any.
func (b *base) Cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cancel != nil {
		b.cancel()
	}
}

// begin moves the copier into Copying and returns the operation context.
func (b *base) begin(ctx context.Context) (context.Context, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == Copying || b.state == Paused {
		return nil, fmt.Errorf("%w: %s is already %s", ErrInvalidState, b.pair.Source, b.state)
	}

	opCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.state = Copying
	b.paused.Store(false)
	b.progress.Store(0)

	return opCtx, nil
}

// finish resolves the operation and moves the copier to a terminal state.
func (b *base) finish(err error) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}

	b.paused.Store(false)

	switch {
	case err == nil:
		b.state = Completed
	case errors.Is(err, ErrOperationCancelled):
		b.state = Cancelled
	default:
		b.state = Failed
	}

	return err == nil, err
}

func (b *base) setState(state State) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = state
}

// report publishes progress. Empty files never report.
func (b *base) report(copied, total int64) {
	if total <= 0 {
		return
	}

	percent := min(float64(copied)/float64(total)*100, 100) //nolint:mnd // Percent

	b.progress.Store(math.Float64bits(percent))

	b.mu.Lock()
	handler := b.handler
	b.mu.Unlock()

	if handler != nil {
		handler(Progress{
			Source:      b.pair.Source,
			Destination: b.pair.Destination,
			BytesCopied: copied,
			TotalBytes:  total,
			Percent:     percent,
		})
	}
}

// cancelled wraps ErrOperationCancelled for this pair.
func (b *base) cancelled() error {
	return fmt.Errorf("%w: %s", ErrOperationCancelled, b.pair.Source)
}

// waitWhilePaused blocks while the pause flag is set, polling every interval.
func (b *base) waitWhilePaused(ctx context.Context, interval time.Duration) error {
	if !b.paused.Load() {
		return nil
	}

	ticker := b.clock.NewTicker(interval)
	defer ticker.Stop()

	for b.paused.Load() {
		select {
		case <-ctx.Done():
			return b.cancelled()
		case <-ticker.C():
		}
	}

	return nil
}

// precheck refreshes the pair and enforces the source and overwrite rules.
func (b *base) precheck(srcFS, dstFS filesystem.FileSystem, overwrite bool) error {
	err := b.pair.RefreshSource(srcFS)
	if err != nil {
		return err
	}

	if !b.pair.SourceMeta.Exists {
		return fmt.Errorf("%w: %s", ErrFileNotFound, b.pair.Source)
	}

	if b.pair.SourceMeta.IsDir {
		return fmt.Errorf("%w: %s is a directory", ErrPathInvalid, b.pair.Source)
	}

	err = b.pair.RefreshDestination(dstFS)
	if err != nil {
		return err
	}

	if b.pair.DestMeta.Exists && !overwrite {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, b.pair.Destination)
	}

	if b.pair.DestMeta.IsDir {
		return fmt.Errorf("%w: %s is a directory", ErrPathInvalid, b.pair.Destination)
	}

	return nil
}
