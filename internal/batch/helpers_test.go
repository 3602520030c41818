package batch_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joe/batchcopy/internal/batch"
	"github.com/joe/batchcopy/internal/clock"
	"github.com/joe/batchcopy/internal/copier"
	"github.com/joe/batchcopy/internal/stats"
	"github.com/joe/batchcopy/pkg/fileops"
	"github.com/joe/batchcopy/pkg/filesystem"
)

var epoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// recorder collects events from any goroutine.
type recorder struct {
	mu     sync.Mutex
	events []batch.Event
}

func (r *recorder) Emit(event batch.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
}

func (r *recorder) all() []batch.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]batch.Event(nil), r.events...)
}

func (r *recorder) itemErrors() []batch.ItemError {
	var out []batch.ItemError

	for _, e := range r.all() {
		if ie, ok := e.(batch.ItemError); ok {
			out = append(out, ie)
		}
	}

	return out
}

func (r *recorder) commandErrors() []batch.CommandError {
	var out []batch.CommandError

	for _, e := range r.all() {
		if ce, ok := e.(batch.CommandError); ok {
			out = append(out, ce)
		}
	}

	return out
}

// fileClasses maps each processed file to its class.
func (r *recorder) fileClasses() map[string]stats.Class {
	out := make(map[string]stats.Class)

	for _, e := range r.all() {
		if ip, ok := e.(batch.ItemProcessed); ok && ip.Item.Kind == stats.FileItem {
			out[ip.Item.Name] = ip.Item.Class
		}
	}

	return out
}

func (r *recorder) count(match func(batch.Event) bool) int {
	n := 0

	for _, e := range r.all() {
		if match(e) {
			n++
		}
	}

	return n
}

// heldClock is a mock clock whose waits of hold or longer never fire. It
// records every wait it was asked for.
type heldClock struct {
	*clock.MockTimeProvider

	hold  time.Duration
	mu    sync.Mutex
	waits []time.Duration
}

func newHeldClock(hold time.Duration) *heldClock {
	return &heldClock{MockTimeProvider: clock.NewMockTimeProvider(epoch), hold: hold}
}

func (c *heldClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.waits = append(c.waits, d)
	c.mu.Unlock()

	if d >= c.hold {
		return make(chan time.Time)
	}

	return c.MockTimeProvider.After(d)
}

// held returns the waits that were left blocking.
func (c *heldClock) held() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []time.Duration

	for _, d := range c.waits {
		if d >= c.hold {
			out = append(out, d)
		}
	}

	return out
}

// streamedOn builds a streamed factory and the matching FileOps over fs.
func streamedOn(fs filesystem.FileSystem) (*copier.StreamedFactory, *fileops.FileOps) {
	ops := fileops.NewFileOps(fs)

	return &copier.StreamedFactory{Ops: ops}, ops
}

func pairs(names ...string) []*fileops.FilePair {
	out := make([]*fileops.FilePair, 0, len(names))

	for _, name := range names {
		out = append(out, fileops.NewFilePair("/src/"+name, "/dst/"+name))
	}

	return out
}

// gateCopier is a copier whose copies block until released. It records the
// peak number of copies running at once across a shared counter.
type gateCopier struct {
	pair    *fileops.FilePair
	release chan struct{}
	running *atomic.Int32
	peak    *atomic.Int32
	calls   atomic.Int32
}

func newGateCopiers(n int, release chan struct{}) ([]copier.Copier, *atomic.Int32) {
	running := &atomic.Int32{}
	peak := &atomic.Int32{}
	out := make([]copier.Copier, 0, n)

	for i := range n {
		out = append(out, &gateCopier{
			pair:    fileops.NewFilePair(fmt.Sprintf("/src/%d", i), fmt.Sprintf("/dst/%d", i)),
			release: release,
			running: running,
			peak:    peak,
		})
	}

	return out, peak
}

func (g *gateCopier) Source() string                            { return g.pair.Source }
func (g *gateCopier) Destination() string                       { return g.pair.Destination }
func (g *gateCopier) Pair() *fileops.FilePair                   { return g.pair }
func (g *gateCopier) Flags() fileops.DispositionFlags           { return g.pair.Flags }
func (g *gateCopier) State() copier.State                       { return copier.Idle }
func (g *gateCopier) IsCopying() bool                           { return g.running.Load() > 0 }
func (g *gateCopier) IsPaused() bool                            { return false }
func (g *gateCopier) Progress() float64                         { return 0 }
func (g *gateCopier) SetProgressHandler(copier.ProgressHandler) {}
func (g *gateCopier) Pause()                                    {}
func (g *gateCopier) Resume()                                   {}
func (g *gateCopier) Cancel()                                   {}

func (g *gateCopier) RefreshMetadata() error {
	g.pair.SourceMeta = fileops.FileMeta{Exists: true, Size: 10, ModTime: epoch}
	g.pair.DestMeta = fileops.FileMeta{}

	return nil
}

func (g *gateCopier) Copy(ctx context.Context, _ bool) (bool, error) {
	g.calls.Add(1)

	n := g.running.Add(1)
	defer g.running.Add(-1)

	for {
		peak := g.peak.Load()
		if n <= peak || g.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	select {
	case <-g.release:
		return true, nil
	case <-ctx.Done():
		return false, fmt.Errorf("%w: %s", copier.ErrOperationCancelled, g.pair.Source)
	}
}

func (g *gateCopier) Move(ctx context.Context, overwrite bool) (bool, error) {
	return g.Copy(ctx, overwrite)
}

// failingSink refuses to create its directories.
type failingSink struct {
	appended atomic.Int32
}

var errNoLogDir = errors.New("log volume is read-only")

func (s *failingSink) AppendToLogs(...string) error {
	s.appended.Add(1)
	return nil
}

func (s *failingSink) DeleteLogFiles() error { return nil }

func (s *failingSink) EnsureLogDirectoriesCreated() error { return errNoLogDir }
