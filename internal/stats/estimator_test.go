//nolint:varnamelen // Test files use idiomatic short variable names (t, g, etc.)
package stats_test

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/batchcopy/internal/clock"
	"github.com/joe/batchcopy/internal/stats"
)

var epoch = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

func newEstimator(listOnly bool) (*stats.ProgressEstimator, *clock.MockTimeProvider) {
	provider := clock.NewMockTimeProvider(epoch)

	return stats.NewProgressEstimator(stats.EstimatorOptions{ListOnly: listOnly, Clock: provider}), provider
}

// Zero-byte files never produce copy progress, so every class has to land in
// its bucket the moment it is announced.
func TestProgressEstimator_ZeroByteFilesResolveByClass(t *testing.T) {
	t.Parallel()

	type bucket int

	const (
		copied bucket = iota
		skipped
		failed
		mismatch
		extra
	)

	tests := []struct {
		class    stats.Class
		willCopy bool
		want     bucket
	}{
		{stats.ClassNewFile, true, copied},
		{stats.ClassNewer, true, copied},
		{stats.ClassOlder, true, copied},
		{stats.ClassSame, true, copied},
		{stats.ClassSame, false, skipped},
		{stats.ClassNewerExcluded, false, skipped},
		{stats.ClassOlderExcluded, false, skipped},
		{stats.ClassExcluded, false, skipped},
		{stats.ClassNewFile, false, skipped},
		{stats.ClassFailed, false, failed},
		{stats.ClassMismatch, false, mismatch},
		{stats.ClassExtraFile, false, extra},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/copy=%v", tt.class, tt.willCopy), func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			e, _ := newEstimator(false)
			e.AddFile(stats.NewFileItem(tt.class, "/src/empty", 0), tt.willCopy)

			g.Expect(e.Pending()).Should(BeZero())

			files := e.Finalize().Files
			got := map[bucket]int64{
				copied:   files.Copied,
				skipped:  files.Skipped,
				failed:   files.Failed,
				mismatch: files.Mismatch,
				extra:    files.Extras,
			}

			for b, n := range got {
				if b == tt.want {
					g.Expect(n).Should(Equal(int64(1)), "bucket %d", b)
				} else {
					g.Expect(n).Should(BeZero(), "bucket %d", b)
				}
			}

			if tt.want == extra {
				g.Expect(files.Total()).Should(BeZero())
			} else {
				g.Expect(files.Total()).Should(Equal(int64(1)))
			}
		})
	}
}

func TestProgressEstimator_ListOnlyCountsCandidatesAsCopied(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	e, _ := newEstimator(true)
	e.AddFile(stats.NewFileItem(stats.ClassNewFile, "/src/a", 500), true)
	e.AddFile(stats.NewFileItem(stats.ClassSame, "/src/b", 20), false)

	g.Expect(e.Pending()).Should(BeZero())

	snap := e.Finalize()
	g.Expect(snap.Files.Copied).Should(Equal(int64(1)))
	g.Expect(snap.Files.Skipped).Should(Equal(int64(1)))
	g.Expect(snap.Bytes.Copied).Should(Equal(int64(500)))
	g.Expect(snap.Bytes.Skipped).Should(Equal(int64(20)))
}

func TestProgressEstimator_StartedThenFinishedIsCopied(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	e, _ := newEstimator(false)
	e.AddFile(stats.NewFileItem(stats.ClassNewFile, "/src/a", 100), true)
	g.Expect(e.Pending()).Should(Equal(1))
	g.Expect(e.SetCopyStarted("/src/a")).Should(BeTrue())
	e.AddFileCopied("/src/a")

	snap := e.Finalize()
	g.Expect(snap.Files.Copied).Should(Equal(int64(1)))
	g.Expect(snap.Files.Skipped).Should(BeZero())
	g.Expect(snap.Bytes.Copied).Should(Equal(int64(100)))
	g.Expect(snap.Bytes.Total()).Should(Equal(int64(100)))
}

func TestProgressEstimator_FinishedWithoutStartStaysSkipped(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	e, _ := newEstimator(false)
	e.AddFile(stats.NewFileItem(stats.ClassNewer, "/src/a", 100), true)
	e.AddFileCopied("/src/a")

	snap := e.Finalize()
	g.Expect(snap.Files.Copied).Should(BeZero())
	g.Expect(snap.Files.Skipped).Should(Equal(int64(1)))
	g.Expect(e.SetCopyStarted("/src/a")).Should(BeFalse())
}

func TestProgressEstimator_FailedResolution(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	e, _ := newEstimator(false)
	e.AddFile(stats.NewFileItem(stats.ClassNewFile, "/src/a", 40), true)
	e.SetCopyStarted("/src/a")
	e.AddFileFailed("/src/a")

	snap := e.Finalize()
	g.Expect(snap.Files.Failed).Should(Equal(int64(1)))
	g.Expect(snap.Files.Skipped).Should(BeZero())
	g.Expect(snap.Bytes.Failed).Should(Equal(int64(40)))
}

func TestProgressEstimator_FinalizeResolvesPendingFiles(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	e, _ := newEstimator(false)
	e.AddFile(stats.NewFileItem(stats.ClassNewFile, "/src/started", 10), true)
	e.AddFile(stats.NewFileItem(stats.ClassNewFile, "/src/waiting", 20), true)
	e.SetCopyStarted("/src/started")

	snap := e.Finalize()
	g.Expect(snap.Files.Failed).Should(Equal(int64(1)))
	g.Expect(snap.Files.Skipped).Should(Equal(int64(1)))
	g.Expect(snap.Bytes.Failed).Should(Equal(int64(10)))
	g.Expect(snap.Bytes.Skipped).Should(Equal(int64(20)))
	g.Expect(e.Pending()).Should(BeZero())
}

func TestProgressEstimator_ReannouncedFileIsNotDoubleCounted(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	e, _ := newEstimator(false)
	e.AddFile(stats.NewFileItem(stats.ClassNewFile, "/src/a", 10), true)
	e.AddFile(stats.NewFileItem(stats.ClassNewFile, "/src/a", 12), true)
	g.Expect(e.Pending()).Should(Equal(1))

	e.SetCopyStarted("/src/a")
	e.AddFileCopied("/src/a")

	snap := e.Finalize()
	g.Expect(snap.Files.Total()).Should(Equal(int64(1)))
	g.Expect(snap.Bytes.Copied).Should(Equal(int64(12)))
	g.Expect(snap.Bytes.Skipped).Should(BeZero())
}

func TestProgressEstimator_SharedSourceIsTrackedPerDestination(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	e, _ := newEstimator(false)
	first := stats.NewFileItem(stats.ClassNewFile, "/src/a.txt", 10).WithDestination("/d1/a.txt")
	second := stats.NewFileItem(stats.ClassNewFile, "/src/a.txt", 10).WithDestination("/d2/a.txt")

	e.AddFile(first, true)
	e.AddFile(second, true)
	g.Expect(e.Pending()).Should(Equal(2))

	g.Expect(e.SetCopyStarted(first.Key())).Should(BeTrue())
	g.Expect(e.SetCopyStarted(second.Key())).Should(BeTrue())
	e.AddFileCopied(first.Key())
	e.AddFileFailed(second.Key())

	snap := e.Finalize()
	g.Expect(snap.Files.Total()).Should(Equal(int64(2)))
	g.Expect(snap.Files.Copied).Should(Equal(int64(1)))
	g.Expect(snap.Files.Failed).Should(Equal(int64(1)))
	g.Expect(snap.Files.Skipped).Should(BeZero())
	g.Expect(snap.Bytes.Copied).Should(Equal(int64(10)))
}

func TestProcessedItemInfo_KeyFallsBackToName(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	item := stats.NewFileItem(stats.ClassNewFile, "/src/a.txt", 1)
	g.Expect(item.Key()).Should(Equal("/src/a.txt"))
	g.Expect(item.WithDestination("/dst/a.txt").Key()).Should(Equal("/dst/a.txt"))
	g.Expect(item.Destination).Should(BeEmpty())
}

func TestProgressEstimator_Directories(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	e, _ := newEstimator(false)
	g.Expect(e.AddDir(stats.NewDirItem(stats.ClassNewDir, "/dst/new"))).Should(BeTrue())
	g.Expect(e.AddDir(stats.NewDirItem(stats.ClassNewDir, "/dst/new"))).Should(BeFalse())
	g.Expect(e.AddDir(stats.NewDirItem(stats.ClassExistingDir, "/dst/old"))).Should(BeTrue())
	g.Expect(e.AddDir(stats.NewDirItem(stats.ClassExtraDir, "/dst/gone"))).Should(BeTrue())
	g.Expect(e.AddDir(stats.NewDirItem(stats.ClassExcludedDir, "/dst/skip"))).Should(BeTrue())

	dirs := e.Finalize().Dirs
	g.Expect(dirs.Kind).Should(Equal(stats.Directories))
	g.Expect(dirs.Copied).Should(Equal(int64(1)))
	g.Expect(dirs.Skipped).Should(Equal(int64(2)))
	g.Expect(dirs.Extras).Should(Equal(int64(1)))
	g.Expect(dirs.Total()).Should(Equal(int64(3)))
}

func TestProgressEstimator_FinalizeIsIdempotent(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	var updates atomic.Int32

	provider := clock.NewMockTimeProvider(epoch)
	e := stats.NewProgressEstimator(stats.EstimatorOptions{
		Clock:    provider,
		OnUpdate: func(stats.Snapshot) { updates.Add(1) },
	})

	e.AddFile(stats.NewFileItem(stats.ClassNewFile, "/src/a", 0), true)

	first := e.Finalize()
	g.Expect(updates.Load()).Should(Equal(int32(1)))

	e.AddFile(stats.NewFileItem(stats.ClassNewFile, "/src/late", 0), true)
	e.AddDir(stats.NewDirItem(stats.ClassNewDir, "/dst/late"))

	second := e.Finalize()
	g.Expect(second).Should(Equal(first))
	g.Expect(updates.Load()).Should(Equal(int32(1)))
}

func TestProgressEstimator_PublishesOnTick(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	e, provider := newEstimator(false)
	defer e.Finalize()

	e.AddFile(stats.NewFileItem(stats.ClassSame, "/src/a", 5), false)

	// Nothing is public until the loop runs.
	g.Consistently(e.FilesStatistic, 50*time.Millisecond).Should(Equal(stats.NewStatistic(stats.Files)))

	g.Expect(provider.Ticker.Tick()).Should(BeTrue())
	g.Eventually(func() int64 { return e.FilesStatistic().Skipped }).Should(Equal(int64(1)))
	g.Expect(e.BytesStatistic().Skipped).Should(Equal(int64(5)))
}

func TestProgressEstimator_OverdueWakePublishesWithoutTick(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	e, provider := newEstimator(false)
	defer e.Finalize()

	provider.Advance(stats.DefaultPublishInterval + time.Millisecond)
	e.AddFile(stats.NewFileItem(stats.ClassMismatch, "/src/a", 1), false)

	g.Eventually(func() int64 { return e.FilesStatistic().Mismatch }).Should(Equal(int64(1)))
}

func TestProgressEstimator_ConcurrentProducers(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	e := stats.NewProgressEstimator(stats.EstimatorOptions{Interval: time.Millisecond})

	const workers, perWorker = 8, 50

	var wg sync.WaitGroup

	for w := range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range perWorker {
				name := fmt.Sprintf("/src/%d/%d", w, i)
				e.AddFile(stats.NewFileItem(stats.ClassNewFile, name, 3), true)
				e.SetCopyStarted(name)
				e.AddFileCopied(name)
				e.AddDir(stats.NewDirItem(stats.ClassNewDir, fmt.Sprintf("/dst/%d/%d", w, i)))
			}
		}()
	}

	wg.Wait()

	snap := e.Finalize()
	g.Expect(snap.Files.Copied).Should(Equal(int64(workers * perWorker)))
	g.Expect(snap.Files.Skipped).Should(BeZero())
	g.Expect(snap.Bytes.Copied).Should(Equal(int64(3 * workers * perWorker)))
	g.Expect(snap.Dirs.Copied).Should(BeNumerically(">", 0))
	g.Expect(snap.Dirs.Total()).Should(Equal(snap.Dirs.Copied))
}
