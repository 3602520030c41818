//nolint:varnamelen // Test files use idiomatic short variable names (t, g, etc.)
package stats_test

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/batchcopy/internal/clock"
	"github.com/joe/batchcopy/internal/stats"
)

type memorySink struct {
	mu    sync.Mutex
	lines []string
	err   error
}

func (s *memorySink) AppendToLogs(lines ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}

	s.lines = append(s.lines, lines...)

	return nil
}

func (s *memorySink) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.lines...)
}

func newBuilder(noFileList bool, sink stats.LineAppender) (*stats.ResultsBuilder, *clock.MockTimeProvider) {
	provider := clock.NewMockTimeProvider(epoch)
	estimator := stats.NewProgressEstimator(stats.EstimatorOptions{Clock: provider})

	return stats.NewResultsBuilder(stats.BuilderOptions{
		Job: stats.JobInfo{
			Name:        "nightly",
			Source:      "/src",
			Destination: "/dst",
			Pairs:       2,
			Options:     "/MT:1 /R:0 /W:1s",
		},
		NoFileList: noFileList,
		Sink:       sink,
		Clock:      provider,
		Estimator:  estimator,
	}), provider
}

func containing(lines []string, substr string) []string {
	var out []string

	for _, l := range lines {
		if strings.Contains(l, substr) {
			out = append(out, l)
		}
	}

	return out
}

func TestExitStatusOf(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(stats.ExitStatusOf(stats.Snapshot{}, false)).Should(BeZero())

	snap := stats.Snapshot{
		Files: stats.Statistic{Copied: 1, Extras: 1, Mismatch: 1, Failed: 1},
	}
	status := stats.ExitStatusOf(snap, true)

	g.Expect(status.Has(stats.FilesCopied)).Should(BeTrue())
	g.Expect(status.Has(stats.ExtraDetected)).Should(BeTrue())
	g.Expect(status.Has(stats.MismatchDetected)).Should(BeTrue())
	g.Expect(status.Has(stats.SomeFailed)).Should(BeTrue())
	g.Expect(status.Has(stats.Cancelled)).Should(BeTrue())
	g.Expect(status.Has(stats.SeriousError)).Should(BeFalse())
	g.Expect(status.String()).Should(Equal("FilesCopied|ExtraDetected|MismatchDetected|SomeFailed|Cancelled"))

	dirsOnly := stats.ExitStatusOf(stats.Snapshot{Dirs: stats.Statistic{Extras: 2}}, false)
	g.Expect(dirsOnly).Should(Equal(stats.ExtraDetected))
	g.Expect(stats.ExitStatus(0).String()).Should(Equal("NoChange"))
}

func TestErrorEntry_String(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	entry := stats.ErrorEntry{
		Time:     time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC),
		Code:     2,
		Category: "not found",
		Verb:     "Copying File",
		Path:     "/src/a.txt",
		Message:  "source file not found",
	}

	g.Expect(entry.String()).Should(Equal(
		"2024/03/04 05:06:07 ERROR 2 (not found) Copying File /src/a.txt: source file not found"))
}

func TestResultsBuilder_HeaderItemsAndSummary(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	sink := &memorySink{}
	b, provider := newBuilder(false, sink)

	b.WriteHeader()

	item := stats.NewFileItem(stats.ClassNewFile, "/src/a.txt", 2048)
	b.Estimator().AddFile(item, true)
	b.Estimator().SetCopyStarted(item.Name)
	b.LogItem(item)
	b.Estimator().AddFileCopied(item.Name)
	b.AddSpeed(2048, time.Second)

	dir := stats.NewDirItem(stats.ClassNewDir, "/dst")
	b.Estimator().AddDir(dir)
	b.LogItem(dir)
	b.LogItem(stats.NewMessage("retrying in 1s"))

	provider.Advance(65 * time.Second)

	results := b.Finish(false)

	g.Expect(results.Files.Copied).Should(Equal(int64(1)))
	g.Expect(results.Bytes.Copied).Should(Equal(int64(2048)))
	g.Expect(results.Dirs.Copied).Should(Equal(int64(1)))
	g.Expect(results.Status).Should(Equal(stats.FilesCopied))
	g.Expect(results.Elapsed()).Should(Equal(65 * time.Second))
	g.Expect(results.Speed.BytesPerSecond).Should(BeNumerically("~", 2048, 0.001))
	g.Expect(results.Job.Name).Should(Equal("nightly"))

	g.Expect(containing(results.Log, "batchcopy :: nightly")).Should(HaveLen(1))
	g.Expect(containing(results.Log, "Options : /MT:1 /R:0 /W:1s")).Should(HaveLen(1))
	g.Expect(containing(results.Log, "/src/a.txt")).Should(HaveLen(1))
	g.Expect(containing(results.Log, "New Dir")).Should(HaveLen(1))
	g.Expect(containing(results.Log, "retrying in 1s")).Should(HaveLen(1))
	g.Expect(containing(results.Log, "0:01:05")).Should(HaveLen(1))
	g.Expect(containing(results.Log, "Status : FilesCopied")).Should(HaveLen(1))

	files := containing(results.Log, "   Files : ")
	g.Expect(files).Should(HaveLen(1))
	g.Expect(strings.Fields(files[0])).Should(Equal([]string{"Files", ":", "1", "1", "0", "0", "0", "0"}))

	g.Expect(sink.all()).Should(Equal(results.Log))
}

func TestResultsBuilder_NoFileListKeepsHeaderSummaryAndMessages(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	b, _ := newBuilder(true, nil)

	b.WriteHeader()
	b.LogItem(stats.NewFileItem(stats.ClassNewFile, "/src/hidden.txt", 1))
	b.LogItem(stats.NewDirItem(stats.ClassNewDir, "/dst/hidden"))
	b.LogItem(stats.NewMessage("system message"))
	b.LogError(stats.ErrorEntry{Time: epoch, Code: 5, Category: "permission", Verb: "Copying File", Path: "/src/x", Message: "denied"})

	results := b.Finish(false)

	g.Expect(containing(results.Log, "hidden")).Should(BeEmpty())
	g.Expect(containing(results.Log, "batchcopy :: nightly")).Should(HaveLen(1))
	g.Expect(containing(results.Log, "system message")).Should(HaveLen(1))
	g.Expect(containing(results.Log, "ERROR 5 (permission)")).Should(HaveLen(1))
	g.Expect(containing(results.Log, "Total")).Should(HaveLen(1))
}

func TestResultsBuilder_FinishIsIdempotent(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	b, _ := newBuilder(false, nil)
	b.Estimator().AddFile(stats.NewFileItem(stats.ClassExtraFile, "/dst/extra", 9), false)

	first := b.Finish(true)
	g.Expect(first.Status).Should(Equal(stats.ExtraDetected | stats.Cancelled))

	b.LogMessage("after finish %d", 1)

	second := b.Finish(false)
	g.Expect(second).Should(BeIdenticalTo(first))
	g.Expect(containing(second.Log, "after finish")).Should(BeEmpty())
}

func TestResultsBuilder_FailingSinkKeepsMemoryLog(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	sinkErr := errors.New("disk full")
	b, _ := newBuilder(false, &memorySink{err: sinkErr})

	b.WriteHeader()
	results := b.Finish(false)

	g.Expect(b.SinkErr()).Should(MatchError(sinkErr))
	g.Expect(containing(results.Log, "batchcopy :: nightly")).Should(HaveLen(1))
}
