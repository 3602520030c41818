//nolint:varnamelen // Test files use idiomatic short variable names (t, g, etc.)
package stats_test

import (
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/batchcopy/internal/stats"
)

func TestStatistic_TotalExcludesExtras(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	s := stats.Statistic{Kind: stats.Files, Copied: 3, Skipped: 2, Failed: 1, Mismatch: 4, Extras: 100}
	g.Expect(s.Total()).Should(Equal(int64(10)))
}

func TestStatistic_MergeIsCommutativeAndAssociative(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	a := stats.Statistic{Kind: stats.Bytes, Copied: 1, Skipped: 2, Failed: 3, Mismatch: 4, Extras: 5}
	b := stats.Statistic{Kind: stats.Bytes, Copied: 10, Extras: 7}
	c := stats.Statistic{Kind: stats.Bytes, Skipped: 6, Failed: 9}

	ab := a.Clone()
	ab.Merge(b)

	ba := b.Clone()
	ba.Merge(a)

	g.Expect(ab).Should(Equal(ba))

	left := a.Clone()
	left.Merge(b)
	left.Merge(c)

	bc := b.Clone()
	bc.Merge(c)

	right := a.Clone()
	right.Merge(bc)

	g.Expect(left).Should(Equal(right))
	g.Expect(left.Total()).Should(Equal(a.Total() + b.Total() + c.Total()))
}

func TestStatistic_MergeThenResetIsZero(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	s := stats.NewStatistic(stats.Directories)
	s.Merge(stats.Statistic{Copied: 1, Skipped: 1})
	s.Merge(stats.Statistic{Failed: 2, Extras: 3})
	g.Expect(s.IsZero()).Should(BeFalse())

	s.Reset()
	g.Expect(s).Should(Equal(stats.NewStatistic(stats.Directories)))
	g.Expect(s.IsZero()).Should(BeTrue())
}

func TestStatistic_CloneIsIndependent(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	s := stats.Statistic{Kind: stats.Files, Copied: 1}
	clone := s.Clone()
	clone.Copied = 5

	g.Expect(s.Copied).Should(Equal(int64(1)))
}

func TestStatistic_String(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	s := stats.Statistic{Kind: stats.Files, Copied: 2, Extras: 1}
	g.Expect(s.String()).Should(Equal("Files: total=2 copied=2 skipped=0 mismatch=0 failed=0 extras=1"))
}
