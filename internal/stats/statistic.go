// Package stats classifies processed items into running counters and builds
// the final results of a batch run.
package stats

import "fmt"

// Kind is the unit a Statistic counts.
type Kind int

// Statistic kinds.
const (
	Files Kind = iota
	Directories
	Bytes
)

// String returns the label used in the summary table.
func (k Kind) String() string {
	switch k {
	case Files:
		return "Files"
	case Directories:
		return "Dirs"
	case Bytes:
		return "Bytes"
	default:
		return "unknown"
	}
}

// Statistic counts the outcomes of one unit. Extras are reported alongside
// but never count toward Total.
type Statistic struct {
	Kind     Kind
	Copied   int64
	Skipped  int64
	Failed   int64
	Mismatch int64
	Extras   int64
}

// NewStatistic returns a zero counter of the given kind.
func NewStatistic(kind Kind) Statistic {
	return Statistic{Kind: kind}
}

// Total is Copied + Skipped + Failed + Mismatch.
func (s Statistic) Total() int64 {
	return s.Copied + s.Skipped + s.Failed + s.Mismatch
}

// Merge adds every counter of other into s. The kind of s is kept.
func (s *Statistic) Merge(other Statistic) {
	s.Copied += other.Copied
	s.Skipped += other.Skipped
	s.Failed += other.Failed
	s.Mismatch += other.Mismatch
	s.Extras += other.Extras
}

// Reset zeroes the counters and keeps the kind.
func (s *Statistic) Reset() {
	*s = Statistic{Kind: s.Kind}
}

// Clone returns an independent copy.
func (s Statistic) Clone() Statistic {
	return s
}

// IsZero reports whether no counter has been touched.
func (s Statistic) IsZero() bool {
	return s.Copied == 0 && s.Skipped == 0 && s.Failed == 0 && s.Mismatch == 0 && s.Extras == 0
}

// String renders the counters in summary table order.
func (s Statistic) String() string {
	return fmt.Sprintf("%s: total=%d copied=%d skipped=%d mismatch=%d failed=%d extras=%d",
		s.Kind, s.Total(), s.Copied, s.Skipped, s.Mismatch, s.Failed, s.Extras)
}

// swap returns the current counters and resets s.
func (s *Statistic) swap() Statistic {
	snapshot := *s
	s.Reset()

	return snapshot
}
