package stats

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/joe/batchcopy/internal/clock"
)

// ExitStatus is the bit set summarising a run. The values match the exit
// codes of the mirroring tool the log format follows.
type ExitStatus uint8

// Exit status flags.
const (
	FilesCopied ExitStatus = 1 << iota
	ExtraDetected
	MismatchDetected
	SomeFailed
	Cancelled
	// SeriousError is used when a run could not start at all.
	SeriousError
)

// Has reports whether every bit of flag is set.
func (s ExitStatus) Has(flag ExitStatus) bool {
	return s&flag == flag
}

// String lists the set flags.
func (s ExitStatus) String() string {
	if s == 0 {
		return "NoChange"
	}

	names := []struct {
		flag ExitStatus
		name string
	}{
		{FilesCopied, "FilesCopied"},
		{ExtraDetected, "ExtraDetected"},
		{MismatchDetected, "MismatchDetected"},
		{SomeFailed, "SomeFailed"},
		{Cancelled, "Cancelled"},
		{SeriousError, "SeriousError"},
	}

	var parts []string

	for _, n := range names {
		if s.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}

	return strings.Join(parts, "|")
}

// ExitStatusOf derives the exit flags from final counters.
func ExitStatusOf(snap Snapshot, cancelled bool) ExitStatus {
	var status ExitStatus

	if snap.Files.Copied > 0 {
		status |= FilesCopied
	}

	if snap.Files.Extras > 0 || snap.Dirs.Extras > 0 {
		status |= ExtraDetected
	}

	if snap.Files.Mismatch > 0 || snap.Dirs.Mismatch > 0 {
		status |= MismatchDetected
	}

	if snap.Files.Failed > 0 || snap.Dirs.Failed > 0 {
		status |= SomeFailed
	}

	if cancelled {
		status |= Cancelled
	}

	return status
}

// JobInfo is the metadata printed in the log header.
type JobInfo struct {
	Name        string
	Source      string
	Destination string
	Pairs       int
	Options     string
}

// Results is the final, read-only outcome of a run.
type Results struct {
	Job     JobInfo
	Started time.Time
	Ended   time.Time
	Dirs    Statistic
	Files   Statistic
	Bytes   Statistic
	Speed   Speed
	Status  ExitStatus
	Log     []string
}

// Elapsed is the wall time of the run.
func (r *Results) Elapsed() time.Duration {
	return r.Ended.Sub(r.Started)
}

// ErrorEntry is one failed attempt, logged as
// "2006/01/02 15:04:05 ERROR <code> (<category>) <verb> <path>: <message>".
type ErrorEntry struct {
	Time     time.Time
	Code     int
	Category string
	Verb     string
	Path     string
	Message  string
}

func (e ErrorEntry) String() string {
	return fmt.Sprintf("%s ERROR %d (%s) %s %s: %s",
		e.Time.Format("2006/01/02 15:04:05"), e.Code, e.Category, e.Verb, e.Path, e.Message)
}

// LineAppender receives every log line the builder writes.
type LineAppender interface {
	AppendToLogs(lines ...string) error
}

// BuilderOptions configures a ResultsBuilder.
type BuilderOptions struct {
	Job JobInfo
	// NoFileList drops per-file and per-directory lines from the log.
	NoFileList bool
	// Sink is optional.
	Sink      LineAppender
	Clock     clock.TimeProvider
	Logger    *zerolog.Logger
	Estimator *ProgressEstimator
}

const (
	logChannelSize = 256
	separator      = "------------------------------------------------------------------------------"
)

// ResultsBuilder owns the log of one run. A single writer goroutine appends
// lines to the buffer and forwards them to the sink.
type ResultsBuilder struct {
	job        JobInfo
	noFileList bool
	sink       LineAppender
	clock      clock.TimeProvider
	logger     *zerolog.Logger
	estimator  *ProgressEstimator
	speed      AverageSpeed
	started    time.Time

	sendMu sync.RWMutex
	closed bool
	lines  chan []string
	done   chan struct{}

	bufMu   sync.Mutex
	buffer  []string
	sinkErr error

	finishOnce sync.Once
	results    *Results
}

// NewResultsBuilder starts a builder. A nil Estimator gets a default one.
func NewResultsBuilder(opts BuilderOptions) *ResultsBuilder {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}

	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}

	if opts.Estimator == nil {
		opts.Estimator = NewProgressEstimator(EstimatorOptions{Clock: opts.Clock})
	}

	b := &ResultsBuilder{
		job:        opts.Job,
		noFileList: opts.NoFileList,
		sink:       opts.Sink,
		clock:      opts.Clock,
		logger:     opts.Logger,
		estimator:  opts.Estimator,
		started:    opts.Clock.Now(),
		lines:      make(chan []string, logChannelSize),
		done:       make(chan struct{}),
	}

	go b.writer()

	return b
}

// Estimator returns the estimator the builder finalizes.
func (b *ResultsBuilder) Estimator() *ProgressEstimator {
	return b.estimator
}

// AddSpeed records one finished transfer for the throughput lines.
func (b *ResultsBuilder) AddSpeed(bytes int64, elapsed time.Duration) {
	b.speed.Add(bytes, elapsed)
}

// WriteHeader logs the job banner and the effective options.
func (b *ResultsBuilder) WriteHeader() {
	b.send(
		separator,
		"   batchcopy :: "+b.job.Name,
		separator,
		"",
		"  Started : "+b.started.Format("Monday, January 2, 2006 3:04:05 PM"),
		"   Source : "+b.job.Source,
		"     Dest : "+b.job.Destination,
		fmt.Sprintf("    Pairs : %d", b.job.Pairs),
		"  Options : "+b.job.Options,
		"",
		separator,
		"",
	)
}

// LogItem writes the line for a processed item. File and directory lines are
// dropped when NoFileList is set; messages are always kept.
func (b *ResultsBuilder) LogItem(item ProcessedItemInfo) {
	switch item.Kind {
	case SystemMessage:
		b.send(item.Name)
	case DirectoryItem:
		if !b.noFileList {
			b.send(fmt.Sprintf("\t%13s %14s\t%s", item.Class, "", item.Name))
		}
	default:
		if !b.noFileList {
			b.send(fmt.Sprintf("\t%13s %14d\t%s", item.Class, item.Size, item.Name))
		}
	}
}

// LogMessage writes a free-form line.
func (b *ResultsBuilder) LogMessage(format string, args ...any) {
	b.send(fmt.Sprintf(format, args...))
}

// LogError writes a failed attempt.
func (b *ResultsBuilder) LogError(entry ErrorEntry) {
	b.send(entry.String())
}

// Lines returns the lines written so far.
func (b *ResultsBuilder) Lines() []string {
	b.bufMu.Lock()
	defer b.bufMu.Unlock()

	return append([]string(nil), b.buffer...)
}

// SinkErr returns the first error the sink reported, if any.
func (b *ResultsBuilder) SinkErr() error {
	b.bufMu.Lock()
	defer b.bufMu.Unlock()

	return b.sinkErr
}

// Finish finalizes the estimator, writes the summary, drains the log and
// returns the results. Later calls return the same results.
func (b *ResultsBuilder) Finish(cancelled bool) *Results {
	b.finishOnce.Do(func() {
		snap := b.estimator.Finalize()
		ended := b.clock.Now()
		speed := b.speed.Speed()
		status := ExitStatusOf(snap, cancelled)

		b.send(b.summary(snap, speed, status, ended)...)

		b.sendMu.Lock()
		b.closed = true
		close(b.lines)
		b.sendMu.Unlock()

		<-b.done

		b.results = &Results{
			Job:     b.job,
			Started: b.started,
			Ended:   ended,
			Dirs:    snap.Dirs,
			Files:   snap.Files,
			Bytes:   snap.Bytes,
			Speed:   speed,
			Status:  status,
			Log:     b.Lines(),
		}
	})

	return b.results
}

func (b *ResultsBuilder) summary(snap Snapshot, speed Speed, status ExitStatus, ended time.Time) []string {
	row := func(s Statistic) string {
		return fmt.Sprintf("%8s : %9d %9d %9d %9d %9d %9d",
			s.Kind, s.Total(), s.Copied, s.Skipped, s.Mismatch, s.Failed, s.Extras)
	}

	return []string{
		"",
		separator,
		"",
		fmt.Sprintf("%8s   %9s %9s %9s %9s %9s %9s", "", "Total", "Copied", "Skipped", "Mismatch", "FAILED", "Extras"),
		row(snap.Dirs),
		row(snap.Files),
		row(snap.Bytes),
		fmt.Sprintf("%8s : %s", "Times", formatElapsed(ended.Sub(b.started))),
		"",
		fmt.Sprintf("%8s : %.0f Bytes/sec.", "Speed", speed.BytesPerSecond),
		fmt.Sprintf("%8s : %.3f MegaBytes/min.", "Speed", speed.MegaBytesPerMinute),
		fmt.Sprintf("%8s : %s", "Status", status),
		fmt.Sprintf("%8s : %s", "Ended", ended.Format("Monday, January 2, 2006 3:04:05 PM")),
		"",
	}
}

func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute

	return fmt.Sprintf("%d:%02d:%02d", h, m, d/time.Second)
}

func (b *ResultsBuilder) send(lines ...string) {
	b.sendMu.RLock()
	defer b.sendMu.RUnlock()

	if b.closed {
		return
	}

	b.lines <- lines
}

func (b *ResultsBuilder) writer() {
	defer close(b.done)

	for lines := range b.lines {
		b.bufMu.Lock()
		b.buffer = append(b.buffer, lines...)
		b.bufMu.Unlock()

		if b.sink == nil {
			continue
		}

		err := b.sink.AppendToLogs(lines...)
		if err == nil {
			continue
		}

		b.bufMu.Lock()
		if b.sinkErr == nil {
			b.sinkErr = err
			b.logger.Warn().Err(err).Msg("log sink failed, keeping the log in memory only")
		}
		b.bufMu.Unlock()
	}
}
