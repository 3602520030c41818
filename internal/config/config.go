// Package config handles application configuration and command-line argument parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alexflint/go-arg"

	"github.com/joe/batchcopy/pkg/filesystem"
)

// Exported constants.
const (
	DefaultWorkers   = 1
	DefaultBufferKB  = 80
	DefaultRetryWait = time.Second
	DefaultJobName   = "batchcopy"
)

// Exported variables.
var (
	ErrNoPairs          = errors.New("no file pairs given (use --pair or --list)")
	ErrInvalidWorkers   = errors.New("workers must be at least 1")
	ErrInvalidRetries   = errors.New("retries must not be negative")
	ErrInvalidBuffer    = errors.New("buffer size must be positive")
	ErrNativeRemote     = errors.New("the native backend only copies between local paths")
	ErrInvalidBackend   = errors.New("invalid backend")
	ErrInvalidSizeRange = errors.New("min-size must not exceed max-size")
)

// Backend selects how individual files are copied.
type Backend int

const (
	// Streamed copies through a user-space buffer and works on any filesystem.
	Streamed Backend = iota
	// Native hands the copy to the kernel and supports restartable mode.
	Native
)

// String returns the string representation of Backend
func (b Backend) String() string {
	switch b {
	case Streamed:
		return "streamed"
	case Native:
		return "native"
	default:
		return "unknown"
	}
}

// ParseBackend parses a string into a Backend
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(s) {
	case "streamed", "stream", "buffered":
		return Streamed, nil
	case "native", "os":
		return Native, nil
	default:
		return Streamed, fmt.Errorf("%w: %s (valid: streamed, native)", ErrInvalidBackend, s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler for go-arg
func (b *Backend) UnmarshalText(text []byte) error {
	parsed, err := ParseBackend(string(text))
	if err != nil {
		return err
	}

	*b = parsed

	return nil
}

// Config holds the application configuration
//
//nolint:lll // Struct tags carry the help text
type Config struct {
	Pairs         []string      `arg:"-p,--pair,separate" help:"file pair as SOURCE=DESTINATION (repeatable)"`
	ListFile      string        `arg:"-l,--list" help:"file with one tab-separated SOURCE and DESTINATION per line"`
	Remote        string        `arg:"--remote" help:"sftp://user@host[:port] that serves the destination paths"`
	Backend       Backend       `arg:"-b,--backend" default:"streamed" help:"copy backend: streamed|native"`
	Workers       int           `arg:"-w,--workers" default:"1" help:"maximum number of concurrent copies"`
	Retries       int           `arg:"-r,--retries" default:"0" help:"retries per failed file"`
	RetryWait     time.Duration `arg:"--wait" default:"1s" help:"wait between retries"`
	Move          bool          `arg:"--move" help:"delete sources after they are copied"`
	Purge         bool          `arg:"--purge" help:"delete destination files whose source no longer exists"`
	ExcludeNewer  bool          `arg:"--xn" help:"exclude sources newer than their destination"`
	ExcludeOlder  bool          `arg:"--xo" help:"exclude sources older than their destination"`
	IncludeSame   bool          `arg:"--is" help:"copy files even when size and date are the same"`
	Include       []string      `arg:"--include,separate" help:"only copy sources matching this glob (repeatable)"`
	Exclude       []string      `arg:"--exclude,separate" help:"skip sources matching this glob (repeatable)"`
	MinSize       int64         `arg:"--min-size" help:"skip sources smaller than this many bytes"`
	MaxSize       int64         `arg:"--max-size" help:"skip sources larger than this many bytes (0 = no limit)"`
	MaxAge        time.Duration `arg:"--max-age" help:"skip sources last modified longer ago than this"`
	TimeTolerance time.Duration `arg:"--time-tolerance" help:"treat modification times this close as equal"`
	ListOnly      bool          `arg:"-L,--list-only" help:"classify files without copying anything"`
	NoFileList    bool          `arg:"--nfl" help:"leave individual files out of the log"`
	LogPath       string        `arg:"--log" help:"write the job log to this file"`
	AppendLog     bool          `arg:"--append-log" help:"append to the job log instead of replacing it"`
	Restartable   bool          `arg:"-z,--restartable" help:"native backend: keep partial files so stopped copies resume"`
	BufferKB      int           `arg:"--buffer-kb" default:"80" help:"streamed backend buffer size in KB"`
	JobName       string        `arg:"--job" default:"batchcopy" help:"job name shown in the log header"`
	NoTUI         bool          `arg:"--no-tui" help:"print the log instead of showing the progress screen"`
	Verbose       bool          `arg:"-v,--verbose" help:"diagnostic logging to stderr"`
}

// Description returns the program description for go-arg
func (Config) Description() string {
	return "Copies or moves an explicit list of files with retries, pause and live statistics"
}

// Version returns the version string for go-arg
func (Config) Version() string {
	return "batchcopy 1.0.0"
}

// ParseFlags parses command-line flags and returns configuration
func ParseFlags() (*Config, error) {
	cfg := Defaults()

	arg.MustParse(cfg)

	return PostProcessConfig(cfg)
}

// Defaults returns a Config holding the flag defaults.
func Defaults() *Config {
	return &Config{
		Backend:   Streamed,
		Workers:   DefaultWorkers,
		RetryWait: DefaultRetryWait,
		BufferKB:  DefaultBufferKB,
		JobName:   DefaultJobName,
	}
}

// PostProcessConfig validates a parsed config.
func PostProcessConfig(cfg *Config) (*Config, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks value ranges and flag combinations.
//
//nolint:cyclop // One check per flag
func (cfg *Config) Validate() error {
	if len(cfg.Pairs) == 0 && cfg.ListFile == "" {
		return ErrNoPairs
	}

	if cfg.Workers < 1 {
		return fmt.Errorf("%w, got %d", ErrInvalidWorkers, cfg.Workers)
	}

	if cfg.Retries < 0 {
		return fmt.Errorf("%w, got %d", ErrInvalidRetries, cfg.Retries)
	}

	if cfg.BufferKB <= 0 {
		return fmt.Errorf("%w, got %d", ErrInvalidBuffer, cfg.BufferKB)
	}

	if cfg.MaxSize > 0 && cfg.MinSize > cfg.MaxSize {
		return ErrInvalidSizeRange
	}

	if cfg.Remote != "" {
		loc, err := filesystem.ParseLocation(cfg.Remote)
		if err != nil {
			return fmt.Errorf("invalid --remote: %w", err)
		}

		if !loc.IsRemote {
			return fmt.Errorf("invalid --remote %q: %w", cfg.Remote, filesystem.ErrNotSFTP)
		}

		if cfg.Backend == Native {
			return ErrNativeRemote
		}
	}

	if cfg.ListFile != "" {
		if _, err := os.Stat(cfg.ListFile); err != nil {
			return fmt.Errorf("cannot read pair list: %w", err)
		}
	}

	return nil
}

// CopyOptions derives the copy options.
func (cfg *Config) CopyOptions() CopyOptions {
	return CopyOptions{
		Move:           cfg.Move,
		Purge:          cfg.Purge,
		ListOnly:       cfg.ListOnly,
		Restartable:    cfg.Restartable,
		BufferSize:     cfg.BufferKB * 1024, //nolint:mnd // KB to bytes
		Backend:        cfg.Backend,
		MaxConcurrency: cfg.Workers,
	}
}

// JobOptions derives the job options.
func (cfg *Config) JobOptions() JobOptions {
	return JobOptions{Name: cfg.JobName}
}

// LoggingOptions derives the logging options.
func (cfg *Config) LoggingOptions() LoggingOptions {
	return LoggingOptions{LogPath: cfg.LogPath, Append: cfg.AppendLog, NoFileList: cfg.NoFileList}
}

// RetryOptions derives the retry options.
func (cfg *Config) RetryOptions() RetryOptions {
	return RetryOptions{Count: cfg.Retries, Wait: cfg.RetryWait}
}

// SelectionOptions derives the selection options.
func (cfg *Config) SelectionOptions() SelectionOptions {
	return SelectionOptions{
		ExcludeNewer:  cfg.ExcludeNewer,
		ExcludeOlder:  cfg.ExcludeOlder,
		IncludeSame:   cfg.IncludeSame,
		Include:       cfg.Include,
		Exclude:       cfg.Exclude,
		MinSize:       cfg.MinSize,
		MaxSize:       cfg.MaxSize,
		MaxAge:        cfg.MaxAge,
		TimeTolerance: cfg.TimeTolerance,
	}
}
