// Package copier copies or moves a single file pair. Two backends implement
// the Copier interface: StreamedCopier works through a user-space buffer on
// any filesystem, NativeCopier hands the transfer to the kernel.
package copier

import (
	"context"
	"errors"

	"github.com/joe/batchcopy/pkg/fileops"
)

// Exported variables.
var (
	ErrInvalidState       = errors.New("invalid state")
	ErrPathInvalid        = errors.New("path must be absolute and name a file")
	ErrFileNotFound       = errors.New("file not found")
	ErrAlreadyExists      = errors.New("destination already exists")
	ErrOperationCancelled = errors.New("operation cancelled")
	ErrNativeCopy         = errors.New("native copy failed")
)

// State is the lifecycle state of a Copier.
type State int32

// Copier states. A copier goes Idle -> Copying -> Completed, Cancelled or
// Failed. Only a restartable native copy enters Paused, from Copying and
// back to it; other copiers stay Copying while paused (see IsPaused).
const (
	Idle State = iota
	Copying
	Paused
	Completed
	Cancelled
	Failed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Copying:
		return "copying"
	case Paused:
		return "paused"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Progress is a progress report for one copier.
type Progress struct {
	Source      string
	Destination string
	BytesCopied int64
	TotalBytes  int64
	Percent     float64
}

// ProgressHandler receives progress reports. It is called from the
// copier's goroutines and must not block for long.
type ProgressHandler func(Progress)

// Copier copies or moves one file pair.
type Copier interface {
	Source() string
	Destination() string
	Pair() *fileops.FilePair
	// Flags are the disposition flags carried over from the pair.
	Flags() fileops.DispositionFlags
	State() State
	// IsCopying is false before the first call and after any call resolves.
	IsCopying() bool
	IsPaused() bool
	// Progress is the last reported percentage in [0,100].
	Progress() float64
	// RefreshMetadata reloads both sides of the pair.
	RefreshMetadata() error
	SetProgressHandler(handler ProgressHandler)
	// Copy copies the source to the destination. It fails with
	// ErrFileNotFound, ErrAlreadyExists (overwrite unset), or
	// ErrOperationCancelled when ctx or Cancel stop it first.
	Copy(ctx context.Context, overwrite bool) (bool, error)
	// Move is Copy followed by deleting the source, or a rename when both
	// sides are on one volume.
	Move(ctx context.Context, overwrite bool) (bool, error)
	Pause()
	Resume()
	Cancel()
}
