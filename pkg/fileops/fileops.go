// Package fileops provides the file pair model and the buffered copy loop
// shared by the copy backends.
package fileops

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/joe/batchcopy/pkg/filesystem"
)

// Exported constants.
const (
	// DefaultBufferSize is the streamed copy buffer (80KB).
	DefaultBufferSize = 80 * 1024
	// DefaultDirPermissions is the permission mode for created directories.
	DefaultDirPermissions = 0o750
)

// CopyStats contains timing information about a copy operation.
type CopyStats struct {
	BytesCopied int64
	ReadTime    time.Duration
	WriteTime   time.Duration
}

// Duration returns the time spent in I/O.
func (s *CopyStats) Duration() time.Duration {
	return s.ReadTime + s.WriteTime
}

// Checkpoint is called before every chunk with the bytes written so far. It
// may block (e.g. while paused); a non-nil error aborts the loop unchanged.
type Checkpoint func(written int64) error

// CopyLoop copies src into dst through buf until EOF, calling checkpoint
// before each read. Stats are accumulated into stats when it is non-nil.
//
//nolint:varnamelen // nr/nw are idiomatic for bytes read/written
func CopyLoop(src io.Reader, dst io.Writer, buf []byte, checkpoint Checkpoint, stats *CopyStats) (int64, error) {
	if stats == nil {
		stats = &CopyStats{}
	}

	var written int64

	for {
		if checkpoint != nil {
			if err := checkpoint(written); err != nil {
				return written, err
			}
		}

		readStart := time.Now()
		nr, readErr := src.Read(buf)
		stats.ReadTime += time.Since(readStart)

		if nr > 0 {
			writeStart := time.Now()
			nw, err := dst.Write(buf[:nr])
			stats.WriteTime += time.Since(writeStart)

			if nw > 0 {
				written += int64(nw)
				stats.BytesCopied = written
			}

			if err != nil {
				return written, fmt.Errorf("failed to write to destination: %w", err)
			}

			if nw != nr {
				return written, fmt.Errorf("short write: %w", io.ErrShortWrite)
			}
		}

		if errors.Is(readErr, io.EOF) {
			return written, nil
		}

		if readErr != nil {
			return written, fmt.Errorf("failed to read from source: %w", readErr)
		}
	}
}

// EnsureParent creates the parent directory of path on fs.
func EnsureParent(fs filesystem.FileSystem, path string) error {
	dir := filepath.Dir(path)

	err := fs.MkdirAll(dir, DefaultDirPermissions)
	if err != nil {
		return fmt.Errorf("failed to create destination directory %s: %w", dir, err)
	}

	return nil
}
