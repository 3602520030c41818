// Package logfile persists run logs to one or more files on a filesystem.
package logfile

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gitlab.com/tozd/go/errors"

	"github.com/joe/batchcopy/pkg/filesystem"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Sink appends log lines to every configured path. A sink with no paths
// accepts and drops everything.
type Sink struct {
	fs    filesystem.FileSystem
	paths []string
	mu    sync.Mutex
}

// NewSink returns a sink writing to paths on fs. Empty paths are ignored.
func NewSink(fs filesystem.FileSystem, paths ...string) *Sink {
	kept := make([]string, 0, len(paths))

	for _, p := range paths {
		if p != "" {
			kept = append(kept, p)
		}
	}

	return &Sink{fs: fs, paths: kept}
}

// Paths returns the configured log paths.
func (s *Sink) Paths() []string {
	return append([]string(nil), s.paths...)
}

// AppendToLogs writes each line followed by a newline to every log file.
func (s *Sink) AppendToLogs(lines ...string) error {
	if len(lines) == 0 {
		return nil
	}

	payload := []byte(strings.Join(lines, "\n") + "\n")

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, path := range s.paths {
		if err := s.appendTo(path, payload); err != nil {
			return err
		}
	}

	return nil
}

func (s *Sink) appendTo(path string, payload []byte) (err error) {
	file, err := s.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, filePerm)
	if err != nil {
		return errors.Errorf("opening log %s: %w", path, err)
	}

	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = errors.Errorf("closing log %s: %w", path, closeErr)
		}
	}()

	if _, err := file.Write(payload); err != nil {
		return errors.Errorf("writing log %s: %w", path, err)
	}

	return nil
}

// DeleteLogFiles removes existing log files. Missing files are not an error.
func (s *Sink) DeleteLogFiles() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, path := range s.paths {
		if err := s.fs.Remove(path); err != nil && !filesystem.IsNotExist(err) {
			return errors.Errorf("deleting log %s: %w", path, err)
		}
	}

	return nil
}

// EnsureLogDirectoriesCreated creates the parent directory of every log file.
func (s *Sink) EnsureLogDirectoriesCreated() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, path := range s.paths {
		if err := s.fs.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
			return errors.Errorf("creating log directory for %s: %w", path, err)
		}
	}

	return nil
}
