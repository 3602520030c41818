// Package filesystem provides an abstraction layer for filesystem operations
// so copy backends can target local disks, SFTP servers, or an in-memory
// filesystem in tests.
package filesystem

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// Exported variables.
var (
	ErrIsDirectory = errors.New("is a directory")
	ErrNotEmpty    = errors.New("directory not empty")
)

// File is an open file handle.
type File interface {
	io.Reader
	io.Writer
	io.Closer
	Stat() (os.FileInfo, error)
	// Truncate changes the size of the file. Copy backends use it to
	// pre-size the destination before streaming bytes into it.
	Truncate(size int64) error
}

// FileSystem is the set of operations a copy backend needs.
type FileSystem interface {
	Open(path string) (File, error)
	Create(path string) (File, error)
	OpenFile(path string, flag int, perm os.FileMode) (File, error)
	MkdirAll(path string, perm os.FileMode) error
	Chtimes(path string, atime, mtime time.Time) error
	Remove(path string) error
	Rename(oldPath, newPath string) error
	Stat(path string) (os.FileInfo, error)
}

// VolumeReporter is implemented by filesystems that can tell whether two
// paths live on the same volume, which makes a rename an atomic move.
type VolumeReporter interface {
	SameVolume(pathA, pathB string) (bool, error)
}

// SameVolume reports whether both paths are on the same volume of fs.
// Filesystems that cannot tell are treated as multi-volume.
func SameVolume(fs FileSystem, pathA, pathB string) bool {
	reporter, ok := fs.(VolumeReporter)
	if !ok {
		return false
	}

	same, err := reporter.SameVolume(pathA, pathB)

	return err == nil && same
}

// IsNotExist unwraps err and reports whether it means the path does not exist.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

// RealFileSystem implements FileSystem on the local disk.
type RealFileSystem struct{}

// NewRealFileSystem creates a new RealFileSystem instance.
func NewRealFileSystem() *RealFileSystem {
	return &RealFileSystem{}
}

// Chtimes changes the access and modification times of a file.
func (fs *RealFileSystem) Chtimes(path string, atime, mtime time.Time) error {
	err := os.Chtimes(path, atime, mtime)
	if err != nil {
		return fmt.Errorf("failed to change times for %s: %w", path, err)
	}

	return nil
}

// Create creates or truncates a file for writing.
func (fs *RealFileSystem) Create(path string) (File, error) {
	file, err := os.Create(path) //nolint:gosec // Paths come from the caller's pair list
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}

	return file, nil
}

// MkdirAll creates a directory and all necessary parents.
func (fs *RealFileSystem) MkdirAll(path string, perm os.FileMode) error {
	err := os.MkdirAll(path, perm)
	if err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}

	return nil
}

// Open opens a file for reading.
func (fs *RealFileSystem) Open(path string) (File, error) {
	file, err := os.Open(path) //nolint:gosec // Paths come from the caller's pair list
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	return file, nil
}

// OpenFile opens a file with explicit flags, e.g. for appending to a log.
func (fs *RealFileSystem) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	file, err := os.OpenFile(path, flag, perm) //nolint:gosec // Paths come from the caller's configuration
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	return file, nil
}

// Remove removes a file or empty directory.
func (fs *RealFileSystem) Remove(path string) error {
	err := os.Remove(path)
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}

	return nil
}

// Rename moves oldPath to newPath, replacing newPath if it exists.
func (fs *RealFileSystem) Rename(oldPath, newPath string) error {
	err := os.Rename(oldPath, newPath)
	if err != nil {
		return fmt.Errorf("failed to rename %s to %s: %w", oldPath, newPath, err)
	}

	return nil
}

// Stat returns file information.
func (fs *RealFileSystem) Stat(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	return info, nil
}
