package filesystem

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/sftp"
)

// SFTPFileSystem implements FileSystem over a single SFTP session. The
// sftp.Client multiplexes concurrent requests, so copies can share it.
type SFTPFileSystem struct {
	conn   *SFTPConnection
	client *sftp.Client
}

// NewSFTPFileSystem wraps an established connection.
func NewSFTPFileSystem(conn *SFTPConnection) *SFTPFileSystem {
	return &SFTPFileSystem{conn: conn, client: conn.Client()}
}

// Chtimes changes the access and modification times of a remote file.
func (fs *SFTPFileSystem) Chtimes(path string, atime, mtime time.Time) error {
	err := fs.client.Chtimes(path, atime, mtime)
	if err != nil {
		return fmt.Errorf("failed to change times for remote file %s: %w", path, err)
	}

	return nil
}

// Close closes the underlying connection.
func (fs *SFTPFileSystem) Close() error {
	return fs.conn.Close()
}

// Create creates or truncates a remote file.
func (fs *SFTPFileSystem) Create(path string) (File, error) {
	file, err := fs.client.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create remote file %s: %w", path, err)
	}

	return file, nil
}

// MkdirAll creates a remote directory and all necessary parents. The server
// applies its own umask, so perm is not sent.
func (fs *SFTPFileSystem) MkdirAll(path string, _ os.FileMode) error {
	err := fs.client.MkdirAll(path)
	if err != nil {
		return fmt.Errorf("failed to create remote directory %s: %w", path, err)
	}

	return nil
}

// Open opens a remote file for reading.
func (fs *SFTPFileSystem) Open(path string) (File, error) {
	file, err := fs.client.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open remote file %s: %w", path, err)
	}

	return file, nil
}

// OpenFile opens a remote file with os.O_* flags.
func (fs *SFTPFileSystem) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	file, err := fs.client.OpenFile(path, flag)
	if err != nil {
		return nil, fmt.Errorf("failed to open remote file %s: %w", path, err)
	}

	if flag&os.O_CREATE != 0 {
		_ = file.Chmod(perm)
	}

	return file, nil
}

// Remove removes a remote file or empty directory.
func (fs *SFTPFileSystem) Remove(path string) error {
	err := fs.client.Remove(path)
	if err != nil {
		return fmt.Errorf("failed to remove remote file %s: %w", path, err)
	}

	return nil
}

// Rename uses the posix-rename extension so an existing target is replaced,
// falling back to a plain SFTP rename on servers without it.
func (fs *SFTPFileSystem) Rename(oldPath, newPath string) error {
	err := fs.client.PosixRename(oldPath, newPath)
	if err == nil {
		return nil
	}

	err = fs.client.Rename(oldPath, newPath)
	if err != nil {
		return fmt.Errorf("failed to rename remote file %s to %s: %w", oldPath, newPath, err)
	}

	return nil
}

// SameVolume treats one SFTP session as one volume.
func (fs *SFTPFileSystem) SameVolume(_, _ string) (bool, error) {
	return true, nil
}

// Stat returns file information for a remote file.
func (fs *SFTPFileSystem) Stat(path string) (os.FileInfo, error) {
	info, err := fs.client.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat remote file %s: %w", path, err)
	}

	return info, nil
}
