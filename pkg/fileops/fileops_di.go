package fileops

import (
	"fmt"

	"github.com/joe/batchcopy/pkg/filesystem"
)

// FileOps performs file operations across a source and a destination
// filesystem, e.g. local to SFTP.
type FileOps struct {
	SourceFS filesystem.FileSystem
	DestFS   filesystem.FileSystem
}

// NewFileOps uses fs for both sides.
func NewFileOps(fs filesystem.FileSystem) *FileOps {
	return &FileOps{SourceFS: fs, DestFS: fs}
}

// NewDualFileOps creates a FileOps with separate source and destination filesystems.
func NewDualFileOps(sourceFS, destFS filesystem.FileSystem) *FileOps {
	return &FileOps{SourceFS: sourceFS, DestFS: destFS}
}

// NewRealFileOps uses the local disk for both sides.
func NewRealFileOps() *FileOps {
	return NewFileOps(filesystem.NewRealFileSystem())
}

// SameFileSystem reports whether source and destination share one filesystem.
func (fo *FileOps) SameFileSystem() bool {
	return fo.SourceFS == fo.DestFS
}

// Refresh reloads both sides of pair.
func (fo *FileOps) Refresh(pair *FilePair) error {
	if err := pair.RefreshSource(fo.SourceFS); err != nil {
		return err
	}

	return pair.RefreshDestination(fo.DestFS)
}

// CopyFile copies src to dst through buf. The destination is pre-sized to
// the source length and its modification time is set after close. Unless
// the copy completes, the destination is removed before returning.
//
//nolint:cyclop,funlen // Sequential open/size/copy/close/chtimes steps each need their own error path
func (fo *FileOps) CopyFile(src, dst string, buf []byte, checkpoint Checkpoint) (*CopyStats, error) {
	stats := &CopyStats{}

	sourceFile, err := fo.SourceFS.Open(src)
	if err != nil {
		return stats, fmt.Errorf("failed to open source file %s: %w", src, err)
	}

	defer func() {
		_ = sourceFile.Close()
	}()

	sourceInfo, err := sourceFile.Stat()
	if err != nil {
		return stats, fmt.Errorf("failed to stat source file %s: %w", src, err)
	}

	err = EnsureParent(fo.DestFS, dst)
	if err != nil {
		return stats, err
	}

	destFile, err := fo.DestFS.Create(dst)
	if err != nil {
		return stats, fmt.Errorf("failed to create destination file %s: %w", dst, err)
	}

	completed := false
	closed := false

	defer func() {
		if !closed {
			_ = destFile.Close()
		}

		if !completed {
			_ = fo.DestFS.Remove(dst)
		}
	}()

	if sourceInfo.Size() > 0 {
		err = destFile.Truncate(sourceInfo.Size())
		if err != nil {
			return stats, fmt.Errorf("failed to pre-size destination file %s: %w", dst, err)
		}
	}

	written, err := CopyLoop(sourceFile, destFile, buf, checkpoint, stats)
	if err != nil {
		return stats, fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	// The source shrank while we were reading it.
	if written < sourceInfo.Size() {
		err = destFile.Truncate(written)
		if err != nil {
			return stats, fmt.Errorf("failed to trim destination file %s: %w", dst, err)
		}
	}

	// Some network filesystems reset mtime on close, so close first.
	closed = true

	err = destFile.Close()
	if err != nil {
		return stats, fmt.Errorf("failed to close destination file %s: %w", dst, err)
	}

	err = fo.DestFS.Chtimes(dst, sourceInfo.ModTime(), sourceInfo.ModTime())
	if err != nil {
		return stats, fmt.Errorf("failed to preserve modification time for %s: %w", dst, err)
	}

	completed = true

	return stats, nil
}
