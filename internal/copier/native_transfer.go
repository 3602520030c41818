package copier

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Verdict is what the progress callback tells a running native transfer to do.
type Verdict int32

// Callback verdicts.
const (
	// Continue keeps copying.
	Continue Verdict = iota
	// Stop ends the transfer and keeps the partial destination.
	Stop
	// Cancel ends the transfer and deletes the destination.
	Cancel
	// Quiet keeps copying without further callbacks.
	Quiet
)

var (
	errTransferStopped   = errors.New("transfer stopped")
	errTransferCancelled = errors.New("transfer cancelled")
	errKernelUnsupported = errors.New("kernel copy not supported for these files")
)

// transferCallback is invoked on the transfer thread after every chunk. It
// must return without blocking.
type transferCallback func(copied, total int64) Verdict

// chunkFunc copies up to len(buf) bytes at offset from src to dst.
type chunkFunc func(src, dst *os.File, offset int64, buf []byte) (int, error)

// nativeTransfer copies src to dst starting at offset, chunk by chunk. A
// zero offset truncates the destination; otherwise it is continued.
//
//nolint:cyclop,funlen // Verdict handling plus open/close error paths
func nativeTransfer(src, dst string, offset int64, buf []byte, chunk chunkFunc, callback transferCallback) (int64, error) {
	srcFile, err := os.Open(src) //nolint:gosec // Paths come from the caller's pair list
	if err != nil {
		return offset, fmt.Errorf("failed to open source file %s: %w", src, err)
	}

	defer func() {
		_ = srcFile.Close()
	}()

	info, err := srcFile.Stat()
	if err != nil {
		return offset, fmt.Errorf("failed to stat source file %s: %w", src, err)
	}

	flags := os.O_WRONLY | os.O_CREATE
	if offset == 0 {
		flags |= os.O_TRUNC
	}

	dstFile, err := os.OpenFile(dst, flags, info.Mode().Perm()) //nolint:gosec // Paths come from the caller's pair list
	if err != nil {
		return offset, fmt.Errorf("failed to open destination file %s: %w", dst, err)
	}

	total := info.Size()
	copied := offset
	quiet := false

	abort := func(reason error) (int64, error) {
		_ = dstFile.Close()

		if errors.Is(reason, errTransferCancelled) {
			_ = os.Remove(dst)
		}

		return copied, reason
	}

	for copied < total {
		n, err := chunk(srcFile, dstFile, copied, buf)
		copied += int64(n)

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return abort(err)
		}

		if quiet {
			continue
		}

		switch callback(copied, total) {
		case Continue:
		case Quiet:
			quiet = true
		case Stop:
			return abort(errTransferStopped)
		case Cancel:
			return abort(errTransferCancelled)
		}
	}

	err = dstFile.Truncate(copied)
	if err != nil {
		return abort(fmt.Errorf("failed to size destination file %s: %w", dst, err))
	}

	err = dstFile.Close()
	if err != nil {
		return copied, fmt.Errorf("failed to close destination file %s: %w", dst, err)
	}

	err = os.Chtimes(dst, info.ModTime(), info.ModTime())
	if err != nil {
		return copied, fmt.Errorf("failed to preserve modification time for %s: %w", dst, err)
	}

	return copied, nil
}

// portableChunk copies one chunk with positional reads and writes.
func portableChunk(src, dst *os.File, offset int64, buf []byte) (int, error) {
	n, err := src.ReadAt(buf, offset)
	if n > 0 {
		written, werr := dst.WriteAt(buf[:n], offset)
		if werr != nil {
			return written, fmt.Errorf("failed to write to destination: %w", werr)
		}
	}

	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("failed to read from source: %w", err)
	}

	if n == 0 {
		return 0, io.EOF
	}

	return n, nil
}
