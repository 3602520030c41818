//go:build linux

package copier

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// kernelChunk copies one chunk inside the kernel with copy_file_range(2).
func kernelChunk(src, dst *os.File, offset int64, buf []byte) (int, error) {
	readOff, writeOff := offset, offset

	n, err := unix.CopyFileRange(int(src.Fd()), &readOff, int(dst.Fd()), &writeOff, len(buf), 0) //nolint:gosec // Fds fit in int
	if err != nil {
		if errors.Is(err, unix.EXDEV) || errors.Is(err, unix.ENOSYS) ||
			errors.Is(err, unix.EOPNOTSUPP) || errors.Is(err, unix.EINVAL) {
			return 0, errKernelUnsupported
		}

		return 0, fmt.Errorf("%w: copy_file_range: %w", ErrNativeCopy, err)
	}

	if n == 0 {
		return 0, io.EOF
	}

	return n, nil
}
