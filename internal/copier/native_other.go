//go:build !linux

package copier

import "os"

// kernelChunk has no in-kernel range copy outside Linux.
func kernelChunk(_, _ *os.File, _ int64, _ []byte) (int, error) {
	return 0, errKernelUnsupported
}
