//go:build unix

package filesystem

import (
	"fmt"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// SameVolume compares the device ids of both paths. A path that does not
// exist yet is compared through its nearest existing parent directory.
func (fs *RealFileSystem) SameVolume(pathA, pathB string) (bool, error) {
	devA, err := deviceOf(pathA)
	if err != nil {
		return false, err
	}

	devB, err := deviceOf(pathB)
	if err != nil {
		return false, err
	}

	return devA == devB, nil
}

func deviceOf(path string) (uint64, error) {
	current := filepath.Clean(path)

	for {
		var st unix.Stat_t

		err := unix.Stat(current, &st)
		if err == nil {
			return uint64(st.Dev), nil //nolint:unconvert // Dev is int32 on some platforms
		}

		parent := filepath.Dir(current)
		if parent == current {
			return 0, fmt.Errorf("failed to stat %s: %w", path, err)
		}

		current = parent
	}
}
