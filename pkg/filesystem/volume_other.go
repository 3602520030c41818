//go:build !unix

package filesystem

import (
	"path/filepath"
	"strings"
)

// SameVolume compares volume names. It is exact on Windows and treats every
// path as one volume elsewhere.
func (fs *RealFileSystem) SameVolume(pathA, pathB string) (bool, error) {
	return strings.EqualFold(filepath.VolumeName(pathA), filepath.VolumeName(pathB)), nil
}
