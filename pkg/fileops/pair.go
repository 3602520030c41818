package fileops

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joe/batchcopy/pkg/filesystem"
)

// FileMeta is the metadata snapshot of one side of a FilePair.
type FileMeta struct {
	Exists  bool
	IsDir   bool
	Size    int64
	ModTime time.Time
	Mode    os.FileMode
}

// MetaFromInfo converts an os.FileInfo into a FileMeta.
func MetaFromInfo(info os.FileInfo) FileMeta {
	return FileMeta{
		Exists:  true,
		IsDir:   info.IsDir(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Mode:    info.Mode(),
	}
}

// StatMeta stats path on fs. A missing path is not an error; it yields a
// FileMeta with Exists unset.
func StatMeta(fs filesystem.FileSystem, path string) (FileMeta, error) {
	info, err := fs.Stat(path)
	if filesystem.IsNotExist(err) {
		return FileMeta{}, nil
	}

	if err != nil {
		return FileMeta{}, fmt.Errorf("failed to read metadata of %s: %w", path, err)
	}

	return MetaFromInfo(info), nil
}

// DispositionFlags carries a decision made before the batch runs, e.g. by
// an external selection step. Set distinguishes "decided" from the zero value.
type DispositionFlags struct {
	Set         bool
	ShouldCopy  bool
	ShouldPurge bool
}

// FilePair relates a source file to its destination. Both paths are fully
// qualified. Metadata is a snapshot and must be refreshed before decisions.
type FilePair struct {
	Source      string
	Destination string
	SourceMeta  FileMeta
	DestMeta    FileMeta
	Flags       DispositionFlags
	// Tolerance is the modification time window within which two files
	// count as having the same date. Zero means exact.
	Tolerance time.Duration
}

// NewFilePair creates a pair with empty metadata.
func NewFilePair(source, destination string) *FilePair {
	return &FilePair{Source: source, Destination: destination}
}

// Name returns the file name of the pair, preferring the source side.
func (p *FilePair) Name() string {
	if p.Source != "" {
		return filepath.Base(p.Source)
	}

	return filepath.Base(p.Destination)
}

// Size returns the size of whichever side the pair acts on.
func (p *FilePair) Size() int64 {
	if p.SourceMeta.Exists {
		return p.SourceMeta.Size
	}

	return p.DestMeta.Size
}

// IsLonely reports a source with no destination counterpart.
func (p *FilePair) IsLonely() bool {
	return p.SourceMeta.Exists && !p.DestMeta.Exists
}

// IsExtra reports a destination with no source counterpart.
func (p *FilePair) IsExtra() bool {
	return !p.SourceMeta.Exists && p.DestMeta.Exists
}

// IsSourceNewer reports whether the source was modified after the destination.
func (p *FilePair) IsSourceNewer() bool {
	return p.bothExist() && p.SourceMeta.ModTime.Sub(p.DestMeta.ModTime) > p.Tolerance
}

// IsDestinationNewer reports whether the destination was modified after the source.
func (p *FilePair) IsDestinationNewer() bool {
	return p.bothExist() && p.DestMeta.ModTime.Sub(p.SourceMeta.ModTime) > p.Tolerance
}

// IsSameDate reports equal modification times within Tolerance.
func (p *FilePair) IsSameDate() bool {
	return p.bothExist() && !p.IsSourceNewer() && !p.IsDestinationNewer()
}

// IsSame reports equal size and date.
func (p *FilePair) IsSame() bool {
	return p.IsSameDate() && p.SourceMeta.Size == p.DestMeta.Size
}

// IsChanged reports equal dates with different sizes.
func (p *FilePair) IsChanged() bool {
	return p.IsSameDate() && p.SourceMeta.Size != p.DestMeta.Size
}

// IsMismatch reports a file facing a directory. Such a pair has no copy path.
func (p *FilePair) IsMismatch() bool {
	return p.bothExist() && p.SourceMeta.IsDir != p.DestMeta.IsDir
}

// RefreshSource reloads the source metadata from fs.
func (p *FilePair) RefreshSource(fs filesystem.FileSystem) error {
	meta, err := StatMeta(fs, p.Source)
	if err != nil {
		return err
	}

	p.SourceMeta = meta

	return nil
}

// RefreshDestination reloads the destination metadata from fs.
func (p *FilePair) RefreshDestination(fs filesystem.FileSystem) error {
	meta, err := StatMeta(fs, p.Destination)
	if err != nil {
		return err
	}

	p.DestMeta = meta

	return nil
}

func (p *FilePair) bothExist() bool {
	return p.SourceMeta.Exists && p.DestMeta.Exists
}
