package copier

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/joe/batchcopy/internal/clock"
	"github.com/joe/batchcopy/internal/config"
	"github.com/joe/batchcopy/pkg/fileops"
)

// Factory builds copiers from paths or pairs.
type Factory interface {
	Create(source, destination string) (Copier, error)
	// CreateFromPair keeps the pair and its disposition flags.
	CreateFromPair(pair *fileops.FilePair) (Copier, error)
	// CreateInDirectory copies source into destinationDir under its own name.
	CreateInDirectory(source, destinationDir string) (Copier, error)
}

// ValidatePath fails with ErrPathInvalid unless p is absolute and ends in a
// file name. Slash-rooted paths are accepted for remote filesystems.
func ValidatePath(p string) error {
	if !filepath.IsAbs(p) && !path.IsAbs(p) {
		return fmt.Errorf("%w: %q is not absolute", ErrPathInvalid, p)
	}

	if strings.HasSuffix(p, "/") || strings.HasSuffix(p, string(filepath.Separator)) {
		return fmt.Errorf("%w: %q has no file name", ErrPathInvalid, p)
	}

	name := filepath.Base(p)
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return fmt.Errorf("%w: %q has no file name", ErrPathInvalid, p)
	}

	return nil
}

func validatePair(pair *fileops.FilePair) error {
	if pair == nil {
		return fmt.Errorf("%w: nil pair", ErrPathInvalid)
	}

	err := ValidatePath(pair.Source)
	if err != nil {
		return err
	}

	return ValidatePath(pair.Destination)
}

// builder turns a validated pair into a copier.
type builder func(pair *fileops.FilePair) Copier

func create(source, destination string, build builder) (Copier, error) {
	return createFromPair(fileops.NewFilePair(source, destination), build)
}

func createFromPair(pair *fileops.FilePair, build builder) (Copier, error) {
	err := validatePair(pair)
	if err != nil {
		return nil, err
	}

	return build(pair), nil
}

func createInDirectory(source, destinationDir string, build builder) (Copier, error) {
	err := ValidatePath(source)
	if err != nil {
		return nil, err
	}

	if !filepath.IsAbs(destinationDir) && !path.IsAbs(destinationDir) {
		return nil, fmt.Errorf("%w: %q is not absolute", ErrPathInvalid, destinationDir)
	}

	return create(source, filepath.Join(destinationDir, filepath.Base(source)), build)
}

// StreamedFactory builds StreamedCopiers over a FileOps.
type StreamedFactory struct {
	Ops        *fileops.FileOps
	BufferSize int
	Clock      clock.TimeProvider
}

// Create builds a copier for source and destination.
func (f *StreamedFactory) Create(source, destination string) (Copier, error) {
	return create(source, destination, f.build)
}

// CreateFromPair builds a copier for an existing pair.
func (f *StreamedFactory) CreateFromPair(pair *fileops.FilePair) (Copier, error) {
	return createFromPair(pair, f.build)
}

// CreateInDirectory builds a copier into destinationDir.
func (f *StreamedFactory) CreateInDirectory(source, destinationDir string) (Copier, error) {
	return createInDirectory(source, destinationDir, f.build)
}

func (f *StreamedFactory) build(pair *fileops.FilePair) Copier {
	return NewStreamedCopier(pair, f.Ops, f.BufferSize, f.Clock)
}

// NativeFactory builds NativeCopiers.
type NativeFactory struct {
	Restartable bool
	ChunkSize   int
	Clock       clock.TimeProvider
}

// Create builds a copier for source and destination.
func (f *NativeFactory) Create(source, destination string) (Copier, error) {
	return create(source, destination, f.build)
}

// CreateFromPair builds a copier for an existing pair.
func (f *NativeFactory) CreateFromPair(pair *fileops.FilePair) (Copier, error) {
	return createFromPair(pair, f.build)
}

// CreateInDirectory builds a copier into destinationDir.
func (f *NativeFactory) CreateInDirectory(source, destinationDir string) (Copier, error) {
	return createInDirectory(source, destinationDir, f.build)
}

func (f *NativeFactory) build(pair *fileops.FilePair) Copier {
	return NewNativeCopier(pair, f.Restartable, f.ChunkSize, f.Clock)
}

// NewFactory selects the backend named in opts. ops is only used by the
// streamed backend.
func NewFactory(opts config.CopyOptions, ops *fileops.FileOps) Factory {
	if opts.Backend == config.Native {
		return &NativeFactory{Restartable: opts.Restartable}
	}

	if ops == nil {
		ops = fileops.NewRealFileOps()
	}

	return &StreamedFactory{Ops: ops, BufferSize: opts.BufferSize}
}
