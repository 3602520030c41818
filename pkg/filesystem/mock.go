package filesystem

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Operations that can have faults injected into a MockFileSystem.
const (
	OpOpen   = "open"
	OpCreate = "create"
	OpWrite  = "write"
	OpRename = "rename"
)

// MockFileSystem is an in-memory filesystem for tests. It supports fault
// injection per operation and path, simulated volumes, and slow reads.
type MockFileSystem struct {
	mu        sync.RWMutex
	files     map[string]*mockFile
	faults    map[string]*mockFault
	volumes   []string
	readDelay time.Duration
}

type mockFile struct {
	data    []byte
	modTime time.Time
	isDir   bool
	perm    os.FileMode
}

type mockFault struct {
	remaining int
	err       error
}

type mockFileInfo struct {
	name    string
	size    int64
	modTime time.Time
	isDir   bool
	perm    os.FileMode
}

func (fi *mockFileInfo) Name() string       { return fi.name }
func (fi *mockFileInfo) Size() int64        { return fi.size }
func (fi *mockFileInfo) ModTime() time.Time { return fi.modTime }
func (fi *mockFileInfo) IsDir() bool        { return fi.isDir }
func (fi *mockFileInfo) Sys() any           { return nil }

func (fi *mockFileInfo) Mode() os.FileMode {
	if fi.isDir {
		return fi.perm | os.ModeDir
	}

	return fi.perm
}

// mockFileHandle works on a private copy of the file contents and commits
// it back to the filesystem on Truncate and Close.
type mockFileHandle struct {
	fs       *MockFileSystem
	path     string
	data     []byte
	offset   int
	writable bool
	closed   bool
}

func (f *mockFileHandle) Read(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}

	if delay := f.fs.delay(); delay > 0 {
		time.Sleep(delay)
	}

	if f.offset >= len(f.data) {
		return 0, io.EOF
	}

	n := copy(p, f.data[f.offset:])
	f.offset += n

	return n, nil
}

func (f *mockFileHandle) Write(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}

	if !f.writable {
		return 0, fmt.Errorf("write %s: %w", f.path, os.ErrPermission)
	}

	if err := f.fs.takeFault(OpWrite, f.path); err != nil {
		return 0, err
	}

	end := f.offset + len(p)
	if end > len(f.data) {
		grown := make([]byte, end)
		copy(grown, f.data)
		f.data = grown
	}

	copy(f.data[f.offset:], p)
	f.offset = end

	return len(p), nil
}

func (f *mockFileHandle) Close() error {
	if f.closed {
		return os.ErrClosed
	}

	f.closed = true

	if f.writable {
		f.commit()
	}

	return nil
}

func (f *mockFileHandle) Stat() (os.FileInfo, error) {
	if f.closed {
		return nil, os.ErrClosed
	}

	return f.fs.Stat(f.path)
}

func (f *mockFileHandle) Truncate(size int64) error {
	if f.closed {
		return os.ErrClosed
	}

	if !f.writable {
		return fmt.Errorf("truncate %s: %w", f.path, os.ErrPermission)
	}

	resized := make([]byte, size)
	copy(resized, f.data)
	f.data = resized
	f.commit()

	return nil
}

func (f *mockFileHandle) commit() {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()

	data := make([]byte, len(f.data))
	copy(data, f.data)

	if file, exists := f.fs.files[f.path]; exists {
		file.data = data
		file.modTime = time.Now()

		return
	}

	f.fs.files[f.path] = &mockFile{data: data, modTime: time.Now(), perm: 0o644} //nolint:mnd // Default file mode
}

// NewMockFileSystem creates a new in-memory filesystem.
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		files:  make(map[string]*mockFile),
		faults: make(map[string]*mockFault),
	}
}

// Chtimes changes the modification time of a file.
func (fs *MockFileSystem) Chtimes(path string, _, mtime time.Time) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	file, exists := fs.files[path]
	if !exists {
		return fmt.Errorf("chtimes %s: %w", path, os.ErrNotExist)
	}

	file.modTime = mtime

	return nil
}

// Create creates or truncates a file for writing, creating parents as needed.
func (fs *MockFileSystem) Create(path string) (File, error) {
	return fs.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644) //nolint:mnd // Default file mode
}

// MkdirAll creates a directory and all necessary parents.
func (fs *MockFileSystem) MkdirAll(path string, perm os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	return fs.mkdirAllLocked(path, perm)
}

// Open opens a file for reading.
func (fs *MockFileSystem) Open(path string) (File, error) {
	return fs.OpenFile(path, os.O_RDONLY, 0)
}

// OpenFile opens a file honoring O_CREATE, O_TRUNC, O_EXCL and O_APPEND.
//
//nolint:cyclop // One branch per supported flag
func (fs *MockFileSystem) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	writable := flag&(os.O_WRONLY|os.O_RDWR) != 0

	op := OpOpen
	if flag&os.O_CREATE != 0 {
		op = OpCreate
	}

	if err := fs.takeFault(op, path); err != nil {
		return nil, err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	file, exists := fs.files[path]

	switch {
	case exists && file.isDir:
		return nil, fmt.Errorf("open %s: %w", path, ErrIsDirectory)
	case exists && flag&os.O_CREATE != 0 && flag&os.O_EXCL != 0:
		return nil, fmt.Errorf("open %s: %w", path, os.ErrExist)
	case !exists && flag&os.O_CREATE == 0:
		return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	case !exists:
		if err := fs.mkdirAllLocked(filepath.Dir(path), 0o755); err != nil { //nolint:mnd // Default directory mode
			return nil, err
		}

		file = &mockFile{modTime: time.Now(), perm: perm}
		fs.files[path] = file
	}

	if flag&os.O_TRUNC != 0 {
		file.data = nil
	}

	handle := &mockFileHandle{fs: fs, path: path, writable: writable}
	handle.data = append([]byte(nil), file.data...)

	if flag&os.O_APPEND != 0 {
		handle.offset = len(handle.data)
	}

	return handle, nil
}

// Remove removes a file or empty directory.
func (fs *MockFileSystem) Remove(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	file, exists := fs.files[path]
	if !exists {
		return fmt.Errorf("remove %s: %w", path, os.ErrNotExist)
	}

	if file.isDir {
		for p := range fs.files {
			if strings.HasPrefix(p, path+"/") {
				return fmt.Errorf("remove %s: %w", path, ErrNotEmpty)
			}
		}
	}

	delete(fs.files, path)

	return nil
}

// Rename moves a file or directory tree, replacing a destination file.
func (fs *MockFileSystem) Rename(oldPath, newPath string) error {
	if err := fs.takeFault(OpRename, oldPath); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	file, exists := fs.files[oldPath]
	if !exists {
		return fmt.Errorf("rename %s: %w", oldPath, os.ErrNotExist)
	}

	if target, ok := fs.files[newPath]; ok && target.isDir {
		return fmt.Errorf("rename %s to %s: %w", oldPath, newPath, ErrIsDirectory)
	}

	if err := fs.mkdirAllLocked(filepath.Dir(newPath), 0o755); err != nil { //nolint:mnd // Default directory mode
		return err
	}

	children := make(map[string]*mockFile)

	for p, child := range fs.files {
		if strings.HasPrefix(p, oldPath+"/") {
			children[p] = child
		}
	}

	delete(fs.files, oldPath)
	fs.files[newPath] = file

	for p, child := range children {
		delete(fs.files, p)
		fs.files[newPath+strings.TrimPrefix(p, oldPath)] = child
	}

	return nil
}

// SameVolume reports whether both paths fall under the same volume root
// configured with SetVolumes. With no volumes configured everything is one volume.
func (fs *MockFileSystem) SameVolume(pathA, pathB string) (bool, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	return fs.volumeOfLocked(pathA) == fs.volumeOfLocked(pathB), nil
}

// Stat returns file information.
func (fs *MockFileSystem) Stat(path string) (os.FileInfo, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	file, exists := fs.files[path]
	if !exists {
		return nil, fmt.Errorf("stat %s: %w", path, os.ErrNotExist)
	}

	return &mockFileInfo{
		name:    filepath.Base(path),
		size:    int64(len(file.data)),
		modTime: file.modTime,
		isDir:   file.isDir,
		perm:    file.perm,
	}, nil
}

// Helper methods for testing

// AddFile adds a file with the given content and modtime.
func (fs *MockFileSystem) AddFile(path string, content []byte, modTime time.Time) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	_ = fs.mkdirAllLocked(filepath.Dir(path), 0o755) //nolint:mnd // Default directory mode

	fs.files[path] = &mockFile{
		data:    append([]byte(nil), content...),
		modTime: modTime,
		perm:    0o644, //nolint:mnd // Default file mode
	}
}

// AddDir adds a directory with the given modtime.
func (fs *MockFileSystem) AddDir(path string, modTime time.Time) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	_ = fs.mkdirAllLocked(path, 0o755) //nolint:mnd // Default directory mode
	fs.files[path].modTime = modTime
}

// Exists reports whether a file or directory exists.
func (fs *MockFileSystem) Exists(path string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	_, exists := fs.files[path]

	return exists
}

// GetFile returns a copy of the file content.
func (fs *MockFileSystem) GetFile(path string) ([]byte, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	file, exists := fs.files[path]
	if !exists || file.isDir {
		return nil, false
	}

	return append([]byte(nil), file.data...), true
}

// InjectFault makes the next times calls of op on path fail with err.
func (fs *MockFileSystem) InjectFault(op, path string, times int, err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.faults[op+"\x00"+path] = &mockFault{remaining: times, err: err}
}

// ListFiles returns all paths in the mock filesystem, sorted.
func (fs *MockFileSystem) ListFiles() []string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	paths := make([]string, 0, len(fs.files))
	for p := range fs.files {
		paths = append(paths, p)
	}

	sort.Strings(paths)

	return paths
}

// SetReadDelay slows every Read call down by d.
func (fs *MockFileSystem) SetReadDelay(d time.Duration) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.readDelay = d
}

// SetVolumes declares volume root directories for SameVolume.
func (fs *MockFileSystem) SetVolumes(roots ...string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.volumes = append([]string(nil), roots...)
}

func (fs *MockFileSystem) delay() time.Duration {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	return fs.readDelay
}

func (fs *MockFileSystem) mkdirAllLocked(path string, perm os.FileMode) error {
	if path == "." || path == "/" || path == "" {
		return nil
	}

	if existing, exists := fs.files[path]; exists {
		if !existing.isDir {
			return fmt.Errorf("mkdir %s: %w", path, os.ErrExist)
		}

		return nil
	}

	if err := fs.mkdirAllLocked(filepath.Dir(path), perm); err != nil {
		return err
	}

	fs.files[path] = &mockFile{modTime: time.Now(), isDir: true, perm: perm}

	return nil
}

func (fs *MockFileSystem) takeFault(op, path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	key := op + "\x00" + path

	fault, ok := fs.faults[key]
	if !ok || fault.remaining <= 0 {
		return nil
	}

	fault.remaining--
	if fault.remaining == 0 {
		delete(fs.faults, key)
	}

	return fault.err
}

func (fs *MockFileSystem) volumeOfLocked(path string) string {
	best := ""

	for _, root := range fs.volumes {
		if (path == root || strings.HasPrefix(path, strings.TrimSuffix(root, "/")+"/")) && len(root) > len(best) {
			best = root
		}
	}

	return best
}
