package filesystem

import (
	"fmt"
)

// Dial returns the FileSystem serving location together with the path to use
// on it and a closer. Local locations get a RealFileSystem and a no-op closer.
func Dial(location string) (FileSystem, string, func(), error) {
	loc, err := ParseLocation(location)
	if err != nil {
		return nil, "", nil, err
	}

	if !loc.IsRemote {
		return NewRealFileSystem(), loc.Path, func() {}, nil
	}

	conn, err := Connect(loc.Host, loc.Port, loc.User)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to connect to %s@%s:%d: %w", loc.User, loc.Host, loc.Port, err)
	}

	fs := NewSFTPFileSystem(conn)

	return fs, loc.Path, func() { _ = fs.Close() }, nil
}
