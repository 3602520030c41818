package filesystem

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Exported variables.
var (
	ErrNotSFTP         = errors.New("expected sftp:// scheme")
	ErrMissingUser     = errors.New("SFTP URL must include username (sftp://user@host/path)")
	ErrMissingHost     = errors.New("SFTP URL must include host")
	ErrInvalidSFTPPort = errors.New("invalid port number")
)

const defaultSFTPPort = 22

// Location is either a local path or a path on an SFTP server.
type Location struct {
	IsRemote bool
	Host     string
	Port     int
	User     string
	// Path is the local path, or the remote path for SFTP locations.
	Path string
}

// ParseLocation detects whether s is a local path or an SFTP URL of the form
// sftp://user@host[:port]/path. A single leading slash makes the remote path
// relative to the login directory; a double slash makes it absolute.
//
//	sftp://joe@nas/backups       -> backups (home relative)
//	sftp://joe@nas:2222//srv/x   -> /srv/x
//	/local/path                  -> /local/path
func ParseLocation(s string) (*Location, error) {
	if !strings.HasPrefix(s, "sftp://") {
		if strings.Contains(s, "://") {
			return nil, fmt.Errorf("%w: %s", ErrNotSFTP, s)
		}

		return &Location{Path: s}, nil
	}

	u, err := url.Parse(s) //nolint:varnamelen // u is idiomatic for URL
	if err != nil {
		return nil, fmt.Errorf("invalid SFTP URL: %w", err)
	}

	if u.User == nil || u.User.Username() == "" {
		return nil, ErrMissingUser
	}

	if u.Hostname() == "" {
		return nil, ErrMissingHost
	}

	port := defaultSFTPPort

	if raw := u.Port(); raw != "" {
		port, err = strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidSFTPPort, raw)
		}
	}

	remote := u.Path

	switch {
	case remote == "" || remote == "/":
		remote = "."
	case strings.HasPrefix(remote, "//"):
		remote = remote[1:]
	default:
		remote = strings.TrimPrefix(remote, "/")
	}

	return &Location{
		IsRemote: true,
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Path:     remote,
	}, nil
}

// String renders the location back into the form ParseLocation accepts.
func (l *Location) String() string {
	if !l.IsRemote {
		return l.Path
	}

	path := "/" + l.Path
	if l.Path == "." {
		path = ""
	}

	return fmt.Sprintf("sftp://%s@%s:%d%s", l.User, l.Host, l.Port, path)
}
