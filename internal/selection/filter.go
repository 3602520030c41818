// Package selection decides which file pairs a batch copies, from name
// patterns, size bounds and age.
package selection

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/joe/batchcopy/internal/clock"
	"github.com/joe/batchcopy/internal/config"
	"github.com/joe/batchcopy/pkg/fileops"
)

// ErrInvalidPattern is returned for glob patterns doublestar cannot parse.
var ErrInvalidPattern = errors.New("invalid glob pattern")

// GlobFilter selects pairs by their source. Patterns without a slash match
// the file name; patterns with one match the whole source path. Matching is
// case-insensitive.
type GlobFilter struct {
	include []string
	exclude []string
	minSize int64
	maxSize int64
	maxAge  time.Duration
	clock   clock.TimeProvider
}

// NewGlobFilter builds a filter from the selection options.
func NewGlobFilter(opts config.SelectionOptions, provider clock.TimeProvider) (*GlobFilter, error) {
	if provider == nil {
		provider = clock.Real()
	}

	include, err := normalize(opts.Include)
	if err != nil {
		return nil, err
	}

	exclude, err := normalize(opts.Exclude)
	if err != nil {
		return nil, err
	}

	return &GlobFilter{
		include: include,
		exclude: exclude,
		minSize: opts.MinSize,
		maxSize: opts.MaxSize,
		maxAge:  opts.MaxAge,
		clock:   provider,
	}, nil
}

func normalize(patterns []string) ([]string, error) {
	out := make([]string, 0, len(patterns))

	for _, p := range patterns {
		if p == "" {
			continue
		}

		lower := strings.ToLower(filepath.ToSlash(p))
		if !doublestar.ValidatePattern(lower) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, p)
		}

		out = append(out, lower)
	}

	return out, nil
}

// ShouldCopy reports whether the pair's source passes every configured test.
func (f *GlobFilter) ShouldCopy(pair *fileops.FilePair) bool {
	source := strings.ToLower(filepath.ToSlash(pair.Source))

	if matchesAny(f.exclude, source) {
		return false
	}

	if len(f.include) > 0 && !matchesAny(f.include, source) {
		return false
	}

	size := pair.SourceMeta.Size
	if size < f.minSize {
		return false
	}

	if f.maxSize > 0 && size > f.maxSize {
		return false
	}

	if f.maxAge > 0 && !pair.SourceMeta.ModTime.IsZero() &&
		f.clock.Now().Sub(pair.SourceMeta.ModTime) > f.maxAge {
		return false
	}

	return true
}

func matchesAny(patterns []string, source string) bool {
	name := path.Base(source)
	trimmed := strings.TrimPrefix(source, "/")

	for _, pattern := range patterns {
		target := trimmed
		if !strings.Contains(pattern, "/") {
			target = name
		}

		// Patterns were validated up front.
		if matched, _ := doublestar.Match(strings.TrimPrefix(pattern, "/"), target); matched {
			return true
		}
	}

	return false
}
