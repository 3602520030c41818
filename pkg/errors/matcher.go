package errors

import "strings"

// PatternMatcher matches error messages to categories using string patterns.
type PatternMatcher interface {
	Match(errorMsg string) ErrorCategory
}

type categoryPatterns struct {
	category ErrorCategory
	patterns []string
}

// NewPatternMatcher creates a new PatternMatcher with predefined patterns.
// Categories are tried in a fixed order so overlapping messages resolve the
// same way every time.
func NewPatternMatcher() PatternMatcher {
	return &patternMatcher{
		patterns: []categoryPatterns{
			{CategoryCancelled, []string{
				"operation cancelled",
				"context canceled",
			}},
			{CategoryExists, []string{
				"already exists",
				"file exists",
			}},
			{CategoryPermission, []string{
				"permission denied",
				"access denied",
				"operation not permitted",
			}},
			{CategoryDiskSpace, []string{
				"no space left on device",
				"disk full",
				"quota exceeded",
			}},
			{CategoryPath, []string{
				"no such file or directory",
				"file not found",
				"path does not exist",
			}},
			{CategoryDelete, []string{
				"directory not empty",
				"cannot remove",
			}},
			{CategoryNetwork, []string{
				"connection lost",
				"connection reset",
				"broken pipe",
				"no connection",
				"use of closed network connection",
			}},
			{CategoryCopy, []string{
				"short write",
				"input/output error",
				"i/o error",
			}},
		},
	}
}

// patternMatcher is the concrete implementation of PatternMatcher.
type patternMatcher struct {
	patterns []categoryPatterns
}

// Match returns the error category based on pattern matching.
func (m *patternMatcher) Match(errorMsg string) ErrorCategory {
	lowerMsg := strings.ToLower(errorMsg)

	for _, group := range m.patterns {
		for _, pattern := range group.patterns {
			if strings.Contains(lowerMsg, pattern) {
				return group.category
			}
		}
	}

	return CategoryUnknown
}
