package errors_test

import (
	"testing"

	"github.com/joe/batchcopy/pkg/errors"
)

func TestPatternMatcher_Match(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		errorMsg string
		expected errors.ErrorCategory
	}{
		{"operation cancelled: /src/a", errors.CategoryCancelled},
		{"context canceled", errors.CategoryCancelled},
		{"destination already exists: /dst/a", errors.CategoryExists},
		{"mkdir /x: file exists", errors.CategoryExists},
		{"open /etc/shadow: permission denied", errors.CategoryPermission},
		{"Access Denied", errors.CategoryPermission},
		{"operation not permitted", errors.CategoryPermission},
		{"write /dst/a: no space left on device", errors.CategoryDiskSpace},
		{"disk quota exceeded", errors.CategoryDiskSpace},
		{"stat /x: no such file or directory", errors.CategoryPath},
		{"source file not found: /x", errors.CategoryPath},
		{"remove /x: directory not empty", errors.CategoryDelete},
		{"connection lost", errors.CategoryNetwork},
		{"write tcp: broken pipe", errors.CategoryNetwork},
		{"short write", errors.CategoryCopy},
		{"read /x: input/output error", errors.CategoryCopy},
		{"PERMISSION DENIED", errors.CategoryPermission},
		{"something strange happened", errors.CategoryUnknown},
		{"", errors.CategoryUnknown},
	}

	matcher := errors.NewPatternMatcher()

	for _, tc := range testCases {
		t.Run(tc.errorMsg, func(t *testing.T) {
			t.Parallel()

			if got := matcher.Match(tc.errorMsg); got != tc.expected {
				t.Errorf("expected category %q, got %q for error: %q", tc.expected, got, tc.errorMsg)
			}
		})
	}
}

func TestPatternMatcher_OverlapResolvesInFixedOrder(t *testing.T) {
	t.Parallel()

	matcher := errors.NewPatternMatcher()
	msg := "operation cancelled while writing: no space left on device"

	for range 20 {
		if got := matcher.Match(msg); got != errors.CategoryCancelled {
			t.Fatalf("expected %q, got %q", errors.CategoryCancelled, got)
		}
	}
}
