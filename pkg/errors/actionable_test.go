package errors_test

import (
	stderrors "errors"
	"io/fs"
	"testing"

	"github.com/joe/batchcopy/pkg/errors"
)

func TestActionableError_WrapsCause(t *testing.T) {
	t.Parallel()

	cause := &fs.PathError{Op: "open", Path: "/src/a.txt", Err: fs.ErrPermission}
	err := errors.NewActionableError(cause, errors.CategoryPermission, []string{"fix it"}, "/src/a.txt")

	if err.Error() != cause.Error() {
		t.Errorf("expected message %q, got %q", cause.Error(), err.Error())
	}

	if err.OriginalError() != cause.Error() {
		t.Errorf("expected original error %q, got %q", cause.Error(), err.OriginalError())
	}

	if !stderrors.Is(err, fs.ErrPermission) {
		t.Error("expected errors.Is to see through the actionable error")
	}

	if err.Unwrap() != cause {
		t.Error("expected Unwrap to return the cause")
	}

	if err.AffectedPath() != "/src/a.txt" {
		t.Errorf("expected path /src/a.txt, got %q", err.AffectedPath())
	}

	if err.Code() != 5 {
		t.Errorf("expected code 5 for permission errors, got %d", err.Code())
	}
}

func TestActionableError_Codes(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		category errors.ErrorCategory
		code     int
	}{
		{errors.CategoryPath, 2},
		{errors.CategoryPermission, 5},
		{errors.CategoryDiskSpace, 112},
		{errors.CategoryExists, 183},
		{errors.CategoryCancelled, 1223},
		{errors.CategoryUnknown, 0},
	}

	for _, tc := range testCases {
		t.Run(string(tc.category), func(t *testing.T) {
			t.Parallel()

			err := errors.NewActionableError(stderrors.New("boom"), tc.category, nil, "")
			if err.Code() != tc.code {
				t.Errorf("expected code %d, got %d", tc.code, err.Code())
			}
		})
	}
}

func TestFormatSuggestions(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name:     "plain error",
			err:      stderrors.New("plain"),
			expected: "",
		},
		{
			name:     "no suggestions",
			err:      errors.NewActionableError(stderrors.New("x"), errors.CategoryUnknown, nil, ""),
			expected: "",
		},
		{
			name:     "single suggestion",
			err:      errors.NewActionableError(stderrors.New("x"), errors.CategoryPath, []string{"one"}, ""),
			expected: "  • one",
		},
		{
			name: "multiple suggestions",
			err: errors.NewActionableError(stderrors.New("x"), errors.CategoryPath,
				[]string{"one", "two", "three"}, ""),
			expected: "  • one\n  • two\n  • three",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := errors.FormatSuggestions(tc.err); got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestErrorCategory_CategoriesAreDistinct(t *testing.T) {
	t.Parallel()

	categories := []errors.ErrorCategory{
		errors.CategoryCancelled,
		errors.CategoryCopy,
		errors.CategoryDelete,
		errors.CategoryDiskSpace,
		errors.CategoryExists,
		errors.CategoryNetwork,
		errors.CategoryPath,
		errors.CategoryPermission,
		errors.CategoryUnknown,
	}

	seen := make(map[errors.ErrorCategory]bool)

	for _, cat := range categories {
		if seen[cat] {
			t.Errorf("duplicate category value: %q", cat)
		}

		seen[cat] = true
	}
}
