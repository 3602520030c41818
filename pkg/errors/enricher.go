package errors

import (
	"context"
	"errors"
	"os"
	"regexp"
	"strings"
	"syscall"
)

// Enricher enriches standard errors with actionable suggestions.
type Enricher interface {
	Enrich(err error, affectedPath string) error
}

// Rule maps errors matching Target (via errors.Is) to a category.
type Rule struct {
	Target   error
	Category ErrorCategory
}

// NewEnricher creates an Enricher. Rules are checked in order before the
// built-in ones; messages that match no rule go through the pattern matcher.
func NewEnricher(rules ...Rule) Enricher {
	all := make([]Rule, 0, len(rules)+len(defaultRules))
	all = append(all, rules...)
	all = append(all, defaultRules...)

	return &enricher{
		rules:     all,
		matcher:   NewPatternMatcher(),
		generator: NewSuggestionGenerator(),
	}
}

// unexported variables.
var (
	//nolint:gochecknoglobals // Compiled regexes shared across all enricher instances for performance
	pathExtractionPatterns = []*regexp.Regexp{
		// Unix/Linux paths (absolute and relative)
		regexp.MustCompile(`\b\w+\s+([./][^\s:]+):`),
		// Windows paths with backslashes
		regexp.MustCompile(`\b\w+\s+([A-Za-z]:\\[^\s:]+):`),
		// Windows paths with forward slashes
		regexp.MustCompile(`\b\w+\s+([A-Za-z]:/[^\s:]+):`),
	}

	//nolint:gochecknoglobals // Fixed rule table
	defaultRules = []Rule{
		{Target: context.Canceled, Category: CategoryCancelled},
		{Target: context.DeadlineExceeded, Category: CategoryCancelled},
		{Target: os.ErrExist, Category: CategoryExists},
		{Target: os.ErrNotExist, Category: CategoryPath},
		{Target: os.ErrPermission, Category: CategoryPermission},
		{Target: syscall.ENOSPC, Category: CategoryDiskSpace},
		{Target: syscall.ENOTEMPTY, Category: CategoryDelete},
		{Target: syscall.EIO, Category: CategoryCopy},
	}

	//nolint:gochecknoglobals // Log codes follow the Windows error numbers the mirroring tool prints
	categoryCodes = map[ErrorCategory]int{
		CategoryPath:       2,
		CategoryPermission: 5,
		CategoryDiskSpace:  112,
		CategoryDelete:     145,
		CategoryExists:     183,
		CategoryNetwork:    64,
		CategoryCopy:       1117,
		CategoryCancelled:  1223,
	}
)

// enricher is the concrete implementation of Enricher.
type enricher struct {
	rules     []Rule
	matcher   PatternMatcher
	generator SuggestionGenerator
}

// Enrich takes a standard error and enriches it with category and actionable suggestions.
// If the error is already an ActionableError, it is returned unchanged.
// If affectedPath is empty, attempts to extract a path from the error message.
func (e *enricher) Enrich(err error, affectedPath string) error {
	var actionableErr ActionableError
	if errors.As(err, &actionableErr) {
		return actionableErr
	}

	errMsg := err.Error()

	if affectedPath == "" {
		affectedPath = extractPath(errMsg)
	}

	category := e.categorize(err)

	return NewActionableError(
		err,
		category,
		e.generator.Generate(category, affectedPath),
		affectedPath,
	)
}

func (e *enricher) categorize(err error) ErrorCategory {
	for _, rule := range e.rules {
		if errors.Is(err, rule.Target) {
			return rule.Category
		}
	}

	return e.matcher.Match(err.Error())
}

// codeFor returns the log code for a category, or the raw errno when the
// category has none.
func codeFor(err error, category ErrorCategory) int {
	if code, ok := categoryCodes[category]; ok {
		return code
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return int(errno)
	}

	return 0
}

// extractPath attempts to extract a file path from common Go error message formats
// such as "open /path/to/file: permission denied". Returns empty string if no path
// is found.
func extractPath(errorMsg string) string {
	for _, pattern := range pathExtractionPatterns {
		if matches := pattern.FindStringSubmatch(errorMsg); len(matches) > 1 {
			path := strings.TrimSpace(matches[1])
			if path != "" {
				return path
			}
		}
	}

	return ""
}
