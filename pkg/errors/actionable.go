// Package errors turns copy failures into actionable errors: a category, a
// log code and suggestions the user can act on.
//
// Basic Usage:
//
//	enricher := errors.NewEnricher(errors.Rule{Target: copier.ErrAlreadyExists, Category: errors.CategoryExists})
//	_, err := c.Copy(ctx, false)
//	if err != nil {
//	    enriched := enricher.Enrich(err, c.Destination())
//	    actionable := enriched.(errors.ActionableError)
//	    fmt.Println(actionable.Code(), actionable.Category(), actionable.Error())
//	}
//
// The enriched error still wraps the original, so errors.Is keeps working on it.
//
// The enricher extracts paths from error messages when none is given:
//
//	err := errors.New("open /home/user/file.txt: permission denied")
//	enriched := enricher.Enrich(err, "") // Path will be extracted from error message
package errors

import (
	"errors"
	"strings"
)

// Exported constants.
const (
	CategoryCancelled  ErrorCategory = "cancelled"
	CategoryCopy       ErrorCategory = "copy"
	CategoryDelete     ErrorCategory = "delete"
	CategoryDiskSpace  ErrorCategory = "disk_space"
	CategoryExists     ErrorCategory = "exists"
	CategoryNetwork    ErrorCategory = "network"
	CategoryPath       ErrorCategory = "path"
	CategoryPermission ErrorCategory = "permission"
	CategoryUnknown    ErrorCategory = "unknown"
)

// ActionableError represents an error with actionable suggestions for the user.
type ActionableError interface {
	error
	OriginalError() string
	Category() ErrorCategory
	Code() int
	Suggestions() []string
	AffectedPath() string
	Unwrap() error
}

// NewActionableError creates a new ActionableError wrapping cause.
func NewActionableError(
	cause error,
	category ErrorCategory,
	suggestions []string,
	affectedPath string,
) ActionableError {
	return &actionableError{
		cause:        cause,
		category:     category,
		code:         codeFor(cause, category),
		suggestions:  suggestions,
		affectedPath: affectedPath,
	}
}

// ErrorCategory represents the type of error that occurred.
type ErrorCategory string

// FormatSuggestions formats the suggestions from an ActionableError as a bulleted list
// for display in the TUI. Returns empty string if the error is nil or has no suggestions.
func FormatSuggestions(err error) string {
	if err == nil {
		return ""
	}

	var actionable ActionableError
	if !errors.As(err, &actionable) {
		return ""
	}

	suggestions := actionable.Suggestions()
	if len(suggestions) == 0 {
		return ""
	}

	var builder strings.Builder
	for i, suggestion := range suggestions {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString("  • ")
		builder.WriteString(suggestion)
	}

	return builder.String()
}

// actionableError is the concrete implementation of ActionableError.
type actionableError struct {
	cause        error
	category     ErrorCategory
	code         int
	suggestions  []string
	affectedPath string
}

// AffectedPath returns the file path affected by this error.
func (e *actionableError) AffectedPath() string {
	return e.affectedPath
}

// Category returns the error category.
func (e *actionableError) Category() ErrorCategory {
	return e.category
}

// Code returns the numeric code written to the job log.
func (e *actionableError) Code() int {
	return e.code
}

// Error implements the error interface.
func (e *actionableError) Error() string {
	return e.cause.Error()
}

// OriginalError returns the original error message.
func (e *actionableError) OriginalError() string {
	return e.cause.Error()
}

// Suggestions returns the list of actionable suggestions.
func (e *actionableError) Suggestions() []string {
	return e.suggestions
}

// Unwrap returns the original error.
func (e *actionableError) Unwrap() error {
	return e.cause
}
