package errors

import "fmt"

// SuggestionGenerator generates actionable suggestions based on error category.
type SuggestionGenerator interface {
	Generate(category ErrorCategory, affectedPath string) []string
}

// NewSuggestionGenerator creates a new SuggestionGenerator.
func NewSuggestionGenerator() SuggestionGenerator {
	return &suggestionGenerator{}
}

type suggestionGenerator struct{}

// advice is what a category suggests. withPath is formatted with the affected
// path and only added when one is known.
type advice struct {
	always   []string
	withPath []string
	after    []string
}

//nolint:gochecknoglobals // Read-only lookup table
var adviceByCategory = map[ErrorCategory]advice{
	CategoryCancelled: {
		always: []string{
			"The batch was stopped before this file finished; run the job again to complete it",
			"With the native backend, --restartable keeps partial files so the next run resumes them",
		},
	},
	CategoryExists: {
		always:   []string{"The destination already exists and the copy was not allowed to overwrite it"},
		withPath: []string{"Remove or rename %s, then run the job again"},
		after:    []string{"Pass --is to recopy files whose size and date already match"},
	},
	CategoryNetwork: {
		always: []string{
			"Check the connection to the SFTP server given with --remote",
			"Raise --retries and --wait so short outages are ridden out",
		},
		withPath: []string{"Rerun the job to pick up %s once the server is reachable"},
	},
	CategoryCopy: {
		always: []string{
			"Check that source and destination media are healthy",
			"Raise --retries if the read or write error is intermittent",
			"Try the streamed backend if the native one keeps failing",
		},
	},
	CategoryDelete: {
		always:   []string{"A source or extra destination file could not be removed"},
		withPath: []string{"Check whether another process holds %s open", "Inspect the parent directory of %s with 'ls -la'"},
	},
	CategoryDiskSpace: {
		always:   []string{"Free space on the destination device ('df -h' shows usage)"},
		withPath: []string{"Check the filesystem that holds %s"},
		after:    []string{"Narrow the batch with --max-size or --exclude"},
	},
	CategoryPath: {
		always:   []string{"Check that the pair names an existing source file with an absolute path"},
		withPath: []string{"Confirm %s exists", "Make sure the parent directories of %s are reachable"},
	},
	CategoryPermission: {
		always:   []string{"The batch needs read access to sources and write access to destinations"},
		withPath: []string{"Check permissions with 'ls -la %s'"},
		after:    []string{"Run as a user that owns the files, or adjust their mode"},
	},
	CategoryUnknown: {
		always:   []string{"Read the error message above for details", "Run with --verbose for diagnostic logging"},
		withPath: []string{"Check that %s is accessible"},
	},
}

// Generate returns actionable suggestions based on the error category and affected path.
func (g *suggestionGenerator) Generate(category ErrorCategory, affectedPath string) []string {
	a, ok := adviceByCategory[category]
	if !ok {
		a = adviceByCategory[CategoryUnknown]
	}

	suggestions := append([]string(nil), a.always...)

	if affectedPath != "" {
		for _, format := range a.withPath {
			suggestions = append(suggestions, fmt.Sprintf(format, affectedPath))
		}
	}

	return append(suggestions, a.after...)
}
