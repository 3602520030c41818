package config

import (
	"fmt"
	"strings"
	"time"
)

// CopyOptions controls what happens to each eligible file.
type CopyOptions struct {
	Move           bool
	Purge          bool
	ListOnly       bool
	Restartable    bool
	BufferSize     int
	Backend        Backend
	MaxConcurrency int
}

// Serialize renders the options as mirroring-tool style switches.
func (o CopyOptions) Serialize() string {
	var parts []string

	if o.Move {
		parts = append(parts, "/MOV")
	}

	if o.Purge {
		parts = append(parts, "/PURGE")
	}

	if o.ListOnly {
		parts = append(parts, "/L")
	}

	if o.Restartable {
		parts = append(parts, "/Z")
	}

	if o.Backend == Streamed && o.BufferSize > 0 {
		parts = append(parts, fmt.Sprintf("/BUF:%d", o.BufferSize))
	}

	if o.Backend == Native {
		parts = append(parts, "/NATIVE")
	}

	if o.MaxConcurrency > 1 {
		parts = append(parts, fmt.Sprintf("/MT:%d", o.MaxConcurrency))
	}

	return strings.Join(parts, " ")
}

// SelectionOptions decides which pairs are eligible for copying.
type SelectionOptions struct {
	ExcludeNewer  bool
	ExcludeOlder  bool
	IncludeSame   bool
	Include       []string
	Exclude       []string
	MinSize       int64
	MaxSize       int64
	MaxAge        time.Duration
	TimeTolerance time.Duration
}

// HasFilter reports whether any glob, size or age filter is configured.
func (o SelectionOptions) HasFilter() bool {
	return len(o.Include) > 0 || len(o.Exclude) > 0 || o.MinSize > 0 || o.MaxSize > 0 || o.MaxAge > 0
}

// Serialize renders the options as mirroring-tool style switches.
func (o SelectionOptions) Serialize() string {
	var parts []string

	if o.ExcludeNewer {
		parts = append(parts, "/XN")
	}

	if o.ExcludeOlder {
		parts = append(parts, "/XO")
	}

	if o.IncludeSame {
		parts = append(parts, "/IS")
	}

	for _, pattern := range o.Include {
		parts = append(parts, "/IF:"+pattern)
	}

	for _, pattern := range o.Exclude {
		parts = append(parts, "/XF:"+pattern)
	}

	if o.MinSize > 0 {
		parts = append(parts, fmt.Sprintf("/MIN:%d", o.MinSize))
	}

	if o.MaxSize > 0 {
		parts = append(parts, fmt.Sprintf("/MAX:%d", o.MaxSize))
	}

	if o.MaxAge > 0 {
		parts = append(parts, "/MAXAGE:"+o.MaxAge.String())
	}

	if o.TimeTolerance > 0 {
		parts = append(parts, "/FFT:"+o.TimeTolerance.String())
	}

	return strings.Join(parts, " ")
}

// RetryOptions controls retries of failed files.
type RetryOptions struct {
	Count int
	Wait  time.Duration
}

// Serialize renders the options as mirroring-tool style switches.
func (o RetryOptions) Serialize() string {
	return fmt.Sprintf("/R:%d /W:%s", o.Count, o.Wait)
}

// LoggingOptions controls the job log.
type LoggingOptions struct {
	LogPath    string
	Append     bool
	NoFileList bool
}

// Serialize renders the options as mirroring-tool style switches.
func (o LoggingOptions) Serialize() string {
	var parts []string

	if o.LogPath != "" {
		flag := "/LOG:"
		if o.Append {
			flag = "/LOG+:"
		}

		parts = append(parts, flag+o.LogPath)
	}

	if o.NoFileList {
		parts = append(parts, "/NFL")
	}

	return strings.Join(parts, " ")
}

// JobOptions names the job.
type JobOptions struct {
	Name string
}

// JoinSwitches joins the non-empty serialized option groups.
func JoinSwitches(groups ...string) string {
	var parts []string

	for _, group := range groups {
		if group != "" {
			parts = append(parts, group)
		}
	}

	return strings.Join(parts, " ")
}
