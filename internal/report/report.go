// Package report holds the per-machine outcome of a pruning run.
package report

import (
	"time"
)

// Failure is an archive whose deletion failed.
type Failure struct {
	Archive string
	Error   string
}

// Report summarises one machine in one run.
type Report struct {
	RunID    string
	Hostname string
	KeyFile  string
	Started  time.Time
	Duration time.Duration
	DryRun   bool

	Daily   int
	Weekly  int
	Monthly int
	Unknown int

	Kept   int
	Pruned []string // deleted, or selected for deletion in a dry run
	Failed []Failure

	// Err is a machine-level error: configuration, listing, cache refresh.
	Err error
}

// Total is the number of archives the machine had.
func (r Report) Total() int {
	return r.Daily + r.Weekly + r.Monthly + r.Unknown
}

// OK reports whether the machine finished without any error.
func (r Report) OK() bool {
	return r.Err == nil && len(r.Failed) == 0
}

// Status is "ok", "partial" (some deletions failed) or "error".
func (r Report) Status() string {
	switch {
	case r.Err != nil:
		return "error"
	case len(r.Failed) > 0:
		return "partial"
	default:
		return "ok"
	}
}

// ErrorString returns Err as text, or "".
func (r Report) ErrorString() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
