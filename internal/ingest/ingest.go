package ingest

import (
	"errors"
	"time"

	"releasesync/internal/release"
)

const (
	StatusRunning   = "RUNNING"
	StatusCompleted = "COMPLETED"
	StatusPartial   = "PARTIAL"
	StatusFailed    = "FAILED"
)

// ErrRunInProgress is returned when a trigger fires while a run is active.
var ErrRunInProgress = errors.New("sync run already in progress")

// Run is the bookkeeping row for one invocation.
type Run struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  *time.Time
	Status      string // RUNNING, COMPLETED, PARTIAL, FAILED
	Providers   string
	Fetched     int
	Saved       int
	WriteErrors int
	Failures    int
	Error       string
}

type ProviderSummary struct {
	Name        string
	Skipped     bool
	Fetched     int
	Dropped     int
	Emitted     int
	Saved       int
	WriteErrors int
	Duration    time.Duration
	Failures    []*release.Failure
}

// Summary is the outcome of one Service.Run.
type Summary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Providers  []ProviderSummary
	Saved      int
}

func (s Summary) Fetched() int {
	var n int
	for _, p := range s.Providers {
		n += p.Fetched
	}
	return n
}

func (s Summary) WriteErrors() int {
	var n int
	for _, p := range s.Providers {
		n += p.WriteErrors
	}
	return n
}

func (s Summary) Failures() []*release.Failure {
	var out []*release.Failure
	for _, p := range s.Providers {
		out = append(out, p.Failures...)
	}
	return out
}

// FailureKinds counts failures by kind.
func (s Summary) FailureKinds() map[release.ErrorKind]int {
	out := make(map[release.ErrorKind]int)
	for _, f := range s.Failures() {
		out[f.Kind]++
	}
	return out
}

// Degraded reports failures other than missing credentials.
func (s Summary) Degraded() bool {
	for _, f := range s.Failures() {
		if f.Kind != release.ErrKindCredentials {
			return true
		}
	}
	return false
}
