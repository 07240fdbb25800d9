package model

import (
	"fmt"
	"sort"
	"time"
)

// RunState is the lifecycle state of a validation run.
type RunState int

const (
	// RunPending means descriptors are loaded but nothing was dispatched.
	RunPending RunState = iota

	// RunDispatching means probes are being started as worker slots free up.
	RunDispatching

	// RunDraining means every descriptor was dispatched and the run is
	// waiting for in-flight probes.
	RunDraining

	// RunDone means every descriptor produced exactly one outcome.
	RunDone

	// RunCancelled means an interrupt stopped dispatch before completion.
	RunCancelled
)

// String returns a human-readable state name.
func (s RunState) String() string {
	switch s {
	case RunPending:
		return "pending"
	case RunDispatching:
		return "dispatching"
	case RunDraining:
		return "draining"
	case RunDone:
		return "done"
	case RunCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s RunState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *RunState) UnmarshalText(text []byte) error {
	for _, st := range []RunState{RunPending, RunDispatching, RunDraining, RunDone, RunCancelled} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("invalid run state %q", text)
}

// IsTerminal reports whether the run has finished, normally or not.
func (s RunState) IsTerminal() bool {
	return s == RunDone || s == RunCancelled
}

// ValidationReport is the outcome of one validation round.
// Accepted is sorted so that reports compare equal regardless of the
// order in which probes completed.
type ValidationReport struct {
	// Round is 1 for the initial pass and 2 for the HTTPS re-check.
	Round int `json:"round"`

	// State is RunDone or RunCancelled once the round is finished.
	State RunState `json:"state"`

	// Total is the number of distinct candidate lines submitted.
	Total int `json:"total"`

	// Completed is the number of outcomes collected, including invalid lines.
	Completed int `json:"completed"`

	// Accepted holds the deduplicated accepted lines in sorted order.
	Accepted []string `json:"accepted"`

	// Failures counts rejected outcomes per failure.
	Failures map[Failure]int `json:"failures"`

	// StartedAt is when the round began.
	StartedAt time.Time `json:"started_at"`

	// Elapsed is the wall time of the round.
	Elapsed time.Duration `json:"elapsed"`
}

// NewValidationReport returns an empty report for the given round.
func NewValidationReport(round int) *ValidationReport {
	return &ValidationReport{
		Round:     round,
		State:     RunPending,
		Accepted:  []string{},
		Failures:  make(map[Failure]int),
		StartedAt: time.Now(),
	}
}

// AcceptedCount returns the number of accepted proxies.
func (r *ValidationReport) AcceptedCount() int {
	return len(r.Accepted)
}

// RejectedCount returns the total number of tallied failures.
func (r *ValidationReport) RejectedCount() int {
	total := 0
	for _, n := range r.Failures {
		total += n
	}
	return total
}

// Cancelled reports whether the round was interrupted.
func (r *ValidationReport) Cancelled() bool {
	return r.State == RunCancelled
}

// Pending returns how many submitted lines never produced an outcome.
func (r *ValidationReport) Pending() int {
	if r.Total < r.Completed {
		return 0
	}
	return r.Total - r.Completed
}

// FailureCount pairs a failure with its tally.
type FailureCount struct {
	Failure Failure
	Count   int
}

// SortedFailures returns the tally ordered by kind, then status code.
func (r *ValidationReport) SortedFailures() []FailureCount {
	out := make([]FailureCount, 0, len(r.Failures))
	for f, n := range r.Failures {
		out = append(out, FailureCount{Failure: f, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Failure.Kind != out[j].Failure.Kind {
			return out[i].Failure.Kind < out[j].Failure.Kind
		}
		return out[i].Failure.StatusCode < out[j].Failure.StatusCode
	})
	return out
}

// CountByKind sums the tally for one kind across all status codes.
func (r *ValidationReport) CountByKind(kind FailureKind) int {
	total := 0
	for f, n := range r.Failures {
		if f.Kind == kind {
			total += n
		}
	}
	return total
}
