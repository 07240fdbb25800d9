package pipeline

import (
	"maps"
	"slices"
	"time"

	"github.com/nao1215/proxycheck/internal/model"
)

// Aggregator folds probe outcomes into a ValidationReport.
//
// It is not safe for concurrent use. The coordinator feeds it from a single
// collector goroutine.
type Aggregator struct {
	round     int
	total     int
	completed int
	accepted  map[string]struct{}
	failures  map[model.Failure]int
	startedAt time.Time
}

// NewAggregator returns an empty aggregator for the given round.
func NewAggregator(round int) *Aggregator {
	return &Aggregator{
		round:     round,
		accepted:  make(map[string]struct{}),
		failures:  make(map[model.Failure]int),
		startedAt: time.Now(),
	}
}

// NewRoundAggregator starts the next round from previous. The accepted set
// starts empty; the failures of previous are copied, not shared, so the new
// round only narrows the earlier result.
func NewRoundAggregator(previous *model.ValidationReport) *Aggregator {
	a := NewAggregator(previous.Round + 1)
	maps.Copy(a.failures, previous.Failures)
	return a
}

// SetTotal records how many outcomes the round expects.
func (a *Aggregator) SetTotal(n int) {
	a.total = n
}

// Add folds one outcome. An accepted line seen before is not added twice.
func (a *Aggregator) Add(o model.ProbeOutcome) {
	a.completed++
	if o.Accepted {
		a.accepted[o.Line] = struct{}{}
		return
	}
	a.failures[o.Failure]++
}

// Completed returns how many outcomes were added.
func (a *Aggregator) Completed() int {
	return a.completed
}

// Report returns a snapshot. Later calls to Add do not affect it.
func (a *Aggregator) Report(state model.RunState) *model.ValidationReport {
	r := model.NewValidationReport(a.round)
	r.State = state
	r.Total = a.total
	r.Completed = a.completed
	r.StartedAt = a.startedAt
	r.Elapsed = time.Since(a.startedAt)
	if len(a.accepted) > 0 {
		r.Accepted = slices.Sorted(maps.Keys(a.accepted))
	}
	maps.Copy(r.Failures, a.failures)
	return r
}
