package model

import "time"

// ProbeOutcome is the result of validating one candidate line.
// Exactly one outcome is produced per descriptor per round: either
// Accepted is true, or Failure says why not.
type ProbeOutcome struct {
	// Line is the candidate in its original input form.
	Line string `json:"line"`

	// Accepted is true when the probe got a 2xx through the proxy.
	Accepted bool `json:"accepted"`

	// Failure is the zero value for accepted outcomes.
	Failure Failure `json:"failure,omitzero"`

	// Latency is the wall time of the successful request.
	Latency time.Duration `json:"latency,omitempty"`

	// Origin is the exit address reported by the test endpoint, if any.
	Origin string `json:"origin,omitempty"`

	// Detail is the underlying error text, for logs only.
	Detail string `json:"-"`
}

// NewAccepted returns an accepted outcome.
func NewAccepted(line string, latency time.Duration, origin string) ProbeOutcome {
	return ProbeOutcome{
		Line:     line,
		Accepted: true,
		Latency:  latency,
		Origin:   origin,
	}
}

// NewRejected returns a rejected outcome.
func NewRejected(line string, f Failure) ProbeOutcome {
	return ProbeOutcome{Line: line, Failure: f}
}

// NewRejectedWithDetail returns a rejected outcome carrying the error text.
func NewRejectedWithDetail(line string, f Failure, detail string) ProbeOutcome {
	return ProbeOutcome{Line: line, Failure: f, Detail: detail}
}
