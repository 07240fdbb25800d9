package pipeline

import (
	"time"

	"github.com/nao1215/proxycheck/internal/config"
	"github.com/nao1215/proxycheck/internal/model"
)

// ValidationRun is the immutable input of one validation round.
type ValidationRun struct {
	// Round is 1 for the first pass and 2 for the HTTPS re-check.
	Round int

	// Descriptors are the distinct valid candidates to probe.
	Descriptors []*model.ProxyDescriptor

	// Invalid holds InvalidFormat outcomes for lines that failed to parse.
	// They are tallied but never dispatched.
	Invalid []model.ProbeOutcome

	// Previous is the report of the preceding round, if any. Its failures
	// carry over into this round's tally.
	Previous *model.ValidationReport

	// Endpoint is the URL requested through every proxy.
	Endpoint string

	// MaxWorkers bounds the number of probes in flight.
	MaxWorkers int

	// Timeout, Retries and the wait windows configure each probe client.
	Timeout      time.Duration
	Retries      int
	RetryWait    time.Duration
	RetryMaxWait time.Duration
	JitterMin    time.Duration
	JitterMax    time.Duration

	// HTTPSOnly suppresses the plain HTTP forwarding target.
	HTTPSOnly bool

	// UserAgent is sent with every probe; empty means random.
	UserAgent string
}

// NewRun builds the first round from cfg and raw candidate lines.
// Lines are deduplicated; malformed ones become InvalidFormat outcomes.
func NewRun(cfg *config.Config, lines []string) *ValidationRun {
	descriptors, invalid := model.ParseDescriptors(lines)

	scheme := cfg.ProxyScheme()
	if scheme != model.SchemeHTTP {
		for i, d := range descriptors {
			descriptors[i] = d.WithScheme(scheme)
		}
	}

	return &ValidationRun{
		Round:        1,
		Descriptors:  descriptors,
		Invalid:      invalid,
		Endpoint:     cfg.Endpoint(),
		MaxWorkers:   cfg.MaxWorkers,
		Timeout:      cfg.Timeout,
		Retries:      cfg.Retries,
		RetryWait:    cfg.RetryWait,
		RetryMaxWait: cfg.RetryMaxWait,
		JitterMin:    cfg.JitterMin,
		JitterMax:    cfg.JitterMax,
		HTTPSOnly:    cfg.HTTPSOnly,
		UserAgent:    cfg.UserAgent,
	}
}

// NextRound builds the HTTPS re-check over the proxies accepted in previous.
func (r *ValidationRun) NextRound(previous *model.ValidationReport, httpsEndpoint string) *ValidationRun {
	byLine := make(map[string]*model.ProxyDescriptor, len(r.Descriptors))
	for _, d := range r.Descriptors {
		byLine[d.Line()] = d
	}

	descriptors := make([]*model.ProxyDescriptor, 0, len(previous.Accepted))
	for _, line := range previous.Accepted {
		if d, ok := byLine[line]; ok {
			descriptors = append(descriptors, d)
		}
	}

	next := *r
	next.Round = previous.Round + 1
	next.Descriptors = descriptors
	next.Invalid = nil
	next.Previous = previous
	next.Endpoint = httpsEndpoint
	next.HTTPSOnly = true
	return &next
}

// Total returns the number of outcomes a complete round produces.
func (r *ValidationRun) Total() int {
	return len(r.Descriptors) + len(r.Invalid)
}
