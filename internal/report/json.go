package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/proxycheck/internal/model"
)

// JSONWriter outputs summaries in JSON format for scripts and pipelines.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string

	// version is stamped into the document when non-empty.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion records the proxycheck version in the output.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// RoundSummary is the JSON form of one round.
type RoundSummary struct {
	Round          int                   `json:"round"`
	State          model.RunState        `json:"state"`
	Total          int                   `json:"total"`
	Completed      int                   `json:"completed"`
	Accepted       int                   `json:"accepted"`
	Rejected       int                   `json:"rejected"`
	Pending        int                   `json:"pending"`
	Failures       map[model.Failure]int `json:"failures"`
	StartedAt      time.Time             `json:"started_at"`
	ElapsedSeconds float64               `json:"elapsed_seconds"`
}

// NewRoundSummary converts a report into its JSON form.
func NewRoundSummary(r *model.ValidationReport) RoundSummary {
	failures := r.Failures
	if failures == nil {
		failures = map[model.Failure]int{}
	}
	return RoundSummary{
		Round:          r.Round,
		State:          r.State,
		Total:          r.Total,
		Completed:      r.Completed,
		Accepted:       r.AcceptedCount(),
		Rejected:       r.RejectedCount(),
		Pending:        r.Pending(),
		Failures:       failures,
		StartedAt:      r.StartedAt,
		ElapsedSeconds: r.Elapsed.Seconds(),
	}
}

// JSONReport is the document written by JSONWriter.
type JSONReport struct {
	Version string         `json:"version,omitempty"`
	Rounds  []RoundSummary `json:"rounds"`

	// Final repeats the last round for consumers that only need the result.
	Final *RoundSummary `json:"final,omitempty"`
}

// Write outputs a single round.
func (w *JSONWriter) Write(report *model.ValidationReport) (int, error) {
	return w.WriteRounds([]*model.ValidationReport{report})
}

// WriteRounds outputs every round.
func (w *JSONWriter) WriteRounds(reports []*model.ValidationReport) (int, error) {
	doc := JSONReport{
		Version: w.version,
		Rounds:  make([]RoundSummary, 0, len(reports)),
	}
	for _, r := range reports {
		doc.Rounds = append(doc.Rounds, NewRoundSummary(r))
	}
	if len(doc.Rounds) > 0 {
		final := doc.Rounds[len(doc.Rounds)-1]
		doc.Final = &final
	}

	return w.writeJSON(doc)
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
