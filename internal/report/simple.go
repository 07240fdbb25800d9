package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/proxycheck/internal/model"
)

// SimpleWriter outputs human-readable text summaries for the terminal.
type SimpleWriter struct {
	baseWriter

	// showEmpty lists every failure kind, including those with no hits.
	showEmpty bool

	// verbose lists the accepted proxies, passwords masked.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show zero counts.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables the list of accepted proxies.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs one round.
func (w *SimpleWriter) Write(report *model.ValidationReport) (int, error) {
	return w.WriteRounds([]*model.ValidationReport{report})
}

// WriteRounds outputs every round followed by the final headline.
func (w *SimpleWriter) WriteRounds(reports []*model.ValidationReport) (int, error) {
	if len(reports) == 0 {
		return 0, nil
	}

	var sb strings.Builder

	w.writeHeader(&sb)
	for _, r := range reports {
		w.writeRound(&sb, r)
		w.writeFailures(&sb, r)
	}
	w.writeAccepted(&sb, reports[len(reports)-1])
	w.writeFooter(&sb, reports[len(reports)-1])

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")
	sb.WriteString("                  PROXYCHECK SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeRound(sb *strings.Builder, r *model.ValidationReport) {
	fmt.Fprintf(sb, "Round %d\n", r.Round)
	fmt.Fprintf(sb, "  Started:    %s\n", r.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "  Elapsed:    %.1fs\n", r.Elapsed.Seconds())
	if r.Cancelled() {
		sb.WriteString("  Status:     INTERRUPTED (partial results)\n")
	} else {
		sb.WriteString("  Status:     Complete\n")
	}
	fmt.Fprintf(sb, "  Candidates: %s\n", w.number(r.Total))
	fmt.Fprintf(sb, "  Accepted:   %s\n", w.number(r.AcceptedCount()))
	fmt.Fprintf(sb, "  Rejected:   %s\n", w.number(r.RejectedCount()))
	if r.Pending() > 0 || w.showEmpty {
		fmt.Fprintf(sb, "  Not probed: %s\n", w.number(r.Pending()))
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFailures(sb *strings.Builder, r *model.ValidationReport) {
	if len(r.Failures) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString("  Failures:\n")

	if w.showEmpty {
		for _, kind := range model.AllFailureKinds() {
			if kind == model.FailureHTTPStatus {
				continue
			}
			f := model.Failure{Kind: kind}
			fmt.Fprintf(sb, "    %-18s %s\n", FailureLabel(f)+":", w.number(r.Failures[f]))
		}
		for _, fc := range r.SortedFailures() {
			if fc.Failure.Kind == model.FailureHTTPStatus {
				fmt.Fprintf(sb, "    %-18s %s\n", FailureLabel(fc.Failure)+":", w.number(fc.Count))
			}
		}
	} else {
		for _, fc := range r.SortedFailures() {
			fmt.Fprintf(sb, "    %-18s %s\n", FailureLabel(fc.Failure)+":", w.number(fc.Count))
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeAccepted(sb *strings.Builder, r *model.ValidationReport) {
	if !w.verbose || (len(r.Accepted) == 0 && !w.showEmpty) {
		return
	}

	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\n")
	sb.WriteString("ACCEPTED PROXIES\n")
	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\n")

	if len(r.Accepted) == 0 {
		sb.WriteString("  None\n")
	}
	for _, line := range r.Accepted {
		fmt.Fprintf(sb, "  [+] %s\n", maskLine(line))
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder, final *model.ValidationReport) {
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")
	sb.WriteString(Headline(final))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")
}
