package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/proxycheck/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Writer defines the interface for run summary output.
type Writer interface {
	// Write outputs the summary of a single validation round.
	Write(report *model.ValidationReport) (int, error)

	// WriteRounds outputs the summary of every round of a run,
	// the last one being the final result.
	WriteRounds(reports []*model.ValidationReport) (int, error)
}

// MultiWriter writes to multiple Writers in turn.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all Writers, stopping on the first error.
func (m *MultiWriter) Write(report *model.ValidationReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteRounds outputs the reports to all Writers, stopping on the first error.
func (m *MultiWriter) WriteRounds(reports []*model.ValidationReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteRounds(reports)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer

	// printer groups digits in counts, e.g. 12,345.
	printer *message.Printer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{
		output:  output,
		printer: message.NewPrinter(language.English),
	}
}

// number formats n with digit grouping.
func (b baseWriter) number(n int) string {
	return b.printer.Sprintf("%d", n)
}

// Headline returns the one-line run summary, e.g.
// "Done in 12.3s: 42/1,000 proxies OK".
func Headline(report *model.ValidationReport) string {
	p := message.NewPrinter(language.English)

	verb := "Done"
	if report.Cancelled() {
		verb = "Interrupted"
	}
	return p.Sprintf("%s in %.1fs: %d/%d proxies OK",
		verb, report.Elapsed.Seconds(), report.AcceptedCount(), report.Total)
}

var titleCaser = cases.Title(language.English)

// FailureLabel returns a human-readable name for a failure,
// e.g. "Connect Timeout" or "HTTP 503".
func FailureLabel(f model.Failure) string {
	if f.Kind == model.FailureHTTPStatus {
		return fmt.Sprintf("HTTP %d", f.StatusCode)
	}
	return titleCaser.String(strings.ReplaceAll(f.Kind.String(), "_", " "))
}

// maskLine hides the password of an accepted line.
func maskLine(line string) string {
	d, err := model.ParseDescriptor(line)
	if err != nil {
		return line
	}
	return d.String()
}
