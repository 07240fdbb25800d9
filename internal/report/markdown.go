package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/proxycheck/internal/model"
)

// MarkdownWriter outputs summaries in Markdown, for issues and wikis.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs a single round.
func (w *MarkdownWriter) Write(report *model.ValidationReport) (int, error) {
	return w.WriteRounds([]*model.ValidationReport{report})
}

// WriteRounds outputs every round, then an alert for the final one.
func (w *MarkdownWriter) WriteRounds(reports []*model.ValidationReport) (int, error) {
	if len(reports) == 0 {
		return 0, nil
	}

	md := markdown.NewMarkdown(w.output)

	md.H1("Proxy Validation Report")
	md.PlainText("")

	final := reports[len(reports)-1]
	md.PlainText("**" + Headline(final) + "**")
	md.PlainText("")
	w.writeAlert(md, final)

	for _, r := range reports {
		w.writeRound(md, r)
	}

	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by [proxycheck](https://github.com/nao1215/proxycheck)*")

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeRound(md *markdown.Markdown, r *model.ValidationReport) {
	title := "Round " + strconv.Itoa(r.Round)
	if r.Round > 1 {
		title += " (HTTPS re-check)"
	}
	md.H2(title)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Started", r.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Elapsed", strconv.FormatFloat(r.Elapsed.Seconds(), 'f', 1, 64) + "s"},
			{"Status", statusText(r)},
			{"Candidates", w.number(r.Total)},
			{"Accepted", w.number(r.AcceptedCount())},
			{"Rejected", w.number(r.RejectedCount())},
			{"Not probed", w.number(r.Pending())},
		},
	})
	md.PlainText("")

	w.writeFailures(md, r)
}

func statusText(r *model.ValidationReport) string {
	if r.Cancelled() {
		return "⚠️ Interrupted (partial results)"
	}
	return "✅ Complete"
}

func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, r *model.ValidationReport) {
	md.H3("Failures")
	md.PlainText("")

	failures := r.SortedFailures()
	if len(failures) == 0 {
		md.PlainText("No failures.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(failures))
	for _, fc := range failures {
		rows = append(rows, []string{FailureLabel(fc.Failure), "`" + fc.Failure.String() + "`", w.number(fc.Count)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Failure", "Key", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writePieChart(md, r, failures)
}

// writePieChart writes a mermaid pie chart of accepted versus each failure.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, r *model.ValidationReport, failures []model.FailureCount) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Outcome Distribution"),
		piechart.WithShowData(true),
	)

	if n := r.AcceptedCount(); n > 0 {
		chart.LabelAndIntValue("Accepted", uint64(n)) //nolint:gosec // counts are non-negative
	}
	for _, fc := range failures {
		if fc.Count > 0 {
			chart.LabelAndIntValue(FailureLabel(fc.Failure), uint64(fc.Count)) //nolint:gosec // counts are non-negative
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, final *model.ValidationReport) {
	switch {
	case final.Cancelled():
		md.Warningf("Run interrupted. %d candidate(s) were never probed.", final.Pending())
	case final.AcceptedCount() == 0:
		md.Cautionf("No working proxies found.")
	case final.RejectedCount() == 0:
		md.Tip("Every candidate proxy works.")
	default:
		md.Note(w.printer.Sprintf("%d of %d candidate(s) work.", final.AcceptedCount(), final.Total))
	}
	md.PlainText("")
}
