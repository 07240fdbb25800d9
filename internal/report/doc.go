// Package report renders validation summaries.
//
// Writers:
//   - SimpleWriter: plain text for the terminal
//   - JSONWriter: structured output for scripts
//   - MarkdownWriter: tables and a mermaid pie chart for sharing
//
// Writers only see counts and the failure tally. Accepted proxies go to
// the output list, not to the summary, unless SimpleWriter runs in
// verbose mode, where passwords are masked.
package report
