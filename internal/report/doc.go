// Package report provides report generation and output functionality.
//
// This package contains writers for different output formats:
//   - SimpleWriter: plain text in the layout CI logs have always shown
//   - JSONWriter: structured JSON output for tool integration
//   - MarkdownWriter: Markdown for merge request comments and job summaries
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output. Every writer can
// render both a single run and the comparison of two runs.
package report
