package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/defconcepts/sipcoverage/internal/model"
)

// maxListedNames caps inline name lists; longer lists go into a
// collapsed details block.
const maxListedNames = 20

// MarkdownWriter outputs reports in Markdown format.
// The output is meant for merge request comments and CI job summaries,
// so it relies on GitHub-flavored alerts and mermaid charts.
type MarkdownWriter struct {
	baseWriter

	// undocumented adds the per-class list of undocumented members.
	undocumented bool
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithMarkdownUndocumented adds the undocumented members section.
func WithMarkdownUndocumented(show bool) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.undocumented = show
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CoverageReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeGateAlert(md, report)
	w.writeBindings(md, report)
	w.writeDocumentation(md, report)
	w.writeParseErrors(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CoverageReport) {
	md.H1("SIP Coverage Report")
	md.PlainText("")

	rows := [][]string{
		{"Project", report.Project},
		{"XML Directory", "`" + report.XMLDir + "`"},
		{"Date", report.DateGenerated.Format("2006-01-02 15:04:05 MST")},
		{"Files Read", strconv.Itoa(report.Files)},
		{"Run ID", "`" + report.RunID + "`"},
		{"Status", statusText(report)},
	}
	if report.SymbolsFile != "" {
		rows = append(rows, []string{"Symbols", "`" + report.SymbolsFile + "`"})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// statusText returns the status text based on report state.
func statusText(report *model.CoverageReport) string {
	switch {
	case report.ErrorMessage != "":
		return "❌ Error - " + report.ErrorMessage
	case report.Gate == nil:
		return "📄 Documentation only"
	case report.Gate.Passed:
		return "✅ Pass"
	default:
		return "❌ Fail"
	}
}

// writeGateAlert writes one caution per breached threshold, or a tip when
// the gate passed.
func (w *MarkdownWriter) writeGateAlert(md *markdown.Markdown, report *model.CoverageReport) {
	if report.Gate == nil {
		return
	}

	if report.Gate.Passed {
		md.Tip(fmt.Sprintf("Binding coverage is within the allowed limits (%d classes, %d members).",
			report.Gate.Thresholds.MaxMissingClasses, report.Gate.Thresholds.MaxMissingMembers))
		md.PlainText("")
		return
	}

	for _, f := range report.Gate.Failures {
		md.Cautionf("%s", strings.TrimSpace(strings.ReplaceAll(f, "\n", " ")))
		md.PlainText("")
	}
}

// writeBindings writes the binding coverage tables and missing lists.
func (w *MarkdownWriter) writeBindings(md *markdown.Markdown, report *model.CoverageReport) {
	b := report.Bindings
	if b == nil {
		return
	}

	md.H2("Binding Coverage")
	md.PlainText("")

	allowedClasses, allowedMembers := "-", "-"
	if report.Gate != nil {
		allowedClasses = strconv.Itoa(report.Gate.Thresholds.MaxMissingClasses)
		allowedMembers = strconv.Itoa(report.Gate.Thresholds.MaxMissingMembers)
	}

	md.Table(markdown.TableSet{
		Header: []string{"", "Classes", "Members"},
		Rows: [][]string{
			{"Bindable", strconv.Itoa(b.Classes), strconv.Itoa(b.Members)},
			{"Bound", strconv.Itoa(b.BoundClasses), strconv.Itoa(b.BoundMembers)},
			{"Missing", strconv.Itoa(len(b.MissingClasses)), strconv.Itoa(len(b.MissingMembers))},
			{"Allowed", allowedClasses, allowedMembers},
			{"**Coverage**", formatPercent(b.ClassCoverage), formatPercent(b.MemberCoverage)},
		},
	})
	md.PlainText("")

	if b.Members > 0 {
		w.writePieChart(md, b)
	}

	if len(b.Anomalies) > 0 {
		md.Warningf("%d member(s) could not be checked and were counted as missing.", len(b.Anomalies))
		md.PlainText("")
	}

	writeNames(md, "Missing classes", b.MissingClasses)
	writeNames(md, "Missing members", b.MissingMembers)
}

// writePieChart writes a mermaid pie chart of bound and missing members.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, b *model.BindingSummary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Member Bindings"),
		piechart.WithShowData(true),
	)

	if b.BoundMembers > 0 {
		chart.LabelAndIntValue("Bound", uint64(b.BoundMembers)) //nolint:gosec // counts are never negative
	}
	if n := len(b.MissingMembers); n > 0 {
		chart.LabelAndIntValue("Missing", uint64(n))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeNames writes a titled list of names. Long lists are collapsed.
func writeNames(md *markdown.Markdown, title string, names []string) {
	if len(names) == 0 {
		return
	}

	if len(names) > maxListedNames {
		md.Details(fmt.Sprintf("%s (%d)", title, len(names)), "- "+strings.Join(names, "\n- "))
		md.PlainText("")
		return
	}

	md.PlainText(fmt.Sprintf("### %s (%d)", title, len(names)))
	md.PlainText("")
	md.BulletList(names...)
	md.PlainText("")
}

// writeDocumentation writes the documentation coverage section.
func (w *MarkdownWriter) writeDocumentation(md *markdown.Markdown, report *model.CoverageReport) {
	d := report.Documentation

	md.H2("Documentation Coverage")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Classes", strconv.Itoa(d.Classes)},
			{"Documentable members", strconv.Itoa(d.DocumentableMembers)},
			{"Documented members", strconv.Itoa(d.DocumentedMembers)},
			{"**Coverage**", "**" + formatPercent(d.Coverage) + "**"},
		},
	})
	md.PlainText("")

	if !w.undocumented || len(d.Undocumented) == 0 {
		return
	}

	rows := make([][]string, len(d.Undocumented))
	for i, u := range d.Undocumented {
		rows[i] = []string{
			"`" + u.Class + "`",
			fmt.Sprintf("%d/%d", u.Documented, u.Documentable),
			truncateString(strings.Join(u.Missing, ", "), 80),
		}
	}

	md.PlainText("### Undocumented Members")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Class", "Documented", "Missing"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeParseErrors writes one collapsed block per malformed file.
func (w *MarkdownWriter) writeParseErrors(md *markdown.Markdown, report *model.CoverageReport) {
	if len(report.ParseErrors) == 0 {
		return
	}

	md.H2("Parse Errors")
	md.PlainText("")
	md.Warningf("%d file(s) contain malformed XML. Classes before the error were still counted.", len(report.ParseErrors))
	md.PlainText("")

	for _, pf := range report.ParseErrors {
		md.Details(fmt.Sprintf("%s:%d", pf.File, pf.Line), "```\n"+pf.Report()+"\n```")
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by sipcoverage*")
}

// WriteComparison outputs the comparison in Markdown format.
func (w *MarkdownWriter) WriteComparison(c *model.Comparison) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("SIP Coverage Comparison: " + c.Project)
	md.PlainText("")

	changed := "No"
	if c.FingerprintChanged {
		changed = "Yes"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Previous", "Current"},
		Rows: [][]string{
			{"Run ID", "`" + c.OldRunID + "`", "`" + c.NewRunID + "`"},
			{"Date", c.OldDate.Format("2006-01-02 15:04:05"), c.NewDate.Format("2006-01-02 15:04:05")},
		},
	})
	md.PlainText("")

	rows := [][]string{
		{"Documentation changed", changed},
		{"Documentation coverage", fmt.Sprintf("%+.2f points", c.DocumentationDelta)},
	}
	if c.BindingsCompared {
		rows = append(rows,
			[]string{"Missing classes", fmt.Sprintf("%+d", c.MissingClassesDelta)},
			[]string{"Missing members", fmt.Sprintf("%+d", c.MissingMembersDelta)},
		)
	}
	md.Table(markdown.TableSet{
		Header: []string{"Change", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	switch c.Trend {
	case model.TrendWorsened:
		md.Cautionf("Coverage worsened since run %s.", c.OldRunID)
	case model.TrendMixed:
		md.Warningf("Coverage changed in both directions since run %s.", c.OldRunID)
	case model.TrendImproved:
		md.Tip("Coverage improved.")
	default:
		md.Note("No coverage changes.")
	}
	md.PlainText("")

	if !c.BindingsCompared {
		md.Note("Binding coverage was not compared because one of the runs had no symbols.")
		md.PlainText("")
	}

	writeNames(md, "Newly missing classes", c.NewlyMissingClasses)
	writeNames(md, "Newly bound classes", c.NewlyBoundClasses)
	writeNames(md, "Newly missing members", c.NewlyMissingMembers)
	writeNames(md, "Newly bound members", c.NewlyBoundMembers)

	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + "%"
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
