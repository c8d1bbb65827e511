package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/defconcepts/sipcoverage/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// The missing lists and summary lines keep the layout CI logs have always
// shown, so existing log scrapers keep working.
type SimpleWriter struct {
	baseWriter

	// undocumented adds the per-class list of undocumented members.
	undocumented bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithUndocumented adds the undocumented members section.
func WithUndocumented(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.undocumented = show
	}
}

// WithVerbose enables verbose output with additional details.
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

// Write outputs the full report in human-readable format.
func (w *SimpleWriter) Write(report *model.CoverageReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeParseErrors(&sb, report)
	w.writeUndocumented(&sb, report)
	w.writeMissing(&sb, report)
	w.writeSummary(&sb, report)
	w.writeGate(&sb, report)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CoverageReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                       SIP COVERAGE REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Project:        %s\n", report.Project)
	fmt.Fprintf(sb, "XML Directory:  %s\n", report.XMLDir)
	fmt.Fprintf(sb, "Date:           %s\n", report.DateGenerated.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Files Read:     %d\n", report.Files)
	if w.verbose {
		fmt.Fprintf(sb, "Run ID:         %s\n", report.RunID)
		if report.SymbolsFile != "" {
			fmt.Fprintf(sb, "Symbols:        %s\n", report.SymbolsFile)
		}
		if report.Fingerprint != "" {
			fmt.Fprintf(sb, "Fingerprint:    %s\n", report.Fingerprint)
		}
		if len(report.PerformedSteps) > 0 {
			fmt.Fprintf(sb, "Steps:          %s\n", strings.Join(report.PerformedSteps, ", "))
		}
	}

	switch {
	case report.ErrorMessage != "":
		fmt.Fprintf(sb, "Status:         ERROR - %s\n", report.ErrorMessage)
	case report.Gate == nil:
		sb.WriteString("Status:         Documentation only\n")
	case report.Gate.Passed:
		sb.WriteString("Status:         PASS\n")
	default:
		sb.WriteString("Status:         FAIL\n")
	}

	sb.WriteString("\n")
}

// writeParseErrors writes one block per malformed file.
func (w *SimpleWriter) writeParseErrors(sb *strings.Builder, report *model.CoverageReport) {
	for _, pf := range report.ParseErrors {
		sb.WriteString(pf.Report())
		sb.WriteString("\n")
	}
}

// writeUndocumented writes the undocumented members grouped by class.
func (w *SimpleWriter) writeUndocumented(sb *strings.Builder, report *model.CoverageReport) {
	if !w.undocumented || len(report.Documentation.Undocumented) == 0 {
		return
	}

	sb.WriteString(model.SummarySeparator)
	sb.WriteString("\n")
	for _, u := range report.Documentation.Undocumented {
		fmt.Fprintf(sb, "Class %s, %d/%d members documented\n", u.Class, u.Documented, u.Documentable)
		for _, m := range u.Missing {
			fmt.Fprintf(sb, " Missing: %s\n", m)
		}
		sb.WriteString("\n")
	}
}

// writeMissing writes the missing classes and members lists.
func (w *SimpleWriter) writeMissing(sb *strings.Builder, report *model.CoverageReport) {
	b := report.Bindings
	if b == nil {
		return
	}

	sb.WriteString(model.SummarySeparator)
	sb.WriteString("\n")
	fmt.Fprintf(sb, "Missing classes:\n %s\n", strings.Join(b.MissingClasses, "\n "))
	sb.WriteString(model.SummarySeparator)
	sb.WriteString("\n")
	fmt.Fprintf(sb, "Missing members:\n %s\n", strings.Join(b.MissingMembers, "\n "))

	if w.verbose {
		for _, a := range b.Anomalies {
			fmt.Fprintf(sb, "SIP coverage test: something strange happened in %s\n", a)
		}
	}
}

// writeSummary writes the binding and documentation summary lines.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.CoverageReport) {
	sb.WriteString(model.SummarySeparator)
	sb.WriteString("\n")

	for _, l := range report.BindingSummaryLines() {
		sb.WriteString(l)
		sb.WriteString("\n")
	}
	if report.Bindings != nil {
		sb.WriteString(model.SummarySeparator)
		sb.WriteString("\n")
	}

	for _, l := range report.DocumentationSummaryLines() {
		sb.WriteString(l)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

// writeGate writes the remediation text of every breached threshold.
func (w *SimpleWriter) writeGate(sb *strings.Builder, report *model.CoverageReport) {
	if report.Gate == nil {
		return
	}
	for _, f := range report.Gate.Failures {
		sb.WriteString(f)
		sb.WriteString("\n\n")
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// WriteComparison outputs the comparison in human-readable format.
func (w *SimpleWriter) WriteComparison(c *model.Comparison) (int, error) {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "COVERAGE COMPARISON: %s\n", c.Project)
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "Previous run:   %s (%s)\n", c.OldDate.Format("2006-01-02 15:04:05"), c.OldRunID)
	fmt.Fprintf(&sb, "Current run:    %s (%s)\n", c.NewDate.Format("2006-01-02 15:04:05"), c.NewRunID)
	if c.FingerprintChanged {
		sb.WriteString("Documentation:  changed\n")
	} else {
		sb.WriteString("Documentation:  unchanged\n")
	}
	fmt.Fprintf(&sb, "Trend:          %s\n\n", strings.ToUpper(c.Trend.String()))

	fmt.Fprintf(&sb, "Documentation coverage: %+.2f points\n", c.DocumentationDelta)

	if !c.BindingsCompared {
		sb.WriteString("Binding coverage: not compared (one of the runs had no symbols)\n")
	} else {
		fmt.Fprintf(&sb, "Missing classes:        %+d\n", c.MissingClassesDelta)
		fmt.Fprintf(&sb, "Missing members:        %+d\n", c.MissingMembersDelta)

		writeNameList(&sb, "Newly missing classes", "-", c.NewlyMissingClasses)
		writeNameList(&sb, "Newly bound classes", "+", c.NewlyBoundClasses)
		writeNameList(&sb, "Newly missing members", "-", c.NewlyMissingMembers)
		writeNameList(&sb, "Newly bound members", "+", c.NewlyBoundMembers)
	}

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

func writeNameList(sb *strings.Builder, title, marker string, names []string) {
	if len(names) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n%s (%d):\n", title, len(names))
	for _, n := range names {
		fmt.Fprintf(sb, "  [%s] %s\n", marker, n)
	}
}
