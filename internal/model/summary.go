package model

import "fmt"

// SummarySeparator separates the summary blocks.
const SummarySeparator = "---------------------------------"

// BindingSummaryLines returns the binding summary in the form shown on CI
// result pages. It returns nil when no probe ran.
func (r *CoverageReport) BindingSummaryLines() []string {
	b := r.Bindings
	if b == nil {
		return nil
	}

	allowedClasses, allowedMembers := "?", "?"
	if r.Gate != nil {
		allowedClasses = fmt.Sprint(r.Gate.Thresholds.MaxMissingClasses)
		allowedMembers = fmt.Sprint(r.Gate.Thresholds.MaxMissingMembers)
	}

	return []string{
		fmt.Sprintf("%d total bindable classes", b.Classes),
		fmt.Sprintf("%d total have bindings", b.BoundClasses),
		fmt.Sprintf("Binding coverage by classes %.2f%%", b.ClassCoverage),
		SummarySeparator,
		fmt.Sprintf("%d classes missing bindings, out of %s allowed", len(b.MissingClasses), allowedClasses),
		SummarySeparator,
		fmt.Sprintf("%d total bindable members", b.Members),
		fmt.Sprintf("%d total have bindings", b.BoundMembers),
		fmt.Sprintf("Binding coverage by members %.2f%%", b.MemberCoverage),
		SummarySeparator,
		fmt.Sprintf("%d members missing bindings, out of %s allowed", len(b.MissingMembers), allowedMembers),
	}
}

// DocumentationSummaryLines returns the documentation summary.
func (r *CoverageReport) DocumentationSummaryLines() []string {
	d := r.Documentation
	return []string{
		fmt.Sprintf("%d total documentable members", d.DocumentableMembers),
		fmt.Sprintf("%d total contain valid documentation", d.DocumentedMembers),
		fmt.Sprintf("Total documentation coverage %.2f%%", d.Coverage),
	}
}
