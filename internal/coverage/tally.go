package coverage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/defconcepts/sipcoverage/internal/doxygen"
)

// UndocumentedClass lists the undocumented members of one class.
type UndocumentedClass struct {
	Class        string   `json:"class"`
	Documented   int      `json:"documented"`
	Documentable int      `json:"documentable"`
	Missing      []string `json:"missing"`
}

// ParseFailure records a malformed input file.
type ParseFailure struct {
	File       string `json:"file"`
	Line       int    `json:"line"`
	Column     int    `json:"column"`
	Message    string `json:"message"`
	SourceLine string `json:"source_line,omitempty"`
}

// Report renders the failure the way doxygen.ParseError.Report does.
func (p ParseFailure) Report() string {
	e := &doxygen.ParseError{Column: p.Column}
	return fmt.Sprintf("ParseError in %s\n%s\n%s\n%s", p.File, p.Message, p.SourceLine, e.Caret())
}

// Tally accumulates coverage results. The zero value is ready to use.
// A Tally is not safe for concurrent use; build one per goroutine and Merge.
type Tally struct {
	// Files counts input files folded into the tally, including failed ones.
	Files int `json:"files"`

	// Classes counts public and protected classes.
	Classes int `json:"classes"`

	DocumentableMembers int `json:"documentable_members"`
	DocumentedMembers   int `json:"documented_members"`

	Undocumented []UndocumentedClass `json:"undocumented,omitempty"`
	Bindable     []BindableMember    `json:"bindable,omitempty"`
	ParseErrors  []ParseFailure      `json:"parse_errors,omitempty"`
}

// NewTally returns an empty Tally.
func NewTally() *Tally {
	return &Tally{}
}

// Add folds one class result into the tally. Bindable members of classes
// that opted out of the bindings are dropped; their documentation counts
// are kept.
func (t *Tally) Add(r ClassResult) {
	t.Classes++
	t.DocumentableMembers += r.Documentable
	t.DocumentedMembers += r.Documented

	if r.Documented < r.Documentable {
		t.Undocumented = append(t.Undocumented, UndocumentedClass{
			Class:        r.Class,
			Documented:   r.Documented,
			Documentable: r.Documentable,
			Missing:      append([]string(nil), r.Undocumented...),
		})
	}

	if r.BindableClass {
		t.Bindable = append(t.Bindable, r.Bindable...)
	}
}

// AddParseError records a malformed file.
func (t *Tally) AddParseError(e *doxygen.ParseError) {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	t.ParseErrors = append(t.ParseErrors, ParseFailure{
		File:       e.File,
		Line:       e.Line,
		Column:     e.Column,
		Message:    msg,
		SourceLine: e.SourceLine,
	})
}

// Merge adds other into t. Counters are summed and lists appended, so
// merging per-file tallies in any order yields the same totals; call Sort
// for a canonical list order.
func (t *Tally) Merge(other *Tally) {
	if other == nil {
		return
	}
	t.Files += other.Files
	t.Classes += other.Classes
	t.DocumentableMembers += other.DocumentableMembers
	t.DocumentedMembers += other.DocumentedMembers
	t.Undocumented = append(t.Undocumented, other.Undocumented...)
	t.Bindable = append(t.Bindable, other.Bindable...)
	t.ParseErrors = append(t.ParseErrors, other.ParseErrors...)
}

// Sort puts every list in canonical order.
func (t *Tally) Sort() {
	sort.SliceStable(t.Undocumented, func(i, j int) bool {
		return t.Undocumented[i].Class < t.Undocumented[j].Class
	})
	sort.SliceStable(t.Bindable, func(i, j int) bool {
		a, b := t.Bindable[i], t.Bindable[j]
		if a.Class != b.Class {
			return a.Class < b.Class
		}
		return a.Member < b.Member
	})
	sort.SliceStable(t.ParseErrors, func(i, j int) bool {
		return t.ParseErrors[i].File < t.ParseErrors[j].File
	})
}

// BindableClasses returns the distinct class names of the bindable
// members, sorted.
func (t *Tally) BindableClasses() []string {
	set := make(map[string]struct{})
	for _, b := range t.Bindable {
		set[b.Class] = struct{}{}
	}
	classes := make([]string, 0, len(set))
	for c := range set {
		classes = append(classes, c)
	}
	sort.Strings(classes)
	return classes
}

// DocumentationCoverage returns the documented percentage, 100 when
// nothing is documentable.
func (t *Tally) DocumentationCoverage() float64 {
	return percent(t.DocumentedMembers, t.DocumentableMembers)
}

// UndocumentedReport renders the undocumented members grouped by class.
func (t *Tally) UndocumentedReport() string {
	var sb strings.Builder
	for _, u := range t.Undocumented {
		fmt.Fprintf(&sb, "Class %s, %d/%d members documented\n", u.Class, u.Documented, u.Documentable)
		for _, m := range u.Missing {
			fmt.Fprintf(&sb, " Missing: %s\n", m)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func percent(part, total int) float64 {
	if total == 0 {
		return 100
	}
	return 100 * float64(part) / float64(total)
}
