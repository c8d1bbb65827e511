package coverage

import (
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/defconcepts/sipcoverage/internal/doxygen"
)

// operatorPattern matches operator members such as "operator[]" or
// "operator+", but not a method named "operators".
var operatorPattern = regexp.MustCompile(`^operator\W`)

// BindableMember is a (class, member) pair expected in the bindings.
type BindableMember struct {
	Class  string `json:"class"`
	Member string `json:"member"`
}

// String formats the pair as "Class.member".
func (b BindableMember) String() string {
	return b.Class + "." + b.Member
}

// ClassResult is the classification of one public class.
type ClassResult struct {
	Class string

	// Documentable counts members that need prose documentation.
	Documentable int

	// Documented counts the documentable members that have it.
	Documented int

	// Undocumented lists the signatures of documentable members without
	// documentation.
	Undocumented []string

	// Bindable lists members that should be bound, one entry per name.
	Bindable []BindableMember

	// BindableClass is false when the class opted out of the bindings.
	BindableClass bool
}

// Classifier applies Rules to Doxygen compounds. It is safe for concurrent
// use.
type Classifier struct {
	rules Rules

	// folded needles
	classOptOut string
	noteKeyword string
}

// NewClassifier creates a Classifier. Empty rule fields use the defaults.
func NewClassifier(rules Rules) *Classifier {
	rules = rules.WithDefaults()
	return &Classifier{
		rules:       rules,
		classOptOut: fold(rules.ClassOptOut),
		noteKeyword: fold(rules.MemberNoteKeyword),
	}
}

// Rules returns the effective rules.
func (c *Classifier) Rules() Rules {
	return c.rules
}

// Classify classifies a compound. The second result is false when the
// compound is not a public or protected class and must not be counted.
func (c *Classifier) Classify(cd *doxygen.Compound) (ClassResult, bool) {
	if !IsPublicClass(cd) {
		return ClassResult{}, false
	}

	res := ClassResult{
		Class:         cd.Name,
		BindableClass: c.ClassIsBindable(cd),
	}

	seen := make(map[string]struct{})
	for i := range cd.Members {
		m := &cd.Members[i]

		if c.BindableExclusion(m) == ExclusionNone {
			if _, dup := seen[m.Name]; !dup {
				seen[m.Name] = struct{}{}
				res.Bindable = append(res.Bindable, BindableMember{Class: cd.Name, Member: m.Name})
			}
		}

		if c.DocumentableExclusion(m) == ExclusionNone {
			res.Documentable++
			if IsDocumented(m) {
				res.Documented++
			} else {
				res.Undocumented = append(res.Undocumented, Signature(m))
			}
		}
	}

	return res, true
}

// IsPublicClass reports whether the compound is a public or protected class.
func IsPublicClass(cd *doxygen.Compound) bool {
	return cd.Kind == doxygen.KindClass && isVisible(cd.Prot)
}

// ClassIsBindable reports whether the class should have bindings, i.e. no
// note in its description carries the opt-out phrase.
func (c *Classifier) ClassIsBindable(cd *doxygen.Compound) bool {
	for _, note := range cd.Notes() {
		if strings.Contains(fold(note), c.classOptOut) {
			return false
		}
	}
	return true
}

// DocumentableExclusion returns why m needs no documentation, or
// ExclusionNone when it does.
func (c *Classifier) DocumentableExclusion(m *doxygen.Member) Exclusion {
	switch {
	case m.Kind == doxygen.KindVariable:
		return ExclusionVariable
	case !isVisible(m.Prot):
		return ExclusionVisibility
	case c.isReimplementation(m):
		return ExclusionReimplementation
	case m.Kind == doxygen.KindFriend:
		return ExclusionFriend
	case isConstructor(m) && hasNoArgs(m):
		return ExclusionDefaultConstructor
	case isDestructor(m):
		return ExclusionDestructor
	case slices.Contains(c.rules.IgnoredOperators, m.Name):
		return ExclusionOperator
	case strings.HasPrefix(m.Name, c.rules.SlotPrefix):
		return ExclusionSlot
	case c.isDeprecated(m):
		return ExclusionDeprecated
	}
	return ExclusionNone
}

// BindableExclusion returns why m cannot be checked in the bindings, or
// ExclusionNone when it should be bound.
func (c *Classifier) BindableExclusion(m *doxygen.Member) Exclusion {
	switch {
	case !isVisible(m.Prot):
		return ExclusionVisibility
	case m.Kind == doxygen.KindVariable && m.Prot == doxygen.ProtProtected:
		// SIP cannot wrap protected data members
		return ExclusionProtectedVariable
	case m.Kind == doxygen.KindProperty:
		return ExclusionProperty
	case m.Kind == doxygen.KindFriend:
		return ExclusionFriend
	case m.Kind == doxygen.KindTypedef:
		return ExclusionTypedef
	case isConstructor(m):
		return ExclusionConstructor
	case isDestructor(m):
		return ExclusionDestructor
	case operatorPattern.MatchString(m.Name):
		return ExclusionOperator
	case c.isDeprecated(m):
		return ExclusionDeprecated
	case c.hasBindingNote(m):
		return ExclusionBindingNote
	}
	return ExclusionNone
}

// IsDocumented reports whether any of the member's descriptions has content.
func IsDocumented(m *doxygen.Member) bool {
	return m.InBody.HasContent() || m.Brief.HasContent() || m.Detailed.HasContent()
}

// Signature returns "name" or "name(args)" when an argument string exists.
func Signature(m *doxygen.Member) string {
	if args, ok := m.ArgsString(); ok {
		return m.Name + args
	}
	return m.Name
}

func isVisible(prot string) bool {
	return prot == doxygen.ProtPublic || prot == doxygen.ProtProtected
}

func isConstructor(m *doxygen.Member) bool {
	def, ok := m.Definition()
	return ok && m.Name != "" && def == m.Name+"::"+m.Name
}

func hasNoArgs(m *doxygen.Member) bool {
	args, ok := m.ArgsString()
	return ok && args == "()"
}

func isDestructor(m *doxygen.Member) bool {
	return strings.HasPrefix(m.Name, "~")
}

func (c *Classifier) isReimplementation(m *doxygen.Member) bool {
	if _, ok := m.Reimplements(); ok {
		return true
	}
	args, ok := m.ArgsString()
	return ok && strings.Contains(args, c.rules.OverrideMarker)
}

func (c *Classifier) isDeprecated(m *doxygen.Member) bool {
	typ, ok := m.Type()
	return ok && strings.Contains(typ, c.rules.DeprecationMarker)
}

func (c *Classifier) hasBindingNote(m *doxygen.Member) bool {
	for _, note := range m.Notes() {
		if strings.Contains(fold(note), c.noteKeyword) {
			return true
		}
	}
	return false
}

// fold applies Unicode case folding. A Caser is not safe for concurrent
// use, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}
