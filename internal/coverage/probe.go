package coverage

import (
	"fmt"
	"sort"

	"github.com/defconcepts/sipcoverage/internal/bindings"
)

// ProbeResult is the outcome of checking bindable members against a
// binding environment.
type ProbeResult struct {
	// Classes is the number of distinct bindable classes.
	Classes int `json:"classes"`

	// Members is the number of bindable members.
	Members int `json:"members"`

	// MissingClasses lists classes absent from the environment, sorted.
	MissingClasses []string `json:"missing_classes"`

	// MissingMembers lists "Class.member" entries absent from bound
	// classes, sorted. Members of missing classes are not listed.
	MissingMembers []string `json:"missing_members"`

	// Anomalies lists members whose presence could not be checked at all.
	Anomalies []string `json:"anomalies,omitempty"`
}

// BoundClasses returns the number of classes found in the environment.
func (p ProbeResult) BoundClasses() int {
	return p.Classes - len(p.MissingClasses)
}

// BoundMembers returns the number of members not reported missing.
func (p ProbeResult) BoundMembers() int {
	return p.Members - len(p.MissingMembers)
}

// ClassCoverage returns the bound class percentage.
func (p ProbeResult) ClassCoverage() float64 {
	return percent(p.BoundClasses(), p.Classes)
}

// MemberCoverage returns the bound member percentage.
func (p ProbeResult) MemberCoverage() float64 {
	return percent(p.BoundMembers(), p.Members)
}

// Probe checks every bindable member against env. Lookup failures of any
// kind count as "not bound".
func Probe(env bindings.Environment, members []BindableMember) ProbeResult {
	classSet := make(map[string]struct{})
	for _, m := range members {
		classSet[m.Class] = struct{}{}
	}

	res := ProbeResult{
		Classes:        len(classSet),
		Members:        len(members),
		MissingClasses: []string{},
		MissingMembers: []string{},
	}

	bound := make(map[string]bindings.Object, len(classSet))
	for class := range classSet {
		obj, ok := bindings.Resolve(env, class)
		if !ok {
			res.MissingClasses = append(res.MissingClasses, class)
			continue
		}
		bound[class] = obj
	}

	for _, m := range members {
		obj, ok := bound[m.Class]
		if !ok {
			continue
		}

		found, err := bindings.HasMember(obj, m.Member)
		if err != nil {
			res.Anomalies = append(res.Anomalies, fmt.Sprintf("%s: %v", m, err))
		}
		if !found {
			res.MissingMembers = append(res.MissingMembers, m.String())
		}
	}

	sort.Strings(res.MissingClasses)
	sort.Strings(res.MissingMembers)
	sort.Strings(res.Anomalies)
	return res
}
