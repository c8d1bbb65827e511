package model

import (
	"sort"
	"time"
)

// Trend is the overall direction between two runs.
type Trend int

const (
	// TrendUnchanged means no class or member changed state and
	// documentation coverage is the same.
	TrendUnchanged Trend = iota

	// TrendImproved means something got bound or documented and nothing
	// regressed.
	TrendImproved

	// TrendWorsened means something lost its binding or documentation and
	// nothing improved.
	TrendWorsened

	// TrendMixed means there are both improvements and regressions.
	TrendMixed
)

// String returns a human-readable representation of the trend.
func (t Trend) String() string {
	switch t {
	case TrendUnchanged:
		return "unchanged"
	case TrendImproved:
		return "improved"
	case TrendWorsened:
		return "worsened"
	case TrendMixed:
		return "mixed"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so the trend is readable
// in JSON output.
func (t Trend) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Comparison is the difference between an older and a newer run.
type Comparison struct {
	Project string `json:"project"`

	OldRunID string    `json:"old_run_id"`
	NewRunID string    `json:"new_run_id"`
	OldDate  time.Time `json:"old_date"`
	NewDate  time.Time `json:"new_date"`

	// FingerprintChanged is true when the XML input differs.
	FingerprintChanged bool `json:"fingerprint_changed"`

	// NewlyMissingClasses were bound in the old run and are missing now.
	NewlyMissingClasses []string `json:"newly_missing_classes,omitempty"`

	// NewlyBoundClasses were missing in the old run and are bound now.
	NewlyBoundClasses []string `json:"newly_bound_classes,omitempty"`

	NewlyMissingMembers []string `json:"newly_missing_members,omitempty"`
	NewlyBoundMembers   []string `json:"newly_bound_members,omitempty"`

	// MissingClassesDelta is new minus old missing class count.
	MissingClassesDelta int `json:"missing_classes_delta"`

	// MissingMembersDelta is new minus old missing member count.
	MissingMembersDelta int `json:"missing_members_delta"`

	// DocumentationDelta is new minus old documentation coverage, in
	// percentage points.
	DocumentationDelta float64 `json:"documentation_delta"`

	// BindingsCompared is false when either run had no binding probe.
	BindingsCompared bool `json:"bindings_compared"`

	Trend Trend `json:"trend"`
}

// Compare returns the changes from older to newer.
func Compare(older, newer *CoverageReport) *Comparison {
	c := &Comparison{
		Project:            newer.Project,
		OldRunID:           older.RunID,
		NewRunID:           newer.RunID,
		OldDate:            older.DateGenerated,
		NewDate:            newer.DateGenerated,
		FingerprintChanged: older.Fingerprint != newer.Fingerprint,
		DocumentationDelta: newer.Documentation.Coverage - older.Documentation.Coverage,
	}

	if older.Bindings != nil && newer.Bindings != nil {
		c.BindingsCompared = true
		c.NewlyMissingClasses = difference(newer.Bindings.MissingClasses, older.Bindings.MissingClasses)
		c.NewlyBoundClasses = difference(older.Bindings.MissingClasses, newer.Bindings.MissingClasses)
		c.NewlyMissingMembers = difference(newer.Bindings.MissingMembers, older.Bindings.MissingMembers)
		c.NewlyBoundMembers = difference(older.Bindings.MissingMembers, newer.Bindings.MissingMembers)
		c.MissingClassesDelta = len(newer.Bindings.MissingClasses) - len(older.Bindings.MissingClasses)
		c.MissingMembersDelta = len(newer.Bindings.MissingMembers) - len(older.Bindings.MissingMembers)
	}

	c.Trend = c.trend()
	return c
}

func (c *Comparison) trend() Trend {
	worse := len(c.NewlyMissingClasses) > 0 || len(c.NewlyMissingMembers) > 0 || c.DocumentationDelta < 0
	better := len(c.NewlyBoundClasses) > 0 || len(c.NewlyBoundMembers) > 0 || c.DocumentationDelta > 0

	switch {
	case worse && better:
		return TrendMixed
	case worse:
		return TrendWorsened
	case better:
		return TrendImproved
	default:
		return TrendUnchanged
	}
}

// HasRegressions reports whether anything got worse.
func (c *Comparison) HasRegressions() bool {
	return c.Trend == TrendWorsened || c.Trend == TrendMixed
}

// difference returns the sorted entries of a that are not in b.
func difference(a, b []string) []string {
	in := make(map[string]struct{}, len(b))
	for _, s := range b {
		in[s] = struct{}{}
	}

	var out []string
	for _, s := range a {
		if _, ok := in[s]; !ok {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
