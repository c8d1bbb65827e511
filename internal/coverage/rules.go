package coverage

// Default rule values.
const (
	DefaultDeprecationMarker = "Q_DECL_DEPRECATED"
	DefaultClassOptOut       = "not available in python bindings"
	DefaultMemberNoteKeyword = "python"
	DefaultSlotPrefix        = "on_"
	DefaultOverrideMarker    = "override"
)

// Rules holds the project conventions used by the Classifier.
// Zero fields fall back to the defaults, see WithDefaults.
type Rules struct {
	// DeprecationMarker is the macro placed in the declared type of
	// deprecated members.
	DeprecationMarker string `yaml:"deprecation_marker,omitempty" json:"deprecation_marker"`

	// ClassOptOut is the phrase that, found in a class note, removes the
	// class from the bindable set. Matched case-insensitively.
	ClassOptOut string `yaml:"class_opt_out,omitempty" json:"class_opt_out"`

	// MemberNoteKeyword, found in a member note, means the member already
	// got explicit binding consideration. Matched case-insensitively.
	MemberNoteKeyword string `yaml:"member_note_keyword,omitempty" json:"member_note_keyword"`

	// SlotPrefix marks auto-connected Qt slots, which need no documentation.
	SlotPrefix string `yaml:"slot_prefix,omitempty" json:"slot_prefix"`

	// OverrideMarker in the argument string flags a reimplementation that
	// Doxygen could not link, e.g. of a Qt method.
	OverrideMarker string `yaml:"override_marker,omitempty" json:"override_marker"`

	// IgnoredOperators are operator names that never need documentation.
	IgnoredOperators []string `yaml:"ignored_operators,omitempty" json:"ignored_operators"`
}

// DefaultRules returns the rules of the QGIS project.
func DefaultRules() Rules {
	return Rules{
		DeprecationMarker: DefaultDeprecationMarker,
		ClassOptOut:       DefaultClassOptOut,
		MemberNoteKeyword: DefaultMemberNoteKeyword,
		SlotPrefix:        DefaultSlotPrefix,
		OverrideMarker:    DefaultOverrideMarker,
		IgnoredOperators:  []string{"operator=", "operator=="},
	}
}

// WithDefaults returns r with every empty field replaced by its default.
func (r Rules) WithDefaults() Rules {
	d := DefaultRules()
	if r.DeprecationMarker == "" {
		r.DeprecationMarker = d.DeprecationMarker
	}
	if r.ClassOptOut == "" {
		r.ClassOptOut = d.ClassOptOut
	}
	if r.MemberNoteKeyword == "" {
		r.MemberNoteKeyword = d.MemberNoteKeyword
	}
	if r.SlotPrefix == "" {
		r.SlotPrefix = d.SlotPrefix
	}
	if r.OverrideMarker == "" {
		r.OverrideMarker = d.OverrideMarker
	}
	if len(r.IgnoredOperators) == 0 {
		r.IgnoredOperators = d.IgnoredOperators
	}
	return r
}

// Exclusion is the reason a member is left out of a count.
type Exclusion int

// Exclusion reasons. Classifier methods report the first one that applies.
const (
	ExclusionNone Exclusion = iota
	ExclusionVariable
	ExclusionVisibility
	ExclusionReimplementation
	ExclusionFriend
	ExclusionDefaultConstructor
	ExclusionConstructor
	ExclusionDestructor
	ExclusionOperator
	ExclusionSlot
	ExclusionDeprecated
	ExclusionProtectedVariable
	ExclusionProperty
	ExclusionTypedef
	ExclusionBindingNote
)

var exclusionNames = map[Exclusion]string{
	ExclusionNone:               "none",
	ExclusionVariable:           "variable",
	ExclusionVisibility:         "visibility",
	ExclusionReimplementation:   "reimplementation",
	ExclusionFriend:             "friend",
	ExclusionDefaultConstructor: "default constructor",
	ExclusionConstructor:        "constructor",
	ExclusionDestructor:         "destructor",
	ExclusionOperator:           "operator",
	ExclusionSlot:               "slot",
	ExclusionDeprecated:         "deprecated",
	ExclusionProtectedVariable:  "protected variable",
	ExclusionProperty:           "property",
	ExclusionTypedef:            "typedef",
	ExclusionBindingNote:        "binding note",
}

// String returns a human readable name for the exclusion.
func (e Exclusion) String() string {
	if s, ok := exclusionNames[e]; ok {
		return s
	}
	return "unknown"
}
