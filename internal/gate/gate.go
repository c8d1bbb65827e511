package gate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultMaxMissingClasses is the number of unbound classes tolerated.
	DefaultMaxMissingClasses = 85

	// DefaultMaxMissingMembers is the number of unbound members tolerated.
	DefaultMaxMissingMembers = 267

	// EnvMissingClasses adds to DefaultMaxMissingClasses.
	EnvMissingClasses = "MISSING_SIP_CLASSES"

	// EnvMissingMembers adds to DefaultMaxMissingMembers.
	EnvMissingMembers = "MISSING_SIP_MEMBERS"
)

// Thresholds are the largest missing counts that still pass.
type Thresholds struct {
	MaxMissingClasses int `json:"max_missing_classes"`
	MaxMissingMembers int `json:"max_missing_members"`
}

// DefaultThresholds returns the compiled-in thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxMissingClasses: DefaultMaxMissingClasses,
		MaxMissingMembers: DefaultMaxMissingMembers,
	}
}

// WithEnv returns the default thresholds plus the environment overrides.
// getenv is usually os.Getenv. Unset or empty variables add nothing.
func WithEnv(getenv func(string) string) (Thresholds, error) {
	t := DefaultThresholds()

	extra, err := envInt(getenv, EnvMissingClasses)
	if err != nil {
		return t, err
	}
	t.MaxMissingClasses += extra

	extra, err = envInt(getenv, EnvMissingMembers)
	if err != nil {
		return t, err
	}
	t.MaxMissingMembers += extra

	return t, nil
}

func envInt(getenv func(string) string, key string) (int, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidOverride, key, raw)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %s=%d must not be negative", ErrInvalidOverride, key, n)
	}
	return n, nil
}

// ThresholdError reports a breached threshold.
type ThresholdError struct {
	// Kind is ErrTooManyMissingClasses or ErrTooManyMissingMembers.
	Kind error

	Count   int
	Allowed int
}

// Error returns the failure message shown to developers, including how to
// fix it.
func (e *ThresholdError) Error() string {
	scope := "CLASS"
	what := "classes"
	if errors.Is(e.Kind, ErrTooManyMissingMembers) {
		scope = "MEMBER"
		what = "members"
	}
	return fmt.Sprintf("FAIL: %v (%d missing, %d allowed), please add SIP bindings for these %s\n"+
		"If these %s are not suitable for the Python bindings, please add the Doxygen tag\n"+
		"\"@note not available in Python bindings\" to the %s Doxygen comments",
		e.Kind, e.Count, e.Allowed, what, what, scope)
}

// Unwrap returns Kind.
func (e *ThresholdError) Unwrap() error {
	return e.Kind
}

// Result is the outcome of Evaluate.
type Result struct {
	Passed         bool       `json:"passed"`
	Thresholds     Thresholds `json:"thresholds"`
	MissingClasses int        `json:"missing_classes"`
	MissingMembers int        `json:"missing_members"`
	Failures       []string   `json:"failures,omitempty"`

	errs []error
}

// Evaluate checks the missing counts against t. A count equal to its
// threshold passes.
func Evaluate(missingClasses, missingMembers int, t Thresholds) Result {
	r := Result{
		Passed:         true,
		Thresholds:     t,
		MissingClasses: missingClasses,
		MissingMembers: missingMembers,
	}

	if missingClasses > t.MaxMissingClasses {
		r.fail(&ThresholdError{Kind: ErrTooManyMissingClasses, Count: missingClasses, Allowed: t.MaxMissingClasses})
	}
	if missingMembers > t.MaxMissingMembers {
		r.fail(&ThresholdError{Kind: ErrTooManyMissingMembers, Count: missingMembers, Allowed: t.MaxMissingMembers})
	}
	return r
}

func (r *Result) fail(err error) {
	r.Passed = false
	r.Failures = append(r.Failures, err.Error())
	r.errs = append(r.errs, err)
}

// Err returns nil when the gate passed, otherwise every breach joined.
func (r Result) Err() error {
	return errors.Join(r.errs...)
}
