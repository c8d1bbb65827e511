package gate

import "errors"

// Gate errors. ThresholdError wraps one of the first two so callers can
// tell which threshold was breached with errors.Is.
var (
	// ErrTooManyMissingClasses is returned when more classes are unbound
	// than the class threshold allows.
	ErrTooManyMissingClasses = errors.New("new unbound classes have been introduced")

	// ErrTooManyMissingMembers is returned when more members are unbound
	// than the member threshold allows.
	ErrTooManyMissingMembers = errors.New("new unbound members have been introduced")

	// ErrInvalidOverride is returned when a threshold environment variable
	// is not a non-negative integer.
	ErrInvalidOverride = errors.New("invalid threshold override")
)
