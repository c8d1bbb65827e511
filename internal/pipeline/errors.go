package pipeline

import "errors"

var (
	// ErrNoInputFiles is returned when the XML directory holds no Doxygen
	// XML files after filtering.
	ErrNoInputFiles = errors.New("no Doxygen XML files found")

	// ErrNoBindings is returned by steps that need the probe result when
	// the probe did not run.
	ErrNoBindings = errors.New("binding probe has not run")
)
