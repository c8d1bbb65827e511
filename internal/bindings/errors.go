package bindings

import "errors"

var (
	// ErrNotFound is returned when a name does not resolve to a symbol.
	ErrNotFound = errors.New("symbol not found")

	// ErrInvalidDump is returned when a symbol dump cannot be decoded.
	ErrInvalidDump = errors.New("invalid symbol dump")
)
