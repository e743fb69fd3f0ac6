package store

import "errors"

var (
	// ErrOutOfRange indicates a numeric write outside the parameter's
	// declared range, or an enum ordinal past the member count.
	ErrOutOfRange = errors.New("store: value out of range")

	// ErrBadValue indicates a value of the wrong shape for the
	// parameter, such as an enum symbol that is not a member.
	ErrBadValue = errors.New("store: invalid value")

	// ErrNotFound indicates a lookup for a path or identifier that is
	// not in the store.
	ErrNotFound = errors.New("store: parameter not found")
)
