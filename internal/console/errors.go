package console

import (
	"errors"

	"github.com/cwstack/keyerd/internal/store"
)

var (
	// ErrUnknownParameter indicates a name or path that matches no
	// descriptor.
	ErrUnknownParameter = errors.New("console: unknown parameter")

	// ErrUnknownFamily indicates a family name or alias that matches
	// no family descriptor.
	ErrUnknownFamily = errors.New("console: unknown family")

	// ErrInvalidValue indicates input that could not be parsed as the
	// parameter's type at all. It is distinct from ErrOutOfRange.
	ErrInvalidValue = errors.New("console: invalid value")

	// ErrOutOfRange aliases the store sentinel so both the parse path
	// and the store write path match with a single errors.Is.
	ErrOutOfRange = store.ErrOutOfRange
)
