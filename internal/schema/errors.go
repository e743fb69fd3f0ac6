package schema

import (
	"errors"
	"fmt"
)

// Sentinel errors returned (wrapped in *Error) by schema loading and
// validation. Callers match with errors.Is.
var (
	// ErrBadDocument indicates the document could not be parsed at all.
	ErrBadDocument = errors.New("schema: malformed document")

	// ErrUnsupportedVersion indicates a version other than 1 or 2.
	ErrUnsupportedVersion = errors.New("schema: unsupported version")

	// ErrMissingField indicates a parameter is missing a required
	// attribute such as type or default.
	ErrMissingField = errors.New("schema: missing required field")

	// ErrUnknownType indicates a type name outside the supported set.
	ErrUnknownType = errors.New("schema: unknown type")

	// ErrMissingEnumValues indicates an enum parameter with no members.
	ErrMissingEnumValues = errors.New("schema: enum has no values")

	// ErrDefaultOutOfRange indicates a default outside the declared
	// range or the storage type's width.
	ErrDefaultOutOfRange = errors.New("schema: default out of range")

	// ErrDefaultNotMember indicates an enum default that is not one of
	// the declared members.
	ErrDefaultNotMember = errors.New("schema: default not an enum member")

	// ErrDefaultTooLong indicates a string default exceeding max_length.
	ErrDefaultTooLong = errors.New("schema: default exceeds max length")

	// ErrBadRange indicates a range that is not a [min, max] pair with
	// min <= max.
	ErrBadRange = errors.New("schema: invalid range")

	// ErrDuplicatePath indicates two parameters normalising to the same
	// full path.
	ErrDuplicatePath = errors.New("schema: duplicate parameter path")
)

// Error wraps a validation failure with the full path of the parameter
// (or family) that caused it.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func pathErr(path string, err error) error {
	return &Error{Path: path, Err: err}
}

func pathErrf(path string, err error, format string, args ...any) error {
	return &Error{Path: path, Err: fmt.Errorf("%w: "+format, append([]any{err}, args...)...)}
}
