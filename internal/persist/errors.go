package persist

import "errors"

var (
	// ErrKeyNotFound indicates the backing store has no value for the
	// requested key.
	ErrKeyNotFound = errors.New("persist: key not found")

	// ErrStoreUnavailable indicates the backing store itself could not
	// be reached. It fails bulk operations outright and is distinct
	// from per-key read or write failures.
	ErrStoreUnavailable = errors.New("persist: backing store unavailable")

	// ErrUnknownParameter indicates a single-parameter operation named
	// a path that is not in the runtime store.
	ErrUnknownParameter = errors.New("persist: unknown parameter")
)
