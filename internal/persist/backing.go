package persist

import "context"

// DefaultNamespace is the namespace all parameter keys live under.
const DefaultNamespace = "keyer_cfg"

// Backing is the key-value store persistence writes through. Get
// methods return ErrKeyNotFound (possibly wrapped) when the key has no
// value. Implementations must be safe for concurrent use.
type Backing interface {
	// Ping reports whether the store is reachable. Bulk operations
	// call it first and abort with ErrStoreUnavailable on failure.
	Ping(ctx context.Context) error

	GetWord(ctx context.Context, namespace, key string) (uint32, error)
	SetWord(ctx context.Context, namespace, key string, value uint32) error

	GetString(ctx context.Context, namespace, key string) (string, error)
	SetString(ctx context.Context, namespace, key, value string) error
}
