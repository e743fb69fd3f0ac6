// Package persist saves and restores store values through a namespaced
// key-value backing store.
//
// Every parameter maps to one external key inside a fixed namespace:
// the key declared in the schema when present, otherwise the full path
// with dots flattened to underscores. Scalar values (integers, bools,
// enum ordinals, float bit patterns) persist as their 32-bit word;
// strings persist as text.
//
// Bulk operations are best-effort: a missing key on load leaves the
// parameter at its default, a failed key on either direction is logged
// and skipped, and the call reports how many parameters were actually
// applied or written. Only an unavailable backing store fails the whole
// operation, with an error distinct from per-key failures.
//
// Values read back from the store are validated before they reach the
// runtime: a persisted scalar outside the declared range, or an enum
// ordinal past the member count, is discarded with a warning and the
// default stands.
package persist
