// Package store holds the live runtime values of every schema parameter.
//
// Values live in fixed slots allocated at construction from a validated
// schema model: one 32-bit atomic word per scalar (integers, booleans,
// enum ordinals, and floats as their IEEE-754 bit pattern), and one
// atomic string pointer per string parameter. Reads and writes are
// lock-free; there is no mutex anywhere on the access path.
//
// Every successful write also increments a store-wide generation
// counter. Go's atomics are sequentially consistent, so a reader that
// observes a new generation is guaranteed to observe the field write
// that preceded the increment. Consumers that need a coherent snapshot
// read the generation, copy the fields they care about, and re-read the
// generation: equal values mean no write raced the copy.
//
// Enum values are stored as ordinals and decoded through a bounds check:
// an ordinal at or past the member count (possible only via corrupted
// persisted state) decodes to the declared default rather than indexing
// out of range.
//
// Each parameter also carries an external identifier used by consoles
// and persistence keys: the bare parameter name when it is unique across
// the whole model, otherwise the full path with dots replaced by
// underscores.
package store
