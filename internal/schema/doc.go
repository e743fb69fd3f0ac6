// Package schema loads and validates parameter schema documents.
//
// A schema document describes every tunable parameter the daemon exposes:
// its wire type, default value, legal range, persistence key, and the GUI
// metadata used to render it. Documents are YAML and come in two layouts:
//
//   - Version 1: a flat "parameters" mapping with no family grouping.
//   - Version 2: a "families" mapping where each family owns parameters
//     and optionally subfamilies with parameters of their own.
//
// Both layouts normalise into the same Model: a flat, declaration-ordered
// parameter list where each parameter carries its full dotted path
// (for example "keyer.tone.pitch"). Families are ordered by their declared
// order attribute; parameters keep document order within each family.
//
// Subfamilies flagged as composite describe externally-managed structures
// and contribute no parameters to the model; they are skipped with a
// logged warning so a schema author can see the omission.
//
// Loading is strict: a missing type, a default outside the declared range,
// an enum default that is not a member, or a duplicate full path all fail
// with an *Error naming the offending path. A Model that loads successfully
// is immutable and safe for concurrent use.
package schema
