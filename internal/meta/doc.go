// Package meta builds the read-only UI metadata table for the
// parameter set.
//
// The table is produced once from a loaded schema and never mutated:
// one entry per parameter carrying localized labels, category,
// priority, widget kind, and runtime-change mode. Entries are sorted by
// ascending priority with declaration order breaking ties, so a UI can
// render them top to bottom without sorting again.
//
// Export produces a machine-readable description of the parameter set
// (name, type, widget, bounds, enum members) for remote UI clients.
package meta
