// Package console exposes the parameter set to interactive front ends:
// CLIs, remote-control bridges, and anything else that speaks in names
// and strings rather than store handles.
//
// At construction it builds a flat, declaration-ordered descriptor
// table from the runtime store. Each descriptor carries the parameter's
// identity, validated bounds, and get/set bindings closed over the
// store, so all per-parameter behaviour lives in data rather than in
// duplicated accessor code.
//
// Lookup accepts either a full dotted path or a bare name. Full paths
// match first; a bare name shared by several families resolves to the
// first declared match. Family lookup matches by name or by any of the
// family's declared aliases.
//
// Patterns select parameters in bulk: a plain name visits at most one
// descriptor, "family.*" visits direct children, "family.**" visits all
// descendants, and a bare "*" or "**" visits everything. Matches are
// delivered to a visitor in table order; counting and printing are the
// caller's job.
package console
