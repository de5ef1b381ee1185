// Package diag defines the diagnostic model shared by the scanner, the
// instrumentation engine, the trace reconstruction and the mirror sync.
//
// Diagnostics here are informational by nature: structural ambiguities in
// loosely formatted sources (missing terminators, interface blocks, repeated
// routines) are resolved by policy and only reported, never raised as errors.
// Only I/O failures travel as Go errors.
//
// # Data model
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with stable string form.
//   - Path and Line – where the finding points; Line is 1-based.
//
// Producers accept a Reporter and never care where diagnostics end up.
// Bag is the default sink with an upper bound on stored items.
package diag
