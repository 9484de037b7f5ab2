// Package diag defines the diagnostic model of a check pass and the mapper
// that turns checker matches into document ranges.
//
// # Data model
//
// Diagnostic carries a half-open source.Range, a Severity, the rule that
// produced it and the texts the checker returned. Action is a quick fix that
// replaces exactly the diagnostic range with one suggested replacement. Entry
// pairs a Diagnostic with its actions; a document's result is an ordered
// []Entry.
//
// # Mapping
//
// MapResponse threads one source.Position through the matches of a chunk. The
// cursor only moves forward, so a response is validated as a whole before the
// cursor is touched: offsets must be ascending, lengths non-negative, matches
// non-overlapping and inside the chunk. A violating response yields a
// *ProtocolError and leaves the cursor where it was.
//
// Package diag does no formatting or IO. Rendering lives in internal/diagfmt,
// application of actions in internal/fix.
package diag
