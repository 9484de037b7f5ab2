// Package trace records spans and instant events of check sessions.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	quill check --trace=- --trace-level=detail README.md
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: only failures
//   - LevelPhase: sessions and passes
//   - LevelDetail: per-chunk requests
//   - LevelDebug: everything including per-match events
//
// # Scopes
//
//   - ScopeSession: one CLI run or LSP session
//   - ScopePass: one check pass over a document revision
//   - ScopeChunk: one checker request
//   - ScopeMatch: one mapped match
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.Start(ctx, trace.ScopePass, "pass")
//	defer span.End("")
package trace
