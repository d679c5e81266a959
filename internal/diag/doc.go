// Package diag defines the core diagnostic model shared by all pipeline phases.
//
// # Purpose
//
//   - Provide deterministic, serialisable data structures that capture findings
//     produced by the lexer / parser / semantic analyzer / runtime.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to concrete storage or formatting layers.
//
// # Scope
//
// Package diag does not perform any formatting, IO, CLI integration, or
// interactive behaviour. Rendering responsibilities live in internal/diagfmt;
// the CLI and shell decide when a diagnostic terminates a run.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with stable string form.
//   - Message – human oriented text; keep it short and actionable.
//   - Primary span – the canonical source.Span pointing to the issue.
//   - Notes – optional secondary spans/messages for additional context.
//   - Fixes – optional Fix records suggesting a textual correction.
//
// Notes should be used sparingly: each note must add new context (e.g. “value
// declared here”) rather than repeating the diagnostic message.
//
// # Emitting diagnostics
//
// Phases should use a diag.Reporter to decouple emission from storage. A
// producer constructs a ReportBuilder via NewReportBuilder (or the helper
// functions ReportError/ReportWarning/ReportInfo) and chains WithNote /
// WithFix before calling Emit.
//
// When no additional metadata is needed, phases may call Reporter.Report(...)
// directly. For convenience, diag.BagReporter aggregates diagnostics into a
// Bag, which supports sorting and deduplication, and DedupReporter suppresses
// repeats at the emission boundary.
//
// # Errors as values
//
// SourceException wraps one Diagnostic as a Go error for the CLI and shell
// entry points: each catches it, formats via internal/diagfmt, and either
// continues (shell) or exits non-zero (CLI).
package diag
