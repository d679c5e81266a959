// Package vm is the tree-walking runtime: a typed value stack, a heap of
// identity-headed objects, a process-wide type-identity interner, and the
// evaluator over the semantic tree.
package vm

import (
	"ruleslang/internal/diag"
	"ruleslang/internal/source"
)

// Error is a runtime failure tagged with the offending node's source span
// (divide-by-zero, null reference, index out of bounds, not-implemented).
type Error struct {
	Code diag.Code
	Span source.Span
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// Diagnostic converts the runtime error to the shared diagnostic model so
// the CLI and shell render it with the same printer as compile errors.
func (e *Error) Diagnostic() diag.Diagnostic {
	return diag.NewError(e.Code, e.Span, e.Msg)
}

func errAt(code diag.Code, sp source.Span, msg string) *Error {
	return &Error{Code: code, Span: sp, Msg: msg}
}

// IsNotImplemented reports whether err is the evaluator's deliberate
// not-implemented rejection, which the shell reports as "value not
// implemented" instead of a source error.
func IsNotImplemented(err *Error) bool {
	return err != nil && err.Code == diag.RuntimeNotImplemented
}
