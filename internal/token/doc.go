// Package token defines lexical token kinds for RulesLang.
// Invariants:
//   - Token.Text is a slice of the original (NFC-normalized) source; no copies.
//   - Token.Span matches Text exactly, except for synthesized EOF tokens,
//     whose Span is empty and whose Text is "".
//   - Built-in atomic type names (bool, sint32, fp64, string, ...) are
//     identifiers; the semantic analyzer recognizes them, not the lexer.
//   - Indentation and Terminator are distinct token kinds: a run of leading
//     whitespace never also counts as a line terminator.
package token
