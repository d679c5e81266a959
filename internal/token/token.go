package token

import (
	"ruleslang/internal/source"
)

// Token is a single lexical token: its kind, its exact source text, and the
// byte span it occupies. Text is always the literal source
// substring for the token's span, except for synthesized tokens (e.g. the
// EOF emitted past end of input), whose Span is empty and whose Text is the
// empty string.
type Token struct {
	Kind Kind
	Span source.Span
	Text string
}

// IndentChar returns the single whitespace rune the indentation is made of.
// Only meaningful when Kind == Indentation; returns 0 for an empty indent.
func (t Token) IndentChar() rune {
	if t.Kind != Indentation || len(t.Text) == 0 {
		return 0
	}
	return rune(t.Text[0])
}

// IndentCount returns the number of whitespace runes in the indentation.
// Only meaningful when Kind == Indentation.
func (t Token) IndentCount() int {
	if t.Kind != Indentation {
		return 0
	}
	return len([]rune(t.Text))
}

// IsPunctOrOp reports whether the token is an operator or punctuation
// symbol rather than a literal, identifier, or keyword.
func (t Token) IsPunctOrOp() bool {
	switch t.Kind {
	case Ident, Indentation, Terminator, EOF, Invalid,
		BooleanLiteral, IntegerLiteral, FloatLiteral, StringLiteral,
		KwDef, KwLet, KwVar, KwIf, KwElif, KwElse, KwWhile, KwFunc, KwReturn, KwBreak, KwContinue:
		return false
	default:
		return true
	}
}
