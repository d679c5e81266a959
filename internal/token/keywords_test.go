package token

import "testing"

func TestLookupKeyword_Positive(t *testing.T) {
	cases := map[string]Kind{
		"def":      KwDef,
		"let":      KwLet,
		"var":      KwVar,
		"if":       KwIf,
		"elif":     KwElif,
		"else":     KwElse,
		"while":    KwWhile,
		"func":     KwFunc,
		"return":   KwReturn,
		"break":    KwBreak,
		"continue": KwContinue,
		"true":     BooleanLiteral,
		"false":    BooleanLiteral,
	}
	for lexeme, want := range cases {
		got, ok := LookupKeyword(lexeme)
		if !ok {
			t.Fatalf("LookupKeyword(%q) = !ok, want %v", lexeme, want)
		}
		if got != want {
			t.Fatalf("LookupKeyword(%q) = %v, want %v", lexeme, got, want)
		}
	}
}

func TestLookupKeyword_Negative(t *testing.T) {
	notKw := []string{
		"Def", "LET", "Else", // case matters
		"sint32", "fp64", "bool", "string", // built-in type names are identifiers
		"identifier", "toString",
	}
	for _, s := range notKw {
		if _, ok := LookupKeyword(s); ok {
			t.Fatalf("LookupKeyword(%q) returned ok=true, want false", s)
		}
	}
}

func TestToken_IsPunctOrOp(t *testing.T) {
	if (Token{Kind: Plus}).IsPunctOrOp() != true {
		t.Fatalf("Plus should be a punct/op")
	}
	if (Token{Kind: Ident}).IsPunctOrOp() != false {
		t.Fatalf("Ident should not be a punct/op")
	}
}
