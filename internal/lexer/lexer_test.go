package lexer_test

import (
	"testing"

	"ruleslang/internal/diag"
	"ruleslang/internal/lexer"
	"ruleslang/internal/source"
	"ruleslang/internal/token"
)

type testReporter struct {
	diagnostics []diag.Diagnostic
}

func (r *testReporter) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note, fixes []diag.Fix) {
	r.diagnostics = append(r.diagnostics, diag.Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  msg,
		Primary:  primary,
		Notes:    notes,
		Fixes:    fixes,
	})
}

func (r *testReporter) HasErrors() bool {
	for _, d := range r.diagnostics {
		if d.Severity == diag.SevError {
			return true
		}
	}
	return false
}

func makeTestLexer(src string) (*lexer.Lexer, *testReporter) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.rl", []byte(src))
	file := fs.Get(id)
	rep := &testReporter{}
	return lexer.New(file, lexer.Options{Reporter: rep}), rep
}

func allTokens(lx *lexer.Lexer) []token.Token {
	var toks []token.Token
	for {
		tok := lx.Next()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

func expectKinds(t *testing.T, src string, want ...token.Kind) {
	t.Helper()
	lx, rep := makeTestLexer(src)
	toks := allTokens(lx)
	if len(toks) != len(want) {
		kinds := make([]token.Kind, len(toks))
		for i, tok := range toks {
			kinds[i] = tok.Kind
		}
		t.Fatalf("source %q: got %d tokens %v, want %d %v", src, len(toks), kinds, len(want), want)
	}
	for i, w := range want {
		if toks[i].Kind != w {
			t.Fatalf("source %q: token %d = %v, want %v", src, i, toks[i].Kind, w)
		}
	}
	if rep.HasErrors() {
		t.Fatalf("source %q: unexpected diagnostics: %+v", src, rep.diagnostics)
	}
}

func TestIdentAndKeywords(t *testing.T) {
	expectKinds(t, "foo", token.Ident, token.EOF)
	expectKinds(t, "let", token.KwLet, token.EOF)
	expectKinds(t, "_private", token.Ident, token.EOF)
	expectKinds(t, "True", token.Ident, token.EOF) // case-sensitive, not the bool literal
	expectKinds(t, "true", token.BooleanLiteral, token.EOF)
}

func TestNumericLiterals(t *testing.T) {
	expectKinds(t, "123", token.IntegerLiteral, token.EOF)
	expectKinds(t, "1_000", token.IntegerLiteral, token.EOF)
	expectKinds(t, "0x1F_AB", token.IntegerLiteral, token.EOF)
	expectKinds(t, "0b1010", token.IntegerLiteral, token.EOF)
	expectKinds(t, "3.14", token.FloatLiteral, token.EOF)
	expectKinds(t, ".5", token.FloatLiteral, token.EOF)
	expectKinds(t, "1e10", token.FloatLiteral, token.EOF)
	expectKinds(t, "2.5e-3", token.FloatLiteral, token.EOF)
}

func TestRangeVsFloatDisambiguation(t *testing.T) {
	// "1..3" is Int, DotDot, Int — not a malformed float.
	expectKinds(t, "1..3", token.IntegerLiteral, token.DotDot, token.IntegerLiteral, token.EOF)
	// "5.field" is Int, Dot, Ident (integer field access quirk).
	expectKinds(t, "5.field", token.IntegerLiteral, token.Dot, token.Ident, token.EOF)
}

func TestStringLiteral(t *testing.T) {
	expectKinds(t, `"hello"`, token.StringLiteral, token.EOF)
	expectKinds(t, `"a\nb\t\"c\""`, token.StringLiteral, token.EOF)
	expectKinds(t, `"A"`, token.StringLiteral, token.EOF)
}

func TestUnterminatedStringReports(t *testing.T) {
	lx, rep := makeTestLexer(`"abc`)
	tok := lx.Next()
	if tok.Kind != token.Invalid {
		t.Fatalf("expected Invalid, got %v", tok.Kind)
	}
	if !rep.HasErrors() {
		t.Fatalf("expected unterminated-string diagnostic")
	}
}

func TestOperatorMaximalMunch(t *testing.T) {
	expectKinds(t, "**=", token.ExponentAssign, token.EOF)
	expectKinds(t, "**", token.Exponent, token.EOF)
	expectKinds(t, "*=", token.StarAssign, token.EOF)
	expectKinds(t, "*", token.Star, token.EOF)
	expectKinds(t, ">>>=", token.ShrTripleAssign, token.EOF)
	expectKinds(t, ">>>", token.ShrTriple, token.EOF)
	expectKinds(t, ">>=", token.ShrAssign, token.EOF)
	expectKinds(t, ">>", token.Shr, token.EOF)
	expectKinds(t, "<<:", token.TypeSubShl, token.EOF)
	expectKinds(t, "<:>", token.TypeIncomparable, token.EOF)
	expectKinds(t, "<:", token.TypeSub, token.EOF)
	expectKinds(t, "::", token.TypeEq, token.EOF)
	expectKinds(t, "===", token.IdentityEq, token.EOF)
	expectKinds(t, "==", token.Eq, token.EOF)
}

func TestTerminatorSemicolonAndNewline(t *testing.T) {
	expectKinds(t, "a;b", token.Ident, token.Terminator, token.Ident, token.EOF)
	expectKinds(t, "a\nb", token.Ident, token.Terminator, token.Ident, token.EOF)
	expectKinds(t, "a\r\nb", token.Ident, token.Terminator, token.Ident, token.EOF)
}

func TestIndentationEmittedOnlyWhenNonzero(t *testing.T) {
	// Top-level line with no leading whitespace: no Indentation token.
	expectKinds(t, "a\nb", token.Ident, token.Terminator, token.Ident, token.EOF)
	// Indented second line: Indentation then Ident.
	expectKinds(t, "a\n  b", token.Ident, token.Terminator, token.Indentation, token.Ident, token.EOF)
}

func TestBlankLinesAreSkipped(t *testing.T) {
	// A whitespace-only line between two statements produces no tokens of
	// its own: no Indentation, no extra Terminator.
	expectKinds(t, "a\n   \nb", token.Ident, token.Terminator, token.Ident, token.EOF)
	expectKinds(t, "a\n\n\nb", token.Ident, token.Terminator, token.Ident, token.EOF)
}

func TestSaveDiscardRestore(t *testing.T) {
	lx, _ := makeTestLexer("a b c")
	first := lx.Next()
	if first.Kind != token.Ident || first.Text != "a" {
		t.Fatalf("unexpected first token %+v", first)
	}
	lx.Save()
	second := lx.Next()
	if second.Text != "b" {
		t.Fatalf("unexpected second token %+v", second)
	}
	lx.Restore()
	again := lx.Next()
	if again.Text != "b" {
		t.Fatalf("restore did not rewind, got %+v", again)
	}
	lx.Save()
	_ = lx.Next() // consumes "c"
	lx.Discard()
	eof := lx.Next()
	if eof.Kind != token.EOF {
		t.Fatalf("expected EOF after discard, got %+v", eof)
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	lx, _ := makeTestLexer("a b")
	if lx.Peek().Text != "a" {
		t.Fatalf("peek should see first token")
	}
	if lx.Peek().Text != "a" {
		t.Fatalf("second peek should still see first token")
	}
	if lx.Next().Text != "a" {
		t.Fatalf("next should consume first token")
	}
	if lx.Next().Text != "b" {
		t.Fatalf("next should now see second token")
	}
}

func TestUnknownCharReports(t *testing.T) {
	lx, rep := makeTestLexer("a @ b")
	_ = lx.Next() // a
	tok := lx.Next()
	if tok.Kind != token.OtherSymbol {
		t.Fatalf("expected OtherSymbol for '@', got %v", tok.Kind)
	}
	if !rep.HasErrors() {
		t.Fatalf("expected unknown-char diagnostic")
	}
}

func TestTokenSpanMatchesSource(t *testing.T) {
	src := "let x = 42"
	lx, _ := makeTestLexer(src)
	for {
		tok := lx.Next()
		if tok.Kind == token.EOF {
			break
		}
		if got := src[tok.Span.Start:tok.Span.End]; got != tok.Text {
			t.Fatalf("span mismatch: text=%q span-slice=%q", tok.Text, got)
		}
	}
}
