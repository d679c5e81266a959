package lexer

import (
	"ruleslang/internal/diag"
	"ruleslang/internal/source"
	"ruleslang/internal/token"
)

// maxTokenLength bounds a single token's byte length; anything longer is
// almost certainly a runaway string/ident and is reported rather than
// allowed to consume unbounded memory.
const maxTokenLength = 4096

type Lexer struct {
	file        *source.File
	cursor      Cursor
	opts        Options
	look        *token.Token
	atLineStart bool
	saveStack   []lexSnapshot
}

type lexSnapshot struct {
	off         uint32
	atLineStart bool
	look        *token.Token
}

func New(file *source.File, opts Options) *Lexer {
	return &Lexer{
		file:        file,
		cursor:      NewCursor(file),
		opts:        opts,
		atLineStart: true,
	}
}

// Save pushes a backtracking snapshot of the lexer's position
// (a small stack of cursor snapshots, not full memoization).
func (lx *Lexer) Save() {
	lx.saveStack = append(lx.saveStack, lexSnapshot{
		off:         lx.cursor.Off,
		atLineStart: lx.atLineStart,
		look:        lx.look,
	})
}

// Discard pops the most recent snapshot without rewinding.
func (lx *Lexer) Discard() {
	if n := len(lx.saveStack); n > 0 {
		lx.saveStack = lx.saveStack[:n-1]
	}
}

// Restore pops the most recent snapshot and rewinds the lexer to it.
func (lx *Lexer) Restore() {
	n := len(lx.saveStack)
	if n == 0 {
		return
	}
	snap := lx.saveStack[n-1]
	lx.saveStack = lx.saveStack[:n-1]
	lx.cursor.Off = snap.off
	lx.atLineStart = snap.atLineStart
	lx.look = snap.look
}

// Next returns the next token, consuming it.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}
	return lx.scan()
}

// Peek returns the next token without consuming it.
func (lx *Lexer) Peek() token.Token {
	if lx.look == nil {
		t := lx.scan()
		lx.look = &t
	}
	return *lx.look
}

// scan is the tokenizer dispatch: indentation at the
// start of a logical line, terminators, then the literal/ident/operator
// scanners. Whitespace-only lines (blank lines) are skipped entirely — no
// Indentation or Terminator token is produced for them, so the parser never
// has to reason about indentation interleaved with an empty statement.
func (lx *Lexer) scan() token.Token {
	for {
		if lx.atLineStart {
			if tok, emitted := lx.scanIndentOrSkipBlank(); emitted {
				return lx.checkLength(tok)
			}
			if lx.atLineStart {
				continue
			}
		}

		if lx.cursor.EOF() {
			return token.Token{Kind: token.EOF, Span: lx.emptySpan(), Text: ""}
		}

		if isNL, width := lx.atNewlineHere(); isNL {
			return lx.checkLength(lx.scanTerminator(width))
		}

		ch := lx.cursor.Peek()

		if ch == ';' {
			start := lx.cursor.Mark()
			lx.cursor.Bump()
			sp := lx.cursor.SpanFrom(start)
			return token.Token{Kind: token.Terminator, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
		}

		if isHorizontalSpace(ch) {
			for isHorizontalSpace(lx.cursor.Peek()) {
				lx.cursor.Bump()
			}
			continue
		}

		var tok token.Token
		switch {
		case isIdentStartByte(ch):
			tok = lx.scanIdentOrKeyword()
		case isDec(ch):
			tok = lx.scanNumber()
		case ch == '.' && lx.isNumberAfterDot():
			tok = lx.scanNumber()
		case ch == '"':
			tok = lx.scanString()
		default:
			tok = lx.scanOperatorOrPunct()
		}
		return lx.checkLength(tok)
	}
}

// scanIndentOrSkipBlank consumes leading horizontal whitespace at the start
// of a logical line. If the line turns out to be blank (whitespace followed
// directly by a newline, or EOF), it is skipped and atLineStart stays true;
// the caller loops. Otherwise, if any whitespace was consumed, an
// Indentation token is emitted; if none was consumed, no token is produced
// and atLineStart is cleared so the caller proceeds to scan real content.
func (lx *Lexer) scanIndentOrSkipBlank() (token.Token, bool) {
	start := lx.cursor.Mark()
	for isHorizontalSpace(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}

	if isNL, width := lx.atNewlineHere(); isNL {
		for i := uint32(0); i < width; i++ {
			lx.cursor.Bump()
		}
		return token.Token{}, false
	}

	if lx.cursor.EOF() {
		lx.atLineStart = false
		return token.Token{}, false
	}

	if lx.cursor.Off == uint32(start) {
		lx.atLineStart = false
		return token.Token{}, false
	}

	sp := lx.cursor.SpanFrom(start)
	lx.atLineStart = false
	return token.Token{Kind: token.Indentation, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}, true
}

func (lx *Lexer) scanTerminator(width uint32) token.Token {
	start := lx.cursor.Mark()
	for i := uint32(0); i < width; i++ {
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	lx.atLineStart = true
	return token.Token{Kind: token.Terminator, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
}

// atNewlineHere reports whether the cursor sits at LF, CR, or CRLF, and the
// byte width of that newline sequence.
func (lx *Lexer) atNewlineHere() (bool, uint32) {
	b0 := lx.cursor.Peek()
	if b0 == '\n' {
		return true, 1
	}
	if b0 == '\r' {
		next := lx.cursor.Off + 1
		if next < lx.cursor.limit() && lx.file.Content[next] == '\n' {
			return true, 2
		}
		return true, 1
	}
	return false, 0
}

func (lx *Lexer) checkLength(tok token.Token) token.Token {
	if tok.Kind == token.EOF {
		return tok
	}
	if tok.Span.End-tok.Span.Start <= maxTokenLength {
		return tok
	}
	lx.report(diag.LexTokenTooLong, tok.Span, "token exceeds maximum length")
	lx.cursor.Off = lx.cursor.limit()
	return token.Token{Kind: token.Invalid, Span: tok.Span, Text: tok.Text}
}

func (lx *Lexer) emptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off}
}

// EmptySpan returns a zero-width span at the lexer's current position, for
// callers (the parser) that need a placeholder span before any token of a
// node has been consumed.
func (lx *Lexer) EmptySpan() source.Span {
	return lx.emptySpan()
}
