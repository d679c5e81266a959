package lexer

import (
	"ruleslang/internal/token"
)

// scanNumber recognizes decimal, 0x hex, 0b binary, and float literals.
// Underscores are accepted as digit separators anywhere in the run;
// the semantic analyzer strips them without checking their placement.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	kind := token.IntegerLiteral

	if lx.cursor.Peek() == '.' {
		lx.cursor.Bump()
		kind = token.FloatLiteral
		for isDec(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
			lx.cursor.Bump()
		}
		return lx.finishNumber(start, kind, true)
	}

	if lx.cursor.Peek() == '0' {
		lx.cursor.Bump()
		switch lx.cursor.Peek() {
		case 'x', 'X':
			lx.cursor.Bump()
			for isHex(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
				lx.cursor.Bump()
			}
			return lx.finishNumber(start, kind, false)
		case 'b', 'B':
			lx.cursor.Bump()
			for {
				b := lx.cursor.Peek()
				if b == '0' || b == '1' || b == '_' {
					lx.cursor.Bump()
					continue
				}
				break
			}
			return lx.finishNumber(start, kind, false)
		}
	}

	for isDec(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
		lx.cursor.Bump()
	}

	// Fractional part, but not if what follows '.' is itself '.' (range `..`).
	if lx.cursor.Peek() == '.' {
		b0, b1, ok := lx.cursor.Peek2()
		if !(ok && b0 == '.' && b1 == '.') {
			if isDec(peekAt(lx, 1)) {
				lx.cursor.Bump()
				kind = token.FloatLiteral
				for isDec(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
					lx.cursor.Bump()
				}
			}
			// '.' not followed by a digit: leave it as a separate Dot so
			// "<digits>.<identifier>" re-parses as integer field access.
		}
	}

	return lx.finishNumber(start, kind, true)
}

// peekAt peeks n bytes ahead of the current position without consuming.
func peekAt(lx *Lexer, n int) byte {
	off := lx.cursor.Off + uint32(n)
	if off >= lx.cursor.limit() {
		return 0
	}
	return lx.file.Content[off]
}

func (lx *Lexer) finishNumber(start Mark, kind token.Kind, allowExponent bool) token.Token {
	if allowExponent && (lx.cursor.Peek() == 'e' || lx.cursor.Peek() == 'E') {
		kind = token.FloatLiteral
		lx.cursor.Bump()
		if lx.cursor.Peek() == '+' || lx.cursor.Peek() == '-' {
			lx.cursor.Bump()
		}
		for isDec(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
			lx.cursor.Bump()
		}
	}
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: kind, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
}
