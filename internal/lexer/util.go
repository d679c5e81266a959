package lexer

// ===== Classifiers =====
//
// Identifiers are ASCII-only ([A-Za-z_][A-Za-z0-9_]*); the
// reader already NFC-normalized the source, so string-literal content can
// contain arbitrary code points without the lexer needing to decode runes.

func isIdentStartByte(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isIdentContinueByte(b byte) bool {
	return isIdentStartByte(b) || (b >= '0' && b <= '9')
}

func isDec(b byte) bool { return b >= '0' && b <= '9' }

func isHex(b byte) bool {
	return (b >= '0' && b <= '9') ||
		(b >= 'a' && b <= 'f') ||
		(b >= 'A' && b <= 'F')
}

func isHorizontalSpace(b byte) bool { return b == ' ' || b == '\t' }

// isNumberAfterDot checks the ".5" case: current byte is '.', next is a digit.
func (lx *Lexer) isNumberAfterDot() bool {
	b0, b1, ok := lx.cursor.Peek2()
	return ok && b0 == '.' && isDec(b1)
}

// ===== Multi-byte operator matchers (greedy) =====

func (lx *Lexer) try4(a, b, c, d byte) bool {
	off := lx.cursor.Off
	if off+3 >= lx.cursor.limit() {
		return false
	}
	content := lx.file.Content
	if content[off] != a || content[off+1] != b || content[off+2] != c || content[off+3] != d {
		return false
	}
	lx.cursor.Bump()
	lx.cursor.Bump()
	lx.cursor.Bump()
	lx.cursor.Bump()
	return true
}

func (lx *Lexer) try3(a, b, c byte) bool {
	b0, b1, b2, ok := lx.cursor.Peek3()
	if !ok || b0 != a || b1 != b || b2 != c {
		return false
	}
	lx.cursor.Bump()
	lx.cursor.Bump()
	lx.cursor.Bump()
	return true
}

func (lx *Lexer) try2(a, b byte) bool {
	b0, b1, ok := lx.cursor.Peek2()
	if !ok || b0 != a || b1 != b {
		return false
	}
	lx.cursor.Bump()
	lx.cursor.Bump()
	return true
}
