package parser

import (
	"ruleslang/internal/ast"
	"ruleslang/internal/diag"
	"ruleslang/internal/source"
	"ruleslang/internal/token"
)

// parseTypeExpr parses one of the syntactic type forms a `let`/`var`
// binding, function signature, or type-compare operand can name: a bare
// name, `[Component]`/`[Component; N]` array, `(A, B, ...)` tuple, or
// `{name: T, ...}` struct.
func (p *Parser) parseTypeExpr() (ast.TypeID, bool) {
	start := p.lx.Peek().Span
	switch p.lx.Peek().Kind {
	case token.Ident:
		name, ok := p.parseIdent()
		if !ok {
			return ast.NoTypeID, false
		}
		return p.tree.Types.NewName(start, name), true

	case token.LBracket:
		p.advance()
		component, ok := p.parseTypeExpr()
		if !ok {
			return ast.NoTypeID, false
		}
		hasSize := false
		var size int64
		if p.atSemicolonSeparator() {
			p.advance()
			if !p.at(token.IntegerLiteral) {
				p.err(diag.SynExpectedExpression, "expected an array length")
				return ast.NoTypeID, false
			}
			tok := p.advance()
			hasSize = true
			size = parseDecimalInt(tok.Text)
		}
		if _, ok := p.expect(token.RBracket, diag.SynUnclosedDelimiter, "expected ']'"); !ok {
			return ast.NoTypeID, false
		}
		span := start.Cover(p.lastSpan)
		return p.tree.Types.NewArray(span, component, hasSize, size), true

	case token.LParen:
		p.advance()
		var members []ast.TypeID
		for !p.at(token.RParen) && !p.at(token.EOF) {
			m, ok := p.parseTypeExpr()
			if !ok {
				return ast.NoTypeID, false
			}
			members = append(members, m)
			if p.at(token.Comma) {
				p.advance()
				continue
			}
			break
		}
		if _, ok := p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ')'"); !ok {
			return ast.NoTypeID, false
		}
		span := start.Cover(p.lastSpan)
		return p.tree.Types.NewTuple(span, members), true

	case token.LBrace:
		p.advance()
		var names []source.StringID
		var types []ast.TypeID
		for !p.at(token.RBrace) && !p.at(token.EOF) {
			name, ok := p.parseIdent()
			if !ok {
				return ast.NoTypeID, false
			}
			if _, ok := p.expect(token.Colon, diag.SynUnexpectedToken, "expected ':' after struct member name"); !ok {
				return ast.NoTypeID, false
			}
			memberType, ok := p.parseTypeExpr()
			if !ok {
				return ast.NoTypeID, false
			}
			names = append(names, name)
			types = append(types, memberType)
			if p.at(token.Comma) {
				p.advance()
				continue
			}
			break
		}
		if _, ok := p.expect(token.RBrace, diag.SynUnclosedDelimiter, "expected '}'"); !ok {
			return ast.NoTypeID, false
		}
		span := start.Cover(p.lastSpan)
		return p.tree.Types.NewStruct(span, names, types), true

	default:
		p.err(diag.SynExpectedType, "expected a type, got \""+p.lx.Peek().Text+"\"")
		return ast.NoTypeID, false
	}
}

// atSemicolonSeparator reports whether the current token is a ';'
// Terminator being used as the array-type length separator rather than a
// genuine statement terminator — true whenever we're still inside an
// unclosed '[' (the only caller, parseTypeExpr's array case, only asks
// while it hasn't yet seen ']').
func (p *Parser) atSemicolonSeparator() bool {
	return p.at(token.Terminator) && p.lx.Peek().Text == ";"
}
