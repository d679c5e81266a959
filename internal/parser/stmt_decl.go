package parser

import (
	"ruleslang/internal/ast"
	"ruleslang/internal/diag"
	"ruleslang/internal/source"
	"ruleslang/internal/token"
)

// parseTypeDefinition parses `def Name = TypeExpr`, binding Name to a
// type the way `let` binds a name to a value.
func (p *Parser) parseTypeDefinition() (ast.StmtID, bool) {
	start := p.lx.Peek().Span
	p.advance() // 'def'
	name, ok := p.parseIdent()
	if !ok {
		return ast.NoStmtID, false
	}
	if _, ok := p.expect(token.Assign, diag.SynUnexpectedToken, "expected '=' after type name"); !ok {
		return ast.NoStmtID, false
	}
	typ, ok := p.parseTypeExpr()
	if !ok {
		return ast.NoStmtID, false
	}
	span := start.Cover(p.lastSpan)
	return p.tree.StmtMem.NewTypeDefinition(span, name, typ), true
}

// parseVariableDeclaration parses `let`/`var`, with the save/restore
// backtracking protocol: try `NamedType` then identifier;
// if the second identifier is absent, restore and treat the first
// identifier as the variable name with no declared type.
func (p *Parser) parseVariableDeclaration() (ast.StmtID, bool) {
	start := p.lx.Peek().Span
	kind := ast.VarLet
	if p.at(token.KwVar) {
		kind = ast.VarVar
	}
	p.advance() // 'let' or 'var'

	declaredType := ast.NoTypeID
	var name source.StringID
	var ok bool

	savedSpan := p.lastSpan
	p.lx.Save()
	if candidateType, tok := p.tryParseTypeExprThenIdent(); tok.IsValid() {
		p.lx.Discard()
		declaredType = candidateType
		name = tok.Name
	} else {
		p.lx.Restore()
		p.lastSpan = savedSpan
		name, ok = p.parseIdent()
		if !ok {
			return ast.NoStmtID, false
		}
	}

	value := ast.NoExprID
	if p.at(token.Assign) {
		p.advance()
		value, ok = p.parseExpr()
		if !ok {
			p.err(diag.SynExpectedExpression, "expected expression after '='")
			return ast.NoStmtID, false
		}
	}

	span := start.Cover(p.lastSpan)
	return p.tree.StmtMem.NewVariableDeclaration(span, ast.VariableDeclarationData{
		Kind:  kind,
		Name:  name,
		Type:  declaredType,
		Value: value,
	}), true
}

type namedIdent struct {
	Name    source.StringID
	present bool
}

func (n namedIdent) IsValid() bool { return n.present }

// tryParseTypeExprThenIdent attempts `TypeExpr Ident`; it reports a usable
// result only when both parse cleanly and no diagnostics should be
// surfaced for the attempt that the caller may discard — callers always
// wrap this in Save/Restore, so speculative errors never reach the
// reporter on the failing path because the lexer position (and thus every
// subsequent Peek) is rewound regardless of what this function reported.
func (p *Parser) tryParseTypeExprThenIdent() (ast.TypeID, namedIdent) {
	silent := p.opts
	silent.Reporter = nil
	saved := p.opts
	p.opts = silent
	defer func() { p.opts = saved }()

	if !p.canStartTypeExpr(p.lx.Peek().Kind) {
		return ast.NoTypeID, namedIdent{}
	}
	typ, ok := p.parseTypeExpr()
	if !ok || !p.at(token.Ident) {
		return ast.NoTypeID, namedIdent{}
	}
	tok := p.advance()
	return typ, namedIdent{Name: p.tree.Strings.Intern(tok.Text), present: true}
}

func (p *Parser) canStartTypeExpr(k token.Kind) bool {
	switch k {
	case token.Ident, token.LBracket, token.LParen, token.LBrace:
		return true
	default:
		return false
	}
}
