package parser

import (
	"ruleslang/internal/ast"
	"ruleslang/internal/diag"
	"ruleslang/internal/token"
)

// parseIfStatement parses `if cond: body (elif cond: body)* (else: body)?`.
func (p *Parser) parseIfStatement(outer IndentSpec) (ast.StmtID, bool) {
	start := p.lx.Peek().Span

	var blocks []ast.ConditionalBlock
	p.advance() // 'if'
	cond, ok := p.parseExpr()
	if !ok {
		p.err(diag.SynExpectedExpression, "expected a condition after 'if'")
		return ast.NoStmtID, false
	}
	body, ok := p.parseBlockBody(outer)
	if !ok {
		return ast.NoStmtID, false
	}
	blocks = append(blocks, ast.ConditionalBlock{Cond: cond, Body: body})

	for p.blockFollowsAt(outer, token.KwElif) {
		p.consumeLeadingIndent()
		p.advance() // 'elif'
		cond, ok := p.parseExpr()
		if !ok {
			p.err(diag.SynExpectedExpression, "expected a condition after 'elif'")
			return ast.NoStmtID, false
		}
		body, ok := p.parseBlockBody(outer)
		if !ok {
			return ast.NoStmtID, false
		}
		blocks = append(blocks, ast.ConditionalBlock{Cond: cond, Body: body})
	}

	var elseBody []ast.StmtID
	if p.blockFollowsAt(outer, token.KwElse) {
		p.consumeLeadingIndent()
		p.advance() // 'else'
		elseBody, ok = p.parseBlockBody(outer)
		if !ok {
			return ast.NoStmtID, false
		}
	}

	span := start.Cover(p.lastSpan)
	return p.tree.StmtMem.NewConditional(span, blocks, elseBody), true
}

// parseLoop parses `while cond: body`.
func (p *Parser) parseLoop(outer IndentSpec) (ast.StmtID, bool) {
	start := p.lx.Peek().Span
	p.advance() // 'while'
	cond, ok := p.parseExpr()
	if !ok {
		p.err(diag.SynExpectedExpression, "expected a condition after 'while'")
		return ast.NoStmtID, false
	}
	body, ok := p.parseBlockBody(outer)
	if !ok {
		return ast.NoStmtID, false
	}
	span := start.Cover(p.lastSpan)
	return p.tree.StmtMem.NewLoop(span, "", cond, body), true
}

// parseFunctionDefinition parses `func name(param: Type, ...) -> RetType: body`.
func (p *Parser) parseFunctionDefinition(outer IndentSpec) (ast.StmtID, bool) {
	start := p.lx.Peek().Span
	p.advance() // 'func'
	name, ok := p.parseIdent()
	if !ok {
		return ast.NoStmtID, false
	}
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after function name"); !ok {
		return ast.NoStmtID, false
	}
	var params []ast.Param
	for !p.at(token.RParen) && !p.at(token.EOF) {
		pname, ok := p.parseIdent()
		if !ok {
			return ast.NoStmtID, false
		}
		if _, ok := p.expect(token.Colon, diag.SynUnexpectedToken, "expected ':' after parameter name"); !ok {
			return ast.NoStmtID, false
		}
		ptype, ok := p.parseTypeExpr()
		if !ok {
			return ast.NoStmtID, false
		}
		params = append(params, ast.Param{Name: pname, Type: ptype})
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ')'"); !ok {
		return ast.NoStmtID, false
	}

	retType := ast.NoTypeID
	if p.atArrow() {
		p.advanceArrow()
		retType, ok = p.parseTypeExpr()
		if !ok {
			return ast.NoStmtID, false
		}
	}

	body, ok := p.parseBlockBody(outer)
	if !ok {
		return ast.NoStmtID, false
	}
	span := start.Cover(p.lastSpan)
	return p.tree.StmtMem.NewFunctionDef(span, ast.FunctionDefData{
		Name:       name,
		Params:     params,
		ReturnType: retType,
		Body:       body,
	}), true
}

// atArrow/advanceArrow: '->' has no dedicated Kind in the symbol table
// (the maximal-munch symbol table never names it); it lexes as Minus
// followed immediately by Gt, which this helper stitches back together.
func (p *Parser) atArrow() bool {
	if p.lx.Peek().Kind != token.Minus {
		return false
	}
	savedSpan := p.lastSpan
	p.lx.Save()
	p.advance()
	isGt := p.at(token.Gt)
	p.lx.Restore()
	p.lastSpan = savedSpan
	return isGt
}

func (p *Parser) advanceArrow() {
	p.advance() // '-'
	p.advance() // '>'
}

func (p *Parser) parseReturnStatement() (ast.StmtID, bool) {
	start := p.lx.Peek().Span
	p.advance() // 'return'
	value := ast.NoExprID
	if p.canStartExpr(p.lx.Peek().Kind) {
		var ok bool
		value, ok = p.parseExpr()
		if !ok {
			return ast.NoStmtID, false
		}
	}
	span := start.Cover(p.lastSpan)
	return p.tree.StmtMem.NewReturn(span, value), true
}

func (p *Parser) parseBreakStatement() (ast.StmtID, bool) {
	start := p.lx.Peek().Span
	p.advance() // 'break'
	label := ""
	if p.at(token.Ident) {
		tok := p.advance()
		label = tok.Text
	}
	span := start.Cover(p.lastSpan)
	return p.tree.StmtMem.NewBreak(span, label), true
}

func (p *Parser) parseContinueStatement() (ast.StmtID, bool) {
	start := p.lx.Peek().Span
	p.advance() // 'continue'
	label := ""
	if p.at(token.Ident) {
		tok := p.advance()
		label = tok.Text
	}
	span := start.Cover(p.lastSpan)
	return p.tree.StmtMem.NewContinue(span, label), true
}

// blockFollowsAt reports whether, after the current block's body, the
// next non-indentation token is kw at the same indentation the current
// statement was parsed at — i.e. whether an 'elif'/'else' continuation
// follows an 'if' block.
func (p *Parser) blockFollowsAt(outer IndentSpec, kw token.Kind) bool {
	savedSpan := p.lastSpan
	p.lx.Save()
	defer func() {
		p.lx.Restore()
		p.lastSpan = savedSpan
	}()

	var lastIndent *token.Token
	for p.at(token.Indentation) {
		tok := p.advance()
		lastIndent = &tok
	}
	if lastIndent == nil {
		// A continuation at column zero carries no Indentation token.
		return outer.Count == 0 && p.at(kw)
	}
	if !outer.matches(rune(lastIndent.IndentChar()), lastIndent.IndentCount()) {
		return false
	}
	return p.at(kw)
}

// consumeLeadingIndent consumes the run of indentation tokens
// blockFollowsAt has already verified precedes an elif/else continuation.
func (p *Parser) consumeLeadingIndent() {
	for p.at(token.Indentation) {
		p.advance()
	}
}
