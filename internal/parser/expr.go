package parser

import (
	"ruleslang/internal/ast"
	"ruleslang/internal/diag"
	"ruleslang/internal/token"
)

// parseExpr is the entry point of the 15-level precedence cascade:
// Conditional (lowest) down through Atom/Access/CompositeLiteral (highest).
func (p *Parser) parseExpr() (ast.ExprID, bool) {
	return p.parseConditional()
}

// parseConditional handles the lowest-precedence `e if c else e2` form;
// the false branch is right-associative, so a chain of `if`/`else` reads
// as nested Conditional nodes from the innermost `else` outward.
func (p *Parser) parseConditional() (ast.ExprID, bool) {
	start := p.lx.Peek().Span
	then, ok := p.parseRange()
	if !ok {
		return ast.NoExprID, false
	}
	if !p.at(token.KwIf) {
		return then, true
	}
	p.advance()
	cond, ok := p.parseRange()
	if !ok {
		p.err(diag.SynExpectedExpression, "expected a condition after 'if'")
		return ast.NoExprID, false
	}
	if _, ok := p.expect(token.KwElse, diag.SynUnexpectedToken, "expected 'else' to complete a conditional expression"); !ok {
		return ast.NoExprID, false
	}
	els, ok := p.parseConditional()
	if !ok {
		p.err(diag.SynExpectedExpression, "expected an expression after 'else'")
		return ast.NoExprID, false
	}
	span := start.Cover(p.lastSpan)
	return p.tree.Exprs.NewConditional(span, cond, then, els), true
}

func (p *Parser) parseRange() (ast.ExprID, bool) {
	start := p.lx.Peek().Span
	left, ok := p.parseConcatenate()
	if !ok {
		return ast.NoExprID, false
	}
	for p.at(token.DotDot) {
		p.advance()
		right, ok := p.parseConcatenate()
		if !ok {
			p.err(diag.SynExpectedExpression, "expected expression after '..'")
			return ast.NoExprID, false
		}
		span := start.Cover(p.lastSpan)
		left = p.tree.Exprs.NewBinary(span, ast.OpRange, left, right)
	}
	return left, true
}

func (p *Parser) parseConcatenate() (ast.ExprID, bool) {
	start := p.lx.Peek().Span
	left, ok := p.parseLogical()
	if !ok {
		return ast.NoExprID, false
	}
	for p.at(token.Tilde) {
		p.advance()
		right, ok := p.parseLogical()
		if !ok {
			p.err(diag.SynExpectedExpression, "expected expression after '~'")
			return ast.NoExprID, false
		}
		span := start.Cover(p.lastSpan)
		left = p.tree.Exprs.NewBinary(span, ast.OpConcatenate, left, right)
	}
	return left, true
}

func (p *Parser) parseLogical() (ast.ExprID, bool) {
	start := p.lx.Peek().Span
	left, ok := p.parseBitwise()
	if !ok {
		return ast.NoExprID, false
	}
	for {
		var op ast.BinaryOp
		switch p.lx.Peek().Kind {
		case token.OrOr:
			op = ast.OpLogicalOr
		case token.XorXor:
			op = ast.OpLogicalXor
		case token.AndAnd:
			op = ast.OpLogicalAnd
		default:
			return left, true
		}
		p.advance()
		right, ok := p.parseBitwise()
		if !ok {
			p.err(diag.SynExpectedExpression, "expected expression after logical operator")
			return ast.NoExprID, false
		}
		span := start.Cover(p.lastSpan)
		left = p.tree.Exprs.NewBinary(span, op, left, right)
	}
}

func (p *Parser) parseBitwise() (ast.ExprID, bool) {
	start := p.lx.Peek().Span
	left, ok := p.parseCompare()
	if !ok {
		return ast.NoExprID, false
	}
	for {
		var op ast.BinaryOp
		switch p.lx.Peek().Kind {
		case token.Pipe:
			op = ast.OpBitOr
		case token.Caret:
			op = ast.OpBitXor
		case token.Amp:
			op = ast.OpBitAnd
		default:
			return left, true
		}
		p.advance()
		right, ok := p.parseCompare()
		if !ok {
			p.err(diag.SynExpectedExpression, "expected expression after bitwise operator")
			return ast.NoExprID, false
		}
		span := start.Cover(p.lastSpan)
		left = p.tree.Exprs.NewBinary(span, op, left, right)
	}
}

func compareOpFor(k token.Kind) (ast.CompareOp, bool) {
	switch k {
	case token.Eq:
		return ast.CmpEq, true
	case token.NotEq:
		return ast.CmpNotEq, true
	case token.Lt:
		return ast.CmpLt, true
	case token.LtEq:
		return ast.CmpLtEq, true
	case token.Gt:
		return ast.CmpGt, true
	case token.GtEq:
		return ast.CmpGtEq, true
	case token.IdentityEq:
		return ast.CmpIdentityEq, true
	case token.IdentityNotEq:
		return ast.CmpIdentityNotEq, true
	default:
		return 0, false
	}
}

func typeCompareOpFor(k token.Kind) (ast.TypeCompareOp, bool) {
	switch k {
	case token.TypeEq:
		return ast.TypeCmpEq, true
	case token.TypeNotEq:
		return ast.TypeCmpNotEq, true
	case token.TypeSub:
		return ast.TypeCmpSub, true
	case token.TypeSuper:
		return ast.TypeCmpSuper, true
	case token.TypeSubShl:
		return ast.TypeCmpSubShl, true
	case token.TypeSuperShr:
		return ast.TypeCmpSuperShr, true
	case token.TypeIncomparable:
		return ast.TypeCmpIncomparable, true
	default:
		return 0, false
	}
}

// parseCompare builds a chain `e (cmp e)+` with an optional trailing
// type-compare operand, always typed bool.
func (p *Parser) parseCompare() (ast.ExprID, bool) {
	start := p.lx.Peek().Span
	first, ok := p.parseShift()
	if !ok {
		return ast.NoExprID, false
	}

	operands := []ast.ExprID{first}
	var ops []ast.CompareOp
	for {
		op, ok := compareOpFor(p.lx.Peek().Kind)
		if !ok {
			break
		}
		p.advance()
		next, ok := p.parseShift()
		if !ok {
			p.err(diag.SynExpectedExpression, "expected expression after comparison operator")
			return ast.NoExprID, false
		}
		ops = append(ops, op)
		operands = append(operands, next)
	}

	data := ast.ExprCompareData{}
	if typeOp, ok := typeCompareOpFor(p.lx.Peek().Kind); ok {
		p.advance()
		typeArg, ok := p.parseTypeExpr()
		if !ok {
			p.err(diag.SynExpectedType, "expected type after type-comparison operator")
			return ast.NoExprID, false
		}
		data.HasType = true
		data.TypeOp = typeOp
		data.TypeArg = typeArg
	}

	if len(operands) == 1 && !data.HasType {
		return first, true
	}
	data.Operands = operands
	data.Ops = ops
	span := start.Cover(p.lastSpan)
	return p.tree.Exprs.NewCompare(span, data), true
}

func (p *Parser) parseShift() (ast.ExprID, bool) {
	start := p.lx.Peek().Span
	left, ok := p.parseAdd()
	if !ok {
		return ast.NoExprID, false
	}
	for {
		var op ast.BinaryOp
		switch p.lx.Peek().Kind {
		case token.Shl:
			op = ast.OpShl
		case token.Shr:
			op = ast.OpShr
		case token.ShrTriple:
			op = ast.OpShrTriple
		default:
			return left, true
		}
		p.advance()
		right, ok := p.parseAdd()
		if !ok {
			p.err(diag.SynExpectedExpression, "expected expression after shift operator")
			return ast.NoExprID, false
		}
		span := start.Cover(p.lastSpan)
		left = p.tree.Exprs.NewBinary(span, op, left, right)
	}
}

func (p *Parser) parseAdd() (ast.ExprID, bool) {
	start := p.lx.Peek().Span
	left, ok := p.parseMultiply()
	if !ok {
		return ast.NoExprID, false
	}
	for {
		var op ast.BinaryOp
		switch p.lx.Peek().Kind {
		case token.Plus:
			op = ast.OpAdd
		case token.Minus:
			op = ast.OpSub
		default:
			return left, true
		}
		p.advance()
		right, ok := p.parseMultiply()
		if !ok {
			p.err(diag.SynExpectedExpression, "expected expression after '+'/'-'")
			return ast.NoExprID, false
		}
		span := start.Cover(p.lastSpan)
		left = p.tree.Exprs.NewBinary(span, op, left, right)
	}
}

func (p *Parser) parseMultiply() (ast.ExprID, bool) {
	start := p.lx.Peek().Span
	left, ok := p.parseInfix()
	if !ok {
		return ast.NoExprID, false
	}
	for {
		var op ast.BinaryOp
		switch p.lx.Peek().Kind {
		case token.Star:
			op = ast.OpMul
		case token.Slash:
			op = ast.OpDiv
		case token.Percent:
			op = ast.OpMod
		default:
			return left, true
		}
		p.advance()
		right, ok := p.parseInfix()
		if !ok {
			p.err(diag.SynExpectedExpression, "expected expression after '*'/'/'/'%'")
			return ast.NoExprID, false
		}
		span := start.Cover(p.lastSpan)
		left = p.tree.Exprs.NewBinary(span, op, left, right)
	}
}

// parseInfix handles the backtick-free named-function infix form
// `a FuncName b` (semantic analysis later lowers it to a call).
func (p *Parser) parseInfix() (ast.ExprID, bool) {
	start := p.lx.Peek().Span
	left, ok := p.parseExponent()
	if !ok {
		return ast.NoExprID, false
	}
	for p.at(token.Ident) && p.identLooksInfix() {
		name, _ := p.parseIdent()
		right, ok := p.parseExponent()
		if !ok {
			p.err(diag.SynExpectedExpression, "expected expression after infix function name")
			return ast.NoExprID, false
		}
		span := start.Cover(p.lastSpan)
		left = p.tree.Exprs.NewInfix(span, left, name, right)
	}
	return left, true
}

// identLooksInfix reports whether the current identifier can plausibly
// begin a new operand rather than, say, the next statement's target
// (an infix call must be followed by something that can start an
// expression).
func (p *Parser) identLooksInfix() bool {
	savedSpan := p.lastSpan
	p.lx.Save()
	p.advance()
	ok := p.canStartExpr(p.lx.Peek().Kind)
	p.lx.Restore()
	p.lastSpan = savedSpan
	return ok
}

func (p *Parser) canStartExpr(k token.Kind) bool {
	switch k {
	case token.Ident, token.BooleanLiteral, token.IntegerLiteral, token.FloatLiteral, token.StringLiteral,
		token.LParen, token.LBracket, token.LBrace, token.Minus, token.Plus, token.Bang, token.Tilde,
		token.Dot:
		return true
	default:
		return false
	}
}

// parseExponent folds `**` left-associatively: each iteration wraps the
// accumulated base, so `a ** b ** c` parses as `(a ** b) ** c`.
func (p *Parser) parseExponent() (ast.ExprID, bool) {
	start := p.lx.Peek().Span
	base, ok := p.parseUnary()
	if !ok {
		return ast.NoExprID, false
	}
	for p.at(token.Exponent) {
		p.advance()
		exp, ok := p.parseUnary()
		if !ok {
			p.err(diag.SynExpectedExpression, "expected expression after '**'")
			return ast.NoExprID, false
		}
		span := start.Cover(p.lastSpan)
		base = p.tree.Exprs.NewExponent(span, base, exp)
	}
	return base, true
}

func (p *Parser) parseUnary() (ast.ExprID, bool) {
	start := p.lx.Peek().Span
	switch p.lx.Peek().Kind {
	case token.Plus, token.Minus:
		neg := p.lx.Peek().Kind == token.Minus
		p.advance()
		operand, ok := p.parseUnary()
		if !ok {
			p.err(diag.SynExpectedExpression, "expected expression after sign")
			return ast.NoExprID, false
		}
		span := start.Cover(p.lastSpan)
		return p.tree.Exprs.NewSign(span, neg, operand), true
	case token.Bang:
		p.advance()
		operand, ok := p.parseUnary()
		if !ok {
			p.err(diag.SynExpectedExpression, "expected expression after '!'")
			return ast.NoExprID, false
		}
		span := start.Cover(p.lastSpan)
		return p.tree.Exprs.NewLogicalNot(span, operand), true
	case token.Tilde:
		p.advance()
		operand, ok := p.parseUnary()
		if !ok {
			p.err(diag.SynExpectedExpression, "expected expression after '~'")
			return ast.NoExprID, false
		}
		span := start.Cover(p.lastSpan)
		return p.tree.Exprs.NewBitwiseNot(span, operand), true
	default:
		return p.parseAccess()
	}
}

// parseAccess handles the postfix chain: field access, index access, and
// calls, any number of which may follow an atom.
func (p *Parser) parseAccess() (ast.ExprID, bool) {
	start := p.lx.Peek().Span
	expr, ok := p.parseAtom()
	if !ok {
		return ast.NoExprID, false
	}
	for {
		switch p.lx.Peek().Kind {
		case token.Dot:
			p.advance()
			if p.at(token.IntegerLiteral) {
				// tuple field access by index; the lexer has already
				// disambiguated `N.ident` at the number-scanning level.
				idxTok := p.advance()
				idxName := p.tree.Strings.Intern(idxTok.Text)
				span := start.Cover(p.lastSpan)
				expr = p.tree.Exprs.NewFieldAccess(span, expr, idxName)
				continue
			}
			name, ok := p.parseIdent()
			if !ok {
				return ast.NoExprID, false
			}
			span := start.Cover(p.lastSpan)
			expr = p.tree.Exprs.NewFieldAccess(span, expr, name)
		case token.LBracket:
			p.advance()
			index, ok := p.parseExpr()
			if !ok {
				p.err(diag.SynExpectedExpression, "expected an index expression")
				return ast.NoExprID, false
			}
			if _, ok := p.expect(token.RBracket, diag.SynUnclosedDelimiter, "expected ']'"); !ok {
				return ast.NoExprID, false
			}
			span := start.Cover(p.lastSpan)
			expr = p.tree.Exprs.NewIndexAccess(span, expr, index)
		case token.LParen:
			p.advance()
			var args []ast.ExprID
			for !p.at(token.RParen) && !p.at(token.EOF) {
				arg, ok := p.parseExpr()
				if !ok {
					return ast.NoExprID, false
				}
				args = append(args, arg)
				if p.at(token.Comma) {
					p.advance()
					continue
				}
				break
			}
			if _, ok := p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ')'"); !ok {
				return ast.NoExprID, false
			}
			span := start.Cover(p.lastSpan)
			expr = p.tree.Exprs.NewCall(span, expr, args)
		default:
			return expr, true
		}
	}
}

// parseAtom handles names, context-field references (`.field`), literals,
// parenthesized expressions, and composite literals.
func (p *Parser) parseAtom() (ast.ExprID, bool) {
	start := p.lx.Peek().Span
	switch p.lx.Peek().Kind {
	case token.Ident:
		name, _ := p.parseIdent()
		if p.at(token.LBrace) {
			// `NamedType { ... }` initializer.
			typeSpan := start.Cover(p.lastSpan)
			namedType := p.tree.Types.NewName(typeSpan, name)
			compLit, ok := p.parseCompositeLiteral()
			if !ok {
				return ast.NoExprID, false
			}
			span := start.Cover(p.lastSpan)
			return p.tree.Exprs.NewInitializer(span, namedType, compLit), true
		}
		return p.tree.Exprs.NewName(start, name), true
	case token.Dot:
		p.advance()
		name, ok := p.parseIdent()
		if !ok {
			return ast.NoExprID, false
		}
		span := start.Cover(p.lastSpan)
		return p.tree.Exprs.NewContextField(span, name), true
	case token.BooleanLiteral:
		tok := p.advance()
		return p.tree.Exprs.NewBoolLit(tok.Span, tok.Text == "true"), true
	case token.IntegerLiteral:
		tok := p.advance()
		return p.tree.Exprs.NewIntLit(tok.Span, tok.Text), true
	case token.FloatLiteral:
		tok := p.advance()
		return p.tree.Exprs.NewFloatLit(tok.Span, tok.Text), true
	case token.StringLiteral:
		tok := p.advance()
		return p.tree.Exprs.NewStringLit(tok.Span, tok.Text), true
	case token.LParen:
		p.advance()
		expr, ok := p.parseExpr()
		if !ok {
			return ast.NoExprID, false
		}
		if _, ok := p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ')'"); !ok {
			return ast.NoExprID, false
		}
		return expr, true
	case token.LBrace:
		return p.parseCompositeLiteral()
	default:
		p.err(diag.SynExpectedExpression, "expected an expression, got \""+p.lx.Peek().Text+"\"")
		return ast.NoExprID, false
	}
}

// parseCompositeLiteral parses `{ [label:] value, ... }` — the highest
// precedence level's remaining form (a label is absent, a name, an index,
// or the catch-all).
func (p *Parser) parseCompositeLiteral() (ast.ExprID, bool) {
	start := p.lx.Peek().Span
	if _, ok := p.expect(token.LBrace, diag.SynUnexpectedToken, "expected '{'"); !ok {
		return ast.NoExprID, false
	}
	var elements []ast.CompositeElement
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		el, ok := p.parseCompositeElement()
		if !ok {
			return ast.NoExprID, false
		}
		elements = append(elements, el)
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	if _, ok := p.expect(token.RBrace, diag.SynUnclosedDelimiter, "expected '}'"); !ok {
		return ast.NoExprID, false
	}
	span := start.Cover(p.lastSpan)
	return p.tree.Exprs.NewCompositeLiteral(span, elements), true
}

// parseCompositeElement uses the same save/restore backtracking protocol
// as let/var bindings: try an identifier or integer
// literal followed by ':', and if it isn't there, fall back to a plain
// value. A bare `_:` spells the "other" catch-all label (the
// catch-all has defined semantics but no prescribed surface
// syntax; `_` is the convention adopted here).
func (p *Parser) parseCompositeElement() (ast.CompositeElement, bool) {
	label := ast.CompositeLabel{Kind: ast.LabelNone}

	if p.at(token.Ident) {
		savedSpan := p.lastSpan
		p.lx.Save()
		nameTok := p.advance()
		if p.at(token.Colon) {
			p.lx.Discard()
			p.advance()
			if nameTok.Text == "_" {
				label = ast.CompositeLabel{Kind: ast.LabelOther}
			} else {
				label = ast.CompositeLabel{Kind: ast.LabelName, Name: p.tree.Strings.Intern(nameTok.Text)}
			}
		} else {
			p.lx.Restore()
			p.lastSpan = savedSpan
		}
	} else if p.at(token.IntegerLiteral) {
		savedSpan := p.lastSpan
		p.lx.Save()
		idxTok := p.advance()
		if p.at(token.Colon) {
			p.lx.Discard()
			p.advance()
			label = ast.CompositeLabel{Kind: ast.LabelIndex, Index: parseDecimalInt(idxTok.Text)}
		} else {
			p.lx.Restore()
			p.lastSpan = savedSpan
		}
	}

	value, ok := p.parseExpr()
	if !ok {
		return ast.CompositeElement{}, false
	}
	return ast.CompositeElement{Label: label, Value: value}, true
}

func parseDecimalInt(text string) int64 {
	var v int64
	for _, r := range text {
		if r < '0' || r > '9' {
			continue
		}
		v = v*10 + int64(r-'0')
	}
	return v
}
