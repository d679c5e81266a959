package parser

import (
	"ruleslang/internal/ast"
	"ruleslang/internal/diag"
	"ruleslang/internal/source"
	"ruleslang/internal/token"
)

// parseStatements is the indentation-validated statement loop:
// repeatedly consume a run of indentation tokens (keeping only the last
// one before a non-indentation token), check it against spec, parse one
// statement, then require a Terminator, an Indentation, or end-of-source
// to follow.
func (p *Parser) parseStatements(spec IndentSpec) []ast.StmtID {
	var stmts []ast.StmtID
	nextIndentIgnored := false

	for {
		// A dedent that ends this block is rewound so the enclosing block
		// (and blockFollowsAt) still sees its indentation.
		savedSpan := p.lastSpan
		p.lx.Save()
		var lastIndent *token.Token
		for p.at(token.Indentation) {
			tok := p.advance()
			lastIndent = &tok
		}
		if p.at(token.EOF) {
			p.lx.Discard()
			break
		}

		if lastIndent != nil {
			char, count := rune(lastIndent.IndentChar()), lastIndent.IndentCount()
			if !spec.matches(char, count) {
				if len(stmts) > 0 && spec.Count > 0 {
					p.lx.Restore()
					p.lastSpan = savedSpan
					break
				}
				p.lx.Discard()
				if spec.Count > 0 && char != spec.Char {
					p.report(diag.SynMixedIndentation, diag.SevError, lastIndent.Span, "mixed indentation characters")
				} else {
					p.report(diag.SynNotEnoughIndent, diag.SevError, lastIndent.Span, "indentation does not match the enclosing block")
				}
				break
			}
		} else if spec.Count > 0 && !nextIndentIgnored {
			p.lx.Discard()
			if len(stmts) > 0 {
				break
			}
			p.err(diag.SynNotEnoughIndent, "expected an indented statement")
			break
		}
		p.lx.Discard()

		stmt, ok := p.parseStatement(spec)
		if !ok {
			p.resyncUntil()
			if p.at(token.Terminator) {
				p.advance()
			}
			nextIndentIgnored = true
			if p.at(token.EOF) {
				break
			}
			continue
		}
		stmts = append(stmts, stmt)
		nextIndentIgnored = false

		switch p.lx.Peek().Kind {
		case token.Terminator:
			// Only ';' keeps the next statement on the same line; after a
			// newline the next line's indentation is checked again.
			nextIndentIgnored = p.advance().Text == ";"
		case token.Indentation, token.EOF:
			// handled by the next loop iteration
		default:
			p.err(diag.SynUnexpectedToken, "expected a terminator or newline after statement, got \""+p.lx.Peek().Text+"\"")
			return stmts
		}
	}

	return stmts
}

// parseStatement dispatches on the leading token to one of the
// ten statement variants. spec is the IndentSpec the statement itself was
// found at, needed by the block-header forms to derive their body's
// nested spec and to recognize aligned elif/else continuations.
func (p *Parser) parseStatement(spec IndentSpec) (ast.StmtID, bool) {
	switch {
	case p.at(token.KwDef):
		return p.parseTypeDefinition()
	case p.atAny(token.KwLet, token.KwVar):
		return p.parseVariableDeclaration()
	case p.at(token.KwIf):
		return p.parseIfStatement(spec)
	case p.at(token.KwWhile):
		return p.parseLoop(spec)
	case p.at(token.KwFunc):
		return p.parseFunctionDefinition(spec)
	case p.at(token.KwReturn):
		return p.parseReturnStatement()
	case p.at(token.KwBreak):
		return p.parseBreakStatement()
	case p.at(token.KwContinue):
		return p.parseContinueStatement()
	default:
		return p.parseExprStatement()
	}
}

// parseExprStatement parses either an Assignment or a FunctionCallStatement
// — the only two statement forms that start with a bare expression.
func (p *Parser) parseExprStatement() (ast.StmtID, bool) {
	startSpan := p.lx.Peek().Span
	target, ok := p.parseExpr()
	if !ok {
		p.err(diag.SynExpectedStatement, "expected a statement")
		return ast.NoStmtID, false
	}

	if op, ok := assignOpFor(p.lx.Peek().Kind); ok {
		p.advance()
		value, ok := p.parseExpr()
		if !ok {
			p.err(diag.SynExpectedExpression, "expected expression after assignment operator")
			return ast.NoStmtID, false
		}
		span := startSpan.Cover(p.lastSpan)
		return p.tree.StmtMem.NewAssignment(span, target, op, value), true
	}

	if expr := p.tree.Exprs.Get(target); expr != nil && expr.Kind == ast.ExprCall {
		span := startSpan.Cover(p.lastSpan)
		return p.tree.StmtMem.NewFunctionCall(span, target), true
	}

	p.err(diag.SynExpectedStatement, "expected an assignment or function call statement")
	return ast.NoStmtID, false
}

func assignOpFor(k token.Kind) (ast.AssignOp, bool) {
	switch k {
	case token.Assign:
		return ast.AssignPlain, true
	case token.ExponentAssign:
		return ast.AssignExponent, true
	case token.StarAssign:
		return ast.AssignStar, true
	case token.SlashAssign:
		return ast.AssignSlash, true
	case token.PercentAssign:
		return ast.AssignPercent, true
	case token.PlusAssign:
		return ast.AssignPlus, true
	case token.MinusAssign:
		return ast.AssignMinus, true
	case token.ShlAssign:
		return ast.AssignShl, true
	case token.ShrAssign:
		return ast.AssignShr, true
	case token.ShrTripleAssign:
		return ast.AssignShrTriple, true
	case token.AmpAssign:
		return ast.AssignAmp, true
	case token.CaretAssign:
		return ast.AssignCaret, true
	case token.PipeAssign:
		return ast.AssignPipe, true
	case token.AndAndAssign:
		return ast.AssignAndAnd, true
	case token.XorXorAssign:
		return ast.AssignXorXor, true
	case token.OrOrAssign:
		return ast.AssignOrOr, true
	case token.TildeAssign:
		return ast.AssignTilde, true
	default:
		return ast.AssignPlain, false
	}
}

// parseBlockBody implements the "block header introduces a new IndentSpec"
// rule: the header is followed by ':', a Terminator, then the first
// Indentation token of the body, whose (char, count) becomes the block's
// spec (must share outer's char when outer is nonempty, and be strictly
// deeper). The header-terminating ':' is the one symbol every
// block-introducing form shares.
func (p *Parser) parseBlockBody(outer IndentSpec) ([]ast.StmtID, bool) {
	if !p.at(token.Colon) {
		sp := p.lx.Peek().Span
		if p.opts.Reporter != nil {
			p.opts.CurrentErrors++
			diag.ReportError(p.opts.Reporter, diag.SynUnexpectedToken, sp, "expected ':' to start a block").
				WithFix("insert ':'", diag.FixEdit{Span: source.Span{File: sp.File, Start: sp.Start, End: sp.Start}, NewText: ":"}).
				Emit()
		}
		return nil, false
	}
	p.advance()
	if p.at(token.Terminator) {
		p.advance()
	}
	if !p.at(token.Indentation) {
		p.err(diag.SynNotEnoughIndent, "expected an indented block")
		return nil, false
	}
	peek := p.lx.Peek()
	char, count := rune(peek.IndentChar()), peek.IndentCount()
	if outer.Count > 0 && char != outer.Char {
		p.report(diag.SynMixedIndentation, diag.SevError, peek.Span, "mixed indentation characters")
		return nil, false
	}
	if count <= outer.Count {
		p.report(diag.SynNotEnoughIndent, diag.SevError, peek.Span, "expected a deeper indentation level")
		return nil, false
	}
	return p.parseStatements(IndentSpec{Char: char, Count: count}), true
}
