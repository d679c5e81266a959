// Package parser builds a syntactic tree from the token
// stream produced by internal/lexer: an operator-precedence climb for
// expressions (a 15-level precedence table) and an indentation-validated
// recursive-descent parser for statements.
package parser

import (
	"slices"

	"ruleslang/internal/ast"
	"ruleslang/internal/diag"
	"ruleslang/internal/lexer"
	"ruleslang/internal/source"
	"ruleslang/internal/token"
)

// Options configures a Parser the way internal/lexer's Options configures
// a Lexer: a diagnostics sink plus an error budget.
type Options struct {
	Reporter      diag.Reporter
	MaxErrors     uint
	CurrentErrors uint
}

func (o *Options) enough() bool {
	if o.MaxErrors == 0 {
		return false
	}
	return o.CurrentErrors >= o.MaxErrors
}

// Parser holds the state for parsing a single source file into a Tree.
type Parser struct {
	lx       *lexer.Lexer
	tree     *ast.Tree
	opts     Options
	lastSpan source.Span
}

// Parse builds and returns the syntactic tree for lx's source, using
// strings as the shared string interner (the same one the caller will
// later intern semantic-analysis names into).
func Parse(lx *lexer.Lexer, strings *source.Interner, opts Options) *ast.Tree {
	p := &Parser{
		lx:       lx,
		tree:     ast.NewTree(lx.EmptySpan(), strings),
		opts:     opts,
		lastSpan: lx.EmptySpan(),
	}
	startSpan := p.lx.Peek().Span
	p.tree.Stmts = p.parseStatements(noIndent())
	p.tree.Span = startSpan.Cover(p.lastSpan)
	return p.tree
}

// ParseExpression parses lx's source as a single expression (the shell's
// expression mode). Returns the tree the expression's nodes live in plus
// the expression's ID; NoExprID on a parse failure.
func ParseExpression(lx *lexer.Lexer, strings *source.Interner, opts Options) (*ast.Tree, ast.ExprID) {
	p := &Parser{
		lx:       lx,
		tree:     ast.NewTree(lx.EmptySpan(), strings),
		opts:     opts,
		lastSpan: lx.EmptySpan(),
	}
	for p.at(token.Indentation) {
		p.advance()
	}
	expr, ok := p.parseExpr()
	if !ok {
		return p.tree, ast.NoExprID
	}
	for p.atAny(token.Terminator, token.Indentation) {
		p.advance()
	}
	if !p.at(token.EOF) {
		p.err(diag.SynUnexpectedToken, "unexpected input after the expression")
		return p.tree, ast.NoExprID
	}
	return p.tree, expr
}

func (p *Parser) at(k token.Kind) bool {
	return p.lx.Peek().Kind == k
}

func (p *Parser) atAny(kinds ...token.Kind) bool {
	return slices.Contains(kinds, p.lx.Peek().Kind)
}

func (p *Parser) advance() token.Token {
	tok := p.lx.Next()
	if tok.Kind != token.EOF && tok.Kind != token.Invalid {
		p.lastSpan = tok.Span
	}
	return tok
}

// expect consumes k if present, else reports code/msg at the current
// token's span and returns ok=false.
func (p *Parser) expect(k token.Kind, code diag.Code, msg string) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	p.err(code, msg)
	return token.Token{}, false
}

func (p *Parser) err(code diag.Code, msg string) {
	p.report(code, diag.SevError, p.lx.Peek().Span, msg)
}

func (p *Parser) report(code diag.Code, sev diag.Severity, sp source.Span, msg string) {
	if p.opts.Reporter == nil {
		return
	}
	if sev == diag.SevError {
		p.opts.CurrentErrors++
	}
	if p.opts.enough() {
		return
	}
	p.opts.Reporter.Report(code, sev, sp, msg, nil, nil)
}

// parseIdent expects an identifier and interns it.
func (p *Parser) parseIdent() (source.StringID, bool) {
	if !p.at(token.Ident) {
		p.err(diag.SynExpectedIdentifier, "expected identifier, got \""+p.lx.Peek().Text+"\"")
		return source.NoStringID, false
	}
	tok := p.advance()
	return p.tree.Strings.Intern(tok.Text), true
}

// resyncUntil advances the token stream until it reaches one of stop, a
// Terminator, or EOF, without consuming the stop token itself.
func (p *Parser) resyncUntil(stop ...token.Kind) {
	for !p.at(token.EOF) && !p.at(token.Terminator) && !p.atAny(stop...) {
		p.advance()
	}
}
