package ast

import "ruleslang/internal/source"

// Tree is the syntactic tree of a single compiled source: the top-level
// statement list plus the arenas every node ID in it is drawn from.
type Tree struct {
	Span    source.Span
	Stmts   []StmtID
	Exprs   *Exprs
	StmtMem *Stmts
	Types   *TypeSyns
	Strings *source.Interner
}

func NewTree(sp source.Span, strings *source.Interner) *Tree {
	return &Tree{
		Span:    sp,
		Stmts:   make([]StmtID, 0, 16),
		Exprs:   NewExprs(0),
		StmtMem: NewStmts(0),
		Types:   NewTypeSyns(0),
		Strings: strings,
	}
}
