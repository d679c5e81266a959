// Package opexpand walks a parsed syntactic
// tree and rewrites every compound assignment `a op= b` into `a = a op b`,
// so later passes (sema, the evaluator) only ever see plain assignment.
package opexpand

import "ruleslang/internal/ast"

// Expand rewrites every compound assignment statement reachable from tree's
// top-level statements, recursing into conditional/loop/function bodies.
// No semantic analysis is performed; target expressions are duplicated by
// reference (the same ExprID is read twice at evaluation time), which is
// safe because assignment targets are side-effect-free per the
// AssignableExpression grammar (name, field access, index access).
func Expand(tree *ast.Tree) {
	walkStmts(tree, tree.Stmts)
}

func walkStmts(tree *ast.Tree, stmts []ast.StmtID) {
	for _, id := range stmts {
		walkStmt(tree, id)
	}
}

func walkStmt(tree *ast.Tree, id ast.StmtID) {
	stmt := tree.StmtMem.Get(id)
	if stmt == nil {
		return
	}
	switch stmt.Kind {
	case ast.StmtAssignment:
		expandAssignment(tree, id)
	case ast.StmtConditional:
		data, _ := tree.StmtMem.Conditional(id)
		for _, block := range data.Blocks {
			walkStmts(tree, block.Body)
		}
		walkStmts(tree, data.Else)
	case ast.StmtLoop:
		data, _ := tree.StmtMem.Loop(id)
		walkStmts(tree, data.Body)
	case ast.StmtFunctionDefinition:
		data, _ := tree.StmtMem.FunctionDef(id)
		walkStmts(tree, data.Body)
	}
}

// expandAssignment rewrites an `a op= b` statement in place. The new binary
// (or exponent) expression adopts the assignment statement's span, so the
// rewritten tree's diagnostics still point at `a op= b`'s original source.
func expandAssignment(tree *ast.Tree, id ast.StmtID) {
	stmt := tree.StmtMem.Get(id)
	data, ok := tree.StmtMem.Assignment(id)
	if !ok || data.Op == ast.AssignPlain {
		return
	}

	span := stmt.Span
	var rewritten ast.ExprID
	if data.Op == ast.AssignExponent {
		rewritten = tree.Exprs.NewExponent(span, data.Target, data.Value)
	} else {
		binOp, ok := data.Op.ToBinaryOp()
		if !ok {
			return
		}
		rewritten = tree.Exprs.NewBinary(span, binOp, data.Target, data.Value)
	}

	data.Op = ast.AssignPlain
	data.Value = rewritten
}
