package opexpand_test

import (
	"testing"

	"ruleslang/internal/ast"
	"ruleslang/internal/opexpand"
	"ruleslang/internal/source"
)

func TestExpandRewritesCompoundAssignment(t *testing.T) {
	interner := source.NewInterner()
	tree := ast.NewTree(source.Span{}, interner)

	aName := interner.Intern("a")
	target := tree.Exprs.NewName(source.Span{Start: 0, End: 1}, aName)
	value := tree.Exprs.NewIntLit(source.Span{Start: 5, End: 6}, "3")
	assignSpan := source.Span{Start: 0, End: 6}
	stmtID := tree.StmtMem.NewAssignment(assignSpan, target, ast.AssignPlus, value)
	tree.Stmts = append(tree.Stmts, stmtID)

	opexpand.Expand(tree)

	data, ok := tree.StmtMem.Assignment(stmtID)
	if !ok {
		t.Fatalf("expected assignment statement")
	}
	if data.Op != ast.AssignPlain {
		t.Fatalf("expected Op to be rewritten to AssignPlain, got %v", data.Op)
	}

	binData, ok := tree.Exprs.Binary(data.Value)
	if !ok {
		t.Fatalf("expected rewritten value to be a Binary expression")
	}
	if binData.Op != ast.OpAdd {
		t.Fatalf("expected OpAdd, got %v", binData.Op)
	}
	if binData.Left != target || binData.Right != value {
		t.Fatalf("expected rewritten binary to wrap original target/value")
	}

	rewritten := tree.Exprs.Get(data.Value)
	if rewritten.Span != assignSpan {
		t.Fatalf("expected rewritten expr span to adopt the assignment's span, got %+v", rewritten.Span)
	}
}

func TestExpandLeavesPlainAssignmentAlone(t *testing.T) {
	interner := source.NewInterner()
	tree := ast.NewTree(source.Span{}, interner)

	target := tree.Exprs.NewName(source.Span{}, interner.Intern("x"))
	value := tree.Exprs.NewIntLit(source.Span{}, "1")
	stmtID := tree.StmtMem.NewAssignment(source.Span{}, target, ast.AssignPlain, value)
	tree.Stmts = append(tree.Stmts, stmtID)

	opexpand.Expand(tree)

	data, _ := tree.StmtMem.Assignment(stmtID)
	if data.Value != value {
		t.Fatalf("plain assignment's value should be untouched")
	}
}

func TestExpandRecursesIntoLoopBody(t *testing.T) {
	interner := source.NewInterner()
	tree := ast.NewTree(source.Span{}, interner)

	target := tree.Exprs.NewName(source.Span{}, interner.Intern("i"))
	value := tree.Exprs.NewIntLit(source.Span{}, "1")
	innerID := tree.StmtMem.NewAssignment(source.Span{}, target, ast.AssignPlus, value)

	cond := tree.Exprs.NewBoolLit(source.Span{}, true)
	loopID := tree.StmtMem.NewLoop(source.Span{}, "", cond, []ast.StmtID{innerID})
	tree.Stmts = append(tree.Stmts, loopID)

	opexpand.Expand(tree)

	data, _ := tree.StmtMem.Assignment(innerID)
	if data.Op != ast.AssignPlain {
		t.Fatalf("expected loop body's compound assignment to be expanded")
	}
}

func TestExpandIsIdempotent(t *testing.T) {
	interner := source.NewInterner()
	tree := ast.NewTree(source.Span{}, interner)

	target := tree.Exprs.NewName(source.Span{Start: 0, End: 1}, interner.Intern("a"))
	value := tree.Exprs.NewIntLit(source.Span{Start: 5, End: 6}, "3")
	stmtID := tree.StmtMem.NewAssignment(source.Span{Start: 0, End: 6}, target, ast.AssignStar, value)
	tree.Stmts = append(tree.Stmts, stmtID)

	opexpand.Expand(tree)
	data, _ := tree.StmtMem.Assignment(stmtID)
	onceValue := data.Value
	onceExprs := tree.Exprs.Arena.Len()

	opexpand.Expand(tree)
	data, _ = tree.StmtMem.Assignment(stmtID)
	if data.Value != onceValue || tree.Exprs.Arena.Len() != onceExprs {
		t.Fatalf("a second expansion must not rewrite again")
	}
}
