package parser_test

import (
	"testing"

	"ruleslang/internal/ast"
	"ruleslang/internal/diag"
	"ruleslang/internal/lexer"
	"ruleslang/internal/parser"
	"ruleslang/internal/source"
)

type testReporter struct {
	diagnostics []diag.Diagnostic
}

func (r *testReporter) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note, fixes []diag.Fix) {
	r.diagnostics = append(r.diagnostics, diag.Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  msg,
		Primary:  primary,
	})
}

func (r *testReporter) HasErrors() bool {
	for _, d := range r.diagnostics {
		if d.Severity == diag.SevError {
			return true
		}
	}
	return false
}

func parseSource(t *testing.T, src string) (*ast.Tree, *testReporter) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.rl", []byte(src))
	file := fs.Get(id)
	rep := &testReporter{}
	lx := lexer.New(file, lexer.Options{Reporter: rep})
	strings := source.NewInterner()
	tree := parser.Parse(lx, strings, parser.Options{Reporter: rep})
	return tree, rep
}

func requireNoErrors(t *testing.T, rep *testReporter) {
	t.Helper()
	if rep.HasErrors() {
		t.Fatalf("unexpected parse errors: %+v", rep.diagnostics)
	}
}

func TestParseVariableDeclarationInferredType(t *testing.T) {
	tree, rep := parseSource(t, "let x = 1\n")
	requireNoErrors(t, rep)
	if len(tree.Stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(tree.Stmts))
	}
	decl, ok := tree.StmtMem.VariableDeclaration(tree.Stmts[0])
	if !ok {
		t.Fatalf("expected a VariableDeclaration")
	}
	if decl.Kind != ast.VarLet {
		t.Errorf("expected VarLet, got %v", decl.Kind)
	}
	if decl.Type != ast.NoTypeID {
		t.Errorf("expected inferred (no) type, got %v", decl.Type)
	}
	if !decl.Value.IsValid() {
		t.Errorf("expected an initializer expression")
	}
}

func TestParseVariableDeclarationWithExplicitType(t *testing.T) {
	tree, rep := parseSource(t, "var SINT32 count = 0\n")
	requireNoErrors(t, rep)
	decl, ok := tree.StmtMem.VariableDeclaration(tree.Stmts[0])
	if !ok {
		t.Fatalf("expected a VariableDeclaration")
	}
	if decl.Kind != ast.VarVar {
		t.Errorf("expected VarVar, got %v", decl.Kind)
	}
	if decl.Type == ast.NoTypeID {
		t.Fatalf("expected an explicit declared type")
	}
	tn, ok := tree.Types.Name(decl.Type)
	if !ok {
		t.Fatalf("expected a Name type syntax node")
	}
	if got := tree.Strings.MustLookup(tn.Name); got != "SINT32" {
		t.Errorf("declared type name = %q, want SINT32", got)
	}
}

func TestParseVariableDeclarationBacktracksWhenNoSecondIdent(t *testing.T) {
	// "let x = 1" must NOT be misparsed as declared-type "x" with a missing
	// variable name; backtracking falls back to treating x as the name.
	tree, rep := parseSource(t, "let x = 1\nlet y = x\n")
	requireNoErrors(t, rep)
	if len(tree.Stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(tree.Stmts))
	}
	for _, id := range tree.Stmts {
		decl, ok := tree.StmtMem.VariableDeclaration(id)
		if !ok {
			t.Fatalf("expected a VariableDeclaration")
		}
		if decl.Type != ast.NoTypeID {
			t.Errorf("expected inferred type, got declared type %v", decl.Type)
		}
	}
}

func TestParseAssignment(t *testing.T) {
	tree, rep := parseSource(t, "let x = 1\nx += 2\n")
	requireNoErrors(t, rep)
	assign, ok := tree.StmtMem.Assignment(tree.Stmts[1])
	if !ok {
		t.Fatalf("expected an Assignment")
	}
	if assign.Op != ast.AssignPlus {
		t.Errorf("op = %v, want AssignPlus", assign.Op)
	}
}

func TestParseFunctionCallStatement(t *testing.T) {
	tree, rep := parseSource(t, "foo(1, 2)\n")
	requireNoErrors(t, rep)
	call, ok := tree.StmtMem.FunctionCall(tree.Stmts[0])
	if !ok {
		t.Fatalf("expected a FunctionCallStatement")
	}
	data, ok := tree.Exprs.Call(call.Call)
	if !ok {
		t.Fatalf("expected a Call expression")
	}
	if len(data.Args) != 2 {
		t.Errorf("args = %d, want 2", len(data.Args))
	}
}

func TestParseIfElifElse(t *testing.T) {
	src := "if a:\n  x = 1\nelif b:\n  x = 2\nelse:\n  x = 3\n"
	tree, rep := parseSource(t, src)
	requireNoErrors(t, rep)
	cond, ok := tree.StmtMem.Conditional(tree.Stmts[0])
	if !ok {
		t.Fatalf("expected a ConditionalStatement")
	}
	if len(cond.Blocks) != 2 {
		t.Fatalf("expected 2 blocks (if + elif), got %d", len(cond.Blocks))
	}
	if len(cond.Else) != 1 {
		t.Fatalf("expected an else body with 1 statement, got %d", len(cond.Else))
	}
}

func TestParseWhileLoop(t *testing.T) {
	src := "while x:\n  x = 0\n"
	tree, rep := parseSource(t, src)
	requireNoErrors(t, rep)
	loop, ok := tree.StmtMem.Loop(tree.Stmts[0])
	if !ok {
		t.Fatalf("expected a LoopStatement")
	}
	if len(loop.Body) != 1 {
		t.Errorf("body len = %d, want 1", len(loop.Body))
	}
}

func TestParseFunctionDefinitionWithReturnType(t *testing.T) {
	src := "func add(a: SINT32, b: SINT32) -> SINT32:\n  return a + b\n"
	tree, rep := parseSource(t, src)
	requireNoErrors(t, rep)
	def, ok := tree.StmtMem.FunctionDef(tree.Stmts[0])
	if !ok {
		t.Fatalf("expected a FunctionDefinition")
	}
	if len(def.Params) != 2 {
		t.Fatalf("params = %d, want 2", len(def.Params))
	}
	if def.ReturnType == ast.NoTypeID {
		t.Errorf("expected an explicit return type")
	}
	if len(def.Body) != 1 {
		t.Errorf("body len = %d, want 1", len(def.Body))
	}
}

func TestParseMixedIndentationIsRejected(t *testing.T) {
	src := "if a:\n  x = 1\n\tx = 2\n"
	_, rep := parseSource(t, src)
	if !rep.HasErrors() {
		t.Fatalf("expected a mixed-indentation error")
	}
}

func TestParseNotEnoughIndentIsRejected(t *testing.T) {
	src := "if a:\nx = 1\n"
	_, rep := parseSource(t, src)
	if !rep.HasErrors() {
		t.Fatalf("expected a not-enough-indent error")
	}
}

func TestParseBreakContinueWithLabel(t *testing.T) {
	src := "while a:\n  break outer\n"
	tree, rep := parseSource(t, src)
	requireNoErrors(t, rep)
	loop, ok := tree.StmtMem.Loop(tree.Stmts[0])
	if !ok || len(loop.Body) != 1 {
		t.Fatalf("expected a loop with a single body statement")
	}
	brk, ok := tree.StmtMem.Break(loop.Body[0])
	if !ok {
		t.Fatalf("expected a BreakStatement")
	}
	if brk.Label != "outer" {
		t.Errorf("label = %q, want %q", brk.Label, "outer")
	}
}

func TestParseDedentBelowInnerBlockIsRejected(t *testing.T) {
	// The second while's body dedents below its header's own level.
	src := "func test():\n while true:\n  let a = 1\n  while false:\n let b = 1"
	_, rep := parseSource(t, src)
	if !rep.HasErrors() {
		t.Fatalf("expected an indentation error")
	}
}

func TestParseExponentIsLeftAssociative(t *testing.T) {
	tree, rep := parseSource(t, "let x = 2 ** 3 ** 2\n")
	requireNoErrors(t, rep)

	decl, ok := tree.StmtMem.VariableDeclaration(tree.Stmts[0])
	if !ok {
		t.Fatalf("expected a variable declaration")
	}
	outer, ok := tree.Exprs.Exponent(decl.Value)
	if !ok {
		t.Fatalf("expected an exponent expression")
	}
	// (2 ** 3) ** 2: the left operand is itself the inner exponent.
	inner, ok := tree.Exprs.Exponent(outer.Base)
	if !ok {
		t.Fatalf("a ** b ** c must group as (a ** b) ** c; the base is not an exponent node")
	}
	if _, ok := tree.Exprs.IntLit(inner.Base); !ok {
		t.Fatalf("the innermost base should be the literal 2")
	}
	if _, ok := tree.Exprs.IntLit(outer.Exp); !ok {
		t.Fatalf("the outer exponent operand should be the trailing literal")
	}
}
