package sema

import (
	"strings"
	"testing"

	"ruleslang/internal/diag"
	"ruleslang/internal/lexer"
	"ruleslang/internal/opexpand"
	"ruleslang/internal/parser"
	"ruleslang/internal/source"
	"ruleslang/internal/types"
)

func analyzeSource(t *testing.T, src string) (*Program, *Analyzer, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.rl", []byte(src))
	bag := diag.NewBag(16)
	rep := diag.BagReporter{Bag: bag}
	strs := source.NewInterner()
	lx := lexer.New(fs.Get(id), lexer.Options{Reporter: rep})
	tree := parser.Parse(lx, strs, parser.Options{Reporter: rep})
	if bag.HasErrors() {
		t.Fatalf("parse errors: %+v", bag.Items())
	}
	opexpand.Expand(tree)
	a := NewAnalyzer(Options{Reporter: rep, Mode: ModeRule})
	prog, _ := a.Analyze(tree)
	return prog, a, bag
}

func requireClean(t *testing.T, bag *diag.Bag) {
	t.Helper()
	if bag.HasErrors() {
		t.Fatalf("unexpected semantic errors: %+v", bag.Items())
	}
}

func requireError(t *testing.T, bag *diag.Bag, code diag.Code) {
	t.Helper()
	for _, d := range bag.Items() {
		if d.Code == code {
			return
		}
	}
	t.Fatalf("expected %s, got %+v", code, bag.Items())
}

func TestLetKeepsLiteralType(t *testing.T) {
	prog, a, bag := analyzeSource(t, "let a = 12\n")
	requireClean(t, bag)
	tt, _ := a.Types().Lookup(prog.Stmts[0].Var.Type)
	if tt.Kind != types.KindSIntLit || tt.SIntValue() != 12 {
		t.Fatalf("let should keep the literal type, got %v", tt.Kind)
	}
}

func TestVarLiftsLiteralToAtomic(t *testing.T) {
	prog, a, bag := analyzeSource(t, "var a = 12\n")
	requireClean(t, bag)
	tt, _ := a.Types().Lookup(prog.Stmts[0].Var.Type)
	if tt.Kind != types.KindSInt || tt.Width != types.Width64 {
		t.Fatalf("var should lift 12 to sint64, got %v/%d", tt.Kind, tt.Width)
	}
}

func TestDeclaredTypeChecksValue(t *testing.T) {
	_, _, bag := analyzeSource(t, "let sint8 x = 300\n")
	requireError(t, bag, diag.SemaNotConvertible)
}

func TestLiteralNarrowsAgainstAtomicOperand(t *testing.T) {
	prog, a, bag := analyzeSource(t, "var sint8 x = 1\nvar y = x + 1\n")
	requireClean(t, bag)
	tt, _ := a.Types().Lookup(prog.Stmts[1].Var.Type)
	if tt.Kind != types.KindSInt || tt.Width != types.Width8 {
		t.Fatalf("x + 1 with x sint8 should stay sint8, got %v/%d", tt.Kind, tt.Width)
	}
}

func TestLiteralArithmeticStaysNatural(t *testing.T) {
	prog, a, bag := analyzeSource(t, "var x = 1 + 2\n")
	requireClean(t, bag)
	tt, _ := a.Types().Lookup(prog.Stmts[0].Var.Type)
	if tt.Kind != types.KindSInt || tt.Width != types.Width64 {
		t.Fatalf("literal arithmetic should stay sint64, got %v/%d", tt.Kind, tt.Width)
	}
}

func TestLiteralReductionFoldsConstants(t *testing.T) {
	prog, _, bag := analyzeSource(t, "var x = 1 + 2 * 3\n")
	requireClean(t, bag)
	value := prog.Stmts[0].Value
	if value.Kind != ELiteral || value.LitBits != 7 {
		t.Fatalf("1 + 2 * 3 should fold to literal 7, got kind=%d bits=%d", value.Kind, value.LitBits)
	}
}

func TestReduceIsIdempotent(t *testing.T) {
	prog, a, bag := analyzeSource(t, "var x = 1 + 2\nvar b = true && false\n")
	requireClean(t, bag)
	first := prog.Stmts[0].Value
	reduceProgram(a, prog)
	if prog.Stmts[0].Value.Kind != ELiteral || prog.Stmts[0].Value.LitBits != first.LitBits {
		t.Fatalf("a second reduction changed the tree")
	}
}

func TestConstantOverflowIsSemanticError(t *testing.T) {
	_, _, bag := analyzeSource(t, "var x = 9223372036854775807 + 1\n")
	requireError(t, bag, diag.SemaIntegerOverflow)
}

func TestRedeclarationInSameBlock(t *testing.T) {
	_, _, bag := analyzeSource(t, "let a = 1\nlet a = 2\n")
	requireError(t, bag, diag.SemaRedeclared)
}

func TestShadowingInInnerBlockIsAllowed(t *testing.T) {
	_, _, bag := analyzeSource(t, "let a = 1\nif true:\n let a = 2\n")
	requireClean(t, bag)
}

func TestUnknownName(t *testing.T) {
	_, _, bag := analyzeSource(t, "var x = missing\n")
	requireError(t, bag, diag.SemaUnknownName)
}

func TestBreakOutsideLoop(t *testing.T) {
	_, _, bag := analyzeSource(t, "break\n")
	requireError(t, bag, diag.SemaBreakOutsideLoop)
}

func TestConditionMustBeBool(t *testing.T) {
	_, _, bag := analyzeSource(t, "if 1:\n let a = 1\n")
	requireError(t, bag, diag.SemaConditionNotBool)
}

func TestMissingReturnOnSomePath(t *testing.T) {
	src := strings.Join([]string{
		"func f(x: sint64) -> sint64:",
		" if x > 0:",
		"  return x",
		"",
	}, "\n")
	_, _, bag := analyzeSource(t, src)
	requireError(t, bag, diag.SemaMissingReturn)
}

func TestAllPathsReturnThroughElse(t *testing.T) {
	src := strings.Join([]string{
		"func f(x: sint64) -> sint64:",
		" if x > 0:",
		"  return x",
		" else:",
		"  return 0 - x",
		"",
	}, "\n")
	_, _, bag := analyzeSource(t, src)
	requireClean(t, bag)
}

func TestCyclicTypeDefinitionRejected(t *testing.T) {
	_, _, bag := analyzeSource(t, "def A = {x: A}\n")
	requireError(t, bag, diag.SemaCyclicType)
}

func TestCyclicTypeThroughIntermediate(t *testing.T) {
	_, _, bag := analyzeSource(t, "def A = {x: sint64}\ndef B = {a: A, b: B}\n")
	requireError(t, bag, diag.SemaCyclicType)
}

func TestTopLevelReturnSetsRuleReturnType(t *testing.T) {
	prog, a, bag := analyzeSource(t, "def Input = {a: sint32, b: sint32}\nreturn .a + .b\n")
	requireClean(t, bag)
	tt, _ := a.Types().Lookup(prog.ReturnType)
	if tt.Kind != types.KindSInt || tt.Width != types.Width32 {
		t.Fatalf("rule return should be sint32, got %v/%d", tt.Kind, tt.Width)
	}
}

func TestContextFieldUnknownMember(t *testing.T) {
	_, _, bag := analyzeSource(t, "def Input = {a: sint32}\nreturn .b\n")
	requireError(t, bag, diag.SemaUnknownMember)
}

func TestShellModeRejectsTopLevelReturn(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("shell.rl", []byte("return 1\n"))
	bag := diag.NewBag(8)
	rep := diag.BagReporter{Bag: bag}
	strs := source.NewInterner()
	lx := lexer.New(fs.Get(id), lexer.Options{Reporter: rep})
	tree := parser.Parse(lx, strs, parser.Options{Reporter: rep})
	a := NewAnalyzer(Options{Reporter: rep, Mode: ModeShell})
	a.Analyze(tree)
	requireError(t, bag, diag.SemaReturnOutsideFunc)
}

func TestOverloadResolutionPrefersSpecific(t *testing.T) {
	src := strings.Join([]string{
		"func f(x: sint8) -> sint64:",
		" return 1",
		"func f(x: sint64) -> sint64:",
		" return 2",
		"var sint8 v = 3",
		"var r = f(v)",
		"",
	}, "\n")
	prog, _, bag := analyzeSource(t, src)
	requireClean(t, bag)
	call := prog.Stmts[1].Value
	if call.Kind != ECall {
		t.Fatalf("expected a call, got kind %d", call.Kind)
	}
	pt, _ := prog.Types.Lookup(call.Callee.Params[0].Type)
	if pt.Width != types.Width8 {
		t.Fatalf("the sint8 overload is more specific; resolution picked width %d", pt.Width)
	}
}

func TestInfixResolvesToTwoArgFunction(t *testing.T) {
	src := strings.Join([]string{
		"func max(a: sint64, b: sint64) -> sint64:",
		" if a > b:",
		"  return a",
		" else:",
		"  return b",
		"var r = 3 max 5",
		"",
	}, "\n")
	prog, _, bag := analyzeSource(t, src)
	requireClean(t, bag)
	if prog.Stmts[0].Value.Kind != ECall {
		t.Fatalf("infix use should lower to a call")
	}
}

func TestStringEscapeDecodes(t *testing.T) {
	prog, a, bag := analyzeSource(t, "let s = \"\\u0041\"\n")
	requireClean(t, bag)
	info, ok := a.Types().StringLitInfo(prog.Stmts[0].Var.Type)
	if !ok || info.Value != "A" {
		t.Fatalf("\\u0041 should decode to A, got %q", info.Value)
	}
}

func TestBoundaryIntegerLiterals(t *testing.T) {
	prog, a, bag := analyzeSource(t, "let u = 9223372036854775808\nlet n = -9223372036854775808\n")
	requireClean(t, bag)
	ut, _ := a.Types().Lookup(prog.Stmts[0].Var.Type)
	if ut.Kind != types.KindUIntLit || ut.UIntValue() != 1<<63 {
		t.Fatalf("2^63 should be an unsigned literal, got %v", ut.Kind)
	}
	nt, _ := a.Types().Lookup(prog.Stmts[1].Var.Type)
	if nt.Kind != types.KindSIntLit || nt.SIntValue() != -9223372036854775808 {
		t.Fatalf("-2^63 should be the smallest signed literal, got %v %d", nt.Kind, nt.SIntValue())
	}
}

func TestCaptureAcrossFunctionBoundaryRejected(t *testing.T) {
	src := strings.Join([]string{
		"let outer = 1",
		"func f() -> sint64:",
		" return outer",
		"",
	}, "\n")
	_, _, bag := analyzeSource(t, src)
	requireError(t, bag, diag.SemaUnknownName)
}

func TestCompositeLiteralAgainstStruct(t *testing.T) {
	src := "def P = {x: sint64, y: sint64}\nlet P p = {x: 1, y: 2}\n"
	prog, a, bag := analyzeSource(t, src)
	requireClean(t, bag)
	value := prog.Stmts[0].Value
	if value.Kind != EStructLit || len(value.Elements) != 2 {
		t.Fatalf("expected a struct literal with both members, got kind %d", value.Kind)
	}
	_ = a
}

func TestTypeCompareFoldsStatically(t *testing.T) {
	prog, _, bag := analyzeSource(t, "var sint8 v = 1\nvar ok = v <: sint64\n")
	requireClean(t, bag)
	value := prog.Stmts[1].Value
	if value.Kind != ELiteral || value.LitBits != 1 {
		t.Fatalf("sint8 <: sint64 should fold to true, got kind=%d bits=%d", value.Kind, value.LitBits)
	}
}

func TestExponentChainFoldsLeftAssociative(t *testing.T) {
	prog, _, bag := analyzeSource(t, "var x = 2 ** 3 ** 2\n")
	requireClean(t, bag)
	value := prog.Stmts[0].Value
	if value.Kind != ELiteral || value.LitBits != 64 {
		t.Fatalf("2 ** 3 ** 2 must fold as (2 ** 3) ** 2 = 64, got kind=%d bits=%d", value.Kind, value.LitBits)
	}
}
