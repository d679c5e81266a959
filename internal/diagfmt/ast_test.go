package diagfmt_test

import (
	"testing"

	"ruleslang/internal/ast"
	"ruleslang/internal/diag"
	"ruleslang/internal/diagfmt"
	"ruleslang/internal/lexer"
	"ruleslang/internal/parser"
	"ruleslang/internal/source"
)

func parseProgram(t *testing.T, src string) (*ast.Tree, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("fmt.rl", []byte(src))
	bag := diag.NewBag(16)
	rep := diag.BagReporter{Bag: bag}
	lx := lexer.New(fs.Get(id), lexer.Options{Reporter: rep})
	tree := parser.Parse(lx, source.NewInterner(), parser.Options{Reporter: rep})
	return tree, bag
}

func TestFormatVariableDeclarationWithAdd(t *testing.T) {
	tree, bag := parseProgram(t, "let Test t = 1 + 1")
	if bag.HasErrors() {
		t.Fatalf("parse errors: %+v", bag.Items())
	}
	got := diagfmt.FormatStmt(tree, tree.Stmts[0])
	want := "VariableDeclaration(let Test t = Add(SignedIntegerLiteral(1) + SignedIntegerLiteral(1)))"
	if got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
}

func TestFormatConditionalStatement(t *testing.T) {
	tree, bag := parseProgram(t, "if a == 0:\n  let b = 12\nelse:\n  d = 1")
	if bag.HasErrors() {
		t.Fatalf("parse errors: %+v", bag.Items())
	}
	got := diagfmt.FormatStmt(tree, tree.Stmts[0])
	want := "ConditionalStatement(if Compare(a == SignedIntegerLiteral(0)): VariableDeclaration(let b = SignedIntegerLiteral(12)); else: Assignment(d = SignedIntegerLiteral(1)))"
	if got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
}

// TestSourceRoundTripIsStable checks the printer's fixed-point property:
// formatting the re-parse of formatted output reproduces the output.
func TestSourceRoundTripIsStable(t *testing.T) {
	programs := []string{
		"let Test t = 1 + 1\n",
		"if a == 0:\n  let b = 12\nelse:\n  d = 1\n",
		"func f(x: sint64) -> sint64:\n return x * (x + 1)\n",
		"while a < 10:\n a += 1\n",
		"let xs = {1, 2, _: 9}\n",
		"var r = b if a == 1 else c\n",
	}
	for _, src := range programs {
		tree, bag := parseProgram(t, src)
		if bag.HasErrors() {
			t.Fatalf("parse errors for %q: %+v", src, bag.Items())
		}
		once := diagfmt.SourceProgram(tree)

		tree2, bag2 := parseProgram(t, once)
		if bag2.HasErrors() {
			t.Fatalf("formatted output failed to re-parse: %q -> %q: %+v", src, once, bag2.Items())
		}
		twice := diagfmt.SourceProgram(tree2)
		if once != twice {
			t.Fatalf("format is not a fixed point:\nonce:  %q\ntwice: %q", once, twice)
		}
	}
}
