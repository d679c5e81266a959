package rule_test

import (
	"strings"
	"testing"

	"ruleslang/internal/diag"
	"ruleslang/internal/rule"
	"ruleslang/internal/source"
	"ruleslang/internal/vm"
)

func compile(t *testing.T, src string) *rule.Rule {
	t.Helper()
	fs := source.NewFileSet()
	bag := diag.NewBag(16)
	r, err := rule.CompileSource(fs, "rule.rl", []byte(src), bag)
	if err != nil {
		t.Fatalf("compile failed: %v (%+v)", err, bag.Items())
	}
	return r
}

func TestRuleAddsInputMembers(t *testing.T) {
	src := strings.Join([]string{
		"def Input = {a: sint32, b: sint32}",
		"return .a + .b",
		"",
	}, "\n")
	r := compile(t, src)

	if desc := r.InputDescriptor(); desc != "{a: sint32, b: sint32}" {
		t.Fatalf("unexpected input descriptor %q", desc)
	}

	out, err := r.Run([]byte(`{"a":2,"b":3}`))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if string(out) != "5" {
		t.Fatalf("expected 5, got %s", out)
	}
}

func TestRuleNotApplicableReturnsNull(t *testing.T) {
	src := strings.Join([]string{
		"def Input = {a: sint32}",
		"if .a > 10:",
		" return .a",
		"",
	}, "\n")
	r := compile(t, src)
	out, err := r.Run([]byte(`{"a":3}`))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if string(out) != "null" {
		t.Fatalf("a rule that never returns is not applicable, got %s", out)
	}

	out, err = r.Run([]byte(`{"a":11}`))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if string(out) != "11" {
		t.Fatalf("expected 11, got %s", out)
	}
}

func TestArrayOtherEvaluatedExactlyOnce(t *testing.T) {
	src := strings.Join([]string{
		"def Input = {n: sint64}",
		"let [sint64; 4] a = {1, 2, _: .n}",
		"return a",
		"",
	}, "\n")
	r := compile(t, src)

	m := vm.NewMachine(r.Types, r.Strings)
	count := 0
	m.Hooks.OnOtherEvaluated = func() { count++ }

	out, err := r.RunOn(m, []byte(`{"n":9}`))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if string(out) != "[1,2,9,9]" {
		t.Fatalf("expected [1,2,9,9], got %s", out)
	}
	if count != 1 {
		t.Fatalf("the catch-all value must be evaluated exactly once, was %d times", count)
	}
}

func TestUnprovidedArraySlotsAreZeroFilled(t *testing.T) {
	src := strings.Join([]string{
		"let [sint64; 3] a = {1: 5}",
		"return a",
		"",
	}, "\n")
	r := compile(t, src)
	out, err := r.Run([]byte(`null`))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if string(out) != "[0,5,0]" {
		t.Fatalf("expected [0,5,0], got %s", out)
	}
}

func TestDivideByZeroIsRuntimeError(t *testing.T) {
	src := strings.Join([]string{
		"def Input = {a: sint32}",
		"return 10 / .a",
		"",
	}, "\n")
	r := compile(t, src)
	_, err := r.Run([]byte(`{"a":0}`))
	srcErr, ok := err.(*diag.SourceException)
	if !ok {
		t.Fatalf("expected a source exception, got %v", err)
	}
	if srcErr.Diag.Code != diag.RuntimeDivideByZero {
		t.Fatalf("expected divide-by-zero, got %s", srcErr.Diag.Code)
	}
}

func TestStructOutput(t *testing.T) {
	src := strings.Join([]string{
		"def Input = {a: sint32}",
		"def Out = {double: sint64, sign: bool}",
		"return Out {double: .a * 2, sign: .a >= 0}",
		"",
	}, "\n")
	r := compile(t, src)
	out, err := r.Run([]byte(`{"a":21}`))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if string(out) != `{"double":42,"sign":true}` {
		t.Fatalf("unexpected output %s", out)
	}
}

func TestFunctionCallInRule(t *testing.T) {
	src := strings.Join([]string{
		"def Input = {x: sint64}",
		"func square(v: sint64) -> sint64:",
		" return v * v",
		"return square(.x)",
		"",
	}, "\n")
	r := compile(t, src)
	out, err := r.Run([]byte(`{"x":7}`))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if string(out) != "49" {
		t.Fatalf("expected 49, got %s", out)
	}
}

func TestLoopWithBreak(t *testing.T) {
	src := strings.Join([]string{
		"def Input = {limit: sint64}",
		"var total = 0",
		"var i = 0",
		"while true:",
		" if i >= .limit:",
		"  break",
		" total = total + i",
		" i = i + 1",
		"return total",
		"",
	}, "\n")
	r := compile(t, src)
	out, err := r.Run([]byte(`{"limit":5}`))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if string(out) != "10" {
		t.Fatalf("expected 0+1+2+3+4 = 10, got %s", out)
	}
}

func TestStructWideningDropsAndReorders(t *testing.T) {
	src := strings.Join([]string{
		"def Wide = {a: sint64, b: sint64, c: sint64}",
		"def Narrow = {c: sint64, a: sint64}",
		"let Wide w = {a: 1, b: 2, c: 3}",
		"let Narrow n = w",
		"return n",
		"",
	}, "\n")
	r := compile(t, src)
	out, err := r.Run([]byte(`null`))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if string(out) != `{"a":1,"c":3}` {
		t.Fatalf("widening should reorder and drop members, got %s", out)
	}
}

func TestCompileErrorIsSourceException(t *testing.T) {
	fs := source.NewFileSet()
	bag := diag.NewBag(8)
	_, err := rule.CompileSource(fs, "bad.rl", []byte("var x = missing\n"), bag)
	if err == nil {
		t.Fatalf("expected a compile error")
	}
	if _, ok := err.(*diag.SourceException); !ok {
		t.Fatalf("compile failures should surface as source exceptions, got %T", err)
	}
}

func TestDescribeTypeRendersNested(t *testing.T) {
	src := strings.Join([]string{
		"def Input = {xs: [sint32; 3], pair: (bool, fp64)}",
		"return .pair",
		"",
	}, "\n")
	r := compile(t, src)
	if desc := r.InputDescriptor(); desc != "{xs: [sint32; 3], pair: (bool, fp64)}" {
		t.Fatalf("unexpected descriptor %q", desc)
	}
}

func TestNullReferenceOnDefaultedMember(t *testing.T) {
	src := strings.Join([]string{
		"def P = {q: {x: sint64}}",
		"let P p = {}",
		"return p.q.x",
		"",
	}, "\n")
	r := compile(t, src)
	_, err := r.Run([]byte(`null`))
	srcErr, ok := err.(*diag.SourceException)
	if !ok {
		t.Fatalf("expected a source exception, got %v", err)
	}
	if srcErr.Diag.Code != diag.RuntimeNullReference {
		t.Fatalf("expected a null-reference failure, got %s", srcErr.Diag.Code)
	}
}

func TestIndexOutOfBounds(t *testing.T) {
	src := strings.Join([]string{
		"def Input = {i: sint64}",
		"let [sint64; 2] a = {1, 2}",
		"return a[.i]",
		"",
	}, "\n")
	r := compile(t, src)
	out, err := r.Run([]byte(`{"i":1}`))
	if err != nil || string(out) != "2" {
		t.Fatalf("in-bounds read failed: %s %v", out, err)
	}
	_, err = r.Run([]byte(`{"i":5}`))
	srcErr, ok := err.(*diag.SourceException)
	if !ok || srcErr.Diag.Code != diag.RuntimeIndexOOB {
		t.Fatalf("expected an index-out-of-bounds failure, got %v", err)
	}
}

func TestConcatenateArrays(t *testing.T) {
	src := strings.Join([]string{
		"let [sint64; 2] a = {1, 2}",
		"let [sint64; 2] b = {3, 4}",
		"return a ~ b",
		"",
	}, "\n")
	r := compile(t, src)
	out, err := r.Run([]byte(`null`))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if string(out) != "[1,2,3,4]" {
		t.Fatalf("expected [1,2,3,4], got %s", out)
	}
}

func TestRangeBuildsArray(t *testing.T) {
	src := "return 2 .. 6\n"
	r := compile(t, src)
	out, err := r.Run([]byte(`null`))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if string(out) != "[2,3,4,5]" {
		t.Fatalf("expected [2,3,4,5], got %s", out)
	}
}

func TestExponentEvaluatesLeftAssociative(t *testing.T) {
	// The input operand blocks constant folding, so the tree shape drives
	// the evaluator: (2 ** .b) ** 2 = 64 with b = 3, not 2 ** (3 ** 2).
	src := strings.Join([]string{
		"def Input = {b: sint64}",
		"return 2 ** .b ** 2",
		"",
	}, "\n")
	r := compile(t, src)
	out, err := r.Run([]byte(`{"b":3}`))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if string(out) != "64" {
		t.Fatalf("expected 64, got %s", out)
	}
}
