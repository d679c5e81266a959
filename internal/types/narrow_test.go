package types

import "testing"

func TestNarrowIntLiteralToOtherOperandType(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	lit := in.Intern(SIntLit(10))
	narrowed, ok := NarrowIntLiteral(in, lit, b.SInt32)
	if !ok || narrowed != b.SInt32 {
		t.Fatalf("literal that fits the other operand's type should narrow to it")
	}
}

func TestNarrowIntLiteralFallsBackToSmallestFit(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	lit := in.Intern(SIntLit(1000))
	narrowed, ok := NarrowIntLiteral(in, lit, b.SInt8)
	if !ok {
		t.Fatalf("expected narrowing to succeed")
	}
	tt, _ := in.Lookup(narrowed)
	if tt.Kind != KindSInt || tt.Width != Width16 {
		t.Fatalf("1000 does not fit SINT8; expected fallback to SINT16, got %v/%v", tt.Kind, tt.Width)
	}
}

func TestSmallestAtomicForUnsigned(t *testing.T) {
	in := NewInterner()
	lit := in.Intern(UIntLit(300))
	id, ok := SmallestAtomicFor(in, lit)
	if !ok {
		t.Fatalf("expected a fit")
	}
	tt, _ := in.Lookup(id)
	if tt.Kind != KindUInt || tt.Width != Width16 {
		t.Fatalf("300 should need UINT16, got %v/%v", tt.Kind, tt.Width)
	}
}

func TestLiftVarBindsAtomicType(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	lit := in.Intern(SIntLit(5))
	lifted := Lift(in, lit)
	tt, _ := in.Lookup(lifted)
	if tt.Kind != KindSInt || tt.Width != Width64 {
		t.Fatalf("var-bound literal 5 should lift to its natural SINT64, got %v/%v", tt.Kind, tt.Width)
	}
	if lifted == lit {
		t.Fatalf("lifted type should no longer be the literal type")
	}
	_ = b
}

func TestLiftStringLiteralBecomesCharArray(t *testing.T) {
	in := NewInterner()
	lit := in.RegisterStringLit(UTF8, "hi")
	lifted := Lift(in, lit)
	tt, _ := in.Lookup(lifted)
	if tt.Kind != KindArray || tt.Size != 2 {
		t.Fatalf("expected a 2-element char array, got %+v", tt)
	}
}
