package types

import "testing"

func TestJoinReflexive(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	id, ok := Join(in, b.SInt32, b.SInt32)
	if !ok || id != b.SInt32 {
		t.Fatalf("join of identical types should be that type")
	}
}

func TestJoinOneConvertibleToOther(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	id, ok := Join(in, b.SInt8, b.SInt32)
	if !ok || id != b.SInt32 {
		t.Fatalf("join should pick the wider of two convertible atomics")
	}
}

func TestJoinFindsCommonWidth(t *testing.T) {
	in := NewInterner()
	// UINT8 <: SINT16 (8 < 16), so SINT16 is already a common upper bound.
	id, ok := Join(in, in.Intern(SInt(Width16)), in.Intern(UInt(Width8)))
	if !ok {
		t.Fatalf("expected a common type for SINT16 and UINT8")
	}
	tt, _ := in.Lookup(id)
	if tt.Kind != KindSInt || tt.Width != Width16 {
		t.Fatalf("expected SINT16 as the join, got %v/%v", tt.Kind, tt.Width)
	}
}

func TestJoinSameWidthSignedUnsignedNeedsWiderSigned(t *testing.T) {
	in := NewInterner()
	// UINT16 <: SINT16 does not hold (16 !< 16), so the ladder must widen
	// to SINT32 to find a common supertype.
	id, ok := Join(in, in.Intern(SInt(Width16)), in.Intern(UInt(Width16)))
	if !ok {
		t.Fatalf("expected a common type for SINT16 and UINT16")
	}
	tt, _ := in.Lookup(id)
	if tt.Kind != KindSInt || tt.Width != Width32 {
		t.Fatalf("expected SINT32 as the join, got %v/%v", tt.Kind, tt.Width)
	}
}

func TestJoinArrays(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	a1 := in.Intern(Array(b.SInt8, 3))
	a2 := in.Intern(Array(b.SInt16, 3))
	id, ok := Join(in, a1, a2)
	if !ok {
		t.Fatalf("expected array join to succeed")
	}
	tt, _ := in.Lookup(id)
	if tt.Kind != KindArray || tt.Size != 3 {
		t.Fatalf("expected an array of size 3, got %+v", tt)
	}
	elem, _ := in.Lookup(tt.Elem)
	if elem.Kind != KindSInt || elem.Width != Width16 {
		t.Fatalf("expected element join to be SINT16")
	}
}

func TestJoinNoCommonTypeFails(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	_, ok := Join(in, b.Bool, b.SInt32)
	if ok {
		t.Fatalf("bool and sint32 should have no common type")
	}
}
