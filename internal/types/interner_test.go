package types

import "testing"

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.Bool == NoTypeID || b.SInt32 == NoTypeID || b.FP64 == NoTypeID {
		t.Fatalf("builtins not initialized")
	}
	bt, _ := in.Lookup(b.Bool)
	if bt.Kind != KindBool {
		t.Fatalf("expected bool kind, got %v", bt.Kind)
	}
}

func TestInternerDeduplicatesDescriptors(t *testing.T) {
	in := NewInterner()
	elem := in.Builtins().SInt32
	arr1 := in.Intern(Array(elem, 4))
	arr2 := in.Intern(Array(elem, 4))
	if arr1 != arr2 {
		t.Fatalf("array types should be deduplicated")
	}
}

func TestInternerDistinguishesWidth(t *testing.T) {
	in := NewInterner()
	if in.Intern(SInt(Width8)) == in.Intern(SInt(Width16)) {
		t.Fatalf("SINT8 and SINT16 must be distinct types")
	}
}

func TestRegisterTupleDeduplicates(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	t1 := in.RegisterTuple([]TypeID{b.SInt32, b.Bool})
	t2 := in.RegisterTuple([]TypeID{b.SInt32, b.Bool})
	if t1 != t2 {
		t.Fatalf("equal tuples should be deduplicated")
	}
	info, ok := in.TupleInfo(t1)
	if !ok || len(info.Members) != 2 {
		t.Fatalf("expected tuple info with 2 members")
	}
}
