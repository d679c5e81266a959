package vm

import (
	"testing"

	"ruleslang/internal/source"
	"ruleslang/internal/types"
)

func TestIdentityInternedOncePerLayout(t *testing.T) {
	in := types.NewInterner()
	strs := source.NewInterner()
	a := in.Intern(types.Array(in.Builtins().SInt32, 4))
	b := in.Intern(types.Array(in.Builtins().SInt32, 8))

	// Same component size means the same concrete ARRAY layout: length is
	// per-object, not per-identity.
	if InternIdentity(in, strs, a) != InternIdentity(in, strs, b) {
		t.Fatalf("arrays with equal component size should share one identity")
	}

	c := in.Intern(types.Array(in.Builtins().SInt64, 4))
	if InternIdentity(in, strs, a) == InternIdentity(in, strs, c) {
		t.Fatalf("different component sizes must not share an identity")
	}
}

func TestStructIdentityKeyedByNamesAndLayout(t *testing.T) {
	in := types.NewInterner()
	strs := source.NewInterner()
	na, nb := strs.Intern("a"), strs.Intern("b")
	s1 := in.RegisterStruct([]source.StringID{na, nb}, []types.TypeID{in.Builtins().SInt32, in.Builtins().SInt32})
	s2 := in.RegisterStruct([]source.StringID{na, nb}, []types.TypeID{in.Builtins().SInt32, in.Builtins().SInt32})
	if InternIdentity(in, strs, s1) != InternIdentity(in, strs, s2) {
		t.Fatalf("structurally equal structs should share an identity")
	}

	id := LookupIdentity(InternIdentity(in, strs, s1))
	if idx, ok := id.MemberByName("b"); !ok || id.MemberOffsets[idx] != 4 {
		t.Fatalf("member b should sit at offset 4, got %+v", id)
	}
}

func TestHeapAllocationHeaderIsValidIdentity(t *testing.T) {
	in := types.NewInterner()
	strs := source.NewInterner()
	h := NewHeap()
	arr := in.Intern(types.Array(in.Builtins().UInt8, 3))
	identity := InternIdentity(in, strs, arr)
	addr := h.AllocArray(identity, 1, 3)
	if addr == 0 {
		t.Fatalf("allocation must never return the null address")
	}
	if h.IdentityAt(addr) != identity {
		t.Fatalf("the identity header must name the allocating identity")
	}
	if h.Length(addr) != 3 {
		t.Fatalf("array length field mismatch: %d", h.Length(addr))
	}
}
