package ast

import (
	"ruleslang/internal/source"
)

// TypeSynKind enumerates the syntactic type-reference forms the parser can
// produce (as opposed to internal/types, which is the resolved lattice).
// The surface syntax for composite type references is not pinned down
// anywhere else, so array/tuple/struct syntax is modeled here as
// `[Component]` / `[Component; N]`, `(A, B, ...)`, and `{name: T, ...}`.
type TypeSynKind uint8

const (
	TypeSynName TypeSynKind = iota
	TypeSynArray
	TypeSynTuple
	TypeSynStruct
)

type TypeSyn struct {
	Kind    TypeSynKind
	Span    source.Span
	Payload PayloadID
}

type (
	TypeSynNameData struct {
		Name source.StringID
	}
	TypeSynArrayData struct {
		Component TypeID
		HasSize   bool
		Size      int64
	}
	TypeSynTupleData struct {
		Members []TypeID
	}
	TypeSynStructData struct {
		Names []source.StringID
		Types []TypeID
	}
)

type TypeSyns struct {
	Arena *Arena[TypeSyn]

	Names   *Arena[TypeSynNameData]
	Arrays  *Arena[TypeSynArrayData]
	Tuples  *Arena[TypeSynTupleData]
	Structs *Arena[TypeSynStructData]
}

func NewTypeSyns(capHint uint) *TypeSyns {
	if capHint == 0 {
		capHint = 1 << 5
	}
	return &TypeSyns{
		Arena:   NewArena[TypeSyn](capHint),
		Names:   NewArena[TypeSynNameData](capHint),
		Arrays:  NewArena[TypeSynArrayData](capHint),
		Tuples:  NewArena[TypeSynTupleData](capHint),
		Structs: NewArena[TypeSynStructData](capHint),
	}
}

func (t *TypeSyns) new(kind TypeSynKind, span source.Span, payload PayloadID) TypeID {
	return TypeID(t.Arena.Allocate(TypeSyn{Kind: kind, Span: span, Payload: payload}))
}

func (t *TypeSyns) Get(id TypeID) *TypeSyn { return t.Arena.Get(uint32(id)) }

func (t *TypeSyns) NewName(span source.Span, name source.StringID) TypeID {
	p := t.Names.Allocate(TypeSynNameData{Name: name})
	return t.new(TypeSynName, span, PayloadID(p))
}

func (t *TypeSyns) Name(id TypeID) (*TypeSynNameData, bool) {
	ts := t.Get(id)
	if ts == nil || ts.Kind != TypeSynName {
		return nil, false
	}
	return t.Names.Get(uint32(ts.Payload)), true
}

func (t *TypeSyns) NewArray(span source.Span, component TypeID, hasSize bool, size int64) TypeID {
	p := t.Arrays.Allocate(TypeSynArrayData{Component: component, HasSize: hasSize, Size: size})
	return t.new(TypeSynArray, span, PayloadID(p))
}

func (t *TypeSyns) Array(id TypeID) (*TypeSynArrayData, bool) {
	ts := t.Get(id)
	if ts == nil || ts.Kind != TypeSynArray {
		return nil, false
	}
	return t.Arrays.Get(uint32(ts.Payload)), true
}

func (t *TypeSyns) NewTuple(span source.Span, members []TypeID) TypeID {
	p := t.Tuples.Allocate(TypeSynTupleData{Members: members})
	return t.new(TypeSynTuple, span, PayloadID(p))
}

func (t *TypeSyns) Tuple(id TypeID) (*TypeSynTupleData, bool) {
	ts := t.Get(id)
	if ts == nil || ts.Kind != TypeSynTuple {
		return nil, false
	}
	return t.Tuples.Get(uint32(ts.Payload)), true
}

func (t *TypeSyns) NewStruct(span source.Span, names []source.StringID, types []TypeID) TypeID {
	p := t.Structs.Allocate(TypeSynStructData{Names: names, Types: types})
	return t.new(TypeSynStruct, span, PayloadID(p))
}

func (t *TypeSyns) Struct(id TypeID) (*TypeSynStructData, bool) {
	ts := t.Get(id)
	if ts == nil || ts.Kind != TypeSynStruct {
		return nil, false
	}
	return t.Structs.Get(uint32(ts.Payload)), true
}
