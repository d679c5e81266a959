package types

import (
	"fmt"

	"fortio.org/safecast"

	"ruleslang/internal/source"
)

// StringLitInfo is the side-table entry for a StringLit(encoding, value) type.
type StringLitInfo struct {
	Encoding StringEncoding
	Value    string
}

// TupleInfo stores the member types for a TupleType.
type TupleInfo struct {
	Members []TypeID
}

// StructInfo stores the member names/types for a StructureType. Names are
// unique within a struct (a structure never repeats a member name).
type StructInfo struct {
	Names []source.StringID
	Types []TypeID
}

// FuncInfo stores the signature for a function type.
type FuncInfo struct {
	Params []TypeID
	Return TypeID
}

// Builtins caches the TypeIDs of the fixed atomic types so callers don't
// re-intern them on every lookup.
type Builtins struct {
	Bool                          TypeID
	SInt8, SInt16, SInt32, SInt64 TypeID
	UInt8, UInt16, UInt32, UInt64 TypeID
	FP32, FP64                    TypeID
	Any                           TypeID
	NullLit                       TypeID
}

// Interner hands out stable TypeIDs for structurally-equal Type descriptors.
type Interner struct {
	types    []Type
	index    map[typeKey]TypeID
	builtins Builtins

	strings []StringLitInfo
	tuples  []TupleInfo
	structs []StructInfo
	funcs   []FuncInfo
}

func NewInterner() *Interner {
	in := &Interner{index: make(map[typeKey]TypeID, 64)}
	in.types = append(in.types, Type{Kind: KindInvalid}) // NoTypeID sentinel
	in.strings = append(in.strings, StringLitInfo{})
	in.tuples = append(in.tuples, TupleInfo{})
	in.structs = append(in.structs, StructInfo{})
	in.funcs = append(in.funcs, FuncInfo{})

	in.builtins.Bool = in.Intern(Bool())
	in.builtins.SInt8 = in.Intern(SInt(Width8))
	in.builtins.SInt16 = in.Intern(SInt(Width16))
	in.builtins.SInt32 = in.Intern(SInt(Width32))
	in.builtins.SInt64 = in.Intern(SInt(Width64))
	in.builtins.UInt8 = in.Intern(UInt(Width8))
	in.builtins.UInt16 = in.Intern(UInt(Width16))
	in.builtins.UInt32 = in.Intern(UInt(Width32))
	in.builtins.UInt64 = in.Intern(UInt(Width64))
	in.builtins.FP32 = in.Intern(Float(Width32))
	in.builtins.FP64 = in.Intern(Float(Width64))
	in.builtins.Any = in.Intern(Any())
	in.builtins.NullLit = in.Intern(NullLit())
	return in
}

func (in *Interner) Builtins() Builtins { return in.builtins }

type typeKey struct {
	Kind    Kind
	Width   Width
	Elem    TypeID
	Size    uint32
	Bits    uint64
	Payload uint32
}

func key(t Type) typeKey {
	return typeKey{Kind: t.Kind, Width: t.Width, Elem: t.Elem, Size: t.Size, Bits: t.Bits, Payload: t.Payload}
}

// Intern returns the stable TypeID for t, allocating one if this is the
// first time this structural shape has been seen. Struct/tuple/func types
// must be registered via RegisterXxx first; Intern on those raw Kinds
// without a Payload is only valid for the atomic/literal cases.
func (in *Interner) Intern(t Type) TypeID {
	k := key(t)
	if id, ok := in.index[k]; ok {
		return id
	}
	return in.internRaw(t)
}

func (in *Interner) internRaw(t Type) TypeID {
	n, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("types: too many interned types: %w", err))
	}
	id := TypeID(n)
	in.types = append(in.types, t)
	in.index[key(t)] = id
	return id
}

func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

func (in *Interner) MustLookup(id TypeID) Type {
	t, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return t
}

// RegisterStringLit interns a StringLit(encoding, value) literal type.
func (in *Interner) RegisterStringLit(enc StringEncoding, value string) TypeID {
	for i := 1; i < len(in.strings); i++ {
		if in.strings[i].Encoding == enc && in.strings[i].Value == value {
			if id, ok := in.index[typeKey{Kind: KindStringLit, Payload: uint32(i)}]; ok {
				return id
			}
		}
	}
	slot := in.appendStringLit(StringLitInfo{Encoding: enc, Value: value})
	return in.internRaw(Type{Kind: KindStringLit, Payload: slot})
}

func (in *Interner) StringLitInfo(id TypeID) (StringLitInfo, bool) {
	t, ok := in.Lookup(id)
	if !ok || t.Kind != KindStringLit || int(t.Payload) >= len(in.strings) {
		return StringLitInfo{}, false
	}
	return in.strings[t.Payload], true
}

func (in *Interner) appendStringLit(info StringLitInfo) uint32 {
	in.strings = append(in.strings, info)
	slot, err := safecast.Conv[uint32](len(in.strings) - 1)
	if err != nil {
		panic(fmt.Errorf("types: string literal table overflow: %w", err))
	}
	return slot
}

// RegisterTuple interns a TupleType(memberTypes[]).
func (in *Interner) RegisterTuple(members []TypeID) TypeID {
	for i := 1; i < len(in.tuples); i++ {
		if tupleEqual(in.tuples[i].Members, members) {
			if id, ok := in.index[typeKey{Kind: KindTuple, Payload: uint32(i)}]; ok {
				return id
			}
		}
	}
	slot := in.appendTuple(TupleInfo{Members: append([]TypeID(nil), members...)})
	return in.internRaw(Type{Kind: KindTuple, Payload: slot})
}

func (in *Interner) TupleInfo(id TypeID) (*TupleInfo, bool) {
	t, ok := in.Lookup(id)
	if !ok || t.Kind != KindTuple || int(t.Payload) >= len(in.tuples) {
		return nil, false
	}
	return &in.tuples[t.Payload], true
}

func (in *Interner) appendTuple(info TupleInfo) uint32 {
	in.tuples = append(in.tuples, info)
	slot, err := safecast.Conv[uint32](len(in.tuples) - 1)
	if err != nil {
		panic(fmt.Errorf("types: tuple table overflow: %w", err))
	}
	return slot
}

func tupleEqual(a, b []TypeID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// RegisterStruct interns a StructureType(memberNames[], memberTypes[]).
// Names must be unique; callers (sema) are responsible for that check.
func (in *Interner) RegisterStruct(names []source.StringID, memberTypes []TypeID) TypeID {
	slot := in.appendStruct(StructInfo{
		Names: append([]source.StringID(nil), names...),
		Types: append([]TypeID(nil), memberTypes...),
	})
	return in.internRaw(Type{Kind: KindStruct, Payload: slot})
}

func (in *Interner) StructInfo(id TypeID) (*StructInfo, bool) {
	t, ok := in.Lookup(id)
	if !ok || t.Kind != KindStruct || int(t.Payload) >= len(in.structs) {
		return nil, false
	}
	return &in.structs[t.Payload], true
}

func (in *Interner) appendStruct(info StructInfo) uint32 {
	in.structs = append(in.structs, info)
	slot, err := safecast.Conv[uint32](len(in.structs) - 1)
	if err != nil {
		panic(fmt.Errorf("types: struct table overflow: %w", err))
	}
	return slot
}

// RegisterFunc interns a `(paramTypes[]) -> returnType` function type.
func (in *Interner) RegisterFunc(params []TypeID, ret TypeID) TypeID {
	slot := in.appendFunc(FuncInfo{Params: append([]TypeID(nil), params...), Return: ret})
	return in.internRaw(Type{Kind: KindFunc, Payload: slot})
}

func (in *Interner) FuncInfo(id TypeID) (*FuncInfo, bool) {
	t, ok := in.Lookup(id)
	if !ok || t.Kind != KindFunc || int(t.Payload) >= len(in.funcs) {
		return nil, false
	}
	return &in.funcs[t.Payload], true
}

func (in *Interner) appendFunc(info FuncInfo) uint32 {
	in.funcs = append(in.funcs, info)
	slot, err := safecast.Conv[uint32](len(in.funcs) - 1)
	if err != nil {
		panic(fmt.Errorf("types: func table overflow: %w", err))
	}
	return slot
}
