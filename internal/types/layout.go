package types

// RuntimeSize returns the byte size a value of type id occupies on the
// value stack or in a frame slot: atomics by width, references (arrays,
// tuples, structs, strings, any, functions) as an 8-byte heap address.
// Literal types size as their lifted atomic.
func RuntimeSize(in *Interner, id TypeID) uint32 {
	t, ok := in.Lookup(id)
	if !ok {
		return 0
	}
	switch t.Kind {
	case KindBool:
		return 1
	case KindSInt, KindUInt, KindFloat:
		return uint32(t.Width) / 8
	case KindBoolLit, KindSIntLit, KindUIntLit, KindFloatLit:
		return RuntimeSize(in, Lift(in, id))
	case KindStringLit, KindNullLit, KindArray, KindTuple, KindStruct, KindAny, KindFunc:
		return 8
	default:
		return 0
	}
}

// IsReference reports whether values of id live on the heap (the stack
// holds only their address).
func IsReference(in *Interner, id TypeID) bool {
	t, ok := in.Lookup(id)
	if !ok {
		return false
	}
	switch t.Kind {
	case KindStringLit, KindNullLit, KindArray, KindTuple, KindStruct, KindAny, KindFunc:
		return true
	default:
		return false
	}
}
