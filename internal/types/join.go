package types

import "ruleslang/internal/source"

// atomicLadder lists every atomic/literal numeric family used to search for
// a least-upper-bound when neither side already converts to the other.
var atomicLadder = []Type{
	SInt(Width8), SInt(Width16), SInt(Width32), SInt(Width64),
	UInt(Width8), UInt(Width16), UInt(Width32), UInt(Width64),
	Float(Width32), Float(Width64),
}

// Join computes `A ∨ B`, the least upper bound in the conversion lattice.
// It returns ok=false when no common supertype exists.
func Join(in *Interner, a, b TypeID) (TypeID, bool) {
	if a == b {
		return a, true
	}
	if ConvertibleTo(in, a, b) {
		return b, true
	}
	if ConvertibleTo(in, b, a) {
		return a, true
	}

	ta, ok := in.Lookup(a)
	if !ok {
		return NoTypeID, false
	}
	tb, ok := in.Lookup(b)
	if !ok {
		return NoTypeID, false
	}

	if ta.IsNumeric() && tb.IsNumeric() {
		for _, cand := range atomicLadder {
			id := in.Intern(cand)
			if ConvertibleTo(in, a, id) && ConvertibleTo(in, b, id) {
				return id, true
			}
		}
		return NoTypeID, false
	}

	if ta.Kind == KindArray && tb.Kind == KindArray {
		elem, ok := Join(in, ta.Elem, tb.Elem)
		if !ok {
			return NoTypeID, false
		}
		size := ArrayUnsizedLength
		if ta.Size == tb.Size {
			size = ta.Size
		}
		return in.Intern(Array(elem, size)), true
	}

	if ta.Kind == KindTuple && tb.Kind == KindTuple {
		ia, _ := in.TupleInfo(a)
		ib, _ := in.TupleInfo(b)
		if ia == nil || ib == nil || len(ia.Members) != len(ib.Members) {
			return NoTypeID, false
		}
		joined := make([]TypeID, len(ia.Members))
		for i := range ia.Members {
			m, ok := Join(in, ia.Members[i], ib.Members[i])
			if !ok {
				return NoTypeID, false
			}
			joined[i] = m
		}
		return in.RegisterTuple(joined), true
	}

	if ta.Kind == KindStruct && tb.Kind == KindStruct {
		return joinStructs(in, a, b)
	}

	if isReferenceKind(ta.Kind) && isReferenceKind(tb.Kind) {
		return in.Builtins().Any, true
	}

	return NoTypeID, false
}

// joinStructs produces the struct type of the names common to both sides,
// each widened to the join of the two member types.
func joinStructs(in *Interner, a, b TypeID) (TypeID, bool) {
	sa, ok := in.StructInfo(a)
	if !ok {
		return NoTypeID, false
	}
	sb, ok := in.StructInfo(b)
	if !ok {
		return NoTypeID, false
	}

	var names []source.StringID
	var types []TypeID
	for i, name := range sa.Names {
		for j, candidate := range sb.Names {
			if candidate != name {
				continue
			}
			m, ok := Join(in, sa.Types[i], sb.Types[j])
			if !ok {
				return NoTypeID, false
			}
			names = append(names, name)
			types = append(types, m)
			break
		}
	}
	if len(names) == 0 {
		return in.Builtins().Any, true
	}
	return in.RegisterStruct(names, types), true
}
