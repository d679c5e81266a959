package vm

import (
	"ruleslang/internal/diag"
	"ruleslang/internal/sema"
	"ruleslang/internal/source"
	"ruleslang/internal/types"
)

// evalConvert evaluates the operand at its own type and re-represents the
// value at the conversion's target type. Widenings between atomics happen
// on the stack; reference-shape changes (string to array, struct
// reordering, component widening) allocate a fresh object.
func (m *Machine) evalConvert(e *sema.Expr) *Error {
	if err := m.evalExpr(e.Operand); err != nil {
		return err
	}
	src := e.Operand.Type
	dst := e.Type
	st, _ := m.in.Lookup(src)
	dt, _ := m.in.Lookup(dst)

	// Literal sources evaluate at their lifted representation.
	srcRuntime := types.Lift(m.in, src)
	srt, _ := m.in.Lookup(srcRuntime)

	if !types.IsReference(m.in, srcRuntime) && !types.IsReference(m.in, dst) {
		srcSize := m.sizeOf(srcRuntime)
		dstSize := m.sizeOf(dst)
		bits := m.Stack.PopScalar(srcSize)
		m.Stack.PushScalar(dstSize, convertScalar(bits, srt, dt))
		return nil
	}

	// NullLit converts to any reference as null.
	if st.Kind == types.KindNullLit {
		m.Stack.PopScalar(8)
		m.Stack.PushScalar(8, 0)
		return nil
	}

	addr := m.Stack.PopScalar(8)
	out, err := m.convertReference(addr, src, dst, e.Span)
	if err != nil {
		return err
	}
	m.Stack.PushScalar(8, out)
	return nil
}

// convertScalar re-encodes an atomic bit pattern from srt to dt: signed
// widths sign-extend, unsigned zero-extend, integers promote to floats,
// fp32 and fp64 re-encode through float64.
func convertScalar(bits uint64, srt, dt types.Type) uint64 {
	var f float64
	isFloat := false
	switch srt.Kind {
	case types.KindFloat:
		f = bitsToFloat(bits, srt.Width)
		isFloat = true
	case types.KindSInt:
		bits = signExtend(bits, srt.Width)
		f = float64(int64(bits))
	default:
		f = float64(bits)
	}

	switch dt.Kind {
	case types.KindFloat:
		if !isFloat && srt.Kind == types.KindSInt {
			return floatToBits(float64(int64(bits)), dt.Width)
		}
		if !isFloat {
			return floatToBits(float64(bits), dt.Width)
		}
		return floatToBits(f, dt.Width)
	case types.KindSInt, types.KindUInt:
		if isFloat {
			return uint64(int64(f))
		}
		return bits
	case types.KindBool:
		return bits
	default:
		return bits
	}
}

// convertReference re-represents a heap value at a new reference type.
// Identical layouts share the object; anything else allocates.
func (m *Machine) convertReference(addr Addr, src, dst types.TypeID, sp source.Span) (Addr, *Error) {
	if addr == 0 {
		return 0, nil
	}
	st, _ := m.in.Lookup(types.Lift(m.in, src))
	dt, _ := m.in.Lookup(dst)

	if dt.Kind == types.KindAny {
		return addr, nil
	}

	srcIdentity := InternIdentity(m.in, m.strs, src)
	dstIdentity := InternIdentity(m.in, m.strs, dst)
	if srcIdentity == dstIdentity && st.Kind == dt.Kind {
		return addr, nil
	}

	switch dt.Kind {
	case types.KindArray:
		record := LookupIdentity(dstIdentity)
		comp := record.ComponentSize
		srcRecord := LookupIdentity(m.Heap.IdentityAt(addr))
		length := m.Heap.Length(addr)
		out := m.Heap.AllocArray(dstIdentity, comp, length)

		srcElem, dstElem := m.componentType(src), dt.Elem
		set, _ := m.in.Lookup(types.Lift(m.in, srcElem))
		det, _ := m.in.Lookup(dstElem)
		for i := uint64(0); i < length; i++ {
			bits := readScalar(m.Heap.Data(addr, ElemOffset(srcRecord.ComponentSize, i)), srcRecord.ComponentSize)
			if types.IsReference(m.in, dstElem) {
				converted, err := m.convertReference(bits, srcElem, dstElem, sp)
				if err != nil {
					return 0, err
				}
				bits = converted
			} else {
				bits = convertScalar(bits, set, det)
			}
			writeScalar(m.Heap.Data(out, ElemOffset(comp, i)), comp, bits)
		}
		return out, nil

	case types.KindTuple:
		dstInfo, _ := m.in.TupleInfo(dst)
		srcInfo, _ := m.in.TupleInfo(src)
		srcRecord := LookupIdentity(m.Heap.IdentityAt(addr))
		record := LookupIdentity(dstIdentity)
		out := m.Heap.Alloc(dstIdentity, record.DataSize)
		for i := range dstInfo.Members {
			bits := readScalar(m.Heap.Data(addr, srcRecord.MemberOffsets[i]), srcRecord.MemberSizes[i])
			converted, err := m.convertMember(bits, srcInfo.Members[i], dstInfo.Members[i], sp)
			if err != nil {
				return 0, err
			}
			writeScalar(m.Heap.Data(out, record.MemberOffsets[i]), record.MemberSizes[i], converted)
		}
		return out, nil

	case types.KindStruct:
		// Widening may reorder and drop members: the target layout is
		// rebuilt member by member, each looked up by name in the source
		// object's runtime identity.
		dstInfo, _ := m.in.StructInfo(dst)
		srcInfo, _ := m.in.StructInfo(src)
		srcRecord := LookupIdentity(m.Heap.IdentityAt(addr))
		record := LookupIdentity(dstIdentity)
		out := m.Heap.Alloc(dstIdentity, record.DataSize)
		for i, n := range dstInfo.Names {
			name := m.strs.MustLookup(n)
			j, ok := srcRecord.MemberByName(name)
			if !ok {
				return 0, errAt(diag.RuntimeNullReference, sp, "no member \""+name+"\"")
			}
			bits := readScalar(m.Heap.Data(addr, srcRecord.MemberOffsets[j]), srcRecord.MemberSizes[j])
			srcMember := m.structMemberType(srcInfo, name)
			converted, err := m.convertMember(bits, srcMember, dstInfo.Types[i], sp)
			if err != nil {
				return 0, err
			}
			writeScalar(m.Heap.Data(out, record.MemberOffsets[i]), record.MemberSizes[i], converted)
		}
		return out, nil

	default:
		return addr, nil
	}
}

func (m *Machine) convertMember(bits uint64, src, dst types.TypeID, sp source.Span) (uint64, *Error) {
	if types.IsReference(m.in, dst) {
		return m.convertReference(bits, src, dst, sp)
	}
	st, _ := m.in.Lookup(types.Lift(m.in, src))
	dt, _ := m.in.Lookup(dst)
	return convertScalar(bits, st, dt), nil
}

// componentType returns the element type behind an array-shaped static
// type (array component, or the char type of a string literal).
func (m *Machine) componentType(t types.TypeID) types.TypeID {
	tt, _ := m.in.Lookup(t)
	switch tt.Kind {
	case types.KindArray:
		return tt.Elem
	case types.KindStringLit:
		info, _ := m.in.StringLitInfo(t)
		switch info.Encoding {
		case types.UTF16:
			return m.in.Builtins().UInt16
		case types.UTF32:
			return m.in.Builtins().UInt32
		default:
			return m.in.Builtins().UInt8
		}
	default:
		return t
	}
}

func (m *Machine) structMemberType(info *types.StructInfo, name string) types.TypeID {
	if info == nil {
		return types.NoTypeID
	}
	for i, n := range info.Names {
		if m.strs.MustLookup(n) == name {
			return info.Types[i]
		}
	}
	return types.NoTypeID
}

// FloatFromBits re-exposes the width-aware float decoding for callers
// outside the package (the rule JSON bridge).
func FloatFromBits(bits uint64, w types.Width) float64 { return bitsToFloat(bits, w) }

// FloatBits re-exposes the width-aware float encoding.
func FloatBits(v float64, w types.Width) uint64 { return floatToBits(v, w) }

// SignExtend re-exposes width-aware sign extension.
func SignExtend(v uint64, w types.Width) uint64 { return signExtend(v, w) }
