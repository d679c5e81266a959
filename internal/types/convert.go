package types

// ConvertibleTo implements `A <: B`, the conversion lattice.
func ConvertibleTo(in *Interner, a, b TypeID) bool {
	if a == b {
		return true
	}
	ta, ok := in.Lookup(a)
	if !ok {
		return false
	}
	tb, ok := in.Lookup(b)
	if !ok {
		return false
	}

	switch ta.Kind {
	case KindSInt:
		return tb.Kind == KindSInt && ta.Width <= tb.Width
	case KindUInt:
		if tb.Kind == KindUInt {
			return ta.Width <= tb.Width
		}
		return tb.Kind == KindSInt && ta.Width < tb.Width
	case KindFloat:
		return tb.Kind == KindFloat && ta.Width <= tb.Width
	case KindBoolLit:
		return tb.Kind == KindBool
	case KindSIntLit:
		if tb.Kind == KindSInt {
			return fitsSigned(ta.SIntValue(), tb.Width)
		}
		return false
	case KindUIntLit:
		if tb.Kind == KindUInt {
			return fitsUnsigned(ta.UIntValue(), tb.Width)
		}
		if tb.Kind == KindSInt {
			return fitsSigned(int64(ta.UIntValue()), tb.Width) && ta.UIntValue() <= 1<<63-1
		}
		return false
	case KindFloatLit:
		if tb.Kind != KindFloat {
			return false
		}
		if tb.Width == Width64 {
			return true
		}
		return fitsFloat32(ta.FloatValue())
	case KindStringLit:
		sa, ok := in.StringLitInfo(a)
		if !ok {
			return false
		}
		if tb.Kind == KindStringLit {
			sb, ok := in.StringLitInfo(b)
			return ok && sb.Value == sa.Value && encodingRepresents(sb.Encoding, sa.Value)
		}
		if tb.Kind == KindArray {
			elemKind, elemWidth := charComponent(sa.Encoding)
			el, ok := in.Lookup(tb.Elem)
			if !ok || el.Kind != elemKind || el.Width != elemWidth {
				return false
			}
			n := uint32(len([]rune(sa.Value)))
			return tb.Size == ArrayUnsizedLength || tb.Size == n
		}
		return tb.Kind == KindAny
	case KindArray:
		if tb.Kind != KindArray {
			return tb.Kind == KindAny
		}
		if !ConvertibleTo(in, ta.Elem, tb.Elem) {
			return false
		}
		return tb.Size == ArrayUnsizedLength || ta.Size == tb.Size
	case KindTuple:
		if tb.Kind != KindTuple {
			return tb.Kind == KindAny
		}
		ia, _ := in.TupleInfo(a)
		ib, _ := in.TupleInfo(b)
		if ia == nil || ib == nil || len(ia.Members) != len(ib.Members) {
			return false
		}
		for i := range ia.Members {
			if !ConvertibleTo(in, ia.Members[i], ib.Members[i]) {
				return false
			}
		}
		return true
	case KindStruct:
		if tb.Kind != KindStruct {
			return tb.Kind == KindAny
		}
		return structWidens(in, a, b)
	}

	if tb.Kind == KindAny {
		return isReferenceKind(ta.Kind)
	}
	return false
}

func isReferenceKind(k Kind) bool {
	switch k {
	case KindArray, KindTuple, KindStruct, KindStringLit, KindFunc:
		return true
	default:
		return false
	}
}

// structWidens implements `StructureType(ns,As) <: StructureType(ms,Bs)`:
// target names must be a subset of source names, with pointwise widening
// on the matching names (extra source members are dropped at this level).
func structWidens(in *Interner, a, b TypeID) bool {
	sa, ok := in.StructInfo(a)
	if !ok {
		return false
	}
	sb, ok := in.StructInfo(b)
	if !ok {
		return false
	}
	for i, name := range sb.Names {
		found := false
		for j, candidate := range sa.Names {
			if candidate == name {
				if !ConvertibleTo(in, sa.Types[j], sb.Types[i]) {
					return false
				}
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func fitsSigned(v int64, w Width) bool {
	switch w {
	case Width8:
		return v >= -128 && v <= 127
	case Width16:
		return v >= -32768 && v <= 32767
	case Width32:
		return v >= -2147483648 && v <= 2147483647
	default:
		return true
	}
}

func fitsUnsigned(v uint64, w Width) bool {
	switch w {
	case Width8:
		return v <= 0xFF
	case Width16:
		return v <= 0xFFFF
	case Width32:
		return v <= 0xFFFFFFFF
	default:
		return true
	}
}

func fitsFloat32(v float64) bool {
	f := float32(v)
	return float64(f) == v
}

// charComponent maps a string literal's encoding to the array component
// type the string-literal-to-array-of-char conversion implies but never
// spells out concretely: the code-unit width for that encoding.
func charComponent(enc StringEncoding) (Kind, Width) {
	switch enc {
	case UTF16:
		return KindUInt, Width16
	case UTF32:
		return KindUInt, Width32
	default:
		return KindUInt, Width8
	}
}

func encodingRepresents(e StringEncoding, v string) bool {
	switch e {
	case UTF8:
		return true
	case UTF16:
		for _, r := range v {
			if r > 0x10FFFF {
				return false
			}
		}
		return true
	case UTF32:
		return true
	default:
		return false
	}
}
