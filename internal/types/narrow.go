package types

// NarrowIntLiteral implements the numeric-literal narrowing
// rule: when an integer literal is an operand of a binary operator whose
// other operand has an atomic type, the literal narrows to that atomic
// type if it fits; otherwise to the smallest atomic type that fits.
func NarrowIntLiteral(in *Interner, lit, other TypeID) (TypeID, bool) {
	litType, ok := in.Lookup(lit)
	if !ok || (litType.Kind != KindSIntLit && litType.Kind != KindUIntLit) {
		return NoTypeID, false
	}
	if otherType, ok := in.Lookup(other); ok && otherType.IsAtomic() && ConvertibleTo(in, lit, other) {
		return other, true
	}
	return SmallestAtomicFor(in, lit)
}

// SmallestAtomicFor returns the narrowest atomic type a literal value fits
// in, walking the ladder from SInt8 upward (trying unsigned widths first
// for unsigned literals, since those never need a sign bit).
func SmallestAtomicFor(in *Interner, lit TypeID) (TypeID, bool) {
	litType, ok := in.Lookup(lit)
	if !ok {
		return NoTypeID, false
	}
	switch litType.Kind {
	case KindBoolLit:
		return in.Builtins().Bool, true
	case KindUIntLit:
		v := litType.UIntValue()
		for _, w := range []Width{Width8, Width16, Width32, Width64} {
			if fitsUnsigned(v, w) {
				return in.Intern(UInt(w)), true
			}
		}
	case KindSIntLit:
		v := litType.SIntValue()
		for _, w := range []Width{Width8, Width16, Width32, Width64} {
			if fitsSigned(v, w) {
				return in.Intern(SInt(w)), true
			}
		}
	case KindFloatLit:
		if fitsFloat32(litType.FloatValue()) {
			return in.Intern(Float(Width32)), true
		}
		return in.Intern(Float(Width64)), true
	}
	return NoTypeID, false
}

// Lift converts a literal type to its natural atomic type: the 64-bit
// integer and float atoms for numeric literals (narrowing to a smaller
// width only happens through the operand rule above), bool for boolean
// literals, array-of-char for string literals. Used when a `var`
// declaration's value is inferred (literals are lifted to
// their atomic type for var, kept as literal for let) and whenever a
// literal-typed value needs a concrete runtime representation.
func Lift(in *Interner, t TypeID) TypeID {
	tt, ok := in.Lookup(t)
	if !ok {
		return t
	}
	switch tt.Kind {
	case KindBoolLit:
		return in.Builtins().Bool
	case KindSIntLit:
		return in.Builtins().SInt64
	case KindUIntLit:
		return in.Builtins().UInt64
	case KindFloatLit:
		return in.Builtins().FP64
	case KindStringLit:
		info, ok := in.StringLitInfo(t)
		if !ok {
			return t
		}
		elemKind, elemWidth := charComponent(info.Encoding)
		elem := in.Intern(Type{Kind: elemKind, Width: elemWidth})
		return in.Intern(Array(elem, uint32(len([]rune(info.Value)))))
	default:
		return t
	}
}
