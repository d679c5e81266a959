package vm

import (
	"math"

	"ruleslang/internal/ast"
	"ruleslang/internal/diag"
	"ruleslang/internal/sema"
	"ruleslang/internal/types"
)

func signExtend(v uint64, w types.Width) uint64 {
	bits := uint(w)
	if bits == 0 || bits >= 64 {
		return v
	}
	mask := uint64(1) << (bits - 1)
	if v&mask != 0 {
		v |= ^(uint64(1)<<bits - 1)
	}
	return v
}

func bitsToFloat(v uint64, w types.Width) float64 {
	if w == types.Width32 {
		return float64(math.Float32frombits(uint32(v)))
	}
	return math.Float64frombits(v)
}

func floatToBits(v float64, w types.Width) uint64 {
	if w == types.Width32 {
		return uint64(math.Float32bits(float32(v)))
	}
	return math.Float64bits(v)
}

// evalBinary evaluates an arithmetic/bitwise/logical/concat/range binary
// node. Logical operators short-circuit: the right operand is evaluated
// only when the left leaves the outcome open.
func (m *Machine) evalBinary(e *sema.Expr) *Error {
	switch e.BinOp {
	case ast.OpLogicalAnd, ast.OpLogicalOr, ast.OpLogicalXor:
		return m.evalLogical(e)
	case ast.OpConcatenate:
		return m.evalConcatenate(e)
	case ast.OpRange:
		return m.evalRange(e)
	}

	if err := m.evalExpr(e.Left); err != nil {
		return err
	}
	if err := m.evalExpr(e.Right); err != nil {
		return err
	}
	t, _ := m.in.Lookup(e.Type)
	size := m.sizeOf(e.Type)
	r := m.Stack.PopScalar(size)
	l := m.Stack.PopScalar(size)

	if t.Kind == types.KindFloat {
		lf, rf := bitsToFloat(l, t.Width), bitsToFloat(r, t.Width)
		var v float64
		switch e.BinOp {
		case ast.OpMul:
			v = lf * rf
		case ast.OpDiv:
			if rf == 0 {
				return errAt(diag.RuntimeDivideByZero, e.Span, "Division by zero")
			}
			v = lf / rf
		case ast.OpMod:
			if rf == 0 {
				return errAt(diag.RuntimeDivideByZero, e.Span, "Division by zero")
			}
			v = math.Mod(lf, rf)
		case ast.OpAdd:
			v = lf + rf
		case ast.OpSub:
			v = lf - rf
		default:
			panic("vm: float operand for a bitwise operator")
		}
		m.Stack.PushScalar(size, floatToBits(v, t.Width))
		return nil
	}

	signed := t.Kind == types.KindSInt
	var v uint64
	switch e.BinOp {
	case ast.OpMul:
		v = uint64(int64(signExtend(l, t.Width)) * int64(signExtend(r, t.Width)))
	case ast.OpDiv, ast.OpMod:
		if r == 0 {
			return errAt(diag.RuntimeDivideByZero, e.Span, "Division by zero")
		}
		if signed {
			sl, sr := int64(signExtend(l, t.Width)), int64(signExtend(r, t.Width))
			if e.BinOp == ast.OpDiv {
				v = uint64(sl / sr)
			} else {
				v = uint64(sl % sr)
			}
		} else {
			if e.BinOp == ast.OpDiv {
				v = l / r
			} else {
				v = l % r
			}
		}
	case ast.OpAdd:
		v = l + r
	case ast.OpSub:
		v = l - r
	case ast.OpShl:
		v = l << (r & 63)
	case ast.OpShr:
		if signed {
			v = uint64(int64(signExtend(l, t.Width)) >> (r & 63))
		} else {
			v = l >> (r & 63)
		}
	case ast.OpShrTriple:
		v = l >> (r & 63) // the zero-extended pop already dropped the sign
	case ast.OpBitAnd:
		v = l & r
	case ast.OpBitOr:
		v = l | r
	case ast.OpBitXor:
		v = l ^ r
	default:
		panic("vm: unexpected binary operator")
	}
	m.Stack.PushScalar(size, v)
	return nil
}

func (m *Machine) evalLogical(e *sema.Expr) *Error {
	if err := m.evalExpr(e.Left); err != nil {
		return err
	}
	l := m.Stack.PopScalar(1) != 0

	switch e.BinOp {
	case ast.OpLogicalAnd:
		if !l {
			m.Stack.PushScalar(1, 0)
			return nil
		}
	case ast.OpLogicalOr:
		if l {
			m.Stack.PushScalar(1, 1)
			return nil
		}
	}

	if err := m.evalExpr(e.Right); err != nil {
		return err
	}
	r := m.Stack.PopScalar(1) != 0

	var v bool
	switch e.BinOp {
	case ast.OpLogicalAnd:
		v = l && r
	case ast.OpLogicalOr:
		v = l || r
	case ast.OpLogicalXor:
		v = l != r
	}
	if v {
		m.Stack.PushScalar(1, 1)
	} else {
		m.Stack.PushScalar(1, 0)
	}
	return nil
}

// evalConcatenate builds a new array from two array-shaped operands
// (string operands were given array-compatible component layouts by the
// analyzer).
func (m *Machine) evalConcatenate(e *sema.Expr) *Error {
	if err := m.evalExpr(e.Left); err != nil {
		return err
	}
	if err := m.evalExpr(e.Right); err != nil {
		return err
	}
	rAddr := m.Stack.PopScalar(8)
	lAddr := m.Stack.PopScalar(8)
	if lAddr == 0 || rAddr == 0 {
		return errAt(diag.RuntimeNullReference, e.Span, "Null reference")
	}

	identity := InternIdentity(m.in, m.strs, e.Type)
	record := LookupIdentity(identity)
	comp := record.ComponentSize

	lLen, rLen := m.Heap.Length(lAddr), m.Heap.Length(rAddr)
	lComp := LookupIdentity(m.Heap.IdentityAt(lAddr)).ComponentSize
	rComp := LookupIdentity(m.Heap.IdentityAt(rAddr)).ComponentSize

	addr := m.Heap.AllocArray(identity, comp, lLen+rLen)
	for i := uint64(0); i < lLen; i++ {
		bits := readScalar(m.Heap.Data(lAddr, ElemOffset(lComp, i)), lComp)
		writeScalar(m.Heap.Data(addr, ElemOffset(comp, i)), comp, bits)
	}
	for i := uint64(0); i < rLen; i++ {
		bits := readScalar(m.Heap.Data(rAddr, ElemOffset(rComp, i)), rComp)
		writeScalar(m.Heap.Data(addr, ElemOffset(comp, lLen+i)), comp, bits)
	}
	m.Stack.PushScalar(8, addr)
	return nil
}

// evalRange materializes `a .. b` as the array of integers from a
// (inclusive) to b (exclusive); an empty range when b <= a.
func (m *Machine) evalRange(e *sema.Expr) *Error {
	if err := m.evalExpr(e.Left); err != nil {
		return err
	}
	if err := m.evalExpr(e.Right); err != nil {
		return err
	}
	t, _ := m.in.Lookup(e.Type)
	et, _ := m.in.Lookup(t.Elem)
	compSize := m.sizeOf(t.Elem)

	hi := int64(signExtend(m.Stack.PopScalar(compSize), et.Width))
	lo := int64(signExtend(m.Stack.PopScalar(compSize), et.Width))
	var length uint64
	if hi > lo {
		length = uint64(hi - lo)
	}

	identity := InternIdentity(m.in, m.strs, e.Type)
	addr := m.Heap.AllocArray(identity, compSize, length)
	for i := uint64(0); i < length; i++ {
		writeScalar(m.Heap.Data(addr, ElemOffset(compSize, i)), compSize, uint64(lo+int64(i)))
	}
	m.Stack.PushScalar(8, addr)
	return nil
}

// evalCompare walks the chain's links, folding with logical AND and
// short-circuiting on the first false link.
func (m *Machine) evalCompare(e *sema.Expr) *Error {
	for _, link := range e.Links {
		if err := m.evalExpr(link.Left); err != nil {
			return err
		}
		if err := m.evalExpr(link.Right); err != nil {
			return err
		}
		t, _ := m.in.Lookup(link.OperandType)
		size := m.sizeOf(link.OperandType)
		r := m.Stack.PopScalar(size)
		l := m.Stack.PopScalar(size)

		var holds bool
		if link.Op == ast.CmpIdentityEq || link.Op == ast.CmpIdentityNotEq {
			holds = (l == r) == (link.Op == ast.CmpIdentityEq)
		} else if types.IsReference(m.in, link.OperandType) {
			eq := m.referencesEqual(l, r)
			holds = eq == (link.Op == ast.CmpEq)
		} else {
			var cmp int
			switch t.Kind {
			case types.KindFloat:
				lf, rf := bitsToFloat(l, t.Width), bitsToFloat(r, t.Width)
				switch {
				case lf < rf:
					cmp = -1
				case lf > rf:
					cmp = 1
				}
			case types.KindSInt:
				sl, sr := int64(signExtend(l, t.Width)), int64(signExtend(r, t.Width))
				switch {
				case sl < sr:
					cmp = -1
				case sl > sr:
					cmp = 1
				}
			default:
				switch {
				case l < r:
					cmp = -1
				case l > r:
					cmp = 1
				}
			}
			switch link.Op {
			case ast.CmpEq:
				holds = cmp == 0
			case ast.CmpNotEq:
				holds = cmp != 0
			case ast.CmpLt:
				holds = cmp < 0
			case ast.CmpLtEq:
				holds = cmp <= 0
			case ast.CmpGt:
				holds = cmp > 0
			case ast.CmpGtEq:
				holds = cmp >= 0
			}
		}
		if !holds {
			m.Stack.PushScalar(1, 0)
			return nil
		}
	}
	m.Stack.PushScalar(1, 1)
	return nil
}

// referencesEqual compares two references structurally: same identity and
// byte-identical data segments (for arrays/strings, including length).
func (m *Machine) referencesEqual(l, r Addr) bool {
	if l == r {
		return true
	}
	if l == 0 || r == 0 {
		return false
	}
	li, ri := m.Heap.IdentityAt(l), m.Heap.IdentityAt(r)
	if li != ri {
		return false
	}
	record := LookupIdentity(li)
	var size uint64
	switch record.Kind {
	case IdentityArray, IdentityString:
		size = lengthSize + uint64(record.ComponentSize)*m.Heap.Length(l)
		if m.Heap.Length(l) != m.Heap.Length(r) {
			return false
		}
	default:
		size = uint64(record.DataSize)
	}
	ld := m.Heap.Data(l, 0)[:size]
	rd := m.Heap.Data(r, 0)[:size]
	for i := range ld {
		if ld[i] != rd[i] {
			return false
		}
	}
	return true
}
