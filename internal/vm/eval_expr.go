package vm

import (
	"math"

	"ruleslang/internal/diag"
	"ruleslang/internal/sema"
	"ruleslang/internal/types"
)

func (m *Machine) evalExpr(e *sema.Expr) *Error {
	switch e.Kind {
	case sema.ELiteral:
		return m.evalLiteral(e)

	case sema.EVarRef:
		frame := m.frameFor(e.Var)
		m.Stack.PushBytes(frame[e.Var.Slot : e.Var.Slot+e.Var.Size])
		return nil

	case sema.EContextField:
		if m.input == 0 {
			return errAt(diag.RuntimeNullReference, e.Span, "Null reference")
		}
		identity := LookupIdentity(m.Heap.IdentityAt(m.input))
		idx, ok := identity.MemberByName(e.FieldName)
		if !ok {
			return errAt(diag.RuntimeNullReference, e.Span, "the input has no member \""+e.FieldName+"\"")
		}
		off, size := identity.MemberOffsets[idx], identity.MemberSizes[idx]
		m.Stack.PushBytes(m.Heap.Data(m.input, off)[:size])
		return nil

	case sema.EFieldAccess:
		addr, off, size, err := m.memberLocation(e)
		if err != nil {
			return err
		}
		m.Stack.PushBytes(m.Heap.Data(addr, off)[:size])
		return nil

	case sema.EIndexAccess:
		addr, off, compSize, err := m.elementLocation(e)
		if err != nil {
			return err
		}
		m.Stack.PushBytes(m.Heap.Data(addr, off)[:compSize])
		return nil

	case sema.ECall:
		return m.evalCall(e)

	case sema.ENeg:
		if err := m.evalExpr(e.Operand); err != nil {
			return err
		}
		t, _ := m.in.Lookup(e.Type)
		size := m.sizeOf(e.Type)
		bits := m.Stack.PopScalar(size)
		if t.Kind == types.KindFloat {
			m.Stack.PushScalar(size, floatToBits(-bitsToFloat(bits, t.Width), t.Width))
		} else {
			m.Stack.PushScalar(size, uint64(-int64(signExtend(bits, t.Width))))
		}
		return nil

	case sema.ELogicalNot:
		if err := m.evalExpr(e.Operand); err != nil {
			return err
		}
		v := m.Stack.PopScalar(1)
		if v == 0 {
			m.Stack.PushScalar(1, 1)
		} else {
			m.Stack.PushScalar(1, 0)
		}
		return nil

	case sema.EBitwiseNot:
		if err := m.evalExpr(e.Operand); err != nil {
			return err
		}
		size := m.sizeOf(e.Type)
		m.Stack.PushScalar(size, ^m.Stack.PopScalar(size))
		return nil

	case sema.EExponent:
		return m.evalExponent(e)

	case sema.EBinary:
		return m.evalBinary(e)

	case sema.ECompare:
		return m.evalCompare(e)

	case sema.EConditional:
		if err := m.evalExpr(e.Cond); err != nil {
			return err
		}
		if m.Stack.PopScalar(1) != 0 {
			return m.evalExpr(e.Then)
		}
		return m.evalExpr(e.Else)

	case sema.EConvert:
		return m.evalConvert(e)

	case sema.ETupleLit, sema.EStructLit:
		return m.evalCompositeLit(e)

	case sema.EArrayLit:
		return m.evalArrayLit(e)

	case sema.ENotImplemented:
		return errAt(diag.RuntimeNotImplemented, e.Span, "static field access over a type name is not implemented")

	default:
		panic("vm: unknown expression kind")
	}
}

// evalLiteral pushes a literal's runtime value. Numeric and boolean
// literals go straight to the stack; string literals allocate a STRING
// object and push its address.
func (m *Machine) evalLiteral(e *sema.Expr) *Error {
	t, _ := m.in.Lookup(e.Type)
	switch t.Kind {
	case types.KindStringLit:
		info, _ := m.in.StringLitInfo(e.Type)
		m.Stack.PushScalar(8, m.allocStringValue(e.Type, info.Encoding, e.LitStr))
		return nil
	case types.KindNullLit:
		m.Stack.PushScalar(8, 0)
		return nil
	case types.KindFloat:
		m.Stack.PushScalar(m.sizeOf(e.Type), floatToBits(math.Float64frombits(e.LitBits), t.Width))
		return nil
	default:
		lifted := types.Lift(m.in, e.Type)
		lt, _ := m.in.Lookup(lifted)
		if lt.Kind == types.KindFloat {
			m.Stack.PushScalar(m.sizeOf(lifted), floatToBits(math.Float64frombits(e.LitBits), lt.Width))
			return nil
		}
		m.Stack.PushScalar(m.sizeOf(lifted), e.LitBits)
		return nil
	}
}

func (m *Machine) allocStringValue(t types.TypeID, enc types.StringEncoding, value string) Addr {
	identity := InternIdentity(m.in, m.strs, t)
	units := encodeUnits(enc, value)
	unitSize := uint32(1)
	switch enc {
	case types.UTF16:
		unitSize = 2
	case types.UTF32:
		unitSize = 4
	}
	return m.Heap.AllocString(identity, unitSize, units)
}

func encodeUnits(enc types.StringEncoding, value string) []uint64 {
	switch enc {
	case types.UTF16:
		var units []uint64
		for _, r := range value {
			if r > 0xFFFF {
				r -= 0x10000
				units = append(units, uint64(0xD800+(r>>10)), uint64(0xDC00+(r&0x3FF)))
			} else {
				units = append(units, uint64(r))
			}
		}
		return units
	case types.UTF32:
		var units []uint64
		for _, r := range value {
			units = append(units, uint64(r))
		}
		return units
	default:
		units := make([]uint64, len(value))
		for i := 0; i < len(value); i++ {
			units[i] = uint64(value[i])
		}
		return units
	}
}

// memberLocation evaluates a field access's object and resolves the
// member's heap location. Struct members resolve by name through the
// object's runtime identity (widening may have reordered the layout);
// tuple members resolve by position.
func (m *Machine) memberLocation(e *sema.Expr) (Addr, uint32, uint32, *Error) {
	if err := m.evalExpr(e.Operand); err != nil {
		return 0, 0, 0, err
	}
	addr := m.Stack.PopScalar(8)
	if addr == 0 {
		return 0, 0, 0, errAt(diag.RuntimeNullReference, e.Span, "Null reference")
	}
	identity := LookupIdentity(m.Heap.IdentityAt(addr))
	idx := e.FieldIndex
	if e.ByName {
		i, ok := identity.MemberByName(e.FieldName)
		if !ok {
			return 0, 0, 0, errAt(diag.RuntimeNullReference, e.Span, "no member \""+e.FieldName+"\"")
		}
		idx = i
	}
	return addr, identity.MemberOffsets[idx], identity.MemberSizes[idx], nil
}

// elementLocation evaluates an index access's object and index and
// resolves the element's heap location, bounds-checked against the
// object's length field.
func (m *Machine) elementLocation(e *sema.Expr) (Addr, uint32, uint32, *Error) {
	if err := m.evalExpr(e.Operand); err != nil {
		return 0, 0, 0, err
	}
	addr := m.Stack.PopScalar(8)
	if addr == 0 {
		return 0, 0, 0, errAt(diag.RuntimeNullReference, e.Span, "Null reference")
	}
	if err := m.evalExpr(e.Index); err != nil {
		return 0, 0, 0, err
	}
	idx := int64(m.Stack.PopScalar(8))

	identity := LookupIdentity(m.Heap.IdentityAt(addr))
	length := m.Heap.Length(addr)
	if idx < 0 || uint64(idx) >= length {
		return 0, 0, 0, errAt(diag.RuntimeIndexOOB, e.Span, "index out of bounds")
	}
	return addr, ElemOffset(identity.ComponentSize, uint64(idx)), identity.ComponentSize, nil
}

// evalCall evaluates arguments in reverse declaration order (the first
// argument ends up on top of the stack), sets up a new frame, pops the
// arguments into the parameter slots, and executes the body. The return
// value, if any, is left on top of the stack by the body's return.
func (m *Machine) evalCall(e *sema.Expr) *Error {
	fn := e.Callee
	for i := len(e.Args) - 1; i >= 0; i-- {
		if err := m.evalExpr(e.Args[i]); err != nil {
			return err
		}
	}

	frame := make([]byte, fn.FrameSize)
	for _, p := range fn.Params {
		m.Stack.PopBytes(p.Size, frame[p.Slot:p.Slot+p.Size])
	}
	m.frames = append(m.frames, frame)
	flow, err := m.execStmts(fn.Body)
	m.frames = m.frames[:len(m.frames)-1]
	if err != nil {
		return err
	}
	if fn.Return != types.NoTypeID && flow.Action != FlowReturn {
		return errAt(diag.RuntimeNotImplemented, e.Span, "function ended without returning a value")
	}
	return nil
}

func (m *Machine) evalExponent(e *sema.Expr) *Error {
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
		v := math.Pow(bitsToFloat(l, t.Width), bitsToFloat(r, t.Width))
		m.Stack.PushScalar(size, floatToBits(v, t.Width))
		return nil
	}
	base := int64(signExtend(l, t.Width))
	exp := int64(signExtend(r, t.Width))
	result := int64(1)
	for i := int64(0); i < exp; i++ {
		result *= base
	}
	m.Stack.PushScalar(size, uint64(result))
	return nil
}

// evalCompositeLit allocates a tuple/struct object, then evaluates each
// provided member in index order and pops it into its member offset;
// members without a value keep their zeroed bytes.
func (m *Machine) evalCompositeLit(e *sema.Expr) *Error {
	identity := InternIdentity(m.in, m.strs, e.Type)
	record := LookupIdentity(identity)
	addr := m.Heap.Alloc(identity, record.DataSize)
	for i, value := range e.Elements {
		if value == nil {
			continue
		}
		if err := m.evalExpr(value); err != nil {
			return err
		}
		size := record.MemberSizes[i]
		start := m.Stack.pop(size)
		copy(m.Heap.Data(addr, record.MemberOffsets[i])[:size], m.Stack.buf[start:start+size])
	}
	m.Stack.PushScalar(8, addr)
	return nil
}

// evalArrayLit allocates the array, fills explicitly-provided indices,
// and fills every remaining index from the "other" value, which is
// evaluated exactly once and its on-stack bytes cached for the copies.
// Indices with neither stay zero-filled.
func (m *Machine) evalArrayLit(e *sema.Expr) *Error {
	identity := InternIdentity(m.in, m.strs, e.Type)
	record := LookupIdentity(identity)
	length := uint64(len(e.Elements))
	addr := m.Heap.AllocArray(identity, record.ComponentSize, length)
	compSize := record.ComponentSize

	var otherValue []byte
	for i, value := range e.Elements {
		off := ElemOffset(compSize, uint64(i))
		switch {
		case value != nil:
			if err := m.evalExpr(value); err != nil {
				return err
			}
			start := m.Stack.pop(compSize)
			copy(m.Heap.Data(addr, off)[:compSize], m.Stack.buf[start:start+compSize])
		case e.Other != nil:
			if otherValue == nil {
				if err := m.evalExpr(e.Other); err != nil {
					return err
				}
				if m.Hooks.OnOtherEvaluated != nil {
					m.Hooks.OnOtherEvaluated()
				}
				otherValue = make([]byte, compSize)
				m.Stack.PopBytes(compSize, otherValue)
			}
			copy(m.Heap.Data(addr, off)[:compSize], otherValue)
		}
	}
	m.Stack.PushScalar(8, addr)
	return nil
}
