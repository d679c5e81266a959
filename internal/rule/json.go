package rule

import (
	"encoding/json"
	"fmt"
	"math"

	"ruleslang/internal/diag"
	"ruleslang/internal/sema"
	"ruleslang/internal/source"
	"ruleslang/internal/types"
	"ruleslang/internal/vm"
)

// Run evaluates the rule against one JSON input value. The result is the
// JSON encoding of the rule's returned value, or JSON null when the rule
// finishes without returning ("not applicable"). Each invocation gets a
// fresh stack and heap.
func (r *Rule) Run(inputJSON []byte) ([]byte, error) {
	m := vm.NewMachine(r.Types, r.Strings)
	return r.RunOn(m, inputJSON)
}

// RunOn evaluates the rule on a caller-provided machine (tests use this
// to install hooks). The machine is reset first.
func (r *Rule) RunOn(m *vm.Machine, inputJSON []byte) ([]byte, error) {
	m.Reset()

	if r.Prog.InputType != types.NoTypeID {
		var input any
		if err := json.Unmarshal(inputJSON, &input); err != nil {
			return nil, fmt.Errorf("rule input: %w", err)
		}
		addr, err := r.buildValue(m, r.Prog.InputType, input)
		if err != nil {
			return nil, err
		}
		m.SetInput(addr, r.Prog.InputType)
	}

	flow, rerr := m.Exec(r.Prog)
	if rerr != nil {
		return nil, diag.AsSourceException(rerr.Diagnostic())
	}
	if flow.Action != vm.FlowReturn || r.Prog.ReturnType == types.NoTypeID || m.Stack.UsedSize() == 0 {
		return []byte("null"), nil
	}

	out, err := r.readValue(m, r.Prog.ReturnType)
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

// buildValue materializes a JSON value as a runtime value of type t,
// returning its bit pattern (a scalar, or a heap address for references).
func (r *Rule) buildValue(m *vm.Machine, t types.TypeID, v any) (uint64, error) {
	tt, _ := r.Types.Lookup(t)
	switch tt.Kind {
	case types.KindBool:
		b, ok := v.(bool)
		if !ok {
			return 0, fmt.Errorf("rule input: expected a boolean")
		}
		if b {
			return 1, nil
		}
		return 0, nil

	case types.KindSInt, types.KindUInt:
		n, ok := v.(float64)
		if !ok || n != math.Trunc(n) {
			return 0, fmt.Errorf("rule input: expected an integer")
		}
		return uint64(int64(n)), nil

	case types.KindFloat:
		n, ok := v.(float64)
		if !ok {
			return 0, fmt.Errorf("rule input: expected a number")
		}
		return vm.FloatBits(n, tt.Width), nil

	case types.KindStruct:
		obj, ok := v.(map[string]any)
		if !ok {
			return 0, fmt.Errorf("rule input: expected an object")
		}
		info, _ := r.Types.StructInfo(t)
		addr := m.AllocComposite(t)
		for i, n := range info.Names {
			name := r.Strings.MustLookup(n)
			member, present := obj[name]
			if !present {
				return 0, fmt.Errorf("rule input: missing member %q", name)
			}
			bits, err := r.buildValue(m, info.Types[i], member)
			if err != nil {
				return 0, err
			}
			m.WriteMember(addr, i, bits)
		}
		return addr, nil

	case types.KindTuple:
		arr, ok := v.([]any)
		info, _ := r.Types.TupleInfo(t)
		if !ok || len(arr) != len(info.Members) {
			return 0, fmt.Errorf("rule input: expected an array of %d values", len(info.Members))
		}
		addr := m.AllocComposite(t)
		for i, member := range arr {
			bits, err := r.buildValue(m, info.Members[i], member)
			if err != nil {
				return 0, err
			}
			m.WriteMember(addr, i, bits)
		}
		return addr, nil

	case types.KindArray:
		if s, isString := v.(string); isString {
			return r.buildValue(m, t, stringToAnySlice(s))
		}
		arr, ok := v.([]any)
		if !ok {
			return 0, fmt.Errorf("rule input: expected an array")
		}
		if tt.Size != types.ArrayUnsizedLength && uint32(len(arr)) != tt.Size {
			return 0, fmt.Errorf("rule input: expected exactly %d elements", tt.Size)
		}
		addr := m.AllocArrayValue(t, uint64(len(arr)))
		for i, elem := range arr {
			bits, err := r.buildValue(m, tt.Elem, elem)
			if err != nil {
				return 0, err
			}
			m.WriteElement(addr, uint64(i), bits)
		}
		return addr, nil

	default:
		return 0, fmt.Errorf("rule input: type %s cannot be built from JSON", tt.Kind)
	}
}

func stringToAnySlice(s string) []any {
	out := make([]any, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = float64(s[i])
	}
	return out
}

// readValue pops the evaluated result off the stack and converts it to a
// JSON-marshalable Go value by its static type.
func (r *Rule) readValue(m *vm.Machine, t types.TypeID) (any, error) {
	size := types.RuntimeSize(r.Types, t)
	bits := m.Stack.PopScalar(size)
	return r.decodeValue(m, t, bits)
}

func (r *Rule) decodeValue(m *vm.Machine, t types.TypeID, bits uint64) (any, error) {
	tt, _ := r.Types.Lookup(t)
	switch tt.Kind {
	case types.KindBool, types.KindBoolLit:
		return bits != 0, nil
	case types.KindSInt:
		return int64(vm.SignExtend(bits, tt.Width)), nil
	case types.KindUInt:
		return bits, nil
	case types.KindFloat:
		return vm.FloatFromBits(bits, tt.Width), nil
	case types.KindSIntLit:
		return tt.SIntValue(), nil
	case types.KindUIntLit:
		return tt.UIntValue(), nil
	case types.KindFloatLit:
		return tt.FloatValue(), nil
	case types.KindStringLit:
		info, _ := r.Types.StringLitInfo(t)
		return info.Value, nil
	case types.KindNullLit:
		return nil, nil

	case types.KindStruct:
		if bits == 0 {
			return nil, nil
		}
		info, _ := r.Types.StructInfo(t)
		out := make(map[string]any, len(info.Names))
		for i, n := range info.Names {
			member, err := r.decodeValue(m, info.Types[i], m.ReadMember(bits, i))
			if err != nil {
				return nil, err
			}
			out[r.Strings.MustLookup(n)] = member
		}
		return out, nil

	case types.KindTuple:
		if bits == 0 {
			return nil, nil
		}
		info, _ := r.Types.TupleInfo(t)
		out := make([]any, len(info.Members))
		for i := range info.Members {
			member, err := r.decodeValue(m, info.Members[i], m.ReadMember(bits, i))
			if err != nil {
				return nil, err
			}
			out[i] = member
		}
		return out, nil

	case types.KindArray:
		if bits == 0 {
			return nil, nil
		}
		length := m.Heap.Length(bits)
		out := make([]any, length)
		for i := uint64(0); i < length; i++ {
			elem, err := r.decodeValue(m, tt.Elem, m.ReadElement(bits, i))
			if err != nil {
				return nil, err
			}
			out[i] = elem
		}
		return out, nil

	default:
		return nil, fmt.Errorf("rule output: type %s cannot be serialized", tt.Kind)
	}
}

// FileSet returns the set the rule's source was loaded into, for error
// rendering.
func (r *Rule) FileSet() *source.FileSet { return r.fs }

// TopLevelKinds is a tiny introspection helper for tests.
func (r *Rule) TopLevelKinds() []sema.StmtKind {
	kinds := make([]sema.StmtKind, len(r.Prog.Stmts))
	for i, s := range r.Prog.Stmts {
		kinds[i] = s.Kind
	}
	return kinds
}
