package shell

import (
	"fmt"
	"strings"

	"ruleslang/internal/types"
	"ruleslang/internal/vm"
)

// formatTop pops the expression-mode result off the stack and renders it
// for the `value: ...` line.
func (s *Session) formatTop(t types.TypeID) string {
	in := s.analyzer.Types()
	size := types.RuntimeSize(in, t)
	if size == 0 || s.machine.Stack.UsedSize() == 0 {
		return "<void>"
	}
	bits := s.machine.Stack.PopScalar(size)
	return s.formatBits(t, bits)
}

func (s *Session) formatBits(t types.TypeID, bits uint64) string {
	in := s.analyzer.Types()
	tt, _ := in.Lookup(t)
	switch tt.Kind {
	case types.KindBool, types.KindBoolLit:
		if bits != 0 {
			return "true"
		}
		return "false"
	case types.KindSInt:
		return fmt.Sprintf("%d", int64(vm.SignExtend(bits, tt.Width)))
	case types.KindUInt:
		return fmt.Sprintf("%d", bits)
	case types.KindFloat:
		return fmt.Sprintf("%g", vm.FloatFromBits(bits, tt.Width))
	case types.KindSIntLit:
		return fmt.Sprintf("%d", tt.SIntValue())
	case types.KindUIntLit:
		return fmt.Sprintf("%d", tt.UIntValue())
	case types.KindFloatLit:
		return fmt.Sprintf("%g", tt.FloatValue())
	case types.KindStringLit:
		info, _ := in.StringLitInfo(t)
		return fmt.Sprintf("%q", info.Value)
	case types.KindNullLit:
		return "null"

	case types.KindArray:
		if bits == 0 {
			return "null"
		}
		length := s.machine.Heap.Length(bits)
		parts := make([]string, 0, length)
		for i := uint64(0); i < length; i++ {
			parts = append(parts, s.formatBits(tt.Elem, s.machine.ReadElement(bits, i)))
		}
		return "{" + strings.Join(parts, ", ") + "}"

	case types.KindTuple:
		if bits == 0 {
			return "null"
		}
		info, _ := in.TupleInfo(t)
		parts := make([]string, 0, len(info.Members))
		for i, m := range info.Members {
			parts = append(parts, s.formatBits(m, s.machine.ReadMember(bits, i)))
		}
		return "{" + strings.Join(parts, ", ") + "}"

	case types.KindStruct:
		if bits == 0 {
			return "null"
		}
		info, _ := in.StructInfo(t)
		parts := make([]string, 0, len(info.Names))
		for i, n := range info.Names {
			parts = append(parts, s.strings.MustLookup(n)+": "+s.formatBits(info.Types[i], s.machine.ReadMember(bits, i)))
		}
		return "{" + strings.Join(parts, ", ") + "}"

	default:
		return fmt.Sprintf("<%s>", tt.Kind)
	}
}
