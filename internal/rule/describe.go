package rule

import (
	"fmt"
	"strings"

	"ruleslang/internal/source"
	"ruleslang/internal/types"
)

// DescribeType renders a resolved type as a stable textual descriptor,
// the recursive form used for the rule-input descriptor and the shell's
// :type line: atomics by name, arrays as [T] or [T; N], tuples as
// (A, B), structures as {name: T, ...}.
func DescribeType(in *types.Interner, strs *source.Interner, id types.TypeID) string {
	t, ok := in.Lookup(id)
	if !ok {
		return "<invalid>"
	}
	switch t.Kind {
	case types.KindBool:
		return "bool"
	case types.KindSInt:
		return fmt.Sprintf("sint%d", t.Width)
	case types.KindUInt:
		return fmt.Sprintf("uint%d", t.Width)
	case types.KindFloat:
		return fmt.Sprintf("fp%d", t.Width)
	case types.KindAny:
		return "any"
	case types.KindNullLit:
		return "null"
	case types.KindBoolLit:
		return fmt.Sprintf("bool(%t)", t.BoolValue())
	case types.KindSIntLit:
		return fmt.Sprintf("sint(%d)", t.SIntValue())
	case types.KindUIntLit:
		return fmt.Sprintf("uint(%d)", t.UIntValue())
	case types.KindFloatLit:
		return fmt.Sprintf("fp(%g)", t.FloatValue())
	case types.KindStringLit:
		info, _ := in.StringLitInfo(id)
		return fmt.Sprintf("string(%s, %q)", info.Encoding, info.Value)
	case types.KindArray:
		if t.Size == types.ArrayUnsizedLength {
			return "[" + DescribeType(in, strs, t.Elem) + "]"
		}
		return fmt.Sprintf("[%s; %d]", DescribeType(in, strs, t.Elem), t.Size)
	case types.KindTuple:
		info, _ := in.TupleInfo(id)
		parts := make([]string, 0, len(info.Members))
		for _, m := range info.Members {
			parts = append(parts, DescribeType(in, strs, m))
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case types.KindStruct:
		info, _ := in.StructInfo(id)
		parts := make([]string, 0, len(info.Names))
		for i, n := range info.Names {
			parts = append(parts, strs.MustLookup(n)+": "+DescribeType(in, strs, info.Types[i]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case types.KindFunc:
		info, _ := in.FuncInfo(id)
		parts := make([]string, 0, len(info.Params))
		for _, p := range info.Params {
			parts = append(parts, DescribeType(in, strs, p))
		}
		ret := ""
		if info.Return != types.NoTypeID {
			ret = " -> " + DescribeType(in, strs, info.Return)
		}
		return "(" + strings.Join(parts, ", ") + ")" + ret
	default:
		return "<unknown>"
	}
}
