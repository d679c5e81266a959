package sema

import (
	"ruleslang/internal/ast"
	"ruleslang/internal/diag"
	"ruleslang/internal/types"
)

// builtinType maps the built-in atomic type names. These are not reserved
// words; a user definition shadows them like any other name.
func (a *Analyzer) builtinType(name string) (types.TypeID, bool) {
	b := a.in.Builtins()
	switch name {
	case "bool":
		return b.Bool, true
	case "sint8":
		return b.SInt8, true
	case "sint16":
		return b.SInt16, true
	case "sint32":
		return b.SInt32, true
	case "sint64":
		return b.SInt64, true
	case "uint8":
		return b.UInt8, true
	case "uint16":
		return b.UInt16, true
	case "uint32":
		return b.UInt32, true
	case "uint64":
		return b.UInt64, true
	case "fp32":
		return b.FP32, true
	case "fp64":
		return b.FP64, true
	case "any":
		return b.Any, true
	default:
		return types.NoTypeID, false
	}
}

// resolveTypeSyn lowers a syntactic type reference to an interned TypeID.
func (a *Analyzer) resolveTypeSyn(id ast.TypeID) types.TypeID {
	ts := a.tree.Types.Get(id)
	if ts == nil {
		return types.NoTypeID
	}
	switch ts.Kind {
	case ast.TypeSynName:
		d, _ := a.tree.Types.Name(id)
		name := a.name(d.Name)
		if t, ok := a.ctx.LookupType(name); ok {
			return t
		}
		if t, ok := a.builtinType(name); ok {
			return t
		}
		a.err(diag.SynExpectedType, ts.Span, "unknown type \""+name+"\"")
		return types.NoTypeID

	case ast.TypeSynArray:
		d, _ := a.tree.Types.Array(id)
		comp := a.resolveTypeSyn(d.Component)
		if comp == types.NoTypeID {
			return types.NoTypeID
		}
		size := types.ArrayUnsizedLength
		if d.HasSize {
			if d.Size < 0 {
				a.err(diag.SynExpectedType, ts.Span, "an array length cannot be negative")
				return types.NoTypeID
			}
			size = uint32(d.Size)
		}
		return a.in.Intern(types.Array(comp, size))

	case ast.TypeSynTuple:
		d, _ := a.tree.Types.Tuple(id)
		members := make([]types.TypeID, 0, len(d.Members))
		for _, m := range d.Members {
			mt := a.resolveTypeSyn(m)
			if mt == types.NoTypeID {
				return types.NoTypeID
			}
			members = append(members, mt)
		}
		return a.in.RegisterTuple(members)

	case ast.TypeSynStruct:
		d, _ := a.tree.Types.Struct(id)
		seen := make(map[string]bool, len(d.Names))
		memberTypes := make([]types.TypeID, 0, len(d.Types))
		for i, n := range d.Names {
			name := a.name(n)
			if seen[name] {
				a.err(diag.SemaRedeclared, ts.Span, "duplicate member \""+name+"\"")
				return types.NoTypeID
			}
			seen[name] = true
			mt := a.resolveTypeSyn(d.Types[i])
			if mt == types.NoTypeID {
				return types.NoTypeID
			}
			memberTypes = append(memberTypes, mt)
		}
		return a.in.RegisterStruct(d.Names, memberTypes)

	default:
		return types.NoTypeID
	}
}

// collectTypeRefs gathers every type name referenced by a syntactic type,
// feeding the cyclic-definition check's reference graph.
func (a *Analyzer) collectTypeRefs(id ast.TypeID, acc []string) []string {
	ts := a.tree.Types.Get(id)
	if ts == nil {
		return acc
	}
	switch ts.Kind {
	case ast.TypeSynName:
		d, _ := a.tree.Types.Name(id)
		return append(acc, a.name(d.Name))
	case ast.TypeSynArray:
		d, _ := a.tree.Types.Array(id)
		return a.collectTypeRefs(d.Component, acc)
	case ast.TypeSynTuple:
		d, _ := a.tree.Types.Tuple(id)
		for _, m := range d.Members {
			acc = a.collectTypeRefs(m, acc)
		}
		return acc
	case ast.TypeSynStruct:
		d, _ := a.tree.Types.Struct(id)
		for _, m := range d.Types {
			acc = a.collectTypeRefs(m, acc)
		}
		return acc
	default:
		return acc
	}
}
