package sema

import (
	"fmt"

	"ruleslang/internal/ast"
	"ruleslang/internal/diag"
	"ruleslang/internal/source"
	"ruleslang/internal/types"
)

// analyzeCompositeLiteral decomposes a `{ [label:] value, ... }` literal
// against a target type into a tuple, struct, or array literal node whose
// element order matches the target layout. With no target, the shape is
// inferred from the labels: all-unlabeled is a tuple, name labels mean a
// struct, index/"other" labels mean an array.
func (a *Analyzer) analyzeCompositeLiteral(id ast.ExprID, sp source.Span, want types.TypeID) *Expr {
	d, _ := a.tree.Exprs.CompositeLiteral(id)
	if d == nil {
		return nil
	}

	if want != types.NoTypeID {
		wt, _ := a.in.Lookup(want)
		switch wt.Kind {
		case types.KindTuple:
			return a.compositeAsTuple(d, sp, want)
		case types.KindStruct:
			return a.compositeAsStruct(d, sp, want)
		case types.KindArray:
			return a.compositeAsArray(d, sp, want)
		}
	}
	return a.compositeInferred(d, sp)
}

func (a *Analyzer) compositeAsTuple(d *ast.ExprCompositeLiteralData, sp source.Span, target types.TypeID) *Expr {
	info, _ := a.in.TupleInfo(target)
	if info == nil {
		return nil
	}
	elements := make([]*Expr, len(info.Members))
	cursor := 0
	for _, el := range d.Elements {
		pos := cursor
		switch el.Label.Kind {
		case ast.LabelNone:
			cursor++
		case ast.LabelIndex:
			pos = int(el.Label.Index)
			cursor = pos + 1
		default:
			a.err(diag.SemaTypeMismatch, sp, "a tuple literal cannot use name or catch-all labels")
			return nil
		}
		if pos < 0 || pos >= len(info.Members) {
			a.err(diag.SemaTypeMismatch, sp, fmt.Sprintf("tuple position %d is out of range", pos))
			return nil
		}
		value := a.analyzeExpr(el.Value, info.Members[pos])
		if value == nil {
			return nil
		}
		elements[pos] = a.convertTo(value, info.Members[pos], sp)
	}
	// Positions without a value stay nil and are zero-filled at runtime
	// (composite literals default their missing members).
	return &Expr{Kind: ETupleLit, Span: sp, Type: target, Elements: elements}
}

func (a *Analyzer) compositeAsStruct(d *ast.ExprCompositeLiteralData, sp source.Span, target types.TypeID) *Expr {
	info, _ := a.in.StructInfo(target)
	if info == nil {
		return nil
	}
	elements := make([]*Expr, len(info.Names))
	cursor := 0
	for _, el := range d.Elements {
		pos := -1
		switch el.Label.Kind {
		case ast.LabelNone:
			pos = cursor
			cursor++
		case ast.LabelName:
			name := a.name(el.Label.Name)
			for i, n := range info.Names {
				if a.tree.Strings.MustLookup(n) == name {
					pos = i
					break
				}
			}
			if pos < 0 {
				a.err(diag.SemaUnknownMember, sp, "the target structure has no member \""+name+"\"")
				return nil
			}
			cursor = pos + 1
		default:
			a.err(diag.SemaTypeMismatch, sp, "a structure literal cannot use index or catch-all labels")
			return nil
		}
		if pos >= len(info.Names) {
			a.err(diag.SemaTypeMismatch, sp, "too many values for the target structure")
			return nil
		}
		value := a.analyzeExpr(el.Value, info.Types[pos])
		if value == nil {
			return nil
		}
		elements[pos] = a.convertTo(value, info.Types[pos], sp)
	}
	return &Expr{Kind: EStructLit, Span: sp, Type: target, Elements: elements}
}

func (a *Analyzer) compositeAsArray(d *ast.ExprCompositeLiteralData, sp source.Span, target types.TypeID) *Expr {
	tt, _ := a.in.Lookup(target)
	comp := tt.Elem

	var other *Expr
	provided := make(map[int]*Expr)
	cursor := 0
	maxPos := -1
	for _, el := range d.Elements {
		switch el.Label.Kind {
		case ast.LabelOther:
			if other != nil {
				a.err(diag.SemaTypeMismatch, sp, "only one catch-all value is allowed")
				return nil
			}
			value := a.analyzeExpr(el.Value, comp)
			if value == nil {
				return nil
			}
			other = a.convertTo(value, comp, sp)
			continue
		case ast.LabelIndex:
			cursor = int(el.Label.Index)
		case ast.LabelName:
			a.err(diag.SemaTypeMismatch, sp, "an array literal cannot use name labels")
			return nil
		}
		value := a.analyzeExpr(el.Value, comp)
		if value == nil {
			return nil
		}
		if _, dup := provided[cursor]; dup {
			a.err(diag.SemaTypeMismatch, sp, fmt.Sprintf("index %d is provided twice", cursor))
			return nil
		}
		provided[cursor] = a.convertTo(value, comp, sp)
		if cursor > maxPos {
			maxPos = cursor
		}
		cursor++
	}

	size := tt.Size
	if size == types.ArrayUnsizedLength {
		size = uint32(maxPos + 1)
		target = a.in.Intern(types.Array(comp, size))
	} else if maxPos >= int(size) {
		a.err(diag.SemaTypeMismatch, sp, fmt.Sprintf("index %d exceeds the array length %d", maxPos, size))
		return nil
	}

	elements := make([]*Expr, size)
	for pos, value := range provided {
		elements[pos] = value
	}
	return &Expr{Kind: EArrayLit, Span: sp, Type: target, Elements: elements, Other: other}
}

// compositeInferred derives the literal's own type from its labels.
func (a *Analyzer) compositeInferred(d *ast.ExprCompositeLiteralData, sp source.Span) *Expr {
	shape := ast.LabelNone
	for _, el := range d.Elements {
		if el.Label.Kind != ast.LabelNone {
			shape = el.Label.Kind
			break
		}
	}

	switch shape {
	case ast.LabelName:
		var names []source.StringID
		var memberTypes []types.TypeID
		var values []*Expr
		for _, el := range d.Elements {
			if el.Label.Kind != ast.LabelName {
				a.err(diag.SemaTypeMismatch, sp, "every member of a structure literal needs a name label")
				return nil
			}
			value := a.analyzeExpr(el.Value, types.NoTypeID)
			if value == nil {
				return nil
			}
			name := el.Label.Name
			for _, seen := range names {
				if seen == name {
					a.err(diag.SemaRedeclared, sp, "member \""+a.name(name)+"\" is provided twice")
					return nil
				}
			}
			names = append(names, name)
			memberTypes = append(memberTypes, value.Type)
			values = append(values, value)
		}
		return &Expr{Kind: EStructLit, Span: sp, Type: a.in.RegisterStruct(names, memberTypes), Elements: values}

	case ast.LabelIndex, ast.LabelOther:
		// Infer the component as the join of every value, then re-analyze
		// against the concrete array type so positions and the catch-all
		// land in layout order.
		comp := types.NoTypeID
		for _, el := range d.Elements {
			value := a.analyzeExpr(el.Value, types.NoTypeID)
			if value == nil {
				return nil
			}
			vt := types.Lift(a.in, value.Type)
			if comp == types.NoTypeID {
				comp = vt
				continue
			}
			j, ok := types.Join(a.in, comp, vt)
			if !ok {
				a.err(diag.SemaNoCommonType, sp, "array values have no common type")
				return nil
			}
			comp = j
		}
		if comp == types.NoTypeID {
			a.err(diag.SemaTypeMismatch, sp, "an empty array literal needs a target type")
			return nil
		}
		return a.compositeAsArray(d, sp, a.in.Intern(types.Array(comp, types.ArrayUnsizedLength)))

	default:
		var memberTypes []types.TypeID
		var values []*Expr
		for _, el := range d.Elements {
			value := a.analyzeExpr(el.Value, types.NoTypeID)
			if value == nil {
				return nil
			}
			memberTypes = append(memberTypes, value.Type)
			values = append(values, value)
		}
		return &Expr{Kind: ETupleLit, Span: sp, Type: a.in.RegisterTuple(memberTypes), Elements: values}
	}
}
