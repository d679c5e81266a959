package sema

import (
	"math"

	"ruleslang/internal/ast"
	"ruleslang/internal/diag"
	"ruleslang/internal/source"
	"ruleslang/internal/types"
)

// analyzeExpr types one expression. want is the target type the context
// expects (a declared variable type, a parameter type, an initializer's
// named type); NoTypeID when the context imposes none. It is a hint for
// composite literals and literal narrowing, never a check — callers that
// require convertibility call convertTo afterwards.
func (a *Analyzer) analyzeExpr(id ast.ExprID, want types.TypeID) *Expr {
	expr := a.tree.Exprs.Get(id)
	if expr == nil {
		return nil
	}
	sp := expr.Span
	switch expr.Kind {
	case ast.ExprName:
		return a.analyzeName(id, sp)
	case ast.ExprContextField:
		return a.analyzeContextField(id, sp)
	case ast.ExprFieldAccess:
		return a.analyzeFieldAccess(id, sp)
	case ast.ExprIndexAccess:
		return a.analyzeIndexAccess(id, sp)
	case ast.ExprCall:
		return a.analyzeCall(id, sp)
	case ast.ExprSign:
		return a.analyzeSign(id, sp)
	case ast.ExprLogicalNot:
		d, _ := a.tree.Exprs.LogicalNot(id)
		operand := a.analyzeExpr(d.Operand, a.in.Builtins().Bool)
		if operand == nil {
			return nil
		}
		operand = a.requireBool(operand, "operand of '!'")
		return &Expr{Kind: ELogicalNot, Span: sp, Type: a.in.Builtins().Bool, Operand: operand}
	case ast.ExprBitwiseNot:
		d, _ := a.tree.Exprs.BitwiseNot(id)
		operand := a.analyzeExpr(d.Operand, types.NoTypeID)
		if operand == nil {
			return nil
		}
		ot, _ := a.in.Lookup(operand.Type)
		if !ot.IsIntegral() {
			a.err(diag.SemaTypeMismatch, sp, "operand of '~' must be integral")
			return nil
		}
		resType := types.Lift(a.in, operand.Type)
		operand = a.convertTo(operand, resType, sp)
		return &Expr{Kind: EBitwiseNot, Span: sp, Type: resType, Operand: operand}
	case ast.ExprExponent:
		return a.analyzeExponent(id, sp)
	case ast.ExprInfix:
		return a.analyzeInfix(id, sp)
	case ast.ExprBinary:
		return a.analyzeBinary(id, sp)
	case ast.ExprCompare:
		return a.analyzeCompare(id, sp)
	case ast.ExprConditional:
		return a.analyzeConditionalExpr(id, sp, want)
	case ast.ExprCompositeLiteral:
		return a.analyzeCompositeLiteral(id, sp, want)
	case ast.ExprInitializer:
		d, _ := a.tree.Exprs.Initializer(id)
		named := a.resolveTypeSyn(d.NamedType)
		if named == types.NoTypeID {
			return nil
		}
		return a.analyzeCompositeLiteral(d.CompLit, sp, named)
	case ast.ExprBoolLit:
		d, _ := a.tree.Exprs.BoolLit(id)
		var bits uint64
		if d.Value {
			bits = 1
		}
		return &Expr{Kind: ELiteral, Span: sp, Type: a.in.Intern(types.BoolLit(d.Value)), LitBits: bits}
	case ast.ExprIntLit:
		d, _ := a.tree.Exprs.IntLit(id)
		return a.analyzeIntLit(d.Text, sp)
	case ast.ExprFloatLit:
		d, _ := a.tree.Exprs.FloatLit(id)
		return a.analyzeFloatLit(d.Text, sp)
	case ast.ExprStringLit:
		d, _ := a.tree.Exprs.StringLit(id)
		value, ok := decodeStringLit(d.Text)
		if !ok {
			a.err(diag.SemaTypeMismatch, sp, "malformed string literal")
			return nil
		}
		return &Expr{Kind: ELiteral, Span: sp, Type: a.in.RegisterStringLit(types.UTF8, value), LitStr: value}
	default:
		return nil
	}
}

func (a *Analyzer) analyzeName(id ast.ExprID, sp source.Span) *Expr {
	d, _ := a.tree.Exprs.Name(id)
	name := a.name(d.Name)
	if v, ok := a.ctx.LookupVar(name); ok {
		if v.Owner != a.curFn {
			a.err(diag.SemaUnknownName, sp, "\""+name+"\" belongs to an enclosing function and cannot be captured")
			return nil
		}
		return &Expr{Kind: EVarRef, Span: sp, Type: v.Type, Var: v}
	}
	if _, ok := a.ctx.LookupType(name); ok {
		// A bare type name is only legal as the object of a static field
		// access, which the evaluator deliberately rejects; everything
		// downstream of it inherits the marker.
		return &Expr{Kind: ENotImplemented, Span: sp, Type: a.in.Builtins().Any, FieldName: name}
	}
	a.err(diag.SemaUnknownName, sp, "unknown name \""+name+"\"")
	return nil
}

func (a *Analyzer) analyzeContextField(id ast.ExprID, sp source.Span) *Expr {
	d, _ := a.tree.Exprs.ContextField(id)
	name := a.name(d.Name)
	if a.inputType == types.NoTypeID {
		a.err(diag.SemaUnknownName, sp, "context field \"."+name+"\" used before an Input type was defined")
		return nil
	}
	info, ok := a.in.StructInfo(a.inputType)
	if !ok {
		a.err(diag.SemaTypeMismatch, sp, "the Input type is not a structure")
		return nil
	}
	for i, n := range info.Names {
		if a.tree.Strings.MustLookup(n) == name {
			return &Expr{Kind: EContextField, Span: sp, Type: info.Types[i], FieldName: name, FieldIndex: i}
		}
	}
	a.err(diag.SemaUnknownMember, sp, "the Input type has no member \""+name+"\"")
	return nil
}

func (a *Analyzer) analyzeFieldAccess(id ast.ExprID, sp source.Span) *Expr {
	d, _ := a.tree.Exprs.FieldAccess(id)
	object := a.analyzeExpr(d.Object, types.NoTypeID)
	if object == nil {
		return nil
	}
	name := a.name(d.Name)
	if object.Kind == ENotImplemented {
		return &Expr{Kind: ENotImplemented, Span: sp, Type: a.in.Builtins().Any, FieldName: name}
	}

	ot, _ := a.in.Lookup(object.Type)
	switch ot.Kind {
	case types.KindStruct:
		info, _ := a.in.StructInfo(object.Type)
		for i, n := range info.Names {
			if a.tree.Strings.MustLookup(n) == name {
				return &Expr{Kind: EFieldAccess, Span: sp, Type: info.Types[i], Operand: object, FieldName: name, FieldIndex: i, ByName: true}
			}
		}
		a.err(diag.SemaUnknownMember, sp, "no member \""+name+"\"")
		return nil
	case types.KindTuple:
		idx, ok := decimalIndex(name)
		info, _ := a.in.TupleInfo(object.Type)
		if !ok || info == nil || idx >= len(info.Members) {
			a.err(diag.SemaUnknownMember, sp, "no tuple member \""+name+"\"")
			return nil
		}
		return &Expr{Kind: EFieldAccess, Span: sp, Type: info.Members[idx], Operand: object, FieldIndex: idx}
	default:
		a.err(diag.SemaUnknownMember, sp, "value of type "+ot.Kind.String()+" has no members")
		return nil
	}
}

func (a *Analyzer) analyzeIndexAccess(id ast.ExprID, sp source.Span) *Expr {
	d, _ := a.tree.Exprs.IndexAccess(id)
	object := a.analyzeExpr(d.Object, types.NoTypeID)
	if object == nil {
		return nil
	}
	index := a.analyzeExpr(d.Index, a.in.Builtins().SInt64)
	if index == nil {
		return nil
	}
	it, _ := a.in.Lookup(index.Type)
	if !it.IsIntegral() {
		a.err(diag.SemaTypeMismatch, index.Span, "an index must be integral")
		return nil
	}
	index = a.convertTo(index, a.in.Builtins().SInt64, sp)

	ot, _ := a.in.Lookup(object.Type)
	switch ot.Kind {
	case types.KindArray:
		return &Expr{Kind: EIndexAccess, Span: sp, Type: ot.Elem, Operand: object, Index: index}
	case types.KindStringLit:
		info, _ := a.in.StringLitInfo(object.Type)
		comp := charTypeFor(a.in, info.Encoding)
		return &Expr{Kind: EIndexAccess, Span: sp, Type: comp, Operand: object, Index: index}
	case types.KindTuple:
		// Tuples index by position; the position must be statically known.
		if index.Kind != EConvert || index.Operand.Kind != ELiteral {
			if index.Kind != ELiteral {
				a.err(diag.SemaNotIndexable, sp, "a tuple index must be a literal")
				return nil
			}
		}
		lit := index
		if lit.Kind == EConvert {
			lit = lit.Operand
		}
		idx := int(int64(lit.LitBits))
		info, _ := a.in.TupleInfo(object.Type)
		if info == nil || idx < 0 || idx >= len(info.Members) {
			a.err(diag.SemaNotIndexable, sp, "tuple index out of range")
			return nil
		}
		return &Expr{Kind: EFieldAccess, Span: sp, Type: info.Members[idx], Operand: object, FieldIndex: idx}
	default:
		a.err(diag.SemaNotIndexable, sp, "value of type "+ot.Kind.String()+" is not indexable")
		return nil
	}
}

func charTypeFor(in *types.Interner, enc types.StringEncoding) types.TypeID {
	switch enc {
	case types.UTF16:
		return in.Builtins().UInt16
	case types.UTF32:
		return in.Builtins().UInt32
	default:
		return in.Builtins().UInt8
	}
}

func (a *Analyzer) analyzeCall(id ast.ExprID, sp source.Span) *Expr {
	d, _ := a.tree.Exprs.Call(id)
	callee := a.tree.Exprs.Get(d.Callee)
	if callee == nil || callee.Kind != ast.ExprName {
		a.err(diag.SemaNotAFunction, sp, "only named functions can be called")
		return nil
	}
	nameData, _ := a.tree.Exprs.Name(d.Callee)
	name := a.name(nameData.Name)

	args := make([]*Expr, 0, len(d.Args))
	for _, argID := range d.Args {
		arg := a.analyzeExpr(argID, types.NoTypeID)
		if arg == nil {
			return nil
		}
		args = append(args, arg)
	}
	return a.resolveCall(name, args, sp)
}

// resolveCall performs overload resolution by specificity: among the
// candidates whose parameters every argument converts to, a candidate is
// chosen iff its parameter list is pointwise `<:` every other viable
// candidate's. No viable candidate and more than one minimal candidate are
// both errors.
func (a *Analyzer) resolveCall(name string, args []*Expr, sp source.Span) *Expr {
	overloads := a.ctx.LookupFuncs(name)
	if len(overloads) == 0 {
		a.err(diag.SemaUnknownName, sp, "unknown function \""+name+"\"")
		return nil
	}

	var viable []*Function
	for _, fn := range overloads {
		if len(fn.Params) != len(args) {
			continue
		}
		fits := true
		for i, arg := range args {
			if !types.ConvertibleTo(a.in, arg.Type, fn.Params[i].Type) {
				fits = false
				break
			}
		}
		if fits {
			viable = append(viable, fn)
		}
	}
	if len(viable) == 0 {
		a.err(diag.SemaNoOverload, sp, "no overload of \""+name+"\" accepts these arguments")
		return nil
	}

	best := viable[0]
	for _, fn := range viable[1:] {
		if a.moreSpecific(fn, best) {
			best = fn
		}
	}
	for _, fn := range viable {
		if fn != best && !a.moreSpecific(best, fn) {
			a.err(diag.SemaAmbiguousOverload, sp, "ambiguous call to \""+name+"\"")
			return nil
		}
	}

	converted := make([]*Expr, len(args))
	for i, arg := range args {
		converted[i] = a.convertTo(arg, best.Params[i].Type, sp)
		if converted[i] == nil {
			return nil
		}
	}
	ret := best.Return
	if ret == types.NoTypeID {
		ret = a.in.Builtins().NullLit
	}
	return &Expr{Kind: ECall, Span: sp, Type: ret, Callee: best, Args: converted}
}

func (a *Analyzer) moreSpecific(f, g *Function) bool {
	for i := range f.Params {
		if !types.ConvertibleTo(a.in, f.Params[i].Type, g.Params[i].Type) {
			return false
		}
	}
	return true
}

func (a *Analyzer) analyzeInfix(id ast.ExprID, sp source.Span) *Expr {
	d, _ := a.tree.Exprs.Infix(id)
	left := a.analyzeExpr(d.Left, types.NoTypeID)
	right := a.analyzeExpr(d.Right, types.NoTypeID)
	if left == nil || right == nil {
		return nil
	}
	name := a.name(d.FuncName)
	if len(a.ctx.LookupFuncs(name)) == 0 {
		a.err(diag.SemaInfixNotTwoArgFunc, sp, "\""+name+"\" is not a function usable infix")
		return nil
	}
	call := a.resolveCall(name, []*Expr{left, right}, sp)
	if call != nil && len(call.Args) != 2 {
		a.err(diag.SemaInfixNotTwoArgFunc, sp, "an infix function must take exactly two arguments")
		return nil
	}
	return call
}

func (a *Analyzer) analyzeSign(id ast.ExprID, sp source.Span) *Expr {
	d, _ := a.tree.Exprs.Sign(id)
	operand := a.analyzeExpr(d.Operand, types.NoTypeID)
	if operand == nil {
		return nil
	}
	ot, _ := a.in.Lookup(operand.Type)
	if !ot.IsNumeric() {
		a.err(diag.SemaTypeMismatch, sp, "sign operand must be numeric")
		return nil
	}
	if !d.Negative {
		return operand
	}

	// Negating a literal folds immediately; this is also where the
	// -9223372036854775808 boundary becomes representable.
	if operand.Kind == ELiteral {
		switch ot.Kind {
		case types.KindSIntLit:
			v := int64(operand.LitBits)
			if v == math.MinInt64 {
				a.err(diag.SemaIntegerOverflow, sp, "integer literal overflows a signed 64-bit value")
				return nil
			}
			return &Expr{Kind: ELiteral, Span: sp, Type: a.in.Intern(types.SIntLit(-v)), LitBits: uint64(-v)}
		case types.KindUIntLit:
			v := operand.LitBits
			if v > 1<<63 {
				a.err(diag.SemaIntegerOverflow, sp, "integer literal overflows a signed 64-bit value")
				return nil
			}
			neg := -int64(v) // v == 1<<63 wraps to exactly MinInt64
			return &Expr{Kind: ELiteral, Span: sp, Type: a.in.Intern(types.SIntLit(neg)), LitBits: uint64(neg)}
		case types.KindFloatLit:
			v := -ot.FloatValue()
			return &Expr{Kind: ELiteral, Span: sp, Type: a.in.Intern(types.FloatLit(v)), LitBits: floatBits(v)}
		}
	}

	if ot.Kind == types.KindUInt {
		a.err(diag.SemaTypeMismatch, sp, "cannot negate an unsigned value")
		return nil
	}
	resType := types.Lift(a.in, operand.Type)
	return &Expr{Kind: ENeg, Span: sp, Type: resType, Operand: a.convertTo(operand, resType, sp)}
}

func (a *Analyzer) analyzeExponent(id ast.ExprID, sp source.Span) *Expr {
	d, _ := a.tree.Exprs.Exponent(id)
	left := a.analyzeExpr(d.Base, types.NoTypeID)
	right := a.analyzeExpr(d.Exp, types.NoTypeID)
	if left == nil || right == nil {
		return nil
	}
	resType, ok := a.unifyNumeric(&left, &right, sp)
	if !ok {
		return nil
	}
	return &Expr{Kind: EExponent, Span: sp, Type: resType, Left: left, Right: right}
}

func (a *Analyzer) analyzeBinary(id ast.ExprID, sp source.Span) *Expr {
	d, _ := a.tree.Exprs.Binary(id)
	left := a.analyzeExpr(d.Left, types.NoTypeID)
	right := a.analyzeExpr(d.Right, types.NoTypeID)
	if left == nil || right == nil {
		return nil
	}

	switch d.Op {
	case ast.OpMul, ast.OpDiv, ast.OpMod, ast.OpAdd, ast.OpSub:
		resType, ok := a.unifyNumeric(&left, &right, sp)
		if !ok {
			return nil
		}
		return &Expr{Kind: EBinary, Span: sp, Type: resType, BinOp: d.Op, Left: left, Right: right}

	case ast.OpShl, ast.OpShr, ast.OpShrTriple:
		lt, _ := a.in.Lookup(left.Type)
		rt, _ := a.in.Lookup(right.Type)
		if !lt.IsIntegral() || !rt.IsIntegral() {
			a.err(diag.SemaTypeMismatch, sp, "shift operands must be integral")
			return nil
		}
		resType := types.ShiftResult(types.Lift(a.in, left.Type))
		left = a.convertTo(left, resType, sp)
		right = a.convertTo(right, a.in.Builtins().UInt64, sp)
		if left == nil || right == nil {
			return nil
		}
		return &Expr{Kind: EBinary, Span: sp, Type: resType, BinOp: d.Op, Left: left, Right: right}

	case ast.OpBitAnd, ast.OpBitOr, ast.OpBitXor:
		a.narrowPair(&left, &right)
		lt, _ := a.in.Lookup(left.Type)
		rt, _ := a.in.Lookup(right.Type)
		if !lt.IsIntegral() || !rt.IsIntegral() {
			a.err(diag.SemaTypeMismatch, sp, "bitwise operands must be integral")
			return nil
		}
		resType, ok := types.BitwiseResult(a.in, types.Lift(a.in, left.Type), types.Lift(a.in, right.Type))
		if !ok {
			a.err(diag.SemaTypeMismatch, sp, "bitwise operands must be integral with a common type")
			return nil
		}
		left = a.convertTo(left, resType, sp)
		right = a.convertTo(right, resType, sp)
		if left == nil || right == nil {
			return nil
		}
		return &Expr{Kind: EBinary, Span: sp, Type: resType, BinOp: d.Op, Left: left, Right: right}

	case ast.OpLogicalAnd, ast.OpLogicalOr, ast.OpLogicalXor:
		left = a.requireBool(left, "logical operand")
		right = a.requireBool(right, "logical operand")
		return &Expr{Kind: EBinary, Span: sp, Type: types.LogicalResult(a.in), BinOp: d.Op, Left: left, Right: right}

	case ast.OpConcatenate:
		return a.analyzeConcatenate(left, right, sp)

	case ast.OpRange:
		lt, _ := a.in.Lookup(left.Type)
		rt, _ := a.in.Lookup(right.Type)
		if !lt.IsIntegral() || !rt.IsIntegral() {
			a.err(diag.SemaTypeMismatch, sp, "range bounds must be integral")
			return nil
		}
		boundType, ok := a.unifyNumeric(&left, &right, sp)
		if !ok {
			return nil
		}
		resType := a.in.Intern(types.Array(boundType, types.ArrayUnsizedLength))
		return &Expr{Kind: EBinary, Span: sp, Type: resType, BinOp: d.Op, Left: left, Right: right}

	default:
		a.err(diag.SemaTypeMismatch, sp, "unsupported operator")
		return nil
	}
}

// analyzeConcatenate types `a ~ b`: both sides must be array-shaped
// (string literals convert to their array-of-char form). The result's
// component is the join; the length is the sum when both are known.
func (a *Analyzer) analyzeConcatenate(left, right *Expr, sp source.Span) *Expr {
	la, ok := a.arrayShape(left)
	if !ok {
		a.err(diag.SemaTypeMismatch, left.Span, "'~' needs array or string operands")
		return nil
	}
	ra, ok := a.arrayShape(right)
	if !ok {
		a.err(diag.SemaTypeMismatch, right.Span, "'~' needs array or string operands")
		return nil
	}
	comp, ok := types.Join(a.in, la.Elem, ra.Elem)
	if !ok {
		a.err(diag.SemaNoCommonType, sp, "the operand components have no common type")
		return nil
	}
	size := types.ArrayUnsizedLength
	if la.Size != types.ArrayUnsizedLength && ra.Size != types.ArrayUnsizedLength {
		size = la.Size + ra.Size
	}
	resType := a.in.Intern(types.Array(comp, size))
	return &Expr{Kind: EBinary, Span: sp, Type: resType, BinOp: ast.OpConcatenate, Left: left, Right: right}
}

// arrayShape views an operand as an array type descriptor; string literal
// operands are viewed as their array-of-char form.
func (a *Analyzer) arrayShape(e *Expr) (types.Type, bool) {
	t, _ := a.in.Lookup(e.Type)
	switch t.Kind {
	case types.KindArray:
		return t, true
	case types.KindStringLit:
		info, _ := a.in.StringLitInfo(e.Type)
		comp := charTypeFor(a.in, info.Encoding)
		return types.Array(comp, uint32(len([]rune(info.Value)))), true
	default:
		return types.Type{}, false
	}
}

func (a *Analyzer) analyzeCompare(id ast.ExprID, sp source.Span) *Expr {
	d, _ := a.tree.Exprs.Compare(id)
	boolID := a.in.Builtins().Bool

	operands := make([]*Expr, 0, len(d.Operands))
	for _, opID := range d.Operands {
		operand := a.analyzeExpr(opID, types.NoTypeID)
		if operand == nil {
			return nil
		}
		operands = append(operands, operand)
	}

	var links []CompareLink
	for i, op := range d.Ops {
		l, r := operands[i], operands[i+1]
		a.narrowPair(&l, &r)
		common, ok := types.Join(a.in, types.Lift(a.in, l.Type), types.Lift(a.in, r.Type))
		if !ok {
			a.err(diag.SemaNoCommonType, sp, "compared values have no common type")
			return nil
		}
		if types.IsReference(a.in, common) {
			switch op {
			case ast.CmpEq, ast.CmpNotEq, ast.CmpIdentityEq, ast.CmpIdentityNotEq:
			default:
				a.err(diag.SemaTypeMismatch, sp, "reference values only support equality comparison")
				return nil
			}
		}
		cl := a.convertTo(l, common, sp)
		cr := a.convertTo(r, common, sp)
		if cl == nil || cr == nil {
			return nil
		}
		links = append(links, CompareLink{Op: op, Left: cl, Right: cr, OperandType: common})
	}

	chain := &Expr{Kind: ECompare, Span: sp, Type: boolID, Links: links}

	if d.HasType {
		verdict := a.typeCompareVerdict(operands[len(operands)-1].Type, d.TypeOp, d.TypeArg, sp)
		lit := &Expr{Kind: ELiteral, Span: sp, Type: a.in.Intern(types.BoolLit(verdict))}
		if verdict {
			lit.LitBits = 1
		}
		lit = a.convertTo(lit, boolID, sp)
		if len(links) == 0 {
			return lit
		}
		return &Expr{Kind: EBinary, Span: sp, Type: boolID, BinOp: ast.OpLogicalAnd, Left: chain, Right: lit}
	}
	return chain
}

// typeCompareVerdict folds the trailing type-compare of a chain: the
// relation holds between the last operand's static type and the named
// type, so it is decidable (and decided) at analysis time.
func (a *Analyzer) typeCompareVerdict(valueType types.TypeID, op ast.TypeCompareOp, arg ast.TypeID, sp source.Span) bool {
	target := a.resolveTypeSyn(arg)
	if target == types.NoTypeID {
		return false
	}
	sub := types.ConvertibleTo(a.in, valueType, target)
	super := types.ConvertibleTo(a.in, target, valueType)
	switch op {
	case ast.TypeCmpEq:
		return valueType == target
	case ast.TypeCmpNotEq:
		return valueType != target
	case ast.TypeCmpSub:
		return sub
	case ast.TypeCmpSuper:
		return super
	case ast.TypeCmpSubShl:
		return sub && valueType != target
	case ast.TypeCmpSuperShr:
		return super && valueType != target
	case ast.TypeCmpIncomparable:
		return !sub && !super
	default:
		return false
	}
}

func (a *Analyzer) analyzeConditionalExpr(id ast.ExprID, sp source.Span, want types.TypeID) *Expr {
	d, _ := a.tree.Exprs.Conditional(id)
	cond := a.analyzeExpr(d.Cond, a.in.Builtins().Bool)
	then := a.analyzeExpr(d.Then, want)
	els := a.analyzeExpr(d.Else, want)
	if cond == nil || then == nil || els == nil {
		return nil
	}
	cond = a.requireBool(cond, "conditional")
	resType, ok := types.Join(a.in, types.Lift(a.in, then.Type), types.Lift(a.in, els.Type))
	if !ok {
		a.err(diag.SemaNoCommonType, sp, "the branches have no common type")
		return nil
	}
	then = a.convertTo(then, resType, sp)
	els = a.convertTo(els, resType, sp)
	if then == nil || els == nil {
		return nil
	}
	return &Expr{Kind: EConditional, Span: sp, Type: resType, Cond: cond, Then: then, Else: els}
}

// unifyNumeric applies the literal-narrowing rule to a numeric operand
// pair, joins the resulting types, and converts both operands to the
// join. Both pointers are replaced with the converted nodes.
func (a *Analyzer) unifyNumeric(left, right **Expr, sp source.Span) (types.TypeID, bool) {
	lt, _ := a.in.Lookup((*left).Type)
	rt, _ := a.in.Lookup((*right).Type)
	if !lt.IsNumeric() || !rt.IsNumeric() {
		a.err(diag.SemaTypeMismatch, sp, "operands must be numeric")
		return types.NoTypeID, false
	}
	a.narrowPair(left, right)

	// A literal that survived narrowing (literal-on-literal arithmetic)
	// joins at its natural atomic type.
	resType, ok := types.ArithmeticResult(a.in, types.Lift(a.in, (*left).Type), types.Lift(a.in, (*right).Type))
	if !ok {
		a.err(diag.SemaNoCommonType, sp, "operands have no common type")
		return types.NoTypeID, false
	}
	cl := a.convertTo(*left, resType, sp)
	cr := a.convertTo(*right, resType, sp)
	if cl == nil || cr == nil {
		return types.NoTypeID, false
	}
	*left, *right = cl, cr
	return resType, true
}

// narrowPair applies numeric-literal narrowing: when one operand is
// an integer literal and the other has an atomic type, the literal narrows
// to that atomic type if it fits, else to the smallest atomic that fits.
func (a *Analyzer) narrowPair(left, right **Expr) {
	a.narrowAgainst(left, (*right).Type)
	a.narrowAgainst(right, (*left).Type)
}

func (a *Analyzer) narrowAgainst(e **Expr, other types.TypeID) {
	if (*e).Kind != ELiteral {
		return
	}
	if ot, ok := a.in.Lookup(other); !ok || !ot.IsAtomic() {
		// Literal-on-literal arithmetic keeps natural types; the rule
		// only fires against an atomic opposite operand.
		return
	}
	narrowed, ok := types.NarrowIntLiteral(a.in, (*e).Type, other)
	if !ok {
		return
	}
	lit := *(*e)
	lit.Type = narrowed
	*e = &lit
}

// convertTo makes e's value available at type target, inserting an
// explicit conversion node when the representation differs. Literal nodes
// are retyped in place (their bits re-encoded for a float target) instead
// of being wrapped.
func (a *Analyzer) convertTo(e *Expr, target types.TypeID, sp source.Span) *Expr {
	if e == nil || target == types.NoTypeID || e.Type == target {
		return e
	}
	if !types.ConvertibleTo(a.in, e.Type, target) {
		et, _ := a.in.Lookup(e.Type)
		tt, _ := a.in.Lookup(target)
		a.err(diag.SemaNotConvertible, sp, "a "+et.Kind.String()+" value does not convert to "+tt.Kind.String())
		return nil
	}

	if e.Kind == ELiteral {
		et, _ := a.in.Lookup(e.Type)
		tt, _ := a.in.Lookup(target)
		if tt.IsAtomic() {
			lit := *e
			lit.Type = target
			if tt.Kind == types.KindFloat {
				switch et.Kind {
				case types.KindSIntLit:
					lit.LitBits = floatBits(float64(int64(e.LitBits)))
				case types.KindUIntLit:
					lit.LitBits = floatBits(float64(e.LitBits))
				}
			}
			return &lit
		}
	}
	return &Expr{Kind: EConvert, Span: sp, Type: target, Operand: e}
}
