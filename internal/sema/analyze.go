package sema

import (
	"ruleslang/internal/ast"
	"ruleslang/internal/diag"
	"ruleslang/internal/source"
	"ruleslang/internal/types"
)

// Mode selects where top-level code runs: a compiled rule (top-level
// return produces the rule output) or the interactive shell (top-level
// return is an error).
type Mode uint8

const (
	ModeRule Mode = iota
	ModeShell
)

// Options configures an Analyzer the way parser.Options configures a
// Parser: a diagnostics sink plus the pass's mode switches.
type Options struct {
	Reporter diag.Reporter
	Types    *types.Interner
	Mode     Mode
}

// Analyzer performs the single semantic pass. The shell keeps one alive
// across submissions so the context (and the root frame's slot
// assignments) persist between lines.
type Analyzer struct {
	opts Options
	ctx  *Context
	in   *types.Interner

	tree *ast.Tree
	errs int

	rootFrameUsed uint32
	curFn         *Function // nil at top level
	fnFrameUsed   uint32

	inputType types.TypeID
	funcs     []*Function
	retTypes  []types.TypeID
	retSpans  []source.Span
}

// NewAnalyzer creates an analyzer with a fresh root context. The root
// block kind follows opts.Mode.
func NewAnalyzer(opts Options) *Analyzer {
	root := BlockTopLevel
	if opts.Mode == ModeShell {
		root = BlockShell
	}
	if opts.Types == nil {
		opts.Types = types.NewInterner()
	}
	return &Analyzer{opts: opts, ctx: NewContext(root), in: opts.Types}
}

// Types returns the interner every resolved TypeID in the program indexes.
func (a *Analyzer) Types() *types.Interner { return a.in }

// Context exposes the scope stack (the shell's :reset discards it by
// building a fresh Analyzer).
func (a *Analyzer) Context() *Context { return a.ctx }

// RootFrameSize returns the byte size the root frame has grown to across
// every tree analyzed so far.
func (a *Analyzer) RootFrameSize() uint32 { return a.rootFrameUsed }

// InputType returns the rule-input structure type once a submission has
// defined one.
func (a *Analyzer) InputType() (types.TypeID, bool) {
	return a.inputType, a.inputType != types.NoTypeID
}

// Analyze lowers tree to a Program. ok is false when any semantic error
// was reported; the returned Program is still structurally complete for
// the parts that analyzed cleanly.
func (a *Analyzer) Analyze(tree *ast.Tree) (*Program, bool) {
	a.tree = tree
	startErrs := a.errs
	stmts := a.analyzeStmts(tree.Stmts)

	prog := &Program{
		Stmts:     stmts,
		Funcs:     a.funcs,
		FrameSize: a.rootFrameUsed,
		InputType: a.inputType,
		Types:     a.in,
	}
	if len(a.retTypes) > 0 {
		ret := a.retTypes[0]
		for _, t := range a.retTypes[1:] {
			j, ok := types.Join(a.in, ret, t)
			if !ok {
				a.err(diag.SemaNoCommonType, a.retSpans[0], "rule return values have no common type")
				break
			}
			ret = j
		}
		prog.ReturnType = ret
	}
	reduceProgram(a, prog)
	return prog, a.errs == startErrs
}

// AnalyzeExpression types a single expression (the shell's expression
// mode) into a one-statement program that leaves the value on the stack.
// The returned TypeID is the expression's static type.
func (a *Analyzer) AnalyzeExpression(tree *ast.Tree, id ast.ExprID) (*Program, types.TypeID, bool) {
	a.tree = tree
	startErrs := a.errs
	expr := a.analyzeExpr(id, types.NoTypeID)
	if expr == nil {
		return nil, types.NoTypeID, false
	}
	prog := &Program{
		Stmts:     []*Stmt{{Kind: SExprResult, Span: expr.Span, Value: expr}},
		FrameSize: a.rootFrameUsed,
		InputType: a.inputType,
		Types:     a.in,
	}
	reduceProgram(a, prog)
	return prog, prog.Stmts[0].Value.Type, a.errs == startErrs
}

func (a *Analyzer) err(code diag.Code, sp source.Span, msg string) {
	a.errs++
	diag.ReportError(a.opts.Reporter, code, sp, msg).Emit()
}

func (a *Analyzer) errWithNote(code diag.Code, sp source.Span, msg string, noteSpan source.Span, note string) {
	a.errs++
	diag.ReportError(a.opts.Reporter, code, sp, msg).WithNote(noteSpan, note).Emit()
}

func (a *Analyzer) name(id source.StringID) string {
	return a.tree.Strings.MustLookup(id)
}

// allocSlot assigns a frame slot for a variable of type t in the current
// frame, aligning the offset to the value's size (the same alignment rule
// the value stack uses).
func (a *Analyzer) allocSlot(t types.TypeID) (slot, size uint32) {
	size = types.RuntimeSize(a.in, t)
	if size == 0 {
		size = 1
	}
	used := &a.rootFrameUsed
	if a.curFn != nil {
		used = &a.fnFrameUsed
	}
	if pad := *used % size; pad != 0 {
		*used += size - pad
	}
	slot = *used
	*used += size
	return slot, size
}

func (a *Analyzer) analyzeStmts(ids []ast.StmtID) []*Stmt {
	var out []*Stmt
	for _, id := range ids {
		if s := a.analyzeStmt(id); s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (a *Analyzer) analyzeStmt(id ast.StmtID) *Stmt {
	stmt := a.tree.StmtMem.Get(id)
	if stmt == nil {
		return nil
	}
	switch stmt.Kind {
	case ast.StmtTypeDefinition:
		a.analyzeTypeDefinition(id, stmt.Span)
		return nil
	case ast.StmtVariableDeclaration:
		return a.analyzeVariableDeclaration(id, stmt.Span)
	case ast.StmtAssignment:
		return a.analyzeAssignment(id, stmt.Span)
	case ast.StmtFunctionCall:
		d, _ := a.tree.StmtMem.FunctionCall(id)
		call := a.analyzeExpr(d.Call, types.NoTypeID)
		if call == nil {
			return nil
		}
		if call.Kind != ECall {
			a.err(diag.SemaNotAFunction, stmt.Span, "expected a function call statement")
			return nil
		}
		return &Stmt{Kind: SCallStmt, Span: stmt.Span, Call: call}
	case ast.StmtConditional:
		return a.analyzeConditional(id, stmt.Span)
	case ast.StmtLoop:
		return a.analyzeLoop(id, stmt.Span)
	case ast.StmtFunctionDefinition:
		a.analyzeFunctionDefinition(id, stmt.Span)
		return nil
	case ast.StmtReturn:
		return a.analyzeReturn(id, stmt.Span)
	case ast.StmtBreak:
		d, _ := a.tree.StmtMem.Break(id)
		if !a.ctx.enclosingLoop(d.Label) {
			if d.Label != "" {
				a.err(diag.SemaUnknownLabel, stmt.Span, "no enclosing loop labeled \""+d.Label+"\"")
			} else {
				a.err(diag.SemaBreakOutsideLoop, stmt.Span, "break outside a loop")
			}
			return nil
		}
		return &Stmt{Kind: SBreak, Span: stmt.Span, Label: d.Label}
	case ast.StmtContinue:
		d, _ := a.tree.StmtMem.Continue(id)
		if !a.ctx.enclosingLoop(d.Label) {
			if d.Label != "" {
				a.err(diag.SemaUnknownLabel, stmt.Span, "no enclosing loop labeled \""+d.Label+"\"")
			} else {
				a.err(diag.SemaContinueOutsideLoop, stmt.Span, "continue outside a loop")
			}
			return nil
		}
		return &Stmt{Kind: SContinue, Span: stmt.Span, Label: d.Label}
	default:
		return nil
	}
}

func (a *Analyzer) analyzeTypeDefinition(id ast.StmtID, sp source.Span) {
	d, _ := a.tree.StmtMem.TypeDefinition(id)
	name := a.name(d.Name)
	if a.ctx.definedHere(name) {
		a.err(diag.SemaRedeclared, sp, "\""+name+"\" is already declared in this scope")
		return
	}

	refs := a.collectTypeRefs(d.Type, nil)
	// Transitive closure over the name-reference graph: a definition whose
	// references reach back to the name being defined is cyclic. The
	// interner is structural, so a self-referential layout could never be
	// interned even through a reference member.
	for _, r := range refs {
		if r == name || a.ctx.typeRefsClosure([]string{r}, name) {
			a.err(diag.SemaCyclicType, sp, "cyclic type definition \""+name+"\"")
			return
		}
	}

	t := a.resolveTypeSyn(d.Type)
	if t == types.NoTypeID {
		return
	}
	a.ctx.Top().Types[name] = t
	a.ctx.Top().typeRefs[name] = refs
	if name == "Input" && a.ctx.Top().Parent == nil {
		a.inputType = t
	}
}

func (a *Analyzer) analyzeVariableDeclaration(id ast.StmtID, sp source.Span) *Stmt {
	d, _ := a.tree.StmtMem.VariableDeclaration(id)
	name := a.name(d.Name)
	if a.ctx.definedHere(name) {
		a.err(diag.SemaRedeclared, sp, "\""+name+"\" is already declared in this scope")
		return nil
	}

	declared := types.NoTypeID
	if d.Type.IsValid() {
		declared = a.resolveTypeSyn(d.Type)
		if declared == types.NoTypeID {
			return nil
		}
	}

	var value *Expr
	varType := declared
	if d.Value.IsValid() {
		value = a.analyzeExpr(d.Value, declared)
		if value == nil {
			return nil
		}
		if value.Kind == ECall && value.Callee.Return == types.NoTypeID {
			a.err(diag.SemaTypeMismatch, sp, "\""+value.Callee.Name+"\" does not return a value")
			return nil
		}
		if declared != types.NoTypeID {
			value = a.convertTo(value, declared, sp)
			if value == nil {
				return nil
			}
		} else {
			varType = value.Type
			if d.Kind == ast.VarVar {
				// var lifts literal types to their atomic; let keeps the
				// literal type.
				varType = types.Lift(a.in, varType)
				value = a.convertTo(value, varType, sp)
			}
		}
	} else if declared == types.NoTypeID {
		a.err(diag.SemaTypeMismatch, sp, "a declaration needs a type or an initial value")
		return nil
	}

	slot, size := a.allocSlot(varType)
	v := &Variable{Name: name, Type: varType, Kind: d.Kind, Slot: slot, Size: size, Owner: a.curFn}
	a.ctx.Top().Vars[name] = v
	return &Stmt{Kind: SDeclare, Span: sp, Var: v, Value: value}
}

func (a *Analyzer) analyzeAssignment(id ast.StmtID, sp source.Span) *Stmt {
	d, _ := a.tree.StmtMem.Assignment(id)
	target := a.analyzeExpr(d.Target, types.NoTypeID)
	if target == nil {
		return nil
	}
	if !isAssignable(target) {
		a.err(diag.SemaNotAssignable, sp, "the assignment target is not a storage location")
		return nil
	}
	value := a.analyzeExpr(d.Value, target.Type)
	if value == nil {
		return nil
	}
	value = a.convertTo(value, target.Type, sp)
	if value == nil {
		return nil
	}
	return &Stmt{Kind: SAssign, Span: sp, Target: target, Value: value}
}

// isAssignable implements the AssignableExpression check: a name, field
// access, or index access. Context fields are read-only rule input.
func isAssignable(e *Expr) bool {
	switch e.Kind {
	case EVarRef, EFieldAccess, EIndexAccess:
		return true
	default:
		return false
	}
}

func (a *Analyzer) analyzeConditional(id ast.StmtID, sp source.Span) *Stmt {
	d, _ := a.tree.StmtMem.Conditional(id)
	out := &Stmt{Kind: SCond, Span: sp}
	for _, block := range d.Blocks {
		cond := a.analyzeExpr(block.Cond, a.in.Builtins().Bool)
		if cond == nil {
			continue
		}
		cond = a.requireBool(cond, "condition")
		a.ctx.Push(BlockConditional)
		body := a.analyzeStmts(block.Body)
		a.ctx.Pop()
		out.Blocks = append(out.Blocks, CondBlock{Cond: cond, Body: body})
	}
	if len(d.Else) > 0 {
		a.ctx.Push(BlockConditional)
		out.Else = a.analyzeStmts(d.Else)
		a.ctx.Pop()
	}
	if len(out.Blocks) == 0 {
		return nil
	}
	return out
}

func (a *Analyzer) analyzeLoop(id ast.StmtID, sp source.Span) *Stmt {
	d, _ := a.tree.StmtMem.Loop(id)
	cond := a.analyzeExpr(d.Cond, a.in.Builtins().Bool)
	if cond == nil {
		return nil
	}
	cond = a.requireBool(cond, "loop condition")
	block := a.ctx.Push(BlockLoop)
	block.LoopLabel = d.Label
	body := a.analyzeStmts(d.Body)
	a.ctx.Pop()
	return &Stmt{Kind: SLoop, Span: sp, Label: d.Label, Cond: cond, Body: body}
}

func (a *Analyzer) analyzeFunctionDefinition(id ast.StmtID, sp source.Span) {
	d, _ := a.tree.StmtMem.FunctionDef(id)
	name := a.name(d.Name)
	if _, taken := a.ctx.Top().Vars[name]; taken {
		a.err(diag.SemaRedeclared, sp, "\""+name+"\" is already declared in this scope")
		return
	}
	if _, taken := a.ctx.Top().Types[name]; taken {
		a.err(diag.SemaRedeclared, sp, "\""+name+"\" is already declared in this scope")
		return
	}

	retType := types.NoTypeID
	if d.ReturnType.IsValid() {
		retType = a.resolveTypeSyn(d.ReturnType)
		if retType == types.NoTypeID {
			return
		}
	}

	fn := &Function{Name: name, Return: retType, Span: sp}

	savedFn, savedUsed := a.curFn, a.fnFrameUsed
	a.curFn, a.fnFrameUsed = fn, 0
	block := a.ctx.Push(BlockFunction)
	block.Fn = fn

	ok := true
	var paramTypes []types.TypeID
	for _, p := range d.Params {
		pt := a.resolveTypeSyn(p.Type)
		if pt == types.NoTypeID {
			ok = false
			break
		}
		pname := a.name(p.Name)
		if _, dup := block.Vars[pname]; dup {
			a.err(diag.SemaRedeclared, sp, "duplicate parameter \""+pname+"\"")
			ok = false
			break
		}
		slot, size := a.allocSlot(pt)
		pv := &Variable{Name: pname, Type: pt, Kind: ast.VarVar, Slot: slot, Size: size, Owner: fn}
		block.Vars[pname] = pv
		fn.Params = append(fn.Params, pv)
		paramTypes = append(paramTypes, pt)
	}

	if ok {
		fn.Sig = a.in.RegisterFunc(paramTypes, retType)
		// Register before the body so the function can call itself.
		a.registerFunction(name, fn, sp)
		fn.Body = a.analyzeStmts(d.Body)
		fn.FrameSize = a.fnFrameUsed
		if retType != types.NoTypeID && !allPathsReturn(fn.Body) {
			a.err(diag.SemaMissingReturn, sp, "not every path through \""+name+"\" returns a value")
		}
		a.funcs = append(a.funcs, fn)
	}

	a.ctx.Pop()
	a.curFn, a.fnFrameUsed = savedFn, savedUsed
}

// registerFunction adds fn as an overload in the enclosing (pre-push)
// block, rejecting an exact duplicate signature at the same depth.
func (a *Analyzer) registerFunction(name string, fn *Function, sp source.Span) {
	owner := a.ctx.Top().Parent
	if owner == nil {
		owner = a.ctx.Top()
	}
	for _, existing := range owner.Funcs[name] {
		if existing.Sig == fn.Sig {
			a.errWithNote(diag.SemaRedeclared, sp, "\""+name+"\" is already declared with this signature",
				existing.Span, "previous definition here")
			return
		}
	}
	owner.Funcs[name] = append(owner.Funcs[name], fn)
}

func (a *Analyzer) analyzeReturn(id ast.StmtID, sp source.Span) *Stmt {
	d, _ := a.tree.StmtMem.Return(id)
	fn := a.ctx.enclosingFunction()

	var value *Expr
	if d.Value.IsValid() {
		want := types.NoTypeID
		if fn != nil {
			want = fn.Return
		}
		value = a.analyzeExpr(d.Value, want)
		if value == nil {
			return nil
		}
	}

	if fn != nil {
		switch {
		case fn.Return == types.NoTypeID && value != nil:
			a.err(diag.SemaTypeMismatch, sp, "\""+fn.Name+"\" does not return a value")
			return nil
		case fn.Return != types.NoTypeID && value == nil:
			a.err(diag.SemaTypeMismatch, sp, "\""+fn.Name+"\" must return a value")
			return nil
		case value != nil:
			value = a.convertTo(value, fn.Return, sp)
			if value == nil {
				return nil
			}
		}
		return &Stmt{Kind: SReturn, Span: sp, Value: value}
	}

	// Top level: in rule mode a return produces the rule's output; in the
	// shell it has nothing to return from.
	if a.opts.Mode == ModeShell {
		a.err(diag.SemaReturnOutsideFunc, sp, "return outside a function")
		return nil
	}
	if value != nil {
		a.retTypes = append(a.retTypes, value.Type)
		a.retSpans = append(a.retSpans, sp)
	}
	return &Stmt{Kind: SReturn, Span: sp, Value: value}
}

func (a *Analyzer) requireBool(e *Expr, what string) *Expr {
	boolID := a.in.Builtins().Bool
	if e.Type == boolID {
		return e
	}
	if types.ConvertibleTo(a.in, e.Type, boolID) {
		return a.convertTo(e, boolID, e.Span)
	}
	t, _ := a.in.Lookup(e.Type)
	a.err(diag.SemaConditionNotBool, e.Span, "the "+what+" must be bool, got "+t.Kind.String())
	return e
}
