package ast

import (
	"ruleslang/internal/source"
)

// StmtKind enumerates the statement node variants.
type StmtKind uint8

const (
	StmtTypeDefinition StmtKind = iota
	StmtVariableDeclaration
	StmtAssignment
	StmtFunctionCall
	StmtConditional
	StmtLoop
	StmtFunctionDefinition
	StmtReturn
	StmtBreak
	StmtContinue
)

// VarKind distinguishes `let` (keeps literal types) from `var` (lifts
// literals to their atomic type).
type VarKind uint8

const (
	VarLet VarKind = iota
	VarVar
)

// AssignOp is the statement's assignment operator as parsed, before the
// operator expander rewrites any compound form into plain Assign.
type AssignOp uint8

const (
	AssignPlain AssignOp = iota
	AssignExponent
	AssignStar
	AssignSlash
	AssignPercent
	AssignPlus
	AssignMinus
	AssignShl
	AssignShr
	AssignShrTriple
	AssignAmp
	AssignCaret
	AssignPipe
	AssignAndAnd
	AssignXorXor
	AssignOrOr
	AssignTilde
)

// ToBinaryOp maps a compound assignment operator to the BinaryOp the
// operator expander rewrites it into; ok is false for AssignPlain, which
// has no corresponding binary form.
func (op AssignOp) ToBinaryOp() (BinaryOp, bool) {
	switch op {
	case AssignExponent:
		return 0, false // Exponent has its own expr kind, handled separately
	case AssignStar:
		return OpMul, true
	case AssignSlash:
		return OpDiv, true
	case AssignPercent:
		return OpMod, true
	case AssignPlus:
		return OpAdd, true
	case AssignMinus:
		return OpSub, true
	case AssignShl:
		return OpShl, true
	case AssignShr:
		return OpShr, true
	case AssignShrTriple:
		return OpShrTriple, true
	case AssignAmp:
		return OpBitAnd, true
	case AssignCaret:
		return OpBitXor, true
	case AssignPipe:
		return OpBitOr, true
	case AssignAndAnd:
		return OpLogicalAnd, true
	case AssignXorXor:
		return OpLogicalXor, true
	case AssignOrOr:
		return OpLogicalOr, true
	case AssignTilde:
		return OpConcatenate, true
	default:
		return 0, false
	}
}

type Stmt struct {
	Kind    StmtKind
	Span    source.Span
	Payload PayloadID
}

type (
	TypeDefinitionData struct {
		Name source.StringID
		Type TypeID
	}
	VariableDeclarationData struct {
		Kind  VarKind
		Name  source.StringID
		Type  TypeID // NoTypeID if inferred
		Value ExprID // NoExprID if not initialized
	}
	AssignmentData struct {
		Target ExprID
		Op     AssignOp
		Value  ExprID
	}
	FunctionCallStmtData struct {
		Call ExprID
	}
	ConditionalBlock struct {
		Cond ExprID
		Body []StmtID
	}
	ConditionalStmtData struct {
		Blocks []ConditionalBlock // if + any number of elif
		Else   []StmtID           // empty if no else
	}
	LoopStmtData struct {
		Label string // "" if unlabeled
		Cond  ExprID
		Body  []StmtID
	}
	Param struct {
		Name source.StringID
		Type TypeID
	}
	FunctionDefData struct {
		Name       source.StringID
		Params     []Param
		ReturnType TypeID // NoTypeID if unspecified (void)
		Body       []StmtID
	}
	ReturnStmtData struct {
		Value ExprID // NoExprID if bare `return`
	}
	BreakStmtData struct {
		Label string // "" if unlabeled
	}
	ContinueStmtData struct {
		Label string // "" if unlabeled
	}
)

// Stmts owns the Stmt arena plus one side arena per kind.
type Stmts struct {
	Arena *Arena[Stmt]

	TypeDefinitions      *Arena[TypeDefinitionData]
	VariableDeclarations *Arena[VariableDeclarationData]
	Assignments          *Arena[AssignmentData]
	FunctionCalls        *Arena[FunctionCallStmtData]
	Conditionals         *Arena[ConditionalStmtData]
	Loops                *Arena[LoopStmtData]
	FunctionDefs         *Arena[FunctionDefData]
	Returns              *Arena[ReturnStmtData]
	Breaks               *Arena[BreakStmtData]
	Continues            *Arena[ContinueStmtData]
}

func NewStmts(capHint uint) *Stmts {
	if capHint == 0 {
		capHint = 1 << 6
	}
	return &Stmts{
		Arena:                NewArena[Stmt](capHint),
		TypeDefinitions:      NewArena[TypeDefinitionData](capHint),
		VariableDeclarations: NewArena[VariableDeclarationData](capHint),
		Assignments:          NewArena[AssignmentData](capHint),
		FunctionCalls:        NewArena[FunctionCallStmtData](capHint),
		Conditionals:         NewArena[ConditionalStmtData](capHint),
		Loops:                NewArena[LoopStmtData](capHint),
		FunctionDefs:         NewArena[FunctionDefData](capHint),
		Returns:              NewArena[ReturnStmtData](capHint),
		Breaks:               NewArena[BreakStmtData](capHint),
		Continues:            NewArena[ContinueStmtData](capHint),
	}
}

func (s *Stmts) new(kind StmtKind, span source.Span, payload PayloadID) StmtID {
	return StmtID(s.Arena.Allocate(Stmt{Kind: kind, Span: span, Payload: payload}))
}

func (s *Stmts) Get(id StmtID) *Stmt { return s.Arena.Get(uint32(id)) }

func (s *Stmts) NewTypeDefinition(span source.Span, name source.StringID, typ TypeID) StmtID {
	p := s.TypeDefinitions.Allocate(TypeDefinitionData{Name: name, Type: typ})
	return s.new(StmtTypeDefinition, span, PayloadID(p))
}

func (s *Stmts) TypeDefinition(id StmtID) (*TypeDefinitionData, bool) {
	st := s.Get(id)
	if st == nil || st.Kind != StmtTypeDefinition {
		return nil, false
	}
	return s.TypeDefinitions.Get(uint32(st.Payload)), true
}

func (s *Stmts) NewVariableDeclaration(span source.Span, data VariableDeclarationData) StmtID {
	p := s.VariableDeclarations.Allocate(data)
	return s.new(StmtVariableDeclaration, span, PayloadID(p))
}

func (s *Stmts) VariableDeclaration(id StmtID) (*VariableDeclarationData, bool) {
	st := s.Get(id)
	if st == nil || st.Kind != StmtVariableDeclaration {
		return nil, false
	}
	return s.VariableDeclarations.Get(uint32(st.Payload)), true
}

func (s *Stmts) NewAssignment(span source.Span, target ExprID, op AssignOp, value ExprID) StmtID {
	p := s.Assignments.Allocate(AssignmentData{Target: target, Op: op, Value: value})
	return s.new(StmtAssignment, span, PayloadID(p))
}

func (s *Stmts) Assignment(id StmtID) (*AssignmentData, bool) {
	st := s.Get(id)
	if st == nil || st.Kind != StmtAssignment {
		return nil, false
	}
	return s.Assignments.Get(uint32(st.Payload)), true
}

func (s *Stmts) NewFunctionCall(span source.Span, call ExprID) StmtID {
	p := s.FunctionCalls.Allocate(FunctionCallStmtData{Call: call})
	return s.new(StmtFunctionCall, span, PayloadID(p))
}

func (s *Stmts) FunctionCall(id StmtID) (*FunctionCallStmtData, bool) {
	st := s.Get(id)
	if st == nil || st.Kind != StmtFunctionCall {
		return nil, false
	}
	return s.FunctionCalls.Get(uint32(st.Payload)), true
}

func (s *Stmts) NewConditional(span source.Span, blocks []ConditionalBlock, els []StmtID) StmtID {
	p := s.Conditionals.Allocate(ConditionalStmtData{Blocks: blocks, Else: els})
	return s.new(StmtConditional, span, PayloadID(p))
}

func (s *Stmts) Conditional(id StmtID) (*ConditionalStmtData, bool) {
	st := s.Get(id)
	if st == nil || st.Kind != StmtConditional {
		return nil, false
	}
	return s.Conditionals.Get(uint32(st.Payload)), true
}

func (s *Stmts) NewLoop(span source.Span, label string, cond ExprID, body []StmtID) StmtID {
	p := s.Loops.Allocate(LoopStmtData{Label: label, Cond: cond, Body: body})
	return s.new(StmtLoop, span, PayloadID(p))
}

func (s *Stmts) Loop(id StmtID) (*LoopStmtData, bool) {
	st := s.Get(id)
	if st == nil || st.Kind != StmtLoop {
		return nil, false
	}
	return s.Loops.Get(uint32(st.Payload)), true
}

func (s *Stmts) NewFunctionDef(span source.Span, data FunctionDefData) StmtID {
	p := s.FunctionDefs.Allocate(data)
	return s.new(StmtFunctionDefinition, span, PayloadID(p))
}

func (s *Stmts) FunctionDef(id StmtID) (*FunctionDefData, bool) {
	st := s.Get(id)
	if st == nil || st.Kind != StmtFunctionDefinition {
		return nil, false
	}
	return s.FunctionDefs.Get(uint32(st.Payload)), true
}

func (s *Stmts) NewReturn(span source.Span, value ExprID) StmtID {
	p := s.Returns.Allocate(ReturnStmtData{Value: value})
	return s.new(StmtReturn, span, PayloadID(p))
}

func (s *Stmts) Return(id StmtID) (*ReturnStmtData, bool) {
	st := s.Get(id)
	if st == nil || st.Kind != StmtReturn {
		return nil, false
	}
	return s.Returns.Get(uint32(st.Payload)), true
}

func (s *Stmts) NewBreak(span source.Span, label string) StmtID {
	p := s.Breaks.Allocate(BreakStmtData{Label: label})
	return s.new(StmtBreak, span, PayloadID(p))
}

func (s *Stmts) Break(id StmtID) (*BreakStmtData, bool) {
	st := s.Get(id)
	if st == nil || st.Kind != StmtBreak {
		return nil, false
	}
	return s.Breaks.Get(uint32(st.Payload)), true
}

func (s *Stmts) NewContinue(span source.Span, label string) StmtID {
	p := s.Continues.Allocate(ContinueStmtData{Label: label})
	return s.new(StmtContinue, span, PayloadID(p))
}

func (s *Stmts) Continue(id StmtID) (*ContinueStmtData, bool) {
	st := s.Get(id)
	if st == nil || st.Kind != StmtContinue {
		return nil, false
	}
	return s.Continues.Get(uint32(st.Payload)), true
}
