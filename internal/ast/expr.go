package ast

import (
	"ruleslang/internal/source"
)

// ExprKind enumerates the expression node variants.
type ExprKind uint8

const (
	ExprName ExprKind = iota
	ExprContextField
	ExprFieldAccess
	ExprIndexAccess
	ExprCall
	ExprSign
	ExprLogicalNot
	ExprBitwiseNot
	ExprExponent
	ExprInfix
	ExprBinary
	ExprCompare
	ExprConditional
	ExprCompositeLiteral
	ExprInitializer
	ExprBoolLit
	ExprIntLit
	ExprFloatLit
	ExprStringLit
)

// BinaryOp covers the arithmetic/bitwise/logical/concat/range binary
// families (Multiply, Add, Shift, BitwiseAnd, Or, Xor, LogicalAnd, Or, Xor,
// Concatenate, Range).
type BinaryOp uint8

const (
	OpMul BinaryOp = iota
	OpDiv
	OpMod
	OpAdd
	OpSub
	OpShl
	OpShr
	OpShrTriple
	OpBitAnd
	OpBitOr
	OpBitXor
	OpLogicalAnd
	OpLogicalOr
	OpLogicalXor
	OpConcatenate
	OpRange
)

func (op BinaryOp) String() string {
	switch op {
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpShl:
		return "<<"
	case OpShr:
		return ">>"
	case OpShrTriple:
		return ">>>"
	case OpBitAnd:
		return "&"
	case OpBitOr:
		return "|"
	case OpBitXor:
		return "^"
	case OpLogicalAnd:
		return "&&"
	case OpLogicalOr:
		return "||"
	case OpLogicalXor:
		return "^^"
	case OpConcatenate:
		return "~"
	case OpRange:
		return ".."
	default:
		return "?"
	}
}

// CompareOp is one link of a compare chain `e (cmp e)+`.
type CompareOp uint8

const (
	CmpEq CompareOp = iota
	CmpNotEq
	CmpLt
	CmpLtEq
	CmpGt
	CmpGtEq
	CmpIdentityEq
	CmpIdentityNotEq
)

// TypeCompareOp is the optional trailing type-compare of a compare chain
// (`::`, `!:`, `<:`, `>:`, `<<:`, `>>:`, `<:>`).
type TypeCompareOp uint8

const (
	TypeCmpEq TypeCompareOp = iota
	TypeCmpNotEq
	TypeCmpSub
	TypeCmpSuper
	TypeCmpSubShl
	TypeCmpSuperShr
	TypeCmpIncomparable
)

// CompositeLabelKind distinguishes the three label forms a composite
// literal element may carry.
type CompositeLabelKind uint8

const (
	LabelNone CompositeLabelKind = iota
	LabelName
	LabelIndex
	LabelOther
)

type CompositeLabel struct {
	Kind  CompositeLabelKind
	Name  source.StringID // valid when Kind == LabelName
	Index int64           // valid when Kind == LabelIndex
}

type CompositeElement struct {
	Label CompositeLabel
	Value ExprID
}

// Expr is the common header every expression node carries; kind-specific
// fields live in a side arena addressed by Payload (a tagged sum, not a
// deep inheritance tree).
type Expr struct {
	Kind    ExprKind
	Span    source.Span
	Payload PayloadID
}

type (
	ExprNameData struct {
		Name source.StringID
	}
	ExprContextFieldData struct {
		Name source.StringID
	}
	ExprFieldAccessData struct {
		Object ExprID
		Name   source.StringID
	}
	ExprIndexAccessData struct {
		Object ExprID
		Index  ExprID
	}
	ExprCallData struct {
		Callee ExprID
		Args   []ExprID
	}
	ExprSignData struct {
		Negative bool
		Operand  ExprID
	}
	ExprLogicalNotData struct {
		Operand ExprID
	}
	ExprBitwiseNotData struct {
		Operand ExprID
	}
	ExprExponentData struct {
		Base ExprID
		Exp  ExprID
	}
	ExprInfixData struct {
		Left     ExprID
		FuncName source.StringID
		Right    ExprID
	}
	ExprBinaryData struct {
		Op    BinaryOp
		Left  ExprID
		Right ExprID
	}
	ExprCompareData struct {
		Operands []ExprID
		Ops      []CompareOp
		HasType  bool
		TypeOp   TypeCompareOp
		TypeArg  TypeID
	}
	ExprConditionalData struct {
		Cond ExprID
		Then ExprID
		Else ExprID
	}
	ExprCompositeLiteralData struct {
		Elements []CompositeElement
	}
	ExprInitializerData struct {
		NamedType TypeID
		CompLit   ExprID
	}
	ExprBoolLitData struct {
		Value bool
	}
	ExprIntLitData struct {
		Text string
	}
	ExprFloatLitData struct {
		Text string
	}
	ExprStringLitData struct {
		Text string
	}
)

// Exprs owns the Expr arena plus one side arena per kind, following the
// teacher's Payload-indexed SOA layout (internal/ast/exprs.go).
type Exprs struct {
	Arena *Arena[Expr]

	Names             *Arena[ExprNameData]
	ContextFields     *Arena[ExprContextFieldData]
	FieldAccesses     *Arena[ExprFieldAccessData]
	IndexAccesses     *Arena[ExprIndexAccessData]
	Calls             *Arena[ExprCallData]
	Signs             *Arena[ExprSignData]
	LogicalNots       *Arena[ExprLogicalNotData]
	BitwiseNots       *Arena[ExprBitwiseNotData]
	Exponents         *Arena[ExprExponentData]
	Infixes           *Arena[ExprInfixData]
	Binaries          *Arena[ExprBinaryData]
	Compares          *Arena[ExprCompareData]
	Conditionals      *Arena[ExprConditionalData]
	CompositeLiterals *Arena[ExprCompositeLiteralData]
	Initializers      *Arena[ExprInitializerData]
	BoolLits          *Arena[ExprBoolLitData]
	IntLits           *Arena[ExprIntLitData]
	FloatLits         *Arena[ExprFloatLitData]
	StringLits        *Arena[ExprStringLitData]
}

func NewExprs(capHint uint) *Exprs {
	if capHint == 0 {
		capHint = 1 << 6
	}
	return &Exprs{
		Arena:             NewArena[Expr](capHint),
		Names:             NewArena[ExprNameData](capHint),
		ContextFields:     NewArena[ExprContextFieldData](capHint),
		FieldAccesses:     NewArena[ExprFieldAccessData](capHint),
		IndexAccesses:     NewArena[ExprIndexAccessData](capHint),
		Calls:             NewArena[ExprCallData](capHint),
		Signs:             NewArena[ExprSignData](capHint),
		LogicalNots:       NewArena[ExprLogicalNotData](capHint),
		BitwiseNots:       NewArena[ExprBitwiseNotData](capHint),
		Exponents:         NewArena[ExprExponentData](capHint),
		Infixes:           NewArena[ExprInfixData](capHint),
		Binaries:          NewArena[ExprBinaryData](capHint),
		Compares:          NewArena[ExprCompareData](capHint),
		Conditionals:      NewArena[ExprConditionalData](capHint),
		CompositeLiterals: NewArena[ExprCompositeLiteralData](capHint),
		Initializers:      NewArena[ExprInitializerData](capHint),
		BoolLits:          NewArena[ExprBoolLitData](capHint),
		IntLits:           NewArena[ExprIntLitData](capHint),
		FloatLits:         NewArena[ExprFloatLitData](capHint),
		StringLits:        NewArena[ExprStringLitData](capHint),
	}
}

func (e *Exprs) new(kind ExprKind, span source.Span, payload PayloadID) ExprID {
	return ExprID(e.Arena.Allocate(Expr{Kind: kind, Span: span, Payload: payload}))
}

func (e *Exprs) Get(id ExprID) *Expr { return e.Arena.Get(uint32(id)) }

func (e *Exprs) NewName(span source.Span, name source.StringID) ExprID {
	p := e.Names.Allocate(ExprNameData{Name: name})
	return e.new(ExprName, span, PayloadID(p))
}

func (e *Exprs) Name(id ExprID) (*ExprNameData, bool) {
	ex := e.Get(id)
	if ex == nil || ex.Kind != ExprName {
		return nil, false
	}
	return e.Names.Get(uint32(ex.Payload)), true
}

func (e *Exprs) NewContextField(span source.Span, name source.StringID) ExprID {
	p := e.ContextFields.Allocate(ExprContextFieldData{Name: name})
	return e.new(ExprContextField, span, PayloadID(p))
}

func (e *Exprs) ContextField(id ExprID) (*ExprContextFieldData, bool) {
	ex := e.Get(id)
	if ex == nil || ex.Kind != ExprContextField {
		return nil, false
	}
	return e.ContextFields.Get(uint32(ex.Payload)), true
}

func (e *Exprs) NewFieldAccess(span source.Span, object ExprID, name source.StringID) ExprID {
	p := e.FieldAccesses.Allocate(ExprFieldAccessData{Object: object, Name: name})
	return e.new(ExprFieldAccess, span, PayloadID(p))
}

func (e *Exprs) FieldAccess(id ExprID) (*ExprFieldAccessData, bool) {
	ex := e.Get(id)
	if ex == nil || ex.Kind != ExprFieldAccess {
		return nil, false
	}
	return e.FieldAccesses.Get(uint32(ex.Payload)), true
}

func (e *Exprs) NewIndexAccess(span source.Span, object, index ExprID) ExprID {
	p := e.IndexAccesses.Allocate(ExprIndexAccessData{Object: object, Index: index})
	return e.new(ExprIndexAccess, span, PayloadID(p))
}

func (e *Exprs) IndexAccess(id ExprID) (*ExprIndexAccessData, bool) {
	ex := e.Get(id)
	if ex == nil || ex.Kind != ExprIndexAccess {
		return nil, false
	}
	return e.IndexAccesses.Get(uint32(ex.Payload)), true
}

func (e *Exprs) NewCall(span source.Span, callee ExprID, args []ExprID) ExprID {
	p := e.Calls.Allocate(ExprCallData{Callee: callee, Args: args})
	return e.new(ExprCall, span, PayloadID(p))
}

func (e *Exprs) Call(id ExprID) (*ExprCallData, bool) {
	ex := e.Get(id)
	if ex == nil || ex.Kind != ExprCall {
		return nil, false
	}
	return e.Calls.Get(uint32(ex.Payload)), true
}

func (e *Exprs) NewSign(span source.Span, negative bool, operand ExprID) ExprID {
	p := e.Signs.Allocate(ExprSignData{Negative: negative, Operand: operand})
	return e.new(ExprSign, span, PayloadID(p))
}

func (e *Exprs) Sign(id ExprID) (*ExprSignData, bool) {
	ex := e.Get(id)
	if ex == nil || ex.Kind != ExprSign {
		return nil, false
	}
	return e.Signs.Get(uint32(ex.Payload)), true
}

func (e *Exprs) NewLogicalNot(span source.Span, operand ExprID) ExprID {
	p := e.LogicalNots.Allocate(ExprLogicalNotData{Operand: operand})
	return e.new(ExprLogicalNot, span, PayloadID(p))
}

func (e *Exprs) LogicalNot(id ExprID) (*ExprLogicalNotData, bool) {
	ex := e.Get(id)
	if ex == nil || ex.Kind != ExprLogicalNot {
		return nil, false
	}
	return e.LogicalNots.Get(uint32(ex.Payload)), true
}

func (e *Exprs) NewBitwiseNot(span source.Span, operand ExprID) ExprID {
	p := e.BitwiseNots.Allocate(ExprBitwiseNotData{Operand: operand})
	return e.new(ExprBitwiseNot, span, PayloadID(p))
}

func (e *Exprs) BitwiseNot(id ExprID) (*ExprBitwiseNotData, bool) {
	ex := e.Get(id)
	if ex == nil || ex.Kind != ExprBitwiseNot {
		return nil, false
	}
	return e.BitwiseNots.Get(uint32(ex.Payload)), true
}

func (e *Exprs) NewExponent(span source.Span, base, exp ExprID) ExprID {
	p := e.Exponents.Allocate(ExprExponentData{Base: base, Exp: exp})
	return e.new(ExprExponent, span, PayloadID(p))
}

func (e *Exprs) Exponent(id ExprID) (*ExprExponentData, bool) {
	ex := e.Get(id)
	if ex == nil || ex.Kind != ExprExponent {
		return nil, false
	}
	return e.Exponents.Get(uint32(ex.Payload)), true
}

func (e *Exprs) NewInfix(span source.Span, left ExprID, funcName source.StringID, right ExprID) ExprID {
	p := e.Infixes.Allocate(ExprInfixData{Left: left, FuncName: funcName, Right: right})
	return e.new(ExprInfix, span, PayloadID(p))
}

func (e *Exprs) Infix(id ExprID) (*ExprInfixData, bool) {
	ex := e.Get(id)
	if ex == nil || ex.Kind != ExprInfix {
		return nil, false
	}
	return e.Infixes.Get(uint32(ex.Payload)), true
}

func (e *Exprs) NewBinary(span source.Span, op BinaryOp, left, right ExprID) ExprID {
	p := e.Binaries.Allocate(ExprBinaryData{Op: op, Left: left, Right: right})
	return e.new(ExprBinary, span, PayloadID(p))
}

func (e *Exprs) Binary(id ExprID) (*ExprBinaryData, bool) {
	ex := e.Get(id)
	if ex == nil || ex.Kind != ExprBinary {
		return nil, false
	}
	return e.Binaries.Get(uint32(ex.Payload)), true
}

func (e *Exprs) NewCompare(span source.Span, data ExprCompareData) ExprID {
	p := e.Compares.Allocate(data)
	return e.new(ExprCompare, span, PayloadID(p))
}

func (e *Exprs) Compare(id ExprID) (*ExprCompareData, bool) {
	ex := e.Get(id)
	if ex == nil || ex.Kind != ExprCompare {
		return nil, false
	}
	return e.Compares.Get(uint32(ex.Payload)), true
}

func (e *Exprs) NewConditional(span source.Span, cond, then, els ExprID) ExprID {
	p := e.Conditionals.Allocate(ExprConditionalData{Cond: cond, Then: then, Else: els})
	return e.new(ExprConditional, span, PayloadID(p))
}

func (e *Exprs) Conditional(id ExprID) (*ExprConditionalData, bool) {
	ex := e.Get(id)
	if ex == nil || ex.Kind != ExprConditional {
		return nil, false
	}
	return e.Conditionals.Get(uint32(ex.Payload)), true
}

func (e *Exprs) NewCompositeLiteral(span source.Span, elements []CompositeElement) ExprID {
	p := e.CompositeLiterals.Allocate(ExprCompositeLiteralData{Elements: elements})
	return e.new(ExprCompositeLiteral, span, PayloadID(p))
}

func (e *Exprs) CompositeLiteral(id ExprID) (*ExprCompositeLiteralData, bool) {
	ex := e.Get(id)
	if ex == nil || ex.Kind != ExprCompositeLiteral {
		return nil, false
	}
	return e.CompositeLiterals.Get(uint32(ex.Payload)), true
}

func (e *Exprs) NewInitializer(span source.Span, namedType TypeID, compLit ExprID) ExprID {
	p := e.Initializers.Allocate(ExprInitializerData{NamedType: namedType, CompLit: compLit})
	return e.new(ExprInitializer, span, PayloadID(p))
}

func (e *Exprs) Initializer(id ExprID) (*ExprInitializerData, bool) {
	ex := e.Get(id)
	if ex == nil || ex.Kind != ExprInitializer {
		return nil, false
	}
	return e.Initializers.Get(uint32(ex.Payload)), true
}

func (e *Exprs) NewBoolLit(span source.Span, value bool) ExprID {
	p := e.BoolLits.Allocate(ExprBoolLitData{Value: value})
	return e.new(ExprBoolLit, span, PayloadID(p))
}

func (e *Exprs) BoolLit(id ExprID) (*ExprBoolLitData, bool) {
	ex := e.Get(id)
	if ex == nil || ex.Kind != ExprBoolLit {
		return nil, false
	}
	return e.BoolLits.Get(uint32(ex.Payload)), true
}

func (e *Exprs) NewIntLit(span source.Span, text string) ExprID {
	p := e.IntLits.Allocate(ExprIntLitData{Text: text})
	return e.new(ExprIntLit, span, PayloadID(p))
}

func (e *Exprs) IntLit(id ExprID) (*ExprIntLitData, bool) {
	ex := e.Get(id)
	if ex == nil || ex.Kind != ExprIntLit {
		return nil, false
	}
	return e.IntLits.Get(uint32(ex.Payload)), true
}

func (e *Exprs) NewFloatLit(span source.Span, text string) ExprID {
	p := e.FloatLits.Allocate(ExprFloatLitData{Text: text})
	return e.new(ExprFloatLit, span, PayloadID(p))
}

func (e *Exprs) FloatLit(id ExprID) (*ExprFloatLitData, bool) {
	ex := e.Get(id)
	if ex == nil || ex.Kind != ExprFloatLit {
		return nil, false
	}
	return e.FloatLits.Get(uint32(ex.Payload)), true
}

func (e *Exprs) NewStringLit(span source.Span, text string) ExprID {
	p := e.StringLits.Allocate(ExprStringLitData{Text: text})
	return e.new(ExprStringLit, span, PayloadID(p))
}

func (e *Exprs) StringLit(id ExprID) (*ExprStringLitData, bool) {
	ex := e.Get(id)
	if ex == nil || ex.Kind != ExprStringLit {
		return nil, false
	}
	return e.StringLits.Get(uint32(ex.Payload)), true
}
