package diagfmt

import (
	"fmt"
	"strings"

	"ruleslang/internal/ast"
)

// FormatProgram renders every top-level statement of tree, one per line, in
// the dump form used by parser diagnostics and tests:
//
//	VariableDeclaration(let Test t = Add(SignedIntegerLiteral(1) + SignedIntegerLiteral(1)))
func FormatProgram(tree *ast.Tree) string {
	lines := make([]string, 0, len(tree.Stmts))
	for _, id := range tree.Stmts {
		lines = append(lines, FormatStmt(tree, id))
	}
	return strings.Join(lines, "\n")
}

// FormatStmt renders one statement as `NodeName(<content>)`.
func FormatStmt(tree *ast.Tree, id ast.StmtID) string {
	stmt := tree.StmtMem.Get(id)
	if stmt == nil {
		return "<nil>"
	}
	switch stmt.Kind {
	case ast.StmtTypeDefinition:
		d, _ := tree.StmtMem.TypeDefinition(id)
		return fmt.Sprintf("TypeDefinition(def %s = %s)", tree.Strings.MustLookup(d.Name), FormatTypeSyn(tree, d.Type))
	case ast.StmtVariableDeclaration:
		d, _ := tree.StmtMem.VariableDeclaration(id)
		kw := "let"
		if d.Kind == ast.VarVar {
			kw = "var"
		}
		var b strings.Builder
		b.WriteString(kw)
		if d.Type.IsValid() {
			b.WriteString(" " + FormatTypeSyn(tree, d.Type))
		}
		b.WriteString(" " + tree.Strings.MustLookup(d.Name))
		if d.Value.IsValid() {
			b.WriteString(" = " + FormatExpr(tree, d.Value))
		}
		return "VariableDeclaration(" + b.String() + ")"
	case ast.StmtAssignment:
		d, _ := tree.StmtMem.Assignment(id)
		return fmt.Sprintf("Assignment(%s %s %s)", FormatExpr(tree, d.Target), assignOpText(d.Op), FormatExpr(tree, d.Value))
	case ast.StmtFunctionCall:
		d, _ := tree.StmtMem.FunctionCall(id)
		return "FunctionCallStatement(" + FormatExpr(tree, d.Call) + ")"
	case ast.StmtConditional:
		d, _ := tree.StmtMem.Conditional(id)
		var parts []string
		for i, block := range d.Blocks {
			kw := "if"
			if i > 0 {
				kw = "elif"
			}
			parts = append(parts, fmt.Sprintf("%s %s: %s", kw, FormatExpr(tree, block.Cond), formatStmtList(tree, block.Body)))
		}
		if len(d.Else) > 0 {
			parts = append(parts, "else: "+formatStmtList(tree, d.Else))
		}
		return "ConditionalStatement(" + strings.Join(parts, "; ") + ")"
	case ast.StmtLoop:
		d, _ := tree.StmtMem.Loop(id)
		return fmt.Sprintf("LoopStatement(while %s: %s)", FormatExpr(tree, d.Cond), formatStmtList(tree, d.Body))
	case ast.StmtFunctionDefinition:
		d, _ := tree.StmtMem.FunctionDef(id)
		var params []string
		for _, p := range d.Params {
			params = append(params, tree.Strings.MustLookup(p.Name)+": "+FormatTypeSyn(tree, p.Type))
		}
		sig := fmt.Sprintf("func %s(%s)", tree.Strings.MustLookup(d.Name), strings.Join(params, ", "))
		if d.ReturnType.IsValid() {
			sig += " -> " + FormatTypeSyn(tree, d.ReturnType)
		}
		return fmt.Sprintf("FunctionDefinition(%s: %s)", sig, formatStmtList(tree, d.Body))
	case ast.StmtReturn:
		d, _ := tree.StmtMem.Return(id)
		if d.Value.IsValid() {
			return "ReturnStatement(" + FormatExpr(tree, d.Value) + ")"
		}
		return "ReturnStatement()"
	case ast.StmtBreak:
		d, _ := tree.StmtMem.Break(id)
		if d.Label != "" {
			return "BreakStatement(" + d.Label + ")"
		}
		return "BreakStatement()"
	case ast.StmtContinue:
		d, _ := tree.StmtMem.Continue(id)
		if d.Label != "" {
			return "ContinueStatement(" + d.Label + ")"
		}
		return "ContinueStatement()"
	default:
		return fmt.Sprintf("Stmt(%d)", stmt.Kind)
	}
}

func formatStmtList(tree *ast.Tree, ids []ast.StmtID) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, FormatStmt(tree, id))
	}
	return strings.Join(parts, "; ")
}

// FormatExpr renders one expression. Binary nodes use the family name of
// their precedence class (Multiply, Add, Shift, BitwiseAnd, ...), matching
// the expression-variant names of the syntactic tree.
func FormatExpr(tree *ast.Tree, id ast.ExprID) string {
	expr := tree.Exprs.Get(id)
	if expr == nil {
		return "<nil>"
	}
	switch expr.Kind {
	case ast.ExprName:
		d, _ := tree.Exprs.Name(id)
		return tree.Strings.MustLookup(d.Name)
	case ast.ExprContextField:
		d, _ := tree.Exprs.ContextField(id)
		return "ContextFieldAccess(." + tree.Strings.MustLookup(d.Name) + ")"
	case ast.ExprFieldAccess:
		d, _ := tree.Exprs.FieldAccess(id)
		return fmt.Sprintf("FieldAccess(%s.%s)", FormatExpr(tree, d.Object), tree.Strings.MustLookup(d.Name))
	case ast.ExprIndexAccess:
		d, _ := tree.Exprs.IndexAccess(id)
		return fmt.Sprintf("IndexAccess(%s[%s])", FormatExpr(tree, d.Object), FormatExpr(tree, d.Index))
	case ast.ExprCall:
		d, _ := tree.Exprs.Call(id)
		var args []string
		for _, a := range d.Args {
			args = append(args, FormatExpr(tree, a))
		}
		return fmt.Sprintf("FunctionCall(%s(%s))", FormatExpr(tree, d.Callee), strings.Join(args, ", "))
	case ast.ExprSign:
		d, _ := tree.Exprs.Sign(id)
		sign := "+"
		if d.Negative {
			sign = "-"
		}
		return fmt.Sprintf("Sign(%s%s)", sign, FormatExpr(tree, d.Operand))
	case ast.ExprLogicalNot:
		d, _ := tree.Exprs.LogicalNot(id)
		return "LogicalNot(!" + FormatExpr(tree, d.Operand) + ")"
	case ast.ExprBitwiseNot:
		d, _ := tree.Exprs.BitwiseNot(id)
		return "BitwiseNot(~" + FormatExpr(tree, d.Operand) + ")"
	case ast.ExprExponent:
		d, _ := tree.Exprs.Exponent(id)
		return fmt.Sprintf("Exponent(%s ** %s)", FormatExpr(tree, d.Base), FormatExpr(tree, d.Exp))
	case ast.ExprInfix:
		d, _ := tree.Exprs.Infix(id)
		return fmt.Sprintf("Infix(%s %s %s)", FormatExpr(tree, d.Left), tree.Strings.MustLookup(d.FuncName), FormatExpr(tree, d.Right))
	case ast.ExprBinary:
		d, _ := tree.Exprs.Binary(id)
		return fmt.Sprintf("%s(%s %s %s)", binaryFamily(d.Op), FormatExpr(tree, d.Left), d.Op, FormatExpr(tree, d.Right))
	case ast.ExprCompare:
		d, _ := tree.Exprs.Compare(id)
		var b strings.Builder
		b.WriteString(FormatExpr(tree, d.Operands[0]))
		for i, op := range d.Ops {
			b.WriteString(" " + compareOpText(op) + " " + FormatExpr(tree, d.Operands[i+1]))
		}
		if d.HasType {
			b.WriteString(" " + typeCompareOpText(d.TypeOp) + " " + FormatTypeSyn(tree, d.TypeArg))
		}
		return "Compare(" + b.String() + ")"
	case ast.ExprConditional:
		d, _ := tree.Exprs.Conditional(id)
		return fmt.Sprintf("Conditional(%s if %s else %s)", FormatExpr(tree, d.Then), FormatExpr(tree, d.Cond), FormatExpr(tree, d.Else))
	case ast.ExprCompositeLiteral:
		d, _ := tree.Exprs.CompositeLiteral(id)
		var parts []string
		for _, el := range d.Elements {
			parts = append(parts, formatCompositeElement(tree, el))
		}
		return "CompositeLiteral({" + strings.Join(parts, ", ") + "})"
	case ast.ExprInitializer:
		d, _ := tree.Exprs.Initializer(id)
		return fmt.Sprintf("Initializer(%s %s)", FormatTypeSyn(tree, d.NamedType), FormatExpr(tree, d.CompLit))
	case ast.ExprBoolLit:
		d, _ := tree.Exprs.BoolLit(id)
		return fmt.Sprintf("BooleanLiteral(%t)", d.Value)
	case ast.ExprIntLit:
		d, _ := tree.Exprs.IntLit(id)
		return "SignedIntegerLiteral(" + d.Text + ")"
	case ast.ExprFloatLit:
		d, _ := tree.Exprs.FloatLit(id)
		return "FloatLiteral(" + d.Text + ")"
	case ast.ExprStringLit:
		// Text keeps the raw source including the quotes.
		d, _ := tree.Exprs.StringLit(id)
		return "StringLiteral(" + d.Text + ")"
	default:
		return fmt.Sprintf("Expr(%d)", expr.Kind)
	}
}

func formatCompositeElement(tree *ast.Tree, el ast.CompositeElement) string {
	switch el.Label.Kind {
	case ast.LabelName:
		return tree.Strings.MustLookup(el.Label.Name) + ": " + FormatExpr(tree, el.Value)
	case ast.LabelIndex:
		return fmt.Sprintf("%d: %s", el.Label.Index, FormatExpr(tree, el.Value))
	case ast.LabelOther:
		return "other: " + FormatExpr(tree, el.Value)
	default:
		return FormatExpr(tree, el.Value)
	}
}

// FormatTypeSyn renders a syntactic type reference.
func FormatTypeSyn(tree *ast.Tree, id ast.TypeID) string {
	ts := tree.Types.Get(id)
	if ts == nil {
		return "<nil>"
	}
	switch ts.Kind {
	case ast.TypeSynName:
		d, _ := tree.Types.Name(id)
		return tree.Strings.MustLookup(d.Name)
	case ast.TypeSynArray:
		d, _ := tree.Types.Array(id)
		if d.HasSize {
			return fmt.Sprintf("[%s; %d]", FormatTypeSyn(tree, d.Component), d.Size)
		}
		return "[" + FormatTypeSyn(tree, d.Component) + "]"
	case ast.TypeSynTuple:
		d, _ := tree.Types.Tuple(id)
		var parts []string
		for _, m := range d.Members {
			parts = append(parts, FormatTypeSyn(tree, m))
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case ast.TypeSynStruct:
		d, _ := tree.Types.Struct(id)
		var parts []string
		for i, n := range d.Names {
			parts = append(parts, tree.Strings.MustLookup(n)+": "+FormatTypeSyn(tree, d.Types[i]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return "<type>"
	}
}

func binaryFamily(op ast.BinaryOp) string {
	switch op {
	case ast.OpMul, ast.OpDiv, ast.OpMod:
		return "Multiply"
	case ast.OpAdd, ast.OpSub:
		return "Add"
	case ast.OpShl, ast.OpShr, ast.OpShrTriple:
		return "Shift"
	case ast.OpBitAnd:
		return "BitwiseAnd"
	case ast.OpBitOr:
		return "BitwiseOr"
	case ast.OpBitXor:
		return "BitwiseXor"
	case ast.OpLogicalAnd:
		return "LogicalAnd"
	case ast.OpLogicalOr:
		return "LogicalOr"
	case ast.OpLogicalXor:
		return "LogicalXor"
	case ast.OpConcatenate:
		return "Concatenate"
	case ast.OpRange:
		return "Range"
	default:
		return "Binary"
	}
}

func compareOpText(op ast.CompareOp) string {
	switch op {
	case ast.CmpEq:
		return "=="
	case ast.CmpNotEq:
		return "!="
	case ast.CmpLt:
		return "<"
	case ast.CmpLtEq:
		return "<="
	case ast.CmpGt:
		return ">"
	case ast.CmpGtEq:
		return ">="
	case ast.CmpIdentityEq:
		return "==="
	case ast.CmpIdentityNotEq:
		return "!=="
	default:
		return "?"
	}
}

func typeCompareOpText(op ast.TypeCompareOp) string {
	switch op {
	case ast.TypeCmpEq:
		return "::"
	case ast.TypeCmpNotEq:
		return "!:"
	case ast.TypeCmpSub:
		return "<:"
	case ast.TypeCmpSuper:
		return ">:"
	case ast.TypeCmpSubShl:
		return "<<:"
	case ast.TypeCmpSuperShr:
		return ">>:"
	case ast.TypeCmpIncomparable:
		return "<:>"
	default:
		return "?"
	}
}

func assignOpText(op ast.AssignOp) string {
	switch op {
	case ast.AssignPlain:
		return "="
	case ast.AssignExponent:
		return "**="
	case ast.AssignStar:
		return "*="
	case ast.AssignSlash:
		return "/="
	case ast.AssignPercent:
		return "%="
	case ast.AssignPlus:
		return "+="
	case ast.AssignMinus:
		return "-="
	case ast.AssignShl:
		return "<<="
	case ast.AssignShr:
		return ">>="
	case ast.AssignShrTriple:
		return ">>>="
	case ast.AssignAmp:
		return "&="
	case ast.AssignCaret:
		return "^="
	case ast.AssignPipe:
		return "|="
	case ast.AssignAndAnd:
		return "&&="
	case ast.AssignXorXor:
		return "^^="
	case ast.AssignOrOr:
		return "||="
	case ast.AssignTilde:
		return "~="
	default:
		return "="
	}
}
