package diagfmt

import (
	"fmt"
	"strings"

	"ruleslang/internal/ast"
)

// SourceProgram reprints tree as canonical source text that re-parses to
// the same tree: one statement per line, blocks indented one space per
// depth, every non-atomic subexpression parenthesized. The output is a
// fixed point — formatting the re-parse of the output yields the output.
func SourceProgram(tree *ast.Tree) string {
	var b strings.Builder
	writeStmtList(&b, tree, tree.Stmts, 0)
	return b.String()
}

func indentOf(depth int) string { return strings.Repeat(" ", depth) }

func writeStmtList(b *strings.Builder, tree *ast.Tree, ids []ast.StmtID, depth int) {
	for _, id := range ids {
		writeStmt(b, tree, id, depth)
	}
}

func writeStmt(b *strings.Builder, tree *ast.Tree, id ast.StmtID, depth int) {
	stmt := tree.StmtMem.Get(id)
	if stmt == nil {
		return
	}
	ind := indentOf(depth)
	switch stmt.Kind {
	case ast.StmtTypeDefinition:
		d, _ := tree.StmtMem.TypeDefinition(id)
		fmt.Fprintf(b, "%sdef %s = %s\n", ind, tree.Strings.MustLookup(d.Name), FormatTypeSyn(tree, d.Type))
	case ast.StmtVariableDeclaration:
		d, _ := tree.StmtMem.VariableDeclaration(id)
		kw := "let"
		if d.Kind == ast.VarVar {
			kw = "var"
		}
		b.WriteString(ind + kw)
		if d.Type.IsValid() {
			b.WriteString(" " + FormatTypeSyn(tree, d.Type))
		}
		b.WriteString(" " + tree.Strings.MustLookup(d.Name))
		if d.Value.IsValid() {
			b.WriteString(" = " + sourceExpr(tree, d.Value))
		}
		b.WriteString("\n")
	case ast.StmtAssignment:
		d, _ := tree.StmtMem.Assignment(id)
		fmt.Fprintf(b, "%s%s %s %s\n", ind, sourceExpr(tree, d.Target), assignOpText(d.Op), sourceExpr(tree, d.Value))
	case ast.StmtFunctionCall:
		d, _ := tree.StmtMem.FunctionCall(id)
		fmt.Fprintf(b, "%s%s\n", ind, sourceExpr(tree, d.Call))
	case ast.StmtConditional:
		d, _ := tree.StmtMem.Conditional(id)
		for i, block := range d.Blocks {
			kw := "if"
			if i > 0 {
				kw = "elif"
			}
			fmt.Fprintf(b, "%s%s %s:\n", ind, kw, sourceExpr(tree, block.Cond))
			writeStmtList(b, tree, block.Body, depth+1)
		}
		if len(d.Else) > 0 {
			fmt.Fprintf(b, "%selse:\n", ind)
			writeStmtList(b, tree, d.Else, depth+1)
		}
	case ast.StmtLoop:
		d, _ := tree.StmtMem.Loop(id)
		fmt.Fprintf(b, "%swhile %s:\n", ind, sourceExpr(tree, d.Cond))
		writeStmtList(b, tree, d.Body, depth+1)
	case ast.StmtFunctionDefinition:
		d, _ := tree.StmtMem.FunctionDef(id)
		var params []string
		for _, p := range d.Params {
			params = append(params, tree.Strings.MustLookup(p.Name)+": "+FormatTypeSyn(tree, p.Type))
		}
		fmt.Fprintf(b, "%sfunc %s(%s)", ind, tree.Strings.MustLookup(d.Name), strings.Join(params, ", "))
		if d.ReturnType.IsValid() {
			b.WriteString(" -> " + FormatTypeSyn(tree, d.ReturnType))
		}
		b.WriteString(":\n")
		writeStmtList(b, tree, d.Body, depth+1)
	case ast.StmtReturn:
		d, _ := tree.StmtMem.Return(id)
		if d.Value.IsValid() {
			fmt.Fprintf(b, "%sreturn %s\n", ind, sourceExpr(tree, d.Value))
		} else {
			fmt.Fprintf(b, "%sreturn\n", ind)
		}
	case ast.StmtBreak:
		d, _ := tree.StmtMem.Break(id)
		if d.Label != "" {
			fmt.Fprintf(b, "%sbreak %s\n", ind, d.Label)
		} else {
			fmt.Fprintf(b, "%sbreak\n", ind)
		}
	case ast.StmtContinue:
		d, _ := tree.StmtMem.Continue(id)
		if d.Label != "" {
			fmt.Fprintf(b, "%scontinue %s\n", ind, d.Label)
		} else {
			fmt.Fprintf(b, "%scontinue\n", ind)
		}
	}
}

// sourceExpr reprints an expression, fully parenthesizing every compound
// subexpression so the re-parse cannot regroup anything.
func sourceExpr(tree *ast.Tree, id ast.ExprID) string {
	expr := tree.Exprs.Get(id)
	if expr == nil {
		return ""
	}
	switch expr.Kind {
	case ast.ExprName:
		d, _ := tree.Exprs.Name(id)
		return tree.Strings.MustLookup(d.Name)
	case ast.ExprContextField:
		d, _ := tree.Exprs.ContextField(id)
		return "." + tree.Strings.MustLookup(d.Name)
	case ast.ExprFieldAccess:
		d, _ := tree.Exprs.FieldAccess(id)
		return sourceExpr(tree, d.Object) + "." + tree.Strings.MustLookup(d.Name)
	case ast.ExprIndexAccess:
		d, _ := tree.Exprs.IndexAccess(id)
		return sourceExpr(tree, d.Object) + "[" + sourceExpr(tree, d.Index) + "]"
	case ast.ExprCall:
		d, _ := tree.Exprs.Call(id)
		var args []string
		for _, a := range d.Args {
			args = append(args, sourceExpr(tree, a))
		}
		return sourceExpr(tree, d.Callee) + "(" + strings.Join(args, ", ") + ")"
	case ast.ExprSign:
		d, _ := tree.Exprs.Sign(id)
		sign := "+"
		if d.Negative {
			sign = "-"
		}
		return "(" + sign + sourceExpr(tree, d.Operand) + ")"
	case ast.ExprLogicalNot:
		d, _ := tree.Exprs.LogicalNot(id)
		return "(!" + sourceExpr(tree, d.Operand) + ")"
	case ast.ExprBitwiseNot:
		d, _ := tree.Exprs.BitwiseNot(id)
		return "(~" + sourceExpr(tree, d.Operand) + ")"
	case ast.ExprExponent:
		d, _ := tree.Exprs.Exponent(id)
		return "(" + sourceExpr(tree, d.Base) + " ** " + sourceExpr(tree, d.Exp) + ")"
	case ast.ExprInfix:
		d, _ := tree.Exprs.Infix(id)
		return "(" + sourceExpr(tree, d.Left) + " " + tree.Strings.MustLookup(d.FuncName) + " " + sourceExpr(tree, d.Right) + ")"
	case ast.ExprBinary:
		d, _ := tree.Exprs.Binary(id)
		return "(" + sourceExpr(tree, d.Left) + " " + d.Op.String() + " " + sourceExpr(tree, d.Right) + ")"
	case ast.ExprCompare:
		d, _ := tree.Exprs.Compare(id)
		var b strings.Builder
		b.WriteString("(" + sourceExpr(tree, d.Operands[0]))
		for i, op := range d.Ops {
			b.WriteString(" " + compareOpText(op) + " " + sourceExpr(tree, d.Operands[i+1]))
		}
		if d.HasType {
			b.WriteString(" " + typeCompareOpText(d.TypeOp) + " " + FormatTypeSyn(tree, d.TypeArg))
		}
		b.WriteString(")")
		return b.String()
	case ast.ExprConditional:
		d, _ := tree.Exprs.Conditional(id)
		return "(" + sourceExpr(tree, d.Then) + " if " + sourceExpr(tree, d.Cond) + " else " + sourceExpr(tree, d.Else) + ")"
	case ast.ExprCompositeLiteral:
		d, _ := tree.Exprs.CompositeLiteral(id)
		var parts []string
		for _, el := range d.Elements {
			parts = append(parts, sourceCompositeElement(tree, el))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case ast.ExprInitializer:
		d, _ := tree.Exprs.Initializer(id)
		return FormatTypeSyn(tree, d.NamedType) + " " + sourceExpr(tree, d.CompLit)
	case ast.ExprBoolLit:
		d, _ := tree.Exprs.BoolLit(id)
		if d.Value {
			return "true"
		}
		return "false"
	case ast.ExprIntLit:
		d, _ := tree.Exprs.IntLit(id)
		return d.Text
	case ast.ExprFloatLit:
		d, _ := tree.Exprs.FloatLit(id)
		return d.Text
	case ast.ExprStringLit:
		d, _ := tree.Exprs.StringLit(id)
		return d.Text
	default:
		return ""
	}
}

func sourceCompositeElement(tree *ast.Tree, el ast.CompositeElement) string {
	switch el.Label.Kind {
	case ast.LabelName:
		return tree.Strings.MustLookup(el.Label.Name) + ": " + sourceExpr(tree, el.Value)
	case ast.LabelIndex:
		return fmt.Sprintf("%d: %s", el.Label.Index, sourceExpr(tree, el.Value))
	case ast.LabelOther:
		return "_: " + sourceExpr(tree, el.Value)
	default:
		return sourceExpr(tree, el.Value)
	}
}
