// Package ctrans translates an analyzed program into a single C source
// file (spec §2 component F, §4.6). It walks the same tree the
// interpreter walks, but instead of evaluating it, prints equivalent C
// statements: a naive, unoptimized translation, one G-Portugol
// construct to one C construct.
package ctrans

import (
	"fmt"
	"strconv"
	"strings"

	"gportugol/internal/ast"
	"gportugol/internal/symtab"
)

// Translate renders prog as a freestanding C99 source file.
func Translate(prog *ast.Node, symbols *symtab.Table) string {
	var b strings.Builder
	b.WriteString("#include <stdio.h>\n")
	b.WriteString("#include <string.h>\n\n")
	b.WriteString("static char gpt_leia_buf[4096];\n")
	b.WriteString("char *gpt_leia(void) {\n")
	b.WriteString("  if (!fgets(gpt_leia_buf, sizeof(gpt_leia_buf), stdin)) gpt_leia_buf[0] = '\\0';\n")
	b.WriteString("  gpt_leia_buf[strcspn(gpt_leia_buf, \"\\n\")] = '\\0';\n")
	b.WriteString("  return gpt_leia_buf;\n")
	b.WriteString("}\n\n")

	emitForwardDecls(&b, prog)
	b.WriteString("\n")

	emitVarBlock(&b, prog.Children[0], "")

	for _, fn := range prog.Children[2:] {
		emitFunction(&b, fn)
		b.WriteString("\n")
	}

	b.WriteString("int main(void) {\n")
	c := &cgen{b: &b, indent: 1}
	c.block(prog.Children[1])
	c.line("return 0;")
	b.WriteString("}\n")
	return b.String()
}

func emitForwardDecls(b *strings.Builder, prog *ast.Node) {
	for _, fn := range prog.Children[2:] {
		fmt.Fprintf(b, "%s %s(%s);\n", cType(fn.Type), fn.Data.(string), paramList(fn.Children[0]))
	}
}

func paramList(paramList *ast.Node) string {
	if len(paramList.Children) == 0 {
		return "void"
	}
	var parts []string
	for _, p := range paramList.Children {
		parts = append(parts, cDecl(p.Type, p.Data.(string)))
	}
	return strings.Join(parts, ", ")
}

func emitVarBlock(b *strings.Builder, block *ast.Node, indent string) {
	for _, decl := range block.Children {
		typ := decl.Data.(ast.Type)
		var names []string
		for _, n := range decl.Children {
			names = append(names, n.Data.(string)+dimsSuffix(typ.Dims))
		}
		fmt.Fprintf(b, "%s%s %s;\n", indent, cPrim(typ.Elem), strings.Join(names, ", "))
	}
}

func emitFunction(b *strings.Builder, fn *ast.Node) {
	fmt.Fprintf(b, "%s %s(%s) {\n", cType(fn.Type), fn.Data.(string), paramList(fn.Children[0]))
	emitVarBlock(b, fn.Children[1], "  ")
	c := &cgen{b: b, indent: 1}
	c.block(fn.Children[2])
	b.WriteString("}\n")
}

// cPrim maps a primitive type tag to its C spelling (spec §4.6).
func cPrim(p ast.Prim) string {
	switch p {
	case ast.Inteiro:
		return "int"
	case ast.Real:
		return "double"
	case ast.Caractere:
		return "char"
	case ast.Literal:
		return "char*"
	case ast.Logico:
		return "int"
	case ast.Nulo:
		return "void"
	}
	return "void"
}

func cType(t ast.Type) string { return cPrim(t.Elem) }

func cDecl(t ast.Type, name string) string {
	return cPrim(t.Elem) + " " + name + dimsSuffix(t.Dims)
}

func dimsSuffix(dims []int) string {
	var s strings.Builder
	for _, d := range dims {
		fmt.Fprintf(&s, "[%d]", d)
	}
	return s.String()
}

// cgen walks statement nodes, printing one indented C statement line
// per node.
type cgen struct {
	b      *strings.Builder
	indent int
}

func (c *cgen) line(s string) {
	fmt.Fprintf(c.b, "%s%s\n", strings.Repeat("  ", c.indent), s)
}

func (c *cgen) block(n *ast.Node) {
	for _, stmt := range n.Children {
		c.stmt(stmt)
	}
}

func (c *cgen) stmt(n *ast.Node) {
	switch n.Kind {
	case ast.NullStmt:
	case ast.AssignStmt:
		c.line(fmt.Sprintf("%s = %s;", cExpr(n.Children[0]), cExpr(n.Children[1])))
	case ast.CallStmt:
		c.line(cExpr(n.Children[0]) + ";")
	case ast.ReturnStmt:
		if len(n.Children) == 0 {
			c.line("return;")
		} else {
			c.line(fmt.Sprintf("return %s;", cExpr(n.Children[0])))
		}
	case ast.IfStmt:
		c.line(fmt.Sprintf("if (%s) {", cExpr(n.Children[0])))
		c.indent++
		c.block(n.Children[1])
		c.indent--
		if len(n.Children) > 2 {
			c.line("} else {")
			c.indent++
			c.block(n.Children[2])
			c.indent--
		}
		c.line("}")
	case ast.WhileStmt:
		c.line(fmt.Sprintf("while (%s) {", cExpr(n.Children[0])))
		c.indent++
		c.block(n.Children[1])
		c.indent--
		c.line("}")
	case ast.RepeatStmt:
		c.line("do {")
		c.indent++
		c.block(n.Children[0])
		c.indent--
		c.line(fmt.Sprintf("} while (!(%s));", cExpr(n.Children[1])))
	case ast.ForStmt:
		c.forStmt(n)
	}
}

func (c *cgen) forStmt(n *ast.Node) {
	negative := n.Data.(bool)
	lv, from, to, step, body := n.Children[0], n.Children[1], n.Children[2], n.Children[3], n.Children[4]
	lvName := cExpr(lv)
	stepExpr := "1"
	if step != nil {
		stepExpr = cExpr(step)
	}
	cmp, incr := "<=", "+="
	if negative {
		cmp, incr = ">=", "-="
	}
	c.line(fmt.Sprintf("for (%s = %s; %s %s %s; %s %s %s) {",
		lvName, cExpr(from), lvName, cmp, cExpr(to), lvName, incr, stepExpr))
	c.indent++
	c.block(body)
	c.indent--
	c.line("}")
	// The C for-loop leaves lvName one step past the bound; pin it back to
	// the bound to match the closed-interval contract the interpreter and
	// x86 back-ends both honor (spec §4.5, §9).
	c.line(fmt.Sprintf("%s = %s;", lvName, cExpr(to)))
}

// cExpr renders an expression node as a C expression string. Operator
// precedence is preserved by wrapping every BinaryExpr in parentheses
// rather than tracking precedence levels (spec §4.6 "naive
// translation").
func cExpr(n *ast.Node) string {
	switch n.Kind {
	case ast.IntLit:
		return strconv.Itoa(n.Data.(int))
	case ast.FloatLit:
		return strconv.FormatFloat(n.Data.(float64), 'g', -1, 64)
	case ast.CharLit:
		return fmt.Sprintf("%d", n.Data.(rune))
	case ast.StringLit:
		return strconv.Quote(n.Data.(string))
	case ast.BoolLit:
		if n.Data.(bool) {
			return "1"
		}
		return "0"
	case ast.ParenExpr:
		return "(" + cExpr(n.Children[0]) + ")"
	case ast.LValue:
		return cLValue(n)
	case ast.CallExpr:
		return cCall(n)
	case ast.UnaryExpr:
		return cUnary(n)
	case ast.BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", cExpr(n.Children[0]), cBinOp(n.Data.(string)), cExpr(n.Children[1]))
	}
	return ""
}

func cLValue(n *ast.Node) string {
	s := n.Name()
	for _, idx := range n.Indices() {
		s += "[" + cExpr(idx) + "]"
	}
	return s
}

func cUnary(n *ast.Node) string {
	op := n.Data.(string)
	switch op {
	case "nao":
		return "!(" + cExpr(n.Children[0]) + ")"
	case "~":
		return "~(" + cExpr(n.Children[0]) + ")"
	default:
		return op + "(" + cExpr(n.Children[0]) + ")"
	}
}

func cBinOp(op string) string {
	switch op {
	case "ou":
		return "||"
	case "e":
		return "&&"
	}
	return op
}

// cCall renders a function call, special-casing the two built-ins as
// printf/scanf invocations (spec §4.6).
func cCall(n *ast.Node) string {
	name := n.Name()
	args := n.Children[0].Children

	switch name {
	case symtab.BuiltinPrint:
		return "printf(" + strings.Join(printfArgs(args), ", ") + ")"
	case symtab.BuiltinRead:
		return "gpt_leia()"
	}

	var argStrs []string
	for _, a := range args {
		argStrs = append(argStrs, cExpr(a))
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(argStrs, ", "))
}

// printfArgs builds a single printf("%s%d...", args...) call out of
// imprima's argument list, inferring one format specifier per argument
// from its static type (set by the semantic analyzer).
func printfArgs(args []*ast.Node) []string {
	var format strings.Builder
	var values []string
	for _, a := range args {
		switch a.Type.Elem {
		case ast.Real:
			format.WriteString("%g")
		case ast.Caractere:
			format.WriteString("%c")
		case ast.Literal:
			format.WriteString("%s")
		case ast.Logico:
			format.WriteString("%d")
		default:
			format.WriteString("%d")
		}
		values = append(values, cExpr(a))
	}
	format.WriteByte('\n')
	return append([]string{strconv.Quote(format.String())}, values...)
}
