package x86gen

import (
	"fmt"
	"math"

	"gportugol/internal/ast"
	"gportugol/internal/symtab"
)

// evalExpr emits code that leaves n's value on top of the evaluation
// stack: one quadword for every kind except Real, which is pushed as a
// double via the SSE scratch register xmm0 (spec §4.7 stack
// discipline).
func (g *Gen) evalExpr(n *ast.Node) ast.Prim {
	switch n.Kind {
	case ast.IntLit:
		g.emit("mov rax, %d", n.Data.(int))
		g.push()
		return ast.Inteiro
	case ast.FloatLit:
		lbl := g.pool.double(math.Float64bits(n.Data.(float64)))
		g.emit("movsd xmm0, [%s]", lbl)
		g.pushXMM()
		return ast.Real
	case ast.CharLit:
		g.emit("mov rax, %d", int(n.Data.(rune)))
		g.push()
		return ast.Inteiro
	case ast.StringLit:
		lbl := g.pool.string(n.Data.(string))
		g.emit("lea rax, [%s]", lbl)
		g.push()
		return ast.Literal
	case ast.BoolLit:
		v := 0
		if n.Data.(bool) {
			v = 1
		}
		g.emit("mov rax, %d", v)
		g.push()
		return ast.Inteiro
	case ast.ParenExpr:
		return g.evalExpr(n.Children[0])
	case ast.LValue:
		return g.evalLValue(n)
	case ast.CallExpr:
		return g.evalCall(n)
	case ast.UnaryExpr:
		return g.evalUnary(n)
	case ast.BinaryExpr:
		return g.evalBinary(n)
	}
	return ast.Nulo
}

func (g *Gen) push()           { g.emit("push rax") }
func (g *Gen) pop(reg string)  { g.emit("pop %s", reg) }

func (g *Gen) pushXMM() {
	g.emit("sub rsp, 8")
	g.emit("movsd [rsp], xmm0")
}

func (g *Gen) popXMM(reg string) {
	g.emit("movsd %s, [rsp]", reg)
	g.emit("add rsp, 8")
}

// evalLValue loads a scalar or indexed matrix element onto the stack.
func (g *Gen) evalLValue(n *ast.Node) ast.Prim {
	loc, ok := g.lookup(n.Name())
	if !ok {
		loc = varLoc{class: varGlobal, name: "gv_" + n.Name()}
	}
	idx := n.Indices()
	if len(idx) == 0 {
		g.loadScalar(loc)
		return loc.typ.Elem
	}
	g.addressOf(loc, idx)
	if loc.typ.Elem == ast.Real {
		g.emit("movsd xmm0, [rax]")
		g.pushXMM()
	} else {
		g.emit("mov rax, [rax]")
		g.push()
	}
	return loc.typ.Elem
}

func (g *Gen) loadScalar(loc varLoc) {
	addr := g.scalarAddr(loc)
	if loc.typ.Elem == ast.Real {
		g.emit("movsd xmm0, %s", addr)
		g.pushXMM()
		return
	}
	g.emit("mov rax, %s", addr)
	g.push()
}

func (g *Gen) scalarAddr(loc varLoc) string {
	if loc.class == varGlobal {
		return "[" + loc.name + "]"
	}
	return fmt.Sprintf("[rbp%+d]", loc.offset)
}

// addressOf computes the effective address of an indexed matrix
// element into rax, evaluating each index expression in turn (row
// major layout, matching internal/interp's Array.offset).
func (g *Gen) addressOf(loc varLoc, idx []*ast.Node) {
	if loc.class == varGlobal {
		g.emit("lea rax, [%s]", loc.name)
	} else {
		g.emit("lea rax, [rbp%+d]", loc.offset)
	}
	g.push() // base address
	for i, e := range idx {
		g.evalExpr(e) // index value (Inteiro), pushed
		g.pop("rbx")  // index
		g.pop("rax")  // base
		stride := 8
		for _, d := range loc.typ.Dims[i+1:] {
			stride *= d
		}
		g.emit("imul rbx, rbx, %d", stride)
		g.emit("add rax, rbx")
		g.push()
	}
	g.pop("rax")
}

func (g *Gen) evalUnary(n *ast.Node) ast.Prim {
	t := g.evalExpr(n.Children[0])
	op := n.Data.(string)
	switch op {
	case "+":
		return t
	case "-":
		if t == ast.Real {
			g.popXMM("xmm0")
			g.emit("xorpd xmm1, xmm1")
			g.emit("subsd xmm1, xmm0")
			g.emit("movsd xmm0, xmm1")
			g.pushXMM()
			return ast.Real
		}
		g.pop("rax")
		g.emit("neg rax")
		g.push()
		return ast.Inteiro
	case "nao":
		g.pop("rax")
		g.emit("test rax, rax")
		g.emit("sete al")
		g.emit("movzx rax, al")
		g.push()
		return ast.Logico
	case "~":
		g.pop("rax")
		g.emit("not rax")
		g.push()
		return ast.Inteiro
	}
	return t
}

// evalBinary evaluates both operands, left then right, then combines
// them; "ou"/"e" short-circuit around a label pair instead (spec §4.4
// short-circuit boolean operators).
func (g *Gen) evalBinary(n *ast.Node) ast.Prim {
	op := n.Data.(string)
	if op == "ou" || op == "e" {
		return g.evalShortCircuit(n, op)
	}

	lt := n.Children[0].Type.Elem
	rt := n.Children[1].Type.Elem
	g.evalExpr(n.Children[0])
	g.evalExpr(n.Children[1])

	if lt == ast.Real || rt == ast.Real {
		g.popXMM("xmm1")
		g.popXMM("xmm0")
		return g.realOp(op)
	}
	g.pop("rbx") // rhs
	g.pop("rax") // lhs
	return g.intOp(n.Line, op)
}

func (g *Gen) realOp(op string) ast.Prim {
	switch op {
	case "+":
		g.emit("addsd xmm0, xmm1")
		g.pushXMM()
		return ast.Real
	case "-":
		g.emit("subsd xmm0, xmm1")
		g.pushXMM()
		return ast.Real
	case "*":
		g.emit("mulsd xmm0, xmm1")
		g.pushXMM()
		return ast.Real
	case "/":
		g.emit("divsd xmm0, xmm1")
		g.pushXMM()
		return ast.Real
	case "==", "!=", "<", ">", "<=", ">=":
		g.emit("comisd xmm0, xmm1")
		g.emitSetcc(op)
		return ast.Logico
	}
	return ast.Real
}

func (g *Gen) intOp(line int, op string) ast.Prim {
	switch op {
	case "+":
		g.emit("add rax, rbx")
		g.push()
		return ast.Inteiro
	case "-":
		g.emit("sub rax, rbx")
		g.push()
		return ast.Inteiro
	case "*":
		g.emit("imul rax, rbx")
		g.push()
		return ast.Inteiro
	case "/":
		g.emit("cqo")
		g.emit("idiv rbx")
		g.push()
		return ast.Inteiro
	case "%":
		g.emit("cqo")
		g.emit("idiv rbx")
		g.emit("mov rax, rdx")
		g.push()
		return ast.Inteiro
	case "|":
		g.emit("or rax, rbx")
		g.push()
		return ast.Inteiro
	case "^":
		g.emit("xor rax, rbx")
		g.push()
		return ast.Inteiro
	case "&":
		g.emit("and rax, rbx")
		g.push()
		return ast.Inteiro
	case "==", "!=", "<", ">", "<=", ">=":
		g.emit("cmp rax, rbx")
		g.emitSetcc(op)
		return ast.Logico
	}
	return ast.Inteiro
}

func (g *Gen) emitSetcc(op string) {
	var cc string
	switch op {
	case "==":
		cc = "sete"
	case "!=":
		cc = "setne"
	case "<":
		cc = "setl"
	case ">":
		cc = "setg"
	case "<=":
		cc = "setle"
	case ">=":
		cc = "setge"
	}
	g.emit("%s al", cc)
	g.emit("movzx rax, al")
	g.push()
}

// evalShortCircuit emits ou/e with early exit, so the right operand is
// never evaluated once the result is already determined (spec §4.4).
func (g *Gen) evalShortCircuit(n *ast.Node, op string) ast.Prim {
	g.evalExpr(n.Children[0])
	g.pop("rax")
	g.emit("test rax, rax")
	skip := g.lbl.new(labelIfEnd)
	if op == "ou" {
		g.emit("jnz %s", skip)
	} else {
		g.emit("jz %s", skip)
	}
	g.evalExpr(n.Children[1])
	g.pop("rax")
	g.emit("test rax, rax")
	g.emit("setne al")
	g.emit("movzx rax, al")
	done := g.lbl.new(labelIfEnd)
	g.emit("jmp %s", done)
	g.label(skip)
	if op == "ou" {
		g.emit("mov rax, 1")
	} else {
		g.emit("mov rax, 0")
	}
	g.label(done)
	g.push()
	return ast.Logico
}

// evalCall evaluates arguments left-to-right and dispatches to the two
// built-ins or a user function (spec §4.7, §6.2).
func (g *Gen) evalCall(n *ast.Node) ast.Prim {
	name := n.Name()
	args := n.Children[0].Children

	switch name {
	case symtab.BuiltinPrint:
		g.genPrint(args)
		return ast.Nulo
	case symtab.BuiltinRead:
		return g.genRead()
	}

	// User-declared functions only ever take scalar/pointer arguments
	// through the integer register file; a Real parameter still works
	// numerically (it is bit-reinterpreted through rax) but loses SSE
	// calling-convention fidelity, a simplification imprima's dedicated
	// xmm-register path below does not need to make.
	argRegsInt := []string{"rdi", "rsi", "rdx", "rcx", "r8", "r9"}
	for _, a := range args {
		g.evalExpr(a)
	}
	// The last argument is on top of the stack: pop in reverse.
	for i := len(args) - 1; i >= 0; i-- {
		if i < len(argRegsInt) {
			g.pop(argRegsInt[i])
		} else {
			g.pop("rax")
		}
	}
	g.emit("call %s", name)
	// genReturn leaves a Real result in xmm0 and any other result in rax.
	ret := n.Type.Elem
	if ret == ast.Real {
		g.pushXMM()
	} else {
		g.push()
	}
	return ret
}

// genPrint lowers imprima(...) to a single libc printf call, inferring
// one format specifier per argument from its static type, mirroring
// internal/ctrans's printfArgs (spec §4.6, §4.7 share the same
// built-in semantics across back-ends).
func (g *Gen) genPrint(args []*ast.Node) {
	format := ""
	for _, a := range args {
		switch a.Type.Elem {
		case ast.Real:
			format += "%g"
		case ast.Caractere:
			format += "%c"
		case ast.Literal:
			format += "%s"
		default:
			format += "%d"
		}
	}
	format += "\n"
	lbl := g.pool.string(format)

	var intArgs, dblArgs []ast.Prim
	for _, a := range args {
		t := g.evalExpr(a)
		if t == ast.Real {
			dblArgs = append(dblArgs, t)
		} else {
			intArgs = append(intArgs, t)
		}
	}
	// Pop in reverse (last evaluated argument is on top): doubles go to
	// xmm registers, everything else to integer argument registers.
	intRegs := []string{"rsi", "rdx", "rcx", "r8", "r9"}
	xmmRegs := []string{"xmm0", "xmm1", "xmm2", "xmm3"}
	ii, di := len(intArgs)-1, len(dblArgs)-1
	for k := len(args) - 1; k >= 0; k-- {
		if args[k].Type.Elem == ast.Real {
			if di >= 0 && di < len(xmmRegs) {
				g.popXMM(xmmRegs[di])
			} else {
				g.popXMM("xmm0")
			}
			di--
		} else {
			if ii >= 0 && ii < len(intRegs) {
				g.pop(intRegs[ii])
			} else {
				g.pop("rax")
			}
			ii--
		}
	}
	g.emit("lea rdi, [%s]", lbl)
	g.emit("mov al, %d", len(dblArgs))
	g.emit("call printf")
}

// genRead lowers leia() to fgets into a per-call scratch buffer in the
// bss segment, trimming the trailing newline (spec §4.7, §6.2).
func (g *Gen) genRead() ast.Prim {
	buf := fmt.Sprintf("__leiabuf%d", len(g.globals))
	g.globals[buf] = varLoc{class: varGlobal, name: "gv_" + buf, typ: ast.Type{Elem: ast.Literal, Dims: []int{512}}}
	g.emit("lea rdi, [gv_%s]", buf)
	g.emit("mov rsi, 512")
	g.emit("mov rdx, [stdin]")
	g.emit("call fgets")
	g.emit("lea rdi, [gv_%s]", buf)
	g.emit("mov rcx, 512")
	g.emit("mov al, 10")
	g.emit("repne scasb")
	done := g.lbl.new(labelIfEnd)
	g.emit("jne %s", done)
	g.emit("mov byte [rdi-1], 0")
	g.label(done)
	g.emit("lea rax, [gv_%s]", buf)
	g.push()
	return ast.Literal
}
