package x86gen

import "gportugol/internal/ast"

func (g *Gen) block(n *ast.Node) {
	for _, stmt := range n.Children {
		g.stmt(stmt)
	}
}

func (g *Gen) stmt(n *ast.Node) {
	switch n.Kind {
	case ast.NullStmt:
	case ast.AssignStmt:
		g.assign(n)
	case ast.CallStmt:
		g.evalExpr(n.Children[0])
	case ast.ReturnStmt:
		g.genReturn(n)
	case ast.IfStmt:
		g.genIf(n)
	case ast.WhileStmt:
		g.genWhile(n)
	case ast.RepeatStmt:
		g.genRepeat(n)
	case ast.ForStmt:
		g.genFor(n)
	}
}

func (g *Gen) assign(n *ast.Node) {
	lv, rhs := n.Children[0], n.Children[1]
	g.evalExpr(rhs)
	g.store(lv)
}

// store pops the value evalExpr just pushed and writes it to lv's
// memory location (spec §4.5 assignment, generalized to x86 addressing
// instead of a frame map write).
func (g *Gen) store(lv *ast.Node) {
	loc, ok := g.lookup(lv.Name())
	if !ok {
		loc = varLoc{class: varGlobal, name: "gv_" + lv.Name()}
	}
	idx := lv.Indices()
	if len(idx) == 0 {
		addr := g.scalarAddr(loc)
		if loc.typ.Elem == ast.Real {
			g.popXMM("xmm0")
			g.emit("movsd %s, xmm0", addr)
		} else {
			g.pop("rax")
			g.emit("mov %s, rax", addr)
		}
		return
	}
	// The value to store is already on the stack (pushed by evalExpr in
	// assign); compute the element address first and stash it in r11,
	// a register addressOf never touches, then pop the value on top of
	// that address so neither clobbers the other.
	g.addressOf(loc, idx)
	g.emit("mov r11, rax")
	if loc.typ.Elem == ast.Real {
		g.popXMM("xmm0")
		g.emit("movsd [r11], xmm0")
	} else {
		g.pop("rax")
		g.emit("mov [r11], rax")
	}
}

func (g *Gen) genReturn(n *ast.Node) {
	if len(n.Children) == 0 {
		g.emit("xor rax, rax")
	} else {
		t := g.evalExpr(n.Children[0])
		if t == ast.Real {
			g.popXMM("xmm0")
		} else {
			g.pop("rax")
		}
	}
	g.emit("mov rsp, rbp")
	g.emit("pop rbp")
	g.emit("ret")
}

func (g *Gen) genIf(n *ast.Node) {
	cond, thenBlk := n.Children[0], n.Children[1]
	elseLbl := g.lbl.new(labelIfElse)
	endLbl := g.lbl.new(labelIfEnd)

	g.evalExpr(cond)
	g.pop("rax")
	g.emit("test rax, rax")
	g.emit("jz %s", elseLbl)
	g.block(thenBlk)
	g.emit("jmp %s", endLbl)
	g.label(elseLbl)
	if len(n.Children) > 2 {
		g.block(n.Children[2])
	}
	g.label(endLbl)
}

func (g *Gen) genWhile(n *ast.Node) {
	head := g.lbl.new(labelWhileHead)
	end := g.lbl.new(labelWhileEnd)
	g.label(head)
	g.evalExpr(n.Children[0])
	g.pop("rax")
	g.emit("test rax, rax")
	g.emit("jz %s", end)
	g.block(n.Children[1])
	g.emit("jmp %s", head)
	g.label(end)
}

func (g *Gen) genRepeat(n *ast.Node) {
	head := g.lbl.new(labelRepeatHead)
	g.label(head)
	g.block(n.Children[0])
	g.evalExpr(n.Children[1])
	g.pop("rax")
	g.emit("test rax, rax")
	g.emit("jz %s", head)
}

// genFor lowers the closed-interval "de A ate B [passo C]" loop to a
// counted jump pair, leaving the loop variable holding B once the loop
// exits (spec §4.5 for-loop end state, shared with internal/interp).
func (g *Gen) genFor(n *ast.Node) {
	negative := n.Data.(bool)
	lv, from, to, step, body := n.Children[0], n.Children[1], n.Children[2], n.Children[3], n.Children[4]

	g.evalExpr(from)
	g.store(lv)

	head := g.lbl.new(labelForHead)
	end := g.lbl.new(labelForEnd)
	g.label(head)

	g.evalExpr(lv)
	g.pop("rax")
	g.evalExpr(to)
	g.pop("rbx")
	g.emit("cmp rax, rbx")
	if negative {
		g.emit("jl %s", end)
	} else {
		g.emit("jg %s", end)
	}

	g.block(body)

	g.evalExpr(lv)
	g.pop("rax")
	if step != nil {
		g.evalExpr(step)
		g.pop("rbx")
	} else {
		g.emit("mov rbx, 1")
	}
	if negative {
		g.emit("sub rax, rbx")
	} else {
		g.emit("add rax, rbx")
	}
	g.push()
	g.store(lv)
	g.emit("jmp %s", head)
	g.label(end)

	g.evalExpr(to)
	g.store(lv)
}
