// Package sema implements the semantic analyzer (spec §2 component D,
// §4.3): it registers declarations into a symtab.Table, resolves every
// name reference, and enforces the type-compatibility lattice of
// spec §4.3.1. Back-ends are only invoked once Analyze returns no
// errors (spec §4.8).
package sema

import (
	"github.com/emirpasic/gods/stacks/arraystack"
	"golang.org/x/sync/errgroup"

	"gportugol/internal/ast"
	"gportugol/internal/diag"
	"gportugol/internal/symtab"
)

// Result bundles the artifacts later stages need: the symbol table
// built during analysis and the diagnostics collected along the way.
type Result struct {
	Symbols *symtab.Table
	Sink    *diag.Sink
}

// Analyze runs both passes of spec §4.3 over prog and returns the
// resulting symbol table. Errors are recorded in the returned Sink;
// callers must check Sink.HasErrors() before invoking a back-end.
func Analyze(prog *ast.Node, file string) *Result {
	st := symtab.New()
	sink := diag.New(file)
	a := &analyzer{st: st, sink: sink}

	a.passOneSignatures(prog)
	a.passTwoBodies(prog)

	return &Result{Symbols: st, Sink: sink}
}

type analyzer struct {
	st   *symtab.Table
	sink *diag.Sink
}

// passOneSignatures registers every function's name, return type and
// parameter types in the global scope (spec §4.3 Pass 1).
func (a *analyzer) passOneSignatures(prog *ast.Node) {
	for _, fn := range prog.Children[2:] {
		params := make([]ast.Type, 0, len(fn.Children[0].Children))
		for _, p := range fn.Children[0].Children {
			params = append(params, p.Type)
		}
		sym := &symtab.Symbol{
			Name:       fn.Data.(string),
			Type:       fn.Type,
			Line:       fn.Line,
			IsFunction: true,
			Params:     params,
		}
		if err := a.st.Insert(symtab.GlobalScope, sym); err != nil {
			a.sink.Errorf(fn.Line, "%s", err)
		}
	}
}

// passTwoBodies declares globals, then walks the main block, then
// every function body (spec §4.3 Pass 2).
func (a *analyzer) passTwoBodies(prog *ast.Node) {
	globals := prog.Children[0]
	a.st.SetCurrentScope(symtab.GlobalScope)
	a.declareVarBlock(globals, symtab.GlobalScope)

	main := prog.Children[1]
	a.walkBlock(main, symtab.GlobalScope)

	funcs := prog.Children[2:]
	if len(funcs) <= 1 {
		for _, fn := range funcs {
			a.analyzeFunction(fn)
		}
		return
	}

	// Pre-create every function's scope in the shared table sequentially,
	// before any goroutine starts. symtab.Table.scopes is an ordinary map
	// with no internal locking, so the fan-out below must never make a
	// goroutine create a new top-level entry in it; each goroutine only
	// writes into its own function's already-existing inner map.
	for _, fn := range funcs {
		a.st.SetCurrentScope(fn.Data.(string))
	}

	// One goroutine per function declaration, mirroring the teacher's
	// per-function parallel validation (ir/validate.go ValidateTree)
	// but through golang.org/x/sync/errgroup instead of a hand-rolled
	// WaitGroup + mutex-guarded error slice.
	var g errgroup.Group
	reports := make(chan []diag.Error, len(funcs))
	for _, fn := range funcs {
		fn := fn
		g.Go(func() error {
			sub := &analyzer{st: a.st, sink: diag.New(a.sink.File)}
			sub.analyzeFunction(fn)
			if sub.sink.HasErrors() {
				reports <- sub.sink.Errors()
			}
			return nil
		})
	}
	_ = g.Wait()
	close(reports)
	for errs := range reports {
		for _, e := range errs {
			a.sink.Errorf(e.Line, "%s", e.Message)
		}
	}
}

func (a *analyzer) analyzeFunction(fn *ast.Node) {
	name := fn.Data.(string)
	// The function's scope already exists (passTwoBodies pre-creates it
	// sequentially before any concurrent analyzeFunction call), so Insert
	// below only ever mutates this function's own inner map.
	for _, p := range fn.Children[0].Children {
		sym := &symtab.Symbol{Name: p.Data.(string), Type: p.Type, Line: p.Line}
		if err := a.st.Insert(name, sym); err != nil {
			a.sink.Errorf(p.Line, "%s", err)
		}
	}
	a.declareVarBlock(fn.Children[1], name)
	a.walkBlock(fn.Children[2], name)
}

func (a *analyzer) declareVarBlock(block *ast.Node, scope string) {
	for _, decl := range block.Children {
		typ := decl.Data.(ast.Type)
		for _, nameNode := range decl.Children {
			sym := &symtab.Symbol{Name: nameNode.Data.(string), Type: typ, Line: decl.Line}
			if err := a.st.Insert(scope, sym); err != nil {
				a.sink.Errorf(decl.Line, "%s", err)
			}
		}
	}
}

// walkBlock recursively visits every statement, using a scope stack so
// that nested statement lists (if/while/for bodies) still resolve
// names through the enclosing function scope, then the global scope
// (spec §4.2 resolution order).
func (a *analyzer) walkBlock(n *ast.Node, scope string) {
	scopes := arraystack.New()
	scopes.Push(scope)
	a.walk(n, scopes)
}

func curScope(scopes *arraystack.Stack) string {
	v, _ := scopes.Peek()
	return v.(string)
}

func (a *analyzer) walk(n *ast.Node, scopes *arraystack.Stack) {
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.AssignStmt:
		a.checkAssign(n, scopes)
	case ast.CallStmt:
		a.exprType(n.Children[0], scopes)
	case ast.ReturnStmt:
		a.checkReturn(n, scopes)
	case ast.IfStmt, ast.WhileStmt:
		a.checkCondition(n.Children[0], scopes)
		for _, c := range n.Children[1:] {
			a.walk(c, scopes)
		}
	case ast.RepeatStmt:
		a.walk(n.Children[0], scopes)
		a.checkCondition(n.Children[1], scopes)
	case ast.ForStmt:
		a.checkFor(n, scopes)
	default:
		for _, c := range n.Children {
			a.walk(c, scopes)
		}
	}
}

func (a *analyzer) checkCondition(cond *ast.Node, scopes *arraystack.Stack) {
	t := a.exprType(cond, scopes)
	if t != ast.Logico && t != ast.Inteiro && t != ast.Nulo {
		a.sink.Errorf(cond.Line, "condição deve ser lógica ou inteira, obteve %s", t)
	}
}

func (a *analyzer) checkFor(n *ast.Node, scopes *arraystack.Stack) {
	lv, from, to, step, body := n.Children[0], n.Children[1], n.Children[2], n.Children[3], n.Children[4]
	a.resolveLValue(lv, scopes)
	a.exprType(from, scopes)
	a.exprType(to, scopes)
	if step != nil {
		a.exprType(step, scopes)
	}
	a.walk(body, scopes)
}

func (a *analyzer) checkReturn(n *ast.Node, scopes *arraystack.Stack) {
	scope := curScope(scopes)
	if scope == symtab.GlobalScope {
		// The main block may terminate with "retorne <expr>"; its value
		// becomes the interpreter's process exit code (spec §6.1) and is
		// not checked against a declared return type.
		if len(n.Children) > 0 {
			a.exprType(n.Children[0], scopes)
		}
		return
	}
	fnSym, err := a.st.Lookup(symtab.GlobalScope, scope, false)
	var declared ast.Type
	if err == nil {
		declared = fnSym.Type
	} else {
		declared = ast.Type{Elem: ast.Nulo}
	}
	if len(n.Children) == 0 {
		if declared.Elem != ast.Nulo {
			a.sink.Errorf(n.Line, "função deve retornar um valor do tipo %s", declared)
		}
		return
	}
	got := a.exprType(n.Children[0], scopes)
	if declared.Elem == ast.Nulo {
		a.sink.Errorf(n.Line, "procedimento não pode retornar um valor")
		return
	}
	if !compatible(declared.Elem, got) {
		a.sink.Errorf(n.Line, "retorno incompatível: esperado %s, obteve %s", declared.Elem, got)
	}
}

func (a *analyzer) checkAssign(n *ast.Node, scopes *arraystack.Stack) {
	lv, rhs := n.Children[0], n.Children[1]
	ltyp := a.resolveLValue(lv, scopes)
	rtyp := a.exprType(rhs, scopes)
	if ltyp.Elem == ast.Nulo {
		return // already reported by resolveLValue
	}
	if !compatible(ltyp.Elem, rtyp) {
		a.sink.Errorf(n.Line, "não é possível atribuir %s a variável %q do tipo %s", rtyp, lv.Name(), ltyp.Elem)
	}
}

// resolveLValue looks up an identifier (with optional indices) and
// returns its declared Type, validating index expressions and arity
// against the declared dimensions (spec §3.6 array storage).
func (a *analyzer) resolveLValue(lv *ast.Node, scopes *arraystack.Stack) ast.Type {
	sym, err := a.lookup(lv.Name(), scopes)
	if err != nil {
		a.sink.Errorf(lv.Line, "%s", err)
		return ast.Type{Elem: ast.Nulo}
	}
	idx := lv.Indices()
	if len(idx) == 0 {
		return sym.Type
	}
	if !sym.Type.IsMatrix() {
		a.sink.Errorf(lv.Line, "%q não é uma matriz", lv.Name())
		return ast.Type{Elem: ast.Nulo}
	}
	if len(idx) != len(sym.Type.Dims) {
		a.sink.Errorf(lv.Line, "%q espera %d índices, obteve %d", lv.Name(), len(sym.Type.Dims), len(idx))
	}
	for _, e := range idx {
		t := a.exprType(e, scopes)
		if t != ast.Inteiro {
			a.sink.Errorf(e.Line, "índice deve ser inteiro, obteve %s", t)
		}
	}
	return ast.Type{Elem: sym.Type.Elem}
}

func (a *analyzer) lookup(name string, scopes *arraystack.Stack) (*symtab.Symbol, error) {
	v, _ := scopes.Peek()
	scope := v.(string)
	return a.st.Lookup(scope, name, scope != symtab.GlobalScope)
}

// exprType evaluates the type of an expression sub-tree, recording any
// incompatibility as it goes (spec §4.3 step 3), and annotates n.Type
// so later passes (the C translator's and x86 generator's printf format
// inference, the x86 generator's integer/real operator choice) don't
// need to re-derive it.
func (a *analyzer) exprType(n *ast.Node, scopes *arraystack.Stack) ast.Prim {
	if n == nil {
		return ast.Nulo
	}
	t := a.exprTypeUncached(n, scopes)
	n.Type = ast.Type{Elem: t}
	return t
}

func (a *analyzer) exprTypeUncached(n *ast.Node, scopes *arraystack.Stack) ast.Prim {
	switch n.Kind {
	case ast.IntLit:
		return ast.Inteiro
	case ast.FloatLit:
		return ast.Real
	case ast.CharLit:
		return ast.Caractere
	case ast.StringLit:
		return ast.Literal
	case ast.BoolLit:
		return ast.Logico
	case ast.ParenExpr:
		return a.exprType(n.Children[0], scopes)
	case ast.LValue:
		return a.resolveLValue(n, scopes).Elem
	case ast.CallExpr:
		return a.checkCall(n, scopes)
	case ast.UnaryExpr:
		return a.checkUnary(n, scopes)
	case ast.BinaryExpr:
		return a.checkBinary(n, scopes)
	}
	return ast.Nulo
}

func (a *analyzer) checkUnary(n *ast.Node, scopes *arraystack.Stack) ast.Prim {
	t := a.exprType(n.Children[0], scopes)
	op := n.Data.(string)
	if op == "nao" {
		if t != ast.Logico && t != ast.Inteiro {
			a.sink.Errorf(n.Line, "operador %q requer lógico ou inteiro, obteve %s", op, t)
		}
		return ast.Logico
	}
	if op == "~" {
		if t != ast.Inteiro {
			a.sink.Errorf(n.Line, "operador %q requer inteiro, obteve %s", op, t)
		}
		return ast.Inteiro
	}
	if t != ast.Inteiro && t != ast.Real {
		a.sink.Errorf(n.Line, "operador unário %q não definido para %s", op, t)
	}
	return t
}

func (a *analyzer) checkBinary(n *ast.Node, scopes *arraystack.Stack) ast.Prim {
	lt := a.exprType(n.Children[0], scopes)
	rt := a.exprType(n.Children[1], scopes)
	op := n.Data.(string)

	switch op {
	case "ou", "e":
		if !boolish(lt) || !boolish(rt) {
			a.sink.Errorf(n.Line, "operador %q requer operandos lógicos ou inteiros", op)
		}
		return ast.Logico
	case "|", "^", "&":
		if lt != ast.Inteiro || rt != ast.Inteiro {
			a.sink.Errorf(n.Line, "operador %q requer operandos inteiros", op)
		}
		return ast.Inteiro
	case "%":
		if lt != ast.Inteiro || rt != ast.Inteiro {
			a.sink.Errorf(n.Line, "operador %% requer operandos inteiros")
		}
		return ast.Inteiro
	case "==", "!=", "<", ">", "<=", ">=":
		if !lt.IsNumeric() || !rt.IsNumeric() {
			if lt != rt {
				a.sink.Errorf(n.Line, "operador %q não definido para %s e %s", op, lt, rt)
			}
		}
		return ast.Logico
	case "+", "-", "*", "/":
		if !lt.IsNumeric() || !rt.IsNumeric() {
			a.sink.Errorf(n.Line, "operador %q requer operandos numéricos, obteve %s e %s", op, lt, rt)
			return ast.Inteiro
		}
		if lt == ast.Real || rt == ast.Real {
			return ast.Real
		}
		return ast.Inteiro
	}
	a.sink.Errorf(n.Line, "operador desconhecido %q", op)
	return ast.Nulo
}

func boolish(t ast.Prim) bool { return t == ast.Logico || t == ast.Inteiro }

// compatible implements the assignment/argument compatibility rule of
// spec §4.3.1: same primitive, or both in the numeric subtype.
func compatible(l, r ast.Prim) bool {
	if l == r {
		return true
	}
	return l.IsNumeric() && r.IsNumeric()
}

// checkCall validates arity and per-argument compatibility (spec
// §4.3.1) and special-cases the variadic built-ins (spec §6.2).
func (a *analyzer) checkCall(n *ast.Node, scopes *arraystack.Stack) ast.Prim {
	name := n.Name()
	args := n.Children[0].Children

	if name == symtab.BuiltinPrint {
		for _, arg := range args {
			a.exprType(arg, scopes)
		}
		return ast.Nulo
	}
	if name == symtab.BuiltinRead {
		if len(args) != 0 {
			a.sink.Errorf(n.Line, "%q não aceita argumentos", name)
		}
		return ast.Literal
	}

	sym, err := a.st.Lookup(symtab.GlobalScope, name, false)
	if err != nil || !sym.IsFunction {
		a.sink.Errorf(n.Line, "função %q não declarada", name)
		return ast.Nulo
	}
	if len(args) != len(sym.Params) {
		a.sink.Errorf(n.Line, "função %q espera %d argumentos, obteve %d", name, len(sym.Params), len(args))
		return sym.Type.Elem
	}
	for i, arg := range args {
		at := a.exprType(arg, scopes)
		if !compatible(sym.Params[i].Elem, at) {
			a.sink.Errorf(arg.Line, "função %q argumento %d espera %s, obteve %s", name, i+1, sym.Params[i].Elem, at)
		}
	}
	return sym.Type.Elem
}
