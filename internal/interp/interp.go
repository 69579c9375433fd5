// Package interp implements the tree-walking interpreter back-end
// (spec §2 component E, §4.5). It executes an already-analyzed
// *ast.Node tree directly and does not consult the symbol table: each
// function's declared return type is read from its FuncDecl node. Scope
// resolution at run time
// follows the same "current frame, then global" order the semantic
// analyzer enforced statically (spec §4.2).
package interp

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"gportugol/internal/ast"
	"gportugol/internal/symtab"
)

// RuntimeError is a diagnosable failure raised while executing a
// program that passed semantic analysis: division by zero, an
// out-of-range matrix index, or similar (spec §4.8 "errors possible
// only at runtime").
type RuntimeError struct {
	Line    int
	Message string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%d: %s", e.Line, e.Message)
}

func runtimeErrf(line int, format string, args ...interface{}) error {
	return &RuntimeError{Line: line, Message: fmt.Sprintf(format, args...)}
}

// frame holds one function activation's scalar and matrix storage
// (spec §3.6). The global frame is also a *frame, shared by every call
// as the fallback scope.
type frame struct {
	vars   map[string]Value
	arrays map[string]*Array
}

func newFrame() *frame {
	return &frame{vars: map[string]Value{}, arrays: map[string]*Array{}}
}

// Interp executes a single program (spec §4.5).
type Interp struct {
	funcs  map[string]*ast.Node
	global *frame
	out    io.Writer
	in     *bufio.Reader
}

// New returns an Interp ready to Run prog, reading leia() input from in
// and writing imprima() output to out.
func New(prog *ast.Node, in io.Reader, out io.Writer) *Interp {
	it := &Interp{
		funcs:  map[string]*ast.Node{},
		global: newFrame(),
		out:    out,
		in:     bufio.NewReader(in),
	}
	for _, fn := range prog.Children[2:] {
		it.funcs[fn.Data.(string)] = fn
	}
	return it
}

// Run executes prog's global declarations and main block, then returns
// the process exit code (spec §6.1): zero unless the main block ends
// with "retorne <expr>", in which case the expression's integer value
// is the exit code.
func (it *Interp) Run(prog *ast.Node) (int, error) {
	declareBlock(it.global, prog.Children[0])
	ret, returned, err := it.execBlock(prog.Children[1], it.global)
	if err != nil {
		return 1, err
	}
	if returned {
		return ret.toInt(), nil
	}
	return 0, nil
}

// declareBlock zero-initializes every name in a VarBlock into fr (spec
// §3.6 "declarations start at their type's zero value").
func declareBlock(fr *frame, block *ast.Node) {
	for _, decl := range block.Children {
		typ := decl.Data.(ast.Type)
		for _, nameNode := range decl.Children {
			name := nameNode.Data.(string)
			if typ.IsMatrix() {
				fr.arrays[name] = newArray(typ.Elem, typ.Dims)
			} else {
				fr.vars[name] = zero(typ.Elem)
			}
		}
	}
}

func (it *Interp) lookupVar(fr *frame, name string) (Value, bool) {
	if v, ok := fr.vars[name]; ok {
		return v, true
	}
	if fr != it.global {
		if v, ok := it.global.vars[name]; ok {
			return v, true
		}
	}
	return Value{}, false
}

func (it *Interp) lookupArray(fr *frame, name string) (*Array, bool) {
	if a, ok := fr.arrays[name]; ok {
		return a, true
	}
	if fr != it.global {
		if a, ok := it.global.arrays[name]; ok {
			return a, true
		}
	}
	return nil, false
}

func (it *Interp) setVar(fr *frame, name string, v Value) {
	if _, ok := fr.vars[name]; ok {
		fr.vars[name] = v
		return
	}
	if fr != it.global {
		if _, ok := it.global.vars[name]; ok {
			it.global.vars[name] = v
			return
		}
	}
	fr.vars[name] = v
}

// execBlock runs each statement of n in order, stopping early if a
// ReturnStmt is reached; returned reports whether that happened.
func (it *Interp) execBlock(n *ast.Node, fr *frame) (Value, bool, error) {
	for _, stmt := range n.Children {
		v, returned, err := it.execStmt(stmt, fr)
		if err != nil || returned {
			return v, returned, err
		}
	}
	return Value{}, false, nil
}

func (it *Interp) execStmt(n *ast.Node, fr *frame) (Value, bool, error) {
	switch n.Kind {
	case ast.NullStmt:
		return Value{}, false, nil
	case ast.AssignStmt:
		return Value{}, false, it.execAssign(n, fr)
	case ast.CallStmt:
		_, err := it.evalCall(n.Children[0], fr)
		return Value{}, false, err
	case ast.ReturnStmt:
		if len(n.Children) == 0 {
			return Value{}, true, nil
		}
		v, err := it.evalExpr(n.Children[0], fr)
		return v, true, err
	case ast.IfStmt:
		cond, err := it.evalExpr(n.Children[0], fr)
		if err != nil {
			return Value{}, false, err
		}
		if cond.toBool() {
			return it.execBlock(n.Children[1], fr)
		}
		if len(n.Children) > 2 {
			return it.execBlock(n.Children[2], fr)
		}
		return Value{}, false, nil
	case ast.WhileStmt:
		for {
			cond, err := it.evalExpr(n.Children[0], fr)
			if err != nil {
				return Value{}, false, err
			}
			if !cond.toBool() {
				return Value{}, false, nil
			}
			v, returned, err := it.execBlock(n.Children[1], fr)
			if err != nil || returned {
				return v, returned, err
			}
		}
	case ast.RepeatStmt:
		for {
			v, returned, err := it.execBlock(n.Children[0], fr)
			if err != nil || returned {
				return v, returned, err
			}
			cond, err := it.evalExpr(n.Children[1], fr)
			if err != nil {
				return Value{}, false, err
			}
			if cond.toBool() {
				return Value{}, false, nil
			}
		}
	case ast.ForStmt:
		return it.execFor(n, fr)
	}
	return Value{}, false, runtimeErrf(n.Line, "comando não executável: %s", n.Kind)
}

func (it *Interp) execAssign(n *ast.Node, fr *frame) error {
	lv, rhs := n.Children[0], n.Children[1]
	rv, err := it.evalExpr(rhs, fr)
	if err != nil {
		return err
	}
	return it.storeLValue(lv, fr, rv)
}

func (it *Interp) storeLValue(lv *ast.Node, fr *frame, v Value) error {
	name := lv.Name()
	idx := lv.Indices()
	if len(idx) == 0 {
		cur, ok := it.lookupVar(fr, name)
		elem := ast.Inteiro
		if ok {
			elem = cur.Kind
		}
		it.setVar(fr, name, coerceTo(elem, v))
		return nil
	}
	arr, ok := it.lookupArray(fr, name)
	if !ok {
		return runtimeErrf(lv.Line, "matriz %q não encontrada", name)
	}
	idxVals := make([]int, len(idx))
	for i, e := range idx {
		iv, err := it.evalExpr(e, fr)
		if err != nil {
			return err
		}
		idxVals[i] = iv.toInt()
	}
	off, err := arr.offset(idxVals)
	if err != nil {
		return runtimeErrf(lv.Line, "%s", err)
	}
	arr.Data[off] = coerceTo(arr.Elem, v)
	return nil
}

func (it *Interp) execFor(n *ast.Node, fr *frame) (Value, bool, error) {
	negative := n.Data.(bool)
	lv, fromN, toN, stepN, body := n.Children[0], n.Children[1], n.Children[2], n.Children[3], n.Children[4]

	fromV, err := it.evalExpr(fromN, fr)
	if err != nil {
		return Value{}, false, err
	}
	toV, err := it.evalExpr(toN, fr)
	if err != nil {
		return Value{}, false, err
	}
	step := 1
	if stepN != nil {
		sv, err := it.evalExpr(stepN, fr)
		if err != nil {
			return Value{}, false, err
		}
		step = sv.toInt()
	}
	if negative {
		step = -step
	}

	cur := fromV.toInt()
	bound := toV.toInt()
	for {
		if negative {
			if cur < bound {
				break
			}
		} else {
			if cur > bound {
				break
			}
		}
		if err := it.storeLValue(lv, fr, Value{Kind: ast.Inteiro, I: cur}); err != nil {
			return Value{}, false, err
		}
		v, returned, err := it.execBlock(body, fr)
		if err != nil || returned {
			return v, returned, err
		}
		cur += step
	}
	// The loop variable ends holding the bound, per the for-loop's
	// closed-interval contract.
	_ = it.storeLValue(lv, fr, Value{Kind: ast.Inteiro, I: bound})
	return Value{}, false, nil
}

func (it *Interp) evalExpr(n *ast.Node, fr *frame) (Value, error) {
	switch n.Kind {
	case ast.IntLit:
		return Value{Kind: ast.Inteiro, I: n.Data.(int)}, nil
	case ast.FloatLit:
		return Value{Kind: ast.Real, R: n.Data.(float64)}, nil
	case ast.CharLit:
		return Value{Kind: ast.Caractere, I: int(n.Data.(rune))}, nil
	case ast.StringLit:
		return Value{Kind: ast.Literal, S: n.Data.(string)}, nil
	case ast.BoolLit:
		return Value{Kind: ast.Logico, B: n.Data.(bool)}, nil
	case ast.ParenExpr:
		return it.evalExpr(n.Children[0], fr)
	case ast.LValue:
		return it.loadLValue(n, fr)
	case ast.CallExpr:
		return it.evalCall(n, fr)
	case ast.UnaryExpr:
		return it.evalUnary(n, fr)
	case ast.BinaryExpr:
		return it.evalBinary(n, fr)
	}
	return Value{}, runtimeErrf(n.Line, "expressão não avaliável: %s", n.Kind)
}

func (it *Interp) loadLValue(n *ast.Node, fr *frame) (Value, error) {
	name := n.Name()
	idx := n.Indices()
	if len(idx) == 0 {
		if v, ok := it.lookupVar(fr, name); ok {
			return v, nil
		}
		return Value{}, runtimeErrf(n.Line, "variável %q não encontrada", name)
	}
	arr, ok := it.lookupArray(fr, name)
	if !ok {
		return Value{}, runtimeErrf(n.Line, "matriz %q não encontrada", name)
	}
	idxVals := make([]int, len(idx))
	for i, e := range idx {
		iv, err := it.evalExpr(e, fr)
		if err != nil {
			return Value{}, err
		}
		idxVals[i] = iv.toInt()
	}
	off, err := arr.offset(idxVals)
	if err != nil {
		return Value{}, runtimeErrf(n.Line, "%s", err)
	}
	return arr.Data[off], nil
}

// evalCall dispatches to the two built-ins (spec §6.2) or to a
// user-declared function, binding scalar parameters by value and
// matrix parameters by copy (spec §4.5).
func (it *Interp) evalCall(n *ast.Node, fr *frame) (Value, error) {
	name := n.Name()
	args := n.Children[0].Children

	switch name {
	case symtab.BuiltinPrint:
		var b strings.Builder
		for _, a := range args {
			v, err := it.evalExpr(a, fr)
			if err != nil {
				return Value{}, err
			}
			b.WriteString(v.Text())
		}
		b.WriteByte('\n')
		fmt.Fprint(it.out, b.String())
		return Value{}, nil
	case symtab.BuiltinRead:
		line, _ := it.in.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		return Value{Kind: ast.Literal, S: line}, nil
	}

	fn, ok := it.funcs[name]
	if !ok {
		return Value{}, runtimeErrf(n.Line, "função %q não encontrada", name)
	}
	callee := newFrame()
	params := fn.Children[0].Children
	for i, p := range params {
		pname := p.Data.(string)
		if p.Type.IsMatrix() {
			src, err := it.evalArrayArg(args[i], fr)
			if err != nil {
				return Value{}, err
			}
			callee.arrays[pname] = src.clone()
			continue
		}
		v, err := it.evalExpr(args[i], fr)
		if err != nil {
			return Value{}, err
		}
		callee.vars[pname] = coerceTo(p.Type.Elem, v)
	}
	declareBlock(callee, fn.Children[1])
	ret, returned, err := it.execBlock(fn.Children[2], callee)
	if err != nil {
		return Value{}, err
	}
	if !returned {
		return zero(fn.Type.Elem), nil
	}
	return ret, nil
}

// evalArrayArg resolves a matrix argument expression to the whole
// array it names; matrix arguments must be bare variable references
// (spec §4.5 "matrices are passed by copy, never by index").
func (it *Interp) evalArrayArg(n *ast.Node, fr *frame) (*Array, error) {
	if n.Kind != ast.LValue || len(n.Indices()) != 0 {
		return nil, runtimeErrf(n.Line, "argumento de matriz deve ser uma referência de variável")
	}
	arr, ok := it.lookupArray(fr, n.Name())
	if !ok {
		return nil, runtimeErrf(n.Line, "matriz %q não encontrada", n.Name())
	}
	return arr, nil
}

func (it *Interp) evalUnary(n *ast.Node, fr *frame) (Value, error) {
	v, err := it.evalExpr(n.Children[0], fr)
	if err != nil {
		return Value{}, err
	}
	switch n.Data.(string) {
	case "+":
		return v, nil
	case "-":
		if v.Kind == ast.Real {
			return Value{Kind: ast.Real, R: -v.toReal()}, nil
		}
		return Value{Kind: ast.Inteiro, I: -v.toInt()}, nil
	case "nao":
		return Value{Kind: ast.Logico, B: !v.toBool()}, nil
	case "~":
		return Value{Kind: ast.Inteiro, I: ^v.toInt()}, nil
	}
	return Value{}, runtimeErrf(n.Line, "operador unário desconhecido")
}

// evalBinary evaluates a binary expression, short-circuiting "ou"/"e"
// and applying the decimal-string equality rule for real comparisons
// (spec §4.4, §9): two reals compare equal by their default text
// rendering, not by raw float bits.
func (it *Interp) evalBinary(n *ast.Node, fr *frame) (Value, error) {
	op := n.Data.(string)

	if op == "ou" || op == "e" {
		l, err := it.evalExpr(n.Children[0], fr)
		if err != nil {
			return Value{}, err
		}
		if op == "ou" && l.toBool() {
			return Value{Kind: ast.Logico, B: true}, nil
		}
		if op == "e" && !l.toBool() {
			return Value{Kind: ast.Logico, B: false}, nil
		}
		r, err := it.evalExpr(n.Children[1], fr)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: ast.Logico, B: r.toBool()}, nil
	}

	l, err := it.evalExpr(n.Children[0], fr)
	if err != nil {
		return Value{}, err
	}
	r, err := it.evalExpr(n.Children[1], fr)
	if err != nil {
		return Value{}, err
	}

	switch op {
	case "|":
		return Value{Kind: ast.Inteiro, I: l.toInt() | r.toInt()}, nil
	case "^":
		return Value{Kind: ast.Inteiro, I: l.toInt() ^ r.toInt()}, nil
	case "&":
		return Value{Kind: ast.Inteiro, I: l.toInt() & r.toInt()}, nil
	case "%":
		rv := r.toInt()
		if rv == 0 {
			return Value{}, runtimeErrf(n.Line, "divisão por zero")
		}
		return Value{Kind: ast.Inteiro, I: l.toInt() % rv}, nil
	case "==", "!=":
		eq := valuesEqual(l, r)
		if op == "!=" {
			eq = !eq
		}
		return Value{Kind: ast.Logico, B: eq}, nil
	case "<", ">", "<=", ">=":
		return Value{Kind: ast.Logico, B: compareNumeric(op, l, r)}, nil
	case "+", "-", "*", "/":
		return arith(n.Line, op, l, r)
	}
	return Value{}, runtimeErrf(n.Line, "operador desconhecido %q", op)
}

func valuesEqual(l, r Value) bool {
	if l.Kind == ast.Real || r.Kind == ast.Real {
		return coerceTo(ast.Real, l).Text() == coerceTo(ast.Real, r).Text()
	}
	if l.Kind == ast.Logico || r.Kind == ast.Logico {
		return l.toBool() == r.toBool()
	}
	if l.Kind == ast.Literal || r.Kind == ast.Literal {
		return l.Text() == r.Text()
	}
	return l.toInt() == r.toInt()
}

func compareNumeric(op string, l, r Value) bool {
	a, b := l.toReal(), r.toReal()
	switch op {
	case "<":
		return a < b
	case ">":
		return a > b
	case "<=":
		return a <= b
	case ">=":
		return a >= b
	}
	return false
}

func arith(line int, op string, l, r Value) (Value, error) {
	if l.Kind == ast.Real || r.Kind == ast.Real {
		a, b := l.toReal(), r.toReal()
		switch op {
		case "+":
			return Value{Kind: ast.Real, R: a + b}, nil
		case "-":
			return Value{Kind: ast.Real, R: a - b}, nil
		case "*":
			return Value{Kind: ast.Real, R: a * b}, nil
		case "/":
			if b == 0 {
				return Value{}, runtimeErrf(line, "divisão por zero")
			}
			return Value{Kind: ast.Real, R: a / b}, nil
		}
	}
	a, b := l.toInt(), r.toInt()
	switch op {
	case "+":
		return Value{Kind: ast.Inteiro, I: a + b}, nil
	case "-":
		return Value{Kind: ast.Inteiro, I: a - b}, nil
	case "*":
		return Value{Kind: ast.Inteiro, I: a * b}, nil
	case "/":
		if b == 0 {
			return Value{}, runtimeErrf(line, "divisão por zero")
		}
		return Value{Kind: ast.Inteiro, I: a / b}, nil
	}
	return Value{}, runtimeErrf(line, "operador aritmético desconhecido %q", op)
}
