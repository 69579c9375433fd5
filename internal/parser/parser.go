// Package parser builds an *ast.Node tree from a token stream produced
// by internal/lexer, following the grammar in spec §3.5 and the
// 12-level expression ladder of spec §4.4. It is deliberately a small,
// single-pass recursive-descent parser: error recovery stops at the
// first syntax error, matching the "Lexical/syntactic" entry of the
// error taxonomy in spec §7.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"gportugol/internal/ast"
	"gportugol/internal/lexer"
)

// Parser consumes a token stream and produces a Program node.
type Parser struct {
	lex  *lexer.Lexer
	tok  lexer.Item
	peek *lexer.Item
}

// New returns a Parser reading from a fresh Lexer over src.
func New(src string) *Parser {
	p := &Parser{lex: lexer.New(src)}
	p.advance()
	return p
}

func (p *Parser) advance() {
	if p.peek != nil {
		p.tok = *p.peek
		p.peek = nil
		return
	}
	p.tok = p.lex.NextItem()
}

func (p *Parser) peekTok() lexer.Item {
	if p.peek == nil {
		it := p.lex.NextItem()
		p.peek = &it
	}
	return *p.peek
}

func (p *Parser) expect(t lexer.Type) (lexer.Item, error) {
	if p.tok.Typ != t {
		return p.tok, fmt.Errorf("%d: esperado %s, encontrado %q", p.tok.Line, t, p.tok.Val)
	}
	cur := p.tok
	p.advance()
	return cur, nil
}

// Parse parses a complete Program (spec §3.5).
func Parse(src string) (*ast.Node, error) {
	p := New(src)
	return p.parseProgram()
}

func (p *Parser) parseProgram() (*ast.Node, error) {
	if _, err := p.expect(lexer.KwAlgoritmo); err != nil {
		return nil, err
	}
	name, err := p.expect(lexer.Identifier)
	if err != nil {
		return nil, err
	}

	globals := ast.New(ast.VarBlock, name.Line, nil)
	if p.tok.Typ == lexer.KwVariaveis {
		if globals, err = p.parseVarBlock(); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(lexer.KwInicio); err != nil {
		return nil, err
	}
	body, err := p.parseStatementsUntil(lexer.KwFim)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KwFim); err != nil {
		return nil, err
	}

	children := []*ast.Node{globals, ast.New(ast.Block, name.Line, nil, body...)}
	for p.tok.Typ == lexer.KwFuncao {
		f, err := p.parseFuncDecl()
		if err != nil {
			return nil, err
		}
		children = append(children, f)
	}
	if p.tok.Typ != lexer.EOF {
		return nil, fmt.Errorf("%d: conteúdo inesperado após o programa: %q", p.tok.Line, p.tok.Val)
	}
	return ast.New(ast.Program, name.Line, name.Val, children...), nil
}

func (p *Parser) parseVarBlock() (*ast.Node, error) {
	start := p.tok
	p.advance() // consume "variaveis"
	var decls []*ast.Node
	for isTypeStart(p.tok.Typ) {
		d, err := p.parseVarDecl()
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	if _, err := p.expect(lexer.KwFimVariaveis); err != nil {
		return nil, err
	}
	return ast.New(ast.VarBlock, start.Line, nil, decls...), nil
}

func isTypeStart(t lexer.Type) bool {
	switch t {
	case lexer.KwInteiro, lexer.KwReal, lexer.KwCaractere, lexer.KwLiteral, lexer.KwLogico:
		return true
	}
	return false
}

func primFromTok(t lexer.Type) ast.Prim {
	switch t {
	case lexer.KwInteiro:
		return ast.Inteiro
	case lexer.KwReal:
		return ast.Real
	case lexer.KwCaractere:
		return ast.Caractere
	case lexer.KwLiteral:
		return ast.Literal
	case lexer.KwLogico:
		return ast.Logico
	}
	return ast.Nulo
}

// parseVarDecl parses "<tipo> <dims>? <nome> (, <nome>)*" (spec §3.2:
// dims belong to the declaration's Type and are shared by every name).
func (p *Parser) parseVarDecl() (*ast.Node, error) {
	typTok := p.tok
	p.advance()
	elem := primFromTok(typTok.Typ)

	var dims []int
	for p.tok.Typ == lexer.LBracket {
		p.advance()
		n, err := p.expect(lexer.IntLit)
		if err != nil {
			return nil, err
		}
		d, _ := strconv.Atoi(n.Val)
		dims = append(dims, d)
		if _, err := p.expect(lexer.RBracket); err != nil {
			return nil, err
		}
	}

	var names []*ast.Node
	for {
		id, err := p.expect(lexer.Identifier)
		if err != nil {
			return nil, err
		}
		names = append(names, ast.NewLeaf(ast.Ident, id.Line, id.Val))
		if p.tok.Typ != lexer.Comma {
			break
		}
		p.advance()
	}

	decl := ast.New(ast.VarDecl, typTok.Line, ast.Type{Elem: elem, Dims: dims}, names...)
	return decl, nil
}

func (p *Parser) parseFuncDecl() (*ast.Node, error) {
	start := p.tok
	p.advance() // "funcao"
	name, err := p.expect(lexer.Identifier)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LParen); err != nil {
		return nil, err
	}
	var params []*ast.Node
	for p.tok.Typ != lexer.RParen {
		ptyp := p.tok
		if !isTypeStart(ptyp.Typ) {
			return nil, fmt.Errorf("%d: esperado tipo de parâmetro, encontrado %q", ptyp.Line, ptyp.Val)
		}
		p.advance()
		elem := primFromTok(ptyp.Typ)
		var dims []int
		for p.tok.Typ == lexer.LBracket {
			p.advance()
			n, err := p.expect(lexer.IntLit)
			if err != nil {
				return nil, err
			}
			d, _ := strconv.Atoi(n.Val)
			dims = append(dims, d)
			if _, err := p.expect(lexer.RBracket); err != nil {
				return nil, err
			}
		}
		pname, err := p.expect(lexer.Identifier)
		if err != nil {
			return nil, err
		}
		param := ast.New(ast.Param, pname.Line, pname.Val)
		param.Type = ast.Type{Elem: elem, Dims: dims}
		params = append(params, param)
		if p.tok.Typ == lexer.Comma {
			p.advance()
		}
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}

	retType := ast.Type{Elem: ast.Nulo}
	if p.tok.Typ == lexer.Colon {
		p.advance()
		if !isTypeStart(p.tok.Typ) {
			return nil, fmt.Errorf("%d: esperado tipo de retorno, encontrado %q", p.tok.Line, p.tok.Val)
		}
		retType = ast.Type{Elem: primFromTok(p.tok.Typ)}
		p.advance()
	}

	locals := ast.New(ast.VarBlock, start.Line, nil)
	var err2 error
	if p.tok.Typ == lexer.KwVariaveis {
		if locals, err2 = p.parseVarBlock(); err2 != nil {
			return nil, err2
		}
	}

	if _, err := p.expect(lexer.KwInicio); err != nil {
		return nil, err
	}
	body, err := p.parseStatementsUntil(lexer.KwFim)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KwFim); err != nil {
		return nil, err
	}

	fn := ast.New(ast.FuncDecl, start.Line, name.Val,
		ast.New(ast.ParamList, start.Line, nil, params...),
		locals,
		ast.New(ast.Block, start.Line, nil, body...),
	)
	fn.Type = retType
	return fn, nil
}

// parseStatementsUntil parses statements until the current token is
// one of the given terminators (without consuming the terminator).
func (p *Parser) parseStatementsUntil(terminators ...lexer.Type) ([]*ast.Node, error) {
	var stmts []*ast.Node
	for !p.atAny(terminators...) {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return stmts, nil
}

func (p *Parser) atAny(types ...lexer.Type) bool {
	for _, t := range types {
		if p.tok.Typ == t {
			return true
		}
	}
	return false
}

func (p *Parser) parseStatement() (*ast.Node, error) {
	switch p.tok.Typ {
	case lexer.KwRetorne:
		line := p.tok.Line
		p.advance()
		if p.atAny(lexer.KwFim, lexer.KwFimSe, lexer.KwFimEnquanto, lexer.KwFimPara, lexer.KwSenao, lexer.KwAte2) {
			return ast.New(ast.ReturnStmt, line, nil), nil
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return ast.New(ast.ReturnStmt, line, nil, e), nil
	case lexer.KwSe:
		return p.parseIf()
	case lexer.KwEnquanto:
		return p.parseWhile()
	case lexer.KwRepita:
		return p.parseRepeat()
	case lexer.KwPara:
		return p.parseFor()
	case lexer.Identifier:
		return p.parseAssignOrCall()
	default:
		return nil, fmt.Errorf("%d: início de comando inesperado: %q", p.tok.Line, p.tok.Val)
	}
}

func (p *Parser) parseIf() (*ast.Node, error) {
	line := p.tok.Line
	p.advance()
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KwEntao); err != nil {
		return nil, err
	}
	thenStmts, err := p.parseStatementsUntil(lexer.KwSenao, lexer.KwFimSe)
	if err != nil {
		return nil, err
	}
	thenBlock := ast.New(ast.Block, line, nil, thenStmts...)
	if p.tok.Typ == lexer.KwSenao {
		p.advance()
		elseStmts, err := p.parseStatementsUntil(lexer.KwFimSe)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.KwFimSe); err != nil {
			return nil, err
		}
		elseBlock := ast.New(ast.Block, line, nil, elseStmts...)
		return ast.New(ast.IfStmt, line, nil, cond, thenBlock, elseBlock), nil
	}
	if _, err := p.expect(lexer.KwFimSe); err != nil {
		return nil, err
	}
	return ast.New(ast.IfStmt, line, nil, cond, thenBlock), nil
}

func (p *Parser) parseWhile() (*ast.Node, error) {
	line := p.tok.Line
	p.advance()
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	stmts, err := p.parseStatementsUntil(lexer.KwFimEnquanto)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KwFimEnquanto); err != nil {
		return nil, err
	}
	return ast.New(ast.WhileStmt, line, nil, cond, ast.New(ast.Block, line, nil, stmts...)), nil
}

func (p *Parser) parseRepeat() (*ast.Node, error) {
	line := p.tok.Line
	p.advance()
	stmts, err := p.parseStatementsUntil(lexer.KwAte2)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KwAte2); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return ast.New(ast.RepeatStmt, line, nil, ast.New(ast.Block, line, nil, stmts...), cond), nil
}

func (p *Parser) parseFor() (*ast.Node, error) {
	line := p.tok.Line
	p.advance()
	lv, err := p.expect(lexer.Identifier)
	if err != nil {
		return nil, err
	}
	lvNode := ast.NewLeaf(ast.LValue, lv.Line, lv.Val)
	if _, err := p.expect(lexer.KwDe); err != nil {
		return nil, err
	}
	from, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KwAte); err != nil {
		return nil, err
	}
	to, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	var step *ast.Node
	negative := false
	if p.tok.Typ == lexer.KwPasso {
		p.advance()
		if p.tok.Typ == lexer.Minus {
			negative = true
			p.advance()
		}
		step, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	stmts, err := p.parseStatementsUntil(lexer.KwFimPara)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KwFimPara); err != nil {
		return nil, err
	}
	n := ast.New(ast.ForStmt, line, negative, lvNode, from, to, step, ast.New(ast.Block, line, nil, stmts...))
	return n, nil
}

// parseAssignOrCall disambiguates "name := expr" from "name(args)" in
// statement position (spec §3.5 Statements: assignment, function-call
// statement).
func (p *Parser) parseAssignOrCall() (*ast.Node, error) {
	id := p.tok
	line := id.Line
	p.advance()

	if p.tok.Typ == lexer.LParen {
		call, err := p.parseCallTail(id)
		if err != nil {
			return nil, err
		}
		return ast.New(ast.CallStmt, line, nil, call), nil
	}

	var indices []*ast.Node
	for p.tok.Typ == lexer.LBracket {
		p.advance()
		idx, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		indices = append(indices, idx)
		if _, err := p.expect(lexer.RBracket); err != nil {
			return nil, err
		}
	}
	lv := ast.New(ast.LValue, line, id.Val, indices...)
	if _, err := p.expect(lexer.Assign); err != nil {
		return nil, err
	}
	rhs, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return ast.New(ast.AssignStmt, line, nil, lv, rhs), nil
}

func (p *Parser) parseCallTail(id lexer.Item) (*ast.Node, error) {
	p.advance() // consume "("
	var args []*ast.Node
	for p.tok.Typ != lexer.RParen {
		a, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if p.tok.Typ == lexer.Comma {
			p.advance()
		}
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}
	return ast.New(ast.CallExpr, id.Line, id.Val, ast.New(ast.ArgList, id.Line, nil, args...)), nil
}

// --- Expression ladder (spec §4.4) ---

func (p *Parser) parseExpr() (*ast.Node, error) { return p.parseBin(0) }

var ladder = [][]lexer.Type{
	{lexer.KwOu},
	{lexer.KwE},
	{lexer.Pipe},
	{lexer.Caret},
	{lexer.Amp},
	{lexer.Eq, lexer.Neq},
	{lexer.Lt, lexer.Gt, lexer.Le, lexer.Ge},
	{lexer.Plus, lexer.Minus},
	{lexer.Star, lexer.Slash, lexer.Percent},
}

func opText(t lexer.Type) string {
	switch t {
	case lexer.KwOu:
		return "ou"
	case lexer.KwE:
		return "e"
	default:
		return t.String()
	}
}

func (p *Parser) parseBin(level int) (*ast.Node, error) {
	if level >= len(ladder) {
		return p.parseUnary()
	}
	lhs, err := p.parseBin(level + 1)
	if err != nil {
		return nil, err
	}
	for p.atAny(ladder[level]...) {
		op := p.tok
		p.advance()
		rhs, err := p.parseBin(level + 1)
		if err != nil {
			return nil, err
		}
		lhs = ast.New(ast.BinaryExpr, op.Line, opText(op.Typ), lhs, rhs)
	}
	return lhs, nil
}

func (p *Parser) parseUnary() (*ast.Node, error) {
	switch p.tok.Typ {
	case lexer.Minus, lexer.Plus, lexer.KwNao, lexer.Tilde:
		op := p.tok
		opName := opText(op.Typ)
		if op.Typ == lexer.KwNao {
			opName = "nao"
		}
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.New(ast.UnaryExpr, op.Line, opName, operand), nil
	default:
		return p.parseElement()
	}
}

func (p *Parser) parseElement() (*ast.Node, error) {
	switch p.tok.Typ {
	case lexer.Identifier:
		id := p.tok
		p.advance()
		if p.tok.Typ == lexer.LParen {
			return p.parseCallTail(id)
		}
		var indices []*ast.Node
		for p.tok.Typ == lexer.LBracket {
			p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			indices = append(indices, idx)
			if _, err := p.expect(lexer.RBracket); err != nil {
				return nil, err
			}
		}
		return ast.New(ast.LValue, id.Line, id.Val, indices...), nil
	case lexer.IntLit:
		tok := p.tok
		p.advance()
		v, err := parseIntLiteral(tok.Val)
		if err != nil {
			return nil, fmt.Errorf("%d: %s", tok.Line, err)
		}
		return ast.NewLeaf(ast.IntLit, tok.Line, v), nil
	case lexer.FloatLit:
		tok := p.tok
		p.advance()
		f, err := strconv.ParseFloat(tok.Val, 64)
		if err != nil {
			return nil, fmt.Errorf("%d: %s", tok.Line, err)
		}
		return ast.NewLeaf(ast.FloatLit, tok.Line, f), nil
	case lexer.CharLit:
		tok := p.tok
		p.advance()
		r := []rune(tok.Val)
		if len(r) == 0 {
			return nil, fmt.Errorf("%d: literal de caractere vazio", tok.Line)
		}
		return ast.NewLeaf(ast.CharLit, tok.Line, r[0]), nil
	case lexer.StringLit:
		tok := p.tok
		p.advance()
		return ast.NewLeaf(ast.StringLit, tok.Line, tok.Val), nil
	case lexer.KwVerdadeiro:
		tok := p.tok
		p.advance()
		return ast.NewLeaf(ast.BoolLit, tok.Line, true), nil
	case lexer.KwFalso:
		tok := p.tok
		p.advance()
		return ast.NewLeaf(ast.BoolLit, tok.Line, false), nil
	case lexer.LParen:
		line := p.tok.Line
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RParen); err != nil {
			return nil, err
		}
		return ast.New(ast.ParenExpr, line, nil, e), nil
	default:
		return nil, fmt.Errorf("%d: expressão inesperada: %q", p.tok.Line, p.tok.Val)
	}
}

// parseIntLiteral parses the 0x/0c/0b prefixed forms and plain decimal
// integers into a 32-bit signed value (spec §3.1, §3.5).
func parseIntLiteral(s string) (int, error) {
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "0x"):
		v, err := strconv.ParseInt(lower[2:], 16, 64)
		return int(int32(v)), err
	case strings.HasPrefix(lower, "0c"):
		v, err := strconv.ParseInt(lower[2:], 8, 64)
		return int(int32(v)), err
	case strings.HasPrefix(lower, "0b"):
		v, err := strconv.ParseInt(lower[2:], 2, 64)
		return int(int32(v)), err
	default:
		v, err := strconv.ParseInt(lower, 10, 64)
		return int(int32(v)), err
	}
}
