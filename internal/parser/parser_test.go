package parser

import (
	"testing"

	"gportugol/internal/ast"
)

// TestParseSoma exercises the S1 scenario from spec §8: a program with
// a var block and three assignments plus one print in the main block.
func TestParseSoma(t *testing.T) {
	src := "algoritmo Soma\n" +
		"variaveis\n" +
		"  inteiro a, b, s\n" +
		"fim-variaveis\n" +
		"inicio\n" +
		"  a := 3\n" +
		"  b := 4\n" +
		"  s := a + b\n" +
		"  imprima(s)\n" +
		"fim\n"

	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("parse: %s", err)
	}
	if prog.Kind != ast.Program {
		t.Fatalf("want Program root, got %s", prog.Kind)
	}
	if prog.Data.(string) != "Soma" {
		t.Fatalf("want program name Soma, got %v", prog.Data)
	}
	if len(prog.Children) < 2 {
		t.Fatalf("want at least [VarBlock, Block], got %d children", len(prog.Children))
	}
	varBlock, mainBlock := prog.Children[0], prog.Children[1]
	if varBlock.Kind != ast.VarBlock {
		t.Fatalf("want VarBlock, got %s", varBlock.Kind)
	}
	if len(varBlock.Children) != 1 {
		t.Fatalf("want one declaration line (a, b, s share it), got %d", len(varBlock.Children))
	}
	if mainBlock.Kind != ast.Block {
		t.Fatalf("want Block, got %s", mainBlock.Kind)
	}
	if len(mainBlock.Children) != 4 {
		t.Fatalf("want 4 statements in main block, got %d", len(mainBlock.Children))
	}
}

// TestParseForLoopBound covers S2/S3: the for-loop header must carry
// an optional step expression in its Children slot.
func TestParseForLoopBound(t *testing.T) {
	src := "algoritmo ForTeste\n" +
		"variaveis\n" +
		"  inteiro i\n" +
		"fim-variaveis\n" +
		"inicio\n" +
		"  para i de 10 ate 1 passo -2\n" +
		"    imprima(i)\n" +
		"  fim-para\n" +
		"fim\n"

	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("parse: %s", err)
	}
	forStmt := prog.Children[1].Children[0]
	if forStmt.Kind != ast.ForStmt {
		t.Fatalf("want ForStmt, got %s", forStmt.Kind)
	}
	if len(forStmt.Children) != 5 {
		t.Fatalf("want [lv, from, to, step, block], got %d children", len(forStmt.Children))
	}
	if forStmt.Children[3] == nil {
		t.Fatalf("want a step expression to be present")
	}
	if !forStmt.Data.(bool) {
		t.Fatalf("want negative=true for a descending step")
	}
}

// TestParseDuplicateDeclarationIsASemanticNotSyntacticConcern checks
// that the parser accepts `inteiro x, x` syntactically — duplicate
// detection (S4) is the analyzer's job (spec §4.2), not the parser's.
func TestParseDuplicateDeclarationIsASemanticNotSyntacticConcern(t *testing.T) {
	src := "algoritmo Dup\n" +
		"variaveis\n" +
		"  inteiro x, x\n" +
		"fim-variaveis\n" +
		"inicio\n" +
		"fim\n"
	if _, err := Parse(src); err != nil {
		t.Fatalf("parse: %s", err)
	}
}

// TestParseIfSenao covers S5: an if/else with a single statement in
// each branch.
func TestParseIfSenao(t *testing.T) {
	src := "algoritmo Maior\n" +
		"inicio\n" +
		"  se 3 > 2 entao\n" +
		"    imprima(\"s\")\n" +
		"  senao\n" +
		"    imprima(\"n\")\n" +
		"  fim-se\n" +
		"fim\n"
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("parse: %s", err)
	}
	ifStmt := prog.Children[1].Children[0]
	if ifStmt.Kind != ast.IfStmt {
		t.Fatalf("want IfStmt, got %s", ifStmt.Kind)
	}
	if len(ifStmt.Children) != 3 {
		t.Fatalf("want [cond, then, else], got %d children", len(ifStmt.Children))
	}
}

// TestParseRecursiveFunction covers S6: a function declaration with a
// return type and a recursive call in its body.
func TestParseRecursiveFunction(t *testing.T) {
	src := "algoritmo ChamaFat\n" +
		"inicio\n" +
		"  imprima(fat(6))\n" +
		"fim\n" +
		"funcao fat(inteiro n): inteiro\n" +
		"inicio\n" +
		"  se n <= 1 entao\n" +
		"    retorne 1\n" +
		"  fim-se\n" +
		"  retorne n * fat(n - 1)\n" +
		"fim\n"
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("parse: %s", err)
	}
	if len(prog.Children) != 3 {
		t.Fatalf("want [VarBlock, Block, FuncDecl], got %d children", len(prog.Children))
	}
	fn := prog.Children[2]
	if fn.Kind != ast.FuncDecl {
		t.Fatalf("want FuncDecl, got %s", fn.Kind)
	}
	if fn.Data.(string) != "fat" {
		t.Fatalf("want function name fat, got %v", fn.Data)
	}
}
