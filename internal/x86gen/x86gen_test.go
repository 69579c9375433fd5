package x86gen

import (
	"strings"
	"testing"

	"gportugol/internal/parser"
	"gportugol/internal/sema"
)

func TestGenerateSoma(t *testing.T) {
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
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse: %s", err)
	}
	res := sema.Analyze(prog, "teste.gpt")
	if res.Sink.HasErrors() {
		t.Fatalf("análise semântica falhou: %v", res.Sink.Errors())
	}
	out := Generate(prog, res.Symbols)
	for _, want := range []string{
		"section .data", "section .bss", "section .text",
		"main:", "gv_a: resb 8", "add rax, rbx", "call printf",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("saída NASM não contém %q:\n%s", want, out)
		}
	}
}

func TestGenerateFunctionCall(t *testing.T) {
	src := "algoritmo ChamaDobro\n" +
		"inicio\n" +
		"  imprima(dobro(21))\n" +
		"fim\n" +
		"funcao dobro(inteiro x): inteiro\n" +
		"inicio\n" +
		"  retorne x * 2\n" +
		"fim\n"
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse: %s", err)
	}
	res := sema.Analyze(prog, "teste.gpt")
	if res.Sink.HasErrors() {
		t.Fatalf("análise semântica falhou: %v", res.Sink.Errors())
	}
	out := Generate(prog, res.Symbols)
	if !strings.Contains(out, "dobro:") {
		t.Fatalf("faltou rótulo da função dobro:\n%s", out)
	}
	if !strings.Contains(out, "call dobro") {
		t.Fatalf("faltou chamada a dobro:\n%s", out)
	}
	if !strings.Contains(out, "imul rax, rbx") {
		t.Fatalf("faltou multiplicação:\n%s", out)
	}
}

func TestGenerateForLoop(t *testing.T) {
	src := "algoritmo ForTeste\n" +
		"variaveis\n" +
		"  inteiro i\n" +
		"fim-variaveis\n" +
		"inicio\n" +
		"  para i de 1 ate 10\n" +
		"    imprima(i)\n" +
		"  fim-para\n" +
		"fim\n"
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse: %s", err)
	}
	res := sema.Analyze(prog, "teste.gpt")
	if res.Sink.HasErrors() {
		t.Fatalf("análise semântica falhou: %v", res.Sink.Errors())
	}
	out := Generate(prog, res.Symbols)
	if !strings.Contains(out, "LForHead_000:") {
		t.Fatalf("faltou rótulo do laço for:\n%s", out)
	}
}
