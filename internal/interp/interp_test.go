package interp

import (
	"bytes"
	"strings"
	"testing"

	"gportugol/internal/parser"
	"gportugol/internal/sema"
)

func run(t *testing.T, src, stdin string) (string, int, error) {
	t.Helper()
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse: %s", err)
	}
	res := sema.Analyze(prog, "teste.gpt")
	if res.Sink.HasErrors() {
		t.Fatalf("análise semântica falhou: %v", res.Sink.Errors())
	}
	var out bytes.Buffer
	it := New(prog, strings.NewReader(stdin), &out)
	code, err := it.Run(prog)
	return out.String(), code, err
}

func TestInterpSoma(t *testing.T) {
	src := "algoritmo Soma\n" +
		"variaveis\n" +
		"  inteiro a, b\n" +
		"fim-variaveis\n" +
		"inicio\n" +
		"  a := 3\n" +
		"  b := 4\n" +
		"  imprima(a + b)\n" +
		"fim\n"
	out, _, err := run(t, src, "")
	if err != nil {
		t.Fatalf("run: %s", err)
	}
	if out != "7\n" {
		t.Fatalf("want 7\\n, got %q", out)
	}
}

func TestInterpIfSenao(t *testing.T) {
	src := "algoritmo Maior\n" +
		"variaveis\n" +
		"  inteiro a, b\n" +
		"fim-variaveis\n" +
		"inicio\n" +
		"  a := 5\n" +
		"  b := 9\n" +
		"  se a > b entao\n" +
		"    imprima(a)\n" +
		"  senao\n" +
		"    imprima(b)\n" +
		"  fim-se\n" +
		"fim\n"
	out, _, err := run(t, src, "")
	if err != nil {
		t.Fatalf("run: %s", err)
	}
	if out != "9\n" {
		t.Fatalf("want 9\\n, got %q", out)
	}
}

func TestInterpForInclusiveBound(t *testing.T) {
	src := "algoritmo ForTeste\n" +
		"variaveis\n" +
		"  inteiro i, s\n" +
		"fim-variaveis\n" +
		"inicio\n" +
		"  s := 0\n" +
		"  para i de 1 ate 5\n" +
		"    s := s + i\n" +
		"  fim-para\n" +
		"  imprima(s)\n" +
		"  imprima(\",\")\n" +
		"  imprima(i)\n" +
		"fim\n"
	out, _, err := run(t, src, "")
	if err != nil {
		t.Fatalf("run: %s", err)
	}
	if out != "15\n,\n5\n" {
		t.Fatalf("want 15\\n,\\n5\\n, got %q", out)
	}
}

func TestInterpForNegativeStep(t *testing.T) {
	src := "algoritmo ForBaixo\n" +
		"variaveis\n" +
		"  inteiro i\n" +
		"fim-variaveis\n" +
		"inicio\n" +
		"  para i de 5 ate 1 passo -1\n" +
		"    imprima(i)\n" +
		"  fim-para\n" +
		"fim\n"
	out, _, err := run(t, src, "")
	if err != nil {
		t.Fatalf("run: %s", err)
	}
	if out != "5\n4\n3\n2\n1\n" {
		t.Fatalf("want 5\\n4\\n3\\n2\\n1\\n, got %q", out)
	}
}

func TestInterpRepeatUntil(t *testing.T) {
	src := "algoritmo Repita\n" +
		"variaveis\n" +
		"  inteiro n\n" +
		"fim-variaveis\n" +
		"inicio\n" +
		"  n := 0\n" +
		"  repita\n" +
		"    n := n + 1\n" +
		"    imprima(n)\n" +
		"  até n == 3\n" +
		"fim\n"
	out, _, err := run(t, src, "")
	if err != nil {
		t.Fatalf("run: %s", err)
	}
	if out != "1\n2\n3\n" {
		t.Fatalf("want 1\\n2\\n3\\n, got %q", out)
	}
}

func TestInterpFunctionCallAndReturn(t *testing.T) {
	src := "algoritmo ChamaDobro\n" +
		"inicio\n" +
		"  imprima(dobro(21))\n" +
		"fim\n" +
		"funcao dobro(inteiro x): inteiro\n" +
		"inicio\n" +
		"  retorne x * 2\n" +
		"fim\n"
	out, _, err := run(t, src, "")
	if err != nil {
		t.Fatalf("run: %s", err)
	}
	if out != "42\n" {
		t.Fatalf("want 42\\n, got %q", out)
	}
}

func TestInterpMatrixPassByCopy(t *testing.T) {
	src := "algoritmo CopiaMatriz\n" +
		"variaveis\n" +
		"  inteiro v[3]\n" +
		"fim-variaveis\n" +
		"inicio\n" +
		"  v[0] := 1\n" +
		"  zera(v)\n" +
		"  imprima(v[0])\n" +
		"fim\n" +
		"funcao zera(inteiro m[3])\n" +
		"inicio\n" +
		"  m[0] := 99\n" +
		"fim\n"
	out, _, err := run(t, src, "")
	if err != nil {
		t.Fatalf("run: %s", err)
	}
	if out != "1\n" {
		t.Fatalf("matriz deveria ser passada por cópia, got %q", out)
	}
}

func TestInterpDivisionByZero(t *testing.T) {
	src := "algoritmo Divide\n" +
		"variaveis\n" +
		"  inteiro a, b\n" +
		"fim-variaveis\n" +
		"inicio\n" +
		"  a := 1\n" +
		"  b := 0\n" +
		"  imprima(a / b)\n" +
		"fim\n"
	_, _, err := run(t, src, "")
	if err == nil {
		t.Fatalf("esperava erro de divisão por zero")
	}
	if _, ok := err.(*RuntimeError); !ok {
		t.Fatalf("esperava *RuntimeError, got %T", err)
	}
}

func TestInterpRealDecimalEquality(t *testing.T) {
	src := "algoritmo Real\n" +
		"variaveis\n" +
		"  real a\n" +
		"fim-variaveis\n" +
		"inicio\n" +
		"  a := 3.5\n" +
		"  se a == 3.5 entao\n" +
		"    imprima(\"igual\")\n" +
		"  fim-se\n" +
		"fim\n"
	out, _, err := run(t, src, "")
	if err != nil {
		t.Fatalf("run: %s", err)
	}
	if out != "igual\n" {
		t.Fatalf("want igual\\n, got %q", out)
	}
}

func TestInterpReadBuiltin(t *testing.T) {
	src := "algoritmo Leitura\n" +
		"variaveis\n" +
		"  literal nome\n" +
		"fim-variaveis\n" +
		"inicio\n" +
		"  nome := leia()\n" +
		"  imprima(nome)\n" +
		"fim\n"
	out, _, err := run(t, src, "Ada\n")
	if err != nil {
		t.Fatalf("run: %s", err)
	}
	if out != "Ada\n" {
		t.Fatalf("want Ada\\n, got %q", out)
	}
}

func TestInterpMainExitCode(t *testing.T) {
	src := "algoritmo Saida\n" +
		"inicio\n" +
		"  retorne 7\n" +
		"fim\n"
	_, code, err := run(t, src, "")
	if err != nil {
		t.Fatalf("run: %s", err)
	}
	if code != 7 {
		t.Fatalf("want exit code 7, got %d", code)
	}
}
