package toolchain

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestParseArgsDefaultsToCompileMode(t *testing.T) {
	opt, err := ParseArgs([]string{"programa.gpt"})
	if err != nil {
		t.Fatalf("ParseArgs: %s", err)
	}
	if opt.Mode != ModeCompile {
		t.Fatalf("want ModeCompile, got %v", opt.Mode)
	}
	if opt.Src != "programa.gpt" {
		t.Fatalf("want src programa.gpt, got %q", opt.Src)
	}
}

func TestParseArgsInterpretMode(t *testing.T) {
	opt, err := ParseArgs([]string{"-i", "-d", "programa.gpt"})
	if err != nil {
		t.Fatalf("ParseArgs: %s", err)
	}
	if opt.Mode != ModeInterpret {
		t.Fatalf("want ModeInterpret, got %v", opt.Mode)
	}
	if !opt.ShowTips {
		t.Fatalf("want ShowTips true")
	}
}

func TestParseArgsRejectsMultipleSourceFiles(t *testing.T) {
	_, err := ParseArgs([]string{"a.gpt", "b.gpt"})
	if err == nil {
		t.Fatalf("esperava erro de múltiplos arquivos")
	}
}

func TestParseArgsRejectsMissingFlagArgument(t *testing.T) {
	_, err := ParseArgs([]string{"-o"})
	if err == nil {
		t.Fatalf("esperava erro de argumento faltando")
	}
}

func TestRunInterpretMode(t *testing.T) {
	dir := t.TempDir()
	src := dir + "/soma.gpt"
	writeFile(t, src, "algoritmo Soma\n"+
		"variaveis\n"+
		"  inteiro a, b\n"+
		"fim-variaveis\n"+
		"inicio\n"+
		"  a := 3\n"+
		"  b := 4\n"+
		"  imprima(a + b)\n"+
		"fim\n")

	opt := Options{Src: src, Mode: ModeInterpret}
	var out bytes.Buffer
	code, err := Run(opt, &out, strings.NewReader(""))
	if err != nil {
		t.Fatalf("Run: %s", err)
	}
	if code != 0 {
		t.Fatalf("want exit code 0, got %d", code)
	}
	if out.String() != "7\n" {
		t.Fatalf("want 7\\n, got %q", out.String())
	}
}

func TestRunReportsAnalysisErrors(t *testing.T) {
	dir := t.TempDir()
	src := dir + "/erro.gpt"
	writeFile(t, src, "algoritmo Erro\n"+
		"inicio\n"+
		"  imprima(naoexiste)\n"+
		"fim\n")

	opt := Options{Src: src, Mode: ModeInterpret}
	var out bytes.Buffer
	_, err := Run(opt, &out, strings.NewReader(""))
	if err == nil {
		t.Fatalf("esperava erro de análise semântica")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writeFile: %s", err)
	}
}
