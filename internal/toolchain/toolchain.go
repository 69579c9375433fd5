package toolchain

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"gportugol/internal/ctrans"
	"gportugol/internal/interp"
	"gportugol/internal/parser"
	"gportugol/internal/sema"
	"gportugol/internal/x86gen"
)

// Run drives the pipeline lex→parse→analyze→back-end, grounded on the
// teacher's src/main.go run() function. Back-ends only execute once
// analysis reports no errors (spec §4.8). The diagnostics sink is
// printed to stdout through diag.PrettyFlush when analysis fails, and
// its tips also when -d is set.
func Run(opt Options, stdout io.Writer, stdin io.Reader) (int, error) {
	if opt.Mode == ModeRepl {
		return 0, RunRepl(stdin, stdout)
	}

	src, err := ReadSource(opt)
	if err != nil {
		return 1, err
	}

	prog, err := parser.Parse(src)
	if err != nil {
		return 1, fmt.Errorf("erro de sintaxe: %w", err)
	}

	res := sema.Analyze(prog, opt.Src)
	if res.Sink.HasErrors() {
		res.Sink.PrettyFlush(opt.ShowTips)
		return 1, fmt.Errorf("análise semântica reportou erros")
	}
	if opt.ShowTips {
		res.Sink.PrettyFlush(true)
	}

	switch opt.Mode {
	case ModeInterpret:
		it := interp.New(prog, stdin, stdout)
		code, err := it.Run(prog)
		if err != nil {
			return 1, err
		}
		return code, nil

	case ModeCSource:
		c := ctrans.Translate(prog, res.Symbols)
		return 0, writeOutput(opt.Out, c, stdout)

	case ModeAsmOnly:
		asm := x86gen.Generate(prog, res.Symbols)
		return 0, writeOutput(opt.Out, asm, stdout)

	case ModeCompile:
		asm := x86gen.Generate(prog, res.Symbols)
		return compileToBinary(asm, opt.Out)
	}
	return 0, fmt.Errorf("modo desconhecido")
}

func writeOutput(path, content string, stdout io.Writer) error {
	if path == "" {
		_, err := fmt.Fprint(stdout, content)
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

// compileToBinary assembles and links asm with an external nasm/ld
// (spec §6.4, §5's "compile-to-binary" external invocation). The NASM
// intermediate is written under the platform temp directory with a
// unique name and removed on success; on failure it is left behind for
// debugging (spec §5).
func compileToBinary(asm, out string) (int, error) {
	tmp, err := os.CreateTemp("", "gportugol-*.asm")
	if err != nil {
		return 1, fmt.Errorf("could not create temporary file: %w", err)
	}
	asmPath := tmp.Name()
	if _, err := tmp.WriteString(asm); err != nil {
		tmp.Close()
		return 1, fmt.Errorf("could not write assembly intermediate: %w", err)
	}
	tmp.Close()

	objPath := asmPath + ".o"
	nasmCmd := exec.Command("nasm", "-f", "elf64", "-o", objPath, asmPath)
	nasmCmd.Stderr = os.Stderr
	if err := nasmCmd.Run(); err != nil {
		return 1, fmt.Errorf("nasm failed (intermediate retained at %s): %w", asmPath, err)
	}

	if out == "" {
		out = "a.out"
	}
	ldCmd := exec.Command("ld", "-dynamic-linker", "/lib64/ld-linux-x86-64.so.2",
		"-lc", "-o", out, objPath)
	ldCmd.Stderr = os.Stderr
	if err := ldCmd.Run(); err != nil {
		return 1, fmt.Errorf("ld failed (intermediate retained at %s): %w", asmPath, err)
	}

	_ = os.Remove(asmPath)
	_ = os.Remove(objPath)
	return 0, nil
}
