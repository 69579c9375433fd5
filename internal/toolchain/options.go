// Package toolchain wires the lexer, parser, semantic analyzer and the
// three back-ends (interp, ctrans, x86gen) into the single pipeline the
// CLI front-end drives (spec §2, §6.1).
package toolchain

import (
	"fmt"
	"os"
	"strings"
)

// Mode selects which back-end (if any) run drives, mirroring the
// mutually-exclusive flag set of spec §6.1.
type Mode int

const (
	// ModeCompile assembles and links a binary at Options.Out (the
	// default mode, or explicit -o).
	ModeCompile Mode = iota
	// ModeAsmOnly emits NASM source only (-s).
	ModeAsmOnly
	// ModeCSource emits translated C source only (-t).
	ModeCSource
	// ModeInterpret runs the program under the tree-walking
	// interpreter (-i).
	ModeInterpret
	// ModeRepl starts the interactive line-at-a-time interpreter
	// session (-repl; SPEC_FULL §C ambient addition, not part of the
	// spec's §6.1 flag table).
	ModeRepl
)

// Options holds the parsed command line, grounded on the teacher's
// util.Options but narrowed to the flags spec §6.1 actually defines.
type Options struct {
	Src      string // Path to the primary (and, per the open question below, only) source file.
	Out      string // Output path for -o/-s/-t; empty means stdout for -s/-t and "a.out" for compile mode.
	Mode     Mode
	ShowTips bool // -d: enable tip display in diagnostics (spec §7).
}

const appVersion = "gpc 1.0"

// ParseArgs parses os.Args[1:] into an Options value, grounded on the
// teacher's util.ParseArgs flag-scanning loop.
//
// Open question (spec §9 "multi-file inputs"): this front-end accepts
// exactly one source file and errors on a second, rather than silently
// concatenating or silently dropping extras.
func ParseArgs(args []string) (Options, error) {
	opt := Options{}
	var srcs []string

	i := 0
	for i < len(args) {
		a := args[i]
		switch a {
		case "-h", "--h", "-help", "--help":
			printHelp()
			os.Exit(0)
		case "-v", "--v", "-version", "--version":
			fmt.Println(appVersion)
			os.Exit(0)
		case "-d":
			opt.ShowTips = true
		case "-i":
			opt.Mode = ModeInterpret
		case "-repl":
			opt.Mode = ModeRepl
		case "-o", "-s", "-t":
			if i+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", a)
			}
			if strings.HasPrefix(args[i+1], "-") {
				return opt, fmt.Errorf("expected path, got new flag %s", args[i+1])
			}
			opt.Out = args[i+1]
			switch a {
			case "-s":
				opt.Mode = ModeAsmOnly
			case "-t":
				opt.Mode = ModeCSource
			case "-o":
				opt.Mode = ModeCompile
			}
			i++
		default:
			if strings.HasPrefix(a, "-") {
				return opt, fmt.Errorf("unexpected flag: %s", a)
			}
			srcs = append(srcs, a)
		}
		i++
	}

	if opt.Mode == ModeRepl {
		return opt, nil
	}
	switch len(srcs) {
	case 0:
		return opt, fmt.Errorf("no source file given")
	case 1:
		opt.Src = srcs[0]
	default:
		return opt, fmt.Errorf("multiple source files not supported, got %d: %s", len(srcs), strings.Join(srcs, ", "))
	}
	return opt, nil
}

func printHelp() {
	fmt.Println("uso: gpc [flags] <arquivo.gpt>")
	fmt.Println()
	fmt.Println("  -o <path>  compila para binário em <path> (padrão)")
	fmt.Println("  -s <path>  emite apenas o código NASM")
	fmt.Println("  -t <path>  emite apenas a tradução em C")
	fmt.Println("  -i         interpreta o programa")
	fmt.Println("  -d         habilita dicas adicionais nos diagnósticos")
	fmt.Println("  -v         imprime a versão e sai")
	fmt.Println("  -h         imprime esta ajuda e sai")
	fmt.Println("  -repl      inicia uma sessão interativa linha a linha")
}

// ReadSource reads the program text from Options.Src, grounded on the
// teacher's util.ReadSource (the stdin-fallback branch is dropped: spec
// §6.1 always names an explicit source file).
func ReadSource(opt Options) (string, error) {
	b, err := os.ReadFile(opt.Src)
	if err != nil {
		return "", fmt.Errorf("could not read source code: %w", err)
	}
	return string(b), nil
}
