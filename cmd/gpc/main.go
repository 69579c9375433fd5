// Command gpc is the G-Portugol front-end: it drives the lexer,
// parser, semantic analyzer and the selected back-end (interpreter, C
// translator, x86 generator) over a single source file (spec §6.1).
package main

import (
	"bufio"
	"fmt"
	"os"

	"gportugol/internal/toolchain"
)

func main() {
	opt, err := toolchain.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "erro de argumentos: %s\n", err)
		os.Exit(1)
	}

	out := bufio.NewWriter(os.Stdout)
	code, err := toolchain.Run(opt, out, os.Stdin)
	out.Flush()
	if err != nil {
		fmt.Fprintf(os.Stderr, "erro: %s\n", err)
		if code == 0 {
			code = 1
		}
	}
	os.Exit(code)
}
