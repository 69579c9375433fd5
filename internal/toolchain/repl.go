package toolchain

import (
	"bytes"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pterm/pterm"

	"gportugol/internal/interp"
	"gportugol/internal/parser"
	"gportugol/internal/sema"
)

// declKeywords are the primitive-type leading words that start a
// variable declaration line (spec §4.2), used by the REPL to decide
// whether an entered line belongs in the variaveis block or the
// inicio block.
var declKeywords = []string{"inteiro", "real", "caractere", "literal", "logico"}

// replSession accumulates declarations and statements typed so far and
// re-runs the whole synthesized program on every new line, since the
// interpreter has no notion of incremental re-entry into a live frame.
// Only the output produced beyond what the previous run already printed
// is shown, so the session reads like a normal REPL even though each
// line is a full from-scratch re-interpretation.
type replSession struct {
	decls []string
	stmts []string
	shown int // bytes of stdout already shown to the user
}

func (r *replSession) source() string {
	var b strings.Builder
	b.WriteString("algoritmo Sessao\n")
	if len(r.decls) > 0 {
		b.WriteString("variaveis\n")
		for _, d := range r.decls {
			b.WriteString("  " + d + "\n")
		}
		b.WriteString("fim-variaveis\n")
	}
	b.WriteString("inicio\n")
	for _, s := range r.stmts {
		b.WriteString("  " + s + "\n")
	}
	b.WriteString("fim\n")
	return b.String()
}

func (r *replSession) isDecl(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	for _, kw := range declKeywords {
		if fields[0] == kw {
			return true
		}
	}
	return false
}

// submit adds line to the session, re-runs the accumulated program and
// writes any newly produced output to stdout. A parse or analysis
// error rolls the line back so a typo does not corrupt the session.
func (r *replSession) submit(line string, stdin io.Reader, stdout io.Writer) {
	if r.isDecl(line) {
		r.decls = append(r.decls, line)
	} else {
		r.stmts = append(r.stmts, line)
	}

	prog, err := parser.Parse(r.source())
	if err != nil {
		pterm.Error.Println(err.Error())
		r.rollback(line)
		return
	}
	res := sema.Analyze(prog, "repl")
	if res.Sink.HasErrors() {
		for _, e := range res.Sink.Errors() {
			pterm.Error.Println(e.String())
		}
		r.rollback(line)
		return
	}

	var out bytes.Buffer
	it := interp.New(prog, stdin, &out)
	if _, err := it.Run(prog); err != nil {
		pterm.Error.Println(err.Error())
		r.rollback(line)
		return
	}

	full := out.String()
	if len(full) > r.shown {
		io.WriteString(stdout, full[r.shown:])
	}
	r.shown = len(full)
}

func (r *replSession) rollback(line string) {
	if r.isDecl(line) {
		r.decls = r.decls[:len(r.decls)-1]
	} else {
		r.stmts = r.stmts[:len(r.stmts)-1]
	}
}

// RunRepl starts the interactive line-at-a-time session (SPEC_FULL §C),
// grounded on npillmayer-gorgo's trepl REPL construction
// (readline.New + a pterm-styled banner).
func RunRepl(stdin io.Reader, stdout io.Writer) error {
	rl, err := readline.New("gpc> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	pterm.Info.Println("G-Portugol — sessão interativa. Ctrl+D para sair.")

	sess := &replSession{}
	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF on Ctrl+D
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sess.submit(line, stdin, stdout)
	}
	return nil
}
