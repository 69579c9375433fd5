// Package diag implements the diagnostics sink shared by the parser,
// semantic analyzer and every back-end (spec §2 component A, §4.1).
// The toolchain is single-threaded and synchronous (spec §5), so the
// sink is a plain struct rather than the channel-listener the teacher
// uses for its process-global error collector — there is no concurrent
// writer to serialize against.
package diag

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"
)

// Error is a single line-tagged diagnostic (spec §4.1, §7).
type Error struct {
	Line    int
	Message string
}

func (e Error) String() string {
	return fmt.Sprintf("%d: %s", e.Line, e.Message)
}

// Tip is a supplementary hint, only shown when the CLI's -d flag is
// set (spec §6.1, §7).
type Tip struct {
	Line    int
	Code    string
	Message string
}

func (t Tip) String() string {
	return fmt.Sprintf("%d: [%s] %s", t.Line, t.Code, t.Message)
}

// Sink collects errors and tips for one source file (spec §4.1).
type Sink struct {
	File   string
	errors []Error
	tips   []Tip
}

// New returns a Sink that tags every diagnostic with the given source
// file name.
func New(file string) *Sink {
	return &Sink{File: file}
}

// Errorf records an error at the given source line.
func (s *Sink) Errorf(line int, format string, args ...interface{}) {
	s.errors = append(s.errors, Error{Line: line, Message: fmt.Sprintf(format, args...)})
}

// Tipf records a tip at the given source line, tagged with a short
// diagnostic code (e.g. "T-NARROW" for a narrowing-conversion tip).
func (s *Sink) Tipf(line int, code, format string, args ...interface{}) {
	s.tips = append(s.tips, Tip{Line: line, Code: code, Message: fmt.Sprintf(format, args...)})
}

// HasErrors reports whether any error has been recorded. Back-ends
// must not run when this is true (spec §4.8).
func (s *Sink) HasErrors() bool {
	return len(s.errors) > 0
}

// Errors returns the buffered errors in the order they were recorded.
func (s *Sink) Errors() []Error {
	return s.errors
}

// Tips returns the buffered tips in the order they were recorded.
func (s *Sink) Tips() []Tip {
	return s.tips
}

// Flush writes every buffered error (and, if showTips is set, every
// tip) to w in Portuguese prose form "<line>: <message>" (spec §7).
func (s *Sink) Flush(w io.Writer, showTips bool) {
	for _, e := range s.errors {
		_, _ = fmt.Fprintln(w, e.String())
	}
	if showTips {
		for _, t := range s.tips {
			_, _ = fmt.Fprintln(w, t.String())
		}
	}
}

// PrettyFlush renders the sink's contents to stdout using colored
// prefixes, grounded on npillmayer-gorgo's trepl pterm.Error/pterm.Info
// console styling (spec §7 "user-visible message form").
func (s *Sink) PrettyFlush(showTips bool) {
	for _, e := range s.errors {
		pterm.Error.Println(e.String())
	}
	if showTips {
		for _, t := range s.tips {
			pterm.Info.Println(t.String())
		}
	}
}
