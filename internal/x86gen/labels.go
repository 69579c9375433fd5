package x86gen

import "fmt"

// Label categories, mirroring the teacher's util/label.go label-type
// enumeration but generalized to this generator's control-flow shapes
// (spec §4.7). The code generator is single-threaded (spec §5), so a
// plain counter struct replaces the teacher's channel-based listener,
// the same simplification internal/diag makes over the teacher's
// process-global error collector.
const (
	labelIfElse = iota
	labelIfEnd
	labelWhileHead
	labelWhileEnd
	labelRepeatHead
	labelForHead
	labelForEnd
	labelStrCount
)

var labelPrefixes = [labelStrCount]string{
	"LIfElse", "LIfEnd", "LWhileHead", "LWhileEnd", "LRepeatHead", "LForHead", "LForEnd",
}

// labeler hands out unique, monotonically numbered labels per category.
type labeler struct {
	n [labelStrCount]int
}

func (l *labeler) new(kind int) string {
	s := fmt.Sprintf("%s_%03d", labelPrefixes[kind], l.n[kind])
	l.n[kind]++
	return s
}
