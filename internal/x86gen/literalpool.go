package x86gen

import (
	"fmt"

	"github.com/cnf/structhash"
)

// literal is one constant destined for the data section: a string or a
// floating-point bit pattern, each emitted at most once (spec §4.7
// "constant pool, deduplicated").
type literal struct {
	label string
	kind  int // 0 = string, 1 = double
	str   string
	bits  uint64
}

const (
	litString = iota
	litDouble
)

// pool deduplicates literals by a structural hash of their (kind,
// value) pair, grounded on the teacher's own use of content hashing
// for constant folding keys rather than a hand-rolled string key.
type pool struct {
	byHash map[string]*literal
	order  []*literal
	seq    int
}

func newPool() *pool {
	return &pool{byHash: map[string]*literal{}}
}

type litKey struct {
	Kind  int
	Str   string
	Bits  uint64
}

func (p *pool) hashOf(kind int, str string, bits uint64) string {
	h, err := structhash.Hash(litKey{Kind: kind, Str: str, Bits: bits}, 1)
	if err != nil {
		// structhash only fails on unsupported reflect kinds, which
		// litKey never exercises; fall back to a cheap manual key so a
		// codegen run never aborts over a hashing error.
		return fmt.Sprintf("%d:%s:%d", kind, str, bits)
	}
	return h
}

func (p *pool) string(s string) string {
	h := p.hashOf(litString, s, 0)
	if l, ok := p.byHash[h]; ok {
		return l.label
	}
	l := &literal{label: fmt.Sprintf(".LC%03d", p.seq), kind: litString, str: s}
	p.seq++
	p.byHash[h] = l
	p.order = append(p.order, l)
	return l.label
}

func (p *pool) double(bits uint64) string {
	h := p.hashOf(litDouble, "", bits)
	if l, ok := p.byHash[h]; ok {
		return l.label
	}
	l := &literal{label: fmt.Sprintf(".LC%03d", p.seq), kind: litDouble, bits: bits}
	p.seq++
	p.byHash[h] = l
	p.order = append(p.order, l)
	return l.label
}
