// Package symtab implements the scoped symbol table shared by the
// semantic analyzer and all three back-ends (spec §3.3-§3.4, §4.2).
// The table is built once, by the analyzer, and is read-only for the
// rest of the pipeline (spec §3.7, §9 "symbol table as data").
package symtab

import (
	"fmt"

	"gportugol/internal/ast"
)

// GlobalScope is the sentinel scope name for module-level declarations.
const GlobalScope = ""

// Symbol is a single entry of the table: a variable or a function
// (spec §3.3).
type Symbol struct {
	Name       string
	Type       ast.Type // for functions, this is the return type
	Scope      string   // GlobalScope, or the enclosing function's name
	Line       int
	IsFunction bool
	Params     []ast.Type // ordered, positional; only set when IsFunction
}

// Builtin pre-registered function names (spec §3.3, §6.2).
const (
	BuiltinRead  = "leia"
	BuiltinPrint = "imprima"
)

// Table is a mapping from (scope, name) to Symbol (spec §3.4).
type Table struct {
	scopes  map[string]map[string]*Symbol
	current string
}

// New returns an empty Table with the global scope and the two
// built-in function symbols pre-registered (spec §3.3 invariant).
func New() *Table {
	t := &Table{
		scopes:  map[string]map[string]*Symbol{GlobalScope: {}},
		current: GlobalScope,
	}
	// leia and imprima are variadic/arity-special built-ins; they carry
	// no fixed Params list and are recognized by name at call sites
	// instead (spec §6.2, §4.3.1 parenthetical on variadic built-ins).
	t.scopes[GlobalScope][BuiltinRead] = &Symbol{
		Name: BuiltinRead, Type: ast.Type{Elem: ast.Literal}, Scope: GlobalScope, IsFunction: true,
	}
	t.scopes[GlobalScope][BuiltinPrint] = &Symbol{
		Name: BuiltinPrint, Type: ast.Type{Elem: ast.Nulo}, Scope: GlobalScope, IsFunction: true,
	}
	return t
}

// DuplicateError is returned by Insert when (scope, name) is already
// occupied (spec §4.2 Duplicate).
type DuplicateError struct {
	Scope, Name string
	Line        int
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%d: variável %s já declarada", e.Line, e.Name)
}

// UndefinedError is returned by Lookup when the name cannot be
// resolved in scope (and, if allowed, the global scope) (spec §4.2
// Undefined).
type UndefinedError struct {
	Scope, Name string
}

func (e *UndefinedError) Error() string {
	return fmt.Sprintf("identificador %q não declarado", e.Name)
}

// Insert registers sym under (scope, sym.Name). It fails with
// *DuplicateError if the slot is already taken (spec §4.2).
func (t *Table) Insert(scope string, sym *Symbol) error {
	m, ok := t.scopes[scope]
	if !ok {
		m = map[string]*Symbol{}
		t.scopes[scope] = m
	}
	if _, exists := m[sym.Name]; exists {
		return &DuplicateError{Scope: scope, Name: sym.Name, Line: sym.Line}
	}
	sym.Scope = scope
	m[sym.Name] = sym
	return nil
}

// Lookup resolves name in scope. When allowGlobalFallback is true and
// the lookup misses in a non-global scope, it retries once in the
// global scope; resolution never chains further than that (spec §4.2
// ordering, §4.3.1).
func (t *Table) Lookup(scope, name string, allowGlobalFallback bool) (*Symbol, error) {
	if m, ok := t.scopes[scope]; ok {
		if s, ok := m[name]; ok {
			return s, nil
		}
	}
	if allowGlobalFallback && scope != GlobalScope {
		if m, ok := t.scopes[GlobalScope]; ok {
			if s, ok := m[name]; ok {
				return s, nil
			}
		}
	}
	return nil, &UndefinedError{Scope: scope, Name: name}
}

// SetCurrentScope points the cursor at scope, creating it if absent
// (spec §4.2 set_current_scope). A function's scope, once created, is
// retained for the lifetime of the table (spec §3.4 mutation policy).
func (t *Table) SetCurrentScope(scope string) {
	if _, ok := t.scopes[scope]; !ok {
		t.scopes[scope] = map[string]*Symbol{}
	}
	t.current = scope
}

// CurrentScope returns the name of the scope the cursor currently
// points at.
func (t *Table) CurrentScope() string {
	return t.current
}

// Global returns the global-scope symbol map, read-only use by
// back-ends that need to enumerate all global declarations.
func (t *Table) Global() map[string]*Symbol {
	return t.scopes[GlobalScope]
}

// Scope returns the symbol map for a named scope, or nil if the scope
// was never created.
func (t *Table) Scope(name string) map[string]*Symbol {
	return t.scopes[name]
}
