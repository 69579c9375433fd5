package symtab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gportugol/internal/ast"
)

func TestNewTablePreregistersBuiltins(t *testing.T) {
	tab := New()

	sym, err := tab.Lookup(GlobalScope, BuiltinPrint, false)
	require.NoError(t, err)
	assert.True(t, sym.IsFunction)

	sym, err = tab.Lookup(GlobalScope, BuiltinRead, false)
	require.NoError(t, err)
	assert.Equal(t, ast.Literal, sym.Type.Elem)
}

func TestInsertDuplicateSameScope(t *testing.T) {
	tab := New()
	require.NoError(t, tab.Insert(GlobalScope, &Symbol{Name: "x", Line: 3}))

	err := tab.Insert(GlobalScope, &Symbol{Name: "x", Line: 5})
	require.Error(t, err)

	var dup *DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, 5, dup.Line)
}

func TestInsertSameNameDifferentScopesIsAllowed(t *testing.T) {
	tab := New()
	require.NoError(t, tab.Insert(GlobalScope, &Symbol{Name: "x"}))
	require.NoError(t, tab.Insert("fat", &Symbol{Name: "x"}))
}

func TestLookupGlobalFallback(t *testing.T) {
	tab := New()
	require.NoError(t, tab.Insert(GlobalScope, &Symbol{Name: "total"}))
	tab.SetCurrentScope("fat")

	_, err := tab.Lookup("fat", "total", false)
	require.Error(t, err, "fallback disabled should not see the global symbol")

	sym, err := tab.Lookup("fat", "total", true)
	require.NoError(t, err)
	assert.Equal(t, "total", sym.Name)
}

func TestLookupNeverChainsTransitively(t *testing.T) {
	// A name declared only in a *sibling* function scope must stay
	// invisible even with fallback enabled: fallback only ever retries
	// once, in the global scope (spec §4.2 ordering).
	tab := New()
	require.NoError(t, tab.Insert("irmaa", &Symbol{Name: "local"}))
	tab.SetCurrentScope("irmab")

	_, err := tab.Lookup("irmab", "local", true)
	require.Error(t, err)
}

func TestUndefinedErrorMessage(t *testing.T) {
	tab := New()
	_, err := tab.Lookup(GlobalScope, "fantasma", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fantasma")
}
