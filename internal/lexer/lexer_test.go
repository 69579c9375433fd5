package lexer

import "testing"

// TestLexerSoma tokenizes the S1 scenario from the spec and checks
// that keywords, identifiers and operators come out in order.
func TestLexerSoma(t *testing.T) {
	src := "algoritmo Soma\n" +
		"variaveis\n" +
		"  inteiro a, b, s\n" +
		"fim-variaveis\n" +
		"inicio\n" +
		"  a := 3\n" +
		"  s := a + b\n" +
		"fim\n"

	l := New(src)
	want := []Type{
		KwAlgoritmo, Identifier,
		KwVariaveis,
		KwInteiro, Identifier, Comma, Identifier, Comma, Identifier,
		KwFimVariaveis,
		KwInicio,
		Identifier, Assign, IntLit,
		Identifier, Assign, Identifier, Plus, Identifier,
		KwFim,
		EOF,
	}
	for i, w := range want {
		got := l.NextItem()
		if got.Typ != w {
			t.Fatalf("token %d: want %s got %s (%q)", i, w, got.Typ, got.Val)
		}
	}
}

func TestLexerHyphenKeyword(t *testing.T) {
	l := New("fim-se fim-enquanto fim-para")
	want := []Type{KwFimSe, KwFimEnquanto, KwFimPara, EOF}
	for i, w := range want {
		got := l.NextItem()
		if got.Typ != w {
			t.Fatalf("token %d: want %s got %s", i, w, got.Typ)
		}
	}
}

func TestLexerIntegerPrefixes(t *testing.T) {
	l := New("0x1F 0c17 0b101 42")
	for i := 0; i < 4; i++ {
		got := l.NextItem()
		if got.Typ != IntLit {
			t.Fatalf("token %d: want IntLit got %s (%q)", i, got.Typ, got.Val)
		}
	}
}

func TestLexerRealLiteral(t *testing.T) {
	l := New("a := 3.5")
	_ = l.NextItem() // a
	_ = l.NextItem() // :=
	got := l.NextItem()
	if got.Typ != FloatLit || got.Val != "3.5" {
		t.Fatalf("want FloatLit 3.5, got %s %q", got.Typ, got.Val)
	}
}

func TestLexerMinusAfterIdentifierNotHyphenated(t *testing.T) {
	l := New("n-1")
	want := []Type{Identifier, Minus, IntLit, EOF}
	for i, w := range want {
		got := l.NextItem()
		if got.Typ != w {
			t.Fatalf("token %d: want %s got %s", i, w, got.Typ)
		}
	}
}
