package lexer

import (
	"testing"

	"github.com/chazu/lumen/internal/token"
)

func scanAll(src string) []token.Token {
	s := New(src)
	var toks []token.Token
	for {
		tok := s.ScanToken()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return toks
}

func TestScanOperators(t *testing.T) {
	toks := scanAll("!= == <= >= < > ! =")
	want := []token.Kind{
		token.BangEqual, token.EqualEqual, token.LessEqual, token.GreaterEqual,
		token.Less, token.Greater, token.Bang, token.Equal, token.EOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: kind = %v, want %v", i, toks[i].Kind, k)
		}
	}
}

func TestScanStringUnterminated(t *testing.T) {
	toks := scanAll(`"abc`)
	if toks[0].Kind != token.Error {
		t.Fatalf("expected ERROR token, got %v", toks[0].Kind)
	}
	if toks[0].Lexeme != "Unterminated string." {
		t.Errorf("lexeme = %q", toks[0].Lexeme)
	}
}

func TestScanStringMultiline(t *testing.T) {
	s := New("\"a\nb\"")
	tok := s.ScanToken()
	if tok.Kind != token.String {
		t.Fatalf("kind = %v", tok.Kind)
	}
	// Line should have advanced past the embedded newline by the time the
	// next token is scanned.
	next := s.ScanToken()
	if next.Kind != token.EOF || next.Line != 2 {
		t.Errorf("next = %+v, want EOF on line 2", next)
	}
}

func TestScanNumber(t *testing.T) {
	toks := scanAll("123 4.56")
	if toks[0].Kind != token.Number || toks[0].Lexeme != "123" {
		t.Errorf("toks[0] = %+v", toks[0])
	}
	if toks[1].Kind != token.Number || toks[1].Lexeme != "4.56" {
		t.Errorf("toks[1] = %+v", toks[1])
	}
}

func TestScanKeywordsVsIdentifiers(t *testing.T) {
	toks := scanAll("nil true false foobar")
	want := []token.Kind{token.Nil, token.True, token.False, token.Identifier, token.EOF}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: kind = %v, want %v", i, toks[i].Kind, k)
		}
	}
}

func TestScanSkipsCommentsAndWhitespace(t *testing.T) {
	toks := scanAll("  // a comment\n  42")
	if len(toks) != 2 || toks[0].Kind != token.Number || toks[0].Line != 2 {
		t.Fatalf("toks = %+v", toks)
	}
}

func TestScanUnexpectedCharacter(t *testing.T) {
	toks := scanAll("@")
	if toks[0].Kind != token.Error || toks[0].Lexeme != "Unexpected character." {
		t.Errorf("toks[0] = %+v", toks[0])
	}
}

func TestScanEOFIsIdempotent(t *testing.T) {
	s := New("")
	a := s.ScanToken()
	b := s.ScanToken()
	if a.Kind != token.EOF || b.Kind != token.EOF {
		t.Errorf("expected EOF twice, got %v then %v", a.Kind, b.Kind)
	}
}

func TestLexTotality(t *testing.T) {
	// For a representative sample of sources, scanning must terminate and
	// end in EOF.
	sources := []string{"", "   ", "1+2*3", `"unterminated`, "@@@", "and or nil"}
	for _, src := range sources {
		toks := scanAll(src)
		if toks[len(toks)-1].Kind != token.EOF {
			t.Errorf("source %q did not terminate in EOF", src)
		}
	}
}
