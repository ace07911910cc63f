package lexer

import (
	"testing"

	"github.com/itealang/itea/diag"
	"github.com/itealang/itea/frontend/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLex(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []token.Kind
	}{
		{"empty", "", []token.Kind{token.EOF}},
		{"parens", "()", []token.Kind{token.LParen, token.RParen, token.EOF}},
		{
			"declaration",
			"public func main() -> int",
			[]token.Kind{token.Keyword, token.Keyword, token.Ident, token.LParen, token.RParen, token.Arrow, token.Ident, token.EOF},
		},
		{
			"operators",
			"== != <= >= << >> && || | ^ ->",
			[]token.Kind{token.Eq, token.Neq, token.Le, token.Ge, token.Shl, token.Shr, token.And, token.Or, token.BOr, token.BXor, token.Arrow, token.EOF},
		},
		{"scope", "io::puts", []token.Kind{token.Ident, token.Scope, token.Ident, token.EOF}},
		{"comment", "a // b c d\n b", []token.Kind{token.Ident, token.Ident, token.EOF}},
		{"assign_vs_eq", "a = b == c", []token.Kind{token.Ident, token.Assign, token.Ident, token.Eq, token.Ident, token.EOF}},
		{"attr", "@inline", []token.Kind{token.At, token.Ident, token.EOF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := kinds(Lex(tt.input))
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("token %d: got %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLexNumbers(t *testing.T) {
	tests := []struct {
		input string
		kind  token.Kind
		text  string
	}{
		{"42", token.Int, "42"},
		{"-42", token.Int, "-42"},
		{"0x1F", token.Int, "0x1F"},
		{"3.14", token.Double, "3.14"},
		{"3.14f", token.Float, "3.14"},
		{"2.5F", token.Float, "2.5"},
		{"10", token.Int, "10"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks := Lex(tt.input)
			if toks[0].Kind != tt.kind {
				t.Errorf("kind = %v, want %v", toks[0].Kind, tt.kind)
			}
			if toks[0].Text != tt.text {
				t.Errorf("text = %q, want %q", toks[0].Text, tt.text)
			}
		})
	}
}

func TestLexMinusBinding(t *testing.T) {
	// A '-' directly before a digit is part of the literal; separated it
	// is an operator.
	toks := Lex("a -1")
	if toks[1].Kind != token.Int || toks[1].Text != "-1" {
		t.Errorf("got %v %q", toks[1].Kind, toks[1].Text)
	}
	toks = Lex("a - b")
	if toks[1].Kind != token.Sub {
		t.Errorf("got %v, want Sub", toks[1].Kind)
	}
}

func TestLexStringEscapes(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"hi"`, "hi"},
		{`"a\nb"`, "a\nb"},
		{`"tab\there"`, "tab\there"},
		{`"\x41\x42"`, "AB"},
		{`"\101"`, "A"},
		{`"q\"q"`, `q"q`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks := Lex(tt.input)
			if toks[0].Kind != token.String {
				t.Fatalf("kind = %v", toks[0].Kind)
			}
			if toks[0].Text != tt.want {
				t.Errorf("text = %q, want %q", toks[0].Text, tt.want)
			}
		})
	}
}

func TestLexCharLiteral(t *testing.T) {
	toks := Lex(`'A'`)
	if toks[0].Kind != token.Char || toks[0].Text != "A" {
		t.Errorf("got %v %q", toks[0].Kind, toks[0].Text)
	}
	toks = Lex(`'\n'`)
	if toks[0].Text != "\n" {
		t.Errorf("escape: got %q", toks[0].Text)
	}
}

func TestLexPositions(t *testing.T) {
	toks := Lex("a\n  b")
	if toks[0].Line != 1 || toks[0].Column != 1 {
		t.Errorf("a at %d:%d", toks[0].Line, toks[0].Column)
	}
	if toks[1].Line != 2 || toks[1].Column != 3 {
		t.Errorf("b at %d:%d", toks[1].Line, toks[1].Column)
	}
}

func TestLexKeywordOrdinals(t *testing.T) {
	toks := Lex("while func end")
	want := []token.KeywordKind{token.KwWhile, token.KwFunc, token.KwEnd}
	for i, kw := range want {
		if toks[i].Kind != token.Keyword || toks[i].Word != kw {
			t.Errorf("token %d: %v %v", i, toks[i].Kind, toks[i].Word)
		}
	}
}

func TestLexUnterminatedString(t *testing.T) {
	err := func() (err error) {
		defer diag.Recover(&err)
		Lex(`"oops`)
		return nil
	}()
	if err == nil {
		t.Fatal("expected a fatal diagnostic")
	}
}
