package lexer_test

import (
	"testing"

	"github.com/tremor-rs/tremor/pkg/lexer"
)

type lexerTestCase struct {
	name     string
	input    string
	expected []lexer.Token
}

func runLexerTests(t *testing.T, tests []lexerTestCase) {
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			l := lexer.New(test.input)
			var got []lexer.Token
			for {
				tok := l.Next()
				if tok.Type == lexer.TokenEOF {
					break
				}
				if tok.Type == lexer.TokenError {
					t.Fatalf("unexpected error token: %v (%v)", tok.Value, l.Err())
				}
				got = append(got, tok)
			}
			if len(got) != len(test.expected) {
				t.Fatalf("got %d tokens, want %d\ngot:  %v\nwant: %v", len(got), len(test.expected), got, test.expected)
			}
			for i, tok := range got {
				exp := test.expected[i]
				if tok.Type != exp.Type {
					t.Errorf("token %d: type = %v, want %v", i, tok.Type, exp.Type)
				}
				if tok.Value != exp.Value {
					t.Errorf("token %d: value = %q, want %q", i, tok.Value, exp.Value)
				}
			}
		})
	}
}

func TestLexerPunctuationAndOperators(t *testing.T) {
	runLexerTests(t, []lexerTestCase{
		{"dot", ".", []lexer.Token{{Type: lexer.TokenDot, Value: "."}}},
		{"colon-colon", "::", []lexer.Token{{Type: lexer.TokenColonColon, Value: "::"}}},
		{"eq", "==", []lexer.Token{{Type: lexer.TokenEq, Value: "=="}}},
		{"not-eq", "!=", []lexer.Token{{Type: lexer.TokenNotEq, Value: "!="}}},
		{"lt-eq", "<=", []lexer.Token{{Type: lexer.TokenLtEq, Value: "<="}}},
		{"gt-eq", ">=", []lexer.Token{{Type: lexer.TokenGtEq, Value: ">="}}},
		{"assign single eq", "=", []lexer.Token{{Type: lexer.TokenAssign, Value: "="}}},
		{"lone lt", "<", []lexer.Token{{Type: lexer.TokenLt, Value: "<"}}},
	})
}

func TestLexerNumbers(t *testing.T) {
	runLexerTests(t, []lexerTestCase{
		{"integer", "123", []lexer.Token{{Type: lexer.TokenNumber, Value: "123"}}},
		{"float", "3.14", []lexer.Token{{Type: lexer.TokenNumber, Value: "3.14"}}},
		{"exponent", "1e10", []lexer.Token{{Type: lexer.TokenNumber, Value: "1e10"}}},
		{"exponent with sign", "1e-10", []lexer.Token{{Type: lexer.TokenNumber, Value: "1e-10"}}},
		{
			"trailing dot with no digits is its own token",
			"1.",
			[]lexer.Token{
				{Type: lexer.TokenNumber, Value: "1"},
				{Type: lexer.TokenDot, Value: "."},
			},
		},
	})
}

func TestLexerIdentsAndKeywords(t *testing.T) {
	runLexerTests(t, []lexerTestCase{
		{"simple ident", "foo", []lexer.Token{{Type: lexer.TokenIdent, Value: "foo"}}},
		{"ident with underscore", "foo_bar", []lexer.Token{{Type: lexer.TokenIdent, Value: "foo_bar"}}},
		{"let keyword", "let", []lexer.Token{{Type: lexer.TokenLet, Value: "let"}}},
		{"match keyword", "match", []lexer.Token{{Type: lexer.TokenMatch, Value: "match"}}},
		{"event keyword", "event", []lexer.Token{{Type: lexer.TokenEvent, Value: "event"}}},
		{"true boolean", "true", []lexer.Token{{Type: lexer.TokenBoolean, Value: "true"}}},
		{"null literal", "null", []lexer.Token{{Type: lexer.TokenNull, Value: "null"}}},
		{
			"escaped ident with spaces",
			"`field name`",
			[]lexer.Token{{Type: lexer.TokenIdentEsc, Value: "field name"}},
		},
	})
}

func TestLexerLineComments(t *testing.T) {
	runLexerTests(t, []lexerTestCase{
		{
			"hash comment to end of line",
			"let x = 1 # comment here\nlet y = 2",
			[]lexer.Token{
				{Type: lexer.TokenLet, Value: "let"},
				{Type: lexer.TokenIdent, Value: "x"},
				{Type: lexer.TokenAssign, Value: "="},
				{Type: lexer.TokenNumber, Value: "1"},
				{Type: lexer.TokenLet, Value: "let"},
				{Type: lexer.TokenIdent, Value: "y"},
				{Type: lexer.TokenAssign, Value: "="},
				{Type: lexer.TokenNumber, Value: "2"},
			},
		},
	})
}

func TestLexerStrings(t *testing.T) {
	runLexerTests(t, []lexerTestCase{
		{"simple string", `"hello"`, []lexer.Token{{Type: lexer.TokenString, Value: "hello"}}},
		{"empty string", `""`, []lexer.Token{{Type: lexer.TokenString, Value: ""}}},
	})
}

func TestLexerStringInterpolation(t *testing.T) {
	l := lexer.New(`"a#{1}b"`)
	var kinds []lexer.TokenType
	for {
		tok := l.Next()
		if tok.Type == lexer.TokenEOF {
			break
		}
		if tok.Type == lexer.TokenError {
			t.Fatalf("unexpected error: %v", l.Err())
		}
		kinds = append(kinds, tok.Type)
	}
	want := []lexer.TokenType{
		lexer.TokenStringHead,
		lexer.TokenNumber,
		lexer.TokenInterpClose,
		lexer.TokenString,
	}
	if len(kinds) != len(want) {
		t.Fatalf("got %d tokens %v, want %d %v", len(kinds), kinds, len(want), want)
	}
	for i, k := range kinds {
		if k != want[i] {
			t.Errorf("token %d: %v, want %v", i, k, want[i])
		}
	}
}

func TestLexerNestedRecordInInterpolation(t *testing.T) {
	// the interpolation brace-depth counter must not mistake the record
	// literal's closing brace for the interpolation's own closing brace.
	l := lexer.New(`"v=#{ {"a": 1}.a }"`)
	var sawInterpClose, sawUnexpectedEOF bool
	for {
		tok := l.Next()
		if tok.Type == lexer.TokenEOF {
			break
		}
		if tok.Type == lexer.TokenError {
			sawUnexpectedEOF = true
			break
		}
		if tok.Type == lexer.TokenInterpClose {
			sawInterpClose = true
		}
	}
	if sawUnexpectedEOF {
		t.Fatalf("lexer error: %v", l.Err())
	}
	if !sawInterpClose {
		t.Fatal("expected a TokenInterpClose once the interpolated expression ended")
	}
}

func TestLexerBinaryLiteral(t *testing.T) {
	runLexerTests(t, []lexerTestCase{
		{"binary literal", "<<deadbeef>>", []lexer.Token{{Type: lexer.TokenBytesLit, Value: "deadbeef"}}},
	})
}

func TestLexerErrorHandling(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unterminated string", `"hello`},
		{"unterminated escaped ident", "`hello"},
		{"unterminated binary literal", "<<deadbeef"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			l := lexer.New(test.input)
			var tok lexer.Token
			for {
				tok = l.Next()
				if tok.Type == lexer.TokenError || tok.Type == lexer.TokenEOF {
					break
				}
			}
			if tok.Type != lexer.TokenError {
				t.Fatalf("expected error token, got %v", tok.Type)
			}
			if l.Err() == nil {
				t.Fatal("expected Err() to be non-nil")
			}
		})
	}
}

func TestLexerEOFIsSticky(t *testing.T) {
	l := lexer.New("x")
	l.Next() // consumes "x"
	for i := 0; i < 3; i++ {
		if tok := l.Next(); tok.Type != lexer.TokenEOF {
			t.Fatalf("call %d: expected EOF, got %v", i, tok.Type)
		}
	}
}

func TestTokenTypeString(t *testing.T) {
	tests := []struct {
		tt   lexer.TokenType
		want string
	}{
		{lexer.TokenEOF, "(eof)"},
		{lexer.TokenPlus, "+"},
		{lexer.TokenAnd, "and"},
		{lexer.TokenColonColon, "::"},
	}
	for _, test := range tests {
		if got := test.tt.String(); got != test.want {
			t.Errorf("TokenType(%d).String() = %q, want %q", test.tt, got, test.want)
		}
	}
}
