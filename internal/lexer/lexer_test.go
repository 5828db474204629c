package lexer

import (
	"reflect"
	"testing"

	"byteflow/internal/token"
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
		name    string
		input   string
		want    []token.Kind
		wantErr bool
	}{
		{
			name: "empty",
			input: "",
			want: []token.Kind{token.EOF},
		},
		{
			name:  "punctuation and operators",
			input: "+ - * / % = == != < <= > >= && || ! { } ( ) [ ] ; , :",
			want: []token.Kind{
				token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
				token.ASSIGN, token.EQ, token.NOT_EQ, token.LESS, token.LESS_EQ,
				token.GREATER, token.GREATER_EQ, token.AND_AND, token.OR_OR, token.NOT,
				token.LBRACE, token.RBRACE, token.LPAREN, token.RPAREN,
				token.LBRACKET, token.RBRACKET, token.SEMICOLON, token.COMMA, token.COLON,
				token.EOF,
			},
		},
		{
			name:  "keywords and identifiers",
			input: "int bool char void if else while for switch case default break return true false x _under1",
			want: []token.Kind{
				token.KW_INT, token.KW_BOOL, token.KW_CHAR, token.KW_VOID,
				token.KW_IF, token.KW_ELSE, token.KW_WHILE, token.KW_FOR,
				token.KW_SWITCH, token.KW_CASE, token.KW_DEFAULT, token.KW_BREAK,
				token.KW_RETURN, token.KW_TRUE, token.KW_FALSE,
				token.IDENT, token.IDENT, token.EOF,
			},
		},
		{
			name:  "int literal",
			input: "42",
			want:  []token.Kind{token.INT_LIT, token.EOF},
		},
		{
			name:  "char and string literals",
			input: `'a' "hi there"`,
			want:  []token.Kind{token.CHAR_LIT, token.STRING_LIT, token.EOF},
		},
		{
			name:  "line and block comments are skipped",
			input: "int x; // trailing\n/* block */ int y;",
			want: []token.Kind{
				token.KW_INT, token.IDENT, token.SEMICOLON,
				token.KW_INT, token.IDENT, token.SEMICOLON,
				token.EOF,
			},
		},
		{
			name:    "unterminated string is an error",
			input:   `"oops`,
			wantErr: true,
		},
		{
			name:    "unknown character is an error",
			input:   "@",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			toks, err := Lex(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("Lex(%q): expected an error, got none", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Lex(%q): unexpected error: %v", tc.input, err)
			}
			got := kinds(toks)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Lex(%q) kinds = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestLexCharLiteralEscapes(t *testing.T) {
	toks, err := Lex(`'\n' '\t' '\0' '\\' '\''`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"10", "9", "0", "92", "39"}
	for i, w := range want {
		if toks[i].Lexeme != w {
			t.Errorf("literal %d: got lexeme %q, want %q", i, toks[i].Lexeme, w)
		}
	}
}

func TestLexStringEscapes(t *testing.T) {
	toks, err := Lex(`"a\nb\tc\"d\\e"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Lexeme != "a\nb\tc\"d\\e" {
		t.Errorf("got %q", toks[0].Lexeme)
	}
}

func TestLexTracksLineAndColumn(t *testing.T) {
	toks, err := Lex("int x;\nint y;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// the second "int" starts line 2, column 1
	for _, tok := range toks {
		if tok.Kind == token.KW_INT && tok.Line == 2 {
			if tok.Column != 1 {
				t.Errorf("expected column 1 on line 2, got %d", tok.Column)
			}
			return
		}
	}
	t.Fatal("did not find the line-2 int token")
}
