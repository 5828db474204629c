// Package token defines the lexical vocabulary of the ByteFlow surface
// language: the kinds of tokens the lexer produces and the parser consumes.
package token

import "fmt"

// Kind identifies the lexical category of a Token.
type Kind int

const (
	EOF Kind = iota
	IDENT
	INT_LIT
	CHAR_LIT
	STRING_LIT

	// keywords
	KW_INT
	KW_BOOL
	KW_CHAR
	KW_VOID
	KW_IF
	KW_ELSE
	KW_WHILE
	KW_FOR
	KW_SWITCH
	KW_CASE
	KW_DEFAULT
	KW_BREAK
	KW_RETURN
	KW_TRUE
	KW_FALSE

	// punctuation
	LBRACE
	RBRACE
	LPAREN
	RPAREN
	LBRACKET
	RBRACKET
	SEMICOLON
	COMMA
	COLON

	// operators
	ASSIGN
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	EQ
	NOT_EQ
	LESS
	LESS_EQ
	GREATER
	GREATER_EQ
	AND_AND
	OR_OR
	NOT
)

var names = map[Kind]string{
	EOF:        "EOF",
	IDENT:      "IDENT",
	INT_LIT:    "INT_LIT",
	CHAR_LIT:   "CHAR_LIT",
	STRING_LIT: "STRING_LIT",
	KW_INT:     "int",
	KW_BOOL:    "bool",
	KW_CHAR:    "char",
	KW_VOID:    "void",
	KW_IF:      "if",
	KW_ELSE:    "else",
	KW_WHILE:   "while",
	KW_FOR:     "for",
	KW_SWITCH:  "switch",
	KW_CASE:    "case",
	KW_DEFAULT: "default",
	KW_BREAK:   "break",
	KW_RETURN:  "return",
	KW_TRUE:    "true",
	KW_FALSE:   "false",
	LBRACE:     "{",
	RBRACE:     "}",
	LPAREN:     "(",
	RPAREN:     ")",
	LBRACKET:   "[",
	RBRACKET:   "]",
	SEMICOLON:  ";",
	COMMA:      ",",
	COLON:      ":",
	ASSIGN:     "=",
	PLUS:       "+",
	MINUS:      "-",
	STAR:       "*",
	SLASH:      "/",
	PERCENT:    "%",
	EQ:         "==",
	NOT_EQ:     "!=",
	LESS:       "<",
	LESS_EQ:    "<=",
	GREATER:    ">",
	GREATER_EQ: ">=",
	AND_AND:    "&&",
	OR_OR:      "||",
	NOT:        "!",
}

func (k Kind) String() string {
	if n, ok := names[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Keywords maps source spelling to its reserved-word Kind.
var Keywords = map[string]Kind{
	"int":     KW_INT,
	"bool":    KW_BOOL,
	"char":    KW_CHAR,
	"void":    KW_VOID,
	"if":      KW_IF,
	"else":    KW_ELSE,
	"while":   KW_WHILE,
	"for":     KW_FOR,
	"switch":  KW_SWITCH,
	"case":    KW_CASE,
	"default": KW_DEFAULT,
	"break":   KW_BREAK,
	"return":  KW_RETURN,
	"true":    KW_TRUE,
	"false":   KW_FALSE,
}

// Token is one lexical unit: kind, literal text, and source position.
type Token struct {
	Kind   Kind
	Lexeme string
	Line   int
	Column int
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d:%d", t.Kind, t.Lexeme, t.Line, t.Column)
}
