// Package diag defines ByteFlow's error taxonomy. Every phase of the
// pipeline returns diagnostics as values — nothing in this package panics.
package diag

import "fmt"

// Kind is a diagnostic's error category: the four input-error kinds, plus
// Internal for a report that indicates a compiler bug rather than bad input.
type Kind int

const (
	Lexical Kind = iota
	Syntax
	Semantic
	Capacity
	Internal
)

func (k Kind) String() string {
	switch k {
	case Lexical:
		return "lexical error"
	case Syntax:
		return "syntax error"
	case Semantic:
		return "semantic error"
	case Capacity:
		return "capacity error"
	case Internal:
		return "internal error"
	default:
		return "error"
	}
}

// Diagnostic is a single reported problem, carrying source position.
type Diagnostic struct {
	Kind    Kind
	Line    int
	Column  int
	Message string
}

func (d Diagnostic) Error() string {
	if d.Line == 0 {
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
	return fmt.Sprintf("%s: %d:%d: %s", d.Kind, d.Line, d.Column, d.Message)
}

func New(kind Kind, line, column int, format string, args ...interface{}) Diagnostic {
	return Diagnostic{Kind: kind, Line: line, Column: column, Message: fmt.Sprintf(format, args...)}
}

func Lex(line, column int, format string, args ...interface{}) Diagnostic {
	return New(Lexical, line, column, format, args...)
}

func Syn(line, column int, format string, args ...interface{}) Diagnostic {
	return New(Syntax, line, column, format, args...)
}

func Sem(line, column int, format string, args ...interface{}) Diagnostic {
	return New(Semantic, line, column, format, args...)
}

func Cap(line, column int, format string, args ...interface{}) Diagnostic {
	return New(Capacity, line, column, format, args...)
}

func Int(format string, args ...interface{}) Diagnostic {
	return New(Internal, 0, 0, format, args...)
}

// Sink collects diagnostics from a single compilation pass.
type Sink struct {
	items []Diagnostic
}

func (s *Sink) Add(d Diagnostic) { s.items = append(s.items, d) }

func (s *Sink) HasErrors() bool { return len(s.items) > 0 }

func (s *Sink) Items() []Diagnostic { return s.items }
