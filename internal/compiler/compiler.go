// Package compiler wires the pipeline stages together: lexer, parser,
// codegen, the peephole optimizer, and the minifier. It is the only
// package cmd/byteflow imports for the actual compilation work.
package compiler

import (
	"byteflow/internal/codegen"
	"byteflow/internal/diag"
	"byteflow/internal/lexer"
	"byteflow/internal/minify"
	"byteflow/internal/optimize"
	"byteflow/internal/parser"
)

// Options controls optional pipeline stages.
type Options struct {
	// Optimize runs the peephole optimizer (internal/optimize) before
	// minifying.
	Optimize bool
	// KeepComments skips the minifier, returning the annotated instruction
	// stream codegen produced (useful for -v/--verbose output).
	KeepComments bool
}

// Result is everything a successful compilation produces.
type Result struct {
	Program string // the final tape-machine instruction stream
	Tokens  int    // token count (including EOF), surfaced by the CLI's -v output
}

// Compile runs source through every pipeline stage and returns the final
// program. A non-empty diags slice means program is empty and must not be
// used; diags[0] is always the first error encountered, matching each
// stage's fail-fast contract.
func Compile(source string, opts Options) (Result, []diag.Diagnostic) {
	tokens, err := lexer.Lex(source)
	if err != nil {
		return Result{}, []diag.Diagnostic{toDiagnostic(err)}
	}

	prog, err := parser.Parse(tokens)
	if err != nil {
		return Result{}, []diag.Diagnostic{toDiagnostic(err)}
	}

	asm, sink := codegen.Generate(prog)
	if sink.HasErrors() {
		return Result{}, sink.Items()
	}

	if opts.Optimize {
		asm = optimize.Optimize(asm)
	}
	if !opts.KeepComments {
		asm = minify.Minify(asm)
	}
	return Result{Program: asm, Tokens: len(tokens)}, nil
}

// toDiagnostic recovers a diag.Diagnostic from a pipeline stage's plain
// error, for stages (the lexer) that don't yet have a position to attach
// — those get wrapped in a Lexical diagnostic with no position whose
// message is the underlying error text.
func toDiagnostic(err error) diag.Diagnostic {
	if d, ok := err.(diag.Diagnostic); ok {
		return d
	}
	return diag.Lex(0, 0, "%s", err.Error())
}
