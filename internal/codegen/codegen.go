// Package codegen lowers a ByteFlow ast.Program to a tape-machine
// instruction stream. It implements E (expression emitter), C
// (statement/control emitter), and F (function-call lowering) from the
// specification, built on top of internal/tape's allocator and symbol
// table.
//
// Unlike the teacher's register-machine CodeGen, which emits text
// referencing named registers and lets its assembler resolve addresses,
// every tape cell address is known at compile time here. The Emitter keeps
// a `pos` cursor — the cell the data pointer is known to be parked at —
// and every emission goes through moveTo, which computes the `>`/`<` delta
// from the cursor to the target cell. This replaces the original compiler's
// hand-tracked relative offsets with a single source of truth, while
// keeping the same idea: the active frame's base is tracked conceptually
// by the emitter, never stored on the tape.
package codegen

import (
	"fmt"
	"strings"

	"byteflow/internal/ast"
	"byteflow/internal/diag"
	"byteflow/internal/tape"
)

// arrayDims returns t's per-dimension lengths, outermost first, by walking
// its Array/Elem chain; nil for a non-array type.
func arrayDims(t ast.Type) []int {
	var dims []int
	for t.Kind == ast.Array {
		dims = append(dims, t.Len)
		t = *t.Elem
	}
	return dims
}

// builtinSig describes a library function's call shape for arity checking.
type builtinSig struct {
	arity  int
	isVoid bool
}

var builtins = map[string]builtinSig{
	"print":     {arity: 1, isVoid: true},
	"printint":  {arity: 1, isVoid: true},
	"printchar": {arity: 1, isVoid: true},
	"readint":   {arity: 0, isVoid: false},
}

// Emitter walks the AST and writes tape-machine instructions to out. A
// fresh Emitter is created per compilation by Generate.
type Emitter struct {
	prog *ast.Program
	syms *tape.SymbolTable
	tp   *tape.Allocator
	out  strings.Builder
	pos  int

	diags *diag.Sink

	// breakFlags is the stack of running-flag cell indices for the
	// loops/switches currently being emitted, innermost last. `break`
	// zeroes only breakFlags[len-1].
	breakFlags []int

	// callChain detects the inlining strategy's forbidden cycles: a call
	// to any function already on this chain is a semantic error.
	callChain []string

	// errSentinel is the global cell the div/mod-by-zero guard sets.
	errSentinel int

	// curFrame describes the function currently being emitted, so Return
	// knows where to write the result and which flag to clear.
	curFrame *frame

	verbose bool
}

// frame holds the two cells every call-convention frame reserves ahead of
// its parameters/locals, per spec.md §4.4's `[rf | rv | p1…pk | locals…]`
// layout.
type frame struct {
	returnFlag  int
	returnValue int
}

// Generate compiles prog to an annotated instruction stream (comments
// included; internal/minify strips them for the final program). It returns
// the stream and any diagnostics collected; a non-empty Sink means the
// stream is not meaningful.
func Generate(prog *ast.Program) (string, *diag.Sink) {
	e := &Emitter{
		prog:  prog,
		syms:  tape.NewSymbolTable(),
		diags: &diag.Sink{},
	}
	e.tp = tape.NewAllocator(0)
	e.errSentinel = e.tp.AllocateNamed(1)
	e.comment("globals")
	e.emitGlobals()
	main, ok := prog.FuncByName["main"]
	if !ok {
		e.diags.Add(diag.Sem(0, 0, "no main function defined"))
		return "", e.diags
	}
	if len(main.Params) != 0 {
		e.diags.Add(diag.Sem(main.Tok.Line, main.Tok.Column, "main must take no parameters"))
	}
	e.callChain = append(e.callChain, "main")
	e.emitFunctionInline(main, nil)
	e.moveTo(0)
	if e.diags.HasErrors() {
		return "", e.diags
	}
	return e.out.String(), e.diags
}

//  cursor primitives

func (e *Emitter) moveTo(idx int) {
	d := idx - e.pos
	if d > 0 {
		e.out.WriteString(strings.Repeat(">", d))
	} else if d < 0 {
		e.out.WriteString(strings.Repeat("<", -d))
	}
	e.pos = idx
}

func (e *Emitter) emit(s string) { e.out.WriteString(s) }

func (e *Emitter) comment(format string, args ...interface{}) {
	e.out.WriteString("# ")
	fmt.Fprintf(&e.out, format, args...)
	e.out.WriteString("\n")
}

// zero sets a cell to 0 via the bf "[-]" idiom.
func (e *Emitter) zero(idx int) {
	e.moveTo(idx)
	e.emit("[-]")
}

// setConst zeroes a cell then increments it n mod 256 times.
func (e *Emitter) setConst(idx int, n int) {
	e.zero(idx)
	n = ((n % 256) + 256) % 256
	if n > 0 {
		e.emit(strings.Repeat("+", n))
	}
}

func (e *Emitter) incr(idx, n int) {
	e.moveTo(idx)
	e.emit(strings.Repeat("+", n))
}

func (e *Emitter) decr(idx, n int) {
	e.moveTo(idx)
	e.emit(strings.Repeat("-", n))
}

// moveValue moves src's value into dst (dst assumed zero), consuming src.
func (e *Emitter) moveValue(dst, src int) {
	e.moveTo(src)
	e.emit("[")
	e.moveTo(dst)
	e.emit("+")
	e.moveTo(src)
	e.emit("-")
	e.emit("]")
}

// addInto adds src into dst, consuming src to zero.
func (e *Emitter) addInto(dst, src int) {
	e.moveTo(src)
	e.emit("[")
	e.moveTo(dst)
	e.emit("+")
	e.moveTo(src)
	e.emit("-")
	e.emit("]")
}

// subFrom subtracts src from dst, consuming src to zero.
func (e *Emitter) subFrom(dst, src int) {
	e.moveTo(src)
	e.emit("[")
	e.moveTo(dst)
	e.emit("-")
	e.moveTo(src)
	e.emit("-")
	e.emit("]")
}

// copyValue copies src into dst (dst assumed zero) using a scratch temp,
// leaving src unchanged. This is the copy idiom from spec.md §4.2.
func (e *Emitter) copyValue(dst, src int) {
	tmp := e.tp.AllocateTemp()
	e.zero(tmp)
	e.moveTo(src)
	e.emit("[")
	e.moveTo(dst)
	e.emit("+")
	e.moveTo(tmp)
	e.emit("+")
	e.moveTo(src)
	e.emit("-")
	e.emit("]")
	e.moveTo(tmp)
	e.emit("[")
	e.moveTo(src)
	e.emit("+")
	e.moveTo(tmp)
	e.emit("-")
	e.emit("]")
	e.tp.ReleaseTemp(tmp)
}

// isZero sets dst to 1 if src == 0, else 0. src is left unchanged.
func (e *Emitter) isZero(dst, src int) {
	tmp := e.tp.AllocateTemp()
	e.zero(tmp)
	e.copyValue(tmp, src)
	e.setConst(dst, 1)
	e.moveTo(tmp)
	e.emit("[")
	e.zero(dst)
	e.zero(tmp)
	e.emit("]")
	e.tp.ReleaseTemp(tmp)
}

// isNonzero sets dst to 1 if src != 0, else 0. src is left unchanged.
func (e *Emitter) isNonzero(dst, src int) {
	tmp := e.tp.AllocateTemp()
	e.zero(tmp)
	e.copyValue(tmp, src)
	e.setConst(dst, 0)
	e.moveTo(tmp)
	e.emit("[")
	e.setConst(dst, 1)
	e.zero(tmp)
	e.emit("]")
	e.tp.ReleaseTemp(tmp)
}

// whileCell emits a while loop keyed on condCell: the loop's guard is
// re-tested by re-invoking recompute after body, which must leave its
// result back in condCell (recompute is responsible for zeroing condCell
// itself before writing the new value, since every emission primitive here
// already does that).
func (e *Emitter) whileCell(condCell int, body func(), recompute func()) {
	e.moveTo(condCell)
	e.emit("[")
	body()
	recompute()
	e.moveTo(condCell)
	e.emit("]")
}

// ifCell emits an if/else guarded by condCell, using the two-flag pattern
// from spec.md §4.3. condCell is left at 0 on exit either way. Either
// branch may be nil.
func (e *Emitter) ifCell(condCell int, thenFn, elseFn func()) {
	var elseFlag int
	if elseFn != nil {
		elseFlag = e.tp.AllocateTemp()
		e.setConst(elseFlag, 1)
	}
	e.moveTo(condCell)
	e.emit("[")
	if elseFn != nil {
		e.setConst(elseFlag, 0)
	}
	if thenFn != nil {
		thenFn()
	}
	e.zero(condCell)
	e.moveTo(condCell)
	e.emit("]")
	if elseFn != nil {
		e.moveTo(elseFlag)
		e.emit("[")
		e.setConst(elseFlag, 0)
		elseFn()
		e.moveTo(elseFlag)
		e.emit("]")
		e.tp.ReleaseTemp(elseFlag)
	}
}

// multiplyCells consumes a and b and returns a fresh cell holding a*b,
// via esolangs.org's published "a[b[c+d+b-]d[b+d-]a-]" idiom.
func (e *Emitter) multiplyCells(a, b int) int {
	c := e.tp.AllocateTemp()
	e.zero(c)
	d := e.tp.AllocateTemp()
	e.zero(d)

	e.moveTo(a)
	e.emit("[")
	e.moveTo(b)
	e.emit("[")
	e.moveTo(c)
	e.emit("+")
	e.moveTo(d)
	e.emit("+")
	e.moveTo(b)
	e.emit("-")
	e.emit("]")
	e.moveTo(d)
	e.emit("[")
	e.moveTo(b)
	e.emit("+")
	e.moveTo(d)
	e.emit("-")
	e.emit("]")
	e.moveTo(a)
	e.emit("-")
	e.emit("]")

	e.tp.ReleaseTemp(d)
	e.tp.ReleaseTemp(b)
	e.tp.ReleaseTemp(a)
	return c
}

// emitGreaterEqualConst is emitGreaterEqual specialized to a compile-time
// constant right-hand side, used by the library-function templates in
// builtins.go where there is no AST node to drive emitExpr.
func (e *Emitter) emitGreaterEqualConst(dst, cell, k int) {
	kc := e.tp.AllocateTemp()
	e.setConst(kc, k)
	e.emitGreaterEqual(dst, cell, kc)
	e.tp.ReleaseTemp(kc)
}

// divmodConstCell consumes a and returns (quotient, remainder) of a
// divided by the compile-time constant divisor, via the same
// repeated-subtraction idiom as emitDivMod. divisor is assumed non-zero
// (builtins.go only calls this with 10 and 100).
func (e *Emitter) divmodConstCell(a, divisor int) (quotient, remainder int) {
	q := e.tp.AllocateTemp()
	e.setConst(q, 0)
	r := a

	ge := e.tp.AllocateTemp()
	e.zero(ge)
	e.emitGreaterEqualConst(ge, r, divisor)
	e.whileCell(ge, func() {
		e.decr(r, divisor)
		e.incr(q, 1)
	}, func() {
		e.emitGreaterEqualConst(ge, r, divisor)
	})
	e.tp.ReleaseTemp(ge)
	return q, r
}

// orCells sets dst to 1 if a or b (or both) are non-zero. a and b are
// left unchanged.
func (e *Emitter) orCells(dst, a, b int) {
	ta := e.copyOf(a)
	tb := e.copyOf(b)
	e.isNonzero(ta, ta)
	e.isNonzero(tb, tb)
	e.addInto(ta, tb)
	e.isNonzero(dst, ta)
	e.zero(ta)
	e.tp.ReleaseTemp(ta)
	e.tp.ReleaseTemp(tb)
}
