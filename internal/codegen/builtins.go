package codegen

import "byteflow/internal/ast"

// emitBuiltinCall lowers a call to one of the four library functions
// spec.md §4.2 names. Each is a closed-form template rather than a
// user-defined-function inline, since none of them take a ByteFlow
// function body: print's string argument has no runtime representation
// at all (it is burned directly into "+"*code sequences), and the other
// three wrap a single tape-machine primitive (`.` or `,`).
func (e *Emitter) emitBuiltinCall(n *ast.CallExpr, sig builtinSig) int {
	if len(n.Args) != sig.arity {
		e.errorf(n.Tok, "%s expects %d argument(s), got %d", n.Name, sig.arity, len(n.Args))
		return e.zeroTemp()
	}
	switch n.Name {
	case "print":
		lit, ok := n.Args[0].(*ast.StringLit)
		if !ok {
			e.errorf(n.Tok, "print expects a string literal argument")
			return e.zeroTemp()
		}
		e.emitPrintString(lit.Value)
		return e.zeroTemp()
	case "printint":
		v := e.emitExpr(n.Args[0])
		e.emitPrintIntCell(v)
		return e.zeroTemp()
	case "printchar":
		v := e.emitExpr(n.Args[0])
		e.emitPrintChar(v)
		return e.zeroTemp()
	case "readint":
		return e.emitReadInt()
	default:
		return e.zeroTemp()
	}
}

// emitPrintString burns a string literal directly into the instruction
// stream: one scratch cell, set-and-print per character, per spec.md
// §4.2's "lowered to a sequence of +…+. per character, no storage"
// contract.
func (e *Emitter) emitPrintString(s string) {
	t := e.tp.AllocateTemp()
	e.zero(t)
	for _, r := range s {
		e.setConst(t, int(r))
		e.moveTo(t)
		e.emit(".")
	}
	e.zero(t)
	e.tp.ReleaseTemp(t)
}

// emitPrintChar prints the raw byte in cell (consumed) via ".".
func (e *Emitter) emitPrintChar(cell int) {
	e.moveTo(cell)
	e.emit(".")
	e.zero(cell)
	e.tp.ReleaseTemp(cell)
}

// emitPrintIntCell prints n (consumed), a byte in [0,255], as decimal
// ASCII with no leading zeros: split into hundreds/tens/units by
// constant-divisor division, then print the hundreds digit if it is
// non-zero, the tens digit if it or the hundreds digit is non-zero, and
// the units digit always (so 0 prints as "0").
func (e *Emitter) emitPrintIntCell(n int) {
	q100, r100 := e.divmodConstCell(n, 100)
	q10, r10 := e.divmodConstCell(r100, 10)

	hNonzero := e.tp.AllocateTemp()
	e.zero(hNonzero)
	e.isNonzero(hNonzero, q100)
	tNonzero := e.tp.AllocateTemp()
	e.zero(tNonzero)
	e.isNonzero(tNonzero, q10)
	showTens := e.tp.AllocateTemp()
	e.zero(showTens)
	e.orCells(showTens, hNonzero, tNonzero)
	e.tp.ReleaseTemp(tNonzero)

	e.ifCell(hNonzero, func() { e.emitPrintDigit(e.copyOf(q100)) }, nil)
	e.ifCell(showTens, func() { e.emitPrintDigit(e.copyOf(q10)) }, nil)
	e.emitPrintDigit(r10)
	e.tp.ReleaseTemp(hNonzero)
	e.tp.ReleaseTemp(showTens)

	e.zero(q100)
	e.tp.ReleaseTemp(q100)
	e.zero(q10)
	e.tp.ReleaseTemp(q10)
}

// emitPrintDigit prints the single decimal digit held in cell (0-9,
// consumed) as its ASCII character.
func (e *Emitter) emitPrintDigit(cell int) {
	e.incr(cell, int('0'))
	e.moveTo(cell)
	e.emit(".")
	e.zero(cell)
	e.tp.ReleaseTemp(cell)
}

// emitReadInt reads ASCII decimal digits from stdin via repeated "," until
// a non-digit byte (or EOF, which the tape machine's "," delivers as a 0
// cell, per spec.md §6) is read, accumulating value = value*10 + digit.
// The terminating byte is consumed and discarded; ByteFlow's tape
// primitives have no way to push a read byte back, the same limitation
// the library-function contract in spec.md §4.2 describes for readint.
//
// value is a single fixed cell for the whole loop's lifetime: every digit's
// multiply-and-add writes the result back into that same cell before the
// next "," runs, since the loop body below is emitted once but its bf text
// sits inside the runtime loop and re-executes against whatever physical
// cells it names — a fresh cell per digit would only ever hold the last one.
func (e *Emitter) emitReadInt() int {
	value := e.tp.AllocateTemp()
	e.setConst(value, 0)
	running := e.tp.AllocateTemp()
	e.setConst(running, 1)

	e.whileCell(running, func() {
		ch := e.tp.AllocateTemp()
		e.zero(ch)
		e.moveTo(ch)
		e.emit(",")

		isDigit := e.tp.AllocateTemp()
		e.zero(isDigit)
		e.emitIsDigit(isDigit, ch)

		e.ifCell(isDigit, func() {
			e.decr(ch, int('0'))
			ten := e.tp.AllocateTemp()
			e.setConst(ten, 10)
			scaled := e.multiplyCells(e.copyOf(value), ten)
			e.addInto(scaled, ch)
			e.zero(value)
			e.moveValue(value, scaled)
			e.tp.ReleaseTemp(scaled)
		}, func() {
			e.zero(ch)
			e.setConst(running, 0)
		})
		e.tp.ReleaseTemp(ch)
		e.tp.ReleaseTemp(isDigit)
	}, func() {})

	e.tp.ReleaseTemp(running)
	return value
}

// emitIsDigit sets dst to 1 if ch is in ['0','9'], else 0. ch is left
// unchanged.
func (e *Emitter) emitIsDigit(dst, ch int) {
	ge0 := e.tp.AllocateTemp()
	e.zero(ge0)
	e.emitGreaterEqualConst(ge0, ch, int('0'))

	nine := e.tp.AllocateTemp()
	e.setConst(nine, int('9'))
	le9 := e.tp.AllocateTemp()
	e.zero(le9)
	e.emitGreaterEqual(le9, nine, ch)
	e.tp.ReleaseTemp(nine)

	e.andCells(dst, ge0, le9)
	e.tp.ReleaseTemp(le9)
	e.tp.ReleaseTemp(ge0)
}
