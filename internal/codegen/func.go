package codegen

import (
	"byteflow/internal/ast"
	"byteflow/internal/diag"
	"byteflow/internal/tape"
)

// emitGlobals lowers every top-level declaration into the fixed prefix of
// the tape that spec.md §3 reserves for globals, ahead of any call frame.
// It runs once, before main, with no function scope open, so Lookup falls
// through straight to the symbol table's global map.
func (e *Emitter) emitGlobals() {
	for _, decl := range e.prog.Globals {
		switch d := decl.(type) {
		case *ast.GlobalVar:
			cell := e.tp.AllocateNamed(1)
			if !e.syms.Define(tape.Symbol{Name: d.Name, CellIndex: cell, Size: 1}) {
				e.errorf(d.Tok, "redeclaration of global %q", d.Name)
				continue
			}
			if d.Init == nil {
				continue
			}
			v := e.emitExpr(d.Init)
			e.moveValue(cell, v)
		case *ast.GlobalArray:
			size := d.Type.Size()
			cell := e.tp.AllocateNamed(size)
			if !e.syms.Define(tape.Symbol{Name: d.Name, CellIndex: cell, Size: size, Dims: arrayDims(d.Type), IsArray: true}) {
				e.errorf(d.Tok, "redeclaration of global %q", d.Name)
				continue
			}
			if len(d.Init) > size {
				e.errorf(d.Tok, "too many initializers for array %q", d.Name)
				continue
			}
			for i, elem := range d.Init {
				v := e.emitExpr(elem)
				e.moveValue(cell+i, v)
			}
		default:
			e.diags.Add(diag.Int("emitGlobals: unhandled decl %T", d))
		}
	}
}

// emitFunctionInline lowers a call to fn by inlining its body at the call
// site, per spec.md §4.4's frame layout `[rf | rv | p1…pk | locals…]`. The
// frame lives entirely above the caller's current watermark and is zeroed
// and released before emitFunctionInline returns, so the caller sees only
// a single fresh result cell — the recursion-by-inlining strategy this
// package resolves SPEC_FULL.md's recursion Open Question with means no
// frame ever needs to coexist with another activation of the same
// function.
//
// argCells holds already-evaluated, already-owned temp cells for each
// argument (nil for a zero-arg call); emitFunctionInline consumes them.
func (e *Emitter) emitFunctionInline(fn *ast.Function, argCells []int) int {
	e.comment("inline %s", fn.Name)
	result := e.tp.AllocateTemp()
	e.zero(result)

	mark := e.allocMark()
	rf := e.tp.AllocateNamed(1)
	rv := e.tp.AllocateNamed(1)
	e.setConst(rf, 1)
	e.zero(rv)

	e.syms.EnterFunction()
	for i, p := range fn.Params {
		pc := e.tp.AllocateNamed(p.Type.Size())
		e.zero(pc)
		if argCells != nil {
			e.moveValue(pc, argCells[i])
		}
		if !e.syms.Define(tape.Symbol{Name: p.Name, CellIndex: pc, Size: p.Type.Size(), Dims: arrayDims(p.Type), IsParam: true, IsArray: p.Type.Kind == ast.Array}) {
			e.errorf(fn.Tok, "duplicate parameter name %q in %q", p.Name, fn.Name)
		}
	}

	prevFrame := e.curFrame
	e.curFrame = &frame{returnFlag: rf, returnValue: rv}
	e.breakFlags = append(e.breakFlags, rf)

	e.ifCell(rf, func() { e.emitStmts(fn.Body.Stmts) }, nil)

	e.breakFlags = e.breakFlags[:len(e.breakFlags)-1]
	e.curFrame = prevFrame
	e.syms.ExitFunction()

	e.moveValue(result, rv)
	e.restoreMark(mark)
	e.comment("end %s", fn.Name)
	return result
}

// emitCallExpr dispatches a call to either a library builtin (builtins.go)
// or a user-defined function, rejecting any call that would form a cycle
// in the compile-time inlining chain.
func (e *Emitter) emitCallExpr(n *ast.CallExpr) int {
	if sig, ok := builtins[n.Name]; ok {
		return e.emitBuiltinCall(n, sig)
	}

	fn, ok := e.prog.FuncByName[n.Name]
	if !ok {
		e.errorf(n.Tok, "call to undeclared function %q", n.Name)
		return e.zeroTemp()
	}
	if len(n.Args) != len(fn.Params) {
		e.errorf(n.Tok, "%s expects %d argument(s), got %d", n.Name, len(fn.Params), len(n.Args))
		return e.zeroTemp()
	}
	for _, name := range e.callChain {
		if name == n.Name {
			e.errorf(n.Tok, "recursive call to %q is not supported (ByteFlow lowers calls by inlining)", n.Name)
			return e.zeroTemp()
		}
	}

	argCells := make([]int, len(n.Args))
	for i, a := range n.Args {
		argCells[i] = e.emitExpr(a)
	}

	e.callChain = append(e.callChain, n.Name)
	result := e.emitFunctionInline(fn, argCells)
	e.callChain = e.callChain[:len(e.callChain)-1]

	for _, c := range argCells {
		e.tp.ReleaseTemp(c)
	}
	return result
}
