package codegen

import (
	"byteflow/internal/ast"
	"byteflow/internal/diag"
	"byteflow/internal/tape"
)

// emitStmt lowers a single statement. If breakFlags is non-empty (we are
// inside a loop or switch), each statement is compiled without an extra
// per-statement guard here — the guard is added by emitStmts, which wraps
// every statement of a sequence, so that break's effect (zeroing the innermost running flag)
// is honored for every remaining sibling statement in the current block
// and every block nested under it, per spec.md §4.3's guard-flag envelope.
func (e *Emitter) emitStmt(stmt ast.Stmt) {
	switch n := stmt.(type) {
	case *ast.Block:
		e.emitBlock(n)
	case *ast.VarDecl:
		e.emitVarDecl(n)
	case *ast.Assign:
		e.emitAssign(n)
	case *ast.If:
		e.emitIf(n)
	case *ast.While:
		e.emitWhile(n)
	case *ast.For:
		e.emitFor(n)
	case *ast.Switch:
		e.emitSwitch(n)
	case *ast.Break:
		e.emitBreak(n)
	case *ast.Return:
		e.emitReturn(n)
	case *ast.ExprStmt:
		r := e.emitExpr(n.Expr)
		e.zero(r)
		e.tp.ReleaseTemp(r)
	case *ast.Call:
		r := e.emitCallExpr(n.Call)
		e.zero(r)
		e.tp.ReleaseTemp(r)
	default:
		e.diags.Add(diag.Int("emitStmt: unhandled node %T", n))
	}
}

// emitStmts compiles a sequence of statements. Inside a breakable context
// (breakFlags non-empty) each statement is individually wrapped in "if
// (innermost running flag) { stmt }" so that once break zeroes that flag,
// every statement after the break point — at this level and in any nested
// block that does not introduce its own loop/switch — is skipped. Control
// then falls out the bottom of the current loop/switch body normally,
// where the loop's own flag re-check ends iteration (or the switch's
// dispatch chain ends).
func (e *Emitter) emitStmts(stmts []ast.Stmt) {
	if len(e.breakFlags) == 0 {
		for _, s := range stmts {
			e.emitStmt(s)
		}
		return
	}
	flag := e.breakFlags[len(e.breakFlags)-1]
	for _, s := range stmts {
		guard := e.copyOf(flag)
		e.ifCell(guard, func() { e.emitStmt(s) }, nil)
	}
}

func (e *Emitter) emitBlock(b *ast.Block) {
	e.syms.EnterScope()
	mark := e.allocMark()
	e.emitStmts(b.Stmts)
	e.restoreMark(mark)
	e.syms.ExitScope()
}

// allocMark/restoreMark bracket enterScope/exitScope (spec.md §4.1): on
// exit, every cell allocated since the mark is zeroed — even though
// nothing on the tape aliases it yet — before the watermark drops, so the
// zero-cell invariant holds for whichever declaration reuses that range
// next.
func (e *Emitter) allocMark() tape.Mark { return e.tp.Mark() }

func (e *Emitter) restoreMark(m tape.Mark) {
	for c := e.tp.Watermark() - 1; c >= m.Watermark(); c-- {
		e.zero(c)
	}
	e.tp.Restore(m)
}

func (e *Emitter) emitVarDecl(n *ast.VarDecl) {
	size := n.Type.Size()
	cell := e.tp.AllocateNamed(size)
	isArray := n.Type.Kind == ast.Array
	if !e.syms.Define(tape.Symbol{Name: n.Name, CellIndex: cell, Size: size, Dims: arrayDims(n.Type), IsArray: isArray}) {
		e.errorf(n.Tok, "redeclaration of %q in the same scope", n.Name)
		return
	}
	if isArray {
		if n.Init != nil {
			e.errorf(n.Tok, "array %q cannot have a scalar initializer", n.Name)
			return
		}
		if len(n.ArrayInit) > size {
			e.errorf(n.Tok, "too many initializers for array %q", n.Name)
			return
		}
		for i, elem := range n.ArrayInit {
			v := e.emitExpr(elem)
			e.moveValue(cell+i, v)
		}
		return
	}
	if n.Init == nil {
		return // cell already zero, per the zero-cell invariant
	}
	v := e.emitExpr(n.Init)
	e.moveValue(cell, v)
}

func (e *Emitter) emitAssign(n *ast.Assign) {
	switch target := n.Target.(type) {
	case *ast.Ident:
		sym, ok := e.syms.Lookup(target.Name)
		if !ok {
			e.errorf(target.Tok, "undeclared identifier %q", target.Name)
			return
		}
		if sym.IsArray {
			e.errorf(target.Tok, "cannot assign to array %q directly", target.Name)
			return
		}
		v := e.emitExpr(n.Value)
		e.zero(sym.CellIndex)
		e.moveValue(sym.CellIndex, v)
	case *ast.Index:
		e.emitIndexAssign(target, n.Value)
	default:
		e.diags.Add(diag.Int("emitAssign: unsupported target %T", target))
	}
}

func (e *Emitter) emitIndexAssign(target *ast.Index, value ast.Expr) {
	acc, ok := e.resolveArrayAccess(target)
	if !ok {
		return
	}
	if acc.isConst {
		v := e.emitExpr(value)
		e.zero(acc.base + acc.constOff)
		e.moveValue(acc.base+acc.constOff, v)
		return
	}
	v := e.emitExpr(value)
	e.emitIndexedCompare(acc.offCell, acc.size, func(k int) {
		e.zero(acc.base + k)
		e.copyValue(acc.base+k, v)
	})
	e.zero(v)
	e.tp.ReleaseTemp(v)
	e.tp.ReleaseTemp(acc.offCell)
}

func (e *Emitter) emitIf(n *ast.If) {
	c := e.emitExpr(n.Cond)
	truth := e.tp.AllocateTemp()
	e.zero(truth)
	e.isNonzero(truth, c)
	e.tp.ReleaseTemp(c)
	var elseFn func()
	if n.Else != nil {
		elseFn = func() { e.emitStmt(n.Else) }
	}
	e.ifCell(truth, func() { e.emitStmt(n.Then) }, elseFn)
}

func (e *Emitter) emitWhile(n *ast.While) {
	c := e.tp.AllocateTemp()
	e.zero(c)
	e.evalTruth(c, n.Cond)

	running := e.tp.AllocateTemp()
	e.setConst(running, 1)
	e.breakFlags = append(e.breakFlags, running)

	gate := e.tp.AllocateTemp()
	e.zero(gate)
	e.andCells(gate, c, running)

	e.whileCell(gate, func() {
		e.emitStmt(n.Body)
	}, func() {
		e.evalTruth(c, n.Cond)
		e.andCells(gate, c, running)
	})

	e.breakFlags = e.breakFlags[:len(e.breakFlags)-1]
	e.tp.ReleaseTemp(gate)
	e.tp.ReleaseTemp(running)
	e.tp.ReleaseTemp(c)
}

// evalTruth evaluates cond and leaves a 0/1 truth value in dst (which must
// already be zero).
func (e *Emitter) evalTruth(dst int, cond ast.Expr) {
	v := e.emitExpr(cond)
	e.isNonzero(dst, v)
	e.tp.ReleaseTemp(v)
}

// andCells sets dst to 1 if both a and b are non-zero. a and b are left
// unchanged.
func (e *Emitter) andCells(dst, a, b int) {
	e.setConst(dst, 0)
	ac := e.copyOf(a)
	e.ifCell(ac, func() {
		bc := e.copyOf(b)
		e.isNonzero(dst, bc)
		e.tp.ReleaseTemp(bc)
	}, nil)
}

func (e *Emitter) emitFor(n *ast.For) {
	e.syms.EnterScope()
	mark := e.allocMark()
	if n.Init != nil {
		e.emitStmt(n.Init)
	}
	cond := n.Cond
	if cond == nil {
		cond = &ast.BoolLit{Value: true}
	}
	body := n.Body
	if n.Step != nil {
		body = &ast.Block{Stmts: []ast.Stmt{n.Body, n.Step}}
	}
	e.emitWhile(&ast.While{Cond: cond, Body: body})
	e.restoreMark(mark)
	e.syms.ExitScope()
}

func (e *Emitter) emitBreak(n *ast.Break) {
	if len(e.breakFlags) == 0 {
		e.errorf(n.Tok, "break outside a loop or switch")
		return
	}
	e.setConst(e.breakFlags[len(e.breakFlags)-1], 0)
}

func (e *Emitter) emitReturn(n *ast.Return) {
	if e.curFrame == nil {
		e.diags.Add(diag.Int("return outside a function"))
		return
	}
	if n.Value != nil {
		v := e.emitExpr(n.Value)
		e.zero(e.curFrame.returnValue)
		e.moveValue(e.curFrame.returnValue, v)
	}
	e.setConst(e.curFrame.returnFlag, 0)
	// A return reached while inside a loop/switch must also stop that
	// construct's remaining statements, the same way break does, since
	// the guard chain in emitStmts only looks at the innermost running
	// flag. Only the flags pushed since this function's own rf are
	// cleared; the caller's flags (below rf) are left alone.
	for i := len(e.breakFlags) - 1; i >= 0 && e.breakFlags[i] != e.curFrame.returnFlag; i-- {
		e.setConst(e.breakFlags[i], 0)
	}
}

// emitSwitch lowers to a chain of if/else over copies of the target value,
// per spec.md §4.3. break sets the shared running flag, which also guards
// the default clause and every case after the one break was reached in.
// falling tracks C's fallthrough-until-break semantics: once any case's
// label matches, it latches to 1 and every later case body (and default)
// runs unconditionally — gated only by running — even though its own label
// doesn't match, exactly as an unmatched case falls through in C when the
// one above it didn't break.
func (e *Emitter) emitSwitch(n *ast.Switch) {
	target := e.emitExpr(n.Target)

	running := e.tp.AllocateTemp()
	e.setConst(running, 1)
	e.breakFlags = append(e.breakFlags, running)

	falling := e.tp.AllocateTemp()
	e.setConst(falling, 0)

	for _, c := range n.Cases {
		lit, isConst := c.Value.(*ast.IntLit)
		if !isConst {
			e.errorf(n.Target.Pos(), "case label must be a constant integer")
			continue
		}
		eq := e.tp.AllocateTemp()
		e.emitEqualsConst(eq, target, lit.Value)
		e.orCells(falling, falling, eq)
		e.tp.ReleaseTemp(eq)

		gate := e.tp.AllocateTemp()
		e.zero(gate)
		e.andCells(gate, falling, running)
		e.ifCell(gate, func() {
			e.emitStmts(c.Body)
		}, nil)
		e.tp.ReleaseTemp(gate)
	}
	if n.Default != nil {
		e.ifCell(e.copyOf(running), func() {
			e.emitStmts(n.Default)
		}, nil)
	}

	e.breakFlags = e.breakFlags[:len(e.breakFlags)-1]
	e.tp.ReleaseTemp(falling)
	e.tp.ReleaseTemp(running)
	e.zero(target)
	e.tp.ReleaseTemp(target)
}
