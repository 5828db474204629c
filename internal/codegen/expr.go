package codegen

import (
	"byteflow/internal/ast"
	"byteflow/internal/diag"
	"byteflow/internal/token"
)

// emitExpr lowers expr and returns a fresh temp cell holding its result.
// On error a diagnostic is recorded and a zeroed temp is returned so the
// caller can keep emitting (there is no panic/unwind path here — errors
// accumulate in e.diags the same way they would in the parser).
func (e *Emitter) emitExpr(expr ast.Expr) int {
	switch n := expr.(type) {
	case *ast.IntLit:
		r := e.tp.AllocateTemp()
		e.setConst(r, n.Value)
		return r
	case *ast.CharLit:
		r := e.tp.AllocateTemp()
		e.setConst(r, n.Value)
		return r
	case *ast.BoolLit:
		r := e.tp.AllocateTemp()
		if n.Value {
			e.setConst(r, 1)
		} else {
			e.setConst(r, 0)
		}
		return r
	case *ast.StringLit:
		e.errorf(n.Tok, "string literal is only valid as a direct argument to print()")
		return e.zeroTemp()
	case *ast.Ident:
		return e.emitIdentRead(n)
	case *ast.Index:
		return e.emitIndexRead(n)
	case *ast.Unary:
		return e.emitUnary(n)
	case *ast.Binary:
		return e.emitBinary(n)
	case *ast.CallExpr:
		return e.emitCallExpr(n)
	default:
		e.diags.Add(diag.Int("emitExpr: unhandled node %T", n))
		return e.zeroTemp()
	}
}

func (e *Emitter) zeroTemp() int {
	r := e.tp.AllocateTemp()
	e.zero(r)
	return r
}

func (e *Emitter) errorf(tok token.Token, format string, args ...interface{}) {
	e.diags.Add(diag.Sem(tok.Line, tok.Column, format, args...))
}

func (e *Emitter) emitIdentRead(n *ast.Ident) int {
	sym, ok := e.syms.Lookup(n.Name)
	if !ok {
		e.errorf(n.Tok, "undeclared identifier %q", n.Name)
		return e.zeroTemp()
	}
	if sym.IsArray {
		e.errorf(n.Tok, "array %q used where a scalar value is expected", n.Name)
		return e.zeroTemp()
	}
	r := e.tp.AllocateTemp()
	e.zero(r)
	e.copyValue(r, sym.CellIndex)
	return r
}

// arrayAccess is the result of resolving a (possibly multi-dimensional)
// array access down to a single linear cell offset into the symbol's
// base, per spec.md §3's row-major flattening contract. Either constOff
// is valid at compile time (isConst), or offCell holds the computed
// offset at runtime — a temp the caller must release.
type arrayAccess struct {
	base     int
	size     int
	constOff int
	offCell  int
	isConst  bool
}

// indexChain walks a chain of nested *ast.Index nodes (built left-to-right
// by parsePostfix for `a[i0][i1]...[ik]`) down to its Ident base, returning
// the index expressions in declaration order (outermost dimension first).
func (e *Emitter) indexChain(n *ast.Index) (*ast.Ident, []ast.Expr, bool) {
	var idxs []ast.Expr
	var cur ast.Expr = n
	for {
		idx, isIndex := cur.(*ast.Index)
		if !isIndex {
			break
		}
		idxs = append(idxs, idx.Idx)
		cur = idx.Base
	}
	for i, j := 0, len(idxs)-1; i < j; i, j = i+1, j-1 {
		idxs[i], idxs[j] = idxs[j], idxs[i]
	}
	ident, isIdent := cur.(*ast.Ident)
	if !isIdent {
		return nil, nil, false
	}
	return ident, idxs, true
}

// resolveArrayAccess resolves n, a chain of one or more nested Index nodes
// over a plain array identifier, to a single flattened cell offset. A
// full index (one subscript per declared dimension) is required: this
// tape machine has no pointer/reference value to hand back for a partial
// index naming a sub-array, unlike the original compiler this spec was
// distilled from (see DESIGN.md).
func (e *Emitter) resolveArrayAccess(n *ast.Index) (arrayAccess, bool) {
	ident, idxExprs, valid := e.indexChain(n)
	if !valid {
		e.errorf(n.Tok, "array index base must be a plain identifier")
		return arrayAccess{}, false
	}
	sym, found := e.syms.Lookup(ident.Name)
	if !found {
		e.errorf(ident.Tok, "undeclared identifier %q", ident.Name)
		return arrayAccess{}, false
	}
	if !sym.IsArray {
		e.errorf(ident.Tok, "%q is not an array", ident.Name)
		return arrayAccess{}, false
	}
	dims := sym.Dims
	if len(idxExprs) != len(dims) {
		e.errorf(n.Tok, "%q is a %d-dimensional array, but %d index(es) given", ident.Name, len(dims), len(idxExprs))
		return arrayAccess{}, false
	}

	// weights[i] is the product of every dimension after i: the stride a
	// unit step in dimension i contributes to the flattened offset.
	weights := make([]int, len(dims))
	w := 1
	for i := len(dims) - 1; i >= 0; i-- {
		weights[i] = w
		w *= dims[i]
	}

	allConst := true
	constOff := 0
	for i, idxE := range idxExprs {
		lit, isConst := idxE.(*ast.IntLit)
		if !isConst {
			allConst = false
			continue
		}
		if lit.Value < 0 || lit.Value >= dims[i] {
			e.errorf(n.Tok, "array index %d out of bounds for dimension of size %d", lit.Value, dims[i])
			return arrayAccess{}, false
		}
		constOff += lit.Value * weights[i]
	}
	if allConst {
		return arrayAccess{base: sym.CellIndex, size: sym.Size, constOff: constOff, isConst: true}, true
	}

	total := e.tp.AllocateTemp()
	e.setConst(total, 0)
	for i, idxE := range idxExprs {
		idxCell := e.emitExpr(idxE)
		wc := e.tp.AllocateTemp()
		e.setConst(wc, weights[i])
		prod := e.multiplyCells(idxCell, wc)
		e.addInto(total, prod)
		e.tp.ReleaseTemp(prod)
	}
	return arrayAccess{base: sym.CellIndex, size: sym.Size, offCell: total, isConst: false}, true
}

func (e *Emitter) emitIndexRead(n *ast.Index) int {
	acc, ok := e.resolveArrayAccess(n)
	r := e.tp.AllocateTemp()
	e.zero(r)
	if !ok {
		return r
	}
	if acc.isConst {
		e.copyValue(r, acc.base+acc.constOff)
		return r
	}
	e.emitIndexedCompare(acc.offCell, acc.size, func(k int) {
		e.copyValue(r, acc.base+k)
	})
	e.tp.ReleaseTemp(acc.offCell)
	return r
}

// emitIndexedCompare runs body(k) for exactly the k in [0,length) for which
// idxCell == k at runtime, compiled as a chain of equality guards. This is
// a compile-time-unrolled stand-in for the "moving pointer" walker idiom:
// correct for any array length, at the cost of O(length) guard code per
// access rather than a true runtime pointer walk.
func (e *Emitter) emitIndexedCompare(idxCell, length int, body func(k int)) {
	for k := 0; k < length; k++ {
		eq := e.tp.AllocateTemp()
		e.emitEqualsConst(eq, idxCell, k)
		e.ifCell(eq, func() { body(k) }, nil)
		e.tp.ReleaseTemp(eq)
	}
}

// emitEqualsConst sets dst to 1 if cell == k (mod 256), else 0. cell is
// left unchanged.
func (e *Emitter) emitEqualsConst(dst, cell, k int) {
	tmp := e.tp.AllocateTemp()
	e.zero(tmp)
	e.copyValue(tmp, cell)
	e.decr(tmp, ((k%256)+256)%256)
	e.isZero(dst, tmp)
	e.tp.ReleaseTemp(tmp)
}

func (e *Emitter) emitUnary(n *ast.Unary) int {
	switch n.Op {
	case token.NOT:
		x := e.emitExpr(n.Operand)
		r := e.tp.AllocateTemp()
		e.zero(r)
		e.isZero(r, x)
		e.tp.ReleaseTemp(x)
		return r
	case token.MINUS:
		// ByteFlow cells are unsigned bytes that wrap (spec.md §9's cell
		// width resolution): -x is well-defined as 0-x mod 256.
		x := e.emitExpr(n.Operand)
		r := e.tp.AllocateTemp()
		e.zero(r)
		e.subFrom(r, x)
		return r
	default:
		e.diags.Add(diag.Int("emitUnary: unhandled operator %s", n.Op))
		return e.zeroTemp()
	}
}

func (e *Emitter) emitBinary(n *ast.Binary) int {
	switch n.Op {
	case token.AND_AND:
		return e.emitLogicalAnd(n)
	case token.OR_OR:
		return e.emitLogicalOr(n)
	case token.PLUS:
		l, rhs := e.emitExpr(n.Left), e.emitExpr(n.Right)
		e.addInto(l, rhs)
		e.tp.ReleaseTemp(rhs)
		return l
	case token.MINUS:
		l, rhs := e.emitExpr(n.Left), e.emitExpr(n.Right)
		e.subFrom(l, rhs)
		e.tp.ReleaseTemp(rhs)
		return l
	case token.STAR:
		return e.emitMultiply(n)
	case token.SLASH:
		q, r := e.emitDivMod(n)
		e.zero(r)
		e.tp.ReleaseTemp(r)
		return q
	case token.PERCENT:
		q, r := e.emitDivMod(n)
		e.zero(q)
		e.tp.ReleaseTemp(q)
		return r
	case token.EQ:
		l, rhs := e.emitExpr(n.Left), e.emitExpr(n.Right)
		e.subFrom(l, rhs)
		res := e.tp.AllocateTemp()
		e.zero(res)
		e.isZero(res, l)
		e.tp.ReleaseTemp(l)
		return res
	case token.NOT_EQ:
		l, rhs := e.emitExpr(n.Left), e.emitExpr(n.Right)
		e.subFrom(l, rhs)
		res := e.tp.AllocateTemp()
		e.zero(res)
		e.isNonzero(res, l)
		e.tp.ReleaseTemp(l)
		return res
	case token.LESS, token.LESS_EQ, token.GREATER, token.GREATER_EQ:
		return e.emitOrderCompare(n)
	default:
		e.diags.Add(diag.Int("emitBinary: unhandled operator %s", n.Op))
		return e.zeroTemp()
	}
}

// emitLogicalAnd short-circuits: the right operand is only evaluated if
// the left is true, per spec.md §4.2.
func (e *Emitter) emitLogicalAnd(n *ast.Binary) int {
	l := e.emitExpr(n.Left)
	res := e.tp.AllocateTemp()
	e.zero(res)
	lCopy := e.tp.AllocateTemp()
	e.zero(lCopy)
	e.copyValue(lCopy, l)
	e.tp.ReleaseTemp(l)
	e.ifCell(lCopy, func() {
		r := e.emitExpr(n.Right)
		e.isNonzero(res, r)
		e.tp.ReleaseTemp(r)
	}, nil)
	return res
}

func (e *Emitter) emitLogicalOr(n *ast.Binary) int {
	l := e.emitExpr(n.Left)
	res := e.tp.AllocateTemp()
	e.zero(res)
	lTruth := e.tp.AllocateTemp()
	e.zero(lTruth)
	e.isNonzero(lTruth, l)
	e.tp.ReleaseTemp(l)
	e.ifCell(lTruth, func() {
		e.setConst(res, 1)
	}, func() {
		r := e.emitExpr(n.Right)
		e.isNonzero(res, r)
		e.tp.ReleaseTemp(r)
	})
	return res
}

// emitMultiply implements the standard tape-machine multiplication pattern
// (esolangs.org's published "a[b[c+d+b-]d[b+d-]a-]" idiom), adapted to
// absolute addressing via moveTo.
func (e *Emitter) emitMultiply(n *ast.Binary) int {
	a := e.emitExpr(n.Left)
	b := e.emitExpr(n.Right)
	return e.multiplyCells(a, b)
}

// emitDivMod implements the standard repeated-subtraction division pattern:
// q=0; r=a; while (r>=b) { r-=b; q+=1 }. It is composed from the same
// while/compare primitives the statement emitter uses, rather than a
// hand-derived raw bf snippet, per spec.md §4.2's "standard tape-machine
// division pattern" contract. A runtime divide-by-zero guard sets the
// error sentinel and traps (spec.md §7).
func (e *Emitter) emitDivMod(n *ast.Binary) (quotient, remainder int) {
	a := e.emitExpr(n.Left)
	b := e.emitExpr(n.Right)

	bIsZero := e.tp.AllocateTemp()
	e.zero(bIsZero)
	e.isZero(bIsZero, b)
	e.ifCell(bIsZero, func() {
		e.setConst(e.errSentinel, 1)
		e.moveTo(e.errSentinel)
		e.emit("[]") // endless, [-]-free trap per spec.md §7
	}, nil)

	q := e.tp.AllocateTemp()
	e.setConst(q, 0)
	r := a // reuse a's cell as the running remainder

	ge := e.tp.AllocateTemp()
	e.zero(ge)
	e.emitGreaterEqual(ge, r, b)
	e.whileCell(ge, func() {
		e.subFrom(r, e.copyOf(b))
		e.incr(q, 1)
	}, func() {
		e.emitGreaterEqual(ge, r, b)
	})

	e.tp.ReleaseTemp(ge)
	e.tp.ReleaseTemp(bIsZero)
	e.tp.ReleaseTemp(b)
	return q, r
}

// copyOf returns a fresh temp holding a copy of src, for use where the
// original must survive the consuming primitive about to run on the copy.
func (e *Emitter) copyOf(src int) int {
	t := e.tp.AllocateTemp()
	e.zero(t)
	e.copyValue(t, src)
	return t
}

// emitGreaterEqual sets dst to 1 if a>=b, else 0; both a and b are left
// unchanged. Implemented via the simultaneous-decrement order-comparison
// idiom: repeatedly decrement copies of a and b together until one of them
// hits zero; whichever hits zero first (or both, for equality) decides the
// relation.
func (e *Emitter) emitGreaterEqual(dst, a, b int) {
	ac := e.copyOf(a)
	bc := e.copyOf(b)
	e.setConst(dst, 1) // optimistic: a>=b unless b outlasts a
	keepGoing := e.tp.AllocateTemp()
	e.setConst(keepGoing, 1)
	e.whileCell(keepGoing, func() {
		az := e.tp.AllocateTemp()
		e.zero(az)
		e.isZero(az, ac)
		bz := e.tp.AllocateTemp()
		e.zero(bz)
		e.isZero(bz, bc)
		e.ifCell(az, func() {
			// a exhausted: a>=b iff b also exhausted (equal).
			e.ifCell(e.copyOf(bz), nil, func() { e.setConst(dst, 0) })
			e.setConst(keepGoing, 0)
		}, func() {
			e.ifCell(e.copyOf(bz), func() {
				// b exhausted, a not: a>=b stays true.
				e.setConst(keepGoing, 0)
			}, func() {
				e.decr(ac, 1)
				e.decr(bc, 1)
			})
		})
		e.tp.ReleaseTemp(bz)
		e.tp.ReleaseTemp(az)
	}, func() {})
	e.tp.ReleaseTemp(keepGoing)
	e.tp.ReleaseTemp(bc)
	e.tp.ReleaseTemp(ac)
}

func (e *Emitter) emitOrderCompare(n *ast.Binary) int {
	a := e.emitExpr(n.Left)
	b := e.emitExpr(n.Right)
	res := e.tp.AllocateTemp()
	e.zero(res)
	switch n.Op {
	case token.GREATER_EQ:
		e.emitGreaterEqual(res, a, b)
	case token.LESS:
		ge := e.tp.AllocateTemp()
		e.zero(ge)
		e.emitGreaterEqual(ge, a, b)
		e.isZero(res, ge)
		e.tp.ReleaseTemp(ge)
	case token.GREATER:
		geBA := e.tp.AllocateTemp()
		e.zero(geBA)
		e.emitGreaterEqual(geBA, b, a)
		e.isZero(res, geBA)
		e.tp.ReleaseTemp(geBA)
	case token.LESS_EQ:
		e.emitGreaterEqual(res, b, a)
	}
	e.tp.ReleaseTemp(b)
	e.tp.ReleaseTemp(a)
	return res
}
