package codegen

import (
	"bytes"
	"strings"
	"testing"

	"byteflow/internal/ast"
	"byteflow/internal/diag"
	"byteflow/internal/tape"
	"byteflow/internal/tapevm"
)

func newTestEmitter() *Emitter {
	return &Emitter{
		prog:  &ast.Program{FuncByName: map[string]*ast.Function{}},
		syms:  tape.NewSymbolTable(),
		tp:    tape.NewAllocator(0),
		diags: &diag.Sink{},
	}
}

// runCell prints the byte held in cell and returns it by running the
// emitted program through tapevm.
func runCell(t *testing.T, e *Emitter, cell int) byte {
	t.Helper()
	e.moveTo(cell)
	e.emit(".")
	var out bytes.Buffer
	m, err := tapevm.New(e.out.String(), strings.NewReader(""), &out)
	if err != nil {
		t.Fatalf("tapevm.New: %v", err)
	}
	m.MaxSteps = 5_000_000
	if err := m.Run(); err != nil {
		t.Fatalf("tapevm Run: %v", err)
	}
	if out.Len() != 1 {
		t.Fatalf("expected exactly one printed byte, got %d", out.Len())
	}
	return out.Bytes()[0]
}

func TestMultiplyCells(t *testing.T) {
	tests := []struct{ a, b, want int }{
		{3, 4, 12},
		{0, 9, 0},
		{16, 16, 0}, // 256 mod 256 == 0
	}
	for _, tc := range tests {
		e := newTestEmitter()
		a := e.tp.AllocateTemp()
		e.setConst(a, tc.a)
		b := e.tp.AllocateTemp()
		e.setConst(b, tc.b)
		c := e.multiplyCells(a, b)
		if got := runCell(t, e, c); int(got) != tc.want {
			t.Errorf("multiplyCells(%d, %d) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestDivmodConstCell(t *testing.T) {
	e := newTestEmitter()
	a := e.tp.AllocateTemp()
	e.setConst(a, 237)
	q, _ := e.divmodConstCell(a, 100)
	if got := runCell(t, e, q); got != 2 {
		t.Errorf("237/100 quotient = %d, want 2", got)
	}
	e2 := newTestEmitter()
	a2 := e2.tp.AllocateTemp()
	e2.setConst(a2, 237)
	_, r2 := e2.divmodConstCell(a2, 100)
	if got := runCell(t, e2, r2); got != 37 {
		t.Errorf("237/100 remainder = %d, want 37", got)
	}
}

func TestOrCells(t *testing.T) {
	tests := []struct{ a, b, want int }{
		{0, 0, 0},
		{0, 5, 1},
		{5, 0, 1},
		{3, 4, 1},
	}
	for _, tc := range tests {
		e := newTestEmitter()
		a := e.tp.AllocateTemp()
		e.setConst(a, tc.a)
		b := e.tp.AllocateTemp()
		e.setConst(b, tc.b)
		dst := e.tp.AllocateTemp()
		e.zero(dst)
		e.orCells(dst, a, b)
		if got := runCell(t, e, dst); int(got) != tc.want {
			t.Errorf("orCells(%d, %d) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestEmitGreaterEqual(t *testing.T) {
	tests := []struct{ a, b, want int }{
		{5, 3, 1},
		{3, 5, 0},
		{4, 4, 1},
		{0, 0, 1},
	}
	for _, tc := range tests {
		e := newTestEmitter()
		a := e.tp.AllocateTemp()
		e.setConst(a, tc.a)
		b := e.tp.AllocateTemp()
		e.setConst(b, tc.b)
		dst := e.tp.AllocateTemp()
		e.zero(dst)
		e.emitGreaterEqual(dst, a, b)
		if got := runCell(t, e, dst); int(got) != tc.want {
			t.Errorf("emitGreaterEqual(%d, %d) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestCopyValuePreservesSource(t *testing.T) {
	e := newTestEmitter()
	src := e.tp.AllocateTemp()
	e.setConst(src, 42)
	dst := e.tp.AllocateTemp()
	e.zero(dst)
	e.copyValue(dst, src)
	if got := runCell(t, e, dst); got != 42 {
		t.Errorf("copyValue dst = %d, want 42", got)
	}
	e2 := newTestEmitter()
	src2 := e2.tp.AllocateTemp()
	e2.setConst(src2, 42)
	dst2 := e2.tp.AllocateTemp()
	e2.zero(dst2)
	e2.copyValue(dst2, src2)
	if got := runCell(t, e2, src2); got != 42 {
		t.Errorf("copyValue src = %d after copy, want 42", got)
	}
}

func TestIfCellLeavesCondAtZero(t *testing.T) {
	e := newTestEmitter()
	cond := e.tp.AllocateTemp()
	e.setConst(cond, 1)
	ran := e.tp.AllocateTemp()
	e.setConst(ran, 0)
	e.ifCell(cond, func() {
		e.setConst(ran, 1)
	}, nil)
	if got := runCell(t, e, ran); got != 1 {
		t.Errorf("then-branch did not run: ran = %d", got)
	}
	e2 := newTestEmitter()
	cond2 := e2.tp.AllocateTemp()
	e2.setConst(cond2, 1)
	ran2 := e2.tp.AllocateTemp()
	e2.setConst(ran2, 0)
	e2.ifCell(cond2, func() {
		e2.setConst(ran2, 1)
	}, nil)
	if got := runCell(t, e2, cond2); got != 0 {
		t.Errorf("cond = %d after ifCell, want 0", got)
	}
}
