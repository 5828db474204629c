// Package tape implements the cell-allocation discipline the emitter uses:
// a monotonically increasing watermark per scope, LIFO reuse of temporaries,
// and a symbol table mapping names to cell indices. There is no frame
// pointer and no runtime stack — every address is known at compile time,
// which is why this package hands out plain ints instead of FP-relative
// offsets the way the teacher's SymbolTable does.
//
// The documented calling-convention layout this allocator targets, recovered
// from the original Python compiler's comments, is:
//
//	global_var1 global_var2 main_return_value n foo_return_value a=1 b=2 x y
package tape

import "fmt"

// Symbol records where a declared name lives on the tape.
type Symbol struct {
	Name       string
	CellIndex  int
	Size       int   // 1 for scalars, N for an array of N cells (flattened)
	Dims       []int // per-dimension lengths, outermost first; nil for scalars
	ScopeDepth int
	IsParam    bool
	IsArray    bool
}

// Allocator hands out cell indices. It never returns a cell that overlaps
// a live named symbol or a live temporary.
type Allocator struct {
	watermark int
	temps     []int // free list, LIFO
}

func NewAllocator(startAt int) *Allocator {
	return &Allocator{watermark: startAt}
}

func (a *Allocator) Watermark() int { return a.watermark }

// AllocateNamed reserves `size` contiguous fresh cells at the current
// watermark and advances it. Used for variables and arrays.
func (a *Allocator) AllocateNamed(size int) int {
	c := a.watermark
	a.watermark += size
	return c
}

// AllocateTemp acquires one scratch cell, reusing a released one if
// available (LIFO), otherwise growing the watermark.
func (a *Allocator) AllocateTemp() int {
	if n := len(a.temps); n > 0 {
		c := a.temps[n-1]
		a.temps = a.temps[:n-1]
		return c
	}
	c := a.watermark
	a.watermark++
	return c
}

// ReleaseTemp returns a temp cell to the free list. It must be the most
// recently allocated still-live temp (LIFO discipline); callers that
// violate this order still get a correct tape, just a larger one, since
// ReleaseTemp never has to move the watermark down.
func (a *Allocator) ReleaseTemp(c int) {
	a.temps = append(a.temps, c)
}

// Mark/Restore bracket enterScope/exitScope: the caller is responsible for
// emitting the zeroing code for every cell between the mark's watermark and
// the allocator's current watermark before calling Restore (see
// codegen.Emitter.restoreMark).
type Mark struct {
	watermark int
	temps     []int // copy of the free list when the mark was taken
}

func (m Mark) Watermark() int { return m.watermark }

func (a *Allocator) Mark() Mark {
	return Mark{watermark: a.watermark, temps: append([]int(nil), a.temps...)}
}

func (a *Allocator) Restore(m Mark) {
	a.watermark = m.watermark
	a.temps = append(a.temps[:0], m.temps...)
}

// SymbolTable is a stack of scopes, each mapping a name to its Symbol.
// Scope 0 is the current function's parameter/top scope. Globals live in a
// separate map that Lookup falls back to; outside a function the scope
// stack is empty and Define writes to that map. EnterFunction saves the
// caller's scope stack and ExitFunction restores it.
type SymbolTable struct {
	globals map[string]Symbol
	locals  []map[string]Symbol
	saved   [][]map[string]Symbol
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{globals: make(map[string]Symbol)}
}

func (s *SymbolTable) EnterFunction() {
	s.saved = append(s.saved, s.locals)
	s.locals = []map[string]Symbol{make(map[string]Symbol)}
}

func (s *SymbolTable) ExitFunction() {
	s.locals = s.saved[len(s.saved)-1]
	s.saved = s.saved[:len(s.saved)-1]
}

func (s *SymbolTable) EnterScope() {
	if len(s.locals) == 0 {
		panic("tape: EnterScope called outside function")
	}
	s.locals = append(s.locals, make(map[string]Symbol))
}

func (s *SymbolTable) ExitScope() {
	if len(s.locals) == 0 {
		panic("tape: ExitScope called with no open scope")
	}
	s.locals = s.locals[:len(s.locals)-1]
}

func (s *SymbolTable) InFunction() bool { return len(s.locals) > 0 }

// Define records a new symbol in the innermost active scope (or globally,
// outside a function). It returns false if the name already exists in that
// exact scope (a redeclaration).
func (s *SymbolTable) Define(sym Symbol) bool {
	if len(s.locals) > 0 {
		scope := s.locals[len(s.locals)-1]
		if _, exists := scope[sym.Name]; exists {
			return false
		}
		sym.ScopeDepth = len(s.locals) - 1
		scope[sym.Name] = sym
		return true
	}
	if _, exists := s.globals[sym.Name]; exists {
		return false
	}
	s.globals[sym.Name] = sym
	return true
}

// Lookup searches innermost-to-outermost local scope, then globals.
func (s *SymbolTable) Lookup(name string) (Symbol, bool) {
	for i := len(s.locals) - 1; i >= 0; i-- {
		if sym, ok := s.locals[i][name]; ok {
			return sym, true
		}
	}
	sym, ok := s.globals[name]
	return sym, ok
}

// CurrentScopeSymbols returns the symbols defined directly in the innermost
// local scope, or nil outside a function.
func (s *SymbolTable) CurrentScopeSymbols() []Symbol {
	if len(s.locals) == 0 {
		return nil
	}
	scope := s.locals[len(s.locals)-1]
	out := make([]Symbol, 0, len(scope))
	for _, sym := range scope {
		out = append(out, sym)
	}
	return out
}

func (s Symbol) String() string {
	return fmt.Sprintf("%s@%d(size=%d)", s.Name, s.CellIndex, s.Size)
}
