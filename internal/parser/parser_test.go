package parser

import (
	"testing"

	"byteflow/internal/ast"
	"byteflow/internal/lexer"
)

func parseSource(t *testing.T, src string) *ast.Program {
	t.Helper()
	toks, err := lexer.Lex(src)
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	prog, err := Parse(toks)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return prog
}

func TestParseGlobals(t *testing.T) {
	prog := parseSource(t, `
		int counter = 0;
		int table[4] = {1, 2, 3, 4};
	`)
	if len(prog.Globals) != 2 {
		t.Fatalf("got %d globals, want 2", len(prog.Globals))
	}
	gv, ok := prog.Globals[0].(*ast.GlobalVar)
	if !ok || gv.Name != "counter" {
		t.Errorf("Globals[0] = %#v, want GlobalVar counter", prog.Globals[0])
	}
	ga, ok := prog.Globals[1].(*ast.GlobalArray)
	if !ok || ga.Name != "table" || ga.Type.Len != 4 || len(ga.Init) != 4 {
		t.Errorf("Globals[1] = %#v, want GlobalArray table[4] with 4 initializers", prog.Globals[1])
	}
}

func TestParseFunctionWithParamsAndBody(t *testing.T) {
	prog := parseSource(t, `
		int add(int a, int b) {
			return a + b;
		}
	`)
	fn, ok := prog.FuncByName["add"]
	if !ok {
		t.Fatal("function add not found")
	}
	if len(fn.Params) != 2 || fn.Params[0].Name != "a" || fn.Params[1].Name != "b" {
		t.Fatalf("Params = %#v", fn.Params)
	}
	if len(fn.Body.Stmts) != 1 {
		t.Fatalf("Body.Stmts = %d, want 1", len(fn.Body.Stmts))
	}
	ret, ok := fn.Body.Stmts[0].(*ast.Return)
	if !ok {
		t.Fatalf("Stmts[0] = %T, want *ast.Return", fn.Body.Stmts[0])
	}
	bin, ok := ret.Value.(*ast.Binary)
	if !ok || bin.Op.String() != "+" {
		t.Fatalf("Return.Value = %#v, want a+b", ret.Value)
	}
}

func TestDuplicateFunctionIsASemanticError(t *testing.T) {
	toks, err := lexer.Lex("void f() {} void f() {}")
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	if _, err := Parse(toks); err == nil {
		t.Fatal("expected a redeclaration error")
	}
}

func TestExpressionPrecedence(t *testing.T) {
	prog := parseSource(t, `int f() { return 1 + 2 * 3 == 7 && 1 < 2; } `)
	fn := prog.FuncByName["f"]
	ret := fn.Body.Stmts[0].(*ast.Return)
	top, ok := ret.Value.(*ast.Binary)
	if !ok || top.Op.String() != "&&" {
		t.Fatalf("top-level operator = %#v, want &&", ret.Value)
	}
	eq, ok := top.Left.(*ast.Binary)
	if !ok || eq.Op.String() != "==" {
		t.Fatalf("left of && = %#v, want ==", top.Left)
	}
	mul, ok := eq.Left.(*ast.Binary)
	if !ok || mul.Op.String() != "+" {
		t.Fatalf("left of == = %#v, want +", eq.Left)
	}
	if _, ok := mul.Right.(*ast.Binary); !ok {
		t.Fatalf("right of + should be the 2*3 subtree")
	}
}

func TestParseIfWhileForSwitch(t *testing.T) {
	prog := parseSource(t, `
		int f() {
			int i;
			for (i = 0; i < 10; i = i + 1) {
				if (i == 5) {
					break;
				} else {
					i = i;
				}
			}
			while (i > 0) {
				i = i - 1;
			}
			switch (i) {
			case 0:
				return 0;
			default:
				return 1;
			}
			return i;
		}
	`)
	fn := prog.FuncByName["f"]
	if len(fn.Body.Stmts) != 5 {
		t.Fatalf("Body.Stmts = %d, want 5 (vardecl, for, while, switch, return)", len(fn.Body.Stmts))
	}
}

func TestArrayIndexing(t *testing.T) {
	prog := parseSource(t, `int f() { int a[3]; a[1] = a[0] + 1; return a[1]; }`)
	fn := prog.FuncByName["f"]
	assign, ok := fn.Body.Stmts[1].(*ast.Assign)
	if !ok {
		t.Fatalf("Stmts[1] = %T, want *ast.Assign", fn.Body.Stmts[1])
	}
	if _, ok := assign.Target.(*ast.Index); !ok {
		t.Fatalf("Assign.Target = %T, want *ast.Index", assign.Target)
	}
}

func TestMultiDimensionalArrayDeclarationAndIndexing(t *testing.T) {
	prog := parseSource(t, `int f() { int grid[2][3] = {{1,2,3},{4,5,6}}; grid[1][2] = grid[0][0]; return grid[1][2]; }`)
	fn := prog.FuncByName["f"]

	decl, ok := fn.Body.Stmts[0].(*ast.VarDecl)
	if !ok {
		t.Fatalf("Stmts[0] = %T, want *ast.VarDecl", fn.Body.Stmts[0])
	}
	if decl.Type.Kind != ast.Array || decl.Type.Len != 2 || decl.Type.Elem.Kind != ast.Array || decl.Type.Elem.Len != 3 {
		t.Fatalf("grid's Type = %#v, want int[2][3]", decl.Type)
	}
	if len(decl.ArrayInit) != 6 {
		t.Fatalf("ArrayInit flattened to %d elements, want 6", len(decl.ArrayInit))
	}

	assign, ok := fn.Body.Stmts[1].(*ast.Assign)
	if !ok {
		t.Fatalf("Stmts[1] = %T, want *ast.Assign", fn.Body.Stmts[1])
	}
	outer, ok := assign.Target.(*ast.Index)
	if !ok {
		t.Fatalf("Assign.Target = %T, want *ast.Index", assign.Target)
	}
	if _, ok := outer.Base.(*ast.Index); !ok {
		t.Fatalf("outer index's Base = %T, want a nested *ast.Index for grid[1][2]", outer.Base)
	}
}

func TestCallAsStatementAndAsExpression(t *testing.T) {
	prog := parseSource(t, `
		int inc(int x) { return x + 1; }
		void main() {
			int y = inc(1);
			inc(y);
		}
	`)
	main := prog.FuncByName["main"]
	decl, ok := main.Body.Stmts[0].(*ast.VarDecl)
	if !ok {
		t.Fatalf("Stmts[0] = %T, want *ast.VarDecl", main.Body.Stmts[0])
	}
	if _, ok := decl.Init.(*ast.CallExpr); !ok {
		t.Fatalf("VarDecl.Init = %T, want *ast.CallExpr", decl.Init)
	}
	if _, ok := main.Body.Stmts[1].(*ast.Call); !ok {
		t.Fatalf("Stmts[1] = %T, want *ast.Call", main.Body.Stmts[1])
	}
}

func TestSyntaxErrorOnMissingSemicolon(t *testing.T) {
	toks, err := lexer.Lex("int f() { int x = 1 return x; }")
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	if _, err := Parse(toks); err == nil {
		t.Fatal("expected a syntax error for the missing semicolon")
	}
}
