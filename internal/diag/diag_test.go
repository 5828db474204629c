package diag

import "testing"

func TestDiagnosticError(t *testing.T) {
	d := Sem(3, 7, "undeclared identifier %q", "x")
	want := "semantic error: 3:7: undeclared identifier \"x\""
	if got := d.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestInternalDiagnosticHasNoPosition(t *testing.T) {
	d := Int("unhandled node %T", 5)
	want := "internal error: unhandled node int"
	if got := d.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestSinkAccumulates(t *testing.T) {
	var s Sink
	if s.HasErrors() {
		t.Fatal("empty sink reports errors")
	}
	s.Add(Syn(1, 1, "bad token"))
	s.Add(Lex(2, 1, "bad char"))
	if !s.HasErrors() {
		t.Fatal("sink with items reports no errors")
	}
	if len(s.Items()) != 2 {
		t.Fatalf("Items() len = %d, want 2", len(s.Items()))
	}
}
