package minify

import "testing"

func TestMinifyStripsCommentsAndWhitespace(t *testing.T) {
	in := "# set up globals\n>>>+++[-]<<<\n# done\n"
	want := ">>>+++[-]<<<"
	if got := Minify(in); got != want {
		t.Errorf("Minify() = %q, want %q", got, want)
	}
}

func TestMinifyKeepsOnlyThePrimitives(t *testing.T) {
	in := "abc>xyz<123+456-789.000,999[888]"
	want := "><+-.,[]"
	if got := Minify(in); got != want {
		t.Errorf("Minify() = %q, want %q", got, want)
	}
}

func TestMinifyIsIdempotent(t *testing.T) {
	in := "# comment\n>+<-[.,]\n"
	once := Minify(in)
	twice := Minify(once)
	if once != twice {
		t.Errorf("Minify(Minify(x)) = %q, want %q", twice, once)
	}
}
