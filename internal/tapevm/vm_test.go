package tapevm

import (
	"bytes"
	"strings"
	"testing"
)

func run(t *testing.T, program, stdin string, maxSteps int) (string, error) {
	t.Helper()
	var out bytes.Buffer
	m, err := New(program, strings.NewReader(stdin), &out)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m.MaxSteps = maxSteps
	err = m.Run()
	return out.String(), err
}

func TestPrintALiteralByte(t *testing.T) {
	out, err := run(t, "+++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++.", "", 1000)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "A" {
		t.Errorf("out = %q, want %q", out, "A")
	}
}

func TestLoopSumsTwoCells(t *testing.T) {
	// cell0 = 3, cell1 = 4; move cell0 into cell1 via the standard
	// "[->+<]" transfer idiom, then print cell1 as a raw byte count check
	// via repeated +.
	out, err := run(t, "+++>++++<[->+<]>.", "", 1000)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out) != 1 || out[0] != 7 {
		t.Errorf("out = %v, want a single byte with value 7", []byte(out))
	}
}

func TestReadEOFSetsCellToZero(t *testing.T) {
	out, err := run(t, ",+.", "", 1000)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out) != 1 || out[0] != 1 {
		t.Errorf("out = %v, want a single byte with value 1 (0 from EOF, then +1)", []byte(out))
	}
}

func TestReadConsumesStdinByte(t *testing.T) {
	out, err := run(t, ",.", "Z", 1000)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "Z" {
		t.Errorf("out = %q, want %q", out, "Z")
	}
}

func TestMaxStepsGuardTrapsEndlessLoop(t *testing.T) {
	_, err := run(t, "+[]", "", 100)
	if err == nil {
		t.Fatal("expected the MaxSteps guard to trip on an endless loop")
	}
}

func TestUnmatchedBracketIsAnError(t *testing.T) {
	if _, err := New("[", strings.NewReader(""), &bytes.Buffer{}); err == nil {
		t.Fatal("expected an unmatched '[' error")
	}
	if _, err := New("]", strings.NewReader(""), &bytes.Buffer{}); err == nil {
		t.Fatal("expected an unmatched ']' error")
	}
}

func TestNewIgnoresNonPrimitiveBytes(t *testing.T) {
	m, err := New("# a comment\n+++.\n", strings.NewReader(""), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := m.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
