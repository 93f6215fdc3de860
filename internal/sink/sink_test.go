package sink

import (
	"bytes"
	"errors"
	"testing"
)

func TestMemorySink(t *testing.T) {
	m := NewMemory()

	if err := m.Write("Hello "); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := m.Write("<RETURN>\r\n"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if m.Len() != 2 {
		t.Errorf("expected 2 fragments, got %d", m.Len())
	}
	if m.String() != "Hello <RETURN>\r\n" {
		t.Errorf("unexpected transcript: %q", m.String())
	}

	frags := m.Fragments()
	if len(frags) != 2 || frags[0] != "Hello " {
		t.Errorf("unexpected fragments: %v", frags)
	}

	// The returned slice is a copy.
	frags[0] = "mutated"
	if m.Fragments()[0] != "Hello " {
		t.Error("Fragments should return a copy")
	}

	if err := m.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestConsoleSink(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleTo(&buf)

	c.Write("a")
	c.Write("<CTRL + c>")
	c.Write("<RETURN>\r\n")

	if got := buf.String(); got != "a<CTRL + c><RETURN>\r\n" {
		t.Errorf("unexpected console output: %q", got)
	}

	if err := c.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

type failingSink struct {
	err error
}

func (f *failingSink) Write(string) error { return f.err }
func (f *failingSink) Close() error       { return f.err }

func TestMultiFanOut(t *testing.T) {
	a := NewMemory()
	b := NewMemory()
	multi := NewMulti(a, b)

	if err := multi.Write("x"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if a.String() != "x" || b.String() != "x" {
		t.Errorf("fan-out missed a sink: %q / %q", a.String(), b.String())
	}
}

func TestMultiWritesAllDespiteError(t *testing.T) {
	sinkErr := errors.New("disk full")
	failing := &failingSink{err: sinkErr}
	healthy := NewMemory()

	multi := NewMulti(failing, healthy)

	err := multi.Write("x")
	if !errors.Is(err, sinkErr) {
		t.Errorf("expected wrapped sink error, got %v", err)
	}

	// The healthy sink still got the fragment.
	if healthy.String() != "x" {
		t.Errorf("healthy sink missed the write: %q", healthy.String())
	}
}

func TestMultiClose(t *testing.T) {
	sinkErr := errors.New("close failed")
	failing := &failingSink{err: sinkErr}
	healthy := NewMemory()

	multi := NewMulti(failing, healthy)
	if err := multi.Close(); !errors.Is(err, sinkErr) {
		t.Errorf("expected close error, got %v", err)
	}
}

func TestMultiEmpty(t *testing.T) {
	multi := NewMulti()
	if err := multi.Write("x"); err != nil {
		t.Errorf("empty multi should accept writes: %v", err)
	}
	if err := multi.Close(); err != nil {
		t.Errorf("empty multi should close cleanly: %v", err)
	}
}
