package sink

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSinkWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.txt")

	f, err := NewFile(FileConfig{Path: path, MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}

	f.Write("Hello ")
	f.Write("world")
	f.Write("<RETURN>\r\n")

	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading transcript: %v", err)
	}
	if string(data) != "Hello world<RETURN>\r\n" {
		t.Errorf("unexpected transcript: %q", data)
	}
}

func TestFileSinkAppendsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.txt")

	f, err := NewFile(FileConfig{Path: path, MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	f.Write("first")
	f.Close()

	f, err = NewFile(FileConfig{Path: path, MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	f.Write(" second")
	f.Close()

	data, _ := os.ReadFile(path)
	if string(data) != "first second" {
		t.Errorf("reopen should append, got %q", data)
	}
}

func TestFileSinkRequiresPath(t *testing.T) {
	if _, err := NewFile(FileConfig{}); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestFileSinkCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "transcript.txt")

	f, err := NewFile(FileConfig{Path: path, MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	defer f.Close()

	f.Write("x")
	if err := f.Sync(); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("transcript file missing: %v", err)
	}
}
