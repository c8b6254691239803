package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type doc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "nested", "doc.json"))

	in := doc{Name: "USDJPY", Count: 3}
	if err := s.Write(in); err != nil {
		t.Fatalf("write: %v", err)
	}

	var out doc
	if err := s.Read(&out); err != nil {
		t.Fatalf("read: %v", err)
	}
	if out != in {
		t.Errorf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestReadMissingFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "absent.json"))

	var out doc
	err := s.Read(&out)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out doc
	err := NewStore(path).Read(&out)
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}

func TestWriteLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	if err := NewStore(path).Write(doc{Name: "x"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "doc.json" {
		t.Errorf("expected only doc.json in dir, got %v", entries)
	}
}

func TestWriteOverwritesPrevious(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "doc.json"))
	if err := s.Write(doc{Name: "first", Count: 1}); err != nil {
		t.Fatal(err)
	}
	if err := s.Write(doc{Name: "second", Count: 2}); err != nil {
		t.Fatal(err)
	}

	var out doc
	if err := s.Read(&out); err != nil {
		t.Fatal(err)
	}
	if out.Name != "second" || out.Count != 2 {
		t.Errorf("expected latest write, got %+v", out)
	}
}
