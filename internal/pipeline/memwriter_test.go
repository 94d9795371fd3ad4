package pipeline

import (
	"bytes"
	"testing"
)

func TestMemoryWriter(t *testing.T) {
	w := &MemoryWriter{}
	if err := w.WriteFile("a.yaml", []byte("one")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.WriteFile("a.yaml", []byte("two")); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	data, ok := w.GetFile("a.yaml")
	if !ok || !bytes.Equal(data, []byte("two")) {
		t.Fatalf("GetFile = %q, %v", data, ok)
	}
	if _, ok := w.GetFile("missing.yaml"); ok {
		t.Fatalf("missing file reported present")
	}
	if w.FileCount() != 1 {
		t.Fatalf("FileCount = %d, want 1", w.FileCount())
	}
	if paths := w.Paths(); len(paths) != 1 || paths[0] != "a.yaml" {
		t.Fatalf("Paths = %v", paths)
	}
}

func TestMemoryWriterCopiesData(t *testing.T) {
	w := &MemoryWriter{}
	buf := []byte("original")
	if err := w.WriteFile("a.yaml", buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf[0] = 'X'
	data, _ := w.GetFile("a.yaml")
	if string(data) != "original" {
		t.Fatalf("stored data aliased caller buffer: %q", data)
	}
}
