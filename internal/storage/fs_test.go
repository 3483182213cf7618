package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func tempStore(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempStore(t)
	content := []byte("graph TD\n  A --> B\n")
	if err := s.Write("diagrams/abc.mmd", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("diagrams/abc.mmd")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempStore(t)
	if err := s.Write("diagrams/versions/a-b.mmd", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("diagrams/versions/a-b.mmd")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestDelete(t *testing.T) {
	s := tempStore(t)
	_ = s.Write("del.mmd", []byte("bye"))
	if err := s.Delete("del.mmd"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("del.mmd"); err == nil {
		t.Error("expected error reading deleted file")
	}
}

func TestExists(t *testing.T) {
	s := tempStore(t)
	ok, err := s.Exists("missing.mmd")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if ok {
		t.Error("missing file reported as existing")
	}
	_ = s.Write("here.mmd", []byte("x"))
	ok, err = s.Exists("here.mmd")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !ok {
		t.Error("written file reported as missing")
	}
}

func TestList(t *testing.T) {
	s := tempStore(t)
	_ = s.Write("diagrams/a.mmd", []byte("a"))
	_ = s.Write("diagrams/versions/a-v.mmd", []byte("b"))
	_ = s.Write("diagrams/metadata.json", []byte("{}"))

	items, err := s.List("diagrams", ".mmd")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("len = %d, want 2", len(items))
	}
}

func TestListMissingDir(t *testing.T) {
	s := tempStore(t)
	items, err := s.List("nope", ".mmd")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("len = %d, want 0", len(items))
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempStore(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.mmd",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteNoCorruption(t *testing.T) {
	// Overwriting must leave either the old or the new content and no
	// leftover temp files (the rename is atomic on POSIX).
	s := tempStore(t)
	original := []byte("original content")
	_ = s.Write("atomic.mmd", original)

	updated := []byte("updated content")
	if err := s.Write("atomic.mmd", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.mmd")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.root, ".sigil-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS("/tmp/sigil-does-not-exist-" + t.Name())
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "sigil-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
