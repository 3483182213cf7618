package settings

import (
	"testing"

	"github.com/arnstad/sigil/internal/storage"
)

func testFiles(t *testing.T) storage.Provider {
	t.Helper()
	files, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return files
}

func TestSetAndGet(t *testing.T) {
	files := testFiles(t)
	s, err := New(files)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Set(KeyModel, "gpt-4o-mini"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := s.Get(KeyModel); got != "gpt-4o-mini" {
		t.Errorf("Get = %q", got)
	}
	if got := s.Get("unset"); got != "" {
		t.Errorf("unset key = %q, want empty", got)
	}
}

func TestPersistsAcrossInstances(t *testing.T) {
	files := testFiles(t)
	s, _ := New(files)
	_ = s.Set("theme", "dark")
	_ = s.Set(KeyModel, "gpt-4o")

	reloaded, err := New(files)
	if err != nil {
		t.Fatalf("New (reload): %v", err)
	}
	if got := reloaded.Get("theme"); got != "dark" {
		t.Errorf("theme = %q", got)
	}
	all := reloaded.GetAll()
	if len(all) != 2 {
		t.Errorf("GetAll len = %d, want 2", len(all))
	}
}

func TestDelete(t *testing.T) {
	files := testFiles(t)
	s, _ := New(files)
	_ = s.Set("k", "v")
	if err := s.Delete("k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := s.Get("k"); got != "" {
		t.Errorf("deleted key = %q", got)
	}
	// Deleting again is a no-op.
	if err := s.Delete("k"); err != nil {
		t.Fatalf("Delete (absent): %v", err)
	}
}

func TestGetAllReturnsCopy(t *testing.T) {
	files := testFiles(t)
	s, _ := New(files)
	_ = s.Set("k", "v")

	all := s.GetAll()
	all["k"] = "mutated"
	if got := s.Get("k"); got != "v" {
		t.Errorf("internal map mutated through GetAll copy: %q", got)
	}
}
