package index

import (
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/arnstad/sigil/internal/checksum"
	"github.com/arnstad/sigil/internal/diagramstore"
	"github.com/arnstad/sigil/internal/storage"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "sigil-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM diagrams`).Scan(&count); err != nil {
		t.Fatalf("diagrams table missing: %v", err)
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	row := DiagramRow{
		ID:        "d1",
		Name:      "Login Flow",
		Checksum:  "abc123",
		UpdatedAt: time.Now(),
	}
	if err := db.Upsert(row, "sequenceDiagram\n  A->>B: hi"); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	cs, err := db.GetChecksum("d1")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.Upsert(DiagramRow{ID: "up", Name: "Old", Checksum: "1", UpdatedAt: now}, "old body")
	_ = db.Upsert(DiagramRow{ID: "up", Name: "New", Checksum: "2", UpdatedAt: now}, "new body")

	cs, _ := db.GetChecksum("up")
	if cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM diagrams`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 row after upsert of same id, got %d", count)
	}
}

func TestDelete(t *testing.T) {
	db := testDB(t)
	_ = db.Upsert(DiagramRow{ID: "del", Checksum: "x", UpdatedAt: time.Now()}, "body")

	if err := db.Delete("del"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	cs, _ := db.GetChecksum("del")
	if cs != "" {
		t.Errorf("deleted diagram still has checksum %q", cs)
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestAllChecksums(t *testing.T) {
	db := testDB(t)
	_ = db.Upsert(DiagramRow{ID: "a", Checksum: "1", UpdatedAt: time.Now()}, "")
	_ = db.Upsert(DiagramRow{ID: "b", Checksum: "2", UpdatedAt: time.Now()}, "")

	all, err := db.AllChecksums()
	if err != nil {
		t.Fatalf("AllChecksums: %v", err)
	}
	if len(all) != 2 || all["a"] != "1" || all["b"] != "2" {
		t.Errorf("AllChecksums = %v", all)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.Upsert(DiagramRow{ID: "s", Name: "Search Me", Checksum: "1", UpdatedAt: time.Now()}, "uniqueword appears here")

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "s" {
		t.Errorf("search results = %+v, want 1 hit for s", results)
	}
}

func TestSearch_MatchesName(t *testing.T) {
	db := testDB(t)
	_ = db.Upsert(DiagramRow{ID: "n", Name: "Deployment Topology", Checksum: "1", UpdatedAt: time.Now()}, "graph TD")

	results, err := db.Search("Topology", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Name != "Deployment Topology" {
		t.Errorf("search results = %+v, want 1 hit by name", results)
	}
}

func TestSync(t *testing.T) {
	db := testDB(t)
	logger := discardLogger()

	files, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	diagrams := diagramstore.New(files, logger)

	d1, err := diagrams.Create("One", "graph TD; A-->B;", nil)
	if err != nil {
		t.Fatal(err)
	}
	d2, err := diagrams.Create("Two", "pie\n  \"x\": 1", nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := Sync(db, diagrams, logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	cs, _ := db.GetChecksum(d1.ID)
	if cs != checksum.Sum([]byte(d1.Content)) {
		t.Errorf("d1 checksum mismatch: %q", cs)
	}

	// Delete one diagram and mutate the other, then sync again.
	if err := diagrams.Delete(d2.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := diagrams.Update(d1.ID, "graph LR; B-->C;", nil); err != nil {
		t.Fatal(err)
	}

	if err := Sync(db, diagrams, logger); err != nil {
		t.Fatalf("Sync (second): %v", err)
	}

	cs, _ = db.GetChecksum(d2.ID)
	if cs != "" {
		t.Error("stale entry for deleted diagram not removed")
	}
	cs, _ = db.GetChecksum(d1.ID)
	if cs != checksum.Sum([]byte("graph LR; B-->C;")) {
		t.Errorf("updated diagram not reindexed: %q", cs)
	}

	results, err := db.Search("graph LR", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ID != d1.ID {
		t.Errorf("search after sync = %+v", results)
	}
}
