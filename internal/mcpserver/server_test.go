package mcpserver

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/arnstad/sigil/internal/diagramstore"
	"github.com/arnstad/sigil/internal/index"
	"github.com/arnstad/sigil/internal/storage"
)

func testServer(t *testing.T) (*Server, *diagramstore.Store) {
	t.Helper()

	files, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	diagrams := diagramstore.New(files, logger)

	dbFile, err := os.CreateTemp("", "sigil-mcp-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	srv := New(diagrams, db)
	return srv, diagrams
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we test
	// through the tool handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_diagrams":
		result, err = srv.listDiagrams(ctx, req)
	case "read_diagram":
		result, err = srv.readDiagram(ctx, req)
	case "create_diagram":
		result, err = srv.createDiagram(ctx, req)
	case "update_diagram":
		result, err = srv.updateDiagram(ctx, req)
	case "search_diagrams":
		result, err = srv.searchDiagrams(ctx, req)
	case "get_diagram_contract":
		result, err = srv.getDiagramContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateAndReadDiagram(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_diagram", map[string]interface{}{
		"name":    "Login Flow",
		"content": "sequenceDiagram\n  A->>B: hi",
	})
	text := resultText(r)
	if !strings.HasPrefix(text, "created: ") {
		t.Fatalf("create result = %q", text)
	}
	id := strings.TrimPrefix(text, "created: ")

	r = callTool(t, srv, "read_diagram", map[string]interface{}{"id": id})
	if got := resultText(r); got != "sequenceDiagram\n  A->>B: hi" {
		t.Errorf("read result = %q", got)
	}
}

func TestUpdateDiagramSnapshotsVersion(t *testing.T) {
	srv, diagrams := testServer(t)

	r := callTool(t, srv, "create_diagram", map[string]interface{}{
		"name":    "Doc",
		"content": "graph TD; A;",
	})
	id := strings.TrimPrefix(resultText(r), "created: ")

	r = callTool(t, srv, "update_diagram", map[string]interface{}{
		"id":      id,
		"content": "graph LR; B;",
	})
	if got := resultText(r); got != "updated: "+id {
		t.Fatalf("update result = %q", got)
	}

	versions, err := diagrams.ListVersions(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(versions) != 2 {
		t.Errorf("versions = %d, want 2", len(versions))
	}
}

func TestListDiagrams(t *testing.T) {
	srv, diagrams := testServer(t)
	if _, err := diagrams.Create("One", "graph TD; A;", nil); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "list_diagrams", map[string]interface{}{})
	if text := resultText(r); !strings.Contains(text, "One") {
		t.Errorf("list result = %q", text)
	}
}

func TestReadDiagramMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_diagram", map[string]interface{}{"id": "nope"})
	if !r.IsError {
		t.Error("expected error for missing diagram")
	}
}

func TestSearchDiagrams(t *testing.T) {
	srv, _ := testServer(t)
	_ = callTool(t, srv, "create_diagram", map[string]interface{}{
		"name":    "Billing",
		"content": "erDiagram\n  INVOICE ||--|{ LINE : contains",
	})

	r := callTool(t, srv, "search_diagrams", map[string]interface{}{"query": "INVOICE"})
	if text := resultText(r); !strings.Contains(text, "Billing") {
		t.Errorf("search result = %q", text)
	}
}

func TestGetDiagramContract(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_diagram_contract", map[string]interface{}{})
	if text := resultText(r); !strings.Contains(text, "sequenceDiagram") {
		t.Errorf("contract missing grammar list: %q", text)
	}
}
