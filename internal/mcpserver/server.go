// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Sigil tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/arnstad/sigil/internal/checksum"
	"github.com/arnstad/sigil/internal/diagramstore"
	"github.com/arnstad/sigil/internal/index"
	"github.com/arnstad/sigil/internal/models"
)

// Server wraps the MCP server with Sigil tools.
type Server struct {
	mcp      *server.MCPServer
	diagrams *diagramstore.Store
	db       *index.DB
}

// New creates a new MCP server with all Sigil tools registered.
func New(diagrams *diagramstore.Store, db *index.DB) *Server {
	s := &Server{diagrams: diagrams, db: db}

	s.mcp = server.NewMCPServer(
		"Sigil",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_diagrams",
		mcp.WithDescription("List all diagrams with their ids and names, most recently updated first."),
	), s.listDiagrams)

	s.mcp.AddTool(mcp.NewTool("read_diagram",
		mcp.WithDescription("Read the full Mermaid source of a diagram."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Diagram id")),
	), s.readDiagram)

	s.mcp.AddTool(mcp.NewTool("create_diagram",
		mcp.WithDescription("Create a new diagram. Content MUST be valid Mermaid source "+
			"using one of the supported grammars. Read the contract first via the "+
			"get_diagram_contract tool or the sigil://diagram-format resource."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Display name for the diagram")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Mermaid source following the Sigil diagram format contract")),
	), s.createDiagram)

	s.mcp.AddTool(mcp.NewTool("update_diagram",
		mcp.WithDescription("Replace a diagram's Mermaid source. The previous content is "+
			"kept as an immutable version snapshot."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Diagram id")),
		mcp.WithString("content", mcp.Required(), mcp.Description("New Mermaid source")),
	), s.updateDiagram)

	s.mcp.AddTool(mcp.NewTool("search_diagrams",
		mcp.WithDescription("Full-text search through diagram names and Mermaid source."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchDiagrams)

	s.mcp.AddTool(mcp.NewTool("get_diagram_contract",
		mcp.WithDescription("Returns the canonical Sigil diagram format contract. "+
			"Call this before creating or updating diagrams to ensure correct structure."),
	), s.getDiagramContract)

	// Resource: diagram format contract.
	s.mcp.AddResource(
		mcp.NewResource("sigil://diagram-format", "Diagram Format Contract",
			mcp.WithResourceDescription("Canonical Mermaid diagram format that all diagrams must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDiagramFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listDiagrams(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.diagrams.List()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var lines []string
	for _, d := range list {
		lines = append(lines, fmt.Sprintf("%s\t%s", d.ID, d.Name))
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no diagrams"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readDiagram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.diagrams.GetByID(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return mcp.NewToolResultText(d.Content), nil
}

func (s *Server) createDiagram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	d, err := s.diagrams.Create(name, content, nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.indexDiagram(d)
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", d.ID)), nil
}

func (s *Server) updateDiagram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	d, err := s.diagrams.Update(id, content, nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.indexDiagram(d)
	return mcp.NewToolResultText(fmt.Sprintf("updated: %s", d.ID)), nil
}

func (s *Server) searchDiagrams(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.db.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getDiagramContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DiagramFormatContract), nil
}

func (s *Server) readDiagramFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "sigil://diagram-format",
			MIMEType: "text/markdown",
			Text:     DiagramFormatContract,
		},
	}, nil
}

func (s *Server) indexDiagram(d *models.Diagram) {
	_ = s.db.Upsert(index.DiagramRow{
		ID:        d.ID,
		Name:      d.Name,
		Checksum:  checksum.Sum([]byte(d.Content)),
		UpdatedAt: d.UpdatedAt,
	}, d.Content)
}
