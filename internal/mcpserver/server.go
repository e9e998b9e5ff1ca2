// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Raido tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/marbeck/raido/internal/docservice"
	"github.com/marbeck/raido/internal/redirect"
)

// Server wraps the MCP server with Raido tools.
type Server struct {
	mcp *server.MCPServer
	svc *docservice.Service
}

// New creates a new MCP server with all Raido tools registered.
func New(svc *docservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Raido",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_redirects",
		mcp.WithDescription("Search the resolved redirect table. Every alias declared in "+
			"front matter (plus each document's own basename) is matched against the "+
			"space-separated query tokens."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Space-separated filter tokens (empty matches all)")),
		mcp.WithBoolean("attachments_only", mcp.Description("Keep only non-markdown targets")),
		mcp.WithBoolean("declared_only", mcp.Description("Skip documents without redirect declarations")),
	), s.searchRedirects)

	s.mcp.AddTool(mcp.NewTool("insert_target_path",
		mcp.WithDescription("Replace the trigger and partial query in a line with the chosen "+
			"suggestion's quoted target path (\"img/cat.png\"). Returns the new line and "+
			"cursor column."),
		mcp.WithString("line", mcp.Required(), mcp.Description("Line text containing the trigger")),
		mcp.WithNumber("cursor", mcp.Required(), mcp.Description("Cursor column within the line")),
		mcp.WithString("path", mcp.Required(), mcp.Description("Resolved vault path of the chosen suggestion")),
	), s.insertTargetPath)

	s.mcp.AddTool(mcp.NewTool("accept_suggestion",
		mcp.WithDescription("Replace the trigger and partial query in a line with a "+
			"[[target|alias]] wikilink for the chosen suggestion. Returns the new line and "+
			"cursor column."),
		mcp.WithString("line", mcp.Required(), mcp.Description("Line text containing the trigger")),
		mcp.WithNumber("cursor", mcp.Required(), mcp.Description("Cursor column within the line")),
		mcp.WithString("alias", mcp.Required(), mcp.Description("Alias of the chosen suggestion")),
		mcp.WithString("path", mcp.Required(), mcp.Description("Resolved vault path of the chosen suggestion")),
	), s.acceptSuggestion)

	s.mcp.AddTool(mcp.NewTool("open_document",
		mcp.WithDescription("Resolve a query against the redirect table and return the best "+
			"matching document with its content and declarations."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Alias or target to resolve")),
	), s.openDocument)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List indexed vault documents (notes and attachments)."),
		mcp.WithNumber("limit", mcp.Description("Max documents to return (default all)")),
		mcp.WithNumber("offset", mcp.Description("Pagination offset")),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("declare_redirect",
		mcp.WithDescription("Declare redirect targets in a note's front matter. "+
			"The declaration format is described by the get_redirect_contract tool or the "+
			"raido://redirect-format resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Note path (must end with .md)")),
		mcp.WithString("targets", mcp.Required(), mcp.Description("Comma-separated vault paths to redirect to (empty removes the declaration)")),
	), s.declareRedirect)

	s.mcp.AddTool(mcp.NewTool("upload_attachment",
		mcp.WithDescription("Upload a file into the vault's attachments/ directory from a "+
			"data URI or http(s) URL. The new file is indexed and immediately usable as a "+
			"redirect target. Returns the saved path and a ready-to-paste markdown image."),
		mcp.WithString("url", mcp.Required(), mcp.Description("data: URI (base64) or http(s) URL of the file")),
		mcp.WithString("filename", mcp.Description("Optional filename override")),
	), s.uploadAttachment)

	s.mcp.AddTool(mcp.NewTool("get_redirect_contract",
		mcp.WithDescription("Returns the canonical redirect declaration format. "+
			"Call this before declaring redirects to ensure correct front matter."),
	), s.getRedirectContract)

	// Resource: redirect declaration contract.
	s.mcp.AddResource(
		mcp.NewResource("raido://redirect-format", "Redirect Format Contract",
			mcp.WithResourceDescription("Canonical front matter format for alias and redirect declarations."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRedirectFormatResource,
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

func (s *Server) searchRedirects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	opts := redirect.Options{}
	if v, bErr := req.RequireBool("attachments_only"); bErr == nil {
		opts.OnlyAttachments = v
	}
	if v, bErr := req.RequireBool("declared_only"); bErr == nil {
		opts.DeclaredOnly = v
	}

	sugs, err := s.svc.Redirects(ctx, query, opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(sugs, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) insertTargetPath(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	line, err := req.RequireString("line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cursor, err := req.RequireInt("cursor")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	newLine, newCursor, err := s.svc.InsertPathAt(ctx, line, cursor, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("no trigger found in line at cursor %d", cursor)), nil
	}
	out, _ := json.Marshal(map[string]any{"line": newLine, "cursor": newCursor})
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) acceptSuggestion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	line, err := req.RequireString("line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cursor, err := req.RequireInt("cursor")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	alias, err := req.RequireString("alias")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	newLine, newCursor, err := s.svc.AcceptAt(ctx, line, cursor, alias, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("no trigger found in line at cursor %d", cursor)), nil
	}
	out, _ := json.Marshal(map[string]any{"line": newLine, "cursor": newCursor})
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) openDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.OpenByQuery(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("no document resolves for: %s", query)), nil
	}
	out, _ := json.MarshalIndent(doc, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := 0
	offset := 0
	if v, iErr := req.RequireInt("limit"); iErr == nil {
		limit = v
	}
	if v, iErr := req.RequireInt("offset"); iErr == nil {
		offset = v
	}

	items, _, err := s.svc.ListDocuments(ctx, limit, offset)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var paths []string
	for _, it := range items {
		paths = append(paths, it.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) declareRedirect(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !strings.HasSuffix(path, ".md") {
		return mcp.NewToolResultError(fmt.Sprintf("redirects can only be declared on markdown notes: %s", path)), nil
	}
	raw, err := req.RequireString("targets")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var targets []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			targets = append(targets, t)
		}
	}

	doc, err := s.svc.DeclareRedirects(ctx, path, targets, "")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("declare failed for %s: %v", path, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("declared %d target(s) on %s", len(doc.Targets), doc.Path)), nil
}

func (s *Server) getRedirectContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(RedirectFormatContract), nil
}

func (s *Server) readRedirectFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "raido://redirect-format",
			MIMEType: "text/markdown",
			Text:     RedirectFormatContract,
		},
	}, nil
}
