package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/marbeck/raido/internal/docservice"
	"github.com/marbeck/raido/internal/index"
	"github.com/marbeck/raido/internal/storage"
	"github.com/marbeck/raido/internal/suggest"
)

func testServer(t *testing.T) (*Server, storage.Provider) {
	t.Helper()

	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}

	dbFile, err := os.CreateTemp("", "raido-mcp-test-*.db")
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

	seed := map[string]string{
		"cat.md":      "---\nalias: Cat Photo\nredirect: img/cat.png\n---\n# Cat",
		"plain.md":    "# Plain",
		"img/cat.png": "fake-png-data",
	}
	for p, content := range seed {
		if err := store.Write(p, []byte(content)); err != nil {
			t.Fatalf("seed %s: %v", p, err)
		}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := index.Sync(db, store, logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	svc := docservice.NewService(store, db, suggest.Config{Trigger: "r["})
	return New(svc), store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so the handler functions
	// are exercised directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_redirects":
		result, err = srv.searchRedirects(ctx, req)
	case "insert_target_path":
		result, err = srv.insertTargetPath(ctx, req)
	case "accept_suggestion":
		result, err = srv.acceptSuggestion(ctx, req)
	case "open_document":
		result, err = srv.openDocument(ctx, req)
	case "list_documents":
		result, err = srv.listDocuments(ctx, req)
	case "declare_redirect":
		result, err = srv.declareRedirect(ctx, req)
	case "upload_attachment":
		result, err = srv.uploadAttachment(ctx, req)
	case "get_redirect_contract":
		result, err = srv.getRedirectContract(ctx, req)
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

func TestSearchRedirects(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "search_redirects", map[string]interface{}{"query": "cat photo"})
	if r.IsError {
		t.Fatalf("search error: %s", resultText(r))
	}
	var sugs []suggest.Suggestion
	if err := json.Unmarshal([]byte(resultText(r)), &sugs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(sugs) == 0 {
		t.Fatal("no suggestions")
	}
	if sugs[0].Alias != "Cat Photo" || sugs[0].Path != "img/cat.png" {
		t.Errorf("suggestion = %+v", sugs[0])
	}
}

func TestInsertTargetPath(t *testing.T) {
	srv, _ := testServer(t)

	line := "see r[photo"
	r := callTool(t, srv, "insert_target_path", map[string]interface{}{
		"line":   line,
		"cursor": len(line),
		"path":   "img/cat.png",
	})
	if r.IsError {
		t.Fatalf("insert error: %s", resultText(r))
	}
	var out struct {
		Line   string `json:"line"`
		Cursor int    `json:"cursor"`
	}
	_ = json.Unmarshal([]byte(resultText(r)), &out)
	want := `see "img/cat.png"`
	if out.Line != want {
		t.Errorf("line = %q, want %q", out.Line, want)
	}
	if out.Cursor != len(want) {
		t.Errorf("cursor = %d, want %d", out.Cursor, len(want))
	}
}

func TestInsertTargetPath_NoTrigger(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "insert_target_path", map[string]interface{}{
		"line":   "no trigger here",
		"cursor": 5,
		"path":   "x.md",
	})
	if !r.IsError {
		t.Error("expected error when trigger absent")
	}
}

func TestAcceptSuggestion(t *testing.T) {
	srv, _ := testServer(t)

	line := "see r[photo"
	r := callTool(t, srv, "accept_suggestion", map[string]interface{}{
		"line":   line,
		"cursor": len(line),
		"alias":  "Cat Photo",
		"path":   "img/cat.png",
	})
	if r.IsError {
		t.Fatalf("accept error: %s", resultText(r))
	}
	var out struct {
		Line   string `json:"line"`
		Cursor int    `json:"cursor"`
	}
	_ = json.Unmarshal([]byte(resultText(r)), &out)
	want := "see [[img/cat.png|Cat Photo]]"
	if out.Line != want {
		t.Errorf("line = %q, want %q", out.Line, want)
	}
	if out.Cursor != len(want) {
		t.Errorf("cursor = %d, want %d", out.Cursor, len(want))
	}
}

func TestOpenDocument(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "open_document", map[string]interface{}{"query": "cat photo"})
	if r.IsError {
		t.Fatalf("open error: %s", resultText(r))
	}
	var doc docservice.DocDetail
	_ = json.Unmarshal([]byte(resultText(r)), &doc)
	if doc.Path != "img/cat.png" {
		t.Errorf("path = %q, want img/cat.png", doc.Path)
	}
}

func TestOpenDocument_NoMatch(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "open_document", map[string]interface{}{"query": "zzz-nothing"})
	if !r.IsError {
		t.Error("expected error for unmatched query")
	}
}

func TestListDocuments(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "list_documents", map[string]interface{}{})
	text := resultText(r)
	for _, want := range []string{"cat.md", "plain.md", "img/cat.png"} {
		if !strings.Contains(text, want) {
			t.Errorf("list missing %s: %q", want, text)
		}
	}
}

func TestDeclareRedirect(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "declare_redirect", map[string]interface{}{
		"path":    "plain.md",
		"targets": "img/cat.png",
	})
	if r.IsError {
		t.Fatalf("declare error: %s", resultText(r))
	}

	// The new declaration is immediately resolvable.
	r = callTool(t, srv, "search_redirects", map[string]interface{}{"query": "plain"})
	var sugs []suggest.Suggestion
	_ = json.Unmarshal([]byte(resultText(r)), &sugs)
	found := false
	for _, s := range sugs {
		if s.Alias == "plain" && s.Path == "img/cat.png" {
			found = true
		}
	}
	if !found {
		t.Errorf("declared redirect not resolvable: %+v", sugs)
	}
}

func TestDeclareRedirect_OnAttachment(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "declare_redirect", map[string]interface{}{
		"path":    "img/cat.png",
		"targets": "plain.md",
	})
	if !r.IsError {
		t.Error("expected error declaring on an attachment")
	}
}

func TestGetRedirectContract(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "get_redirect_contract", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "redirects:") || !strings.Contains(text, "aliases:") {
		t.Errorf("contract missing declaration keys: %q", text)
	}
}

func TestUploadAttachment_DataURI(t *testing.T) {
	srv, store := testServer(t)

	png := []byte("\x89PNG\r\n\x1a\n")
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)

	r := callTool(t, srv, "upload_attachment", map[string]interface{}{
		"url":      uri,
		"filename": "pixel.png",
	})
	if r.IsError {
		t.Fatalf("upload error: %s", resultText(r))
	}
	var out uploadResult
	_ = json.Unmarshal([]byte(resultText(r)), &out)
	if out.SavedPath != "attachments/pixel.png" {
		t.Errorf("savedPath = %q", out.SavedPath)
	}
	if !strings.Contains(out.MarkdownImage, "/files/attachments/pixel.png") {
		t.Errorf("markdownImage = %q", out.MarkdownImage)
	}
	if _, err := store.Read("attachments/pixel.png"); err != nil {
		t.Errorf("file not in vault: %v", err)
	}

	// Second upload of the same name must fail (no overwrite).
	r = callTool(t, srv, "upload_attachment", map[string]interface{}{
		"url":      uri,
		"filename": "pixel.png",
	})
	if !r.IsError {
		t.Error("expected error for duplicate upload")
	}
}

func TestUploadAttachment_BadExtension(t *testing.T) {
	srv, _ := testServer(t)

	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\n"))
	r := callTool(t, srv, "upload_attachment", map[string]interface{}{
		"url":      uri,
		"filename": "evil.exe",
	})
	if !r.IsError {
		t.Error("expected error for disallowed extension")
	}
}
