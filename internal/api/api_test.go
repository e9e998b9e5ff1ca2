package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/marbeck/raido/internal/docservice"
	"github.com/marbeck/raido/internal/index"
	"github.com/marbeck/raido/internal/storage"
	"github.com/marbeck/raido/internal/suggest"
)

// testEnv sets up a temp vault, SQLite index, service, and router.
// authToken="" means disabled mode; non-empty means token mode.
func testEnv(t *testing.T, authToken string) (*docservice.Service, http.Handler) {
	t.Helper()
	svc, router, _ := testEnvFull(t, authToken != "", authToken, nil)
	return svc, router
}

func testEnvFull(t *testing.T, authEnabled bool, authToken string, sseHandler http.Handler) (*docservice.Service, http.Handler, storage.Provider) {
	t.Helper()

	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}

	dbFile, err := os.CreateTemp("", "raido-api-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// Seed a small vault: a note with declarations, a plain note, an image.
	seed := map[string]string{
		"notes/cat.md": "---\nalias: Cat Photo\nredirect: img/cat.png\n---\n# Cat\nuniquetoken here",
		"plain.md":     "# Plain\nnothing declared",
		"img/cat.png":  "fake-png-data",
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
	router := NewRouter(svc, store, authEnabled, authToken, sseHandler)
	return svc, router, store
}

func TestGetDocument(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/documents/notes/cat.md", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, body = %s", w.Code, w.Body.String())
	}
	var doc DocDetail
	_ = json.Unmarshal(w.Body.Bytes(), &doc)
	if doc.Path != "notes/cat.md" {
		t.Errorf("path = %q", doc.Path)
	}
	if doc.Title != "Cat" {
		t.Errorf("title = %q, want Cat", doc.Title)
	}
	if len(doc.Aliases) != 1 || doc.Aliases[0] != "Cat Photo" {
		t.Errorf("aliases = %v", doc.Aliases)
	}
	if len(doc.Targets) != 1 || doc.Targets[0] != "img/cat.png" {
		t.Errorf("targets = %v", doc.Targets)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/documents/nope.md", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing document = %d, want 404", w.Code)
	}
}

func TestListDocuments(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/documents?limit=10", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	var resp DocListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 3 {
		t.Errorf("total = %d, want 3", resp.Total)
	}
	if len(resp.Documents) != 3 {
		t.Errorf("len(documents) = %d, want 3", len(resp.Documents))
	}
}

func TestRedirectsEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/redirects?q=cat+photo", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("redirects = %d, body = %s", w.Code, w.Body.String())
	}
	var resp RedirectsResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Redirects) == 0 {
		t.Fatalf("no redirects for 'cat photo'")
	}
	found := false
	for _, s := range resp.Redirects {
		if s.Alias == "Cat Photo" && s.Path == "img/cat.png" {
			found = true
			if !s.IsImage {
				t.Error("png target should be flagged as image")
			}
		}
	}
	if !found {
		t.Errorf("missing Cat Photo -> img/cat.png in %+v", resp.Redirects)
	}
}

func TestRedirectsEndpoint_AttachmentsOnly(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/redirects?attachments_only=true", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("redirects = %d", w.Code)
	}
	var resp RedirectsResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	for _, s := range resp.Redirects {
		if s.Path == "plain.md" {
			t.Errorf("markdown target %q should be filtered out", s.Path)
		}
	}
}

func TestSuggestEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	q := url.Values{}
	q.Set("line", "see r[photo")
	q.Set("cursor", strconv.Itoa(len("see r[photo")))
	req := httptest.NewRequest(http.MethodGet, "/suggest?"+q.Encode(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("suggest = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SuggestResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Triggered {
		t.Fatal("expected triggered response")
	}
	if resp.Span == nil || resp.Span.Start != 4 {
		t.Errorf("span = %+v, want start 4", resp.Span)
	}
	if len(resp.Suggestions) != 1 || resp.Suggestions[0].Alias != "Cat Photo" {
		t.Errorf("suggestions = %+v", resp.Suggestions)
	}
}

func TestSuggestEndpoint_NotTriggered(t *testing.T) {
	_, router := testEnv(t, "")

	q := url.Values{}
	q.Set("line", "nothing here")
	q.Set("cursor", "5")
	req := httptest.NewRequest(http.MethodGet, "/suggest?"+q.Encode(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("suggest = %d, want 200 even without trigger", w.Code)
	}
	var resp SuggestResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Triggered {
		t.Error("expected triggered=false")
	}
	if resp.Span != nil {
		t.Errorf("span should be omitted, got %+v", resp.Span)
	}
}

func TestAcceptEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	line := "see r[photo"
	body, _ := json.Marshal(AcceptRequest{
		Line:   line,
		Cursor: len(line),
		Alias:  "Cat Photo",
		Path:   "img/cat.png",
	})
	req := httptest.NewRequest(http.MethodPost, "/suggest/accept", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("accept = %d, body = %s", w.Code, w.Body.String())
	}
	var resp AcceptResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	want := "see [[img/cat.png|Cat Photo]]"
	if resp.Line != want {
		t.Errorf("line = %q, want %q", resp.Line, want)
	}
	if resp.Cursor != len(want) {
		t.Errorf("cursor = %d, want %d", resp.Cursor, len(want))
	}
}

func TestAcceptEndpoint_NoTrigger(t *testing.T) {
	_, router := testEnv(t, "")

	body, _ := json.Marshal(AcceptRequest{Line: "plain text", Cursor: 5, Alias: "x", Path: "x.md"})
	req := httptest.NewRequest(http.MethodPost, "/suggest/accept", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("accept without trigger = %d, want 400", w.Code)
	}
}

func TestDeclareRedirects_OptimisticLocking(t *testing.T) {
	_, router := testEnv(t, "")

	// Read the current checksum.
	req := httptest.NewRequest(http.MethodGet, "/documents/plain.md", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var doc DocDetail
	_ = json.Unmarshal(w.Body.Bytes(), &doc)

	// Declare with correct checksum.
	body, _ := json.Marshal(DeclareRedirectsRequest{Targets: []string{"img/cat.png"}})
	req = httptest.NewRequest(http.MethodPut, "/documents/plain.md", bytes.NewReader(body))
	req.Header.Set("If-Match", doc.Checksum)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("declare with correct checksum = %d, body = %s", w.Code, w.Body.String())
	}
	var updated DocDetail
	_ = json.Unmarshal(w.Body.Bytes(), &updated)
	if len(updated.Targets) != 1 || updated.Targets[0] != "img/cat.png" {
		t.Errorf("targets = %v", updated.Targets)
	}

	// Declare with stale checksum → 409.
	req = httptest.NewRequest(http.MethodPut, "/documents/plain.md", bytes.NewReader(body))
	req.Header.Set("If-Match", doc.Checksum) // stale now
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("declare with stale checksum = %d, want 409", w.Code)
	}
}

func TestDeclareRedirects_OnAttachment(t *testing.T) {
	_, router := testEnv(t, "")

	body, _ := json.Marshal(DeclareRedirectsRequest{Targets: []string{"plain.md"}})
	req := httptest.NewRequest(http.MethodPut, "/documents/img/cat.png", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("declare on attachment = %d, want 400", w.Code)
	}
}

func TestDeclareRedirects_NotFound(t *testing.T) {
	_, router := testEnv(t, "")

	body, _ := json.Marshal(DeclareRedirectsRequest{Targets: []string{"x.md"}})
	req := httptest.NewRequest(http.MethodPut, "/documents/ghost.md", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("declare on missing note = %d, want 404", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/search?q=cat", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) == 0 {
		t.Error("no results for 'cat'")
	}
}

func TestSearchMissingQuery(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

// Auth middleware tests.

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed list = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

func sseStub() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	_, router, _ := testEnvFull(t, true, "secret", sseStub())

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	_, router, _ := testEnvFull(t, true, "tok", sseStub())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}

// Attachment tests.

func uploadFile(t *testing.T, router http.Handler, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = io.Copy(part, bytes.NewReader(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUploadAttachment(t *testing.T) {
	_, router, store := testEnvFull(t, false, "", nil)

	w := uploadFile(t, router, "new.png", []byte("fresh-bytes"))
	if w.Code != http.StatusCreated {
		t.Fatalf("upload = %d, body = %s", w.Code, w.Body.String())
	}
	var resp AttachmentUploadResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Path != "attachments/new.png" {
		t.Errorf("path = %q", resp.Path)
	}

	data, err := store.Read("attachments/new.png")
	if err != nil {
		t.Fatalf("file not in vault: %v", err)
	}
	if string(data) != "fresh-bytes" {
		t.Errorf("content mismatch")
	}

	// Uploaded attachment is indexed and suggestable via its basename.
	req := httptest.NewRequest(http.MethodGet, "/redirects?q=new", nil)
	rw := httptest.NewRecorder()
	router.ServeHTTP(rw, req)
	var redirects RedirectsResponse
	_ = json.Unmarshal(rw.Body.Bytes(), &redirects)
	found := false
	for _, s := range redirects.Redirects {
		if s.Path == "attachments/new.png" {
			found = true
		}
	}
	if !found {
		t.Errorf("uploaded attachment not resolvable: %+v", redirects.Redirects)
	}
}

func TestUploadAttachment_Duplicate(t *testing.T) {
	_, router, _ := testEnvFull(t, false, "", nil)

	if w := uploadFile(t, router, "dup.png", []byte("a")); w.Code != http.StatusCreated {
		t.Fatalf("first upload = %d", w.Code)
	}
	if w := uploadFile(t, router, "dup.png", []byte("b")); w.Code != http.StatusConflict {
		t.Errorf("duplicate upload = %d, want 409", w.Code)
	}
}

func TestUploadAttachment_MissingFileField(t *testing.T) {
	_, router := testEnv(t, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("wrong", "data")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing field = %d, want 400", w.Code)
	}
}

func TestServeFile(t *testing.T) {
	svc, _, store := testEnvFull(t, false, "", nil)
	ah := NewAttachmentHandler(svc, store)

	r := chi.NewRouter()
	r.Get("/files/*", ah.ServeFile)

	req := httptest.NewRequest(http.MethodGet, "/files/img/cat.png", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("serve = %d", w.Code)
	}
	if w.Body.String() != "fake-png-data" {
		t.Errorf("body = %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q, want image/png", ct)
	}
}

func TestServeFile_NotFound(t *testing.T) {
	svc, _, store := testEnvFull(t, false, "", nil)
	ah := NewAttachmentHandler(svc, store)

	r := chi.NewRouter()
	r.Get("/files/*", ah.ServeFile)

	req := httptest.NewRequest(http.MethodGet, "/files/nope.png", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing file = %d, want 404", w.Code)
	}
}
