package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/marbeck/raido/internal/apperr"
	"github.com/marbeck/raido/internal/docservice"
	"github.com/marbeck/raido/internal/redirect"
)

// Handler holds API route handlers.
type Handler struct {
	svc *docservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *docservice.Service) *Handler {
	return &Handler{svc: svc}
}

// docPath extracts the document path from the URL (everything after
// /api/documents/). Supports encoded slashes from OpenAPI clients
// (e.g. img%2Fx.png).
func docPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// Redirects handles GET /api/redirects.
//
//	@Summary		List resolved redirects, optionally filtered
//	@Tags			redirects
//	@Produce		json
//	@Param			q				query		string	false	"Space-separated filter tokens"
//	@Param			attachments_only	query	bool	false	"Keep only non-markdown targets"
//	@Param			declared_only	query		bool	false	"Skip documents without declarations"
//	@Success		200				{object}	RedirectsResponse
//	@Security		BearerAuth
//	@Router			/redirects [get]
func (h *Handler) Redirects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := redirect.Options{
		OnlyAttachments: q.Get("attachments_only") == "true",
		DeclaredOnly:    q.Get("declared_only") == "true",
	}
	sugs, err := h.svc.Redirects(r.Context(), q.Get("q"), opts)
	if err != nil {
		slog.Error("list redirects failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, RedirectsResponse{Redirects: sugs})
}

// Suggest handles GET /api/suggest.
//
//	@Summary		Scan a line for the trigger and return matching suggestions
//	@Tags			suggest
//	@Produce		json
//	@Param			line	query		string	true	"Line text"
//	@Param			cursor	query		int		true	"Cursor column"
//	@Success		200		{object}	SuggestResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/suggest [get]
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("line") {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'line' is required"))
		return
	}
	cursor, err := strconv.Atoi(q.Get("cursor"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'cursor' must be an integer"))
		return
	}

	span, sugs, ok, err := h.svc.Suggest(r.Context(), q.Get("line"), cursor)
	if err != nil {
		slog.Error("suggest failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if !ok {
		// Absent trigger is the normal idle state, not an error.
		writeJSON(w, http.StatusOK, SuggestResponse{Triggered: false})
		return
	}
	writeJSON(w, http.StatusOK, SuggestResponse{Triggered: true, Span: &span, Suggestions: sugs})
}

// AcceptSuggestion handles POST /api/suggest/accept.
//
//	@Summary		Apply a chosen suggestion to a line
//	@Tags			suggest
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AcceptRequest	true	"Line and chosen suggestion"
//	@Success		200		{object}	AcceptResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/suggest/accept [post]
func (h *Handler) AcceptSuggestion(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req AcceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}

	line, cursor, err := h.svc.AcceptAt(r.Context(), req.Line, req.Cursor, req.Alias, req.Path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusBadRequest, errorBody("no trigger in line"))
			return
		}
		slog.Error("accept suggestion failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, AcceptResponse{Line: line, Cursor: cursor})
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List indexed documents with optional pagination
//	@Tags			documents
//	@Produce		json
//	@Param			limit	query		int	false	"Page size"
//	@Param			offset	query		int	false	"Page offset"
//	@Success		200		{object}	DocListResponse
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.ListDocuments(r.Context(), limit, offset)
	if err != nil {
		slog.Error("list documents failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, DocListResponse{Documents: items, Total: total})
}

// GetDocument handles GET /api/documents/*.
//
//	@Summary		Get a single document by path
//	@Tags			documents
//	@Produce		json
//	@Param			path	path		string	true	"Document path"
//	@Success		200		{object}	DocDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	doc, err := h.svc.GetDocument(r.Context(), path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get document failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// DeclareRedirects handles PUT /api/documents/* with optimistic concurrency.
//
//	@Summary		Set a note's redirect targets
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			path		path	string					true	"Note path"
//	@Param			If-Match	header	string					false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body	DeclareRedirectsRequest	true	"Redirect targets"
//	@Success		200			{object}	DocDetail
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [put]
func (h *Handler) DeclareRedirects(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if !strings.HasSuffix(path, ".md") {
		writeJSON(w, http.StatusBadRequest, errorBody("redirects can only be declared on markdown notes"))
		return
	}

	var req DeclareRedirectsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	ifMatch := r.Header.Get("If-Match")
	// Strip surrounding quotes if present (standard ETag format).
	ifMatch = strings.Trim(ifMatch, `"`)

	doc, err := h.svc.DeclareRedirects(r.Context(), path, req.Targets, ifMatch)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrConflict):
			writeJSON(w, http.StatusConflict, errorBody("checksum mismatch"))
		default:
			slog.Error("declare redirects failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across the index
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
