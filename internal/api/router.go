package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/marbeck/raido/internal/docservice"
	"github.com/marbeck/raido/internal/storage"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *docservice.Service, store storage.Provider, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)
	ah := NewAttachmentHandler(svc, store)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Redirect resolution and suggestions.
	r.Get("/redirects", h.Redirects)
	r.Get("/suggest", h.Suggest)
	r.Post("/suggest/accept", h.AcceptSuggestion)

	// Documents.
	r.Get("/documents", h.ListDocuments)
	r.Get("/documents/*", h.GetDocument)
	r.Put("/documents/*", h.DeclareRedirects)

	// Search.
	r.Get("/search", h.Search)

	// Attachments upload (auth-protected).
	r.Post("/attachments", ah.Upload)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
