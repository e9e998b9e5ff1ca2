package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/marbeck/raido/internal/apperr"
	"github.com/marbeck/raido/internal/docservice"
	"github.com/marbeck/raido/internal/storage"
)

const (
	attachDir      = "attachments"
	maxUploadBytes = 50 << 20 // 50 MB
)

// AttachmentHandler accepts attachment uploads and serves vault files.
// Uploads go through the document service so new files are indexed and
// immediately resolvable as redirect targets.
type AttachmentHandler struct {
	svc   *docservice.Service
	store storage.Provider
}

// NewAttachmentHandler creates a handler over the given service and store.
func NewAttachmentHandler(svc *docservice.Service, store storage.Provider) *AttachmentHandler {
	return &AttachmentHandler{svc: svc, store: store}
}

// safeName validates that the filename is a plain name (no path separators,
// no traversal) and returns its vault-relative path under attachments/.
func safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	cleaned := path.Clean(name)
	if cleaned != path.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	return attachDir + "/" + cleaned, nil
}

// ServeFile handles GET /files/*: raw vault file contents by relative path.
// This is the resource behind every display path the API hands out.
func (h *AttachmentHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if rel == "" {
		http.NotFound(w, r)
		return
	}
	data, err := h.store.Read(rel)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		slog.Error("serve file failed", slog.String("path", rel), slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	ctype := mime.TypeByExtension(path.Ext(rel))
	if ctype == "" {
		ctype = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", ctype)
	_, _ = w.Write(data)
}

// Upload handles POST /api/attachments (multipart/form-data, field "file").
//
//	@Summary		Upload an attachment into the vault
//	@Tags			attachments
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"File to upload"
//	@Success		201		{object}	AttachmentUploadResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/attachments [post]
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	rel, err := safeName(header.Filename)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read upload"))
		return
	}

	if _, err := h.svc.SaveAttachment(r.Context(), rel, data); err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			writeJSON(w, http.StatusConflict, errorBody("attachment already exists"))
			return
		}
		slog.Error("upload failed", slog.String("path", rel), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to store attachment"))
		return
	}

	writeJSON(w, http.StatusCreated, AttachmentUploadResponse{
		Path: rel,
		Size: int64(len(data)),
		URL:  "/files/" + rel,
	})
}
