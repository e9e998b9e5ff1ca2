// Package docservice coordinates storage, index, and the suggestion engine
// for the outer surfaces (REST API, MCP server).
package docservice

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/marbeck/raido/internal/apperr"
	"github.com/marbeck/raido/internal/checksum"
	"github.com/marbeck/raido/internal/index"
	"github.com/marbeck/raido/internal/models"
	"github.com/marbeck/raido/internal/parser"
	"github.com/marbeck/raido/internal/redirect"
	"github.com/marbeck/raido/internal/storage"
	"github.com/marbeck/raido/internal/suggest"
	"github.com/marbeck/raido/internal/trigger"
)

// DocDetail is the full representation of a vault document.
type DocDetail struct {
	Path        string         `json:"path"`
	Basename    string         `json:"basename"`
	Title       string         `json:"title,omitempty"`
	Content     string         `json:"content,omitempty"`
	Checksum    string         `json:"checksum"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Aliases     []string       `json:"aliases"`
	Targets     []string       `json:"targets"`
	DisplayPath string         `json:"display_path"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// DocListItem is a lightweight item in a list response.
type DocListItem struct {
	Path      string    `json:"path"`
	Basename  string    `json:"basename"`
	Title     string    `json:"title,omitempty"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service coordinates storage and index operations.
type Service struct {
	store  storage.Provider
	db     *index.DB
	engine *suggest.Engine
}

// NewService creates a new document service. cfg carries the user's
// suggestion settings (trigger, filters).
func NewService(store storage.Provider, db *index.DB, cfg suggest.Config) *Service {
	return &Service{
		store:  store,
		db:     db,
		engine: suggest.NewEngine(db, cfg),
	}
}

// GetDocument reads a document from storage and enriches it with its
// normalized redirect declarations.
func (s *Service) GetDocument(_ context.Context, path string) (*DocDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return s.buildDetail(path, data), nil
}

// DeclareRedirects rewrites a note's redirect declarations through the
// atomic storage write and reindexes it. ifMatch, when non-empty, must equal
// the current checksum (optimistic concurrency).
func (s *Service) DeclareRedirects(_ context.Context, path string, targets []string, ifMatch string) (*DocDetail, error) {
	existing, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(existing) {
		return nil, apperr.ErrConflict
	}

	updated, err := parser.SetRedirects(existing, targets)
	if err != nil {
		return nil, err
	}
	if err := s.store.Write(path, updated); err != nil {
		return nil, err
	}
	if err := index.IndexDocument(s.db, path, updated); err != nil {
		return nil, err
	}
	return s.buildDetail(path, updated), nil
}

// SaveAttachment stores a new attachment and indexes it. Existing files are
// never overwritten.
func (s *Service) SaveAttachment(_ context.Context, path string, data []byte) (*DocDetail, error) {
	if _, err := s.store.Read(path); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	if err := s.store.Write(path, data); err != nil {
		return nil, err
	}
	if err := index.IndexDocument(s.db, path, data); err != nil {
		return nil, err
	}
	detail := s.buildDetail(path, data)
	detail.Content = "" // binary payloads are not echoed back
	return detail, nil
}

// Suggest runs the trigger scanner over line at cursor and, on a hit,
// returns the replacement span plus matching suggestions.
func (s *Service) Suggest(_ context.Context, line string, cursor int) (trigger.Span, []suggest.Suggestion, bool, error) {
	return s.engine.Suggest(line, cursor)
}

// AcceptSuggestion applies a chosen suggestion to a single line, returning
// the new line text and cursor column.
func (s *Service) AcceptSuggestion(line string, span trigger.Span, sug suggest.Suggestion) (string, int) {
	return s.engine.AcceptLine(line, span, sug)
}

// AcceptAt rescans line at cursor for the trigger and splices the chosen
// target into the replacement span. Returns apperr.ErrNotFound when the
// trigger is absent.
func (s *Service) AcceptAt(_ context.Context, line string, cursor int, alias, path string) (string, int, error) {
	span, ok := s.engine.Scan(line, cursor)
	if !ok {
		return "", 0, apperr.ErrNotFound
	}
	sug := suggest.Suggestion{
		Alias:   alias,
		Path:    path,
		IsAlias: alias != models.Stem(path),
		IsImage: suggest.IsImage(path),
	}
	newLine, newCursor := s.engine.AcceptLine(line, span, sug)
	return newLine, newCursor, nil
}

// InsertPathAt rescans line at cursor for the trigger and splices the quoted
// target path over the span. Returns apperr.ErrNotFound when the trigger is
// absent.
func (s *Service) InsertPathAt(_ context.Context, line string, cursor int, path string) (string, int, error) {
	span, ok := s.engine.Scan(line, cursor)
	if !ok {
		return "", 0, apperr.ErrNotFound
	}
	newLine, newCursor := s.engine.InsertPathLine(line, span, suggest.Suggestion{Path: path})
	return newLine, newCursor, nil
}

// Redirects resolves the collection with the given options and returns the
// suggestions matching query.
func (s *Service) Redirects(_ context.Context, query string, opts redirect.Options) ([]suggest.Suggestion, error) {
	entries, err := redirect.NewResolver(s.db).Resolve(opts)
	if err != nil {
		return nil, err
	}
	return suggest.FromEntries(redirect.Filter(entries, query), s.db.DisplayPath), nil
}

// OpenByQuery resolves query to its best suggestion and returns the target
// document, the "open a chosen resolved document" action.
func (s *Service) OpenByQuery(ctx context.Context, query string) (*DocDetail, error) {
	sugs, err := s.engine.Search(query)
	if err != nil {
		return nil, err
	}
	if len(sugs) == 0 {
		return nil, apperr.ErrNotFound
	}
	return s.GetDocument(ctx, sugs[0].Path)
}

// ListDocuments returns paginated index rows.
func (s *Service) ListDocuments(_ context.Context, limit, offset int) ([]DocListItem, int, error) {
	rows, total, err := s.db.ListRows(limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items := make([]DocListItem, len(rows))
	for i, r := range rows {
		items[i] = DocListItem{
			Path:      r.Path,
			Basename:  r.Basename,
			Title:     r.Title,
			Checksum:  r.Checksum,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates document lookup to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// buildDetail constructs a DocDetail from raw data without re-reading the file.
func (s *Service) buildDetail(path string, data []byte) *DocDetail {
	doc := models.NewDocument(path)
	detail := &DocDetail{
		Path:        doc.Path,
		Basename:    doc.Basename,
		Checksum:    checksum.Sum(data),
		Aliases:     []string{},
		Targets:     []string{},
		DisplayPath: s.db.DisplayPath(doc),
		UpdatedAt:   time.Now(),
	}
	if doc.IsNote() {
		res := parser.Parse(data)
		decl := redirect.Normalize(res.Frontmatter)
		detail.Title = res.Title
		detail.Content = string(data)
		detail.Frontmatter = res.Frontmatter
		detail.Aliases = nonNilSlice(decl.Aliases)
		detail.Targets = nonNilSlice(decl.Targets)
	}
	return detail
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
