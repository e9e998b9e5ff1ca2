// Package redirect builds and filters the set of alias → target associations
// declared in vault front matter.
package redirect

import "github.com/marbeck/raido/internal/models"

// Collection is the vault snapshot the resolver reads. Implementations are
// host-owned (the SQLite index in production, fixtures in tests); the
// resolver never mutates it.
type Collection interface {
	// ListDocuments returns every document currently in the vault.
	ListDocuments() ([]models.Document, error)
	// Metadata returns the parsed front matter of a document, or nil when
	// the document has none.
	Metadata(doc models.Document) map[string]any
	// ResolveLink resolves link text to a document, seeded at fromPath.
	// Exact path matches win over filename matches; first match wins.
	ResolveLink(text, fromPath string) (models.Document, bool)
	// DisplayPath returns a locator string suitable for presenting doc
	// (e.g. rendering an image preview).
	DisplayPath(doc models.Document) string
}

// Entry is one resolved alias → target association. Entries are ephemeral:
// recomputed from the current collection on every resolution pass.
type Entry struct {
	// Alias is a declared alias or the origin document's basename.
	Alias string `json:"alias"`
	// Target is the redirect target as written in front matter, unresolved.
	Target string `json:"target"`
	// Origin is the document that declared the association.
	Origin models.Document `json:"origin"`
	// Resolved is the document Target points at. Always set on returned
	// entries; candidates that fail to resolve are dropped.
	Resolved models.Document `json:"resolved"`
	// IsAlias is true when Alias differs from the origin's basename.
	IsAlias bool `json:"is_alias"`
}

// Options control a resolution pass.
type Options struct {
	// OnlyAttachments keeps only entries whose resolved target is not a
	// Markdown note.
	OnlyAttachments bool
	// DeclaredOnly suppresses the own-path fallback target, so documents
	// without a redirect declaration contribute no entries.
	DeclaredOnly bool
}
