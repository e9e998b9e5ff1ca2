package index

import (
	"encoding/json"
	"path"
	"strings"

	"github.com/marbeck/raido/internal/models"
)

// The methods in this file implement redirect.Collection, making the index
// the vault snapshot a resolution pass reads.

// ListDocuments returns every indexed document in path order.
func (db *DB) ListDocuments() ([]models.Document, error) {
	rows, err := db.conn.Query(`SELECT path, basename FROM documents ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		var p, b string
		if err := rows.Scan(&p, &b); err != nil {
			return nil, err
		}
		out = append(out, toDocument(p, b))
	}
	return out, rows.Err()
}

// Metadata returns the stored front matter of doc, or nil when it has none.
func (db *DB) Metadata(doc models.Document) map[string]any {
	var fmJSON string
	if err := db.conn.QueryRow(`SELECT frontmatter FROM documents WHERE path = ?`, doc.Path).Scan(&fmJSON); err != nil {
		return nil
	}
	if fmJSON == "" {
		return nil
	}
	var fm map[string]any
	if err := json.Unmarshal([]byte(fmJSON), &fm); err != nil {
		return nil
	}
	return fm
}

// ResolveLink resolves link text to a document. Exact paths win: the text is
// tried relative to the origin's directory and vault-absolute, each with and
// without a .md extension. Failing that, the first document (in path order)
// whose basename matches the text's stem is taken. Resolution is best-effort
// and total: any failure reports not-found rather than an error.
func (db *DB) ResolveLink(text, fromPath string) (models.Document, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Document{}, false
	}

	seen := make(map[string]struct{}, 4)
	var candidates []string
	add := func(p string) {
		p = path.Clean(p)
		if _, dup := seen[p]; dup || p == "." || p == "" {
			return
		}
		seen[p] = struct{}{}
		candidates = append(candidates, p)
	}
	relative := path.Join(path.Dir(fromPath), text)
	add(relative)
	add(strings.TrimPrefix(text, "/"))
	if path.Ext(text) == "" {
		add(relative + ".md")
		add(strings.TrimPrefix(text, "/") + ".md")
	}

	for _, cand := range candidates {
		var p, b string
		if err := db.conn.QueryRow(`SELECT path, basename FROM documents WHERE path = ?`, cand).Scan(&p, &b); err == nil {
			return toDocument(p, b), true
		}
	}

	// Filename fallback, scoped to the whole vault.
	stem := models.Stem(text)
	if stem == "" {
		return models.Document{}, false
	}
	var p, b string
	err := db.conn.QueryRow(`SELECT path, basename FROM documents WHERE basename = ? ORDER BY path LIMIT 1`, stem).Scan(&p, &b)
	if err != nil {
		return models.Document{}, false
	}
	return toDocument(p, b), true
}

// DisplayPath returns the locator the HTTP surface serves doc under.
func (db *DB) DisplayPath(doc models.Document) string {
	return "/files/" + doc.Path
}
