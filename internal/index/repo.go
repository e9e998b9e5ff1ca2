package index

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/marbeck/raido/internal/models"
)

// DocRow represents a row in the documents table.
type DocRow struct {
	Path      string
	Basename  string
	Title     string
	Checksum  string
	// Frontmatter is the parsed front matter, or nil for documents
	// without any (attachments, plain notes).
	Frontmatter map[string]any
	// Names is the searchable alias text, space-joined.
	Names     string
	UpdatedAt time.Time
}

// SearchResult is one document-lookup hit.
type SearchResult struct {
	Path  string `json:"path"`
	Title string `json:"title"`
	Names string `json:"names,omitempty"`
}

// UpsertDocument inserts or replaces a document and its FTS entry.
func (db *DB) UpsertDocument(d DocRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	fmJSON := ""
	if d.Frontmatter != nil {
		raw, _ := json.Marshal(d.Frontmatter)
		fmJSON = string(raw)
	}

	_, err = tx.Exec(`
		INSERT INTO documents (path, basename, title, checksum, frontmatter, names, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			basename    = excluded.basename,
			title       = excluded.title,
			checksum    = excluded.checksum,
			frontmatter = excluded.frontmatter,
			names       = excluded.names,
			updated_at  = excluded.updated_at
	`, d.Path, d.Basename, d.Title, d.Checksum, fmJSON, d.Names, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	// FTS upsert (no-op when the FTS5 tag is absent).
	if err := ftsUpsert(tx, d.Path, d.Basename, d.Title, d.Names); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteDocument removes a document and its FTS entry.
func (db *DB) DeleteDocument(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM documents WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a document, or empty string
// if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllChecksums returns path → checksum for every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// ListRows returns paginated document rows ordered by path, plus the total
// count.
func (db *DB) ListRows(limit, offset int) ([]DocRow, int, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT path, basename, title, checksum, frontmatter, names, updated_at
		FROM documents ORDER BY path LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list: %w", err)
	}
	defer rows.Close()

	var out []DocRow
	for rows.Next() {
		var d DocRow
		var fmJSON string
		if err := rows.Scan(&d.Path, &d.Basename, &d.Title, &d.Checksum, &fmJSON, &d.Names, &d.UpdatedAt); err != nil {
			return nil, 0, err
		}
		if fmJSON != "" {
			_ = json.Unmarshal([]byte(fmJSON), &d.Frontmatter)
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

// GetRow returns the row for path, or nil when absent.
func (db *DB) GetRow(path string) (*DocRow, error) {
	var d DocRow
	var fmJSON string
	err := db.conn.QueryRow(`
		SELECT path, basename, title, checksum, frontmatter, names, updated_at
		FROM documents WHERE path = ?
	`, path).Scan(&d.Path, &d.Basename, &d.Title, &d.Checksum, &fmJSON, &d.Names, &d.UpdatedAt)
	if err != nil {
		return nil, nil
	}
	if fmJSON != "" {
		_ = json.Unmarshal([]byte(fmJSON), &d.Frontmatter)
	}
	return &d, nil
}

// NamesText joins alias names for the searchable names column.
func NamesText(aliases []string) string {
	return strings.Join(aliases, " ")
}

// row → domain document
func toDocument(path, basename string) models.Document {
	if basename == "" {
		return models.NewDocument(path)
	}
	return models.Document{Path: path, Basename: basename}
}
