package index

import (
	"log/slog"
	"time"

	"github.com/marbeck/raido/internal/checksum"
	"github.com/marbeck/raido/internal/models"
	"github.com/marbeck/raido/internal/parser"
	"github.com/marbeck/raido/internal/redirect"
	"github.com/marbeck/raido/internal/storage"
)

// Sync walks the vault and brings the index up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	infos, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(infos))
	for _, fi := range infos {
		disk[fi.Path] = struct{}{}

		if checksums[fi.Path] == fi.Checksum {
			continue
		}

		data, err := store.Read(fi.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", fi.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, fi.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", fi.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", fi.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteDocument(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// IndexDocument parses and upserts a single vault file. Exported so the
// document service can reindex after a write.
func IndexDocument(db *DB, path string, data []byte) error {
	return indexFile(db, path, data)
}

// indexFile upserts a single vault file. Markdown notes are parsed for
// front matter and title; attachments are indexed by name alone.
func indexFile(db *DB, path string, data []byte) error {
	doc := models.NewDocument(path)
	row := DocRow{
		Path:      doc.Path,
		Basename:  doc.Basename,
		Checksum:  checksum.Sum(data),
		UpdatedAt: time.Now(),
	}

	if doc.IsNote() {
		res := parser.Parse(data)
		row.Title = res.Title
		row.Frontmatter = res.Frontmatter
		row.Names = NamesText(redirect.Normalize(res.Frontmatter).Aliases)
	}

	return db.UpsertDocument(row)
}
