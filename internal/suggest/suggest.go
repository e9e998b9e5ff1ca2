// Package suggest turns resolved redirect entries into ranked, deduplicated
// suggestions and splices an accepted suggestion back into the edited line.
package suggest

import (
	"strings"

	"github.com/marbeck/raido/internal/models"
	"github.com/marbeck/raido/internal/redirect"
)

// Suggestion is one presentable redirect entry.
type Suggestion struct {
	Alias string `json:"alias"`
	// Path is the resolved target's vault path.
	Path string `json:"path"`
	// DisplayPath locates the target for rich presentation (previews).
	DisplayPath string `json:"display_path"`
	// IsAlias marks names that differ from the origin's basename, so the
	// UI can show its alias glyph.
	IsAlias bool `json:"is_alias"`
	// IsImage marks targets suitable for an inline image preview.
	IsImage bool `json:"is_image"`
}

// imageExts is the fixed set of extensions presented as images. Pure
// extension classification; file contents are never inspected.
var imageExts = map[string]struct{}{
	"png": {}, "jpg": {}, "jpeg": {}, "gif": {}, "bmp": {}, "svg": {}, "webp": {},
}

// IsImage reports whether path has a recognised image extension.
func IsImage(path string) bool {
	_, ok := imageExts[strings.ToLower(models.Ext(path))]
	return ok
}

// FromEntries converts filtered entries into suggestions, collapsing exact
// (alias, target path) duplicates while preserving order. Distinct aliases
// for the same target are all kept: each spelling is its own suggestion.
func FromEntries(entries []redirect.Entry, display func(models.Document) string) []Suggestion {
	type key struct{ alias, path string }
	seen := make(map[key]struct{}, len(entries))
	out := make([]Suggestion, 0, len(entries))
	for _, e := range entries {
		k := key{e.Alias, e.Resolved.Path}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		s := Suggestion{
			Alias:   e.Alias,
			Path:    e.Resolved.Path,
			IsAlias: e.IsAlias,
			IsImage: IsImage(e.Resolved.Path),
		}
		if display != nil {
			s.DisplayPath = display(e.Resolved)
		}
		out = append(out, s)
	}
	return out
}

// Link builds the wikilink text inserted for a suggestion. Note targets drop
// their .md extension; the alias is added as display text when it differs
// from the link target's stem.
func Link(s Suggestion) string {
	target := strings.TrimSuffix(s.Path, ".md")
	if s.Alias == "" || s.Alias == models.Stem(target) {
		return "[[" + target + "]]"
	}
	return "[[" + target + "|" + s.Alias + "]]"
}

// QuotedPath returns the target path wrapped in double quotes, the insertion
// format of the path action.
func QuotedPath(s Suggestion) string {
	return `"` + s.Path + `"`
}
