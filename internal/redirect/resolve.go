package redirect

import "github.com/marbeck/raido/internal/models"

// Resolver computes alias entries for a collection.
type Resolver struct {
	coll Collection
}

// NewResolver creates a resolver reading from coll.
func NewResolver(coll Collection) *Resolver {
	return &Resolver{coll: coll}
}

// Resolve walks the collection and returns every surviving alias entry.
// Entries appear in collection order, then alias-major/target-minor per
// document. Ranking beyond that is the caller's concern.
func (r *Resolver) Resolve(opts Options) ([]Entry, error) {
	docs, err := r.coll.ListDocuments()
	if err != nil {
		return nil, err
	}

	var out []Entry
	for _, doc := range docs {
		decl := Normalize(r.coll.Metadata(doc))

		aliases := make([]string, 0, len(decl.Aliases)+1)
		for _, a := range decl.Aliases {
			if a != "" {
				aliases = append(aliases, a)
			}
		}
		// The basename is always offered as a fallback name.
		if doc.Basename != "" && !contains(aliases, doc.Basename) {
			aliases = append(aliases, doc.Basename)
		}

		targets := decl.Targets
		selfTarget := false
		if len(targets) == 0 {
			if opts.DeclaredOnly {
				continue
			}
			// No declaration: the document offers itself as a target so
			// that every file stays discoverable.
			targets = []string{doc.Path}
			selfTarget = true
		}

		for _, alias := range aliases {
			for _, target := range targets {
				resolved, ok := r.coll.ResolveLink(target, doc.Path)
				if !ok {
					continue // dangling reference
				}
				// A declared redirect pointing back at its own document is
				// meaningless and dropped; the own-path fallback is the one
				// deliberate self reference.
				if !selfTarget && resolved.Path == doc.Path {
					continue
				}
				out = append(out, Entry{
					Alias:    alias,
					Target:   target,
					Origin:   doc,
					Resolved: resolved,
					IsAlias:  alias != doc.Basename,
				})
			}
		}
	}

	if opts.OnlyAttachments {
		out = withoutNotes(out)
	}
	return out, nil
}

// withoutNotes drops entries whose resolved target is a Markdown note.
func withoutNotes(entries []Entry) []Entry {
	kept := entries[:0]
	for _, e := range entries {
		if models.Ext(e.Resolved.Path) == "md" {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
