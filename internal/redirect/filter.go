package redirect

import "strings"

// Matches reports whether e matches query. The query is split on whitespace;
// every token must appear, case-insensitively, in the entry's alias or its
// declared target text. An empty query matches everything. This is plain
// substring containment, not fuzzy matching.
func Matches(e Entry, query string) bool {
	tokens := strings.Fields(query)
	if len(tokens) == 0 {
		return true
	}
	alias := strings.ToLower(e.Alias)
	target := strings.ToLower(e.Target)
	for _, tok := range tokens {
		tok = strings.ToLower(tok)
		if !strings.Contains(alias, tok) && !strings.Contains(target, tok) {
			return false
		}
	}
	return true
}

// Filter returns the entries matching query, preserving order.
func Filter(entries []Entry, query string) []Entry {
	if strings.TrimSpace(query) == "" {
		return entries
	}
	var out []Entry
	for _, e := range entries {
		if Matches(e, query) {
			out = append(out, e)
		}
	}
	return out
}
