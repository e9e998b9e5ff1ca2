package redirect

// Declaration is the canonical shape of a document's redirect metadata.
type Declaration struct {
	Aliases []string
	Targets []string
}

// Normalize extracts alias and redirect declarations from raw front matter.
// Singular and plural keys are both recognised, scalars are coerced to
// one-element sequences, and non-string sequence members are discarded.
// It never fails: nil or malformed metadata yields empty slices.
func Normalize(fm map[string]any) Declaration {
	return Declaration{
		Aliases: stringList(fm, "alias", "aliases"),
		Targets: stringList(fm, "redirect", "redirects"),
	}
}

// stringList reads the first present key and coerces its value to []string.
func stringList(fm map[string]any, keys ...string) []string {
	if fm == nil {
		return nil
	}
	for _, key := range keys {
		raw, ok := fm[key]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case string:
			return []string{v}
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return v
		}
		// Present but unusable (number, map, ...): treat as absent.
		return nil
	}
	return nil
}
