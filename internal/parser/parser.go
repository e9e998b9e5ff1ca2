// Package parser splits YAML front matter from Markdown content and rewrites
// redirect declarations in place.
package parser

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const delim = "---"

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]any
	Body        string
	Title       string
}

// Parse extracts front matter, body, and a derived title from raw Markdown
// bytes. It never fails on malformed input: missing, unterminated, or
// invalid YAML degrades to nil front matter with the full content as body.
func Parse(data []byte) *Result {
	fm, body := splitFrontmatter(data)
	return &Result{
		Frontmatter: fm,
		Body:        body,
		Title:       deriveTitle(fm, body),
	}
}

// splitFrontmatter separates YAML front matter (between leading ---
// delimiters) from the Markdown body.
func splitFrontmatter(data []byte) (map[string]any, string) {
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		// No closing delimiter: everything is body.
		return nil, string(data)
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]any
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return nil, string(data)
	}
	return fm, body
}

// deriveTitle returns the front matter "title" if present, otherwise the
// first H1 heading, otherwise empty string.
func deriveTitle(fm map[string]any, body string) string {
	if fm != nil {
		if t, ok := fm["title"]; ok {
			if s, ok := t.(string); ok && s != "" {
				return s
			}
		}
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

// SetRedirects rewrites the redirect declarations of raw Markdown content,
// preserving every other front-matter field and the body. The singular
// "redirect" key is dropped in favour of the canonical plural. An empty
// target list removes the declaration entirely.
func SetRedirects(data []byte, targets []string) ([]byte, error) {
	fm, body := splitFrontmatter(data)
	if fm == nil {
		fm = map[string]any{}
	}

	delete(fm, "redirect")
	if len(targets) == 0 {
		delete(fm, "redirects")
	} else {
		fm["redirects"] = targets
	}

	if len(fm) == 0 {
		return []byte(body), nil
	}

	block, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("parser: marshal front matter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(delim + "\n")
	buf.Write(block)
	buf.WriteString(delim + "\n")
	if body != "" {
		buf.WriteString("\n")
		buf.WriteString(body)
	}
	return buf.Bytes(), nil
}
