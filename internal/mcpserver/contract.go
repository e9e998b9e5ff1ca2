package mcpserver

// RedirectFormatContract describes the canonical alias and redirect
// declaration format that LLM consumers should follow.
const RedirectFormatContract = `# Raido Redirect Format Contract

Aliases and redirects live in a note's YAML front matter.

## Structure

` + "```" + `markdown
---
aliases:                            # OPTIONAL - alternative names for this note
  - Cat Photo
  - kitty
redirects:                          # OPTIONAL - vault paths this note points at
  - img/cat.png
---

Body text in standard Markdown.
` + "```" + `

## Rules

1. **Keys.** Use ` + "`" + `alias` + "`" + ` / ` + "`" + `aliases` + "`" + ` and ` + "`" + `redirect` + "`" + ` / ` + "`" + `redirects` + "`" + `.
   Singular and plural are equivalent; a bare string and a one-element list are equivalent.
2. **Values must be strings.** Non-string list members are ignored.
3. **Targets are vault paths** relative to the vault root, forward slashes,
   including the extension (e.g. ` + "`" + `img/cat.png` + "`" + `, ` + "`" + `topics/go.md` + "`" + `).
4. **A note without redirects points at itself.** Its basename (and any aliases)
   resolve to the note's own path.
5. **Dangling targets are ignored.** A declared target that does not resolve to
   an existing file produces no entry.
6. **Self-redirects are ignored.** Declaring a note's own path as a target adds
   nothing beyond the implicit self entry.

## Example

A note ` + "`" + `cat.md` + "`" + ` declaring:

` + "```" + `markdown
---
alias: Cat Photo
redirect: img/cat.png
---
` + "```" + `

makes both ` + "`" + `cat` + "`" + ` and ` + "`" + `Cat Photo` + "`" + ` resolve to ` + "`" + `img/cat.png` + "`" + `,
so accepting the suggestion inserts ` + "`" + `[[img/cat.png|Cat Photo]]` + "`" + `.
`
