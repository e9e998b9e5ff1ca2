package suggest

import (
	"github.com/marbeck/raido/internal/redirect"
	"github.com/marbeck/raido/internal/trigger"
)

// Config holds the user-facing suggestion settings.
type Config struct {
	// Trigger is the literal substring that opens the suggestion surface.
	Trigger string
	// OnlyAttachments restricts suggestions to non-note targets.
	OnlyAttachments bool
	// DeclaredOnly restricts suggestions to explicitly declared redirects.
	DeclaredOnly bool
}

// Engine ties the trigger scanner, resolver, and filter together. Every call
// recomputes from the current collection snapshot; nothing is cached across
// keystrokes, so documents created or renamed between calls are picked up.
type Engine struct {
	coll     redirect.Collection
	resolver *redirect.Resolver
	cfg      Config
}

// NewEngine creates an engine over coll with the given settings.
func NewEngine(coll redirect.Collection, cfg Config) *Engine {
	return &Engine{coll: coll, resolver: redirect.NewResolver(coll), cfg: cfg}
}

// Suggest scans line at cursor for the configured trigger and, on a hit,
// resolves and filters the collection's redirect entries. ok is false when
// the trigger is absent — the normal case on most keystrokes, not an error.
func (e *Engine) Suggest(line string, cursor int) (trigger.Span, []Suggestion, bool, error) {
	span, ok := trigger.Scan(line, cursor, e.cfg.Trigger)
	if !ok {
		return trigger.Span{}, nil, false, nil
	}
	sugs, err := e.Search(span.Query)
	if err != nil {
		return trigger.Span{}, nil, false, err
	}
	return span, sugs, true, nil
}

// Scan runs only the trigger scanner, without resolving the collection.
func (e *Engine) Scan(line string, cursor int) (trigger.Span, bool) {
	return trigger.Scan(line, cursor, e.cfg.Trigger)
}

// Search resolves the collection and returns the deduplicated suggestions
// matching query, independent of any trigger context.
func (e *Engine) Search(query string) ([]Suggestion, error) {
	entries, err := e.resolver.Resolve(redirect.Options{
		OnlyAttachments: e.cfg.OnlyAttachments,
		DeclaredOnly:    e.cfg.DeclaredOnly,
	})
	if err != nil {
		return nil, err
	}
	return FromEntries(redirect.Filter(entries, query), e.coll.DisplayPath), nil
}

// Accept splices the wikilink for s over span on the given buffer line and
// places the cursor immediately after the inserted text.
func (e *Engine) Accept(buf Buffer, line int, span trigger.Span, s Suggestion) {
	text := Link(s)
	buf.ReplaceRange(line, span.Start, span.End, text)
	buf.SetCursor(line, span.Start+len(text))
}

// AcceptLine is the stateless form of Accept: it applies the suggestion to a
// single line of text and returns the new line and cursor column.
func (e *Engine) AcceptLine(line string, span trigger.Span, s Suggestion) (string, int) {
	buf := NewLineBuffer(line)
	e.Accept(buf, 0, span, s)
	return buf.GetLine(0), buf.CursorCol
}

// InsertPathLine splices the quoted target path (instead of a wikilink) over
// span, the second insertion format a suggestion supports.
func (e *Engine) InsertPathLine(line string, span trigger.Span, s Suggestion) (string, int) {
	buf := NewLineBuffer(line)
	text := QuotedPath(s)
	buf.ReplaceRange(0, span.Start, span.End, text)
	buf.SetCursor(0, span.Start+len(text))
	return buf.GetLine(0), buf.CursorCol
}
