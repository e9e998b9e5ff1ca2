// Package trigger detects the suggestion trigger inside a line of text and
// computes the span a selected suggestion replaces.
package trigger

import "strings"

// Span is the region of a line that a selected suggestion overwrites,
// together with the query typed after the trigger. Start and End are byte
// offsets; the span covers [Start, End).
type Span struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Query string `json:"query"`
}

// Scan looks for the first literal occurrence of trig in the text before the
// cursor. The trigger is user-configured free text and is matched as a plain
// string, so regex metacharacters in it have no special meaning.
//
// On a hit, Query is the text between the trigger and the cursor and End is
// the cursor offset — extended past auto-inserted closing brackets when trig
// ends in one or more '[' and the same count of ']' sits right after the
// cursor, so accepting a suggestion overwrites them instead of leaving
// duplicates. Returns ok == false when the trigger is absent, which is the
// common case on most keystrokes.
func Scan(line string, cursor int, trig string) (Span, bool) {
	if trig == "" {
		return Span{}, false
	}
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(line) {
		cursor = len(line)
	}

	start := strings.Index(line[:cursor], trig)
	if start < 0 {
		return Span{}, false
	}

	end := cursor
	if n := trailingOpens(trig); n > 0 {
		closing := strings.Repeat("]", n)
		if strings.HasPrefix(line[cursor:], closing) {
			end = cursor + n
		}
	}

	return Span{
		Start: start,
		End:   end,
		Query: line[start+len(trig) : cursor],
	}, true
}

// trailingOpens counts the '[' characters at the end of trig.
func trailingOpens(trig string) int {
	n := 0
	for i := len(trig) - 1; i >= 0 && trig[i] == '['; i-- {
		n++
	}
	return n
}
