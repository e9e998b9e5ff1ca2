package suggest

import "strings"

// Buffer is the slice of editor state the engine touches: line access and a
// single splice plus cursor move per accepted suggestion. The host editor
// provides the real implementation.
type Buffer interface {
	GetLine(line int) string
	GetRange(line, start, end int) string
	ReplaceRange(line, start, end int, text string)
	SetCursor(line, col int)
}

// LineBuffer is an in-memory Buffer used by tests and the stateless accept
// endpoint.
type LineBuffer struct {
	lines      []string
	CursorLine int
	CursorCol  int
}

// NewLineBuffer creates a buffer from text, split on newlines.
func NewLineBuffer(text string) *LineBuffer {
	return &LineBuffer{lines: strings.Split(text, "\n")}
}

// GetLine returns the line at index, or "" when out of range.
func (b *LineBuffer) GetLine(line int) string {
	if line < 0 || line >= len(b.lines) {
		return ""
	}
	return b.lines[line]
}

// GetRange returns text[start:end) of the given line, clamped to its bounds.
func (b *LineBuffer) GetRange(line, start, end int) string {
	s := b.GetLine(line)
	start, end = clamp(start, len(s)), clamp(end, len(s))
	if start >= end {
		return ""
	}
	return s[start:end]
}

// ReplaceRange splices text over [start, end) of the given line.
func (b *LineBuffer) ReplaceRange(line, start, end int, text string) {
	if line < 0 || line >= len(b.lines) {
		return
	}
	s := b.lines[line]
	start, end = clamp(start, len(s)), clamp(end, len(s))
	if start > end {
		start = end
	}
	b.lines[line] = s[:start] + text + s[end:]
}

// SetCursor records the cursor position.
func (b *LineBuffer) SetCursor(line, col int) {
	b.CursorLine, b.CursorCol = line, col
}

// String reassembles the buffer text.
func (b *LineBuffer) String() string {
	return strings.Join(b.lines, "\n")
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
