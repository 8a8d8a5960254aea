package render

import (
	"bytes"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

// SyntaxHighlighter highlights structured payloads embedded in log lines.
// Debug sessions dump a lot of JSON; coloring it makes the stream scannable.
type SyntaxHighlighter struct {
	theme string
}

// NewSyntaxHighlighter creates a highlighter with the default theme
func NewSyntaxHighlighter() *SyntaxHighlighter {
	return &SyntaxHighlighter{theme: "monokai"}
}

// Highlight returns the highlighted form of a line whose payload looks like
// a JSON document, and whether it applied.
func (s *SyntaxHighlighter) Highlight(line string) (string, bool) {
	if !looksLikeJSON(line) {
		return line, false
	}

	var buf bytes.Buffer
	if err := quick.Highlight(&buf, line, "json", "terminal16m", s.theme); err != nil {
		return line, false
	}

	// quick.Highlight appends a newline; rows are single-line.
	highlighted := strings.TrimRight(buf.String(), "\r\n")
	return highlighted, true
}

// looksLikeJSON is a cheap shape check, not a parse
func looksLikeJSON(line string) bool {
	t := strings.TrimSpace(line)
	if len(t) < 2 {
		return false
	}
	return (strings.HasPrefix(t, "{") && strings.HasSuffix(t, "}")) ||
		(strings.HasPrefix(t, "[") && strings.HasSuffix(t, "]"))
}
