// Package markdown parses the small markdown subset used by mentor replies
// and renders it for a terminal.
package markdown

import "strings"

// Span is a run of text sharing one style.
type Span struct {
	Text   string
	Bold   bool
	Italic bool
	Code   bool
}

type inlineState struct {
	spans  []Span
	buf    strings.Builder
	bold   bool
	italic bool
	code   bool
}

func (s *inlineState) flush() {
	if s.buf.Len() == 0 {
		return
	}
	s.spans = append(s.spans, Span{Text: s.buf.String(), Bold: s.bold, Italic: s.italic, Code: s.code})
	s.buf.Reset()
}

// ParseInline splits a line into styled spans. Markers are **bold**,
// *italic* or _italic_, and `code`. A marker without a closing partner is
// kept as literal text; a backslash escapes the next byte.
func ParseInline(input string) []Span {
	if input == "" {
		return nil
	}
	st := &inlineState{}
	for i := 0; i < len(input); {
		ch := input[i]
		rest := input[i+1:]
		switch {
		case ch == '\\' && i+1 < len(input) && !st.code:
			st.buf.WriteByte(input[i+1])
			i += 2
			continue
		case ch == '`':
			if st.code || strings.Contains(rest, "`") {
				st.flush()
				st.code = !st.code
				i++
				continue
			}
		case st.code:
		case strings.HasPrefix(input[i:], "**"):
			if st.bold || hasClosing(input[i+2:], "**") {
				st.flush()
				st.bold = !st.bold
				i += 2
				continue
			}
			st.buf.WriteString("**")
			i += 2
			continue
		case ch == '*' || (ch == '_' && wordBoundary(input, i)):
			if st.italic || hasClosing(rest, string(ch)) {
				st.flush()
				st.italic = !st.italic
				i++
				continue
			}
		}
		st.buf.WriteByte(ch)
		i++
	}
	st.flush()
	return st.spans
}

// hasClosing reports whether marker occurs in rest outside of escapes.
func hasClosing(rest, marker string) bool {
	for i := 0; i < len(rest); i++ {
		if rest[i] == '\\' {
			i++
			continue
		}
		if strings.HasPrefix(rest[i:], marker) {
			return true
		}
	}
	return false
}

// wordBoundary reports whether the underscore at i opens or closes emphasis
// rather than sitting inside an identifier like snake_case.
func wordBoundary(s string, i int) bool {
	before := i == 0 || !isWordByte(s[i-1])
	after := i+1 >= len(s) || !isWordByte(s[i+1])
	return before || after
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// Plain returns the text of spans without styling.
func Plain(spans []Span) string {
	var b strings.Builder
	for _, span := range spans {
		b.WriteString(span.Text)
	}
	return b.String()
}
