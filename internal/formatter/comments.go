package formatter

// regexPrefixKeywords are the keywords after which a slash opens a regular
// expression literal instead of a division.
var regexPrefixKeywords = map[string]bool{
	"return": true, "typeof": true, "instanceof": true, "in": true, "of": true,
	"new": true, "delete": true, "void": true, "throw": true, "case": true,
	"do": true, "else": true, "yield": true, "await": true,
}

// commentScanner finds comments in script source while skipping string,
// template, regular expression and JSX text content.
type commentScanner struct {
	src     string
	pos     int
	jsx     bool
	regexOK bool
}

// hasComments reports whether source contains a line or block comment.
func hasComments(source string, jsx bool) bool {
	s := &commentScanner{src: source, jsx: jsx}
	return s.code(false)
}

func (s *commentScanner) peek(offset int) byte {
	if s.pos+offset < len(s.src) {
		return s.src[s.pos+offset]
	}
	return 0
}

// code scans expressions and statements. With nested set it returns after
// the closing brace that matches an already consumed opening one.
func (s *commentScanner) code(nested bool) bool {
	depth := 0
	s.regexOK = true
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			s.pos++
		case c == '/':
			if next := s.peek(1); next == '/' || next == '*' {
				return true
			}
			if s.regexOK {
				s.skipRegex()
				s.regexOK = false
			} else {
				s.pos++
				s.regexOK = true
			}
		case c == '"' || c == '\'':
			s.skipString(c)
			s.regexOK = false
		case c == '`':
			if s.template() {
				return true
			}
			s.regexOK = false
		case c == '{':
			depth++
			s.pos++
			s.regexOK = true
		case c == '}':
			s.pos++
			if depth == 0 && nested {
				return false
			}
			depth--
			s.regexOK = true
		case c == '<' && s.jsx && s.regexOK && (isWordByte(s.peek(1)) || s.peek(1) == '>'):
			if s.element() {
				return true
			}
			s.regexOK = false
		case isWordByte(c):
			start := s.pos
			for s.pos < len(s.src) && isWordByte(s.src[s.pos]) {
				s.pos++
			}
			s.regexOK = regexPrefixKeywords[s.src[start:s.pos]]
		case c == ')' || c == ']':
			s.pos++
			s.regexOK = false
		default:
			s.pos++
			s.regexOK = true
		}
	}
	return false
}

func (s *commentScanner) skipString(quote byte) {
	s.pos++
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case '\\':
			s.pos += 2
		case quote:
			s.pos++
			return
		case '\n':
			return
		default:
			s.pos++
		}
	}
}

func (s *commentScanner) template() bool {
	s.pos++
	for s.pos < len(s.src) {
		switch {
		case s.src[s.pos] == '\\':
			s.pos += 2
		case s.src[s.pos] == '`':
			s.pos++
			return false
		case s.src[s.pos] == '$' && s.peek(1) == '{':
			s.pos += 2
			if s.code(true) {
				return true
			}
		default:
			s.pos++
		}
	}
	return false
}

func (s *commentScanner) skipRegex() {
	s.pos++
	inClass := false
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case '\\':
			s.pos += 2
			continue
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '\n':
			return
		case '/':
			if !inClass {
				s.pos++
				for s.pos < len(s.src) && isWordByte(s.src[s.pos]) {
					s.pos++
				}
				return
			}
		}
		s.pos++
	}
}

// element scans a JSX element starting at '<' through its closing tag.
func (s *commentScanner) element() bool {
	selfClosing, found := s.tag()
	if found || selfClosing {
		return found
	}
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case '{':
			s.pos++
			if s.code(true) {
				return true
			}
		case '<':
			if s.peek(1) == '/' {
				_, found := s.tag()
				return found
			}
			if s.element() {
				return true
			}
		default:
			s.pos++
		}
	}
	return false
}

// tag scans one opening or closing tag including its attributes.
func (s *commentScanner) tag() (selfClosing, found bool) {
	s.pos++
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '"' || c == '\'':
			s.skipString(c)
		case c == '{':
			s.pos++
			if s.code(true) {
				return false, true
			}
		case c == '/' && (s.peek(1) == '/' || s.peek(1) == '*'):
			return false, true
		case c == '/' && s.peek(1) == '>':
			s.pos += 2
			return true, false
		case c == '>':
			s.pos++
			return false, false
		default:
			s.pos++
		}
	}
	return false, false
}

func isWordByte(c byte) bool {
	return c == '_' || c == '$' || c >= 0x80 ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
