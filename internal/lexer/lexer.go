// Package lexer turns template markup into a flat token sequence.
//
// The scan is a single forward pass with no side effects. Tokens are
// produced in document order and consumed exactly once by the parser.
package lexer

import "strings"

// directiveNames are attribute names that carry control flow.
var directiveNames = map[string]bool{
	"for":     true,
	"if":      true,
	"else-if": true,
	"else":    true,
}

// Lex scans source and returns its token sequence, ending with an EOF
// token. It returns a *SyntaxError on an unterminated tag, an
// unterminated interpolation, or an unexpected character in attribute
// position.
func Lex(source string) ([]Token, error) {
	s := &scanner{src: source, line: 1, col: 1}
	var tokens []Token

	for !s.eof() {
		if s.peek() == '<' {
			toks, err := s.scanTag()
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, toks...)
			continue
		}
		toks, err := s.scanText()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, toks...)
	}

	tokens = append(tokens, Token{Kind: EOF, Pos: s.pos()})
	return tokens, nil
}

type scanner struct {
	src  string
	off  int
	line int
	col  int
}

func (s *scanner) eof() bool { return s.off >= len(s.src) }

func (s *scanner) peek() byte {
	if s.eof() {
		return 0
	}
	return s.src[s.off]
}

func (s *scanner) peekAt(n int) byte {
	if s.off+n >= len(s.src) {
		return 0
	}
	return s.src[s.off+n]
}

func (s *scanner) next() byte {
	c := s.src[s.off]
	s.off++
	if c == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return c
}

func (s *scanner) pos() Position {
	return Position{Line: s.line, Column: s.col, Offset: s.off}
}

func (s *scanner) skipSpace() {
	for !s.eof() && isSpace(s.peek()) {
		s.next()
	}
}

// scanText scans character data up to the next tag, splitting out
// interpolated {expr} runs as TextExpr tokens.
func (s *scanner) scanText() ([]Token, error) {
	var tokens []Token
	start := s.pos()
	var buf strings.Builder

	flush := func() {
		if buf.Len() > 0 {
			tokens = append(tokens, Token{Kind: Text, Value: buf.String(), Pos: start})
			buf.Reset()
		}
	}

	for !s.eof() && s.peek() != '<' {
		if s.peek() == '{' {
			flush()
			tok, err := s.scanInterpolation(TextExpr)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			start = s.pos()
			continue
		}
		buf.WriteByte(s.next())
	}
	flush()
	return tokens, nil
}

// scanInterpolation consumes {expr} and returns a token of the given
// kind holding the raw expression text. String literals inside the
// expression may contain braces.
func (s *scanner) scanInterpolation(kind Kind) (Token, error) {
	pos := s.pos()
	s.next() // consume '{'
	var buf strings.Builder
	for !s.eof() {
		c := s.peek()
		if c == '}' {
			s.next()
			return Token{Kind: kind, Value: strings.TrimSpace(buf.String()), Pos: pos}, nil
		}
		if c == '\'' || c == '"' {
			quote := s.next()
			buf.WriteByte(quote)
			for !s.eof() && s.peek() != quote {
				buf.WriteByte(s.next())
			}
			if s.eof() {
				return Token{}, syntaxErrorf(pos, "unterminated interpolation expression")
			}
			buf.WriteByte(s.next())
			continue
		}
		buf.WriteByte(s.next())
	}
	return Token{}, syntaxErrorf(pos, "unterminated interpolation expression")
}

// scanTag consumes one tag: open tag with attributes, close tag,
// comment or declaration.
func (s *scanner) scanTag() ([]Token, error) {
	pos := s.pos()
	s.next() // consume '<'

	// Comments and declarations are skipped entirely.
	if s.peek() == '!' {
		if strings.HasPrefix(s.src[s.off:], "!--") {
			end := strings.Index(s.src[s.off:], "-->")
			if end < 0 {
				return nil, syntaxErrorf(pos, "unterminated comment")
			}
			for i := 0; i < end+3; i++ {
				s.next()
			}
			return nil, nil
		}
		for !s.eof() && s.peek() != '>' {
			s.next()
		}
		if s.eof() {
			return nil, syntaxErrorf(pos, "unterminated declaration")
		}
		s.next()
		return nil, nil
	}

	// Close tag: </name>
	if s.peek() == '/' {
		s.next()
		name := s.scanName()
		if name == "" {
			return nil, syntaxErrorf(pos, "malformed close tag")
		}
		s.skipSpace()
		if s.peek() != '>' {
			return nil, syntaxErrorf(pos, "unterminated close tag %q", name)
		}
		s.next()
		return []Token{{Kind: TagClose, Value: name, Pos: pos}}, nil
	}

	name := s.scanName()
	if name == "" {
		return nil, syntaxErrorf(pos, "malformed tag name")
	}
	tokens := []Token{{Kind: TagOpen, Value: name, Pos: pos}}

	for {
		s.skipSpace()
		if s.eof() {
			return nil, syntaxErrorf(pos, "unterminated tag %q", name)
		}
		switch s.peek() {
		case '>':
			s.next()
			return tokens, nil
		case '/':
			if s.peekAt(1) != '>' {
				return nil, syntaxErrorf(s.pos(), "unexpected %q in tag %q", "/", name)
			}
			s.next()
			s.next()
			tokens = append(tokens, Token{Kind: TagClose, Value: name, Pos: s.pos()})
			return tokens, nil
		}
		attrToks, err := s.scanAttr(name)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, attrToks...)
	}
}

// scanAttr consumes one attribute (name, optionally a value) inside a
// tag. Directive names lex as Directive tokens instead of AttrName.
func (s *scanner) scanAttr(tag string) ([]Token, error) {
	pos := s.pos()
	attr := s.scanName()
	if attr == "" {
		return nil, syntaxErrorf(pos, "unexpected character %q in attribute position of tag %q", string(s.peek()), tag)
	}

	kind := AttrName
	if directiveNames[attr] {
		kind = Directive
	}
	tokens := []Token{{Kind: kind, Value: attr, Pos: pos}}

	s.skipSpace()
	if s.peek() != '=' {
		return tokens, nil // bare attribute, e.g. else or disabled
	}
	s.next()
	s.skipSpace()

	switch c := s.peek(); {
	case c == '{':
		tok, err := s.scanInterpolation(AttrExpr)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	case c == '"' || c == '\'':
		vpos := s.pos()
		quote := s.next()
		start := s.off
		for !s.eof() && s.peek() != quote {
			s.next()
		}
		if s.eof() {
			return nil, syntaxErrorf(vpos, "unterminated attribute value for %q", attr)
		}
		val := s.src[start:s.off]
		s.next()
		tokens = append(tokens, Token{Kind: AttrValue, Value: val, Pos: vpos})
	default:
		// Unquoted value, as emitted by HTML minifiers.
		vpos := s.pos()
		start := s.off
		for !s.eof() && !isSpace(s.peek()) && s.peek() != '>' && s.peek() != '/' {
			s.next()
		}
		if s.off == start {
			return nil, syntaxErrorf(vpos, "missing value for attribute %q", attr)
		}
		tokens = append(tokens, Token{Kind: AttrValue, Value: s.src[start:s.off], Pos: vpos})
	}
	return tokens, nil
}

// scanName consumes a tag or attribute name.
func (s *scanner) scanName() string {
	start := s.off
	for !s.eof() && isNameChar(s.peek()) {
		s.next()
	}
	return s.src[start:s.off]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isNameChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_' || c == ':' || c == '.':
		return true
	}
	return false
}
