package lexer

import "fmt"

// Kind classifies a token produced by the lexer.
type Kind int

const (
	// TagOpen starts an element; Value holds the tag name.
	TagOpen Kind = iota
	// TagClose ends an element; Value holds the tag name. Self-closing
	// tags emit TagClose immediately after their attributes.
	TagClose
	// AttrName is an attribute name inside a tag.
	AttrName
	// AttrValue is a static (quoted) attribute value.
	AttrValue
	// AttrExpr is an interpolated attribute value: name={expr}.
	AttrExpr
	// Text is a run of static text between tags.
	Text
	// TextExpr is an interpolated expression inside text: {expr}.
	TextExpr
	// Directive is a control attribute name: for, if, else-if or else.
	Directive
	// EOF marks the end of the token sequence.
	EOF
)

func (k Kind) String() string {
	switch k {
	case TagOpen:
		return "tag-open"
	case TagClose:
		return "tag-close"
	case AttrName:
		return "attr-name"
	case AttrValue:
		return "attr-value"
	case AttrExpr:
		return "attr-expr"
	case Text:
		return "text"
	case TextExpr:
		return "text-expr"
	case Directive:
		return "directive"
	case EOF:
		return "eof"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Position locates a token in the template source.
type Position struct {
	Line   int // 1-based
	Column int // 1-based, in bytes
	Offset int // 0-based byte offset
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is one lexical unit of a template.
type Token struct {
	Kind  Kind
	Value string
	Pos   Position
}

// SyntaxError reports a malformed template. It is fatal to compilation
// and is never produced after compilation succeeds.
type SyntaxError struct {
	Pos Position
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("template:%s: %s", e.Pos, e.Msg)
}

func syntaxErrorf(pos Position, format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
