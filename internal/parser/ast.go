package parser

import (
	"github.com/weftui/weft/internal/expr"
	"github.com/weftui/weft/internal/lexer"
)

// AST is the parsed form of a template: an ordered sequence of root
// nodes.
type AST struct {
	Roots []Node
}

// Node is an AST node. The concrete types are Element, Text, Interp,
// For, Conditional and Component.
type Node interface {
	Pos() lexer.Position
}

// Attr is one attribute of an element or one prop of a component. A
// static value has Expr nil; an interpolated value carries the parsed
// expression. Bare attributes (no value) have HasValue false.
type Attr struct {
	Name     string
	Value    string
	Expr     *expr.Expr
	HasValue bool
	ValuePos lexer.Position
}

// Element is a plain markup element.
type Element struct {
	Tag      string
	Attrs    []Attr
	Children []Node
	pos      lexer.Position
}

func (e *Element) Pos() lexer.Position { return e.pos }

// Text is a run of static text.
type Text struct {
	Content string
	pos     lexer.Position
}

func (t *Text) Pos() lexer.Position { return t.pos }

// Interp is an interpolated text expression.
type Interp struct {
	Expr *expr.Expr
	pos  lexer.Position
}

func (i *Interp) Pos() lexer.Position { return i.pos }

// For wraps its body in a loop. Item and Index are the binding names
// visible only within the body; Index is empty when unbound. Key is
// the user's key expression, nil when the loop item value keys the
// entries.
type For struct {
	Item     string
	Index    string
	Iterable *expr.Expr
	Key      *expr.Expr
	Body     Node
	pos      lexer.Position
}

func (f *For) Pos() lexer.Position { return f.pos }

// Branch is one arm of a conditional chain. The final else branch has
// a nil Test.
type Branch struct {
	Test *expr.Expr
	Body Node
}

// Conditional is an if/else-if/else chain. Branches are mutually
// exclusive and evaluated in order; at most one body is realized per
// evaluation.
type Conditional struct {
	Branches []Branch
	pos      lexer.Position
}

func (c *Conditional) Pos() lexer.Position { return c.pos }

// Component is a reference to a registered component, distinguished
// from elements by its capitalized name.
type Component struct {
	Name  string
	Props []Attr
	pos   lexer.Position
}

func (c *Component) Pos() lexer.Position { return c.pos }
