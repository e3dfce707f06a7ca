// Package parser builds an abstract syntax tree from the lexer's token
// sequence, resolving directive siblings into structured control nodes.
package parser

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/weftui/weft/internal/dom"
	"github.com/weftui/weft/internal/expr"
	"github.com/weftui/weft/internal/lexer"
)

// Parse consumes a token sequence and returns the template's AST.
// Tokens are consumed exactly once; the sequence is not restartable.
func Parse(tokens []lexer.Token) (*AST, error) {
	p := &parser{toks: tokens}
	roots, err := p.parseSiblings("")
	if err != nil {
		return nil, err
	}
	return &AST{Roots: roots}, nil
}

type parser struct {
	toks []lexer.Token
	i    int
}

func (p *parser) peek() lexer.Token { return p.toks[p.i] }

func (p *parser) next() lexer.Token {
	t := p.toks[p.i]
	if t.Kind != lexer.EOF {
		p.i++
	}
	return t
}

// elemInfo is a parsed element plus its directive attributes, before
// sibling assembly turns directives into For/Conditional wrappers.
type elemInfo struct {
	node     Node // *Element or *Component
	pos      lexer.Position
	hasFor   bool
	forItem  string
	forIndex string
	iterable *expr.Expr
	keyExpr  *expr.Expr
	ifExpr   *expr.Expr
	elifExpr *expr.Expr
	isElse   bool
}

// rawItem is one unassembled sibling: a Node (text, interpolation) or
// an *elemInfo.
type rawItem struct {
	node Node
	elem *elemInfo
}

// parseSiblings parses nodes until the close tag (or EOF for the
// template root), then assembles directive chains.
func (p *parser) parseSiblings(closeTag string) ([]Node, error) {
	var items []rawItem
	for {
		switch t := p.peek(); t.Kind {
		case lexer.Text:
			p.next()
			items = append(items, rawItem{node: &Text{Content: t.Value, pos: t.Pos}})
		case lexer.TextExpr:
			p.next()
			e, err := expr.Parse(t.Value, t.Pos)
			if err != nil {
				return nil, err
			}
			items = append(items, rawItem{node: &Interp{Expr: e, pos: t.Pos}})
		case lexer.TagOpen:
			ei, err := p.parseElement()
			if err != nil {
				return nil, err
			}
			items = append(items, rawItem{elem: ei})
		case lexer.TagClose:
			if t.Value != closeTag {
				return nil, syntaxErrorf(t.Pos, "close tag </%s> does not match open tag <%s>", t.Value, openName(closeTag))
			}
			p.next()
			return assemble(items)
		case lexer.EOF:
			if closeTag != "" {
				return nil, syntaxErrorf(t.Pos, "element <%s> is never closed", closeTag)
			}
			return assemble(items)
		default:
			return nil, syntaxErrorf(t.Pos, "unexpected %s token", t.Kind)
		}
	}
}

func openName(closeTag string) string {
	if closeTag == "" {
		return "(root)"
	}
	return closeTag
}

// parseElement parses one element or component, its attributes and,
// unless it is void or self-closed, its children.
func (p *parser) parseElement() (*elemInfo, error) {
	open := p.next() // TagOpen
	ei := &elemInfo{pos: open.Pos}

	var attrs []Attr
	for {
		t := p.peek()
		if t.Kind != lexer.AttrName && t.Kind != lexer.Directive {
			break
		}
		p.next()
		val, hasVal := p.maybeValue()

		if t.Kind == lexer.Directive {
			if err := p.applyDirective(ei, t, val, hasVal, &attrs); err != nil {
				return nil, err
			}
			continue
		}
		attr, err := makeAttr(t, val, hasVal)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
	}

	// The key attribute belongs to the enclosing loop, not the node.
	if ei.hasFor {
		for i, a := range attrs {
			if a.Name != "key" {
				continue
			}
			keyExpr, err := attrExpr(a)
			if err != nil {
				return nil, err
			}
			ei.keyExpr = keyExpr
			attrs = append(attrs[:i], attrs[i+1:]...)
			break
		}
	}

	children, err := p.parseChildren(open)
	if err != nil {
		return nil, err
	}

	if isComponentName(open.Value) {
		for _, c := range children {
			if t, ok := c.(*Text); ok && strings.TrimSpace(t.Content) == "" {
				continue
			}
			return nil, syntaxErrorf(c.Pos(), "component <%s> takes no children", open.Value)
		}
		ei.node = &Component{Name: open.Value, Props: attrs, pos: open.Pos}
		return ei, nil
	}
	ei.node = &Element{Tag: open.Value, Attrs: attrs, Children: children, pos: open.Pos}
	return ei, nil
}

func (p *parser) parseChildren(open lexer.Token) ([]Node, error) {
	// A self-closing tag lexes as an immediate TagClose; an explicitly
	// empty element looks the same.
	if t := p.peek(); t.Kind == lexer.TagClose && t.Value == open.Value {
		p.next()
		return nil, nil
	}
	if dom.IsVoidElement(open.Value) {
		return nil, nil
	}
	return p.parseSiblings(open.Value)
}

// maybeValue consumes the attribute's value token if present.
func (p *parser) maybeValue() (lexer.Token, bool) {
	t := p.peek()
	if t.Kind == lexer.AttrValue || t.Kind == lexer.AttrExpr {
		p.next()
		return t, true
	}
	return lexer.Token{}, false
}

// applyDirective records a directive attribute on the element. A for
// directive whose value is not a loop specification falls back to a
// plain attribute, covering the label for= case.
func (p *parser) applyDirective(ei *elemInfo, name lexer.Token, val lexer.Token, hasVal bool, attrs *[]Attr) error {
	switch name.Value {
	case "for":
		if !hasVal || val.Kind != lexer.AttrValue {
			return syntaxErrorf(name.Pos, "for directive takes a loop specification, e.g. for=\"item in items\"")
		}
		item, index, iterSrc, ok := splitForSpec(val.Value)
		if !ok {
			attr, err := makeAttr(name, val, hasVal)
			if err != nil {
				return err
			}
			*attrs = append(*attrs, attr)
			return nil
		}
		iter, err := expr.Parse(iterSrc, val.Pos)
		if err != nil {
			return err
		}
		ei.hasFor = true
		ei.forItem = item
		ei.forIndex = index
		ei.iterable = iter
		return nil
	case "if", "else-if":
		if !hasVal {
			return syntaxErrorf(name.Pos, "%s directive requires a test expression", name.Value)
		}
		test, err := expr.Parse(val.Value, val.Pos)
		if err != nil {
			return err
		}
		if name.Value == "if" {
			ei.ifExpr = test
		} else {
			ei.elifExpr = test
		}
		return nil
	case "else":
		if hasVal {
			return syntaxErrorf(name.Pos, "else directive takes no value")
		}
		ei.isElse = true
		return nil
	}
	return syntaxErrorf(name.Pos, "unknown directive %q", name.Value)
}

func makeAttr(name lexer.Token, val lexer.Token, hasVal bool) (Attr, error) {
	attr := Attr{Name: name.Value, HasValue: hasVal}
	if !hasVal {
		return attr, nil
	}
	attr.ValuePos = val.Pos
	if val.Kind == lexer.AttrExpr {
		e, err := expr.Parse(val.Value, val.Pos)
		if err != nil {
			return Attr{}, err
		}
		attr.Expr = e
		return attr, nil
	}
	attr.Value = val.Value
	return attr, nil
}

// attrExpr returns the attribute's expression, parsing a static value
// as an expression when needed (key="item.id" and key={item.id} are
// equivalent).
func attrExpr(a Attr) (*expr.Expr, error) {
	if a.Expr != nil {
		return a.Expr, nil
	}
	return expr.Parse(a.Value, a.ValuePos)
}

// splitForSpec parses "item in items" or "item, i in items".
func splitForSpec(spec string) (item, index, iterable string, ok bool) {
	left, right, found := strings.Cut(spec, " in ")
	if !found {
		return "", "", "", false
	}
	iterable = strings.TrimSpace(right)
	if iterable == "" {
		return "", "", "", false
	}
	names := strings.Split(left, ",")
	if len(names) > 2 {
		return "", "", "", false
	}
	item = strings.TrimSpace(names[0])
	if !isIdent(item) {
		return "", "", "", false
	}
	if len(names) == 2 {
		index = strings.TrimSpace(names[1])
		if !isIdent(index) {
			return "", "", "", false
		}
	}
	return item, index, iterable, true
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

func isComponentName(tag string) bool {
	r, _ := utf8.DecodeRuneInString(tag)
	return unicode.IsUpper(r)
}

// assemble turns the flat sibling sequence into the final node list,
// wiring if/else-if/else chains into Conditional nodes and wrapping
// for elements in For nodes. Whitespace-only text between chain
// members is discarded; an else-if or else with no preceding chain
// member is an orphaned directive.
func assemble(items []rawItem) ([]Node, error) {
	var out []Node

	type openChain struct {
		branches []Branch
		lead     *elemInfo // the chain's if element, which may carry for
		closed   bool      // an else branch ends the chain
	}
	var chain *openChain
	var heldWS []Node

	flushChain := func() {
		if chain == nil {
			out = append(out, heldWS...)
			heldWS = nil
			return
		}
		var node Node = &Conditional{Branches: chain.branches, pos: chain.lead.pos}
		if chain.lead.hasFor {
			node = wrapFor(chain.lead, node)
		}
		out = append(out, node)
		out = append(out, heldWS...)
		heldWS = nil
		chain = nil
	}

	for _, item := range items {
		if item.node != nil {
			if t, ok := item.node.(*Text); ok && chain != nil && strings.TrimSpace(t.Content) == "" {
				heldWS = append(heldWS, item.node)
				continue
			}
			flushChain()
			out = append(out, item.node)
			continue
		}

		ei := item.elem
		if ei.elifExpr != nil || ei.isElse {
			kind := "else-if"
			if ei.isElse {
				kind = "else"
			}
			if chain == nil || chain.closed {
				return nil, syntaxErrorf(ei.pos, "%s has no preceding if or else-if sibling", kind)
			}
			if ei.hasFor {
				return nil, syntaxErrorf(ei.pos, "for is only allowed on the leading if branch of a chain")
			}
			heldWS = nil // whitespace between chain members is dropped
			chain.branches = append(chain.branches, Branch{Test: ei.elifExpr, Body: ei.node})
			if ei.isElse {
				chain.closed = true
			}
			continue
		}

		flushChain()
		if ei.ifExpr != nil {
			chain = &openChain{branches: []Branch{{Test: ei.ifExpr, Body: ei.node}}, lead: ei}
			continue
		}
		if ei.hasFor {
			out = append(out, wrapFor(ei, ei.node))
			continue
		}
		out = append(out, ei.node)
	}
	flushChain()
	return out, nil
}

func wrapFor(ei *elemInfo, body Node) Node {
	return &For{
		Item:     ei.forItem,
		Index:    ei.forIndex,
		Iterable: ei.iterable,
		Key:      ei.keyExpr,
		Body:     body,
		pos:      ei.pos,
	}
}

func syntaxErrorf(pos lexer.Position, format string, args ...interface{}) error {
	return &lexer.SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
