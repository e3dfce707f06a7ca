package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/weftui/weft/internal/lexer"
)

func mustParse(t *testing.T, source string) *AST {
	t.Helper()
	tokens, err := lexer.Lex(source)
	if err != nil {
		t.Fatalf("Lex() error = %v", err)
	}
	ast, err := Parse(tokens)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return ast
}

// nonWhitespace filters whitespace-only text roots, which templates
// written across lines always contain.
func nonWhitespace(nodes []Node) []Node {
	var out []Node
	for _, n := range nodes {
		if t, ok := n.(*Text); ok && strings.TrimSpace(t.Content) == "" {
			continue
		}
		out = append(out, n)
	}
	return out
}

func TestParse_ElementTree(t *testing.T) {
	ast := mustParse(t, `<div class="box"><p>hello {name}</p><br/></div>`)

	if len(ast.Roots) != 1 {
		t.Fatalf("root count = %d, want 1", len(ast.Roots))
	}
	div, ok := ast.Roots[0].(*Element)
	if !ok {
		t.Fatalf("root = %T, want *Element", ast.Roots[0])
	}
	if div.Tag != "div" || len(div.Attrs) != 1 || div.Attrs[0].Name != "class" {
		t.Errorf("unexpected element: tag=%q attrs=%v", div.Tag, div.Attrs)
	}
	if len(div.Children) != 2 {
		t.Fatalf("div child count = %d, want 2", len(div.Children))
	}

	p, ok := div.Children[0].(*Element)
	if !ok || p.Tag != "p" {
		t.Fatalf("first child = %T, want <p>", div.Children[0])
	}
	if len(p.Children) != 2 {
		t.Fatalf("p child count = %d, want text + interpolation", len(p.Children))
	}
	if _, ok := p.Children[0].(*Text); !ok {
		t.Errorf("p first child = %T, want *Text", p.Children[0])
	}
	if _, ok := p.Children[1].(*Interp); !ok {
		t.Errorf("p second child = %T, want *Interp", p.Children[1])
	}

	br, ok := div.Children[1].(*Element)
	if !ok || br.Tag != "br" || len(br.Children) != 0 {
		t.Errorf("second child = %v, want empty <br>", div.Children[1])
	}
}

func TestParse_ForWrapsElement(t *testing.T) {
	ast := mustParse(t, `<li for="item, i in items" key={item.id} class="row">{item.name}</li>`)

	loop, ok := ast.Roots[0].(*For)
	if !ok {
		t.Fatalf("root = %T, want *For", ast.Roots[0])
	}
	if loop.Item != "item" || loop.Index != "i" {
		t.Errorf("bindings = (%q, %q), want (item, i)", loop.Item, loop.Index)
	}
	if loop.Key == nil {
		t.Error("key expression not captured")
	}

	li, ok := loop.Body.(*Element)
	if !ok || li.Tag != "li" {
		t.Fatalf("loop body = %T, want <li>", loop.Body)
	}
	for _, a := range li.Attrs {
		if a.Name == "key" || a.Name == "for" {
			t.Errorf("directive attribute %q leaked into element attrs", a.Name)
		}
	}
}

func TestParse_LabelForIsPlainAttribute(t *testing.T) {
	ast := mustParse(t, `<label for="email">Email</label>`)

	label, ok := ast.Roots[0].(*Element)
	if !ok {
		t.Fatalf("root = %T, want *Element (not a loop)", ast.Roots[0])
	}
	if len(label.Attrs) != 1 || label.Attrs[0].Name != "for" || label.Attrs[0].Value != "email" {
		t.Errorf("attrs = %v, want plain for=email", label.Attrs)
	}
}

func TestParse_ConditionalChain(t *testing.T) {
	ast := mustParse(t, `
		<p if="n == 1">one</p>
		<p else-if="n == 2">two</p>
		<p else>many</p>
	`)

	roots := nonWhitespace(ast.Roots)
	if len(roots) != 1 {
		t.Fatalf("root count = %d, want one conditional chain", len(roots))
	}
	cond, ok := roots[0].(*Conditional)
	if !ok {
		t.Fatalf("root = %T, want *Conditional", roots[0])
	}
	if len(cond.Branches) != 3 {
		t.Fatalf("branch count = %d, want 3", len(cond.Branches))
	}
	if cond.Branches[0].Test == nil || cond.Branches[1].Test == nil {
		t.Error("if and else-if branches must carry tests")
	}
	if cond.Branches[2].Test != nil {
		t.Error("else branch must have nil test")
	}
}

func TestParse_ForWithConditionalChain(t *testing.T) {
	ast := mustParse(t, `
		<li for="item in items" if="item % 2 == 0">even</li>
		<li else>odd</li>
	`)

	roots := nonWhitespace(ast.Roots)
	if len(roots) != 1 {
		t.Fatalf("root count = %d, want 1", len(roots))
	}
	loop, ok := roots[0].(*For)
	if !ok {
		t.Fatalf("root = %T, want *For wrapping the chain", roots[0])
	}
	cond, ok := loop.Body.(*Conditional)
	if !ok {
		t.Fatalf("loop body = %T, want *Conditional", loop.Body)
	}
	if len(cond.Branches) != 2 {
		t.Errorf("branch count = %d, want 2", len(cond.Branches))
	}
}

func TestParse_Component(t *testing.T) {
	ast := mustParse(t, `<TodoItem label="Buy milk" count={n}/>`)

	comp, ok := ast.Roots[0].(*Component)
	if !ok {
		t.Fatalf("root = %T, want *Component", ast.Roots[0])
	}
	if comp.Name != "TodoItem" || len(comp.Props) != 2 {
		t.Errorf("component = %q props = %d, want TodoItem with 2 props", comp.Name, len(comp.Props))
	}
	if comp.Props[0].Expr != nil {
		t.Error("static prop parsed as expression")
	}
	if comp.Props[1].Expr == nil {
		t.Error("interpolated prop missing expression")
	}
}

func TestParse_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{name: "mismatched close tag", source: `<div><p>text</div>`},
		{name: "unclosed element", source: `<div><p>text</p>`},
		{name: "orphaned else", source: `<p>first</p><p else>second</p>`},
		{name: "orphaned else-if", source: `<p else-if="x">second</p>`},
		{name: "else-if after else", source: `<p if="a">1</p><p else>2</p><p else-if="b">3</p>`},
		{name: "chain broken by element", source: `<p if="a">1</p><span>x</span><p else>2</p>`},
		{name: "chain broken by text", source: `<p if="a">1</p>gap<p else>2</p>`},
		{name: "if without test", source: `<p if>1</p>`},
		{name: "else with value", source: `<p if="a">1</p><p else="b">2</p>`},
		{name: "for on else branch", source: `<p if="a">1</p><p else for="x in xs">2</p>`},
		{name: "bad test expression", source: `<p if="1 +">1</p>`},
		{name: "component with children", source: `<Widget><p>inner</p></Widget>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := lexer.Lex(tt.source)
			if err != nil {
				t.Fatalf("Lex() error = %v", err)
			}
			_, err = Parse(tokens)
			if err == nil {
				t.Fatal("Parse() expected error, got nil")
			}
			var serr *lexer.SyntaxError
			if !errors.As(err, &serr) {
				t.Errorf("Parse() error = %T, want *lexer.SyntaxError", err)
			}
		})
	}
}

func TestParse_WhitespaceBetweenChainMembersIgnored(t *testing.T) {
	ast := mustParse(t, "<p if=\"a\">1</p>\n\t <p else>2</p>")

	roots := nonWhitespace(ast.Roots)
	if len(roots) != 1 {
		t.Fatalf("root count = %d, want 1", len(roots))
	}
	if _, ok := roots[0].(*Conditional); !ok {
		t.Errorf("root = %T, want *Conditional", roots[0])
	}
}
