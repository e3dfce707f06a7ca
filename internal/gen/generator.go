// Package gen lowers a parsed template into a render routine: a pure
// function from a data-binding scope to a view description. Lowering
// is a single pass; static subtrees are built once at generation time
// and reused by pointer across renders.
package gen

import (
	"fmt"
	"strings"

	"github.com/weftui/weft/internal/dom"
	"github.com/weftui/weft/internal/expr"
	"github.com/weftui/weft/internal/lexer"
	"github.com/weftui/weft/internal/parser"
	"github.com/weftui/weft/internal/view"
)

// Routine produces a fresh view description for the current scope. It
// never touches a live tree.
type Routine func(scope *expr.Scope) (*view.Desc, error)

// Resolver renders a referenced component's content from its props.
// It returns the single root description of that component's view.
type Resolver func(name string, props map[string]interface{}) (*view.Desc, error)

// Options configures generation.
type Options struct {
	// Resolve handles Component nodes. Templates without component
	// references may leave it nil.
	Resolve Resolver
}

// Generate lowers the AST into a render routine. The routine's result
// is always an Element description with an empty tag whose children
// are the template's root slots.
func Generate(ast *parser.AST, opts Options) (Routine, error) {
	g := &generator{resolve: opts.Resolve}
	emitters, err := g.lowerNodes(ast.Roots)
	if err != nil {
		return nil, err
	}
	return func(s *expr.Scope) (*view.Desc, error) {
		kids, err := emitAll(emitters, s)
		if err != nil {
			return nil, err
		}
		return &view.Desc{Kind: view.Element, Children: kids}, nil
	}, nil
}

// emitter produces one child slot's description; nil means the slot is
// absent this cycle (a conditional with no true branch).
type emitter func(s *expr.Scope) (*view.Desc, error)

type generator struct {
	resolve Resolver
}

func (g *generator) lowerNodes(nodes []parser.Node) ([]emitter, error) {
	emitters := make([]emitter, 0, len(nodes))
	for _, n := range nodes {
		e, err := g.lower(n, 0)
		if err != nil {
			return nil, err
		}
		emitters = append(emitters, e)
	}
	return emitters, nil
}

func emitAll(emitters []emitter, s *expr.Scope) ([]*view.Desc, error) {
	kids := make([]*view.Desc, len(emitters))
	for i, e := range emitters {
		d, err := e(s)
		if err != nil {
			return nil, err
		}
		kids[i] = d
	}
	return kids, nil
}

// lower compiles one AST node. branch is the 1-based conditional
// branch index when the node is a chain body, zero otherwise; branch
// bodies are never hoisted because their description carries the
// branch mark.
func (g *generator) lower(node parser.Node, branch int) (emitter, error) {
	switch n := node.(type) {
	case *parser.Text:
		d := &view.Desc{Kind: view.Text, Text: n.Content}
		return func(*expr.Scope) (*view.Desc, error) { return d, nil }, nil

	case *parser.Interp:
		e := n.Expr
		return func(s *expr.Scope) (*view.Desc, error) {
			v, err := e.Eval(s)
			if err != nil {
				return nil, err
			}
			return &view.Desc{Kind: view.Text, Text: expr.Stringify(v)}, nil
		}, nil

	case *parser.Element:
		return g.lowerElement(n, branch)

	case *parser.For:
		return g.lowerFor(n)

	case *parser.Conditional:
		return g.lowerConditional(n)

	case *parser.Component:
		return g.lowerComponent(n, branch)
	}
	return nil, fmt.Errorf("unknown AST node %T", node)
}

func (g *generator) lowerElement(n *parser.Element, branch int) (emitter, error) {
	if branch == 0 && isStaticNode(n) {
		built, err := buildStatic(n)
		if err != nil {
			return nil, err
		}
		hoisted := &view.Desc{Kind: view.Static, Children: []*view.Desc{built}}
		return func(*expr.Scope) (*view.Desc, error) { return hoisted, nil }, nil
	}

	plan, err := planAttrs(n.Attrs)
	if err != nil {
		return nil, err
	}
	kids, err := g.lowerNodes(n.Children)
	if err != nil {
		return nil, err
	}
	tag := n.Tag

	return func(s *expr.Scope) (*view.Desc, error) {
		attrs, err := plan.emit(s)
		if err != nil {
			return nil, err
		}
		children, err := emitAll(kids, s)
		if err != nil {
			return nil, err
		}
		return &view.Desc{
			Kind:     view.Element,
			Tag:      tag,
			Attrs:    attrs,
			Children: children,
			Branch:   branch,
		}, nil
	}, nil
}

func (g *generator) lowerFor(n *parser.For) (emitter, error) {
	body, err := g.lower(n.Body, 0)
	if err != nil {
		return nil, err
	}
	item, index, keyExpr, iter, pos := n.Item, n.Index, n.Key, n.Iterable, n.Pos()

	return func(s *expr.Scope) (*view.Desc, error) {
		coll, err := iter.Eval(s)
		if err != nil {
			return nil, err
		}
		list := &view.Desc{Kind: view.List}
		err = expr.Iterate(pos, coll, func(i int, elem interface{}) error {
			vars := map[string]interface{}{item: elem}
			if index != "" {
				vars[index] = i
			}
			child := s.Child(vars)

			key := expr.Stringify(elem)
			if keyExpr != nil {
				kv, err := keyExpr.Eval(child)
				if err != nil {
					return err
				}
				key = expr.Stringify(kv)
			}

			d, err := body(child)
			if err != nil {
				return err
			}
			list.Entries = append(list.Entries, view.Entry{Key: key, Body: d})
			return nil
		})
		if err != nil {
			return nil, err
		}
		return list, nil
	}, nil
}

// lowerConditional lowers a chain to a single slot whose realized
// content is exactly one branch's body, or absent when no test holds.
// The slot's identity is the chain itself; the branch mark makes the
// executor replace the slot's content on a branch switch instead of
// diffing across branches.
func (g *generator) lowerConditional(n *parser.Conditional) (emitter, error) {
	type arm struct {
		test *expr.Expr
		body emitter
	}
	arms := make([]arm, 0, len(n.Branches))
	for i, b := range n.Branches {
		body, err := g.lower(b.Body, i+1)
		if err != nil {
			return nil, err
		}
		arms = append(arms, arm{test: b.Test, body: body})
	}

	return func(s *expr.Scope) (*view.Desc, error) {
		for _, a := range arms {
			if a.test != nil {
				ok, err := a.test.EvalBool(s)
				if err != nil {
					return nil, err
				}
				if !ok {
					continue
				}
			}
			return a.body(s)
		}
		return nil, nil // no branch realized; the slot is empty
	}, nil
}

func (g *generator) lowerComponent(n *parser.Component, branch int) (emitter, error) {
	if g.resolve == nil {
		return nil, syntaxErrorf(n.Pos(), "component <%s> used without a registry", n.Name)
	}
	type prop struct {
		name   string
		static string
		expr   *expr.Expr
	}
	props := make([]prop, 0, len(n.Props))
	for _, p := range n.Props {
		props = append(props, prop{name: p.Name, static: p.Value, expr: p.Expr})
	}
	name, resolve := n.Name, g.resolve

	return func(s *expr.Scope) (*view.Desc, error) {
		vals := make(map[string]interface{}, len(props))
		for _, p := range props {
			if p.expr == nil {
				vals[p.name] = p.static
				continue
			}
			v, err := p.expr.Eval(s)
			if err != nil {
				return nil, err
			}
			vals[p.name] = v
		}
		content, err := resolve(name, vals)
		if err != nil {
			return nil, err
		}
		return &view.Desc{
			Kind:     view.Component,
			Name:     name,
			Children: []*view.Desc{content},
			Branch:   branch,
		}, nil
	}, nil
}

// isStaticNode reports whether the subtree has no interpolation,
// directives or component references and can be hoisted.
func isStaticNode(node parser.Node) bool {
	switch n := node.(type) {
	case *parser.Text:
		return true
	case *parser.Element:
		for _, a := range n.Attrs {
			if a.Expr != nil || strings.HasPrefix(a.Name, "on:") {
				return false
			}
		}
		for _, c := range n.Children {
			if !isStaticNode(c) {
				return false
			}
		}
		return true
	}
	return false
}

// buildStatic constructs the description of a hoisted subtree once.
func buildStatic(node parser.Node) (*view.Desc, error) {
	switch n := node.(type) {
	case *parser.Text:
		return &view.Desc{Kind: view.Text, Text: n.Content}, nil
	case *parser.Element:
		plan, err := planAttrs(n.Attrs)
		if err != nil {
			return nil, err
		}
		attrs, err := plan.emit(nil) // static plans never consult the scope
		if err != nil {
			return nil, err
		}
		d := &view.Desc{Kind: view.Element, Tag: n.Tag, Attrs: attrs}
		for _, c := range n.Children {
			kid, err := buildStatic(c)
			if err != nil {
				return nil, err
			}
			d.Children = append(d.Children, kid)
		}
		return d, nil
	}
	return nil, fmt.Errorf("subtree %T is not static", node)
}

func syntaxErrorf(pos lexer.Position, format string, args ...interface{}) error {
	return &lexer.SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// adaptHandler coerces an evaluated event-binding value to a handler.
func adaptHandler(pos lexer.Position, event string, v interface{}) (dom.Handler, error) {
	switch h := v.(type) {
	case dom.Handler:
		return h, nil
	case func(dom.Event):
		return dom.Handler(h), nil
	case func():
		return func(dom.Event) { h() }, nil
	}
	return nil, &expr.BindingError{Pos: pos, Msg: fmt.Sprintf("on:%s binding is %T, want a callable handler", event, v)}
}
