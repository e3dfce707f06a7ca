package dom

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// voidElements are HTML elements with no close tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// IsVoidElement reports whether tag is a void HTML element.
func IsVoidElement(tag string) bool {
	return voidElements[strings.ToLower(tag)]
}

// ParseFragment parses an HTML fragment into live-tree nodes, splitting
// style, data-* and aria-* attributes into their category maps.
func ParseFragment(fragment string) ([]*Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	parsed, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}

	var nodes []*Node
	for _, hn := range parsed {
		if n := fromHTMLNode(hn); n != nil {
			nodes = append(nodes, n)
		}
	}
	return nodes, nil
}

func fromHTMLNode(hn *html.Node) *Node {
	switch hn.Type {
	case html.TextNode:
		return NewText(hn.Data)
	case html.ElementNode:
		n := NewElement(hn.Data)
		for _, attr := range hn.Attr {
			switch {
			case attr.Key == "style":
				n.Style = ParseStyle(attr.Val)
			case strings.HasPrefix(attr.Key, "data-") && attr.Key != EventMarkerAttr:
				if n.Dataset == nil {
					n.Dataset = map[string]string{}
				}
				n.Dataset[strings.TrimPrefix(attr.Key, "data-")] = attr.Val
			case strings.HasPrefix(attr.Key, "aria-"):
				if n.Aria == nil {
					n.Aria = map[string]string{}
				}
				n.Aria[strings.TrimPrefix(attr.Key, "aria-")] = attr.Val
			default:
				n.SetAttr(attr.Key, attr.Val)
			}
		}
		for kid := hn.FirstChild; kid != nil; kid = kid.NextSibling {
			if c := fromHTMLNode(kid); c != nil {
				n.AppendChild(c)
			}
		}
		return n
	}
	return nil
}

// ParseStyle splits an inline CSS declaration list into a property
// map. Declarations without a colon are dropped. Returns nil for an
// empty result so callers can treat absence and emptiness alike.
func ParseStyle(css string) map[string]string {
	style := map[string]string{}
	for _, decl := range strings.Split(css, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		style[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	if len(style) == 0 {
		return nil
	}
	return style
}

// Render writes the node's subtree as HTML. Attribute keys are written
// in sorted order within each category so output is deterministic.
func (n *Node) Render(w io.Writer) error {
	switch n.Type {
	case TextNode:
		_, err := io.WriteString(w, html.EscapeString(n.Text))
		return err
	case ElementNode:
		if _, err := io.WriteString(w, "<"+n.Tag); err != nil {
			return err
		}
		if err := n.renderAttrs(w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, ">"); err != nil {
			return err
		}
		if IsVoidElement(n.Tag) {
			return nil
		}
		for _, kid := range n.kids {
			if err := kid.Render(w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</"+n.Tag+">")
		return err
	}
	return nil
}

func (n *Node) renderAttrs(w io.Writer) error {
	writeAttr := func(key, val string) error {
		_, err := fmt.Fprintf(w, ` %s="%s"`, key, html.EscapeString(val))
		return err
	}

	for _, key := range sortedKeys(n.Attrs) {
		if err := writeAttr(key, n.Attrs[key]); err != nil {
			return err
		}
	}
	if len(n.Style) > 0 {
		var decls []string
		for _, key := range sortedKeys(n.Style) {
			decls = append(decls, key+": "+n.Style[key])
		}
		if err := writeAttr("style", strings.Join(decls, "; ")); err != nil {
			return err
		}
	}
	for _, key := range sortedKeys(n.Dataset) {
		if err := writeAttr("data-"+key, n.Dataset[key]); err != nil {
			return err
		}
	}
	for _, key := range sortedKeys(n.Aria) {
		if err := writeAttr("aria-"+key, n.Aria[key]); err != nil {
			return err
		}
	}
	if events := n.BoundEvents(); len(events) > 0 {
		if err := writeAttr(EventMarkerAttr, strings.Join(events, " ")); err != nil {
			return err
		}
	}
	return nil
}

// String renders the subtree to an HTML string.
func (n *Node) String() string {
	var sb strings.Builder
	_ = n.Render(&sb)
	return sb.String()
}

func sortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
