// Package dom provides the live document tree that the executor
// patches. Nodes are externally owned, mutable shared state; the
// executor is their sole mutator for the duration of a patch walk.
package dom

import "sort"

// NodeType distinguishes element nodes from text nodes.
type NodeType int

const (
	ElementNode NodeType = iota
	TextNode
)

// EventMarkerAttr is the attribute emitted on serialized elements that
// carry event bindings, so a rendered document reveals which events a
// later update may rebind or release.
const EventMarkerAttr = "data-weft-on"

// Event is delivered to a bound handler when an event is dispatched on
// a node.
type Event struct {
	Type    string
	Target  *Node
	Payload interface{}
}

// Handler reacts to an event dispatched on a node.
type Handler func(Event)

// Node is one node of a live tree.
//
// Attribute maps are lazily allocated; a nil map reads as empty. The
// Attrs map holds scalar attributes (class, id, for and plain
// passthrough entries); Style, Dataset and Aria hold the object-valued
// categories that are diffed key by key.
type Node struct {
	Type    NodeType
	Tag     string // element nodes
	Text    string // text nodes
	Attrs   map[string]string
	Style   map[string]string
	Dataset map[string]string
	Aria    map[string]string

	parent   *Node
	kids     []*Node
	handlers map[string]Handler
}

// NewElement creates a detached element node.
func NewElement(tag string) *Node {
	return &Node{Type: ElementNode, Tag: tag}
}

// NewText creates a detached text node.
func NewText(text string) *Node {
	return &Node{Type: TextNode, Text: text}
}

// Parent returns the node's parent, or nil for a detached root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the node's child slice. Callers must not mutate it
// directly; use the tree operations below.
func (n *Node) Children() []*Node { return n.kids }

// ChildAt returns the i-th child, or nil when out of range.
func (n *Node) ChildAt(i int) *Node {
	if i < 0 || i >= len(n.kids) {
		return nil
	}
	return n.kids[i]
}

// Index returns the node's position among its siblings, or -1 when
// detached.
func (n *Node) Index() int {
	if n.parent == nil {
		return -1
	}
	for i, kid := range n.parent.kids {
		if kid == n {
			return i
		}
	}
	return -1
}

// AppendChild attaches child as the last child of n. The child is
// detached from any previous parent first.
func (n *Node) AppendChild(child *Node) {
	child.Detach()
	child.parent = n
	n.kids = append(n.kids, child)
}

// InsertChildAt attaches child at position i, shifting later siblings
// right. i may equal the current child count (append).
func (n *Node) InsertChildAt(i int, child *Node) {
	child.Detach()
	if i < 0 {
		i = 0
	}
	if i >= len(n.kids) {
		n.AppendChild(child)
		return
	}
	child.parent = n
	n.kids = append(n.kids, nil)
	copy(n.kids[i+1:], n.kids[i:])
	n.kids[i] = child
}

// RemoveChildAt detaches and returns the i-th child, or nil when out
// of range.
func (n *Node) RemoveChildAt(i int) *Node {
	if i < 0 || i >= len(n.kids) {
		return nil
	}
	child := n.kids[i]
	copy(n.kids[i:], n.kids[i+1:])
	n.kids = n.kids[:len(n.kids)-1]
	child.parent = nil
	return child
}

// Detach removes the node from its parent, if any.
func (n *Node) Detach() {
	if n.parent == nil {
		return
	}
	if i := n.Index(); i >= 0 {
		n.parent.RemoveChildAt(i)
	}
}

// SetAttr sets a scalar attribute.
func (n *Node) SetAttr(name, value string) {
	if n.Attrs == nil {
		n.Attrs = map[string]string{}
	}
	n.Attrs[name] = value
}

// RemoveAttr deletes a scalar attribute.
func (n *Node) RemoveAttr(name string) {
	delete(n.Attrs, name)
}

// Bind stores a handler for an event type on this node. Binding
// replaces any previous handler for the same event; handlers for other
// events are untouched.
func (n *Node) Bind(event string, h Handler) {
	if n.handlers == nil {
		n.handlers = map[string]Handler{}
	}
	n.handlers[event] = h
}

// Unbind removes the handler for an event type.
func (n *Node) Unbind(event string) {
	delete(n.handlers, event)
}

// HandlerFor returns the bound handler for an event type.
func (n *Node) HandlerFor(event string) (Handler, bool) {
	h, ok := n.handlers[event]
	return h, ok
}

// BoundEvents returns the event types with a bound handler, in
// lexicographic order.
func (n *Node) BoundEvents() []string {
	if len(n.handlers) == 0 {
		return nil
	}
	events := make([]string, 0, len(n.handlers))
	for ev := range n.handlers {
		events = append(events, ev)
	}
	sort.Strings(events)
	return events
}

// ReleaseHandlers drops every handler bound on this node.
func (n *Node) ReleaseHandlers() {
	n.handlers = nil
}

// Dispatch fires the handler bound for the event type, if any, and
// reports whether a handler ran.
func (n *Node) Dispatch(event string, payload interface{}) bool {
	h, ok := n.handlers[event]
	if !ok {
		return false
	}
	h(Event{Type: event, Target: n, Payload: payload})
	return true
}

// TextContent concatenates the text of the node's subtree in document
// order.
func (n *Node) TextContent() string {
	if n.Type == TextNode {
		return n.Text
	}
	out := ""
	for _, kid := range n.kids {
		out += kid.TextContent()
	}
	return out
}
