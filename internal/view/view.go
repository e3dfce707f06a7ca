// Package view defines the view description: the structural,
// classified output of a render routine for one update cycle. A
// description is produced fresh per render, diffed against the previous
// cycle's description by the executor, then discarded.
package view

import (
	"fmt"

	"github.com/weftui/weft/internal/dom"
)

// Kind classifies a description node. The executor replaces a subtree
// wholesale whenever kinds differ; it never diffs across kinds.
type Kind int

const (
	// Element describes a live element node with categorized
	// attributes and an ordered sequence of child slots.
	Element Kind = iota
	// Text describes a live text node.
	Text
	// List describes a keyed sequence of entries occupying a range of
	// sibling positions in the live parent.
	List
	// Component wraps another component's rendered content.
	Component
	// Static wraps a subtree with no dynamic content. The generator
	// returns the same *Desc pointer on every render, so the executor
	// compares static subtrees by identity and never descends into
	// them once realized.
	Static
)

func (k Kind) String() string {
	switch k {
	case Element:
		return "element"
	case Text:
		return "text"
	case List:
		return "list"
	case Component:
		return "component"
	case Static:
		return "static"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// AttrSet holds an element's attributes by category. Scalar categories
// (class, id, for and plain passthrough) live in Plain under their
// attribute names; the object-valued categories are diffed key by key
// at patch time, never replaced wholesale.
type AttrSet struct {
	Plain   map[string]string
	Style   map[string]string
	Dataset map[string]string
	Aria    map[string]string
	Events  map[string]dom.Handler
}

// Entry is one keyed item of a List description.
type Entry struct {
	Key  string
	Body *Desc
}

// Desc is one view description node.
//
// Children is the ordered sequence of child slots for Element kinds; a
// nil slot is a conditional whose branches all tested false and
// occupies no live position. For Component and Static kinds Children
// holds exactly one entry: the wrapped content.
//
// Branch is zero for nodes outside a conditional chain; for a realized
// conditional branch it holds the 1-based branch index, so the executor
// treats a branch switch as a subtree replace even when both branches
// share a tag.
type Desc struct {
	Kind     Kind
	Tag      string
	Text     string
	Attrs    *AttrSet
	Children []*Desc
	Entries  []Entry
	Name     string // component name, for Component kinds
	Branch   int
}

// Occupancy reports how many live sibling positions the description
// occupies in its parent. A nil description (absent conditional slot)
// occupies none; a list occupies one per entry.
func Occupancy(d *Desc) int {
	if d == nil {
		return 0
	}
	switch d.Kind {
	case List:
		n := 0
		for _, e := range d.Entries {
			n += Occupancy(e.Body)
		}
		return n
	case Component, Static:
		return Occupancy(d.Children[0])
	}
	return 1
}
