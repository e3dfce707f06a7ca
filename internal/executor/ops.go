package executor

import "github.com/weftui/weft/internal/dom"

// Op is one live-tree mutation in wire form. The sync server streams
// ops to remote tree mirrors in the order the executor applied them.
//
// Path addresses a node by child indexes from the patch root; for
// create, remove and move ops it addresses the parent and Index (plus
// To for moves) locates the child position.
type Op struct {
	Kind   string `json:"op"` // create, remove, move, text, attr-set, attr-remove, handlers
	Path   []int  `json:"path"`
	Index  int    `json:"index,omitempty"`
	To     int    `json:"to,omitempty"`
	HTML   string `json:"html,omitempty"`   // create: serialized subtree
	Text   string `json:"text,omitempty"`   // text: new content
	Cat    string `json:"cat,omitempty"`    // attr ops: plain, style, dataset, aria
	Key    string `json:"key,omitempty"`    // attr ops: attribute or category key
	Value  string `json:"value,omitempty"`  // attr-set: new value
	Events string `json:"events,omitempty"` // handlers: space-joined bound events
}

// OpFunc receives each mutation as it is applied. A nil OpFunc
// disables op collection entirely.
type OpFunc func(Op)

// nodePath returns the child-index path from root to n. It returns
// false when n is not under root, which only happens for nodes already
// detached by the current walk.
func nodePath(root, n *dom.Node) ([]int, bool) {
	var rev []int
	for cur := n; cur != root; cur = cur.Parent() {
		if cur == nil {
			return nil, false
		}
		idx := cur.Index()
		if idx < 0 {
			return nil, false
		}
		rev = append(rev, idx)
	}
	path := make([]int, len(rev))
	for i, idx := range rev {
		path[len(rev)-1-i] = idx
	}
	return path, true
}
