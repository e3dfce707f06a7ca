package executor

import (
	"github.com/weftui/weft/internal/dom"
	"github.com/weftui/weft/internal/view"
)

// oldEntry is the snapshot of one previous list entry: its realized
// node, if the entry occupied a position, taken before any mutation
// shifts sibling indexes.
type oldEntry struct {
	body *view.Desc
	node *dom.Node
}

// patchList reconciles a keyed list in place and returns the list's
// new occupancy.
//
// The reconcile is shallow: entries are matched by key, unmatched old
// nodes are removed, matched nodes are moved only when their live
// position differs from the target cursor, and the content diff of
// each matched pair is deferred to the frame stack. Every entry must
// occupy at most one position, which keeps the position arithmetic
// independent of deferred content work.
func (w *walk) patchList(parent *dom.Node, old, next *view.Desc, at int) (int, error) {
	index := make(map[string]*oldEntry, len(old.Entries))
	snapshot := make([]*oldEntry, len(old.Entries))
	pos := at
	for i, e := range old.Entries {
		if e.Key == "" {
			return 0, structuralf("list entry %d has no key", i)
		}
		occ := view.Occupancy(e.Body)
		if occ > 1 {
			return 0, structuralf("list entry %q occupies %d positions, want at most 1", e.Key, occ)
		}
		oe := &oldEntry{body: e.Body}
		if occ == 1 {
			oe.node = parent.ChildAt(pos)
			if oe.node == nil {
				return 0, structuralf("list entry %q has no live node at %d under <%s>", e.Key, pos, parent.Tag)
			}
		}
		pos += occ
		snapshot[i] = oe
		// Duplicate old key: only the first occurrence is reusable,
		// the rest always go.
		if index[e.Key] == nil {
			index[e.Key] = oe
		}
	}

	reused := make(map[string]bool, len(next.Entries))
	for i, e := range next.Entries {
		if e.Key == "" {
			return 0, structuralf("list entry %d has no key", i)
		}
		if occ := view.Occupancy(e.Body); occ > 1 {
			return 0, structuralf("list entry %q occupies %d positions, want at most 1", e.Key, occ)
		}
		if index[e.Key] != nil {
			reused[e.Key] = true
		}
	}
	for i, e := range old.Entries {
		oe := snapshot[i]
		if oe.node == nil {
			continue
		}
		if oe != index[e.Key] || !reused[e.Key] {
			w.removeNode(oe.node)
		}
	}

	// Walk the new order. Occupancy changes (creates, entry bodies
	// appearing or vanishing) happen here so every later cursor is
	// final; only same-position content diffs are deferred.
	cursor := at
	claimed := make(map[string]bool, len(next.Entries))
	for _, e := range next.Entries {
		var oe *oldEntry
		if reused[e.Key] && !claimed[e.Key] {
			oe = index[e.Key]
			claimed[e.Key] = true
		}
		switch {
		case oe == nil:
			occ, err := w.build(parent, e.Body, cursor)
			if err != nil {
				return 0, err
			}
			cursor += occ
		case oe.node == nil && e.Body == nil:
			// Entry stays unrealized.
		case oe.node == nil:
			occ, err := w.build(parent, e.Body, cursor)
			if err != nil {
				return 0, err
			}
			cursor += occ
		case e.Body == nil:
			w.removeNode(oe.node)
		default:
			if oe.node.Index() != cursor {
				w.moveNode(parent, oe.node, cursor)
			}
			w.stack = append(w.stack, &frame{
				parent:  parent,
				oldKids: []*view.Desc{oe.body},
				newKids: []*view.Desc{e.Body},
				cursor:  cursor,
			})
			cursor++
		}
	}
	return cursor - at, nil
}
