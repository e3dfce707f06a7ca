// Package executor is the incremental diff/patch engine. Given the
// previous and next view descriptions and a live root node, it walks
// both trees in step and applies the minimal set of live-tree
// mutations, yielding to the host scheduler whenever the slice budget
// runs out. The walk keeps its position in an explicit frame stack, so
// a resumed slice continues exactly where the previous one stopped.
package executor

import (
	"fmt"
	"time"

	"github.com/weftui/weft/internal/dom"
	"github.com/weftui/weft/internal/expr"
	"github.com/weftui/weft/internal/gen"
	"github.com/weftui/weft/internal/metrics"
	"github.com/weftui/weft/internal/view"
)

// Flag selects the pass an Execute call performs. Exactly one flag
// must be set; the set below is closed.
type Flag int

const (
	// FlagCreate is the first realization: there is no previous
	// description and the whole new description is built under the
	// root.
	FlagCreate Flag = 1 << iota
	// FlagUpdate is an incremental pass diffing the previous
	// description against a freshly rendered one.
	FlagUpdate
	// FlagDestroy is the teardown pass: the render routine is not
	// invoked, every child of the root is detached and every stored
	// event binding is released.
	FlagDestroy
)

// StructuralMismatch signals a violated executor invariant, such as a
// list entry without a key or a slot count changing between cycles of
// the same routine. It indicates a programming defect and is not
// user-recoverable.
type StructuralMismatch struct {
	Msg string
}

func (e *StructuralMismatch) Error() string {
	return "structural mismatch: " + e.Msg
}

func structuralf(format string, args ...interface{}) error {
	return &StructuralMismatch{Msg: fmt.Sprintf(format, args...)}
}

// OnComplete is invoked exactly once when a walk finishes. On success
// next is the description the walk realized, which the caller retains
// as the baseline for its next update; on failure err carries the
// cause and the live tree may be left partially patched.
type OnComplete func(root *dom.Node, next *view.Desc, err error)

// Executor runs diff/patch walks. The zero value runs synchronously
// without metrics; all fields are optional.
type Executor struct {
	Sched   Scheduler
	Metrics *metrics.Collector
	Sink    OpFunc
}

// Execute performs one pass over the live tree under root.
//
// prev is the description realized by the previous cycle (nil for the
// create pass). The routine is invoked once, before any mutation, to
// produce the next description; if it fails the error is returned
// synchronously, no mutation happens and onComplete is not called.
// Walk errors after the first slice are delivered through onComplete.
func (e *Executor) Execute(flags Flag, start time.Time, root *dom.Node, prev *view.Desc, routine gen.Routine, scope *expr.Scope, onComplete OnComplete) error {
	sched := e.Sched
	if sched == nil {
		sched = SyncScheduler{}
	}
	if start.IsZero() {
		start = sched.Now()
	}

	var oldKids, newKids []*view.Desc
	var next *view.Desc

	switch flags {
	case FlagCreate:
		if prev != nil {
			return structuralf("create pass given a previous description")
		}
		d, err := routine(scope)
		if err != nil {
			return err
		}
		next = d
		newKids = d.Children
		oldKids = make([]*view.Desc, len(newKids))
	case FlagUpdate:
		if prev == nil {
			return structuralf("update pass without a previous description")
		}
		d, err := routine(scope)
		if err != nil {
			return err
		}
		next = d
		newKids = d.Children
		oldKids = prev.Children
		if len(oldKids) != len(newKids) {
			return structuralf("root slot count changed from %d to %d between cycles", len(oldKids), len(newKids))
		}
	case FlagDestroy:
		if prev == nil {
			// Nothing was realized through the executor; detach
			// whatever the root holds.
			w := &walk{ex: e, sched: sched, root: root}
			for root.ChildAt(0) != nil {
				w.removeNode(root.ChildAt(0))
			}
			e.Metrics.IncrementWalkCompleted()
			onComplete(root, nil, nil)
			return nil
		}
		oldKids = prev.Children
		newKids = make([]*view.Desc, len(oldKids))
	default:
		return structuralf("flags %#x: exactly one of create, update or destroy must be set", int(flags))
	}

	w := &walk{
		ex:         e,
		sched:      sched,
		root:       root,
		next:       next,
		start:      start,
		onComplete: onComplete,
	}
	w.stack = []*frame{{parent: root, oldKids: oldKids, newKids: newKids}}
	w.run()
	return nil
}

// frame is one suspended sibling iteration: the next slot i of parent,
// whose content begins at live child index cursor.
type frame struct {
	parent  *dom.Node
	oldKids []*view.Desc
	newKids []*view.Desc
	i       int
	cursor  int
}

// walk is the resumable state of one Execute call.
type walk struct {
	ex         *Executor
	sched      Scheduler
	root       *dom.Node
	next       *view.Desc
	stack      []*frame
	start      time.Time
	onComplete OnComplete
	done       bool
}

// run processes steps until the stack drains or the slice budget
// expires. Suspension happens only between sibling steps; a single
// node's mutations always complete within one slice.
func (w *walk) run() {
	for len(w.stack) > 0 {
		if w.sched.Expired(w.start) {
			w.ex.Metrics.IncrementSliceYielded()
			w.sched.Yield(func() {
				w.start = w.sched.Now()
				w.run()
			})
			return
		}

		f := w.stack[len(w.stack)-1]
		if f.i >= len(f.newKids) {
			w.stack = w.stack[:len(w.stack)-1]
			continue
		}
		old, next := f.oldKids[f.i], f.newKids[f.i]
		at := f.cursor
		f.i++
		occ, err := w.patch(f.parent, old, next, at)
		if err != nil {
			w.finish(err)
			return
		}
		f.cursor += occ
	}
	w.ex.Metrics.IncrementWalkCompleted()
	w.finish(nil)
}

func (w *walk) finish(err error) {
	if w.done {
		return
	}
	w.done = true
	if err != nil {
		w.onComplete(w.root, nil, err)
		return
	}
	w.onComplete(w.root, w.next, nil)
}

// patch reconciles one slot of parent at live index at and returns the
// slot's new occupancy. Descents into element children, component
// content and reused list entries are deferred onto the frame stack.
func (w *walk) patch(parent *dom.Node, old, next *view.Desc, at int) (int, error) {
	switch {
	case old == nil && next == nil:
		return 0, nil
	case old == nil:
		return w.build(parent, next, at)
	case next == nil:
		w.removeRange(parent, at, view.Occupancy(old))
		return 0, nil
	}

	if needsReplace(old, next) {
		w.removeRange(parent, at, view.Occupancy(old))
		return w.build(parent, next, at)
	}

	switch next.Kind {
	case view.Static:
		// Identical pointer; never descended into once realized.
		return 1, nil

	case view.Text:
		node := parent.ChildAt(at)
		if node == nil || node.Type != dom.TextNode {
			return 0, structuralf("expected live text node at %d under <%s>", at, parent.Tag)
		}
		if node.Text != next.Text {
			w.setText(node, next.Text)
		}
		return 1, nil

	case view.Element:
		node := parent.ChildAt(at)
		if node == nil || node.Type != dom.ElementNode || node.Tag != next.Tag {
			return 0, structuralf("expected live <%s> at %d under <%s>", next.Tag, at, parent.Tag)
		}
		if len(old.Children) != len(next.Children) {
			return 0, structuralf("<%s> slot count changed from %d to %d between cycles", next.Tag, len(old.Children), len(next.Children))
		}
		if err := w.diffAttrs(node, old.Attrs, next.Attrs); err != nil {
			return 0, err
		}
		w.stack = append(w.stack, &frame{parent: node, oldKids: old.Children, newKids: next.Children})
		return 1, nil

	case view.List:
		return w.patchList(parent, old, next, at)

	case view.Component:
		w.stack = append(w.stack, &frame{
			parent:  parent,
			oldKids: []*view.Desc{old.Children[0]},
			newKids: []*view.Desc{next.Children[0]},
			cursor:  at,
		})
		return view.Occupancy(next), nil
	}
	return 0, structuralf("unknown description kind %v", next.Kind)
}

// needsReplace implements the cross-kind policy: differing
// classification, element tag, component name, conditional branch or
// static identity all replace the subtree wholesale.
func needsReplace(old, next *view.Desc) bool {
	if old.Kind != next.Kind || old.Branch != next.Branch {
		return true
	}
	switch next.Kind {
	case view.Element:
		return old.Tag != next.Tag
	case view.Component:
		return old.Name != next.Name
	case view.Static:
		return old != next
	}
	return false
}

// build realizes a description as fresh live nodes inserted at
// position at, returning the occupancy inserted.
func (w *walk) build(parent *dom.Node, d *view.Desc, at int) (int, error) {
	if d == nil {
		return 0, nil
	}
	switch d.Kind {
	case view.Static, view.Component:
		return w.build(parent, d.Children[0], at)
	case view.List:
		total := 0
		for i, e := range d.Entries {
			if e.Key == "" {
				return 0, structuralf("list entry %d has no key", i)
			}
			occ, err := w.build(parent, e.Body, at+total)
			if err != nil {
				return 0, err
			}
			total += occ
		}
		return total, nil
	}

	node, err := w.construct(d)
	if err != nil {
		return 0, err
	}
	parent.InsertChildAt(at, node)
	w.ex.Metrics.IncrementNodeCreated()
	w.emitCreate(parent, node, at)
	return 1, nil
}

// construct materializes one description subtree as a detached node.
func (w *walk) construct(d *view.Desc) (*dom.Node, error) {
	switch d.Kind {
	case view.Text:
		return dom.NewText(d.Text), nil

	case view.Element:
		node := dom.NewElement(d.Tag)
		w.applyAttrs(node, d.Attrs)
		for _, kid := range d.Children {
			if kid == nil {
				continue
			}
			switch kid.Kind {
			case view.Static, view.Component:
				inner, err := w.construct(kid.Children[0])
				if err != nil {
					return nil, err
				}
				node.AppendChild(inner)
			case view.List:
				for i, e := range kid.Entries {
					if e.Key == "" {
						return nil, structuralf("list entry %d has no key", i)
					}
					if e.Body == nil {
						continue
					}
					entry, err := w.construct(bodyOf(e.Body))
					if err != nil {
						return nil, err
					}
					node.AppendChild(entry)
				}
			default:
				inner, err := w.construct(kid)
				if err != nil {
					return nil, err
				}
				node.AppendChild(inner)
			}
		}
		return node, nil
	}
	return nil, structuralf("cannot construct description kind %v", d.Kind)
}

// bodyOf unwraps static and component wrappers down to the concrete
// content description.
func bodyOf(d *view.Desc) *view.Desc {
	for d.Kind == view.Static || d.Kind == view.Component {
		d = d.Children[0]
	}
	return d
}

func (w *walk) applyAttrs(node *dom.Node, attrs *view.AttrSet) {
	if attrs == nil {
		return
	}
	for k, v := range attrs.Plain {
		node.SetAttr(k, v)
	}
	node.Style = copyMap(attrs.Style)
	node.Dataset = copyMap(attrs.Dataset)
	node.Aria = copyMap(attrs.Aria)
	for ev, h := range attrs.Events {
		node.Bind(ev, h)
		w.ex.Metrics.IncrementHandlerBound()
	}
}

func copyMap(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
