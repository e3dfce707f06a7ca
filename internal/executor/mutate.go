package executor

import (
	"reflect"
	"sort"
	"strings"

	"github.com/weftui/weft/internal/dom"
	"github.com/weftui/weft/internal/view"
)

// removeRange detaches n consecutive children of parent starting at at.
func (w *walk) removeRange(parent *dom.Node, at, n int) {
	for j := 0; j < n; j++ {
		if node := parent.ChildAt(at); node != nil {
			w.removeNode(node)
		}
	}
}

// removeNode detaches node and releases every handler bound in its
// subtree, so a removed handler can never fire again.
func (w *walk) removeNode(node *dom.Node) {
	w.emit(func() Op {
		return Op{Kind: "remove", Path: w.pathOf(node.Parent()), Index: node.Index()}
	})
	node.Detach()
	w.dropHandlers(node)
	w.ex.Metrics.IncrementNodeRemoved()
}

func (w *walk) dropHandlers(node *dom.Node) {
	for range node.BoundEvents() {
		w.ex.Metrics.IncrementHandlerDropped()
	}
	node.ReleaseHandlers()
	for _, kid := range node.Children() {
		w.dropHandlers(kid)
	}
}

// setText replaces a text node's content.
func (w *walk) setText(node *dom.Node, text string) {
	node.Text = text
	w.ex.Metrics.IncrementTextUpdate()
	w.emit(func() Op {
		return Op{Kind: "text", Path: w.pathOf(node), Text: text}
	})
}

// moveNode repositions a reused child under parent.
func (w *walk) moveNode(parent, node *dom.Node, to int) {
	from := node.Index()
	node.Detach()
	parent.InsertChildAt(to, node)
	w.ex.Metrics.IncrementNodeMoved()
	w.emit(func() Op {
		return Op{Kind: "move", Path: w.pathOf(parent), Index: from, To: to}
	})
}

// diffAttrs reconciles every attribute category of a live element
// against the old and next description attribute sets. Events compare
// by handler code pointer, so re-rendering the same template with the
// same scope rebinds nothing.
func (w *walk) diffAttrs(node *dom.Node, old, next *view.AttrSet) error {
	var empty view.AttrSet
	if old == nil {
		old = &empty
	}
	if next == nil {
		next = &empty
	}

	for _, k := range sortedKeys(next.Plain) {
		if v := next.Plain[k]; old.Plain[k] != v || !hasKey(old.Plain, k) {
			node.SetAttr(k, v)
			w.ex.Metrics.IncrementAttrSet()
			w.emitAttr("attr-set", node, "plain", k, v)
		}
	}
	for _, k := range sortedKeys(old.Plain) {
		if !hasKey(next.Plain, k) {
			node.RemoveAttr(k)
			w.ex.Metrics.IncrementAttrRemoved()
			w.emitAttr("attr-remove", node, "plain", k, "")
		}
	}

	w.diffCategory(node, "style", &node.Style, old.Style, next.Style)
	w.diffCategory(node, "dataset", &node.Dataset, old.Dataset, next.Dataset)
	w.diffCategory(node, "aria", &node.Aria, old.Aria, next.Aria)

	changed := false
	for ev, h := range next.Events {
		prev, bound := old.Events[ev]
		if bound && handlerPtr(prev) == handlerPtr(h) {
			continue
		}
		node.Bind(ev, h)
		w.ex.Metrics.IncrementHandlerBound()
		changed = true
	}
	for ev := range old.Events {
		if _, keep := next.Events[ev]; !keep {
			node.Unbind(ev)
			w.ex.Metrics.IncrementHandlerDropped()
			changed = true
		}
	}
	if changed {
		w.emit(func() Op {
			return Op{Kind: "handlers", Path: w.pathOf(node), Events: strings.Join(node.BoundEvents(), " ")}
		})
	}
	return nil
}

// diffCategory patches one object-valued category map key by key.
func (w *walk) diffCategory(node *dom.Node, cat string, live *map[string]string, old, next map[string]string) {
	for _, k := range sortedKeys(next) {
		if v := next[k]; old[k] != v || !hasKey(old, k) {
			if *live == nil {
				*live = map[string]string{}
			}
			(*live)[k] = v
			w.ex.Metrics.IncrementAttrSet()
			w.emitAttr("attr-set", node, cat, k, v)
		}
	}
	for _, k := range sortedKeys(old) {
		if !hasKey(next, k) {
			delete(*live, k)
			w.ex.Metrics.IncrementAttrRemoved()
			w.emitAttr("attr-remove", node, cat, k, "")
		}
	}
}

// handlerPtr identifies a handler by its code pointer. Closures made
// by the same generator emitter share a code pointer across renders,
// which keeps an unchanged binding from counting as a mutation.
func handlerPtr(h dom.Handler) uintptr {
	if h == nil {
		return 0
	}
	return reflect.ValueOf(h).Pointer()
}

func hasKey(m map[string]string, k string) bool {
	_, ok := m[k]
	return ok
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

// emit runs the op builder only when a sink is installed; building an
// op walks parent chains, which is wasted work otherwise.
func (w *walk) emit(build func() Op) {
	if w.ex.Sink == nil {
		return
	}
	w.ex.Sink(build())
}

func (w *walk) emitAttr(kind string, node *dom.Node, cat, key, value string) {
	w.emit(func() Op {
		return Op{Kind: kind, Path: w.pathOf(node), Cat: cat, Key: key, Value: value}
	})
}

func (w *walk) emitCreate(parent, node *dom.Node, at int) {
	w.emit(func() Op {
		return Op{Kind: "create", Path: w.pathOf(parent), Index: at, HTML: node.String()}
	})
}

func (w *walk) pathOf(node *dom.Node) []int {
	path, ok := nodePath(w.root, node)
	if !ok {
		return nil
	}
	return path
}
