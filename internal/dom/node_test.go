package dom

import (
	"strings"
	"testing"
)

func TestNode_TreeOperations(t *testing.T) {
	parent := NewElement("ul")
	a := NewElement("li")
	b := NewElement("li")
	c := NewElement("li")

	parent.AppendChild(a)
	parent.AppendChild(c)
	parent.InsertChildAt(1, b)

	if got := len(parent.Children()); got != 3 {
		t.Fatalf("child count = %d, want 3", got)
	}
	if parent.ChildAt(1) != b {
		t.Errorf("ChildAt(1) = %v, want inserted node", parent.ChildAt(1))
	}
	if b.Index() != 1 {
		t.Errorf("Index() = %d, want 1", b.Index())
	}

	// Moving an attached node re-parents it.
	other := NewElement("ol")
	other.AppendChild(b)
	if b.Parent() != other {
		t.Error("moved node did not re-parent")
	}
	if got := len(parent.Children()); got != 2 {
		t.Errorf("child count after move = %d, want 2", got)
	}

	removed := parent.RemoveChildAt(0)
	if removed != a || a.Parent() != nil {
		t.Error("RemoveChildAt did not detach the first child")
	}
	if parent.RemoveChildAt(5) != nil {
		t.Error("RemoveChildAt out of range should return nil")
	}
}

func TestNode_Handlers(t *testing.T) {
	n := NewElement("button")

	fired := 0
	n.Bind("click", func(Event) { fired++ })

	if !n.Dispatch("click", nil) {
		t.Fatal("Dispatch() = false, want handler to fire")
	}
	if fired != 1 {
		t.Fatalf("handler fired %d times, want 1", fired)
	}
	if n.Dispatch("focus", nil) {
		t.Error("Dispatch() fired for unbound event")
	}

	// Rebinding replaces, it does not stack.
	n.Bind("click", func(Event) { fired += 10 })
	n.Dispatch("click", nil)
	if fired != 11 {
		t.Errorf("after rebind, fired = %d, want 11", fired)
	}

	n.Unbind("click")
	if n.Dispatch("click", nil) {
		t.Error("Dispatch() fired after Unbind")
	}
}

func TestNode_RenderMarkerAndCategories(t *testing.T) {
	n := NewElement("div")
	n.SetAttr("class", "box")
	n.Style = map[string]string{"color": "red"}
	n.Dataset = map[string]string{"id": "7"}
	n.Aria = map[string]string{"label": "box"}
	n.Bind("click", func(Event) {})
	n.AppendChild(NewText("hi & bye"))

	got := n.String()
	want := `<div class="box" style="color: red" data-id="7" aria-label="box" data-weft-on="click">hi &amp; bye</div>`
	if got != want {
		t.Errorf("Render() = %s, want %s", got, want)
	}
}

func TestParseFragment_RoundTrip(t *testing.T) {
	src := `<div class="box" style="color: red" data-id="7" aria-label="box"><p>one</p>two</div>`

	nodes, err := ParseFragment(src)
	if err != nil {
		t.Fatalf("ParseFragment() error = %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("ParseFragment() returned %d roots, want 1", len(nodes))
	}

	div := nodes[0]
	if div.Style["color"] != "red" {
		t.Errorf("style not split into category map: %v", div.Style)
	}
	if div.Dataset["id"] != "7" {
		t.Errorf("dataset not split into category map: %v", div.Dataset)
	}
	if div.Aria["label"] != "box" {
		t.Errorf("aria not split into category map: %v", div.Aria)
	}

	if got := div.String(); got != src {
		t.Errorf("round trip = %s, want %s", got, src)
	}
}

func TestNode_TextContent(t *testing.T) {
	nodes, err := ParseFragment(`<div><p>a</p><span>b<i>c</i></span></div>`)
	if err != nil {
		t.Fatalf("ParseFragment() error = %v", err)
	}
	if got := nodes[0].TextContent(); got != "abc" {
		t.Errorf("TextContent() = %q, want %q", got, "abc")
	}
}

func TestIsVoidElement(t *testing.T) {
	if !IsVoidElement("br") || !IsVoidElement("IMG") {
		t.Error("void elements not recognized")
	}
	if IsVoidElement("div") {
		t.Error("div misclassified as void")
	}
	if strings.Contains(NewElement("br").String(), "</br>") {
		t.Error("void element rendered with close tag")
	}
}
