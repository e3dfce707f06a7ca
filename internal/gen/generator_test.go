package gen

import (
	"errors"
	"testing"

	"github.com/weftui/weft/internal/dom"
	"github.com/weftui/weft/internal/expr"
	"github.com/weftui/weft/internal/lexer"
	"github.com/weftui/weft/internal/parser"
	"github.com/weftui/weft/internal/view"
)

func compile(t *testing.T, source string, opts Options) Routine {
	t.Helper()
	tokens, err := lexer.Lex(source)
	if err != nil {
		t.Fatalf("Lex() error = %v", err)
	}
	ast, err := parser.Parse(tokens)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	routine, err := Generate(ast, opts)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	return routine
}

func render(t *testing.T, routine Routine, vars map[string]interface{}) *view.Desc {
	t.Helper()
	d, err := routine(expr.NewScope(vars))
	if err != nil {
		t.Fatalf("routine error = %v", err)
	}
	return d
}

func TestGenerate_StaticHoisting(t *testing.T) {
	routine := compile(t, `<div class="box"><p>fixed</p></div>`, Options{})

	first := render(t, routine, nil)
	second := render(t, routine, nil)

	if first.Children[0].Kind != view.Static {
		t.Fatalf("static subtree classified as %v, want static", first.Children[0].Kind)
	}
	if first.Children[0] != second.Children[0] {
		t.Error("static subtree not reused by pointer across renders")
	}
}

func TestGenerate_DynamicSubtreeNotHoisted(t *testing.T) {
	routine := compile(t, `<div><p>{n}</p></div>`, Options{})

	d := render(t, routine, map[string]interface{}{"n": 1})
	div := d.Children[0]
	if div.Kind != view.Element {
		t.Fatalf("dynamic subtree classified as %v, want element", div.Kind)
	}
	if div.Children[0].Children[0].Text != "1" {
		t.Errorf("interpolation rendered %q, want %q", div.Children[0].Children[0].Text, "1")
	}
}

func TestGenerate_AttributeCategories(t *testing.T) {
	routine := compile(t,
		`<div class={cls} id="main" data-id={n} aria-label="box" style={st} dataset={ds}></div>`,
		Options{})

	d := render(t, routine, map[string]interface{}{
		"cls": "active",
		"n":   7,
		"st":  map[string]interface{}{"color": "red"},
		"ds":  map[string]interface{}{"group": "a"},
	})

	attrs := d.Children[0].Attrs
	if attrs.Plain["class"] != "active" || attrs.Plain["id"] != "main" {
		t.Errorf("plain category = %v", attrs.Plain)
	}
	if attrs.Dataset["id"] != "7" || attrs.Dataset["group"] != "a" {
		t.Errorf("dataset category = %v", attrs.Dataset)
	}
	if attrs.Aria["label"] != "box" {
		t.Errorf("aria category = %v", attrs.Aria)
	}
	if attrs.Style["color"] != "red" {
		t.Errorf("style category = %v", attrs.Style)
	}
}

func TestGenerate_StyleStringForms(t *testing.T) {
	static := compile(t, `<div style="color: red; margin: 0"></div>`, Options{})
	d := render(t, static, nil)
	if got := d.Children[0].Attrs.Style; got["color"] != "red" || got["margin"] != "0" {
		t.Errorf("static style = %v", got)
	}

	dynamic := compile(t, `<div style={s}></div>`, Options{})
	d = render(t, dynamic, map[string]interface{}{"s": "color: blue"})
	if got := d.Children[0].Attrs.Style; got["color"] != "blue" {
		t.Errorf("dynamic string style = %v", got)
	}
}

func TestGenerate_ListKeys(t *testing.T) {
	routine := compile(t, `<li for="item in items">{item}</li>`, Options{})

	d := render(t, routine, map[string]interface{}{"items": []int{5, 2, 9}})
	list := d.Children[0]
	if list.Kind != view.List {
		t.Fatalf("for lowered to %v, want list", list.Kind)
	}
	wantKeys := []string{"5", "2", "9"}
	for i, e := range list.Entries {
		if e.Key != wantKeys[i] {
			t.Errorf("entry %d key = %q, want %q (item value, not index)", i, e.Key, wantKeys[i])
		}
	}
}

func TestGenerate_ListKeyOverride(t *testing.T) {
	routine := compile(t, `<li for="item in items" key={item.id}>{item.name}</li>`, Options{})

	d := render(t, routine, map[string]interface{}{"items": []map[string]interface{}{
		{"id": "a1", "name": "first"},
		{"id": "b2", "name": "second"},
	}})
	list := d.Children[0]
	if list.Entries[0].Key != "a1" || list.Entries[1].Key != "b2" {
		t.Errorf("keys = [%q %q], want [a1 b2]", list.Entries[0].Key, list.Entries[1].Key)
	}
}

func TestGenerate_IndexBinding(t *testing.T) {
	routine := compile(t, `<li for="item, i in items">{i}:{item}</li>`, Options{})

	d := render(t, routine, map[string]interface{}{"items": []string{"x", "y"}})
	entry := d.Children[0].Entries[1].Body
	if got := entry.Children[0].Text + entry.Children[1].Text + entry.Children[2].Text; got != "1:y" {
		t.Errorf("second entry text = %q, want %q", got, "1:y")
	}
}

func TestGenerate_ConditionalExclusivity(t *testing.T) {
	routine := compile(t, `
		<p if="n == 1">one</p>
		<p else-if="n == 2">two</p>
		<p else>many</p>
	`, Options{})

	tests := []struct {
		n          int
		wantText   string
		wantBranch int
	}{
		{1, "one", 1},
		{2, "two", 2},
		{3, "many", 3},
	}
	for _, tt := range tests {
		d := render(t, routine, map[string]interface{}{"n": tt.n})
		var slot *view.Desc
		for _, c := range d.Children {
			if c != nil && c.Kind == view.Element {
				slot = c
			}
		}
		if slot == nil {
			t.Fatalf("n=%d: no branch realized", tt.n)
		}
		if slot.Branch != tt.wantBranch {
			t.Errorf("n=%d: branch mark = %d, want %d", tt.n, slot.Branch, tt.wantBranch)
		}
		if slot.Children[0].Text != tt.wantText {
			t.Errorf("n=%d: text = %q, want %q", tt.n, slot.Children[0].Text, tt.wantText)
		}
	}
}

func TestGenerate_ConditionalNoBranch(t *testing.T) {
	routine := compile(t, `<p if="n == 1">one</p>`, Options{})

	d := render(t, routine, map[string]interface{}{"n": 5})
	for _, c := range d.Children {
		if c != nil && c.Kind == view.Element {
			t.Error("slot realized although no branch test held")
		}
	}
}

func TestGenerate_EventBinding(t *testing.T) {
	routine := compile(t, `<button on:click={handle}>go</button>`, Options{})

	fired := false
	d := render(t, routine, map[string]interface{}{
		"handle": func(dom.Event) { fired = true },
	})
	h, ok := d.Children[0].Attrs.Events["click"]
	if !ok {
		t.Fatal("click handler missing from events category")
	}
	h(dom.Event{Type: "click"})
	if !fired {
		t.Error("adapted handler did not fire")
	}
}

func TestGenerate_EventBindingNotCallable(t *testing.T) {
	routine := compile(t, `<button on:click={handle}>go</button>`, Options{})

	_, err := routine(expr.NewScope(map[string]interface{}{"handle": 42}))
	if err == nil {
		t.Fatal("expected BindingError for non-callable handler")
	}
	var berr *expr.BindingError
	if !errors.As(err, &berr) {
		t.Errorf("error = %T, want *expr.BindingError", err)
	}
}

func TestGenerate_Component(t *testing.T) {
	resolver := func(name string, props map[string]interface{}) (*view.Desc, error) {
		return &view.Desc{Kind: view.Element, Tag: "span", Children: []*view.Desc{
			{Kind: view.Text, Text: expr.Stringify(props["label"])},
		}}, nil
	}
	routine := compile(t, `<Badge label={text}/>`, Options{Resolve: resolver})

	d := render(t, routine, map[string]interface{}{"text": "hi"})
	comp := d.Children[0]
	if comp.Kind != view.Component || comp.Name != "Badge" {
		t.Fatalf("component desc = %+v", comp)
	}
	if comp.Children[0].Children[0].Text != "hi" {
		t.Error("prop value did not reach component content")
	}
}

func TestGenerate_UndefinedBinding(t *testing.T) {
	routine := compile(t, `<p>{missing}</p>`, Options{})

	_, err := routine(expr.NewScope(nil))
	var berr *expr.BindingError
	if !errors.As(err, &berr) {
		t.Fatalf("error = %v, want *expr.BindingError", err)
	}
}
