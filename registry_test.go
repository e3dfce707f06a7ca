package weft

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type badge struct{}

func (badge) Template() string { return `<span class="badge">{label}</span>` }
func (badge) Data() Scope      { return Scope{"label": "?"} }

type twoRoots struct{}

func (twoRoots) Template() string { return `<i>a</i><i>b</i>` }
func (twoRoots) Data() Scope      { return nil }

func TestRegistry_RegisterAndNames(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("Badge", func() Component { return badge{} }); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := reg.Register("Alert", func() Component { return badge{} }); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := reg.Register("Badge", func() Component { return badge{} }); err == nil {
		t.Error("duplicate Register() succeeded, want error")
	}
	if err := reg.Register("", nil); err == nil {
		t.Error("empty Register() succeeded, want error")
	}

	if diff := cmp.Diff([]string{"Alert", "Badge"}, reg.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}

	if _, ok := reg.Lookup("Badge"); !ok {
		t.Error("Lookup() missed a registered component")
	}
	if _, ok := reg.Lookup("Nope"); ok {
		t.Error("Lookup() found an unregistered component")
	}
}

func TestRegistry_ResolveComponent(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("Badge", func() Component { return badge{} }); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tmpl, err := Compile(`<div><Badge label={text}/></div>`, WithRegistry(reg))
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	got, err := tmpl.Render(Scope{"text": "new"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if want := `<div><span class="badge">new</span></div>`; got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestRegistry_ComponentDataIsFallback(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("Badge", func() Component { return badge{} }); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// No label prop: the component's own Data supplies it.
	tmpl, err := Compile(`<Badge/>`, WithRegistry(reg))
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	got, err := tmpl.Render(nil)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(got, ">?<") {
		t.Errorf("Render() = %q, want the component's default label", got)
	}
}

func TestRegistry_UnregisteredComponent(t *testing.T) {
	tmpl, err := Compile(`<Badge/>`, WithRegistry(NewRegistry()))
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if _, err := tmpl.Render(nil); err == nil {
		t.Error("rendering an unregistered component succeeded, want error")
	}
}

func TestRegistry_MultiRootComponent(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("Two", func() Component { return twoRoots{} }); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	tmpl, err := Compile(`<Two/>`, WithRegistry(reg))
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if _, err := tmpl.Render(nil); err == nil {
		t.Error("multi-root component rendered, want error")
	}
}
