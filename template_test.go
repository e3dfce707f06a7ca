package weft

import (
	"errors"
	"testing"
)

func TestCompile_RenderMap(t *testing.T) {
	tmpl, err := Compile(`<p>hello, {name}</p>`)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	got, err := tmpl.Render(Scope{"name": "weft"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if want := `<p>hello, weft</p>`; got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestCompile_RenderStruct(t *testing.T) {
	type profile struct {
		Name  string `json:"name"`
		Count int
	}
	tmpl, err := Compile(`<p>{name} has {Count}</p>`)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	got, err := tmpl.Render(profile{Name: "ada", Count: 3})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if want := `<p>ada has 3</p>`; got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}

	// A pointer binds the same way.
	got, err = tmpl.Render(&profile{Name: "ada", Count: 3})
	if err != nil {
		t.Fatalf("Render(ptr) error = %v", err)
	}
	if want := `<p>ada has 3</p>`; got != want {
		t.Errorf("Render(ptr) = %q, want %q", got, want)
	}
}

func TestCompile_Minify(t *testing.T) {
	source := "<div>\n  <p>hi</p>\n</div>"
	plain, err := Compile(source)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	minified, err := Compile(source, WithMinify())
	if err != nil {
		t.Fatalf("Compile(WithMinify) error = %v", err)
	}

	plainOut, err := plain.Render(nil)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	minOut, err := minified.Render(nil)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if minOut != "<div><p>hi</p></div>" {
		t.Errorf("minified render = %q", minOut)
	}
	if plainOut == minOut {
		t.Error("plain render unexpectedly matches minified render; whitespace was lost without WithMinify")
	}
}

func TestCompile_SyntaxError(t *testing.T) {
	_, err := Compile(`<div><p>oops</div>`)
	var serr *SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v, want *SyntaxError", err)
	}
	if serr.Pos.Line == 0 {
		t.Error("syntax error carries no position")
	}
}

func TestRender_BindingError(t *testing.T) {
	tmpl, err := Compile(`<p>{missing}</p>`)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	_, err = tmpl.Render(nil)
	var berr *BindingError
	if !errors.As(err, &berr) {
		t.Fatalf("error = %v, want *BindingError", err)
	}
}
