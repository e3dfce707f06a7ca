package expr

import (
	"errors"
	"testing"

	"github.com/weftui/weft/internal/lexer"
)

func mustParse(t *testing.T, src string) *Expr {
	t.Helper()
	e, err := Parse(src, lexer.Position{Line: 1, Column: 1})
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", src, err)
	}
	return e
}

func TestExpr_Eval(t *testing.T) {
	scope := NewScope(map[string]interface{}{
		"n":     7,
		"name":  "weft",
		"ok":    true,
		"items": []int{10, 20, 30},
		"user":  map[string]interface{}{"age": 41, "tags": []string{"a", "b"}},
	})

	tests := []struct {
		src  string
		want interface{}
	}{
		{"3", int64(3)},
		{"3 + 4 * 2", int64(11)},
		{"(3 + 4) * 2", int64(14)},
		{"n % 2", int64(1)},
		{"n % 2 == 0", false},
		{"n % 7 == 0", true},
		{"-n + 10", int64(3)},
		{"n > 5 && n < 10", true},
		{"!ok || n == 7", true},
		{"name + \"-ui\"", "weft-ui"},
		{"'a' == 'a'", true},
		{"items[1]", 20},
		{"user.age", 41},
		{"user.tags[0]", "a"},
		{"items[n % 3]", 20},
		{"1.5 + 1", 2.5},
		{"true", true},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := mustParse(t, tt.src).Eval(scope)
			if err != nil {
				t.Fatalf("Eval() error = %v", err)
			}
			if !equal(got, tt.want) {
				t.Errorf("Eval(%q) = %v (%T), want %v (%T)", tt.src, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestExpr_Shadowing(t *testing.T) {
	outer := NewScope(map[string]interface{}{"x": 1, "y": 2})
	inner := outer.Child(map[string]interface{}{"x": 10})

	got, err := mustParse(t, "x + y").Eval(inner)
	if err != nil {
		t.Fatalf("Eval() error = %v", err)
	}
	if got != int64(12) {
		t.Errorf("Eval(x + y) in child scope = %v, want 12", got)
	}
}

func TestExpr_BindingErrors(t *testing.T) {
	scope := NewScope(map[string]interface{}{
		"n":    5,
		"ok":   true,
		"user": map[string]interface{}{"age": 1},
	})

	tests := []string{
		"missing",
		"user.missing",
		"n && ok",
		"!n",
		"n + ok",
		"n / 0",
		"n % 0",
		"user[0]",
		"n.field",
	}

	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			_, err := mustParse(t, src).Eval(scope)
			if err == nil {
				t.Fatalf("Eval(%q) expected error, got nil", src)
			}
			var berr *BindingError
			if !errors.As(err, &berr) {
				t.Errorf("Eval(%q) error = %T, want *BindingError", src, err)
			}
		})
	}
}

func TestParse_SyntaxErrors(t *testing.T) {
	tests := []string{
		"",
		"1 +",
		"(1 + 2",
		"a[1",
		"a.",
		"1 @ 2",
		"'unterminated",
	}

	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			_, err := Parse(src, lexer.Position{Line: 1, Column: 1})
			if err == nil {
				t.Fatalf("Parse(%q) expected error, got nil", src)
			}
			var serr *lexer.SyntaxError
			if !errors.As(err, &serr) {
				t.Errorf("Parse(%q) error = %T, want *lexer.SyntaxError", src, err)
			}
		})
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
	}{
		{nil, ""},
		{"s", "s"},
		{int64(5), "5"},
		{2.5, "2.5"},
		{true, "true"},
	}
	for _, tt := range tests {
		if got := Stringify(tt.in); got != tt.want {
			t.Errorf("Stringify(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
