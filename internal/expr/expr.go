// Package expr implements the embedded expression language used in
// template interpolations, directive tests and event bindings.
//
// Expressions are parsed once at compile time and evaluated against a
// data-binding scope on every render. Parse failures are syntax errors;
// evaluation failures (unknown binding, bad operand type) are binding
// errors.
package expr

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/weftui/weft/internal/lexer"
)

// BindingError reports an expression that referenced an undefined
// binding or applied an operator to an unsupported operand.
type BindingError struct {
	Pos lexer.Position
	Msg string
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("template:%s: %s", e.Pos, e.Msg)
}

func bindingErrorf(pos lexer.Position, format string, args ...interface{}) *BindingError {
	return &BindingError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

type op int

const (
	opLit op = iota
	opIdent
	opField // left.name
	opIndex // left[right]
	opNot
	opNeg
	opMul
	opDiv
	opMod
	opAdd
	opSub
	opLt
	opLe
	opGt
	opGe
	opEq
	opNe
	opAnd
	opOr
)

// Expr is a parsed expression tree.
type Expr struct {
	op          op
	lit         interface{}
	name        string
	left, right *Expr
	pos         lexer.Position
}

// Source reconstructs an approximate source form, used in error text.
func (e *Expr) Source() string {
	switch e.op {
	case opLit:
		return fmt.Sprintf("%v", e.lit)
	case opIdent:
		return e.name
	case opField:
		return e.left.Source() + "." + e.name
	case opIndex:
		return e.left.Source() + "[" + e.right.Source() + "]"
	default:
		return "(expression)"
	}
}

// Scope is a chain of data-binding frames. Loop bindings live in child
// frames and shadow outer names.
type Scope struct {
	vars   map[string]interface{}
	parent *Scope
}

// NewScope creates a root scope over the given bindings.
func NewScope(vars map[string]interface{}) *Scope {
	if vars == nil {
		vars = map[string]interface{}{}
	}
	return &Scope{vars: vars}
}

// Child creates a nested scope whose bindings shadow the receiver's.
func (s *Scope) Child(vars map[string]interface{}) *Scope {
	return &Scope{vars: vars, parent: s}
}

// Lookup resolves a name, innermost frame first.
func (s *Scope) Lookup(name string) (interface{}, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Eval evaluates the expression against the scope.
func (e *Expr) Eval(s *Scope) (interface{}, error) {
	switch e.op {
	case opLit:
		return e.lit, nil
	case opIdent:
		v, ok := s.Lookup(e.name)
		if !ok {
			return nil, bindingErrorf(e.pos, "undefined binding %q", e.name)
		}
		return v, nil
	case opField:
		base, err := e.left.Eval(s)
		if err != nil {
			return nil, err
		}
		return fieldOf(e.pos, base, e.name)
	case opIndex:
		base, err := e.left.Eval(s)
		if err != nil {
			return nil, err
		}
		idx, err := e.right.Eval(s)
		if err != nil {
			return nil, err
		}
		return indexOf(e.pos, base, idx)
	case opNot:
		v, err := e.left.Eval(s)
		if err != nil {
			return nil, err
		}
		b, ok := v.(bool)
		if !ok {
			return nil, bindingErrorf(e.pos, "operand of ! is %T, want bool", v)
		}
		return !b, nil
	case opNeg:
		v, err := e.left.Eval(s)
		if err != nil {
			return nil, err
		}
		switch n := normalize(v).(type) {
		case int64:
			return -n, nil
		case float64:
			return -n, nil
		}
		return nil, bindingErrorf(e.pos, "operand of - is %T, want number", v)
	case opAnd, opOr:
		l, err := e.left.Eval(s)
		if err != nil {
			return nil, err
		}
		lb, ok := l.(bool)
		if !ok {
			return nil, bindingErrorf(e.pos, "left operand of logical operator is %T, want bool", l)
		}
		// Short-circuit.
		if e.op == opAnd && !lb {
			return false, nil
		}
		if e.op == opOr && lb {
			return true, nil
		}
		r, err := e.right.Eval(s)
		if err != nil {
			return nil, err
		}
		rb, ok := r.(bool)
		if !ok {
			return nil, bindingErrorf(e.pos, "right operand of logical operator is %T, want bool", r)
		}
		return rb, nil
	}
	return e.evalBinary(s)
}

func (e *Expr) evalBinary(s *Scope) (interface{}, error) {
	l, err := e.left.Eval(s)
	if err != nil {
		return nil, err
	}
	r, err := e.right.Eval(s)
	if err != nil {
		return nil, err
	}

	switch e.op {
	case opEq:
		return equal(l, r), nil
	case opNe:
		return !equal(l, r), nil
	}

	// String concatenation.
	if e.op == opAdd {
		if ls, ok := l.(string); ok {
			if rs, ok := r.(string); ok {
				return ls + rs, nil
			}
		}
	}

	ln, lok := normalize(l).(int64)
	rn, rok := normalize(r).(int64)
	if lok && rok {
		switch e.op {
		case opMul:
			return ln * rn, nil
		case opDiv:
			if rn == 0 {
				return nil, bindingErrorf(e.pos, "division by zero")
			}
			return ln / rn, nil
		case opMod:
			if rn == 0 {
				return nil, bindingErrorf(e.pos, "division by zero")
			}
			return ln % rn, nil
		case opAdd:
			return ln + rn, nil
		case opSub:
			return ln - rn, nil
		case opLt:
			return ln < rn, nil
		case opLe:
			return ln <= rn, nil
		case opGt:
			return ln > rn, nil
		case opGe:
			return ln >= rn, nil
		}
	}

	lf, lok := toFloat(l)
	rf, rok := toFloat(r)
	if !lok || !rok {
		return nil, bindingErrorf(e.pos, "operands are %T and %T, want numbers", l, r)
	}
	switch e.op {
	case opMul:
		return lf * rf, nil
	case opDiv:
		return lf / rf, nil
	case opMod:
		return nil, bindingErrorf(e.pos, "operands of %% must be integers")
	case opAdd:
		return lf + rf, nil
	case opSub:
		return lf - rf, nil
	case opLt:
		return lf < rf, nil
	case opLe:
		return lf <= rf, nil
	case opGt:
		return lf > rf, nil
	case opGe:
		return lf >= rf, nil
	}
	return nil, bindingErrorf(e.pos, "unsupported operator")
}

// EvalBool evaluates the expression and requires a bool result, as
// needed by conditional directive tests.
func (e *Expr) EvalBool(s *Scope) (bool, error) {
	v, err := e.Eval(s)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, bindingErrorf(e.pos, "condition %s is %T, want bool", e.Source(), v)
	}
	return b, nil
}

// normalize widens integer kinds to int64 so arithmetic has a single
// integer representation.
func normalize(v interface{}) interface{} {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case uint:
		return int64(n)
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		return int64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	}
	return v
}

func toFloat(v interface{}) (float64, bool) {
	switch n := normalize(v).(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func equal(l, r interface{}) bool {
	ln, lok := toFloat(l)
	rn, rok := toFloat(r)
	if lok && rok {
		return ln == rn
	}
	return reflect.DeepEqual(l, r)
}

func fieldOf(pos lexer.Position, base interface{}, name string) (interface{}, error) {
	if base == nil {
		return nil, bindingErrorf(pos, "field %q of nil value", name)
	}
	v := reflect.ValueOf(base)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, bindingErrorf(pos, "field %q of nil pointer", name)
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Map:
		mv := v.MapIndex(reflect.ValueOf(name))
		if !mv.IsValid() {
			return nil, bindingErrorf(pos, "undefined key %q", name)
		}
		return mv.Interface(), nil
	case reflect.Struct:
		fv := v.FieldByName(name)
		if !fv.IsValid() || !fv.CanInterface() {
			return nil, bindingErrorf(pos, "undefined field %q on %s", name, v.Type())
		}
		return fv.Interface(), nil
	}
	return nil, bindingErrorf(pos, "field %q of %T", name, base)
}

func indexOf(pos lexer.Position, base, idx interface{}) (interface{}, error) {
	v := reflect.ValueOf(base)
	switch v.Kind() {
	case reflect.Slice, reflect.Array, reflect.String:
		n, ok := normalize(idx).(int64)
		if !ok {
			return nil, bindingErrorf(pos, "index is %T, want integer", idx)
		}
		if n < 0 || n >= int64(v.Len()) {
			return nil, bindingErrorf(pos, "index %d out of range (length %d)", n, v.Len())
		}
		return v.Index(int(n)).Interface(), nil
	case reflect.Map:
		mv := v.MapIndex(reflect.ValueOf(idx))
		if !mv.IsValid() {
			return nil, bindingErrorf(pos, "undefined key %v", idx)
		}
		return mv.Interface(), nil
	}
	return nil, bindingErrorf(pos, "cannot index %T", base)
}

// Iterate walks an iterable value in order, calling fn with each
// element. Slices and arrays iterate by position; map iteration is not
// supported because it has no stable order to key a list by.
func Iterate(pos lexer.Position, v interface{}, fn func(i int, elem interface{}) error) error {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := fn(i, rv.Index(i).Interface()); err != nil {
				return err
			}
		}
		return nil
	}
	return bindingErrorf(pos, "cannot iterate %T", v)
}

// Stringify renders an evaluated value for text content.
func Stringify(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	}
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return fmt.Sprintf("%v", v)
}

// StringMap coerces an object-valued attribute result (style, dataset,
// aria) to a string-keyed map.
func StringMap(pos lexer.Position, v interface{}) (map[string]string, error) {
	switch m := v.(type) {
	case map[string]string:
		return m, nil
	case map[string]interface{}:
		out := make(map[string]string, len(m))
		for k, val := range m {
			out[k] = Stringify(val)
		}
		return out, nil
	}
	return nil, bindingErrorf(pos, "object-valued attribute is %T, want map", v)
}
