// Package weft is a compiled-template UI component framework. A
// template compiles once into a render routine; each update renders a
// fresh view description and the executor patches the live tree with
// the minimal set of mutations, time-sliced against a scheduler.
package weft

import (
	"reflect"
	"strings"
	"time"

	"github.com/weftui/weft/internal/dom"
	"github.com/weftui/weft/internal/executor"
	"github.com/weftui/weft/internal/expr"
	"github.com/weftui/weft/internal/gen"
	"github.com/weftui/weft/internal/lexer"
	"github.com/weftui/weft/internal/parser"
	"github.com/weftui/weft/internal/view"
)

// Scope is the data bound to a render: identifier name to value.
type Scope map[string]interface{}

// Template is a compiled template. Compiling is the expensive step;
// a Template is immutable and safe to render from many goroutines,
// each against its own live tree.
type Template struct {
	source  string
	routine gen.Routine
}

type compileConfig struct {
	minify   bool
	registry *Registry
}

// Option configures Compile.
type Option func(*compileConfig)

// WithMinify strips insignificant whitespace from the template source
// before lexing.
func WithMinify() Option {
	return func(c *compileConfig) { c.minify = true }
}

// WithRegistry resolves capitalized component tags through the given
// registry. Templates without component references don't need one.
func WithRegistry(r *Registry) Option {
	return func(c *compileConfig) { c.registry = r }
}

// Compile lexes, parses and lowers a template into a Template. All
// expression and structure errors surface here as SyntaxError; nothing
// is evaluated yet.
func Compile(source string, opts ...Option) (*Template, error) {
	var cfg compileConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.minify {
		source = minifySource(source)
	}

	tokens, err := lexer.Lex(source)
	if err != nil {
		return nil, err
	}
	ast, err := parser.Parse(tokens)
	if err != nil {
		return nil, err
	}

	var genOpts gen.Options
	if cfg.registry != nil {
		genOpts.Resolve = cfg.registry.resolve
	}
	routine, err := gen.Generate(ast, genOpts)
	if err != nil {
		return nil, err
	}
	return &Template{source: source, routine: routine}, nil
}

// Source returns the compiled source, after minification if enabled.
func (t *Template) Source() string { return t.source }

// Render realizes the template against data as a fresh live tree and
// returns its HTML. data may be a Scope, any map, or a struct whose
// exported fields become bindings (json tag names respected).
func (t *Template) Render(data interface{}) (string, error) {
	root := dom.NewElement("body")
	ex := &executor.Executor{}
	var walkErr error
	err := ex.Execute(executor.FlagCreate, time.Time{}, root, nil, t.routine,
		expr.NewScope(bindScope(data)),
		func(_ *dom.Node, _ *view.Desc, err error) { walkErr = err })
	if err != nil {
		return "", err
	}
	if walkErr != nil {
		return "", walkErr
	}
	var sb strings.Builder
	for _, kid := range root.Children() {
		sb.WriteString(kid.String())
	}
	return sb.String(), nil
}

// bindScope coerces arbitrary render data into a binding map, the way
// callers expect to pass either a map or a plain struct.
func bindScope(data interface{}) map[string]interface{} {
	switch m := data.(type) {
	case nil:
		return nil
	case Scope:
		return m
	case map[string]interface{}:
		return m
	}

	vars := make(map[string]interface{})
	val := reflect.ValueOf(data)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}
	if val.Kind() == reflect.Map {
		for _, key := range val.MapKeys() {
			if key.Kind() == reflect.String {
				vars[key.String()] = val.MapIndex(key).Interface()
			}
		}
		return vars
	}
	if val.Kind() != reflect.Struct {
		return vars
	}
	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if tag := field.Tag.Get("json"); tag != "" && tag != "-" {
			if comma := strings.Index(tag, ","); comma > 0 {
				name = tag[:comma]
			} else if !strings.Contains(tag, ",") {
				name = tag
			}
		}
		vars[name] = val.Field(i).Interface()
		vars[field.Name] = val.Field(i).Interface()
	}
	return vars
}
