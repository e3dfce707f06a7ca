package weft

import (
	"fmt"
	"sort"
	"sync"

	"github.com/weftui/weft/internal/expr"
	"github.com/weftui/weft/internal/gen"
	"github.com/weftui/weft/internal/lexer"
	"github.com/weftui/weft/internal/parser"
	"github.com/weftui/weft/internal/view"
)

// Constructor builds a fresh component value. The registry calls it
// once per resolved reference, so component state is never shared
// between the places a component is used.
type Constructor func() Component

// Registry maps component names to constructors. It is an explicit
// object, never a package global; two applications in one process get
// two independent registries.
//
// Safe for concurrent use. Registration normally happens at startup,
// lookup happens on every render of a template that references
// components.
type Registry struct {
	mu       sync.RWMutex
	comps    map[string]Constructor
	routines map[string]gen.Routine
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		comps:    make(map[string]Constructor),
		routines: make(map[string]gen.Routine),
	}
}

// Register adds a component constructor under name. Registering the
// same name twice is an error; replacing a component silently is a
// debugging hazard.
func (r *Registry) Register(name string, ctor Constructor) error {
	if name == "" || ctor == nil {
		return fmt.Errorf("register component: name and constructor are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.comps[name]; dup {
		return fmt.Errorf("register component: %q is already registered", name)
	}
	r.comps[name] = ctor
	return nil
}

// Lookup returns the constructor registered under name.
func (r *Registry) Lookup(name string) (Constructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctor, ok := r.comps[name]
	return ctor, ok
}

// Names returns the registered component names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.comps))
	for name := range r.comps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// resolve renders a referenced component's content: the component's
// own data forms the base scope and the reference's props shadow it.
// The component template must realize exactly one root.
func (r *Registry) resolve(name string, props map[string]interface{}) (*view.Desc, error) {
	ctor, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("component %q is not registered", name)
	}
	routine, err := r.routineFor(name, ctor)
	if err != nil {
		return nil, err
	}

	scope := expr.NewScope(bindScope(ctor().Data())).Child(props)
	d, err := routine(scope)
	if err != nil {
		return nil, fmt.Errorf("render component %q: %w", name, err)
	}

	var root *view.Desc
	for _, kid := range d.Children {
		if kid == nil {
			continue
		}
		if root != nil {
			return nil, fmt.Errorf("component %q realized more than one root", name)
		}
		root = kid
	}
	if root == nil {
		return nil, fmt.Errorf("component %q realized no root", name)
	}
	return root, nil
}

// routineFor compiles a component's template once and caches it.
func (r *Registry) routineFor(name string, ctor Constructor) (gen.Routine, error) {
	r.mu.RLock()
	routine, ok := r.routines[name]
	r.mu.RUnlock()
	if ok {
		return routine, nil
	}

	tokens, err := lexer.Lex(ctor().Template())
	if err != nil {
		return nil, fmt.Errorf("compile component %q: %w", name, err)
	}
	ast, err := parser.Parse(tokens)
	if err != nil {
		return nil, fmt.Errorf("compile component %q: %w", name, err)
	}
	routine, err = gen.Generate(ast, gen.Options{Resolve: r.resolve})
	if err != nil {
		return nil, fmt.Errorf("compile component %q: %w", name, err)
	}

	r.mu.Lock()
	r.routines[name] = routine
	r.mu.Unlock()
	return routine, nil
}
