package weft

import (
	"fmt"

	"github.com/weftui/weft/internal/dom"
	"github.com/weftui/weft/internal/executor"
)

// Mount compiles a component's template, binds an instance to root and
// runs the create pass. With an asynchronous scheduler Mount returns
// once the first slice has run; the remaining slices complete on the
// scheduler.
func Mount(reg *Registry, comp Component, root *dom.Node, sched executor.Scheduler, opts ...InstanceOption) (*Instance, error) {
	var compileOpts []Option
	if reg != nil {
		compileOpts = append(compileOpts, WithRegistry(reg))
	}
	tmpl, err := Compile(comp.Template(), compileOpts...)
	if err != nil {
		return nil, fmt.Errorf("mount: %w", err)
	}

	if sched != nil {
		opts = append([]InstanceOption{WithScheduler(sched)}, opts...)
	}
	inst := NewInstance(tmpl, comp, root, opts...)

	errCh := make(chan error, 1)
	inst.Create(func(err error) { errCh <- err })
	select {
	case err := <-errCh:
		if err != nil {
			return nil, fmt.Errorf("mount: %w", err)
		}
	default:
		// Still walking on the scheduler.
	}
	return inst, nil
}
