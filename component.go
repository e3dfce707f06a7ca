package weft

import (
	"fmt"
	"sync"
	"time"

	"github.com/weftui/weft/internal/dom"
	"github.com/weftui/weft/internal/executor"
	"github.com/weftui/weft/internal/expr"
	"github.com/weftui/weft/internal/metrics"
	"github.com/weftui/weft/internal/view"
)

// Component supplies a template and the data it binds against. A
// component value owns its own mutable state; action handlers mutate
// it between update passes.
type Component interface {
	// Template returns the component's markup source.
	Template() string
	// Data returns the current binding scope. Called once per render
	// pass, before any tree mutation.
	Data() Scope
}

// ActionDispatcher is an optional Component interface. The sync server
// routes client actions here before emitting them on the instance's
// emitter; a returned error is reported to the client without running
// an update pass.
type ActionDispatcher interface {
	HandleAction(action string, data map[string]interface{}) error
}

// Instance binds a component to a live tree and drives its lifecycle
// through the executor.
//
// Lifecycle calls are serialized: at most one walk is in flight per
// instance, and a call issued while one runs is queued and started
// from the running walk's completion. With an asynchronous scheduler
// the completion callbacks run on the scheduler's goroutine.
type Instance struct {
	comp    Component
	tmpl    *Template
	root    *dom.Node
	ex      *executor.Executor
	emitter *Emitter

	mu        sync.Mutex
	prev      *view.Desc
	running   bool
	inExecute bool
	completed bool
	pending   []lifecycleCall
}

type lifecycleCall struct {
	flag   executor.Flag
	onDone func(error)
}

// InstanceOption configures NewInstance.
type InstanceOption func(*Instance)

// WithScheduler sets the executor's slice scheduler. The default runs
// every walk in a single synchronous slice.
func WithScheduler(s executor.Scheduler) InstanceOption {
	return func(i *Instance) { i.ex.Sched = s }
}

// WithCollector wires a metrics collector into the instance's walks.
func WithCollector(c *metrics.Collector) InstanceOption {
	return func(i *Instance) { i.ex.Metrics = c }
}

// WithOpSink streams every applied patch operation to fn.
func WithOpSink(fn executor.OpFunc) InstanceOption {
	return func(i *Instance) { i.ex.Sink = fn }
}

// NewInstance binds a compiled template and its component to a live
// root. The root's existing children are untouched until Create runs.
func NewInstance(tmpl *Template, comp Component, root *dom.Node, opts ...InstanceOption) *Instance {
	inst := &Instance{
		comp:    comp,
		tmpl:    tmpl,
		root:    root,
		ex:      &executor.Executor{},
		emitter: NewEmitter(),
	}
	for _, opt := range opts {
		opt(inst)
	}
	return inst
}

// Root returns the instance's live root node.
func (i *Instance) Root() *dom.Node { return i.root }

// Component returns the bound component.
func (i *Instance) Component() Component { return i.comp }

// On subscribes to an application event on this instance.
func (i *Instance) On(event string, fn EventHandler) HandlerID {
	return i.emitter.On(event, fn)
}

// Off removes an event subscription.
func (i *Instance) Off(event string, id HandlerID) bool {
	return i.emitter.Off(event, id)
}

// Emit dispatches an application event to this instance's subscribers.
func (i *Instance) Emit(event string, payload interface{}) int {
	return i.emitter.Emit(event, payload)
}

// Dispatch routes a client action: the component's HandleAction first
// when implemented, then the instance's emitter. It does not run an
// update pass; callers follow up with Update once state has changed.
func (i *Instance) Dispatch(action string, data map[string]interface{}) error {
	if d, ok := i.comp.(ActionDispatcher); ok {
		if err := d.HandleAction(action, data); err != nil {
			return err
		}
	}
	i.emitter.Emit(action, data)
	return nil
}

// Create runs the first realization pass. onDone may be nil.
func (i *Instance) Create(onDone func(error)) {
	i.enqueue(executor.FlagCreate, onDone)
}

// Update re-renders the component and patches the live tree. onDone
// may be nil.
func (i *Instance) Update(onDone func(error)) {
	i.enqueue(executor.FlagUpdate, onDone)
}

// Destroy tears the live tree down and releases every handler. onDone
// may be nil. The instance can be recreated with Create afterwards.
func (i *Instance) Destroy(onDone func(error)) {
	i.enqueue(executor.FlagDestroy, onDone)
}

func (i *Instance) enqueue(flag executor.Flag, onDone func(error)) {
	if onDone == nil {
		onDone = func(error) {}
	}
	i.mu.Lock()
	i.pending = append(i.pending, lifecycleCall{flag: flag, onDone: onDone})
	if i.running {
		i.mu.Unlock()
		return
	}
	i.running = true
	i.mu.Unlock()
	i.next()
}

// next starts the head of the queue. Runs with i.running held true;
// clears it when the queue drains.
func (i *Instance) next() {
	for {
		i.mu.Lock()
		if len(i.pending) == 0 {
			i.running = false
			i.mu.Unlock()
			return
		}
		call := i.pending[0]
		i.pending = i.pending[1:]
		prev := i.prev
		i.mu.Unlock()

		if err := i.validTransition(call.flag, prev); err != nil {
			call.onDone(err)
			continue
		}

		i.mu.Lock()
		i.inExecute = true
		i.completed = false
		i.mu.Unlock()

		err := i.ex.Execute(call.flag, time.Time{}, i.root, prev, i.tmpl.routine,
			expr.NewScope(bindScope(i.comp.Data())),
			func(_ *dom.Node, next *view.Desc, walkErr error) {
				i.mu.Lock()
				if walkErr == nil {
					i.prev = next
				}
				sync := i.inExecute
				i.completed = true
				i.mu.Unlock()
				call.onDone(walkErr)
				if !sync {
					// The walk outlived Execute; keep draining the
					// queue from the scheduler's goroutine.
					i.next()
				}
			})

		i.mu.Lock()
		i.inExecute = false
		done := i.completed
		i.mu.Unlock()

		if err != nil {
			call.onDone(err)
			continue
		}
		if !done {
			// Suspended mid-walk; the completion callback resumes the
			// queue.
			return
		}
	}
}

// validTransition rejects lifecycle calls that would trip the
// executor's flag validation, with a friendlier message.
func (i *Instance) validTransition(flag executor.Flag, prev *view.Desc) error {
	switch flag {
	case executor.FlagCreate:
		if prev != nil {
			return fmt.Errorf("instance already created")
		}
	case executor.FlagUpdate:
		if prev == nil {
			return fmt.Errorf("instance not created yet")
		}
	}
	return nil
}
