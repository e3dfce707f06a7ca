package weft

import "sync"

// HandlerID identifies one subscription on an Emitter, so a handler
// can be removed without comparing function values.
type HandlerID int64

// EventHandler reacts to an emitted application event.
type EventHandler func(payload interface{})

type subscription struct {
	id HandlerID
	fn EventHandler
}

// Emitter is an ordered event dispatcher. Handlers for an event run in
// subscription order; removal is by ID and takes effect for emits that
// start afterwards.
type Emitter struct {
	mu     sync.RWMutex
	nextID HandlerID
	subs   map[string][]subscription
}

// NewEmitter creates an empty emitter.
func NewEmitter() *Emitter {
	return &Emitter{subs: make(map[string][]subscription)}
}

// On subscribes a handler to an event and returns its removal ID.
func (e *Emitter) On(event string, fn EventHandler) HandlerID {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	e.subs[event] = append(e.subs[event], subscription{id: id, fn: fn})
	return id
}

// Off removes the subscription with the given ID from an event and
// reports whether it was present.
func (e *Emitter) Off(event string, id HandlerID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	subs := e.subs[event]
	for i, s := range subs {
		if s.id == id {
			e.subs[event] = append(subs[:i:i], subs[i+1:]...)
			if len(e.subs[event]) == 0 {
				delete(e.subs, event)
			}
			return true
		}
	}
	return false
}

// Emit dispatches payload to every handler subscribed to event, in
// subscription order, and reports how many ran. Handlers subscribed or
// removed during dispatch do not affect the current emit.
func (e *Emitter) Emit(event string, payload interface{}) int {
	e.mu.RLock()
	subs := make([]subscription, len(e.subs[event]))
	copy(subs, e.subs[event])
	e.mu.RUnlock()

	for _, s := range subs {
		s.fn(payload)
	}
	return len(subs)
}
