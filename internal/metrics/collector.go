// Package metrics provides simple built-in counters for patch
// operations with no external dependencies. The executor increments
// them at every live-tree mutation, which also gives tests a direct
// way to assert that a no-change diff performs zero mutations.
package metrics

import (
	"sync/atomic"
	"time"
)

// Collector accumulates patch-operation counts across walks. All
// methods are safe for concurrent use and a nil receiver is a no-op,
// so instrumentation can stay unconditional at call sites.
type Collector struct {
	nodesCreated    int64
	nodesRemoved    int64
	nodesMoved      int64
	textUpdates     int64
	attrsSet        int64
	attrsRemoved    int64
	handlersBound   int64
	handlersDropped int64
	slicesYielded   int64
	walksCompleted  int64
	startTime       time.Time
}

// Snapshot is a point-in-time copy of the collector's counters.
type Snapshot struct {
	NodesCreated    int64         `json:"nodes_created"`
	NodesRemoved    int64         `json:"nodes_removed"`
	NodesMoved      int64         `json:"nodes_moved"`
	TextUpdates     int64         `json:"text_updates"`
	AttrsSet        int64         `json:"attrs_set"`
	AttrsRemoved    int64         `json:"attrs_removed"`
	HandlersBound   int64         `json:"handlers_bound"`
	HandlersDropped int64         `json:"handlers_dropped"`
	SlicesYielded   int64         `json:"slices_yielded"`
	WalksCompleted  int64         `json:"walks_completed"`
	Uptime          time.Duration `json:"uptime"`
}

// NewCollector creates a collector with zeroed counters.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

func (c *Collector) add(counter *int64) {
	atomic.AddInt64(counter, 1)
}

// IncrementNodeCreated records a live node creation and attachment.
func (c *Collector) IncrementNodeCreated() {
	if c == nil {
		return
	}
	c.add(&c.nodesCreated)
}

// IncrementNodeRemoved records a live node detachment.
func (c *Collector) IncrementNodeRemoved() {
	if c == nil {
		return
	}
	c.add(&c.nodesRemoved)
}

// IncrementNodeMoved records a keyed-list reuse that changed position.
func (c *Collector) IncrementNodeMoved() {
	if c == nil {
		return
	}
	c.add(&c.nodesMoved)
}

// IncrementTextUpdate records a text-content replacement.
func (c *Collector) IncrementTextUpdate() {
	if c == nil {
		return
	}
	c.add(&c.textUpdates)
}

// IncrementAttrSet records an attribute or category key write.
func (c *Collector) IncrementAttrSet() {
	if c == nil {
		return
	}
	c.add(&c.attrsSet)
}

// IncrementAttrRemoved records an attribute or category key removal.
func (c *Collector) IncrementAttrRemoved() {
	if c == nil {
		return
	}
	c.add(&c.attrsRemoved)
}

// IncrementHandlerBound records an event handler bind or rebind.
func (c *Collector) IncrementHandlerBound() {
	if c == nil {
		return
	}
	c.add(&c.handlersBound)
}

// IncrementHandlerDropped records an event handler release.
func (c *Collector) IncrementHandlerDropped() {
	if c == nil {
		return
	}
	c.add(&c.handlersDropped)
}

// IncrementSliceYielded records the walk yielding to the host
// scheduler with work remaining.
func (c *Collector) IncrementSliceYielded() {
	if c == nil {
		return
	}
	c.add(&c.slicesYielded)
}

// IncrementWalkCompleted records a finished diff/patch walk.
func (c *Collector) IncrementWalkCompleted() {
	if c == nil {
		return
	}
	c.add(&c.walksCompleted)
}

// Mutations returns the total number of live-tree mutations recorded.
// Scheduling counters (slices, walks) are not mutations and are not
// included.
func (c *Collector) Mutations() int64 {
	if c == nil {
		return 0
	}
	return atomic.LoadInt64(&c.nodesCreated) +
		atomic.LoadInt64(&c.nodesRemoved) +
		atomic.LoadInt64(&c.nodesMoved) +
		atomic.LoadInt64(&c.textUpdates) +
		atomic.LoadInt64(&c.attrsSet) +
		atomic.LoadInt64(&c.attrsRemoved) +
		atomic.LoadInt64(&c.handlersBound) +
		atomic.LoadInt64(&c.handlersDropped)
}

// GetSnapshot returns a copy of the current counters.
func (c *Collector) GetSnapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	return Snapshot{
		NodesCreated:    atomic.LoadInt64(&c.nodesCreated),
		NodesRemoved:    atomic.LoadInt64(&c.nodesRemoved),
		NodesMoved:      atomic.LoadInt64(&c.nodesMoved),
		TextUpdates:     atomic.LoadInt64(&c.textUpdates),
		AttrsSet:        atomic.LoadInt64(&c.attrsSet),
		AttrsRemoved:    atomic.LoadInt64(&c.attrsRemoved),
		HandlersBound:   atomic.LoadInt64(&c.handlersBound),
		HandlersDropped: atomic.LoadInt64(&c.handlersDropped),
		SlicesYielded:   atomic.LoadInt64(&c.slicesYielded),
		WalksCompleted:  atomic.LoadInt64(&c.walksCompleted),
		Uptime:          time.Since(c.startTime),
	}
}

// Reset zeroes every counter. Intended for tests that assert on the
// mutation count of a single walk.
func (c *Collector) Reset() {
	if c == nil {
		return
	}
	atomic.StoreInt64(&c.nodesCreated, 0)
	atomic.StoreInt64(&c.nodesRemoved, 0)
	atomic.StoreInt64(&c.nodesMoved, 0)
	atomic.StoreInt64(&c.textUpdates, 0)
	atomic.StoreInt64(&c.attrsSet, 0)
	atomic.StoreInt64(&c.attrsRemoved, 0)
	atomic.StoreInt64(&c.handlersBound, 0)
	atomic.StoreInt64(&c.handlersDropped, 0)
	atomic.StoreInt64(&c.slicesYielded, 0)
	atomic.StoreInt64(&c.walksCompleted, 0)
}
