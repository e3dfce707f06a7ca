package executor

import "time"

// Scheduler is the host timing collaborator: it owns the slice budget
// and the yield-and-resume primitive. Injecting a synchronous
// scheduler makes the time-sliced walk fully testable; a frame
// scheduler drives production updates from a real clock.
type Scheduler interface {
	// Now returns the scheduler's monotonic clock reading.
	Now() time.Time
	// Expired reports whether the slice that began at start has used
	// up its time budget.
	Expired(start time.Time) bool
	// Yield hands control back to the host. resume is called exactly
	// once when the next slice may run.
	Yield(resume func())
}

// SyncScheduler runs every walk in a single slice: the budget is
// unbounded and a yield, which the executor then never requests,
// would resume immediately. Intended for tests and non-interactive
// rendering.
type SyncScheduler struct{}

func (SyncScheduler) Now() time.Time         { return time.Now() }
func (SyncScheduler) Expired(time.Time) bool { return false }
func (SyncScheduler) Yield(resume func())    { resume() }

// FrameScheduler bounds each slice by a time budget and resumes
// suspended walks on a timer, approximating a host animation frame.
//
// Resumption runs on the timer's goroutine; callers that share state
// with the walk (the lifecycle wrapper does) must serialize with it.
type FrameScheduler struct {
	// Budget is the per-slice time budget. Zero selects DefaultBudget.
	Budget time.Duration
	// Frame is the delay before a suspended walk resumes. Zero
	// selects DefaultFrame.
	Frame time.Duration
}

// Slice timing defaults: roughly half a 60Hz frame of work, resuming
// on the next frame.
const (
	DefaultBudget = 8 * time.Millisecond
	DefaultFrame  = 16 * time.Millisecond
)

func (f *FrameScheduler) Now() time.Time { return time.Now() }

func (f *FrameScheduler) Expired(start time.Time) bool {
	budget := f.Budget
	if budget == 0 {
		budget = DefaultBudget
	}
	return time.Since(start) >= budget
}

func (f *FrameScheduler) Yield(resume func()) {
	frame := f.Frame
	if frame == 0 {
		frame = DefaultFrame
	}
	time.AfterFunc(frame, resume)
}
