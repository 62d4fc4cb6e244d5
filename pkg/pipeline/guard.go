package pipeline

import "sync/atomic"

// Guard is the single-slot execution guard: at most one job run may hold it
// process-wide. It is a coarse mutual-exclusion mechanism, not a queue -
// callers that fail to acquire drop the trigger rather than defer it.
type Guard struct {
	held atomic.Bool
}

// TryAcquire takes the slot if it is free. Non-blocking.
func (g *Guard) TryAcquire() bool {
	return g.held.CompareAndSwap(false, true)
}

// Release frees the slot. Callers must release on every exit path, typically
// via defer immediately after a successful TryAcquire, so a failed or
// timed-out job can never lock out future triggers.
func (g *Guard) Release() {
	g.held.Store(false)
}

// Held reports whether a job currently holds the slot.
func (g *Guard) Held() bool {
	return g.held.Load()
}
