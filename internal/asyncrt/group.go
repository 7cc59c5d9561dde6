package asyncrt

import (
	"sync"
	"sync/atomic"
)

// TaskGroup joins a set of fire-and-forget coroutines behind one barrier.
// The pending counter starts at 1: the bias represents the group's own
// not-yet-issued finalization and keeps the counter from crossing zero while
// members may still be added. Members run concurrently with no ordering
// between them; the only guarantee is that finalization does not return or
// resume until every member added before it has completed.
type TaskGroup struct {
	rt      *Runtime
	done    Signal
	pending atomic.Int64

	mu       sync.Mutex
	members  []*frame // retained only to keep frames alive; never read back
	firstErr error
}

// NewTaskGroup creates an empty group.
func NewTaskGroup(rt *Runtime) *TaskGroup {
	g := &TaskGroup{rt: rt, done: rt.NewSignal()}
	g.pending.Store(1)
	return g
}

// Spawn adds a fire-and-forget member running body. Must not be called after
// Wait or AwaitGroup has been issued (caller contract, unchecked).
func (g *TaskGroup) Spawn(body StepFunc) {
	g.pending.Add(1)
	fr := newFrame(g.rt, body, func(err error) {
		if err != nil {
			g.recordErr(err)
		}
		g.complete()
	})
	g.mu.Lock()
	g.members = append(g.members, fr)
	g.mu.Unlock()
	fr.start()
}

// complete is the per-member decrement. The decrement and the zero check are
// one atomic operation; exactly one caller observes the zero crossing and
// sets the group signal.
func (g *TaskGroup) complete() {
	if g.pending.Add(-1) == 0 {
		g.done.Set()
	}
}

func (g *TaskGroup) recordErr(err error) {
	g.mu.Lock()
	if g.firstErr == nil {
		g.firstErr = err
	}
	g.mu.Unlock()
}

// Wait consumes the finalization bias and blocks the calling thread until
// every member has completed. Finalize a group exactly once, with either
// Wait or AwaitGroup.
func (g *TaskGroup) Wait() {
	g.complete()
	g.done.Wait()
}

// OnComplete registers a continuation against the group's barrier signal
// without consuming the finalization bias.
func (g *TaskGroup) OnComplete(c *Continuation) {
	g.done.OnSet(c)
}

// Completion returns the group's barrier signal. Independent observers may
// await it without finalizing the group; it fires only once the group has
// been finalized and every member has completed.
func (g *TaskGroup) Completion() Signal {
	return g.done
}

// Err returns the first error raised by a member, for observation after
// finalization. Members are fire-and-forget; a raised error does not stop
// the group.
func (g *TaskGroup) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.firstErr
}

// Destroy releases the group's signal and the retained member frames. Call
// only after finalization.
func (g *TaskGroup) Destroy() {
	g.mu.Lock()
	g.members = nil
	g.mu.Unlock()
	g.done.Destroy()
}

// AwaitGroup consumes the finalization bias and suspends the enclosing
// coroutine until every member has completed, then resumes at next.
func AwaitGroup(g *TaskGroup, next StepFunc) Step {
	g.complete()
	return Await(g.done, next)
}
