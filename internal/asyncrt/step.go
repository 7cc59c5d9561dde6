package asyncrt

import "riptide/internal/trace"

// StepFunc runs one slice of a coroutine body between suspension points.
// A lowered coroutine is a chain of StepFuncs, each capturing only the
// "what to do next" state it needs.
type StepFunc func() Step

type stepKind uint8

const (
	stepDone stepKind = iota
	stepRaised
	stepAwait
)

// Step reports how a step stopped: completed, raised, or suspended on a
// signal with a recorded resumption step.
type Step struct {
	kind stepKind
	err  error
	gate Signal
	next StepFunc
}

// Done reports that the coroutine body returned.
func Done() Step {
	return Step{kind: stepDone}
}

// Raise reports that the coroutine body raised err. The error lands in the
// owning task's error slot, published before its completion signal fires.
func Raise(err error) Step {
	return Step{kind: stepRaised, err: err}
}

// Await suspends the coroutine until gate fires, then resumes at next on
// whichever worker dequeues the continuation. The suspending step must not
// touch its own state after returning an Await.
func Await(gate Signal, next StepFunc) Step {
	if next == nil {
		panic("asyncrt: Await(nil next): undefined behavior")
	}
	return Step{kind: stepAwait, gate: gate, next: next}
}

// frame drives one coroutine on the pool. It owns the current step, reruns
// it on each resumption, and reports completion exactly once through done.
// Ownership of the frame's continuation alternates between the pool (while
// queued or running) and the awaited signal (while suspended).
type frame struct {
	rt   *Runtime
	step StepFunc
	done func(err error)
	cont Continuation
}

func newFrame(rt *Runtime, body StepFunc, done func(error)) *frame {
	f := &frame{rt: rt, step: body, done: done}
	f.cont = Continuation{Resume: func(any) { f.advance() }}
	return f
}

// start submits the frame's entry continuation to the pool.
func (f *frame) start() {
	f.rt.stats.spawned.Add(1)
	if f.rt.tracer.Enabled() {
		trace.Point(f.rt.tracer, trace.ScopeTask, "task:spawn", "")
	}
	f.rt.pool.Submit(&f.cont, AnyWorker)
}

// advance runs the current step on the calling worker. On Await it records
// the resumption step and parks the continuation on the gate, freeing the
// worker. On completion it clears the step so a stale resume is inert.
func (f *frame) advance() {
	st := f.step()
	switch st.kind {
	case stepAwait:
		f.step = st.next
		f.rt.stats.suspended.Add(1)
		if f.rt.tracer.Enabled() {
			trace.Point(f.rt.tracer, trace.ScopeSignal, "suspend", "")
		}
		st.gate.OnSet(&f.cont)
	case stepRaised:
		f.step = nil
		f.rt.stats.raised.Add(1)
		if f.rt.tracer.Enabled() {
			trace.Point(f.rt.tracer, trace.ScopeTask, "task:raised", st.err.Error())
		}
		f.done(st.err)
	default:
		f.step = nil
		f.rt.stats.completed.Add(1)
		if f.rt.tracer.Enabled() {
			trace.Point(f.rt.tracer, trace.ScopeTask, "task:done", "")
		}
		f.done(nil)
	}
}
