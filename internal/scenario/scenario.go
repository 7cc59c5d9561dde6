// Package scenario defines the workloads the CLI drives through the runtime:
// a graph-executor-shaped fan-out/fan-in, a chain of dependent awaits, and a
// kernel dispatch exercising call contexts. Each scenario runs on its own
// runtime and produces a report.
package scenario

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"riptide/internal/asyncrt"
	"riptide/internal/report"
	"riptide/internal/trace"
)

// Kind selects a workload shape.
type Kind string

const (
	// KindFanout spawns Tasks independent coroutines joined by one group.
	KindFanout Kind = "fanout"
	// KindChain builds Depth layers of tasks, each awaiting the previous.
	KindChain Kind = "chain"
	// KindKernel dispatches Tasks leaf kernels through call contexts.
	KindKernel Kind = "kernel"
)

// ParseKind converts a string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindFanout, KindChain, KindKernel:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("invalid scenario kind: %q (expected: fanout|chain|kernel)", s)
	}
}

// Spec describes one scenario run.
type Spec struct {
	Name    string
	Kind    Kind
	Tasks      int // fan-out width / kernel count
	Depth      int // chain length (KindChain only)
	Workers    int // pool size, 0 for default
	QueueDepth int // per-worker affinity slot bound, 0 for default
	Tracer     trace.Tracer
}

// Status captures progress state for one unit of the scenario.
type Status string

const (
	// StatusQueued indicates the unit is waiting to start.
	StatusQueued Status = "queued"
	// StatusRunning indicates the unit is on a worker.
	StatusRunning Status = "running"
	// StatusDone indicates the unit completed.
	StatusDone Status = "done"
	// StatusError indicates the unit raised.
	StatusError Status = "error"
)

// Event reports progress for one unit (or for the overall run when Unit is
// empty).
type Event struct {
	Unit   string
	Status Status
	Err    error
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// nopSink drops events.
type nopSink struct{}

func (nopSink) OnEvent(Event) {}

// Units returns the display names of the scenario's units, in order.
func (s Spec) Units() []string {
	n := s.Tasks
	if s.Kind == KindChain {
		n = s.Depth
	}
	units := make([]string, n)
	for i := range units {
		units[i] = fmt.Sprintf("%s-%03d", s.Kind, i)
	}
	return units
}

// Run executes the scenario and returns its report. sink may be nil.
func Run(spec Spec, sink ProgressSink) (*report.Report, error) {
	if sink == nil {
		sink = nopSink{}
	}
	rt := asyncrt.New(asyncrt.Config{
		Workers:    spec.Workers,
		QueueDepth: spec.QueueDepth,
		Tracer:     spec.Tracer,
	})
	defer rt.Close()

	started := time.Now()
	var err error
	switch spec.Kind {
	case KindFanout:
		err = runFanout(rt, spec, sink)
	case KindChain:
		err = runChain(rt, spec, sink)
	case KindKernel:
		err = runKernel(rt, spec, sink)
	default:
		return nil, fmt.Errorf("unknown scenario kind: %q", spec.Kind)
	}
	elapsed := time.Since(started)
	if err != nil {
		return nil, err
	}

	stats := rt.Stats()
	return &report.Report{
		Scenario:  spec.Name,
		Workers:   rt.Parallelism(),
		Tasks:     spec.Tasks,
		Depth:     spec.Depth,
		Spawned:   stats.Spawned,
		Completed: stats.Completed,
		Raised:    stats.Raised,
		Suspended: stats.Suspended,
		Resumed:   stats.Resumed,
		StartedAt: started,
		ElapsedNS: elapsed.Nanoseconds(),
	}, nil
}

// runFanout joins Tasks independent coroutines behind one TaskGroup and
// checks the fan-in saw every member.
func runFanout(rt *asyncrt.Runtime, spec Spec, sink ProgressSink) error {
	units := spec.Units()
	var counter atomic.Int64

	group := asyncrt.NewTaskGroup(rt)
	defer group.Destroy()
	for _, unit := range units {
		unit := unit
		sink.OnEvent(Event{Unit: unit, Status: StatusQueued})
		group.Spawn(func() asyncrt.Step {
			sink.OnEvent(Event{Unit: unit, Status: StatusRunning})
			counter.Add(1)
			sink.OnEvent(Event{Unit: unit, Status: StatusDone})
			return asyncrt.Done()
		})
	}
	group.Wait()

	if got := counter.Load(); got != int64(len(units)) {
		return fmt.Errorf("fan-in lost updates: expected %d, observed %d", len(units), got)
	}
	return nil
}

// runChain builds Depth layers of tasks, each awaiting its predecessor and
// adding one, then verifies the final value.
func runChain(rt *asyncrt.Runtime, spec Spec, sink ProgressSink) error {
	units := spec.Units()

	prev := asyncrt.CreateTask(rt, asyncrt.Func(func() (int, error) { return 0, nil }))
	handles := []*asyncrt.Task[int]{prev}
	for _, unit := range units {
		unit := unit
		sink.OnEvent(Event{Unit: unit, Status: StatusQueued})
		link := prev
		next := asyncrt.CreateTask(rt, asyncrt.NewCoro(func(ret func(int)) asyncrt.StepFunc {
			return func() asyncrt.Step {
				sink.OnEvent(Event{Unit: unit, Status: StatusRunning})
				return asyncrt.AwaitTask(link, func() asyncrt.Step {
					ret(*link.Get() + 1)
					sink.OnEvent(Event{Unit: unit, Status: StatusDone})
					return asyncrt.Done()
				})
			}
		}))
		handles = append(handles, next)
		prev = next
	}

	final := *prev.Wait()
	for _, h := range handles {
		h.Destroy()
	}
	if final != spec.Depth {
		return fmt.Errorf("chain corrupted: expected %d, got %d", spec.Depth, final)
	}
	return nil
}

// runKernel dispatches Tasks leaf kernels, each reporting through its own
// call context, and has one coroutine await each context like a graph
// executor would.
func runKernel(rt *asyncrt.Runtime, spec Spec, sink ProgressSink) error {
	units := spec.Units()

	group := asyncrt.NewTaskGroup(rt)
	defer group.Destroy()
	calls := make([]*asyncrt.CallContext, len(units))
	for i, unit := range units {
		unit := unit
		sink.OnEvent(Event{Unit: unit, Status: StatusQueued})
		call := rt.NewCallContext(nil)
		calls[i] = call

		// The "kernel": a goroutine standing in for a device-side completion.
		go func() {
			buf, err := call.Alloc(256, 16)
			if err != nil {
				call.SetToError(err.Error())
				return
			}
			for j := range buf {
				buf[j] = byte(j)
			}
			call.Complete()
		}()

		group.Spawn(func() asyncrt.Step {
			sink.OnEvent(Event{Unit: unit, Status: StatusRunning})
			return asyncrt.Await(call.Done(), func() asyncrt.Step {
				if err := call.Err(); err != nil {
					sink.OnEvent(Event{Unit: unit, Status: StatusError, Err: err})
					return asyncrt.Raise(err)
				}
				sink.OnEvent(Event{Unit: unit, Status: StatusDone})
				return asyncrt.Done()
			})
		})
	}
	group.Wait()

	err := group.Err()
	for _, call := range calls {
		call.Release()
	}
	if err != nil {
		return errors.New("kernel dispatch failed: " + err.Error())
	}
	return nil
}
