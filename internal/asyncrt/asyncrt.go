// Package asyncrt implements the coroutine task runtime: a single-shot
// completion signal, a worker pool that executes continuations, a typed
// single-value Task, and a TaskGroup for fan-out/fan-in work.
//
// The runtime is consumed by a coroutine-lowering code generator: lowered
// bodies arrive as chains of StepFunc closures, suspend at Await points and
// resume on whichever worker dequeues them. There is no preemption and no
// cooperative cancellation of an in-flight coroutine; cancellation, if
// needed, is layered above by checking a flag at suspension points.
package asyncrt

import (
	"runtime"

	"riptide/internal/trace"
)

// Config configures a Runtime.
type Config struct {
	// Workers is the worker pool size. Zero means GOMAXPROCS.
	Workers int
	// QueueDepth bounds each worker's affinity slot. Zero means a default.
	QueueDepth int
	// ArenaChunk is the call-arena chunk size in bytes. Zero means a default.
	ArenaChunk int
	// Tracer receives runtime events. Nil means no tracing.
	Tracer trace.Tracer
}

const (
	defaultQueueDepth = 64
	defaultArenaChunk = 64 << 10
)

// Runtime is an explicitly passed executor handle. It owns the worker pool
// and the signal registry. Multiple independent runtimes may coexist in one
// process.
type Runtime struct {
	pool       *Pool
	signals    signalRegistry
	tracer     trace.Tracer
	stats      Stats
	arenaChunk int
}

// New constructs a runtime and starts its workers.
func New(cfg Config) *Runtime {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	depth := cfg.QueueDepth
	if depth <= 0 {
		depth = defaultQueueDepth
	}
	chunk := cfg.ArenaChunk
	if chunk <= 0 {
		chunk = defaultArenaChunk
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	rt := &Runtime{
		tracer:     tracer,
		arenaChunk: chunk,
	}
	rt.signals.init()
	rt.pool = newPool(workers, depth, tracer)
	return rt
}

// Parallelism returns the number of workers available.
func (rt *Runtime) Parallelism() int {
	if rt == nil {
		return 0
	}
	return rt.pool.Parallelism()
}

// Submit hands a continuation to the worker pool with no affinity.
func (rt *Runtime) Submit(c *Continuation) {
	if rt == nil {
		return
	}
	rt.pool.Submit(c, AnyWorker)
}

// Tracer returns the runtime's tracer. Never nil.
func (rt *Runtime) Tracer() trace.Tracer {
	if rt == nil {
		return trace.Nop
	}
	return rt.tracer
}

// Close stops the workers after the queued work drains. The caller must have
// observed completion of every outstanding task first. Idempotent.
func (rt *Runtime) Close() {
	if rt == nil {
		return
	}
	rt.pool.close()
}
