package asyncrt

import (
	"runtime"
	"sync/atomic"
	"testing"
	"time"
)

func TestParallelismLevel(t *testing.T) {
	rt := newTestRuntime(t, 3)
	if got := rt.Parallelism(); got != 3 {
		t.Fatalf("expected parallelism 3, got %d", got)
	}

	def := New(Config{})
	defer def.Close()
	if got := def.Parallelism(); got != runtime.GOMAXPROCS(0) {
		t.Fatalf("expected default parallelism %d, got %d", runtime.GOMAXPROCS(0), got)
	}
}

func TestSuspensionReleasesWorkers(t *testing.T) {
	// 100 coroutines all await one gate on a 2-worker pool. If suspension
	// blocked a worker thread, the pool would deadlock after two awaits.
	rt := newTestRuntime(t, 2)

	gate := NewTaskGroup(rt)
	blocker := rt.NewSignal()
	defer blocker.Destroy()
	gate.Spawn(func() Step {
		return Await(blocker, func() Step { return Done() })
	})

	var suspendedCount atomic.Int64
	var completedCount atomic.Int64
	const tasks = 100

	work := NewTaskGroup(rt)
	for i := 0; i < tasks; i++ {
		work.Spawn(func() Step {
			suspendedCount.Add(1)
			return Await(gate.Completion(), func() Step {
				completedCount.Add(1)
				return Done()
			})
		})
	}

	// All 100 must reach their suspension point with only 2 workers.
	deadline := time.Now().Add(10 * time.Second)
	for suspendedCount.Load() < tasks {
		if time.Now().After(deadline) {
			t.Fatalf("only %d of %d tasks reached suspension", suspendedCount.Load(), tasks)
		}
		time.Sleep(time.Millisecond)
	}
	if got := completedCount.Load(); got != 0 {
		t.Fatalf("%d tasks completed before the gate fired", got)
	}

	blocker.Set()
	gate.Wait()
	work.Wait()
	defer work.Destroy()
	defer gate.Destroy()

	if got := completedCount.Load(); got != tasks {
		t.Fatalf("expected %d completions, got %d", tasks, got)
	}
}

func TestAffinityHintFallsBackToSharedQueue(t *testing.T) {
	rt := newTestRuntime(t, 2)

	// Flood one worker's slot far past its depth; every continuation must
	// still run. The hint is locality only, never correctness.
	const n = 1000
	var ran atomic.Int64
	done := rt.NewSignal()
	defer done.Destroy()
	var pending atomic.Int64
	pending.Store(n)

	for i := 0; i < n; i++ {
		rt.pool.Submit(&Continuation{Resume: func(any) {
			ran.Add(1)
			if pending.Add(-1) == 0 {
				done.Set()
			}
		}}, 1)
	}

	done.Wait()
	if got := ran.Load(); got != n {
		t.Fatalf("expected %d continuations to run, got %d", n, got)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	rt := New(Config{Workers: 2})
	if _, err := Run(rt, Func(func() (int, error) { return 1, nil })); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rt.Close()
	rt.Close()
}

func TestStatsCounters(t *testing.T) {
	rt := newTestRuntime(t, 2)

	inner := CreateTask(rt, Func(func() (int, error) { return 5, nil }))
	if _, err := Run(rt, NewCoro(func(ret func(int)) StepFunc {
		return func() Step {
			return AwaitTask(inner, func() Step {
				ret(*inner.Get())
				return Done()
			})
		}
	})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inner.Destroy()

	stats := rt.Stats()
	if stats.Spawned != 2 {
		t.Fatalf("expected 2 spawns, got %d", stats.Spawned)
	}
	if stats.Completed != 2 {
		t.Fatalf("expected 2 completions, got %d", stats.Completed)
	}
	if stats.Suspended != 1 {
		t.Fatalf("expected 1 suspension, got %d", stats.Suspended)
	}
	if stats.Resumed != 1 {
		t.Fatalf("expected 1 resumption, got %d", stats.Resumed)
	}
}
