package asyncrt

import (
	"strconv"
	"sync"

	"riptide/internal/trace"
)

// AnyWorker submits a continuation with no affinity preference.
const AnyWorker = -1

// Continuation is a suspended unit of execution: a resume function plus the
// opaque state it carries. The pool invokes Resume(State) exactly once per
// submission; ownership transfers with the submission and never aliases.
type Continuation struct {
	Resume func(state any)
	State  any
}

func (c *Continuation) invoke() {
	c.Resume(c.State)
}

// Pool is a fixed-size set of workers executing continuations to completion
// or until they voluntarily suspend. The shared intake is unbounded, so
// Submit never blocks a caller behind a full queue. Independent submissions
// carry no ordering guarantee.
type Pool struct {
	mu     sync.Mutex
	cond   *sync.Cond
	shared []*Continuation
	local  [][]*Continuation
	depth  int
	closed bool
	tracer trace.Tracer
	wg     sync.WaitGroup
}

func newPool(workers, depth int, tracer trace.Tracer) *Pool {
	p := &Pool{
		local:  make([][]*Continuation, workers),
		depth:  depth,
		tracer: tracer,
	}
	p.cond = sync.NewCond(&p.mu)
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.run(i)
	}
	return p
}

// Parallelism returns the number of workers.
func (p *Pool) Parallelism() int {
	if p == nil {
		return 0
	}
	return len(p.local)
}

// Submit enqueues a continuation. worker is an affinity hint: AnyWorker for
// no preference, otherwise the preferred worker's index. The hint is for
// cache locality only and never affects correctness; when the preferred slot
// is full the continuation falls back to the shared queue.
func (p *Pool) Submit(c *Continuation, worker int) {
	if p == nil || c == nil {
		return
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	if worker >= 0 && worker < len(p.local) && len(p.local[worker]) < p.depth {
		p.local[worker] = append(p.local[worker], c)
	} else {
		p.shared = append(p.shared, c)
	}
	p.mu.Unlock()
	p.cond.Broadcast()
}

// close stops the workers once all queued work has drained and waits for
// them to exit.
func (p *Pool) close() {
	if p == nil {
		return
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()
	p.cond.Broadcast()
	p.wg.Wait()
}

func (p *Pool) run(id int) {
	defer p.wg.Done()
	if p.tracer.Enabled() {
		trace.Point(p.tracer, trace.ScopePool, "worker:start", strconv.Itoa(id))
		defer trace.Point(p.tracer, trace.ScopePool, "worker:stop", strconv.Itoa(id))
	}
	for {
		c, ok := p.next(id)
		if !ok {
			return
		}
		c.invoke()
	}
}

// next returns the worker's next continuation, preferring its affinity slot,
// then the shared queue. Blocks until work arrives or the pool closes.
func (p *Pool) next(id int) (*Continuation, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		if q := p.local[id]; len(q) > 0 {
			c := q[0]
			copy(q, q[1:])
			p.local[id] = q[:len(q)-1]
			return c, true
		}
		if len(p.shared) > 0 {
			c := p.shared[0]
			copy(p.shared, p.shared[1:])
			p.shared = p.shared[:len(p.shared)-1]
			return c, true
		}
		if p.closed {
			return nil, false
		}
		p.cond.Wait()
	}
}
