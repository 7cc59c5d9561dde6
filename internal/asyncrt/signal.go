package asyncrt

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// SignalID identifies a registered signal.
type SignalID uint64

// Signal is a handle to a single-shot, cross-thread completion flag. The
// flag's state is owned by the runtime's registry; the holder of a Signal
// has a reference, and exactly one logical owner is responsible for Destroy.
//
// Misuse (double Set, use after Destroy) is a caller contract violation on a
// hot-path primitive, analogous to misusing a raw mutex; the runtime does
// not add checked slow paths for it.
type Signal struct {
	rt *Runtime
	id SignalID
}

// signalState is the registry-owned state behind a Signal handle.
type signalState struct {
	mu      sync.Mutex
	set     bool
	fired   chan struct{}
	waiters []*Continuation
}

const signalShards = 32

// signalRegistry maps signal IDs to their state. Striped to keep unrelated
// signals off each other's locks.
type signalRegistry struct {
	nextID atomic.Uint64
	shards [signalShards]signalShard
}

type signalShard struct {
	mu      sync.Mutex
	entries map[SignalID]*signalState
}

func (r *signalRegistry) init() {
	for i := range r.shards {
		r.shards[i].entries = make(map[SignalID]*signalState)
	}
}

func (r *signalRegistry) register() (SignalID, *signalState) {
	id := SignalID(r.nextID.Add(1))
	st := &signalState{fired: make(chan struct{})}
	shard := &r.shards[uint64(id)%signalShards]
	shard.mu.Lock()
	shard.entries[id] = st
	shard.mu.Unlock()
	return id, st
}

func (r *signalRegistry) lookup(id SignalID) *signalState {
	shard := &r.shards[uint64(id)%signalShards]
	shard.mu.Lock()
	st := shard.entries[id]
	shard.mu.Unlock()
	return st
}

func (r *signalRegistry) deregister(id SignalID) {
	shard := &r.shards[uint64(id)%signalShards]
	shard.mu.Lock()
	delete(shard.entries, id)
	shard.mu.Unlock()
}

// NewSignal creates an unset signal registered with the runtime.
func (rt *Runtime) NewSignal() Signal {
	id, _ := rt.signals.register()
	return Signal{rt: rt, id: id}
}

// ID returns the signal's registry ID.
func (s Signal) ID() SignalID {
	return s.id
}

func (s Signal) state() *signalState {
	st := s.rt.signals.lookup(s.id)
	if st == nil {
		panic(fmt.Sprintf("asyncrt: use of unregistered signal %d", s.id))
	}
	return st
}

// Set transitions the signal to its set state, unblocking every thread in
// Wait and resubmitting every suspended continuation to the pool. Each
// signal has exactly one logical owner of the Set call; calling it twice is
// undefined. All writes made before Set are visible to anyone the set wakes.
func (s Signal) Set() {
	st := s.state()
	st.mu.Lock()
	st.set = true
	waiters := st.waiters
	st.waiters = nil
	st.mu.Unlock()
	close(st.fired)
	for _, c := range waiters {
		s.rt.stats.resumed.Add(1)
		s.rt.pool.Submit(c, AnyWorker)
	}
}

// Wait blocks the calling thread until the signal is set. Returns
// immediately if already set. Call it from outside the pool; a coroutine
// must suspend via OnSet instead of blocking its worker.
func (s Signal) Wait() {
	<-s.state().fired
}

// WaitTimeout reports whether the signal fired within d. It is a poll, not a
// cancellation: it never consumes or alters the signal's state.
func (s Signal) WaitTimeout(d time.Duration) bool {
	st := s.state()
	select {
	case <-st.fired:
		return true
	default:
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-st.fired:
		return true
	case <-timer.C:
		return false
	}
}

// OnSet registers a continuation to be resubmitted to the pool when the
// signal fires. If the signal is already set, the continuation is submitted
// immediately. Never blocks; the suspending coroutine must not touch its own
// state again until resumed.
func (s Signal) OnSet(c *Continuation) {
	st := s.state()
	st.mu.Lock()
	if st.set {
		st.mu.Unlock()
		s.rt.stats.resumed.Add(1)
		s.rt.pool.Submit(c, AnyWorker)
		return
	}
	st.waiters = append(st.waiters, c)
	st.mu.Unlock()
}

// Destroy deregisters the signal. The owner must guarantee no outstanding
// waiter still references it; that precondition is not checked.
func (s Signal) Destroy() {
	s.rt.signals.deregister(s.id)
}
