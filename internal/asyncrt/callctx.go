package asyncrt

import (
	"errors"
	"fmt"
	"math/bits"
	"sync"
)

// CallContext is the bridge handed to a leaf work unit (a kernel) so it can
// report completion or failure and obtain scoped device resources. The
// executor constructs one per leaf invocation and is the sole reader of the
// outcome; the runtime never interprets the device handle.
type CallContext struct {
	rt     *Runtime
	done   Signal
	device any
	err    error
	arena  arena
}

// NewCallContext creates a call context carrying an opaque device handle.
func (rt *Runtime) NewCallContext(device any) *CallContext {
	return &CallContext{
		rt:     rt,
		done:   rt.NewSignal(),
		device: device,
		arena:  arena{chunkSize: rt.arenaChunk},
	}
}

// Complete reports that the leaf finished successfully. Single-call, and
// mutually exclusive with SetToError.
func (c *CallContext) Complete() {
	c.done.Set()
}

// SetToError reports leaf failure with a diagnostic message. The error is
// published before the completion signal fires.
func (c *CallContext) SetToError(msg string) {
	c.err = errors.New(msg)
	c.done.Set()
}

// Device returns the opaque device handle supplied at construction.
func (c *CallContext) Device() any {
	return c.device
}

// Err returns the error slot. Synchronize via Done or Wait first.
func (c *CallContext) Err() error {
	return c.err
}

// Done returns the call's completion signal for awaiting executors.
func (c *CallContext) Done() Signal {
	return c.done
}

// Wait blocks until the leaf reports, then returns its outcome.
func (c *CallContext) Wait() error {
	c.done.Wait()
	return c.err
}

// Alloc returns size bytes from the call's arena, aligned to align. The
// allocation lives until Release; the leaf never frees it directly.
func (c *CallContext) Alloc(size, align int) ([]byte, error) {
	return c.arena.alloc(size, align)
}

// Release frees the call's arena and signal. Executor-side, after the call's
// completion has been observed.
func (c *CallContext) Release() {
	c.arena.free()
	c.done.Destroy()
}

// arena is a bump allocator over fixed-size chunks. Oversized requests get a
// dedicated chunk. Freed all at once when the call is released.
type arena struct {
	mu        sync.Mutex
	chunkSize int
	bump      []byte
	off       int
	retained  [][]byte
}

func (a *arena) alloc(size, align int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("asyncrt: invalid arena allocation size %d", size)
	}
	if align <= 0 || bits.OnesCount(uint(align)) != 1 {
		return nil, fmt.Errorf("asyncrt: invalid arena alignment %d", align)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if size > a.chunkSize {
		buf := make([]byte, size)
		a.retained = append(a.retained, buf)
		return buf, nil
	}
	aligned := (a.off + align - 1) &^ (align - 1)
	if a.bump == nil || aligned+size > a.chunkSize {
		if a.bump != nil {
			a.retained = append(a.retained, a.bump)
		}
		a.bump = make([]byte, a.chunkSize)
		aligned = 0
	}
	a.off = aligned + size
	return a.bump[aligned : aligned+size : aligned+size], nil
}

func (a *arena) free() {
	a.mu.Lock()
	a.bump = nil
	a.retained = nil
	a.off = 0
	a.mu.Unlock()
}
