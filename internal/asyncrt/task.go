package asyncrt

// Coro is a coroutine value of result type T, not yet running. bind receives
// the return callback that stores the result into the owning task's slot and
// produces the body's entry step.
type Coro[T any] struct {
	bind func(ret func(T)) StepFunc
}

// NewCoro builds a coroutine from a lowered body.
func NewCoro[T any](bind func(ret func(T)) StepFunc) *Coro[T] {
	if bind == nil {
		panic("asyncrt: NewCoro(nil): undefined behavior")
	}
	return &Coro[T]{bind: bind}
}

// Func wraps a suspension-free body as a coroutine.
func Func[T any](f func() (T, error)) *Coro[T] {
	return NewCoro(func(ret func(T)) StepFunc {
		return func() Step {
			v, err := f()
			if err != nil {
				return Raise(err)
			}
			ret(v)
			return Done()
		}
	})
}

// Task is a handle to one running coroutine producing a T. The result slot
// holds either a value or an error, never both; the task's signal publishes
// whichever was written. Both slots are unified on every task, so a raising
// coroutine needs no separate driver type.
type Task[T any] struct {
	rt   *Runtime
	done Signal
	out  T
	err  error
	fr   *frame
}

// CreateTask spawns coro on the pool and returns its handle. The coroutine
// begins running immediately.
func CreateTask[T any](rt *Runtime, coro *Coro[T]) *Task[T] {
	t := &Task[T]{rt: rt, done: rt.NewSignal()}
	body := coro.bind(func(v T) { t.out = v })
	t.fr = newFrame(rt, body, func(err error) {
		t.err = err
		t.done.Set()
	})
	t.fr.start()
	return t
}

// Run spawns coro, blocks the calling thread until it completes, and returns
// its value or its raised error. This is the synchronous entry point for
// non-coroutine callers; the task handle is destroyed before returning.
func Run[T any](rt *Runtime, coro *Coro[T]) (T, error) {
	t := CreateTask(rt, coro)
	t.Wait()
	v, err := t.out, t.err
	t.Destroy()
	return v, err
}

// Wait blocks until the task completes and returns a reference to the
// result. No copy is made.
func (t *Task[T]) Wait() *T {
	t.done.Wait()
	return &t.out
}

// Get returns the result reference without synchronizing. The caller must
// have already observed completion via Wait or an await.
func (t *Task[T]) Get() *T {
	return &t.out
}

// Err returns the error slot. Same synchronization contract as Get.
func (t *Task[T]) Err() error {
	return t.err
}

// OnComplete registers a continuation against the task's completion signal.
func (t *Task[T]) OnComplete(c *Continuation) {
	t.done.OnSet(c)
}

// Completion returns the task's completion signal.
func (t *Task[T]) Completion() Signal {
	return t.done
}

// Destroy releases the task's signal. Call only after completion has been
// observed via Wait or an await.
func (t *Task[T]) Destroy() {
	t.done.Destroy()
}

// AwaitTask suspends the enclosing coroutine until t completes, then resumes
// at next. next reads the result through t.Get and t.Err.
func AwaitTask[T any](t *Task[T], next StepFunc) Step {
	return Await(t.done, next)
}
