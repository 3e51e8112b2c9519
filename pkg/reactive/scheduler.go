package reactive

// Scheduler runs callbacks no sooner than the end of the current unit of
// work. Callbacks must run on the goroutine that owns the runtime, one at a
// time.
type Scheduler interface {
	Schedule(fn func())
}

// Flusher is implemented by schedulers that can be drained on demand.
type Flusher interface {
	// Flush runs every pending callback, including callbacks scheduled
	// while flushing, and returns how many ran.
	Flush() int
}

// SchedulerFunc adapts a function to the Scheduler interface.
type SchedulerFunc func(fn func())

// Schedule calls f(fn).
func (f SchedulerFunc) Schedule(fn func()) {
	f(fn)
}

// Queue is a FIFO scheduler drained explicitly with Flush. It is the
// default scheduler of a Runtime: a unit of work is everything that
// happens between two flushes.
type Queue struct {
	tasks    []func()
	flushing bool
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Schedule appends fn to the queue.
func (q *Queue) Schedule(fn func()) {
	q.tasks = append(q.tasks, fn)
}

// Len returns the number of pending callbacks.
func (q *Queue) Len() int {
	return len(q.tasks)
}

// Flush runs pending callbacks in FIFO order until the queue is empty.
// A nested Flush from inside a callback is a no-op. If a callback panics,
// the callbacks after it stay queued.
func (q *Queue) Flush() int {
	if q.flushing {
		return 0
	}
	q.flushing = true
	defer func() { q.flushing = false }()

	n := 0
	for len(q.tasks) > 0 {
		task := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		n++
		task()
	}
	q.tasks = nil
	return n
}
