package results

import "sync"

// Scheduler runs functions on the goroutine that owns the display.
//
// Functions scheduled from one goroutine run in the order they were scheduled.
type Scheduler interface {
	Schedule(fn func())
}

// SchedulerFunc adapts a function to [Scheduler].
type SchedulerFunc func(fn func())

func (f SchedulerFunc) Schedule(fn func()) { f(fn) }

// Inline runs scheduled functions immediately on the calling goroutine.
type Inline struct{}

func (Inline) Schedule(fn func()) { fn() }

// MainQueue runs scheduled functions one at a time, in FIFO order, on a single goroutine.
type MainQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []func()
	closed bool
	done   chan struct{}
}

// NewMainQueue starts a MainQueue.
func NewMainQueue() *MainQueue {
	q := &MainQueue{done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// Schedule queues fn. It never blocks; functions scheduled after [MainQueue.Close] are dropped.
func (q *MainQueue) Schedule(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.tasks = append(q.tasks, fn)
	q.cond.Signal()
}

// Flush blocks until every function scheduled before the call has run.
func (q *MainQueue) Flush() {
	done := make(chan struct{})
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.tasks = append(q.tasks, func() { close(done) })
	q.cond.Signal()
	q.mu.Unlock()
	<-done
}

// Close runs the functions already queued, then stops the queue goroutine.
func (q *MainQueue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		q.cond.Signal()
	}
	q.mu.Unlock()
	<-q.done
}

func (q *MainQueue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.tasks) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.tasks) == 0 {
			q.mu.Unlock()
			return
		}
		fn := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		fn()
	}
}
