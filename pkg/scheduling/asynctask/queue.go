package asynctask

import (
	"github.com/vnykmshr/asyncrt/pkg/runtime/syncx"
)

// taskQueue is an unbounded intrusive FIFO of pending tasks.
// Queue membership does not own the task; the reference count does.
type taskQueue struct {
	mon        syncx.Monitor
	first      *Task
	last       *Task
	n          int
	terminated bool
}

// push appends t at the tail and wakes every blocked popper.
func (q *taskQueue) push(t *Task) {
	q.mon.Lock()
	if t.queued {
		q.mon.Unlock()
		syncx.Fatalf("asynctask: task %d pushed twice", t.id)
	}
	t.queued = true
	t.next = nil
	if q.last == nil {
		q.first = t
	} else {
		q.last.next = t
	}
	q.last = t
	q.n++
	q.mon.Broadcast()
	q.mon.Unlock()
}

// popOrWait blocks until a task is available and returns the oldest one.
// Once the queue is terminated it keeps handing out remaining tasks and
// returns nil when empty.
func (q *taskQueue) popOrWait() *Task {
	q.mon.Lock()
	defer q.mon.Unlock()

	for q.first == nil && !q.terminated {
		q.mon.Wait()
	}
	return q.unlink()
}

// unlink removes the head. Must be called with q.mon held.
func (q *taskQueue) unlink() *Task {
	t := q.first
	if t == nil {
		return nil
	}
	q.first = t.next
	if q.first == nil {
		q.last = nil
	}
	t.next = nil
	t.queued = false
	q.n--
	return t
}

// terminate marks the queue terminated and wakes every blocked popper.
func (q *taskQueue) terminate() {
	q.mon.Lock()
	q.terminated = true
	q.mon.Broadcast()
	q.mon.Unlock()
}

// drain detaches and returns all tasks still queued, oldest first.
func (q *taskQueue) drain() []*Task {
	q.mon.Lock()
	defer q.mon.Unlock()

	var out []*Task
	for t := q.unlink(); t != nil; t = q.unlink() {
		out = append(out, t)
	}
	return out
}

func (q *taskQueue) len() int {
	q.mon.Lock()
	defer q.mon.Unlock()
	return q.n
}
