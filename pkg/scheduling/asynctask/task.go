package asynctask

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/vnykmshr/asyncrt/pkg/runtime/syncx"
)

// Task is a handle to one schedulable unit of work and its result.
//
// A task starts with two references: one held by the scheduler until some
// path has claimed or retired it, and one owned by the caller through this
// handle. The caller gives its reference back with Release. The task object
// is destroyed, and its release callbacks run, once both are gone; that never
// happens while the payload is running.
//
// The task's own monitor guards status, result and reference count. It is
// never held together with the queue or termination counter locks.
type Task struct {
	id     uint64
	sched  *Scheduler
	item   any
	policy Policy

	release       func(any)
	releaseResult func(any)
	retainResult  func(any)

	mon       syncx.Monitor
	status    Status
	result    any
	panicked  bool // result is the *PanicError from invoke
	refs      int32
	ran       bool
	handleOut bool // caller's reference has been released
	destroyed bool

	// next and queued belong to the queue and are guarded by its lock.
	next   *Task
	queued bool
}

func newTask(s *Scheduler, id uint64, item any, o taskOptions) *Task {
	return &Task{
		id:            id,
		sched:         s,
		item:          item,
		policy:        o.policy,
		release:       o.release,
		releaseResult: o.releaseResult,
		retainResult:  o.retainResult,
		status:        Waiting,
		refs:          2,
	}
}

// ID returns the scheduler-unique identifier of the task.
func (t *Task) ID() uint64 {
	return t.id
}

// Policy returns the task's execution policy.
func (t *Task) Policy() Policy {
	return t.policy
}

// Status returns the current status. It may be stale as soon as it returns.
func (t *Task) Status() Status {
	t.mon.Lock()
	defer t.mon.Unlock()
	return t.status
}

// Cancelled reports whether the task completed without its payload running.
func (t *Task) Cancelled() bool {
	t.mon.Lock()
	defer t.mon.Unlock()
	return t.status == Completed && !t.ran
}

// Wait blocks until the task has completed.
//
// A task nobody has claimed yet is executed by the calling goroutine, so a
// waiter never idles behind a saturated pool. Wait may be called any number
// of times, from any number of goroutines, until the handle is released.
func (t *Task) Wait() {
	t.mon.Lock()
	t.checkHandle("Wait")
	if t.claimInline() {
		t.mon.Unlock()
		t.run(pathInline)
		t.mon.Lock()
	}
	for t.status != Completed {
		t.mon.Wait()
	}
	t.mon.Unlock()
}

// WaitContext is Wait bounded by ctx. A pending task is still executed
// inline when ctx is live, and once running it always runs to completion;
// only the blocking part of the wait is abandoned when ctx is done.
func (t *Task) WaitContext(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mon.Lock()
	t.checkHandle("WaitContext")
	if t.claimInline() {
		t.mon.Unlock()
		t.run(pathInline)
		return nil
	}
	if t.status == Completed {
		t.mon.Unlock()
		return nil
	}
	t.mon.Unlock()

	stop := context.AfterFunc(ctx, func() {
		t.mon.Lock()
		t.mon.Broadcast()
		t.mon.Unlock()
	})
	defer stop()

	t.mon.Lock()
	defer t.mon.Unlock()
	for t.status != Completed {
		if err := ctx.Err(); err != nil {
			return err
		}
		t.mon.Wait()
	}
	return nil
}

// Result waits for completion and returns the payload's result, or nil if
// the task was cancelled. The retain callback, if any, is applied to the
// result before it is returned.
func (t *Task) Result() any {
	t.Wait()

	t.mon.Lock()
	defer t.mon.Unlock()
	r := t.result
	if r != nil && !t.panicked && t.retainResult != nil {
		t.retainResult(r)
	}
	return r
}

// Release gives back the caller's reference. A task that is still waiting
// is cancelled unless it was created with RunAfterReleased. The handle must
// not be used afterwards; releasing it twice aborts the process.
func (t *Task) Release() {
	t.mon.Lock()
	t.checkHandle("Release")
	t.handleOut = true

	cancelled := false
	if t.status == Waiting && !t.policy.Has(RunAfterReleased) {
		t.status = Completed
		cancelled = true
		t.mon.Broadcast()
	}
	zero := t.unref()
	t.mon.Unlock()

	if cancelled {
		t.sched.observeCancelled()
	}
	if zero {
		t.destroy()
	}
}

// checkHandle aborts on use of a released handle. Must hold t.mon.
func (t *Task) checkHandle(op string) {
	if t.handleOut {
		t.mon.Unlock()
		syncx.Fatalf("asynctask: %s on released task %d", op, t.id)
	}
}

// claimInline claims a pending task for the calling waiter, taking an extra
// reference that run gives back. Must hold t.mon.
func (t *Task) claimInline() bool {
	if t.status != Waiting {
		return false
	}
	t.status = Running
	t.refs++
	return true
}

// unref drops one reference and reports whether it was the last.
// Must hold t.mon.
func (t *Task) unref() bool {
	if t.refs <= 0 || t.destroyed {
		t.mon.Unlock()
		syncx.Fatalf("asynctask: reference count underflow on task %d", t.id)
	}
	t.refs--
	if t.refs == 0 {
		t.destroyed = true
		return true
	}
	return false
}

// execute is the worker and dedicated-goroutine path. The status check is
// what enforces exactly-once execution: a path that loses the race just
// retires its reference.
func (t *Task) execute(path execPath) {
	t.mon.Lock()
	if t.status != Waiting {
		zero := t.unref()
		t.mon.Unlock()
		if zero {
			t.destroy()
		}
		return
	}
	t.status = Running
	t.mon.Unlock()

	t.run(path)
}

// run executes a claimed task, publishes its result and retires the
// reference of the path that claimed it.
func (t *Task) run(path execPath) {
	s := t.sched
	start := time.Now()
	result, panicked := t.invoke()
	s.observeExecuted(path, time.Since(start))

	t.mon.Lock()
	t.result = result
	t.panicked = panicked
	t.ran = true
	t.status = Completed
	t.mon.Broadcast()
	zero := t.unref()
	t.mon.Unlock()

	if zero {
		t.destroy()
	}
}

// invoke calls the payload, turning a panic into a *PanicError result.
func (t *Task) invoke() (result any, panicked bool) {
	s := t.sched
	defer func() {
		if r := recover(); r != nil {
			perr := &PanicError{Value: r, Stack: debug.Stack()}
			s.logger.Error("task panicked", "task", t.id, "panic", r)
			s.observePanic()
			if s.config.PanicHandler != nil {
				s.config.PanicHandler(t, r)
			}
			result, panicked = perr, true
		}
	}()

	if fn, ok := t.item.(closure); ok {
		return fn(), false
	}
	return s.runner(t.item), false
}

// destroy runs the release callbacks and, for detached tasks, frees the
// termination counter slot. Called exactly once, without t.mon held.
func (t *Task) destroy() {
	if t.release != nil {
		t.release(t.item)
	}
	if t.result != nil && !t.panicked && t.releaseResult != nil {
		t.releaseResult(t.result)
	}
	t.item = nil
	t.result = nil

	t.sched.observeDestroyed()
	if t.policy.detached() {
		t.sched.detached.done()
		t.sched.observeDetached(-1)
	}
}
