package asynctask

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	arterrors "github.com/vnykmshr/asyncrt/pkg/common/errors"
	"github.com/vnykmshr/asyncrt/pkg/common/validation"
	"github.com/vnykmshr/asyncrt/pkg/metrics"
	"github.com/vnykmshr/asyncrt/pkg/sysinfo"
)

// State is the lifecycle position of a Scheduler.
type State int32

const (
	Uninitialized State = iota
	Started
	Terminating
	Terminated
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Started:
		return "running"
	case Terminating:
		return "terminating"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Config holds configuration options for creating a scheduler.
type Config struct {
	// Name labels logs and metrics. Defaults to "default".
	Name string

	// Workers is the number of pool workers. Zero means one per logical CPU,
	// sampled once when the scheduler is created.
	Workers int

	// Runner executes work items. Nil means DefaultRunner, in which case
	// Submit rejects items DefaultRunner cannot run.
	Runner RunFunc

	// LockOSThread pins each dedicated-goroutine task to its own OS thread
	// for the duration of the payload.
	LockOSThread bool

	// Logger receives lifecycle and panic logs. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics enables Prometheus instrumentation when non-nil.
	Metrics *metrics.Registry

	// PanicHandler is called when a payload panics, after the panic has been
	// recovered and before the task is marked completed.
	PanicHandler func(task *Task, recovered any)

	// OnWorkerStart is called when a pool worker starts.
	OnWorkerStart func(workerID int)

	// OnWorkerStop is called when a pool worker exits.
	OnWorkerStop func(workerID int)
}

// Scheduler owns a fixed pool of worker goroutines, the shared task queue
// and the termination counter for run-after-released dedicated tasks.
//
// Lock order: the lifecycle lock (mu) may be held while pushing to the
// queue; task, queue and counter monitors are never nested.
type Scheduler struct {
	config  Config
	name    string
	workers int
	runner  RunFunc
	logger  *slog.Logger
	metrics *metrics.Registry

	mu        sync.RWMutex
	state     State
	accepting bool

	queue    taskQueue
	detached drainCounter
	wg       sync.WaitGroup
	nextID   atomic.Uint64
}

// New validates config and returns an unstarted scheduler.
func New(config Config) (*Scheduler, error) {
	if err := validation.ValidateNonNegative("asynctask", "workers", config.Workers); err != nil {
		return nil, err
	}

	name := config.Name
	if name == "" {
		name = "default"
	}
	workers := config.Workers
	if workers == 0 {
		workers = sysinfo.LogicalCPUs()
	}
	runner := config.Runner
	if runner == nil {
		runner = DefaultRunner
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		config:  config,
		name:    name,
		workers: workers,
		runner:  runner,
		logger:  logger.With("component", "asynctask", "scheduler", name),
		metrics: config.Metrics,
	}, nil
}

// Start spawns the pool workers.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Uninitialized {
		return fmt.Errorf("cannot start scheduler %q in state %s: %w", s.name, s.state, arterrors.ErrInvalidState)
	}
	s.state = Started
	s.accepting = true

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.work(i)
	}
	s.observeWorkers(s.workers)
	s.logger.Info("scheduler started", "workers", s.workers)
	return nil
}

// NewStarted is New followed by Start.
func NewStarted(config Config) (*Scheduler, error) {
	s, err := New(config)
	if err != nil {
		return nil, err
	}
	if err := s.Start(); err != nil {
		return nil, err
	}
	return s, nil
}

// Submit creates a task for item and schedules it according to opts.
// The returned handle holds one reference that the caller must Release.
func (s *Scheduler) Submit(item any, opts ...Option) (*Task, error) {
	if item == nil {
		return nil, arterrors.NewValidationError("asynctask", "item", nil, "cannot be nil")
	}
	if s.config.Runner == nil && !defaultRunnable(item) {
		if _, ok := item.(closure); !ok {
			return nil, arterrors.NewValidationError("asynctask", "item", fmt.Sprintf("%T", item), "not runnable by DefaultRunner").
				WithHint("pass a func() any, func(), Runnable, or configure Config.Runner")
		}
	}

	var o taskOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.accepting {
		return nil, arterrors.NewOperationError("asynctask", "Submit", arterrors.ErrClosed).
			WithContext(fmt.Sprintf("scheduler %q is %s", s.name, s.state))
	}

	t := newTask(s, s.nextID.Add(1), item, o)
	s.observeCreated(o.policy)

	if o.policy.Has(RunOnDedicatedThread) {
		if o.policy.detached() {
			// Count before the goroutine exists so Terminate cannot miss it.
			s.detached.add()
			s.observeDetached(1)
		}
		go s.dedicated(t)
		return t, nil
	}

	s.queue.push(t)
	s.observeQueue()
	return t, nil
}

// Go submits a closure. Closures bypass Config.Runner.
func (s *Scheduler) Go(fn func() any, opts ...Option) (*Task, error) {
	if fn == nil {
		return nil, arterrors.NewValidationError("asynctask", "fn", nil, "cannot be nil")
	}
	return s.Submit(closure(fn), opts...)
}

// Terminate shuts the scheduler down:
//  1. waits for every run-after-released dedicated task to finish,
//  2. stops accepting work and terminates the queue,
//  3. joins the workers, which drain whatever is still queued,
//  4. cancels and releases anything left behind.
//
// Work may still be submitted while step 1 is in progress.
func (s *Scheduler) Terminate() error {
	s.mu.Lock()
	switch s.state {
	case Started:
	case Uninitialized:
		s.mu.Unlock()
		return fmt.Errorf("cannot terminate scheduler %q before it is started: %w", s.name, arterrors.ErrInvalidState)
	default:
		state := s.state
		s.mu.Unlock()
		return arterrors.NewOperationError("asynctask", "Terminate", arterrors.ErrClosed).
			WithContext(fmt.Sprintf("scheduler %q is %s", s.name, state))
	}
	s.state = Terminating
	s.mu.Unlock()

	s.logger.Info("scheduler terminating", "detached", s.detached.load())
	// Submit registers detached tasks while holding the read lock, so a zero
	// observed under the write lock cannot be raised again.
	for {
		s.detached.wait()
		s.mu.Lock()
		if s.detached.load() == 0 {
			s.accepting = false
			s.mu.Unlock()
			break
		}
		s.mu.Unlock()
	}

	s.queue.terminate()
	s.wg.Wait()
	s.observeWorkers(0)

	// Workers exit only on an empty terminated queue, so this is normally
	// empty. It still releases anything a worker could not reach.
	leftovers := s.queue.drain()
	for _, t := range leftovers {
		t.retire()
	}
	s.observeQueue()

	s.mu.Lock()
	s.state = Terminated
	s.mu.Unlock()

	s.logger.Info("scheduler terminated", "leftovers", len(leftovers))
	return nil
}

// retire drops the scheduler's reference of a task that no path will claim,
// cancelling it first if still pending.
func (t *Task) retire() {
	t.mon.Lock()
	cancelled := false
	if t.status == Waiting {
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

// work is the main loop for a pool worker.
func (s *Scheduler) work(id int) {
	defer s.wg.Done()

	if s.config.OnWorkerStart != nil {
		s.config.OnWorkerStart(id)
	}
	if s.config.OnWorkerStop != nil {
		defer s.config.OnWorkerStop(id)
	}

	for {
		t := s.queue.popOrWait()
		if t == nil {
			return
		}
		s.observeQueue()
		t.execute(pathWorker)
	}
}

// dedicated runs a task on its own goroutine.
func (s *Scheduler) dedicated(t *Task) {
	if s.config.LockOSThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}
	t.execute(pathDedicated)
}

// Name returns the scheduler's name.
func (s *Scheduler) Name() string {
	return s.name
}

// Workers returns the fixed pool size.
func (s *Scheduler) Workers() int {
	return s.workers
}

// QueueLen returns the number of tasks waiting in the shared queue.
func (s *Scheduler) QueueLen() int {
	return s.queue.len()
}

// Detached returns the number of run-after-released dedicated tasks that
// have not been destroyed yet.
func (s *Scheduler) Detached() int64 {
	return s.detached.load()
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}
