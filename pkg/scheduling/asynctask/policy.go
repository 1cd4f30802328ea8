package asynctask

import "strings"

// Policy selects how a task is executed. Policies combine as a bitset.
type Policy uint8

const (
	// RunOnDedicatedThread runs the task on its own goroutine instead of the
	// shared pool queue.
	RunOnDedicatedThread Policy = 1 << iota

	// RunAfterReleased keeps a pending task alive after its handle is
	// released, so it still runs. Combined with RunOnDedicatedThread the
	// task is also tracked by the scheduler's termination counter and
	// Terminate waits for it.
	RunAfterReleased
)

// Has reports whether every bit of flag is set in p.
func (p Policy) Has(flag Policy) bool {
	return p&flag == flag
}

// detached reports whether the task outlives its handle on a dedicated
// goroutine and therefore holds a slot in the termination counter.
func (p Policy) detached() bool {
	return p.Has(RunOnDedicatedThread | RunAfterReleased)
}

func (p Policy) String() string {
	var parts []string
	if p.Has(RunOnDedicatedThread) {
		parts = append(parts, "dedicated")
	} else {
		parts = append(parts, "pool")
	}
	if p.Has(RunAfterReleased) {
		parts = append(parts, "after_released")
	}
	return strings.Join(parts, "+")
}

// Status is the lifecycle position of a task. It only moves forward:
// Waiting, then Running, then Completed. A task released before it was
// claimed goes straight from Waiting to Completed without running.
type Status uint8

const (
	Waiting Status = iota
	Running
	Completed
)

func (s Status) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Running:
		return "running"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// execPath names who claimed a task; used for logs and metrics.
type execPath string

const (
	pathWorker    execPath = "worker"
	pathInline    execPath = "inline"
	pathDedicated execPath = "dedicated"
)
