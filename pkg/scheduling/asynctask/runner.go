package asynctask

import (
	"fmt"
)

// RunFunc is the single entry point that executes a work item and returns
// its opaque result. The scheduler never inspects the item itself.
type RunFunc func(item any) any

// Runnable is a work item that knows how to run itself.
type Runnable interface {
	Run() any
}

// closure marks items submitted through Go; they bypass the configured runner.
type closure func() any

// DefaultRunner runs Runnable values and plain functions.
// Items of any other type must be paired with a custom RunFunc.
func DefaultRunner(item any) any {
	switch v := item.(type) {
	case Runnable:
		return v.Run()
	case func() any:
		return v()
	case func():
		v()
		return nil
	default:
		panic(fmt.Sprintf("asynctask: no runner for work item of type %T", item))
	}
}

func defaultRunnable(item any) bool {
	switch item.(type) {
	case Runnable, func() any, func():
		return true
	default:
		return false
	}
}

// PanicError is stored as a task's result when its payload panics.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v\nStack trace:\n%s", e.Value, e.Stack)
}
