package asynctask

// Option configures a task at submission time.
type Option func(*taskOptions)

type taskOptions struct {
	policy        Policy
	release       func(item any)
	releaseResult func(result any)
	retainResult  func(result any)
}

// Dedicated runs the task on its own goroutine, bypassing the pool queue.
func Dedicated() Option {
	return func(o *taskOptions) {
		o.policy |= RunOnDedicatedThread
	}
}

// AfterReleased lets the task run even if its handle is released first.
func AfterReleased() Option {
	return func(o *taskOptions) {
		o.policy |= RunAfterReleased
	}
}

// WithPolicy adds every flag of p to the task's policy.
func WithPolicy(p Policy) Option {
	return func(o *taskOptions) {
		o.policy |= p
	}
}

// WithRelease registers a callback that receives the work item exactly once,
// when the task object is destroyed.
func WithRelease(fn func(item any)) Option {
	return func(o *taskOptions) {
		o.release = fn
	}
}

// WithResultRelease registers a callback that receives the task's result
// when the task object is destroyed. It is not called if no result was
// produced (the task was cancelled or returned nil) or the payload panicked.
func WithResultRelease(fn func(result any)) Option {
	return func(o *taskOptions) {
		o.releaseResult = fn
	}
}

// WithResultRetain registers a callback invoked on the result every time
// Result hands it to a reader, so shared results can be reference counted.
// A *PanicError result from a panicking payload is not passed to it.
func WithResultRetain(fn func(result any)) Option {
	return func(o *taskOptions) {
		o.retainResult = fn
	}
}
