/*
Package asynctask is a task scheduler and future manager built on a fixed pool
of worker goroutines.

A caller submits a work item and gets back a *Task handle. The task runs on a
pool worker, on a dedicated goroutine, or inline on the first goroutine that
waits for it while it is still pending, whichever claims it first. Every task
runs at most once.

Basic usage:

	s, err := asynctask.NewStarted(asynctask.Config{Workers: 4})
	if err != nil {
		return err
	}
	defer s.Terminate()

	t, err := s.Go(func() any { return compute() })
	if err != nil {
		return err
	}
	defer t.Release()

	result := t.Result()

Ownership:

A task carries two references, one for the scheduler and one for the caller's
handle. Release gives back the caller's reference; the task is destroyed, and
the release callbacks registered with WithRelease and WithResultRelease run,
when both are gone. Releasing a task that has not started cancels it unless it
was submitted with AfterReleased. Using a handle after Release, or releasing it
twice, aborts the process through syncx.Fatalf.

Policies:

	Dedicated()          run on a fresh goroutine instead of the pool queue
	AfterReleased()      keep a pending task alive after its handle is released

A task with both policies is fire-and-forget: Terminate waits for it to finish
before shutting the pool down, and it may keep submitting work until then.

Runners:

Work items are opaque to the scheduler. Config.Runner is the single function
that executes them; DefaultRunner handles func() any, func() and Runnable.
Closures passed to Go always run directly.

Shutdown:

Terminate waits for fire-and-forget tasks, stops the queue, lets the workers
drain it and cancels anything left. A process-wide scheduler is available
through Init, Default and Shutdown.
*/
package asynctask
