/*
Package scheduling groups the task execution packages of asyncrt.

  - asynctask: Fixed worker pool, task handles with results, inline waits and
    fire-and-forget dedicated tasks
  - syncvar: Shared values guarded by a monitor, with retain/release callbacks
  - periodic: Time and cron based submission into an asynctask scheduler

Task scheduler:

	s, err := asynctask.NewStarted(asynctask.Config{Workers: 4})
	if err != nil {
		return err
	}
	defer s.Terminate()

	t, _ := s.Go(func() any { return work() })
	result := t.Result()
	t.Release()

Shared vars:

	ready := syncvar.New(false)
	go func() { ready.Set(true) }()
	ready.WaitUntil(ctx, func(v any) bool { return v.(bool) })

Periodic submission:

	planner, _ := periodic.New(periodic.Config{Scheduler: s})
	planner.Start()
	defer planner.Stop()
	planner.Cron("nightly", "0 2 * * *", compact)

All components are safe for concurrent use. Runtime invariant violations,
such as releasing a task twice, abort the process through syncx.Fatalf.
*/
package scheduling
