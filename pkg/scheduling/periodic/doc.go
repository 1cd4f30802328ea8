/*
Package periodic submits work into an asynctask scheduler on a timetable.

A Planner keeps a table of entries keyed by id. Each tick, every entry that
is due is submitted to the scheduler as a fire-and-forget task and, if it
repeats, rescheduled:

	planner, err := periodic.New(periodic.Config{Scheduler: sched})
	if err != nil {
		return err
	}
	if err := planner.Start(); err != nil {
		return err
	}
	defer planner.Stop()

	planner.After("warmup", warmCaches, 5*time.Second)
	planner.Every("heartbeat", sendHeartbeat, 30*time.Second)
	planner.Cron("report", buildReport, "0 9 * * MON-FRI")

Cron expressions are parsed with github.com/robfig/cron/v3 and may carry an
optional leading seconds field. Stop the planner before terminating the
scheduler; submissions to a terminated scheduler are dropped and counted in
asyncrt_periodic_errors_total.
*/
package periodic
