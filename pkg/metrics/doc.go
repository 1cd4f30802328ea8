/*
Package metrics provides Prometheus instrumentation for asyncrt components.

A Registry groups every collector the runtime exports. Components take a
*Registry in their configuration; a nil registry disables instrumentation.

	reg := prometheus.NewRegistry()
	sched := asynctask.New(asynctask.Config{
		Name:    "io",
		Metrics: metrics.NewRegistry(reg),
	})

Exported series (namespace "asyncrt"):

	scheduler_tasks_created_total{scheduler,policy}
	scheduler_tasks_executed_total{scheduler,path}
	scheduler_tasks_cancelled_total{scheduler}
	scheduler_tasks_destroyed_total{scheduler}
	scheduler_task_duration_seconds{scheduler}
	scheduler_queue_depth{scheduler}
	scheduler_workers{scheduler}
	scheduler_detached_tasks{scheduler}
	scheduler_panics_total{scheduler}
	periodic_submissions_total{schedule}
	periodic_errors_total{schedule}
	process_waits_total{outcome}
	process_wait_duration_seconds
*/
package metrics
