/*
Package asyncrt is a runtime support library for concurrent programs: a task
scheduler with future-style handles, and the primitives around it.

Task Scheduling (pkg/scheduling):
  - asynctask: Worker pool scheduler with task handles and results
  - syncvar: Monitor-guarded shared values
  - periodic: Interval and cron driven submission

Runtime (pkg/runtime, pkg/process, pkg/sysinfo):
  - syncx: Monitors and fail-fast error reporting
  - process: Subprocess waits with timeouts
  - sysinfo: CPU detection used to size the pool

Example usage:

	import (
		"github.com/vnykmshr/asyncrt/pkg/scheduling/asynctask"
	)

	if err := asynctask.Init(asynctask.Config{}); err != nil { // one worker per CPU
		log.Fatal(err)
	}
	defer asynctask.Shutdown()

	t, _ := asynctask.Default().Go(func() any { return compute() })
	defer t.Release()
	fmt.Println(t.Result())
*/
package asyncrt
