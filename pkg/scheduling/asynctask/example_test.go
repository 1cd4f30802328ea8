package asynctask_test

import (
	"fmt"
	"log"
	"strings"
	"sync/atomic"

	"github.com/vnykmshr/asyncrt/pkg/scheduling/asynctask"
)

// Example demonstrates submitting a task and reading its result.
func Example() {
	s, err := asynctask.NewStarted(asynctask.Config{Workers: 2})
	if err != nil {
		log.Fatal(err)
	}
	defer s.Terminate()

	task, err := s.Go(func() any { return 6 * 7 })
	if err != nil {
		log.Fatal(err)
	}
	defer task.Release()

	fmt.Println(task.Result())
	// Output: 42
}

// Example_fireAndForget shows a dedicated task that outlives its handle.
// Terminate does not return before it has finished.
func Example_fireAndForget() {
	s, err := asynctask.NewStarted(asynctask.Config{Workers: 1})
	if err != nil {
		log.Fatal(err)
	}

	var flushed atomic.Bool
	task, err := s.Go(func() any {
		flushed.Store(true)
		return nil
	}, asynctask.Dedicated(), asynctask.AfterReleased())
	if err != nil {
		log.Fatal(err)
	}
	task.Release()

	if err := s.Terminate(); err != nil {
		log.Fatal(err)
	}
	fmt.Println("flushed:", flushed.Load())
	// Output: flushed: true
}

// Example_customRunner routes opaque work items through a single runner.
func Example_customRunner() {
	s, err := asynctask.NewStarted(asynctask.Config{
		Workers: 1,
		Runner: func(item any) any {
			return strings.ToUpper(item.(string))
		},
	})
	if err != nil {
		log.Fatal(err)
	}
	defer s.Terminate()

	task, err := s.Submit("hello")
	if err != nil {
		log.Fatal(err)
	}
	defer task.Release()

	fmt.Println(task.Result())
	// Output: HELLO
}

// Example_release shows the release callback receiving the work item once
// the task is gone.
func Example_release() {
	s, err := asynctask.NewStarted(asynctask.Config{Workers: 1})
	if err != nil {
		log.Fatal(err)
	}

	task, err := s.Submit(func() any { return "payload" },
		asynctask.WithResultRelease(func(r any) { fmt.Println("released", r) }),
	)
	if err != nil {
		log.Fatal(err)
	}
	task.Wait()
	task.Release()

	_ = s.Terminate()
	// Output: released payload
}
