package asynctask

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/asyncrt/internal/testutil"
	"github.com/vnykmshr/asyncrt/pkg/metrics"
	"github.com/vnykmshr/asyncrt/pkg/runtime/syncx"
)

// job is a hashable work item that counts its runs.
type job struct {
	id    int
	runs  atomic.Int32
	delay time.Duration
	hook  func()
}

func (j *job) Run() any {
	j.runs.Add(1)
	if j.hook != nil {
		j.hook()
	}
	if j.delay > 0 {
		time.Sleep(j.delay)
	}
	return j.id * 10
}

// newTestScheduler starts a scheduler with its own metrics registry and
// terminates it when the test ends, unless the test already did.
func newTestScheduler(t *testing.T, workers int) (*Scheduler, *metrics.Registry) {
	t.Helper()
	reg := metrics.NewRegistry(prometheus.NewRegistry())
	s, err := NewStarted(Config{Name: "test", Workers: workers, Metrics: reg})
	testutil.AssertNoError(t, err)
	t.Cleanup(func() {
		if s.State() == Started {
			_ = s.Terminate()
		}
	})
	return s, reg
}

// occupy parks one pool worker until the returned func is called.
func occupy(t *testing.T, s *Scheduler) func() {
	t.Helper()
	started := make(chan struct{})
	gate := make(chan struct{})
	task, err := s.Go(func() any {
		close(started)
		<-gate
		return nil
	})
	testutil.AssertNoError(t, err)
	testutil.WaitClosed(t, started, testutil.TestTimeout)
	return func() {
		close(gate)
		task.Wait()
		task.Release()
	}
}

// expectFatal runs fn with a panicking fatal handler and returns the
// diagnostic it produced.
func expectFatal(t *testing.T, fn func()) string {
	t.Helper()
	var msg string
	restore := syncx.SetFatalHandler(func(m string) {
		msg = m
		panic(fmt.Sprintf("fatal: %s", m))
	})
	defer restore()

	func() {
		defer func() { _ = recover() }()
		fn()
	}()
	if msg == "" {
		t.Fatal("expected fatal error")
	}
	return msg
}
