package periodic

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vnykmshr/asyncrt/internal/testutil"
	arterrors "github.com/vnykmshr/asyncrt/pkg/common/errors"
	"github.com/vnykmshr/asyncrt/pkg/metrics"
	"github.com/vnykmshr/asyncrt/pkg/scheduling/asynctask"
)

func newPlanner(t *testing.T) (*Planner, *asynctask.Scheduler, *metrics.Registry) {
	t.Helper()
	reg := metrics.NewRegistry(prometheus.NewRegistry())
	s, err := asynctask.NewStarted(asynctask.Config{Name: "periodic-test", Workers: 2})
	testutil.AssertNoError(t, err)

	p, err := New(Config{Scheduler: s, TickInterval: 5 * time.Millisecond, Metrics: reg})
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, p.Start())

	t.Cleanup(func() {
		p.Stop()
		if s.State() == asynctask.Started {
			_ = s.Terminate()
		}
	})
	return p, s, reg
}

func TestNewRequiresScheduler(t *testing.T) {
	_, err := New(Config{})
	testutil.AssertEqual(t, arterrors.IsValidationError(err), true)
}

func TestOneShotEntries(t *testing.T) {
	p, _, reg := newPlanner(t)

	var runs int32
	work := func() { atomic.AddInt32(&runs, 1) }

	testutil.AssertNoError(t, p.At("now", work, time.Now()))
	testutil.AssertNoError(t, p.After("later", work, 20*time.Millisecond))

	testutil.WaitForInt32(t, &runs, 2, time.Second)
	testutil.AssertEventually(t, func() bool { return len(p.List()) == 0 })
	testutil.AssertEventually(t, func() bool {
		return promtestutil.ToFloat64(reg.PeriodicSubmissions.WithLabelValues("later")) == 1
	})
}

func TestEveryRepeats(t *testing.T) {
	p, _, _ := newPlanner(t)

	var runs int32
	testutil.AssertNoError(t, p.Every("tick", func() { atomic.AddInt32(&runs, 1) }, 10*time.Millisecond))

	testutil.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 3 }, time.Second, time.Millisecond)
	testutil.AssertEqual(t, p.Cancel("tick"), true)
	testutil.AssertEqual(t, p.Cancel("tick"), false)
}

func TestCronEntry(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for a cron second boundary")
	}
	p, _, _ := newPlanner(t)

	var runs int32
	testutil.AssertNoError(t, p.Cron("every-second", "* * * * * *", func() { atomic.AddInt32(&runs, 1) }))

	next, err := p.Next("every-second")
	testutil.AssertNoError(t, err)
	if time.Until(next) > time.Second {
		t.Fatalf("next run %v is more than a second away", next)
	}
	testutil.WaitForInt32(t, &runs, 1, 3*time.Second)

	list := p.List()
	testutil.AssertEqual(t, len(list), 1)
	testutil.AssertEqual(t, list[0].Cron, "* * * * * *")
}

func TestValidation(t *testing.T) {
	p, _, _ := newPlanner(t)
	work := func() {}

	tests := []struct {
		name string
		err  error
	}{
		{"empty id", p.At("", work, time.Now())},
		{"nil item", p.At("x", nil, time.Now())},
		{"zero time", p.At("x", work, time.Time{})},
		{"bad interval", p.Every("x", work, 0)},
		{"empty cron", p.Cron("x", "", work)},
		{"bad cron", p.Cron("x", "not a cron", work)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertEqual(t, arterrors.IsValidationError(tt.err), true)
		})
	}

	testutil.AssertNoError(t, p.Validate("@hourly"))
	testutil.AssertNoError(t, p.Validate("0 9 * * MON-FRI"))
	testutil.AssertError(t, p.Validate("61 * * * *"))
}

func TestDuplicateAndMissing(t *testing.T) {
	p, _, _ := newPlanner(t)
	work := func() {}

	testutil.AssertNoError(t, p.After("dup", work, time.Hour))
	if err := p.After("dup", work, time.Hour); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("got %v, want ErrDuplicateID", err)
	}
	if _, err := p.Next("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}

	p.CancelAll()
	testutil.AssertEqual(t, len(p.List()), 0)
}

func TestStartTwice(t *testing.T) {
	p, _, _ := newPlanner(t)
	if err := p.Start(); !errors.Is(err, arterrors.ErrInvalidState) {
		t.Fatalf("got %v, want ErrInvalidState", err)
	}
}

func TestSubmissionToTerminatedSchedulerIsCounted(t *testing.T) {
	p, s, reg := newPlanner(t)
	testutil.AssertNoError(t, s.Terminate())

	testutil.AssertNoError(t, p.At("late", func() {}, time.Now()))
	testutil.AssertEventually(t, func() bool {
		return promtestutil.ToFloat64(reg.PeriodicErrors.WithLabelValues("late")) == 1
	})
}

func TestDedicatedOption(t *testing.T) {
	p, s, _ := newPlanner(t)

	var runs int32
	testutil.AssertNoError(t, p.At("ded", func() { atomic.AddInt32(&runs, 1) }, time.Now(), asynctask.Dedicated()))
	testutil.WaitForInt32(t, &runs, 1, time.Second)

	p.Stop()
	testutil.AssertNoError(t, s.Terminate())
	testutil.AssertEqual(t, s.Detached(), int64(0))
}
