//go:build unix

package process

import (
	"context"
	"errors"
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vnykmshr/asyncrt/internal/testutil"
	arterrors "github.com/vnykmshr/asyncrt/pkg/common/errors"
	"github.com/vnykmshr/asyncrt/pkg/metrics"
	"github.com/vnykmshr/asyncrt/pkg/scheduling/asynctask"
)

func TestRunExitStatus(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"success", []string{"-c", "exit 0"}, 0},
		{"failure", []string{"-c", "exit 3"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, st, err := Run(context.Background(), exec.Command("sh", tt.args...), NoTimeout, Config{})
			testutil.AssertNoError(t, err)
			testutil.AssertEqual(t, st.Exited, true)
			testutil.AssertEqual(t, st.Signaled, false)
			testutil.AssertEqual(t, st.ExitCode, tt.code)
		})
	}
}

func TestWaitTimeoutLeavesChildRunning(t *testing.T) {
	reg := metrics.NewRegistry(prometheus.NewRegistry())
	p, err := Start(exec.Command("sleep", "5"), Config{Metrics: reg})
	testutil.AssertNoError(t, err)

	began := time.Now()
	_, err = p.Wait(context.Background(), 30*time.Millisecond)
	if !errors.Is(err, arterrors.ErrTimeout) {
		t.Fatalf("got %v, want ErrTimeout", err)
	}
	if time.Since(began) > time.Second {
		t.Fatal("timed wait overran")
	}

	select {
	case <-p.Done():
		t.Fatal("child was reaped after a timeout")
	default:
	}

	testutil.AssertNoError(t, p.Kill())
	st, err := p.Wait(context.Background(), NoTimeout)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, st.Signaled, true)
	testutil.AssertEqual(t, st.Signal, syscall.SIGKILL)

	testutil.AssertEqual(t, promtestutil.ToFloat64(reg.ProcessWaits.WithLabelValues("timeout")), float64(1))
	testutil.AssertEqual(t, promtestutil.ToFloat64(reg.ProcessWaits.WithLabelValues("signaled")), float64(1))
}

func TestZeroTimeoutOnlyChecks(t *testing.T) {
	p, err := Start(exec.Command("sleep", "5"), Config{})
	testutil.AssertNoError(t, err)
	defer func() {
		_ = p.Kill()
		<-p.Done()
	}()

	_, err = p.Wait(context.Background(), 0)
	if !errors.Is(err, arterrors.ErrTimeout) {
		t.Fatalf("got %v, want ErrTimeout", err)
	}
}

func TestWaitContextCanceled(t *testing.T) {
	p, err := Start(exec.Command("sleep", "5"), Config{})
	testutil.AssertNoError(t, err)
	defer func() {
		_ = p.Kill()
		<-p.Done()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Wait(ctx, time.Minute)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func TestStartErrors(t *testing.T) {
	_, err := Start(nil, Config{})
	testutil.AssertEqual(t, arterrors.IsValidationError(err), true)

	_, err = Start(exec.Command("/nonexistent/binary"), Config{})
	testutil.AssertError(t, err)
}

func TestReapOnScheduler(t *testing.T) {
	s, err := asynctask.NewStarted(asynctask.Config{Workers: 1})
	testutil.AssertNoError(t, err)

	p, err := Start(exec.Command("sleep", "0.05"), Config{Scheduler: s})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, s.Detached(), int64(1))

	// Terminate waits for the reaper, so the child is gone afterwards.
	testutil.AssertNoError(t, s.Terminate())
	testutil.WaitClosed(t, p.Done(), testutil.TestTimeout)

	st, err := p.Wait(context.Background(), 0)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, st.Exited, true)
}
