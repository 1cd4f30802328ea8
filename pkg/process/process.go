// Package process waits for child processes with an optional timeout.
//
// Start launches a command and reaps it in the background; Wait blocks on the
// reaper instead of polling the child, so a bounded wait costs nothing while
// the child runs. A wait that times out leaves the child running and can be
// retried.
package process

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"

	artcontext "github.com/vnykmshr/asyncrt/pkg/common/context"
	arterrors "github.com/vnykmshr/asyncrt/pkg/common/errors"
	"github.com/vnykmshr/asyncrt/pkg/metrics"
	"github.com/vnykmshr/asyncrt/pkg/scheduling/asynctask"
)

// NoTimeout makes Wait block until the child exits or ctx is done.
const NoTimeout time.Duration = -1

// Status describes how a child process ended.
type Status struct {
	Pid int

	// Exited is set when the child called exit; ExitCode holds its status.
	Exited   bool
	ExitCode int

	// Signaled is set when the child was terminated by Signal.
	Signaled bool
	Signal   syscall.Signal

	Duration time.Duration
}

func (s Status) String() string {
	switch {
	case s.Exited:
		return fmt.Sprintf("pid %d exited with status %d", s.Pid, s.ExitCode)
	case s.Signaled:
		return fmt.Sprintf("pid %d terminated by signal %v", s.Pid, s.Signal)
	default:
		return fmt.Sprintf("pid %d ended", s.Pid)
	}
}

// Config configures how processes are reaped and observed.
type Config struct {
	// Scheduler runs reapers as fire-and-forget dedicated tasks, so that
	// terminating the scheduler waits for every started child. Nil reaps on
	// a plain goroutine.
	Scheduler *asynctask.Scheduler

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Metrics enables instrumentation when non-nil.
	Metrics *metrics.Registry
}

// Process is a started child process.
type Process struct {
	cmd     *exec.Cmd
	start   time.Time
	done    chan struct{}
	state   *os.ProcessState
	err     error
	logger  *slog.Logger
	metrics *metrics.Registry
}

// Start starts cmd and begins reaping it.
func Start(cmd *exec.Cmd, config Config) (*Process, error) {
	if cmd == nil {
		return nil, arterrors.NewValidationError("process", "cmd", nil, "cannot be nil")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := cmd.Start(); err != nil {
		return nil, arterrors.NewOperationError("process", "Start", err).WithContext(cmd.Path)
	}

	p := &Process{
		cmd:     cmd,
		start:   time.Now(),
		done:    make(chan struct{}),
		logger:  logger.With("component", "process", "pid", cmd.Process.Pid),
		metrics: config.Metrics,
	}
	p.logger.Debug("process started", "path", cmd.Path)

	if config.Scheduler == nil {
		go p.reap()
		return p, nil
	}
	task, err := config.Scheduler.Go(func() any {
		p.reap()
		return nil
	}, asynctask.Dedicated(), asynctask.AfterReleased())
	if err != nil {
		// The child is already running; it still has to be reaped.
		go p.reap()
		return p, nil
	}
	task.Release()
	return p, nil
}

func (p *Process) reap() {
	err := p.cmd.Wait()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		err = nil
	}
	p.state = p.cmd.ProcessState
	p.err = err
	close(p.done)
}

// Pid returns the child's process id.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Done is closed once the child has been reaped.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Kill sends SIGKILL to the child.
func (p *Process) Kill() error {
	return p.cmd.Process.Kill()
}

// Wait blocks until the child ends, timeout elapses or ctx is done.
// A negative timeout waits without limit and a zero timeout only checks.
// On timeout the error wraps ErrTimeout and the child keeps running.
func (p *Process) Wait(ctx context.Context, timeout time.Duration) (Status, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	began := time.Now()

	if timeout == 0 {
		select {
		case <-p.done:
			return p.finish(began)
		default:
			return p.timedOut(began, timeout)
		}
	}

	waitCtx, cancel := artcontext.WithOptionalTimeout(ctx, timeout)
	defer cancel()

	select {
	case <-p.done:
		return p.finish(began)
	case <-waitCtx.Done():
		if !artcontext.IsCanceled(ctx) && artcontext.IsTimedOut(waitCtx) {
			return p.timedOut(began, timeout)
		}
		p.observe("canceled", began)
		return Status{Pid: p.Pid()}, ctx.Err()
	}
}

func (p *Process) finish(began time.Time) (Status, error) {
	st := Status{Pid: p.Pid(), Duration: time.Since(p.start)}
	if p.err != nil {
		p.observe("failed", began)
		p.logger.Warn("process wait failed", "error", p.err)
		return st, arterrors.NewOperationError("process", "Wait", p.err)
	}

	if ws, ok := p.state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		st.Signaled = true
		st.Signal = ws.Signal()
		p.observe("signaled", began)
		p.logger.Debug("process terminated by signal", "signal", st.Signal)
		return st, nil
	}
	st.Exited = true
	st.ExitCode = p.state.ExitCode()
	p.observe("exited", began)
	p.logger.Debug("process exited", "status", st.ExitCode)
	return st, nil
}

func (p *Process) timedOut(began time.Time, timeout time.Duration) (Status, error) {
	p.observe("timeout", began)
	return Status{Pid: p.Pid()}, arterrors.NewOperationError("process", "Wait", arterrors.ErrTimeout).
		WithContext(fmt.Sprintf("pid %d still running after %v", p.Pid(), timeout))
}

func (p *Process) observe(outcome string, began time.Time) {
	if p.metrics == nil {
		return
	}
	p.metrics.ProcessWaits.WithLabelValues(outcome).Inc()
	p.metrics.ProcessWaitDuration.Observe(time.Since(began).Seconds())
}

// Run starts cmd and waits for it.
func Run(ctx context.Context, cmd *exec.Cmd, timeout time.Duration, config Config) (*Process, Status, error) {
	p, err := Start(cmd, config)
	if err != nil {
		return nil, Status{}, err
	}
	st, err := p.Wait(ctx, timeout)
	return p, st, err
}
