package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vnykmshr/asyncrt/pkg/common/validation"
	"github.com/vnykmshr/asyncrt/pkg/metrics"
	"github.com/vnykmshr/asyncrt/pkg/scheduling/asynctask"
)

// BenchConfig is the synthetic workload run by the bench command.
type BenchConfig struct {
	Tasks         int
	Workers       int
	Waiters       int
	Spin          int
	Dedicated     bool
	AfterReleased bool
	MetricsAddr   string
}

// BenchResult summarizes a bench run.
type BenchResult struct {
	Submitted int
	Executed  int64
	Cancelled int64
	Elapsed   time.Duration
}

func newBenchCommand(stdout, stderr io.Writer) *cobra.Command {
	var cfg BenchConfig
	ccmd := &cobra.Command{
		Use:   "bench",
		Short: "Run a synthetic workload through the scheduler",
		Long: `
			Submits --tasks small CPU-bound tasks, then either waits for and
			releases them from --waiters goroutines or, with --after-released,
			releases them immediately and lets Terminate drain them.
`,
		RunE: func(c *cobra.Command, args []string) error {
			logger, err := newLogger(c, stderr)
			if err != nil {
				return err
			}
			res, err := RunBench(c.Context(), cfg, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "submitted=%d executed=%d cancelled=%d elapsed=%v\n",
				res.Submitted, res.Executed, res.Cancelled, res.Elapsed)
			return nil
		},
	}

	flags := ccmd.Flags()
	flags.IntVar(&cfg.Tasks, "tasks", 10000, "Number of tasks to submit.")
	flags.IntVar(&cfg.Workers, "workers", 0, "Pool size; 0 uses one worker per logical CPU.")
	flags.IntVar(&cfg.Waiters, "waiters", 4, "Goroutines waiting on and releasing tasks.")
	flags.IntVar(&cfg.Spin, "spin", 1000, "Loop iterations per task.")
	flags.BoolVar(&cfg.Dedicated, "dedicated", false, "Run every task on its own goroutine.")
	flags.BoolVar(&cfg.AfterReleased, "after-released", false, "Release handles right away; tasks still run.")
	flags.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running.")
	return ccmd
}

// RunBench executes the workload described by cfg.
func RunBench(ctx context.Context, cfg BenchConfig, logger *slog.Logger) (BenchResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := validation.ValidatePositive("bench", "tasks", cfg.Tasks); err != nil {
		return BenchResult{}, err
	}
	if err := validation.ValidateNonNegative("bench", "spin", cfg.Spin); err != nil {
		return BenchResult{}, err
	}
	if cfg.Waiters < 1 {
		cfg.Waiters = 1
	}

	var reg *metrics.Registry
	if cfg.MetricsAddr != "" {
		promReg := prometheus.NewRegistry()
		reg = metrics.NewRegistry(promReg)
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "addr", cfg.MetricsAddr, "error", err)
			}
		}()
		defer srv.Close()
		logger.Info("serving metrics", "addr", cfg.MetricsAddr)
	}

	s, err := asynctask.NewStarted(asynctask.Config{
		Name:    "bench",
		Workers: cfg.Workers,
		Logger:  logger,
		Metrics: reg,
	})
	if err != nil {
		return BenchResult{}, err
	}

	var opts []asynctask.Option
	if cfg.Dedicated {
		opts = append(opts, asynctask.Dedicated())
	}
	if cfg.AfterReleased {
		opts = append(opts, asynctask.AfterReleased())
	}

	var executed atomic.Int64
	work := func() any {
		sum := 0
		for i := 0; i < cfg.Spin; i++ {
			sum += i
		}
		executed.Add(1)
		return sum
	}

	start := time.Now()
	tasks := make([]*asynctask.Task, 0, cfg.Tasks)
	for i := 0; i < cfg.Tasks; i++ {
		t, err := s.Go(work, opts...)
		if err != nil {
			_ = s.Terminate()
			return BenchResult{}, err
		}
		if cfg.AfterReleased {
			t.Release()
			continue
		}
		tasks = append(tasks, t)
	}

	var cancelled atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < cfg.Waiters; w++ {
		g.Go(func() error {
			for i := w; i < len(tasks); i += cfg.Waiters {
				if err := tasks[i].WaitContext(gctx); err != nil {
					return err
				}
				if tasks[i].Cancelled() {
					cancelled.Add(1)
				}
				tasks[i].Release()
			}
			return nil
		})
	}
	waitErr := g.Wait()

	if err := s.Terminate(); err != nil {
		return BenchResult{}, err
	}
	if waitErr != nil {
		return BenchResult{}, waitErr
	}

	return BenchResult{
		Submitted: cfg.Tasks,
		Executed:  executed.Load(),
		Cancelled: cancelled.Load(),
		Elapsed:   time.Since(start),
	}, nil
}
