package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/vnykmshr/asyncrt/internal/testutil"
	arterrors "github.com/vnykmshr/asyncrt/pkg/common/errors"
)

func TestRunBenchCounts(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	res, err := RunBench(context.Background(), BenchConfig{Tasks: 100, Workers: 2, Waiters: 3, Spin: 10}, logger)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, res.Submitted, 100)
	testutil.AssertEqual(t, res.Executed, int64(100))
	testutil.AssertEqual(t, res.Cancelled, int64(0))
}

func TestRunBenchAfterReleasedRunsEverything(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	res, err := RunBench(context.Background(), BenchConfig{Tasks: 100, Workers: 2, AfterReleased: true}, logger)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, res.Executed, int64(100))
}

func TestRunBenchServesMetrics(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	res, err := RunBench(context.Background(), BenchConfig{Tasks: 10, Workers: 1, MetricsAddr: "127.0.0.1:0"}, logger)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, res.Executed, int64(10))
}

func TestRunBenchRejectsBadConfig(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name  string
		cfg   BenchConfig
		field string
	}{
		{"no tasks", BenchConfig{Tasks: 0}, "tasks"},
		{"negative spin", BenchConfig{Tasks: 1, Spin: -1}, "spin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RunBench(context.Background(), tt.cfg, logger)
			var verr *arterrors.ValidationError
			testutil.AssertEqual(t, errors.As(err, &verr), true)
			testutil.AssertEqual(t, verr.Field, tt.field)
		})
	}
}
