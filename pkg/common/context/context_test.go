package context

import (
	"context"
	"testing"
	"time"
)

func TestWithOptionalTimeout(t *testing.T) {
	t.Run("zero timeout has no deadline", func(t *testing.T) {
		ctx, cancel := WithOptionalTimeout(context.Background(), 0)
		defer cancel()

		if _, ok := ctx.Deadline(); ok {
			t.Fatal("expected no deadline")
		}
		if IsCanceled(ctx) {
			t.Fatal("fresh context should not be canceled")
		}
		cancel()
		if !IsCanceled(ctx) {
			t.Fatal("context should be canceled after cancel()")
		}
		if IsTimedOut(ctx) {
			t.Fatal("explicit cancel is not a timeout")
		}
	})

	t.Run("positive timeout expires", func(t *testing.T) {
		ctx, cancel := WithOptionalTimeout(nil, 10*time.Millisecond) //nolint:staticcheck
		defer cancel()

		<-ctx.Done()
		if !IsTimedOut(ctx) {
			t.Fatalf("expected deadline exceeded, got %v", ctx.Err())
		}
	})
}
