package reconcile_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"retroboard/internal/reconcile"

	"github.com/stretchr/testify/assert"
)

func TestRepeatTask_FiresImmediatelyThenOnInterval(t *testing.T) {
	var calls atomic.Int64
	task := reconcile.StartRepeat(context.Background(), 20*time.Millisecond, func() {
		calls.Add(1)
	})

	time.Sleep(110 * time.Millisecond)
	task.Stop()

	got := calls.Load()
	assert.GreaterOrEqual(t, got, int64(3))
	assert.LessOrEqual(t, got, int64(7))
}

func TestRepeatTask_StopHaltsCalls(t *testing.T) {
	var calls atomic.Int64
	task := reconcile.StartRepeat(context.Background(), 10*time.Millisecond, func() {
		calls.Add(1)
	})
	task.Stop()

	settled := calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, calls.Load())
}

func TestRepeatTask_StopIsIdempotent(t *testing.T) {
	task := reconcile.StartRepeat(context.Background(), 10*time.Millisecond, func() {})
	task.Stop()
	task.Stop() // second release path must not panic or block
}

func TestRepeatTask_ContextCancelReclaimsTask(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int64
	reconcile.StartRepeat(ctx, 10*time.Millisecond, func() {
		calls.Add(1)
	})

	cancel()
	time.Sleep(30 * time.Millisecond)
	settled := calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, calls.Load())
}
