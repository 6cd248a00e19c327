package sweep

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalGuard_PreventsOverlap(t *testing.T) {
	g := NewLocalGuard()
	ctx := context.Background()

	require.True(t, g.TryLock(ctx, "accrual", time.Minute))
	assert.False(t, g.TryLock(ctx, "accrual", time.Minute))

	// Independent names do not contend.
	assert.True(t, g.TryLock(ctx, "unlock", time.Minute))

	g.Unlock(ctx, "accrual")
	assert.True(t, g.TryLock(ctx, "accrual", time.Minute))
}

func TestRunner_GuardedRun(t *testing.T) {
	r := NewRunner(NewLocalGuard())

	var runs atomic.Int64
	job := Job{
		Name:     "test",
		Interval: time.Minute,
		Run: func(ctx context.Context, now time.Time) error {
			runs.Add(1)
			return nil
		},
	}

	r.runOnce(context.Background(), job, time.Now())
	r.runOnce(context.Background(), job, time.Now())
	assert.Equal(t, int64(2), runs.Load())
}

func TestRunner_SkipsWhileHeld(t *testing.T) {
	guard := NewLocalGuard()
	r := NewRunner(guard)

	// Simulate a run still in progress.
	require.True(t, guard.TryLock(context.Background(), "busy", time.Minute))

	var runs atomic.Int64
	job := Job{
		Name:     "busy",
		Interval: time.Minute,
		Run: func(ctx context.Context, now time.Time) error {
			runs.Add(1)
			return nil
		},
	}

	r.runOnce(context.Background(), job, time.Now())
	assert.Equal(t, int64(0), runs.Load(), "run must be skipped while guard is held")
}

func TestRunner_RecoversPanicAndReleasesGuard(t *testing.T) {
	guard := NewLocalGuard()
	r := NewRunner(guard)

	job := Job{
		Name:     "panicky",
		Interval: time.Minute,
		Run: func(ctx context.Context, now time.Time) error {
			panic("boom")
		},
	}

	r.runOnce(context.Background(), job, time.Now())

	// The guard must have been released despite the panic.
	assert.True(t, guard.TryLock(context.Background(), "panicky", time.Minute))
}

func TestRunner_ErrorDoesNotWedgeGuard(t *testing.T) {
	guard := NewLocalGuard()
	r := NewRunner(guard)

	job := Job{
		Name:     "failing",
		Interval: time.Minute,
		Run: func(ctx context.Context, now time.Time) error {
			return errors.New("db down")
		},
	}

	r.runOnce(context.Background(), job, time.Now())
	assert.True(t, guard.TryLock(context.Background(), "failing", time.Minute))
}
