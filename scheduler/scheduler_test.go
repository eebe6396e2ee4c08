package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJobsRunPeriodically(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	s := New()
	s.Add("counter", 10*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})
	s.Start(ctx)

	assert.Eventually(t, func() bool { return runs.Load() >= 3 },
		time.Second, 5*time.Millisecond)
}

func TestSlowJobNeverOverlapsItself(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var inFlight atomic.Int32
	var overlapped atomic.Bool
	s := New()
	s.Add("slow", 5*time.Millisecond, func(ctx context.Context) error {
		if inFlight.Add(1) > 1 {
			overlapped.Store(true)
		}
		time.Sleep(30 * time.Millisecond)
		inFlight.Add(-1)
		return nil
	})
	s.Start(ctx)

	time.Sleep(150 * time.Millisecond)
	assert.False(t, overlapped.Load(), "ticks that fire mid-run must be skipped")
}

func TestJobsStopOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var runs atomic.Int32
	s := New()
	s.Add("counter", 5*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})
	s.Start(ctx)

	assert.Eventually(t, func() bool { return runs.Load() >= 1 },
		time.Second, time.Millisecond)
	cancel()

	time.Sleep(20 * time.Millisecond)
	settled := runs.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, runs.Load(), "no runs after cancellation")
}

func TestFailingJobKeepsTicking(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	s := New()
	s.Add("flaky", 5*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return assert.AnError
	})
	s.Start(ctx)

	assert.Eventually(t, func() bool { return runs.Load() >= 3 },
		time.Second, time.Millisecond)
}
