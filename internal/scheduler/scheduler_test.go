package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	activations atomic.Int64
	closes      atomic.Int64
}

func (f *fakeSweeper) ActivateScheduled() (int, error) {
	f.activations.Add(1)
	return 0, nil
}

func (f *fakeSweeper) CloseExpired() (int, error) {
	f.closes.Add(1)
	return 0, nil
}

func TestScheduler_RunSweepsUntilCancelled(t *testing.T) {
	sweeper := &fakeSweeper{}
	s := New(sweeper, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return sweeper.activations.Load() >= 3 && sweeper.closes.Load() >= 3
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
}
