package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWaits(t *testing.T) {
	p := NewPool(2)
	defer p.Stop()

	var got int
	require.NoError(t, p.Run(context.Background(), func() { got = 42 }))
	assert.Equal(t, 42, got)
}

func TestRunBoundsConcurrency(t *testing.T) {
	p := NewPool(2)
	defer p.Stop()

	var running, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Run(context.Background(), func() {
				n := atomic.AddInt32(&running, 1)
				for {
					old := atomic.LoadInt32(&peak)
					if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&running, -1)
			})
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestRunSkipsWorkWhenContextEnds(t *testing.T) {
	p := NewPool(1)
	defer p.Stop()

	release := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), func() { <-release }))

	ctx, cancel := context.WithCancel(context.Background())
	var ran int32
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx, func() { atomic.StoreInt32(&ran, 1) }) }()

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
	close(release)

	// queued behind the skipped task on the only worker
	require.NoError(t, p.Run(context.Background(), func() {}))
	assert.Zero(t, atomic.LoadInt32(&ran))
}

func TestStopDrainsQueuedTasks(t *testing.T) {
	p := NewPool(1)
	var ran int32
	for i := 0; i < 10; i++ {
		require.NoError(t, p.Submit(context.Background(), func() { atomic.AddInt32(&ran, 1) }))
	}
	p.Stop()
	p.Stop()
	assert.Equal(t, int32(10), atomic.LoadInt32(&ran))
}

func TestSubmitAfterStop(t *testing.T) {
	p := NewPool(1)
	p.Stop()

	assert.ErrorIs(t, p.Submit(context.Background(), func() {}), ErrStopped)
	assert.ErrorIs(t, p.Run(context.Background(), func() {}), ErrStopped)
}
