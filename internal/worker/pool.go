package worker

import (
	"context"
	"errors"
	"sync"
)

// ErrStopped is returned for work handed to a pool after Stop.
var ErrStopped = errors.New("worker pool stopped")

type task func()

// Pool runs tasks on a fixed set of goroutines. Batch transitions run on it,
// which caps how many of them hold store connections at once.
type Pool struct {
	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool
	jobs    chan task
}

func NewPool(n int) *Pool {
	if n < 1 {
		n = 1
	}
	p := &Pool{jobs: make(chan task, 1024)}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				job()
			}
		}()
	}
	return p
}

// Submit queues f. It blocks while the queue is full, until ctx is done.
func (p *Pool) Submit(ctx context.Context, f task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrStopped
	}
	select {
	case p.jobs <- f:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes f on the pool and waits for it. When ctx ends first Run
// returns ctx.Err(); f is skipped if it has not started yet.
func (p *Pool) Run(ctx context.Context, f func()) error {
	done := make(chan struct{})
	var skipped error
	err := p.Submit(ctx, func() {
		defer close(done)
		if skipped = ctx.Err(); skipped != nil {
			return
		}
		f()
	})
	if err != nil {
		return err
	}
	select {
	case <-done:
		return skipped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop drains queued tasks and waits for the workers. Later Submit and Run
// calls get ErrStopped.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.jobs)
	}
	p.mu.Unlock()
	p.wg.Wait()
}
