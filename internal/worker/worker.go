// Package worker provides a small fixed-size pool for dispatching
// blocking storage and filesystem calls off the interactive surface.
//
// Callers submit a function and await its single result through a
// Future. Jobs are not cancellable mid-flight: once a write transaction
// starts it runs to commit or rollback, so cancellation only abandons
// the wait, never the work.
package worker

import (
	"context"
	"sync"
)

// Pool runs submitted jobs on a fixed number of goroutines.
type Pool struct {
	jobs chan func()
	wg   sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewPool starts a pool with the given number of workers (minimum one).
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{jobs: make(chan func())}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				job()
			}
		}()
	}
	return p
}

// Close stops accepting work and waits for in-flight jobs to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}

// Future is the single-result handle for a submitted job.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Wait blocks until the job completes or ctx is done. A context error
// abandons the wait; the job itself still runs to completion.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Submit queues fn on the pool and returns its future. Submitting to a
// closed pool resolves the future with context.Canceled.
func Submit[T any](p *Pool, fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	job := func() {
		f.val, f.err = fn()
		close(f.done)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		f.err = context.Canceled
		close(f.done)
		return f
	}
	// The send stays under the lock so Close can never close the channel
	// out from under a blocked submit.
	p.jobs <- job
	return f
}
