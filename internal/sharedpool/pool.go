// ============================================================================
// Scanrunner Shared Worker Pool
// ============================================================================
//
// Package: internal/sharedpool
// File: pool.go
// Purpose: Fixed-size goroutine pool shared across every module
//
// A fixed number of goroutines drain a shared task channel, with a
// sync.WaitGroup tracking in-flight work for graceful shutdown. Tasks are
// bare closures, since this runtime schedules heterogeneous module-handler
// invocations rather than one typed job shape.
//
// ============================================================================

package sharedpool

import (
	"context"
	"sync"
)

// task is one unit of work queued on the pool.
type task struct {
	fn func(ctx context.Context)
}

// Pool is a fixed-size shared goroutine pool. One Pool instance backs every
// module of a given kind (main pool, internal pool) for a scan.
type Pool struct {
	taskCh  chan task
	stopCh  chan struct{}
	wg      sync.WaitGroup
	active  chan struct{} // occupancy semaphore, capacity == size
	once    sync.Once
}

// New starts a Pool with the given number of worker goroutines and a task
// queue of the given depth.
func New(size, queueDepth int) *Pool {
	if size < 1 {
		size = 1
	}
	if queueDepth < 1 {
		queueDepth = size
	}
	p := &Pool{
		taskCh: make(chan task, queueDepth),
		stopCh: make(chan struct{}),
		active: make(chan struct{}, size),
	}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopCh:
			// run whatever is still queued before exiting
			for {
				select {
				case t := <-p.taskCh:
					p.active <- struct{}{}
					t.fn(context.Background())
					<-p.active
				default:
					return
				}
			}
		case t, ok := <-p.taskCh:
			if !ok {
				return
			}
			p.active <- struct{}{}
			t.fn(context.Background())
			<-p.active
		}
	}
}

// Submit enqueues fn to run on the shared pool. It blocks if the task queue
// is full, applying backpressure to the submitter.
func (p *Pool) Submit(fn func(ctx context.Context)) {
	select {
	case p.taskCh <- task{fn: fn}:
	case <-p.stopCh:
	}
}

// ActiveWorkers returns the number of goroutines currently executing a task.
func (p *Pool) ActiveWorkers() int {
	return len(p.active)
}

// Stop signals every worker to exit once its current task and any tasks
// still queued have completed, and waits for all of them to return. Stop
// is idempotent.
func (p *Pool) Stop() {
	p.once.Do(func() {
		close(p.stopCh)
	})
	p.wg.Wait()
}
