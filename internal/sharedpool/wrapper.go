// ============================================================================
// Scanrunner Shared Worker Pool - Per-Module Wrapper
// ============================================================================
//
// Package: internal/sharedpool
// File: wrapper.go
// Purpose: Bounded-concurrency facade over one shared Pool, scoped to a
//          single module
//
// A module never touches the shared Pool directly. It gets a Wrapper,
// which enforces the module's own max_event_handlers / max_threads limit
// (a second, per-module semaphore layered on top of the pool's own
// occupancy) and tracks the module's own in-flight task count for the
// status snapshot.
//
// ============================================================================

package sharedpool

import (
	"context"
	"sync"
	"sync/atomic"
)

// Wrapper gives one module a bounded-concurrency view over a shared Pool.
type Wrapper struct {
	pool     *Pool
	sem      chan struct{} // per-module concurrency limit
	inFlight atomic.Int64
	wg       sync.WaitGroup
}

// NewWrapper creates a Wrapper over pool, bounding this module's own
// concurrent task count to maxConcurrent.
func NewWrapper(pool *Pool, maxConcurrent int) *Wrapper {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Wrapper{
		pool: pool,
		sem:  make(chan struct{}, maxConcurrent),
	}
}

// Go runs fn on the shared pool, bounded by this module's own concurrency
// limit. It blocks until a module-local slot is free, then submits to the
// shared pool (which may itself block if globally saturated).
func (w *Wrapper) Go(fn func(ctx context.Context)) {
	w.sem <- struct{}{}
	w.wg.Add(1)
	w.inFlight.Add(1)
	w.pool.Submit(func(ctx context.Context) {
		defer func() {
			w.inFlight.Add(-1)
			w.wg.Done()
			<-w.sem
		}()
		fn(ctx)
	})
}

// TaskCount returns the number of tasks this module currently has in
// flight on the shared pool.
func (w *Wrapper) TaskCount() int {
	return int(w.inFlight.Load())
}

// Wait blocks until every task this wrapper has submitted has completed.
func (w *Wrapper) Wait() {
	w.wg.Wait()
}
