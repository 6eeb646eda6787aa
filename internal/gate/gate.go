// ============================================================================
// Scanrunner Emission Gate - Bounded Outgoing-Event Backpressure
// ============================================================================
//
// Package: internal/gate
// File: gate.go
// Purpose: Per-module counting semaphore bounding outstanding outgoing events
//
// Design Pattern:
//   A buffered channel of capacity N is used as a counting semaphore.
//   Sending a value acquires a permit; receiving one releases it.
//
// Ownership:
//   The producer (a module handler, via Acquire) acquires a permit. The
//   downstream consumer — the orchestrator, once it has fully retired the
//   event — releases it. A module therefore blocks naturally when its
//   downstream is saturated: backpressure without a bounded outgoing queue.
//
// ============================================================================

package gate

import (
	"context"
	"time"
)

// acquirePollInterval is the short timeout the acquisition loop waits on
// each attempt before re-checking whether the scan is stopping.
const acquirePollInterval = 100 * time.Millisecond

// Gate is a per-module counting semaphore bounding the number of outgoing
// events not yet consumed downstream.
type Gate struct {
	capacity int
	sem      chan struct{}
}

// New creates a Gate with the given capacity (outgoing_gate_capacity).
func New(capacity int) *Gate {
	if capacity < 1 {
		capacity = 1
	}
	return &Gate{
		capacity: capacity,
		sem:      make(chan struct{}, capacity),
	}
}

// Capacity returns the gate's configured capacity.
func (g *Gate) Capacity() int {
	return g.capacity
}

// InFlight returns the number of permits currently held, i.e. capacity minus
// remaining permits — the "outgoing-in-flight" status field.
func (g *Gate) InFlight() int {
	return len(g.sem)
}

// Acquire attempts to acquire one permit, retrying every
// acquirePollInterval until it succeeds, the context is done, or stopping
// reports true. It returns false without holding a permit if it aborts.
func (g *Gate) Acquire(ctx context.Context, stopping func() bool) bool {
	for {
		if stopping != nil && stopping() {
			return false
		}
		select {
		case g.sem <- struct{}{}:
			return true
		case <-ctx.Done():
			return false
		case <-time.After(acquirePollInterval):
			// retry: loop back and re-check stopping
		}
	}
}

// Release releases one permit. It is a no-op if no permit is held, so that
// a defensive double-release never blocks or panics.
func (g *Gate) Release() {
	select {
	case <-g.sem:
	default:
	}
}
