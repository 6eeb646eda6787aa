// ============================================================================
// Scanrunner Incoming Queue & Batcher - Force-Flush Heuristics
// ============================================================================
//
// Package: internal/queue
// File: batcher.go
// Purpose: Decides when a partially-filled batch must be flushed early
//
// A module in batch mode normally waits for batch_size events before
// calling handle_batch. Batcher layers the force-flush conditions on top
// of Queue.DrainBatch: a batch_wait idle timeout, the scan entering its
// FINISHING state, and a caller-supplied "global stalemate" probe (no
// module anywhere is still actively producing, so nothing new is coming).
//
// ============================================================================

package queue

import (
	"time"

	"github.com/ChuLiYu/scanrunner/pkg/types"
)

// StalematePredicate is consulted on every ShouldFlush call. It should
// report true only when the caller can prove no new event will arrive
// for this module soon (e.g. every other module is idle too).
type StalematePredicate func() bool

// Batcher wraps a Queue with the force-flush decision logic a module's
// worker loop uses to decide whether a sub-batchSize batch may be
// dispatched early.
type Batcher struct {
	queue           *Queue
	batchSize       int
	batchWait       time.Duration
	scanFinishing   func() bool
	globalStalemate StalematePredicate
}

// NewBatcher builds a Batcher over queue. scanFinishing reports whether
// the owning scan has entered its FINISHING lifecycle state; stalemate
// reports the global-stalemate condition. Either may be nil.
func NewBatcher(q *Queue, batchSize int, batchWait time.Duration, scanFinishing func() bool, stalemate StalematePredicate) *Batcher {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Batcher{
		queue:           q,
		batchSize:       batchSize,
		batchWait:       batchWait,
		scanFinishing:   scanFinishing,
		globalStalemate: stalemate,
	}
}

// ShouldFlush reports whether the current partial batch should be
// dispatched now, even though fewer than batchSize events are queued. A
// queue holding nothing at all (not even a control token) never flushes;
// but a queue holding only control tokens still consults the idle/
// finishing/stalemate conditions, so an isolated FINISH or REPORT is not
// stranded behind a batch-size gate that only counts events.
func (b *Batcher) ShouldFlush() bool {
	if b.queue.Empty() {
		return false
	}
	waiting := b.queue.EventsWaiting()
	if waiting >= b.batchSize {
		return true
	}
	if b.queue.IdleSince() >= b.batchWait {
		return true
	}
	if b.scanFinishing != nil && b.scanFinishing() {
		return true
	}
	if b.globalStalemate != nil && b.globalStalemate() {
		return true
	}
	return false
}

// Drain pops the current batch per Queue.DrainBatch's token semantics.
func (b *Batcher) Drain() (events []*types.Event, sawFinish, sawReport bool) {
	return b.queue.DrainBatch(b.batchSize)
}
