// ============================================================================
// Scanrunner Incoming Queue & Batcher
// ============================================================================
//
// Package: internal/queue
// File: queue.go
// Purpose: Per-module FIFO of events/control tokens, with batch draining
//
// The queue is a plain slice-backed FIFO behind a mutex, drained either
// one item at a time (single-event modules) or in fixed-size batch scans
// across its front. A disarmed queue carries an explicit Closed flag:
// enqueues become no-ops while anything already queued remains drainable.
//
// ============================================================================

package queue

import (
	"sync"
	"time"

	"github.com/ChuLiYu/scanrunner/pkg/types"
)

// Queue is a thread-safe FIFO of Items (events and control tokens).
type Queue struct {
	mu        sync.Mutex
	items     []types.Item
	closed    bool
	lastDrain time.Time
}

// New creates an empty, open Queue.
func New() *Queue {
	return &Queue{lastDrain: time.Now()}
}

// Push appends item to the back of the queue. It reports false and drops
// the item if the queue has already been disarmed (Closed).
func (q *Queue) Push(item types.Item) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, item)
	return true
}

// Close disarms the queue: no further Push calls will succeed. Already
// queued items remain available to DrainBatch. Close is idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

// Closed reports whether the queue has been disarmed.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Len reports the total number of items currently queued, events and
// control tokens alike — the "incoming queue depth" status field.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// EventsWaiting reports the number of Event items currently queued,
// excluding control tokens — the "events_waiting" status field.
func (q *Queue) EventsWaiting() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, it := range q.items {
		if !it.IsToken() {
			n++
		}
	}
	return n
}

// Pop removes and returns the single item at the front of the queue, the
// non-blocking dequeue primitive single-event-mode workers poll on a
// 100ms timeout loop (simulated by the caller sleeping between calls).
func (q *Queue) Pop() (types.Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return types.Item{}, false
	}
	it := q.items[0]
	q.items = q.items[1:]
	return it, true
}

// IdleSince reports how long it has been since the last batch was drained.
// Pushes do not reset the clock: a slow trickle of events must not defer an
// idle flush indefinitely.
func (q *Queue) IdleSince() time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()
	return time.Since(q.lastDrain)
}

// Empty reports whether the queue currently holds no items at all.
func (q *Queue) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) == 0
}

// DrainBatch pops up to batchSize events from the front of the queue,
// consuming (and reporting) any control tokens encountered along the way.
// Tokens never count against the batch-size budget: they are always
// consumed as encountered, right up until the next Event item once the
// event quota has already been reached — at which point the scan stops,
// leaving that event (and everything after it) in the queue.
func (q *Queue) DrainBatch(batchSize int) (events []*types.Event, sawFinish, sawReport bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if batchSize < 1 {
		batchSize = 1
	}

	consumed := 0
	for consumed < len(q.items) {
		it := q.items[consumed]
		if it.IsToken() {
			switch it.Token {
			case types.Finish:
				sawFinish = true
			case types.Report:
				sawReport = true
			}
			consumed++
			continue
		}
		if len(events) >= batchSize {
			break
		}
		events = append(events, it.Event)
		consumed++
	}

	q.items = q.items[consumed:]
	if consumed > 0 {
		// a drain counts as batch activity: reset the idle clock
		q.lastDrain = time.Now()
	}
	return events, sawFinish, sawReport
}
