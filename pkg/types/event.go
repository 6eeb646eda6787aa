// ============================================================================
// Scanrunner Core Type Definitions
// ============================================================================
//
// Package: pkg/types
// Purpose: Core domain models shared by every module-runtime component
//
// Design Principles:
//   1. Domain-Driven Design (DDD) - Business concepts as types
//   2. Type Safety - Custom types prevent primitive obsession
//   3. Opaque Event - the event body is not interpreted by this package;
//      only the handful of fields the runtime itself needs to route,
//      filter, and account for an event are modeled here
//
// Core Types:
//   - Event: the unit of work flowing between modules
//   - ControlToken / Item: the tagged-sum wire format for a module's queue
//   - ScopeDistance: how far an event sits from the scan's explicit targets
//
// Usage:
//   - acceptance.Filter: evaluates Items against a module's policy
//   - queue.Queue: stores Items in FIFO order per module
//   - module.Module: drives Events through handlers
//
// ============================================================================

package types

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ScopeDistanceUnresolved is the sentinel value for an Event whose scope
// distance has not yet been computed by DNS resolution / target matching.
const ScopeDistanceUnresolved = -1

// ErrValidation is returned by a factory when the requested Event would be
// malformed (an empty type tag). Producing code must treat this
// as a warning-level, non-fatal condition per the error taxonomy.
var ErrValidation = errors.New("invalid event")

var eventSeq atomic.Uint64

// Event is the unit of work flowing between modules. It is intentionally
// thin: this package does not know or care what a "DNS_NAME" or "IP_ADDRESS"
// actually contains, only the handful of fields the runtime needs to route,
// filter, and account for it.
type Event struct {
	// Type is the event's type tag, e.g. "DNS_NAME", "IP_ADDRESS".
	Type string

	// Source is the event this one was derived from, if any. May itself
	// carry a Source, forming a chain back to a seed event.
	Source *Event

	// Key is an optional caller-supplied content-identity string (e.g. a
	// hostname or IP literal) used only for duplicate detection; an empty
	// Key disables dedup matching for that event.
	Key string

	// Tags is the event's tag set (e.g. {"target"}).
	Tags map[string]struct{}

	// ScopeDistance is 0 for an event explicitly in scope, increasing with
	// distance from scope, or ScopeDistanceUnresolved before resolution.
	ScopeDistance int

	// Producer is the name of the module that produced this event.
	Producer string

	// CreatedAt records when the factory constructed this event.
	CreatedAt time.Time

	seq uint64

	mu      sync.Mutex
	release func() // gate permit release, owned by the downstream consumer
}

// NewEvent is the event factory. It fails with ErrValidation if the type tag
// is empty.
func NewEvent(eventType string, source *Event, producer string, tags ...string) (*Event, error) {
	if eventType == "" {
		return nil, errors.Join(ErrValidation, errors.New("event type must not be empty"))
	}
	tagSet := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		tagSet[t] = struct{}{}
	}
	return &Event{
		Type:          eventType,
		Source:        source,
		Tags:          tagSet,
		ScopeDistance: ScopeDistanceUnresolved,
		Producer:      producer,
		CreatedAt:     time.Now(),
		seq:           eventSeq.Add(1),
	}, nil
}

// HasTag reports whether the event carries the given tag.
func (e *Event) HasTag(tag string) bool {
	if e == nil {
		return false
	}
	_, ok := e.Tags[tag]
	return ok
}

// Seq returns the monotonic creation sequence, used only for debug logging
// and metrics labels — never for ordering guarantees.
func (e *Event) Seq() uint64 {
	return e.seq
}

// AttachGateRelease records the release callback for the per-module
// emission-gate permit acquired on this event's behalf. It must be called
// at most once per event.
func (e *Event) AttachGateRelease(release func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.release = release
}

// Release invokes and clears the attached gate-release callback, if any. It
// is safe to call multiple times; only the first call has any effect. The
// downstream consumer (orchestrator or terminal sink) owns this call.
func (e *Event) Release() {
	e.mu.Lock()
	release := e.release
	e.release = nil
	e.mu.Unlock()
	if release != nil {
		release()
	}
}
