// ============================================================================
// Scanrunner Demonstration Orchestrator
// ============================================================================
//
// Package: internal/devscan
// File: scan.go
// Purpose: A minimal, in-memory implementation of internal/module's
//          Orchestrator contract, for the demonstration host and for
//          tests that want a more realistic collaborator than a bare
//          hand-rolled fake
//
// devscan depends on module; module never depends on devscan — this is
// deliberately a leaf package sitting outside the runtime's own import
// graph: a small driver wiring up the reusable core, never imported back
// by it.
//
// ============================================================================

package devscan

import (
	"context"
	"fmt"
	"sync"

	"github.com/ChuLiYu/scanrunner/internal/logging"
	"github.com/ChuLiYu/scanrunner/internal/module"
	"github.com/ChuLiYu/scanrunner/pkg/types"
)

// EventRouter hands a successfully emitted event to whatever consumes it
// next (typically the target module's QueueItem). EmitEvent releases the
// event's gate permit itself as soon as the router returns, so a router
// never needs to call e.Release().
type EventRouter func(e *types.Event)

// Scan is a minimal, fully in-memory Orchestrator. It has no persistence,
// no network transport, and no distributed coordination: every module
// runs in this process, and EmitEvent dispatches synchronously to a
// caller-supplied router.
type Scan struct {
	mu       sync.Mutex
	status   module.ScanStatus
	stopping bool

	scopeSearchDistance int
	targets             map[string]struct{}

	stats  Stats
	log    logging.Context
	router EventRouter
}

// New builds a Scan in the STARTING state. router is called for every
// event that passes through EmitEvent; pass nil to auto-release every
// emitted event immediately, turning the scan into a terminal sink (handy
// for isolated module tests).
func New(scopeSearchDistance int, targets []string, log logging.Context, router EventRouter) *Scan {
	targetSet := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		targetSet[t] = struct{}{}
	}
	return &Scan{
		status:              module.ScanStarting,
		scopeSearchDistance: scopeSearchDistance,
		targets:             targetSet,
		log:                 log,
		router:              router,
	}
}

// Stats returns the scan's event-accounting counters.
func (s *Scan) Stats() *Stats {
	return &s.stats
}

// IsTarget reports whether key names one of the scan's explicit targets,
// the tag a seed event carries to mark itself as in-scope at distance 0.
func (s *Scan) IsTarget(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.targets[key]
	return ok
}

// SetStatus transitions the scan's coarse lifecycle state. Setting
// ScanAborting also flips Stopping() to true.
func (s *Scan) SetStatus(status module.ScanStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	if status == module.ScanAborting {
		s.stopping = true
	}
}

// Stop requests cancellation: every module's worker loop observes
// Stopping() and winds down at its next poll.
func (s *Scan) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopping = true
	s.status = module.ScanAborting
}

// Stopping reports whether the scan is shutting down.
func (s *Scan) Stopping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopping
}

// Status reports the scan's coarse lifecycle state.
func (s *Scan) Status() module.ScanStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// ScopeSearchDistance returns the scan-wide scope search radius.
func (s *Scan) ScopeSearchDistance() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scopeSearchDistance
}

// MakeEvent constructs a new Event via the shared factory and resolves its
// scope distance immediately: a real orchestrator would defer this to an
// asynchronous DNS-resolution / target-matching pass, but this in-memory
// scan has no network to wait on, so it resolves distance synchronously
// at construction time instead — a "target"-tagged event (the caller's
// own seed events, or anything a module explicitly marks) is distance 0;
// anything else is one hop further from scope than its source, or
// distance 0 for a sourceless event. The event's Key (its content-
// identity string) is ordinarily set by the caller only after MakeEvent
// returns, so distance resolution cannot depend on it here.
func (s *Scan) MakeEvent(eventType string, source *types.Event, producer string, tags ...string) (*types.Event, error) {
	e, err := types.NewEvent(eventType, source, producer, tags...)
	if err != nil {
		s.stats.EventFailed()
		return nil, err
	}
	switch {
	case e.HasTag("target"):
		e.ScopeDistance = 0
	case source != nil && source.ScopeDistance >= 0:
		e.ScopeDistance = source.ScopeDistance + 1
	default:
		e.ScopeDistance = 0
	}
	return e, nil
}

// EmitEvent hands e to the scan's router, applying the abort-before-
// delivery check and the on-success callback the module-runtime contract
// describes. quick is accepted for interface compatibility; this
// in-memory scan has no slow path to expedite around.
//
// The router broadcasts e to every interested module's incoming queue
// synchronously before EmitEvent returns, so this in-memory scan treats
// the broadcast itself as full delivery and releases the outgoing
// permit immediately afterward, rather than tracking per-consumer
// completion the way a distributed orchestrator with a real transport
// hop would.
func (s *Scan) EmitEvent(ctx context.Context, e *types.Event, abortIf func() bool, onSuccess func(), quick bool) error {
	if abortIf != nil && abortIf() {
		e.Release()
		return nil
	}
	if s.Stopping() {
		e.Release()
		s.stats.EventFailed()
		return fmt.Errorf("scan is stopping")
	}
	if onSuccess != nil {
		onSuccess()
	}
	s.stats.EventProduced()
	if s.router != nil {
		s.router(e)
	}
	e.Release()
	return nil
}

// Catch runs fn under a recover-and-log harness, mirroring the runtime's
// exception-safe execution contract. Force is accepted for interface
// compatibility; this scan never cancels cleanup work regardless.
func (s *Scan) Catch(ctx context.Context, fn func(ctx context.Context) error, opts module.CatchOptions) {
	func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("recovered panic", "panic", fmt.Sprintf("%v", r))
			}
		}()
		if err := fn(ctx); err != nil {
			s.log.Warn("handler returned error", "error", err.Error())
		}
	}()
	if opts.OnFinishCallback != nil {
		opts.OnFinishCallback()
	}
}

// EventConsumed records scan-wide statistics when a module accepts an
// event off its incoming queue.
func (s *Scan) EventConsumed(e *types.Event, moduleName string) {
	s.stats.EventConsumed()
}
