// ============================================================================
// Scanrunner Acceptance Filter
// ============================================================================
//
// Package: internal/acceptance
// File: filter.go
// Purpose: Two-phase (pre/post scope-resolution) event acceptance pipeline
//
// Acceptance runs in two stages. The pre-resolution checks (watched
// types, target_only, speculation collision) are safe before an event's
// scope distance has been computed; the post-resolution checks
// (in_scope_only, the scope-distance cap, duplicate suppression) require
// a resolved distance. A rejection carries a human-readable reason, never
// an error: being filtered out is routine, not a failure.
//
// ============================================================================

package acceptance

import (
	"github.com/ChuLiYu/scanrunner/pkg/types"
)

// Decision is the outcome of a filter check: either accepted, or rejected
// with a human-readable reason (never an error — rejection is routine).
type Decision struct {
	Accepted bool
	Reason   string
}

func accept() Decision              { return Decision{Accepted: true} }
func reject(reason string) Decision { return Decision{Accepted: false, Reason: reason} }

// ModuleView is the minimal slice of module state the filter needs: its
// config, its kind, and (for the speculation-collision rule) its name.
type ModuleView struct {
	Name   string
	Kind   types.ModuleKind
	Config types.ModuleConfig
}

// Filter evaluates events against one module's watched types and scope
// rules. A Filter is stateful only in its Dedupe tracker; everything else
// is pure given the inputs to each check.
type Filter struct {
	module       ModuleView
	watchedTypes map[string]struct{}
	watchAll     bool
	dedupe       *Dedupe
}

// New builds a Filter for module, watching the given event types. A single
// "*" entry means every event type is watched.
func New(module ModuleView, watchedTypes []string) *Filter {
	f := &Filter{
		module:       module,
		watchedTypes: make(map[string]struct{}, len(watchedTypes)),
		dedupe:       NewDedupe(),
	}
	for _, t := range watchedTypes {
		if t == "*" {
			f.watchAll = true
		}
		f.watchedTypes[t] = struct{}{}
	}
	return f
}

// watches reports whether this module declared interest in the given
// event type.
func (f *Filter) watches(eventType string) bool {
	if f.watchAll {
		return true
	}
	_, ok := f.watchedTypes[eventType]
	return ok
}

// PreResolution runs the checks available before scope distance has been
// computed: watched-type membership, target_only, and the speculation
// collision rule.
func (f *Filter) PreResolution(e *types.Event, isTarget bool) Decision {
	if !f.watches(e.Type) {
		return reject("its type is not in watched_events")
	}
	if f.module.Config.TargetOnly && !isTarget {
		return reject("target_only: event is not a target")
	}
	if f.collidesWithSpeculation(e) {
		return reject("module consumes IP ranges directly")
	}
	return accept()
}

// collidesWithSpeculation implements the rule: if the event's source type
// is IP_RANGE, the event type is IP_ADDRESS, the event was produced by
// "speculate", the current module's name is not "speculate", and the
// current module watches both IP_RANGE and IP_ADDRESS, reject — this
// prevents double work when a module handles both ranges and the
// addresses speculated from them. Internal modules are exempt, since they
// never compete with speculate for IP ranges.
func (f *Filter) collidesWithSpeculation(e *types.Event) bool {
	if f.module.Kind == types.ModuleKindInternal {
		return false
	}
	if f.module.Name == "speculate" {
		return false
	}
	if e.Type != "IP_ADDRESS" || e.Source == nil {
		return false
	}
	if !f.watches("IP_RANGE") || !f.watches("IP_ADDRESS") {
		return false
	}
	return e.Source.Type == "IP_RANGE" && e.Producer == "speculate"
}

// PostResolution runs the checks that require a computed scope distance:
// in_scope_only, the scope-distance algebra (skipped entirely when
// ScopeDistanceModifier is the sentinel-none), and dedupe suppression.
// Call this only after the event's ScopeDistance has been resolved.
func (f *Filter) PostResolution(e *types.Event, scopeSearchDistance int) Decision {
	cfg := f.module.Config
	if cfg.InScopeOnly && e.ScopeDistance > 0 {
		return reject("in_scope_only: event is out of scope")
	}
	if cfg.ScopeDistanceModifier != nil {
		if e.ScopeDistance < 0 {
			return reject("scope distance not yet resolved")
		}
		maxDistance := cfg.MaxScopeDistance(scopeSearchDistance)
		if e.ScopeDistance > maxDistance {
			return reject("exceeds the maximum allowed")
		}
	}
	if f.isDuplicate(e) {
		return reject("duplicate event")
	}
	return accept()
}

// isDuplicate consults the dedupe tracker per the accept_dupes /
// suppress_dupes configuration. An event with an empty Key is never
// treated as a duplicate.
func (f *Filter) isDuplicate(e *types.Event) bool {
	cfg := f.module.Config
	if cfg.AcceptDupes || !cfg.SuppressDupes || e.Key == "" {
		return false
	}
	return !f.dedupe.SeenOnce(e)
}

// Accept runs a user-supplied predicate (the module's own filter_event
// hook) with fail-open semantics: a predicate that panics or returns any
// error is treated as acceptance, since a broken per-module filter
// must never stall the whole scan.
func Accept(predicate func() (bool, string, error)) (decision Decision) {
	if predicate == nil {
		return accept()
	}
	defer func() {
		if r := recover(); r != nil {
			decision = accept()
		}
	}()
	ok, reason, err := predicate()
	if err != nil {
		return accept()
	}
	if !ok {
		return reject(reason)
	}
	return accept()
}
