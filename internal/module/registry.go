// ============================================================================
// Scanrunner Module Registry - Global Stalemate Detection
// ============================================================================
//
// Package: internal/module
// File: registry.go
// Purpose: Tracks every module in a scan so the batcher's force-flush
//          stalemate condition can be evaluated across all of them
//
// A stalemate holds when every module with batch_size > 1 reports
// running = false: nobody is making progress, so anyone holding a partial
// batch must flush to unblock the system. Answering that needs visibility
// into every other module, not just the one asking, so the scan-wide set
// of modules is tracked here and handed to each module's Batcher as a
// StalematePredicate closure.
//
// ============================================================================

package module

import "sync"

// Registry holds every module belonging to one scan.
type Registry struct {
	mu      sync.Mutex
	modules []*Module
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds m to the registry. A nil Registry is valid and Register on
// it is a no-op, so callers that don't need stalemate detection (e.g.
// isolated unit tests of a single Module) can simply omit a Registry.
func (r *Registry) Register(m *Module) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules = append(r.modules, m)
}

// snapshot returns a stable copy of the registered modules for iteration
// outside the lock.
func (r *Registry) snapshot() []*Module {
	r.mu.Lock()
	defer r.mu.Unlock()
	mods := make([]*Module, len(r.modules))
	copy(mods, r.modules)
	return mods
}

// Stalemate reports the global-stalemate condition: true only when at
// least one registered module has batch_size > 1 and every such module is
// currently idle (its status reports Running() == false). Modules with
// batch_size == 1 don't hold partial batches and are excluded from the
// vote.
func (r *Registry) Stalemate() bool {
	if r == nil {
		return false
	}
	batchCapable := false
	for _, m := range r.snapshot() {
		if m.Config.BatchSize <= 1 {
			continue
		}
		batchCapable = true
		if m.Status().Running() {
			return false
		}
	}
	return batchCapable
}
