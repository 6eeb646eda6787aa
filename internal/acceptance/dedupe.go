// ============================================================================
// Scanrunner Acceptance Filter - Duplicate Event Suppression
// ============================================================================
//
// Package: internal/acceptance
// File: dedupe.go
// Purpose: In-memory duplicate-event suppression for a single module
//
// An event is considered a duplicate of one already seen by this module
// when its (type, key, producer-chain) signature matches. The set is
// scoped to the module's own lifetime and never persisted.
//
// ============================================================================

package acceptance

import (
	"sync"

	"github.com/ChuLiYu/scanrunner/pkg/types"
)

// Dedupe tracks event signatures already seen by one module.
type Dedupe struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewDedupe creates an empty duplicate tracker.
func NewDedupe() *Dedupe {
	return &Dedupe{seen: make(map[string]struct{})}
}

// SeenOnce records e's signature and reports true the first time a given
// signature is observed, false on every subsequent occurrence.
func (d *Dedupe) SeenOnce(e *types.Event) bool {
	sig := signature(e)
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[sig]; ok {
		return false
	}
	d.seen[sig] = struct{}{}
	return true
}

// signature derives a dedupe key from an event's type, content key, and
// the producer chain of its source.
func signature(e *types.Event) string {
	sig := e.Type + "\x00" + e.Key
	for src := e.Source; src != nil; src = src.Source {
		sig += "\x00" + src.Producer + ":" + src.Type
	}
	return sig
}
