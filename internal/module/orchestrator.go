// ============================================================================
// Scanrunner Module Runtime - Orchestrator Contract
// ============================================================================
//
// Package: internal/module
// File: orchestrator.go
// Purpose: The runtime's consumed-from-orchestrator interface
//
// This core never depends on a concrete orchestrator implementation —
// only on this small interface. internal/devscan provides a throwaway
// implementation for tests and the demo host; production orchestrators
// implement the same surface.
//
// ============================================================================

package module

import (
	"context"

	"github.com/ChuLiYu/scanrunner/pkg/types"
)

// ScanStatus mirrors the orchestrator's coarse lifecycle state machine.
type ScanStatus string

const (
	ScanStarting  ScanStatus = "STARTING"
	ScanRunning   ScanStatus = "RUNNING"
	ScanFinishing ScanStatus = "FINISHING"
	ScanAborting  ScanStatus = "ABORTING"
)

// CatchOptions parameterizes the orchestrator's exception-safe harness.
type CatchOptions struct {
	// OnFinishCallback runs after the wrapped function returns, whether
	// or not it returned an error.
	OnFinishCallback func()
	// Force suppresses cancellation checks; used during cleanup, which
	// is never cancelled.
	Force bool
}

// Orchestrator is the runtime's view of the scan orchestrator: the
// external collaborator that owns scan-wide state, event construction,
// emission, and the exception-safe execution harness.
type Orchestrator interface {
	// Stopping reports whether the scan is shutting down.
	Stopping() bool
	// Status reports the scan's coarse lifecycle state.
	Status() ScanStatus
	// ScopeSearchDistance is the scan-wide scope search radius used in
	// the max-scope-distance formula.
	ScopeSearchDistance() int
	// MakeEvent is the event factory; it may fail with a validation
	// error (types.ErrValidation).
	MakeEvent(eventType string, source *types.Event, producer string, tags ...string) (*types.Event, error)
	// EmitEvent hands a constructed, gate-permitted event to the
	// orchestrator. abortIf, when non-nil and true, cancels the emit
	// before delivery. onSuccess runs once the event is accepted for
	// delivery. quick requests expedited handling.
	EmitEvent(ctx context.Context, e *types.Event, abortIf func() bool, onSuccess func(), quick bool) error
	// Catch runs fn under the orchestrator's exception-safe harness.
	Catch(ctx context.Context, fn func(ctx context.Context) error, opts CatchOptions)
	// EventConsumed notifies the scan's statistics collector that
	// moduleName has accepted e.
	EventConsumed(e *types.Event, moduleName string)
}
