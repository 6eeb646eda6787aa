// ============================================================================
// Scanrunner Module Capabilities
// ============================================================================
//
// Package: internal/module
// File: capabilities.go
// Purpose: The function-valued hook record a module hands to the runtime
//
// A module customizes its behavior through a record of optional function
// fields (setup, handle_event, handle_batch, filter_event, finish,
// report, cleanup), each with a documented no-op or accept-all default.
// The runtime dispatches through this record; modules provide whichever
// fields they need.
//
// ============================================================================

package module

import (
	"context"

	"github.com/ChuLiYu/scanrunner/pkg/types"
)

// SetupOutcome is the three-way result of a module's setup hook.
type SetupOutcome int

const (
	// SetupSuccess means the module is ready to run.
	SetupSuccess SetupOutcome = iota
	// SetupHardFail means setup failed and should be reported as a bug.
	SetupHardFail
	// SetupSoftFail means setup failed for an expected reason (e.g. a
	// missing wordlist) and should not be reported as a bug.
	SetupSoftFail
)

func (o SetupOutcome) String() string {
	switch o {
	case SetupSuccess:
		return "success"
	case SetupHardFail:
		return "hard-fail"
	case SetupSoftFail:
		return "soft-fail"
	default:
		return "unknown"
	}
}

// SetupResult is the outcome of a module's Setup hook.
type SetupResult struct {
	Outcome SetupOutcome
	Message string
}

// Capabilities is the function-valued record a module provides to the
// runtime. Every field is optional.
type Capabilities struct {
	// Setup runs once at scan start. A nil Setup defaults to
	// SetupSuccess. Returning a non-nil error (other than ErrWordlist)
	// is coerced to a hard failure; ErrWordlist is coerced to a soft
	// failure.
	Setup func(ctx context.Context) (SetupResult, error)

	// HandleEvent processes a single accepted event in single-event-mode
	// modules (batch_size == 1); ignored otherwise. A nil HandleEvent
	// drops each event unhandled.
	HandleEvent func(ctx context.Context, e *types.Event) error

	// HandleBatch processes a batch of accepted events in batch-mode
	// modules (batch_size > 1); ignored otherwise. A nil HandleBatch drops
	// each batch unhandled.
	HandleBatch func(ctx context.Context, events []*types.Event) error

	// FilterEvent is the module's own acceptance predicate, invoked
	// after the built-in post-resolution checks. A nil FilterEvent
	// accepts everything.
	FilterEvent func(e *types.Event) (bool, string, error)

	// Finish is invoked on a FINISH control token. May run more than
	// once per scan.
	Finish func(ctx context.Context) error

	// Report is invoked on a REPORT control token, normally once near
	// end-of-scan.
	Report func(ctx context.Context) error

	// Cleanup is invoked exactly once, with _force semantics, after the
	// module stops processing events. Must not emit events.
	Cleanup func(ctx context.Context) error
}
