// ============================================================================
// Scanrunner Module Worker Loop
// ============================================================================
//
// Package: internal/module
// File: worker.go
// Purpose: The long-lived per-module driver loop, the exception-safe catch
//          harness, the emission primitive, and the status snapshot
//
// Every module owns exactly one worker goroutine. It selects over a stop
// channel with a timed fallback and logs-and-continues on handler error
// rather than letting one bad task bring the loop down. The batch branch
// drains a fixed-size window and submits it as one task; the single-event
// branch drains one item at a time.
//
// ============================================================================

package module

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ChuLiYu/scanrunner/pkg/types"
)

const pollInterval = 100 * time.Millisecond

// runLoop is the module's long-lived worker: it drains the incoming queue
// (directly in single-event mode, through the batcher otherwise), dispatches
// to handlers, and funnels any unexpected panic into the errored state. It
// exits cleanly when the scan is stopping, when Cleanup signals it to stop,
// or, in single-event mode only, when the incoming queue has been closed by
// SetErrorState; a batch-mode loop keeps polling a closed queue.
func (m *Module) runLoop(ctx context.Context) {
	defer m.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			m.SetErrorState(fmt.Sprintf("panic in worker loop: %v", r))
		}
	}()

	for {
		if m.stopping() {
			m.log.Verbose("scan cancelled, exiting worker loop")
			return
		}
		select {
		case <-m.stopCh:
			return
		default:
		}

		if m.Config.BatchSize > 1 {
			m.runBatchIteration(ctx)
			continue
		}
		if m.runSingleIteration(ctx) {
			return
		}
	}
}

func (m *Module) stopping() bool {
	return m.orchestrator != nil && m.orchestrator.Stopping()
}

// runBatchIteration is one pass of the batch-mode branch: evaluate the
// force-flush predicate, attempt a batch dispatch, and sleep only when
// nothing was submitted.
func (m *Module) runBatchIteration(ctx context.Context) {
	force := m.batcher.ShouldFlush()
	if !m.handleBatch(ctx, force) {
		m.sleep(pollInterval)
	}
}

// runSingleIteration is one pass of the single-event branch: a
// 100ms-timeout dequeue, disarmed-queue exit, token scheduling, and
// output-module synchronous dispatch vs. pooled dispatch for everything
// else. It reports true when the loop should exit (the queue has been
// disarmed and drained).
func (m *Module) runSingleIteration(ctx context.Context) bool {
	item, ok := m.popWithTimeout(pollInterval)
	if !ok {
		if m.incoming.Closed() {
			m.log.Debug("incoming queue closed, exiting worker loop")
			return true
		}
		return false
	}
	m.dispatchSingle(ctx, item)
	return false
}

// popWithTimeout performs one non-blocking Pop, falling back to a wait of
// up to d (interruptible by cleanup's stop signal) when the queue is
// momentarily empty — the Go rendering of a 100ms-timeout blocking dequeue
// over a structure that only exposes a non-blocking Pop.
func (m *Module) popWithTimeout(d time.Duration) (types.Item, bool) {
	if item, ok := m.incoming.Pop(); ok {
		return item, true
	}
	select {
	case <-m.stopCh:
	case <-time.After(d):
	}
	return types.Item{}, false
}

func (m *Module) sleep(d time.Duration) {
	select {
	case <-m.stopCh:
	case <-time.After(d):
	}
}

// dispatchSingle handles one dequeued item: a control token is scheduled on
// the internal pool; an event goes to handle_event, synchronously on this
// loop for output-type modules (so outputs serialize per module) or on the
// internal pool otherwise.
func (m *Module) dispatchSingle(ctx context.Context, item types.Item) {
	if item.IsToken() {
		m.scheduleTokens(item.Token == types.Finish, item.Token == types.Report)
		return
	}
	e := item.Event
	invoke := func(ctx context.Context) error {
		if m.Capabilities.HandleEvent == nil {
			return nil
		}
		return m.Capabilities.HandleEvent(ctx, e)
	}
	if m.Kind == types.ModuleKindOutput {
		m.runCaught(ctx, invoke, CatchOptions{})
		return
	}
	m.internalPool.Go(func(ctx context.Context) {
		m.runCaught(ctx, invoke, CatchOptions{})
	})
}

// handleBatch attempts one batch dispatch. It returns false (no work
// submitted) when the queue holds nothing at all, or holds fewer than
// batch_size events and force is not set. Otherwise it drains the batch:
// an empty drain that nonetheless observed a token still schedules that
// token's callback, so isolated control tokens are never silently dropped,
// and a non-empty drain submits a single handle_batch invocation chained
// to the token callback.
func (m *Module) handleBatch(ctx context.Context, force bool) bool {
	if m.incoming.Empty() {
		return false
	}
	waiting := m.incoming.EventsWaiting()
	if waiting < m.Config.BatchSize && !force {
		return false
	}

	events, sawFinish, sawReport := m.batcher.Drain()
	if len(events) == 0 {
		if !sawFinish && !sawReport {
			return false
		}
		m.scheduleTokens(sawFinish, sawReport)
		return true
	}

	m.internalPool.Go(func(ctx context.Context) {
		var onFinish func()
		if sawFinish || sawReport {
			onFinish = func() { m.runTokenCallback(ctx, sawFinish, sawReport) }
		}
		m.runCaught(ctx, func(ctx context.Context) error {
			if m.Capabilities.HandleBatch == nil {
				return nil
			}
			return m.Capabilities.HandleBatch(ctx, events)
		}, CatchOptions{OnFinishCallback: onFinish})
	})
	return true
}

// scheduleTokens schedules the finish/report callback on the internal pool
// with no events, for a drain that observed tokens but collected no
// events.
func (m *Module) scheduleTokens(sawFinish, sawReport bool) {
	m.internalPool.Go(func(ctx context.Context) {
		m.runTokenCallback(ctx, sawFinish, sawReport)
	})
}

// runTokenCallback runs the finish hook if a FINISH token was observed,
// otherwise the report hook if a REPORT token was observed. FINISH wins
// over REPORT when both arrived in the same drain.
func (m *Module) runTokenCallback(ctx context.Context, sawFinish, sawReport bool) {
	switch {
	case sawFinish:
		m.runCaught(ctx, func(ctx context.Context) error {
			if m.Capabilities.Finish == nil {
				return nil
			}
			return m.Capabilities.Finish(ctx)
		}, CatchOptions{})
	case sawReport:
		m.runCaught(ctx, func(ctx context.Context) error {
			if m.Capabilities.Report == nil {
				return nil
			}
			return m.Capabilities.Report(ctx)
		}, CatchOptions{})
	}
}

// runCaught delegates to the orchestrator's Catch harness when one is
// attached (the production path), and falls back to an equivalent
// recover-and-log when running without one (unit tests exercising a
// Module in isolation). A handler's failure never escapes this call and
// never poisons the wrapper it ran on.
func (m *Module) runCaught(ctx context.Context, fn func(ctx context.Context) error, opts CatchOptions) {
	if m.orchestrator != nil {
		m.orchestrator.Catch(ctx, fn, opts)
		return
	}
	func() {
		defer func() {
			if r := recover(); r != nil {
				m.log.Error("handler panic", "panic", fmt.Sprintf("%v", r))
			}
		}()
		if err := fn(ctx); err != nil {
			if errors.Is(err, ErrScanCancelled) {
				m.log.Verbose("handler observed scan cancellation", "error", err.Error())
			} else {
				m.log.Error("handler error", "error", err.Error())
			}
		}
	}()
	if opts.OnFinishCallback != nil {
		opts.OnFinishCallback()
	}
}

// EmitOptions parameterizes Emit, mirroring emit_event's abort_if,
// on_success_callback, and quick parameters.
type EmitOptions struct {
	// AbortIf, when non-nil and true at delivery time, cancels the emit
	// before the event reaches the orchestrator.
	AbortIf func() bool
	// OnSuccess runs once the orchestrator has accepted the event for
	// delivery.
	OnSuccess func()
	// Quick requests expedited handling from the orchestrator.
	Quick bool
	// Key overrides the constructed event's content-identity key, used
	// for duplicate detection downstream. Left empty, the event carries
	// no dedupe key of its own.
	Key string
}

// Emit is the bounded emission primitive: it skips entirely if the
// scan is stopping, constructs the event via the orchestrator's factory,
// acquires this module's outgoing gate permit (retrying on a 100ms timeout
// until acquired or the scan starts stopping), and hands the event to the
// orchestrator. The gate permit is released by the producer only if the
// handoff itself fails; on success, only the downstream consumer releases
// it, via the event's attached release callback.
func (m *Module) Emit(ctx context.Context, eventType string, source *types.Event, opts EmitOptions, tags ...string) (*types.Event, error) {
	if m.orchestrator == nil || m.orchestrator.Stopping() {
		return nil, nil
	}

	e, err := m.orchestrator.MakeEvent(eventType, source, m.Name, tags...)
	if err != nil {
		m.log.Warn("event construction failed, emission skipped", "error", err.Error())
		return nil, nil
	}
	if opts.Key != "" {
		e.Key = opts.Key
	}

	if !m.emissionGate.Acquire(ctx, m.orchestrator.Stopping) {
		return nil, nil
	}
	e.AttachGateRelease(m.emissionGate.Release)

	if err := m.orchestrator.EmitEvent(ctx, e, opts.AbortIf, opts.OnSuccess, opts.Quick); err != nil {
		m.emissionGate.Release()
		m.log.Error("emit failed", "error", err.Error())
		return nil, err
	}
	return e, nil
}

// Status returns the derived, advisory snapshot of the module's runtime
// state.
func (m *Module) Status() types.StatusSnapshot {
	return types.StatusSnapshot{
		IncomingDepth:     m.incoming.Len(),
		OutgoingInFlight:  m.emissionGate.InFlight(),
		MainPoolTasks:     m.mainPool.TaskCount(),
		InternalPoolTasks: m.internalPool.TaskCount(),
		Errored:           m.Errored(),
	}
}
