// ============================================================================
// Scanrunner Module Lifecycle Controller
// ============================================================================
//
// Package: internal/module
// File: lifecycle.go
// Purpose: setup -> start -> finish/report -> cleanup ordering, error-state
//          transitions, idempotent cleanup
//
// A module moves through a fixed phase sequence: setup, start, zero or
// more finish rounds, one report, then cleanup. Errored is a side exit
// reachable from any phase before cleanup; cleanup itself is guarded by a
// one-way state flag and runs at most once.
//
// ============================================================================

package module

import (
	"context"
	"errors"

	"github.com/ChuLiYu/scanrunner/internal/acceptance"
	"github.com/ChuLiYu/scanrunner/pkg/types"
)

// Setup runs the module's Setup capability and interprets its outcome per
// the three-way success/hard-fail/soft-fail rule. Any error other than
// ErrWordlist is coerced to a hard failure.
func (m *Module) Setup(ctx context.Context) SetupResult {
	if m.Capabilities.Setup == nil {
		return SetupResult{Outcome: SetupSuccess}
	}
	result, err := func() (res SetupResult, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = errors.New("panic during setup")
			}
		}()
		return m.Capabilities.Setup(ctx)
	}()

	if err != nil {
		if errors.Is(err, ErrWordlist) {
			m.log.Warn("setup soft-fail", "reason", err.Error())
			return SetupResult{Outcome: SetupSoftFail, Message: err.Error()}
		}
		m.log.Error("setup hard-fail", "error", err.Error())
		m.SetErrorState(err.Error())
		return SetupResult{Outcome: SetupHardFail, Message: err.Error()}
	}
	return result
}

// Start spawns the module's long-lived worker loop. Call only after a
// successful Setup.
func (m *Module) Start(ctx context.Context) {
	m.wg.Add(1)
	go m.runLoop(ctx)
}

// Finish enqueues a FINISH control token. May be called multiple times:
// finish handlers may themselves produce events that require further
// processing upstream.
func (m *Module) Finish() {
	m.QueueItem(types.TokenItem(types.Finish))
}

// Report enqueues a REPORT control token, normally invoked once near
// end-of-scan.
func (m *Module) Report() {
	m.QueueItem(types.TokenItem(types.Report))
}

// Cleanup runs the module's Cleanup capability followed by every
// registered cleanup callback in order, each under force semantics.
// Idempotent: a second call is a no-op.
func (m *Module) Cleanup(ctx context.Context) {
	m.mu.Lock()
	if m.state == StateCleanedUp {
		m.mu.Unlock()
		return
	}
	m.state = StateCleanedUp
	callbacks := append([]func(){}, m.cleanupCallbacks...)
	m.mu.Unlock()

	m.stopOnce.Do(func() { close(m.stopCh) })
	m.wg.Wait()

	if m.Capabilities.Cleanup != nil {
		m.runCaught(ctx, func(ctx context.Context) error {
			return m.Capabilities.Cleanup(ctx)
		}, CatchOptions{Force: true})
	}
	for _, cb := range callbacks {
		func() {
			defer func() { recover() }()
			cb()
		}()
	}
}

// SetErrorState transitions the module to the errored state: it logs the
// message (if given), marks errored, and drains and disarms the incoming
// queue. Idempotent.
func (m *Module) SetErrorState(message string) {
	m.mu.Lock()
	if m.state == StateErrored {
		m.mu.Unlock()
		return
	}
	m.state = StateErrored
	m.errorMessage = message
	m.mu.Unlock()

	if message != "" {
		m.log.Error("module entering errored state", "reason", message)
	}
	m.incoming.Close()
	for {
		events, _, _ := m.incoming.DrainBatch(1 << 20)
		if len(events) == 0 {
			break
		}
	}
}

// QueueEvent is the wire-level enqueue surface the orchestrator calls:
// it accepts an *Event or one of the literal strings "FINISHED"/"REPORT"
// and rejects anything else. Internally everything becomes a typed Item.
func (m *Module) QueueEvent(value any) {
	switch v := value.(type) {
	case *types.Event:
		m.QueueItem(types.EventItem(v))
	case string:
		tok, ok := types.ParseControlToken(v)
		if !ok {
			m.log.Debug("event rejected", "reason", "invalid string value", "value", v)
			return
		}
		m.QueueItem(types.TokenItem(tok))
	default:
		m.log.Debug("event rejected", "reason", "invalid string value")
	}
}

// QueueItem enqueues an event or control token. A no-op, logged at debug
// level, once the module is errored or cleaned up.
func (m *Module) QueueItem(item types.Item) {
	m.mu.Lock()
	state := m.state
	m.mu.Unlock()
	if state != StateNormal {
		m.log.Debug("not in acceptable state", "module", m.Name)
		return
	}
	if !item.IsToken() {
		decision := m.filter.PreResolution(item.Event, item.Event.HasTag("target"))
		if !decision.Accepted {
			m.log.Debug("event rejected pre-resolution", "reason", decision.Reason, "type", item.Event.Type)
			return
		}
		post := m.filter.PostResolution(item.Event, m.orchestrator.ScopeSearchDistance())
		if !post.Accepted {
			m.log.Debug("event rejected post-resolution", "reason", post.Reason, "type", item.Event.Type)
			return
		}
		if m.Capabilities.FilterEvent != nil {
			userDecision := acceptance.Accept(func() (bool, string, error) {
				return m.Capabilities.FilterEvent(item.Event)
			})
			if !userDecision.Accepted {
				m.log.Debug("event rejected by module predicate", "reason", userDecision.Reason, "type", item.Event.Type)
				return
			}
		}
		if m.orchestrator != nil {
			m.orchestrator.EventConsumed(item.Event, m.Name)
		}
	}
	m.incoming.Push(item)
}
