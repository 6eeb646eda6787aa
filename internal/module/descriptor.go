// ============================================================================
// Scanrunner Module Descriptor
// ============================================================================
//
// Package: internal/module
// File: descriptor.go
// Purpose: Per-module runtime state — identity, config, capabilities,
//          queue, gate, pool wrappers, and lifecycle state
//
// One Module value exists per configured scan module: a long-lived
// descriptor owning that module's queue, emission gate, pool wrappers,
// and a mutex-guarded lifecycle state flag.
//
// ============================================================================

package module

import (
	"sync"
	"time"

	"github.com/ChuLiYu/scanrunner/internal/acceptance"
	"github.com/ChuLiYu/scanrunner/internal/gate"
	"github.com/ChuLiYu/scanrunner/internal/logging"
	"github.com/ChuLiYu/scanrunner/internal/queue"
	"github.com/ChuLiYu/scanrunner/internal/sharedpool"
	"github.com/ChuLiYu/scanrunner/pkg/types"
)

// State is a module's coarse lifecycle state.
type State int

const (
	StateNormal State = iota
	StateErrored
	StateCleanedUp
)

// Module is one scan module's runtime instance: identity, declared
// behavior, and the live queue/gate/pool handles that back it.
type Module struct {
	Name           string
	Kind           types.ModuleKind
	WatchedEvents  []string
	ProducedEvents []string
	Config         types.ModuleConfig
	Capabilities   Capabilities

	orchestrator Orchestrator
	filter       *acceptance.Filter
	incoming     *queue.Queue
	batcher      *queue.Batcher
	emissionGate *gate.Gate
	mainPool     *sharedpool.Wrapper
	internalPool *sharedpool.Wrapper
	log          logging.Context

	mu               sync.Mutex
	state            State
	cleanupCallbacks []func()
	errorMessage     string

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New builds a Module descriptor. mainPool and internalPool are the
// shared-pool wrappers scoped to this module (max_threads and
// max_event_handlers respectively). registry may be nil; when given, the
// module registers itself so its batcher's force-flush stalemate check can
// see every other module in the scan.
func New(name string, kind types.ModuleKind, watched, produced []string, cfg types.ModuleConfig, caps Capabilities, orch Orchestrator, mainPool, internalPool *sharedpool.Wrapper, log logging.Context, registry *Registry) *Module {
	m := &Module{
		Name:           name,
		Kind:           kind,
		WatchedEvents:  watched,
		ProducedEvents: produced,
		Config:         cfg,
		Capabilities:   caps,
		orchestrator:   orch,
		incoming:       queue.New(),
		emissionGate:   gate.New(cfg.OutgoingGateCap),
		mainPool:       mainPool,
		internalPool:   internalPool,
		log:            log,
		stopCh:         make(chan struct{}),
	}
	m.filter = acceptance.New(acceptance.ModuleView{Name: name, Kind: kind, Config: cfg}, watched)
	waitDuration := time.Duration(cfg.BatchWait * float64(time.Second))
	m.batcher = queue.NewBatcher(m.incoming, cfg.BatchSize, waitDuration, m.scanFinishing, registry.Stalemate)
	registry.Register(m)
	return m
}

// AddCleanupCallback registers a callback to run during cleanup, in
// registration order, after the module's own Cleanup capability.
func (m *Module) AddCleanupCallback(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanupCallbacks = append(m.cleanupCallbacks, fn)
}

func (m *Module) scanFinishing() bool {
	return m.orchestrator != nil && m.orchestrator.Status() == ScanFinishing
}

// Priority returns the module's priority clamped to [1,5] on read.
func (m *Module) Priority() int {
	return types.ClampPriority(m.Config.Priority)
}

// Running reports whether the module currently has any task in flight.
func (m *Module) Running() bool {
	return m.Status().Running()
}

// AuthRequired reports whether the module declares that it needs
// credentials configured before it is useful.
func (m *Module) AuthRequired() bool {
	return m.Config.AuthRequired
}

// Errored reports whether the module has entered the errored state.
func (m *Module) Errored() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateErrored
}

// CleanedUp reports whether cleanup has completed.
func (m *Module) CleanedUp() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateCleanedUp
}
