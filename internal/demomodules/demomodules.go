// ============================================================================
// Scanrunner Demonstration Modules
// ============================================================================
//
// Package: internal/demomodules
// File: demomodules.go
// Purpose: A small, self-contained module set exercising the runtime end
//          to end — subdomain-style enumeration, resolution, and a
//          collecting report sink
//
// A handful of illustrative components wired directly against the
// reusable core, run long enough to show the system actually moving work
// through itself. Nothing here is imported by internal/module; it is
// demonstration-only.
//
// ============================================================================

package demomodules

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ChuLiYu/scanrunner/internal/logging"
	"github.com/ChuLiYu/scanrunner/internal/module"
	"github.com/ChuLiYu/scanrunner/internal/sharedpool"
	"github.com/ChuLiYu/scanrunner/pkg/types"
)

// Orchestrator is the minimal surface demo modules need from whatever
// devscan.Scan (or another Orchestrator implementation) is driving them;
// it exists only to avoid an import of internal/devscan from this
// package, keeping the demo modules reusable against any Orchestrator.
type Orchestrator = module.Orchestrator

// Report collects every event the report module observes, guarded by a
// mutex since Lines() may be read while the handler is recording.
type Report struct {
	mu    sync.Mutex
	lines []string
}

// Record appends a formatted line describing e.
func (r *Report) Record(e *types.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, fmt.Sprintf("[distance=%d] %s %s <- %s", e.ScopeDistance, e.Type, e.Key, e.Producer))
}

// Lines returns a snapshot of the recorded lines.
func (r *Report) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

// configFor decodes moduleName's options out of raw per-module config,
// falling back to the documented defaults when nothing is declared.
func configFor(moduleOptions map[string]map[string]any, moduleName string) (types.ModuleConfig, error) {
	return types.DecodeModuleConfig(moduleOptions[moduleName])
}

// wrappers builds the pair of per-module pool wrappers the descriptor
// expects, sized from that module's own declared max_threads (the general
// main pool) and max_event_handlers (the internal pool, on which the
// runtime dispatches handle_event, handle_batch, finish and report).
func wrappers(mainPool, internalPool *sharedpool.Pool, cfg types.ModuleConfig) (mainW, internalW *sharedpool.Wrapper) {
	return sharedpool.NewWrapper(mainPool, cfg.MaxThreads), sharedpool.NewWrapper(internalPool, cfg.MaxEventHandlers)
}

// BuildSubdomainEnumerator returns a module that watches DNS_NAME events
// and speculatively emits a handful of subdomains under each one, the
// same "amplify the input" shape as a real subdomain brute-forcer.
func BuildSubdomainEnumerator(orch Orchestrator, mainPool, internalPool *sharedpool.Pool, registry *module.Registry, log logging.Context, moduleOptions map[string]map[string]any) (*module.Module, error) {
	const name = "subdomain_enum"
	cfg, err := configFor(moduleOptions, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	mainW, internalW := wrappers(mainPool, internalPool, cfg)

	var mod *module.Module
	caps := module.Capabilities{
		HandleEvent: func(ctx context.Context, e *types.Event) error {
			if e.HasTag("generated") {
				return nil
			}
			for _, prefix := range []string{"www", "api", "mail"} {
				key := prefix + "." + e.Key
				_, err := mod.Emit(ctx, "DNS_NAME", e, module.EmitOptions{Key: key}, "generated")
				if err != nil {
					log.Warn("emit failed", "prefix", prefix, "error", err.Error())
				}
			}
			return nil
		},
	}
	mod = module.New(name, types.ModuleKindNormal, []string{"DNS_NAME"}, []string{"DNS_NAME"}, cfg, caps, orch, mainW, internalW, log.With("module", name), registry)
	return mod, nil
}

// BuildResolver returns a module that watches DNS_NAME events and emits
// one IP_ADDRESS per name, with a small simulated resolution delay.
func BuildResolver(orch Orchestrator, mainPool, internalPool *sharedpool.Pool, registry *module.Registry, log logging.Context, moduleOptions map[string]map[string]any) (*module.Module, error) {
	const name = "resolver"
	cfg, err := configFor(moduleOptions, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	mainW, internalW := wrappers(mainPool, internalPool, cfg)

	var mod *module.Module
	caps := module.Capabilities{
		HandleEvent: func(ctx context.Context, e *types.Event) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Millisecond):
			}
			_, err := mod.Emit(ctx, "IP_ADDRESS", e, module.EmitOptions{Key: e.Key + "-resolved"})
			return err
		},
	}
	mod = module.New(name, types.ModuleKindNormal, []string{"DNS_NAME"}, []string{"IP_ADDRESS"}, cfg, caps, orch, mainW, internalW, log.With("module", name), registry)
	return mod, nil
}

// BuildReport returns an output-kind module that watches every event type
// and records each into report. Output modules serialize their handler
// invocations, so report needs no internal locking against itself, only
// against concurrent reads of Lines().
func BuildReport(orch Orchestrator, mainPool, internalPool *sharedpool.Pool, registry *module.Registry, log logging.Context, moduleOptions map[string]map[string]any, report *Report) (*module.Module, error) {
	const name = "report"
	cfg, err := configFor(moduleOptions, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	mainW, internalW := wrappers(mainPool, internalPool, cfg)

	caps := module.Capabilities{
		HandleEvent: func(ctx context.Context, e *types.Event) error {
			report.Record(e)
			return nil
		},
	}
	return module.New(name, types.ModuleKindOutput, []string{"*"}, nil, cfg, caps, orch, mainW, internalW, log.With("module", name), registry), nil
}
