// ============================================================================
// Scanrunner CLI - Demonstration Scan Wiring
// ============================================================================
//
// Package: internal/cli
// File: run.go
// Purpose: Builds the shared pools, the module set, and the demonstration
//          orchestrator, then drives one scan to completion
//
// Build the pools, build the modules, start them, seed the targets, poll
// until the scan drains, finish, clean up. Several independent modules
// share the two process-wide pools.
//
// ============================================================================

package cli

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ChuLiYu/scanrunner/internal/demomodules"
	"github.com/ChuLiYu/scanrunner/internal/devscan"
	"github.com/ChuLiYu/scanrunner/internal/logging"
	"github.com/ChuLiYu/scanrunner/internal/module"
	"github.com/ChuLiYu/scanrunner/internal/sharedpool"
	"github.com/ChuLiYu/scanrunner/internal/telemetry"
	"github.com/ChuLiYu/scanrunner/pkg/types"
)

// DemoResult summarizes one completed demonstration scan.
type DemoResult struct {
	Stats       devscan.Snapshot
	ReportLines []string
}

const (
	mainPoolSize          = 8
	internalPoolSize      = 16
	poolQueueDepth        = 256
	scanDrainGracePeriod  = 2 * time.Second
	telemetryPollInterval = 200 * time.Millisecond
)

// RunDemoScan builds the module set described by cfg, runs it against
// cfg's targets until every module has drained, sends each module FINISH,
// cleans up, and returns the accumulated statistics. No REPORT token is
// sent to any module. If reg is non-nil, per-module status is
// exported to it for the duration of the run.
func RunDemoScan(cfg devscan.ScanConfig, log logging.Context, reg *prometheus.Registry) (DemoResult, error) {
	mainPool := sharedpool.New(mainPoolSize, poolQueueDepth)
	internalPool := sharedpool.New(internalPoolSize, poolQueueDepth)
	defer mainPool.Stop()
	defer internalPool.Stop()

	registry := module.NewRegistry()
	report := &demomodules.Report{}

	var collector *telemetry.Collector
	if reg != nil {
		collector = telemetry.NewCollector(reg)
	}

	// The router needs to know every module once built, but every module
	// needs the scan (as its Orchestrator) to exist first. Break the
	// cycle with a pointer the router dereferences lazily, at dispatch
	// time rather than at construction time.
	var mods []*module.Module
	scan := devscan.New(cfg.ScopeSearchDistance, cfg.Targets, log.With("component", "scan"), broadcastRouter(&mods))

	mods, err := buildModules(scan, mainPool, internalPool, registry, log, cfg, report)
	if err != nil {
		return DemoResult{}, err
	}

	ctx := context.Background()
	for _, m := range mods {
		m.Setup(ctx)
	}
	for _, m := range mods {
		m.Start(ctx)
	}
	scan.SetStatus(module.ScanRunning)

	if collector != nil {
		stopPolling := pollTelemetry(collector, mods, telemetryPollInterval)
		defer stopPolling()
	}

	seedTargets(scan, mods, cfg.Targets)

	waitUntilQuiescent(mods, scanDrainGracePeriod)

	scan.SetStatus(module.ScanFinishing)
	for _, m := range mods {
		m.Finish()
	}
	waitUntilQuiescent(mods, scanDrainGracePeriod)

	for _, m := range mods {
		m.Cleanup(ctx)
	}

	return DemoResult{
		Stats:       scan.Stats().Snapshot(),
		ReportLines: report.Lines(),
	}, nil
}

// buildModules constructs the fixed demonstration module set. Every
// module gets its own pair of pool wrappers, sized from its own config,
// over the two process-wide shared pools.
func buildModules(scan *devscan.Scan, mainPool, internalPool *sharedpool.Pool, registry *module.Registry, log logging.Context, cfg devscan.ScanConfig, report *demomodules.Report) ([]*module.Module, error) {
	enumMod, err := demomodules.BuildSubdomainEnumerator(scan, mainPool, internalPool, registry, log, cfg.Modules)
	if err != nil {
		return nil, err
	}
	resolveMod, err := demomodules.BuildResolver(scan, mainPool, internalPool, registry, log, cfg.Modules)
	if err != nil {
		return nil, err
	}
	reportMod, err := demomodules.BuildReport(scan, mainPool, internalPool, registry, log, cfg.Modules, report)
	if err != nil {
		return nil, err
	}
	return []*module.Module{enumMod, resolveMod, reportMod}, nil
}

// broadcastRouter fans every emitted event out to every module's incoming
// queue; each module's own acceptance filter decides whether to keep it.
// This mirrors a real orchestrator's event bus, simplified to direct
// fan-out since there is no network hop to multiplex over.
func broadcastRouter(mods *[]*module.Module) devscan.EventRouter {
	return func(e *types.Event) {
		for _, m := range *mods {
			m.QueueItem(types.EventItem(e))
		}
	}
}

// seedTargets constructs and routes one DNS_NAME seed event per
// configured target, kicking off the pipeline.
func seedTargets(scan *devscan.Scan, mods []*module.Module, targets []string) {
	for _, t := range targets {
		e, err := scan.MakeEvent("DNS_NAME", nil, "seed", "target")
		if err != nil {
			continue
		}
		e.Key = t
		for _, m := range mods {
			m.QueueItem(types.EventItem(e))
		}
	}
}

// waitUntilQuiescent polls every module's status until none have any task
// in flight and no queue holds anything, or until grace elapses.
func waitUntilQuiescent(mods []*module.Module, grace time.Duration) {
	deadline := time.Now().Add(grace)
	for time.Now().Before(deadline) {
		quiet := true
		for _, m := range mods {
			status := m.Status()
			if status.Running() || status.IncomingDepth > 0 {
				quiet = false
				break
			}
		}
		if quiet {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// pollTelemetry periodically observes every module's status into
// collector until the returned stop function is called.
func pollTelemetry(collector *telemetry.Collector, mods []*module.Module, interval time.Duration) func() {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				for _, m := range mods {
					collector.Observe(m.Name, m.Status())
				}
			}
		}
	}()
	return func() { close(stop) }
}
