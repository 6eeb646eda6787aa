// ============================================================================
// Scanrunner Telemetry - Prometheus Exporter
// ============================================================================
//
// Package: internal/telemetry
// File: collector.go
// Purpose: Translates per-module status snapshots and lifecycle
//          transition counters into Prometheus collectors
//
// A struct of pre-registered prometheus.Counter/Gauge fields, one
// NewCollector constructor, and small Record*/Observe methods called from
// the owning component. Every metric is labeled by module_name, since a
// scan runs many modules concurrently.
//
// ============================================================================

package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ChuLiYu/scanrunner/pkg/types"
)

// Collector holds every Prometheus collector this runtime exposes,
// labeled by module_name where a metric is module-scoped.
type Collector struct {
	incomingDepth     *prometheus.GaugeVec
	outgoingInFlight  *prometheus.GaugeVec
	mainPoolTasks     *prometheus.GaugeVec
	internalPoolTasks *prometheus.GaugeVec
	errored           *prometheus.GaugeVec
	running           *prometheus.GaugeVec

	eventsConsumed       *prometheus.CounterVec
	eventsProduced       *prometheus.CounterVec
	eventsEmissionFailed *prometheus.CounterVec
	lifecycleTransitions *prometheus.CounterVec
}

// NewCollector builds a Collector and registers every metric against reg.
// Pass prometheus.NewRegistry() in tests to avoid colliding with the
// default global registry; pass prometheus.DefaultRegisterer in
// production.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		incomingDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scanrunner_module_incoming_queue_depth",
			Help: "Number of events and control tokens currently queued for a module.",
		}, []string{"module_name"}),
		outgoingInFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scanrunner_module_outgoing_in_flight",
			Help: "Number of outgoing events a module has emitted but that have not yet been released by the downstream consumer.",
		}, []string{"module_name"}),
		mainPoolTasks: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scanrunner_module_main_pool_tasks",
			Help: "Number of tasks this module currently has in flight on the shared general pool.",
		}, []string{"module_name"}),
		internalPoolTasks: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scanrunner_module_internal_pool_tasks",
			Help: "Number of tasks this module currently has in flight on the shared internal (handler) pool.",
		}, []string{"module_name"}),
		errored: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scanrunner_module_errored",
			Help: "1 if the module has entered the errored state, 0 otherwise.",
		}, []string{"module_name"}),
		running: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scanrunner_module_running",
			Help: "1 if the module currently has any task in flight, 0 otherwise.",
		}, []string{"module_name"}),
		eventsConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scanrunner_module_events_consumed_total",
			Help: "Total number of events accepted by a module's acceptance filter.",
		}, []string{"module_name"}),
		eventsProduced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scanrunner_module_events_produced_total",
			Help: "Total number of events successfully handed off to the orchestrator by a module.",
		}, []string{"module_name"}),
		eventsEmissionFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scanrunner_module_events_emission_failed_total",
			Help: "Total number of emission attempts that failed validation or handoff.",
		}, []string{"module_name"}),
		lifecycleTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scanrunner_module_lifecycle_transitions_total",
			Help: "Total number of lifecycle phase transitions a module has gone through.",
		}, []string{"module_name", "phase"}),
	}

	reg.MustRegister(
		c.incomingDepth,
		c.outgoingInFlight,
		c.mainPoolTasks,
		c.internalPoolTasks,
		c.errored,
		c.running,
		c.eventsConsumed,
		c.eventsProduced,
		c.eventsEmissionFailed,
		c.lifecycleTransitions,
	)
	return c
}

// boolGauge converts a bool to the 0/1 Prometheus gauge convention.
func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Observe records one module's current status snapshot. Call this
// periodically (e.g. from a poller goroutine in the demonstration host)
// for every module in a scan.
func (c *Collector) Observe(moduleName string, status types.StatusSnapshot) {
	c.incomingDepth.WithLabelValues(moduleName).Set(float64(status.IncomingDepth))
	c.outgoingInFlight.WithLabelValues(moduleName).Set(float64(status.OutgoingInFlight))
	c.mainPoolTasks.WithLabelValues(moduleName).Set(float64(status.MainPoolTasks))
	c.internalPoolTasks.WithLabelValues(moduleName).Set(float64(status.InternalPoolTasks))
	c.errored.WithLabelValues(moduleName).Set(boolGauge(status.Errored))
	c.running.WithLabelValues(moduleName).Set(boolGauge(status.Running()))
}

// RecordEventConsumed increments the events-accepted counter for moduleName.
func (c *Collector) RecordEventConsumed(moduleName string) {
	c.eventsConsumed.WithLabelValues(moduleName).Inc()
}

// RecordEventProduced increments the events-emitted counter for moduleName.
func (c *Collector) RecordEventProduced(moduleName string) {
	c.eventsProduced.WithLabelValues(moduleName).Inc()
}

// RecordEmissionFailed increments the failed-emission counter for moduleName.
func (c *Collector) RecordEmissionFailed(moduleName string) {
	c.eventsEmissionFailed.WithLabelValues(moduleName).Inc()
}

// RecordLifecycleTransition increments the lifecycle-transition counter for
// moduleName entering the given phase (e.g. "setup", "running",
// "finishing", "reporting", "cleanup", "errored").
func (c *Collector) RecordLifecycleTransition(moduleName, phase string) {
	c.lifecycleTransitions.WithLabelValues(moduleName, phase).Inc()
}
