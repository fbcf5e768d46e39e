// Copyright (C) 2026 Wayfinder AI (dev@wayfinderai.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the advisor service.
//
// Metrics cover the turn path (request counts and latency), suggestion
// output volumes, phase transitions, tool invocations, and lookup cache
// behavior. Exposed via the /metrics endpoint for Prometheus + Grafana.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

const metricsNamespace = "wayfinder"

const advisorSubsystem = "advisor"

// EngineMetrics holds all Prometheus metrics for the advisor engine.
// Initialize once at startup via InitMetrics().
type EngineMetrics struct {
	// TurnsTotal counts processed turns.
	// Labels: methodology, status (success, error)
	TurnsTotal *prometheus.CounterVec

	// TurnDurationSeconds measures the synchronous turn path latency.
	// Labels: methodology
	TurnDurationSeconds *prometheus.HistogramVec

	// SuggestionsTotal counts emitted suggestions.
	// Labels: kind (tool, agent)
	SuggestionsTotal *prometheus.CounterVec

	// PhaseTransitionsTotal counts advance request outcomes.
	// Labels: pipeline, status (incomplete, advanced, complete), forced
	PhaseTransitionsTotal *prometheus.CounterVec

	// ToolInvocationsTotal counts explicit tool invocations.
	// Labels: category, status (success, error)
	ToolInvocationsTotal *prometheus.CounterVec

	// CacheEntries tracks the current lookup cache size.
	CacheEntries prometheus.Gauge

	// ActiveSessions tracks the number of live sessions.
	ActiveSessions prometheus.Gauge
}

// DefaultMetrics is the singleton instance, set by InitMetrics().
var DefaultMetrics *EngineMetrics

// InitMetrics creates and registers all advisor metrics.
//
// Call once at startup; a second call panics on duplicate registration.
func InitMetrics() *EngineMetrics {
	DefaultMetrics = &EngineMetrics{
		TurnsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: advisorSubsystem,
				Name:      "turns_total",
				Help:      "Total processed turns by methodology and status",
			},
			[]string{"methodology", "status"},
		),

		TurnDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: advisorSubsystem,
				Name:      "turn_duration_seconds",
				Help:      "Synchronous turn path latency in seconds",
				Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
			},
			[]string{"methodology"},
		),

		SuggestionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: advisorSubsystem,
				Name:      "suggestions_total",
				Help:      "Total emitted suggestions by kind",
			},
			[]string{"kind"},
		),

		PhaseTransitionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: advisorSubsystem,
				Name:      "phase_transitions_total",
				Help:      "Total advance request outcomes by pipeline, status, and forced flag",
			},
			[]string{"pipeline", "status", "forced"},
		),

		ToolInvocationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: advisorSubsystem,
				Name:      "tool_invocations_total",
				Help:      "Total explicit tool invocations by category and status",
			},
			[]string{"category", "status"},
		),

		CacheEntries: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: advisorSubsystem,
				Name:      "cache_entries",
				Help:      "Current number of live lookup cache entries",
			},
		),

		ActiveSessions: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: advisorSubsystem,
				Name:      "active_sessions",
				Help:      "Number of live conversation sessions",
			},
		),
	}

	return DefaultMetrics
}

// =============================================================================
// Helper Methods
// =============================================================================

// RecordTurn records one completed turn.
func (m *EngineMetrics) RecordTurn(methodology string, seconds float64, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.TurnsTotal.WithLabelValues(methodology, status).Inc()
	if success {
		m.TurnDurationSeconds.WithLabelValues(methodology).Observe(seconds)
	}
}

// RecordSuggestions records the output volume of one scoring pass.
func (m *EngineMetrics) RecordSuggestions(tools, agents int) {
	m.SuggestionsTotal.WithLabelValues("tool").Add(float64(tools))
	m.SuggestionsTotal.WithLabelValues("agent").Add(float64(agents))
}

// RecordTransition records one advance request outcome.
func (m *EngineMetrics) RecordTransition(pipeline, status string, forced bool) {
	forcedLabel := "false"
	if forced {
		forcedLabel = "true"
	}
	m.PhaseTransitionsTotal.WithLabelValues(pipeline, status, forcedLabel).Inc()
}

// RecordToolInvocation records one explicit tool invocation.
func (m *EngineMetrics) RecordToolInvocation(category string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.ToolInvocationsTotal.WithLabelValues(category, status).Inc()
}
