// Copyright (C) 2026 Wayfinder AI (dev@wayfinderai.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers contains the gin handlers of the advisor service.
//
// Handlers are constructed as closures over a Deps value, so tests can
// wire fakes without any global state.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/WayfinderAI/WayfinderCoach/pkg/validation"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/cache"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/coherence"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/datatypes"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/graph"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/observability"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/phases"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/search"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/session"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/signals"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/suggest"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("wayfinder.advisor.handlers")

// graphRefreshTimeout bounds the background graph lookup one turn spawns.
const graphRefreshTimeout = 3 * time.Second

// Deps wires the handlers' collaborators. Registry, Extractor, and Engine
// are required by the turn handler; the rest degrade gracefully when nil.
type Deps struct {
	Registry  *session.Registry
	Extractor *signals.Extractor
	Engine    *suggest.Engine
	Updater   *coherence.Updater

	// Graph feeds the per-session background graph refresh; nil disables it.
	Graph graph.Adapter

	Orchestrator *phases.Orchestrator
	Cache        *cache.LookupCache
	Search       *search.Registry

	// Metrics may be nil in tests.
	Metrics *observability.EngineMetrics
}

// TurnRequest is one user message.
type TurnRequest struct {
	SessionID   string `json:"session_id" validate:"required"`
	Methodology string `json:"methodology" validate:"required"`
	Message     string `json:"message" validate:"required,min=1,max=8000"`
}

// TurnResponse is the per-turn engine output.
type TurnResponse struct {
	Turn        int                         `json:"turn"`
	Suggestions datatypes.SuggestionSet     `json:"suggestions"`
	Signals     datatypes.SignalSet         `json:"signals"`
	Coherence   datatypes.CoherenceSnapshot `json:"coherence"`
}

// HandleTurn processes one user message synchronously: extract signals,
// score against the latest completed snapshot and graph hits, and return
// the SuggestionSet. No blocking external calls happen on this path; the
// coherence pass and the graph refresh are scheduled as detached units.
func HandleTurn(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "HandleTurn")
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()

		var req TurnRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := validation.ValidateRequest(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sessionID, err := validation.SanitizeIdentifier(req.SessionID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
			return
		}
		methodology, err := datatypes.ParseMethodologyID(req.Methodology)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		sess := deps.Registry.GetOrCreate(sessionID)
		msg := sess.Append("user", req.Message)

		signalSet := deps.Extractor.Extract(req.Message)
		suggestions := deps.Engine.Score(suggest.Input{
			Message:  req.Message,
			Signals:  signalSet,
			Snapshot: sess.Tracker.Snapshot(),
			Graph:    sess.GraphHits(),
			Active:   methodology,
		})

		if deps.Updater != nil {
			deps.Updater.MaybeSchedule(sess.ID, sess.Tracker, msg.Turn, sess.Window())
		}
		scheduleGraphRefresh(deps.Graph, sess, req.Message)

		if deps.Metrics != nil {
			shown := 0
			for _, tool := range suggestions.Tools {
				if tool.Shown {
					shown++
				}
			}
			deps.Metrics.RecordTurn(string(methodology), time.Since(start).Seconds(), true)
			deps.Metrics.RecordSuggestions(shown, len(suggestions.Agents))
			deps.Metrics.ActiveSessions.Set(float64(deps.Registry.Len()))
		}

		c.JSON(http.StatusOK, TurnResponse{
			Turn:        msg.Turn,
			Suggestions: suggestions,
			Signals:     signalSet,
			Coherence:   sess.Tracker.Snapshot(),
		})
	}
}

// scheduleGraphRefresh kicks off a detached graph lookup whose result feeds
// the NEXT turn's scoring. The foreground path never waits on the graph.
func scheduleGraphRefresh(adapter graph.Adapter, sess *session.Session, anchor string) {
	if adapter == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), graphRefreshTimeout)
		defer cancel()

		related, err := adapter.QueryRelated(ctx, anchor)
		if err != nil {
			// Unavailable graphs read as empty; no contribution next turn.
			sess.PublishGraphHits(graph.Related{})
			return
		}
		sess.PublishGraphHits(related)
	}()
}

// HealthCheck reports service liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleCacheStats exposes lookup cache counters for operators.
func HandleCacheStats(lookup *cache.LookupCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		if lookup == nil {
			c.JSON(http.StatusOK, cache.Stats{})
			return
		}
		stats := lookup.Stats()
		if m := observability.DefaultMetrics; m != nil {
			m.CacheEntries.Set(float64(stats.EntryCount))
		}
		c.JSON(http.StatusOK, stats)
	}
}

// logRequestError logs a handler failure with its request identity.
func logRequestError(msg, sessionID string, err error) {
	slog.Error(msg, "session_id", sessionID, "error", err)
}
