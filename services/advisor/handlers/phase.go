// Copyright (C) 2026 Wayfinder AI (dev@wayfinderai.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"errors"
	"net/http"

	"github.com/WayfinderAI/WayfinderCoach/pkg/validation"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/phases"
	"github.com/gin-gonic/gin"
)

// PhaseRequest identifies one (session, pipeline) for advance and reset.
type PhaseRequest struct {
	SessionID  string `json:"session_id" validate:"required"`
	PipelineID string `json:"pipeline_id" validate:"required"`
	// Force advances past an incomplete phase. Always honored, always
	// recorded in the transition history.
	Force bool `json:"force"`
}

// bindPhaseRequest validates the shared request shape. Returns false after
// writing the error response.
func bindPhaseRequest(c *gin.Context) (PhaseRequest, bool) {
	var req PhaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return req, false
	}
	if err := validation.ValidateRequest(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return req, false
	}

	sessionID, err := validation.SanitizeIdentifier(req.SessionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return req, false
	}
	pipelineID, err := validation.SanitizeIdentifier(req.PipelineID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pipeline id"})
		return req, false
	}
	req.SessionID = sessionID
	req.PipelineID = pipelineID
	return req, true
}

// HandlePhaseAdvance processes one explicit advance request against the
// session's current conversation window.
func HandlePhaseAdvance(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := bindPhaseRequest(c)
		if !ok {
			return
		}

		sess := deps.Registry.GetOrCreate(req.SessionID)
		result, err := deps.Orchestrator.Advance(c.Request.Context(),
			req.SessionID, req.PipelineID, sess.Window(), req.Force)
		if err != nil {
			if errors.Is(err, phases.ErrUnknownPipeline) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			logRequestError("Advance request failed", req.SessionID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process the advance request"})
			return
		}

		if deps.Metrics != nil {
			deps.Metrics.RecordTransition(req.PipelineID, string(result.Status), req.Force)
		}
		c.JSON(http.StatusOK, result)
	}
}

// HandlePhaseStatus returns the current PhaseState view for
// (session_id, pipeline_id) query parameters.
func HandlePhaseStatus(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := validation.SanitizeIdentifier(c.Query("session_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
			return
		}
		pipelineID, err := validation.SanitizeIdentifier(c.Query("pipeline_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pipeline id"})
			return
		}

		state, err := deps.Orchestrator.Status(c.Request.Context(), sessionID, pipelineID)
		if err != nil {
			if errors.Is(err, phases.ErrUnknownPipeline) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			logRequestError("Status request failed", sessionID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load phase state"})
			return
		}
		c.JSON(http.StatusOK, state)
	}
}

// HandlePhaseReset deletes the persisted phase state, the only path that
// moves a pipeline backwards.
func HandlePhaseReset(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := bindPhaseRequest(c)
		if !ok {
			return
		}

		if err := deps.Orchestrator.Reset(c.Request.Context(), req.SessionID, req.PipelineID); err != nil {
			if errors.Is(err, phases.ErrUnknownPipeline) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			logRequestError("Reset request failed", req.SessionID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reset phase state"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "reset", "pipeline_id": req.PipelineID})
	}
}
