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
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/WayfinderAI/WayfinderCoach/pkg/validation"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/datatypes"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/search"
	"github.com/gin-gonic/gin"
)

// toolInvokeTimeout bounds one explicit tool invocation.
const toolInvokeTimeout = 10 * time.Second

// ToolInvokeRequest is an explicit user invocation of one suggested tool.
type ToolInvokeRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	Category  string `json:"category" validate:"required"`
	Query     string `json:"query" validate:"required,min=2,max=512"`
}

// ToolInvokeResponse carries one tool's results.
type ToolInvokeResponse struct {
	Category datatypes.ToolCategory `json:"category"`
	Items    []search.Item          `json:"items"`
}

// HandleToolInvoke runs one explicit tool invocation through the cache and
// the category's provider.
//
// Unlike the suggestion path, where a failing source silently contributes
// nothing, an explicitly invoked tool reports its failure to the user as a
// plain descriptive message for that one tool.
func HandleToolInvoke(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ToolInvokeRequest
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
		category, err := datatypes.ParseToolCategory(req.Category)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		provider, err := deps.Search.Provider(category)
		if err != nil {
			if errors.Is(err, search.ErrNotConfigured) {
				recordInvocation(deps, category, false)
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"error": fmt.Sprintf("the %s tool is not configured on this deployment", category),
				})
				return
			}
			logRequestError("Tool invocation failed", sessionID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "tool invocation failed"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), toolInvokeTimeout)
		defer cancel()

		value, err := deps.Cache.GetOrFetch(ctx, category, req.Query, func(ctx context.Context) (any, error) {
			return provider.Search(ctx, req.Query)
		})
		if err != nil {
			recordInvocation(deps, category, false)
			logRequestError("Tool invocation failed", sessionID, err)
			c.JSON(http.StatusBadGateway, gin.H{
				"error": fmt.Sprintf("the %s tool did not return results: %v", category, err),
			})
			return
		}

		items, _ := value.([]search.Item)
		recordInvocation(deps, category, true)
		c.JSON(http.StatusOK, ToolInvokeResponse{Category: category, Items: items})
	}
}

func recordInvocation(deps Deps, category datatypes.ToolCategory, success bool) {
	if deps.Metrics != nil {
		deps.Metrics.RecordToolInvocation(string(category), success)
	}
}
