// Copyright (C) 2026 Wayfinder AI (dev@wayfinderai.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/handlers"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes registers the advisor's HTTP surface on the router.
// Everything under /v1 runs behind the auth middleware; health and metrics
// stay open for probes and scrapers.
func SetupRoutes(router *gin.Engine, deps handlers.Deps, auth middleware.AuthProvider) {
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(auth))
	{
		v1.POST("/turn", handlers.HandleTurn(deps))

		phase := v1.Group("/phase")
		{
			phase.POST("/advance", handlers.HandlePhaseAdvance(deps))
			phase.GET("/status", handlers.HandlePhaseStatus(deps))
			phase.POST("/reset", handlers.HandlePhaseReset(deps))
		}

		tools := v1.Group("/tools")
		{
			tools.POST("/invoke", handlers.HandleToolInvoke(deps))
		}

		v1.GET("/cache/stats", handlers.HandleCacheStats(deps.Cache))
	}
}
