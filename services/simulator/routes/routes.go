// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
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
	"github.com/AleutianAI/VariantScope/services/simulator/handlers"
	"github.com/gin-gonic/gin"
)

// SetupRoutes registers the simulator's endpoints. The route shapes
// match what the CLI and stream client expect from the coordinator.
func SetupRoutes(router *gin.Engine, store *handlers.SessionStore) {
	router.GET("/health", handlers.HealthCheck)
	router.POST("/run", handlers.HandleRun(store))

	sessions := router.Group("/sessions")
	{
		sessions.GET("", handlers.ListSessions(store))
		sessions.GET("/:sessionId", handlers.GetSession(store))
		sessions.DELETE("/:sessionId", handlers.DeleteSession(store))
		sessions.POST("/:sessionId/resume", handlers.ResumeSession(store))
		sessions.GET("/:sessionId/events", handlers.GetSessionEvents(store))
		sessions.POST("/:sessionId/update", handlers.UpdateSession(store))
		sessions.GET("/:sessionId/visualization/:chartType", handlers.GetVisualization(store))
	}
}
