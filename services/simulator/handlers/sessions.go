// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"
	"strconv"

	"github.com/AleutianAI/VariantScope/services/simulator/datatypes"
	"github.com/gin-gonic/gin"
)

// ListSessions returns the stored sessions, newest first.
func ListSessions(store *SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

		sessions := store.List(limit, offset)
		if sessions == nil {
			sessions = []*SessionRecord{}
		}
		c.JSON(http.StatusOK, gin.H{"sessions": sessions})
	}
}

// GetSession returns one session's full record.
func GetSession(store *SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec := store.Get(c.Param("sessionId"))
		if rec == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

// DeleteSession removes a session and its history.
func DeleteSession(store *SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !store.Delete(c.Param("sessionId")) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// ResumeSession reactivates a session so a new exchange can continue it.
func ResumeSession(store *SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("sessionId")
		ok := store.Touch(sessionID, func(rec *SessionRecord) {
			rec.Status = "active"
		})
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusOK, store.Get(sessionID))
	}
}

// GetSessionEvents returns the session's stored event history.
func GetSessionEvents(store *SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec := store.Get(c.Param("sessionId"))
		if rec == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"events": rec.Events})
	}
}

// UpdateSession changes a session's title, notes, tags, or mode.
func UpdateSession(store *SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.SessionUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		sessionID := c.Param("sessionId")
		ok := store.Touch(sessionID, func(rec *SessionRecord) {
			if req.Title != nil {
				rec.Title = *req.Title
			}
			if req.Notes != nil {
				rec.Notes = *req.Notes
			}
			if req.Tags != nil {
				rec.Tags = req.Tags
			}
			if req.AnalysisMode != "" {
				rec.AnalysisMode = req.AnalysisMode
			}
		})
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusOK, store.Get(sessionID))
	}
}

// GetVisualization serves chart data for a session directly, using the
// same payload shape chart tools emit inside the stream.
func GetVisualization(store *SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec := store.Get(c.Param("sessionId"))
		if rec == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}

		chartType := c.Param("chartType")
		dimension := c.DefaultQuery("dimension", "consequence")
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

		payload := chartResponse(rec.AnalysisMode)
		payload["chart_type"] = chartType
		payload["dimension"] = dimension
		if records, ok := payload["data"].([]map[string]any); ok && limit > 0 && limit < len(records) {
			payload["data"] = records[:limit]
		}
		c.JSON(http.StatusOK, payload)
	}
}
