// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the simulator's HTTP handlers.
//
// The simulator speaks the coordinator's streaming dialect so the CLI
// and the stream client can be developed and tested without a real
// backend. Every run streams a scripted analysis: a state update, text
// deltas, a chart tool roundtrip, and a final response.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/AleutianAI/VariantScope/services/simulator/datatypes"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// deltaDelay paces the scripted stream so interactive clients show
// visible streaming.
const deltaDelay = 40 * time.Millisecond

// HandleRun streams one scripted analysis exchange.
//
// # Description
//
// Binds the run request, resolves or creates the session, and streams
// the scripted event sequence over SSE. The session ID is returned in
// the X-Session-ID header before the first frame so clients without
// metadata parsing can still bind.
//
// # Inputs
//
// POST body: datatypes.RunRequest. input_text is required;
// analysis_mode must be "clinical" or "research" when present.
//
// # Outputs
//
//   - 200 with a text/event-stream body on success
//   - 400 on validation failure
//   - 500 when the ResponseWriter cannot stream
func HandleRun(store *SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.RunRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		session := store.GetOrCreate(req.SessionID, req.AnalysisMode)
		writer, err := NewEventWriter(c.Writer, session.SessionID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
			return
		}
		SetStreamHeaders(c.Writer, session.SessionID)
		c.Status(http.StatusOK)

		store.AppendEvent(session.SessionID, "user",
			json.RawMessage(mustJSON(map[string]any{"id": uuid.New().String(), "content": req.InputText})))

		if err := streamScript(c, writer, store, session, req); err != nil {
			slog.Warn("stream aborted", "session_id", session.SessionID, "error", err)
		}
	}
}

// streamScript writes the scripted exchange. Any write error means the
// client went away; the script stops there.
func streamScript(c *gin.Context, w EventWriter, store *SessionStore,
	session *SessionRecord, req datatypes.RunRequest) error {

	if err := w.WriteKeepAlive(); err != nil {
		return err
	}

	// State update so the client sees the session snapshot early.
	err := w.WriteEvent(datatypes.CoordinatorEvent{Author: "variants_coordinator"},
		datatypes.EventMetadata{
			EventType: "state_update",
			Session: &datatypes.SessionSnapshot{
				Status:          "active",
				VariantCount:    session.VariantCount,
				PathogenicCount: session.PathogenicCount,
			},
		})
	if err != nil {
		return err
	}

	answer := scriptedAnswer(req.InputText)
	for _, delta := range splitDeltas(answer, 24) {
		if c.Request.Context().Err() != nil {
			return c.Request.Context().Err()
		}
		if err := w.WriteDelta("variants_coordinator", delta); err != nil {
			return err
		}
		time.Sleep(deltaDelay)
	}

	if err := w.WriteDataPing(); err != nil {
		return err
	}

	// Chart tool roundtrip.
	callID := uuid.New().String()
	err = w.WriteEvent(datatypes.CoordinatorEvent{
		Author: "variants_coordinator",
		Content: &datatypes.EventContent{
			Role: "model",
			Parts: []datatypes.EventPart{{
				FunctionCall: &datatypes.FunctionCall{
					ID:   callID,
					Name: "generate_chart_data_tool",
					Args: map[string]any{"dimension": "consequence"},
				},
			}},
		},
	}, datatypes.EventMetadata{})
	if err != nil {
		return err
	}

	err = w.WriteEvent(datatypes.CoordinatorEvent{
		Author: "variants_coordinator",
		Content: &datatypes.EventContent{
			Role: "model",
			Parts: []datatypes.EventPart{{
				FunctionResponse: &datatypes.FunctionResponse{
					ID:       callID,
					Name:     "generate_chart_data_tool",
					Response: chartResponse(session.AnalysisMode),
				},
			}},
		},
	}, datatypes.EventMetadata{
		Progress: &datatypes.Progress{
			Status:            "running",
			EstimatedProgress: 0.8,
			Message:           "chart data ready",
		},
	})
	if err != nil {
		return err
	}

	// Final response closes the exchange.
	err = w.WriteEvent(datatypes.CoordinatorEvent{
		Author:          "variants_coordinator",
		IsFinalResponse: true,
		TurnComplete:    true,
		Content: &datatypes.EventContent{
			Role:  "model",
			Parts: []datatypes.EventPart{{Text: answer}},
		},
	}, datatypes.EventMetadata{EventType: "final_response"})
	if err != nil {
		return err
	}

	store.Touch(session.SessionID, func(rec *SessionRecord) {
		rec.Status = "complete"
		rec.VariantCount = 128
		rec.PathogenicCount = 7
		if rec.Title == "" {
			rec.Title = truncate(req.InputText, 60)
		}
	})
	store.AppendEvent(session.SessionID, "variants_coordinator",
		json.RawMessage(mustJSON(map[string]any{"id": uuid.New().String(), "content": answer, "is_final": true})))
	return nil
}

// scriptedAnswer builds a deterministic answer so tests can assert on
// the assembled transcript.
func scriptedAnswer(question string) string {
	return "Analyzed your question (" + truncate(question, 80) + "). " +
		"The cohort carries 128 annotated variants, 7 of which are " +
		"classified pathogenic. The consequence breakdown is charted below."
}

// splitDeltas chops text into chunks of at most n bytes, splitting on
// spaces where possible so words stay intact.
func splitDeltas(text string, n int) []string {
	var out []string
	for len(text) > n {
		cut := strings.LastIndex(text[:n], " ")
		if cut <= 0 {
			cut = n
		} else {
			cut++ // keep the space with the leading chunk
		}
		out = append(out, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}

func chartResponse(analysisMode string) map[string]any {
	return map[string]any{
		"status":        "success",
		"chart_type":    "bar",
		"title":         "Variants by consequence",
		"dimension":     "consequence",
		"analysis_mode": analysisMode,
		"data": []map[string]any{
			{"label": "missense_variant", "count": 61},
			{"label": "synonymous_variant", "count": 40},
			{"label": "stop_gained", "count": 12},
			{"label": "frameshift_variant", "count": 9},
			{"label": "splice_donor_variant", "count": 6},
		},
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}

// HealthCheck reports liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "coordinator-simulator"})
}
