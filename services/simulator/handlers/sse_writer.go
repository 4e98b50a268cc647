// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
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
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/AleutianAI/VariantScope/services/simulator/datatypes"
	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// EventWriter defines the contract for writing coordinator stream
// frames to HTTP responses.
//
// # Description
//
// EventWriter abstracts the coordinator's SSE dialect: each frame is
// an optional "id:" line, an optional "event:" line, and one non-empty
// "data:" line. A frame is complete when the data line is written; no
// trailing blank line is required. Keep-alives are comment lines or
// sentinel data payloads that carry no frame.
//
// Events are wrapped in the enhanced envelope before writing: the
// agent event is serialized to JSON, then embedded as a string in
// {"event": ..., "metadata": ...}, matching the production
// coordinator's double encoding.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Streaming handlers
// emit keep-alives from a ticker goroutine while the script goroutine
// writes events.
//
// # Assumptions
//
//   - Caller has set Content-Type: text/event-stream before writing
type EventWriter interface {
	// WriteEvent writes one enhanced-envelope frame. The event's ID is
	// assigned when empty, and the metadata timestamp is stamped.
	WriteEvent(event datatypes.CoordinatorEvent, meta datatypes.EventMetadata) error

	// WriteDelta writes a partial streaming text frame.
	WriteDelta(author, text string) error

	// WriteKeepAlive writes a comment-line keep-alive (": ping").
	WriteKeepAlive() error

	// WriteDataPing writes a sentinel keep-alive ("data: ping").
	WriteDataPing() error
}

// =============================================================================
// Struct Definition
// =============================================================================

// eventWriter implements EventWriter over an http.ResponseWriter.
//
// # Fields
//
//   - writer: Underlying http.ResponseWriter
//   - flusher: http.Flusher for immediate send
//   - sessionID: Stamped into every frame's metadata
//   - mu: Mutex for thread-safe writes
type eventWriter struct {
	writer    http.ResponseWriter
	flusher   http.Flusher
	sessionID string
	mu        sync.Mutex
}

// NewEventWriter creates an EventWriter for the given ResponseWriter.
// Returns an error if the ResponseWriter does not support flushing.
func NewEventWriter(w http.ResponseWriter, sessionID string) (EventWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("ResponseWriter does not support http.Flusher")
	}
	return &eventWriter{
		writer:    w,
		flusher:   flusher,
		sessionID: sessionID,
	}, nil
}

// =============================================================================
// Methods
// =============================================================================

func (w *eventWriter) WriteEvent(event datatypes.CoordinatorEvent, meta datatypes.EventMetadata) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if meta.SessionID == "" {
		meta.SessionID = w.sessionID
	}
	if meta.Timestamp == "" {
		meta.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}

	// Double-encode the event to match the production serializer.
	inner, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	envelope, err := json.Marshal(map[string]any{
		"event":    string(inner),
		"metadata": meta,
	})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	if _, err := fmt.Fprintf(w.writer, "id: %s\ndata: %s\n", event.ID, envelope); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	w.flusher.Flush()
	return nil
}

func (w *eventWriter) WriteDelta(author, text string) error {
	return w.WriteEvent(datatypes.CoordinatorEvent{
		Author:  author,
		Partial: true,
		Content: &datatypes.EventContent{
			Role:  "model",
			Parts: []datatypes.EventPart{{Text: text}},
		},
	}, datatypes.EventMetadata{})
}

func (w *eventWriter) WriteKeepAlive() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := fmt.Fprint(w.writer, ": ping\n"); err != nil {
		return fmt.Errorf("write keepalive: %w", err)
	}
	w.flusher.Flush()
	return nil
}

func (w *eventWriter) WriteDataPing() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := fmt.Fprint(w.writer, "data: ping\n"); err != nil {
		return fmt.Errorf("write data ping: %w", err)
	}
	w.flusher.Flush()
	return nil
}

// =============================================================================
// Helper Functions
// =============================================================================

// SetStreamHeaders configures HTTP response headers for SSE streaming.
// Must be called before writing any response body.
func SetStreamHeaders(w http.ResponseWriter, sessionID string) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set("X-Session-ID", sessionID)
}

// =============================================================================
// Compile-time Interface Check
// =============================================================================

var _ EventWriter = (*eventWriter)(nil)
