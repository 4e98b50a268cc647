// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package stream implements the client side of the variants coordinator
// streaming protocol: framing, payload decoding, event classification,
// visualization detection, transcript assembly, and the connection
// lifecycle manager.
//
// The coordinator speaks an SSE dialect where a frame is complete as soon
// as a non-empty data payload arrives; blank lines are not boundaries.
// Data payloads come in two shapes. The enhanced shape wraps the agent
// event in metadata:
//
//	{"event": {...}, "metadata": {"session_id": "...", "event_type": "...", ...}}
//
// The legacy flat shape carries the fields at the top level:
//
//	{"id": "...", "content": "...", "session_id": "..."}
//
// Both are accepted and normalized into EventRecord.
package stream

import (
	"encoding/json"
	"fmt"
	"time"
)

// RawFrame is one parsed line group from the stream: an optional id, an
// optional event label, and the raw data payload. Frames are ephemeral;
// they exist only between the FrameScanner and DecodeFrame.
type RawFrame struct {
	ID    string
	Event string
	Data  string
}

// ToolCall describes a function invocation part embedded in an event.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolResult describes a function response part embedded in an event.
type ToolResult struct {
	ID       string
	Name     string
	Response map[string]any
}

// SessionSnapshot mirrors the coordinator's per-event session summary.
type SessionSnapshot struct {
	Status          string `json:"status"`
	VepStatus       string `json:"vep_status"`
	VepTaskID       string `json:"vep_task_id"`
	VariantCount    int    `json:"variant_count"`
	PathogenicCount int    `json:"pathogenic_count"`
}

// Progress carries the coordinator's coarse progress estimate for the
// in-flight analysis.
type Progress struct {
	Status            string  `json:"status"`
	EstimatedProgress float64 `json:"estimated_progress"`
	Message           string  `json:"message"`
}

// SourceMetadata is the normalized metadata attached to an event. For
// legacy payloads only SessionID (and sometimes Timestamp) is populated.
type SourceMetadata struct {
	SessionID     string
	UserID        string
	Timestamp     time.Time
	EventType     string
	Session       *SessionSnapshot
	Progress      *Progress
	Visualization json.RawMessage
}

// EventRecord is the decoded, classified unit derived from one frame.
// Records are immutable after DecodeFrame returns; consumers own them
// and the parser retains nothing.
type EventRecord struct {
	ID      string
	Kind    string
	Author  string
	Content string
	Raw     json.RawMessage
	Calls   []ToolCall
	Results []ToolResult
	Meta    SourceMetadata
	IsFinal bool
	Partial bool

	// firstText is the first text part found during decode, kept
	// separate from Content so the classifier can distinguish real
	// text from a synthesized description.
	firstText string
}

// payloadProbe discriminates between the enhanced and legacy shapes.
// The enhanced shape always carries both keys; anything else is legacy.
type payloadProbe struct {
	Metadata json.RawMessage `json:"metadata"`
	Event    json.RawMessage `json:"event"`
}

// enhancedMetadata is the wire form of the enhancer's metadata block.
type enhancedMetadata struct {
	SessionID     string           `json:"session_id"`
	UserID        string           `json:"user_id"`
	FirebaseUID   string           `json:"firebase_uid"`
	Timestamp     string           `json:"timestamp"`
	EventType     string           `json:"event_type"`
	Session       *SessionSnapshot `json:"session"`
	Progress      *Progress        `json:"progress"`
	Visualization json.RawMessage  `json:"visualization"`
}

// coordinatorEvent is the agent event embedded in an enhanced payload.
type coordinatorEvent struct {
	ID              string         `json:"id"`
	Author          string         `json:"author"`
	Partial         bool           `json:"partial"`
	IsFinalResponse bool           `json:"is_final_response"`
	TurnComplete    bool           `json:"turn_complete"`
	ErrorMessage    string         `json:"error_message"`
	Content         *eventContent  `json:"content"`
	Actions         *eventActions  `json:"actions"`
}

type eventContent struct {
	Role  string      `json:"role"`
	Parts []eventPart `json:"parts"`
}

type eventPart struct {
	Text             string            `json:"text"`
	FunctionCall     *functionCall     `json:"function_call"`
	FunctionResponse *functionResponse `json:"function_response"`
}

type functionCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

type functionResponse struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type eventActions struct {
	TurnComplete     bool `json:"turn_complete"`
	Escalate         bool `json:"escalate"`
	SkipSummarization bool `json:"skip_summarization"`
}

// legacyPayload is the flat shape some coordinator deployments still emit.
type legacyPayload struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	SessionID string `json:"session_id"`
	Author    string `json:"author"`
	EventType string `json:"event_type"`
	IsFinal   bool   `json:"is_final"`
	Partial   bool   `json:"partial"`
	Timestamp string `json:"timestamp"`
}

// DecodeFrame decodes one raw frame into an EventRecord, normalizing
// across the enhanced and legacy payload shapes and classifying the
// result (kind plus display content).
//
// A frame whose data payload is not valid JSON, or whose embedded event
// cannot be decoded, returns an error; the caller drops the frame and
// the stream continues.
func DecodeFrame(f RawFrame) (EventRecord, error) {
	var probe payloadProbe
	if err := json.Unmarshal([]byte(f.Data), &probe); err != nil {
		return EventRecord{}, fmt.Errorf("decode frame payload: %w", err)
	}

	var rec EventRecord
	var err error
	if probe.Metadata != nil && probe.Event != nil {
		rec, err = decodeEnhanced(probe)
	} else {
		rec, err = decodeLegacy(f.Data)
	}
	if err != nil {
		return EventRecord{}, err
	}

	if rec.ID == "" {
		rec.ID = f.ID
	}
	rec.Raw = json.RawMessage(f.Data)
	classify(&rec)
	return rec, nil
}

// decodeEnhanced handles the {event, metadata} wrapper. The embedded
// event is sometimes double-encoded: the coordinator serializes the
// agent event to a JSON string before wrapping it, so a leading quote
// means one more unmarshal hop.
func decodeEnhanced(probe payloadProbe) (EventRecord, error) {
	var meta enhancedMetadata
	if err := json.Unmarshal(probe.Metadata, &meta); err != nil {
		return EventRecord{}, fmt.Errorf("decode metadata: %w", err)
	}

	eventBytes := []byte(probe.Event)
	if len(eventBytes) > 0 && eventBytes[0] == '"' {
		var inner string
		if err := json.Unmarshal(eventBytes, &inner); err != nil {
			return EventRecord{}, fmt.Errorf("decode wrapped event string: %w", err)
		}
		eventBytes = []byte(inner)
	}

	var ev coordinatorEvent
	if err := json.Unmarshal(eventBytes, &ev); err != nil {
		return EventRecord{}, fmt.Errorf("decode event: %w", err)
	}

	rec := EventRecord{
		ID:      ev.ID,
		Author:  ev.Author,
		IsFinal: ev.IsFinalResponse,
		Partial: ev.Partial,
		Meta: SourceMetadata{
			SessionID:     meta.SessionID,
			UserID:        firstNonEmpty(meta.UserID, meta.FirebaseUID),
			Timestamp:     parseTimestamp(meta.Timestamp),
			EventType:     meta.EventType,
			Session:       meta.Session,
			Progress:      meta.Progress,
			Visualization: meta.Visualization,
		},
	}
	if ev.TurnComplete || (ev.Actions != nil && ev.Actions.TurnComplete) {
		rec.IsFinal = true
	}

	if ev.Content != nil {
		for _, part := range ev.Content.Parts {
			switch {
			case part.FunctionCall != nil:
				rec.Calls = append(rec.Calls, ToolCall{
					ID:   part.FunctionCall.ID,
					Name: part.FunctionCall.Name,
					Args: part.FunctionCall.Args,
				})
			case part.FunctionResponse != nil:
				rec.Results = append(rec.Results, ToolResult{
					ID:       part.FunctionResponse.ID,
					Name:     part.FunctionResponse.Name,
					Response: part.FunctionResponse.Response,
				})
			case part.Text != "":
				if rec.firstText == "" {
					rec.firstText = part.Text
				}
			}
		}
	}
	return rec, nil
}

// decodeLegacy handles the flat {id, content, session_id, ...} shape.
func decodeLegacy(data string) (EventRecord, error) {
	var p legacyPayload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return EventRecord{}, fmt.Errorf("decode legacy payload: %w", err)
	}
	return EventRecord{
		ID:        p.ID,
		Author:    p.Author,
		IsFinal:   p.IsFinal,
		Partial:   p.Partial,
		firstText: p.Content,
		Meta: SourceMetadata{
			SessionID: p.SessionID,
			Timestamp: parseTimestamp(p.Timestamp),
			EventType: p.EventType,
		},
	}, nil
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
