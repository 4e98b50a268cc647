// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

// CoordinatorEvent is one agent event as it appears on the wire,
// inside the enhanced envelope's "event" field. The simulator emits
// it double-encoded (a JSON string) to match the production
// coordinator's serialization.
type CoordinatorEvent struct {
	ID              string        `json:"id"`
	Author          string        `json:"author,omitempty"`
	Partial         bool          `json:"partial,omitempty"`
	IsFinalResponse bool          `json:"is_final_response,omitempty"`
	TurnComplete    bool          `json:"turn_complete,omitempty"`
	Content         *EventContent `json:"content,omitempty"`
}

// EventContent holds the event's parts.
type EventContent struct {
	Role  string      `json:"role,omitempty"`
	Parts []EventPart `json:"parts,omitempty"`
}

// EventPart is one content part. Exactly one field is set.
type EventPart struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *FunctionCall     `json:"function_call,omitempty"`
	FunctionResponse *FunctionResponse `json:"function_response,omitempty"`
}

// FunctionCall describes a tool invocation.
type FunctionCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// FunctionResponse describes a tool result.
type FunctionResponse struct {
	ID       string         `json:"id,omitempty"`
	Name     string         `json:"name"`
	Response map[string]any `json:"response,omitempty"`
}

// EventMetadata is the enhanced envelope's "metadata" field.
type EventMetadata struct {
	SessionID     string           `json:"session_id,omitempty"`
	UserID        string           `json:"user_id,omitempty"`
	Timestamp     string           `json:"timestamp,omitempty"`
	EventType     string           `json:"event_type,omitempty"`
	Session       *SessionSnapshot `json:"session,omitempty"`
	Progress      *Progress        `json:"progress,omitempty"`
	Visualization map[string]any   `json:"visualization,omitempty"`
}

// SessionSnapshot summarizes session state inside a state_update event.
type SessionSnapshot struct {
	Status          string `json:"status,omitempty"`
	VepStatus       string `json:"vep_status,omitempty"`
	VepTaskID       string `json:"vep_task_id,omitempty"`
	VariantCount    int    `json:"variant_count,omitempty"`
	PathogenicCount int    `json:"pathogenic_count,omitempty"`
}

// Progress reports long-running analysis progress.
type Progress struct {
	Status            string  `json:"status,omitempty"`
	EstimatedProgress float64 `json:"estimated_progress"`
	Message           string  `json:"message,omitempty"`
}

// ChartPayload is a chart tool's response body, also served by the
// direct visualization endpoint.
type ChartPayload struct {
	Status       string         `json:"status"`
	ChartType    string         `json:"chart_type,omitempty"`
	Title        string         `json:"title,omitempty"`
	Dimension    string         `json:"dimension,omitempty"`
	AnalysisMode string         `json:"analysis_mode,omitempty"`
	Data         any            `json:"data,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}
