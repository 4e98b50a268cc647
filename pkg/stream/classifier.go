// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stream

import (
	"fmt"
	"strings"
)

// Event kinds. Kinds originating from the coordinator's enhancer
// (state_update, vep_* and clinical_assessment_complete) pass through
// the metadata event_type unchanged.
const (
	KindStreamingText    = "streaming_text"
	KindFunctionCall     = "function_call"
	KindFunctionResponse = "function_response"
	KindFinalResponse    = "final_response"
	KindGeneral          = "general"

	KindStateUpdate        = "state_update"
	KindVepStarted         = "vep_started"
	KindVepStatusCheck     = "vep_status_check"
	KindVepStartResponse   = "vep_start_response"
	KindVepStatusResponse  = "vep_status_response"
	KindAssessmentComplete = "clinical_assessment_complete"
)

// classify fills the record's Kind and Content. Precedence for the kind,
// first match wins:
//
//  1. explicit event_type in metadata
//  2. structural parts: function call, function response, text
//  3. is_final_response flag
//  4. partial flag
//  5. general
//
// Content is the first text part when one exists, otherwise a synthesized
// description of the structural parts so no event that carried information
// displays as empty.
func classify(rec *EventRecord) {
	rec.Kind = inferKind(rec)
	rec.Content = displayContent(rec)
	if rec.Kind == KindFinalResponse {
		rec.IsFinal = true
	}
}

func inferKind(rec *EventRecord) string {
	if rec.Meta.EventType != "" {
		return rec.Meta.EventType
	}
	if len(rec.Calls) > 0 {
		return KindFunctionCall
	}
	if len(rec.Results) > 0 {
		return KindFunctionResponse
	}
	if rec.firstText != "" {
		return KindStreamingText
	}
	if rec.IsFinal {
		return KindFinalResponse
	}
	if rec.Partial {
		return KindStreamingText
	}
	return KindGeneral
}

func displayContent(rec *EventRecord) string {
	if rec.firstText != "" {
		return rec.firstText
	}
	if len(rec.Calls) > 0 {
		return fmt.Sprintf("[running %s]", joinNames(callNames(rec.Calls)))
	}
	if len(rec.Results) > 0 {
		return fmt.Sprintf("[%s returned]", joinNames(resultNames(rec.Results)))
	}
	return ""
}

func callNames(calls []ToolCall) []string {
	names := make([]string, 0, len(calls))
	for _, c := range calls {
		names = append(names, c.Name)
	}
	return names
}

func resultNames(results []ToolResult) []string {
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
	}
	return names
}

func joinNames(names []string) string {
	return strings.Join(names, ", ")
}
