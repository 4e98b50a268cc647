// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stream

import (
	"strings"
	"testing"
)

func TestDecodeFrame_EnhancedShape(t *testing.T) {
	data := `{
		"event": {
			"id": "ev-1",
			"author": "variants_coordinator",
			"partial": true,
			"content": {"role": "model", "parts": [{"text": "Analyzing"}]}
		},
		"metadata": {
			"session_id": "sess-1",
			"user_id": "u-1",
			"timestamp": "2025-06-01T12:00:00Z",
			"event_type": "streaming_text",
			"progress": {"status": "running", "estimated_progress": 0.4, "message": "annotating"}
		}
	}`
	rec, err := DecodeFrame(RawFrame{Data: data})
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}

	if rec.ID != "ev-1" {
		t.Errorf("ID = %q, want ev-1", rec.ID)
	}
	if rec.Kind != KindStreamingText {
		t.Errorf("Kind = %q, want streaming_text", rec.Kind)
	}
	if rec.Content != "Analyzing" {
		t.Errorf("Content = %q, want Analyzing", rec.Content)
	}
	if rec.Meta.SessionID != "sess-1" || rec.Meta.UserID != "u-1" {
		t.Errorf("metadata = %+v", rec.Meta)
	}
	if rec.Meta.Progress == nil || rec.Meta.Progress.EstimatedProgress != 0.4 {
		t.Errorf("progress not decoded: %+v", rec.Meta.Progress)
	}
	if rec.Meta.Timestamp.IsZero() {
		t.Error("timestamp not parsed")
	}
}

func TestDecodeFrame_DoubleEncodedEvent(t *testing.T) {
	// The coordinator serializes the event to JSON before wrapping it,
	// so the event field arrives as a string.
	data := `{
		"event": "{\"id\":\"ev-2\",\"author\":\"variants_coordinator\",\"content\":{\"parts\":[{\"text\":\"hi\"}]}}",
		"metadata": {"session_id": "sess-2", "event_type": "streaming_text"}
	}`
	rec, err := DecodeFrame(RawFrame{Data: data})
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}
	if rec.ID != "ev-2" || rec.Content != "hi" {
		t.Errorf("rec = %+v", rec)
	}
}

func TestDecodeFrame_LegacyShape(t *testing.T) {
	data := `{"id": "leg-1", "content": "done", "session_id": "sess-3", "is_final": true}`
	rec, err := DecodeFrame(RawFrame{Data: data})
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}
	if rec.Content != "done" || rec.Meta.SessionID != "sess-3" {
		t.Errorf("rec = %+v", rec)
	}
	if !rec.IsFinal {
		t.Error("is_final flag lost")
	}
}

func TestDecodeFrame_FrameIDFallback(t *testing.T) {
	rec, err := DecodeFrame(RawFrame{ID: "frame-9", Data: `{"content":"x"}`})
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}
	if rec.ID != "frame-9" {
		t.Errorf("ID = %q, want frame id fallback", rec.ID)
	}
}

func TestDecodeFrame_MalformedPayload(t *testing.T) {
	for _, data := range []string{"not json", `{"metadata": {}, "event": "{broken"}`} {
		if _, err := DecodeFrame(RawFrame{Data: data}); err == nil {
			t.Errorf("expected error for %q", data)
		}
	}
}

func TestDecodeFrame_TurnCompleteViaActions(t *testing.T) {
	data := `{
		"event": {"id": "ev-3", "author": "variants_coordinator", "actions": {"turn_complete": true}},
		"metadata": {"session_id": "sess-4", "event_type": "final_response"}
	}`
	rec, err := DecodeFrame(RawFrame{Data: data})
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}
	if !rec.IsFinal {
		t.Error("turn_complete action must mark the record final")
	}
	if rec.Kind != KindFinalResponse {
		t.Errorf("Kind = %q", rec.Kind)
	}
}

func TestDecodeFrame_RawPayloadPreserved(t *testing.T) {
	data := `{"content":"x","session_id":"s"}`
	rec, err := DecodeFrame(RawFrame{Data: data})
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}
	if !strings.Contains(string(rec.Raw), `"session_id":"s"`) {
		t.Errorf("raw payload not retained: %s", rec.Raw)
	}
}
