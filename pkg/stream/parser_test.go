// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stream

import (
	"reflect"
	"testing"
)

func TestFrameScanner_SingleFrame(t *testing.T) {
	s := NewFrameScanner()
	frames := s.Feed([]byte("id: 42\nevent: message\ndata: {\"content\":\"hi\"}\n"))

	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	want := RawFrame{ID: "42", Event: "message", Data: "{\"content\":\"hi\"}"}
	if frames[0] != want {
		t.Errorf("frame = %+v, want %+v", frames[0], want)
	}
}

func TestFrameScanner_DataLineCompletesFrame(t *testing.T) {
	// No blank line separator; the data payload itself is the boundary.
	s := NewFrameScanner()
	frames := s.Feed([]byte("data: {\"a\":1}\ndata: {\"b\":2}\n"))

	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if frames[0].Data != "{\"a\":1}" || frames[1].Data != "{\"b\":2}" {
		t.Errorf("unexpected payloads: %q, %q", frames[0].Data, frames[1].Data)
	}
}

func TestFrameScanner_KeepAlivesSkipped(t *testing.T) {
	s := NewFrameScanner()
	input := "data:\n" +
		"data: ping\n" +
		": ping\n" +
		"\n" +
		"data: {\"real\":true}\n"
	frames := s.Feed([]byte(input))

	if len(frames) != 1 {
		t.Fatalf("expected only the real frame, got %d frames", len(frames))
	}
	if frames[0].Data != "{\"real\":true}" {
		t.Errorf("unexpected payload %q", frames[0].Data)
	}
}

func TestFrameScanner_LabelsResetAfterFrame(t *testing.T) {
	s := NewFrameScanner()
	frames := s.Feed([]byte("id: 1\nevent: message\ndata: {\"a\":1}\ndata: {\"b\":2}\n"))

	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if frames[1].ID != "" || frames[1].Event != "" {
		t.Errorf("labels leaked into second frame: %+v", frames[1])
	}
}

func TestFrameScanner_CRLFLines(t *testing.T) {
	s := NewFrameScanner()
	frames := s.Feed([]byte("id: 7\r\ndata: {\"x\":1}\r\n"))

	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	if frames[0].ID != "7" || frames[0].Data != "{\"x\":1}" {
		t.Errorf("unexpected frame %+v", frames[0])
	}
}

func TestFrameScanner_FlushProcessesTrailingLine(t *testing.T) {
	s := NewFrameScanner()
	if frames := s.Feed([]byte("data: {\"tail\":true}")); len(frames) != 0 {
		t.Fatalf("incomplete line must not emit, got %d frames", len(frames))
	}
	frames := s.Flush()
	if len(frames) != 1 || frames[0].Data != "{\"tail\":true}" {
		t.Fatalf("flush did not recover trailing frame: %+v", frames)
	}
	if again := s.Flush(); len(again) != 0 {
		t.Errorf("second flush must be empty, got %+v", again)
	}
}

// Chunk-boundary independence: any chunking of the same bytes must
// yield the identical frame sequence.
func TestFrameScanner_ChunkBoundaryIndependence(t *testing.T) {
	input := "id: 1\nevent: message\ndata: {\"content\":\"Hello\"}\n" +
		": ping\n" +
		"data:\n" +
		"id: 2\ndata: {\"content\":\" world\"}\n" +
		"data: {\"done\":true}\n"

	whole := NewFrameScanner()
	want := whole.Feed([]byte(input))
	want = append(want, whole.Flush()...)

	for chunkSize := 1; chunkSize <= len(input); chunkSize++ {
		s := NewFrameScanner()
		var got []RawFrame
		for start := 0; start < len(input); start += chunkSize {
			end := start + chunkSize
			if end > len(input) {
				end = len(input)
			}
			got = append(got, s.Feed([]byte(input[start:end]))...)
		}
		got = append(got, s.Flush()...)

		if !reflect.DeepEqual(got, want) {
			t.Fatalf("chunk size %d: frames %+v, want %+v", chunkSize, got, want)
		}
	}
}

func TestFrameScanner_UnknownFieldLineIgnored(t *testing.T) {
	s := NewFrameScanner()
	frames := s.Feed([]byte("retry: 3000\ndata: {\"a\":1}\n"))
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
}
