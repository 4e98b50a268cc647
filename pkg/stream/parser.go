// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stream

import (
	"strings"
)

// keepAliveSentinel is the coordinator's heartbeat payload. An empty
// data payload serves the same purpose. Neither produces a frame.
const keepAliveSentinel = "ping"

// FrameScanner assembles raw bytes into RawFrames incrementally.
//
// The coordinator's dialect differs from standard SSE in one load-bearing
// way: a frame is complete as soon as a non-empty data payload is seen.
// Blank lines and comment lines are not boundaries and are skipped.
//
// The scanner retains only the trailing incomplete line between Feed
// calls, so buffer growth is bounded by one line regardless of how the
// transport chunks the stream. Feeding the same bytes in any chunking
// yields the same frame sequence.
//
// FrameScanner is not safe for concurrent use; the read loop is the
// single producer.
type FrameScanner struct {
	partial string
	id      string
	event   string
}

// NewFrameScanner returns a scanner with empty state.
func NewFrameScanner() *FrameScanner {
	return &FrameScanner{}
}

// Feed consumes the next transport chunk and returns every frame that
// became complete. The returned slice is nil when no frame completed.
func (s *FrameScanner) Feed(chunk []byte) []RawFrame {
	if len(chunk) == 0 {
		return nil
	}
	text := s.partial + string(chunk)
	lines := strings.Split(text, "\n")
	s.partial = lines[len(lines)-1]

	var frames []RawFrame
	for _, line := range lines[:len(lines)-1] {
		if frame, ok := s.processLine(line); ok {
			frames = append(frames, frame)
		}
	}
	return frames
}

// Flush processes any buffered trailing line as if the stream had ended
// with a newline. Call once after the transport reports end-of-stream.
func (s *FrameScanner) Flush() []RawFrame {
	if s.partial == "" {
		return nil
	}
	line := s.partial
	s.partial = ""
	if frame, ok := s.processLine(line); ok {
		return []RawFrame{frame}
	}
	return nil
}

// processLine handles one complete line. It returns a frame only when
// the line carried a non-empty, non-keep-alive data payload.
func (s *FrameScanner) processLine(line string) (RawFrame, bool) {
	line = strings.TrimSuffix(line, "\r")

	switch {
	case line == "":
		// Not a boundary in this dialect.
		return RawFrame{}, false

	case strings.HasPrefix(line, "data:"):
		payload := trimFieldValue(line[len("data:"):])
		if payload == "" || payload == keepAliveSentinel {
			return RawFrame{}, false
		}
		frame := RawFrame{ID: s.id, Event: s.event, Data: payload}
		s.id = ""
		s.event = ""
		return frame, true

	case strings.HasPrefix(line, "id:"):
		s.id = trimFieldValue(line[len("id:"):])
		return RawFrame{}, false

	case strings.HasPrefix(line, "event:"):
		s.event = trimFieldValue(line[len("event:"):])
		return RawFrame{}, false

	case strings.HasPrefix(line, ":"):
		// Comment line, used by the coordinator for keep-alives.
		return RawFrame{}, false

	default:
		// Unknown field lines are skipped without aborting the stream.
		return RawFrame{}, false
	}
}

// trimFieldValue strips the single optional space after a field colon.
func trimFieldValue(v string) string {
	return strings.TrimPrefix(v, " ")
}
