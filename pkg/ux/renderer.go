// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/AleutianAI/VariantScope/pkg/stream"
)

// TranscriptRenderer displays the reconstructed conversation.
//
// Implementations receive streaming deltas as they arrive and whole
// bubbles when the assembler closes them. Chart data is summarized
// textually; rendering actual charts is the web panel's job.
type TranscriptRenderer interface {
	// RenderUser displays the user's submission.
	RenderUser(text string)

	// RenderDelta displays one streamed content fragment.
	RenderDelta(content string)

	// RenderVisualization summarizes a detected chart dataset.
	RenderVisualization(d stream.VisualizationDescriptor)

	// RenderError displays a stream error.
	RenderError(err error)

	// EndTurn terminates the current assistant output block.
	EndTurn()
}

// terminalRenderer writes styled output for interactive sessions and
// plain output in machine mode.
type terminalRenderer struct {
	w  io.Writer
	mu sync.Mutex
}

// NewTerminalRenderer creates a renderer writing to w.
//
// Parameters:
//   - w: destination writer, normally os.Stdout
//
// Returns:
//   - TranscriptRenderer: renderer honoring the current personality
func NewTerminalRenderer(w io.Writer) TranscriptRenderer {
	return &terminalRenderer{w: w}
}

func (r *terminalRenderer) RenderUser(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if GetPersonality().Level == PersonalityMachine {
		fmt.Fprintf(r.w, "USER: %s\n", text)
		return
	}
	fmt.Fprintf(r.w, "%s %s\n", Styles.UserBubble.Render("You:"), text)
}

func (r *terminalRenderer) RenderDelta(content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprint(r.w, content)
}

func (r *terminalRenderer) RenderVisualization(d stream.VisualizationDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	summary := summarizeChart(d)
	if GetPersonality().Level == PersonalityMachine {
		fmt.Fprintf(r.w, "\nCHART: %s\n", summary)
		return
	}
	fmt.Fprintf(r.w, "\n%s %s\n", IconChart.Render(), Styles.Subtitle.Render(summary))
}

func (r *terminalRenderer) RenderError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if GetPersonality().Level == PersonalityMachine {
		fmt.Fprintf(r.w, "\nERROR: %v\n", err)
		return
	}
	fmt.Fprintf(r.w, "\n%s %s\n", IconError.Render(), Styles.Error.Render(err.Error()))
}

func (r *terminalRenderer) EndTurn() {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.w)
}

// summarizeChart builds the one-line textual description of a chart.
func summarizeChart(d stream.VisualizationDescriptor) string {
	var b strings.Builder
	if d.Title != "" {
		b.WriteString(d.Title)
	} else {
		b.WriteString("chart")
	}
	fmt.Fprintf(&b, " (%s", d.Type)
	if d.Dimension != "" {
		fmt.Fprintf(&b, ", by %s", d.Dimension)
	}
	if n := recordCount(d.Data); n > 0 {
		fmt.Fprintf(&b, ", %d records", n)
	}
	b.WriteString(")")
	return b.String()
}

func recordCount(data any) int {
	switch v := data.(type) {
	case []any:
		return len(v)
	case map[string]any:
		if records, ok := v["records"].([]any); ok {
			return len(records)
		}
	}
	return 0
}

// BufferRenderer accumulates output in memory. Used by tests and by
// non-interactive callers that post-process the transcript.
type BufferRenderer struct {
	mu  sync.Mutex
	buf strings.Builder
}

// NewBufferRenderer creates an empty buffer renderer.
func NewBufferRenderer() *BufferRenderer {
	return &BufferRenderer{}
}

func (r *BufferRenderer) RenderUser(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(&r.buf, "USER: %s\n", text)
}

func (r *BufferRenderer) RenderDelta(content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf.WriteString(content)
}

func (r *BufferRenderer) RenderVisualization(d stream.VisualizationDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(&r.buf, "\nCHART: %s\n", summarizeChart(d))
}

func (r *BufferRenderer) RenderError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(&r.buf, "\nERROR: %v\n", err)
}

func (r *BufferRenderer) EndTurn() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf.WriteString("\n")
}

// String returns everything rendered so far.
func (r *BufferRenderer) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.String()
}

var (
	_ TranscriptRenderer = (*terminalRenderer)(nil)
	_ TranscriptRenderer = (*BufferRenderer)(nil)
)
