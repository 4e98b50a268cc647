// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"strings"
	"testing"

	"github.com/AleutianAI/VariantScope/pkg/stream"
)

func TestBufferRenderer_CollectsTurn(t *testing.T) {
	r := NewBufferRenderer()
	r.RenderUser("show pathogenic variants")
	r.RenderDelta("Found ")
	r.RenderDelta("12 variants")
	r.EndTurn()

	got := r.String()
	if !strings.Contains(got, "USER: show pathogenic variants") {
		t.Errorf("user line missing: %q", got)
	}
	if !strings.Contains(got, "Found 12 variants") {
		t.Errorf("deltas not concatenated: %q", got)
	}
}

func TestSummarizeChart(t *testing.T) {
	tests := []struct {
		name string
		desc stream.VisualizationDescriptor
		want []string
	}{
		{
			name: "titled with dimension",
			desc: stream.VisualizationDescriptor{
				Type:      stream.ChartBar,
				Title:     "Consequence distribution",
				Dimension: "consequence",
				Data:      []any{map[string]any{"label": "missense"}},
			},
			want: []string{"Consequence distribution", "bar", "by consequence", "1 records"},
		},
		{
			name: "untitled wrapped records",
			desc: stream.VisualizationDescriptor{
				Type: stream.ChartScatter,
				Data: map[string]any{"records": []any{1, 2, 3}},
			},
			want: []string{"chart", "scatter", "3 records"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := summarizeChart(tt.desc)
			for _, part := range tt.want {
				if !strings.Contains(got, part) {
					t.Errorf("summary %q missing %q", got, part)
				}
			}
		})
	}
}

func TestTerminalRenderer_MachineMode(t *testing.T) {
	prev := GetPersonality()
	SetPersonalityLevel(PersonalityMachine)
	defer SetPersonality(prev)

	var sb strings.Builder
	r := NewTerminalRenderer(&sb)
	r.RenderUser("hello")
	r.RenderVisualization(stream.VisualizationDescriptor{Type: stream.ChartPie})

	got := sb.String()
	if !strings.Contains(got, "USER: hello") {
		t.Errorf("machine user line missing: %q", got)
	}
	if !strings.Contains(got, "CHART:") {
		t.Errorf("machine chart line missing: %q", got)
	}
}
