// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stream

import (
	"encoding/json"
	"testing"
)

func chartResponseEvent(t *testing.T, tool string, response map[string]any) EventRecord {
	t.Helper()
	encoded, err := json.Marshal(map[string]any{
		"event": map[string]any{
			"content": map[string]any{
				"parts": []any{
					map[string]any{"function_response": map[string]any{"name": tool, "response": response}},
				},
			},
		},
		"metadata": map[string]any{},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return decode(t, string(encoded))
}

func TestDetectVisualizations_ToolResponse(t *testing.T) {
	rec := chartResponseEvent(t, "generate_chart_data_tool", map[string]any{
		"status":    "success",
		"chart_type": "bar",
		"dimension": "consequence",
		"data":      []any{map[string]any{"label": "missense", "count": float64(12)}},
	})

	descs := DetectVisualizations(rec)
	if len(descs) != 1 {
		t.Fatalf("expected 1 descriptor, got %d", len(descs))
	}
	d := descs[0]
	if d.Type != ChartBar || d.Dimension != "consequence" {
		t.Errorf("descriptor = %+v", d)
	}
	if d.ID == "" {
		t.Error("descriptor must carry a derived id")
	}
}

func TestDetectVisualizations_RequiresSuccessAndData(t *testing.T) {
	cases := []map[string]any{
		{"status": "error", "data": []any{}},
		{"status": "success"},
		{"status": "success", "data": nil},
	}
	for _, resp := range cases {
		rec := chartResponseEvent(t, "compare_populations_tool", resp)
		if descs := DetectVisualizations(rec); len(descs) != 0 {
			t.Errorf("response %+v must not produce a descriptor", resp)
		}
	}
}

func TestDetectVisualizations_UnknownToolIgnored(t *testing.T) {
	rec := chartResponseEvent(t, "start_vep_tool", map[string]any{
		"status": "success",
		"data":   []any{map[string]any{"label": "a"}},
	})
	if descs := DetectVisualizations(rec); len(descs) != 0 {
		t.Errorf("non-chart tool must not produce a descriptor, got %+v", descs)
	}
}

func TestDetectVisualizations_MetadataPath(t *testing.T) {
	rec := decode(t, `{
		"event": {"content": {"parts": [{"text": "here is your chart"}]}},
		"metadata": {
			"event_type": "streaming_text",
			"visualization": {"status": "success", "chart_type": "pie", "data": [{"category": "benign", "percentage": 40}]}
		}
	}`)
	descs := DetectVisualizations(rec)
	if len(descs) != 1 || descs[0].Type != ChartPie {
		t.Fatalf("descs = %+v", descs)
	}
}

func TestDetectVisualizations_DuplicatePathsShareID(t *testing.T) {
	// The same dataset seen through metadata and through the embedded
	// tool response must derive the same id so dedup can collapse it.
	data := `[{"label":"missense","count":3}]`
	rec := decode(t, `{
		"event": {"content": {"parts": [{"function_response": {"name": "filter_by_category_tool", "response": {"status": "success", "data": `+data+`}}}]}},
		"metadata": {"visualization": {"status": "success", "data": `+data+`}}
	}`)
	descs := DetectVisualizations(rec)
	if len(descs) != 2 {
		t.Fatalf("expected both paths to fire, got %d", len(descs))
	}
	if descs[0].ID != descs[1].ID {
		t.Errorf("ids differ: %q vs %q", descs[0].ID, descs[1].ID)
	}
}

func TestInferChartType_ExplicitTypeWins(t *testing.T) {
	rec := chartResponseEvent(t, "generate_chart_data_tool", map[string]any{
		"status":    "success",
		"chart_type": ChartLine,
		"data":      map[string]any{"rows": []any{}, "columns": []any{}, "values": []any{}},
	})
	descs := DetectVisualizations(rec)
	if len(descs) != 1 || descs[0].Type != ChartLine {
		t.Fatalf("explicit chart_type must win, got %+v", descs)
	}
}

func TestInferChartType_Heuristics(t *testing.T) {
	manyPercentages := make([]any, 9)
	for i := range manyPercentages {
		manyPercentages[i] = map[string]any{"category": "c", "percentage": float64(i)}
	}

	cases := []struct {
		name string
		data any
		want string
	}{
		{
			name: "matrix is heatmap",
			data: map[string]any{"rows": []any{"A"}, "columns": []any{"B"}, "values": []any{[]any{1.0}}},
			want: ChartHeatmap,
		},
		{
			name: "xy pairs are scatter",
			data: []any{map[string]any{"x": 1.0, "y": 2.0}},
			want: ChartScatter,
		},
		{
			name: "few percentage records are pie",
			data: []any{map[string]any{"category": "benign", "percentage": 40.0}},
			want: ChartPie,
		},
		{
			name: "many percentage records are not pie",
			data: manyPercentages,
			want: ChartBar,
		},
		{
			name: "range bounded records are histogram",
			data: []any{map[string]any{"range_start": 0.0, "range_end": 0.1, "count": 4.0}},
			want: ChartHistogram,
		},
		{
			name: "wrapped records are unwrapped",
			data: map[string]any{"records": []any{map[string]any{"x": 1.0, "y": 2.0}}},
			want: ChartScatter,
		},
		{
			name: "default is bar",
			data: []any{map[string]any{"label": "missense", "count": 12.0}},
			want: ChartBar,
		},
		{
			name: "empty is bar",
			data: []any{},
			want: ChartBar,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := inferChartType(tc.data); got != tc.want {
				t.Errorf("inferChartType = %q, want %q", got, tc.want)
			}
		})
	}
}
