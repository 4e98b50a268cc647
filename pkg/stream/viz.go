// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stream

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// Chart kinds understood by the renderer and the coordinator.
const (
	ChartBar       = "bar"
	ChartPie       = "pie"
	ChartHistogram = "histogram"
	ChartHeatmap   = "heatmap"
	ChartScatter   = "scatter"
	ChartLine      = "line"
)

// chartProducers are the coordinator tools whose successful responses
// carry chart-ready datasets.
var chartProducers = map[string]bool{
	"generate_chart_data_tool": true,
	"compare_populations_tool": true,
	"filter_by_category_tool":  true,
}

// VisualizationDescriptor is a normalized description of a chart-ready
// dataset detected inside the stream. Descriptors with the same ID
// describe the same logical chart; the descriptor cache collapses
// duplicates before they reach the consumer.
type VisualizationDescriptor struct {
	ID        string
	Type      string
	Title     string
	Data      any
	Dimension string
	Metadata  map[string]any
}

// chartPayload is the shared shape of the visualization metadata field
// and of a chart tool's response.
type chartPayload struct {
	Status       string         `json:"status"`
	ChartType    string         `json:"chart_type"`
	Title        string         `json:"title"`
	Dimension    string         `json:"dimension"`
	AnalysisMode string         `json:"analysis_mode"`
	Data         any            `json:"data"`
	Metadata     map[string]any `json:"metadata"`
}

// DetectVisualizations scans a decoded event for chart payloads.
//
// Two independent paths may fire for the same logical chart: the
// enhancer's visualization metadata field and an embedded tool response.
// Both are emitted here; IDs are derived from the data content, so the
// duplicates share an ID and collapse downstream.
func DetectVisualizations(rec EventRecord) []VisualizationDescriptor {
	var out []VisualizationDescriptor

	if len(rec.Meta.Visualization) > 0 {
		var p chartPayload
		if err := json.Unmarshal(rec.Meta.Visualization, &p); err == nil {
			if d, ok := descriptorFromPayload(p); ok {
				out = append(out, d)
			}
		}
	}

	for _, result := range rec.Results {
		if !chartProducers[result.Name] {
			continue
		}
		p := payloadFromResponse(result.Response)
		if d, ok := descriptorFromPayload(p); ok {
			out = append(out, d)
		}
	}
	return out
}

func payloadFromResponse(resp map[string]any) chartPayload {
	var p chartPayload
	p.Status, _ = resp["status"].(string)
	p.ChartType, _ = resp["chart_type"].(string)
	p.Title, _ = resp["title"].(string)
	p.Dimension, _ = resp["dimension"].(string)
	p.AnalysisMode, _ = resp["analysis_mode"].(string)
	p.Data = resp["data"]
	p.Metadata, _ = resp["metadata"].(map[string]any)
	return p
}

// descriptorFromPayload validates and normalizes one chart payload.
// A payload without a successful status or without data is not a chart.
func descriptorFromPayload(p chartPayload) (VisualizationDescriptor, bool) {
	if p.Status != "success" || p.Data == nil {
		return VisualizationDescriptor{}, false
	}
	kind := p.ChartType
	if kind == "" {
		kind = inferChartType(p.Data)
	}
	return VisualizationDescriptor{
		ID:        chartID(p.Data),
		Type:      kind,
		Title:     p.Title,
		Data:      p.Data,
		Dimension: p.Dimension,
		Metadata:  p.Metadata,
	}, true
}

// DecodeChartPayload decodes a standalone chart payload, as returned
// by the coordinator's direct visualization endpoint, into a
// descriptor. The same validation and inference rules apply as for
// charts detected inside the stream.
func DecodeChartPayload(raw []byte) (VisualizationDescriptor, error) {
	var p chartPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return VisualizationDescriptor{}, fmt.Errorf("decode chart payload: %w", err)
	}
	d, ok := descriptorFromPayload(p)
	if !ok {
		return VisualizationDescriptor{}, errors.New("payload carries no successful chart data")
	}
	return d, nil
}

// inferChartType guesses a chart kind from the data shape when the
// payload does not declare one. Heuristics are ordered; the first match
// wins, and anything unrecognized renders fine as a bar chart.
func inferChartType(data any) string {
	if m, ok := data.(map[string]any); ok {
		if hasKeys(m, "rows", "columns", "values") {
			return ChartHeatmap
		}
		// A wrapped record list ({"records": [...]}) is inspected the
		// same way as a bare list.
		if records, ok := m["records"].([]any); ok {
			return inferFromRecords(records)
		}
		return ChartBar
	}
	if records, ok := data.([]any); ok {
		return inferFromRecords(records)
	}
	return ChartBar
}

func inferFromRecords(records []any) string {
	if len(records) == 0 {
		return ChartBar
	}
	first, ok := records[0].(map[string]any)
	if !ok {
		return ChartBar
	}
	if hasKeys(first, "x", "y") {
		return ChartScatter
	}
	if len(records) <= 8 && hasAnyKey(first, "percentage", "percent") {
		return ChartPie
	}
	if hasKeys(first, "range_start", "range_end") {
		return ChartHistogram
	}
	return ChartBar
}

func hasKeys(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			return false
		}
	}
	return true
}

func hasAnyKey(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

// chartID derives a stable identifier from the chart data so that the
// same dataset detected through different paths dedups to one entry.
func chartID(data any) string {
	encoded, err := json.Marshal(data)
	if err != nil {
		encoded = []byte("unencodable")
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:8])
}
