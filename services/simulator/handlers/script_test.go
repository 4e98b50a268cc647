// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitDeltas(t *testing.T) {
	deltas := splitDeltas("one two three four five", 10)
	assert.Equal(t, "one two three four five", strings.Join(deltas, ""))
	for _, d := range deltas {
		assert.LessOrEqual(t, len(d), 10)
	}
}

func TestSplitDeltas_NoSpaces(t *testing.T) {
	deltas := splitDeltas(strings.Repeat("a", 25), 10)
	assert.Equal(t, []string{strings.Repeat("a", 10), strings.Repeat("a", 10), strings.Repeat("a", 5)}, deltas)
}

func TestChartResponse_IsSuccessfulBarChart(t *testing.T) {
	resp := chartResponse("clinical")
	assert.Equal(t, "success", resp["status"])
	assert.Equal(t, "bar", resp["chart_type"])
	assert.NotEmpty(t, resp["data"])
}
