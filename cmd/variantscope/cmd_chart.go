// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/AleutianAI/VariantScope/pkg/ux"
	"github.com/spf13/cobra"
)

// runChartCommand fetches chart data for a session directly, without
// running an analysis exchange. The descriptor is summarized through
// the transcript renderer and the dataset printed as JSON so it can be
// piped into other tools.
func runChartCommand(cmd *cobra.Command, args []string) {
	ctx, cancel := commandContext()
	defer cancel()

	sessionID, chartType := args[0], args[1]
	d, err := sessionService().FetchChart(ctx, sessionID, chartType, chartDimension, chartLimit)
	if err != nil {
		log.Fatalf("Error fetching chart: %v", err)
	}

	encoded, err := json.MarshalIndent(d.Data, "", "  ")
	if err != nil {
		log.Fatalf("Error encoding chart data: %v", err)
	}

	if ux.GetPersonality().Level == ux.PersonalityMachine {
		fmt.Printf("CHART: %s %s\n", d.Type, d.Title)
		fmt.Println(string(encoded))
		return
	}

	title := d.Title
	if title == "" {
		title = chartType
	}
	ux.Title(string(ux.IconChart) + " " + title)
	if d.Dimension != "" {
		ux.Muted("type: " + d.Type + ", by " + d.Dimension)
	} else {
		ux.Muted("type: " + d.Type)
	}
	fmt.Println(string(encoded))
}
