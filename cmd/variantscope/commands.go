// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"log"

	"github.com/AleutianAI/VariantScope/cmd/variantscope/config"
	"github.com/AleutianAI/VariantScope/pkg/ux"
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	serverURL        string // CLI override for coordinator.base_url
	analysisMode     string // CLI override for analysis.mode (clinical/research)
	personalityLevel string // UX personality level (full/standard/minimal/machine)
	logLevel         string // CLI override for logging.level
	sessionLimit     int
	sessionOffset    int
	chartDimension   string
	chartLimit       int

	rootCmd = &cobra.Command{
		Use:   "variantscope",
		Short: "A cli to explore genomic variant analyses on a variants coordinator service",
		Long: `VariantScope streams conversational variant analysis from a
				variants coordinator backend, reconstructing the event stream
				into a readable transcript with chart detection.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize UX personality from flag or environment
			if personalityLevel != "" {
				ux.SetPersonalityLevel(ux.ParsePersonalityLevel(personalityLevel))
			} else {
				ux.InitPersonality()
			}
			if err := config.Load(); err != nil {
				log.Fatalf("Error loading config: %v", err)
			}
		},
	}

	// --- Chat ---
	chatCmd = &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive analysis conversation with the coordinator",
		Run:   runChatCommand, // Defined in cmd_chat.go
	}

	askCmd = &cobra.Command{
		Use:   "ask [question]",
		Short: "Send a single question and stream the answer",
		Args:  cobra.MinimumNArgs(1),
		Run:   runAskCommand, // Defined in cmd_chat.go
	}

	// --- Session Management ---
	sessionsCmd = &cobra.Command{
		Use:   "sessions",
		Short: "Manage analysis sessions on the coordinator",
	}
	sessionsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List your analysis sessions",
		Run:   runSessionsList, // Defined in cmd_sessions.go
	}
	sessionsShowCmd = &cobra.Command{
		Use:   "show [session_id]",
		Short: "Show one session's details",
		Args:  cobra.ExactArgs(1),
		Run:   runSessionsShow,
	}
	sessionsDeleteCmd = &cobra.Command{
		Use:   "delete [session_id]",
		Short: "Delete a session and its history",
		Args:  cobra.ExactArgs(1),
		Run:   runSessionsDelete,
	}
	sessionsEventsCmd = &cobra.Command{
		Use:   "events [session_id]",
		Short: "Show a session's stored event history",
		Args:  cobra.ExactArgs(1),
		Run:   runSessionsEvents,
	}
	sessionsUpdateCmd = &cobra.Command{
		Use:   "update [session_id]",
		Short: "Update a session's title, notes, or tags",
		Args:  cobra.ExactArgs(1),
		Run:   runSessionsUpdate,
	}

	// --- Charts ---
	chartCmd = &cobra.Command{
		Use:   "chart [session_id] [chart_type]",
		Short: "Fetch chart data for a session directly",
		Args:  cobra.ExactArgs(2),
		Run:   runChartCommand, // Defined in cmd_chart.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "",
		"Coordinator base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&personalityLevel, "personality", "",
		"Output personality: full, standard, minimal, machine")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, error (overrides config)")

	chatCmd.Flags().String("resume", "", "Resume an existing session by ID")
	chatCmd.Flags().StringVar(&analysisMode, "mode", "", "Analysis mode: clinical or research")
	askCmd.Flags().StringVar(&analysisMode, "mode", "", "Analysis mode: clinical or research")

	sessionsListCmd.Flags().IntVar(&sessionLimit, "limit", 20, "Maximum sessions to list")
	sessionsListCmd.Flags().IntVar(&sessionOffset, "offset", 0, "Listing offset for paging")
	sessionsUpdateCmd.Flags().String("title", "", "New session title")
	sessionsUpdateCmd.Flags().String("notes", "", "New session notes")
	sessionsUpdateCmd.Flags().StringSlice("tags", nil, "Replacement tag list")

	chartCmd.Flags().StringVar(&chartDimension, "dimension", "", "Chart dimension (e.g. consequence, gene)")
	chartCmd.Flags().IntVar(&chartLimit, "limit", 0, "Maximum records to fetch")

	sessionsCmd.AddCommand(sessionsListCmd, sessionsShowCmd, sessionsDeleteCmd,
		sessionsEventsCmd, sessionsUpdateCmd)
	rootCmd.AddCommand(chatCmd, askCmd, sessionsCmd, chartCmd)
}
