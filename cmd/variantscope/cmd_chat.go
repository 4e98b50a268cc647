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
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/AleutianAI/VariantScope/cmd/variantscope/config"
	"github.com/AleutianAI/VariantScope/pkg/logging"
	"github.com/AleutianAI/VariantScope/pkg/ux"
	"github.com/spf13/cobra"
)

// runChatCommand starts the interactive analysis conversation.
func runChatCommand(cmd *cobra.Command, args []string) {
	resumeID, _ := cmd.Flags().GetString("resume")
	if resumeID != "" {
		// Reactivate the session before streaming against it.
		rctx, rcancel := commandContext()
		detail, err := sessionService().Resume(rctx, resumeID)
		rcancel()
		if err != nil {
			log.Fatalf("Error resuming session: %v", err)
		}
		if detail.Title != "" {
			ux.Muted("resuming: " + detail.Title)
		}
	}

	runner, err := NewCoordinatorChatRunner(runnerConfig(resumeID))
	if err != nil {
		log.Fatalf("Chat setup error: %v", err)
	}
	defer runner.Close()

	// Set up graceful shutdown with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := runner.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("Chat error: %v", err)
	}
}

// runAskCommand sends one question and streams the answer.
func runAskCommand(cmd *cobra.Command, args []string) {
	question := strings.Join(args, " ")

	cfg := runnerConfig("")
	cfg.Input = NewMockInputReader([]string{question})
	runner, err := NewCoordinatorChatRunner(cfg)
	if err != nil {
		log.Fatalf("Ask setup error: %v", err)
	}
	defer runner.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := runner.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("Ask error: %v", err)
	}
}

// runnerConfig assembles the runner configuration from config file and
// flag overrides.
func runnerConfig(resumeID string) CoordinatorChatRunnerConfig {
	cfg := config.Global
	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(level),
		LogDir:  cfg.Logging.Dir,
		Service: "cli",
	})

	return CoordinatorChatRunnerConfig{
		BaseURL:              getCoordinatorBaseURL(),
		Tokens:               tokenSource(cfg.Auth),
		SessionID:            resumeID,
		AnalysisMode:         getAnalysisMode(),
		MaxReconnectAttempts: cfg.Stream.MaxReconnectAttempts,
		ReconnectBaseDelay:   time.Duration(cfg.Stream.ReconnectBaseDelayMS) * time.Millisecond,
		Logger:               logger,
	}
}
