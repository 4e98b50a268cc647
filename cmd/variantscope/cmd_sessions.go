// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/AleutianAI/VariantScope/cmd/variantscope/config"
	"github.com/AleutianAI/VariantScope/pkg/stream"
	"github.com/AleutianAI/VariantScope/pkg/ux"
	"github.com/spf13/cobra"
)

// sessionService builds the service from the loaded config and flag
// overrides. Commands fail later with a clear error if no credential
// is configured.
func sessionService() SessionService {
	return NewSessionService(getCoordinatorBaseURL(), nil, tokenSource(config.Global.Auth))
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// runSessionsList prints the user's sessions, newest first.
func runSessionsList(cmd *cobra.Command, args []string) {
	ctx, cancel := commandContext()
	defer cancel()

	sessions, err := sessionService().List(ctx, sessionLimit, sessionOffset)
	if err != nil {
		log.Fatalf("Error listing sessions: %v", err)
	}

	if len(sessions) == 0 {
		ux.Info("No sessions found")
		return
	}

	ux.Title("Analysis Sessions")
	for _, s := range sessions {
		title := s.Title
		if title == "" {
			title = "(untitled)"
		}
		line := fmt.Sprintf("%s  %-10s %s", s.SessionID, s.Status, title)
		if s.VariantCount > 0 {
			line += fmt.Sprintf("  [%d variants, %d pathogenic]",
				s.VariantCount, s.PathogenicCount)
		}
		fmt.Println(line)
		if len(s.Tags) > 0 {
			ux.Muted("    tags: " + strings.Join(s.Tags, ", "))
		}
	}
	ux.Muted(fmt.Sprintf("%d session(s)", len(sessions)))
}

// runSessionsShow prints one session's full details.
func runSessionsShow(cmd *cobra.Command, args []string) {
	ctx, cancel := commandContext()
	defer cancel()

	detail, err := sessionService().Get(ctx, args[0])
	if err != nil {
		log.Fatalf("Error fetching session: %v", err)
	}

	title := detail.Title
	if title == "" {
		title = detail.SessionID
	}
	var b strings.Builder
	fmt.Fprintf(&b, "ID:        %s\n", detail.SessionID)
	fmt.Fprintf(&b, "Status:    %s\n", detail.Status)
	fmt.Fprintf(&b, "Mode:      %s\n", detail.AnalysisMode)
	if detail.VepStatus != "" {
		fmt.Fprintf(&b, "VEP:       %s", detail.VepStatus)
		if detail.VepTaskID != "" {
			fmt.Fprintf(&b, " (task %s)", detail.VepTaskID)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Variants:  %d (%d pathogenic)\n",
		detail.VariantCount, detail.PathogenicCount)
	if len(detail.Tags) > 0 {
		fmt.Fprintf(&b, "Tags:      %s\n", strings.Join(detail.Tags, ", "))
	}
	if detail.Notes != "" {
		fmt.Fprintf(&b, "Notes:     %s\n", detail.Notes)
	}
	fmt.Fprintf(&b, "Created:   %s\n", detail.CreatedAt)
	fmt.Fprintf(&b, "Updated:   %s", detail.UpdatedAt)

	ux.Box(title, b.String())
}

// runSessionsDelete removes a session and its history.
func runSessionsDelete(cmd *cobra.Command, args []string) {
	ctx, cancel := commandContext()
	defer cancel()

	if err := sessionService().Delete(ctx, args[0]); err != nil {
		log.Fatalf("Error deleting session: %v", err)
	}
	ux.Success("Session deleted: " + args[0])
}

// runSessionsEvents prints a session's stored event history. Events
// are decoded through the same classifier as live streams so the
// output matches what the chat view showed.
func runSessionsEvents(cmd *cobra.Command, args []string) {
	ctx, cancel := commandContext()
	defer cancel()

	events, err := sessionService().Events(ctx, args[0])
	if err != nil {
		log.Fatalf("Error fetching events: %v", err)
	}

	if len(events) == 0 {
		ux.Info("No events recorded")
		return
	}

	for _, ev := range events {
		author := ev.Author
		if author == "" {
			author = "system"
		}
		header := fmt.Sprintf("%s  %s", ev.Timestamp, author)

		rec, err := stream.DecodeFrame(stream.RawFrame{ID: ev.ID, Data: string(ev.Content)})
		if err != nil || rec.Content == "" {
			ux.Muted(header)
			continue
		}
		ux.Muted(header + "  [" + rec.Kind + "]")
		fmt.Println(rec.Content)
	}
}

// runSessionsUpdate changes a session's title, notes, or tags. Only
// flags the user set are sent.
func runSessionsUpdate(cmd *cobra.Command, args []string) {
	ctx, cancel := commandContext()
	defer cancel()

	var update SessionUpdate
	if cmd.Flags().Changed("title") {
		title, _ := cmd.Flags().GetString("title")
		update.Title = &title
	}
	if cmd.Flags().Changed("notes") {
		notes, _ := cmd.Flags().GetString("notes")
		update.Notes = &notes
	}
	if cmd.Flags().Changed("tags") {
		tags, _ := cmd.Flags().GetStringSlice("tags")
		update.Tags = tags
	}
	if update.Title == nil && update.Notes == nil && update.Tags == nil {
		log.Fatalf("Nothing to update: pass --title, --notes, or --tags")
	}

	if err := sessionService().Update(ctx, args[0], update); err != nil {
		log.Fatalf("Error updating session: %v", err)
	}
	ux.Success("Session updated: " + args[0])
}
