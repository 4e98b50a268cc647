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
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/AleutianAI/VariantScope/pkg/logging"
	"github.com/AleutianAI/VariantScope/pkg/stream"
	"github.com/AleutianAI/VariantScope/pkg/ux"
	"github.com/AleutianAI/VariantScope/pkg/vizcache"
)

// CoordinatorChatRunnerConfig holds configuration for creating a
// coordinator chat runner.
//
// # Fields
//
//   - BaseURL: Required. Coordinator URL (e.g. "http://localhost:8080").
//   - Tokens: Required. Bearer credential source.
//   - SessionID: Optional. Resume an existing session by providing its ID.
//   - AnalysisMode: Optional. "clinical" or "research".
//   - MaxReconnectAttempts: Optional. Default 5.
//   - ReconnectBaseDelay: Optional. Default 1s.
//   - Input: Optional. Defaults to an interactive reader with history.
//   - Renderer: Optional. Defaults to a terminal renderer on stdout.
//   - Logger: Optional. Defaults to logging.Default().
type CoordinatorChatRunnerConfig struct {
	BaseURL              string
	Tokens               stream.TokenSource
	SessionID            string
	AnalysisMode         string
	MaxReconnectAttempts int
	ReconnectBaseDelay   time.Duration
	Input                InputReader
	Renderer             ux.TranscriptRenderer
	Logger               *logging.Logger
}

// coordinatorChatRunner runs the interactive loop against the
// coordinator's streaming endpoint. Each submitted line becomes one
// exchange; the session binds on the first exchange and is reused for
// the rest of the conversation.
type coordinatorChatRunner struct {
	client   *stream.Client
	input    InputReader
	renderer ux.TranscriptRenderer
	log      *logging.Logger

	resumeID string

	mu        sync.Mutex
	spinner   *ux.AnalysisSpinner
	closeOnce sync.Once
}

// NewCoordinatorChatRunner creates the runner and its stream client.
func NewCoordinatorChatRunner(cfg CoordinatorChatRunnerConfig) (ChatRunner, error) {
	if cfg.Input == nil {
		cfg.Input = NewInteractiveInputReader(50)
	}
	if cfg.Renderer == nil {
		cfg.Renderer = ux.NewTerminalRenderer(os.Stdout)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}

	r := &coordinatorChatRunner{
		input:    cfg.Input,
		renderer: cfg.Renderer,
		log:      cfg.Logger,
		resumeID: cfg.SessionID,
	}

	client, err := stream.NewClient(stream.Config{
		BaseURL:              cfg.BaseURL,
		Tokens:               cfg.Tokens,
		AnalysisMode:         cfg.AnalysisMode,
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
		ReconnectBaseDelay:   cfg.ReconnectBaseDelay,
		Cache:                vizcache.New[stream.VisualizationDescriptor](128, 30*time.Minute),
		Logger:               cfg.Logger.Slog(),
		Handlers:             r.handlers(),
	})
	if err != nil {
		return nil, fmt.Errorf("create stream client: %w", err)
	}
	r.client = client
	return r, nil
}

// handlers wires stream deliveries to the renderer and spinner.
func (r *coordinatorChatRunner) handlers() stream.Handlers {
	return stream.Handlers{
		OnMessage: func(rec stream.EventRecord) {
			if rec.Content == "" {
				return
			}
			r.stopSpinner()
			if rec.Kind == stream.KindStreamingText {
				r.renderer.RenderDelta(rec.Content)
				return
			}
			// Tool activity and status events get their own lines.
			r.renderer.RenderDelta("\n" + rec.Content + "\n")
		},
		OnVisualization: func(d stream.VisualizationDescriptor) {
			r.renderer.RenderVisualization(d)
		},
		OnProgress: func(p stream.Progress) {
			r.progressSpinner().SetProgress(p.EstimatedProgress, p.Message)
		},
		OnSessionBound: func(id string) {
			r.log.Info("session bound", "session_id", id)
			ux.Muted("session: " + id)
		},
		OnComplete: func() {
			r.stopSpinner()
			r.renderer.EndTurn()
		},
		OnError: func(err error) {
			r.stopSpinner()
			r.renderer.RenderError(err)
		},
		OnStateChange: func(s stream.ConnState) {
			r.log.Debug("connection state changed", "state", s.String())
		},
	}
}

// Run executes the chat loop until exit, EOF, cancellation, or a
// terminal stream failure.
func (r *coordinatorChatRunner) Run(ctx context.Context) error {
	prompt := "⌬ > "
	sessionID := r.resumeID

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if p, ok := r.input.(PromptingInputReader); ok {
			p.SetPrompt(prompt)
		} else {
			fmt.Print(prompt)
		}
		line, err := r.input.ReadLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		if line == "" {
			continue
		}
		if isExitCommand(line) {
			return nil
		}

		r.renderer.RenderUser(line)

		err = r.client.Connect(ctx, line, sessionID)
		sessionID = "" // bound inside the client after the first exchange
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return context.Canceled
			}
			r.renderer.RenderError(err)
			// Terminal conditions end the loop; anything else lets the
			// user try again.
			if errors.Is(err, stream.ErrReconnectExhausted) ||
				errors.Is(err, stream.ErrClosed) ||
				errors.Is(err, stream.ErrNoCredential) {
				return err
			}
		}
	}
}

// Close disconnects the stream client. Safe to call multiple times.
func (r *coordinatorChatRunner) Close() error {
	r.closeOnce.Do(func() {
		r.stopSpinner()
		r.client.Disconnect()
	})
	return nil
}

// progressSpinner lazily starts the analysis spinner.
func (r *coordinatorChatRunner) progressSpinner() *ux.AnalysisSpinner {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.spinner == nil {
		r.spinner = ux.NewAnalysisSpinner("analyzing")
		r.spinner.Start()
	}
	return r.spinner
}

func (r *coordinatorChatRunner) stopSpinner() {
	r.mu.Lock()
	spinner := r.spinner
	r.spinner = nil
	r.mu.Unlock()
	if spinner != nil {
		spinner.Stop()
	}
}

var _ ChatRunner = (*coordinatorChatRunner)(nil)
