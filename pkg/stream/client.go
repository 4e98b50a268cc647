// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/AleutianAI/VariantScope/pkg/vizcache"
)

// ConnState is the connection lifecycle state. Exactly one is active
// per client; transitions are the sole source of truth for whether
// send/receive is permitted.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateError
	StateClosed
)

// String returns the state name for logging and display.
func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Sentinel errors for the connection lifecycle.
var (
	// ErrNoCredential means the token source produced no bearer
	// credential. Precondition failure: no transport attempt, no retry.
	ErrNoCredential = errors.New("no bearer credential available")

	// ErrAlreadyActive means Connect was called while a connection is
	// connecting or connected. The duplicate call is a no-op.
	ErrAlreadyActive = errors.New("connection already active")

	// ErrClosed means the client was explicitly disconnected. CLOSED is
	// terminal; the client cannot be reused.
	ErrClosed = errors.New("client is closed")

	// ErrReconnectExhausted means the reconnection budget ran out.
	ErrReconnectExhausted = errors.New("reconnect attempts exhausted")

	// ErrBadContentType means the server answered with something other
	// than an event stream.
	ErrBadContentType = errors.New("response is not an event stream")

	// ErrInvalidAnalysisMode means the configured analysis mode is not
	// one the coordinator accepts.
	ErrInvalidAnalysisMode = errors.New("analysis mode must be clinical or research")
)

// StatusError reports a non-2xx response from the coordinator.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("coordinator returned %s", e.Status)
}

// HTTPClient is the transport abstraction; *http.Client satisfies it.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource supplies the bearer credential attached to each
// connection attempt.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to the TokenSource interface.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// StaticToken returns a TokenSource that always yields tok.
func StaticToken(tok string) TokenSource {
	return TokenFunc(func(context.Context) (string, error) { return tok, nil })
}

// Scheduler owns reconnection waits. Injecting it keeps backoff testable
// and keeps the reconnect loop an explicit state machine instead of
// timer recursion.
type Scheduler interface {
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in
	// the latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

type realScheduler struct{}

func (realScheduler) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Handlers are the client's delivery callbacks. All are optional.
// Callbacks fire in arrival order, at most once per frame, and never
// after the client reaches CLOSED.
type Handlers struct {
	OnMessage       func(EventRecord)
	OnVisualization func(VisualizationDescriptor)
	OnMetadata      func(SourceMetadata)
	OnProgress      func(Progress)
	OnSessionBound  func(sessionID string)
	OnComplete      func()
	OnError         func(error)
	OnStateChange   func(ConnState)
}

// Config configures a Client. BaseURL and Tokens are required; zero
// values elsewhere get defaults in NewClient.
type Config struct {
	// BaseURL is the coordinator root, e.g. "http://localhost:8080".
	BaseURL string

	// HTTPClient is the transport. Defaults to a client without a
	// global timeout, since streams are long-lived.
	HTTPClient HTTPClient

	// Tokens supplies the bearer credential per attempt.
	Tokens TokenSource

	// AnalysisMode is sent with each run request. Empty, "clinical" or
	// "research".
	AnalysisMode string

	// MaxReconnectAttempts bounds reconnection after a transport
	// failure. Default 5.
	MaxReconnectAttempts int

	// ReconnectBaseDelay is the first backoff delay; attempt n waits
	// base * 2^(n-1). Default 1s.
	ReconnectBaseDelay time.Duration

	// Scheduler drives backoff waits. Default real time.
	Scheduler Scheduler

	// Cache deduplicates visualization descriptors by id. Optional;
	// without it every detection is forwarded.
	Cache *vizcache.Cache[VisualizationDescriptor]

	// Handlers receive stream deliveries.
	Handlers Handlers

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Client owns one streaming connection at a time against the
// coordinator's /run endpoint and drives the lifecycle state machine.
//
// A Connect call is one exchange: it blocks until the stream ends,
// the reconnection budget is exhausted, or Disconnect is called.
// Instances are independent; nothing is shared between clients.
type Client struct {
	cfg        Config
	log        *slog.Logger
	transcript *TranscriptAssembler

	mu     sync.Mutex
	state  ConnState
	active bool
	closed bool
	cancel context.CancelFunc
}

// NewClient validates cfg, applies defaults, and returns a client in
// the DISCONNECTED state.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	switch cfg.AnalysisMode {
	case "", "clinical", "research":
	default:
		return nil, ErrInvalidAnalysisMode
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.MaxReconnectAttempts <= 0 {
		cfg.MaxReconnectAttempts = 5
	}
	if cfg.ReconnectBaseDelay <= 0 {
		cfg.ReconnectBaseDelay = time.Second
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = realScheduler{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	c := &Client{
		cfg:   cfg,
		log:   cfg.Logger,
		state: StateDisconnected,
	}
	c.transcript = NewTranscriptAssembler(func(id string) {
		c.emit(func(h Handlers) {
			if h.OnSessionBound != nil {
				h.OnSessionBound(id)
			}
		})
	})
	return c, nil
}

// Transcript exposes the assembler for read access by renderers.
func (c *Client) Transcript() *TranscriptAssembler { return c.transcript }

// State returns the current connection state.
func (c *Client) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect submits inputText and consumes the resulting event stream,
// blocking until the stream ends or fails terminally. sessionID may be
// empty on the first exchange; later exchanges reuse the bound session.
//
// Transport failures are retried with exponential backoff up to the
// configured budget; a reconnect re-issues the request with the bound
// session id so the coordinator resumes the conversation. Exhaustion
// transitions to CLOSED and returns ErrReconnectExhausted.
func (c *Client) Connect(ctx context.Context, inputText, sessionID string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.active {
		c.mu.Unlock()
		return ErrAlreadyActive
	}
	c.active = true
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	defer func() {
		cancel()
		c.mu.Lock()
		c.active = false
		c.cancel = nil
		c.mu.Unlock()
	}()

	token, err := c.bearerToken(runCtx)
	if err != nil {
		return err
	}

	if sessionID == "" {
		sessionID = c.transcript.SessionID()
	}
	c.transcript.BeginExchange(inputText)

	reconnects := 0
	for {
		c.setState(StateConnecting)

		fallbackSession, err := c.runOnce(runCtx, token, inputText, sessionID, &reconnects)
		if err == nil {
			if fallbackSession != "" {
				c.transcript.BindFallbackSession(fallbackSession)
			}
			c.transcript.Complete()
			c.setState(StateDisconnected)
			c.emit(func(h Handlers) {
				if h.OnComplete != nil {
					h.OnComplete()
				}
			})
			return nil
		}

		if runCtx.Err() != nil {
			// Disconnect (or caller cancellation) interrupted the
			// stream. Disconnect already transitioned to CLOSED.
			if c.isClosed() {
				return ErrClosed
			}
			c.transcript.Fail()
			c.setState(StateDisconnected)
			return runCtx.Err()
		}

		c.setState(StateError)
		if reconnects >= c.cfg.MaxReconnectAttempts {
			return c.failTerminal(fmt.Errorf("%w: last error: %v", ErrReconnectExhausted, err))
		}
		reconnects++
		delay := c.cfg.ReconnectBaseDelay * time.Duration(1<<(reconnects-1))
		c.log.Warn("stream interrupted, reconnecting",
			"attempt", reconnects,
			"max_attempts", c.cfg.MaxReconnectAttempts,
			"delay", delay,
			"error", err)
		if err := c.cfg.Scheduler.Sleep(runCtx, delay); err != nil {
			if c.isClosed() {
				return ErrClosed
			}
			c.transcript.Fail()
			c.setState(StateDisconnected)
			return err
		}
		if bound := c.transcript.SessionID(); bound != "" {
			sessionID = bound
		}
	}
}

// Disconnect cancels any in-flight read and pending backoff timer and
// transitions to CLOSED synchronously. Idempotent; no callbacks fire
// after it returns.
func (c *Client) Disconnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	cancel := c.cancel
	prev := c.state
	c.state = StateClosed
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if prev != StateClosed && c.cfg.Handlers.OnStateChange != nil {
		c.cfg.Handlers.OnStateChange(StateClosed)
	}

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// runOnce performs a single connection attempt and consumes its stream
// to completion. It returns the response's fallback session id on a
// clean end of stream.
func (c *Client) runOnce(ctx context.Context, token, inputText, sessionID string, reconnects *int) (string, error) {
	resp, err := c.open(ctx, token, inputText, sessionID)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	c.setState(StateConnected)
	*reconnects = 0

	if err := c.consume(ctx, resp.Body); err != nil {
		return "", err
	}
	return resp.Header.Get("X-Session-ID"), nil
}

// open issues the run request and validates the response envelope.
func (c *Client) open(ctx context.Context, token, inputText, sessionID string) (*http.Response, error) {
	body := map[string]any{"input_text": inputText}
	if sessionID != "" {
		body["session_id"] = sessionID
	}
	if c.cfg.AnalysisMode != "" {
		body["analysis_mode"] = c.cfg.AnalysisMode
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode run request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimSuffix(c.cfg.BaseURL, "/")+"/run", bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("build run request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "text/event-stream") {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: got %q", ErrBadContentType, ct)
	}
	return resp, nil
}

// consume reads the body chunk by chunk, feeding the frame scanner and
// dispatching each decoded event in arrival order. Returns nil on clean
// end of stream.
func (c *Client) consume(ctx context.Context, body io.Reader) error {
	scanner := NewFrameScanner()
	buf := make([]byte, 4096)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			for _, frame := range scanner.Feed(buf[:n]) {
				c.dispatch(frame)
			}
		}
		if err == io.EOF {
			for _, frame := range scanner.Flush() {
				c.dispatch(frame)
			}
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read stream: %w", err)
		}
	}
}

// dispatch decodes and delivers one frame. A frame that fails decoding
// is dropped; only transport failures abort the stream.
func (c *Client) dispatch(frame RawFrame) {
	rec, err := DecodeFrame(frame)
	if err != nil {
		c.log.Debug("dropping undecodable frame", "error", err, "id", frame.ID)
		return
	}

	c.emit(func(h Handlers) {
		if h.OnMessage != nil {
			h.OnMessage(rec)
		}
	})
	c.transcript.Ingest(rec)

	if rec.Meta.SessionID != "" || rec.Meta.EventType != "" {
		c.emit(func(h Handlers) {
			if h.OnMetadata != nil {
				h.OnMetadata(rec.Meta)
			}
		})
	}
	if rec.Meta.Progress != nil {
		p := *rec.Meta.Progress
		c.emit(func(h Handlers) {
			if h.OnProgress != nil {
				h.OnProgress(p)
			}
		})
	}

	for _, desc := range DetectVisualizations(rec) {
		if c.cfg.Cache != nil && !c.cfg.Cache.Add(desc.ID, desc) {
			continue
		}
		d := desc
		c.emit(func(h Handlers) {
			if h.OnVisualization != nil {
				h.OnVisualization(d)
			}
		})
	}
}

// failTerminal closes the client after the reconnection budget is
// spent. Delivered content is preserved; the error goes out on the
// error channel before the CLOSED transition.
func (c *Client) failTerminal(err error) error {
	c.transcript.Fail()
	c.emit(func(h Handlers) {
		if h.OnError != nil {
			h.OnError(err)
		}
	})
	c.setState(StateClosed)
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return err
}

func (c *Client) bearerToken(ctx context.Context) (string, error) {
	if c.cfg.Tokens == nil {
		return "", ErrNoCredential
	}
	token, err := c.cfg.Tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoCredential, err)
	}
	if token == "" {
		return "", ErrNoCredential
	}
	return token, nil
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// setState transitions the state machine and notifies the consumer.
// CLOSED is terminal; once reached no further transitions or callbacks
// occur.
func (c *Client) setState(next ConnState) {
	c.mu.Lock()
	if c.closed || c.state == StateClosed || c.state == next {
		c.mu.Unlock()
		return
	}
	c.state = next
	c.mu.Unlock()

	if c.cfg.Handlers.OnStateChange != nil {
		c.cfg.Handlers.OnStateChange(next)
	}
}

// emit runs a handler delivery unless the client is closed.
func (c *Client) emit(fn func(Handlers)) {
	if c.isClosed() {
		return
	}
	fn(c.cfg.Handlers)
}

var _ HTTPClient = (*http.Client)(nil)
