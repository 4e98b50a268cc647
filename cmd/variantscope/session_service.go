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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/AleutianAI/VariantScope/pkg/stream"
)

// SessionSummary is one entry from the coordinator's session listing.
type SessionSummary struct {
	SessionID       string   `json:"session_id"`
	Title           string   `json:"title"`
	Status          string   `json:"status"`
	AnalysisMode    string   `json:"analysis_mode"`
	VariantCount    int      `json:"variant_count"`
	PathogenicCount int      `json:"pathogenic_count"`
	Tags            []string `json:"tags"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

// SessionDetail is the full session record.
type SessionDetail struct {
	SessionSummary
	Notes     string          `json:"notes"`
	VepStatus string          `json:"vep_status"`
	VepTaskID string          `json:"vep_task_id"`
	State     json.RawMessage `json:"state"`
}

// SessionEvent is one stored event from a session's history.
type SessionEvent struct {
	ID        string          `json:"id"`
	Author    string          `json:"author"`
	Timestamp string          `json:"timestamp"`
	Content   json.RawMessage `json:"content"`
}

// SessionUpdate carries the mutable session fields. Nil pointers mean
// "leave unchanged"; a non-nil empty Tags slice clears the tags.
type SessionUpdate struct {
	Title        *string  `json:"title,omitempty"`
	Notes        *string  `json:"notes,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	AnalysisMode string   `json:"analysis_mode,omitempty"`
}

// SessionService is the client for the coordinator's session routes.
//
// # Description
//
// Covers listing, inspection, deletion, resumption, event history,
// metadata updates, and direct chart fetches. Streaming runs live in
// pkg/stream; this service handles everything around them.
type SessionService interface {
	List(ctx context.Context, limit, offset int) ([]SessionSummary, error)
	Get(ctx context.Context, sessionID string) (SessionDetail, error)
	Delete(ctx context.Context, sessionID string) error
	Resume(ctx context.Context, sessionID string) (SessionDetail, error)
	Events(ctx context.Context, sessionID string) ([]SessionEvent, error)
	Update(ctx context.Context, sessionID string, update SessionUpdate) error

	// FetchChart retrieves chart data directly, outside a stream. The
	// result flows through the same descriptor inference as streamed
	// charts.
	FetchChart(ctx context.Context, sessionID, chartType, dimension string, limit int) (stream.VisualizationDescriptor, error)
}

// httpSessionService talks to the coordinator over HTTP with bearer
// auth on every request.
type httpSessionService struct {
	baseURL string
	client  stream.HTTPClient
	tokens  stream.TokenSource
}

// NewSessionService creates the HTTP-backed session service.
func NewSessionService(baseURL string, client stream.HTTPClient, tokens stream.TokenSource) SessionService {
	if client == nil {
		client = &http.Client{}
	}
	return &httpSessionService{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
		tokens:  tokens,
	}
}

func (s *httpSessionService) List(ctx context.Context, limit, offset int) ([]SessionSummary, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}
	path := "/sessions"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var payload struct {
		Sessions []SessionSummary `json:"sessions"`
	}
	if err := s.doJSON(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Sessions, nil
}

func (s *httpSessionService) Get(ctx context.Context, sessionID string) (SessionDetail, error) {
	var detail SessionDetail
	err := s.doJSON(ctx, http.MethodGet, "/sessions/"+url.PathEscape(sessionID), nil, &detail)
	return detail, err
}

func (s *httpSessionService) Delete(ctx context.Context, sessionID string) error {
	return s.doJSON(ctx, http.MethodDelete, "/sessions/"+url.PathEscape(sessionID), nil, nil)
}

func (s *httpSessionService) Resume(ctx context.Context, sessionID string) (SessionDetail, error) {
	var detail SessionDetail
	err := s.doJSON(ctx, http.MethodPost, "/sessions/"+url.PathEscape(sessionID)+"/resume", nil, &detail)
	return detail, err
}

func (s *httpSessionService) Events(ctx context.Context, sessionID string) ([]SessionEvent, error) {
	var payload struct {
		Events []SessionEvent `json:"events"`
	}
	err := s.doJSON(ctx, http.MethodGet, "/sessions/"+url.PathEscape(sessionID)+"/events", nil, &payload)
	return payload.Events, err
}

func (s *httpSessionService) Update(ctx context.Context, sessionID string, update SessionUpdate) error {
	return s.doJSON(ctx, http.MethodPost, "/sessions/"+url.PathEscape(sessionID)+"/update", update, nil)
}

func (s *httpSessionService) FetchChart(ctx context.Context, sessionID, chartType, dimension string, limit int) (stream.VisualizationDescriptor, error) {
	query := url.Values{}
	if dimension != "" {
		query.Set("dimension", dimension)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	path := "/sessions/" + url.PathEscape(sessionID) + "/visualization/" + url.PathEscape(chartType)
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	raw, err := s.doRaw(ctx, http.MethodGet, path, nil)
	if err != nil {
		return stream.VisualizationDescriptor{}, err
	}
	return stream.DecodeChartPayload(raw)
}

// doJSON performs one authenticated request and decodes the JSON
// response into out (skipped when out is nil).
func (s *httpSessionService) doJSON(ctx context.Context, method, path string, body, out any) error {
	raw, err := s.doRaw(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (s *httpSessionService) doRaw(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := s.tokens.Token(ctx)
	if err != nil || token == "" {
		return nil, stream.ErrNoCredential
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s response: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}
	return raw, nil
}

var _ SessionService = (*httpSessionService)(nil)
