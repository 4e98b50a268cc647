// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionRecord is one stored analysis session.
type SessionRecord struct {
	SessionID       string          `json:"session_id"`
	Title           string          `json:"title"`
	Notes           string          `json:"notes,omitempty"`
	Status          string          `json:"status"`
	AnalysisMode    string          `json:"analysis_mode"`
	VepStatus       string          `json:"vep_status,omitempty"`
	VepTaskID       string          `json:"vep_task_id,omitempty"`
	VariantCount    int             `json:"variant_count"`
	PathogenicCount int             `json:"pathogenic_count"`
	Tags            []string        `json:"tags,omitempty"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
	Events          []StoredEvent   `json:"-"`
	State           json.RawMessage `json:"state,omitempty"`
}

// StoredEvent is one recorded event from a session's stream.
type StoredEvent struct {
	ID        string          `json:"id"`
	Author    string          `json:"author"`
	Timestamp string          `json:"timestamp"`
	Content   json.RawMessage `json:"content"`
}

// SessionStore keeps sessions in memory. The simulator is a dev tool;
// everything is lost on restart and that is fine.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*SessionRecord
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*SessionRecord)}
}

// GetOrCreate returns the session with the given ID, creating one when
// the ID is empty or unknown.
func (s *SessionStore) GetOrCreate(sessionID, analysisMode string) *SessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sessionID != "" {
		if rec, ok := s.sessions[sessionID]; ok {
			return rec
		}
	}
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	if analysisMode == "" {
		analysisMode = "clinical"
	}
	now := time.Now().UTC().Format(time.RFC3339)
	rec := &SessionRecord{
		SessionID:    sessionID,
		Status:       "active",
		AnalysisMode: analysisMode,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.sessions[sessionID] = rec
	return rec
}

// Get returns the session or nil.
func (s *SessionStore) Get(sessionID string) *SessionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[sessionID]
}

// List returns sessions newest-first with paging applied.
func (s *SessionStore) List(limit, offset int) []*SessionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*SessionRecord, 0, len(s.sessions))
	for _, rec := range s.sessions {
		all = append(all, rec)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt > all[j].CreatedAt
	})

	if offset >= len(all) {
		return nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all
}

// Delete removes a session. Returns false when it did not exist.
func (s *SessionStore) Delete(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return false
	}
	delete(s.sessions, sessionID)
	return true
}

// Touch updates the session's modification time and applies fn while
// holding the lock.
func (s *SessionStore) Touch(sessionID string, fn func(*SessionRecord)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[sessionID]
	if !ok {
		return false
	}
	fn(rec)
	rec.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	return true
}

// AppendEvent records one stream event in the session's history.
func (s *SessionStore) AppendEvent(sessionID, author string, content json.RawMessage) {
	s.Touch(sessionID, func(rec *SessionRecord) {
		rec.Events = append(rec.Events, StoredEvent{
			ID:        uuid.New().String(),
			Author:    author,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Content:   content,
		})
	})
}
