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
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role values for transcript messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// TranscriptMessage is one displayed bubble in the reconstructed
// transcript. Content is append-only while the bubble is open; closed
// bubbles never change and no bubble is ever deleted within a session.
type TranscriptMessage struct {
	ID        string
	Role      string
	Content   string
	Open      bool
	CreatedAt time.Time
}

// TranscriptAssembler turns classified events, in arrival order, into
// the bubble list. It balances two goals: group model output that
// belongs together into one bubble, and never lose content on a bubble
// transition, completion, or error.
//
// It also owns the session binding: the first metadata-carried session
// id binds once and fires onSession once; a fallback id from the
// lifecycle layer is accepted only when nothing was bound from metadata.
//
// Safe for concurrent reads via Messages; mutation happens from the
// single stream consumer.
type TranscriptAssembler struct {
	mu        sync.Mutex
	messages  []*TranscriptMessage
	onSession func(string)

	sessionID    string
	sessionBound bool

	firstEvent bool
	prevKind   string
	delivered  bool
}

// NewTranscriptAssembler creates an empty assembler. onSession may be
// nil; when set it fires exactly once, on the first session binding.
func NewTranscriptAssembler(onSession func(string)) *TranscriptAssembler {
	return &TranscriptAssembler{onSession: onSession}
}

// BeginExchange records the user's submission as a closed user bubble
// and resets the per-exchange split state.
func (a *TranscriptAssembler) BeginExchange(userText string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.closeOpenLocked()
	a.messages = append(a.messages, &TranscriptMessage{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Content:   userText,
		Open:      false,
		CreatedAt: time.Now(),
	})
	a.firstEvent = true
	a.prevKind = ""
	a.delivered = false
}

// Ingest applies one classified event to the transcript.
//
// The split rule is evaluated only for non-initial events of an
// exchange: a content-bearing event starts a new bubble when its kind
// changed to something other than streaming_text, or when its author is
// present and not the assistant. Content destined for a superseded
// bubble is already flushed into it, so nothing is dropped on a split.
func (a *TranscriptAssembler) Ingest(rec EventRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.bindSessionLocked(rec.Meta.SessionID)

	startNew := !a.firstEvent && rec.Content != "" &&
		((rec.Kind != "" && rec.Kind != a.prevKind && rec.Kind != KindStreamingText) ||
			(rec.Author != "" && rec.Author != RoleAssistant))

	if startNew {
		a.closeOpenLocked()
	}
	if rec.Content != "" {
		a.appendLocked(rec.Content)
		a.delivered = true
	}

	a.firstEvent = false
	if rec.Kind != "" {
		a.prevKind = rec.Kind
	}

	if rec.IsFinal || rec.Kind == KindFinalResponse {
		a.closeOpenLocked()
	}
}

// Complete flushes residual state and closes every open bubble. Called
// on an explicit terminal signal or on clean stream end.
func (a *TranscriptAssembler) Complete() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closeOpenLocked()
}

// Fail handles a transport or parse error for the in-flight exchange.
// It reports whether any content had been delivered: when content
// exists it is preserved and the bubbles close normally; when none
// exists the transcript is left without a partial bubble and the caller
// surfaces the error instead.
func (a *TranscriptAssembler) Fail() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closeOpenLocked()
	return a.delivered
}

// BindFallbackSession offers the lifecycle layer's out-of-band session
// id. It is accepted only when no id was bound from event metadata.
func (a *TranscriptAssembler) BindFallbackSession(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.bindSessionLocked(id)
}

// SessionID returns the bound session id, or "" before binding.
func (a *TranscriptAssembler) SessionID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sessionID
}

// Messages returns a snapshot copy of the bubble list.
func (a *TranscriptAssembler) Messages() []TranscriptMessage {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]TranscriptMessage, len(a.messages))
	for i, m := range a.messages {
		out[i] = *m
	}
	return out
}

func (a *TranscriptAssembler) bindSessionLocked(id string) {
	if id == "" || a.sessionBound {
		return
	}
	a.sessionID = id
	a.sessionBound = true
	if a.onSession != nil {
		a.onSession(id)
	}
}

// appendLocked appends content to the open assistant bubble, creating
// one when none is open.
func (a *TranscriptAssembler) appendLocked(content string) {
	if open := a.openLocked(); open != nil {
		open.Content += content
		return
	}
	a.messages = append(a.messages, &TranscriptMessage{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Content:   content,
		Open:      true,
		CreatedAt: time.Now(),
	})
}

func (a *TranscriptAssembler) openLocked() *TranscriptMessage {
	for i := len(a.messages) - 1; i >= 0; i-- {
		if a.messages[i].Open {
			return a.messages[i]
		}
	}
	return nil
}

func (a *TranscriptAssembler) closeOpenLocked() {
	for _, m := range a.messages {
		if m.Open {
			m.Open = false
		}
	}
}
