// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AleutianAI/VariantScope/pkg/stream"
)

func newSessionServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, SessionService) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q, want bearer test-token", got)
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	svc := NewSessionService(srv.URL, srv.Client(), stream.StaticToken("test-token"))
	return srv, svc
}

func TestSessionService_List(t *testing.T) {
	var gotPath string
	_, svc := newSessionServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]any{
			"sessions": []map[string]any{
				{"session_id": "s-1", "title": "BRCA panel", "status": "complete", "variant_count": 42},
				{"session_id": "s-2", "status": "running"},
			},
		})
	})

	sessions, err := svc.List(context.Background(), 10, 5)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if gotPath != "/sessions?limit=10&offset=5" {
		t.Errorf("request path = %q", gotPath)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	if sessions[0].SessionID != "s-1" || sessions[0].VariantCount != 42 {
		t.Errorf("first session = %+v", sessions[0])
	}
}

func TestSessionService_ListOmitsZeroPaging(t *testing.T) {
	var gotQuery string
	_, svc := newSessionServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]any{"sessions": []any{}})
	})

	if _, err := svc.List(context.Background(), 0, 0); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if gotQuery != "" {
		t.Errorf("query = %q, want empty", gotQuery)
	}
}

func TestSessionService_Get(t *testing.T) {
	_, svc := newSessionServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sessions/s-1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"session_id": "s-1",
			"status":     "complete",
			"notes":      "reviewed",
			"vep_status": "done",
		})
	})

	detail, err := svc.Get(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if detail.Notes != "reviewed" || detail.VepStatus != "done" {
		t.Errorf("detail = %+v", detail)
	}
}

func TestSessionService_Delete(t *testing.T) {
	var gotMethod string
	_, svc := newSessionServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.WriteHeader(http.StatusNoContent)
	})

	if err := svc.Delete(context.Background(), "s-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Errorf("method = %q, want DELETE", gotMethod)
	}
}

func TestSessionService_UpdateSendsOnlySetFields(t *testing.T) {
	var gotBody map[string]any
	_, svc := newSessionServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	})

	title := "renamed"
	err := svc.Update(context.Background(), "s-1", SessionUpdate{Title: &title})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if gotBody["title"] != "renamed" {
		t.Errorf("body title = %v", gotBody["title"])
	}
	if _, present := gotBody["notes"]; present {
		t.Errorf("unset notes field was sent: %v", gotBody)
	}
}

func TestSessionService_Events(t *testing.T) {
	_, svc := newSessionServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sessions/s-1/events" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"events": []map[string]any{
				{"id": "e-1", "author": "user", "content": map[string]any{"id": "e-1", "content": "hi"}},
			},
		})
	})

	events, err := svc.Events(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	if len(events) != 1 || events[0].Author != "user" {
		t.Fatalf("events = %+v", events)
	}
}

func TestSessionService_FetchChart(t *testing.T) {
	_, svc := newSessionServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sessions/s-1/visualization/bar" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("dimension"); got != "consequence" {
			t.Errorf("dimension = %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "25" {
			t.Errorf("limit = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status":     "success",
			"chart_type": "bar",
			"title":      "Variants by consequence",
			"data":       []map[string]any{{"label": "missense", "count": 12}},
		})
	})

	d, err := svc.FetchChart(context.Background(), "s-1", "bar", "consequence", 25)
	if err != nil {
		t.Fatalf("FetchChart() error = %v", err)
	}
	if d.Type != stream.ChartBar || d.Title != "Variants by consequence" {
		t.Errorf("descriptor = %+v", d)
	}
	if d.ID == "" {
		t.Error("descriptor has no ID")
	}
}

func TestSessionService_FetchChartRejectsFailedPayload(t *testing.T) {
	_, svc := newSessionServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "error", "error": "no data"})
	})

	if _, err := svc.FetchChart(context.Background(), "s-1", "bar", "", 0); err == nil {
		t.Fatal("FetchChart() accepted an unsuccessful payload")
	}
}

func TestSessionService_NonSuccessStatus(t *testing.T) {
	_, svc := newSessionServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})

	if _, err := svc.Get(context.Background(), "missing"); err == nil {
		t.Fatal("Get() on 404 returned nil error")
	}
}

func TestSessionService_MissingCredential(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()

	svc := NewSessionService(srv.URL, srv.Client(), stream.StaticToken(""))
	_, err := svc.List(context.Background(), 0, 0)
	if !errors.Is(err, stream.ErrNoCredential) {
		t.Fatalf("List() error = %v, want ErrNoCredential", err)
	}
	if requests != 0 {
		t.Errorf("server received %d requests, want 0", requests)
	}
}
