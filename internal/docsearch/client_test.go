// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package docsearch provides the HTTP client for the documentation search
// backend and the incremental decoding of its streamed answer events.
package docsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// CONFIGURATION TESTS
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.BaseURL != "http://127.0.0.1:8000" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.ChatPath != "/api/chat/stream" {
		t.Errorf("ChatPath = %q", cfg.ChatPath)
	}
	if cfg.ResultLimit != 4 {
		t.Errorf("ResultLimit = %d, want 4", cfg.ResultLimit)
	}
	if cfg.IdleTimeout != 30*time.Second {
		t.Errorf("IdleTimeout = %v, want 30s", cfg.IdleTimeout)
	}
}

func TestNewClientWithConfig_FillsZeroValues(t *testing.T) {
	client := NewClientWithConfig(&ClientConfig{})

	cfg := client.GetConfig()
	if cfg.BaseURL != "http://127.0.0.1:8000" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.ResultLimit != 4 {
		t.Errorf("ResultLimit = %d, want 4", cfg.ResultLimit)
	}
	if cfg.IdleTimeout != 30*time.Second {
		t.Errorf("IdleTimeout = %v", cfg.IdleTimeout)
	}
}

func TestNewClientWithConfig_NilUsesDefaults(t *testing.T) {
	client := NewClientWithConfig(nil)

	if client.GetConfig().ChatPath != "/api/chat/stream" {
		t.Errorf("ChatPath = %q", client.GetConfig().ChatPath)
	}
}

func TestClient_Endpoint(t *testing.T) {
	tests := []struct {
		base string
		path string
		want string
	}{
		{"http://127.0.0.1:8000", "/api/chat/stream", "http://127.0.0.1:8000/api/chat/stream"},
		{"http://127.0.0.1:8000/", "/api/chat/stream", "http://127.0.0.1:8000/api/chat/stream"},
		{"https://docs.example.com", "/api/chat/stream", "https://docs.example.com/api/chat/stream"},
	}

	for _, tc := range tests {
		client := NewClientWithConfig(&ClientConfig{BaseURL: tc.base, ChatPath: tc.path})
		if got := client.endpoint(); got != tc.want {
			t.Errorf("endpoint(%q) = %q, want %q", tc.base, got, tc.want)
		}
	}
}

// =============================================================================
// STREAMING TESTS
// =============================================================================

func newTestClient(url string) *Client {
	return NewClientWithConfig(&ClientConfig{
		BaseURL:     url,
		IdleTimeout: 5 * time.Second,
	})
}

func TestStreamAnswer_RequestShape(t *testing.T) {
	var gotMethod, gotPath, gotContentType string
	var gotBody AnswerRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		fmt.Fprintln(w, `{"type":"done"}`)
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{
		BaseURL:     server.URL,
		ResultLimit: 7,
		IdleTimeout: 5 * time.Second,
	})

	err := client.StreamAnswer(context.Background(), "how do I deploy?", func(ev StreamEvent) {})
	if err != nil {
		t.Fatalf("StreamAnswer error: %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("method = %q, want POST", gotMethod)
	}
	if gotPath != "/api/chat/stream" {
		t.Errorf("path = %q", gotPath)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q", gotContentType)
	}
	if gotBody.Query != "how do I deploy?" {
		t.Errorf("query = %q", gotBody.Query)
	}
	if gotBody.Limit != 7 {
		t.Errorf("limit = %d, want 7", gotBody.Limit)
	}
}

func TestStreamAnswer_DispatchesEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"type":"answer_chunk","delta":"Use "}`)
		fmt.Fprintln(w, `{"type":"answer_chunk","delta":"the CLI."}`)
		fmt.Fprintln(w, `{"type":"references","references":["[1] Deploy Guide"]}`)
		fmt.Fprintln(w, `{"type":"done"}`)
	}))
	defer server.Close()

	var deltas []string
	var refs []string
	err := newTestClient(server.URL).StreamAnswer(context.Background(), "q", func(ev StreamEvent) {
		switch ev.Kind {
		case EventChunk:
			deltas = append(deltas, ev.Delta)
		case EventReferences:
			refs = ev.References
		}
	})
	if err != nil {
		t.Fatalf("StreamAnswer error: %v", err)
	}

	if strings.Join(deltas, "") != "Use the CLI." {
		t.Errorf("deltas = %v", deltas)
	}
	if len(refs) != 1 || refs[0] != "[1] Deploy Guide" {
		t.Errorf("references = %v", refs)
	}
}

func TestStreamAnswer_ErrorEventCompletesStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"type":"error","message":"index rebuilding"}`)
	}))
	defer server.Close()

	var errEvent *StreamEvent
	err := newTestClient(server.URL).StreamAnswer(context.Background(), "q", func(ev StreamEvent) {
		if ev.Kind == EventError {
			copied := ev
			errEvent = &copied
		}
	})

	// An error event is a completed stream, not a transport failure.
	if err != nil {
		t.Fatalf("StreamAnswer error: %v, want nil", err)
	}
	if errEvent == nil || errEvent.Message != "index rebuilding" {
		t.Errorf("error event = %+v", errEvent)
	}
}

func TestStreamAnswer_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "retriever offline")
	}))
	defer server.Close()

	err := newTestClient(server.URL).StreamAnswer(context.Background(), "q", func(ev StreamEvent) {
		t.Error("callback invoked for failed request")
	})

	var ce *ClientError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want *ClientError", err)
	}
	if ce.Type != ErrTypeBadStatus {
		t.Errorf("Type = %d, want ErrTypeBadStatus", ce.Type)
	}
	if !strings.Contains(ce.Message, "retriever offline") {
		t.Errorf("Message = %q, want body detail surfaced", ce.Message)
	}
}

func TestStreamAnswer_Unreachable(t *testing.T) {
	// Closed server: connection refused.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	err := newTestClient(server.URL).StreamAnswer(context.Background(), "q", func(ev StreamEvent) {})

	var ce *ClientError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want *ClientError", err)
	}
	if ce.Type != ErrTypeUnreachable {
		t.Errorf("Type = %d, want ErrTypeUnreachable", ce.Type)
	}
}

func TestStreamAnswer_IdleTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"type":"answer_chunk","delta":"first"}`)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := NewClientWithConfig(&ClientConfig{
		BaseURL:     server.URL,
		IdleTimeout: 50 * time.Millisecond,
	})

	start := time.Now()
	err := client.StreamAnswer(context.Background(), "q", func(ev StreamEvent) {})
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("error = %v, want ErrTimeout", err)
	}
	if elapsed > 2*time.Second {
		t.Errorf("timeout took %v, watchdog did not fire", elapsed)
	}
}

func TestStreamAnswer_Throttled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"type":"done"}`)
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{
		BaseURL:           server.URL,
		IdleTimeout:       5 * time.Second,
		RequestsPerMinute: 1,
	})

	if err := client.StreamAnswer(context.Background(), "q", func(ev StreamEvent) {}); err != nil {
		t.Fatalf("first request: %v", err)
	}

	err := client.StreamAnswer(context.Background(), "q", func(ev StreamEvent) {})
	if !errors.Is(err, ErrThrottled) {
		t.Errorf("second request error = %v, want ErrThrottled", err)
	}
}

// =============================================================================
// ERROR RENDERING TESTS
// =============================================================================

func TestUserFacingError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"unreachable", ErrUnreachable, "Search service unreachable"},
		{"timeout", ErrTimeout, "Stream timed out"},
		{"throttled", ErrThrottled, "Too many requests, slow down"},
		{
			"bad status keeps detail",
			&ClientError{Type: ErrTypeBadStatus, Message: "answer request failed with 503"},
			"answer request failed with 503",
		},
		{"plain error", errors.New("boom"), "boom"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := UserFacingError(tc.err); got != tc.want {
				t.Errorf("UserFacingError = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestClientError_Unwrap(t *testing.T) {
	cause := errors.New("dial refused")
	ce := &ClientError{Type: ErrTypeUnreachable, Message: "unreachable", Cause: cause}

	if !errors.Is(ce, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if ce.Error() != "unreachable: dial refused" {
		t.Errorf("Error() = %q", ce.Error())
	}
}
