// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/docsearch-tui/internal/docsearch"
)

// =============================================================================
// STREAM RUNNER
// =============================================================================

// StreamRunner drives one answer stream and delivers its events to a Bubble
// Tea program via program.Send. It runs outside the Update loop so that slow
// network reads never block rendering.
type StreamRunner struct {
	mu      sync.Mutex
	program *tea.Program
	client  *docsearch.Client
}

// NewStreamRunner creates a stream runner for the given client. The program
// is attached later with SetProgram, after tea.NewProgram has been called.
func NewStreamRunner(client *docsearch.Client) *StreamRunner {
	return &StreamRunner{client: client}
}

// SetProgram attaches the Bubble Tea program. Must be called before the
// program's event loop starts submitting queries.
func (r *StreamRunner) SetProgram(program *tea.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.program = program
}

func (r *StreamRunner) send(msg tea.Msg) {
	r.mu.Lock()
	program := r.program
	r.mu.Unlock()
	if program != nil {
		program.Send(msg)
	}
}

// Run executes one streaming query and sends lifecycle messages to the
// program. Blocks until the stream ends, fails, or ctx is cancelled. Intended
// to be called from its own goroutine.
func (r *StreamRunner) Run(ctx context.Context, query string, messageID string) {
	if r.client == nil {
		r.send(StreamFailedMsg{MessageID: messageID, Err: docsearch.ErrUnreachable})
		return
	}

	r.send(NewStreamStartMsg(messageID))

	err := r.client.StreamAnswer(ctx, query, func(ev docsearch.StreamEvent) {
		r.send(StreamEventMsg{MessageID: messageID, Event: ev})
	})

	if err != nil {
		// Cancellation is user-initiated, not a transport failure. The model
		// already reset its state when it cancelled.
		if ctx.Err() != nil {
			return
		}
		r.send(StreamFailedMsg{MessageID: messageID, Err: err})
		return
	}

	r.send(StreamDoneMsg{MessageID: messageID})
}
