// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"strings"
	"testing"

	"github.com/jeranaias/docsearch-tui/internal/docsearch"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewUserMessage(t *testing.T) {
	msg := NewUserMessage("How do I configure auth?")

	if msg.Role != RoleUser {
		t.Errorf("Role = %q, want user", msg.Role)
	}
	if msg.Content != "How do I configure auth?" {
		t.Errorf("Content = %q", msg.Content)
	}
	if msg.State != StateFinalized {
		t.Errorf("State = %v, user messages are finalized on creation", msg.State)
	}
	if msg.ID == "" {
		t.Error("ID is empty")
	}
}

func TestNewPendingAssistantMessage(t *testing.T) {
	msg := NewPendingAssistantMessage()

	if msg.Role != RoleAssistant {
		t.Errorf("Role = %q, want assistant", msg.Role)
	}
	if msg.Content != PlaceholderContent {
		t.Errorf("Content = %q, want placeholder", msg.Content)
	}
	if msg.State != StatePending {
		t.Errorf("State = %v, want pending", msg.State)
	}
	if !msg.HasPlaceholder() {
		t.Error("HasPlaceholder = false, want true")
	}
}

func TestMessage_WithDelta(t *testing.T) {
	msg := NewPendingAssistantMessage()

	// First delta replaces the placeholder outright.
	msg = msg.WithDelta("The answer ")
	if msg.Content != "The answer " {
		t.Errorf("Content = %q, placeholder should be replaced", msg.Content)
	}
	if msg.State != StateStreaming {
		t.Errorf("State = %v, want streaming", msg.State)
	}

	// Later deltas append.
	msg = msg.WithDelta("is yes.")
	if msg.Content != "The answer is yes." {
		t.Errorf("Content = %q", msg.Content)
	}
}

func TestMessage_WithReferences(t *testing.T) {
	msg := NewPendingAssistantMessage().WithDelta("text")

	msg = msg.WithReferences([]string{"[1] Guide"})
	if len(msg.References) != 1 || msg.References[0] != "[1] Guide" {
		t.Errorf("References = %v", msg.References)
	}

	// A later references event replaces the list in full.
	msg = msg.WithReferences([]string{"[1] Guide", "[2] API"})
	if len(msg.References) != 2 {
		t.Errorf("References = %v, want full replacement", msg.References)
	}

	// References do not change the text state.
	if msg.State != StateStreaming {
		t.Errorf("State = %v, want streaming", msg.State)
	}
}

func TestMessage_ReferencesOnPending(t *testing.T) {
	msg := NewPendingAssistantMessage().WithReferences([]string{"[1] Doc"})

	// A references event alone does not leave pending.
	if msg.State != StatePending {
		t.Errorf("State = %v, want pending", msg.State)
	}
	if msg.Content != PlaceholderContent {
		t.Errorf("Content = %q, placeholder should survive", msg.Content)
	}
}

func TestMessage_WithError(t *testing.T) {
	msg := NewPendingAssistantMessage().
		WithDelta("partial text").
		WithReferences([]string{"[1] Doc"})

	msg = msg.WithError("retriever crashed")

	if msg.State != StateFailed {
		t.Errorf("State = %v, want failed", msg.State)
	}
	if msg.Content != "retriever crashed" {
		t.Errorf("Content = %q, want backend error verbatim", msg.Content)
	}
	if msg.References != nil {
		t.Errorf("References = %v, want cleared", msg.References)
	}
}

func TestMessage_Finalized(t *testing.T) {
	msg := NewPendingAssistantMessage().WithDelta("done.").Finalized()

	if msg.State != StateFinalized {
		t.Errorf("State = %v, want finalized", msg.State)
	}
	if msg.Content != "done." {
		t.Errorf("Content = %q", msg.Content)
	}
}

func TestMessage_FinalizedWithoutDeltas(t *testing.T) {
	msg := NewPendingAssistantMessage().Finalized()

	if msg.Content != NoResultsContent {
		t.Errorf("Content = %q, want no-results text", msg.Content)
	}
	if msg.State != StateFinalized {
		t.Errorf("State = %v, want finalized", msg.State)
	}
}

func TestMessage_WithTransportFailure(t *testing.T) {
	msg := NewPendingAssistantMessage().WithDelta("partial").WithTransportFailure()

	if msg.State != StateFailed {
		t.Errorf("State = %v, want failed", msg.State)
	}
	if msg.Content != TransportFailureContent {
		t.Errorf("Content = %q, want fixed transport text", msg.Content)
	}
}

func TestMessage_TerminalIsImmutable(t *testing.T) {
	failed := NewPendingAssistantMessage().WithError("boom")

	tests := []struct {
		name string
		got  Message
	}{
		{"delta after failure", failed.WithDelta("late")},
		{"references after failure", failed.WithReferences([]string{"[1] x"})},
		{"error after failure", failed.WithError("other")},
		{"finalize after failure", failed.Finalized()},
		{"transport after failure", failed.WithTransportFailure()},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got.Content != "boom" || tc.got.State != StateFailed {
				t.Errorf("message mutated after terminal state: %+v", tc.got)
			}
		})
	}
}

func TestMessage_Preview(t *testing.T) {
	msg := NewUserMessage("héllo wörld this is long content")

	if got := msg.Preview(100); got != msg.Content {
		t.Errorf("Preview(100) = %q, want full content", got)
	}
	if got := msg.Preview(10); got != "héllo w..." {
		t.Errorf("Preview(10) = %q", got)
	}
}

func TestRole_DisplayName(t *testing.T) {
	if RoleUser.DisplayName() != "You" {
		t.Errorf("user DisplayName = %q", RoleUser.DisplayName())
	}
	if RoleAssistant.DisplayName() != "Assistant" {
		t.Errorf("assistant DisplayName = %q", RoleAssistant.DisplayName())
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func chunk(delta string) docsearch.StreamEvent {
	return docsearch.StreamEvent{Kind: docsearch.EventChunk, Delta: delta}
}

func TestConversation_BeginRequest(t *testing.T) {
	conv := NewConversation()

	id, ok := conv.BeginRequest("what is the deploy flow?")
	if !ok {
		t.Fatal("BeginRequest ok = false")
	}
	if id == "" {
		t.Error("assistant ID is empty")
	}
	if conv.MessageCount() != 2 {
		t.Fatalf("MessageCount = %d, want user + pending assistant", conv.MessageCount())
	}
	if !conv.InFlight() {
		t.Error("InFlight = false after BeginRequest")
	}

	last, _ := conv.GetLastMessage()
	if last.Role != RoleAssistant || last.Content != PlaceholderContent {
		t.Errorf("last message = %+v, want pending assistant", last)
	}
}

func TestConversation_RejectsConcurrentRequest(t *testing.T) {
	conv := NewConversation()
	conv.BeginRequest("first")

	if _, ok := conv.BeginRequest("second"); ok {
		t.Error("BeginRequest accepted while in flight")
	}
	if conv.MessageCount() != 2 {
		t.Errorf("MessageCount = %d, rejected submission must not append", conv.MessageCount())
	}
}

func TestConversation_StreamLifecycle(t *testing.T) {
	conv := NewConversation()
	conv.BeginRequest("q")

	conv.ApplyEvent(chunk("Use "))
	conv.ApplyEvent(chunk("the CLI."))
	conv.ApplyEvent(docsearch.StreamEvent{
		Kind:       docsearch.EventReferences,
		References: []string{"[1] CLI Guide"},
	})
	conv.FinishStream()

	if conv.InFlight() {
		t.Error("InFlight = true after FinishStream")
	}

	msg, ok := conv.GetLastAssistantMessage()
	if !ok {
		t.Fatal("no assistant message")
	}
	if msg.Content != "Use the CLI." {
		t.Errorf("Content = %q", msg.Content)
	}
	if msg.State != StateFinalized {
		t.Errorf("State = %v, want finalized", msg.State)
	}
	if len(msg.References) != 1 {
		t.Errorf("References = %v", msg.References)
	}
}

func TestConversation_EmptyStreamGetsNoResultsText(t *testing.T) {
	conv := NewConversation()
	conv.BeginRequest("q")
	conv.FinishStream()

	msg, _ := conv.GetLastAssistantMessage()
	if msg.Content != NoResultsContent {
		t.Errorf("Content = %q, want no-results text", msg.Content)
	}
}

func TestConversation_ErrorEventReleasesActiveSlot(t *testing.T) {
	conv := NewConversation()
	conv.BeginRequest("q")

	conv.ApplyEvent(chunk("partial"))
	conv.ApplyEvent(docsearch.StreamEvent{Kind: docsearch.EventError, Message: "index down"})

	if conv.InFlight() {
		t.Error("InFlight = true after error event")
	}

	// A late chunk after the error must be dropped, not appended.
	conv.ApplyEvent(chunk("late data"))

	msg, _ := conv.GetLastAssistantMessage()
	if msg.Content != "index down" {
		t.Errorf("Content = %q, late event mutated a terminal message", msg.Content)
	}
	if msg.State != StateFailed {
		t.Errorf("State = %v, want failed", msg.State)
	}
}

func TestConversation_LateEventNeverHitsNextRequest(t *testing.T) {
	conv := NewConversation()
	conv.BeginRequest("first")
	conv.ApplyEvent(docsearch.StreamEvent{Kind: docsearch.EventError, Message: "down"})

	// New request begins; a straggler from the old stream must not touch it.
	conv.BeginRequest("second")
	pendingBefore, _ := conv.GetLastAssistantMessage()

	conv.ApplyEvent(chunk("straggler"))

	after, _ := conv.GetLastAssistantMessage()
	// The new active message legitimately receives events; this verifies the
	// event went to the new message, not the failed one.
	if after.ID != pendingBefore.ID {
		t.Errorf("event applied to wrong message")
	}
	failed := conv.History()[1]
	if failed.Content != "down" {
		t.Errorf("failed message mutated: %q", failed.Content)
	}
}

func TestConversation_FailTransport(t *testing.T) {
	conv := NewConversation()
	conv.BeginRequest("q")
	conv.ApplyEvent(chunk("partial"))

	conv.FailTransport()

	if conv.InFlight() {
		t.Error("InFlight = true after transport failure")
	}
	msg, _ := conv.GetLastAssistantMessage()
	if msg.Content != TransportFailureContent {
		t.Errorf("Content = %q, want fixed transport text", msg.Content)
	}
	if msg.State != StateFailed {
		t.Errorf("State = %v, want failed", msg.State)
	}
}

func TestConversation_UnknownEventIsNoOp(t *testing.T) {
	conv := NewConversation()
	conv.BeginRequest("q")
	conv.ApplyEvent(chunk("text"))

	conv.ApplyEvent(docsearch.StreamEvent{Kind: docsearch.EventUnknown})

	msg, ok := conv.ActiveMessage()
	if !ok {
		t.Fatal("unknown event released the active slot")
	}
	if msg.Content != "text" {
		t.Errorf("Content = %q, unknown event mutated the message", msg.Content)
	}
}

func TestConversation_History(t *testing.T) {
	conv := NewConversation()
	conv.BeginRequest("q")
	conv.ApplyEvent(chunk("answer"))
	conv.FinishStream()

	history := conv.History()
	if len(history) != 2 {
		t.Fatalf("History length = %d, want 2", len(history))
	}

	// The snapshot is a copy.
	history[0].Content = "mutated"
	if conv.Messages[0].Content == "mutated" {
		t.Error("History returned the backing slice")
	}
}

func TestConversation_Clear(t *testing.T) {
	conv := NewConversation()
	conv.BeginRequest("q")

	conv.Clear()

	if !conv.IsEmpty() {
		t.Error("IsEmpty = false after Clear")
	}
	if conv.InFlight() {
		t.Error("InFlight = true after Clear")
	}

	// A fresh request works after clearing mid-stream.
	if _, ok := conv.BeginRequest("again"); !ok {
		t.Error("BeginRequest rejected after Clear")
	}
}

func TestConversation_SequentialRequests(t *testing.T) {
	conv := NewConversation()

	for i, q := range []string{"first", "second", "third"} {
		if _, ok := conv.BeginRequest(q); !ok {
			t.Fatalf("request %d rejected", i)
		}
		conv.ApplyEvent(chunk("answer to " + q))
		conv.FinishStream()
	}

	if conv.MessageCount() != 6 {
		t.Fatalf("MessageCount = %d, want 6", conv.MessageCount())
	}
	last, _ := conv.GetLastAssistantMessage()
	if !strings.Contains(last.Content, "third") {
		t.Errorf("last answer = %q", last.Content)
	}
}
