// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/docsearch-tui/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE STATE
// =============================================================================

// MessageState is the lifecycle state of an assistant message.
// User messages are created directly in StateFinalized.
type MessageState int

const (
	// StatePending: created for a dispatched request, content is still the
	// placeholder sentinel.
	StatePending MessageState = iota
	// StateStreaming: at least one real delta has been applied.
	StateStreaming
	// StateFinalized: stream ended normally; content is immutable.
	StateFinalized
	// StateFailed: backend error event or transport failure; content is the
	// error text and immutable.
	StateFailed
)

// Terminal reports whether no further event may mutate a message in this state.
func (s MessageState) Terminal() bool {
	return s == StateFinalized || s == StateFailed
}

// String returns a human-readable name for the state.
func (s MessageState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateStreaming:
		return "streaming"
	case StateFinalized:
		return "finalized"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// =============================================================================
// FIXED CONTENT
// =============================================================================

const (
	// PlaceholderContent is shown while the request is dispatched but no
	// delta has arrived yet.
	PlaceholderContent = "Synthesizing context…"

	// NoResultsContent replaces an answer that completed with zero deltas.
	NoResultsContent = "I couldn't find anything for that query."

	// TransportFailureContent replaces an answer whose request failed at the
	// transport level. Deliberately generic and distinct from backend-reported
	// error text, which is surfaced verbatim.
	TransportFailureContent = "The search service could not be reached. Please try again."
)

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
//
// Messages are value types: every event produces a fully rebuilt record that
// replaces the old one in the conversation, so a concurrent render observes
// either the previous message or the next one, never a half-applied update.
type Message struct {
	ID         string       `json:"id"`
	Role       Role         `json:"role"`
	Content    string       `json:"content"`
	References []string     `json:"references,omitempty"`
	State      MessageState `json:"-"`
	Timestamp  time.Time    `json:"timestamp"`
}

// NewUserMessage creates a finalized user message.
func NewUserMessage(content string) Message {
	return Message{
		ID:        generateID(),
		Role:      RoleUser,
		Content:   content,
		State:     StateFinalized,
		Timestamp: time.Now(),
	}
}

// NewPendingAssistantMessage creates the placeholder assistant message for a
// freshly dispatched request.
func NewPendingAssistantMessage() Message {
	return Message{
		ID:        generateID(),
		Role:      RoleAssistant,
		Content:   PlaceholderContent,
		State:     StatePending,
		Timestamp: time.Now(),
	}
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// WithDelta returns the message with an answer fragment applied.
// The first real delta replaces the placeholder sentinel outright; later
// deltas append. No-op once the message is terminal.
func (m Message) WithDelta(delta string) Message {
	if m.State.Terminal() {
		return m
	}
	if m.State == StatePending {
		m.Content = delta
	} else {
		m.Content += delta
	}
	m.State = StateStreaming
	return m
}

// WithReferences returns the message with its reference list replaced in
// full. References do not advance the text state. No-op once terminal.
func (m Message) WithReferences(refs []string) Message {
	if m.State.Terminal() {
		return m
	}
	m.References = append([]string(nil), refs...)
	return m
}

// WithError returns the message failed with the backend-reported text.
// Content becomes the error message verbatim and references are cleared.
// No-op once terminal.
func (m Message) WithError(errText string) Message {
	if m.State.Terminal() {
		return m
	}
	m.Content = errText
	m.References = nil
	m.State = StateFailed
	return m
}

// Finalized returns the message after a normal stream end. A message that
// never received a delta gets the fixed no-results text. No-op once terminal.
func (m Message) Finalized() Message {
	if m.State.Terminal() {
		return m
	}
	if m.State == StatePending {
		m.Content = NoResultsContent
	}
	m.State = StateFinalized
	return m
}

// WithTransportFailure returns the message failed with the fixed transport
// failure text. No-op once terminal.
func (m Message) WithTransportFailure() Message {
	if m.State.Terminal() {
		return m
	}
	m.Content = TransportFailureContent
	m.References = nil
	m.State = StateFailed
	return m
}

// =============================================================================
// ACCESSORS
// =============================================================================

// IsStreaming reports whether the message is still eligible for mutation.
func (m Message) IsStreaming() bool {
	return !m.State.Terminal()
}

// HasPlaceholder reports whether the message still shows the sentinel text.
func (m Message) HasPlaceholder() bool {
	return m.State == StatePending
}

// Preview returns a truncated preview of the message content.
// Rune-based so multi-byte characters are never split.
func (m Message) Preview(maxLen int) string {
	return util.TruncateRunes(m.Content, maxLen)
}

// generateID creates a unique message ID.
func generateID() string {
	return "msg_" + uuid.NewString()
}
