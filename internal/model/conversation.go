// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"time"

	"github.com/jeranaias/docsearch-tui/internal/docsearch"
)

// noActive marks the absence of an active streaming target.
const noActive = -1

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds the ordered chat history for one open session.
//
// The list is append-only; the only in-place change is wholesale replacement
// of the single active assistant message as stream events arrive. At most
// one message is active at any time, and it is always the most recently
// appended assistant message. The active slot is a weak index, invalidated
// the moment the message reaches a terminal state so that a late event can
// never mutate a stale target after a new request starts.
type Conversation struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Messages []Message `json:"messages"`

	active int
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{
		ID:        "conv_" + generateID()[4:],
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Messages:  make([]Message, 0),
		active:    noActive,
	}
}

// =============================================================================
// REQUEST LIFECYCLE
// =============================================================================

// InFlight reports whether a request is currently streaming.
// While true, new submissions are rejected rather than queued.
func (c *Conversation) InFlight() bool {
	return c.active != noActive
}

// BeginRequest appends the user message and its pending assistant reply and
// marks the reply active. Returns the assistant message ID, or ok=false if a
// previous request is still in flight (the submission is a no-op).
func (c *Conversation) BeginRequest(query string) (string, bool) {
	if c.InFlight() {
		return "", false
	}

	c.Messages = append(c.Messages, NewUserMessage(query))
	assistant := NewPendingAssistantMessage()
	c.Messages = append(c.Messages, assistant)
	c.active = len(c.Messages) - 1
	c.UpdatedAt = time.Now()
	return assistant.ID, true
}

// ApplyEvent applies one decoded stream event to the active message.
// Events arriving when no message is active (after an error event, or after
// the stream finished) are dropped.
func (c *Conversation) ApplyEvent(ev docsearch.StreamEvent) {
	msg, ok := c.activeMessage()
	if !ok {
		return
	}

	switch ev.Kind {
	case docsearch.EventChunk:
		c.replaceActive(msg.WithDelta(ev.Delta))
	case docsearch.EventReferences:
		c.replaceActive(msg.WithReferences(ev.References))
	case docsearch.EventError:
		c.replaceActive(msg.WithError(ev.Message))
	case docsearch.EventUnknown:
		// no-op
	}
}

// FinishStream finalizes the active message after a normal stream end.
// A message that never received a delta gets the fixed no-results text.
func (c *Conversation) FinishStream() {
	if msg, ok := c.activeMessage(); ok {
		c.replaceActive(msg.Finalized())
	}
}

// FailTransport fails the active message with the fixed transport failure
// text. Used for connection errors, non-success statuses, and idle timeouts.
func (c *Conversation) FailTransport() {
	if msg, ok := c.activeMessage(); ok {
		c.replaceActive(msg.WithTransportFailure())
	}
}

// =============================================================================
// ACTIVE MESSAGE TRACKING
// =============================================================================

// activeMessage returns a copy of the active message, if any.
func (c *Conversation) activeMessage() (Message, bool) {
	if c.active == noActive {
		return Message{}, false
	}
	return c.Messages[c.active], true
}

// replaceActive swaps in the rebuilt message record. Replacement of the
// whole value keeps each event atomic with respect to renders. Reaching a
// terminal state releases the active slot.
func (c *Conversation) replaceActive(msg Message) {
	c.Messages[c.active] = msg
	c.UpdatedAt = time.Now()
	if msg.State.Terminal() {
		c.active = noActive
	}
}

// ActiveMessage returns a copy of the message currently eligible for
// mutation, if any. Exposed for display layers.
func (c *Conversation) ActiveMessage() (Message, bool) {
	return c.activeMessage()
}

// =============================================================================
// HISTORY ACCESS
// =============================================================================

// GetLastMessage returns the most recent message, or ok=false if empty.
func (c *Conversation) GetLastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// GetLastAssistantMessage returns the most recent assistant message.
func (c *Conversation) GetLastAssistantMessage() (Message, bool) {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleAssistant {
			return c.Messages[i], true
		}
	}
	return Message{}, false
}

// History returns a snapshot copy of all messages for rendering or export.
func (c *Conversation) History() []Message {
	out := make([]Message, len(c.Messages))
	copy(out, c.Messages)
	return out
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// Clear removes all messages and releases the active slot.
func (c *Conversation) Clear() {
	c.Messages = make([]Message, 0)
	c.active = noActive
	c.UpdatedAt = time.Now()
}
